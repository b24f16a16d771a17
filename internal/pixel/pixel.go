// Package pixel holds the canonical in-memory image representation
// used throughout the capture pipeline: a tightly packed, top-down,
// 8-bit RGBA buffer.
package pixel

import "fmt"

// Format identifies the wire pixel format a compositor buffer was
// filled with, before normalization to RGBA.
type Format int

const (
	FormatUnknown Format = iota
	FormatARGB8888
	FormatXRGB8888
	FormatABGR8888
	FormatXBGR8888
)

func (f Format) String() string {
	switch f {
	case FormatARGB8888:
		return "ARGB8888"
	case FormatXRGB8888:
		return "XRGB8888"
	case FormatABGR8888:
		return "ABGR8888"
	case FormatXBGR8888:
		return "XBGR8888"
	default:
		return "unknown"
	}
}

// HasAlpha reports whether the wire format carries a real alpha
// channel, as opposed to an ignored "X" byte that normalization must
// replace with 255.
func (f Format) HasAlpha() bool {
	return f == FormatARGB8888 || f == FormatABGR8888
}

// Image is a tightly packed, row-major, top-down RGBA buffer: no
// padding between rows, no reserved capacity beyond Width*Height*4.
type Image struct {
	Width, Height int
	Pix           []byte // len == Width*Height*4
}

// NewImage allocates a zeroed image of the given dimensions.
func NewImage(width, height int) *Image {
	return &Image{Width: width, Height: height, Pix: make([]byte, width*height*4)}
}

// Stride is the row length in bytes of a tightly packed image.
func (im *Image) Stride() int {
	return im.Width * 4
}

// At returns the byte offset of pixel (x, y) in Pix.
func (im *Image) At(x, y int) int {
	return y*im.Stride() + x*4
}

// Validate checks the buffer length matches the declared dimensions.
func (im *Image) Validate() error {
	want := im.Width * im.Height * 4
	if len(im.Pix) != want {
		return fmt.Errorf("pixel: image %dx%d expects %d bytes, got %d", im.Width, im.Height, want, len(im.Pix))
	}
	return nil
}
