// Package normalize converts a raw screen-copy buffer into a
// canonical top-down RGBA image: byte-order conversion first, then
// the output's orientation transform, then (last) the frame's
// vertical-invert flag. The order matters — inverting before
// transforming would invert the wrong axis whenever the transform
// swaps width and height.
package normalize

import (
	"fmt"

	"github.com/dkasak/wlcap/internal/outputs"
	"github.com/dkasak/wlcap/internal/pixel"
)

// Unpack reshapes a raw wire-format buffer (which may have a stride
// wider than width*bytesPerPixel) into a tightly packed, top-down
// RGBA image.
func Unpack(raw []byte, width, height, stride int, format pixel.Format) (*pixel.Image, error) {
	if format == pixel.FormatUnknown {
		return nil, fmt.Errorf("normalize: unsupported pixel format")
	}
	if stride < width*4 {
		return nil, fmt.Errorf("normalize: stride %d shorter than width*4 (%d)", stride, width*4)
	}
	if len(raw) < stride*height {
		return nil, fmt.Errorf("normalize: buffer too short: have %d, need %d", len(raw), stride*height)
	}
	img := pixel.NewImage(width, height)
	swapRB := format == pixel.FormatARGB8888 || format == pixel.FormatXRGB8888
	hasAlpha := format.HasAlpha()

	for y := 0; y < height; y++ {
		srcRow := raw[y*stride : y*stride+width*4]
		dstRow := img.Pix[y*img.Stride() : (y+1)*img.Stride()]
		for x := 0; x < width; x++ {
			s := srcRow[x*4 : x*4+4]
			d := dstRow[x*4 : x*4+4]
			// Wire byte order is little-endian words: byte 0 is blue
			// for *RGB formats and red for *BGR formats.
			b0, b1, b2, b3 := s[0], s[1], s[2], s[3]
			if swapRB {
				d[0], d[1], d[2] = b2, b1, b0 // R, G, B
			} else {
				d[0], d[1], d[2] = b0, b1, b2 // R, G, B
			}
			if hasAlpha {
				d[3] = b3
			} else {
				d[3] = 255
			}
		}
	}
	return img, nil
}

// ApplyTransform applies the output's orientation correction to img.
// TransformNormal (and any unknown value) returns img itself; every
// other transform returns a new image and leaves img untouched.
func ApplyTransform(img *pixel.Image, t outputs.Transform) *pixel.Image {
	switch t {
	case outputs.TransformNormal:
		return img
	case outputs.TransformRotate90:
		return rotate90(img)
	case outputs.TransformRotate180:
		return rotate180(img)
	case outputs.TransformRotate270:
		return rotate270(img)
	case outputs.TransformFlipped:
		return flipHorizontal(img)
	case outputs.TransformFlipped90:
		return rotate90(flipHorizontal(img))
	case outputs.TransformFlipped180:
		return flipVertical(img)
	case outputs.TransformFlipped270:
		return rotate270(flipHorizontal(img))
	default:
		return img
	}
}

// ApplyVerticalInvert flips img top-to-bottom when invert is set. Must
// run after ApplyTransform.
func ApplyVerticalInvert(img *pixel.Image, invert bool) *pixel.Image {
	if !invert {
		return img
	}
	return flipVertical(img)
}

// Normalize runs Unpack, ApplyTransform, and ApplyVerticalInvert in
// the required order.
func Normalize(raw []byte, width, height, stride int, format pixel.Format, t outputs.Transform, invert bool) (*pixel.Image, error) {
	img, err := Unpack(raw, width, height, stride, format)
	if err != nil {
		return nil, err
	}
	img = ApplyTransform(img, t)
	img = ApplyVerticalInvert(img, invert)
	return img, nil
}

func rotate90(src *pixel.Image) *pixel.Image {
	dst := pixel.NewImage(src.Height, src.Width)
	for y := 0; y < dst.Height; y++ {
		for x := 0; x < dst.Width; x++ {
			sx, sy := y, src.Height-1-x
			copyPixel(dst, x, y, src, sx, sy)
		}
	}
	return dst
}

func rotate180(src *pixel.Image) *pixel.Image {
	dst := pixel.NewImage(src.Width, src.Height)
	for y := 0; y < dst.Height; y++ {
		for x := 0; x < dst.Width; x++ {
			copyPixel(dst, x, y, src, src.Width-1-x, src.Height-1-y)
		}
	}
	return dst
}

func rotate270(src *pixel.Image) *pixel.Image {
	dst := pixel.NewImage(src.Height, src.Width)
	for y := 0; y < dst.Height; y++ {
		for x := 0; x < dst.Width; x++ {
			sx, sy := src.Width-1-y, x
			copyPixel(dst, x, y, src, sx, sy)
		}
	}
	return dst
}

func flipHorizontal(src *pixel.Image) *pixel.Image {
	dst := pixel.NewImage(src.Width, src.Height)
	for y := 0; y < dst.Height; y++ {
		for x := 0; x < dst.Width; x++ {
			copyPixel(dst, x, y, src, src.Width-1-x, y)
		}
	}
	return dst
}

func flipVertical(src *pixel.Image) *pixel.Image {
	dst := pixel.NewImage(src.Width, src.Height)
	for y := 0; y < dst.Height; y++ {
		for x := 0; x < dst.Width; x++ {
			copyPixel(dst, x, y, src, x, src.Height-1-y)
		}
	}
	return dst
}

func copyPixel(dst *pixel.Image, dx, dy int, src *pixel.Image, sx, sy int) {
	d := dst.Pix[dst.At(dx, dy) : dst.At(dx, dy)+4]
	s := src.Pix[src.At(sx, sy) : src.At(sx, sy)+4]
	copy(d, s)
}
