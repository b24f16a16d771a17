// Package encode turns a canonical pixel.Image into bytes for the CLI
// and HTTP layer to write out. PNG and JPEG use the standard library's
// own codecs, the idiomatic choice for well-supported formats with no
// compelling third-party alternative in this stack; PPM has no widely
// used ecosystem encoder, so it is hand-written here.
package encode

import (
	"bytes"
	"fmt"
	stdimage "image"
	"image/jpeg"
	"image/png"
	"io"

	"github.com/dkasak/wlcap/internal/pixel"
)

// Format identifies an output image encoding.
type Format string

const (
	PNG  Format = "png"
	JPEG Format = "jpeg"
	PPM  Format = "ppm"
)

// ContentType returns the MIME type for an HTTP response.
func (f Format) ContentType() string {
	switch f {
	case PNG:
		return "image/png"
	case JPEG:
		return "image/jpeg"
	case PPM:
		return "image/x-portable-pixmap"
	default:
		return "application/octet-stream"
	}
}

func toStd(img *pixel.Image) *stdimage.RGBA {
	return &stdimage.RGBA{
		Pix:    img.Pix,
		Stride: img.Stride(),
		Rect:   stdimage.Rect(0, 0, img.Width, img.Height),
	}
}

// Encode writes img to w in the given format.
func Encode(w io.Writer, img *pixel.Image, format Format) error {
	switch format {
	case PNG:
		return png.Encode(w, toStd(img))
	case JPEG:
		return jpeg.Encode(w, toStd(img), &jpeg.Options{Quality: 90})
	case PPM:
		return encodePPM(w, img)
	default:
		return fmt.Errorf("encode: unknown format %q", format)
	}
}

// Bytes encodes img and returns the result as a byte slice.
func Bytes(img *pixel.Image, format Format) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, img, format); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// encodePPM writes a binary (P6) PPM: header, then row-major RGB
// triples with alpha dropped.
func encodePPM(w io.Writer, img *pixel.Image) error {
	if _, err := fmt.Fprintf(w, "P6\n%d %d\n255\n", img.Width, img.Height); err != nil {
		return err
	}
	row := make([]byte, img.Width*3)
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			off := img.At(x, y)
			row[x*3], row[x*3+1], row[x*3+2] = img.Pix[off], img.Pix[off+1], img.Pix[off+2]
		}
		if _, err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}
