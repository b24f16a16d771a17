package encode

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/dkasak/wlcap/internal/pixel"
)

func TestEncodePNGDecodesBack(t *testing.T) {
	img := pixel.NewImage(4, 3)
	for i := range img.Pix {
		img.Pix[i] = byte(i)
	}
	b, err := Bytes(img, PNG)
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	decoded, err := png.Decode(bytes.NewReader(b))
	if err != nil {
		t.Fatalf("png.Decode: %v", err)
	}
	if decoded.Bounds().Dx() != 4 || decoded.Bounds().Dy() != 3 {
		t.Fatalf("decoded size mismatch: %v", decoded.Bounds())
	}
}

func TestEncodePPMHeader(t *testing.T) {
	img := pixel.NewImage(2, 2)
	b, err := Bytes(img, PPM)
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	want := "P6\n2 2\n255\n"
	if string(b[:len(want)]) != want {
		t.Fatalf("got header %q, want %q", b[:len(want)], want)
	}
	if len(b) != len(want)+2*2*3 {
		t.Fatalf("unexpected PPM length %d", len(b))
	}
}

func TestEncodeUnknownFormat(t *testing.T) {
	img := pixel.NewImage(1, 1)
	if _, err := Bytes(img, Format("bmp")); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}
