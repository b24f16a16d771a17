package normalize

import (
	"testing"

	"github.com/dkasak/wlcap/internal/outputs"
	"github.com/dkasak/wlcap/internal/pixel"
)

func rawXRGB(pixels [][4]byte, width, height int) []byte {
	buf := make([]byte, width*height*4)
	for i, p := range pixels {
		copy(buf[i*4:i*4+4], p[:])
	}
	return buf
}

func TestUnpackXRGBSwapsAndForcesOpaque(t *testing.T) {
	// One BGRx pixel: B=10 G=20 R=30 X=99 -> RGBA(30,20,10,255)
	raw := rawXRGB([][4]byte{{10, 20, 30, 99}}, 1, 1)
	img, err := Unpack(raw, 1, 1, 4, pixel.FormatXRGB8888)
	if err != nil {
		t.Fatalf("Unpack: %v", err)
	}
	want := []byte{30, 20, 10, 255}
	if string(img.Pix) != string(want) {
		t.Fatalf("got %v, want %v", img.Pix, want)
	}
}

func TestUnpackABGRPreservesAlpha(t *testing.T) {
	raw := rawXRGB([][4]byte{{10, 20, 30, 200}}, 1, 1)
	img, err := Unpack(raw, 1, 1, 4, pixel.FormatABGR8888)
	if err != nil {
		t.Fatalf("Unpack: %v", err)
	}
	want := []byte{10, 20, 30, 200}
	if string(img.Pix) != string(want) {
		t.Fatalf("got %v, want %v", img.Pix, want)
	}
}

func stripe(w, h int) *pixel.Image {
	img := pixel.NewImage(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := byte(y*w + x)
			off := img.At(x, y)
			img.Pix[off] = v
			img.Pix[off+3] = 255
		}
	}
	return img
}

func TestRotate90Dimensions(t *testing.T) {
	img := stripe(4, 2)
	out := ApplyTransform(img, outputs.TransformRotate90)
	if out.Width != 2 || out.Height != 4 {
		t.Fatalf("got %dx%d, want 2x4", out.Width, out.Height)
	}
}

func TestRotate180Involution(t *testing.T) {
	img := stripe(3, 5)
	once := ApplyTransform(img, outputs.TransformRotate180)
	twice := ApplyTransform(once, outputs.TransformRotate180)
	if string(twice.Pix) != string(img.Pix) {
		t.Fatalf("rotate180 twice should be identity")
	}
}

func TestRotate270Dimensions(t *testing.T) {
	img := stripe(4, 2)
	out := ApplyTransform(img, outputs.TransformRotate270)
	if out.Width != 2 || out.Height != 4 {
		t.Fatalf("got %dx%d, want 2x4", out.Width, out.Height)
	}
}

func TestRotate90ThenRotate270IsIdentity(t *testing.T) {
	img := stripe(4, 2)
	rotated := ApplyTransform(img, outputs.TransformRotate90)
	back := ApplyTransform(rotated, outputs.TransformRotate270)
	if back.Width != img.Width || back.Height != img.Height {
		t.Fatalf("got %dx%d, want %dx%d", back.Width, back.Height, img.Width, img.Height)
	}
	if string(back.Pix) != string(img.Pix) {
		t.Fatalf("rotate90 then rotate270 should be identity")
	}
}

func TestNormalIsIdentity(t *testing.T) {
	img := stripe(4, 2)
	out := ApplyTransform(img, outputs.TransformNormal)
	if out != img {
		t.Fatalf("Normal transform should return the same image unchanged")
	}
}

func TestFlippedEqualsHorizontalFlip(t *testing.T) {
	img := stripe(3, 3)
	a := ApplyTransform(img, outputs.TransformFlipped)
	b := flipHorizontal(img)
	if string(a.Pix) != string(b.Pix) {
		t.Fatalf("Flipped should equal flip_horizontal")
	}
}

func TestFlipped180EqualsVerticalFlip(t *testing.T) {
	img := stripe(3, 3)
	a := ApplyTransform(img, outputs.TransformFlipped180)
	b := flipVertical(img)
	if string(a.Pix) != string(b.Pix) {
		t.Fatalf("Flipped180 should equal flip_vertical")
	}
}

func TestFlipped90EqualsFlipThenRotate(t *testing.T) {
	img := stripe(4, 2)
	a := ApplyTransform(img, outputs.TransformFlipped90)
	b := rotate90(flipHorizontal(img))
	if a.Width != b.Width || a.Height != b.Height {
		t.Fatalf("got %dx%d, want %dx%d", a.Width, a.Height, b.Width, b.Height)
	}
	if string(a.Pix) != string(b.Pix) {
		t.Fatalf("Flipped90 should equal rotate90(flip_horizontal)")
	}
}

func TestFlipped270EqualsFlipThenRotate(t *testing.T) {
	img := stripe(4, 2)
	a := ApplyTransform(img, outputs.TransformFlipped270)
	b := rotate270(flipHorizontal(img))
	if a.Width != b.Width || a.Height != b.Height {
		t.Fatalf("got %dx%d, want %dx%d", a.Width, a.Height, b.Width, b.Height)
	}
	if string(a.Pix) != string(b.Pix) {
		t.Fatalf("Flipped270 should equal rotate270(flip_horizontal)")
	}
}

func TestVerticalInvertKeepsPostTransformDimensions(t *testing.T) {
	img := stripe(4, 2)
	transformed := ApplyTransform(img, outputs.TransformRotate90)
	inverted := ApplyVerticalInvert(transformed, true)
	if inverted.Width != transformed.Width || inverted.Height != transformed.Height {
		t.Fatalf("vertical invert should not change post-transform dimensions")
	}
}
