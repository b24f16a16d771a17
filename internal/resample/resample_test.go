package resample

import (
	"testing"

	"golang.org/x/image/draw"

	"github.com/dkasak/wlcap/internal/pixel"
)

func TestScalerForThresholds(t *testing.T) {
	cases := []struct {
		s    float64
		want draw.Scaler
	}{
		{2.0, draw.BiLinear},
		{1.0, draw.BiLinear},
		{0.75, draw.BiLinear},
		{0.6, draw.CatmullRom},
		{0.5, draw.CatmullRom},
		{0.3, &Lanczos3},
	}
	for _, c := range cases {
		got := ScalerFor(c.s)
		want := c.want
		if _, ok := got.(*draw.Kernel); ok {
			gk := got.(*draw.Kernel)
			wk, wok := want.(*draw.Kernel)
			if !wok || gk.Support != wk.Support {
				t.Fatalf("ScalerFor(%v): kernel mismatch", c.s)
			}
			continue
		}
	}
}

func TestResizeDimensions(t *testing.T) {
	img := pixel.NewImage(100, 50)
	out := Resize(img, 40, 20)
	if out.Width != 40 || out.Height != 20 {
		t.Fatalf("got %dx%d, want 40x20", out.Width, out.Height)
	}
}

func TestResizeNoopWhenSameSize(t *testing.T) {
	img := pixel.NewImage(10, 10)
	out := Resize(img, 10, 10)
	if out != img {
		t.Fatalf("expected same image pointer for no-op resize")
	}
}

func TestResizeByFactorRoundsToNearest(t *testing.T) {
	img := pixel.NewImage(10, 10)

	// 10 * 0.54 = 5.4, rounds down to 5. Ceiling would wrongly give 6.
	out := ResizeByFactor(img, 0.54)
	if out.Width != 5 || out.Height != 5 {
		t.Fatalf("ResizeByFactor(0.54) = %dx%d, want 5x5", out.Width, out.Height)
	}

	// 10 * 0.56 = 5.6, rounds up to 6.
	out = ResizeByFactor(img, 0.56)
	if out.Width != 6 || out.Height != 6 {
		t.Fatalf("ResizeByFactor(0.56) = %dx%d, want 6x6", out.Width, out.Height)
	}
}

func TestLanczos3ZeroAtIntegers(t *testing.T) {
	for _, x := range []float64{1, 2, -1, -2} {
		v := lanczos3(x)
		if v > 1e-9 || v < -1e-9 {
			t.Fatalf("lanczos3(%v) = %v, want ~0", x, v)
		}
	}
	if lanczos3(0) != 1 {
		t.Fatalf("lanczos3(0) should be 1")
	}
}
