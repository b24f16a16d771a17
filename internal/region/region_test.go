package region

import (
	"errors"
	"testing"

	"github.com/dkasak/wlcap/internal/cerrors"
	"github.com/dkasak/wlcap/internal/geometry"
	"github.com/dkasak/wlcap/internal/outputs"
	"github.com/dkasak/wlcap/internal/pixel"
)

func solid(w, h int, v byte) *pixel.Image {
	img := pixel.NewImage(w, h)
	for i := range img.Pix {
		img.Pix[i] = v
	}
	return img
}

func TestCompositeNoIntersection(t *testing.T) {
	reg := outputs.NewRegistry()
	reg.Put(&outputs.Record{Name: "DP-1", Scale: 1, Logical: geometry.Rectangle{X: 0, Y: 0, Width: 100, Height: 100}})
	c := &Compositor{Registry: reg, Capture: func(rec *outputs.Record, r geometry.Rectangle) (*pixel.Image, error) {
		return solid(r.Width, r.Height, 1), nil
	}}
	_, err := c.Composite(geometry.Rectangle{X: 1000, Y: 1000, Width: 10, Height: 10})
	if !errors.Is(err, cerrors.Sentinel(cerrors.KindNoOutputsInRegion)) {
		t.Fatalf("got %v, want no-outputs-in-region", err)
	}
}

func TestCompositeSingleOutputFullyCovers(t *testing.T) {
	reg := outputs.NewRegistry()
	reg.Put(&outputs.Record{Name: "DP-1", Scale: 1, Logical: geometry.Rectangle{X: 0, Y: 0, Width: 200, Height: 200}})
	c := &Compositor{Registry: reg, Capture: func(rec *outputs.Record, r geometry.Rectangle) (*pixel.Image, error) {
		return solid(r.Width, r.Height, 42), nil
	}}
	img, err := c.Composite(geometry.Rectangle{X: 10, Y: 10, Width: 50, Height: 50})
	if err != nil {
		t.Fatalf("Composite: %v", err)
	}
	if img.Width != 50 || img.Height != 50 {
		t.Fatalf("got %dx%d", img.Width, img.Height)
	}
	for _, b := range img.Pix {
		if b != 42 {
			t.Fatalf("expected fully covered canvas, found byte %d", b)
		}
	}
}

func TestCompositeLaterOutputWinsOnOverlap(t *testing.T) {
	reg := outputs.NewRegistry()
	reg.Put(&outputs.Record{Name: "DP-1", Scale: 1, Logical: geometry.Rectangle{X: 0, Y: 0, Width: 100, Height: 100}})
	reg.Put(&outputs.Record{Name: "DP-2", Scale: 1, Logical: geometry.Rectangle{X: 0, Y: 0, Width: 100, Height: 100}})
	c := &Compositor{Registry: reg, Capture: func(rec *outputs.Record, r geometry.Rectangle) (*pixel.Image, error) {
		if rec.Name == "DP-1" {
			return solid(r.Width, r.Height, 1), nil
		}
		return solid(r.Width, r.Height, 2), nil
	}}
	img, err := c.Composite(geometry.Rectangle{X: 0, Y: 0, Width: 100, Height: 100})
	if err != nil {
		t.Fatalf("Composite: %v", err)
	}
	if img.Pix[0] != 2 {
		t.Fatalf("expected later output (DP-2, value 2) to win, got %d", img.Pix[0])
	}
}
