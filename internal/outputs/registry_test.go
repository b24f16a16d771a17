package outputs

import (
	"errors"
	"testing"

	"github.com/dkasak/wlcap/internal/cerrors"
	"github.com/dkasak/wlcap/internal/geometry"
)

func TestRegistryGetUnknown(t *testing.T) {
	r := NewRegistry()
	_, err := r.Get("DP-1")
	if !errors.Is(err, cerrors.Sentinel(cerrors.KindUnknownOutput)) {
		t.Fatalf("got %v, want unknown-output", err)
	}
}

func TestRegistryBoundingBox(t *testing.T) {
	r := NewRegistry()
	r.Put(&Record{Name: "DP-1", Logical: geometry.Rectangle{X: 0, Y: 0, Width: 1920, Height: 1080}})
	r.Put(&Record{Name: "DP-2", Logical: geometry.Rectangle{X: 1920, Y: 0, Width: 1080, Height: 1920}})
	box, err := r.BoundingBox()
	if err != nil {
		t.Fatalf("BoundingBox: %v", err)
	}
	want := geometry.Rectangle{X: 0, Y: 0, Width: 3000, Height: 1920}
	if box != want {
		t.Fatalf("got %+v, want %+v", box, want)
	}
}

func TestGuessLogicalGeometrySwapsOnRotate(t *testing.T) {
	phys := geometry.Rectangle{X: 0, Y: 0, Width: 1920, Height: 1080}
	got := GuessLogicalGeometry(phys, 1, TransformRotate90)
	if got.Width != 1080 || got.Height != 1920 {
		t.Fatalf("got %+v, want swapped 1080x1920", got)
	}
}

func TestGuessLogicalGeometryCeilsOnNonDivisibleScale(t *testing.T) {
	// 1921 / 3 = 640.33..., floor division would wrongly give 640.
	phys := geometry.Rectangle{X: 0, Y: 0, Width: 1921, Height: 1080}
	got := GuessLogicalGeometry(phys, 3, TransformNormal)
	if got.Width != 641 || got.Height != 360 {
		t.Fatalf("got %+v, want 641x360", got)
	}
}

func TestRegistryRemove(t *testing.T) {
	r := NewRegistry()
	r.Put(&Record{Name: "DP-1"})
	r.Remove("DP-1")
	if r.Len() != 0 {
		t.Fatalf("expected 0 outputs after remove, got %d", r.Len())
	}
}
