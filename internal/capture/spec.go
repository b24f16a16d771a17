package capture

import "github.com/dkasak/wlcap/internal/geometry"

// Kind selects which shape of capture a Spec describes.
type Kind int

const (
	KindWholeScreen Kind = iota
	KindByOutput
	KindByRegion
	KindBatch
)

// Spec describes one capture request: whole-screen, a single named
// output, an arbitrary logical rectangle, or a batch of named
// outputs captured together.
type Spec struct {
	Kind          Kind
	Output        string
	Region        geometry.Rectangle
	Outputs       []string
	Scale         float64 // 0 means "no resampling"
	OverlayCursor bool
}
