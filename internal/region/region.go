// Package region composites per-output captures into a single canvas
// when a requested rectangle spans more than one display, translating
// between the logical coordinate space callers use and the physical
// coordinate space each output's screen-copy frame is captured in.
package region

import (
	"fmt"

	"github.com/dkasak/wlcap/internal/cerrors"
	"github.com/dkasak/wlcap/internal/geometry"
	"github.com/dkasak/wlcap/internal/outputs"
	"github.com/dkasak/wlcap/internal/pixel"
	"github.com/dkasak/wlcap/internal/resample"
)

// OutputCapture captures the physical sub-rectangle physRect of rec,
// already normalized to canonical top-down RGBA (byte order, output
// transform, and vertical invert all applied).
type OutputCapture func(rec *outputs.Record, physRect geometry.Rectangle) (*pixel.Image, error)

// Compositor blits per-output captures covering a requested logical
// region into one canvas.
type Compositor struct {
	Registry *outputs.Registry
	Capture  OutputCapture
}

// Composite produces the canonical image for logical rectangle region.
// Outputs are visited in registry discovery order, so where two
// outputs' logical rectangles overlap, the later output's pixels win.
func (c *Compositor) Composite(region geometry.Rectangle) (*pixel.Image, error) {
	if region.IsEmpty() {
		return nil, cerrors.New(cerrors.KindInvalidRegion, "", fmt.Errorf("region has zero area"))
	}
	matches := c.Registry.Intersecting(region)
	if len(matches) == 0 {
		return nil, cerrors.New(cerrors.KindNoOutputsInRegion, "", fmt.Errorf("region %s does not intersect any output", region))
	}

	canvas := pixel.NewImage(region.Width, region.Height)
	for _, rec := range matches {
		intersection, ok := rec.Logical.Intersection(region)
		if !ok {
			continue
		}
		relative := intersection.Translate(-rec.Logical.X, -rec.Logical.Y)
		physRect := relative.Scale(rec.Scale, 1)

		img, err := c.Capture(rec, physRect)
		if err != nil {
			return nil, err
		}

		if rec.Scale != 1 {
			img = resample.ResizeByFactor(img, 1.0/float64(rec.Scale))
		}

		dstX := intersection.X - region.X
		dstY := intersection.Y - region.Y
		blit(canvas, dstX, dstY, img)
	}
	return canvas, nil
}

// blit copies src into dst at (dstX, dstY) using a source-copy: no
// alpha blending, clamped to whichever of dst or src runs out first.
func blit(dst *pixel.Image, dstX, dstY int, src *pixel.Image) {
	w := src.Width
	h := src.Height
	if dstX+w > dst.Width {
		w = dst.Width - dstX
	}
	if dstY+h > dst.Height {
		h = dst.Height - dstY
	}
	if w <= 0 || h <= 0 {
		return
	}
	for y := 0; y < h; y++ {
		sx0 := 0
		dx0 := dstX
		if dx0 < 0 {
			sx0 = -dx0
			dx0 = 0
		}
		sy := y
		dy := dstY + y
		if dy < 0 || dy >= dst.Height {
			continue
		}
		rowW := w - sx0
		if rowW <= 0 {
			continue
		}
		srcOff := src.At(sx0, sy)
		dstOff := dst.At(dx0, dy)
		copy(dst.Pix[dstOff:dstOff+rowW*4], src.Pix[srcOff:srcOff+rowW*4])
	}
}
