// Package capture orchestrates the pipeline a caller-facing request
// actually needs: resolving output records, driving one or more
// frame tasks to completion, normalizing their pixels, compositing
// them when a region spans outputs, and resampling to the requested
// scale.
package capture

import (
	"context"
	"fmt"
	"time"

	"github.com/dkasak/wlcap/internal/cerrors"
	"github.com/dkasak/wlcap/internal/frametask"
	"github.com/dkasak/wlcap/internal/geometry"
	"github.com/dkasak/wlcap/internal/logger"
	"github.com/dkasak/wlcap/internal/normalize"
	"github.com/dkasak/wlcap/internal/outputs"
	"github.com/dkasak/wlcap/internal/pixel"
	"github.com/dkasak/wlcap/internal/protocol"
	"github.com/dkasak/wlcap/internal/region"
	"github.com/dkasak/wlcap/internal/resample"
	"github.com/dkasak/wlcap/internal/shmbuf"
	"github.com/dkasak/wlcap/internal/wlsession"
)

// FrameTimeout bounds how long a single frame task may take to
// complete before it is treated as failed.
const FrameTimeout = 5 * time.Second

// Engine is the top-level entry point applications use once a Session
// is open.
type Engine struct {
	session *wlsession.Session
}

func New(session *wlsession.Session) *Engine {
	return &Engine{session: session}
}

// ListOutputs returns the currently known output records.
func (e *Engine) ListOutputs() []*outputs.Record {
	return e.session.Outputs.List()
}

// Capture executes spec and returns the resulting canonical, possibly
// resampled image.
func (e *Engine) Capture(ctx context.Context, spec Spec) (*pixel.Image, error) {
	switch spec.Kind {
	case KindWholeScreen:
		return e.captureWholeScreen(ctx, spec)
	case KindByOutput:
		return e.captureOutputByName(ctx, spec)
	case KindByRegion:
		return e.captureRegion(ctx, spec)
	default:
		return nil, fmt.Errorf("capture: Capture does not accept Kind %v, use CaptureMany", spec.Kind)
	}
}

func (e *Engine) captureWholeScreen(ctx context.Context, spec Spec) (*pixel.Image, error) {
	box, err := e.session.Outputs.BoundingBox()
	if err != nil {
		return nil, err
	}
	spec.Region = box
	return e.captureRegion(ctx, spec)
}

func (e *Engine) captureOutputByName(ctx context.Context, spec Spec) (*pixel.Image, error) {
	rec, err := e.session.Outputs.Get(spec.Output)
	if err != nil {
		return nil, err
	}
	img, err := e.capturePhysical(ctx, rec, rec.Physical.Translate(-rec.Physical.X, -rec.Physical.Y), spec.OverlayCursor)
	if err != nil {
		return nil, err
	}
	return applyScale(img, spec.Scale), nil
}

func (e *Engine) captureRegion(ctx context.Context, spec Spec) (*pixel.Image, error) {
	comp := &region.Compositor{
		Registry: e.session.Outputs,
		Capture: func(rec *outputs.Record, physRect geometry.Rectangle) (*pixel.Image, error) {
			return e.capturePhysical(ctx, rec, physRect, spec.OverlayCursor)
		},
	}
	img, err := comp.Composite(spec.Region)
	if err != nil {
		return nil, err
	}
	return applyScale(img, spec.Scale), nil
}

// CaptureMany captures every named output as a single atomic batch:
// every frame is submitted before any is awaited, and if any output's
// frame fails the whole batch fails, matching the all-or-nothing
// batch semantics a caller waiting on a consistent multi-monitor
// snapshot needs.
func (e *Engine) CaptureMany(ctx context.Context, spec Spec) (map[string]*pixel.Image, error) {
	type pending struct {
		name string
		rec  *outputs.Record
		task *frametask.Task
	}
	var tasks []pending
	for _, name := range spec.Outputs {
		rec, err := e.session.Outputs.Get(name)
		if err != nil {
			return nil, err
		}
		task, err := e.submit(rec, rec.Physical.Translate(-rec.Physical.X, -rec.Physical.Y), spec.OverlayCursor)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, pending{name: name, rec: rec, task: task})
	}

	results := make(map[string]*pixel.Image, len(tasks))
	for _, p := range tasks {
		img, err := e.awaitAndNormalize(ctx, p.task, p.rec)
		if err != nil {
			return nil, cerrors.New(cerrors.KindCaptureFailed, p.name, err)
		}
		results[p.name] = applyScale(img, spec.Scale)
	}
	return results, nil
}

func (e *Engine) capturePhysical(ctx context.Context, rec *outputs.Record, physRect geometry.Rectangle, overlayCursor bool) (*pixel.Image, error) {
	task, err := e.submit(rec, physRect, overlayCursor)
	if err != nil {
		return nil, err
	}
	return e.awaitAndNormalize(ctx, task, rec)
}

func (e *Engine) submit(rec *outputs.Record, physRect geometry.Rectangle, overlayCursor bool) (*frametask.Task, error) {
	handle, err := e.session.OutputHandle(rec.Name)
	if err != nil {
		return nil, err
	}
	mgr := e.session.ScreencopyManager()
	shm := e.session.Shm()

	var frame *protocol.ScreencopyFrame
	if physRect.X == 0 && physRect.Y == 0 && physRect.Width == rec.Physical.Width && physRect.Height == rec.Physical.Height {
		frame = mgr.CaptureOutput(handle, overlayCursor)
	} else {
		if physRect.Width <= 0 || physRect.Height <= 0 {
			return nil, cerrors.New(cerrors.KindInvalidRegion, rec.Name, fmt.Errorf("empty physical rectangle"))
		}
		frame = mgr.CaptureOutputRegion(handle, overlayCursor, int32(physRect.X), int32(physRect.Y), int32(physRect.Width), int32(physRect.Height))
	}

	alloc := func(size, width, height, stride int32, format uint32) (*shmbuf.Buffer, error) {
		return shmbuf.Alloc(shm, size, width, height, stride, format)
	}
	return frametask.New(frame, alloc), nil
}

func (e *Engine) awaitAndNormalize(ctx context.Context, task *frametask.Task, rec *outputs.Record) (*pixel.Image, error) {
	waitCtx, cancel := context.WithTimeout(ctx, FrameTimeout)
	defer cancel()

	// Registered before the Wait error check so the buffer (if OnBuffer
	// already allocated one) and the compositor-side frame object are
	// always released, including on timeout or a failed frame.
	defer func() {
		if buf := task.Buffer(); buf != nil {
			if err := buf.Release(); err != nil {
				logger.WithComponent("capture").Warn().Err(err).Msg("failed releasing shared-memory buffer")
			}
		}
		if frame := task.Frame(); frame != nil {
			frame.Destroy()
		}
	}()

	res, err := task.Wait(waitCtx)
	if err != nil {
		return nil, err
	}

	if res.Format == pixel.FormatUnknown {
		return nil, cerrors.New(cerrors.KindFormatUnsupported, rec.Name, fmt.Errorf("compositor sent an unsupported wire pixel format"))
	}

	// Raw is backed by shared memory the compositor may reuse once the
	// buffer is released, so Normalize's output must own its bytes,
	// which it does: Unpack always allocates a fresh Image.
	return normalize.Normalize(res.Raw, res.Width, res.Height, res.Stride, res.Format, rec.Transform, res.Invert)
}

func applyScale(img *pixel.Image, scale float64) *pixel.Image {
	if scale <= 0 || scale == 1.0 {
		return img
	}
	return resample.ResizeByFactor(img, scale)
}
