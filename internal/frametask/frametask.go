// Package frametask drives a single screen-copy frame's asynchronous
// state machine (Submitted -> BufferReady -> Copying ->
// Completed/Failed) to completion, bridging the wire dispatch
// goroutine's callbacks to a blocked caller.
package frametask

import (
	"context"
	"fmt"
	"sync"

	"github.com/dkasak/wlcap/internal/cerrors"
	"github.com/dkasak/wlcap/internal/pixel"
	"github.com/dkasak/wlcap/internal/protocol"
	"github.com/dkasak/wlcap/internal/shmbuf"
)

// State is a frame task's position in its lifecycle.
type State int

const (
	Submitted State = iota
	BufferReady
	Copying
	Completed
	Failed
)

// BufferAllocator creates the shared-memory buffer a frame's pixels
// are copied into, once the compositor has announced the required
// size and format.
type BufferAllocator func(size, width, height, stride int32, format uint32) (*shmbuf.Buffer, error)

// Task tracks one in-flight zwlr_screencopy_frame_v1 capture.
type Task struct {
	frame  *protocol.ScreencopyFrame
	alloc  BufferAllocator

	mu      sync.Mutex
	poisons error // set once a callback panics; every later access fails
	state   State
	buf     *shmbuf.Buffer
	format  pixel.Format
	width   int
	height  int
	stride  int
	invert  bool
	err     error

	done chan struct{}
}

// New wraps frame, registering itself as the frame's event listener.
func New(frame *protocol.ScreencopyFrame, alloc BufferAllocator) *Task {
	t := &Task{frame: frame, alloc: alloc, done: make(chan struct{})}
	frame.SetListener(t)
	return t
}

// lock acquires the task's mutex, converting a previously recovered
// panic into an internal-invariant-violation instead of silently
// operating on inconsistent state.
func (t *Task) lock() error {
	t.mu.Lock()
	if t.poisons != nil {
		err := t.poisons
		t.mu.Unlock()
		return cerrors.New(cerrors.KindInternalInvariant, "", err)
	}
	return nil
}

func (t *Task) guarded(name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			t.poisons = fmt.Errorf("frametask: panic in %s: %v", name, r)
			t.state = Failed
			t.err = cerrors.New(cerrors.KindInternalInvariant, "", t.poisons)
			t.signalDone()
		}
		t.mu.Unlock()
	}()
	t.mu.Lock()
	fn()
}

func (t *Task) signalDone() {
	select {
	case <-t.done:
	default:
		close(t.done)
	}
}

// OnBuffer implements protocol.ScreencopyFrameListener. It allocates
// the shared-memory buffer and immediately requests the copy.
func (t *Task) OnBuffer(f *protocol.ScreencopyFrame) {
	t.guarded("OnBuffer", func() {
		st := f.State
		size := int32(st.Stride) * int32(st.Height)
		buf, err := t.alloc(size, int32(st.Width), int32(st.Height), int32(st.Stride), st.Format)
		if err != nil {
			t.state = Failed
			t.err = err
			t.signalDone()
			return
		}
		t.buf = buf
		t.format = wireFormat(st.Format)
		t.width = int(st.Width)
		t.height = int(st.Height)
		t.stride = int(st.Stride)
		t.state = BufferReady
		t.state = Copying
		f.Copy(buf.Object)
	})
}

// OnReady implements protocol.ScreencopyFrameListener.
func (t *Task) OnReady(f *protocol.ScreencopyFrame) {
	t.guarded("OnReady", func() {
		if t.state != Copying {
			t.err = cerrors.New(cerrors.KindProtocolViolation, "", fmt.Errorf("frametask: ready event in state %v", t.state))
			t.state = Failed
			t.signalDone()
			return
		}
		// The flags event precedes ready, so the frame's flags are final here.
		t.invert = f.State.Flags&1 != 0 // WLR_SCREENCOPY_FRAME_FLAGS_Y_INVERT
		t.state = Completed
		t.signalDone()
	})
}

// OnFailed implements protocol.ScreencopyFrameListener.
func (t *Task) OnFailed(f *protocol.ScreencopyFrame) {
	t.guarded("OnFailed", func() {
		t.state = Failed
		if t.err == nil {
			t.err = cerrors.New(cerrors.KindCaptureFailed, "", fmt.Errorf("compositor reported capture failure"))
		}
		t.signalDone()
	})
}

// Result is the outcome of a completed frame task.
type Result struct {
	Format pixel.Format
	Width  int
	Height int
	Stride int
	Invert bool
	Raw    []byte // borrowed from the shared-memory mapping; copy before Release
}

// Wait blocks until the frame reaches Completed or Failed, or until
// ctx is done.
func (t *Task) Wait(ctx context.Context) (*Result, error) {
	select {
	case <-t.done:
	case <-ctx.Done():
		return nil, cerrors.New(cerrors.KindTimeout, "", ctx.Err())
	}
	if err := t.lock(); err != nil {
		return nil, err
	}
	defer t.mu.Unlock()

	if t.state == Failed {
		if t.err != nil {
			return nil, t.err
		}
		return nil, cerrors.New(cerrors.KindCaptureFailed, "", fmt.Errorf("frame failed"))
	}
	if t.state != Completed {
		return nil, cerrors.New(cerrors.KindInternalInvariant, "", fmt.Errorf("frametask: Wait returned in state %v", t.state))
	}
	return &Result{
		Format: t.format,
		Width:  t.width,
		Height: t.height,
		Stride: t.stride,
		Invert: t.invert,
		Raw:    t.buf.Bytes(),
	}, nil
}

// Buffer returns the allocated shared-memory buffer, valid after
// Wait returns successfully, so the caller can Release it once the
// pixels have been copied out.
func (t *Task) Buffer() *shmbuf.Buffer {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.buf
}

// Frame returns the underlying screen-copy frame object, so the
// caller can destroy it once the task reaches a terminal state
// (Completed, Failed, or abandoned on timeout).
func (t *Task) Frame() *protocol.ScreencopyFrame {
	return t.frame
}

func wireFormat(v uint32) pixel.Format {
	// wl_shm reserves 0 and 1 for argb8888/xrgb8888; every other format,
	// including the byte-swapped bgr variants, is its DRM fourcc code.
	switch v {
	case 0:
		return pixel.FormatARGB8888
	case 1:
		return pixel.FormatXRGB8888
	case fourcc('X', 'B', '2', '4'):
		return pixel.FormatXBGR8888
	case fourcc('A', 'B', '2', '4'):
		return pixel.FormatABGR8888
	default:
		return pixel.FormatUnknown
	}
}

func fourcc(a, b, c, d byte) uint32 {
	return uint32(a) | uint32(b)<<8 | uint32(c)<<16 | uint32(d)<<24
}
