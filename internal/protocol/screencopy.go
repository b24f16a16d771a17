package protocol

import (
	"fmt"

	"github.com/dkasak/wlcap/internal/wire"
)

const (
	screencopyManagerOpCaptureOutput       = 0
	screencopyManagerOpCaptureOutputRegion = 1
	screencopyManagerOpDestroy             = 2

	screencopyFrameOpCopy           = 0
	screencopyFrameOpDestroy        = 1
	screencopyFrameOpCopyWithDamage = 2

	screencopyFrameEvBuffer      = 0
	screencopyFrameEvFlags       = 1
	screencopyFrameEvReady       = 2
	screencopyFrameEvFailed      = 3
	screencopyFrameEvLinuxDmabuf = 5
	screencopyFrameEvBufferDone  = 6
)

// ScreencopyManager is the zwlr_screencopy_manager_v1 global: the
// entry point for capturing an output or a region of an output into a
// shared-memory buffer.
type ScreencopyManager struct {
	conn *wire.Conn
	id   uint32
}

func BindScreencopyManager(conn *wire.Conn, registry *Registry, g Global) *ScreencopyManager {
	m := &ScreencopyManager{conn: conn}
	version := g.Version
	if version > 3 {
		version = 3
	}
	m.id = registry.Bind(g.Name, "zwlr_screencopy_manager_v1", version, m)
	return m
}

func (m *ScreencopyManager) ID() uint32 { return m.id }

func (m *ScreencopyManager) Dispatch(opcode uint16, r *wire.EventReader) error { return nil }

// CaptureOutput issues capture_output for the whole of output.
func (m *ScreencopyManager) CaptureOutput(output *Output, overlayCursor bool) *ScreencopyFrame {
	id := m.conn.NewID()
	w := wire.NewRequestWriter()
	w.PutNewID(id)
	w.PutInt(boolToInt32(overlayCursor))
	w.PutObject(output.ID())
	_ = m.conn.SendRequest(m.id, screencopyManagerOpCaptureOutput, w.Bytes(), nil)
	f := &ScreencopyFrame{conn: m.conn, id: id}
	m.conn.Bind(id, f)
	return f
}

// CaptureOutputRegion issues capture_output_region for the physical
// sub-rectangle (x, y, width, height) of output.
func (m *ScreencopyManager) CaptureOutputRegion(output *Output, overlayCursor bool, x, y, width, height int32) *ScreencopyFrame {
	id := m.conn.NewID()
	w := wire.NewRequestWriter()
	w.PutNewID(id)
	w.PutInt(boolToInt32(overlayCursor))
	w.PutObject(output.ID())
	w.PutInt(x)
	w.PutInt(y)
	w.PutInt(width)
	w.PutInt(height)
	_ = m.conn.SendRequest(m.id, screencopyManagerOpCaptureOutputRegion, w.Bytes(), nil)
	f := &ScreencopyFrame{conn: m.conn, id: id}
	m.conn.Bind(id, f)
	return f
}

func boolToInt32(b bool) int32 {
	if b {
		return 1
	}
	return 0
}

// ScreencopyFrameState is the information a frame's events accumulate,
// mirrored into frametask.Task by the capture layer.
type ScreencopyFrameState struct {
	Format              uint32
	Width, Height       uint32
	Stride              uint32
	Flags               uint32
	Ready               bool
	Failed              bool
	TimestampSec        uint64
	TimestampNanosecond uint32
}

// ScreencopyFrameListener is notified as a frame's state machine
// advances.
type ScreencopyFrameListener interface {
	OnBuffer(f *ScreencopyFrame)
	OnReady(f *ScreencopyFrame)
	OnFailed(f *ScreencopyFrame)
}

// ScreencopyFrame is a zwlr_screencopy_frame_v1 object: one in-flight
// capture request.
type ScreencopyFrame struct {
	conn     *wire.Conn
	id       uint32
	State    ScreencopyFrameState
	listener ScreencopyFrameListener
}

func (f *ScreencopyFrame) ID() uint32 { return f.id }

func (f *ScreencopyFrame) SetListener(l ScreencopyFrameListener) { f.listener = l }

// Copy issues frame.copy(buffer), asking the compositor to fill buffer
// with this frame's pixels.
func (f *ScreencopyFrame) Copy(buffer *Buffer) {
	w := wire.NewRequestWriter()
	w.PutObject(buffer.ID())
	_ = f.conn.SendRequest(f.id, screencopyFrameOpCopy, w.Bytes(), nil)
}

// Destroy issues frame.destroy. The client must call this itself once
// a frame reaches Ready or Failed (or is abandoned on timeout); the
// compositor does not destroy the object on its own.
func (f *ScreencopyFrame) Destroy() {
	_ = f.conn.SendRequest(f.id, screencopyFrameOpDestroy, nil, nil)
	f.conn.Unbind(f.id)
}

func (f *ScreencopyFrame) Dispatch(opcode uint16, r *wire.EventReader) error {
	switch opcode {
	case screencopyFrameEvBuffer:
		format, err := r.Uint()
		if err != nil {
			return err
		}
		width, err := r.Uint()
		if err != nil {
			return err
		}
		height, err := r.Uint()
		if err != nil {
			return err
		}
		stride, err := r.Uint()
		if err != nil {
			return err
		}
		f.State.Format, f.State.Width, f.State.Height, f.State.Stride = format, width, height, stride
		if f.listener != nil {
			f.listener.OnBuffer(f)
		}
		return nil
	case screencopyFrameEvFlags:
		flags, err := r.Uint()
		if err != nil {
			return err
		}
		f.State.Flags = flags
		return nil
	case screencopyFrameEvReady:
		sec1, err := r.Uint()
		if err != nil {
			return err
		}
		sec2, err := r.Uint()
		if err != nil {
			return err
		}
		nsec, err := r.Uint()
		if err != nil {
			return err
		}
		f.State.TimestampSec = uint64(sec1)<<32 | uint64(sec2)
		f.State.TimestampNanosecond = nsec
		f.State.Ready = true
		if f.listener != nil {
			f.listener.OnReady(f)
		}
		f.conn.Unbind(f.id)
		return nil
	case screencopyFrameEvFailed:
		f.State.Failed = true
		if f.listener != nil {
			f.listener.OnFailed(f)
		}
		f.conn.Unbind(f.id)
		return nil
	case screencopyFrameEvLinuxDmabuf:
		// DMA-BUF transport is unsupported; the shm buffer path is
		// always requested instead, so this event is informational.
		_, _ = r.Uint()
		_, _ = r.Uint()
		_, _ = r.Uint()
		return nil
	case screencopyFrameEvBufferDone:
		return nil
	default:
		return fmt.Errorf("protocol: zwlr_screencopy_frame_v1 unknown opcode %d", opcode)
	}
}
