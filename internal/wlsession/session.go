// Package wlsession owns the compositor connection: it walks the
// wl_registry, resolves the shared-memory allocator, the wlr
// screen-copy manager, and (when present) the xdg-output manager, and
// keeps an outputs.Registry current as displays are plugged in or
// removed.
package wlsession

import (
	"context"
	"fmt"
	"sync"

	"github.com/dkasak/wlcap/internal/cerrors"
	"github.com/dkasak/wlcap/internal/geometry"
	"github.com/dkasak/wlcap/internal/logger"
	"github.com/dkasak/wlcap/internal/outputs"
	"github.com/dkasak/wlcap/internal/protocol"
	"github.com/dkasak/wlcap/internal/wire"
)

// HotplugEvent is delivered to subscribers as outputs are announced or
// withdrawn after the initial connection.
type HotplugEvent struct {
	Added  bool
	Output string
}

// Session is an open connection to a wlroots compositor with the
// interfaces this engine needs already resolved.
type Session struct {
	conn     *wire.Conn
	display  *protocol.Display
	registry *protocol.Registry

	shm         *protocol.Shm
	screencopy  *protocol.ScreencopyManager
	xdgOutputs  *protocol.XdgOutputManager
	compositor  *protocol.Compositor

	Outputs *outputs.Registry

	mu          sync.Mutex
	pendingOut  map[uint32]*outputEntry // registry name -> entry, until Done fires
	subscribers []chan HotplugEvent

	runErrCh chan error
}

type outputEntry struct {
	globalName uint32
	wlOutput   *protocol.Output
	xdgOutput  *protocol.XdgOutput
	wlDone     bool
	xdgDone    bool
}

// Open connects to the compositor, resolves the required globals, and
// blocks until the initial output set has been fully described.
func Open(ctx context.Context) (*Session, error) {
	conn, err := wire.Dial()
	if err != nil {
		return nil, cerrors.New(cerrors.KindNoCompositor, "", err)
	}
	return OpenConn(ctx, conn)
}

// OpenConn resolves the required globals over an already-connected
// wire.Conn. Exported so tests can drive the session over a
// unix.Socketpair against a simulated compositor instead of a real
// one.
func OpenConn(ctx context.Context, conn *wire.Conn) (*Session, error) {
	s := &Session{
		conn:       conn,
		Outputs:    outputs.NewRegistry(),
		pendingOut: make(map[uint32]*outputEntry),
		runErrCh:   make(chan error, 1),
	}

	go func() {
		s.runErrCh <- conn.Run()
	}()

	s.display = protocol.BindDisplay(conn, func(objectID, code uint32, message string) {
		logger.WithComponent("wlsession").Error().
			Uint32("object", objectID).Uint32("code", code).Str("message", message).
			Msg("compositor reported a protocol error")
	})
	s.registry = s.display.GetRegistry()
	s.registry.OnGlobal(s.onGlobal)
	s.registry.OnGlobalRemove(s.onGlobalRemove)

	// Two round trips: the first lets every global.* event and the
	// binds they trigger reach the server; the second lets the
	// per-object event bursts those binds provoke (wl_output's
	// geometry/mode/scale/done, zxdg_output_v1's logical
	// position/size/done) come back.
	if err := s.roundTrip(ctx); err != nil {
		conn.Close()
		return nil, err
	}
	if err := s.roundTrip(ctx); err != nil {
		conn.Close()
		return nil, err
	}

	if s.shm == nil || s.screencopy == nil {
		conn.Close()
		return nil, cerrors.New(cerrors.KindMissingProtocol, "", fmt.Errorf("compositor does not implement wl_shm and zwlr_screencopy_manager_v1"))
	}

	return s, nil
}

func (s *Session) roundTrip(ctx context.Context) error {
	cb := s.display.Sync()
	select {
	case <-cb.Done():
		return nil
	case <-ctx.Done():
		return cerrors.New(cerrors.KindTimeout, "", ctx.Err())
	}
}

func (s *Session) onGlobal(g protocol.Global) {
	switch g.Interface {
	case "wl_shm":
		s.shm = protocol.BindShm(s.conn, s.registry, g)
	case "wl_compositor":
		s.compositor = protocol.BindCompositor(s.conn, s.registry, g)
	case "zwlr_screencopy_manager_v1":
		s.screencopy = protocol.BindScreencopyManager(s.conn, s.registry, g)
	case "zxdg_output_manager_v1":
		s.xdgOutputs = protocol.BindXdgOutputManager(s.conn, s.registry, g)
		s.mu.Lock()
		for _, e := range s.pendingOut {
			if e.xdgOutput == nil {
				s.bindXdgOutputLocked(e)
			}
		}
		s.mu.Unlock()
	case "wl_output":
		o := protocol.BindOutput(s.conn, s.registry, g)
		s.mu.Lock()
		entry := &outputEntry{globalName: g.Name, wlOutput: o}
		s.pendingOut[g.Name] = entry
		o.SetListener(outputDoneFunc(func(*protocol.Output) { s.onOutputDone(entry) }))
		if s.xdgOutputs != nil {
			s.bindXdgOutputLocked(entry)
		}
		s.mu.Unlock()
	}
}

// bindXdgOutputLocked must be called with s.mu held.
func (s *Session) bindXdgOutputLocked(e *outputEntry) {
	xo := s.xdgOutputs.GetXdgOutput(e.wlOutput)
	e.xdgOutput = xo
	xo.SetListener(xdgOutputDoneFunc(func(*protocol.XdgOutput) { s.onXdgOutputDone(e) }))
}

func (s *Session) onOutputDone(e *outputEntry) {
	s.mu.Lock()
	e.wlDone = true
	s.mu.Unlock()
	s.maybePublish(e)
}

func (s *Session) onXdgOutputDone(e *outputEntry) {
	s.mu.Lock()
	e.xdgDone = true
	s.mu.Unlock()
	s.maybePublish(e)
}

func (s *Session) maybePublish(e *outputEntry) {
	s.mu.Lock()
	ready := e.wlDone && (e.xdgOutput == nil || e.xdgDone)
	if !ready {
		s.mu.Unlock()
		return
	}
	rec := recordFromEntry(e)
	s.mu.Unlock()

	isNew := s.Outputs.Len() == 0 // best effort; refined by name check below
	_, err := s.Outputs.Get(rec.Name)
	isNew = err != nil
	s.Outputs.Put(rec)
	if isNew {
		s.publish(HotplugEvent{Added: true, Output: rec.Name})
	}
}

func recordFromEntry(e *outputEntry) *outputs.Record {
	st := e.wlOutput.State
	transform := outputs.TransformFromWire(st.Transform)
	physical := geometry.Rectangle{X: int(st.X), Y: int(st.Y), Width: int(st.ModeWidth), Height: int(st.ModeHeight)}
	scale := int(st.Scale)
	if scale < 1 {
		scale = 1
	}
	var logical geometry.Rectangle
	if e.xdgOutput != nil {
		xs := e.xdgOutput.State
		logical = geometry.Rectangle{X: int(xs.X), Y: int(xs.Y), Width: int(xs.Width), Height: int(xs.Height)}
	} else {
		logical = outputs.GuessLogicalGeometry(physical, scale, transform)
	}
	name := st.Name
	if name == "" {
		name = fmt.Sprintf("output-%d", e.globalName)
	}
	return &outputs.Record{
		Name:        name,
		Description: st.Description,
		Scale:       scale,
		Physical:    physical,
		Logical:     logical,
		Transform:   transform,
		Handle:      e.wlOutput.ID(),
	}
}

func (s *Session) onGlobalRemove(name uint32) {
	s.mu.Lock()
	e, ok := s.pendingOut[name]
	if ok {
		delete(s.pendingOut, name)
	}
	s.mu.Unlock()
	if !ok {
		return
	}
	rec := recordFromEntry(e)
	s.Outputs.Remove(rec.Name)
	s.publish(HotplugEvent{Added: false, Output: rec.Name})
}

// Subscribe returns a channel that receives hotplug events for
// outputs announced or removed after the call. The channel is
// buffered and dropped from the subscriber list once the caller stops
// reading it and calls Unsubscribe.
func (s *Session) Subscribe() chan HotplugEvent {
	ch := make(chan HotplugEvent, 16)
	s.mu.Lock()
	s.subscribers = append(s.subscribers, ch)
	s.mu.Unlock()
	return ch
}

func (s *Session) Unsubscribe(ch chan HotplugEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, c := range s.subscribers {
		if c == ch {
			s.subscribers = append(s.subscribers[:i], s.subscribers[i+1:]...)
			close(c)
			return
		}
	}
}

func (s *Session) publish(ev HotplugEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.subscribers {
		select {
		case ch <- ev:
		default:
		}
	}
}

// ScreencopyManager exposes the resolved manager for the capture
// package to build frame tasks with.
func (s *Session) ScreencopyManager() *protocol.ScreencopyManager { return s.screencopy }

// Shm exposes the resolved shared-memory allocator.
func (s *Session) Shm() *protocol.Shm { return s.shm }

// OutputHandle returns the wl_output object bound for name, or an
// unknown-output error.
func (s *Session) OutputHandle(name string) (*protocol.Output, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.pendingOut {
		if e.wlOutput != nil && recordFromEntry(e).Name == name {
			return e.wlOutput, nil
		}
	}
	return nil, cerrors.New(cerrors.KindUnknownOutput, name, fmt.Errorf("no such output"))
}

// Close terminates the connection.
func (s *Session) Close() error {
	return s.conn.Close()
}

type outputDoneFunc func(*protocol.Output)

func (f outputDoneFunc) Done(o *protocol.Output) { f(o) }

type xdgOutputDoneFunc func(*protocol.XdgOutput)

func (f xdgOutputDoneFunc) Done(xo *protocol.XdgOutput) { f(xo) }
