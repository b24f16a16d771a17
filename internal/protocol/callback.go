package protocol

import "github.com/dkasak/wlcap/internal/wire"

const callbackEvDone = 0

// Callback is a wl_callback, used here only as the return object of
// wl_display.sync: a one-shot signal that every request sent before
// the sync has been processed and every event it produced delivered.
type Callback struct {
	id   uint32
	done chan struct{}
}

func (cb *Callback) ID() uint32 { return cb.id }

// Done is closed when the compositor fires the callback's done event.
func (cb *Callback) Done() <-chan struct{} { return cb.done }

func (cb *Callback) Dispatch(opcode uint16, r *wire.EventReader) error {
	if opcode == callbackEvDone {
		close(cb.done)
	}
	return nil
}

// Sync issues wl_display.sync and returns the resulting callback.
func (d *Display) Sync() *Callback {
	id := d.conn.NewID()
	w := wire.NewRequestWriter()
	w.PutNewID(id)
	_ = d.conn.SendRequest(d.id, displayOpSync, w.Bytes(), nil)
	cb := &Callback{id: id, done: make(chan struct{})}
	d.conn.Bind(id, cb)
	return cb
}
