// Package protocol implements the narrow slice of the Wayland core
// protocol and the wlr-screencopy / xdg-output extensions this engine
// needs, on top of internal/wire.
package protocol

import (
	"fmt"

	"github.com/dkasak/wlcap/internal/wire"
)

const (
	displayOpSync        = 0
	displayOpGetRegistry = 1

	displayEvError    = 0
	displayEvDeleteID = 1
)

// DisplayErrorHandler is invoked when the compositor sends a fatal
// wl_display.error event.
type DisplayErrorHandler func(objectID, code uint32, message string)

// Display is the wl_display singleton, always object id 1.
type Display struct {
	conn    *wire.Conn
	id      uint32
	onError DisplayErrorHandler
}

// BindDisplay wraps the connection's implicit display object (id 1)
// and registers it to receive wl_display events.
func BindDisplay(conn *wire.Conn, onError DisplayErrorHandler) *Display {
	d := &Display{conn: conn, id: 1, onError: onError}
	conn.Bind(1, d)
	return d
}

func (d *Display) ID() uint32 { return d.id }

// GetRegistry issues wl_display.get_registry and returns the bound
// Registry object.
func (d *Display) GetRegistry() *Registry {
	id := d.conn.NewID()
	w := wire.NewRequestWriter()
	w.PutNewID(id)
	_ = d.conn.SendRequest(d.id, displayOpGetRegistry, w.Bytes(), nil)
	r := &Registry{conn: d.conn, id: id, globals: make(map[uint32]Global)}
	d.conn.Bind(id, r)
	return r
}

func (d *Display) Dispatch(opcode uint16, r *wire.EventReader) error {
	switch opcode {
	case displayEvError:
		objectID, err := r.Uint()
		if err != nil {
			return err
		}
		code, err := r.Uint()
		if err != nil {
			return err
		}
		msg, err := r.String()
		if err != nil {
			return err
		}
		if d.onError != nil {
			d.onError(objectID, code, msg)
		}
		return nil
	case displayEvDeleteID:
		id, err := r.Uint()
		if err != nil {
			return err
		}
		d.conn.Unbind(id)
		return nil
	default:
		return fmt.Errorf("protocol: wl_display unknown opcode %d", opcode)
	}
}
