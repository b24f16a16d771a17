package protocol

import (
	"fmt"

	"github.com/dkasak/wlcap/internal/wire"
)

const (
	registryOpBind = 0

	registryEvGlobal       = 0
	registryEvGlobalRemove = 1
)

// Global is one entry advertised by wl_registry.global.
type Global struct {
	Name      uint32
	Interface string
	Version   uint32
}

// GlobalHandler is invoked as each global is announced or withdrawn.
type GlobalHandler func(g Global)
type GlobalRemoveHandler func(name uint32)

// Registry is the wl_registry object returned by wl_display.get_registry.
type Registry struct {
	conn    *wire.Conn
	id      uint32
	globals map[uint32]Global

	onGlobal GlobalHandler
	onRemove GlobalRemoveHandler
}

func (r *Registry) ID() uint32 { return r.id }

// OnGlobal installs the callback invoked for every announced global,
// including ones seen before the callback was set.
func (r *Registry) OnGlobal(h GlobalHandler) {
	r.onGlobal = h
	for _, g := range r.globals {
		h(g)
	}
}

func (r *Registry) OnGlobalRemove(h GlobalRemoveHandler) {
	r.onRemove = h
}

// Bind issues wl_registry.bind for the named global, instantiating it
// as the given interface/version and binding d to receive its events.
func (r *Registry) Bind(name uint32, iface string, version uint32, d wire.Dispatcher) uint32 {
	id := r.conn.NewID()
	w := wire.NewRequestWriter()
	w.PutUint(name)
	w.PutString(iface)
	w.PutUint(version)
	w.PutNewID(id)
	_ = r.conn.SendRequest(r.id, registryOpBind, w.Bytes(), nil)
	r.conn.Bind(id, d)
	return id
}

func (r *Registry) Dispatch(opcode uint16, ev *wire.EventReader) error {
	switch opcode {
	case registryEvGlobal:
		name, err := ev.Uint()
		if err != nil {
			return err
		}
		iface, err := ev.String()
		if err != nil {
			return err
		}
		version, err := ev.Uint()
		if err != nil {
			return err
		}
		g := Global{Name: name, Interface: iface, Version: version}
		r.globals[name] = g
		if r.onGlobal != nil {
			r.onGlobal(g)
		}
		return nil
	case registryEvGlobalRemove:
		name, err := ev.Uint()
		if err != nil {
			return err
		}
		delete(r.globals, name)
		if r.onRemove != nil {
			r.onRemove(name)
		}
		return nil
	default:
		return fmt.Errorf("protocol: wl_registry unknown opcode %d", opcode)
	}
}
