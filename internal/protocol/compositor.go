package protocol

import "github.com/dkasak/wlcap/internal/wire"

// Compositor is the wl_compositor global. This engine never creates a
// surface; it binds the global only because some compositors gate
// other interface behavior on a client holding a compositor binding,
// and to keep the registry walk symmetric with a full client.
type Compositor struct {
	id uint32
}

func BindCompositor(conn *wire.Conn, registry *Registry, g Global) *Compositor {
	c := &Compositor{}
	c.id = registry.Bind(g.Name, "wl_compositor", g.Version, c)
	return c
}

func (c *Compositor) ID() uint32 { return c.id }

// Dispatch is a no-op: wl_compositor has no events.
func (c *Compositor) Dispatch(opcode uint16, r *wire.EventReader) error {
	return nil
}
