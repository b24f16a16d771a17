package protocol

import (
	"fmt"

	"github.com/dkasak/wlcap/internal/wire"
)

const (
	xdgOutputManagerOpDestroy      = 0
	xdgOutputManagerOpGetXdgOutput = 1

	xdgOutputEvLogicalPosition = 0
	xdgOutputEvLogicalSize     = 1
	xdgOutputEvDone            = 2
	xdgOutputEvName            = 3
	xdgOutputEvDescription     = 4
)

// XdgOutputManager is the zxdg_output_manager_v1 global: an optional
// protocol that supplies logical (post-transform, post-scale)
// geometry the core wl_output interface does not.
type XdgOutputManager struct {
	conn *wire.Conn
	id   uint32
}

func BindXdgOutputManager(conn *wire.Conn, registry *Registry, g Global) *XdgOutputManager {
	m := &XdgOutputManager{conn: conn}
	m.id = registry.Bind(g.Name, "zxdg_output_manager_v1", g.Version, m)
	return m
}

func (m *XdgOutputManager) ID() uint32 { return m.id }

func (m *XdgOutputManager) Dispatch(opcode uint16, r *wire.EventReader) error { return nil }

// GetXdgOutput binds the zxdg_output_v1 companion object for output.
func (m *XdgOutputManager) GetXdgOutput(output *Output) *XdgOutput {
	id := m.conn.NewID()
	w := wire.NewRequestWriter()
	w.PutNewID(id)
	w.PutObject(output.ID())
	_ = m.conn.SendRequest(m.id, xdgOutputManagerOpGetXdgOutput, w.Bytes(), nil)
	xo := &XdgOutput{conn: m.conn, id: id}
	m.conn.Bind(id, xo)
	return xo
}

// XdgOutputListener is notified once an XdgOutput's logical geometry
// burst completes.
type XdgOutputListener interface {
	Done(xo *XdgOutput)
}

// XdgOutputState accumulates the logical geometry events.
type XdgOutputState struct {
	X, Y          int32
	Width, Height int32
	Name          string
	Description   string
}

// XdgOutput is the zxdg_output_v1 object for one wl_output.
type XdgOutput struct {
	conn     *wire.Conn
	id       uint32
	State    XdgOutputState
	listener XdgOutputListener
}

func (xo *XdgOutput) ID() uint32 { return xo.id }

func (xo *XdgOutput) SetListener(l XdgOutputListener) { xo.listener = l }

func (xo *XdgOutput) Dispatch(opcode uint16, r *wire.EventReader) error {
	switch opcode {
	case xdgOutputEvLogicalPosition:
		x, err := r.Int()
		if err != nil {
			return err
		}
		y, err := r.Int()
		if err != nil {
			return err
		}
		xo.State.X, xo.State.Y = x, y
		return nil
	case xdgOutputEvLogicalSize:
		w, err := r.Int()
		if err != nil {
			return err
		}
		h, err := r.Int()
		if err != nil {
			return err
		}
		xo.State.Width, xo.State.Height = w, h
		return nil
	case xdgOutputEvName:
		name, err := r.String()
		if err != nil {
			return err
		}
		xo.State.Name = name
		return nil
	case xdgOutputEvDescription:
		desc, err := r.String()
		if err != nil {
			return err
		}
		xo.State.Description = desc
		return nil
	case xdgOutputEvDone:
		if xo.listener != nil {
			xo.listener.Done(xo)
		}
		return nil
	default:
		return fmt.Errorf("protocol: zxdg_output_v1 unknown opcode %d", opcode)
	}
}
