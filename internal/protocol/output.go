package protocol

import (
	"fmt"

	"github.com/dkasak/wlcap/internal/wire"
)

const (
	outputEvGeometry    = 0
	outputEvMode        = 1
	outputEvDone        = 2
	outputEvScale       = 3
	outputEvName        = 4
	outputEvDescription = 5
)

// OutputState accumulates the events wl_output sends describing one
// display. A wl_output sends a burst of events terminated by Done;
// OutputListener.Done is the signal that State is consistent.
type OutputState struct {
	X, Y                          int32
	PhysicalWidth, PhysicalHeight int32
	Transform                     int32
	Scale                         int32
	Name, Description             string
	ModeWidth, ModeHeight         int32
	ModeRefresh                   int32
}

// OutputListener is notified as an Output's geometry/mode/scale state
// settles.
type OutputListener interface {
	Done(o *Output)
}

// Output is the wl_output global for one display.
type Output struct {
	conn     *wire.Conn
	id       uint32
	Name     uint32 // registry global name, not wl_output.name
	State    OutputState
	listener OutputListener
}

func BindOutput(conn *wire.Conn, registry *Registry, g Global) *Output {
	o := &Output{conn: conn, Name: g.Name}
	version := g.Version
	if version > 4 {
		version = 4
	}
	o.id = registry.Bind(g.Name, "wl_output", version, o)
	return o
}

func (o *Output) ID() uint32 { return o.id }

func (o *Output) SetListener(l OutputListener) { o.listener = l }

func (o *Output) Dispatch(opcode uint16, r *wire.EventReader) error {
	switch opcode {
	case outputEvGeometry:
		x, err := r.Int()
		if err != nil {
			return err
		}
		y, err := r.Int()
		if err != nil {
			return err
		}
		pw, err := r.Int()
		if err != nil {
			return err
		}
		ph, err := r.Int()
		if err != nil {
			return err
		}
		if _, err := r.Int(); err != nil { // subpixel
			return err
		}
		if _, err := r.String(); err != nil { // make
			return err
		}
		if _, err := r.String(); err != nil { // model
			return err
		}
		transform, err := r.Int()
		if err != nil {
			return err
		}
		o.State.X, o.State.Y = x, y
		o.State.PhysicalWidth, o.State.PhysicalHeight = pw, ph
		o.State.Transform = transform
		return nil
	case outputEvMode:
		if _, err := r.Uint(); err != nil { // flags
			return err
		}
		w, err := r.Int()
		if err != nil {
			return err
		}
		h, err := r.Int()
		if err != nil {
			return err
		}
		refresh, err := r.Int()
		if err != nil {
			return err
		}
		o.State.ModeWidth, o.State.ModeHeight = w, h
		o.State.ModeRefresh = refresh
		return nil
	case outputEvScale:
		scale, err := r.Int()
		if err != nil {
			return err
		}
		o.State.Scale = scale
		return nil
	case outputEvName:
		name, err := r.String()
		if err != nil {
			return err
		}
		o.State.Name = name
		return nil
	case outputEvDescription:
		desc, err := r.String()
		if err != nil {
			return err
		}
		o.State.Description = desc
		return nil
	case outputEvDone:
		if o.listener != nil {
			o.listener.Done(o)
		}
		return nil
	default:
		return fmt.Errorf("protocol: wl_output unknown opcode %d", opcode)
	}
}
