// Package wlsessiontest implements just enough of the server half of
// the Wayland wire protocol to drive internal/wlsession and
// internal/capture end to end without a real compositor: wl_display,
// wl_registry, wl_shm, wl_output, zwlr_screencopy_manager_v1, and
// zxdg_output_manager_v1, wired to a small set of configured outputs.
package wlsessiontest

import (
	"encoding/binary"
	"fmt"
	"net"
	"os"

	"golang.org/x/sys/unix"

	"github.com/dkasak/wlcap/internal/wire"
)

// OutputConfig describes one simulated display.
type OutputConfig struct {
	Name                          string
	X, Y                          int32
	PhysicalWidth, PhysicalHeight int32
	Scale                         int32
	Transform                     int32
	LogicalX, LogicalY            int32
	LogicalWidth, LogicalHeight   int32
	// Fill is the byte value every pixel's B, G and R channels (wire
	// bytes 0-2) are set to, so tests can tell outputs apart after
	// capture; the X byte is always 0.
	Fill byte
}

// Compositor is the fake server. Run it in a goroutine with Serve.
type Compositor struct {
	outputs []OutputConfig
	conn    *net.UnixConn

	objects    map[uint32]object
	pendingFds []int
}

type objectKind int

const (
	kindDisplay objectKind = iota
	kindRegistry
	kindOutput
	kindXdgOutput
	kindShm
	kindShmPool
	kindBuffer
	kindScreencopyManager
	kindXdgOutputManager
	kindCompositor
	kindFrame
	kindCallback
)

type object struct {
	kind       objectKind
	outputName string
	// shm pool / buffer bookkeeping
	fd            int
	offset        int32
	width, height int32
	stride        int32
	format        uint32
}

// NewPair creates a connected socket pair and returns the fake server
// bound to one end and a *wire.Conn (not yet Run) bound to the other,
// ready to pass to a Session built for tests.
func NewPair(outputs []OutputConfig) (*Compositor, *wire.Conn, error) {
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	if err != nil {
		return nil, nil, fmt.Errorf("wlsessiontest: socketpair: %w", err)
	}
	serverFile, err := net.FileConn(os.NewFile(uintptr(fds[0]), "wlcaptest-server"))
	if err != nil {
		return nil, nil, err
	}
	clientFile, err := net.FileConn(os.NewFile(uintptr(fds[1]), "wlcaptest-client"))
	if err != nil {
		return nil, nil, err
	}
	serverConn := serverFile.(*net.UnixConn)
	clientConn := clientFile.(*net.UnixConn)

	c := &Compositor{
		outputs: outputs,
		conn:    serverConn,
		objects: map[uint32]object{1: {kind: kindDisplay}},
	}
	return c, wire.Wrap(clientConn), nil
}

// Serve processes requests until the connection closes. Run it in its
// own goroutine; errors after the client closes the connection are
// expected and not reported.
func (c *Compositor) Serve() {
	for {
		objectID, opcode, body, fds, err := c.readMessage()
		if err != nil {
			return
		}
		c.handle(objectID, opcode, body, fds)
	}
}

// readMessage reads one framed request, tracking any fds that arrive
// as SCM_RIGHTS ancillary data anywhere in the stream. Ancillary data
// on a stream socket is not aligned to message boundaries, so every
// read (including the header) goes through ReadMsgUnix and any fds it
// yields are queued until a request argument consumes them.
func (c *Compositor) readMessage() (uint32, uint16, []byte, []int, error) {
	hdr := make([]byte, 8)
	if _, err := c.readFull(hdr); err != nil {
		return 0, 0, nil, nil, err
	}
	objectID := binary.LittleEndian.Uint32(hdr[0:4])
	word := binary.LittleEndian.Uint32(hdr[4:8])
	opcode := uint16(word & 0xffff)
	size := uint16(word >> 16)
	body := make([]byte, size-8)
	if len(body) > 0 {
		if _, err := c.readFull(body); err != nil {
			return 0, 0, nil, nil, err
		}
	}
	var fds []int
	if len(c.pendingFds) > 0 {
		fds, c.pendingFds = c.pendingFds, nil
	}
	return objectID, opcode, body, fds, nil
}

func (c *Compositor) readFull(buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		oob := make([]byte, unix.CmsgSpace(4*4))
		n, oobn, _, _, err := c.conn.ReadMsgUnix(buf[total:], oob)
		total += n
		if oobn > 0 {
			scms, perr := unix.ParseSocketControlMessage(oob[:oobn])
			if perr == nil {
				for _, scm := range scms {
					rights, rerr := unix.ParseUnixRights(&scm)
					if rerr == nil {
						c.pendingFds = append(c.pendingFds, rights...)
					}
				}
			}
		}
		if err != nil {
			return total, err
		}
		if n == 0 {
			return total, fmt.Errorf("wlsessiontest: short read")
		}
	}
	return total, nil
}

func (c *Compositor) send(objectID uint32, opcode uint16, payload []byte) {
	size := 8 + len(payload)
	buf := make([]byte, 8, size)
	binary.LittleEndian.PutUint32(buf[0:4], objectID)
	binary.LittleEndian.PutUint32(buf[4:8], uint32(opcode)|uint32(size)<<16)
	buf = append(buf, payload...)
	c.conn.Write(buf)
}

func (c *Compositor) handle(objectID uint32, opcode uint16, body []byte, fds []int) {
	obj, ok := c.objects[objectID]
	if !ok {
		return
	}
	r := wire.NewEventReader(body, fds)
	switch obj.kind {
	case kindDisplay:
		c.handleDisplay(opcode, r)
	case kindRegistry:
		c.handleRegistry(opcode, r)
	case kindXdgOutputManager:
		c.handleXdgOutputManager(opcode, r)
	case kindShm:
		c.handleShm(objectID, opcode, r)
	case kindShmPool:
		c.handleShmPool(objectID, opcode, r)
	case kindScreencopyManager:
		c.handleScreencopyManager(opcode, r)
	case kindFrame:
		c.handleFrame(objectID, opcode, r)
	}
}

func (c *Compositor) handleDisplay(opcode uint16, r *wire.EventReader) {
	switch opcode {
	case 0: // sync
		id, _ := r.Uint()
		w := wire.NewRequestWriter()
		w.PutUint(0)
		c.send(id, 0, w.Bytes()) // callback.done
	case 1: // get_registry
		id, _ := r.Uint()
		c.objects[id] = object{kind: kindRegistry}
		c.announceGlobals(id)
	}
}

// announceGlobals uses stable registry names: 1=compositor, 2=shm,
// 3=screencopy manager, 4=xdg output manager, 100+i = output i.
func (c *Compositor) announceGlobals(registryID uint32) {
	announce := func(name uint32, iface string, version uint32) {
		w := wire.NewRequestWriter()
		w.PutUint(name)
		w.PutString(iface)
		w.PutUint(version)
		c.send(registryID, 0, w.Bytes())
	}
	announce(1, "wl_compositor", 4)
	announce(2, "wl_shm", 1)
	announce(3, "zwlr_screencopy_manager_v1", 3)
	announce(4, "zxdg_output_manager_v1", 3)
	for i, o := range c.outputs {
		announce(uint32(100+i), "wl_output", 4)
		_ = o
	}
}

func (c *Compositor) outputConfigForGlobal(name uint32) (OutputConfig, bool) {
	if name < 100 {
		return OutputConfig{}, false
	}
	idx := int(name) - 100
	if idx < 0 || idx >= len(c.outputs) {
		return OutputConfig{}, false
	}
	return c.outputs[idx], true
}

func (c *Compositor) handleRegistry(opcode uint16, r *wire.EventReader) {
	if opcode != 0 { // bind
		return
	}
	name, _ := r.Uint()
	_, _ = r.String() // interface (trust the client sent the matching one)
	_, _ = r.Uint()   // version
	id, _ := r.Uint()

	switch name {
	case 1:
		c.objects[id] = object{kind: kindCompositor}
	case 2:
		c.objects[id] = object{kind: kindShm}
	case 3:
		c.objects[id] = object{kind: kindScreencopyManager}
	case 4:
		c.objects[id] = object{kind: kindXdgOutputManager}
	default:
		if cfg, ok := c.outputConfigForGlobal(name); ok {
			c.objects[id] = object{kind: kindOutput, outputName: cfg.Name}
			c.sendOutputBurst(id, cfg)
		}
	}
}

func (c *Compositor) sendOutputBurst(id uint32, cfg OutputConfig) {
	geom := wire.NewRequestWriter()
	geom.PutInt(cfg.X)
	geom.PutInt(cfg.Y)
	geom.PutInt(cfg.PhysicalWidth)
	geom.PutInt(cfg.PhysicalHeight)
	geom.PutInt(0) // subpixel
	geom.PutString("wlcaptest")
	geom.PutString("virtual")
	geom.PutInt(cfg.Transform)
	c.send(id, 0, geom.Bytes())

	mode := wire.NewRequestWriter()
	mode.PutUint(1) // current
	mode.PutInt(cfg.PhysicalWidth)
	mode.PutInt(cfg.PhysicalHeight)
	mode.PutInt(60000)
	c.send(id, 1, mode.Bytes())

	scale := wire.NewRequestWriter()
	scale.PutInt(cfg.Scale)
	c.send(id, 3, scale.Bytes())

	name := wire.NewRequestWriter()
	name.PutString(cfg.Name)
	c.send(id, 4, name.Bytes())

	c.send(id, 2, nil) // done
}

func (c *Compositor) handleXdgOutputManager(opcode uint16, r *wire.EventReader) {
	if opcode != 1 { // get_xdg_output
		return
	}
	id, _ := r.Uint()
	outputObj, _ := r.Uint()
	out, ok := c.objects[outputObj]
	if !ok {
		return
	}
	var cfg OutputConfig
	for _, o := range c.outputs {
		if o.Name == out.outputName {
			cfg = o
			break
		}
	}
	c.objects[id] = object{kind: kindXdgOutput, outputName: out.outputName}

	pos := wire.NewRequestWriter()
	pos.PutInt(cfg.LogicalX)
	pos.PutInt(cfg.LogicalY)
	c.send(id, 0, pos.Bytes())

	size := wire.NewRequestWriter()
	size.PutInt(cfg.LogicalWidth)
	size.PutInt(cfg.LogicalHeight)
	c.send(id, 1, size.Bytes())

	c.send(id, 2, nil) // done
}

func (c *Compositor) handleShm(objectID uint32, opcode uint16, r *wire.EventReader) {
	if opcode != 0 { // create_pool
		return
	}
	id, _ := r.Uint()
	fd, _ := r.FD()
	size, _ := r.Int()
	c.objects[id] = object{kind: kindShmPool, fd: fd, width: size}
}

func (c *Compositor) handleShmPool(objectID uint32, opcode uint16, r *wire.EventReader) {
	pool := c.objects[objectID]
	switch opcode {
	case 0: // create_buffer
		id, _ := r.Uint()
		offset, _ := r.Int()
		width, _ := r.Int()
		height, _ := r.Int()
		stride, _ := r.Int()
		format, _ := r.Uint()
		c.objects[id] = object{kind: kindBuffer, fd: pool.fd, offset: offset, width: width, height: height, stride: stride, format: format}
	case 1: // destroy
		delete(c.objects, objectID)
	}
}

func (c *Compositor) handleScreencopyManager(opcode uint16, r *wire.EventReader) {
	switch opcode {
	case 0: // capture_output
		id, _ := r.Uint()
		_, _ = r.Int() // overlay_cursor
		outputObj, _ := r.Uint()
		out := c.objects[outputObj]
		cfg := c.cfgFor(out.outputName)
		c.objects[id] = object{kind: kindFrame, outputName: out.outputName, width: cfg.PhysicalWidth, height: cfg.PhysicalHeight}
		c.sendBufferEvent(id, cfg.PhysicalWidth, cfg.PhysicalHeight)
	case 1: // capture_output_region
		id, _ := r.Uint()
		_, _ = r.Int()
		outputObj, _ := r.Uint()
		_, _ = r.Int() // x
		_, _ = r.Int() // y
		w, _ := r.Int()
		h, _ := r.Int()
		out := c.objects[outputObj]
		c.objects[id] = object{kind: kindFrame, outputName: out.outputName, width: w, height: h}
		c.sendBufferEvent(id, w, h)
	}
}

func (c *Compositor) cfgFor(name string) OutputConfig {
	for _, o := range c.outputs {
		if o.Name == name {
			return o
		}
	}
	return OutputConfig{}
}

// wireFormatXRGB8888 is wl_shm.format.xrgb8888, the format this
// harness always advertises.
const wireFormatXRGB8888 = 1

func (c *Compositor) sendBufferEvent(frameID uint32, width, height int32) {
	stride := width * 4
	w := wire.NewRequestWriter()
	w.PutUint(wireFormatXRGB8888)
	w.PutUint(uint32(width))
	w.PutUint(uint32(height))
	w.PutUint(uint32(stride))
	c.send(frameID, 0, w.Bytes())
}

func (c *Compositor) handleFrame(objectID uint32, opcode uint16, r *wire.EventReader) {
	frame := c.objects[objectID]
	switch opcode {
	case 0: // copy
		bufID, _ := r.Uint()
		buf, ok := c.objects[bufID]
		if ok {
			c.fillBuffer(buf, c.cfgFor(frame.outputName).Fill)
		}
		c.send(objectID, 2, make([]byte, 12)) // ready: sec_hi, sec_lo, nsec all zero
		delete(c.objects, objectID)
	case 1: // destroy
		delete(c.objects, objectID)
	}
}

func (c *Compositor) fillBuffer(buf object, fill byte) {
	size := int(buf.stride) * int(buf.height)
	data, err := unix.Mmap(buf.fd, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return
	}
	defer unix.Munmap(data)
	for y := 0; y < int(buf.height); y++ {
		row := data[y*int(buf.stride) : y*int(buf.stride)+int(buf.width)*4]
		for x := 0; x < len(row); x += 4 {
			row[x] = fill     // B (xrgb8888 wire byte 0)
			row[x+1] = fill   // G
			row[x+2] = fill   // R
			row[x+3] = 0      // X
		}
	}
}
