// Package wire implements the Wayland client wire protocol directly
// over a Unix domain socket: message framing, argument marshaling, and
// SCM_RIGHTS file descriptor passing. It knows nothing about any
// particular interface; internal/protocol builds typed requests and
// events on top of it.
package wire

import (
	"encoding/binary"
	"fmt"
	"net"
	"os"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/dkasak/wlcap/internal/logger"
)

// Dispatcher decodes and handles one incoming event for a bound
// object. opcode identifies the event within the object's interface;
// r exposes the event's argument bytes and any fds that arrived
// alongside the message.
type Dispatcher interface {
	Dispatch(opcode uint16, r *EventReader) error
}

// Conn owns the Wayland display socket: a single goroutine reads and
// dispatches events, so no two goroutines ever touch the underlying
// fd's read side concurrently, matching the protocol's requirement
// that the client process events in the order the server sent them.
type Conn struct {
	conn net.Conn

	writeMu sync.Mutex

	mu        sync.Mutex
	nextID    uint32
	listeners map[uint32]Dispatcher

	errMu   sync.Mutex
	fatal   error
	closeCh chan struct{}
}

// Dial connects to the compositor socket named by $WAYLAND_DISPLAY
// under $XDG_RUNTIME_DIR (falling back to "wayland-0"), matching the
// discovery rule every Wayland client implements.
func Dial() (*Conn, error) {
	runtimeDir := os.Getenv("XDG_RUNTIME_DIR")
	if runtimeDir == "" {
		return nil, fmt.Errorf("wire: XDG_RUNTIME_DIR not set")
	}
	display := os.Getenv("WAYLAND_DISPLAY")
	if display == "" {
		display = "wayland-0"
	}
	path := display
	if path[0] != '/' {
		path = runtimeDir + "/" + display
	}
	c, err := net.Dial("unix", path)
	if err != nil {
		return nil, fmt.Errorf("wire: connect to %s: %w", path, err)
	}
	return Wrap(c), nil
}

// Wrap adapts an already-connected net.Conn (a real compositor socket,
// or one half of a unix.Socketpair in tests) into a Conn.
func Wrap(c net.Conn) *Conn {
	return &Conn{
		conn:      c,
		nextID:    1, // id 1 is reserved for wl_display
		listeners: make(map[uint32]Dispatcher),
		closeCh:   make(chan struct{}),
	}
}

// Close tears down the socket.
func (c *Conn) Close() error {
	select {
	case <-c.closeCh:
	default:
		close(c.closeCh)
	}
	return c.conn.Close()
}

// NewID allocates the next client-side object id.
func (c *Conn) NewID() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextID++
	return c.nextID
}

// Bind registers d as the event dispatcher for object id.
func (c *Conn) Bind(id uint32, d Dispatcher) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners[id] = d
}

// Unbind removes the dispatcher for id; events that arrive for id
// afterwards are dropped.
func (c *Conn) Unbind(id uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.listeners, id)
}

func (c *Conn) dispatcherFor(id uint32) (Dispatcher, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.listeners[id]
	return d, ok
}

// messageHeader is the fixed 8-byte Wayland message prologue: object
// id, then opcode (low 16 bits) and size-in-bytes (high 16 bits)
// packed into one uint32.
type messageHeader struct {
	ObjectID uint32
	Opcode   uint16
	Size     uint16
}

// SendRequest writes one client request: a message header followed by
// the already-marshaled argument payload, with any fds attached as
// SCM_RIGHTS ancillary data in the same sendmsg(2) call.
func (c *Conn) SendRequest(objectID uint32, opcode uint16, payload []byte, fds []int) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	size := 8 + len(payload)
	if size > 0xffff {
		return fmt.Errorf("wire: request payload too large (%d bytes)", size)
	}
	buf := make([]byte, 8, size)
	binary.LittleEndian.PutUint32(buf[0:4], objectID)
	binary.LittleEndian.PutUint32(buf[4:8], uint32(opcode)|uint32(size)<<16)
	buf = append(buf, payload...)

	uc, ok := c.conn.(*net.UnixConn)
	if !ok {
		_, err := c.conn.Write(buf)
		return err
	}
	var oob []byte
	if len(fds) > 0 {
		oob = unix.UnixRights(fds...)
	}
	_, _, err := uc.WriteMsgUnix(buf, oob, nil)
	return err
}

// Run starts the dispatch loop. It blocks until the connection closes
// or a protocol framing error occurs, and should be run in its own
// goroutine.
func (c *Conn) Run() error {
	log := logger.WithComponent("wire")
	uc, isUnix := c.conn.(*net.UnixConn)
	var pendingFds []int

	readMsg := func(buf []byte) (int, error) {
		if !isUnix {
			return c.conn.Read(buf)
		}
		oob := make([]byte, unix.CmsgSpace(64*4))
		n, oobn, _, _, err := uc.ReadMsgUnix(buf, oob)
		if err != nil {
			return n, err
		}
		if oobn > 0 {
			scms, err := unix.ParseSocketControlMessage(oob[:oobn])
			if err == nil {
				for _, scm := range scms {
					fds, err := unix.ParseUnixRights(&scm)
					if err == nil {
						pendingFds = append(pendingFds, fds...)
					}
				}
			}
		}
		return n, nil
	}

	hdrBuf := make([]byte, 8)
	for {
		if _, err := readFull(readMsg, hdrBuf); err != nil {
			c.setFatal(err)
			return err
		}
		objectID := binary.LittleEndian.Uint32(hdrBuf[0:4])
		word := binary.LittleEndian.Uint32(hdrBuf[4:8])
		opcode := uint16(word & 0xffff)
		size := uint16(word >> 16)
		if size < 8 {
			err := fmt.Errorf("wire: malformed message header (size %d)", size)
			c.setFatal(err)
			return err
		}
		body := make([]byte, size-8)
		if len(body) > 0 {
			if _, err := readFull(readMsg, body); err != nil {
				c.setFatal(err)
				return err
			}
		}

		var fds []int
		if len(pendingFds) > 0 {
			fds, pendingFds = pendingFds, nil
		}

		d, ok := c.dispatcherFor(objectID)
		if !ok {
			log.Debug().Uint32("object", objectID).Uint16("opcode", opcode).Msg("event for unknown object, dropped")
			continue
		}
		r := &EventReader{buf: body}
		r.fds = fds
		if err := d.Dispatch(opcode, r); err != nil {
			log.Warn().Err(err).Uint32("object", objectID).Uint16("opcode", opcode).Msg("event dispatch failed")
		}
	}
}

func readFull(read func([]byte) (int, error), buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
		if n == 0 {
			return total, fmt.Errorf("wire: short read")
		}
	}
	return total, nil
}

func (c *Conn) setFatal(err error) {
	c.errMu.Lock()
	defer c.errMu.Unlock()
	if c.fatal == nil {
		c.fatal = err
	}
}

// Err returns the error that terminated the dispatch loop, if any.
func (c *Conn) Err() error {
	c.errMu.Lock()
	defer c.errMu.Unlock()
	return c.fatal
}
