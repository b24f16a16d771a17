package protocol

import (
	"fmt"

	"github.com/dkasak/wlcap/internal/wire"
)

const (
	shmOpCreatePool = 0
	shmEvFormat     = 0

	shmPoolOpCreateBuffer = 0
	shmPoolOpDestroy      = 1
	shmPoolOpResize       = 2

	bufferOpDestroy  = 0
	bufferEvRelease  = 0
)

// Shm is the wl_shm global used to allocate shared-memory pools.
type Shm struct {
	conn    *wire.Conn
	id      uint32
	Formats []uint32
}

func BindShm(conn *wire.Conn, registry *Registry, g Global) *Shm {
	s := &Shm{conn: conn}
	s.id = registry.Bind(g.Name, "wl_shm", 1, s)
	return s
}

func (s *Shm) ID() uint32 { return s.id }

// CreatePool issues wl_shm.create_pool over fd, sized size bytes.
func (s *Shm) CreatePool(fd int, size int32) *ShmPool {
	id := s.conn.NewID()
	w := wire.NewRequestWriter()
	w.PutNewID(id)
	w.PutFD(fd)
	w.PutInt(size)
	_ = s.conn.SendRequest(s.id, shmOpCreatePool, w.Bytes(), w.FDs())
	p := &ShmPool{conn: s.conn, id: id}
	s.conn.Bind(id, p)
	return p
}

func (s *Shm) Dispatch(opcode uint16, r *wire.EventReader) error {
	if opcode != shmEvFormat {
		return fmt.Errorf("protocol: wl_shm unknown opcode %d", opcode)
	}
	format, err := r.Uint()
	if err != nil {
		return err
	}
	s.Formats = append(s.Formats, format)
	return nil
}

// ShmPool is a wl_shm_pool: a single memfd-backed region buffers are
// carved out of.
type ShmPool struct {
	conn *wire.Conn
	id   uint32
}

func (p *ShmPool) ID() uint32 { return p.id }

// CreateBuffer issues wl_shm_pool.create_buffer describing a
// width*height region at offset within the pool, with the given
// stride and wire pixel format.
func (p *ShmPool) CreateBuffer(offset, width, height, stride int32, format uint32) *Buffer {
	id := p.conn.NewID()
	w := wire.NewRequestWriter()
	w.PutNewID(id)
	w.PutInt(offset)
	w.PutInt(width)
	w.PutInt(height)
	w.PutInt(stride)
	w.PutUint(format)
	_ = p.conn.SendRequest(p.id, shmPoolOpCreateBuffer, w.Bytes(), nil)
	b := &Buffer{conn: p.conn, id: id}
	p.conn.Bind(id, b)
	return b
}

// Destroy issues wl_shm_pool.destroy. The pool's backing memory stays
// valid until the caller unmaps it; destroying only releases the
// compositor-side object.
func (p *ShmPool) Destroy() {
	_ = p.conn.SendRequest(p.id, shmPoolOpDestroy, nil, nil)
	p.conn.Unbind(p.id)
}

func (p *ShmPool) Dispatch(opcode uint16, r *wire.EventReader) error {
	return nil
}

// Buffer is a wl_buffer bound to a region of a ShmPool.
type Buffer struct {
	conn     *wire.Conn
	id       uint32
	Released bool
}

func (b *Buffer) ID() uint32 { return b.id }

func (b *Buffer) Destroy() {
	_ = b.conn.SendRequest(b.id, bufferOpDestroy, nil, nil)
	b.conn.Unbind(b.id)
}

func (b *Buffer) Dispatch(opcode uint16, r *wire.EventReader) error {
	if opcode == bufferEvRelease {
		b.Released = true
		return nil
	}
	return fmt.Errorf("protocol: wl_buffer unknown opcode %d", opcode)
}
