// Package shmbuf allocates the shared-memory regions screen-copy
// frames are written into: a memfd-backed mapping handed to the
// compositor as a wl_shm_pool.
package shmbuf

import (
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/dkasak/wlcap/internal/cerrors"
	"github.com/dkasak/wlcap/internal/protocol"
)

// Buffer is one memfd-backed shared-memory region, mapped into this
// process and bound to the compositor as a wl_shm_pool/wl_buffer pair.
type Buffer struct {
	fd       int
	size     int32
	data     []byte
	Pool     *protocol.ShmPool
	Object   *protocol.Buffer
}

// Alloc creates a memfd of the given size, maps it, and wraps it in a
// wl_shm_pool + wl_buffer describing a width*height image with the
// given stride and wire format.
func Alloc(shm *protocol.Shm, size int32, width, height, stride int32, format uint32) (*Buffer, error) {
	fd, err := unix.MemfdCreate("wlcap-shm", 0)
	if err != nil {
		return nil, cerrors.New(cerrors.KindAllocationFailed, "", fmt.Errorf("memfd_create: %w", err))
	}
	if err := unix.Ftruncate(fd, int64(size)); err != nil {
		unix.Close(fd)
		return nil, cerrors.New(cerrors.KindAllocationFailed, "", fmt.Errorf("ftruncate: %w", err))
	}
	data, err := unix.Mmap(fd, 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		unix.Close(fd)
		return nil, cerrors.New(cerrors.KindAllocationFailed, "", fmt.Errorf("mmap: %w", err))
	}

	pool := shm.CreatePool(fd, size)
	buf := pool.CreateBuffer(0, width, height, stride, format)

	return &Buffer{fd: fd, size: size, data: data, Pool: pool, Object: buf}, nil
}

// Bytes returns the mapped memory. Valid until Release is called.
func (b *Buffer) Bytes() []byte {
	return b.data
}

// Release destroys the compositor-side objects, unmaps the region,
// and closes the memfd.
func (b *Buffer) Release() error {
	if b.Object != nil {
		b.Object.Destroy()
	}
	if b.Pool != nil {
		b.Pool.Destroy()
	}
	var err error
	if b.data != nil {
		err = unix.Munmap(b.data)
		b.data = nil
	}
	unix.Close(b.fd)
	return err
}
