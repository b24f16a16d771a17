package wire

import (
	"encoding/binary"
	"fmt"
)

// RequestWriter accumulates the argument payload for one outgoing
// request. Wayland packs every argument on a 4-byte boundary.
type RequestWriter struct {
	buf []byte
	fds []int
}

func NewRequestWriter() *RequestWriter {
	return &RequestWriter{}
}

func (w *RequestWriter) PutUint(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *RequestWriter) PutInt(v int32) {
	w.PutUint(uint32(v))
}

// PutFixed writes a Wayland fixed-point (24.8) value from a float64.
func (w *RequestWriter) PutFixed(v float64) {
	w.PutInt(int32(v * 256))
}

func (w *RequestWriter) PutString(s string) {
	n := len(s) + 1 // NUL-terminated
	w.PutUint(uint32(n))
	w.buf = append(w.buf, []byte(s)...)
	w.buf = append(w.buf, 0)
	pad(&w.buf, n)
}

func (w *RequestWriter) PutObject(id uint32) {
	w.PutUint(id)
}

// PutNewID writes a new object id the server will bind a fresh object
// to upon receiving this request.
func (w *RequestWriter) PutNewID(id uint32) {
	w.PutUint(id)
}

func (w *RequestWriter) PutArray(data []byte) {
	w.PutUint(uint32(len(data)))
	w.buf = append(w.buf, data...)
	pad(&w.buf, len(data))
}

// PutFD queues a file descriptor to be sent as SCM_RIGHTS ancillary
// data alongside this request. Unlike the other argument types, fds
// occupy no space in the payload itself.
func (w *RequestWriter) PutFD(fd int) {
	w.fds = append(w.fds, fd)
}

func (w *RequestWriter) Bytes() []byte {
	return w.buf
}

func (w *RequestWriter) FDs() []int {
	return w.fds
}

func pad(buf *[]byte, n int) {
	if rem := n % 4; rem != 0 {
		*buf = append(*buf, make([]byte, 4-rem)...)
	}
}

// EventReader parses the argument payload of one incoming event.
type EventReader struct {
	buf []byte
	off int
	fds []int
}

// NewEventReader wraps a raw argument payload (and any fds received
// alongside it) for decoding. Used by protocol tests and fake
// compositor harnesses that synthesize events without going through
// the wire.
func NewEventReader(buf []byte, fds []int) *EventReader {
	return &EventReader{buf: buf, fds: fds}
}

func (r *EventReader) Uint() (uint32, error) {
	if r.off+4 > len(r.buf) {
		return 0, fmt.Errorf("wire: truncated event payload")
	}
	v := binary.LittleEndian.Uint32(r.buf[r.off : r.off+4])
	r.off += 4
	return v, nil
}

func (r *EventReader) Int() (int32, error) {
	v, err := r.Uint()
	return int32(v), err
}

// Fixed reads a Wayland fixed-point (24.8) value as a float64.
func (r *EventReader) Fixed() (float64, error) {
	v, err := r.Int()
	return float64(v) / 256, err
}

func (r *EventReader) String() (string, error) {
	n, err := r.Uint()
	if err != nil {
		return "", err
	}
	if int(n) == 0 {
		return "", nil
	}
	if r.off+int(n) > len(r.buf) {
		return "", fmt.Errorf("wire: truncated string argument")
	}
	s := string(r.buf[r.off : r.off+int(n)-1]) // drop trailing NUL
	r.off += int(n)
	if rem := int(n) % 4; rem != 0 {
		r.off += 4 - rem
	}
	return s, nil
}

func (r *EventReader) Array() ([]byte, error) {
	n, err := r.Uint()
	if err != nil {
		return nil, err
	}
	if r.off+int(n) > len(r.buf) {
		return nil, fmt.Errorf("wire: truncated array argument")
	}
	out := r.buf[r.off : r.off+int(n)]
	r.off += int(n)
	if rem := int(n) % 4; rem != 0 {
		r.off += 4 - rem
	}
	return out, nil
}

// FD consumes the next fd that arrived as ancillary data with this
// message. Fds are consumed in the order the request declares them.
func (r *EventReader) FD() (int, error) {
	if len(r.fds) == 0 {
		return -1, fmt.Errorf("wire: no fd available for event argument")
	}
	fd := r.fds[0]
	r.fds = r.fds[1:]
	return fd, nil
}
