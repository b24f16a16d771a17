// Package outputs models the set of display outputs a compositor
// session has announced, independent of the wire protocol that
// populated them.
package outputs

import (
	"fmt"
	"sync"

	"github.com/dkasak/wlcap/internal/cerrors"
	"github.com/dkasak/wlcap/internal/geometry"
)

// Record describes one connected display as reported by wl_output
// (and, when available, zxdg_output_v1).
type Record struct {
	Name        string
	Description string
	Scale       int
	Physical    geometry.Rectangle
	Logical     geometry.Rectangle
	Transform   Transform
	Handle      uint32 // wl_output object id
}

// Registry is the mutable, concurrency-safe collection of Records
// built up as the compositor's global registry is walked and as
// outputs are hot-plugged or removed.
type Registry struct {
	mu      sync.RWMutex
	records map[string]*Record
	order   []string
}

func NewRegistry() *Registry {
	return &Registry{records: make(map[string]*Record)}
}

// Put inserts or replaces the record for its Name.
func (r *Registry) Put(rec *Record) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.records[rec.Name]; !exists {
		r.order = append(r.order, rec.Name)
	}
	r.records[rec.Name] = rec
}

// Remove drops the record for the given name, if present.
func (r *Registry) Remove(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[name]; !ok {
		return
	}
	delete(r.records, name)
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// Get returns the record with the given name.
func (r *Registry) Get(name string) (*Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[name]
	if !ok {
		return nil, cerrors.New(cerrors.KindUnknownOutput, name, fmt.Errorf("no such output"))
	}
	return rec, nil
}

// List returns the records in discovery order.
func (r *Registry) List() []*Record {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Record, 0, len(r.order))
	for _, n := range r.order {
		out = append(out, r.records[n])
	}
	return out
}

// Len reports the number of known outputs.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}

// Intersecting returns the outputs whose logical rectangle intersects
// rect, in discovery order.
func (r *Registry) Intersecting(rect geometry.Rectangle) []*Record {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Record
	for _, n := range r.order {
		rec := r.records[n]
		if rec.Logical.Intersects(rect) {
			out = append(out, rec)
		}
	}
	return out
}

// BoundingBox returns the smallest rectangle covering every known
// output's logical geometry.
func (r *Registry) BoundingBox() (geometry.Rectangle, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.order) == 0 {
		return geometry.Rectangle{}, cerrors.New(cerrors.KindNoOutputs, "", fmt.Errorf("no outputs connected"))
	}
	first := r.records[r.order[0]].Logical
	minX, minY := first.X, first.Y
	maxX, maxY := first.X+first.Width, first.Y+first.Height
	for _, n := range r.order[1:] {
		l := r.records[n].Logical
		minX = min(minX, l.X)
		minY = min(minY, l.Y)
		maxX = max(maxX, l.X+l.Width)
		maxY = max(maxY, l.Y+l.Height)
	}
	return geometry.Rectangle{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}, nil
}

// GuessLogicalGeometry derives a logical rectangle from physical
// geometry and scale when zxdg_output_manager_v1 is unavailable. The
// transform is applied first, since a 90/270-degree rotation swaps
// which physical axis maps to logical width versus height.
func GuessLogicalGeometry(physical geometry.Rectangle, scale int, t Transform) geometry.Rectangle {
	if scale < 1 {
		scale = 1
	}
	w, h := physical.Width, physical.Height
	if t.SwapsDimensions() {
		w, h = h, w
	}
	rect := geometry.Rectangle{X: physical.X, Y: physical.Y, Width: w, Height: h}
	return rect.Scale(1, scale)
}
