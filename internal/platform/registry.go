package platform

import (
	"github.com/golang/geo/r2"

	"github.com/mesh-intelligence/platforms/pkg/types"
)

// Registry is the collection of live platforms owned by a Deck and handed to
// the resolver once per pass. Iteration follows insertion order.
type Registry struct {
	modules map[string]*Module
	order   []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{modules: make(map[string]*Module)}
}

// Add inserts m. Returns ErrModuleExists when the ID is taken.
func (r *Registry) Add(m *Module) error {
	if _, ok := r.modules[m.ID()]; ok {
		return types.ErrModuleExists
	}
	r.modules[m.ID()] = m
	r.order = append(r.order, m.ID())
	return nil
}

// Remove deletes the platform with id and returns it.
func (r *Registry) Remove(id string) (*Module, bool) {
	m, ok := r.modules[id]
	if !ok {
		return nil, false
	}
	delete(r.modules, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return m, true
}

// Get returns the platform with id.
func (r *Registry) Get(id string) (*Module, bool) {
	m, ok := r.modules[id]
	return m, ok
}

// Len returns the number of platforms.
func (r *Registry) Len() int {
	return len(r.order)
}

// IDs returns every platform ID in insertion order.
func (r *Registry) IDs() []string {
	return append([]string(nil), r.order...)
}

// All returns every platform in insertion order.
func (r *Registry) All() []*Module {
	out := make([]*Module, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.modules[id])
	}
	return out
}

// Settled returns the platforms that take part in a resolution pass.
func (r *Registry) Settled() []*Module {
	var out []*Module
	for _, id := range r.order {
		if m := r.modules[id]; m.Settled() {
			out = append(out, m)
		}
	}
	return out
}

// Touching returns the settled platforms whose bounds, grown by margin,
// intersect region.
func (r *Registry) Touching(region r2.Rect, margin float64) []*Module {
	var out []*Module
	for _, m := range r.Settled() {
		if m.Bounds().ExpandedByMargin(margin).Intersects(region) {
			out = append(out, m)
		}
	}
	return out
}
