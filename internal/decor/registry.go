// Package decor binds decorative elements to socket indices of one platform
// and derives their visibility from socket connection state.
package decor

import (
	"sort"

	"github.com/mesh-intelligence/platforms/pkg/types"
)

// binding is a registered decoration with its derived visibility.
type binding struct {
	dec    types.Decoration
	hidden bool
}

// Registry holds the decoration bindings of one platform. Iteration follows
// registration order so cascade results are deterministic.
type Registry struct {
	bindings map[string]*binding
	order    []string
	bySocket map[int][]string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		bindings: make(map[string]*binding),
		bySocket: make(map[int][]string),
	}
}

// Len returns the number of bindings.
func (r *Registry) Len() int {
	return len(r.order)
}

// Register binds d. The binding shape is validated against socketCount.
// Returns ErrDecorationExists if d.ID is already bound.
func (r *Registry) Register(d types.Decoration, socketCount int) error {
	if d.ID == "" {
		return types.ErrInvalidDecoration
	}
	if _, ok := r.bindings[d.ID]; ok {
		return types.ErrDecorationExists
	}
	if err := d.Validate(socketCount); err != nil {
		return err
	}
	d.Sockets = append([]int(nil), d.Sockets...)
	r.bindings[d.ID] = &binding{dec: d}
	r.order = append(r.order, d.ID)
	for _, idx := range d.Sockets {
		r.bySocket[idx] = append(r.bySocket[idx], d.ID)
	}
	return nil
}

// Unregister removes the binding for id and returns it.
func (r *Registry) Unregister(id string) (types.Decoration, bool) {
	b, ok := r.bindings[id]
	if !ok {
		return types.Decoration{}, false
	}
	delete(r.bindings, id)
	r.order = without(r.order, id)
	for _, idx := range b.dec.Sockets {
		r.bySocket[idx] = without(r.bySocket[idx], id)
		if len(r.bySocket[idx]) == 0 {
			delete(r.bySocket, idx)
		}
	}
	return b.dec, true
}

func without(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// Get returns a copy of the binding for id.
func (r *Registry) Get(id string) (types.Decoration, bool) {
	b, ok := r.bindings[id]
	if !ok {
		return types.Decoration{}, false
	}
	d := b.dec
	d.Sockets = append([]int(nil), b.dec.Sockets...)
	return d, true
}

// IDs returns every bound decoration ID in registration order.
func (r *Registry) IDs() []string {
	return append([]string(nil), r.order...)
}

// SetActive toggles whether a blocking decoration currently blocks. It
// reports whether the flag changed.
func (r *Registry) SetActive(id string, active bool) (bool, error) {
	b, ok := r.bindings[id]
	if !ok {
		return false, types.ErrDecorationNotFound
	}
	if b.dec.Inactive == !active {
		return false, nil
	}
	b.dec.Inactive = !active
	return true, nil
}

// IsBlocked reports whether socket idx is bound by an active decoration that
// blocks linking.
func (r *Registry) IsBlocked(idx int) bool {
	for _, id := range r.bySocket[idx] {
		d := r.bindings[id].dec
		if d.Blocks() {
			return true
		}
	}
	return false
}

// BlockedSockets returns, sorted, every socket index bound by an active
// blocking decoration.
func (r *Registry) BlockedSockets() []int {
	var out []int
	for idx := range r.bySocket {
		if r.IsBlocked(idx) {
			out = append(out, idx)
		}
	}
	sort.Ints(out)
	return out
}

// IsHidden reports the visibility derived by the last Cascade. Unknown IDs
// are visible.
func (r *Registry) IsHidden(id string) bool {
	b, ok := r.bindings[id]
	return ok && b.hidden
}

// Hidden returns the IDs of hidden decorations in registration order.
func (r *Registry) Hidden() []string {
	var out []string
	for _, id := range r.order {
		if r.bindings[id].hidden {
			out = append(out, id)
		}
	}
	return out
}

// Prune drops bindings that reference a socket index at or beyond
// socketCount, as happens when a footprint shrinks. It returns the dropped
// IDs.
func (r *Registry) Prune(socketCount int) []string {
	var dropped []string
	for _, id := range r.IDs() {
		if err := r.bindings[id].dec.Validate(socketCount); err != nil {
			r.Unregister(id)
			dropped = append(dropped, id)
		}
	}
	return dropped
}

// Clear removes every binding and returns the removed IDs.
func (r *Registry) Clear() []string {
	ids := r.IDs()
	r.bindings = make(map[string]*binding)
	r.bySocket = make(map[int][]string)
	r.order = nil
	return ids
}
