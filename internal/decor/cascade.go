package decor

import "github.com/mesh-intelligence/platforms/pkg/types"

// StatusFunc returns the status of a socket index.
type StatusFunc func(idx int) types.Status

// Cascade recomputes visibility in two strict passes and reports whether any
// decoration changed state. Socket statuses must be settled before it runs.
//
// Edges: hidden iff every bound socket is Connected.
// Corners: hidden iff every edge sharing any bound socket is hidden; a corner
// that shares sockets with no edge stays visible.
func (r *Registry) Cascade(status StatusFunc) bool {
	changed := false
	set := func(b *binding, hidden bool) {
		if b.hidden != hidden {
			b.hidden = hidden
			changed = true
		}
	}

	for _, id := range r.order {
		b := r.bindings[id]
		if b.dec.Kind != types.DecorationEdge {
			continue
		}
		hidden := len(b.dec.Sockets) > 0
		for _, idx := range b.dec.Sockets {
			if status(idx) != types.StatusConnected {
				hidden = false
				break
			}
		}
		set(b, hidden)
	}

	for _, id := range r.order {
		b := r.bindings[id]
		if b.dec.Kind != types.DecorationCorner {
			continue
		}
		edges, hidden := 0, true
		for _, idx := range b.dec.Sockets {
			for _, other := range r.bySocket[idx] {
				ob := r.bindings[other]
				if ob.dec.Kind != types.DecorationEdge {
					continue
				}
				edges++
				if !ob.hidden {
					hidden = false
				}
			}
		}
		set(b, edges > 0 && hidden)
	}
	return changed
}
