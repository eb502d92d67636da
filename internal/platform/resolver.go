package platform

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/mesh-intelligence/platforms/pkg/types"
)

// Result summarizes one resolution pass.
type Result struct {
	// Changed lists platforms whose socket statuses or decoration
	// visibility changed, in registry order.
	Changed []string
	// Connections lists the mutual socket pairs, sorted.
	Connections []types.Connection
	// Skipped lists platforms dropped from the pass after a fault.
	Skipped []string
}

// Resolver recomputes socket statuses for every settled platform from the
// grid. It keeps no state between passes.
type Resolver struct {
	logger *slog.Logger
}

// NewResolver creates a resolver. A nil logger uses slog.Default.
func NewResolver(logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{logger: logger.With(slog.String("component", "resolver"))}
}

type socketRef struct {
	m *Module
	i int
}

type link struct {
	from   *Module
	socket int
	to     *Module
}

// ResolveAll runs one full pass over the settled platforms of reg. Socket
// statuses settle for every platform before any visibility cascade runs.
// Locked and Disabled sockets are left untouched. A platform that faults is
// skipped with a warning and the pass continues.
func (r *Resolver) ResolveAll(reg *Registry) Result {
	var res Result
	settled := reg.Settled()
	byID := make(map[string]*Module, len(settled))
	for _, m := range settled {
		byID[m.ID()] = m
	}
	live := make(map[string]*Module, len(settled))
	before := make(map[string][]types.Status, len(settled))

	var links []link
	for _, m := range settled {
		found, err := r.resolveModule(m, byID)
		if err != nil {
			r.logger.Warn("resolver: skipping module", slog.String("module", m.ID()), slog.Any("error", err))
			res.Skipped = append(res.Skipped, m.ID())
			continue
		}
		live[m.ID()] = m
		before[m.ID()] = found.before
		links = append(links, found.links...)
	}

	// A link holds only when the partner socket reached Connected on its own.
	// Sockets whose partner did not are demoted, unless another link
	// confirmed them.
	stepConnected := make(map[socketRef]bool, len(links))
	for _, l := range links {
		stepConnected[socketRef{l.from, l.socket}] = true
	}
	confirmed := make(map[socketRef]bool, len(links))
	var demoted []socketRef
	pairs := make(map[types.Connection]bool)
	for _, l := range links {
		from := socketRef{l.from, l.socket}
		if _, ok := live[l.to.ID()]; !ok {
			demoted = append(demoted, from)
			continue
		}
		j := l.to.facingPartner(l.from.index.World(l.socket), l.from.index.Outward(l.socket).Opposite())
		to := socketRef{l.to, j}
		if j < 0 || !stepConnected[to] {
			demoted = append(demoted, from)
			continue
		}
		confirmed[from] = true
		confirmed[to] = true
		pairs[orderedPair(l.from.ID(), l.socket, l.to.ID(), j)] = true
	}
	for _, ref := range demoted {
		if !confirmed[ref] {
			ref.m.set.SetStatus(ref.i, types.StatusOccupied)
		}
	}

	for _, m := range settled {
		prev, ok := before[m.ID()]
		if !ok {
			continue
		}
		changed := m.decor.Cascade(m.Status)
		if !changed {
			for i, st := range prev {
				if m.set.Status(i) != st {
					changed = true
					break
				}
			}
		}
		if changed {
			res.Changed = append(res.Changed, m.ID())
		}
	}

	res.Connections = make([]types.Connection, 0, len(pairs))
	for c := range pairs {
		res.Connections = append(res.Connections, c)
	}
	sort.Slice(res.Connections, func(i, j int) bool {
		a, b := res.Connections[i], res.Connections[j]
		if a.ModuleA != b.ModuleA {
			return a.ModuleA < b.ModuleA
		}
		if a.SocketA != b.SocketA {
			return a.SocketA < b.SocketA
		}
		if a.ModuleB != b.ModuleB {
			return a.ModuleB < b.ModuleB
		}
		return a.SocketB < b.SocketB
	})
	r.logger.Debug("resolution pass",
		slog.Int("settled", len(settled)),
		slog.Int("changed", len(res.Changed)),
		slog.Int("connections", len(res.Connections)))
	return res
}

func orderedPair(a string, i int, b string, j int) types.Connection {
	if b < a || (a == b && j < i) {
		a, i, b, j = b, j, a, i
	}
	return types.Connection{ModuleA: a, SocketA: i, ModuleB: b, SocketB: j}
}

type moduleResult struct {
	before []types.Status
	links  []link
}

// resolveModule recomputes one platform's non-sticky sockets. Panics raised
// while reading the grid are recovered into an error.
func (r *Resolver) resolveModule(m *Module, settled map[string]*Module) (out moduleResult, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("fault resolving %s: %v", m.ID(), p)
		}
	}()
	if err := m.ensureSockets(); err != nil {
		return out, err
	}

	out.before = m.set.Statuses()
	for i := 0; i < m.set.Len(); i++ {
		if m.set.Status(i).Sticky() {
			continue
		}
		st, neighbor := r.socketStatus(m, i, settled)
		m.set.SetStatus(i, st)
		if st == types.StatusConnected {
			out.links = append(out.links, link{from: m, socket: i, to: neighbor})
		}
	}
	return out, nil
}

// socketStatus applies the per-socket rules: an active blocking decoration
// makes the socket Occupied; a facing cell without a settled occupant makes
// it Linkable; a neighbor that blocked the facing cell makes it Occupied;
// otherwise it is Connected to that neighbor.
func (r *Resolver) socketStatus(m *Module, i int, settled map[string]*Module) (types.Status, *Module) {
	if m.decor.IsBlocked(i) {
		return types.StatusOccupied, nil
	}
	facing := m.index.FacingCell(i)
	var neighbor *Module
	for _, id := range m.grid.Owners(facing, types.FlagOccupied) {
		if id == m.ID() {
			continue
		}
		if o, ok := settled[id]; ok {
			neighbor = o
			break
		}
	}
	if neighbor == nil {
		return types.StatusLinkable, nil
	}
	for _, id := range m.grid.Owners(facing, types.FlagBlocked) {
		if id == neighbor.ID() {
			return types.StatusOccupied, neighbor
		}
	}
	return types.StatusConnected, neighbor
}
