package grid

import (
	"sort"
	"sync"

	"github.com/boljen/go-bitmap"

	"github.com/mesh-intelligence/platforms/pkg/types"
)

// flagBits is the width of a cell's flag bitmap.
const flagBits = 8

// cell holds the flag bits of one grid cell and, per bit, the reference
// count of each owner that set it. A bit is set iff its owner map is
// non-empty.
type cell struct {
	bits   bitmap.Bitmap
	owners [flagBits]map[string]int
}

func newCell() *cell {
	return &cell{bits: bitmap.New(flagBits)}
}

func (c *cell) empty() bool {
	for _, o := range c.owners {
		if len(o) > 0 {
			return false
		}
	}
	return true
}

var _ types.GridIndex = (*Grid)(nil)

// Grid is an unbounded in-memory GridIndex. Cell-flag mutation is
// serialized by a mutex so a multi-threaded host observes a single writer.
type Grid struct {
	Lattice

	mu    sync.RWMutex
	cells map[types.Cell]*cell
}

// New creates an empty grid for cfg.
func New(cfg types.Config) *Grid {
	return &Grid{
		Lattice: NewLattice(cfg),
		cells:   make(map[types.Cell]*cell),
	}
}

// bitOf returns the bitmap position of a single flag.
func bitOf(f types.CellFlag) int {
	for i := 0; i < flagBits; i++ {
		if uint8(f) == 1<<uint(i) {
			return i
		}
	}
	return -1
}

// FlagsOf returns the flags present on c.
func (g *Grid) FlagsOf(c types.Cell) types.CellFlags {
	g.mu.RLock()
	defer g.mu.RUnlock()

	st, ok := g.cells[c]
	if !ok {
		return 0
	}
	var out types.CellFlags
	for _, f := range types.AllFlags {
		if st.bits.Get(bitOf(f)) {
			out = out.With(f)
		}
	}
	return out
}

// Owners returns the sorted owners of f on c.
func (g *Grid) Owners(c types.Cell, f types.CellFlag) []string {
	bit := bitOf(f)
	if bit < 0 {
		return nil
	}
	g.mu.RLock()
	defer g.mu.RUnlock()

	st, ok := g.cells[c]
	if !ok || len(st.owners[bit]) == 0 {
		return nil
	}
	out := make([]string, 0, len(st.owners[bit]))
	for id := range st.owners[bit] {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// SetFlag adds one reference of owner on f at c.
func (g *Grid) SetFlag(c types.Cell, f types.CellFlag, owner string) {
	bit := bitOf(f)
	if bit < 0 {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	st, ok := g.cells[c]
	if !ok {
		st = newCell()
		g.cells[c] = st
	}
	if st.owners[bit] == nil {
		st.owners[bit] = make(map[string]int)
	}
	st.owners[bit][owner]++
	st.bits.Set(bit, true)
}

// ClearFlag drops one reference of owner on f at c. Clearing a flag the
// owner never set is a no-op.
func (g *Grid) ClearFlag(c types.Cell, f types.CellFlag, owner string) {
	bit := bitOf(f)
	if bit < 0 {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	st, ok := g.cells[c]
	if !ok {
		return
	}
	refs := st.owners[bit][owner]
	switch {
	case refs <= 0:
		return
	case refs == 1:
		delete(st.owners[bit], owner)
	default:
		st.owners[bit][owner] = refs - 1
	}
	if len(st.owners[bit]) == 0 {
		st.bits.Set(bit, false)
	}
	if st.empty() {
		delete(g.cells, c)
	}
}

// Len returns the number of cells carrying at least one flag.
func (g *Grid) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.cells)
}
