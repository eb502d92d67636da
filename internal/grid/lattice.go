// Package grid provides the world grid used by platforms: a uniform lattice
// mapping world positions to integer cells, and an in-memory per-cell flag
// store with owner tracking.
package grid

import (
	"math"

	"github.com/golang/geo/r3"

	"github.com/mesh-intelligence/platforms/pkg/types"
)

// Lattice converts between world positions and cells. It holds no state
// besides its parameters and is shared by every GridIndex backend.
type Lattice struct {
	size         float64
	origin       r3.Vector
	connectivity int
}

// NewLattice creates a lattice from the grid fields of cfg. The config is
// expected to be validated.
func NewLattice(cfg types.Config) Lattice {
	conn := cfg.Connectivity
	if conn != 4 {
		conn = 8
	}
	return Lattice{
		size:         cfg.CellSize,
		origin:       r3.Vector{X: cfg.OriginX, Z: cfg.OriginZ},
		connectivity: conn,
	}
}

// CellSize returns the edge length of one cell.
func (l Lattice) CellSize() float64 {
	return l.size
}

// CellOf returns the cell containing p. Cells are half-open: a point on a
// boundary belongs to the cell on its positive side.
func (l Lattice) CellOf(p r3.Vector) types.Cell {
	return types.Cell{
		X: int(math.Floor((p.X - l.origin.X) / l.size)),
		Z: int(math.Floor((p.Z - l.origin.Z) / l.size)),
	}
}

// Center returns the world position of the center of c.
func (l Lattice) Center(c types.Cell) r3.Vector {
	return r3.Vector{
		X: l.origin.X + (float64(c.X)+0.5)*l.size,
		Z: l.origin.Z + (float64(c.Z)+0.5)*l.size,
	}
}

var (
	orthogonal = []types.Cell{{X: 0, Z: -1}, {X: 1, Z: 0}, {X: 0, Z: 1}, {X: -1, Z: 0}}
	diagonal   = []types.Cell{{X: 1, Z: -1}, {X: 1, Z: 1}, {X: -1, Z: 1}, {X: -1, Z: -1}}
)

// NeighborCells returns the orthogonal neighbors of c, followed by the
// diagonal ones under 8-connectivity.
func (l Lattice) NeighborCells(c types.Cell) []types.Cell {
	out := make([]types.Cell, 0, l.connectivity)
	for _, d := range orthogonal {
		out = append(out, types.Cell{X: c.X + d.X, Z: c.Z + d.Z})
	}
	if l.connectivity == 8 {
		for _, d := range diagonal {
			out = append(out, types.Cell{X: c.X + d.X, Z: c.Z + d.Z})
		}
	}
	return out
}
