package types

import (
	"strings"

	"github.com/golang/geo/r3"
)

// Cell is an integer grid coordinate on the ground plane.
type Cell struct {
	X int `json:"x"`
	Z int `json:"z"`
}

// CellFlag is a single per-cell marker.
type CellFlag uint8

// Cell flags written by platforms into the grid.
const (
	// FlagOccupied marks a cell covered by a settled platform.
	FlagOccupied CellFlag = 1 << iota
	// FlagBlocked marks a cell whose owner has a linking-blocking decoration
	// on a socket inside it.
	FlagBlocked
	// FlagPreview marks a cell covered by a platform that is being moved.
	FlagPreview
)

// AllFlags lists every cell flag in bit order.
var AllFlags = []CellFlag{FlagOccupied, FlagBlocked, FlagPreview}

func (f CellFlag) String() string {
	switch f {
	case FlagOccupied:
		return "occupied"
	case FlagBlocked:
		return "blocked"
	case FlagPreview:
		return "preview"
	default:
		return "unknown"
	}
}

// CellFlags is the set of flags present on a cell.
type CellFlags uint8

// Has reports whether f is present.
func (c CellFlags) Has(f CellFlag) bool {
	return uint8(c)&uint8(f) != 0
}

// With returns c with f added.
func (c CellFlags) With(f CellFlag) CellFlags {
	return c | CellFlags(f)
}

func (c CellFlags) String() string {
	var parts []string
	for _, f := range AllFlags {
		if c.Has(f) {
			parts = append(parts, f.String())
		}
	}
	if len(parts) == 0 {
		return "empty"
	}
	return strings.Join(parts, "|")
}

// GridIndex is the world grid consumed by the core. It converts world
// positions to cells and stores per-cell flags. Every flag is recorded per
// owner so a cell can answer which platform set it.
type GridIndex interface {
	// CellSize returns the edge length of one cell in world units.
	CellSize() float64

	// CellOf returns the cell containing world position p.
	CellOf(p r3.Vector) Cell

	// FlagsOf returns the flags present on c.
	FlagsOf(c Cell) CellFlags

	// Owners returns, sorted, the IDs of platforms that set flag f on c.
	Owners(c Cell, f CellFlag) []string

	// SetFlag records that owner sets f on c. Repeated calls by the same
	// owner are reference counted.
	SetFlag(c Cell, f CellFlag, owner string)

	// ClearFlag releases one reference of owner on f at c.
	ClearFlag(c Cell, f CellFlag, owner string)

	// NeighborCells returns the 4- or 8-connected neighbors of c.
	NeighborCells(c Cell) []Cell
}
