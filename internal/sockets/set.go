// Package sockets builds the ordered perimeter sockets of a platform and
// indexes them by grid cell for nearest-socket queries.
package sockets

import (
	"math"

	"github.com/golang/geo/r3"

	"github.com/mesh-intelligence/platforms/pkg/types"
)

// entry is one socket in local space.
type entry struct {
	local   r3.Vector
	key     types.OffsetKey
	outward types.Direction // Local outward axis.
	status  types.Status
}

// Set is the ordered socket list of one platform. Sockets run clockwise from
// the local south-west corner: South edge (increasing X), East edge
// (increasing Z), North edge (decreasing X), West edge (decreasing Z), so
// indices i and i+1 (mod Len) are always physically adjacent.
type Set struct {
	footprint types.Footprint
	cellSize  float64
	entries   []entry
	version   uint64
}

// Build returns a socket set for fp. Locked and Disabled statuses in previous
// are carried over by exact local offset; every other socket starts Linkable.
// fp is clamped to at least 1x1.
func Build(fp types.Footprint, cellSize float64, previous map[types.OffsetKey]types.Status) *Set {
	s := &Set{}
	s.Rebuild(fp, cellSize, previous)
	return s
}

// Rebuild regenerates the sockets in place and bumps the set version so any
// spatial index over it is invalidated.
func (s *Set) Rebuild(fp types.Footprint, cellSize float64, previous map[types.OffsetKey]types.Status) {
	fp, _ = fp.Clamped()
	s.footprint = fp
	s.cellSize = cellSize
	s.entries = s.entries[:0]
	s.version++

	half := cellSize / 2
	hw := float64(fp.Width) * half
	hl := float64(fp.Length) * half

	add := func(x, z float64, dir types.Direction) {
		local := r3.Vector{X: x, Z: z}
		key := keyOf(local, half)
		st := types.StatusLinkable
		if prev, ok := previous[key]; ok && prev.Sticky() {
			st = prev
		}
		s.entries = append(s.entries, entry{local: local, key: key, outward: dir, status: st})
	}

	for i := 0; i < fp.Width; i++ {
		add(-hw+half+float64(i)*cellSize, -hl, types.South)
	}
	for j := 0; j < fp.Length; j++ {
		add(hw, -hl+half+float64(j)*cellSize, types.East)
	}
	for i := 0; i < fp.Width; i++ {
		add(hw-half-float64(i)*cellSize, hl, types.North)
	}
	for j := 0; j < fp.Length; j++ {
		add(-hw, hl-half-float64(j)*cellSize, types.West)
	}
}

func keyOf(local r3.Vector, half float64) types.OffsetKey {
	return types.OffsetKey{
		X: int(math.Round(local.X / half)),
		Z: int(math.Round(local.Z / half)),
	}
}

// Len returns the number of sockets, 2(w+l).
func (s *Set) Len() int {
	return len(s.entries)
}

// Footprint returns the clamped footprint the set was built for.
func (s *Set) Footprint() types.Footprint {
	return s.footprint
}

// CellSize returns the cell size the set was built for.
func (s *Set) CellSize() float64 {
	return s.cellSize
}

// Version changes every time the set is rebuilt.
func (s *Set) Version() uint64 {
	return s.version
}

// InRange reports whether i is a valid socket index.
func (s *Set) InRange(i int) bool {
	return i >= 0 && i < len(s.entries)
}

// Local returns the local offset of socket i.
func (s *Set) Local(i int) r3.Vector {
	return s.entries[i].local
}

// Key returns the offset key of socket i.
func (s *Set) Key(i int) types.OffsetKey {
	return s.entries[i].key
}

// Outward returns the local outward axis of socket i.
func (s *Set) Outward(i int) types.Direction {
	return s.entries[i].outward
}

// Status returns the status of socket i.
func (s *Set) Status(i int) types.Status {
	return s.entries[i].status
}

// SetStatus sets the status of socket i. It reports whether the status
// changed.
func (s *Set) SetStatus(i int, st types.Status) bool {
	if s.entries[i].status == st {
		return false
	}
	s.entries[i].status = st
	return true
}

// Statuses returns a copy of every socket status in index order.
func (s *Set) Statuses() []types.Status {
	out := make([]types.Status, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.status
	}
	return out
}

// StickyStatuses returns the Locked and Disabled statuses keyed by local
// offset, for carrying across a rebuild.
func (s *Set) StickyStatuses() map[types.OffsetKey]types.Status {
	out := make(map[types.OffsetKey]types.Status)
	for _, e := range s.entries {
		if e.status.Sticky() {
			out[e.key] = e.status
		}
	}
	return out
}

// Wrap maps any integer onto a valid index by walking the perimeter.
func (s *Set) Wrap(i int) int {
	n := len(s.entries)
	if n == 0 {
		return -1
	}
	i %= n
	if i < 0 {
		i += n
	}
	return i
}

// Corners returns, for each perimeter corner, the pair of socket indices on
// either side of it, in walk order starting at the south-east corner.
func (s *Set) Corners() [][2]int {
	if len(s.entries) == 0 {
		return nil
	}
	return CornerPairs(s.footprint)
}

// CornerPairs returns the socket index pairs that meet at the four corners
// of fp, in walk order starting at the south-east corner.
func CornerPairs(fp types.Footprint) [][2]int {
	fp, _ = fp.Clamped()
	total := fp.Perimeter()
	ends := []int{
		fp.Width - 1,
		fp.Width + fp.Length - 1,
		2*fp.Width + fp.Length - 1,
		total - 1,
	}
	out := make([][2]int, 0, len(ends))
	for _, e := range ends {
		out = append(out, [2]int{e, (e + 1) % total})
	}
	return out
}
