package sockets

import (
	"math"

	"github.com/golang/geo/r3"

	"github.com/mesh-intelligence/platforms/pkg/types"
)

// Index buckets the sockets of one Set by the grid cell that owns them for
// the current pose. It rebuilds lazily: SetPose and Set rebuilds only mark it
// stale, the next query repopulates it.
type Index struct {
	set       *Set
	grid      types.GridIndex
	tolerance float64

	pose       types.Pose
	valid      bool
	setVersion uint64

	world   []r3.Vector
	outward []types.Direction
	cells   []types.Cell
	buckets map[types.Cell][]int
}

// NewIndex creates an index over set. tolerance is the distance from a cell
// boundary within which neighboring buckets are also scanned.
func NewIndex(set *Set, grid types.GridIndex, tolerance float64) *Index {
	return &Index{
		set:       set,
		grid:      grid,
		tolerance: tolerance,
	}
}

// SetPose records the platform pose. The index is invalidated when the pose
// differs from the cached one.
func (x *Index) SetPose(p types.Pose) {
	if x.valid && p == x.pose {
		return
	}
	x.pose = p
	x.valid = false
}

// Pose returns the pose the index answers for.
func (x *Index) Pose() types.Pose {
	return x.pose
}

// Invalidate forces a rebuild on the next query.
func (x *Index) Invalidate() {
	x.valid = false
}

// Valid reports whether the cached world data matches the pose and set.
func (x *Index) Valid() bool {
	return x.valid && x.setVersion == x.set.Version()
}

func (x *Index) ensure() {
	if x.Valid() {
		return
	}
	x.rebuild()
}

// rebuild computes each socket's world position, world outward axis and
// owning cell. A socket sits on a cell boundary, so its owning cell is taken
// a quarter cell inward from the world position.
func (x *Index) rebuild() {
	n := x.set.Len()
	x.world = make([]r3.Vector, n)
	x.outward = make([]types.Direction, n)
	x.cells = make([]types.Cell, n)
	x.buckets = make(map[types.Cell][]int, n)

	inset := x.grid.CellSize() / 4
	for i := 0; i < n; i++ {
		w := Transform(x.pose, x.set.Local(i))
		dir := RotateDirection(x.set.Outward(i), x.pose.Yaw)
		c := x.grid.CellOf(w.Sub(dir.Vector().Mul(inset)))
		x.world[i] = w
		x.outward[i] = dir
		x.cells[i] = c
		x.buckets[c] = append(x.buckets[c], i)
	}
	x.setVersion = x.set.Version()
	x.valid = true
}

// World returns the world position of socket i.
func (x *Index) World(i int) r3.Vector {
	x.ensure()
	return x.world[i]
}

// Outward returns the world outward axis of socket i.
func (x *Index) Outward(i int) types.Direction {
	x.ensure()
	return x.outward[i]
}

// Cell returns the owning cell of socket i.
func (x *Index) Cell(i int) types.Cell {
	x.ensure()
	return x.cells[i]
}

// FacingCell returns the cell half a cell outward from socket i.
func (x *Index) FacingCell(i int) types.Cell {
	x.ensure()
	step := x.outward[i].Vector().Mul(x.grid.CellSize() / 2)
	return x.grid.CellOf(x.world[i].Add(step))
}

// Bucket returns the socket indices owned by c.
func (x *Index) Bucket(c types.Cell) []int {
	x.ensure()
	return x.buckets[c]
}

// nearBoundary reports whether p lies within the tolerance of the boundary
// of its cell.
func (x *Index) nearBoundary(p r3.Vector, c types.Cell) bool {
	t := x.tolerance
	if t <= 0 {
		return false
	}
	probes := []r3.Vector{
		{X: p.X + t, Y: p.Y, Z: p.Z},
		{X: p.X - t, Y: p.Y, Z: p.Z},
		{X: p.X, Y: p.Y, Z: p.Z + t},
		{X: p.X, Y: p.Y, Z: p.Z - t},
	}
	for _, q := range probes {
		if x.grid.CellOf(q) != c {
			return true
		}
	}
	return false
}

// Nearest returns the index of the socket nearest to p, or -1 when the set
// is empty. It scans p's bucket, adds the neighboring buckets when p is near
// a cell boundary, and falls back to a full scan only when no bucket yields a
// socket. Ties go to the lower index.
func (x *Index) Nearest(p r3.Vector) int {
	x.ensure()
	if len(x.world) == 0 {
		return -1
	}

	best, bestD := -1, math.Inf(1)
	consider := func(i int) {
		d := x.world[i].Sub(p).Norm2()
		if d < bestD || (d == bestD && i < best) {
			best, bestD = i, d
		}
	}

	c := x.grid.CellOf(p)
	for _, i := range x.buckets[c] {
		consider(i)
	}
	if x.nearBoundary(p, c) {
		for _, nc := range x.grid.NeighborCells(c) {
			for _, i := range x.buckets[nc] {
				consider(i)
			}
		}
	}
	if best < 0 {
		for i := range x.world {
			consider(i)
		}
	}
	return best
}

// NearestN returns up to n socket indices within maxDist of p. It starts at
// the nearest socket and walks outward along the perimeter in both
// directions, alternating forward then backward, until n results are found or
// the walk passes half the perimeter. A maxDist of zero or less disables the
// distance filter.
func (x *Index) NearestN(p r3.Vector, n int, maxDist float64) []int {
	if n <= 0 {
		return nil
	}
	start := x.Nearest(p)
	if start < 0 {
		return nil
	}

	limit := math.Inf(1)
	if maxDist > 0 {
		limit = maxDist * maxDist
	}
	within := func(i int) bool {
		return x.world[i].Sub(p).Norm2() <= limit
	}

	out := make([]int, 0, n)
	if within(start) {
		out = append(out, start)
	}

	total := len(x.world)
	seen := map[int]bool{start: true}
	for offset := 1; offset <= total/2 && len(out) < n; offset++ {
		for _, i := range []int{x.set.Wrap(start + offset), x.set.Wrap(start - offset)} {
			if seen[i] || len(out) >= n {
				continue
			}
			seen[i] = true
			if within(i) {
				out = append(out, i)
			}
		}
	}
	return out
}
