package sockets

import (
	"testing"

	"github.com/golang/geo/r3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/platforms/internal/grid"
	"github.com/mesh-intelligence/platforms/pkg/types"
)

func newIndex(t *testing.T, fp types.Footprint, pose types.Pose) (*Set, *Index) {
	t.Helper()
	cfg := types.DefaultConfig()
	g := grid.New(cfg)
	s := Build(fp, cfg.CellSize, nil)
	x := NewIndex(s, g, cfg.BoundaryTolerance)
	x.SetPose(pose)
	return s, x
}

func TestIndex_WorldAndCells(t *testing.T) {
	_, x := newIndex(t, types.Footprint{Width: 4, Length: 4}, types.Pose{})

	assert.Equal(t, r3.Vector{X: -1.5, Z: -2}, x.World(0))
	assert.Equal(t, types.Cell{X: -2, Z: -2}, x.Cell(0))
	assert.Equal(t, types.Cell{X: -2, Z: -3}, x.FacingCell(0))

	assert.Equal(t, r3.Vector{X: 2, Z: -1.5}, x.World(4))
	assert.Equal(t, types.East, x.Outward(4))
	assert.Equal(t, types.Cell{X: 1, Z: -2}, x.Cell(4))
	assert.Equal(t, types.Cell{X: 2, Z: -2}, x.FacingCell(4))
}

func TestIndex_CornerBucket(t *testing.T) {
	_, x := newIndex(t, types.Footprint{Width: 4, Length: 4}, types.Pose{})
	// Socket 3 is the last south socket at (1.5, -2); socket 4 the first east
	// socket at (2, -1.5). Both belong to cell (1, -2).
	assert.ElementsMatch(t, []int{3, 4}, x.Bucket(types.Cell{X: 1, Z: -2}))
}

func TestIndex_Nearest(t *testing.T) {
	_, x := newIndex(t, types.Footprint{Width: 4, Length: 4}, types.Pose{})

	tests := []struct {
		name string
		p    r3.Vector
		want int
	}{
		{name: "exact socket on boundary", p: r3.Vector{X: 2, Z: -1.5}, want: 4},
		{name: "inside owning cell", p: r3.Vector{X: 1.7, Z: -1.6}, want: 4},
		{name: "outside the platform", p: r3.Vector{X: 2.3, Z: 0.4}, want: 6},
		{name: "interior falls back to full scan", p: r3.Vector{X: 0.2, Z: 0.3}, want: 9},
		{name: "far away", p: r3.Vector{X: -40, Z: -40}, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, x.Nearest(tt.p))
		})
	}
}

func TestIndex_NearestN(t *testing.T) {
	_, x := newIndex(t, types.Footprint{Width: 4, Length: 4}, types.Pose{})
	p := r3.Vector{X: 2, Z: -1.5}

	assert.Equal(t, []int{4, 5, 3}, x.NearestN(p, 3, 1.1))
	assert.Equal(t, []int{4, 3}, x.NearestN(p, 5, 0.8))
	assert.Equal(t, []int{4}, x.NearestN(p, 1, 0))
	assert.Nil(t, x.NearestN(p, 0, 10))

	all := x.NearestN(p, 100, 0)
	assert.Len(t, all, 16, "unfiltered walk covers the whole perimeter")
	assert.Equal(t, []int{4, 5, 3, 6, 2}, all[:5])
}

func TestIndex_NearestNOutOfRange(t *testing.T) {
	_, x := newIndex(t, types.Footprint{Width: 2, Length: 2}, types.Pose{})
	assert.Empty(t, x.NearestN(r3.Vector{X: 50}, 4, 1))
}

func TestIndex_PoseChangeInvalidates(t *testing.T) {
	_, x := newIndex(t, types.Footprint{Width: 2, Length: 2}, types.Pose{})
	require.Equal(t, r3.Vector{X: -0.5, Z: -1}, x.World(0))
	require.True(t, x.Valid())

	x.SetPose(types.Pose{Position: r3.Vector{X: 10}})
	assert.False(t, x.Valid())
	assert.Equal(t, r3.Vector{X: 9.5, Z: -1}, x.World(0))
	assert.Equal(t, 0, x.Nearest(r3.Vector{X: 9.5, Z: -1}))

	// An identical pose keeps the cache.
	x.SetPose(types.Pose{Position: r3.Vector{X: 10}})
	assert.True(t, x.Valid())
}

func TestIndex_RotatedPose(t *testing.T) {
	_, x := newIndex(t, types.Footprint{Width: 2, Length: 4}, types.Pose{Yaw: 90})

	// Local south socket 0 at (-0.5, -2) rotates to (-2, 0.5) facing west.
	assert.Equal(t, r3.Vector{X: -2, Z: 0.5}, x.World(0))
	assert.Equal(t, types.West, x.Outward(0))
	assert.Equal(t, types.Cell{X: -3, Z: 0}, x.FacingCell(0))
}

func TestIndex_SetRebuildInvalidates(t *testing.T) {
	s, x := newIndex(t, types.Footprint{Width: 1, Length: 1}, types.Pose{})
	require.Len(t, x.NearestN(r3.Vector{}, 10, 0), 4)

	s.Rebuild(types.Footprint{Width: 3, Length: 1}, 1, nil)
	assert.False(t, x.Valid())
	assert.Len(t, x.NearestN(r3.Vector{}, 10, 0), 8)
}
