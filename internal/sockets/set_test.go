package sockets

import (
	"fmt"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/platforms/pkg/types"
)

func TestBuild_CountAndAdjacency(t *testing.T) {
	footprints := []types.Footprint{{Width: 1, Length: 1}, {Width: 1, Length: 5}, {Width: 4, Length: 4}, {Width: 3, Length: 7}, {Width: 10, Length: 2}}
	for _, fp := range footprints {
		t.Run(fmt.Sprintf("%dx%d", fp.Width, fp.Length), func(t *testing.T) {
			s := Build(fp, 1, nil)
			require.Equal(t, 2*(fp.Width+fp.Length), s.Len())

			for i := 0; i < s.Len(); i++ {
				next := s.Wrap(i + 1)
				d := s.Local(i).Sub(s.Local(next)).Norm()
				assert.Greater(t, d, 0.0, "sockets %d and %d coincide", i, next)
				assert.LessOrEqual(t, d, 1.0+1e-9, "sockets %d and %d are not adjacent", i, next)
			}
		})
	}
}

func TestBuild_Order(t *testing.T) {
	s := Build(types.Footprint{Width: 2, Length: 3}, 2, nil)
	require.Equal(t, 10, s.Len())

	want := []struct {
		local r3.Vector
		dir   types.Direction
	}{
		{r3.Vector{X: -1, Z: -3}, types.South},
		{r3.Vector{X: 1, Z: -3}, types.South},
		{r3.Vector{X: 2, Z: -2}, types.East},
		{r3.Vector{X: 2, Z: 0}, types.East},
		{r3.Vector{X: 2, Z: 2}, types.East},
		{r3.Vector{X: 1, Z: 3}, types.North},
		{r3.Vector{X: -1, Z: 3}, types.North},
		{r3.Vector{X: -2, Z: 2}, types.West},
		{r3.Vector{X: -2, Z: 0}, types.West},
		{r3.Vector{X: -2, Z: -2}, types.West},
	}
	for i, w := range want {
		assert.Equal(t, w.local, s.Local(i), "socket %d", i)
		assert.Equal(t, w.dir, s.Outward(i), "socket %d", i)
		assert.Equal(t, types.StatusLinkable, s.Status(i))
	}
	assert.Equal(t, types.OffsetKey{X: -1, Z: -3}, s.Key(0))
}

func TestBuild_Idempotent(t *testing.T) {
	a := Build(types.Footprint{Width: 3, Length: 5}, 1, nil)
	b := Build(types.Footprint{Width: 3, Length: 5}, 1, nil)

	require.Equal(t, a.Len(), b.Len())
	for i := 0; i < a.Len(); i++ {
		assert.Equal(t, a.Local(i), b.Local(i))
		assert.Equal(t, a.Key(i), b.Key(i))
	}
	assert.Equal(t, a.Statuses(), b.Statuses())

	v := a.Version()
	a.Rebuild(types.Footprint{Width: 3, Length: 5}, 1, a.StickyStatuses())
	assert.Equal(t, b.Statuses(), a.Statuses())
	assert.NotEqual(t, v, a.Version(), "rebuild must bump the version")
}

func TestBuild_StickyStatuses(t *testing.T) {
	fp := types.Footprint{Width: 4, Length: 4}
	s := Build(fp, 1, nil)
	s.SetStatus(2, types.StatusLocked)
	s.SetStatus(5, types.StatusDisabled)
	s.SetStatus(3, types.StatusConnected)
	s.SetStatus(4, types.StatusOccupied)

	s.Rebuild(fp, 1, s.StickyStatuses())

	assert.Equal(t, types.StatusLocked, s.Status(2))
	assert.Equal(t, types.StatusDisabled, s.Status(5))
	assert.Equal(t, types.StatusLinkable, s.Status(3), "connected is recomputed")
	assert.Equal(t, types.StatusLinkable, s.Status(4), "occupied is recomputed")
}

func TestBuild_StickyAcrossResize(t *testing.T) {
	s := Build(types.Footprint{Width: 4, Length: 4}, 1, nil)
	// East socket at local (2, -1.5) keeps its offset when the length grows
	// from 4 to 6; the south sockets move from z=-2 to z=-3.
	require.Equal(t, r3.Vector{X: 2, Z: -1.5}, s.Local(4))
	s.SetStatus(4, types.StatusLocked)
	s.SetStatus(0, types.StatusLocked)

	s.Rebuild(types.Footprint{Width: 4, Length: 6}, 1, s.StickyStatuses())
	require.Equal(t, 20, s.Len())

	var locked []r3.Vector
	for i := 0; i < s.Len(); i++ {
		if s.Status(i) == types.StatusLocked {
			locked = append(locked, s.Local(i))
		}
	}
	assert.Equal(t, []r3.Vector{{X: 2, Z: -1.5}}, locked)
}

func TestBuild_ClampsDegenerateFootprint(t *testing.T) {
	s := Build(types.Footprint{Width: 0, Length: -3}, 1, nil)
	assert.Equal(t, 4, s.Len())
	assert.Equal(t, types.Footprint{Width: 1, Length: 1}, s.Footprint())
}

func TestSet_Wrap(t *testing.T) {
	s := Build(types.Footprint{Width: 1, Length: 1}, 1, nil)
	assert.Equal(t, 0, s.Wrap(4))
	assert.Equal(t, 3, s.Wrap(-1))
	assert.Equal(t, 1, s.Wrap(-7))
	assert.True(t, s.InRange(3))
	assert.False(t, s.InRange(4))
	assert.False(t, s.InRange(-1))
}

func TestSet_Corners(t *testing.T) {
	s := Build(types.Footprint{Width: 2, Length: 3}, 1, nil)
	assert.Equal(t, [][2]int{{1, 2}, {4, 5}, {6, 7}, {9, 0}}, s.Corners())

	one := Build(types.Footprint{Width: 1, Length: 1}, 1, nil)
	assert.Equal(t, [][2]int{{0, 1}, {1, 2}, {2, 3}, {3, 0}}, one.Corners())
}

func TestCornerPairs_ClampsFootprint(t *testing.T) {
	assert.Equal(t, [][2]int{{0, 1}, {1, 2}, {2, 3}, {3, 0}}, CornerPairs(types.Footprint{}))
	assert.Equal(t, [][2]int{{3, 4}, {7, 8}, {11, 12}, {15, 0}}, CornerPairs(types.Footprint{Width: 4, Length: 4}))
}
