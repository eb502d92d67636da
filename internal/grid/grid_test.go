package grid

import (
	"testing"

	"github.com/golang/geo/r3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/platforms/pkg/types"
)

func TestLattice_CellOf(t *testing.T) {
	cfg := types.DefaultConfig()
	cfg.CellSize = 2
	cfg.OriginX = 1
	l := NewLattice(cfg)

	tests := []struct {
		name string
		p    r3.Vector
		want types.Cell
	}{
		{name: "origin", p: r3.Vector{X: 1, Z: 0}, want: types.Cell{X: 0, Z: 0}},
		{name: "inside first cell", p: r3.Vector{X: 2.9, Z: 1.9}, want: types.Cell{X: 0, Z: 0}},
		{name: "boundary goes positive", p: r3.Vector{X: 3, Z: 2}, want: types.Cell{X: 1, Z: 1}},
		{name: "negative side", p: r3.Vector{X: 0.5, Z: -0.1}, want: types.Cell{X: -1, Z: -1}},
		{name: "height ignored", p: r3.Vector{X: 1.5, Y: 40, Z: 0.5}, want: types.Cell{X: 0, Z: 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, l.CellOf(tt.p))
		})
	}

	assert.Equal(t, r3.Vector{X: 2, Z: 1}, l.Center(types.Cell{}))
	assert.Equal(t, types.Cell{X: 3, Z: -2}, l.CellOf(l.Center(types.Cell{X: 3, Z: -2})))
}

func TestLattice_NeighborCells(t *testing.T) {
	cfg := types.DefaultConfig()

	cfg.Connectivity = 4
	four := NewLattice(cfg).NeighborCells(types.Cell{X: 5, Z: 5})
	assert.Len(t, four, 4)
	assert.Contains(t, four, types.Cell{X: 5, Z: 4})
	assert.NotContains(t, four, types.Cell{X: 6, Z: 6})

	cfg.Connectivity = 8
	eight := NewLattice(cfg).NeighborCells(types.Cell{X: 5, Z: 5})
	assert.Len(t, eight, 8)
	assert.Contains(t, eight, types.Cell{X: 6, Z: 6})
	assert.Contains(t, eight, types.Cell{X: 4, Z: 4})
	assert.NotContains(t, eight, types.Cell{X: 5, Z: 5})
}

func TestGrid_Flags(t *testing.T) {
	g := New(types.DefaultConfig())
	c := types.Cell{X: 2, Z: -3}

	assert.Equal(t, types.CellFlags(0), g.FlagsOf(c))
	assert.Nil(t, g.Owners(c, types.FlagOccupied))

	g.SetFlag(c, types.FlagOccupied, "b")
	g.SetFlag(c, types.FlagOccupied, "a")
	g.SetFlag(c, types.FlagBlocked, "b")

	flags := g.FlagsOf(c)
	assert.True(t, flags.Has(types.FlagOccupied))
	assert.True(t, flags.Has(types.FlagBlocked))
	assert.False(t, flags.Has(types.FlagPreview))
	assert.Equal(t, []string{"a", "b"}, g.Owners(c, types.FlagOccupied))
	assert.Equal(t, []string{"b"}, g.Owners(c, types.FlagBlocked))

	g.ClearFlag(c, types.FlagOccupied, "a")
	assert.Equal(t, []string{"b"}, g.Owners(c, types.FlagOccupied))

	g.ClearFlag(c, types.FlagBlocked, "b")
	assert.False(t, g.FlagsOf(c).Has(types.FlagBlocked))

	g.ClearFlag(c, types.FlagOccupied, "b")
	assert.Equal(t, types.CellFlags(0), g.FlagsOf(c))
	assert.Equal(t, 0, g.Len(), "empty cells are dropped")
}

func TestGrid_ReferenceCounting(t *testing.T) {
	g := New(types.DefaultConfig())
	c := types.Cell{}

	g.SetFlag(c, types.FlagBlocked, "a")
	g.SetFlag(c, types.FlagBlocked, "a")
	g.ClearFlag(c, types.FlagBlocked, "a")
	require.True(t, g.FlagsOf(c).Has(types.FlagBlocked), "one reference remains")

	g.ClearFlag(c, types.FlagBlocked, "a")
	assert.False(t, g.FlagsOf(c).Has(types.FlagBlocked))

	// Clearing an unset flag or a foreign owner is a no-op.
	g.SetFlag(c, types.FlagPreview, "a")
	g.ClearFlag(c, types.FlagPreview, "z")
	g.ClearFlag(types.Cell{X: 9}, types.FlagPreview, "a")
	assert.True(t, g.FlagsOf(c).Has(types.FlagPreview))
}

func TestGrid_CompoundFlagIgnored(t *testing.T) {
	g := New(types.DefaultConfig())
	g.SetFlag(types.Cell{}, types.FlagOccupied|types.FlagBlocked, "a")
	assert.Equal(t, 0, g.Len())
	assert.Nil(t, g.Owners(types.Cell{}, types.FlagOccupied|types.FlagBlocked))
}
