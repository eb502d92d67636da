package decor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/platforms/pkg/types"
)

func connectedSet(idx ...int) StatusFunc {
	m := make(map[int]bool, len(idx))
	for _, i := range idx {
		m[i] = true
	}
	return func(i int) types.Status {
		if m[i] {
			return types.StatusConnected
		}
		return types.StatusLinkable
	}
}

func TestCascade(t *testing.T) {
	tests := []struct {
		name      string
		connected []int
		hidden    []string
	}{
		{"nothing connected", nil, nil},
		{"one side", []int{3}, []string{"e3"}},
		{"both sides of corner", []int{3, 4}, []string{"e3", "e4", "c34"}},
		{"other sockets", []int{0, 1}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry()
			require.NoError(t, r.Register(edge("e3", 3), 8))
			require.NoError(t, r.Register(edge("e4", 4), 8))
			require.NoError(t, r.Register(corner("c34", 3, 4), 8))

			r.Cascade(connectedSet(tt.connected...))
			assert.Equal(t, tt.hidden, r.Hidden())
		})
	}
}

func TestCascade_OrphanCornerStaysVisible(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(corner("lone", 1, 2), 8))

	r.Cascade(connectedSet(1, 2))
	assert.False(t, r.IsHidden("lone"))
}

func TestCascade_CornerWithSingleEdge(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(edge("e1", 1), 8))
	require.NoError(t, r.Register(corner("c12", 1, 2), 8))

	r.Cascade(connectedSet(1))
	assert.True(t, r.IsHidden("e1"))
	assert.True(t, r.IsHidden("c12"))
}

func TestCascade_ReportsChange(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(edge("e0", 0), 4))

	assert.False(t, r.Cascade(connectedSet()))
	assert.True(t, r.Cascade(connectedSet(0)))
	assert.False(t, r.Cascade(connectedSet(0)))
	assert.True(t, r.Cascade(connectedSet()))
	assert.False(t, r.IsHidden("e0"))
}

func TestCascade_UnknownID(t *testing.T) {
	assert.False(t, NewRegistry().IsHidden("nope"))
}
