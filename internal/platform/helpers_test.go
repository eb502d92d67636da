package platform

import (
	"fmt"
	"testing"
	"time"

	"github.com/golang/geo/r3"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/platforms/internal/grid"
	"github.com/mesh-intelligence/platforms/internal/rebuild"
	"github.com/mesh-intelligence/platforms/pkg/types"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

type settledLog struct {
	calls []string
}

func (s *settledLog) record(id string) {
	s.calls = append(s.calls, id)
}

func (s *settledLog) count(id string) int {
	n := 0
	for _, c := range s.calls {
		if c == id {
			n++
		}
	}
	return n
}

type fixture struct {
	deck  *Deck
	grid  *grid.Grid
	clock *rebuild.ManualClock
	log   *settledLog
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := types.DefaultConfig()
	f := &fixture{
		grid:  grid.New(cfg),
		clock: rebuild.NewManualClock(epoch),
		log:   &settledLog{},
	}
	d, err := NewDeck(cfg, Options{Grid: f.grid, Clock: f.clock, OnSettled: f.log.record})
	require.NoError(t, err)
	f.deck = d
	return f
}

func at(x, z float64) types.Pose {
	return types.Pose{Position: r3.Vector{X: x, Z: z}}
}

var square = types.Footprint{Width: 4, Length: 4}

// placePair places two 4x4 platforms with centers 4 units apart along X.
func (f *fixture) placePair(t *testing.T) {
	t.Helper()
	_, err := f.deck.Place("a", square, at(0, 0))
	require.NoError(t, err)
	_, err = f.deck.Place("b", square, at(4, 0))
	require.NoError(t, err)
}

// railings binds an edge decoration to every socket of id and a corner
// decoration across every perimeter corner.
func (f *fixture) railings(t *testing.T, id string) {
	t.Helper()
	m, ok := f.deck.reg.Get(id)
	require.True(t, ok)
	for i := 0; i < m.SocketCount(); i++ {
		_, err := f.deck.RegisterDecoration(id, types.Decoration{
			ID: fmt.Sprintf("%s-e%d", id, i), Kind: types.DecorationEdge, Sockets: []int{i},
		})
		require.NoError(t, err)
	}
	for _, c := range m.set.Corners() {
		_, err := f.deck.RegisterDecoration(id, types.Decoration{
			ID: fmt.Sprintf("%s-c%d-%d", id, c[0], c[1]), Kind: types.DecorationCorner, Sockets: []int{c[0], c[1]},
		})
		require.NoError(t, err)
	}
}

func (f *fixture) status(t *testing.T, id string, i int) types.Status {
	t.Helper()
	s, ok := f.deck.SocketAt(id, i)
	require.True(t, ok, "socket %s/%d", id, i)
	return s.Status
}

func (f *fixture) statuses(t *testing.T, id string) map[int]types.Status {
	t.Helper()
	out := make(map[int]types.Status)
	for i := 0; i < f.deck.SocketCount(id); i++ {
		out[i] = f.status(t, id, i)
	}
	return out
}

func (f *fixture) connected(t *testing.T, id string) []int {
	t.Helper()
	var out []int
	for i := 0; i < f.deck.SocketCount(id); i++ {
		if f.status(t, id, i) == types.StatusConnected {
			out = append(out, i)
		}
	}
	return out
}
