// Package platform implements the orchestration layer of the socket &
// adjacency core: platform lifecycle against the world grid, the batch
// adjacency resolver, and the Deck host API.
package platform

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"

	"github.com/mesh-intelligence/platforms/internal/decor"
	"github.com/mesh-intelligence/platforms/internal/sockets"
	"github.com/mesh-intelligence/platforms/pkg/types"
)

type moduleState int

const (
	stateSettled moduleState = iota
	statePickedUp
	stateRemoved
)

func (s moduleState) String() string {
	switch s {
	case stateSettled:
		return "settled"
	case statePickedUp:
		return "picked_up"
	default:
		return "removed"
	}
}

// Module is one platform: a footprint anchored at a pose, its perimeter
// sockets, and its decoration bindings. While settled it holds Occupied
// flags on its cells and Blocked flags on the owning cells of sockets bound
// by active blocking decorations. While picked up it holds only Preview
// flags.
type Module struct {
	id        string
	footprint types.Footprint
	pose      types.Pose
	state     moduleState
	active    bool
	tolerance float64

	grid  types.GridIndex
	set   *sockets.Set
	index *sockets.Index
	decor *decor.Registry

	claimed   []types.Cell
	claimFlag types.CellFlag
	blocked   []types.Cell

	logger *slog.Logger
}

// NewModule creates an inactive platform. A degenerate footprint is clamped
// to 1x1 with a warning. Returns ErrNoGrid when grid is nil.
func NewModule(id string, fp types.Footprint, pose types.Pose, grid types.GridIndex, tolerance float64, logger *slog.Logger) (*Module, error) {
	if grid == nil {
		return nil, types.ErrNoGrid
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "platform"), slog.String("module", id))
	clamped, changed := fp.Clamped()
	if changed {
		logger.Warn("footprint clamped",
			slog.Int("width", fp.Width), slog.Int("length", fp.Length))
	}
	return &Module{
		id:        id,
		footprint: clamped,
		pose:      pose,
		tolerance: tolerance,
		grid:      grid,
		decor:     decor.NewRegistry(),
		logger:    logger,
	}, nil
}

// ID returns the platform ID.
func (m *Module) ID() string { return m.id }

// Footprint returns the clamped footprint.
func (m *Module) Footprint() types.Footprint { return m.footprint }

// Pose returns the current pose.
func (m *Module) Pose() types.Pose { return m.pose }

// Active reports whether the platform is registered with the grid.
func (m *Module) Active() bool { return m.active }

// Settled reports whether the platform takes part in resolution passes.
func (m *Module) Settled() bool { return m.active && m.state == stateSettled }

// PickedUp reports whether the platform is mid-move.
func (m *Module) PickedUp() bool { return m.state == statePickedUp }

// Decorations returns the decoration registry of the platform.
func (m *Module) Decorations() *decor.Registry { return m.decor }

// Activate claims the platform's cells, Occupied when settled and Preview
// when picked up, and writes its blocking flags.
func (m *Module) Activate() error {
	if m.state == stateRemoved {
		return types.ErrModuleRemoved
	}
	if m.active {
		return nil
	}
	m.active = true
	flag := types.FlagOccupied
	if m.state == statePickedUp {
		flag = types.FlagPreview
	}
	m.claim(flag)
	m.refreshBlocked()
	return nil
}

// Cells returns the grid cells covered by the footprint at pose. Cell
// centers are transformed, so arbitrary yaw still yields a sensible cover.
func (m *Module) Cells(pose types.Pose) []types.Cell {
	cs := m.grid.CellSize()
	hw := float64(m.footprint.Width) * cs / 2
	hl := float64(m.footprint.Length) * cs / 2
	seen := make(map[types.Cell]bool, m.footprint.Width*m.footprint.Length)
	out := make([]types.Cell, 0, m.footprint.Width*m.footprint.Length)
	for i := 0; i < m.footprint.Width; i++ {
		for j := 0; j < m.footprint.Length; j++ {
			local := r3.Vector{X: -hw + (float64(i)+0.5)*cs, Z: -hl + (float64(j)+0.5)*cs}
			c := m.grid.CellOf(sockets.Transform(pose, local))
			if !seen[c] {
				seen[c] = true
				out = append(out, c)
			}
		}
	}
	return out
}

func (m *Module) claim(flag types.CellFlag) {
	m.release()
	m.claimed = m.Cells(m.pose)
	m.claimFlag = flag
	for _, c := range m.claimed {
		m.grid.SetFlag(c, flag, m.id)
	}
}

func (m *Module) release() {
	for _, c := range m.claimed {
		m.grid.ClearFlag(c, m.claimFlag, m.id)
	}
	m.claimed = nil
}

// refreshBlocked rewrites the Blocked flags from the active blocking
// decorations. Only a settled platform holds Blocked flags.
func (m *Module) refreshBlocked() {
	for _, c := range m.blocked {
		m.grid.ClearFlag(c, types.FlagBlocked, m.id)
	}
	m.blocked = nil
	if !m.Settled() || m.set == nil {
		return
	}
	seen := make(map[types.Cell]bool)
	for _, idx := range m.decor.BlockedSockets() {
		c := m.index.Cell(idx)
		if seen[c] {
			continue
		}
		seen[c] = true
		m.blocked = append(m.blocked, c)
		m.grid.SetFlag(c, types.FlagBlocked, m.id)
	}
}

// BuildSockets regenerates the socket set, carrying Locked and Disabled
// statuses by local offset. Decoration bindings that no longer fit are
// dropped with a warning.
func (m *Module) BuildSockets() error {
	if m.state == stateRemoved {
		return types.ErrModuleRemoved
	}
	cs := m.grid.CellSize()
	if m.set == nil {
		m.set = sockets.Build(m.footprint, cs, nil)
		m.index = sockets.NewIndex(m.set, m.grid, m.tolerance)
	} else {
		m.set.Rebuild(m.footprint, cs, m.set.StickyStatuses())
	}
	m.index.SetPose(m.pose)
	for _, id := range m.decor.Prune(m.set.Len()) {
		m.logger.Warn("decoration dropped after socket rebuild", slog.String("decoration", id))
	}
	m.refreshBlocked()
	return nil
}

// ensureSockets builds the socket set on first use.
func (m *Module) ensureSockets() error {
	if m.set != nil {
		return nil
	}
	return m.BuildSockets()
}

// SocketCount returns the number of sockets, building them if needed.
func (m *Module) SocketCount() int {
	if err := m.ensureSockets(); err != nil {
		return -1
	}
	return m.set.Len()
}

// Socket returns a snapshot of socket i.
// Returns ErrSocketIndex when i is out of range.
func (m *Module) Socket(i int) (types.Socket, error) {
	if err := m.ensureSockets(); err != nil {
		return types.Socket{}, err
	}
	if !m.set.InRange(i) {
		return types.Socket{}, fmt.Errorf("socket %d of %d: %w", i, m.set.Len(), types.ErrSocketIndex)
	}
	return types.Socket{
		Index:   i,
		Local:   m.set.Local(i),
		Key:     m.set.Key(i),
		Outward: m.index.Outward(i),
		Status:  m.set.Status(i),
		World:   m.index.World(i),
		Cell:    m.index.Cell(i),
	}, nil
}

// Status returns the status of socket i; callers check the range.
func (m *Module) Status(i int) types.Status {
	return m.set.Status(i)
}

// NearestSocket returns the socket nearest to p, or -1.
func (m *Module) NearestSocket(p r3.Vector) int {
	if err := m.ensureSockets(); err != nil {
		return -1
	}
	return m.index.Nearest(p)
}

// NearestSockets returns up to n sockets within maxDist of p along the
// perimeter from the nearest one.
func (m *Module) NearestSockets(p r3.Vector, n int, maxDist float64) []int {
	if err := m.ensureSockets(); err != nil {
		return nil
	}
	return m.index.NearestN(p, n, maxDist)
}

// SetSocketStatus pins socket i to Locked or Disabled, or hands it back to
// the resolver with Linkable.
func (m *Module) SetSocketStatus(i int, st types.Status) error {
	if err := m.ensureSockets(); err != nil {
		return err
	}
	if !st.Sticky() && st != types.StatusLinkable {
		return fmt.Errorf("status %q: %w", st, types.ErrInvalidStatus)
	}
	if !m.set.InRange(i) {
		return fmt.Errorf("socket %d of %d: %w", i, m.set.Len(), types.ErrSocketIndex)
	}
	m.set.SetStatus(i, st)
	return nil
}

// SetPose re-anchors the platform. A settled platform moves its Occupied and
// Blocked flags, a picked-up one its Preview flags.
func (m *Module) SetPose(p types.Pose) error {
	if m.state == stateRemoved {
		return types.ErrModuleRemoved
	}
	m.pose = p
	if m.index != nil {
		m.index.SetPose(p)
	}
	if m.active {
		m.claim(m.claimFlag)
		m.refreshBlocked()
	}
	return nil
}

// PickUp swaps the Occupied claim for a Preview claim and releases the
// Blocked flags, so the platform vanishes for adjacency until Drop.
func (m *Module) PickUp() error {
	switch m.state {
	case stateRemoved:
		return types.ErrModuleRemoved
	case statePickedUp:
		return types.ErrAlreadyPickedUp
	}
	m.state = statePickedUp
	if m.active {
		m.claim(types.FlagPreview)
	}
	m.refreshBlocked()
	return nil
}

// Drop settles a picked-up platform at p.
func (m *Module) Drop(p types.Pose) error {
	switch m.state {
	case stateRemoved:
		return types.ErrModuleRemoved
	case stateSettled:
		return types.ErrNotPickedUp
	}
	m.state = stateSettled
	m.pose = p
	if m.index != nil {
		m.index.SetPose(p)
	}
	if m.active {
		m.claim(types.FlagOccupied)
	}
	m.refreshBlocked()
	return nil
}

// Resize changes the footprint and rebuilds the sockets.
func (m *Module) Resize(fp types.Footprint) error {
	if m.state == stateRemoved {
		return types.ErrModuleRemoved
	}
	clamped, changed := fp.Clamped()
	if changed {
		m.logger.Warn("footprint clamped",
			slog.Int("width", fp.Width), slog.Int("length", fp.Length))
	}
	m.footprint = clamped
	if m.active {
		m.claim(m.claimFlag)
	}
	return m.BuildSockets()
}

// RegisterDecoration binds d to this platform's sockets.
func (m *Module) RegisterDecoration(d types.Decoration) error {
	if err := m.ensureSockets(); err != nil {
		return err
	}
	if err := m.decor.Register(d, m.set.Len()); err != nil {
		return fmt.Errorf("register decoration %s: %w", d.ID, err)
	}
	if d.Blocks() {
		m.refreshBlocked()
	}
	return nil
}

// UnregisterDecoration releases a binding.
func (m *Module) UnregisterDecoration(id string) error {
	d, ok := m.decor.Unregister(id)
	if !ok {
		return types.ErrDecorationNotFound
	}
	if d.Blocks() {
		m.refreshBlocked()
	}
	return nil
}

// SetDecorationActive toggles a blocking decoration. It reports whether the
// flag changed.
func (m *Module) SetDecorationActive(id string, active bool) (bool, error) {
	changed, err := m.decor.SetActive(id, active)
	if err != nil || !changed {
		return false, err
	}
	m.refreshBlocked()
	return true, nil
}

// Destroy releases every grid flag, socket and decoration binding. It
// returns the IDs of the released decorations.
func (m *Module) Destroy() []string {
	if m.state == stateRemoved {
		return nil
	}
	m.release()
	m.state = stateRemoved
	m.refreshBlocked()
	m.active = false
	m.set = nil
	m.index = nil
	return m.decor.Clear()
}

// Bounds returns the world XZ rectangle covered by the footprint, with X
// mapped to r2 X and Z to r2 Y.
func (m *Module) Bounds() r2.Rect {
	cs := m.grid.CellSize()
	hw := float64(m.footprint.Width) * cs / 2
	hl := float64(m.footprint.Length) * cs / 2
	pts := make([]r2.Point, 0, 4)
	for _, c := range [][2]float64{{-hw, -hl}, {hw, -hl}, {hw, hl}, {-hw, hl}} {
		w := sockets.Transform(m.pose, r3.Vector{X: c[0], Z: c[1]})
		pts = append(pts, r2.Point{X: w.X, Y: w.Z})
	}
	return r2.RectFromPoints(pts...)
}

// facingPartner returns the socket of m within half a cell of p whose outward
// axis is dir, or -1. Sticky sockets never partner.
func (m *Module) facingPartner(p r3.Vector, dir types.Direction) int {
	if err := m.ensureSockets(); err != nil {
		return -1
	}
	cs := m.grid.CellSize()
	best, bestDist := -1, math.Inf(1)
	for _, j := range m.index.NearestN(p, 4, cs/2) {
		if m.index.Outward(j) != dir || m.set.Status(j).Sticky() {
			continue
		}
		if d := m.index.World(j).Sub(p).Norm2(); d < bestDist {
			best, bestDist = j, d
		}
	}
	return best
}
