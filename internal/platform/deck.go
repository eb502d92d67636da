package platform

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"

	"github.com/mesh-intelligence/platforms/internal/rebuild"
	"github.com/mesh-intelligence/platforms/pkg/types"
)

var _ types.Deck = (*Deck)(nil)

// detacher is implemented by grid backends that hold resources.
type detacher interface {
	Detach() error
}

// Options carries the collaborators of a Deck.
type Options struct {
	Grid      types.GridIndex
	// OwnsGrid hands the grid to the deck: Close detaches it.
	OwnsGrid  bool
	Clock     types.Clock
	OnSettled types.SettledFunc
	Logger    *slog.Logger
}

// Deck implements types.Deck over a Registry, a Resolver and a rebuild
// Scheduler. Mutations only mark the deck dirty; Update runs at most one
// resolution pass per call.
type Deck struct {
	cfg      types.Config
	grid     types.GridIndex
	ownsGrid bool
	reg      *Registry
	resolver *Resolver
	sched    *rebuild.Scheduler

	// decorations maps decoration ID to owning platform ID.
	decorations map[string]string

	dirty       bool
	dirtyRegion []r2.Rect
	connections []types.Connection
	closed      bool

	logger *slog.Logger
}

// NewDeck creates a Deck. Returns ErrNoGrid when opts.Grid is nil.
func NewDeck(cfg types.Config, opts Options) (*Deck, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if opts.Grid == nil {
		return nil, types.ErrNoGrid
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	d := &Deck{
		cfg:         cfg,
		grid:        opts.Grid,
		ownsGrid:    opts.OwnsGrid,
		reg:         NewRegistry(),
		resolver:    NewResolver(logger),
		decorations: make(map[string]string),
		logger:      logger.With(slog.String("component", "deck")),
	}
	d.sched = rebuild.NewScheduler(cfg.DebounceWindow, opts.OnSettled,
		rebuild.WithClock(opts.Clock),
		rebuild.WithGuard(d.armable),
		rebuild.WithLogger(logger.With(slog.String("component", "rebuild"))))
	return d, nil
}

func (d *Deck) armable(id string) bool {
	m, ok := d.reg.Get(id)
	return ok && m.Settled()
}

func (d *Deck) module(id string) (*Module, error) {
	if d.closed {
		return nil, types.ErrDeckClosed
	}
	m, ok := d.reg.Get(id)
	if !ok {
		return nil, fmt.Errorf("module %s: %w", id, types.ErrModuleNotFound)
	}
	return m, nil
}

// lookup is module for the query methods that report failure through
// sentinel values.
func (d *Deck) lookup(id, op string) (*Module, bool) {
	m, err := d.module(id)
	if err != nil {
		d.logger.Warn(op, slog.String("module", id), slog.Any("error", err))
		return nil, false
	}
	return m, true
}

func (d *Deck) touch(m *Module) {
	d.dirty = true
	d.dirtyRegion = append(d.dirtyRegion, m.Bounds())
}

// Place implements types.Deck.
func (d *Deck) Place(id string, fp types.Footprint, pose types.Pose) (string, error) {
	if d.closed {
		return "", types.ErrDeckClosed
	}
	if id == "" {
		id = newID()
	}
	if _, ok := d.reg.Get(id); ok {
		return "", fmt.Errorf("module %s: %w", id, types.ErrModuleExists)
	}
	m, err := NewModule(id, fp, pose, d.grid, d.cfg.BoundaryTolerance, d.logger)
	if err != nil {
		return "", err
	}
	if err := m.Activate(); err != nil {
		return "", err
	}
	if err := m.BuildSockets(); err != nil {
		m.Destroy()
		return "", err
	}
	if err := d.reg.Add(m); err != nil {
		m.Destroy()
		return "", err
	}
	d.touch(m)
	return id, nil
}

// Move implements types.Deck.
func (d *Deck) Move(id string, pose types.Pose) error {
	m, err := d.module(id)
	if err != nil {
		return err
	}
	d.touch(m)
	if err := m.SetPose(pose); err != nil {
		return err
	}
	d.touch(m)
	return nil
}

// PickUp implements types.Deck.
func (d *Deck) PickUp(id string) error {
	m, err := d.module(id)
	if err != nil {
		return err
	}
	if err := m.PickUp(); err != nil {
		return err
	}
	d.sched.Cancel(id)
	d.touch(m)
	return nil
}

// Drop implements types.Deck.
func (d *Deck) Drop(id string, pose types.Pose) error {
	m, err := d.module(id)
	if err != nil {
		return err
	}
	d.touch(m)
	if err := m.Drop(pose); err != nil {
		return err
	}
	d.touch(m)
	return nil
}

// Resize implements types.Deck.
func (d *Deck) Resize(id string, fp types.Footprint) error {
	m, err := d.module(id)
	if err != nil {
		return err
	}
	d.touch(m)
	err = m.Resize(fp)
	d.forgetPruned(m)
	if err != nil {
		return err
	}
	d.touch(m)
	return nil
}

// Remove implements types.Deck.
func (d *Deck) Remove(id string) error {
	m, err := d.module(id)
	if err != nil {
		return err
	}
	d.touch(m)
	d.sched.Cancel(id)
	for _, decID := range m.Destroy() {
		delete(d.decorations, decID)
	}
	d.reg.Remove(id)
	return nil
}

// BuildSockets implements types.Deck.
func (d *Deck) BuildSockets(id string) error {
	m, err := d.module(id)
	if err != nil {
		return err
	}
	err = m.BuildSockets()
	d.forgetPruned(m)
	if err != nil {
		return err
	}
	d.touch(m)
	return nil
}

// forgetPruned drops index entries for decorations a socket rebuild removed
// from m.
func (d *Deck) forgetPruned(m *Module) {
	for decID, owner := range d.decorations {
		if owner != m.ID() {
			continue
		}
		if _, ok := m.Decorations().Get(decID); !ok {
			delete(d.decorations, decID)
		}
	}
}

// SocketCount implements types.Deck.
func (d *Deck) SocketCount(id string) int {
	m, ok := d.lookup(id, "socket count")
	if !ok {
		return -1
	}
	return m.SocketCount()
}

// SocketAt implements types.Deck.
func (d *Deck) SocketAt(id string, index int) (types.Socket, bool) {
	m, ok := d.lookup(id, "socket at")
	if !ok {
		return types.Socket{}, false
	}
	s, err := m.Socket(index)
	if err != nil {
		d.logger.Warn("socket at", slog.String("module", id), slog.Int("index", index), slog.Any("error", err))
		return types.Socket{}, false
	}
	return s, true
}

// NearestSocket implements types.Deck.
func (d *Deck) NearestSocket(id string, p r3.Vector) int {
	m, ok := d.lookup(id, "nearest socket")
	if !ok {
		return -1
	}
	return m.NearestSocket(p)
}

// NearestSockets implements types.Deck.
func (d *Deck) NearestSockets(id string, p r3.Vector, maxCount int, maxDistance float64) []int {
	m, ok := d.lookup(id, "nearest sockets")
	if !ok {
		return []int{}
	}
	out := m.NearestSockets(p, maxCount, maxDistance)
	if out == nil {
		return []int{}
	}
	return out
}

// SetSocketStatus implements types.Deck.
func (d *Deck) SetSocketStatus(id string, index int, status types.Status) error {
	m, err := d.module(id)
	if err != nil {
		return err
	}
	if err := m.SetSocketStatus(index, status); err != nil {
		if errors.Is(err, types.ErrSocketIndex) {
			d.logger.Warn("set socket status", slog.String("module", id), slog.Int("index", index), slog.Any("error", err))
		}
		return err
	}
	d.touch(m)
	return nil
}

// RegisterDecoration implements types.Deck. A blocking decoration blocks
// from registration unless dec.Inactive is set.
func (d *Deck) RegisterDecoration(id string, dec types.Decoration) (string, error) {
	m, err := d.module(id)
	if err != nil {
		return "", err
	}
	if dec.ID == "" {
		dec.ID = newID()
	}
	if _, ok := d.decorations[dec.ID]; ok {
		return "", fmt.Errorf("decoration %s: %w", dec.ID, types.ErrDecorationExists)
	}
	if err := m.RegisterDecoration(dec); err != nil {
		if errors.Is(err, types.ErrSocketIndex) {
			d.logger.Warn("register decoration", slog.String("module", id), slog.String("decoration", dec.ID), slog.Any("error", err))
		}
		return "", err
	}
	d.decorations[dec.ID] = id
	d.touch(m)
	return dec.ID, nil
}

// UnregisterDecoration implements types.Deck.
func (d *Deck) UnregisterDecoration(id string, decorationID string) error {
	m, err := d.module(id)
	if err != nil {
		return err
	}
	owner, ok := d.decorations[decorationID]
	if !ok {
		return fmt.Errorf("decoration %s: %w", decorationID, types.ErrDecorationNotFound)
	}
	if owner != id {
		return fmt.Errorf("decoration %s on %s: %w", decorationID, owner, types.ErrDecorationWrongModule)
	}
	if err := m.UnregisterDecoration(decorationID); err != nil {
		return err
	}
	delete(d.decorations, decorationID)
	d.touch(m)
	return nil
}

// SetDecorationActive implements types.Deck.
func (d *Deck) SetDecorationActive(decorationID string, active bool) error {
	if d.closed {
		return types.ErrDeckClosed
	}
	owner, ok := d.decorations[decorationID]
	if !ok {
		return fmt.Errorf("decoration %s: %w", decorationID, types.ErrDecorationNotFound)
	}
	m, err := d.module(owner)
	if err != nil {
		return err
	}
	changed, err := m.SetDecorationActive(decorationID, active)
	if err != nil {
		return err
	}
	if changed {
		d.touch(m)
	}
	return nil
}

// IsHidden implements types.Deck.
func (d *Deck) IsHidden(decorationID string) bool {
	owner, ok := d.decorations[decorationID]
	if !ok {
		return false
	}
	m, ok := d.reg.Get(owner)
	return ok && m.Decorations().IsHidden(decorationID)
}

// MarkDirty implements types.Deck. An unknown ID still forces a pass.
func (d *Deck) MarkDirty(id string) {
	if m, ok := d.reg.Get(id); ok {
		d.touch(m)
		return
	}
	d.dirty = true
}

// ResolveAll implements types.Deck. After the pass, every settled platform
// that changed or lies next to a dirty region is re-armed.
func (d *Deck) ResolveAll() {
	if d.closed {
		return
	}
	res := d.resolver.ResolveAll(d.reg)
	d.connections = res.Connections

	arm := make(map[string]bool, len(res.Changed))
	for _, id := range res.Changed {
		arm[id] = true
	}
	margin := d.grid.CellSize()
	for _, region := range d.dirtyRegion {
		for _, m := range d.reg.Touching(region, margin) {
			arm[m.ID()] = true
		}
	}
	ids := make([]string, 0, len(arm))
	for id := range arm {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		d.sched.Arm(id)
	}

	d.dirty = false
	d.dirtyRegion = nil
}

// Dirty reports whether a resolution pass is pending.
func (d *Deck) Dirty() bool {
	return d.dirty
}

// Update implements types.Deck.
func (d *Deck) Update() {
	if d.closed {
		return
	}
	if d.dirty {
		d.ResolveAll()
	}
	d.sched.Poll()
}

// Settle drives the rebuild scheduler until every pending platform has fired
// or ctx is done. It is meant for hosts without a frame loop.
func (d *Deck) Settle(ctx context.Context, every time.Duration) error {
	if d.closed {
		return types.ErrDeckClosed
	}
	if d.dirty {
		d.ResolveAll()
	}
	return d.sched.Run(ctx, every)
}

// Pending returns the platforms with a running rebuild window.
func (d *Deck) Pending() []string {
	return d.sched.Pending()
}

// Connections implements types.Deck.
func (d *Deck) Connections() []types.Connection {
	return append([]types.Connection(nil), d.connections...)
}

// Modules returns every platform ID in placement order.
func (d *Deck) Modules() []string {
	return d.reg.IDs()
}

// Decorations returns the decoration IDs bound to a platform in
// registration order.
func (d *Deck) Decorations(id string) []string {
	m, ok := d.reg.Get(id)
	if !ok {
		return nil
	}
	return m.Decorations().IDs()
}

// Close implements types.Deck. It cancels pending rebuilds and detaches the
// grid backend when the deck owns it and it holds resources.
func (d *Deck) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	d.sched.CancelAll()
	if g, ok := d.grid.(detacher); ok && d.ownsGrid {
		return g.Detach()
	}
	return nil
}
