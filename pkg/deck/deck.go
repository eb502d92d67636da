// Package deck provides the public API for building a Deck: the host-facing
// socket & adjacency core over a world grid. It picks the grid backend named
// in the config and keeps implementation details internal.
package deck

import (
	"fmt"
	"log/slog"

	"github.com/mesh-intelligence/platforms/internal/platform"
	"github.com/mesh-intelligence/platforms/pkg/types"
)

// detacher is implemented by grid backends that hold resources.
type detacher interface {
	Detach() error
}

// Version is the release of this module.
const Version = "v0.1.0"

type options struct {
	grid      types.GridIndex
	clock     types.Clock
	onSettled types.SettledFunc
	logger    *slog.Logger
}

// Option configures New.
type Option func(*options)

// WithGrid uses g instead of building the backend named by the config.
func WithGrid(g types.GridIndex) Option {
	return func(o *options) { o.grid = g }
}

// WithClock sets the time source of the rebuild scheduler.
func WithClock(c types.Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithOnSettled sets the rebuild callback.
func WithOnSettled(fn types.SettledFunc) Option {
	return func(o *options) { o.onSettled = fn }
}

// WithLogger sets the logger shared by the deck and its grid.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// New creates a Deck for cfg. Close releases the grid backend.
//
// Example:
//
//	d, err := deck.New(types.DefaultConfig(), deck.WithOnSettled(bake))
//	if err != nil {
//	    return err
//	}
//	defer d.Close()
//	id, _ := d.Place("", types.Footprint{Width: 4, Length: 4}, types.Pose{})
//	d.Update()
func New(cfg types.Config, opts ...Option) (types.Deck, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	owned := o.grid == nil
	if owned {
		g, err := NewGrid(cfg, o.logger)
		if err != nil {
			return nil, err
		}
		o.grid = g
	}
	d, err := platform.NewDeck(cfg, platform.Options{
		Grid:      o.grid,
		OwnsGrid:  owned,
		Clock:     o.clock,
		OnSettled: o.onSettled,
		Logger:    o.logger,
	})
	if err != nil {
		if b, ok := o.grid.(detacher); ok && owned {
			_ = b.Detach()
		}
		return nil, fmt.Errorf("new deck: %w", err)
	}
	return d, nil
}
