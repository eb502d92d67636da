package deck

import (
	"fmt"
	"log/slog"

	"github.com/mesh-intelligence/platforms/internal/grid"
	"github.com/mesh-intelligence/platforms/internal/sqlite"
	"github.com/mesh-intelligence/platforms/pkg/types"
)

// NewGrid creates the grid backend named by cfg.GridBackend. The sqlite
// backend is attached before it is returned; a Deck detaches it on Close.
func NewGrid(cfg types.Config, logger *slog.Logger) (types.GridIndex, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	switch cfg.GridBackend {
	case types.GridBackendSQLite:
		b := sqlite.NewBackend().WithLogger(logger)
		if err := b.Attach(cfg); err != nil {
			return nil, fmt.Errorf("attach sqlite grid: %w", err)
		}
		return b, nil
	default:
		return grid.New(cfg), nil
	}
}
