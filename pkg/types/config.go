package types

import (
	"errors"
	"strings"
	"time"
)

// Config holds grid and scheduling parameters for a Deck.
type Config struct {
	CellSize          float64       `json:"cell_size" yaml:"cell_size" mapstructure:"cell_size"`
	OriginX           float64       `json:"origin_x" yaml:"origin_x" mapstructure:"origin_x"`
	OriginZ           float64       `json:"origin_z" yaml:"origin_z" mapstructure:"origin_z"`
	GridBackend       string        `json:"grid_backend" yaml:"grid_backend" mapstructure:"grid_backend"`
	Connectivity      int           `json:"connectivity" yaml:"connectivity" mapstructure:"connectivity"`
	BoundaryTolerance float64       `json:"boundary_tolerance" yaml:"boundary_tolerance" mapstructure:"boundary_tolerance"`
	DebounceWindow    time.Duration `json:"debounce_window" yaml:"debounce_window" mapstructure:"debounce_window"`
	LogLevel          string        `json:"log_level" yaml:"log_level" mapstructure:"log_level"`
}

// Supported grid backend names.
const (
	GridBackendMemory = "memory"
	GridBackendSQLite = "sqlite"
)

// Defaults applied by DefaultConfig.
const (
	DefaultCellSize          = 1.0
	DefaultConnectivity      = 8
	DefaultBoundaryTolerance = 0.05
	DefaultDebounceWindow    = 500 * time.Millisecond
	DefaultLogLevel          = "info"
)

// Config validation errors.
var (
	ErrCellSizeInvalid     = errors.New("cell size must be positive")
	ErrGridBackendEmpty    = errors.New("grid backend must not be empty")
	ErrGridBackendUnknown  = errors.New("unknown grid backend")
	ErrConnectivityInvalid = errors.New("connectivity must be 4 or 8")
	ErrToleranceInvalid    = errors.New("boundary tolerance must be in [0, cell_size/2)")
	ErrDebounceInvalid     = errors.New("debounce window must not be negative")
	ErrLogLevelUnknown     = errors.New("unknown log level")
)

var knownGridBackends = map[string]bool{
	GridBackendMemory: true,
	GridBackendSQLite: true,
}

var knownLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// DefaultConfig returns a Config for a unit grid at the world origin backed by
// the in-memory grid.
func DefaultConfig() Config {
	return Config{
		CellSize:          DefaultCellSize,
		GridBackend:       GridBackendMemory,
		Connectivity:      DefaultConnectivity,
		BoundaryTolerance: DefaultBoundaryTolerance,
		DebounceWindow:    DefaultDebounceWindow,
		LogLevel:          DefaultLogLevel,
	}
}

// Validate checks that the Config is well-formed. It returns a sentinel error
// from this package on failure.
func (c Config) Validate() error {
	if c.CellSize <= 0 {
		return ErrCellSizeInvalid
	}
	if c.GridBackend == "" {
		return ErrGridBackendEmpty
	}
	if !knownGridBackends[c.GridBackend] {
		return ErrGridBackendUnknown
	}
	if c.Connectivity != 4 && c.Connectivity != 8 {
		return ErrConnectivityInvalid
	}
	if c.BoundaryTolerance < 0 || c.BoundaryTolerance >= c.CellSize/2 {
		return ErrToleranceInvalid
	}
	if c.DebounceWindow < 0 {
		return ErrDebounceInvalid
	}
	if c.LogLevel != "" && !knownLogLevels[strings.ToLower(c.LogLevel)] {
		return ErrLogLevelUnknown
	}
	return nil
}
