package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/platforms/internal/layout"
	"github.com/mesh-intelligence/platforms/internal/paths"
	"github.com/mesh-intelligence/platforms/internal/platform"
	"github.com/mesh-intelligence/platforms/pkg/deck"
	"github.com/mesh-intelligence/platforms/pkg/types"
)

// session is a configured deck for one command invocation. The caller must
// call close.
type session struct {
	configDir string
	cfg       types.Config
	grid      types.GridIndex
	deck      *platform.Deck
}

// openSession resolves the config directory, loads config.yaml and builds a
// deck on the configured grid backend.
func openSession(cmd *cobra.Command, onSettled types.SettledFunc) (*session, error) {
	configDir, err := resolveConfigDir()
	if err != nil {
		return nil, sysError(fmt.Errorf("resolve config dir: %w", err))
	}
	cfg, err := loadConfig(configDir)
	if err != nil {
		return nil, classify(err)
	}
	logger := newLogger(cfg.LogLevel, cmd.ErrOrStderr())

	g, err := deck.NewGrid(cfg, logger)
	if err != nil {
		return nil, classify(err)
	}
	d, err := platform.NewDeck(cfg, platform.Options{
		Grid:      g,
		OwnsGrid:  true,
		OnSettled: onSettled,
		Logger:    logger,
	})
	if err != nil {
		return nil, classify(err)
	}
	return &session{configDir: configDir, cfg: cfg, grid: g, deck: d}, nil
}

// apply loads the named layout and applies it to the session deck.
func (s *session) apply(name string) error {
	path, err := paths.ResolveLayoutFile(name, s.configDir)
	if err != nil {
		return userError(err)
	}
	l, err := layout.Load(path)
	if err != nil {
		return classify(err)
	}
	if err := layout.Apply(s.deck, l); err != nil {
		return classify(err)
	}
	return nil
}

func (s *session) close() error {
	return s.deck.Close()
}
