package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/platforms/internal/paths"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the configuration directory",
		Long:  "Create the configuration directory with a default config.yaml and an empty layouts directory.",
		Args:  cobra.NoArgs,
		RunE:  runInit,
	}
}

func runInit(cmd *cobra.Command, args []string) error {
	configDir, err := resolveConfigDir()
	if err != nil {
		return sysError(fmt.Errorf("resolve config dir: %w", err))
	}

	layoutDir := filepath.Join(configDir, paths.LayoutDirName)
	if err := os.MkdirAll(layoutDir, 0o755); err != nil {
		return sysError(fmt.Errorf("create config directory: %w", err))
	}

	configPath := filepath.Join(configDir, configFileExt)
	created, err := writeConfigIfMissing(configPath)
	if err != nil {
		return sysError(fmt.Errorf("write config: %w", err))
	}

	out := cmd.OutOrStdout()
	if created {
		fmt.Fprintln(out, "deck initialized")
	} else {
		fmt.Fprintln(out, "deck already initialized")
	}
	fmt.Fprintln(out, "  config: ", configPath)
	fmt.Fprintln(out, "  layouts:", layoutDir)
	return nil
}
