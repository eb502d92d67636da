// Package cli implements the deck command-line interface: socket listings,
// layout resolution and rebuild settling for platform layouts.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/platforms/internal/layout"
	"github.com/mesh-intelligence/platforms/internal/paths"
	"github.com/mesh-intelligence/platforms/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir   string
	gridBackend string
	logLevel    string
	jsonMode    bool
}

var flags rootFlags

// exitError carries the process exit code for an error.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func userError(err error) error { return &exitError{code: exitUserError, err: err} }
func sysError(err error) error  { return &exitError{code: exitSysError, err: err} }

// classify maps domain errors onto exit codes. Bad input is a user error;
// anything else is a system error.
func classify(err error) error {
	var ee *exitError
	if errors.As(err, &ee) {
		return err
	}
	for _, target := range []error{
		layout.ErrInvalidLayout,
		paths.ErrLayoutNotFound,
		types.ErrSocketIndex,
		types.ErrInvalidStatus,
		types.ErrInvalidDecoration,
		types.ErrDecorationExists,
		types.ErrModuleExists,
		types.ErrCellSizeInvalid,
		types.ErrGridBackendUnknown,
		types.ErrConnectivityInvalid,
		types.ErrToleranceInvalid,
		types.ErrDebounceInvalid,
		types.ErrLogLevelUnknown,
	} {
		if errors.Is(err, target) {
			return userError(err)
		}
	}
	return sysError(err)
}

// NewRootCmd creates the top-level "deck" command with global flags and all
// subcommands registered.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "deck",
		Short: "Socket & adjacency tooling for grid-aligned platforms",
		Long: "Deck places rectangular platforms on a world grid, resolves which\n" +
			"perimeter sockets touch a neighbor, hides the railings on shared\n" +
			"edges and reports when each platform has settled.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flags.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	root.PersistentFlags().StringVar(&flags.gridBackend, "grid-backend", "", "grid backend: memory or sqlite (overrides config)")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")
	root.PersistentFlags().BoolVar(&flags.jsonMode, "json", false, "output in JSON format")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd())
	root.AddCommand(newSocketsCmd())
	root.AddCommand(newResolveCmd())
	root.AddCommand(newSettleCmd())
	root.AddCommand(newCellsCmd())

	return root
}

// Run executes root with args and returns the process exit code, printing
// any error to stderr.
func Run(args []string, stdout, stderr io.Writer) int {
	root := NewRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	err := root.Execute()
	if err == nil {
		return exitSuccess
	}
	fmt.Fprintln(stderr, "deck:", err)
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	// Unclassified errors come from cobra flag and argument parsing.
	return exitUserError
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	os.Exit(Run(os.Args[1:], os.Stdout, os.Stderr))
}

// resolveConfigDir returns the config directory from flag, env, or default.
func resolveConfigDir() (string, error) {
	return paths.ResolveConfigDir(flags.configDir)
}
