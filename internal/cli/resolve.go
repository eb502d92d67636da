package cli

import (
	"github.com/spf13/cobra"
)

func newResolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <layout.yaml>",
		Short: "Resolve a layout and report connections",
		Long: `Resolve places every platform of a layout file, runs one resolution
pass and reports socket statuses, connections and hidden decorations.

Relative layout names are looked up in the working directory, then in
$PLATFORMS_LAYOUT_DIR, then in <config-dir>/layouts.

Example:
  deck resolve pier.yaml
  deck resolve ./layouts/pier.yaml --json`,
		Args: cobra.ExactArgs(1),
		RunE: runResolve,
	}
}

func runResolve(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd, nil)
	if err != nil {
		return err
	}
	defer s.close()

	if err := s.apply(args[0]); err != nil {
		return err
	}
	s.deck.ResolveAll()

	r := buildReport(s.deck)
	if flags.jsonMode {
		return writeJSON(cmd.OutOrStdout(), r)
	}
	writeReport(cmd.OutOrStdout(), r)
	return nil
}
