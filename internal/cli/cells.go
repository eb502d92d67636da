package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/platforms/internal/sqlite"
	"github.com/mesh-intelligence/platforms/pkg/types"
)

func newCellsCmd() *cobra.Command {
	var owner string
	cmd := &cobra.Command{
		Use:   "cells <layout.yaml>",
		Short: "Dump the grid cell flags of a layout",
		Long: `Cells places a layout on the SQLite grid backend and dumps the cell flag
table: one row per cell, flag and owning platform.

Example:
  deck cells pier.yaml
  deck cells pier.yaml --owner east --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCells(cmd, args[0], owner)
		},
	}
	cmd.Flags().StringVar(&owner, "owner", "", "only cells flagged by this platform")
	return cmd
}

func runCells(cmd *cobra.Command, name, owner string) error {
	flags.gridBackend = types.GridBackendSQLite
	s, err := openSession(cmd, nil)
	if err != nil {
		return err
	}
	defer s.close()

	if err := s.apply(name); err != nil {
		return err
	}
	b, ok := s.grid.(*sqlite.Backend)
	if !ok {
		return sysError(fmt.Errorf("grid backend %T cannot list cells", s.grid))
	}

	var records []sqlite.CellRecord
	if owner != "" {
		records, err = b.OwnerCells(owner)
	} else {
		records, err = b.Cells()
	}
	if err != nil {
		return sysError(fmt.Errorf("list cells: %w", err))
	}

	out := cmd.OutOrStdout()
	if flags.jsonMode {
		if records == nil {
			records = []sqlite.CellRecord{}
		}
		return writeJSON(out, records)
	}
	fmt.Fprintf(out, "%6s %6s  %-8s  %-20s  %s\n", "X", "Z", "FLAG", "OWNER", "REFS")
	for _, r := range records {
		fmt.Fprintf(out, "%6d %6d  %-8s  %-20s  %d\n", r.Cell.X, r.Cell.Z, r.Flag, r.Owner, r.Refs)
	}
	return nil
}
