package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

type settleFlags struct {
	timeout time.Duration
	poll    time.Duration
}

// settleEvent is one OnSettled callback.
type settleEvent struct {
	Module  string        `json:"module"`
	Elapsed time.Duration `json:"elapsed_ns"`
}

func newSettleCmd() *cobra.Command {
	var f settleFlags
	cmd := &cobra.Command{
		Use:   "settle <layout.yaml>",
		Short: "Resolve a layout and wait for every platform to settle",
		Long: `Settle resolves a layout, arms the rebuild debounce for every platform
that changed and waits on the real clock until each one fires its settled
callback.

Example:
  deck settle pier.yaml --timeout 5s`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSettle(cmd, args[0], f)
		},
	}
	cmd.Flags().DurationVar(&f.timeout, "timeout", 30*time.Second, "give up after this long")
	cmd.Flags().DurationVar(&f.poll, "poll", 10*time.Millisecond, "scheduler poll interval")
	return cmd
}

func runSettle(cmd *cobra.Command, name string, f settleFlags) error {
	start := time.Now()
	var events []settleEvent
	out := cmd.OutOrStdout()
	onSettled := func(id string) {
		ev := settleEvent{Module: id, Elapsed: time.Since(start)}
		events = append(events, ev)
		if !flags.jsonMode {
			fmt.Fprintf(out, "settled %s after %s\n", ev.Module, ev.Elapsed.Round(time.Millisecond))
		}
	}

	s, err := openSession(cmd, onSettled)
	if err != nil {
		return err
	}
	defer s.close()

	if err := s.apply(name); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), f.timeout)
	defer cancel()
	if err := s.deck.Settle(ctx, f.poll); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return sysError(fmt.Errorf("still pending after %s: %v", f.timeout, s.deck.Pending()))
		}
		return sysError(err)
	}

	if flags.jsonMode {
		if events == nil {
			events = []settleEvent{}
		}
		return writeJSON(out, events)
	}
	if len(events) == 0 {
		fmt.Fprintln(out, "nothing to settle")
	}
	return nil
}
