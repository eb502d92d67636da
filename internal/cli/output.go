package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/mesh-intelligence/platforms/internal/platform"
	"github.com/mesh-intelligence/platforms/pkg/types"
)

// moduleReport is the resolved state of one platform.
type moduleReport struct {
	ID      string         `json:"id"`
	Sockets []types.Socket `json:"sockets"`
	Hidden  []string       `json:"hidden"`
}

// report is the resolved state of a deck.
type report struct {
	Modules     []moduleReport     `json:"modules"`
	Connections []types.Connection `json:"connections"`
}

func buildReport(d *platform.Deck) report {
	r := report{Connections: d.Connections()}
	for _, id := range d.Modules() {
		mr := moduleReport{ID: id, Sockets: []types.Socket{}, Hidden: []string{}}
		for i := 0; i < d.SocketCount(id); i++ {
			if s, ok := d.SocketAt(id, i); ok {
				mr.Sockets = append(mr.Sockets, s)
			}
		}
		for _, decID := range d.Decorations(id) {
			if d.IsHidden(decID) {
				mr.Hidden = append(mr.Hidden, decID)
			}
		}
		r.Modules = append(r.Modules, mr)
	}
	return r
}

func writeJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return sysError(fmt.Errorf("marshal output: %w", err))
	}
	if _, err := fmt.Fprintln(w, string(out)); err != nil {
		return sysError(err)
	}
	return nil
}

func writeSockets(w io.Writer, ss []types.Socket) {
	fmt.Fprintf(w, "%5s  %-5s  %-9s  %-16s  %-16s  %s\n", "INDEX", "SIDE", "STATUS", "LOCAL", "WORLD", "CELL")
	for _, s := range ss {
		fmt.Fprintf(w, "%5d  %-5s  %-9s  %-16s  %-16s  %d,%d\n",
			s.Index, s.Outward, s.Status,
			fmt.Sprintf("(%g, %g)", s.Local.X, s.Local.Z),
			fmt.Sprintf("(%g, %g)", s.World.X, s.World.Z),
			s.Cell.X, s.Cell.Z)
	}
}

func writeReport(w io.Writer, r report) {
	for _, m := range r.Modules {
		counts := make(map[types.Status]int)
		for _, s := range m.Sockets {
			counts[s.Status]++
		}
		fmt.Fprintf(w, "%s: %d sockets", m.ID, len(m.Sockets))
		for _, st := range []types.Status{
			types.StatusConnected, types.StatusOccupied, types.StatusLinkable,
			types.StatusLocked, types.StatusDisabled,
		} {
			if counts[st] > 0 {
				fmt.Fprintf(w, " %s=%d", st, counts[st])
			}
		}
		fmt.Fprintln(w)
		if len(m.Hidden) > 0 {
			hidden := append([]string(nil), m.Hidden...)
			sort.Strings(hidden)
			fmt.Fprintf(w, "  hidden: %d\n", len(hidden))
			for _, id := range hidden {
				fmt.Fprintf(w, "    %s\n", id)
			}
		}
	}
	if len(r.Connections) == 0 {
		fmt.Fprintln(w, "no connections")
		return
	}
	fmt.Fprintf(w, "connections: %d\n", len(r.Connections))
	for _, c := range r.Connections {
		fmt.Fprintf(w, "  %s/%d <-> %s/%d\n", c.ModuleA, c.SocketA, c.ModuleB, c.SocketB)
	}
}
