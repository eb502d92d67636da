package cli

import (
	"github.com/golang/geo/r3"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/platforms/pkg/types"
)

type socketsFlags struct {
	width  int
	length int
	x, z   float64
	yaw    float64
}

func newSocketsCmd() *cobra.Command {
	var f socketsFlags
	cmd := &cobra.Command{
		Use:   "sockets",
		Short: "List the sockets of a single platform",
		Long: `List the perimeter sockets of one platform in walk order: south edge,
east edge, north edge, west edge, starting at the south-west corner.

Example:
  deck sockets --width 4 --length 2
  deck sockets --width 3 --length 3 --x 10 --yaw 90 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSockets(cmd, f)
		},
	}
	cmd.Flags().IntVar(&f.width, "width", 1, "footprint width in cells")
	cmd.Flags().IntVar(&f.length, "length", 1, "footprint length in cells")
	cmd.Flags().Float64Var(&f.x, "x", 0, "center X in world units")
	cmd.Flags().Float64Var(&f.z, "z", 0, "center Z in world units")
	cmd.Flags().Float64Var(&f.yaw, "yaw", 0, "yaw in degrees, clockwise")
	return cmd
}

func runSockets(cmd *cobra.Command, f socketsFlags) error {
	s, err := openSession(cmd, nil)
	if err != nil {
		return err
	}
	defer s.close()

	pose := types.Pose{Position: r3.Vector{X: f.x, Z: f.z}, Yaw: f.yaw}
	id, err := s.deck.Place("", types.Footprint{Width: f.width, Length: f.length}, pose)
	if err != nil {
		return classify(err)
	}

	ss := make([]types.Socket, 0, s.deck.SocketCount(id))
	for i := 0; i < s.deck.SocketCount(id); i++ {
		if sock, ok := s.deck.SocketAt(id, i); ok {
			ss = append(ss, sock)
		}
	}
	if flags.jsonMode {
		return writeJSON(cmd.OutOrStdout(), ss)
	}
	writeSockets(cmd.OutOrStdout(), ss)
	return nil
}
