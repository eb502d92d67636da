package types

// DecorationKind distinguishes edge elements from corner elements.
type DecorationKind string

// Decoration kinds.
const (
	DecorationEdge   DecorationKind = "edge"
	DecorationCorner DecorationKind = "corner"
)

// Decoration binds a decorative element to socket indices of one platform.
// An edge element binds exactly one socket; a corner element binds one or two
// (the sockets on either side of the corner). A BlocksLinking decoration
// forces its sockets to Occupied from registration on; Inactive suspends
// that until it is switched back on.
type Decoration struct {
	ID            string         `json:"id" yaml:"id"`
	Kind          DecorationKind `json:"kind" yaml:"kind"`
	Sockets       []int          `json:"sockets" yaml:"sockets"`
	BlocksLinking bool           `json:"blocks_linking" yaml:"blocks_linking"`
	Inactive      bool           `json:"inactive,omitempty" yaml:"inactive,omitempty"`
}

// Blocks reports whether d currently blocks linking on its sockets.
func (d Decoration) Blocks() bool {
	return d.BlocksLinking && !d.Inactive
}

// Validate checks the binding shape against a socket count.
func (d Decoration) Validate(socketCount int) error {
	switch d.Kind {
	case DecorationEdge:
		if len(d.Sockets) != 1 {
			return ErrInvalidDecoration
		}
	case DecorationCorner:
		if len(d.Sockets) < 1 || len(d.Sockets) > 2 {
			return ErrInvalidDecoration
		}
		if len(d.Sockets) == 2 && d.Sockets[0] == d.Sockets[1] {
			return ErrInvalidDecoration
		}
	default:
		return ErrInvalidDecoration
	}
	for _, idx := range d.Sockets {
		if idx < 0 || idx >= socketCount {
			return ErrSocketIndex
		}
	}
	return nil
}

// Connection is a mutual pair of Connected sockets on two platforms.
type Connection struct {
	ModuleA string `json:"module_a"`
	SocketA int    `json:"socket_a"`
	ModuleB string `json:"module_b"`
	SocketB int    `json:"socket_b"`
}
