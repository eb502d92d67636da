package types

import (
	"errors"
	"time"

	"github.com/golang/geo/r3"
)

// Deck is the host-facing API of the socket & adjacency core. Hosts place,
// move and remove platforms, bind decorations, and call Update once per frame
// after all placement mutations for that frame have been applied.
//
// A Deck is driven from a single logical thread; methods are not safe for
// concurrent use.
type Deck interface {
	// Place registers a platform and claims its cells. When id is empty a
	// new UUID v7 is generated. Returns the ID used.
	Place(id string, fp Footprint, pose Pose) (string, error)

	// Move re-anchors a platform. A picked-up platform only moves its
	// preview cells.
	Move(id string, pose Pose) error

	// PickUp excludes a platform from adjacency until Drop.
	PickUp(id string) error

	// Drop settles a picked-up platform at pose.
	Drop(id string, pose Pose) error

	// Resize changes the footprint and rebuilds sockets, preserving Locked
	// and Disabled statuses by local offset.
	Resize(id string, fp Footprint) error

	// Remove destroys a platform, releasing sockets, decoration bindings,
	// grid flags and any pending rebuild.
	Remove(id string) error

	// BuildSockets rebuilds the socket set of a platform.
	BuildSockets(id string) error

	// SocketCount returns the number of sockets, or -1 for an unknown platform.
	SocketCount(id string) int

	// SocketAt returns a socket snapshot. ok is false for an unknown
	// platform or an out-of-range index.
	SocketAt(id string, index int) (s Socket, ok bool)

	// NearestSocket returns the index of the socket nearest to p, or -1.
	NearestSocket(id string, p r3.Vector) int

	// NearestSockets returns up to maxCount socket indices within
	// maxDistance of p, nearest first along the perimeter. A maxDistance
	// of zero or less disables the distance filter.
	NearestSockets(id string, p r3.Vector, maxCount int, maxDistance float64) []int

	// SetSocketStatus sets a sticky status (Locked or Disabled) or returns a
	// socket to Linkable so the resolver owns it again.
	SetSocketStatus(id string, index int, status Status) error

	// RegisterDecoration binds a decoration to a platform. When d.ID is
	// empty a new UUID v7 is generated. Returns the ID used.
	RegisterDecoration(id string, d Decoration) (string, error)

	// UnregisterDecoration releases a decoration binding.
	UnregisterDecoration(id string, decorationID string) error

	// SetDecorationActive toggles whether a linking-blocking decoration
	// currently blocks.
	SetDecorationActive(decorationID string, active bool) error

	// IsHidden reports whether a decoration is hidden by the cascade.
	IsHidden(decorationID string) bool

	// MarkDirty requests a resolution pass on the next Update.
	MarkDirty(id string)

	// ResolveAll runs the resolution pass, the visibility cascade and
	// re-arms rebuild timers immediately.
	ResolveAll()

	// Update runs ResolveAll when dirty, then fires due rebuild callbacks.
	Update()

	// Connections returns the mutual socket pairs of the last pass.
	Connections() []Connection

	// Close releases the grid backend.
	Close() error
}

// SettledFunc is called with a platform ID once its rebuild debounce
// window elapses.
type SettledFunc func(moduleID string)

// Clock supplies the current time to the rebuild scheduler.
type Clock interface {
	Now() time.Time
}

// Lifecycle errors.
var (
	ErrNoGrid          = errors.New("grid index is required")
	ErrModuleNotFound  = errors.New("module not found")
	ErrModuleExists    = errors.New("module already exists")
	ErrModuleRemoved   = errors.New("module is removed")
	ErrNotPickedUp     = errors.New("module is not picked up")
	ErrAlreadyPickedUp = errors.New("module is already picked up")
	ErrDeckClosed      = errors.New("deck is closed")
)

// Socket and decoration errors.
var (
	ErrSocketIndex           = errors.New("socket index out of range")
	ErrInvalidStatus         = errors.New("invalid socket status")
	ErrInvalidDecoration     = errors.New("invalid decoration binding")
	ErrDecorationExists      = errors.New("decoration already registered")
	ErrDecorationNotFound    = errors.New("decoration not found")
	ErrDecorationWrongModule = errors.New("decoration belongs to another module")
)
