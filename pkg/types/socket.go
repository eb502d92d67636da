package types

import (
	"math"

	"github.com/golang/geo/r3"
)

// Footprint is the size of a platform in grid cells.
type Footprint struct {
	Width  int `json:"width" yaml:"width"`
	Length int `json:"length" yaml:"length"`
}

// Clamped returns f with both dimensions raised to at least 1. The second
// result reports whether any dimension was changed.
func (f Footprint) Clamped() (Footprint, bool) {
	out := f
	if out.Width < 1 {
		out.Width = 1
	}
	if out.Length < 1 {
		out.Length = 1
	}
	return out, out != f
}

// Perimeter returns the number of unit perimeter segments, 2(w+l).
func (f Footprint) Perimeter() int {
	return 2 * (f.Width + f.Length)
}

// Pose anchors a platform in the world. Yaw is in degrees, clockwise when
// viewed from above (+Y up, +Z north, +X east). A zero Scale is treated as 1.
type Pose struct {
	Position r3.Vector `json:"position"`
	Yaw      float64   `json:"yaw"`
	Scale    float64   `json:"scale"`
}

// EffectiveScale returns the uniform scale, substituting 1 for zero.
func (p Pose) EffectiveScale() float64 {
	if p.Scale == 0 {
		return 1
	}
	return p.Scale
}

// Direction is one of the four grid axes on the ground plane.
type Direction int

// Grid directions in socket walk order.
const (
	South Direction = iota
	East
	North
	West
)

var directionNames = [...]string{"south", "east", "north", "west"}

func (d Direction) String() string {
	if d < South || d > West {
		return "unknown"
	}
	return directionNames[d]
}

// Vector returns the unit vector of d on the XZ plane.
func (d Direction) Vector() r3.Vector {
	switch d {
	case South:
		return r3.Vector{Z: -1}
	case East:
		return r3.Vector{X: 1}
	case North:
		return r3.Vector{Z: 1}
	default:
		return r3.Vector{X: -1}
	}
}

// Opposite returns the direction facing the other way.
func (d Direction) Opposite() Direction {
	return (d + 2) % 4
}

// DirectionOf snaps v to the grid axis it is closest to. Ties favor the X axis.
func DirectionOf(v r3.Vector) Direction {
	if math.Abs(v.X) >= math.Abs(v.Z) {
		if v.X >= 0 {
			return East
		}
		return West
	}
	if v.Z >= 0 {
		return North
	}
	return South
}

// OffsetKey identifies a socket by its local offset from the platform center,
// expressed in integer half-cell units so it can be matched exactly.
type OffsetKey struct {
	X int `json:"x"`
	Z int `json:"z"`
}

// Socket is a snapshot of one perimeter connection point.
type Socket struct {
	Index   int       `json:"index"`
	Local   r3.Vector `json:"local"`   // Offset from the platform center; fixed at build time.
	Key     OffsetKey `json:"key"`     // Exact key of Local for status preservation.
	Outward Direction `json:"outward"` // World-space outward axis.
	Status  Status    `json:"status"`
	World   r3.Vector `json:"world"` // Cached world position for the current pose.
	Cell    Cell      `json:"cell"`  // Grid cell that owns the socket.
}
