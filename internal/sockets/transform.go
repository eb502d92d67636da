package sockets

import (
	"math"

	"github.com/golang/geo/r3"

	"github.com/mesh-intelligence/platforms/pkg/types"
)

// yawEpsilon is the distance in degrees within which a yaw snaps to an exact
// quarter turn.
const yawEpsilon = 1e-9

// NormalizeYaw maps deg into [0, 360).
func NormalizeYaw(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}

// QuarterTurns returns yaw as a quarter-turn count in [0,3] when yaw is a
// multiple of 90 degrees.
func QuarterTurns(yaw float64) (int, bool) {
	y := NormalizeYaw(yaw)
	q := math.Round(y / 90)
	if math.Abs(y-q*90) > yawEpsilon {
		return 0, false
	}
	return int(q) % 4, true
}

// RotateXZ rotates an (x, z) offset clockwise around the Y axis by rot quarter
// turns. rot must be in [0,3].
func RotateXZ(x, z float64, rot int) (float64, float64) {
	switch rot & 3 {
	case 0:
		return x, z
	case 1:
		return z, -x
	case 2:
		return -x, -z
	default:
		return -z, x
	}
}

// Rotate rotates v clockwise around the Y axis by yaw degrees. Quarter turns
// are exact.
func Rotate(v r3.Vector, yaw float64) r3.Vector {
	if q, ok := QuarterTurns(yaw); ok {
		x, z := RotateXZ(v.X, v.Z, q)
		return r3.Vector{X: x, Y: v.Y, Z: z}
	}
	rad := yaw * math.Pi / 180
	sin, cos := math.Sincos(rad)
	return r3.Vector{
		X: v.X*cos + v.Z*sin,
		Y: v.Y,
		Z: -v.X*sin + v.Z*cos,
	}
}

// Transform maps a local offset into world space for pose.
func Transform(p types.Pose, local r3.Vector) r3.Vector {
	return p.Position.Add(Rotate(local.Mul(p.EffectiveScale()), p.Yaw))
}

// RotateDirection rotates a grid axis by yaw and snaps it back to the
// nearest axis.
func RotateDirection(d types.Direction, yaw float64) types.Direction {
	return types.DirectionOf(Rotate(d.Vector(), yaw))
}
