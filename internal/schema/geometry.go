// Package schema defines the logical data model for exported simulation
// artifacts: the static map hierarchy (Block/Road/Lane), per-tick dynamic
// actor traces, and weather parameter records. All types are immutable
// value records once written; artifacts round-trip through JSON without
// loss.
package schema

import "math"

// Location is a point in the simulator's world frame, in metres.
type Location struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Rotation is an orientation in degrees (UE4 convention).
type Rotation struct {
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
	Roll  float64 `json:"roll"`
}

// Vector3D is a free vector, used for velocities and accelerations.
type Vector3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// DistanceTo returns the Euclidean distance between l and other.
func (l Location) DistanceTo(other Location) float64 {
	dx := l.X - other.X
	dy := l.Y - other.Y
	dz := l.Z - other.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}
