package systems

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/boids/components"
)

// AttractorForce returns the pull the attractor exerts on a point.
// The magnitude falls off as strength/distance and is capped at ForceCap;
// a point exactly on the attractor receives no force. The result is finite
// for any finite strength and distance.
func AttractorForce(a components.Attractor, pos r3.Vec) r3.Vec {
	offset := r3.Sub(a.Position, pos)
	dist := math.Hypot(math.Hypot(offset.X, offset.Y), offset.Z)
	if !(dist > 0) || math.IsInf(dist, 0) || a.Strength == 0 {
		return r3.Vec{}
	}
	// Unit direction first so tiny distances cannot overflow the scale.
	dir := r3.Vec{X: offset.X / dist, Y: offset.Y / dist, Z: offset.Z / dist}

	// |strength|/dist overflows to +Inf for extreme inputs, which the cap absorbs.
	mag := math.Min(math.Abs(a.Strength)/dist, a.ForceCap)
	return r3.Scale(math.Copysign(mag, a.Strength), dir)
}

// Influence adds the attractor pull at pos to vel.
func Influence(a components.Attractor, pos, vel r3.Vec) r3.Vec {
	return r3.Add(vel, AttractorForce(a, pos))
}
