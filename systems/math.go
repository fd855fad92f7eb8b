package systems

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Length helpers on top of gonum's r3.

// ClampLength scales v so its length lies in [minLen, maxLen], keeping its
// direction. A zero vector has no direction and is returned unchanged.
func ClampLength(v r3.Vec, minLen, maxLen float64) r3.Vec {
	l := r3.Norm(v)
	if l == 0 {
		return v
	}
	if l > maxLen {
		return r3.Scale(maxLen/l, v)
	}
	if l < minLen {
		return r3.Scale(minLen/l, v)
	}
	return v
}

// Wrapping

// WrapPosition wraps every axis of p into [-half, +half].
func WrapPosition(p r3.Vec, half float64) r3.Vec {
	return r3.Vec{
		X: wrapAxis(p.X, half),
		Y: wrapAxis(p.Y, half),
		Z: wrapAxis(p.Z, half),
	}
}

// wrapAxis teleports a coordinate that left [-half, +half] to the opposite
// face, keeping the overshoot: half+e becomes -half+e. Overshoots larger than
// the whole extent are folded with a modulo.
func wrapAxis(x, half float64) float64 {
	if half <= 0 {
		return x
	}
	extent := 2 * half
	switch {
	case x > half:
		x -= extent
	case x < -half:
		x += extent
	default:
		return x
	}
	if x > half || x < -half {
		x = math.Mod(x+half, extent)
		if x < 0 {
			x += extent
		}
		x -= half
	}
	return x
}

// isFinite reports whether every component of v is a real number.
func isFinite(v r3.Vec) bool {
	return !math.IsNaN(v.X) && !math.IsInf(v.X, 0) &&
		!math.IsNaN(v.Y) && !math.IsInf(v.Y, 0) &&
		!math.IsNaN(v.Z) && !math.IsInf(v.Z, 0)
}
