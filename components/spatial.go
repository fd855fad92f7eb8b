package components

import "gonum.org/v1/gonum/spatial/r3"

// Position represents an agent's world position.
type Position r3.Vec

// Velocity represents an agent's per-tick displacement.
type Velocity r3.Vec

// Vec returns the position as a gonum vector.
func (p Position) Vec() r3.Vec { return r3.Vec(p) }

// Vec returns the velocity as a gonum vector.
func (v Velocity) Vec() r3.Vec { return r3.Vec(v) }
