// Package components defines ECS components for the simulation.
package components

import "gonum.org/v1/gonum/spatial/r3"

// Behavior holds an agent's steering weights and limits.
// Every agent carries its own copy so a flock can be heterogeneous, although
// parameter updates write the same values to all of them.
type Behavior struct {
	Alignment          float64
	Cohesion           float64
	Separation         float64
	PerceptionRadius   float64 // neighbour inclusion distance
	SeparationDistance float64 // inner radius for separation, <= PerceptionRadius
	MaxSpeed           float64
	MinSpeed           float64
}

// Attractor is the single point source pulling on every agent.
// It is not stored in the ECS world.
type Attractor struct {
	Position r3.Vec
	Strength float64 // signed; negative repels
	ForceCap float64 // maximum magnitude of the per-tick pull
}
