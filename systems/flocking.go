// Package systems provides the per-tick flocking rules and neighbour queries.
package systems

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/boids/components"
)

// DefaultDamping is the per-tick velocity multiplier that keeps speeds from growing without bound.
const DefaultDamping = 0.98

// AgentState is a read-only copy of one agent taken at the start of a tick.
// All agents are updated from the same set of states, so the result does not
// depend on iteration order or on how the flock is split across workers.
type AgentState struct {
	Pos      r3.Vec
	Vel      r3.Vec
	Behavior components.Behavior
}

// StepParams holds the flock-wide values every agent update needs.
type StepParams struct {
	HalfExtent float64
	Damping    float64
	Attractor  components.Attractor
}

// Steering holds the three rule contributions for one agent, before damping.
type Steering struct {
	Alignment  r3.Vec
	Cohesion   r3.Vec
	Separation r3.Vec
	Count      int // agents inside the perception radius
	SepCount   int // agents inside the separation distance (excluding coincident ones)
}

// ComputeSteering evaluates alignment, cohesion and separation for agents[self].
// candidates lists the indices to consider; it must contain every agent that
// can be within the perception radius and may contain more (including self).
// Agents are visited in candidate order, so callers that want results identical
// to a full scan pass candidates in ascending index order.
func ComputeSteering(self int, agents []AgentState, candidates []int) Steering {
	me := &agents[self]
	b := &me.Behavior

	var alignSum, cohesionSum, sepSum r3.Vec
	var s Steering

	for _, j := range candidates {
		if j == self {
			continue
		}
		other := &agents[j]
		offset := r3.Sub(me.Pos, other.Pos)
		d := r3.Norm(offset)
		if !(d < b.PerceptionRadius) {
			continue
		}

		alignSum = r3.Add(alignSum, other.Vel)
		cohesionSum = r3.Add(cohesionSum, other.Pos)
		s.Count++

		// Coincident agents have no direction to push apart along.
		if d < b.SeparationDistance && d > 0 {
			sepSum = r3.Add(sepSum, r3.Scale(1/d, offset))
			s.SepCount++
		}
	}

	if s.Count > 0 {
		n := float64(s.Count)
		s.Alignment = r3.Scale(b.Alignment, r3.Sub(r3.Scale(1/n, alignSum), me.Vel))
		s.Cohesion = r3.Scale(b.Cohesion, r3.Sub(r3.Scale(1/n, cohesionSum), me.Pos))
	}
	if s.SepCount > 0 {
		s.Separation = r3.Scale(b.Separation/float64(s.SepCount), sepSum)
	}
	return s
}

// UpdateAgent advances agents[self] by one tick and returns its new velocity
// and position. The update order is: steering, damping, speed clamp, move,
// wrap, attractor pull, speed clamp again so the speed limits hold after
// every update.
func UpdateAgent(self int, agents []AgentState, candidates []int, p StepParams) (vel, pos r3.Vec) {
	me := &agents[self]
	b := &me.Behavior

	s := ComputeSteering(self, agents, candidates)

	vel = r3.Add(me.Vel, r3.Add(s.Alignment, r3.Add(s.Cohesion, s.Separation)))
	vel = r3.Scale(p.Damping, vel)
	vel = ClampLength(vel, b.MinSpeed, b.MaxSpeed)
	if !isFinite(vel) {
		// Overflowed weights: skip this tick's steering rather than poison the flock.
		vel = fallbackVelocity(me.Vel, b)
	}

	pos = WrapPosition(r3.Add(me.Pos, vel), p.HalfExtent)
	if !isFinite(pos) {
		pos = r3.Vec{}
		if isFinite(me.Pos) {
			pos = WrapPosition(me.Pos, p.HalfExtent)
		}
	}

	pulled := ClampLength(Influence(p.Attractor, pos, vel), b.MinSpeed, b.MaxSpeed)
	if isFinite(pulled) {
		vel = pulled
	}

	return vel, pos
}

// fallbackVelocity is the velocity kept when an update overflows: the
// previous one clamped to the speed range, or zero if that is not finite either.
func fallbackVelocity(prev r3.Vec, b *components.Behavior) r3.Vec {
	v := ClampLength(prev, b.MinSpeed, b.MaxSpeed)
	if !isFinite(v) {
		return r3.Vec{}
	}
	return v
}
