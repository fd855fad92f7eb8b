package game

import (
	"math/rand"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/boids/components"
	"github.com/pthm-cable/boids/systems"
)

// Flock owns the agents. Components live in the ECS world; the entity slice
// fixes their order, and an agent's index in it is its only address.
type Flock struct {
	world  *ecs.World
	mapper *ecs.Map3[components.Position, components.Velocity, components.Behavior]
	posMap *ecs.Map[components.Position]
	velMap *ecs.Map[components.Velocity]
	behMap *ecs.Map[components.Behavior]

	agents []ecs.Entity
	rng    *rand.Rand

	half       float64
	spawnSpeed float64
	defaults   components.Behavior // used when growing an empty flock
}

// NewFlock creates an empty flock in world. Spawned agents get a uniform
// random position in [-half, half)³ and velocity components uniform in
// [-spawnSpeed/2, spawnSpeed/2).
func NewFlock(world *ecs.World, rng *rand.Rand, half, spawnSpeed float64, defaults components.Behavior) *Flock {
	return &Flock{
		world:      world,
		mapper:     ecs.NewMap3[components.Position, components.Velocity, components.Behavior](world),
		posMap:     ecs.NewMap[components.Position](world),
		velMap:     ecs.NewMap[components.Velocity](world),
		behMap:     ecs.NewMap[components.Behavior](world),
		agents:     make([]ecs.Entity, 0, 512),
		rng:        rng,
		half:       half,
		spawnSpeed: spawnSpeed,
		defaults:   defaults,
	}
}

// Len returns the number of agents.
func (f *Flock) Len() int {
	return len(f.agents)
}

// Resize grows or shrinks the flock to exactly target agents.
// New agents copy the first agent's behaviour (the defaults when the flock is
// empty). Shrinking removes agents from the tail; survivors keep their order.
func (f *Flock) Resize(target int) {
	if target < 0 {
		target = 0
	}
	n := len(f.agents)

	if target < n {
		for _, e := range f.agents[target:] {
			f.world.RemoveEntity(e)
		}
		clear(f.agents[target:])
		f.agents = f.agents[:target]
		return
	}

	b := f.defaults
	if n > 0 {
		b = *f.behMap.Get(f.agents[0])
	}
	for i := n; i < target; i++ {
		f.agents = append(f.agents, f.spawn(b))
	}
}

// spawn creates one agent with random position and velocity.
func (f *Flock) spawn(b components.Behavior) ecs.Entity {
	pos := components.Position{
		X: (f.rng.Float64()*2 - 1) * f.half,
		Y: (f.rng.Float64()*2 - 1) * f.half,
		Z: (f.rng.Float64()*2 - 1) * f.half,
	}
	vel := components.Velocity{
		X: (f.rng.Float64() - 0.5) * f.spawnSpeed,
		Y: (f.rng.Float64() - 0.5) * f.spawnSpeed,
		Z: (f.rng.Float64() - 0.5) * f.spawnSpeed,
	}
	return f.mapper.NewEntity(&pos, &vel, &b)
}

// State returns a copy of agent i.
func (f *Flock) State(i int) systems.AgentState {
	e := f.agents[i]
	pos, vel, b := f.mapper.Get(e)
	return systems.AgentState{Pos: pos.Vec(), Vel: vel.Vec(), Behavior: *b}
}

// Snapshot appends a copy of every agent to dst in flock order.
func (f *Flock) Snapshot(dst []systems.AgentState) []systems.AgentState {
	for _, e := range f.agents {
		pos, vel, b := f.mapper.Get(e)
		dst = append(dst, systems.AgentState{Pos: pos.Vec(), Vel: vel.Vec(), Behavior: *b})
	}
	return dst
}

// Set writes agent i's new velocity and position.
func (f *Flock) Set(i int, vel, pos r3.Vec) {
	e := f.agents[i]
	*f.velMap.Get(e) = components.Velocity(vel)
	*f.posMap.Get(e) = components.Position(pos)
}

// Position returns agent i's position.
func (f *Flock) Position(i int) r3.Vec {
	return f.posMap.Get(f.agents[i]).Vec()
}

// UpdateBehavior applies fn to every agent's behaviour and to the spawn defaults.
func (f *Flock) UpdateBehavior(fn func(b *components.Behavior)) {
	fn(&f.defaults)
	for _, e := range f.agents {
		fn(f.behMap.Get(e))
	}
}

// Clear removes every agent.
func (f *Flock) Clear() {
	f.Resize(0)
}
