// Package game runs the flock: agent storage, the per-tick pass, parameter
// updates, the frame-rate governor and telemetry. It has no rendering
// dependency; front ends read state through the accessors after Step.
package game

import (
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/boids/components"
	"github.com/pthm-cable/boids/config"
	"github.com/pthm-cable/boids/systems"
	"github.com/pthm-cable/boids/telemetry"
)

// Options configures a Game beyond what the config file holds.
type Options struct {
	Seed      int64
	LogStats  bool   // log flock and perf stats via slog every stats window
	OutputDir string // CSV and config snapshot directory; empty disables output
	Workers   int    // worker pool size; 0 uses GOMAXPROCS

	// Params overrides the parameter set derived from the config,
	// e.g. one restored from a saved file.
	Params *config.Params
}

// paramUpdate is a validated update waiting for the next tick boundary.
type paramUpdate struct {
	name  string
	value float64
}

// Game holds the complete simulation state.
type Game struct {
	cfg   *config.Config
	world *ecs.World
	rng   *rand.Rand
	seed  int64

	flock             *Flock
	index             systems.NeighborIndex
	parallel          *parallelState
	parallelThreshold int
	governor          *Governor

	stepParams systems.StepParams
	params     config.Params // values in effect

	// Update queue. staged is params plus every queued update, so a new
	// update is validated against what will be in effect when it applies.
	mu       sync.Mutex
	staged   config.Params
	pending  []paramUpdate
	rejected int // failed updates since the last tick

	tick      int64
	lastFrame time.Duration

	// Telemetry
	perf      *telemetry.PerfCollector
	collector *telemetry.Collector
	output    *telemetry.OutputManager
	logStats  bool
	positions []r3.Vec // telemetry scratch
	vels      []r3.Vec

	closeOnce sync.Once
}

// NewGame creates a simulation from cfg and spawns the initial flock.
func NewGame(cfg *config.Config, opts Options) (*Game, error) {
	params := config.ParamsFromConfig(cfg)
	if opts.Params != nil {
		if err := opts.Params.Validate(cfg.Flock.MaxPopulation); err != nil {
			return nil, fmt.Errorf("initial params: %w", err)
		}
		params = *opts.Params
	}

	index, err := systems.NewNeighborIndex(cfg.Flock.NeighborStrategy, cfg.World.HalfExtent)
	if err != nil {
		return nil, err
	}

	output, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, fmt.Errorf("creating output manager: %w", err)
	}
	if err := output.WriteConfig(cfg); err != nil {
		output.Close()
		return nil, fmt.Errorf("writing config snapshot: %w", err)
	}

	threshold := cfg.Flock.ParallelThreshold
	if threshold < 1 {
		threshold = defaultParallelThreshold
	}

	world := ecs.NewWorld()
	rng := rand.New(rand.NewSource(opts.Seed))

	g := &Game{
		cfg:               cfg,
		world:             world,
		rng:               rng,
		seed:              opts.Seed,
		index:             index,
		parallel:          newParallelState(opts.Workers),
		parallelThreshold: threshold,
		governor:          NewGovernor(cfg.Governor),
		params:            params,
		staged:            params,
		perf:              telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow),
		collector:         telemetry.NewCollector(cfg.Telemetry.StatsWindow),
		output:            output,
		logStats:          opts.LogStats,
		stepParams: systems.StepParams{
			HalfExtent: cfg.World.HalfExtent,
			Damping:    cfg.Flock.Damping,
			Attractor: components.Attractor{
				Position: r3.Vec{X: cfg.Attractor.X, Y: cfg.Attractor.Y, Z: cfg.Attractor.Z},
				Strength: params.AttractorStrength,
				ForceCap: cfg.Attractor.ForceCap,
			},
		},
	}

	g.flock = NewFlock(world, rng, cfg.World.HalfExtent, cfg.Flock.InitialSpeed, behaviorFromParams(params))
	g.flock.Resize(params.Population)

	slog.Info("simulation created",
		"seed", opts.Seed,
		"population", g.flock.Len(),
		"neighbor_strategy", cfg.Flock.NeighborStrategy,
		"workers", g.parallel.numWorkers,
		"run_id", output.RunID(),
	)

	return g, nil
}

// behaviorFromParams builds the per-agent weights from a parameter set.
func behaviorFromParams(p config.Params) components.Behavior {
	return components.Behavior{
		Alignment:          p.AlignmentStrength,
		Cohesion:           p.CohesionStrength,
		Separation:         p.SeparationStrength,
		PerceptionRadius:   p.PerceptionRadius,
		SeparationDistance: p.SeparationDistance,
		MaxSpeed:           p.MaxSpeed,
		MinSpeed:           p.MinSpeed,
	}
}

// ApplyParameterUpdate validates an update and queues it for the start of
// the next Step. Invalid values return an error wrapping
// config.ErrInvalidParameter and change nothing; unknown names return
// config.ErrUnknownParameter. Safe to call from any goroutine.
func (g *Game) ApplyParameterUpdate(name string, value float64) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.staged.Set(name, value, g.cfg.Flock.MaxPopulation); err != nil {
		g.rejected++
		return err
	}
	g.pending = append(g.pending, paramUpdate{name: name, value: value})
	return nil
}

// ApplyParameterString parses raw and queues it like ApplyParameterUpdate.
func (g *Game) ApplyParameterString(name, raw string) error {
	v, err := config.ParseValue(name, raw)
	if err != nil {
		return err
	}
	return g.ApplyParameterUpdate(name, v)
}

// applyPending moves queued updates into effect.
func (g *Game) applyPending() {
	g.mu.Lock()
	pending := g.pending
	g.pending = nil
	rejected := g.rejected
	g.rejected = 0

	applied := pending[:0]
	for _, u := range pending {
		if err := g.params.Set(u.name, u.value, g.cfg.Flock.MaxPopulation); err != nil {
			// Validated on enqueue; this only trips if the governor changed
			// the population between enqueue and apply.
			slog.Warn("dropping parameter update", "name", u.name, "value", u.value, "error", err)
			rejected++
			continue
		}
		applied = append(applied, u)
	}
	g.mu.Unlock()

	for _, u := range applied {
		g.applyParam(u.name)
		g.collector.RecordParamUpdate()
	}
	for range rejected {
		g.collector.RecordRejectedUpdate()
	}
}

// restage rebuilds staged from params by replaying the queue, dropping
// updates the new params no longer accept. Callers hold g.mu.
func (g *Game) restage() {
	g.staged = g.params
	keep := g.pending[:0]
	for _, u := range g.pending {
		if err := g.staged.Set(u.name, u.value, g.cfg.Flock.MaxPopulation); err != nil {
			slog.Warn("dropping parameter update", "name", u.name, "value", u.value, "error", err)
			g.rejected++
			continue
		}
		keep = append(keep, u)
	}
	g.pending = keep
}

// applyParam pushes one changed parameter to where it takes effect.
func (g *Game) applyParam(name string) {
	p := &g.params
	switch name {
	case config.ParamMaxSpeed:
		g.flock.UpdateBehavior(func(b *components.Behavior) { b.MaxSpeed = p.MaxSpeed })
	case config.ParamMinSpeed:
		g.flock.UpdateBehavior(func(b *components.Behavior) { b.MinSpeed = p.MinSpeed })
	case config.ParamAlignment:
		g.flock.UpdateBehavior(func(b *components.Behavior) { b.Alignment = p.AlignmentStrength })
	case config.ParamCohesion:
		g.flock.UpdateBehavior(func(b *components.Behavior) { b.Cohesion = p.CohesionStrength })
	case config.ParamSeparation:
		g.flock.UpdateBehavior(func(b *components.Behavior) { b.Separation = p.SeparationStrength })
	case config.ParamPerceptionRadius:
		g.flock.UpdateBehavior(func(b *components.Behavior) { b.PerceptionRadius = p.PerceptionRadius })
	case config.ParamSeparationDistance:
		g.flock.UpdateBehavior(func(b *components.Behavior) { b.SeparationDistance = p.SeparationDistance })
	case config.ParamAttractorStrength:
		g.stepParams.Attractor.Strength = p.AttractorStrength
	case config.ParamPopulation:
		g.resize(p.Population)
	}
	// Display toggles only live in params.
}

// resize changes the flock size and records it.
func (g *Game) resize(target int) {
	from := g.flock.Len()
	g.flock.Resize(target)
	g.collector.RecordResize(from, g.flock.Len())
}

// Step advances the simulation by one tick. frame is the wall time of the
// previous frame and feeds the governor; pass 0 to leave it out.
func (g *Game) Step(frame time.Duration) {
	g.perf.StartTick()

	g.perf.StartPhase(telemetry.PhaseParams)
	g.applyPending()

	g.perf.StartPhase(telemetry.PhaseGovernor)
	if frame > 0 {
		g.lastFrame = frame
		g.perf.SetFrameDuration(frame)
		g.observeFrame(frame)
	}

	g.updateFlock()
	g.tick++

	g.perf.StartPhase(telemetry.PhaseTelemetry)
	g.flushTelemetry()
	g.perf.EndTick()
}

// observeFrame feeds the governor and applies its decision.
func (g *Game) observeFrame(frame time.Duration) {
	n := g.flock.Len()
	target, shrink := g.governor.Observe(frame, n)
	if !shrink {
		return
	}

	g.resize(target)
	g.collector.RecordGovernorShrink()

	g.mu.Lock()
	g.params.Population = g.flock.Len()
	g.params.ShowNeighborLines = false
	g.restage()
	g.mu.Unlock()

	slog.Info("governor shrank flock",
		"tick", g.tick,
		"from", n,
		"to", g.flock.Len(),
		"min_fps", g.cfg.Governor.MinFPS,
	)
}

// Len returns the number of agents.
func (g *Game) Len() int {
	return g.flock.Len()
}

// Agent returns a copy of agent i.
func (g *Game) Agent(i int) systems.AgentState {
	return g.flock.State(i)
}

// Positions writes every agent's position into dst as consecutive x, y, z
// triples in agent order, growing dst as needed, and returns it.
func (g *Game) Positions(dst []float64) []float64 {
	dst = dst[:0]
	for i := 0; i < g.flock.Len(); i++ {
		p := g.flock.Position(i)
		dst = append(dst, p.X, p.Y, p.Z)
	}
	return dst
}

// DistancesTo writes every agent's distance to ref into dst in agent order.
func (g *Game) DistancesTo(ref r3.Vec, dst []float64) []float64 {
	dst = dst[:0]
	for i := 0; i < g.flock.Len(); i++ {
		dst = append(dst, r3.Norm(r3.Sub(g.flock.Position(i), ref)))
	}
	return dst
}

// Neighbors appends the indices of agents within agent i's perception
// radius, in ascending order.
func (g *Game) Neighbors(i int, dst []int) []int {
	self := g.flock.State(i)
	for j := 0; j < g.flock.Len(); j++ {
		if j == i {
			continue
		}
		if r3.Norm(r3.Sub(self.Pos, g.flock.Position(j))) < self.Behavior.PerceptionRadius {
			dst = append(dst, j)
		}
	}
	return dst
}

// Params returns the parameter values in effect.
func (g *Game) Params() config.Params {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.params
}

// StagedParams returns the parameter values including queued updates.
func (g *Game) StagedParams() config.Params {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.staged
}

// Attractor returns the attractor.
func (g *Game) Attractor() components.Attractor {
	return g.stepParams.Attractor
}

// HalfExtent returns half the world cube's edge length.
func (g *Game) HalfExtent() float64 {
	return g.stepParams.HalfExtent
}

// Tick returns the number of completed steps.
func (g *Game) Tick() int64 {
	return g.tick
}

// FPS returns the governor's current frame-rate estimate.
func (g *Game) FPS() float64 {
	return g.governor.FPS()
}

// Perf returns the performance collector.
func (g *Game) Perf() *telemetry.PerfCollector {
	return g.perf
}

// Config returns the config the game was created with.
func (g *Game) Config() *config.Config {
	return g.cfg
}

// Close stops the worker pool and flushes output. Safe to call twice.
func (g *Game) Close() error {
	var err error
	g.closeOnce.Do(func() {
		g.stopParallelWorkers()
		err = g.output.Close()
		slog.Info("simulation closed", "tick", g.tick, "population", g.flock.Len())
	})
	return err
}
