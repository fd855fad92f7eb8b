package main

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/boids/config"
	"github.com/pthm-cable/boids/game"
	"github.com/pthm-cable/boids/telemetry"
)

// FitnessEvaluator runs headless simulations and computes fitness.
type FitnessEvaluator struct {
	params     *ParamVector
	baseConfig *config.Config
	baseParams config.Params
	seeds      []int64
	population int
	warmup     int // ticks before measuring
	measure    int // ticks averaged into the score

	mu               sync.Mutex
	lastPolarization float64
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, baseCfg *config.Config, seeds []int64, population, warmup, measure int) *FitnessEvaluator {
	base := config.ParamsFromConfig(baseCfg)
	base.Population = population
	base.ShowNeighborLines = false
	base.ShowLabels = false
	return &FitnessEvaluator{
		params:     params,
		baseConfig: baseCfg,
		baseParams: base,
		seeds:      seeds,
		population: population,
		warmup:     warmup,
		measure:    max(measure, 1),
	}
}

// LastPolarization returns the mean polarization from the most recent evaluation.
func (fe *FitnessEvaluator) LastPolarization() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastPolarization
}

// Evaluate computes fitness for a raw parameter vector (lower = better).
// Fitness is the negated polarization averaged over the measured ticks and
// every seed, so a perfectly aligned flock scores -1.
func (fe *FitnessEvaluator) Evaluate(ctx context.Context, x []float64) (float64, error) {
	p := fe.params.Apply(fe.baseParams, x)

	results := make([]float64, len(fe.seeds))
	eg, ctx := errgroup.WithContext(ctx)
	for i, seed := range fe.seeds {
		eg.Go(func() error {
			pol, err := fe.runSimulation(ctx, p, seed)
			if err != nil {
				return fmt.Errorf("seed %d: %w", seed, err)
			}
			results[i] = pol
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return 0, err
	}

	var total float64
	for _, pol := range results {
		total += pol
	}
	mean := total / float64(len(results))

	fe.mu.Lock()
	fe.lastPolarization = mean
	fe.mu.Unlock()

	return -mean, nil
}

// runSimulation executes a single headless run and returns its mean
// polarization over the measured ticks.
func (fe *FitnessEvaluator) runSimulation(ctx context.Context, p config.Params, seed int64) (float64, error) {
	cfg := *fe.baseConfig
	cfg.Flock.MaxPopulation = max(cfg.Flock.MaxPopulation, fe.population)
	cfg.Governor.Enabled = false

	g, err := game.NewGame(&cfg, game.Options{Seed: seed, Workers: 1, Params: &p})
	if err != nil {
		return 0, err
	}
	defer g.Close()

	for range fe.warmup {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		g.Step(0)
	}

	vels := make([]r3.Vec, 0, fe.population)
	var sum float64
	for range fe.measure {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		g.Step(0)

		vels = vels[:0]
		for i := 0; i < g.Len(); i++ {
			vels = append(vels, g.Agent(i).Vel)
		}
		sum += telemetry.Polarization(vels)
	}
	return sum / float64(fe.measure), nil
}
