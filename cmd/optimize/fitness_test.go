package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/boids/config"
)

func TestEvaluateScoresPolarization(t *testing.T) {
	cfg := config.Default()
	pv := NewParamVector(config.ParamsFromConfig(cfg))
	fe := NewFitnessEvaluator(pv, cfg, []int64{1, 2}, 40, 10, 5)

	fitness, err := fe.Evaluate(context.Background(), pv.DefaultVector())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, fitness, -1.0)
	assert.LessOrEqual(t, fitness, 0.0)
	assert.InDelta(t, -fitness, fe.LastPolarization(), 1e-12)

	again, err := fe.Evaluate(context.Background(), pv.DefaultVector())
	require.NoError(t, err)
	assert.Equal(t, fitness, again, "same seeds give the same score")
}

func TestEvaluateStopsOnCancel(t *testing.T) {
	cfg := config.Default()
	pv := NewParamVector(config.ParamsFromConfig(cfg))
	fe := NewFitnessEvaluator(pv, cfg, []int64{1}, 20, 1000, 1000)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := fe.Evaluate(ctx, pv.DefaultVector())
	assert.ErrorIs(t, err, context.Canceled)
}
