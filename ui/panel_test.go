package ui

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/boids/config"
)

// stagingSink validates updates the way the simulation queue does.
type stagingSink struct {
	params config.Params
	maxPop int
	calls  []string
}

func (s *stagingSink) ApplyParameterUpdate(name string, value float64) error {
	s.calls = append(s.calls, name)
	return s.params.Set(name, value, s.maxPop)
}

func TestSliderQuantize(t *testing.T) {
	tests := []struct {
		name string
		spec SliderSpec
		raw  float32
		want float64
	}{
		{"inside", SliderSpec{Min: 0, Max: 1}, 0.5, 0.5},
		{"below", SliderSpec{Min: 0.1, Max: 5}, -1, 0.1},
		{"above", SliderSpec{Min: 0, Max: 1}, 3, 1},
		{"integer rounds", SliderSpec{Min: 1, Max: 1000, Integer: true}, 449.6, 450},
		{"integer floor at min", SliderSpec{Min: 1, Max: 1000, Integer: true}, 0.2, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, tt.spec.Quantize(tt.raw), 1e-6)
		})
	}
}

func TestDefaultSlidersNameParameters(t *testing.T) {
	cfg := config.Default()
	p := config.ParamsFromConfig(cfg)

	for _, s := range DefaultSliders(cfg) {
		_, err := p.Get(s.Name)
		assert.NoError(t, err, s.Name)
		assert.Less(t, s.Min, s.Max, s.Name)
		if s.Name == config.ParamPopulation {
			assert.True(t, s.Integer)
			assert.Equal(t, 1.0, s.Min, "panel only offers positive populations")
			assert.Equal(t, float64(cfg.Flock.MaxPopulation), s.Max)
		}
	}
}

func TestApplyAllRetriesCoupledBounds(t *testing.T) {
	cfg := config.Default()
	sink := &stagingSink{params: config.ParamsFromConfig(cfg), maxPop: cfg.Flock.MaxPopulation}

	target := sink.params
	target.MaxSpeed = 0.4 // below the current min speed until min_speed lands
	target.MinSpeed = 0.3
	target.AlignmentStrength = 0.7

	require.NoError(t, ApplyAll(sink, target))
	assert.Equal(t, target, sink.params)
	assert.Equal(t, config.ParamMaxSpeed, sink.calls[len(sink.calls)-1], "max speed retried last")
}

func TestApplyAllReportsInvalid(t *testing.T) {
	cfg := config.Default()
	sink := &stagingSink{params: config.ParamsFromConfig(cfg), maxPop: cfg.Flock.MaxPopulation}
	before := sink.params

	target := before
	target.SeparationDistance = target.PerceptionRadius + 10

	err := ApplyAll(sink, target)
	require.Error(t, err)
	assert.True(t, errors.Is(err, config.ErrInvalidParameter))
	assert.Equal(t, before.SeparationDistance, sink.params.SeparationDistance)
}
