package main

import (
	"github.com/pthm-cable/boids/config"
)

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name    string  // parameter name, as accepted by config.Params.Set
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Starting point
}

// ParamVector holds the set of all optimizable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the flock weight search space, starting from the
// values in base.
func NewParamVector(base config.Params) *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			{Name: config.ParamAlignment, Min: 0, Max: 1, Default: base.AlignmentStrength},
			{Name: config.ParamCohesion, Min: 0, Max: 0.1, Default: base.CohesionStrength},
			{Name: config.ParamSeparation, Min: 0, Max: 1, Default: base.SeparationStrength},
			{Name: config.ParamPerceptionRadius, Min: 10, Max: 120, Default: base.PerceptionRadius},
			{Name: config.ParamSeparationDistance, Min: 0, Max: 60, Default: base.SeparationDistance},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		clamped[i] = min(max(v[i], spec.Min), spec.Max)
	}
	return clamped
}

// Apply returns base with the clamped values written in. The separation
// distance is capped at the perception radius so the result always validates.
func (pv *ParamVector) Apply(base config.Params, values []float64) config.Params {
	clamped := pv.Clamp(values)
	p := base
	for i, spec := range pv.Specs {
		switch spec.Name {
		case config.ParamAlignment:
			p.AlignmentStrength = clamped[i]
		case config.ParamCohesion:
			p.CohesionStrength = clamped[i]
		case config.ParamSeparation:
			p.SeparationStrength = clamped[i]
		case config.ParamPerceptionRadius:
			p.PerceptionRadius = clamped[i]
		case config.ParamSeparationDistance:
			p.SeparationDistance = clamped[i]
		}
	}
	p.SeparationDistance = min(p.SeparationDistance, p.PerceptionRadius)
	return p
}

// Extract reads the searched values out of p.
func (pv *ParamVector) Extract(p config.Params) []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i], _ = p.Get(spec.Name)
	}
	return v
}
