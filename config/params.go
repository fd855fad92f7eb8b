package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	// ErrInvalidParameter is returned when a value is non-numeric, non-finite or out of range.
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrUnknownParameter is returned for names outside the parameter table.
	ErrUnknownParameter = errors.New("unknown parameter")
)

// Parameter names accepted by Params.Set and the simulation update queue.
const (
	ParamMaxSpeed           = "max_speed"
	ParamMinSpeed           = "min_speed"
	ParamAlignment          = "alignment_strength"
	ParamCohesion           = "cohesion_strength"
	ParamSeparation         = "separation_strength"
	ParamPerceptionRadius   = "perception_radius"
	ParamSeparationDistance = "separation_distance"
	ParamAttractorStrength  = "attractor_strength"
	ParamPopulation         = "population"
	ParamShowNeighborLines  = "show_neighbor_lines"
	ParamShowLabels         = "show_labels"
)

// Params is the flat set of runtime-tunable values. It is what gets saved and
// restored between sessions; nothing else about the simulation is persisted.
type Params struct {
	MaxSpeed           float64 `yaml:"max_speed"`
	MinSpeed           float64 `yaml:"min_speed"`
	AlignmentStrength  float64 `yaml:"alignment_strength"`
	CohesionStrength   float64 `yaml:"cohesion_strength"`
	SeparationStrength float64 `yaml:"separation_strength"`
	PerceptionRadius   float64 `yaml:"perception_radius"`
	SeparationDistance float64 `yaml:"separation_distance"`
	AttractorStrength  float64 `yaml:"attractor_strength"`
	Population         int     `yaml:"population"`
	ShowNeighborLines  bool    `yaml:"show_neighbor_lines"`
	ShowLabels         bool    `yaml:"show_labels"`
}

// ParamsFromConfig returns the parameter set described by a loaded config.
func ParamsFromConfig(c *Config) Params {
	return Params{
		MaxSpeed:           c.Behavior.MaxSpeed,
		MinSpeed:           c.Behavior.MinSpeed,
		AlignmentStrength:  c.Behavior.AlignmentStrength,
		CohesionStrength:   c.Behavior.CohesionStrength,
		SeparationStrength: c.Behavior.SeparationStrength,
		PerceptionRadius:   c.Behavior.PerceptionRadius,
		SeparationDistance: c.Behavior.SeparationDistance,
		AttractorStrength:  c.Attractor.Strength,
		Population:         c.Flock.InitialPopulation,
		ShowNeighborLines:  c.Display.ShowNeighborLines,
		ShowLabels:         c.Display.ShowLabels,
	}
}

// Names returns every parameter name in display order.
func Names() []string {
	return []string{
		ParamMaxSpeed, ParamMinSpeed,
		ParamAlignment, ParamCohesion, ParamSeparation,
		ParamPerceptionRadius, ParamSeparationDistance,
		ParamAttractorStrength, ParamPopulation,
		ParamShowNeighborLines, ParamShowLabels,
	}
}

// Get returns the named value. Booleans read as 0 or 1.
func (p Params) Get(name string) (float64, error) {
	switch name {
	case ParamMaxSpeed:
		return p.MaxSpeed, nil
	case ParamMinSpeed:
		return p.MinSpeed, nil
	case ParamAlignment:
		return p.AlignmentStrength, nil
	case ParamCohesion:
		return p.CohesionStrength, nil
	case ParamSeparation:
		return p.SeparationStrength, nil
	case ParamPerceptionRadius:
		return p.PerceptionRadius, nil
	case ParamSeparationDistance:
		return p.SeparationDistance, nil
	case ParamAttractorStrength:
		return p.AttractorStrength, nil
	case ParamPopulation:
		return float64(p.Population), nil
	case ParamShowNeighborLines:
		return boolToFloat(p.ShowNeighborLines), nil
	case ParamShowLabels:
		return boolToFloat(p.ShowLabels), nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownParameter, name)
}

// Set validates value against the current set and stores it.
// On error p is left unchanged.
func (p *Params) Set(name string, value float64, maxPopulation int) error {
	if err := p.check(name, value, maxPopulation); err != nil {
		return err
	}
	switch name {
	case ParamMaxSpeed:
		p.MaxSpeed = value
	case ParamMinSpeed:
		p.MinSpeed = value
	case ParamAlignment:
		p.AlignmentStrength = value
	case ParamCohesion:
		p.CohesionStrength = value
	case ParamSeparation:
		p.SeparationStrength = value
	case ParamPerceptionRadius:
		p.PerceptionRadius = value
	case ParamSeparationDistance:
		p.SeparationDistance = value
	case ParamAttractorStrength:
		p.AttractorStrength = value
	case ParamPopulation:
		p.Population = int(value)
	case ParamShowNeighborLines:
		p.ShowNeighborLines = value != 0
	case ParamShowLabels:
		p.ShowLabels = value != 0
	}
	return nil
}

// check validates a candidate value in the context of the other fields of p.
func (p Params) check(name string, v float64, maxPopulation int) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: %s must be finite, got %v", ErrInvalidParameter, name, v)
	}
	switch name {
	case ParamMaxSpeed:
		if v <= 0 {
			return invalid(name, v, "must be positive")
		}
		if v < p.MinSpeed {
			return invalid(name, v, fmt.Sprintf("must be >= min_speed (%v)", p.MinSpeed))
		}
	case ParamMinSpeed:
		if v < 0 {
			return invalid(name, v, "must not be negative")
		}
		if v > p.MaxSpeed {
			return invalid(name, v, fmt.Sprintf("must be <= max_speed (%v)", p.MaxSpeed))
		}
	case ParamAlignment, ParamCohesion, ParamSeparation:
		if v < 0 {
			return invalid(name, v, "must not be negative")
		}
	case ParamPerceptionRadius:
		if v < 0 {
			return invalid(name, v, "must not be negative")
		}
		if v < p.SeparationDistance {
			return invalid(name, v, fmt.Sprintf("must be >= separation_distance (%v)", p.SeparationDistance))
		}
	case ParamSeparationDistance:
		if v < 0 {
			return invalid(name, v, "must not be negative")
		}
		if v > p.PerceptionRadius {
			return invalid(name, v, fmt.Sprintf("must be <= perception_radius (%v)", p.PerceptionRadius))
		}
	case ParamAttractorStrength:
		// Signed: negative values repel.
	case ParamPopulation:
		if v != math.Trunc(v) {
			return invalid(name, v, "must be a whole number")
		}
		if v < 0 || v > float64(maxPopulation) {
			return invalid(name, v, fmt.Sprintf("must be in [0, %d]", maxPopulation))
		}
	case ParamShowNeighborLines, ParamShowLabels:
		if v != 0 && v != 1 {
			return invalid(name, v, "must be 0 or 1")
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownParameter, name)
	}
	return nil
}

func invalid(name string, v float64, reason string) error {
	return fmt.Errorf("%w: %s=%v %s", ErrInvalidParameter, name, v, reason)
}

// ParseValue converts a raw string from a UI field or file into a parameter value.
// Booleans are accepted as true/false.
func ParseValue(name, raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	switch strings.ToLower(s) {
	case "true":
		return 1, nil
	case "false":
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q is not a number", ErrInvalidParameter, name, raw)
	}
	return v, nil
}

// Validate checks every field of p.
func (p Params) Validate(maxPopulation int) error {
	for _, name := range Names() {
		v, _ := p.Get(name)
		if err := p.check(name, v, maxPopulation); err != nil {
			return err
		}
	}
	return nil
}

// LoadParams reads a saved parameter file on top of base. Keys missing from the
// file keep their base value. An invalid file leaves base untouched.
func LoadParams(path string, base Params, maxPopulation int) (Params, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("reading params file: %w", err)
	}
	loaded := base
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return base, fmt.Errorf("parsing params file: %w", err)
	}
	if err := loaded.Validate(maxPopulation); err != nil {
		return base, fmt.Errorf("params file %s: %w", path, err)
	}
	return loaded, nil
}

// Save writes p as YAML.
func (p Params) Save(path string) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshaling params: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing params file: %w", err)
	}
	return nil
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
