// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Screen    ScreenConfig    `yaml:"screen"`
	World     WorldConfig     `yaml:"world"`
	Flock     FlockConfig     `yaml:"flock"`
	Behavior  BehaviorConfig  `yaml:"behavior"`
	Attractor AttractorConfig `yaml:"attractor"`
	Governor  GovernorConfig  `yaml:"governor"`
	Display   DisplayConfig   `yaml:"display"`
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// WorldConfig holds the simulation volume. The world is a cube centred on the
// origin spanning [-HalfExtent, +HalfExtent] on every axis.
type WorldConfig struct {
	HalfExtent float64 `yaml:"half_extent"`
}

// FlockConfig holds population and integration parameters.
type FlockConfig struct {
	InitialPopulation int     `yaml:"initial_population"`
	MaxPopulation     int     `yaml:"max_population"`
	Damping           float64 `yaml:"damping"`            // velocity multiplier applied every tick (1 = off)
	InitialSpeed      float64 `yaml:"initial_speed"`      // spawn velocity components are uniform in [-v/2, v/2)
	NeighborStrategy  string  `yaml:"neighbor_strategy"`  // naive, grid or kdtree
	ParallelThreshold int     `yaml:"parallel_threshold"` // minimum agents before the worker pool is used
}

// BehaviorConfig holds the default per-agent steering weights.
type BehaviorConfig struct {
	MaxSpeed           float64 `yaml:"max_speed"`
	MinSpeed           float64 `yaml:"min_speed"`
	AlignmentStrength  float64 `yaml:"alignment_strength"`
	CohesionStrength   float64 `yaml:"cohesion_strength"`
	SeparationStrength float64 `yaml:"separation_strength"`
	PerceptionRadius   float64 `yaml:"perception_radius"`
	SeparationDistance float64 `yaml:"separation_distance"`
}

// AttractorConfig holds the point attractor parameters.
type AttractorConfig struct {
	X        float64 `yaml:"x"`
	Y        float64 `yaml:"y"`
	Z        float64 `yaml:"z"`
	Strength float64 `yaml:"strength"`
	ForceCap float64 `yaml:"force_cap"` // maximum magnitude of the per-tick pull
}

// GovernorConfig holds the frame-rate governor thresholds.
type GovernorConfig struct {
	Enabled       bool    `yaml:"enabled"`
	Window        int     `yaml:"window"`         // frame samples in the rolling window
	MinFPS        float64 `yaml:"min_fps"`        // shrink when the window average drops below this
	MinPopulation int     `yaml:"min_population"` // never shrink a flock at or below this size
	ShrinkFactor  float64 `yaml:"shrink_factor"`  // population multiplier per shrink
}

// DisplayConfig holds renderer toggles and the depth colour ramp.
type DisplayConfig struct {
	ShowNeighborLines bool    `yaml:"show_neighbor_lines"`
	ShowLabels        bool    `yaml:"show_labels"`
	CameraX           float64 `yaml:"camera_x"`
	CameraY           float64 `yaml:"camera_y"`
	CameraZ           float64 `yaml:"camera_z"`
	NearColor         string  `yaml:"near_color"` // hex RGB, e.g. "#000000"
	FarColor          string  `yaml:"far_color"`
	Background        string  `yaml:"background"`
	MinDistance       float64 `yaml:"min_distance"`
	MaxDistance       float64 `yaml:"max_distance"`
	MaxNeighborLines  int     `yaml:"max_neighbor_lines"` // agents whose neighbour links are drawn
	MaxLabels         int     `yaml:"max_labels"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow         int `yaml:"stats_window"` // ticks per flock stats window
	PerfCollectorWindow int `yaml:"perf_collector_window"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	Extent     float64 // 2 * World.HalfExtent
	NearRGB    [3]uint8
	FarRGB     [3]uint8
	Background [3]uint8
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Default returns a fresh copy of the embedded defaults.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults are invalid: %v", err))
	}
	return cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	// Start with embedded defaults
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	// Load user config if provided
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	cfg.computeDerived()

	return cfg, nil
}

// validate rejects configurations the simulation cannot run with.
// Behaviour weights go through the same checks as runtime parameter updates.
func (c *Config) validate() error {
	if c.World.HalfExtent <= 0 {
		return fmt.Errorf("world.half_extent must be positive, got %v", c.World.HalfExtent)
	}
	if c.Flock.MaxPopulation < 0 {
		return fmt.Errorf("flock.max_population must not be negative, got %d", c.Flock.MaxPopulation)
	}
	if c.Flock.InitialPopulation < 0 || c.Flock.InitialPopulation > c.Flock.MaxPopulation {
		return fmt.Errorf("flock.initial_population %d outside [0, %d]", c.Flock.InitialPopulation, c.Flock.MaxPopulation)
	}
	if c.Flock.Damping <= 0 || c.Flock.Damping > 1 {
		return fmt.Errorf("flock.damping must be in (0, 1], got %v", c.Flock.Damping)
	}
	switch strings.ToLower(c.Flock.NeighborStrategy) {
	case "", "naive", "grid", "kdtree":
	default:
		return fmt.Errorf("flock.neighbor_strategy %q is not one of naive, grid, kdtree", c.Flock.NeighborStrategy)
	}
	if c.Attractor.ForceCap < 0 {
		return fmt.Errorf("attractor.force_cap must not be negative, got %v", c.Attractor.ForceCap)
	}
	if c.Governor.Window < 1 {
		return fmt.Errorf("governor.window must be at least 1, got %d", c.Governor.Window)
	}
	if c.Governor.ShrinkFactor <= 0 || c.Governor.ShrinkFactor >= 1 {
		return fmt.Errorf("governor.shrink_factor must be in (0, 1), got %v", c.Governor.ShrinkFactor)
	}

	if err := ParamsFromConfig(c).Validate(c.Flock.MaxPopulation); err != nil {
		return fmt.Errorf("behavior defaults: %w", err)
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.Extent = 2 * c.World.HalfExtent
	c.Derived.NearRGB = parseHexRGB(c.Display.NearColor, [3]uint8{0x00, 0x00, 0x00})
	c.Derived.FarRGB = parseHexRGB(c.Display.FarColor, [3]uint8{0xcc, 0xcc, 0xcc})
	c.Derived.Background = parseHexRGB(c.Display.Background, [3]uint8{0xef, 0xef, 0xef})
	if c.Flock.NeighborStrategy == "" {
		c.Flock.NeighborStrategy = "naive"
	}
}

// parseHexRGB parses "#rrggbb" (leading # optional), falling back on malformed input.
func parseHexRGB(s string, fallback [3]uint8) [3]uint8 {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return fallback
	}
	var r, g, b uint8
	if _, err := fmt.Sscanf(s, "%02x%02x%02x", &r, &g, &b); err != nil {
		return fallback
	}
	return [3]uint8{r, g, b}
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
