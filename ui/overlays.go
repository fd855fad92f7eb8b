package ui

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/boids/config"
)

// OverlayID uniquely identifies an overlay.
type OverlayID string

// Standard overlay IDs.
const (
	OverlayNeighborLines OverlayID = "neighbor_lines"
	OverlayLabels        OverlayID = "labels"
	OverlayBounds        OverlayID = "bounds"
	OverlayHUD           OverlayID = "hud"
	OverlayPerf          OverlayID = "perf"
	OverlayPanel         OverlayID = "panel"
)

// OverlayDescriptor defines an overlay that can be toggled.
type OverlayDescriptor struct {
	ID          OverlayID   // Unique identifier
	Name        string      // Display name
	Description string      // What this overlay shows
	Key         int32       // Keyboard key to toggle (0 = no key)
	KeyLabel    string      // Key label for display (e.g., "N", "L")
	Category    string      // Grouping (e.g., "scene", "panels")
	Exclusive   []OverlayID // Other overlays to disable when this is enabled

	// Param names the simulation parameter that owns this overlay's state,
	// if any. Such overlays are toggled through the parameter queue so the
	// governor can switch them off.
	Param string
	// Default is the initial state.
	Default bool
}

// OverlayRegistry manages overlay state and metadata.
type OverlayRegistry struct {
	descriptors []OverlayDescriptor
	byID        map[OverlayID]OverlayDescriptor
	enabled     map[OverlayID]bool
	order       []OverlayID // Maintains insertion order for display
}

// NewOverlayRegistry creates a registry with default overlays.
func NewOverlayRegistry() *OverlayRegistry {
	reg := &OverlayRegistry{
		byID:    make(map[OverlayID]OverlayDescriptor),
		enabled: make(map[OverlayID]bool),
	}
	reg.registerDefaults()
	return reg
}

// registerDefaults adds standard overlays.
func (r *OverlayRegistry) registerDefaults() {
	// Scene overlays
	r.Register(OverlayDescriptor{
		ID:          OverlayNeighborLines,
		Name:        "Neighbor Lines",
		Description: "Link each of the first agents to its neighbours",
		Key:         rl.KeyN,
		KeyLabel:    "N",
		Category:    "scene",
		Param:       config.ParamShowNeighborLines,
	})

	r.Register(OverlayDescriptor{
		ID:          OverlayLabels,
		Name:        "Coordinates",
		Description: "Label the first agents with their position",
		Key:         rl.KeyL,
		KeyLabel:    "L",
		Category:    "scene",
		Param:       config.ParamShowLabels,
	})

	r.Register(OverlayDescriptor{
		ID:          OverlayBounds,
		Name:        "World Bounds",
		Description: "Outline the wrap-around cube",
		Key:         rl.KeyB,
		KeyLabel:    "B",
		Category:    "scene",
		Default:     true,
	})

	// Panels
	r.Register(OverlayDescriptor{
		ID:          OverlayHUD,
		Name:        "HUD",
		Description: "Population, tick and frame rate",
		Key:         rl.KeyH,
		KeyLabel:    "H",
		Category:    "panels",
		Default:     true,
	})

	r.Register(OverlayDescriptor{
		ID:          OverlayPerf,
		Name:        "Tick Phases",
		Description: "Per-phase share of tick time",
		Key:         rl.KeyF,
		KeyLabel:    "F",
		Category:    "panels",
	})

	r.Register(OverlayDescriptor{
		ID:          OverlayPanel,
		Name:        "Parameters",
		Description: "Slider panel for the flock parameters",
		Key:         rl.KeyP,
		KeyLabel:    "P",
		Category:    "panels",
		Default:     true,
	})
}

// Register adds an overlay to the registry.
func (r *OverlayRegistry) Register(desc OverlayDescriptor) {
	r.descriptors = append(r.descriptors, desc)
	r.byID[desc.ID] = desc
	r.order = append(r.order, desc.ID)
	r.enabled[desc.ID] = desc.Default
}

// Toggle switches an overlay on/off and handles exclusivity.
func (r *OverlayRegistry) Toggle(id OverlayID) bool {
	if _, ok := r.byID[id]; !ok {
		return false
	}
	newState := !r.enabled[id]
	r.SetEnabled(id, newState)
	return newState
}

// SetEnabled explicitly sets an overlay's state.
func (r *OverlayRegistry) SetEnabled(id OverlayID, enabled bool) {
	desc, ok := r.byID[id]
	if !ok {
		return
	}

	r.enabled[id] = enabled

	// If enabling, disable exclusive overlays
	if enabled {
		for _, excl := range desc.Exclusive {
			r.enabled[excl] = false
		}
	}
}

// IsEnabled returns whether an overlay is active.
func (r *OverlayRegistry) IsEnabled(id OverlayID) bool {
	return r.enabled[id]
}

// Get returns an overlay descriptor by ID.
func (r *OverlayRegistry) Get(id OverlayID) (OverlayDescriptor, bool) {
	desc, ok := r.byID[id]
	return desc, ok
}

// All returns all registered overlays in registration order.
func (r *OverlayRegistry) All() []OverlayDescriptor {
	return r.descriptors
}

// ByCategory returns overlays filtered by category.
func (r *OverlayRegistry) ByCategory(category string) []OverlayDescriptor {
	var result []OverlayDescriptor
	for _, desc := range r.descriptors {
		if desc.Category == category {
			result = append(result, desc)
		}
	}
	return result
}

// Categories returns all unique categories in order.
func (r *OverlayRegistry) Categories() []string {
	seen := make(map[string]bool)
	var cats []string
	for _, desc := range r.descriptors {
		if !seen[desc.Category] {
			seen[desc.Category] = true
			cats = append(cats, desc.Category)
		}
	}
	return cats
}

// HandleKeyPress checks if a key corresponds to an overlay toggle.
// Returns the overlay ID and new state if a toggle occurred.
func (r *OverlayRegistry) HandleKeyPress(key int32) (OverlayID, bool, bool) {
	for _, desc := range r.descriptors {
		if desc.Key == key {
			newState := r.Toggle(desc.ID)
			return desc.ID, newState, true
		}
	}
	return "", false, false
}

// SyncParams copies parameter-owned overlay states from p.
func (r *OverlayRegistry) SyncParams(p config.Params) {
	for _, desc := range r.descriptors {
		if desc.Param == "" {
			continue
		}
		v, err := p.Get(desc.Param)
		if err != nil {
			continue
		}
		r.enabled[desc.ID] = v != 0
	}
}

// EnabledOverlays returns a list of currently enabled overlay IDs.
func (r *OverlayRegistry) EnabledOverlays() []OverlayID {
	var result []OverlayID
	for _, id := range r.order {
		if r.enabled[id] {
			result = append(result, id)
		}
	}
	return result
}
