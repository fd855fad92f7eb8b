package ui

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/boids/config"
)

// ParamSink receives parameter updates from the panel.
type ParamSink interface {
	ApplyParameterUpdate(name string, value float64) error
}

// SliderSpec describes one slider bound to a named parameter.
type SliderSpec struct {
	Name    string // parameter name
	Label   string
	Min     float64
	Max     float64
	Integer bool   // round to whole numbers
	Format  string // value text, e.g. "%.2f"
}

// Quantize maps a raw slider position onto the value sent to the simulation.
func (s SliderSpec) Quantize(raw float32) float64 {
	v := min(max(float64(raw), s.Min), s.Max)
	if s.Integer {
		v = math.Round(v)
	}
	return v
}

// DefaultSliders returns the slider set for the flock parameters.
// The population slider starts at 1: the panel only offers positive sizes.
func DefaultSliders(cfg *config.Config) []SliderSpec {
	return []SliderSpec{
		{Name: config.ParamMaxSpeed, Label: "Max speed", Min: 0.1, Max: 5, Format: "%.2f"},
		{Name: config.ParamAlignment, Label: "Alignment", Min: 0, Max: 1, Format: "%.2f"},
		{Name: config.ParamCohesion, Label: "Cohesion", Min: 0, Max: 0.1, Format: "%.3f"},
		{Name: config.ParamSeparation, Label: "Separation", Min: 0, Max: 1, Format: "%.2f"},
		{Name: config.ParamPerceptionRadius, Label: "Perception", Min: 0, Max: 150, Format: "%.0f"},
		{Name: config.ParamAttractorStrength, Label: "Attractor", Min: -2, Max: 2, Format: "%+.2f"},
		{Name: config.ParamPopulation, Label: "Population", Min: 1, Max: float64(cfg.Flock.MaxPopulation), Integer: true, Format: "%.0f"},
	}
}

// PanelAction is a button press reported by ParameterPanel.Draw.
type PanelAction int

const (
	ActionNone PanelAction = iota
	ActionSave
	ActionReset
)

// ParameterPanel draws raygui sliders for the flock parameters and writes
// changes through a ParamSink.
type ParameterPanel struct {
	renderer *Renderer
	sink     ParamSink
	sliders  []SliderSpec
	width    int32
	lastErr  error
}

// NewParameterPanel creates a panel that sends updates to sink.
func NewParameterPanel(sink ParamSink, sliders []SliderSpec, width int32) *ParameterPanel {
	return &ParameterPanel{
		renderer: NewRenderer(),
		sink:     sink,
		sliders:  sliders,
		width:    width,
	}
}

// Height returns the panel height in pixels.
func (p *ParameterPanel) Height() int32 {
	t := p.renderer.Theme
	return t.Padding*3 + t.LineHeight + int32(len(p.sliders))*(t.LineHeight+22) + 30 + t.LineHeight
}

// Width returns the panel width in pixels.
func (p *ParameterPanel) Width() int32 {
	return p.width
}

// Draw renders the panel at (x, y) showing the values in params (usually
// the staged set, so a dragged slider does not snap back before the next
// tick). It returns the button pressed this frame, if any.
func (p *ParameterPanel) Draw(x, y int32, params config.Params) PanelAction {
	r := p.renderer
	t := r.Theme
	r.DrawPanel(x, y, p.width, p.Height())

	cx := x + t.Padding
	cy := r.DrawSectionHeader(cx, y+t.Padding, "Parameters")
	sliderW := float32(p.width - t.Padding*2 - 60)

	for _, s := range p.sliders {
		cur, err := params.Get(s.Name)
		if err != nil {
			continue
		}
		rl.DrawText(s.Label, cx, cy, t.FontSize, t.LabelColor)
		cy += t.LineHeight

		raw := gui.SliderBar(
			rl.Rectangle{X: float32(cx), Y: float32(cy), Width: sliderW, Height: 16},
			"", "",
			float32(cur), float32(s.Min), float32(s.Max),
		)
		rl.DrawText(fmt.Sprintf(s.Format, cur), cx+int32(sliderW)+8, cy+2, t.FontSize, t.ValueColor)
		cy += 22

		if raw == float32(cur) {
			continue
		}
		v := s.Quantize(raw)
		if v == cur {
			continue
		}
		if err := p.sink.ApplyParameterUpdate(s.Name, v); err != nil {
			p.lastErr = err
			slog.Debug("slider update rejected", "name", s.Name, "value", v, "error", err)
		} else {
			p.lastErr = nil
		}
	}

	action := ActionNone
	if gui.Button(rl.Rectangle{X: float32(cx), Y: float32(cy), Width: 80, Height: 24}, "Save") {
		action = ActionSave
	}
	if gui.Button(rl.Rectangle{X: float32(cx + 90), Y: float32(cy), Width: 80, Height: 24}, "Reset") {
		action = ActionReset
	}
	cy += 30

	if p.lastErr != nil {
		rl.DrawText(p.lastErr.Error(), cx, cy, t.FontSize, rl.Red)
	}
	return action
}

// ApplyAll queues every parameter of target through sink. Updates that fail
// because of ordering between coupled bounds (min/max speed, separation and
// perception) are retried once after the rest have been queued.
func ApplyAll(sink ParamSink, target config.Params) error {
	var retry []string
	for _, name := range config.Names() {
		v, _ := target.Get(name)
		if err := sink.ApplyParameterUpdate(name, v); err != nil {
			retry = append(retry, name)
		}
	}

	var errs []error
	for _, name := range retry {
		v, _ := target.Get(name)
		if err := sink.ApplyParameterUpdate(name, v); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
