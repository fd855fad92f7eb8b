package ui

import (
	"fmt"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/boids/telemetry"
)

// HUDData holds all the data needed to render the main HUD.
type HUDData struct {
	Title        string
	Population   int
	Tick         int64
	FPS          float64 // governor estimate over its window
	Strategy     string  // neighbour strategy name
	Attractor    float64 // attractor strength
	Paused       bool
	ScreenWidth  int32
	ScreenHeight int32
}

// HUD renders the main heads-up display.
type HUD struct {
	renderer *Renderer
}

// NewHUD creates a new HUD renderer.
func NewHUD() *HUD {
	return &HUD{
		renderer: NewRenderer(),
	}
}

// Draw renders the HUD.
func (h *HUD) Draw(data HUDData) {
	rl.DrawText(data.Title, 10, 10, 20, rl.White)

	rl.DrawText(
		fmt.Sprintf("Agents: %d | Tick: %d | FPS: %.0f", data.Population, data.Tick, data.FPS),
		10, 35, 16, rl.LightGray,
	)
	rl.DrawText(
		fmt.Sprintf("Neighbours: %s | Attractor: %+.2f", data.Strategy, data.Attractor),
		10, 55, 16, rl.LightGray,
	)

	statusText := "Running"
	if data.Paused {
		statusText = "PAUSED"
	}
	rl.DrawText(statusText, 10, 75, 16, rl.Yellow)
}

// DrawControls renders the control legend at the bottom of the screen.
func (h *HUD) DrawControls(screenWidth, screenHeight int32, controls string) {
	rl.DrawText(controls, 10, screenHeight-25, 14, rl.Gray)
}

// PerfPanel renders the tick phase breakdown.
type PerfPanel struct {
	renderer *Renderer
	width    int32
}

// NewPerfPanel creates a new performance panel.
func NewPerfPanel(width int32) *PerfPanel {
	return &PerfPanel{
		renderer: NewRenderer(),
		width:    width,
	}
}

// Height returns the panel height in pixels.
func (p *PerfPanel) Height() int32 {
	t := p.renderer.Theme
	return t.Padding*2 + t.LineHeight*2 + 4 + int32(len(telemetry.Phases()))*(t.LineHeight+2)
}

// Draw renders the performance panel at (x, y).
func (p *PerfPanel) Draw(x, y int32, stats telemetry.PerfStats) {
	r := p.renderer
	t := r.Theme
	r.DrawPanel(x, y, p.width, p.Height())

	cx := x + t.Padding
	cy := r.DrawSectionHeader(cx, y+t.Padding, "Tick Phases")
	cy = r.DrawLabelValue(cx, cy, "Tick", fmt.Sprintf("%s (%.0f/s)",
		stats.AvgTickDuration.Round(time.Microsecond), stats.TicksPerSecond))

	for _, phase := range telemetry.Phases() {
		pct := stats.PhasePct[phase]
		cy = r.DrawBar(cx, cy, phase, fmt.Sprintf("%5.1f%%", pct), float32(pct/100), 0.5, p.width-t.Padding*2)
	}
}
