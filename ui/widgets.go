package ui

import (
	rl "github.com/gen2brain/raylib-go/raylib"
)

// Renderer handles all UI drawing with consistent styling.
type Renderer struct {
	Theme Theme
}

// NewRenderer creates a renderer with the default theme.
func NewRenderer() *Renderer {
	return &Renderer{Theme: DefaultTheme()}
}

// DrawPanel draws a panel background with border.
func (r *Renderer) DrawPanel(x, y, width, height int32) {
	rl.DrawRectangle(x, y, width, height, r.Theme.PanelBg)
	rl.DrawRectangleLines(x, y, width, height, r.Theme.PanelBorder)
}

// DrawSectionHeader draws a section header and returns the new Y position.
func (r *Renderer) DrawSectionHeader(x, y int32, title string) int32 {
	rl.DrawText(title, x, y, r.Theme.HeaderFontSize, r.Theme.SectionHeader)
	return y + r.Theme.LineHeight + 2
}

// DrawLabelValue draws a label and value on the same line.
func (r *Renderer) DrawLabelValue(x, y int32, label, value string) int32 {
	rl.DrawText(label+":", x, y, r.Theme.FontSize, r.Theme.LabelColor)
	rl.DrawText(value, x+r.Theme.LabelWidth, y, r.Theme.FontSize, r.Theme.ValueColor)
	return y + r.Theme.LineHeight
}

// DrawBar draws a horizontal bar for a [0, 1] fraction with a text value.
// Fractions above warn are drawn in the high colour.
func (r *Renderer) DrawBar(x, y int32, label, value string, frac, warn float32, width int32) int32 {
	frac = min(max(frac, 0), 1)

	barX := x + r.Theme.LabelWidth
	barWidth := width - r.Theme.LabelWidth - 60

	rl.DrawText(label+":", x, y, r.Theme.FontSize, r.Theme.LabelColor)
	rl.DrawRectangle(barX, y+2, barWidth, r.Theme.BarHeight, r.Theme.BarBg)

	fill := r.Theme.BarFill
	if frac > warn {
		fill = r.Theme.BarFillHigh
	}
	rl.DrawRectangle(barX, y+2, int32(float32(barWidth)*frac), r.Theme.BarHeight, fill)
	rl.DrawText(value, barX+barWidth+5, y, r.Theme.FontSize, r.Theme.ValueColor)

	return y + r.Theme.LineHeight + 2
}

// DrawToggleRow draws an on/off indicator, a label and a right-aligned key.
// synced rows get an outlined indicator: their state follows the simulation
// parameters and may change without a key press.
func (r *Renderer) DrawToggleRow(x, y, width int32, label, key string, on, synced bool) int32 {
	t := r.Theme
	state, text := t.ToggleOff, t.LabelColor
	if on {
		state, text = t.ToggleOn, rl.White
	}
	rl.DrawRectangle(x, y+2, 8, 8, state)
	if synced {
		rl.DrawRectangleLines(x-1, y+1, 10, 10, t.SyncedColor)
	}
	rl.DrawText(label, x+14, y, t.FontSize, text)
	r.drawKey(x+width, y, key)
	return y + t.LineHeight
}

// DrawKeyHint draws a label with its right-aligned key binding.
func (r *Renderer) DrawKeyHint(x, y, width int32, label, key string) int32 {
	rl.DrawText(label, x+14, y, r.Theme.FontSize, r.Theme.LabelColor)
	r.drawKey(x+width, y, key)
	return y + r.Theme.LineHeight
}

// drawKey right-aligns "[key]" so it ends at right.
func (r *Renderer) drawKey(right, y int32, key string) {
	if key == "" {
		return
	}
	text := "[" + key + "]"
	rl.DrawText(text, right-rl.MeasureText(text, r.Theme.FontSize), y, r.Theme.FontSize, r.Theme.KeyColor)
}
