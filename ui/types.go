// Package ui draws the 2D layer over the 3D flock view: the HUD, the overlay
// toggles and the parameter slider panel. Widgets are described by data so
// the panel follows the parameter table rather than hard-coded layouts.
package ui

import rl "github.com/gen2brain/raylib-go/raylib"

// PanelAnchor specifies where a panel is anchored on screen.
type PanelAnchor int

const (
	AnchorTopLeft PanelAnchor = iota
	AnchorTopRight
	AnchorBottomLeft
	AnchorBottomRight
)

// Theme holds UI styling constants.
type Theme struct {
	PanelBg        rl.Color
	PanelBorder    rl.Color
	SectionHeader  rl.Color
	LabelColor     rl.Color
	ValueColor     rl.Color
	BarBg          rl.Color
	BarFill        rl.Color
	BarFillHigh    rl.Color
	ToggleOn       rl.Color
	ToggleOff      rl.Color
	KeyColor       rl.Color
	SyncedColor    rl.Color // marks toggles owned by simulation parameters
	Padding        int32
	LineHeight     int32
	LabelWidth     int32
	BarHeight      int32
	FontSize       int32
	HeaderFontSize int32
}

// DefaultTheme returns the default UI theme.
func DefaultTheme() Theme {
	return Theme{
		PanelBg:        rl.Color{R: 20, G: 25, B: 30, A: 220},
		PanelBorder:    rl.Color{R: 60, G: 70, B: 80, A: 255},
		SectionHeader:  rl.Yellow,
		LabelColor:     rl.LightGray,
		ValueColor:     rl.LightGray,
		BarBg:          rl.Color{R: 40, G: 40, B: 40, A: 255},
		BarFill:        rl.Color{R: 100, G: 150, B: 200, A: 255},
		BarFillHigh:    rl.Color{R: 200, G: 100, B: 100, A: 255},
		ToggleOn:       rl.Color{R: 100, G: 200, B: 100, A: 255},
		ToggleOff:      rl.Color{R: 80, G: 80, B: 80, A: 255},
		KeyColor:       rl.Color{R: 150, G: 150, B: 150, A: 255},
		SyncedColor:    rl.Color{R: 100, G: 150, B: 200, A: 255},
		Padding:        10,
		LineHeight:     16,
		LabelWidth:     90,
		BarHeight:      10,
		FontSize:       12,
		HeaderFontSize: 14,
	}
}

// Anchor returns the top-left corner of a w×h panel anchored inside a
// screen of the given size, inset by margin.
func Anchor(a PanelAnchor, screenW, screenH, w, h, margin int32) (x, y int32) {
	switch a {
	case AnchorTopRight:
		return screenW - w - margin, margin
	case AnchorBottomLeft:
		return margin, screenH - h - margin
	case AnchorBottomRight:
		return screenW - w - margin, screenH - h - margin
	default:
		return margin, margin
	}
}
