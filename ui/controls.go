package ui

// ControlRow is one line of the controls panel.
type ControlRow struct {
	Header  bool // section title, no key or state
	Label   string
	Key     string // key label, empty if none
	Toggle  bool   // row has an on/off state
	On      bool
	Synced  bool // state is owned by the simulation parameters
	Overlay OverlayID
}

// cameraHints are the fixed window controls listed under the overlays.
var cameraHints = []ControlRow{
	{Label: "Orbit", Key: "RMB/Arrows"},
	{Label: "Zoom", Key: "Wheel"},
	{Label: "Reset view", Key: "R"},
	{Label: "Pause", Key: "Space"},
}

// ControlRows lists the overlays grouped by category, followed by the camera
// keys. Overlays backed by a parameter are marked Synced.
func ControlRows(overlays *OverlayRegistry) []ControlRow {
	var rows []ControlRow
	for _, cat := range overlays.Categories() {
		rows = append(rows, ControlRow{Header: true, Label: categoryLabel(cat)})
		for _, d := range overlays.ByCategory(cat) {
			rows = append(rows, ControlRow{
				Label:   d.Name,
				Key:     d.KeyLabel,
				Toggle:  true,
				On:      overlays.IsEnabled(d.ID),
				Synced:  d.Param != "",
				Overlay: d.ID,
			})
		}
	}
	rows = append(rows, ControlRow{Header: true, Label: "Camera"})
	return append(rows, cameraHints...)
}

// ControlsPanel lists the overlay toggles, their keys and the camera keys.
type ControlsPanel struct {
	renderer *Renderer
	width    int32
	visible  bool
}

// NewControlsPanel creates a new controls panel.
func NewControlsPanel(width int32) *ControlsPanel {
	return &ControlsPanel{
		renderer: NewRenderer(),
		width:    width,
	}
}

// IsVisible returns whether the panel is shown.
func (c *ControlsPanel) IsVisible() bool {
	return c.visible
}

// Toggle switches panel visibility.
func (c *ControlsPanel) Toggle() bool {
	c.visible = !c.visible
	return c.visible
}

// Draw renders the panel at (x, y) and returns the Y below it.
func (c *ControlsPanel) Draw(x, y int32, overlays *OverlayRegistry) int32 {
	if !c.visible {
		return y
	}

	r := c.renderer
	t := r.Theme
	rows := ControlRows(overlays)

	height := t.Padding * 2
	for _, row := range rows {
		height += rowHeight(t, row)
	}
	r.DrawPanel(x, y, c.width, height)

	cx, cy := x+t.Padding, y+t.Padding
	inner := c.width - t.Padding*2
	for _, row := range rows {
		switch {
		case row.Header:
			cy = r.DrawSectionHeader(cx, cy, row.Label)
		case row.Toggle:
			cy = r.DrawToggleRow(cx, cy, inner, row.Label, row.Key, row.On, row.Synced)
		default:
			cy = r.DrawKeyHint(cx, cy, inner, row.Label, row.Key)
		}
	}
	return cy
}

func rowHeight(t Theme, row ControlRow) int32 {
	if row.Header {
		return t.LineHeight + 2
	}
	return t.LineHeight
}

// categoryLabel returns a display label for a category.
func categoryLabel(cat string) string {
	switch cat {
	case "scene":
		return "Scene"
	case "panels":
		return "Panels"
	default:
		return cat
	}
}
