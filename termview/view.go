// Package termview renders the flock in a terminal with tcell. It projects
// agents onto character cells, shades them by camera distance and drives
// the simulation from its own ticker.
package termview

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/gdamore/tcell/v2"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/boids/camera"
	"github.com/pthm-cable/boids/components"
	"github.com/pthm-cable/boids/config"
)

// Sim is the simulation surface the view drives and reads.
type Sim interface {
	Step(frame time.Duration)
	Len() int
	Positions(dst []float64) []float64
	Neighbors(i int, dst []int) []int
	Attractor() components.Attractor
	Tick() int64
	FPS() float64
	StagedParams() config.Params
	ApplyParameterUpdate(name string, value float64) error
}

// Options configures a View.
type Options struct {
	TickRate         time.Duration // time between steps; 0 means 33ms
	MaxNeighborLines int
	MaxLabels        int
	MaxPopulation    int
	Background       [3]uint8
}

const (
	attractorStep  = 0.1
	populationStep = 50
	zoomStep       = 1.1
	orbitStep      = 0.05
)

// View is a terminal front end for one simulation.
type View struct {
	screen tcell.Screen
	sim    Sim
	cam    *camera.Camera
	opts   Options

	paused    bool
	status    string
	lastFrame time.Time

	// Per-frame scratch
	positions []float64
	neighbors []int
	depth     []float64
}

// New creates a view drawing sim onto an initialised screen.
func New(screen tcell.Screen, sim Sim, cam *camera.Camera, opts Options) *View {
	if opts.TickRate <= 0 {
		opts.TickRate = 33 * time.Millisecond
	}
	return &View{
		screen: screen,
		sim:    sim,
		cam:    cam,
		opts:   opts,
	}
}

// Run steps and draws until the user quits or ctx is cancelled.
// The event reader stays blocked in PollEvent until the caller finalises
// the screen.
func (v *View) Run(ctx context.Context) error {
	events := make(chan tcell.Event, 16)
	quit := make(chan struct{})
	defer close(quit)

	go func() {
		for {
			ev := v.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-quit:
				return
			}
		}
	}()

	ticker := time.NewTicker(v.opts.TickRate)
	defer ticker.Stop()

	v.Draw()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-events:
			if !v.HandleEvent(ev) {
				return nil
			}
			v.Draw()
		case now := <-ticker.C:
			var frame time.Duration
			if !v.lastFrame.IsZero() {
				frame = now.Sub(v.lastFrame)
			}
			v.lastFrame = now
			v.Advance(frame)
			v.Draw()
		}
	}
}

// Advance steps the simulation once unless paused.
func (v *View) Advance(frame time.Duration) {
	if v.paused {
		return
	}
	v.sim.Step(frame)
}

// Paused reports whether stepping is paused.
func (v *View) Paused() bool {
	return v.paused
}

// Status returns the last status message.
func (v *View) Status() string {
	return v.status
}

// HandleEvent processes one input event. It returns false when the user
// asked to quit.
func (v *View) HandleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		return v.handleKey(ev)
	case *tcell.EventResize:
		v.screen.Sync()
	}
	return true
}

func (v *View) handleKey(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return false
	case tcell.KeyLeft:
		v.cam.Orbit(-orbitStep, 0)
	case tcell.KeyRight:
		v.cam.Orbit(orbitStep, 0)
	case tcell.KeyUp:
		v.cam.Orbit(0, orbitStep)
	case tcell.KeyDown:
		v.cam.Orbit(0, -orbitStep)
	case tcell.KeyRune:
		return v.handleRune(ev.Rune())
	}
	return true
}

func (v *View) handleRune(r rune) bool {
	p := v.sim.StagedParams()
	switch r {
	case 'q':
		return false
	case ' ':
		v.paused = !v.paused
	case '+', '=':
		v.cam.ZoomBy(zoomStep)
	case '-':
		v.cam.ZoomBy(1 / zoomStep)
	case 'r':
		v.cam.Reset()
	case 'n':
		v.apply(config.ParamShowNeighborLines, toggle(p.ShowNeighborLines))
	case 'l':
		v.apply(config.ParamShowLabels, toggle(p.ShowLabels))
	case '[':
		v.apply(config.ParamAttractorStrength, p.AttractorStrength-attractorStep)
	case ']':
		v.apply(config.ParamAttractorStrength, p.AttractorStrength+attractorStep)
	case '<':
		v.apply(config.ParamPopulation, float64(max(p.Population-populationStep, 1)))
	case '>':
		v.apply(config.ParamPopulation, float64(min(p.Population+populationStep, v.opts.MaxPopulation)))
	}
	return true
}

func (v *View) apply(name string, value float64) {
	if err := v.sim.ApplyParameterUpdate(name, value); err != nil {
		v.status = err.Error()
		return
	}
	v.status = fmt.Sprintf("%s = %g", name, value)
}

func toggle(b bool) float64 {
	if b {
		return 0
	}
	return 1
}

// Draw renders the current state and shows it.
func (v *View) Draw() {
	w, h := v.screen.Size()
	bg := tcell.NewRGBColor(int32(v.opts.Background[0]), int32(v.opts.Background[1]), int32(v.opts.Background[2]))
	base := tcell.StyleDefault.Background(bg).Foreground(tcell.ColorBlack)
	v.screen.Fill(' ', base)
	if w <= 0 || h <= 1 {
		v.screen.Show()
		return
	}

	sceneH := h - 1
	pr := NewProjector(v.cam, w, sceneH)
	params := v.sim.StagedParams()
	n := v.sim.Len()
	v.positions = v.sim.Positions(v.positions)

	if params.ShowNeighborLines {
		v.drawNeighborLines(pr, n, base)
	}
	v.drawAgents(pr, n, w, sceneH, base)

	if x, y, _, ok := pr.Project(v.sim.Attractor().Position); ok {
		v.screen.SetContent(x, y, 'O', nil, base.Foreground(tcell.ColorRed))
	}

	if params.ShowLabels {
		v.drawLabels(pr, n, w, base)
	}
	v.drawHUD(w, h-1, base)
	v.screen.Show()
}

// drawAgents plots every visible agent, keeping the nearest per cell.
func (v *View) drawAgents(pr Projector, n, w, h int, base tcell.Style) {
	cells := w * h
	if cap(v.depth) < cells {
		v.depth = make([]float64, cells)
	}
	v.depth = v.depth[:cells]
	for i := range v.depth {
		v.depth[i] = math.Inf(1)
	}

	eye := v.cam.Position()
	for i := 0; i < n; i++ {
		p := v.agentPos(i)
		x, y, d, ok := pr.Project(p)
		if !ok || d >= v.depth[y*w+x] {
			continue
		}
		v.depth[y*w+x] = d

		dist := r3.Norm(r3.Sub(p, eye))
		c := v.cam.DepthColor(dist)
		style := base.Foreground(tcell.NewRGBColor(int32(c[0]), int32(c[1]), int32(c[2])))
		v.screen.SetContent(x, y, Glyph(v.cam.DepthT(dist)), nil, style)
	}
}

// drawNeighborLines links each of the first agents to its neighbours.
func (v *View) drawNeighborLines(pr Projector, n int, base tcell.Style) {
	style := base.Foreground(tcell.NewRGBColor(120, 160, 220))
	plot := func(x, y int) {
		if x >= 0 && x < pr.w && y >= 0 && y < pr.h {
			v.screen.SetContent(x, y, '·', nil, style)
		}
	}
	for i := 0; i < min(n, v.opts.MaxNeighborLines); i++ {
		x0, y0, _, ok := pr.Project(v.agentPos(i))
		if !ok {
			continue
		}
		v.neighbors = v.sim.Neighbors(i, v.neighbors[:0])
		for _, j := range v.neighbors {
			if x1, y1, _, ok := pr.Project(v.agentPos(j)); ok {
				line(x0, y0, x1, y1, plot)
			}
		}
	}
}

// drawLabels writes the coordinates of the first agents next to them.
func (v *View) drawLabels(pr Projector, n, w int, base tcell.Style) {
	style := base.Foreground(tcell.ColorGray)
	for i := 0; i < min(n, v.opts.MaxLabels); i++ {
		p := v.agentPos(i)
		x, y, _, ok := pr.Project(p)
		if !ok {
			continue
		}
		v.drawText(x+2, y, w, fmt.Sprintf("(%.0f,%.0f,%.0f)", p.X, p.Y, p.Z), style)
	}
}

func (v *View) drawHUD(w, y int, base tcell.Style) {
	style := base.Background(tcell.ColorBlack).Foreground(tcell.ColorWhite)
	for x := 0; x < w; x++ {
		v.screen.SetContent(x, y, ' ', nil, style)
	}
	state := ""
	if v.paused {
		state = " PAUSED"
	}
	text := fmt.Sprintf("agents %d  tick %d  fps %.0f  attractor %+.2f%s  %s",
		v.sim.Len(), v.sim.Tick(), v.sim.FPS(), v.sim.StagedParams().AttractorStrength, state, v.status)
	v.drawText(0, y, w, text, style)
}

func (v *View) drawText(x, y, w int, text string, style tcell.Style) {
	for _, r := range text {
		if x >= w {
			return
		}
		if x >= 0 {
			v.screen.SetContent(x, y, r, nil, style)
		}
		x++
	}
}

// agentPos reads agent i from the flat position buffer.
func (v *View) agentPos(i int) r3.Vec {
	return r3.Vec{X: v.positions[3*i], Y: v.positions[3*i+1], Z: v.positions[3*i+2]}
}
