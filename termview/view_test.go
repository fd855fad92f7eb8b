package termview

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/boids/camera"
	"github.com/pthm-cable/boids/config"
	"github.com/pthm-cable/boids/game"
)

func newTestView(t *testing.T, population int) (*View, *game.Game, tcell.SimulationScreen) {
	t.Helper()

	cfg := config.Default()
	cfg.Flock.InitialPopulation = population
	cfg.Governor.Enabled = false

	g, err := game.NewGame(cfg, game.Options{Seed: 7})
	require.NoError(t, err)
	t.Cleanup(func() { g.Close() })

	screen := tcell.NewSimulationScreen("UTF-8")
	require.NoError(t, screen.Init())
	t.Cleanup(screen.Fini)
	screen.SetSize(80, 24)

	v := New(screen, g, camera.FromConfig(cfg), Options{
		MaxNeighborLines: cfg.Display.MaxNeighborLines,
		MaxLabels:        cfg.Display.MaxLabels,
		MaxPopulation:    cfg.Flock.MaxPopulation,
		Background:       cfg.Derived.Background,
	})
	return v, g, screen
}

func key(r rune) *tcell.EventKey {
	return tcell.NewEventKey(tcell.KeyRune, r, tcell.ModNone)
}

func rowText(screen tcell.SimulationScreen, y, w int) string {
	var sb strings.Builder
	for x := 0; x < w; x++ {
		r, _, _, _ := screen.GetContent(x, y)
		sb.WriteRune(r)
	}
	return sb.String()
}

func TestDrawShowsAttractorAndHUD(t *testing.T) {
	v, _, screen := newTestView(t, 0)

	v.Draw()

	// Camera at (0, 0, 100) looking at the origin; the scene is 23 rows.
	r, _, style, _ := screen.GetContent(40, 11)
	assert.Equal(t, 'O', r)
	fg, _, _ := style.Decompose()
	assert.Equal(t, tcell.ColorRed, fg)

	assert.True(t, strings.HasPrefix(rowText(screen, 23, 80), "agents 0  tick 0"))
}

func TestDrawPlotsAgents(t *testing.T) {
	v, g, screen := newTestView(t, 300)
	v.Draw()

	var plotted int
	for y := 0; y < 23; y++ {
		for x := 0; x < 80; x++ {
			r, _, _, _ := screen.GetContent(x, y)
			if strings.ContainsRune(string(depthGlyphs), r) {
				plotted++
			}
		}
	}
	assert.Positive(t, plotted)
	assert.LessOrEqual(t, plotted, g.Len())
}

func TestKeysQueueParameterUpdates(t *testing.T) {
	v, g, _ := newTestView(t, 100)
	before := g.Params().AttractorStrength

	assert.True(t, v.HandleEvent(key(']')))
	assert.InDelta(t, before+attractorStep, g.StagedParams().AttractorStrength, 1e-12)
	assert.InDelta(t, before, g.Params().AttractorStrength, 1e-12, "applied at the next step")

	assert.True(t, v.HandleEvent(key('n')))
	assert.True(t, v.HandleEvent(key('>')))

	v.Advance(0)
	p := g.Params()
	assert.InDelta(t, before+attractorStep, p.AttractorStrength, 1e-12)
	assert.True(t, p.ShowNeighborLines)
	assert.Equal(t, 150, g.Len())
	assert.Contains(t, v.Status(), config.ParamPopulation)
}

func TestPopulationKeyStaysPositive(t *testing.T) {
	v, g, _ := newTestView(t, 10)

	v.HandleEvent(key('<'))
	v.Advance(0)
	assert.Equal(t, 1, g.Len())
}

func TestPauseStopsStepping(t *testing.T) {
	v, g, _ := newTestView(t, 20)

	v.Advance(0)
	require.EqualValues(t, 1, g.Tick())

	v.HandleEvent(key(' '))
	assert.True(t, v.Paused())
	v.Advance(0)
	assert.EqualValues(t, 1, g.Tick())

	v.HandleEvent(key(' '))
	v.Advance(0)
	assert.EqualValues(t, 2, g.Tick())
}

func TestQuitKeys(t *testing.T) {
	v, _, _ := newTestView(t, 0)

	assert.False(t, v.HandleEvent(key('q')))
	assert.False(t, v.HandleEvent(tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone)))
	assert.False(t, v.HandleEvent(tcell.NewEventKey(tcell.KeyCtrlC, 0, tcell.ModNone)))
}

func TestCameraKeys(t *testing.T) {
	v, _, _ := newTestView(t, 0)
	d := v.cam.Distance

	v.HandleEvent(key('+'))
	assert.Less(t, v.cam.Distance, d)

	yaw := v.cam.Yaw
	v.HandleEvent(tcell.NewEventKey(tcell.KeyRight, 0, tcell.ModNone))
	assert.InDelta(t, yaw+orbitStep, v.cam.Yaw, 1e-12)

	v.HandleEvent(key('r'))
	assert.InDelta(t, d, v.cam.Distance, 1e-9)
}

func TestRunStopsOnCancel(t *testing.T) {
	v, g, _ := newTestView(t, 50)
	v.opts.TickRate = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- v.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.Positive(t, g.Tick())
}

func TestProjector(t *testing.T) {
	cam := camera.New(r3.Vec{Z: 100}, r3.Vec{})
	pr := NewProjector(cam, 80, 24)

	x, y, depth, ok := pr.Project(r3.Vec{})
	require.True(t, ok)
	assert.Equal(t, 40, x)
	assert.Equal(t, 12, y)
	assert.InDelta(t, 100, depth, 1e-9)

	xr, _, _, ok := pr.Project(r3.Vec{X: 10})
	require.True(t, ok)
	assert.Greater(t, xr, x, "+X is to the right")

	_, yu, _, ok := pr.Project(r3.Vec{Y: 10})
	require.True(t, ok)
	assert.Less(t, yu, y, "+Y is up")

	_, _, _, ok = pr.Project(r3.Vec{Z: 150})
	assert.False(t, ok, "behind the camera")

	_, _, _, ok = pr.Project(r3.Vec{X: 1e6})
	assert.False(t, ok, "off screen")
}

func TestGlyph(t *testing.T) {
	assert.Equal(t, '@', Glyph(0))
	assert.Equal(t, '.', Glyph(1))
	assert.Equal(t, '+', Glyph(0.5))
	assert.Equal(t, '@', Glyph(-3))
}

func TestLine(t *testing.T) {
	var got [][2]int
	line(0, 0, 3, 1, func(x, y int) { got = append(got, [2]int{x, y}) })

	require.Len(t, got, 4)
	assert.Equal(t, [2]int{0, 0}, got[0])
	assert.Equal(t, [2]int{3, 1}, got[3])

	got = got[:0]
	line(2, 2, 2, 2, func(x, y int) { got = append(got, [2]int{x, y}) })
	assert.Equal(t, [][2]int{{2, 2}}, got)
}
