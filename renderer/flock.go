// Package renderer draws the flock in 3D with raylib.
package renderer

import (
	"fmt"
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/boids/camera"
	"github.com/pthm-cable/boids/components"
	"github.com/pthm-cable/boids/config"
)

// FlockView is the read side of the simulation the renderer draws from.
type FlockView interface {
	Len() int
	Positions(dst []float64) []float64
	DistancesTo(ref r3.Vec, dst []float64) []float64
	Neighbors(i int, dst []int) []int
	Attractor() components.Attractor
	HalfExtent() float64
}

// DrawOptions selects the optional scene layers.
type DrawOptions struct {
	NeighborLines bool
	Labels        bool
	Bounds        bool
}

const (
	agentSize       = 2
	attractorRadius = 5
	fovy            = 75

	// The attractor scale walks between pulseMin and pulseMax and back once
	// per pulsePeriod seconds.
	pulseMin    = 0.8
	pulseMax    = 1.2
	pulsePeriod = 2.4
)

// FlockRenderer draws agents coloured by camera distance, the attractor and
// the optional overlays.
type FlockRenderer struct {
	cam        *camera.Camera
	background rl.Color
	maxLines   int
	maxLabels  int

	// Per-frame scratch
	positions []float64
	dists     []float64
	neighbors []int
}

// NewFlockRenderer creates a renderer that views the flock through cam.
func NewFlockRenderer(cfg *config.Config, cam *camera.Camera) *FlockRenderer {
	bg := cfg.Derived.Background
	return &FlockRenderer{
		cam:        cam,
		background: rl.Color{R: bg[0], G: bg[1], B: bg[2], A: 255},
		maxLines:   cfg.Display.MaxNeighborLines,
		maxLabels:  cfg.Display.MaxLabels,
	}
}

// Camera returns the camera the renderer views through.
func (f *FlockRenderer) Camera() *camera.Camera {
	return f.cam
}

// Draw renders one frame of the scene. now is the wall time in seconds and
// drives the attractor pulse. Must be called between BeginDrawing and
// EndDrawing.
func (f *FlockRenderer) Draw(view FlockView, opts DrawOptions, now float64) {
	rl.ClearBackground(f.background)

	n := view.Len()
	f.positions = view.Positions(f.positions)
	f.dists = view.DistancesTo(f.cam.Position(), f.dists)

	cam3d := Camera3D(f.cam)
	rl.BeginMode3D(cam3d)

	if opts.Bounds {
		edge := float32(2 * view.HalfExtent())
		rl.DrawCubeWires(rl.Vector3{}, edge, edge, edge, rl.Color{R: 80, G: 80, B: 90, A: 255})
	}

	for i := 0; i < n; i++ {
		c := f.cam.DepthColor(f.dists[i])
		rl.DrawCube(f.agentPos(i), agentSize, agentSize, agentSize, rl.Color{R: c[0], G: c[1], B: c[2], A: 255})
	}

	a := view.Attractor()
	rl.DrawSphere(ToVector3(a.Position), float32(attractorRadius*AttractorPulse(now)), rl.Red)

	if opts.NeighborLines {
		f.drawNeighborLines(view, n)
	}

	rl.EndMode3D()

	if opts.Labels {
		f.drawLabels(cam3d, n)
	}
}

// drawNeighborLines links each of the first agents to its neighbours.
func (f *FlockRenderer) drawNeighborLines(view FlockView, n int) {
	lineColor := rl.Color{R: 120, G: 160, B: 220, A: 90}
	for i := 0; i < min(n, f.maxLines); i++ {
		f.neighbors = view.Neighbors(i, f.neighbors[:0])
		from := f.agentPos(i)
		for _, j := range f.neighbors {
			rl.DrawLine3D(from, f.agentPos(j), lineColor)
		}
	}
}

// drawLabels writes the coordinates of the first agents next to them.
func (f *FlockRenderer) drawLabels(cam3d rl.Camera3D, n int) {
	for i := 0; i < min(n, f.maxLabels); i++ {
		p := f.agentPos(i)
		s := rl.GetWorldToScreen(p, cam3d)
		text := fmt.Sprintf("(%.0f, %.0f, %.0f)", p.X, p.Y, p.Z)
		rl.DrawText(text, int32(s.X)+4, int32(s.Y)-4, 10, rl.LightGray)
	}
}

// agentPos reads agent i from the flat position buffer.
func (f *FlockRenderer) agentPos(i int) rl.Vector3 {
	return rl.Vector3{
		X: float32(f.positions[3*i]),
		Y: float32(f.positions[3*i+1]),
		Z: float32(f.positions[3*i+2]),
	}
}

// Camera3D converts the orbit camera to a raylib camera.
func Camera3D(c *camera.Camera) rl.Camera3D {
	return rl.Camera3D{
		Position:   ToVector3(c.Position()),
		Target:     ToVector3(c.Target),
		Up:         rl.Vector3{Y: 1},
		Fovy:       fovy,
		Projection: rl.CameraPerspective,
	}
}

// ToVector3 converts a vector to raylib's float32 form.
func ToVector3(v r3.Vec) rl.Vector3 {
	return rl.Vector3{X: float32(v.X), Y: float32(v.Y), Z: float32(v.Z)}
}

// AttractorPulse returns the attractor's scale at time t seconds: a
// triangle wave between 0.8 and 1.2 starting at 1 and rising.
func AttractorPulse(t float64) float64 {
	phase := math.Mod(t/pulsePeriod+0.25, 1)
	if phase < 0 {
		phase++
	}
	// 0 → min, 0.5 → max, 1 → min
	tri := 1 - math.Abs(2*phase-1)
	return pulseMin + (pulseMax-pulseMin)*tri
}
