package termview

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/boids/camera"
)

const (
	fovy       = 75 * math.Pi / 180
	nearPlane  = 0.1
	cellAspect = 2.0 // terminal cells are about twice as tall as wide
)

// Projector maps world points onto a w×h grid of terminal cells as seen
// from an orbit camera. Build one per frame; it caches the camera basis.
type Projector struct {
	eye                r3.Vec
	forward, right, up r3.Vec
	focal              float64 // rows per unit at depth 1
	cx, cy             float64
	w, h               int
}

// NewProjector creates a projector for cam and a w×h cell grid.
func NewProjector(cam *camera.Camera, w, h int) Projector {
	eye := cam.Position()
	fwd := r3.Unit(r3.Sub(cam.Target, eye))
	right := r3.Cross(fwd, r3.Vec{Y: 1})
	if r3.Norm(right) == 0 {
		right = r3.Vec{X: 1}
	}
	right = r3.Unit(right)
	up := r3.Cross(right, fwd)

	return Projector{
		eye:     eye,
		forward: fwd,
		right:   right,
		up:      up,
		focal:   float64(h) / 2 / math.Tan(fovy/2),
		cx:      float64(w) / 2,
		cy:      float64(h) / 2,
		w:       w,
		h:       h,
	}
}

// Project returns the cell for p and its depth along the view axis.
// ok is false for points behind the camera or off the grid.
func (pr Projector) Project(p r3.Vec) (x, y int, depth float64, ok bool) {
	rel := r3.Sub(p, pr.eye)
	depth = r3.Dot(rel, pr.forward)
	if !(depth > nearPlane) {
		return 0, 0, depth, false
	}
	sx := pr.cx + r3.Dot(rel, pr.right)/depth*pr.focal*cellAspect
	sy := pr.cy - r3.Dot(rel, pr.up)/depth*pr.focal
	x, y = int(math.Floor(sx)), int(math.Floor(sy))
	if x < 0 || x >= pr.w || y < 0 || y >= pr.h {
		return x, y, depth, false
	}
	return x, y, depth, true
}

// depthGlyphs runs from nearest to farthest.
var depthGlyphs = []rune{'@', '#', '*', '+', ':', '.'}

// Glyph picks the character for an agent at ramp position t in [0, 1].
func Glyph(t float64) rune {
	if math.IsNaN(t) || t < 0 {
		t = 0
	}
	i := int(t * float64(len(depthGlyphs)))
	if i >= len(depthGlyphs) {
		i = len(depthGlyphs) - 1
	}
	return depthGlyphs[i]
}

// line calls plot for every cell on the segment from (x0, y0) to (x1, y1).
func line(x0, y0, x1, y1 int, plot func(x, y int)) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	for {
		plot(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
