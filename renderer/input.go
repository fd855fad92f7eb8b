package renderer

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/boids/camera"
)

const (
	orbitPerPixel = 0.005 // radians per pixel of mouse drag
	orbitPerKey   = 0.03  // radians per frame while an arrow key is held
	zoomStep      = 1.1   // distance factor per wheel notch
)

// HandleCameraInput orbits the camera with a right-button drag or the arrow
// keys, zooms with the wheel and resets it with R.
func HandleCameraInput(cam *camera.Camera) {
	if rl.IsMouseButtonDown(rl.MouseRightButton) {
		delta := rl.GetMouseDelta()
		cam.Orbit(-float64(delta.X)*orbitPerPixel, float64(delta.Y)*orbitPerPixel)
	}

	var dYaw, dPitch float64
	if rl.IsKeyDown(rl.KeyLeft) {
		dYaw -= orbitPerKey
	}
	if rl.IsKeyDown(rl.KeyRight) {
		dYaw += orbitPerKey
	}
	if rl.IsKeyDown(rl.KeyUp) {
		dPitch += orbitPerKey
	}
	if rl.IsKeyDown(rl.KeyDown) {
		dPitch -= orbitPerKey
	}
	if dYaw != 0 || dPitch != 0 {
		cam.Orbit(dYaw, dPitch)
	}

	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		cam.ZoomBy(ZoomFactor(wheel))
	}

	if rl.IsKeyPressed(rl.KeyR) {
		cam.Reset()
	}
}

// ZoomFactor converts wheel notches into a distance divisor.
func ZoomFactor(wheel float32) float64 {
	return math.Pow(zoomStep, float64(wheel))
}
