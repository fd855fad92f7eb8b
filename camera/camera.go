// Package camera provides an orbit camera and the depth colour ramp for the 3D view.
package camera

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/boids/config"
)

// Camera orbits a target point. Yaw turns around the Y axis, pitch tilts
// towards the poles; yaw 0 and pitch 0 look down -Z from +Z.
type Camera struct {
	Target   r3.Vec
	Yaw      float64 // radians
	Pitch    float64 // radians, kept inside (-pi/2, pi/2)
	Distance float64

	// Zoom constraints
	MinDistance, MaxDistance float64

	// Depth colour ramp: distance RampNear maps to NearRGB, RampFar to FarRGB.
	RampNear, RampFar float64
	NearRGB, FarRGB   [3]uint8

	home r3.Vec
}

// maxPitch stops the camera just short of the poles.
const maxPitch = math.Pi/2 - 0.01

// New creates a camera at pos looking at target.
func New(pos, target r3.Vec) *Camera {
	c := &Camera{
		Target:      target,
		MinDistance: 10,
		MaxDistance: 2000,
		RampNear:    0,
		RampFar:     500,
		NearRGB:     [3]uint8{0x00, 0x00, 0x00},
		FarRGB:      [3]uint8{0xcc, 0xcc, 0xcc},
		home:        pos,
	}
	c.SetPosition(pos)
	return c
}

// FromConfig creates a camera from the display config, looking at the attractor.
func FromConfig(cfg *config.Config) *Camera {
	c := New(
		r3.Vec{X: cfg.Display.CameraX, Y: cfg.Display.CameraY, Z: cfg.Display.CameraZ},
		r3.Vec{X: cfg.Attractor.X, Y: cfg.Attractor.Y, Z: cfg.Attractor.Z},
	)
	c.RampNear = cfg.Display.MinDistance
	c.RampFar = cfg.Display.MaxDistance
	c.NearRGB = cfg.Derived.NearRGB
	c.FarRGB = cfg.Derived.FarRGB
	return c
}

// SetPosition places the camera at pos, keeping the target.
func (c *Camera) SetPosition(pos r3.Vec) {
	d := r3.Sub(pos, c.Target)
	c.Distance = r3.Norm(d)
	if c.Distance == 0 {
		c.Yaw, c.Pitch = 0, 0
		c.Distance = c.MinDistance
		return
	}
	c.Yaw = math.Atan2(d.X, d.Z)
	c.Pitch = math.Asin(clamp(d.Y/c.Distance, -1, 1))
	c.Pitch = clamp(c.Pitch, -maxPitch, maxPitch)
}

// Position returns the camera's world position.
func (c *Camera) Position() r3.Vec {
	cp := math.Cos(c.Pitch)
	offset := r3.Vec{
		X: c.Distance * cp * math.Sin(c.Yaw),
		Y: c.Distance * math.Sin(c.Pitch),
		Z: c.Distance * cp * math.Cos(c.Yaw),
	}
	return r3.Add(c.Target, offset)
}

// Orbit rotates the camera around the target by the given angles.
func (c *Camera) Orbit(dYaw, dPitch float64) {
	c.Yaw = math.Remainder(c.Yaw+dYaw, 2*math.Pi)
	c.Pitch = clamp(c.Pitch+dPitch, -maxPitch, maxPitch)
}

// SetDistance sets the orbit distance, clamped to min/max.
func (c *Camera) SetDistance(d float64) {
	c.Distance = clamp(d, c.MinDistance, c.MaxDistance)
}

// ZoomBy divides the orbit distance by factor (factor > 1 moves closer).
func (c *Camera) ZoomBy(factor float64) {
	if factor <= 0 {
		return
	}
	c.SetDistance(c.Distance / factor)
}

// Reset returns the camera to where it was created.
func (c *Camera) Reset() {
	c.SetPosition(c.home)
}

// DistanceTo returns the distance from the camera to p.
func (c *Camera) DistanceTo(p r3.Vec) float64 {
	return r3.Norm(r3.Sub(p, c.Position()))
}

// DepthT maps a camera distance onto [0, 1] along the colour ramp.
func (c *Camera) DepthT(dist float64) float64 {
	span := c.RampFar - c.RampNear
	if span <= 0 || math.IsNaN(dist) {
		return 0
	}
	return clamp((dist-c.RampNear)/span, 0, 1)
}

// DepthColor returns the colour for an agent at the given camera distance.
func (c *Camera) DepthColor(dist float64) [3]uint8 {
	return LerpRGB(c.NearRGB, c.FarRGB, c.DepthT(dist))
}

// LerpRGB linearly interpolates between two colours, t in [0, 1].
func LerpRGB(a, b [3]uint8, t float64) [3]uint8 {
	var out [3]uint8
	for i := range out {
		v := float64(a[i]) + (float64(b[i])-float64(a[i]))*t
		out[i] = uint8(math.Round(clamp(v, 0, 255)))
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
