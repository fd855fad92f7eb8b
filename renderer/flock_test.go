package renderer

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/boids/camera"
)

func TestAttractorPulse(t *testing.T) {
	tests := []struct {
		t    float64
		want float64
	}{
		{0, 1.0},
		{pulsePeriod / 4, pulseMax},
		{pulsePeriod / 2, 1.0},
		{3 * pulsePeriod / 4, pulseMin},
		{pulsePeriod, 1.0},
	}
	for _, tt := range tests {
		if got := AttractorPulse(tt.t); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("AttractorPulse(%v) = %v, want %v", tt.t, got, tt.want)
		}
	}

	for s := -5.0; s < 10; s += 0.07 {
		v := AttractorPulse(s)
		if v < pulseMin-1e-9 || v > pulseMax+1e-9 {
			t.Fatalf("AttractorPulse(%v) = %v outside [%v, %v]", s, v, pulseMin, pulseMax)
		}
	}
}

func TestCamera3D(t *testing.T) {
	cam := camera.New(r3.Vec{Z: 100}, r3.Vec{})
	c := Camera3D(cam)

	if math.Abs(float64(c.Position.Z)-100) > 1e-4 || math.Abs(float64(c.Position.X)) > 1e-4 {
		t.Errorf("position = %+v, want (0, 0, 100)", c.Position)
	}
	if c.Target != ToVector3(r3.Vec{}) {
		t.Errorf("target = %+v, want origin", c.Target)
	}
	if c.Up.Y != 1 {
		t.Errorf("up = %+v, want +Y", c.Up)
	}
}

func TestZoomFactor(t *testing.T) {
	if got := ZoomFactor(1); math.Abs(got-zoomStep) > 1e-12 {
		t.Errorf("ZoomFactor(1) = %v", got)
	}
	if got := ZoomFactor(-2); math.Abs(got-1/(zoomStep*zoomStep)) > 1e-12 {
		t.Errorf("ZoomFactor(-2) = %v", got)
	}
	if got := ZoomFactor(0); got != 1 {
		t.Errorf("ZoomFactor(0) = %v", got)
	}
}
