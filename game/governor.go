package game

import (
	"math"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/boids/config"
)

// Governor watches frame times and shrinks the flock when the frame rate
// stays below the floor for a full window. It only ever degrades; nothing
// grows the flock back when the frame rate recovers.
type Governor struct {
	enabled      bool
	minFPS       float64
	minPop       int
	shrinkFactor float64

	// Ring buffer of frame durations in milliseconds
	frames []float64
	next   int
	count  int
}

// NewGovernor creates a governor from config.
func NewGovernor(cfg config.GovernorConfig) *Governor {
	window := cfg.Window
	if window < 1 {
		window = 60
	}
	return &Governor{
		enabled:      cfg.Enabled,
		minFPS:       cfg.MinFPS,
		minPop:       cfg.MinPopulation,
		shrinkFactor: cfg.ShrinkFactor,
		frames:       make([]float64, window),
	}
}

// Observe records one frame duration and returns the population the flock
// should have. shrink is true when the governor decided to cut the flock; the
// window is then cleared so the next decision only sees post-cut frames.
func (gv *Governor) Observe(frame time.Duration, population int) (target int, shrink bool) {
	gv.frames[gv.next] = float64(frame) / float64(time.Millisecond)
	gv.next = (gv.next + 1) % len(gv.frames)
	if gv.count < len(gv.frames) {
		gv.count++
	}

	if !gv.enabled || gv.count < len(gv.frames) {
		return population, false
	}
	if gv.FPS() >= gv.minFPS || population <= gv.minPop {
		return population, false
	}

	target = int(math.Floor(float64(population) * gv.shrinkFactor))
	gv.Reset()
	return target, true
}

// FPS returns 1000 / mean frame milliseconds over the samples seen so far,
// or 0 before the first sample.
func (gv *Governor) FPS() float64 {
	if gv.count == 0 {
		return 0
	}
	mean := stat.Mean(gv.frames[:gv.count], nil)
	if mean <= 0 {
		return math.Inf(1)
	}
	return 1000 / mean
}

// Full reports whether the window holds a full set of samples.
func (gv *Governor) Full() bool {
	return gv.count == len(gv.frames)
}

// Reset clears the frame window.
func (gv *Governor) Reset() {
	clear(gv.frames)
	gv.next = 0
	gv.count = 0
}
