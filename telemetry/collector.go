package telemetry

import "gonum.org/v1/gonum/spatial/r3"

// Collector accumulates flock events within tick windows and produces FlockStats.
type Collector struct {
	windowTicks     int64
	windowStartTick int64

	// Event counters for current window
	governorShrinks int
	spawned         int
	removed         int
	paramUpdates    int
	rejectedUpdates int

	speeds []float64 // reused across flushes
}

// NewCollector creates a stats collector that flushes every windowTicks ticks.
func NewCollector(windowTicks int) *Collector {
	if windowTicks < 1 {
		windowTicks = 1
	}
	return &Collector{windowTicks: int64(windowTicks)}
}

// RecordGovernorShrink records a population cut made by the governor.
func (c *Collector) RecordGovernorShrink() {
	c.governorShrinks++
}

// RecordResize records agents added or removed by a resize.
func (c *Collector) RecordResize(from, to int) {
	if to > from {
		c.spawned += to - from
	} else {
		c.removed += from - to
	}
}

// RecordParamUpdate records an applied parameter update.
func (c *Collector) RecordParamUpdate() {
	c.paramUpdates++
}

// RecordRejectedUpdate records a parameter update that failed validation.
func (c *Collector) RecordRejectedUpdate() {
	c.rejectedUpdates++
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int64) bool {
	return currentTick-c.windowStartTick >= c.windowTicks
}

// Flush produces FlockStats from the flock state at window end and resets
// the event counters for the next window.
func (c *Collector) Flush(currentTick int64, positions, velocities []r3.Vec, attractor r3.Vec) FlockStats {
	c.speeds = c.speeds[:0]
	for _, v := range velocities {
		c.speeds = append(c.speeds, r3.Norm(v))
	}
	mean, std, lo, hi := ComputeSpeedStats(c.speeds)

	stats := FlockStats{
		WindowStartTick:   c.windowStartTick,
		WindowEndTick:     currentTick,
		Population:        len(velocities),
		SpeedMean:         mean,
		SpeedStd:          std,
		SpeedMin:          lo,
		SpeedMax:          hi,
		Polarization:      Polarization(velocities),
		MeanAttractorDist: MeanDistance(positions, attractor),
		GovernorShrinks:   c.governorShrinks,
		AgentsSpawned:     c.spawned,
		AgentsRemoved:     c.removed,
		ParamUpdates:      c.paramUpdates,
		RejectedUpdates:   c.rejectedUpdates,
	}

	c.windowStartTick = currentTick
	c.governorShrinks = 0
	c.spawned = 0
	c.removed = 0
	c.paramUpdates = 0
	c.rejectedUpdates = 0

	return stats
}

// WindowTicks returns the number of ticks per window.
func (c *Collector) WindowTicks() int64 {
	return c.windowTicks
}
