package telemetry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPerfCollector_BasicTiming(t *testing.T) {
	pc := NewPerfCollector(10)

	for i := 0; i < 5; i++ {
		pc.StartTick()
		pc.StartPhase(PhaseSnapshot)
		time.Sleep(100 * time.Microsecond)
		pc.StartPhase(PhaseFlock)
		time.Sleep(200 * time.Microsecond)
		pc.EndTick()
	}

	stats := pc.Stats()

	assert.Positive(t, stats.AvgTickDuration, "expected positive average tick duration")
	assert.Contains(t, stats.PhaseAvg, PhaseSnapshot)
	assert.Contains(t, stats.PhaseAvg, PhaseFlock)
	assert.NotContains(t, stats.PhaseAvg, PhaseApply)
}

func TestPerfCollector_RollingWindow(t *testing.T) {
	pc := NewPerfCollector(5)

	for i := 0; i < 10; i++ {
		pc.StartTick()
		pc.StartPhase(PhaseFlock)
		time.Sleep(10 * time.Microsecond)
		pc.EndTick()
	}

	stats := pc.Stats()
	assert.Positive(t, stats.AvgTickDuration)
	assert.Positive(t, stats.TicksPerSecond)
	assert.Equal(t, 5, pc.count)
}

func TestPerfCollector_MinMaxP95(t *testing.T) {
	pc := NewPerfCollector(20)
	for i := 1; i <= 20; i++ {
		pc.samples[i-1] = tickSample{total: time.Duration(i) * time.Millisecond}
	}
	pc.count = 20
	pc.samples[3].phases[phaseIndex[PhaseFlock]] = 20 * time.Millisecond
	pc.samples[3].ran[phaseIndex[PhaseFlock]] = true

	stats := pc.Stats()
	assert.Equal(t, time.Millisecond, stats.MinTickDuration)
	assert.Equal(t, 20*time.Millisecond, stats.MaxTickDuration)
	assert.Equal(t, 10500*time.Microsecond, stats.AvgTickDuration)
	assert.Equal(t, 19*time.Millisecond, stats.P95TickDuration)
	assert.Equal(t, time.Millisecond, stats.PhaseAvg[PhaseFlock])
	assert.NotContains(t, stats.PhasePct, PhaseApply)
}

func TestPerfCollector_UnknownPhaseCountsTowardTick(t *testing.T) {
	pc := NewPerfCollector(4)
	pc.StartTick()
	pc.StartPhase("render")
	time.Sleep(100 * time.Microsecond)
	pc.EndTick()

	stats := pc.Stats()
	assert.Positive(t, stats.AvgTickDuration)
	assert.Empty(t, stats.PhaseAvg)
}

func TestPerfCollector_PhasePercentages(t *testing.T) {
	pc := NewPerfCollector(10)

	for i := 0; i < 5; i++ {
		pc.StartTick()
		pc.StartPhase(PhaseParams)
		time.Sleep(10 * time.Microsecond)
		pc.StartPhase(PhaseFlock)
		time.Sleep(2 * time.Millisecond)
		pc.EndTick()
	}

	stats := pc.Stats()
	assert.Greater(t, stats.PhasePct[PhaseFlock], stats.PhasePct[PhaseParams])
}

func TestPerfCollector_EmptyStats(t *testing.T) {
	stats := NewPerfCollector(10).Stats()

	assert.Zero(t, stats.AvgTickDuration)
	assert.NotNil(t, stats.PhaseAvg)
	assert.NotNil(t, stats.PhasePct)
}

func TestPerfCollector_FrameDuration(t *testing.T) {
	pc := NewPerfCollector(10)
	pc.SetFrameDuration(40 * time.Millisecond)

	stats := pc.Stats()
	assert.Equal(t, 40*time.Millisecond, stats.FrameDuration)
	assert.InDelta(t, 25.0, stats.FPS, 1e-9)
}

func TestPerfStats_ToCSV(t *testing.T) {
	s := PerfStats{
		AvgTickDuration: 2 * time.Millisecond,
		PhasePct:        map[string]float64{PhaseFlock: 80, PhaseApply: 5},
	}

	row := s.ToCSV(120, 500)
	require.Equal(t, int64(120), row.WindowEnd)
	assert.Equal(t, 500, row.Population)
	assert.Equal(t, int64(2000), row.AvgTickUS)
	assert.Equal(t, 80.0, row.FlockPct)
	assert.Equal(t, 5.0, row.ApplyPct)
	assert.Zero(t, row.GovernorPct)
}
