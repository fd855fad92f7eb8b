package telemetry

import (
	"log/slog"
	"sort"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Phase names for the simulation step.
const (
	PhaseParams    = "params"
	PhaseGovernor  = "governor"
	PhaseSnapshot  = "snapshot"
	PhaseFlock     = "flock"
	PhaseApply     = "apply"
	PhaseTelemetry = "telemetry"
)

// phaseNames lists the phases in the order they run in a tick.
var phaseNames = [...]string{
	PhaseParams, PhaseGovernor, PhaseSnapshot, PhaseFlock, PhaseApply, PhaseTelemetry,
}

const numPhases = len(phaseNames)

var phaseOrder = phaseNames[:]

// Phases returns the phase names in the order they run.
func Phases() []string {
	return append([]string(nil), phaseOrder...)
}

// phaseIndex maps a phase name to its slot in a tick sample.
var phaseIndex = func() map[string]int {
	m := make(map[string]int, len(phaseOrder))
	for i, name := range phaseOrder {
		m[name] = i
	}
	return m
}()

// tickSample is the timing of one tick. Phases are stored by slot so a tick
// allocates nothing; ran marks the slots that were entered.
type tickSample struct {
	total  time.Duration
	phases [numPhases]time.Duration
	ran    [numPhases]bool
}

// PerfCollector tracks tick and phase timings over a rolling window.
type PerfCollector struct {
	samples []tickSample
	next    int
	count   int

	cur        tickSample
	tickStart  time.Time
	phaseStart time.Time
	phase      int // slot of the running phase, -1 for none

	frameDuration time.Duration // set by the host loop
}

// NewPerfCollector creates a collector averaging over windowSize ticks.
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 60
	}
	return &PerfCollector{samples: make([]tickSample, windowSize), phase: -1}
}

// StartTick begins timing a new simulation tick.
func (p *PerfCollector) StartTick() {
	p.tickStart = time.Now()
	p.cur = tickSample{}
	p.phase = -1
}

// StartPhase begins timing a specific phase, ending the previous one.
// Unknown phase names are timed as part of the tick only.
func (p *PerfCollector) StartPhase(phase string) {
	now := time.Now()
	p.closePhase(now)
	p.phaseStart = now
	p.phase = -1
	if i, ok := phaseIndex[phase]; ok {
		p.phase = i
		p.cur.ran[i] = true
	}
}

func (p *PerfCollector) closePhase(now time.Time) {
	if p.phase >= 0 {
		p.cur.phases[p.phase] += now.Sub(p.phaseStart)
	}
}

// EndTick finishes timing the current tick and records the sample.
func (p *PerfCollector) EndTick() {
	now := time.Now()
	p.closePhase(now)
	p.phase = -1
	p.cur.total = now.Sub(p.tickStart)

	p.samples[p.next] = p.cur
	p.next = (p.next + 1) % len(p.samples)
	if p.count < len(p.samples) {
		p.count++
	}
}

// SetFrameDuration records a frame duration measured by the host loop.
func (p *PerfCollector) SetFrameDuration(d time.Duration) {
	p.frameDuration = d
}

// PerfStats holds aggregated performance statistics.
type PerfStats struct {
	AvgTickDuration time.Duration
	MinTickDuration time.Duration
	MaxTickDuration time.Duration
	P95TickDuration time.Duration

	// Average duration and share of tick time for every phase that ran
	// during the window.
	PhaseAvg map[string]time.Duration
	PhasePct map[string]float64

	TicksPerSecond float64

	FrameDuration time.Duration
	FPS           float64
}

// Stats computes aggregated statistics over the current window.
func (p *PerfCollector) Stats() PerfStats {
	s := PerfStats{
		PhaseAvg:      make(map[string]time.Duration, len(phaseOrder)),
		PhasePct:      make(map[string]float64, len(phaseOrder)),
		FrameDuration: p.frameDuration,
	}
	if p.frameDuration > 0 {
		s.FPS = float64(time.Second) / float64(p.frameDuration)
	}
	if p.count == 0 {
		return s
	}

	window := p.samples[:p.count]
	ticks := make([]float64, len(window))
	var phaseSum [numPhases]time.Duration
	var ran [numPhases]bool
	for i, smp := range window {
		ticks[i] = float64(smp.total)
		for j := range phaseSum {
			phaseSum[j] += smp.phases[j]
			ran[j] = ran[j] || smp.ran[j]
		}
	}

	mean := stat.Mean(ticks, nil)
	s.AvgTickDuration = time.Duration(mean)
	s.MinTickDuration = time.Duration(floats.Min(ticks))
	s.MaxTickDuration = time.Duration(floats.Max(ticks))
	sort.Float64s(ticks)
	s.P95TickDuration = time.Duration(stat.Quantile(0.95, stat.Empirical, ticks, nil))
	if mean > 0 {
		s.TicksPerSecond = float64(time.Second) / mean
	}

	for j, name := range phaseOrder {
		if !ran[j] {
			continue
		}
		avg := phaseSum[j] / time.Duration(len(window))
		s.PhaseAvg[name] = avg
		if mean > 0 {
			s.PhasePct[name] = float64(avg) / mean * 100
		}
	}
	return s
}

// LogStats logs performance statistics.
func (s PerfStats) LogStats() {
	slog.Info("perf", "stats", s)
}

// LogValue implements slog.LogValuer for structured logging.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int64("avg_tick_us", s.AvgTickDuration.Microseconds()),
		slog.Int64("min_tick_us", s.MinTickDuration.Microseconds()),
		slog.Int64("max_tick_us", s.MaxTickDuration.Microseconds()),
		slog.Int64("p95_tick_us", s.P95TickDuration.Microseconds()),
		slog.Float64("ticks_per_sec", s.TicksPerSecond),
	}
	if s.FPS > 0 {
		attrs = append(attrs, slog.Float64("fps", s.FPS))
	}
	for _, phase := range phaseOrder {
		if pct, ok := s.PhasePct[phase]; ok {
			attrs = append(attrs, slog.Float64(phase+"_pct", pct))
		}
	}
	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is a flat struct for CSV export of performance stats.
type PerfStatsCSV struct {
	RunID        string  `csv:"run_id"`
	WindowEnd    int64   `csv:"window_end"`
	Population   int     `csv:"population"`
	AvgTickUS    int64   `csv:"avg_tick_us"`
	MinTickUS    int64   `csv:"min_tick_us"`
	MaxTickUS    int64   `csv:"max_tick_us"`
	P95TickUS    int64   `csv:"p95_tick_us"`
	TicksPerSec  float64 `csv:"ticks_per_sec"`
	FPS          float64 `csv:"fps"`
	ParamsPct    float64 `csv:"params_pct"`
	GovernorPct  float64 `csv:"governor_pct"`
	SnapshotPct  float64 `csv:"snapshot_pct"`
	FlockPct     float64 `csv:"flock_pct"`
	ApplyPct     float64 `csv:"apply_pct"`
	TelemetryPct float64 `csv:"telemetry_pct"`
}

// ToCSV converts PerfStats to a flat CSV-friendly struct.
func (s PerfStats) ToCSV(windowEnd int64, population int) PerfStatsCSV {
	return PerfStatsCSV{
		WindowEnd:    windowEnd,
		Population:   population,
		AvgTickUS:    s.AvgTickDuration.Microseconds(),
		MinTickUS:    s.MinTickDuration.Microseconds(),
		MaxTickUS:    s.MaxTickDuration.Microseconds(),
		P95TickUS:    s.P95TickDuration.Microseconds(),
		TicksPerSec:  s.TicksPerSecond,
		FPS:          s.FPS,
		ParamsPct:    s.PhasePct[PhaseParams],
		GovernorPct:  s.PhasePct[PhaseGovernor],
		SnapshotPct:  s.PhasePct[PhaseSnapshot],
		FlockPct:     s.PhasePct[PhaseFlock],
		ApplyPct:     s.PhasePct[PhaseApply],
		TelemetryPct: s.PhasePct[PhaseTelemetry],
	}
}
