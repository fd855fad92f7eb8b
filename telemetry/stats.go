package telemetry

import (
	"log/slog"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat"
)

// FlockStats holds aggregated statistics for one stats window.
type FlockStats struct {
	RunID           string `csv:"run_id"`
	WindowStartTick int64  `csv:"-"`
	WindowEndTick   int64  `csv:"window_end"`

	Population int `csv:"population"`

	// Speed distribution, sampled at window end
	SpeedMean float64 `csv:"speed_mean"`
	SpeedStd  float64 `csv:"speed_std"`
	SpeedMin  float64 `csv:"speed_min"`
	SpeedMax  float64 `csv:"speed_max"`

	// Polarization is the length of the mean unit heading: 1 when every
	// agent flies the same way, near 0 for a disordered flock.
	Polarization float64 `csv:"polarization"`

	MeanAttractorDist float64 `csv:"mean_attractor_dist"`

	// Events during window
	GovernorShrinks int `csv:"governor_shrinks"`
	AgentsSpawned   int `csv:"spawned"`
	AgentsRemoved   int `csv:"removed"`
	ParamUpdates    int `csv:"param_updates"`
	RejectedUpdates int `csv:"rejected_updates"`
}

// ComputeSpeedStats returns the mean, population standard deviation,
// minimum and maximum of the given speeds. All zeros for an empty slice.
func ComputeSpeedStats(speeds []float64) (mean, std, lo, hi float64) {
	if len(speeds) == 0 {
		return 0, 0, 0, 0
	}
	mean, std = stat.PopMeanStdDev(speeds, nil)
	return mean, std, floats.Min(speeds), floats.Max(speeds)
}

// Polarization returns |mean(v/|v|)| over all non-zero velocities.
func Polarization(vels []r3.Vec) float64 {
	var sum r3.Vec
	var n int
	for _, v := range vels {
		if r3.Norm2(v) == 0 {
			continue
		}
		sum = r3.Add(sum, r3.Unit(v))
		n++
	}
	if n == 0 {
		return 0
	}
	return r3.Norm(sum) / float64(n)
}

// MeanDistance returns the mean distance from every position to target.
func MeanDistance(positions []r3.Vec, target r3.Vec) float64 {
	if len(positions) == 0 {
		return 0
	}
	var sum float64
	for _, p := range positions {
		sum += r3.Norm(r3.Sub(p, target))
	}
	return sum / float64(len(positions))
}

// LogValue implements slog.LogValuer for structured logging.
func (s FlockStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int64("window_start", s.WindowStartTick),
		slog.Int64("window_end", s.WindowEndTick),
		slog.Int("population", s.Population),
		slog.Float64("speed_mean", s.SpeedMean),
		slog.Float64("speed_std", s.SpeedStd),
		slog.Float64("speed_min", s.SpeedMin),
		slog.Float64("speed_max", s.SpeedMax),
		slog.Float64("polarization", s.Polarization),
		slog.Float64("mean_attractor_dist", s.MeanAttractorDist),
		slog.Int("governor_shrinks", s.GovernorShrinks),
		slog.Int("spawned", s.AgentsSpawned),
		slog.Int("removed", s.AgentsRemoved),
		slog.Int("param_updates", s.ParamUpdates),
		slog.Int("rejected_updates", s.RejectedUpdates),
	)
}

// LogStats logs the window stats using slog.
func (s FlockStats) LogStats() {
	slog.Info("flock",
		"window_end", s.WindowEndTick,
		"population", s.Population,
		"speed_mean", round3(s.SpeedMean),
		"speed_min", round3(s.SpeedMin),
		"speed_max", round3(s.SpeedMax),
		"polarization", round3(s.Polarization),
		"mean_attractor_dist", round3(s.MeanAttractorDist),
		"governor_shrinks", s.GovernorShrinks,
		"spawned", s.AgentsSpawned,
		"removed", s.AgentsRemoved,
		"param_updates", s.ParamUpdates,
	)
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
