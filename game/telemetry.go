package game

import (
	"log/slog"
	"time"
)

// flushTelemetry emits flock and perf stats when the stats window is complete.
func (g *Game) flushTelemetry() {
	if !g.collector.ShouldFlush(g.tick) {
		return
	}

	g.positions = g.positions[:0]
	g.vels = g.vels[:0]
	for i := 0; i < g.flock.Len(); i++ {
		s := g.flock.State(i)
		g.positions = append(g.positions, s.Pos)
		g.vels = append(g.vels, s.Vel)
	}

	stats := g.collector.Flush(g.tick, g.positions, g.vels, g.stepParams.Attractor.Position)
	perfStats := g.perf.Stats()

	if g.logStats {
		stats.LogStats()
		perfStats.LogStats()
	}

	if g.output != nil {
		if err := g.output.WriteFlock(stats); err != nil {
			slog.Error("failed to write flock stats", "error", err)
		}
		if err := g.output.WritePerf(perfStats, stats.WindowEndTick, stats.Population); err != nil {
			slog.Error("failed to write perf", "error", err)
		}
	}
}

// FrameTime returns the last frame duration passed to Step.
func (g *Game) FrameTime() time.Duration {
	return g.lastFrame
}
