package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/boids/config"
)

func TestOutputManagerDisabled(t *testing.T) {
	om, err := NewOutputManager("")
	require.NoError(t, err)
	require.Nil(t, om)

	// All methods are nil-safe.
	assert.NoError(t, om.WriteFlock(FlockStats{}))
	assert.NoError(t, om.WritePerf(PerfStats{}, 0, 0))
	assert.NoError(t, om.WriteConfig(config.Default()))
	assert.NoError(t, om.Close())
	assert.Empty(t, om.Dir())
	assert.Empty(t, om.RunID())
}

func TestOutputManagerWritesCSV(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "run")
	om, err := NewOutputManager(dir)
	require.NoError(t, err)

	_, err = uuid.Parse(om.RunID())
	require.NoError(t, err, "run id should be a uuid")

	require.NoError(t, om.WriteFlock(FlockStats{WindowEndTick: 600, Population: 500, Polarization: 0.5}))
	require.NoError(t, om.WriteFlock(FlockStats{WindowEndTick: 1200, Population: 450}))
	require.NoError(t, om.WritePerf(PerfStats{AvgTickDuration: time.Millisecond}, 60, 500))
	require.NoError(t, om.WriteConfig(config.Default()))
	require.NoError(t, om.Close())

	flock, err := os.ReadFile(filepath.Join(dir, "flock.csv"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(flock)), "\n")
	require.Len(t, lines, 3, "header plus two rows")
	assert.True(t, strings.HasPrefix(lines[0], "run_id,window_end,population"))
	assert.Contains(t, lines[1], om.RunID())
	assert.Contains(t, lines[2], ",1200,450,")

	perf, err := os.ReadFile(filepath.Join(dir, "perf.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(perf), "avg_tick_us")
	assert.Contains(t, string(perf), ",60,500,1000,")

	_, err = config.Load(filepath.Join(dir, "config.yaml"))
	assert.NoError(t, err, "config snapshot should load back")
}
