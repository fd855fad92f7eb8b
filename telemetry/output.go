package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
	"github.com/google/uuid"

	"github.com/pthm-cable/boids/config"
)

// OutputManager handles structured run output with CSV logging.
// Every row it writes is tagged with the run id.
type OutputManager struct {
	dir       string
	runID     string
	flockFile *os.File
	perfFile  *os.File

	// Track if headers have been written
	flockHeaderWritten bool
	perfHeaderWritten  bool
}

// NewOutputManager creates a new output manager and initializes the output directory.
// Returns nil if dir is empty (output disabled).
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	om := &OutputManager{dir: dir, runID: uuid.NewString()}

	f, err := os.Create(filepath.Join(dir, "flock.csv"))
	if err != nil {
		return nil, fmt.Errorf("creating flock.csv: %w", err)
	}
	om.flockFile = f

	f, err = os.Create(filepath.Join(dir, "perf.csv"))
	if err != nil {
		om.flockFile.Close()
		return nil, fmt.Errorf("creating perf.csv: %w", err)
	}
	om.perfFile = f

	return om, nil
}

// RunID returns the id tagged on every output row.
func (om *OutputManager) RunID() string {
	if om == nil {
		return ""
	}
	return om.runID
}

// WriteConfig saves the current configuration as YAML.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// WriteFlock writes a window stats record to flock.csv.
func (om *OutputManager) WriteFlock(stats FlockStats) error {
	if om == nil {
		return nil
	}
	stats.RunID = om.runID
	if err := writeRow(om.flockFile, []FlockStats{stats}, &om.flockHeaderWritten); err != nil {
		return fmt.Errorf("writing flock stats: %w", err)
	}
	return nil
}

// WritePerf writes a performance stats record to perf.csv.
func (om *OutputManager) WritePerf(stats PerfStats, windowEnd int64, population int) error {
	if om == nil {
		return nil
	}
	row := stats.ToCSV(windowEnd, population)
	row.RunID = om.runID
	if err := writeRow(om.perfFile, []PerfStatsCSV{row}, &om.perfHeaderWritten); err != nil {
		return fmt.Errorf("writing perf: %w", err)
	}
	return nil
}

// writeRow marshals records, including the CSV header only on the first write.
func writeRow(f *os.File, records any, headerWritten *bool) error {
	if !*headerWritten {
		if err := gocsv.Marshal(records, f); err != nil {
			return err
		}
		*headerWritten = true
		return nil
	}
	return gocsv.MarshalWithoutHeaders(records, f)
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close flushes and closes all output files.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}

	var firstErr error
	for _, f := range []*os.File{om.flockFile, om.perfFile} {
		if f == nil {
			continue
		}
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
