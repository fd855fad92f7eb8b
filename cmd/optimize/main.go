// Package main searches flock weights with CMA-ES for the most aligned
// flock: it runs headless simulations over several seeds per candidate and
// writes the evaluation log and the best parameter file.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gocarina/gocsv"
	"gonum.org/v1/gonum/optimize"

	"github.com/pthm-cable/boids/config"
)

// EvalRecord is one row of optimize_log.csv.
type EvalRecord struct {
	Eval               int     `csv:"eval"`
	Fitness            float64 `csv:"fitness"`
	Polarization       float64 `csv:"polarization"`
	Alignment          float64 `csv:"alignment_strength"`
	Cohesion           float64 `csv:"cohesion_strength"`
	Separation         float64 `csv:"separation_strength"`
	PerceptionRadius   float64 `csv:"perception_radius"`
	SeparationDistance float64 `csv:"separation_distance"`
	ElapsedSec         float64 `csv:"elapsed_sec"`
}

// formatDuration formats a duration as HH:MM:SS or MM:SS for shorter durations.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	return fmt.Sprintf("%dm%02ds", m, s)
}

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Base config YAML file (empty = use defaults)")
	warmup := flag.Int("warmup", 300, "Ticks before measuring")
	measure := flag.Int("ticks", 600, "Ticks averaged into each score")
	agents := flag.Int("agents", 200, "Flock size per run")
	seeds := flag.Int("seeds", 3, "Number of seeds per evaluation")
	maxEvals := flag.Int("max-evals", 100, "Maximum number of evaluations")
	population := flag.Int("population", 0, "CMA-ES population size (0 = auto)")
	outputDir := flag.String("output", "", "Output directory for results")
	flag.Parse()

	if *outputDir == "" {
		log.Fatal("--output is required")
	}
	if *seeds < 1 {
		log.Fatal("--seeds must be at least 1")
	}

	// Simulation logs are noise here.
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		log.Fatalf("failed to create output directory: %v", err)
	}

	if err := config.Init(*configPath); err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	baseCfg := config.Cfg()
	baseParams := config.ParamsFromConfig(baseCfg)

	params := NewParamVector(baseParams)

	evalSeeds := make([]int64, *seeds)
	for i := range evalSeeds {
		evalSeeds[i] = int64(i*1000 + 42)
	}

	evaluator := NewFitnessEvaluator(params, baseCfg, evalSeeds, *agents, *warmup, *measure)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dim := params.Dim()
	initX := params.Normalize(params.DefaultVector())

	popSize := *population
	if popSize == 0 {
		popSize = 4 + int(3.0*float64(dim)/2.0)
	}

	logPath := filepath.Join(*outputDir, "optimize_log.csv")
	logFile, err := os.Create(logPath)
	if err != nil {
		log.Fatalf("failed to create log file: %v", err)
	}
	defer logFile.Close()
	headerWritten := false

	evalCount := 0
	bestFitness := 0.0
	var bestParams []float64
	startTime := time.Now()

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			clamped := params.Clamp(params.Denormalize(x))
			fitness, err := evaluator.Evaluate(ctx, clamped)
			if err != nil {
				// Scored as the worst possible flock.
				slog.Warn("evaluation failed", "error", err)
				fitness = 0
			}
			evalCount++

			if bestParams == nil || fitness < bestFitness {
				bestFitness = fitness
				bestParams = clamped
			}

			elapsed := time.Since(startTime)
			rec := EvalRecord{
				Eval:               evalCount,
				Fitness:            fitness,
				Polarization:       evaluator.LastPolarization(),
				Alignment:          clamped[0],
				Cohesion:           clamped[1],
				Separation:         clamped[2],
				PerceptionRadius:   clamped[3],
				SeparationDistance: clamped[4],
				ElapsedSec:         elapsed.Seconds(),
			}
			if err := writeRecord(logFile, rec, &headerWritten); err != nil {
				log.Printf("failed to write log row: %v", err)
			}

			avgPerEval := elapsed / time.Duration(evalCount)
			remaining := time.Duration(*maxEvals-evalCount) * avgPerEval
			fmt.Printf("Eval %d/%d: polarization=%.3f (best=%.3f) | elapsed: %s, ETA: %s\n",
				evalCount, *maxEvals, -fitness, -bestFitness,
				formatDuration(elapsed), formatDuration(remaining))

			return fitness
		},
	}

	settings := &optimize.Settings{
		FuncEvaluations: *maxEvals,
		Concurrent:      0, // seeds already run concurrently
	}
	method := &optimize.CmaEsChol{
		InitStepSize: 0.3,
		Population:   popSize,
	}

	fmt.Printf("Starting CMA-ES optimization with %d parameters, population=%d, max_evals=%d\n",
		dim, popSize, *maxEvals)
	fmt.Printf("Seeds per evaluation: %d, agents: %d, ticks: %d+%d\n", *seeds, *agents, *warmup, *measure)

	result, err := optimize.Minimize(problem, initX, settings, method)
	if err != nil {
		log.Printf("optimization ended: %v", err)
	}

	if bestParams == nil && result != nil {
		bestParams = params.Clamp(params.Denormalize(result.X))
	}
	if bestParams == nil {
		log.Fatal("no evaluations completed")
	}

	fmt.Printf("\nOptimization complete after %d evaluations in %s\n", evalCount, formatDuration(time.Since(startTime)))
	fmt.Printf("Best polarization: %.3f\n", -bestFitness)

	fmt.Println("\nBest parameters:")
	for i, spec := range params.Specs {
		fmt.Printf("  %s: %.6f\n", spec.Name, bestParams[i])
	}

	best := params.Apply(baseParams, bestParams)
	outPath := filepath.Join(*outputDir, "best_params.yaml")
	if err := best.Save(outPath); err != nil {
		log.Printf("failed to write best params: %v", err)
	} else {
		fmt.Printf("\nBest params saved to: %s (load with --params-file)\n", outPath)
	}
}

// writeRecord appends one row, writing the header before the first.
func writeRecord(f *os.File, rec EvalRecord, headerWritten *bool) error {
	rows := []EvalRecord{rec}
	if !*headerWritten {
		if err := gocsv.Marshal(&rows, f); err != nil {
			return err
		}
		*headerWritten = true
		return nil
	}
	return gocsv.MarshalWithoutHeaders(&rows, f)
}
