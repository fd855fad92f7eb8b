package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	rl "github.com/gen2brain/raylib-go/raylib"
	"golang.org/x/time/rate"

	"github.com/pthm-cable/boids/camera"
	"github.com/pthm-cable/boids/config"
	"github.com/pthm-cable/boids/game"
	"github.com/pthm-cable/boids/renderer"
	"github.com/pthm-cable/boids/termview"
	"github.com/pthm-cable/boids/ui"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run without graphics")
	term := flag.Bool("term", false, "Render in the terminal instead of a window")
	realtime := flag.Float64("realtime", 0, "Headless ticks per second (0 = as fast as possible)")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	logFile := flag.String("log-file", "", "Also write logs to this file, rotated")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	paramsFile := flag.String("params-file", "boids_params.yaml", "Saved parameters to restore on start and write on exit (empty = off)")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	maxTicks := flag.Int("max-ticks", 0, "Stop after N ticks (0 = unlimited)")
	workers := flag.Int("workers", 0, "Flock worker pool size (0 = GOMAXPROCS)")

	flag.Parse()

	// Terminal mode owns stdout, so logs only go to the file there.
	logger, closeLog := newLogger(*logFile, !*term)
	defer closeLog()
	slog.SetDefault(logger)

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	opts := game.Options{
		Seed:      rngSeed,
		LogStats:  *logStats,
		OutputDir: *outputDir,
		Workers:   *workers,
		Params:    restoreParams(*paramsFile, cfg),
	}

	g, err := game.NewGame(cfg, opts)
	if err != nil {
		slog.Error("failed to create simulation", "error", err)
		os.Exit(1)
	}
	defer g.Close()
	defer saveParams(*paramsFile, g)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch {
	case *headless:
		runHeadless(ctx, g, *realtime, *maxTicks)
	case *term:
		if err := runTerminal(ctx, g, cfg); err != nil {
			slog.Error("terminal view failed", "error", err)
		}
	default:
		runWindow(g, cfg, *maxTicks, *paramsFile)
	}
}

// restoreParams loads the saved parameter file, or returns nil to start
// from the config values.
func restoreParams(path string, cfg *config.Config) *config.Params {
	if path == "" {
		return nil
	}
	p, err := config.LoadParams(path, config.ParamsFromConfig(cfg), cfg.Flock.MaxPopulation)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("ignoring saved parameters", "path", path, "error", err)
		}
		return nil
	}
	slog.Info("restored parameters", "path", path)
	return &p
}

// saveParams writes the parameters in effect to path.
func saveParams(path string, g *game.Game) {
	if path == "" {
		return
	}
	if err := g.Params().Save(path); err != nil {
		slog.Error("failed to save parameters", "path", path, "error", err)
		return
	}
	slog.Info("saved parameters", "path", path)
}

// runHeadless steps without graphics until ctx is cancelled or maxTicks is
// reached. A positive tickRate paces the loop to that many ticks per second.
func runHeadless(ctx context.Context, g *game.Game, tickRate float64, maxTicks int) {
	var limiter *rate.Limiter
	if tickRate > 0 {
		limiter = rate.NewLimiter(rate.Limit(tickRate), 1)
	}

	slog.Info("starting headless simulation",
		"population", g.Len(),
		"ticks_per_second", tickRate,
		"max_ticks", maxTicks,
	)

	last := time.Now()
	for {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				break
			}
		} else if ctx.Err() != nil {
			break
		}

		now := time.Now()
		g.Step(now.Sub(last))
		last = now

		if maxTicks > 0 && int(g.Tick()) >= maxTicks {
			slog.Info("max ticks reached", "tick", g.Tick())
			return
		}
	}
	slog.Info("interrupted", "tick", g.Tick())
}

// runTerminal drives the simulation from the tcell view.
func runTerminal(ctx context.Context, g *game.Game, cfg *config.Config) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()

	view := termview.New(screen, g, camera.FromConfig(cfg), termview.Options{
		TickRate:         time.Second / time.Duration(max(cfg.Screen.TargetFPS, 1)),
		MaxNeighborLines: cfg.Display.MaxNeighborLines,
		MaxLabels:        cfg.Display.MaxLabels,
		MaxPopulation:    cfg.Flock.MaxPopulation,
		Background:       cfg.Derived.Background,
	})
	return view.Run(ctx)
}

const controlsLegend = "RMB drag/arrows: orbit | wheel: zoom | R: reset view | SPACE: pause | TAB: overlay list | N L B H F P: overlays"

// runWindow drives the simulation from the raylib frame loop.
func runWindow(g *game.Game, cfg *config.Config, maxTicks int, paramsPath string) {
	rl.SetConfigFlags(rl.FlagMsaa4xHint)
	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), "Boids")
	defer rl.CloseWindow()

	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	cam := camera.FromConfig(cfg)
	flock := renderer.NewFlockRenderer(cfg, cam)
	overlays := ui.NewOverlayRegistry()
	hud := ui.NewHUD()
	perfPanel := ui.NewPerfPanel(260)
	controls := ui.NewControlsPanel(220)
	panel := ui.NewParameterPanel(g, ui.DefaultSliders(cfg), 300)
	defaults := config.ParamsFromConfig(cfg)
	paused := false

	for !rl.WindowShouldClose() {
		frame := time.Duration(float64(rl.GetFrameTime()) * float64(time.Second))

		for key := rl.GetKeyPressed(); key != 0; key = rl.GetKeyPressed() {
			id, on, ok := overlays.HandleKeyPress(key)
			if !ok {
				continue
			}
			if desc, _ := overlays.Get(id); desc.Param != "" {
				if err := g.ApplyParameterUpdate(desc.Param, boolToFloat(on)); err != nil {
					slog.Warn("overlay toggle rejected", "overlay", id, "error", err)
				}
			}
		}
		if rl.IsKeyPressed(rl.KeySpace) {
			paused = !paused
		}
		if rl.IsKeyPressed(rl.KeyTab) {
			controls.Toggle()
		}
		renderer.HandleCameraInput(cam)

		if !paused {
			g.Step(frame)
		}
		staged := g.StagedParams()
		overlays.SyncParams(staged)

		sw, sh := int32(rl.GetScreenWidth()), int32(rl.GetScreenHeight())

		rl.BeginDrawing()
		flock.Draw(g, renderer.DrawOptions{
			NeighborLines: overlays.IsEnabled(ui.OverlayNeighborLines),
			Labels:        overlays.IsEnabled(ui.OverlayLabels),
			Bounds:        overlays.IsEnabled(ui.OverlayBounds),
		}, rl.GetTime())

		if overlays.IsEnabled(ui.OverlayHUD) {
			hud.Draw(ui.HUDData{
				Title:        "Boids",
				Population:   g.Len(),
				Tick:         g.Tick(),
				FPS:          g.FPS(),
				Strategy:     cfg.Flock.NeighborStrategy,
				Attractor:    staged.AttractorStrength,
				Paused:       paused,
				ScreenWidth:  sw,
				ScreenHeight: sh,
			})
			hud.DrawControls(sw, sh, controlsLegend)
		}
		controls.Draw(10, 100, overlays)

		if overlays.IsEnabled(ui.OverlayPanel) {
			x, y := ui.Anchor(ui.AnchorTopRight, sw, sh, panel.Width(), panel.Height(), 10)
			switch panel.Draw(x, y, staged) {
			case ui.ActionSave:
				saveParams(paramsPath, g)
			case ui.ActionReset:
				if err := ui.ApplyAll(g, defaults); err != nil {
					slog.Warn("reset incomplete", "error", err)
				}
			}
		}
		if overlays.IsEnabled(ui.OverlayPerf) {
			x, y := ui.Anchor(ui.AnchorBottomRight, sw, sh, 260, perfPanel.Height(), 10)
			perfPanel.Draw(x, y, g.Perf().Stats())
		}
		rl.EndDrawing()

		if maxTicks > 0 && int(g.Tick()) >= maxTicks {
			break
		}
	}
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
