package main

import (
	"flag"
	"log/slog"
	"os"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/selfdrive/camera"
	"github.com/pthm-cable/selfdrive/config"
	"github.com/pthm-cable/selfdrive/game"
	"github.com/pthm-cable/selfdrive/renderer"
	"github.com/pthm-cable/selfdrive/ui"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run without graphics")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	championPath := flag.String("champion", "", "Champion file (empty = use config)")
	mode := flag.String("mode", "", "Population mode: ai or keys (empty = use config)")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	maxTicks := flag.Int("max-ticks", 0, "Stop after N ticks (0 = unlimited)")
	stepsPerUpdate := flag.Int("steps-per-update", 1, "Simulation ticks per update call (higher = faster headless runs)")

	flag.Parse()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()
	if *championPath != "" {
		cfg.Persistence.ChampionPath = *championPath
	}

	// Set up seed
	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	opts := game.Options{
		Seed:           rngSeed,
		LogStats:       *logStats,
		OutputDir:      *outputDir,
		StepsPerUpdate: *stepsPerUpdate,
		Mode:           *mode,
	}

	if *headless {
		os.Exit(runHeadless(cfg, opts, *maxTicks))
	}
	os.Exit(runWindowed(cfg, opts, *maxTicks))
}

// runHeadless steps the simulation without raylib and returns the exit code.
func runHeadless(cfg *config.Config, opts game.Options, maxTicks int) int {
	if opts.Mode == config.ModeKeys || (opts.Mode == "" && cfg.Population.Mode == config.ModeKeys) {
		slog.Error("keys mode needs a window")
		return 1
	}

	g, err := game.NewGameWithOptions(cfg, opts)
	if err != nil {
		slog.Error("failed to create game", "error", err)
		return 1
	}
	defer g.Unload()

	slog.Info("starting headless simulation",
		"seed", opts.Seed,
		"max_ticks", maxTicks,
		"steps_per_update", opts.StepsPerUpdate,
	)

	for {
		g.UpdateHeadless()

		alive, _ := g.Counts()
		if alive == 0 {
			slog.Info("all cars damaged", "tick", g.Tick())
			return 0
		}
		if maxTicks > 0 && int(g.Tick()) >= maxTicks {
			slog.Info("max ticks reached", "tick", g.Tick())
			return 0
		}
	}
}

// runWindowed opens the window and runs the interactive loop.
func runWindowed(cfg *config.Config, opts game.Options, maxTicks int) int {
	width := int32(cfg.Screen.Width)
	height := int32(cfg.Screen.Height)
	networkWidth := int32(cfg.Screen.NetworkWidth)

	rl.InitWindow(width+networkWidth, height, "Self-Driving Car")
	defer rl.CloseWindow()

	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	opts.Player = ui.Keyboard{}
	g, err := game.NewGameWithOptions(cfg, opts)
	if err != nil {
		slog.Error("failed to create game", "error", err)
		return 1
	}
	defer g.Unload()

	// The road view fills the left of the window; HUD, network and controls
	// share the side panel on the right.
	px := width + 25
	cam := camera.New(float32(width), float32(height), g.Road().X)
	scene := renderer.New(cam,
		rl.Rectangle{X: float32(width), Width: float32(networkWidth), Height: float32(height)},
		rl.Rectangle{X: float32(px), Y: 120, Width: float32(networkWidth - 50), Height: float32(height - 390)},
	)
	hud := ui.NewHUD(px, 5)
	perf := ui.NewPerfPanel(px, height-255, g.Registry())
	buttons := ui.NewControlsPanel(px, height-80)

	for !rl.WindowShouldClose() {
		ui.Apply(g, ui.PollKeys())
		ui.PollCamera(cam)

		g.Update()

		leader, hasLeader := g.Leader()
		if hasLeader {
			cam.Follow(leader.Pose.Y)
		}

		rl.BeginDrawing()
		scene.Draw(g)

		alive, damaged := g.Counts()
		hud.Draw(ui.HUDData{
			Title:       "Self-Driving Car",
			Mode:        g.Mode(),
			Tick:        g.Tick(),
			Generation:  g.Generation(),
			Alive:       alive,
			Damaged:     damaged,
			LeaderY:     leader.Pose.Y,
			LeaderSpeed: leader.Pose.Speed,
			HasLeader:   hasLeader,
			Speed:       g.StepsPerUpdate(),
			FPS:         rl.GetFPS(),
			Paused:      g.Paused(),
		})
		perf.Draw(g.Perf())
		hud.DrawControls(px, height-20, ui.ControlsLegend)
		ui.Apply(g, buttons.Draw())
		rl.EndDrawing()

		g.RecordFrame()

		if maxTicks > 0 && int(g.Tick()) >= maxTicks {
			break
		}
	}
	return 0
}
