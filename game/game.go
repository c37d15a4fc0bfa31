// Package game runs the simulation: scripted traffic, a population of
// network-driven cars (or one keyboard car), leader selection and champion
// persistence. It never touches the window; renderers read it through views.
package game

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/selfdrive/components"
	"github.com/pthm-cable/selfdrive/config"
	"github.com/pthm-cable/selfdrive/controls"
	"github.com/pthm-cable/selfdrive/road"
	"github.com/pthm-cable/selfdrive/systems"
	"github.com/pthm-cable/selfdrive/telemetry"
)

// ErrNoLeaderNetwork is returned by Save when the leader is not network-driven.
var ErrNoLeaderNetwork = errors.New("game: leader has no network to save")

// Options configures a game beyond the loaded config.
type Options struct {
	Seed           int64
	LogStats       bool
	OutputDir      string
	StepsPerUpdate int
	Mode           string                  // overrides population.mode when set
	Store          telemetry.ChampionStore // nil = file store at persistence.champion_path
	Fitness        FitnessFunc             // nil = Progress
	Player         controls.Source         // drives the car in keys mode
	StatsCallback  func(telemetry.WindowStats)
}

// Game holds the complete simulation state.
type Game struct {
	cfg  *config.Config
	opts Options
	rng  *rand.Rand
	mode string

	world *ecs.World
	road  *road.Road

	carMapper *ecs.Map7[
		components.Agent,
		components.Pose,
		components.Body,
		components.Motion,
		components.Driver,
		components.Hull,
		components.Damage,
	]
	carFilter *ecs.Filter4[
		components.Agent,
		components.Pose,
		components.Hull,
		components.Damage,
	]
	sensorMap *ecs.Map1[components.Sensor]
	driverMap *ecs.Map1[components.Driver]
	poseMap   *ecs.Map1[components.Pose]
	damageMap *ecs.Map1[components.Damage]

	physics   *systems.PhysicsSystem
	collision *systems.CollisionSystem
	sensors   *systems.SensorSystem
	registry  *systems.SystemRegistry

	borderIndex *systems.ObstacleIndex // borders only, for traffic
	index       *systems.ObstacleIndex // borders and traffic hulls, rebuilt every tick

	store   telemetry.ChampionStore
	fitness FitnessFunc

	leader    ecs.Entity
	hasLeader bool

	// Telemetry
	collector        *telemetry.Collector
	perfCollector    *telemetry.PerfCollector
	bookmarkDetector *telemetry.BookmarkDetector
	outputManager    *telemetry.OutputManager

	parallel *parallelState

	// State
	tick           int32
	generation     int
	paused         bool
	stepsPerUpdate int
	nextID         uint32
	alive, damaged int
}

// NewGame creates a game from the global config with default options.
func NewGame() (*Game, error) {
	return NewGameWithOptions(config.Cfg(), Options{Seed: 42})
}

// NewGameWithOptions creates a game and spawns the first generation.
func NewGameWithOptions(cfg *config.Config, opts Options) (*Game, error) {
	mode := cfg.Population.Mode
	if opts.Mode != "" {
		mode = opts.Mode
	}
	if mode != config.ModeAI && mode != config.ModeKeys {
		return nil, fmt.Errorf("game: unknown mode %q", mode)
	}
	if mode == config.ModeKeys && opts.Player == nil {
		return nil, fmt.Errorf("game: %s mode needs a player control source", config.ModeKeys)
	}

	rig, err := systems.NewSensorRig(cfg.Sensors.RayCount, cfg.Sensors.RayLength, cfg.Sensors.RaySpread)
	if err != nil {
		return nil, err
	}
	r, err := road.New(cfg.Road.CenterX, cfg.Road.Width, cfg.Road.LaneCount, cfg.Road.Infinity)
	if err != nil {
		return nil, err
	}

	store := opts.Store
	if store == nil {
		store = telemetry.NewFileChampionStore(cfg.Persistence.ChampionPath)
	}
	fitness := opts.Fitness
	if fitness == nil {
		fitness = Progress
	}
	steps := opts.StepsPerUpdate
	if steps < 1 {
		steps = 1
	}

	om, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, err
	}
	if err := om.WriteConfig(cfg); err != nil {
		om.Close()
		return nil, err
	}

	g := &Game{
		cfg:              cfg,
		opts:             opts,
		rng:              rand.New(rand.NewSource(opts.Seed)),
		mode:             mode,
		road:             r,
		registry:         systems.NewSystemRegistry(),
		borderIndex:      systems.NewObstacleIndex(r.Borders()),
		store:            store,
		fitness:          fitness,
		perfCollector:    telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow),
		outputManager:    om,
		parallel:         newParallelState(),
		stepsPerUpdate:   steps,
	}
	g.reset(rig)

	slog.Info("game created",
		"mode", mode,
		"seed", opts.Seed,
		"population", g.alive,
		"topology", cfg.Derived.Topology,
	)
	return g, nil
}

// reset replaces the world with a fresh one and spawns a new generation.
func (g *Game) reset(rig systems.SensorRig) {
	w := ecs.NewWorld()
	g.world = w
	g.carMapper = ecs.NewMap7[
		components.Agent,
		components.Pose,
		components.Body,
		components.Motion,
		components.Driver,
		components.Hull,
		components.Damage,
	](w)
	g.carFilter = ecs.NewFilter4[
		components.Agent,
		components.Pose,
		components.Hull,
		components.Damage,
	](w)
	g.sensorMap = ecs.NewMap1[components.Sensor](w)
	g.driverMap = ecs.NewMap1[components.Driver](w)
	g.poseMap = ecs.NewMap1[components.Pose](w)
	g.damageMap = ecs.NewMap1[components.Damage](w)

	g.physics = systems.NewPhysicsSystem(w)
	g.collision = systems.NewCollisionSystem(w)
	g.sensors = systems.NewSensorSystem(w, rig)

	g.collector = telemetry.NewCollector(g.generation, g.cfg.Telemetry.StatsWindow)
	g.bookmarkDetector = telemetry.NewBookmarkDetector(5)
	g.tick = 0
	g.nextID = 0
	g.alive, g.damaged = 0, 0
	g.hasLeader = false

	g.spawnTraffic()
	if g.mode == config.ModeKeys {
		g.spawnPlayer()
	} else {
		g.spawnPopulation()
	}
	g.updateLeader()
}

// Restart discards the current cars and spawns the next generation from the
// stored champion. This is the explicit "reload" step of manual evolution.
// Entity handles taken before Restart belong to the old world; see Car.
func (g *Game) Restart() {
	g.recordGeneration(telemetry.GenerationEnd, "")
	g.generation++
	g.reset(g.sensors.Rig())
	slog.Info("generation started", "generation", g.generation, "cars", g.alive)
}

// Update runs StepsPerUpdate simulation steps unless paused.
// Call RecordFrame separately when rendering.
func (g *Game) Update() {
	if g.paused {
		return
	}
	for i := 0; i < g.stepsPerUpdate; i++ {
		g.Step()
	}
}

// UpdateHeadless runs StepsPerUpdate steps, ignoring pause.
func (g *Game) UpdateHeadless() {
	for i := 0; i < g.stepsPerUpdate; i++ {
		g.Step()
	}
}

// RecordFrame records render frame timing.
func (g *Game) RecordFrame() {
	g.perfCollector.RecordFrame()
}

// Save stores the leader's network as the new champion.
func (g *Game) Save() error {
	leader, ok := g.Leader()
	if !ok || leader.Network == nil {
		return ErrNoLeaderNetwork
	}
	if err := g.store.Save(leader.Network.Net); err != nil {
		slog.Warn("champion save failed", "error", err)
		return err
	}
	fingerprint := fmt.Sprintf("%016x", leader.Network.Net.MarshalWeights().Fingerprint())
	g.recordGeneration(telemetry.GenerationSave, fingerprint)
	slog.Info("champion saved",
		"generation", g.generation,
		"tick", g.tick,
		"car", leader.ID,
		"leader_y", leader.Pose.Y,
		"fingerprint", fingerprint,
	)
	return nil
}

// Discard removes the stored champion so the next generation starts random.
func (g *Game) Discard() error {
	if err := g.store.Discard(); err != nil {
		slog.Warn("champion discard failed", "error", err)
		return err
	}
	slog.Info("champion discarded", "tick", g.tick)
	return nil
}

// Unload flushes output and stops background workers. Safe to call twice.
func (g *Game) Unload() {
	g.stopParallelWorkers()
	if err := g.outputManager.Close(); err != nil {
		slog.Error("failed to close output", "error", err)
	}
	g.outputManager = nil
}

// Tick returns the number of steps taken in this generation.
func (g *Game) Tick() int32 {
	return g.tick
}

// Generation returns how many times the game has been restarted.
func (g *Game) Generation() int {
	return g.generation
}

// Mode returns the population mode.
func (g *Game) Mode() string {
	return g.mode
}

// Road returns the road the cars drive on.
func (g *Game) Road() *road.Road {
	return g.road
}

// Config returns the game's configuration.
func (g *Game) Config() *config.Config {
	return g.cfg
}

// Registry returns the system registry used for perf display.
func (g *Game) Registry() *systems.SystemRegistry {
	return g.registry
}

// Perf returns the current performance statistics.
func (g *Game) Perf() telemetry.PerfStats {
	return g.perfCollector.Stats()
}

// Counts returns the number of undamaged and damaged controlled cars.
func (g *Game) Counts() (alive, damaged int) {
	return g.alive, g.damaged
}

// Paused reports whether Update is paused.
func (g *Game) Paused() bool {
	return g.paused
}

// TogglePause flips the paused state.
func (g *Game) TogglePause() {
	g.paused = !g.paused
}

// StepsPerUpdate returns the number of steps per Update call.
func (g *Game) StepsPerUpdate() int {
	return g.stepsPerUpdate
}

// SetStepsPerUpdate sets the simulation speed multiplier, clamped to [1, 10].
func (g *Game) SetStepsPerUpdate(n int) {
	g.stepsPerUpdate = max(1, min(n, 10))
}
