package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/pthm-cable/selfdrive/config"
	"github.com/pthm-cable/selfdrive/game"
	"github.com/pthm-cable/selfdrive/neural"
	"github.com/pthm-cable/selfdrive/telemetry"
)

// errNoLeader is returned when a run ends without a network-driven leader.
var errNoLeader = errors.New("train: run has no network-driven leader")

// ctxCheckInterval is how many ticks a run takes between cancellation checks.
const ctxCheckInterval = 100

// runResult holds the outcome of one seeded generation.
type runResult struct {
	Seed    int64
	Ticks   int32
	Score   float64
	Damaged bool
	Windows []telemetry.WindowStats
	Leader  *neural.Network
}

// Evaluator runs one generation per seed, each in its own headless game.
type Evaluator struct {
	cfg      *config.Config
	champion *neural.Network
	maxTicks int32
	fitness  game.FitnessFunc

	mu   sync.Mutex
	best *runResult
}

// NewEvaluator creates an evaluator. champion may be nil for a random start.
func NewEvaluator(cfg *config.Config, champion *neural.Network, maxTicks int32) *Evaluator {
	return &Evaluator{
		cfg:      cfg,
		champion: champion,
		maxTicks: maxTicks,
		fitness:  game.Progress,
	}
}

// Run evaluates every seed in parallel and returns the results in seed order.
// The first failing run cancels the rest.
func (e *Evaluator) Run(ctx context.Context, seeds []int64) ([]runResult, error) {
	results := make([]runResult, len(seeds))
	eg, ctx := errgroup.WithContext(ctx)
	for i, seed := range seeds {
		eg.Go(func() error {
			r, err := e.runSimulation(ctx, seed)
			if err != nil {
				return fmt.Errorf("seed %d: %w", seed, err)
			}
			results[i] = r
			e.track(r)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Best returns the highest scoring run so far. Ties go to the earlier seed.
func (e *Evaluator) Best() (runResult, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.best == nil {
		return runResult{}, false
	}
	return *e.best, true
}

func (e *Evaluator) track(r runResult) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.best == nil || r.Score > e.best.Score || (r.Score == e.best.Score && r.Seed < e.best.Seed) {
		e.best = &r
	}
}

// runSimulation executes a single headless generation.
// It runs until every car is damaged or maxTicks is reached.
func (e *Evaluator) runSimulation(ctx context.Context, seed int64) (runResult, error) {
	// Each run gets a private store so games never share networks.
	store := telemetry.NewMemoryChampionStore()
	if e.champion != nil {
		if err := store.Save(e.champion); err != nil {
			return runResult{}, err
		}
	}

	result := runResult{Seed: seed}
	g, err := game.NewGameWithOptions(e.cfg, game.Options{
		Seed:           seed,
		StepsPerUpdate: 1,
		Mode:           config.ModeAI,
		Store:          store,
		Fitness:        e.fitness,
		StatsCallback: func(stats telemetry.WindowStats) {
			result.Windows = append(result.Windows, stats)
		},
	})
	if err != nil {
		return runResult{}, err
	}
	defer g.Unload()

	for g.Tick() < e.maxTicks {
		if g.Tick()%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return runResult{}, err
			}
		}

		g.UpdateHeadless()

		if alive, _ := g.Counts(); alive == 0 {
			break
		}
	}

	leader, ok := g.Leader()
	if !ok || leader.Network == nil {
		return runResult{}, errNoLeader
	}

	result.Ticks = g.Tick()
	result.Score = e.fitness(leader.Pose, leader.Damaged)
	result.Damaged = leader.Damaged
	result.Leader = leader.Network.Net.Clone()

	slog.Info("run finished",
		"seed", seed,
		"ticks", result.Ticks,
		"score", result.Score,
		"leader_damaged", result.Damaged,
	)
	return result, nil
}
