// Command train runs one generation per seed in parallel, headless, and saves
// the best leader across all seeds as the new champion.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/pthm-cable/selfdrive/config"
	"github.com/pthm-cable/selfdrive/neural"
	"github.com/pthm-cable/selfdrive/telemetry"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Base config YAML file (empty = use defaults)")
	championPath := flag.String("champion", "", "Champion file (empty = use config)")
	maxTicks := flag.Int("max-ticks", 3000, "Ticks per generation (cap)")
	seeds := flag.Int("seeds", 4, "Number of seeded generations to run in parallel")
	baseSeed := flag.Int64("seed", 42, "First seed; the rest follow in steps of 1000")
	dryRun := flag.Bool("dry-run", false, "Report the best leader without saving it")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := run(*configPath, *championPath, int32(*maxTicks), *seeds, *baseSeed, *dryRun); err != nil {
		slog.Error("training failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath, championPath string, maxTicks int32, n int, baseSeed int64, dryRun bool) error {
	if n < 1 {
		return fmt.Errorf("seeds must be >= 1, got %d", n)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if championPath != "" {
		cfg.Persistence.ChampionPath = championPath
	}

	store := telemetry.NewFileChampionStore(cfg.Persistence.ChampionPath)
	champion := loadChampion(store, cfg.Derived.Topology)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	evalSeeds := make([]int64, n)
	for i := range evalSeeds {
		evalSeeds[i] = baseSeed + int64(i)*1000
	}

	slog.Info("training started",
		"run_id", store.RunID(),
		"seeds", evalSeeds,
		"max_ticks", maxTicks,
		"population", cfg.Population.Size,
		"from_champion", champion != nil,
	)

	start := time.Now()
	ev := NewEvaluator(cfg, champion, maxTicks)
	if _, err := ev.Run(ctx, evalSeeds); err != nil {
		return err
	}

	best, ok := ev.Best()
	if !ok {
		return errNoLeader
	}
	slog.Info("training finished",
		"elapsed", time.Since(start).Round(time.Millisecond).String(),
		"best_seed", best.Seed,
		"best_score", best.Score,
		"fingerprint", fmt.Sprintf("%016x", best.Leader.MarshalWeights().Fingerprint()),
	)

	if dryRun {
		return nil
	}
	if err := store.Save(best.Leader); err != nil {
		return err
	}
	slog.Info("champion saved", "path", store.Path())
	return nil
}

// loadChampion returns the stored champion, or nil when there is none or it
// cannot seed a population of this topology.
func loadChampion(store telemetry.ChampionStore, topology []int) *neural.Network {
	nn, err := store.Load()
	switch {
	case errors.Is(err, telemetry.ErrNoChampion):
		return nil
	case err != nil:
		slog.Warn("ignoring unreadable champion", "error", err)
		return nil
	case !nn.HasTopology(topology):
		slog.Warn("ignoring champion with different topology",
			"have", nn.Topology(),
			"want", topology,
		)
		return nil
	}
	return nn
}
