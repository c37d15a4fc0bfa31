package game

import (
	"log/slog"

	"github.com/pthm-cable/selfdrive/components"
	"github.com/pthm-cable/selfdrive/telemetry"
)

// flushTelemetry checks if the stats window should be flushed and handles bookmarks.
func (g *Game) flushTelemetry() {
	if !g.collector.ShouldFlush(g.tick) {
		return
	}

	stats := g.collector.Flush(g.tick, g.sample())
	perfStats := g.perfCollector.Stats()

	if g.opts.StatsCallback != nil {
		g.opts.StatsCallback(stats)
	}

	if g.opts.LogStats {
		stats.LogStats()
	}

	if g.outputManager != nil {
		if err := g.outputManager.WriteTelemetry(stats); err != nil {
			slog.Error("failed to write telemetry", "error", err)
		}
		if err := g.outputManager.WritePerf(perfStats.Record(g.generation, stats.WindowEndTick)); err != nil {
			slog.Error("failed to write perf", "error", err)
		}
	}

	for _, bm := range g.bookmarkDetector.Check(stats) {
		if g.opts.LogStats {
			bm.LogBookmark()
		}
		if g.outputManager != nil {
			if err := g.outputManager.WriteBookmark(bm); err != nil {
				slog.Error("failed to write bookmark", "error", err)
			}
		}
	}
}

// recordGeneration appends a generations.csv row for the running generation.
func (g *Game) recordGeneration(event, fingerprint string) {
	rec := telemetry.GenerationRecord{
		Generation:  g.generation,
		Event:       event,
		Tick:        g.tick,
		Alive:       g.alive,
		Damaged:     g.damaged,
		Fingerprint: fingerprint,
	}
	if leader, ok := g.Leader(); ok {
		rec.LeaderID = leader.ID
		rec.LeaderY = leader.Pose.Y
	}
	if err := g.outputManager.WriteGeneration(rec); err != nil {
		slog.Error("failed to write generation", "error", err)
	}
}

// sample collects the state of every controlled car.
func (g *Game) sample() telemetry.Sample {
	s := telemetry.Sample{Alive: g.alive, Damaged: g.damaged}

	query := g.carFilter.Query()
	for query.Next() {
		agent, pose, _, _ := query.Get()
		if agent.Kind == components.KindTraffic {
			continue
		}
		s.Ys = append(s.Ys, pose.Y)
		s.Speeds = append(s.Speeds, pose.Speed)
	}

	if g.hasLeader {
		leader := g.poseMap.Get(g.leader)
		s.LeaderY = leader.Y
		s.LeaderSpeed = leader.Speed
	}
	return s
}
