package game

import "log/slog"

// logPeriodic logs world state and perf every log_interval ticks when enabled.
func (g *Game) logPeriodic() {
	interval := int32(g.cfg.Telemetry.LogInterval)
	if !g.opts.LogStats || interval <= 0 || g.tick%interval != 0 {
		return
	}
	g.logWorldState()
	g.perfCollector.Stats().LogStats()
}

// logWorldState logs the current world state.
func (g *Game) logWorldState() {
	attrs := []any{
		"tick", g.tick,
		"generation", g.generation,
		"alive", g.alive,
		"damaged", g.damaged,
	}
	if leader, ok := g.Leader(); ok {
		attrs = append(attrs,
			"leader", leader.ID,
			"leader_y", leader.Pose.Y,
			"leader_speed", leader.Pose.Speed,
			"leader_damaged", leader.Damaged,
		)
	}
	slog.Info("world", attrs...)
}
