package telemetry

import (
	"log/slog"
	"slices"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a stats window.
// Progress runs towards negative y, so P10Y is the front of the pack.
type WindowStats struct {
	Generation      int   `csv:"generation"`
	WindowStartTick int32 `csv:"-"`
	WindowEndTick   int32 `csv:"window_end"` // ticks restart at 0 each generation

	// Population at window end
	Alive   int `csv:"alive"`
	Damaged int `csv:"damaged"`

	// Cars damaged during the window
	Crashes int `csv:"crashes"`

	// Leader at window end
	LeaderY     float64 `csv:"leader_y"`
	LeaderSpeed float64 `csv:"leader_speed"`
	BestY       float64 `csv:"best_y"` // lowest leader y over the run

	// Distribution of all controlled cars at window end
	MeanY     float64 `csv:"mean_y"`
	P10Y      float64 `csv:"p10_y"`
	P50Y      float64 `csv:"p50_y"`
	P90Y      float64 `csv:"p90_y"`
	MeanSpeed float64 `csv:"mean_speed"`
}

// ComputeDistribution returns the mean and the 10th, 50th and 90th empirical
// percentiles of values. Returns zeros for an empty slice.
func ComputeDistribution(values []float64) (mean, p10, p50, p90 float64) {
	if len(values) == 0 {
		return 0, 0, 0, 0
	}

	sorted := slices.Clone(values)
	slices.Sort(sorted)

	mean = stat.Mean(sorted, nil)
	p10 = stat.Quantile(0.10, stat.Empirical, sorted, nil)
	p50 = stat.Quantile(0.50, stat.Empirical, sorted, nil)
	p90 = stat.Quantile(0.90, stat.Empirical, sorted, nil)
	return mean, p10, p50, p90
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("generation", s.Generation),
		slog.Int("window_start", int(s.WindowStartTick)),
		slog.Int("window_end", int(s.WindowEndTick)),
		slog.Int("alive", s.Alive),
		slog.Int("damaged", s.Damaged),
		slog.Int("crashes", s.Crashes),
		slog.Float64("leader_y", s.LeaderY),
		slog.Float64("leader_speed", s.LeaderSpeed),
		slog.Float64("best_y", s.BestY),
		slog.Float64("mean_y", s.MeanY),
		slog.Float64("p10_y", s.P10Y),
		slog.Float64("p50_y", s.P50Y),
		slog.Float64("p90_y", s.P90Y),
		slog.Float64("mean_speed", s.MeanSpeed),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"generation", s.Generation,
		"window_end", s.WindowEndTick,
		"alive", s.Alive,
		"damaged", s.Damaged,
		"crashes", s.Crashes,
		"leader_y", s.LeaderY,
		"leader_speed", s.LeaderSpeed,
		"best_y", s.BestY,
		"mean_y", s.MeanY,
		"p10_y", s.P10Y,
		"p90_y", s.P90Y,
		"mean_speed", s.MeanSpeed,
	)
}
