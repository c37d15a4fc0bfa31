package telemetry

// Sample is the state of the controlled cars at the end of a window.
type Sample struct {
	Alive       int
	Damaged     int
	LeaderY     float64
	LeaderSpeed float64
	Ys          []float64
	Speeds      []float64
}

// Collector accumulates events within tick windows and produces WindowStats.
// One collector serves a single generation.
type Collector struct {
	generation      int
	windowTicks     int32
	windowStartTick int32

	crashes int

	bestY   float64
	hasBest bool
}

// NewCollector creates a collector for one generation that flushes every windowTicks ticks.
func NewCollector(generation, windowTicks int) *Collector {
	if windowTicks < 1 {
		windowTicks = 1
	}
	return &Collector{generation: generation, windowTicks: int32(windowTicks)}
}

// RecordCrashes records cars that became damaged this tick.
func (c *Collector) RecordCrashes(n int) {
	c.crashes += n
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int32) bool {
	return currentTick-c.windowStartTick >= c.windowTicks
}

// Flush produces a WindowStats and resets counters for the next window.
func (c *Collector) Flush(currentTick int32, s Sample) WindowStats {
	if s.Alive+s.Damaged > 0 && (!c.hasBest || s.LeaderY < c.bestY) {
		c.bestY = s.LeaderY
		c.hasBest = true
	}

	meanY, p10, p50, p90 := ComputeDistribution(s.Ys)
	meanSpeed, _, _, _ := ComputeDistribution(s.Speeds)

	stats := WindowStats{
		Generation:      c.generation,
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		Alive:           s.Alive,
		Damaged:         s.Damaged,
		Crashes:         c.crashes,
		LeaderY:         s.LeaderY,
		LeaderSpeed:     s.LeaderSpeed,
		BestY:           c.bestY,
		MeanY:           meanY,
		P10Y:            p10,
		P50Y:            p50,
		P90Y:            p90,
		MeanSpeed:       meanSpeed,
	}

	c.windowStartTick = currentTick
	c.crashes = 0

	return stats
}

// WindowTicks returns the number of ticks per window.
func (c *Collector) WindowTicks() int32 {
	return c.windowTicks
}
