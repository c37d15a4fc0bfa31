package telemetry

import (
	"log/slog"
	"slices"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Step phases in the order Game.Step runs them. The ids double as system ids
// in the UI registry.
const (
	PhaseTraffic    = "traffic"
	PhaseBroadphase = "broadphase"
	PhasePhysics    = "physics"
	PhaseCollision  = "collision"
	PhaseSensors    = "sensors"
	PhaseLeader     = "leader"
	PhaseTelemetry  = "telemetry"
)

// Phases lists every step phase in run order.
var Phases = []string{
	PhaseTraffic, PhaseBroadphase, PhasePhysics,
	PhaseCollision, PhaseSensors, PhaseLeader, PhaseTelemetry,
}

const notRun = -1

// PerfCollector times the phases of recent ticks.
// Samples live in a fixed ring of tick slots; each slot holds one duration per
// known phase, indexed like the phases slice. A negative entry marks a phase
// that did not run in that tick.
type PerfCollector struct {
	phases []string
	slot   map[string]int

	ticks  []float64   // tick duration in ns per ring slot
	spent  [][]float64 // [ring slot][phase] ns
	next   int
	filled int

	tickStart  time.Time
	phaseStart time.Time
	current    int // phase index being timed, -1 = none

	lastFrame time.Time
	frame     time.Duration
}

// NewPerfCollector creates a collector averaging over the last window ticks.
// Phases are pre-registered in step order; unknown phase names are added on
// first use and reported after them.
func NewPerfCollector(window int) *PerfCollector {
	if window < 1 {
		window = 60
	}
	p := &PerfCollector{
		slot:    make(map[string]int, len(Phases)),
		ticks:   make([]float64, window),
		spent:   make([][]float64, window),
		current: -1,
	}
	for _, name := range Phases {
		p.phaseIndex(name)
	}
	return p
}

func (p *PerfCollector) phaseIndex(name string) int {
	if i, ok := p.slot[name]; ok {
		return i
	}
	i := len(p.phases)
	p.phases = append(p.phases, name)
	p.slot[name] = i
	return i
}

// StartTick begins timing a tick and clears the slot it will fill.
func (p *PerfCollector) StartTick() {
	row := p.spent[p.next]
	if len(row) < len(p.phases) {
		row = make([]float64, len(p.phases))
	}
	for i := range row {
		row[i] = notRun
	}
	p.spent[p.next] = row

	p.tickStart = time.Now()
	p.current = -1
}

// StartPhase closes the running phase and starts timing name.
func (p *PerfCollector) StartPhase(name string) {
	now := time.Now()
	p.closePhase(now)
	p.current = p.phaseIndex(name)
	p.phaseStart = now
}

func (p *PerfCollector) closePhase(now time.Time) {
	if p.current < 0 {
		return
	}
	row := p.spent[p.next]
	for len(row) <= p.current {
		row = append(row, notRun)
	}
	p.spent[p.next] = row
	row[p.current] = max(row[p.current], 0) + float64(now.Sub(p.phaseStart))
	p.current = -1
}

// EndTick closes the running phase and commits the tick to the ring.
func (p *PerfCollector) EndTick() {
	now := time.Now()
	p.closePhase(now)
	p.ticks[p.next] = float64(now.Sub(p.tickStart))
	p.next = (p.next + 1) % len(p.ticks)
	p.filled = min(p.filled+1, len(p.ticks))
}

// RecordFrame marks a rendered frame; the gap to the previous call is the frame time.
func (p *PerfCollector) RecordFrame() {
	now := time.Now()
	if !p.lastFrame.IsZero() {
		p.frame = now.Sub(p.lastFrame)
	}
	p.lastFrame = now
}

// PhaseTiming is the average cost of one phase over the window.
type PhaseTiming struct {
	Name string
	Avg  time.Duration
	Pct  float64 // share of the average tick
}

// PerfStats summarizes the window.
type PerfStats struct {
	Ticks           int
	AvgTickDuration time.Duration
	MinTickDuration time.Duration
	MaxTickDuration time.Duration
	TicksPerSecond  float64

	// Phases in step order; phases never entered in the window are omitted.
	Phases []PhaseTiming

	FrameDuration time.Duration
	FPS           float64
}

// Phase looks up one phase by name.
func (s PerfStats) Phase(name string) (PhaseTiming, bool) {
	i := slices.IndexFunc(s.Phases, func(t PhaseTiming) bool { return t.Name == name })
	if i < 0 {
		return PhaseTiming{}, false
	}
	return s.Phases[i], true
}

// Stats aggregates the ticks currently in the window.
func (p *PerfCollector) Stats() PerfStats {
	s := PerfStats{Ticks: p.filled, FrameDuration: p.frame}
	if p.frame > 0 {
		s.FPS = float64(time.Second) / float64(p.frame)
	}
	if p.filled == 0 {
		return s
	}

	// Before the ring wraps only the first filled slots are valid.
	ticks := p.ticks[:p.filled]
	avg := stat.Mean(ticks, nil)
	s.AvgTickDuration = time.Duration(avg)
	s.MinTickDuration = time.Duration(floats.Min(ticks))
	s.MaxTickDuration = time.Duration(floats.Max(ticks))
	if avg > 0 {
		s.TicksPerSecond = float64(time.Second) / avg
	}

	column := make([]float64, p.filled)
	for i, name := range p.phases {
		ran := false
		for k, row := range p.spent[:p.filled] {
			column[k] = 0
			if i < len(row) && row[i] != notRun {
				column[k] = row[i]
				ran = true
			}
		}
		if !ran {
			continue
		}
		mean := stat.Mean(column, nil)
		t := PhaseTiming{Name: name, Avg: time.Duration(mean)}
		if avg > 0 {
			t.Pct = mean / avg * 100
		}
		s.Phases = append(s.Phases, t)
	}
	return s
}

// LogValue implements slog.LogValuer.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int64("avg_tick_us", s.AvgTickDuration.Microseconds()),
		slog.Int64("min_tick_us", s.MinTickDuration.Microseconds()),
		slog.Int64("max_tick_us", s.MaxTickDuration.Microseconds()),
		slog.Int("ticks_per_sec", int(s.TicksPerSecond)),
	}
	if s.FPS > 0 {
		attrs = append(attrs, slog.Int("fps", int(s.FPS)))
	}
	for _, t := range s.Phases {
		attrs = append(attrs, slog.Float64(t.Name+"_pct", float64(int(t.Pct*10))/10))
	}
	return slog.GroupValue(attrs...)
}

// LogStats logs the summary as one "perf" record.
func (s PerfStats) LogStats() {
	slog.Info("perf", "perf", s)
}

// PerfRecord is one perf.csv row.
type PerfRecord struct {
	Generation    int     `csv:"generation"`
	WindowEnd     int32   `csv:"window_end"`
	AvgTickUS     int64   `csv:"avg_tick_us"`
	MaxTickUS     int64   `csv:"max_tick_us"`
	TicksPerSec   float64 `csv:"ticks_per_sec"`
	TrafficPct    float64 `csv:"traffic_pct"`
	BroadphasePct float64 `csv:"broadphase_pct"`
	PhysicsPct    float64 `csv:"physics_pct"`
	CollisionPct  float64 `csv:"collision_pct"`
	SensorsPct    float64 `csv:"sensors_pct"`
	LeaderPct     float64 `csv:"leader_pct"`
	TelemetryPct  float64 `csv:"telemetry_pct"`
}

// Record flattens the summary for perf.csv at the end of a stats window.
func (s PerfStats) Record(generation int, windowEnd int32) PerfRecord {
	pct := func(name string) float64 {
		t, _ := s.Phase(name)
		return t.Pct
	}
	return PerfRecord{
		Generation:    generation,
		WindowEnd:     windowEnd,
		AvgTickUS:     s.AvgTickDuration.Microseconds(),
		MaxTickUS:     s.MaxTickDuration.Microseconds(),
		TicksPerSec:   s.TicksPerSecond,
		TrafficPct:    pct(PhaseTraffic),
		BroadphasePct: pct(PhaseBroadphase),
		PhysicsPct:    pct(PhasePhysics),
		CollisionPct:  pct(PhaseCollision),
		SensorsPct:    pct(PhaseSensors),
		LeaderPct:     pct(PhaseLeader),
		TelemetryPct:  pct(PhaseTelemetry),
	}
}
