// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/selfdrive/neural"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Screen      ScreenConfig      `yaml:"screen"`
	Road        RoadConfig        `yaml:"road"`
	Car         CarConfig         `yaml:"car"`
	Traffic     TrafficConfig     `yaml:"traffic"`
	Sensors     SensorsConfig     `yaml:"sensors"`
	Neural      NeuralConfig      `yaml:"neural"`
	Population  PopulationConfig  `yaml:"population"`
	Persistence PersistenceConfig `yaml:"persistence"`
	Telemetry   TelemetryConfig   `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width        int `yaml:"width"`
	Height       int `yaml:"height"`
	TargetFPS    int `yaml:"target_fps"`
	NetworkWidth int `yaml:"network_width"` // width of the network diagram panel
}

// RoadConfig describes the straight multi-lane road.
type RoadConfig struct {
	CenterX   float64 `yaml:"center_x"`
	Width     float64 `yaml:"width"`
	LaneCount int     `yaml:"lane_count"`
	Infinity  float64 `yaml:"infinity"` // finite stand-in for an endless road
}

// CarConfig holds the body and motion model of the controlled cars.
type CarConfig struct {
	Width        float64 `yaml:"width"`
	Height       float64 `yaml:"height"`
	Acceleration float64 `yaml:"acceleration"`
	MaxSpeed     float64 `yaml:"max_speed"`
	Friction     float64 `yaml:"friction"`
	SteeringStep float64 `yaml:"steering_step"`
	SpawnLane    int     `yaml:"spawn_lane"`
	SpawnY       float64 `yaml:"spawn_y"`
}

// TrafficConfig holds scripted traffic placement.
type TrafficConfig struct {
	MaxSpeed float64      `yaml:"max_speed"`
	Cars     []TrafficCar `yaml:"cars"`
}

// TrafficCar places one traffic car.
type TrafficCar struct {
	Lane int     `yaml:"lane"`
	Y    float64 `yaml:"y"`
}

// SensorsConfig holds the ray fan parameters.
type SensorsConfig struct {
	RayCount  int     `yaml:"ray_count"`
	RayLength float64 `yaml:"ray_length"`
	RaySpread float64 `yaml:"ray_spread"` // radians
}

// NeuralConfig holds network topology parameters.
type NeuralConfig struct {
	HiddenLayers []int `yaml:"hidden_layers"` // Sizes of hidden layers, e.g. [6]
}

// PopulationConfig holds population generation parameters.
type PopulationConfig struct {
	Size           int     `yaml:"size"`
	MutationAmount float64 `yaml:"mutation_amount"`
	Mode           string  `yaml:"mode"` // "ai" or "keys"
}

// PersistenceConfig holds champion storage settings.
type PersistenceConfig struct {
	ChampionPath string `yaml:"champion_path"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow         int `yaml:"stats_window"`          // ticks per stats window
	LogInterval         int `yaml:"log_interval"`          // ticks between world state log lines
	PerfCollectorWindow int `yaml:"perf_collector_window"` // ticks averaged by the perf collector
}

// Population modes.
const (
	ModeAI   = "ai"
	ModeKeys = "keys"
)

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	Topology []int // ray_count, hidden..., neural.NumOutputs
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Default returns a fresh copy of the embedded defaults.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults are invalid: %v", err))
	}
	return cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	// Start with embedded defaults
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	// Load user config if provided
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cfg.computeDerived()

	return cfg, nil
}

// Validate rejects configurations the simulation cannot be built from.
func (c *Config) Validate() error {
	var errs []error
	if c.Sensors.RayCount < 1 {
		errs = append(errs, fmt.Errorf("sensors.ray_count must be >= 1, got %d", c.Sensors.RayCount))
	}
	if c.Sensors.RayLength <= 0 {
		errs = append(errs, fmt.Errorf("sensors.ray_length must be > 0, got %g", c.Sensors.RayLength))
	}
	if c.Road.LaneCount < 1 {
		errs = append(errs, fmt.Errorf("road.lane_count must be >= 1, got %d", c.Road.LaneCount))
	}
	if c.Road.Width <= 0 {
		errs = append(errs, fmt.Errorf("road.width must be > 0, got %g", c.Road.Width))
	}
	if c.Car.Width <= 0 || c.Car.Height <= 0 {
		errs = append(errs, fmt.Errorf("car size must be positive, got %gx%g", c.Car.Width, c.Car.Height))
	}
	if c.Car.Friction < 0 || c.Car.MaxSpeed <= 0 {
		errs = append(errs, fmt.Errorf("car.friction must be >= 0 and car.max_speed > 0"))
	}
	for i, h := range c.Neural.HiddenLayers {
		if h < 1 {
			errs = append(errs, fmt.Errorf("neural.hidden_layers[%d] must be >= 1, got %d", i, h))
		}
	}
	if c.Population.Size < 1 {
		errs = append(errs, fmt.Errorf("population.size must be >= 1, got %d", c.Population.Size))
	}
	if a := c.Population.MutationAmount; a < 0 || a > 1 {
		errs = append(errs, fmt.Errorf("population.mutation_amount must be in [0,1], got %g", a))
	}
	if m := c.Population.Mode; m != ModeAI && m != ModeKeys {
		errs = append(errs, fmt.Errorf("population.mode must be %q or %q, got %q", ModeAI, ModeKeys, m))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	topo := make([]int, 0, len(c.Neural.HiddenLayers)+2)
	topo = append(topo, c.Sensors.RayCount)
	topo = append(topo, c.Neural.HiddenLayers...)
	topo = append(topo, neural.NumOutputs)
	c.Derived.Topology = topo
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
