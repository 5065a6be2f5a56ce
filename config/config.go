// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Config holds all simulation configuration parameters.
type Config struct {
	Screen     ScreenConfig     `yaml:"screen"`
	World      WorldConfig      `yaml:"world"`
	Physics    PhysicsConfig    `yaml:"physics"`
	Swarm      SwarmConfig      `yaml:"swarm"`
	Zones      ZonesConfig      `yaml:"zones"`
	Predator   PredatorConfig   `yaml:"predator"`
	Food       FoodConfig       `yaml:"food"`
	Parallel   ParallelConfig   `yaml:"parallel"`
	Experiment ExperimentConfig `yaml:"experiment"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
	Server     ServerConfig     `yaml:"server"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings for the interactive viewers.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
	PanelW    int `yaml:"panel_width"` // raygui side panel width
}

// WorldConfig holds the square world dimension.
type WorldConfig struct {
	SpaceSize float64 `yaml:"space_size"`
}

// PhysicsConfig holds integration parameters.
type PhysicsConfig struct {
	DT           float64 `yaml:"dt"`
	GridCellSize float64 `yaml:"grid_cell_size"` // 0 = brute-force neighbor scan
}

// SwarmConfig holds agent creation parameters.
type SwarmConfig struct {
	Agents       int        `yaml:"agents"`
	Speed        float64    `yaml:"speed"`
	MaxTurnRate  float64    `yaml:"max_turn_rate"` // radians per step
	Sigma        float64    `yaml:"sigma"`         // std dev of the scalar heading noise
	Source       [2]float64 `yaml:"source"`        // spawn center
	SourceSpread float64    `yaml:"source_spread"` // half-width of the spawn square
}

// ZonesConfig holds the concentric interaction radii.
type ZonesConfig struct {
	Repulsion   float64 `yaml:"repulsion"`
	Orientation float64 `yaml:"orientation"`
	Attraction  float64 `yaml:"attraction"`
}

// PredatorConfig holds predator variant parameters.
type PredatorConfig struct {
	Enabled         bool    `yaml:"enabled"`
	Radius          float64 `yaml:"radius"`           // detection radius for agents
	SpeedMultiplier float64 `yaml:"speed_multiplier"` // predator speed = swarm speed * this
	SpawnMin        float64 `yaml:"spawn_min"`        // fraction of space_size
	SpawnMax        float64 `yaml:"spawn_max"`        // fraction of space_size
}

// FoodConfig holds food source parameters.
type FoodConfig struct {
	Count          int     `yaml:"count"`
	Units          int64   `yaml:"units"`
	Radius         float64 `yaml:"radius"`
	VisibilityStep float64 `yaml:"visibility_step"` // visibility lost per consumed unit
	Extent         float64 `yaml:"extent"`          // placement range on each axis
	RowMax         int     `yaml:"row_max"`         // counts up to this are placed on the center row
}

// ParallelConfig holds worker pool settings for neighbor classification.
type ParallelConfig struct {
	Workers   int `yaml:"workers"`   // 0 = GOMAXPROCS, 1 = serial
	Threshold int `yaml:"threshold"` // minimum agent count to use the pool
}

// ScenarioConfig is one row of the experiment table.
type ScenarioConfig struct {
	Name      string `yaml:"name"`
	FoodCount int    `yaml:"food_count"`
	Units     int64  `yaml:"units"`
}

// Headless pursuit targets.
const (
	TargetCenter   = "center"   // fixed at the middle of the world
	TargetCentroid = "centroid" // the swarm's mean position
)

// ExperimentConfig holds headless experiment parameters.
type ExperimentConfig struct {
	Trials    int              `yaml:"trials"`
	MaxSteps  int              `yaml:"max_steps"` // cap per run; unterminated runs are recorded as such
	Seed      int64            `yaml:"seed"`
	Target    string           `yaml:"target"` // headless pursuit target: "center" or "centroid"
	Scenarios []ScenarioConfig `yaml:"scenarios"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StepInterval int `yaml:"step_interval"` // steps between steps.csv samples (0 = off)
	PerfWindow   int `yaml:"perf_window"`   // samples kept per phase
	PerfInterval int `yaml:"perf_interval"` // steps between perf log lines
}

// ServerConfig holds websocket stream parameters.
type ServerConfig struct {
	Addr       string `yaml:"addr"`
	Path       string `yaml:"path"`
	TickRate   int    `yaml:"tick_rate"`
	MaxClients int    `yaml:"max_clients"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	PredatorSpeed float64 // Swarm.Speed * Predator.SpeedMultiplier
	Scenarios     []ScenarioConfig
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
		panic(fmt.Sprintf("config: embedded defaults: %v", err))
	}
	return cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

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

	cfg.computeDerived()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	cp := *c
	cp.Experiment.Scenarios = append([]ScenarioConfig(nil), c.Experiment.Scenarios...)
	cp.computeDerived()
	return &cp
}

// Refresh recomputes derived values after fields were changed in code.
func (c *Config) Refresh() {
	c.computeDerived()
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.PredatorSpeed = c.Swarm.Speed * c.Predator.SpeedMultiplier

	// Without a scenario table the single food setting is the only scenario
	if len(c.Experiment.Scenarios) > 0 {
		c.Derived.Scenarios = c.Experiment.Scenarios
	} else {
		c.Derived.Scenarios = []ScenarioConfig{{
			Name:      "default",
			FoodCount: c.Food.Count,
			Units:     c.Food.Units,
		}}
	}
	for i := range c.Derived.Scenarios {
		sc := &c.Derived.Scenarios[i]
		if sc.Name == "" {
			sc.Name = fmt.Sprintf("food%d_units%d", sc.FoodCount, sc.Units)
		}
	}
}

// Validate checks the invariants the step pipeline relies on.
// Every returned error wraps ErrInvalid.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
		}
	}

	z := c.Zones
	check(z.Repulsion > 0, "zones.repulsion must be > 0 (got %g)", z.Repulsion)
	check(z.Repulsion < z.Orientation, "zones.repulsion (%g) must be < zones.orientation (%g)", z.Repulsion, z.Orientation)
	check(z.Orientation < z.Attraction, "zones.orientation (%g) must be < zones.attraction (%g)", z.Orientation, z.Attraction)

	check(c.World.SpaceSize > 0, "world.space_size must be > 0 (got %g)", c.World.SpaceSize)
	check(c.Physics.DT > 0, "physics.dt must be > 0 (got %g)", c.Physics.DT)
	check(c.Physics.GridCellSize >= 0, "physics.grid_cell_size must be >= 0 (got %g)", c.Physics.GridCellSize)
	check(c.Swarm.Agents >= 0, "swarm.agents must be >= 0 (got %d)", c.Swarm.Agents)
	check(c.Swarm.Speed >= 0, "swarm.speed must be >= 0 (got %g)", c.Swarm.Speed)
	check(c.Swarm.MaxTurnRate >= 0, "swarm.max_turn_rate must be >= 0 (got %g)", c.Swarm.MaxTurnRate)
	check(c.Swarm.Sigma >= 0, "swarm.sigma must be >= 0 (got %g)", c.Swarm.Sigma)
	check(c.Food.Radius > 0, "food.radius must be > 0 (got %g)", c.Food.Radius)
	check(c.Food.Count >= 0, "food.count must be >= 0 (got %d)", c.Food.Count)
	check(c.Food.Units >= 0, "food.units must be >= 0 (got %d)", c.Food.Units)

	if c.Predator.Enabled {
		check(c.Predator.Radius > 0, "predator.radius must be > 0 (got %g)", c.Predator.Radius)
		check(c.Predator.SpawnMin <= c.Predator.SpawnMax, "predator.spawn_min (%g) must be <= predator.spawn_max (%g)",
			c.Predator.SpawnMin, c.Predator.SpawnMax)
	}

	check(c.Experiment.Target == "" || c.Experiment.Target == TargetCenter || c.Experiment.Target == TargetCentroid,
		"experiment.target must be %q or %q (got %q)", TargetCenter, TargetCentroid, c.Experiment.Target)

	for _, sc := range c.Derived.Scenarios {
		check(sc.FoodCount >= 0 && sc.Units >= 0, "scenario %q: food_count and units must be >= 0", sc.Name)
	}

	return errors.Join(errs...)
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
