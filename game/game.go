// Package game holds the Swarm: the ECS world of agents, food sources and the
// optional predator, and the step pipeline that advances them.
package game

import (
	"fmt"
	"math/rand"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/flock/components"
	"github.com/pthm-cable/flock/config"
	"github.com/pthm-cable/flock/systems"
	"github.com/pthm-cable/flock/telemetry"
)

// State is the run state of a Swarm.
type State uint8

const (
	StateRunning State = iota
	StateTerminated
)

// String returns the display name for a State.
func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Options configures a new Swarm beyond the loaded config.
type Options struct {
	// RNG drives spawning and the default noise source.
	// When nil a source seeded with Seed is created.
	RNG  *rand.Rand
	Seed int64

	// Noise overrides the Gaussian heading noise, e.g. with a fixed sequence.
	Noise systems.NoiseSource

	// Perf receives per-phase step timings when set.
	Perf *telemetry.PerfCollector
}

// AgentState is the read-only view of one agent after the last step.
type AgentState struct {
	Pos     r2.Vec
	Heading r2.Vec
	Desired r2.Vec
	Drive   components.Drive
	Fleeing bool // predator was inside the detection radius
}

// FoodState is the read-only view of one food source.
type FoodState struct {
	Pos        r2.Vec
	Radius     float64
	Remaining  int64
	Visibility float64
	Intensity  float64 // Visibility clamped to [0, 1]
}

// PredatorState is the read-only view of the predator.
type PredatorState struct {
	Pos     r2.Vec
	Heading r2.Vec
	Speed   float64
}

// Swarm owns the simulation world and advances it one step at a time.
type Swarm struct {
	cfg   *config.Config
	world *ecs.World
	rng   *rand.Rand
	noise systems.NoiseSource
	gauss *systems.GaussianNoise // owned default noise; nil when overridden
	perf  *telemetry.PerfCollector

	// Entity mappers
	agentMapper *ecs.Map4[
		components.Position,
		components.Heading,
		components.Kinematics,
		components.Zones,
	]
	agentFilter *ecs.Filter4[
		components.Position,
		components.Heading,
		components.Kinematics,
		components.Zones,
	]
	predatorMapper *ecs.Map4[
		components.Position,
		components.Heading,
		components.Kinematics,
		components.Predator,
	]
	foodMapper *ecs.Map2[components.Position, components.Food]
	foodFilter *ecs.Filter2[components.Position, components.Food]

	// Individual component mappers for lookups
	posMap     *ecs.Map1[components.Position]
	headingMap *ecs.Map1[components.Heading]
	kinMap     *ecs.Map1[components.Kinematics]
	predMap    *ecs.Map1[components.Predator]

	predator    ecs.Entity
	hasPredator bool

	radii       systems.ZoneRadii
	spatialGrid *systems.SpatialGrid
	parallel    *parallelState

	// Per-step buffers
	sites []systems.FoodSite

	// State
	state    State
	steps    int64
	simTime  float64
	consumed int64 // units consumed over the whole run
}

// NewSwarm creates an empty swarm from a validated copy of cfg.
// Call SpawnInitial or the Add methods to populate it.
func NewSwarm(cfg *config.Config, opts Options) (*Swarm, error) {
	if cfg == nil {
		return nil, fmt.Errorf("creating swarm: %w: nil config", config.ErrInvalid)
	}
	cfg = cfg.Clone()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("creating swarm: %w", err)
	}

	rng := opts.RNG
	if rng == nil {
		rng = rand.New(rand.NewSource(opts.Seed))
	}

	world := ecs.NewWorld()

	s := &Swarm{
		cfg:   cfg,
		world: world,
		rng:   rng,
		perf:  opts.Perf,
		agentMapper: ecs.NewMap4[
			components.Position,
			components.Heading,
			components.Kinematics,
			components.Zones,
		](world),
		agentFilter: ecs.NewFilter4[
			components.Position,
			components.Heading,
			components.Kinematics,
			components.Zones,
		](world),
		predatorMapper: ecs.NewMap4[
			components.Position,
			components.Heading,
			components.Kinematics,
			components.Predator,
		](world),
		foodMapper: ecs.NewMap2[components.Position, components.Food](world),
		foodFilter: ecs.NewFilter2[components.Position, components.Food](world),
		posMap:     ecs.NewMap1[components.Position](world),
		headingMap: ecs.NewMap1[components.Heading](world),
		kinMap:     ecs.NewMap1[components.Kinematics](world),
		predMap:    ecs.NewMap1[components.Predator](world),
		parallel:   newParallelState(cfg.Parallel.Workers),
		radii: systems.ZoneRadii{
			Repulsion:   cfg.Zones.Repulsion,
			Orientation: cfg.Zones.Orientation,
			Attraction:  cfg.Zones.Attraction,
		},
	}

	if opts.Noise != nil {
		s.noise = opts.Noise
	} else {
		s.gauss = systems.NewGaussianNoise(rng, cfg.Swarm.Sigma)
		s.noise = s.gauss
	}

	if cfg.Physics.GridCellSize > 0 {
		s.spatialGrid = systems.NewSpatialGrid(cfg.World.SpaceSize, cfg.Physics.GridCellSize)
	}

	return s, nil
}

// Config returns the swarm's private copy of the configuration.
func (s *Swarm) Config() *config.Config {
	return s.cfg
}

// State returns the current run state.
func (s *Swarm) State() State {
	return s.state
}

// Terminated reports whether every food source has been exhausted.
func (s *Swarm) Terminated() bool {
	return s.state == StateTerminated
}

// Steps returns the number of steps taken.
func (s *Swarm) Steps() int64 {
	return s.steps
}

// SimTime returns the accumulated simulated time.
func (s *Swarm) SimTime() float64 {
	return s.simTime
}

// Consumed returns the total food units eaten so far.
func (s *Swarm) Consumed() int64 {
	return s.consumed
}

// NumAgents returns the agent count.
func (s *Swarm) NumAgents() int {
	n := 0
	query := s.agentFilter.Query()
	for query.Next() {
		n++
	}
	return n
}

// Agents returns a snapshot of every agent in step order.
func (s *Swarm) Agents() []AgentState {
	out := make([]AgentState, 0, len(s.parallel.snapshots))
	query := s.agentFilter.Query()
	for query.Next() {
		pos, heading, _, zones := query.Get()
		out = append(out, AgentState{
			Pos:     pos.Vec(),
			Heading: heading.Vec(),
			Desired: zones.Desired,
			Drive:   zones.Drive,
			Fleeing: zones.Drive == components.DriveFlee,
		})
	}
	return out
}

// Foods returns a snapshot of every food source in creation order.
func (s *Swarm) Foods() []FoodState {
	var out []FoodState
	query := s.foodFilter.Query()
	for query.Next() {
		pos, food := query.Get()
		out = append(out, FoodState{
			Pos:        pos.Vec(),
			Radius:     food.Radius,
			Remaining:  food.Remaining,
			Visibility: food.Visibility,
			Intensity:  food.Intensity(),
		})
	}
	return out
}

// Predator returns the predator state, if the swarm has one.
func (s *Swarm) Predator() (PredatorState, bool) {
	if !s.hasPredator {
		return PredatorState{}, false
	}
	pos := s.posMap.Get(s.predator)
	heading := s.headingMap.Get(s.predator)
	kin := s.kinMap.Get(s.predator)
	return PredatorState{Pos: pos.Vec(), Heading: heading.Vec(), Speed: kin.Speed}, true
}

// SetNoise replaces the heading noise source.
func (s *Swarm) SetNoise(n systems.NoiseSource) {
	s.noise = n
	s.gauss = nil
}

// SetSigma changes the standard deviation of the default Gaussian noise.
// It has no effect on the samples of a noise source installed with SetNoise.
func (s *Swarm) SetSigma(sigma float64) error {
	if sigma < 0 {
		return fmt.Errorf("setting sigma: %w: sigma must be >= 0 (got %g)", config.ErrInvalid, sigma)
	}
	s.cfg.Swarm.Sigma = sigma
	if s.gauss != nil {
		s.gauss.Sigma = sigma
	}
	return nil
}

// Close stops the worker pool. The swarm must not be stepped afterwards.
func (s *Swarm) Close() {
	if s.parallel != nil {
		s.parallel.stopWorkers()
	}
}
