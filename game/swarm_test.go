package game

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/flock/components"
	"github.com/pthm-cable/flock/config"
	"github.com/pthm-cable/flock/systems"
	"github.com/pthm-cable/flock/telemetry"
)

// testConfig returns defaults with the predator disabled and no initial food.
func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Predator.Enabled = false
	cfg.Food.Count = 0
	cfg.Refresh()
	return cfg
}

func newTestSwarm(t *testing.T, cfg *config.Config, opts Options) *Swarm {
	t.Helper()
	s, err := NewSwarm(cfg, opts)
	if err != nil {
		t.Fatalf("NewSwarm: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func TestNewSwarmRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Zones.Orientation = 2 // below repulsion

	_, err := NewSwarm(cfg, Options{})
	if !errors.Is(err, config.ErrInvalid) {
		t.Fatalf("NewSwarm error = %v, want ErrInvalid", err)
	}

	if _, err := NewSwarm(nil, Options{}); !errors.Is(err, config.ErrInvalid) {
		t.Errorf("NewSwarm(nil) error = %v, want ErrInvalid", err)
	}
}

func TestTerminatesInOneStep(t *testing.T) {
	s := newTestSwarm(t, testConfig(), Options{Seed: 1})
	s.AddFood(r2.Vec{X: 50, Y: 50}, 1)
	s.AddAgent(r2.Vec{X: 51, Y: 50}, r2.Vec{X: 1})

	if s.State() != StateRunning {
		t.Fatalf("initial state = %v, want running", s.State())
	}
	if !s.Step(0.1, r2.Vec{}) {
		t.Fatal("Step() = false, want true after the only unit was eaten")
	}
	if !s.Terminated() || s.Steps() != 1 || s.Consumed() != 1 {
		t.Errorf("state %v steps %d consumed %d, want terminated/1/1", s.State(), s.Steps(), s.Consumed())
	}

	// Terminated swarm does not advance
	before := s.Agents()
	if !s.Step(0.1, r2.Vec{}) {
		t.Error("Step() on terminated swarm = false")
	}
	if s.Steps() != 1 {
		t.Errorf("steps = %d after terminated step, want 1", s.Steps())
	}
	if after := s.Agents(); after[0] != before[0] {
		t.Errorf("agent moved after termination: %v -> %v", before[0], after[0])
	}
}

func TestFoodConsumedOncePerAgent(t *testing.T) {
	s := newTestSwarm(t, testConfig(), Options{Noise: systems.NewSequenceNoise()})
	s.AddFood(r2.Vec{X: 50, Y: 50}, 2)
	for i := 0; i < 3; i++ {
		s.AddAgent(r2.Vec{X: 50 + float64(i), Y: 50}, r2.Vec{X: 1})
	}

	if !s.Step(0.1, r2.Vec{}) {
		t.Error("expected termination: three agents inside a two-unit source")
	}
	foods := s.Foods()
	if foods[0].Remaining != 0 {
		t.Errorf("remaining = %d, want 0 (never below zero)", foods[0].Remaining)
	}
	if s.Consumed() != 2 {
		t.Errorf("consumed = %d, want 2", s.Consumed())
	}
}

func TestFoodMonotonic(t *testing.T) {
	cfg := config.Default()
	cfg.Food.Count = 4
	cfg.Food.Units = 30
	cfg.Refresh()

	s := newTestSwarm(t, cfg, Options{Seed: 3})
	s.SpawnInitial()

	prev := s.Foods()
	for step := 0; step < 400 && !s.Terminated(); step++ {
		s.Step(cfg.Physics.DT, r2.Vec{X: 100, Y: 100})
		cur := s.Foods()
		for i := range cur {
			if cur[i].Remaining > prev[i].Remaining {
				t.Fatalf("step %d: food %d grew from %d to %d", step, i, prev[i].Remaining, cur[i].Remaining)
			}
			if cur[i].Remaining < 0 {
				t.Fatalf("step %d: food %d negative", step, i)
			}
			if cur[i].Visibility > prev[i].Visibility {
				t.Fatalf("step %d: food %d visibility increased", step, i)
			}
		}
		prev = cur
	}
}

func TestHeadingsStayUnitAndInBounds(t *testing.T) {
	cfg := config.Default()
	cfg.Food.Units = 1000
	cfg.Refresh()

	s := newTestSwarm(t, cfg, Options{Seed: 11})
	s.SpawnInitial()

	size := cfg.World.SpaceSize
	for step := 0; step < 300; step++ {
		s.Step(cfg.Physics.DT, r2.Vec{X: 60, Y: 60})
	}
	for i, a := range s.Agents() {
		if math.Abs(r2.Norm(a.Heading)-1) > 1e-9 {
			t.Errorf("agent %d heading length %v", i, r2.Norm(a.Heading))
		}
		if a.Pos.X < 0 || a.Pos.X > size || a.Pos.Y < 0 || a.Pos.Y > size {
			t.Errorf("agent %d out of bounds: %v", i, a.Pos)
		}
	}
}

func TestSpawnInitial(t *testing.T) {
	cfg := config.Default()
	s := newTestSwarm(t, cfg, Options{Seed: 5})
	s.SpawnInitial()

	agents := s.Agents()
	if len(agents) != cfg.Swarm.Agents || s.NumAgents() != cfg.Swarm.Agents {
		t.Fatalf("agents = %d, want %d", len(agents), cfg.Swarm.Agents)
	}
	src := cfg.Swarm.Source
	for i, a := range agents {
		if math.Abs(a.Pos.X-src[0]) > cfg.Swarm.SourceSpread || math.Abs(a.Pos.Y-src[1]) > cfg.Swarm.SourceSpread {
			t.Errorf("agent %d spawned outside the source square: %v", i, a.Pos)
		}
	}

	foods := s.Foods()
	if len(foods) != cfg.Food.Count {
		t.Fatalf("foods = %d, want %d", len(foods), cfg.Food.Count)
	}
	for i, f := range foods {
		// Two sources share the center row
		if f.Pos.Y != cfg.World.SpaceSize/2 || f.Pos.X < 0 || f.Pos.X >= cfg.Food.Extent {
			t.Errorf("food %d placed at %v", i, f.Pos)
		}
		if f.Remaining != cfg.Food.Units || f.Intensity != 1 {
			t.Errorf("food %d not full: %+v", i, f)
		}
	}

	pred, ok := s.Predator()
	if !ok {
		t.Fatal("predator missing with predator.enabled")
	}
	lo, hi := 0.8*cfg.World.SpaceSize, 0.95*cfg.World.SpaceSize
	if pred.Pos.X < lo || pred.Pos.X > hi || pred.Pos.Y < lo || pred.Pos.Y > hi {
		t.Errorf("predator spawned at %v, want within [%v, %v]", pred.Pos, lo, hi)
	}
	if pred.Speed != cfg.Swarm.Speed*1.5 {
		t.Errorf("predator speed = %v, want %v", pred.Speed, cfg.Swarm.Speed*1.5)
	}
}

func TestAddPredatorOnce(t *testing.T) {
	s := newTestSwarm(t, testConfig(), Options{})
	if _, err := s.AddPredator(r2.Vec{X: 10, Y: 10}, r2.Vec{X: 1}); err != nil {
		t.Fatalf("first AddPredator: %v", err)
	}
	if _, err := s.AddPredator(r2.Vec{X: 20, Y: 20}, r2.Vec{X: 1}); !errors.Is(err, ErrPredatorExists) {
		t.Errorf("second AddPredator error = %v, want ErrPredatorExists", err)
	}
}

func TestPredatorPreemptsFlocking(t *testing.T) {
	s := newTestSwarm(t, testConfig(), Options{Noise: systems.NewSequenceNoise(0)})
	s.AddFood(r2.Vec{X: 5, Y: 5}, 100)
	s.AddAgent(r2.Vec{X: 50, Y: 50}, r2.Vec{Y: 1})
	// Neighbor inside the repulsion zone would otherwise dominate
	s.AddAgent(r2.Vec{X: 50, Y: 52}, r2.Vec{Y: 1})
	if _, err := s.AddPredator(r2.Vec{X: 60, Y: 50}, r2.Vec{X: -1}); err != nil {
		t.Fatalf("AddPredator: %v", err)
	}

	target := r2.Vec{X: 60, Y: 80}
	s.Step(0.1, target)

	agents := s.Agents()
	if agents[0].Drive != components.DriveFlee || !agents[0].Fleeing {
		t.Fatalf("drive = %v, want flee", agents[0].Drive)
	}
	if math.Abs(agents[0].Desired.X+1) > 1e-9 || math.Abs(agents[0].Desired.Y) > 1e-9 {
		t.Errorf("desired = %v, want {-1 0} away from the predator", agents[0].Desired)
	}

	pred, _ := s.Predator()
	if math.Abs(pred.Heading.Y-1) > 1e-9 {
		t.Errorf("predator heading = %v, want straight at the target", pred.Heading)
	}
	if math.Abs(pred.Pos.Y-(50+pred.Speed*0.1)) > 1e-9 {
		t.Errorf("predator pos = %v, want advanced by speed*dt", pred.Pos)
	}
}

func TestDeterministicReplay(t *testing.T) {
	cfg := config.Default()
	cfg.Food.Units = 1000
	cfg.Refresh()

	run := func() []AgentState {
		s := newTestSwarm(t, cfg, Options{Seed: 42})
		s.SpawnInitial()
		for i := 0; i < 100; i++ {
			s.Step(cfg.Physics.DT, r2.Vec{X: 20 + float64(i), Y: 40})
		}
		return s.Agents()
	}

	a, b := run(), run()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("agent %d diverged: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestSerialParallelGridAgree(t *testing.T) {
	base := config.Default()
	base.Swarm.Agents = 150
	base.Swarm.SourceSpread = 30
	base.Swarm.Source = [2]float64{60, 60}
	base.Food.Units = 1000
	base.Refresh()

	variants := map[string]func(c *config.Config){
		"serial": func(c *config.Config) {},
		"parallel": func(c *config.Config) {
			c.Parallel.Workers = 4
			c.Parallel.Threshold = 1
		},
		"grid": func(c *config.Config) {
			c.Physics.GridCellSize = c.Zones.Attraction
		},
		"parallel+grid": func(c *config.Config) {
			c.Parallel.Workers = 3
			c.Parallel.Threshold = 1
			c.Physics.GridCellSize = 10
		},
	}

	results := make(map[string][]AgentState)
	for name, apply := range variants {
		cfg := base.Clone()
		apply(cfg)
		s := newTestSwarm(t, cfg, Options{Seed: 9})
		s.SpawnInitial()
		for i := 0; i < 60; i++ {
			s.Step(cfg.Physics.DT, r2.Vec{X: 60, Y: 60})
		}
		results[name] = s.Agents()
	}

	want := results["serial"]
	for name, got := range results {
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("%s: agent %d = %+v, serial = %+v", name, i, got[i], want[i])
			}
		}
	}
}

func TestSetSigma(t *testing.T) {
	s := newTestSwarm(t, testConfig(), Options{})
	if err := s.SetSigma(-1); !errors.Is(err, config.ErrInvalid) {
		t.Errorf("SetSigma(-1) error = %v, want ErrInvalid", err)
	}
	if err := s.SetSigma(0.3); err != nil {
		t.Fatalf("SetSigma(0.3): %v", err)
	}
	if s.Config().Swarm.Sigma != 0.3 {
		t.Errorf("sigma = %v, want 0.3", s.Config().Swarm.Sigma)
	}
}

func TestStepRecordsPerf(t *testing.T) {
	perf := telemetry.NewPerfCollector(8)
	s := newTestSwarm(t, config.Default(), Options{Seed: 2, Perf: perf})
	s.SpawnInitial()
	s.Step(0.1, r2.Vec{})

	stats := perf.Stats()
	for _, phase := range []string{telemetry.PhaseSnapshot, telemetry.PhaseFeeding, telemetry.PhaseClassify, telemetry.PhaseMotion, telemetry.PhasePursuit} {
		if _, ok := stats.PhaseAvg[phase]; !ok {
			t.Errorf("phase %q not timed", phase)
		}
	}
}
