package game

import (
	"errors"
	"math"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/flock/components"
	"github.com/pthm-cable/flock/systems"
)

// ErrPredatorExists is returned when a second predator is added.
var ErrPredatorExists = errors.New("swarm already has a predator")

// SpawnInitial populates the world from the config: agents around the source
// point, then food sources, then the predator when the variant is enabled.
func (s *Swarm) SpawnInitial() {
	cfg := s.cfg

	for i := 0; i < cfg.Swarm.Agents; i++ {
		s.AddAgent(s.randomSpawnPos(), s.randomHeading())
	}

	for i := 0; i < cfg.Food.Count; i++ {
		s.AddFood(s.foodPos(cfg.Food.Count), cfg.Food.Units)
	}

	if cfg.Predator.Enabled && !s.hasPredator {
		lo := cfg.Predator.SpawnMin * cfg.World.SpaceSize
		hi := cfg.Predator.SpawnMax * cfg.World.SpaceSize
		pos := r2.Vec{
			X: lo + s.rng.Float64()*(hi-lo),
			Y: lo + s.rng.Float64()*(hi-lo),
		}
		// Cannot fail: checked above
		_, _ = s.AddPredator(pos, s.randomHeading())
	}
}

// AddAgent creates an agent with the configured speed and turn limit.
// A zero heading defaults to +X.
func (s *Swarm) AddAgent(pos, heading r2.Vec) ecs.Entity {
	p := components.Position(pos)
	h := components.Heading(systems.UnitOr(heading, r2.Vec{X: 1}))
	kin := components.Kinematics{
		Speed:       s.cfg.Swarm.Speed,
		MaxTurnRate: s.cfg.Swarm.MaxTurnRate,
	}
	zones := components.Zones{}
	return s.agentMapper.NewEntity(&p, &h, &kin, &zones)
}

// AddFood creates a food source with the configured radius.
func (s *Swarm) AddFood(pos r2.Vec, units int64) ecs.Entity {
	p := components.Position(pos)
	food := components.NewFood(s.cfg.Food.Radius, units, s.cfg.Food.VisibilityStep)
	return s.foodMapper.NewEntity(&p, &food)
}

// AddPredator creates the predator. Only one predator is allowed per swarm.
func (s *Swarm) AddPredator(pos, heading r2.Vec) (ecs.Entity, error) {
	if s.hasPredator {
		return s.predator, ErrPredatorExists
	}
	p := components.Position(pos)
	h := components.Heading(systems.UnitOr(heading, r2.Vec{X: 1}))
	kin := components.Kinematics{Speed: s.cfg.Derived.PredatorSpeed}
	pred := components.Predator{Target: pos}

	s.predator = s.predatorMapper.NewEntity(&p, &h, &kin, &pred)
	s.hasPredator = true
	return s.predator, nil
}

// randomSpawnPos returns a point uniform in the square around the source.
func (s *Swarm) randomSpawnPos() r2.Vec {
	src := s.cfg.Swarm.Source
	spread := s.cfg.Swarm.SourceSpread
	pos := r2.Vec{
		X: src[0] + (2*s.rng.Float64()-1)*spread,
		Y: src[1] + (2*s.rng.Float64()-1)*spread,
	}
	return systems.EdgeSnap(pos, s.cfg.World.SpaceSize)
}

// randomHeading returns a unit vector with uniform angle in [0, 2pi).
func (s *Swarm) randomHeading() r2.Vec {
	a := s.rng.Float64() * 2 * math.Pi
	return r2.Vec{X: math.Cos(a), Y: math.Sin(a)}
}

// foodPos places a food source. Small counts share the center row.
func (s *Swarm) foodPos(count int) r2.Vec {
	extent := s.cfg.Food.Extent
	x := s.rng.Float64() * extent
	if count <= s.cfg.Food.RowMax {
		return r2.Vec{X: x, Y: s.cfg.World.SpaceSize / 2}
	}
	return r2.Vec{X: x, Y: s.rng.Float64() * extent}
}
