package game

import (
	"log/slog"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/flock/components"
	"github.com/pthm-cable/flock/systems"
	"github.com/pthm-cable/flock/telemetry"
)

// Step advances the simulation by dt. target is the predator's pursuit point
// and is ignored when there is no predator. Returns true once every food
// source is exhausted; after that Step does nothing and keeps returning true.
func (s *Swarm) Step(dt float64, target r2.Vec) bool {
	if s.state == StateTerminated {
		return true
	}

	s.startTick()

	// Snapshot agents and reset their zones
	s.startPhase(telemetry.PhaseSnapshot)
	s.snapshot()

	// Feeding, single-threaded in agent order
	s.startPhase(telemetry.PhaseFeeding)
	s.feed()

	// Predator detection and neighbor classification
	if s.spatialGrid != nil {
		s.startPhase(telemetry.PhaseSpatialGrid)
		s.rebuildGrid()
	}
	s.startPhase(telemetry.PhaseClassify)
	s.classify()

	// Noise, desired heading and motion
	s.startPhase(telemetry.PhaseMotion)
	s.move(dt)

	if s.hasPredator {
		s.startPhase(telemetry.PhasePursuit)
		s.pursue(dt, target)
	}

	s.steps++
	s.simTime += dt

	done := systems.AllExhausted(s.sites)
	if done {
		s.state = StateTerminated
		slog.Debug("swarm terminated", "steps", s.steps, "sim_time", s.simTime, "consumed", s.consumed)
	}

	s.endTick()
	return done
}

// snapshot copies every agent into the step buffers in query order and
// resets its zone slot.
func (s *Swarm) snapshot() {
	p := s.parallel
	p.resize(0)

	query := s.agentFilter.Query()
	for query.Next() {
		pos, heading, _, _ := query.Get()
		p.snapshots = append(p.snapshots, systems.AgentSnapshot{
			Pos:     pos.Vec(),
			Heading: heading.Vec(),
		})
	}
	p.resize(len(p.snapshots))
	for i := range p.zones {
		p.zones[i].Reset()
	}

	if s.hasPredator {
		p.predator = s.posMap.Get(s.predator).Vec()
	}

	s.sites = s.sites[:0]
	foods := s.foodFilter.Query()
	for foods.Next() {
		pos, food := foods.Get()
		s.sites = append(s.sites, systems.FoodSite{Pos: pos.Vec(), Food: food})
	}
}

// feed lets every agent eat from every source it is inside of. Decrements
// are visible to later agents in the same step.
func (s *Swarm) feed() {
	for _, snap := range s.parallel.snapshots {
		s.consumed += int64(systems.Feed(snap.Pos, s.sites))
	}
}

// rebuildGrid indexes the snapshot positions.
func (s *Swarm) rebuildGrid() {
	s.spatialGrid.Clear()
	for i, snap := range s.parallel.snapshots {
		s.spatialGrid.Insert(int32(i), snap.Pos)
	}
}

// move draws one noise sample per agent in order, computes the desired
// heading and integrates motion, then writes the results back to the world.
// Runs after classification of every agent has finished.
func (s *Swarm) move(dt float64) {
	p := s.parallel
	size := s.cfg.World.SpaceSize

	i := 0
	query := s.agentFilter.Query()
	for query.Next() {
		pos, heading, kin, zones := query.Get()
		z := &p.zones[i]

		desired := systems.DesiredHeading(z, heading.Vec(), s.noise.Sample())
		newPos, newHeading := systems.StepMotion(pos.Vec(), heading.Vec(), desired, *kin, size, dt)

		*pos = components.Position(newPos)
		*heading = components.Heading(newHeading)
		*zones = *z
		// The flag is stale for the next step; Drive keeps the record
		zones.PredatorDetected = false
		i++
	}
}

// pursue advances the predator toward target.
func (s *Swarm) pursue(dt float64, target r2.Vec) {
	pos := s.posMap.Get(s.predator)
	heading := s.headingMap.Get(s.predator)
	kin := s.kinMap.Get(s.predator)
	pred := s.predMap.Get(s.predator)

	pred.Target = target
	newPos, newHeading := systems.Pursue(pos.Vec(), heading.Vec(), kin.Speed, target, dt, s.cfg.World.SpaceSize)
	*pos = components.Position(newPos)
	*heading = components.Heading(newHeading)
}

func (s *Swarm) startTick() {
	if s.perf != nil {
		s.perf.StartTick()
	}
}

func (s *Swarm) startPhase(name string) {
	if s.perf != nil {
		s.perf.StartPhase(name)
	}
}

func (s *Swarm) endTick() {
	if s.perf != nil {
		s.perf.EndTick()
	}
}
