package systems

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/flock/components"
)

// Band is the interaction zone a neighbor falls into.
type Band uint8

const (
	BandNone Band = iota
	BandRepulsion
	BandOrientation
	BandAttraction
)

// ZoneRadii holds the outer radius of each concentric zone.
// Callers guarantee 0 < Repulsion < Orientation < Attraction.
type ZoneRadii struct {
	Repulsion   float64
	Orientation float64
	Attraction  float64
}

// ClassifyBand maps a neighbor distance to exactly one band.
// Lower bounds are inclusive: d == Repulsion is orientation, not repulsion.
func ClassifyBand(d float64, r ZoneRadii) Band {
	switch {
	case d < r.Repulsion:
		return BandRepulsion
	case d < r.Orientation:
		return BandOrientation
	case d < r.Attraction:
		return BandAttraction
	default:
		return BandNone
	}
}

// AgentSnapshot is the read-only view of an agent used during classification.
type AgentSnapshot struct {
	Pos     r2.Vec
	Heading r2.Vec
}

// Interact classifies other relative to self and registers it on z.
// Coincident agents (distance 0, including self) are skipped.
func Interact(z *components.Zones, self, other AgentSnapshot, r ZoneRadii) Band {
	dir := r2.Sub(other.Pos, self.Pos)
	d := r2.Norm(dir)
	if d == 0 {
		return BandNone
	}
	u := r2.Vec{X: dir.X / d, Y: dir.Y / d}

	band := ClassifyBand(d, r)
	switch band {
	case BandRepulsion:
		z.RegisterRepulsion(u)
	case BandOrientation:
		z.RegisterOrientation(other.Heading)
	case BandAttraction:
		z.RegisterAttraction(u)
	}
	return band
}

// DetectPredator registers the predator on z when it is strictly closer than
// radius. Returns true when the agent should skip neighbor classification.
func DetectPredator(z *components.Zones, pos, predator r2.Vec, radius float64) bool {
	dir := r2.Sub(predator, pos)
	if r2.Norm(dir) >= radius {
		return false
	}
	u, _ := Unit(dir)
	z.RegisterPredator(u)
	return true
}

// ClassifyNeighbors accumulates zone contributions for agent self from the
// candidate indices into agents (all agents when candidates is nil), then
// applies the orientation average. z must already be reset for this step.
func ClassifyNeighbors(z *components.Zones, self int, agents []AgentSnapshot, candidates []int32, r ZoneRadii) {
	me := agents[self]
	if candidates == nil {
		for j := range agents {
			Interact(z, me, agents[j], r)
		}
	} else {
		for _, j := range candidates {
			Interact(z, me, agents[j], r)
		}
	}
	z.AverageOrientation()
}
