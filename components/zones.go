// Package components defines ECS components for the simulation.
package components

import "gonum.org/v1/gonum/spatial/r2"

// Drive identifies which rule produced an agent's desired heading.
type Drive uint8

const (
	DriveCruise       Drive = iota // No neighbors: keep current heading
	DriveFlee                      // Predator inside detection radius
	DriveRepel                     // Neighbors inside the zone of repulsion
	DriveAlignAttract              // Neighbors in both orientation and attraction zones
	DriveAlign                     // Orientation neighbors only
	DriveAttract                   // Attraction neighbors only
)

var driveNames = [...]string{"cruise", "flee", "repel", "align+attract", "align", "attract"}

// String returns the display name for a Drive.
func (d Drive) String() string {
	if int(d) < len(driveNames) {
		return driveNames[d]
	}
	return "unknown"
}

// Zones holds an agent's per-step neighborhood accumulators.
// Reset must run once at the start of every step, before any neighbor scan.
type Zones struct {
	Repulsion   r2.Vec // sum of unit vectors toward repulsion neighbors
	Orientation r2.Vec // sum of orientation neighbors' headings
	Attraction  r2.Vec // sum of unit vectors toward attraction neighbors
	Predator    r2.Vec // unit vector toward the predator

	NumRepulsion   int
	NumOrientation int
	NumAttraction  int

	PredatorDetected bool

	Desired r2.Vec // unit target heading for this step
	Drive   Drive  // rule that produced Desired
}

// Reset clears all accumulators, counts and the predator flag.
func (z *Zones) Reset() {
	*z = Zones{}
}

// RegisterRepulsion accumulates a unit vector toward a neighbor in the zone of repulsion.
func (z *Zones) RegisterRepulsion(u r2.Vec) {
	z.Repulsion = r2.Add(z.Repulsion, u)
	z.NumRepulsion++
}

// RegisterOrientation accumulates a neighbor's heading.
func (z *Zones) RegisterOrientation(h r2.Vec) {
	z.Orientation = r2.Add(z.Orientation, h)
	z.NumOrientation++
}

// RegisterAttraction accumulates a unit vector toward a neighbor in the zone of attraction.
func (z *Zones) RegisterAttraction(u r2.Vec) {
	z.Attraction = r2.Add(z.Attraction, u)
	z.NumAttraction++
}

// RegisterPredator flags the predator and accumulates the unit vector toward it.
func (z *Zones) RegisterPredator(u r2.Vec) {
	z.PredatorDetected = true
	z.Predator = r2.Add(z.Predator, u)
}

// AverageOrientation divides the orientation sum by NumOrientation+1.
// The extra one counts the agent itself without adding its heading to the sum.
func (z *Zones) AverageOrientation() {
	if z.NumOrientation > 0 {
		z.Orientation = r2.Scale(1/float64(z.NumOrientation+1), z.Orientation)
	}
}

// SelectDrive returns the highest-priority rule that applies this step.
func (z *Zones) SelectDrive() Drive {
	switch {
	case z.PredatorDetected:
		return DriveFlee
	case z.NumRepulsion > 0:
		return DriveRepel
	case z.NumOrientation > 0 && z.NumAttraction > 0:
		return DriveAlignAttract
	case z.NumOrientation > 0:
		return DriveAlign
	case z.NumAttraction > 0:
		return DriveAttract
	default:
		return DriveCruise
	}
}

// Target returns the raw (pre-noise, unnormalized) desired vector for drive d.
func (z *Zones) Target(d Drive, heading r2.Vec) r2.Vec {
	switch d {
	case DriveFlee:
		return r2.Scale(-1, z.Predator)
	case DriveRepel:
		return r2.Scale(-1, z.Repulsion)
	case DriveAlignAttract:
		return r2.Scale(0.5, r2.Add(z.Orientation, z.Attraction))
	case DriveAlign:
		return z.Orientation
	case DriveAttract:
		return z.Attraction
	default:
		return heading
	}
}
