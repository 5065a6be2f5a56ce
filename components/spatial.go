package components

import "gonum.org/v1/gonum/spatial/r2"

// Position represents an entity's world position.
type Position r2.Vec

// Heading is an entity's unit direction of travel.
type Heading r2.Vec

// Vec returns the position as a gonum vector.
func (p Position) Vec() r2.Vec { return r2.Vec(p) }

// Vec returns the heading as a gonum vector.
func (h Heading) Vec() r2.Vec { return r2.Vec(h) }

// Kinematics holds the motion limits of a moving entity.
type Kinematics struct {
	Speed       float64 // distance per unit time
	MaxTurnRate float64 // radians per step
}

// Predator marks the pursuing entity.
type Predator struct {
	Target r2.Vec // last pursuit target
}
