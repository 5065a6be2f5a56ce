package systems

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/flock/components"
)

// DesiredHeading converts an agent's accumulated zone state into a unit target
// heading. The drive's raw vector gets the scalar noise added to both
// components, then is normalized. A zero-length result keeps the current
// heading. The chosen drive and desired heading are recorded on z.
func DesiredHeading(z *components.Zones, heading r2.Vec, noise float64) r2.Vec {
	drive := z.SelectDrive()
	target := z.Target(drive, heading)
	target = r2.Vec{X: target.X + noise, Y: target.Y + noise}

	z.Drive = drive
	z.Desired = UnitOr(target, heading)
	return z.Desired
}

// TurnToward rotates heading toward desired by at most maxTurn radians.
// The rotation direction follows the sign of the cross product, so an exactly
// opposite target (cross product 0) does not turn. A zero desired vector
// leaves heading unchanged.
func TurnToward(heading, desired r2.Vec, maxTurn float64) r2.Vec {
	if _, ok := Unit(desired); !ok {
		return heading
	}
	if _, ok := Unit(heading); !ok {
		return heading
	}

	angle := AngleBetween(heading, desired)
	turn := sign(r2.Cross(heading, desired)) * math.Min(angle, maxTurn)

	rotated := r2.Rotate(heading, turn, r2.Vec{})
	return UnitOr(rotated, heading)
}

// StepMotion turns an agent toward its desired heading, advances it by
// speed*dt and applies the edge snap. Returns the new position and heading.
func StepMotion(pos, heading, desired r2.Vec, kin components.Kinematics, size, dt float64) (r2.Vec, r2.Vec) {
	heading = TurnToward(heading, desired, kin.MaxTurnRate)
	pos = r2.Add(pos, r2.Scale(kin.Speed*dt, heading))
	return EdgeSnap(pos, size), heading
}
