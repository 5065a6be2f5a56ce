package systems

import "gonum.org/v1/gonum/spatial/r2"

// Pursue points the predator straight at target (no turn limit), advances it
// by speed*dt and applies the edge snap. When the predator already sits on the
// target its heading is kept.
func Pursue(pos, heading r2.Vec, speed float64, target r2.Vec, dt, size float64) (r2.Vec, r2.Vec) {
	heading = UnitOr(r2.Sub(target, pos), heading)
	pos = r2.Add(pos, r2.Scale(speed*dt, heading))
	return EdgeSnap(pos, size), heading
}
