package systems

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// clampFloat clamps a value between min and max.
func clampFloat(v, minVal, maxVal float64) float64 {
	if v < minVal {
		return minVal
	}
	if v > maxVal {
		return maxVal
	}
	return v
}

// sign returns -1, 0 or +1.
func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}

// Unit returns v scaled to unit length. ok is false for a zero-length vector,
// in which case v is returned unchanged.
func Unit(v r2.Vec) (u r2.Vec, ok bool) {
	n := r2.Norm(v)
	if n == 0 || math.IsNaN(n) {
		return v, false
	}
	return r2.Vec{X: v.X / n, Y: v.Y / n}, true
}

// UnitOr returns v normalized, or fallback when v has zero length.
func UnitOr(v, fallback r2.Vec) r2.Vec {
	if u, ok := Unit(v); ok {
		return u
	}
	return fallback
}

// AngleBetween returns the unsigned angle between two non-zero vectors in [0, Pi].
// The cosine is clamped so rounding past +-1 cannot produce NaN.
func AngleBetween(a, b r2.Vec) float64 {
	ua, okA := Unit(a)
	ub, okB := Unit(b)
	if !okA || !okB {
		return 0
	}
	return math.Acos(clampFloat(r2.Dot(ua, ub), -1, 1))
}

// EdgeSnap applies the boundary rule per axis: a coordinate above size snaps
// to 0 and one below 0 snaps to size.
func EdgeSnap(p r2.Vec, size float64) r2.Vec {
	return r2.Vec{X: snapAxis(p.X, size), Y: snapAxis(p.Y, size)}
}

func snapAxis(v, size float64) float64 {
	if v > size {
		return 0
	} else if v < 0 {
		return size
	}
	return v
}

// distance returns the Euclidean distance between two points.
func distance(a, b r2.Vec) float64 {
	return r2.Norm(r2.Sub(a, b))
}
