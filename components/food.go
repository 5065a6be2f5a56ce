package components

// Food is a consumable resource patch.
// Remaining only decreases, one unit per successful consumption.
type Food struct {
	Radius         float64 // consumption range
	Remaining      int64   // units left
	Visibility     float64 // display intensity, starts at 1, no floor
	VisibilityStep float64 // visibility lost per consumed unit
}

// NewFood returns a full food source.
func NewFood(radius float64, units int64, visibilityStep float64) Food {
	return Food{
		Radius:         radius,
		Remaining:      units,
		Visibility:     1.0,
		VisibilityStep: visibilityStep,
	}
}

// Exhausted reports whether no units remain.
func (f *Food) Exhausted() bool {
	return f.Remaining <= 0
}

// Consume removes one unit if any remain. Returns true if a unit was taken.
func (f *Food) Consume() bool {
	if f.Remaining <= 0 {
		return false
	}
	f.Remaining--
	f.Visibility -= f.VisibilityStep
	return true
}

// Intensity returns Visibility clamped to [0, 1] for rendering.
func (f *Food) Intensity() float64 {
	switch {
	case f.Visibility < 0:
		return 0
	case f.Visibility > 1:
		return 1
	default:
		return f.Visibility
	}
}
