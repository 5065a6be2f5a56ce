package systems

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/flock/components"
)

// FoodSite pairs a food component with its position.
type FoodSite struct {
	Pos  r2.Vec
	Food *components.Food
}

// Feed lets an agent at pos take one unit from every source it is strictly
// inside of. Returns the number of units consumed.
func Feed(pos r2.Vec, sites []FoodSite) int {
	eaten := 0
	for _, site := range sites {
		if distance(pos, site.Pos) < site.Food.Radius && site.Food.Consume() {
			eaten++
		}
	}
	return eaten
}

// AllExhausted reports whether every source is empty.
func AllExhausted(sites []FoodSite) bool {
	for _, site := range sites {
		if !site.Food.Exhausted() {
			return false
		}
	}
	return true
}
