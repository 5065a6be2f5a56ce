// Package systems contains the per-entity math of the simulation step.
package systems

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/spatial/r2"
)

// SpatialGrid buckets agent indices into square cells so a radius query only
// visits nearby cells. The world is not toroidal for distance purposes, so
// queries clamp at the borders instead of wrapping.
type SpatialGrid struct {
	cellSize float64
	cols     int
	rows     int
	cells    [][]int32
}

// NewSpatialGrid creates a grid covering a square world of the given size.
func NewSpatialGrid(size, cellSize float64) *SpatialGrid {
	cols := int(size/cellSize) + 1
	rows := cols

	cells := make([][]int32, cols*rows)
	for i := range cells {
		cells[i] = make([]int32, 0, 8)
	}

	return &SpatialGrid{
		cellSize: cellSize,
		cols:     cols,
		rows:     rows,
		cells:    cells,
	}
}

// Clear removes all indices from the grid.
func (g *SpatialGrid) Clear() {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
}

// Insert adds an agent index at the given position.
func (g *SpatialGrid) Insert(i int32, p r2.Vec) {
	col, row := g.cellOf(p.X), g.cellOf(p.Y)
	idx := row*g.cols + col
	g.cells[idx] = append(g.cells[idx], i)
}

// QueryInto appends every index whose cell intersects the square of half-width
// radius around p, sorted ascending, and returns the updated slice. The result
// is a superset of the agents within radius; callers still test distance.
// Reuse dst across calls to avoid allocations.
func (g *SpatialGrid) QueryInto(dst []int32, p r2.Vec, radius float64) []int32 {
	start := len(dst)

	c0, c1 := g.cellOf(p.X-radius), g.cellOf(p.X+radius)
	r0, r1 := g.cellOf(p.Y-radius), g.cellOf(p.Y+radius)

	for row := r0; row <= r1; row++ {
		for col := c0; col <= c1; col++ {
			dst = append(dst, g.cells[row*g.cols+col]...)
		}
	}

	// Ascending order keeps floating-point sums identical to a full scan
	slices.Sort(dst[start:])
	return dst
}

// cellOf returns the clamped cell coordinate for a world coordinate.
func (g *SpatialGrid) cellOf(v float64) int {
	c := int(math.Floor(v / g.cellSize))
	if c < 0 {
		return 0
	}
	if c >= g.cols {
		return g.cols - 1
	}
	return c
}
