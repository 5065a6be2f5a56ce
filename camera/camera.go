// Package camera maps the square simulation world onto a screen rectangle.
// World y points up; screen y points down.
package camera

import "gonum.org/v1/gonum/spatial/r2"

// Camera controls the viewport into the simulation world.
// Supports pan and zoom inside the non-wrapping world square.
type Camera struct {
	// Screen rectangle the world is drawn into
	OffsetX, OffsetY     float32
	ViewportW, ViewportH float32

	// CellAspect is the height/width ratio of one screen unit.
	// 1 for pixels, about 2 for terminal character cells.
	CellAspect float32

	// Position is the camera center in world coordinates
	X, Y float32

	// Zoom level (1.0 = whole world fits, 2.0 = 2x magnification)
	Zoom float32

	// World side length
	WorldSize float32

	// Zoom constraints
	MinZoom, MaxZoom float32
}

// New creates a camera centered on the world showing all of it.
func New(offsetX, offsetY, viewportW, viewportH float32, worldSize float64) *Camera {
	return &Camera{
		OffsetX:    offsetX,
		OffsetY:    offsetY,
		ViewportW:  viewportW,
		ViewportH:  viewportH,
		CellAspect: 1,
		X:          float32(worldSize) / 2,
		Y:          float32(worldSize) / 2,
		Zoom:       1.0,
		WorldSize:  float32(worldSize),
		MinZoom:    1.0,
		MaxZoom:    8.0,
	}
}

// Scale returns horizontal screen units per world unit. Vertical screen units
// per world unit are Scale()/CellAspect.
func (c *Camera) Scale() float32 {
	fitW := c.ViewportW / c.WorldSize
	fitH := c.ViewportH * c.CellAspect / c.WorldSize
	return min(fitW, fitH) * c.Zoom
}

// WorldToScreen converts world coordinates to screen coordinates.
func (c *Camera) WorldToScreen(p r2.Vec) (sx, sy float32) {
	s := c.Scale()
	dx := float32(p.X) - c.X
	dy := float32(p.Y) - c.Y
	sx = c.OffsetX + c.ViewportW/2 + dx*s
	sy = c.OffsetY + c.ViewportH/2 - dy*s/c.CellAspect
	return sx, sy
}

// ScreenToWorld converts screen coordinates to world coordinates, clamped to
// the world square.
func (c *Camera) ScreenToWorld(sx, sy float32) r2.Vec {
	s := c.Scale()
	wx := c.X + (sx-c.OffsetX-c.ViewportW/2)/s
	wy := c.Y - (sy-c.OffsetY-c.ViewportH/2)*c.CellAspect/s
	return r2.Vec{
		X: float64(clamp(wx, 0, c.WorldSize)),
		Y: float64(clamp(wy, 0, c.WorldSize)),
	}
}

// Length converts a world distance to horizontal screen units.
func (c *Camera) Length(d float64) float32 {
	return float32(d) * c.Scale()
}

// Contains reports whether a screen point lies inside the viewport.
func (c *Camera) Contains(sx, sy float32) bool {
	return sx >= c.OffsetX && sx < c.OffsetX+c.ViewportW &&
		sy >= c.OffsetY && sy < c.OffsetY+c.ViewportH
}

// Resize updates viewport dimensions.
func (c *Camera) Resize(viewportW, viewportH float32) {
	c.ViewportW = viewportW
	c.ViewportH = viewportH
}

// Pan moves the camera by the given delta in screen units, keeping the
// center inside the world.
func (c *Camera) Pan(dx, dy float32) {
	s := c.Scale()
	c.X = clamp(c.X+dx/s, 0, c.WorldSize)
	c.Y = clamp(c.Y-dy*c.CellAspect/s, 0, c.WorldSize)
}

// SetZoom sets the zoom level, clamped to min/max.
func (c *Camera) SetZoom(zoom float32) {
	c.Zoom = clamp(zoom, c.MinZoom, c.MaxZoom)
}

// ZoomBy multiplies the current zoom by the given factor.
func (c *Camera) ZoomBy(factor float32) {
	c.SetZoom(c.Zoom * factor)
}

// Reset returns the camera to the default position and zoom.
func (c *Camera) Reset() {
	c.X = c.WorldSize / 2
	c.Y = c.WorldSize / 2
	c.Zoom = 1.0
}

// clamp restricts a value to a range.
func clamp(x, lo, hi float32) float32 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
