package camera

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"
)

func near(a, b float32) bool {
	return math.Abs(float64(a-b)) < 0.01
}

func TestNew(t *testing.T) {
	cam := New(0, 0, 720, 720, 120)

	// Should be centered on world
	if cam.X != 60 || cam.Y != 60 {
		t.Errorf("expected camera at (60, 60), got (%f, %f)", cam.X, cam.Y)
	}
	if cam.Zoom != 1.0 {
		t.Errorf("expected zoom 1.0, got %f", cam.Zoom)
	}
	if !near(cam.Scale(), 6) {
		t.Errorf("expected scale 6, got %f", cam.Scale())
	}
}

func TestWorldToScreenFlipsY(t *testing.T) {
	cam := New(180, 0, 720, 720, 120)

	tests := []struct {
		name   string
		world  r2.Vec
		sx, sy float32
	}{
		{"center", r2.Vec{X: 60, Y: 60}, 540, 360},
		{"origin is bottom-left", r2.Vec{X: 0, Y: 0}, 180, 720},
		{"top-right", r2.Vec{X: 120, Y: 120}, 900, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sx, sy := cam.WorldToScreen(tt.world)
			if !near(sx, tt.sx) || !near(sy, tt.sy) {
				t.Errorf("WorldToScreen(%v) = (%f, %f), want (%f, %f)", tt.world, sx, sy, tt.sx, tt.sy)
			}
		})
	}
}

func TestScreenToWorldRoundtrip(t *testing.T) {
	cam := New(10, 20, 600, 400, 120)
	cam.SetZoom(2)
	cam.Pan(30, -15)

	testCases := []struct{ sx, sy float32 }{
		{310, 220}, // center
		{200, 100},
		{500, 350},
	}

	for _, tc := range testCases {
		w := cam.ScreenToWorld(tc.sx, tc.sy)
		sx, sy := cam.WorldToScreen(w)
		if !near(sx, tc.sx) || !near(sy, tc.sy) {
			t.Errorf("roundtrip failed: (%f,%f) -> %v -> (%f,%f)", tc.sx, tc.sy, w, sx, sy)
		}
	}
}

func TestScreenToWorldClamps(t *testing.T) {
	cam := New(0, 0, 720, 720, 120)
	w := cam.ScreenToWorld(-100, 2000)
	if w.X != 0 || w.Y != 0 {
		t.Errorf("expected clamp to origin, got %v", w)
	}
}

func TestCellAspect(t *testing.T) {
	// 80x24 terminal, cells twice as tall as wide
	cam := New(0, 0, 80, 24, 120)
	cam.CellAspect = 2

	// Height limits: 24 rows * 2 / 120 = 0.4 columns per unit
	if !near(cam.Scale(), 0.4) {
		t.Fatalf("scale = %f, want 0.4", cam.Scale())
	}
	_, top := cam.WorldToScreen(r2.Vec{X: 60, Y: 120})
	_, bottom := cam.WorldToScreen(r2.Vec{X: 60, Y: 0})
	if !near(top, 0) || !near(bottom, 24) {
		t.Errorf("world spans rows %f..%f, want 0..24", top, bottom)
	}
}

func TestZoomClamp(t *testing.T) {
	cam := New(0, 0, 720, 720, 120)

	cam.SetZoom(0.1)
	if cam.Zoom != cam.MinZoom {
		t.Errorf("expected zoom clamped to min %f, got %f", cam.MinZoom, cam.Zoom)
	}

	cam.ZoomBy(100)
	if cam.Zoom != cam.MaxZoom {
		t.Errorf("expected zoom clamped to max %f, got %f", cam.MaxZoom, cam.Zoom)
	}

	cam.Reset()
	if cam.Zoom != 1 || cam.X != 60 {
		t.Errorf("Reset left zoom %f at x %f", cam.Zoom, cam.X)
	}
}

func TestContains(t *testing.T) {
	cam := New(180, 0, 720, 720, 120)
	if cam.Contains(100, 100) {
		t.Error("panel area reported inside viewport")
	}
	if !cam.Contains(500, 100) {
		t.Error("viewport point reported outside")
	}
}
