package renderer

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/flock/components"
)

var (
	backgroundColor = rl.Color{R: 18, G: 22, B: 30, A: 255}
	worldColor      = rl.Color{R: 26, G: 32, B: 44, A: 255}
	worldEdgeColor  = rl.Color{R: 70, G: 80, B: 100, A: 255}
	predatorColor   = rl.Color{R: 230, G: 60, B: 60, A: 255}
	targetColor     = rl.Color{R: 255, G: 255, B: 255, A: 120}
)

var legendDrives = []components.Drive{
	components.DriveFlee,
	components.DriveRepel,
	components.DriveAlignAttract,
	components.DriveAlign,
	components.DriveAttract,
	components.DriveCruise,
}

// driveColor returns the agent colour for the rule that steered it.
func driveColor(d components.Drive) rl.Color {
	switch d {
	case components.DriveFlee:
		return rl.Color{R: 255, G: 140, B: 40, A: 255}
	case components.DriveRepel:
		return rl.Color{R: 240, G: 90, B: 160, A: 255}
	case components.DriveAlignAttract:
		return rl.Color{R: 120, G: 200, B: 255, A: 255}
	case components.DriveAlign:
		return rl.Color{R: 80, G: 150, B: 240, A: 255}
	case components.DriveAttract:
		return rl.Color{R: 150, G: 230, B: 200, A: 255}
	default:
		return rl.Color{R: 200, G: 200, B: 200, A: 255}
	}
}

// foodColor fades with the source's remaining visibility.
func foodColor(intensity float64) rl.Color {
	return rl.Color{
		R: 60,
		G: 200,
		B: 90,
		A: uint8(40 + intensity*180),
	}
}

// Draw renders the world and the control panel.
func (v *Viewer) Draw() {
	rl.BeginDrawing()
	rl.ClearBackground(backgroundColor)

	v.drawWorld()
	v.drawFood()
	v.drawAgents()
	v.drawPredator()
	v.drawTarget()
	v.drawPanel()

	rl.EndDrawing()
}

func (v *Viewer) drawWorld() {
	size := float64(v.cam.WorldSize)
	x0, y0 := v.cam.WorldToScreen(r2.Vec{X: 0, Y: size})
	x1, y1 := v.cam.WorldToScreen(r2.Vec{X: size, Y: 0})
	rect := rl.Rectangle{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
	rl.DrawRectangleRec(rect, worldColor)
	rl.DrawRectangleLinesEx(rect, 1, worldEdgeColor)
}

func (v *Viewer) drawFood() {
	for _, f := range v.foods {
		sx, sy := v.cam.WorldToScreen(f.Pos)
		r := v.cam.Length(f.Radius)
		color := foodColor(f.Intensity)
		if f.Remaining > 0 {
			rl.DrawCircle(int32(sx), int32(sy), r, color)
		}
		rl.DrawCircleLines(int32(sx), int32(sy), r, rl.Color{R: color.R, G: color.G, B: color.B, A: 200})

		label := fmt.Sprintf("%d", f.Remaining)
		w := rl.MeasureText(label, 12)
		rl.DrawText(label, int32(sx)-w/2, int32(sy)-6, 12, rl.RayWhite)
	}
}

func (v *Viewer) drawAgents() {
	bodyR := max(v.cam.Length(0.8), 2)
	headLen := max(v.cam.Length(2.5), 6)

	for _, a := range v.agents {
		sx, sy := v.cam.WorldToScreen(a.Pos)
		if !v.cam.Contains(sx, sy) {
			continue
		}
		color := driveColor(a.Drive)
		// Screen y points down
		hx := sx + float32(a.Heading.X)*headLen
		hy := sy - float32(a.Heading.Y)*headLen
		rl.DrawLineEx(rl.Vector2{X: sx, Y: sy}, rl.Vector2{X: hx, Y: hy}, 1.5, color)
		rl.DrawCircle(int32(sx), int32(sy), bodyR, color)
	}
}

func (v *Viewer) drawPredator() {
	if !v.hasPred {
		return
	}
	p := v.predator
	sx, sy := v.cam.WorldToScreen(p.Pos)

	// Detection radius
	rl.DrawCircleLines(int32(sx), int32(sy), v.cam.Length(v.cfg.Predator.Radius), rl.Color{R: 230, G: 60, B: 60, A: 70})

	// Triangle pointing along the heading
	size := max(v.cam.Length(2.5), 7)
	h := rl.Vector2{X: float32(p.Heading.X), Y: -float32(p.Heading.Y)}
	n := rl.Vector2{X: -h.Y, Y: h.X}
	tip := rl.Vector2{X: sx + h.X*size*1.6, Y: sy + h.Y*size*1.6}
	left := rl.Vector2{X: sx - h.X*size + n.X*size, Y: sy - h.Y*size + n.Y*size}
	right := rl.Vector2{X: sx - h.X*size - n.X*size, Y: sy - h.Y*size - n.Y*size}
	// Counter-clockwise winding on screen
	rl.DrawTriangle(tip, right, left, predatorColor)
	rl.DrawTriangle(tip, left, right, predatorColor)
}

func (v *Viewer) drawTarget() {
	if !v.hasPred {
		return
	}
	sx, sy := v.cam.WorldToScreen(v.target)
	rl.DrawCircleLines(int32(sx), int32(sy), 6, targetColor)
	rl.DrawLine(int32(sx)-9, int32(sy), int32(sx)+9, int32(sy), targetColor)
	rl.DrawLine(int32(sx), int32(sy)-9, int32(sx), int32(sy)+9, targetColor)
}
