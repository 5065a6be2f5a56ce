package renderer

import (
	"fmt"
	"log/slog"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
)

const maxSigma = 1.0

func toggleText(on bool, onText, offText string) string {
	if on {
		return onText
	}
	return offText
}

// drawPanel renders the side panel with run stats and controls.
func (v *Viewer) drawPanel() {
	panelW := float32(v.cfg.Screen.PanelW)
	rl.DrawRectangle(0, 0, int32(panelW), int32(v.screenH), rl.Color{R: 235, G: 235, B: 235, A: 255})

	x := float32(10)
	y := float32(10)
	w := panelW - 20

	rl.DrawText("Flock", int32(x), int32(y), 20, rl.DarkGray)
	y += 30

	s := v.swarm
	lines := []string{
		fmt.Sprintf("Seed: %d", v.seed),
		fmt.Sprintf("Step: %d", s.Steps()),
		fmt.Sprintf("Time: %.1f", s.SimTime()),
		fmt.Sprintf("Agents: %d", len(v.agents)),
		fmt.Sprintf("Eaten: %d", s.Consumed()),
		fmt.Sprintf("Food left: %d", v.remaining()),
		fmt.Sprintf("Speed: %dx", v.stepsPerFrame),
		fmt.Sprintf("FPS: %d", rl.GetFPS()),
	}
	for _, line := range lines {
		rl.DrawText(line, int32(x), int32(y), 14, rl.DarkGray)
		y += 18
	}
	y += 8

	if gui.Button(rl.Rectangle{X: x, Y: y, Width: w/2 - 4, Height: 26}, toggleText(v.paused, "Resume", "Pause")) {
		v.paused = !v.paused
	}
	if gui.Button(rl.Rectangle{X: x + w/2 + 4, Y: y, Width: w/2 - 4, Height: 26}, "Step") {
		v.paused = true
		v.stepOnce = true
	}
	y += 34

	if gui.Button(rl.Rectangle{X: x, Y: y, Width: w, Height: 26}, "Restart") {
		if err := v.restart(v.seed + 1); err != nil {
			slog.Error("restart failed", "error", err)
		}
	}
	y += 40

	// Noise slider
	rl.DrawText(fmt.Sprintf("Noise sigma: %.3f", v.sigma), int32(x), int32(y), 14, rl.Gray)
	y += 18
	newSigma := gui.SliderBar(
		rl.Rectangle{X: x + 20, Y: y, Width: w - 40, Height: 18},
		"0", "1",
		v.sigma, 0, maxSigma,
	)
	if newSigma != v.sigma {
		if err := v.swarm.SetSigma(float64(newSigma)); err == nil {
			v.sigma = newSigma
		}
	}
	y += 30

	// Steps per frame slider
	rl.DrawText("Steps per frame", int32(x), int32(y), 14, rl.Gray)
	y += 18
	newSpeed := gui.SliderBar(
		rl.Rectangle{X: x + 20, Y: y, Width: w - 40, Height: 18},
		"1", fmt.Sprintf("%d", maxStepsPerFrame),
		float32(v.stepsPerFrame), 1, maxStepsPerFrame,
	)
	v.stepsPerFrame = int(newSpeed + 0.5)
	y += 36

	v.drawLegend(x, y)

	if s.Terminated() {
		msg := fmt.Sprintf("All food eaten in %d steps. R to restart.", s.Steps())
		tw := rl.MeasureText(msg, 20)
		cx := v.cam.OffsetX + v.cam.ViewportW/2
		rl.DrawText(msg, int32(cx)-tw/2, 20, 20, rl.RayWhite)
	} else if v.paused {
		rl.DrawText("PAUSED", int32(v.cam.OffsetX)+10, 10, 20, rl.LightGray)
	}
}

func (v *Viewer) drawLegend(x, y float32) {
	rl.DrawText("Drive", int32(x), int32(y), 14, rl.Gray)
	y += 20
	for _, drive := range legendDrives {
		rl.DrawCircle(int32(x)+6, int32(y)+6, 5, driveColor(drive))
		rl.DrawText(drive.String(), int32(x)+18, int32(y), 12, rl.DarkGray)
		y += 16
	}
}

func (v *Viewer) remaining() int64 {
	var n int64
	for _, f := range v.foods {
		n += f.Remaining
	}
	return n
}
