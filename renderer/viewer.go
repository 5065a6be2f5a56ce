// Package renderer draws a running swarm in a raylib window with a raygui
// control panel. The mouse pointer is the predator's pursuit target.
package renderer

import (
	"fmt"
	"log/slog"

	rl "github.com/gen2brain/raylib-go/raylib"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/flock/camera"
	"github.com/pthm-cable/flock/config"
	"github.com/pthm-cable/flock/game"
	"github.com/pthm-cable/flock/telemetry"
)

const maxStepsPerFrame = 20

// Viewer owns the swarm shown in the window and the interactive state
// around it. The caller owns the window itself.
type Viewer struct {
	cfg   *config.Config
	seed  int64
	swarm *game.Swarm
	cam   *camera.Camera
	perf  *telemetry.PerfCollector

	target         r2.Vec
	paused         bool
	stepOnce       bool
	stepsPerFrame  int
	sigma          float32
	screenW        float32
	screenH        float32
	terminatedSeen bool

	// Cached once per frame for drawing
	agents   []game.AgentState
	foods    []game.FoodState
	predator game.PredatorState
	hasPred  bool
}

// NewViewer creates a viewer and spawns the first swarm with seed.
// perf may be nil.
func NewViewer(cfg *config.Config, seed int64, perf *telemetry.PerfCollector) (*Viewer, error) {
	w := float32(cfg.Screen.Width)
	h := float32(cfg.Screen.Height)
	panel := float32(cfg.Screen.PanelW)

	v := &Viewer{
		cfg:           cfg,
		seed:          seed,
		perf:          perf,
		cam:           camera.New(panel, 0, w-panel, h, cfg.World.SpaceSize),
		stepsPerFrame: 1,
		sigma:         float32(cfg.Swarm.Sigma),
		screenW:       w,
		screenH:       h,
		target:        r2.Vec{X: cfg.World.SpaceSize / 2, Y: cfg.World.SpaceSize / 2},
	}
	if err := v.restart(seed); err != nil {
		return nil, err
	}
	return v, nil
}

// restart replaces the current swarm with a freshly spawned one.
func (v *Viewer) restart(seed int64) error {
	if v.swarm != nil {
		v.swarm.Close()
	}
	swarm, err := game.NewSwarm(v.cfg, game.Options{Seed: seed, Perf: v.perf})
	if err != nil {
		return fmt.Errorf("restarting viewer: %w", err)
	}
	if err := swarm.SetSigma(float64(v.sigma)); err != nil {
		swarm.Close()
		return fmt.Errorf("restarting viewer: %w", err)
	}
	swarm.SpawnInitial()

	v.swarm = swarm
	v.seed = seed
	v.terminatedSeen = false
	v.refresh()

	slog.Info("swarm started", "seed", seed, "agents", swarm.NumAgents(), "predator", v.hasPred)
	return nil
}

// Update processes input and advances the simulation for one frame.
func (v *Viewer) Update() error {
	restart := v.handleInput()
	if restart {
		return v.restart(v.seed + 1)
	}

	if !v.paused || v.stepOnce {
		n := v.stepsPerFrame
		if v.paused {
			n = 1
		}
		dt := v.cfg.Physics.DT
		for i := 0; i < n && !v.swarm.Terminated(); i++ {
			v.swarm.Step(dt, v.target)
		}
		v.stepOnce = false
	}

	if v.swarm.Terminated() && !v.terminatedSeen {
		v.terminatedSeen = true
		slog.Info("all food consumed",
			"seed", v.seed,
			"steps", v.swarm.Steps(),
			"sim_time", v.swarm.SimTime(),
		)
	}

	v.refresh()
	return nil
}

// handleInput processes keyboard and mouse input. Returns true when a
// restart was requested.
func (v *Viewer) handleInput() bool {
	v.handleResize()

	if rl.IsKeyPressed(rl.KeySpace) {
		v.paused = !v.paused
	}
	if rl.IsKeyPressed(rl.KeyN) {
		v.stepOnce = true
	}

	// Steps-per-frame control with < > keys (comma and period)
	if rl.IsKeyPressed(rl.KeyComma) && v.stepsPerFrame > 1 {
		v.stepsPerFrame--
	}
	if rl.IsKeyPressed(rl.KeyPeriod) && v.stepsPerFrame < maxStepsPerFrame {
		v.stepsPerFrame++
	}

	v.handleCameraInput()

	// Pointer inside the world view drives the predator
	mouse := rl.GetMousePosition()
	if v.cam.Contains(mouse.X, mouse.Y) {
		v.target = v.cam.ScreenToWorld(mouse.X, mouse.Y)
	}

	return rl.IsKeyPressed(rl.KeyR)
}

// handleResize checks for window resize and propagates new dimensions.
func (v *Viewer) handleResize() {
	if !rl.IsWindowResized() {
		return
	}
	w := float32(rl.GetScreenWidth())
	h := float32(rl.GetScreenHeight())
	if w == v.screenW && h == v.screenH {
		return
	}
	v.screenW = w
	v.screenH = h
	v.cam.Resize(w-float32(v.cfg.Screen.PanelW), h)
}

// handleCameraInput processes camera pan/zoom controls.
func (v *Viewer) handleCameraInput() {
	// Pan speed scales inversely with zoom
	panSpeed := float32(8.0) / v.cam.Zoom

	if rl.IsKeyDown(rl.KeyRight) {
		v.cam.Pan(panSpeed, 0)
	}
	if rl.IsKeyDown(rl.KeyLeft) {
		v.cam.Pan(-panSpeed, 0)
	}
	if rl.IsKeyDown(rl.KeyDown) {
		v.cam.Pan(0, panSpeed)
	}
	if rl.IsKeyDown(rl.KeyUp) {
		v.cam.Pan(0, -panSpeed)
	}

	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		v.cam.ZoomBy(1 + wheel*0.1)
	}
	if rl.IsKeyPressed(rl.KeyHome) {
		v.cam.Reset()
	}
}

func (v *Viewer) refresh() {
	v.agents = v.swarm.Agents()
	v.foods = v.swarm.Foods()
	v.predator, v.hasPred = v.swarm.Predator()
}

// Swarm returns the swarm currently on screen.
func (v *Viewer) Swarm() *game.Swarm {
	return v.swarm
}

// Unload stops the current swarm's workers.
func (v *Viewer) Unload() {
	if v.swarm != nil {
		v.swarm.Close()
	}
}
