// Package tui draws a running swarm in a terminal with tcell. A mouse click
// or the arrow keys move the predator's pursuit target.
package tui

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/gdamore/tcell/v2"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/flock/camera"
	"github.com/pthm-cable/flock/components"
	"github.com/pthm-cable/flock/config"
	"github.com/pthm-cable/flock/game"
)

// Terminal cells are roughly twice as tall as they are wide.
const cellAspect = 2

const maxStepsPerTick = 20

// Viewer renders one swarm at a time into a tcell screen.
type Viewer struct {
	screen tcell.Screen
	cfg    *config.Config
	seed   int64
	swarm  *game.Swarm
	cam    *camera.Camera

	target        r2.Vec
	paused        bool
	stepOnce      bool
	stepsPerTick  int
	width, height int
	doneLogged    bool
}

// NewViewer creates a viewer on an initialized screen and spawns the first
// swarm with seed.
func NewViewer(screen tcell.Screen, cfg *config.Config, seed int64) (*Viewer, error) {
	v := &Viewer{
		screen:       screen,
		cfg:          cfg,
		stepsPerTick: 1,
		target:       r2.Vec{X: cfg.World.SpaceSize / 2, Y: cfg.World.SpaceSize / 2},
	}
	v.width, v.height = screen.Size()
	v.cam = camera.New(0, 0, float32(v.width), float32(v.viewRows()), cfg.World.SpaceSize)
	v.cam.CellAspect = cellAspect

	if err := v.restart(seed); err != nil {
		return nil, err
	}
	return v, nil
}

// viewRows is the number of rows for the world; the last row is the status line.
func (v *Viewer) viewRows() int {
	return max(v.height-1, 1)
}

func (v *Viewer) restart(seed int64) error {
	if v.swarm != nil {
		v.swarm.Close()
	}
	swarm, err := game.NewSwarm(v.cfg, game.Options{Seed: seed})
	if err != nil {
		return fmt.Errorf("restarting terminal viewer: %w", err)
	}
	swarm.SpawnInitial()
	v.swarm = swarm
	v.seed = seed
	v.doneLogged = false
	return nil
}

// Swarm returns the swarm currently on screen.
func (v *Viewer) Swarm() *game.Swarm {
	return v.swarm
}

// Target returns the predator's pursuit point.
func (v *Viewer) Target() r2.Vec {
	return v.target
}

// Paused reports whether stepping is suspended.
func (v *Viewer) Paused() bool {
	return v.paused
}

// HandleEvent applies one input event. Returns false when the viewer should quit.
func (v *Viewer) HandleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		return v.handleKey(ev)

	case *tcell.EventMouse:
		if ev.Buttons()&tcell.Button1 != 0 {
			x, y := ev.Position()
			if y < v.viewRows() {
				// Aim at the cell center
				v.target = v.cam.ScreenToWorld(float32(x)+0.5, float32(y)+0.5)
			}
		}

	case *tcell.EventResize:
		v.handleResize()
	}
	return true
}

func (v *Viewer) handleKey(ev *tcell.EventKey) bool {
	// One cell in world units
	stepX := 1 / float64(v.cam.Scale())
	stepY := cellAspect / float64(v.cam.Scale())

	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return false
	case tcell.KeyLeft:
		v.moveTarget(-stepX, 0)
	case tcell.KeyRight:
		v.moveTarget(stepX, 0)
	case tcell.KeyUp:
		v.moveTarget(0, stepY)
	case tcell.KeyDown:
		v.moveTarget(0, -stepY)
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'q':
			return false
		case ' ':
			v.paused = !v.paused
		case 'n':
			v.stepOnce = true
		case 'r':
			if err := v.restart(v.seed + 1); err != nil {
				slog.Error("restart failed", "error", err)
				return false
			}
		case '+', '=':
			v.stepsPerTick = min(v.stepsPerTick+1, maxStepsPerTick)
		case '-':
			v.stepsPerTick = max(v.stepsPerTick-1, 1)
		}
	}
	return true
}

func (v *Viewer) moveTarget(dx, dy float64) {
	size := v.cfg.World.SpaceSize
	v.target.X = math.Min(math.Max(v.target.X+dx, 0), size)
	v.target.Y = math.Min(math.Max(v.target.Y+dy, 0), size)
}

func (v *Viewer) handleResize() {
	w, h := v.screen.Size()
	if w == v.width && h == v.height {
		return
	}
	v.width, v.height = w, h
	v.cam.Resize(float32(w), float32(v.viewRows()))
	v.screen.Sync()
}

// Tick advances the simulation for one frame unless paused.
func (v *Viewer) Tick() {
	if v.paused && !v.stepOnce {
		return
	}
	n := v.stepsPerTick
	if v.paused {
		n = 1
	}
	for i := 0; i < n && !v.swarm.Terminated(); i++ {
		v.swarm.Step(v.cfg.Physics.DT, v.target)
	}
	v.stepOnce = false

	if v.swarm.Terminated() && !v.doneLogged {
		v.doneLogged = true
		slog.Info("all food consumed", "seed", v.seed, "steps", v.swarm.Steps(), "sim_time", v.swarm.SimTime())
	}
}

// Run polls input and redraws at fps until quit or ctx is cancelled.
func (v *Viewer) Run(ctx context.Context, fps int) error {
	if fps <= 0 {
		fps = 30
	}
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	eventChan := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := v.screen.PollEvent()
			if ev == nil {
				// Screen finalized
				close(eventChan)
				return
			}
			eventChan <- ev
		}
	}()

	v.Draw()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-eventChan:
			if !ok || !v.HandleEvent(ev) {
				return nil
			}

		case <-ticker.C:
			v.Tick()
			v.Draw()
		}
	}
}

// Close stops the swarm's workers. The caller finalizes the screen.
func (v *Viewer) Close() {
	if v.swarm != nil {
		v.swarm.Close()
	}
}

// headingGlyphs maps eight compass sectors, counter-clockwise from +x.
var headingGlyphs = [8]rune{'→', '↗', '↑', '↖', '←', '↙', '↓', '↘'}

// headingGlyph returns an arrow for a world-space heading (y up).
func headingGlyph(h r2.Vec) rune {
	a := math.Atan2(h.Y, h.X)
	sector := int(math.Round(a/(math.Pi/4))) & 7
	return headingGlyphs[sector]
}

func driveStyle(d components.Drive) tcell.Style {
	switch d {
	case components.DriveFlee:
		return tcell.StyleDefault.Foreground(tcell.ColorOrange)
	case components.DriveRepel:
		return tcell.StyleDefault.Foreground(tcell.ColorFuchsia)
	case components.DriveAlignAttract:
		return tcell.StyleDefault.Foreground(tcell.ColorAqua)
	case components.DriveAlign:
		return tcell.StyleDefault.Foreground(tcell.ColorBlue)
	case components.DriveAttract:
		return tcell.StyleDefault.Foreground(tcell.ColorTeal)
	default:
		return tcell.StyleDefault.Foreground(tcell.ColorSilver)
	}
}
