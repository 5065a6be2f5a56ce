package tui

import (
	"math"
	"strings"
	"testing"

	"github.com/gdamore/tcell/v2"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/flock/config"
)

func newTestViewer(t *testing.T) (*Viewer, tcell.SimulationScreen) {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatalf("screen init: %v", err)
	}
	screen.SetSize(80, 24)
	t.Cleanup(screen.Fini)

	cfg := config.Default()
	cfg.Swarm.Agents = 10
	cfg.Food.Count = 1
	cfg.Food.Units = 50
	cfg.Refresh()

	v, err := NewViewer(screen, cfg, 3)
	if err != nil {
		t.Fatalf("NewViewer: %v", err)
	}
	t.Cleanup(v.Close)
	return v, screen
}

func key(r rune) *tcell.EventKey {
	return tcell.NewEventKey(tcell.KeyRune, r, tcell.ModNone)
}

func TestHeadingGlyph(t *testing.T) {
	tests := []struct {
		h    r2.Vec
		want rune
	}{
		{r2.Vec{X: 1}, '→'},
		{r2.Vec{Y: 1}, '↑'},
		{r2.Vec{X: -1}, '←'},
		{r2.Vec{Y: -1}, '↓'},
		{r2.Vec{X: 1, Y: 1}, '↗'},
		{r2.Vec{X: 1, Y: -1}, '↘'},
		{r2.Vec{X: -1, Y: -1}, '↙'},
	}
	for _, tt := range tests {
		if got := headingGlyph(tt.h); got != tt.want {
			t.Errorf("headingGlyph(%v) = %q, want %q", tt.h, got, tt.want)
		}
	}
}

func TestPauseAndStep(t *testing.T) {
	v, _ := newTestViewer(t)

	v.Tick()
	if v.Swarm().Steps() != 1 {
		t.Fatalf("steps = %d after one tick, want 1", v.Swarm().Steps())
	}

	v.HandleEvent(key(' '))
	if !v.Paused() {
		t.Fatal("space did not pause")
	}
	v.Tick()
	if v.Swarm().Steps() != 1 {
		t.Errorf("paused tick stepped: steps = %d", v.Swarm().Steps())
	}

	v.HandleEvent(key('n'))
	v.Tick()
	v.Tick()
	if v.Swarm().Steps() != 2 {
		t.Errorf("single step while paused: steps = %d, want 2", v.Swarm().Steps())
	}
}

func TestMouseMovesTarget(t *testing.T) {
	v, _ := newTestViewer(t)

	v.HandleEvent(tcell.NewEventMouse(10, 5, tcell.Button1, tcell.ModNone))
	want := v.cam.ScreenToWorld(10.5, 5.5)
	if v.Target() != want {
		t.Errorf("target = %v, want %v", v.Target(), want)
	}

	// Clicks on the status line are ignored
	v.HandleEvent(tcell.NewEventMouse(10, 23, tcell.Button1, tcell.ModNone))
	if v.Target() != want {
		t.Errorf("status line click moved target to %v", v.Target())
	}
}

func TestArrowKeysMoveTarget(t *testing.T) {
	v, _ := newTestViewer(t)
	start := v.Target()

	v.HandleEvent(tcell.NewEventKey(tcell.KeyRight, 0, tcell.ModNone))
	v.HandleEvent(tcell.NewEventKey(tcell.KeyUp, 0, tcell.ModNone))

	got := v.Target()
	if got.X <= start.X || got.Y <= start.Y {
		t.Errorf("target %v did not move right and up from %v", got, start)
	}

	// Clamped to the world
	for i := 0; i < 500; i++ {
		v.HandleEvent(tcell.NewEventKey(tcell.KeyLeft, 0, tcell.ModNone))
	}
	if v.Target().X != 0 {
		t.Errorf("target x = %v after many lefts, want 0", v.Target().X)
	}
}

func TestRestartAndQuit(t *testing.T) {
	v, _ := newTestViewer(t)
	v.Tick()
	old := v.Swarm()

	if !v.HandleEvent(key('r')) {
		t.Fatal("restart quit the viewer")
	}
	if v.Swarm() == old || v.Swarm().Steps() != 0 {
		t.Error("restart did not create a fresh swarm")
	}
	if v.seed != 4 {
		t.Errorf("seed after restart = %d, want 4", v.seed)
	}

	if v.HandleEvent(key('q')) {
		t.Error("q did not quit")
	}
	if v.HandleEvent(tcell.NewEventKey(tcell.KeyEscape, 0, tcell.ModNone)) {
		t.Error("escape did not quit")
	}
}

func TestDraw(t *testing.T) {
	v, screen := newTestViewer(t)
	v.Tick()
	v.Draw()

	var status strings.Builder
	for x := 0; x < 80; x++ {
		r, _, _, _ := screen.GetContent(x, 23)
		status.WriteRune(r)
	}
	if !strings.Contains(status.String(), "step 1") {
		t.Errorf("status line = %q, want step count", status.String())
	}

	p, ok := v.Swarm().Predator()
	if !ok {
		t.Fatal("default config has no predator")
	}
	sx, sy := v.cam.WorldToScreen(p.Pos)
	if r, _, _, _ := screen.GetContent(int(sx), int(sy)); r != 'X' {
		t.Errorf("cell at predator = %q, want 'X'", r)
	}
}

func TestResize(t *testing.T) {
	v, screen := newTestViewer(t)
	screen.SetSize(120, 40)
	v.HandleEvent(tcell.NewEventResize(120, 40))

	if v.cam.ViewportW != 120 || v.cam.ViewportH != 39 {
		t.Errorf("viewport = %vx%v, want 120x39", v.cam.ViewportW, v.cam.ViewportH)
	}
	if math.IsNaN(float64(v.cam.Scale())) {
		t.Error("scale is NaN after resize")
	}
}
