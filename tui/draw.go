package tui

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"gonum.org/v1/gonum/spatial/r2"
)

var (
	borderStyle   = tcell.StyleDefault.Foreground(tcell.ColorGray)
	predatorStyle = tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)
	targetStyle   = tcell.StyleDefault.Foreground(tcell.ColorWhite)
	statusStyle   = tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorSilver)
)

// Draw renders the world and the status line.
func (v *Viewer) Draw() {
	v.screen.Clear()

	v.drawBorder()
	v.drawFood()
	v.drawTarget()
	v.drawAgents()
	v.drawPredator()
	v.drawStatus()

	v.screen.Show()
}

// cell converts a world point to a screen cell, reporting whether it is
// inside the world view.
func (v *Viewer) cell(p r2.Vec) (x, y int, ok bool) {
	sx, sy := v.cam.WorldToScreen(p)
	if !v.cam.Contains(sx, sy) {
		return 0, 0, false
	}
	return int(sx), int(sy), true
}

func (v *Viewer) put(x, y int, r rune, style tcell.Style) {
	if x < 0 || x >= v.width || y < 0 || y >= v.viewRows() {
		return
	}
	v.screen.SetContent(x, y, r, nil, style)
}

func (v *Viewer) drawBorder() {
	size := v.cfg.World.SpaceSize
	sx0, sy0 := v.cam.WorldToScreen(r2.Vec{X: 0, Y: size})
	sx1, sy1 := v.cam.WorldToScreen(r2.Vec{X: size, Y: 0})
	x0 := max(int(sx0), 0)
	y0 := max(int(sy0), 0)
	x1 := min(int(sx1), v.width-1)
	y1 := min(int(sy1), v.viewRows()-1)

	for x := x0; x <= x1; x++ {
		v.put(x, y0, '·', borderStyle)
		v.put(x, y1, '·', borderStyle)
	}
	for y := y0; y <= y1; y++ {
		v.put(x0, y, '·', borderStyle)
		v.put(x1, y, '·', borderStyle)
	}
}

func (v *Viewer) drawFood() {
	for _, f := range v.swarm.Foods() {
		style := tcell.StyleDefault.Foreground(tcell.NewRGBColor(
			int32(40+60*f.Intensity),
			int32(90+165*f.Intensity),
			int32(40+60*f.Intensity),
		))

		// Fill the source's footprint
		cx, cy := v.cam.WorldToScreen(f.Pos)
		rx := int(v.cam.Length(f.Radius))
		ry := int(v.cam.Length(f.Radius) / cellAspect)
		glyph := '░'
		if f.Remaining > 0 {
			glyph = '▒'
		}
		for dy := -ry; dy <= ry; dy++ {
			for dx := -rx; dx <= rx; dx++ {
				fx := float64(dx) / float64(max(rx, 1))
				fy := float64(dy) / float64(max(ry, 1))
				if fx*fx+fy*fy > 1 {
					continue
				}
				v.put(int(cx)+dx, int(cy)+dy, glyph, style)
			}
		}

		label := fmt.Sprintf("%d", f.Remaining)
		lx := int(cx) - len(label)/2
		for i, r := range label {
			v.put(lx+i, int(cy), r, style.Bold(true))
		}
	}
}

func (v *Viewer) drawAgents() {
	for _, a := range v.swarm.Agents() {
		if x, y, ok := v.cell(a.Pos); ok {
			v.put(x, y, headingGlyph(a.Heading), driveStyle(a.Drive))
		}
	}
}

func (v *Viewer) drawPredator() {
	p, ok := v.swarm.Predator()
	if !ok {
		return
	}
	if x, y, ok := v.cell(p.Pos); ok {
		v.put(x, y, 'X', predatorStyle)
	}
}

func (v *Viewer) drawTarget() {
	if _, ok := v.swarm.Predator(); !ok {
		return
	}
	if x, y, ok := v.cell(v.target); ok {
		v.put(x, y, '+', targetStyle)
	}
}

func (v *Viewer) drawStatus() {
	s := v.swarm
	state := "running"
	switch {
	case s.Terminated():
		state = fmt.Sprintf("done in %d steps", s.Steps())
	case v.paused:
		state = "paused"
	}
	line := fmt.Sprintf(" seed %d  step %d  t %.1f  eaten %d  x%d  %s  [space] pause [n] step [r] restart [q] quit",
		v.seed, s.Steps(), s.SimTime(), s.Consumed(), v.stepsPerTick, state)

	y := v.height - 1
	for x := 0; x < v.width; x++ {
		v.screen.SetContent(x, y, ' ', nil, statusStyle)
	}
	for i, r := range []rune(line) {
		if i >= v.width {
			break
		}
		v.screen.SetContent(i, y, r, nil, statusStyle)
	}
}
