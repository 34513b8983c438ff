// fieldtui renders a battlefield's navigation grid and flow field in the
// terminal. Move the cursor with the arrow keys or hjkl, press enter to put
// the goal under it and s to trace an A* path from the cursor.
package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/gdamore/tcell/v2"
	"github.com/milk9111/skirmish/nav"
	"github.com/milk9111/skirmish/sim"
	"go.uber.org/zap"
)

const maxBootstrapTicks = 10

var (
	styleBlocked  = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleFlow     = tcell.StyleDefault.Foreground(tcell.ColorGreen)
	styleFar      = tcell.StyleDefault.Foreground(tcell.ColorDarkGreen)
	styleNoRoute  = tcell.StyleDefault.Foreground(tcell.ColorDarkRed)
	styleGoal     = tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
	stylePath     = tcell.StyleDefault.Foreground(tcell.ColorAqua).Bold(true)
	styleCursor   = tcell.StyleDefault.Reverse(true)
	styleStatus   = tcell.StyleDefault.Foreground(tcell.ColorWhite)
	styleStatusEr = tcell.StyleDefault.Foreground(tcell.ColorRed)
)

type viewer struct {
	screen tcell.Screen
	grid   *nav.Grid

	cursor    nav.Coord
	goal      nav.Coord
	field     *nav.FlowField
	path      nav.Path
	octile    bool
	showCosts bool
	status    string
	statusErr bool
}

func main() {
	battlefield := flag.String("battlefield", sim.DefaultBattlefield, "battlefield prefab under prefabs/")
	flag.Parse()

	grid, err := loadGrid(*battlefield)
	if err != nil {
		log.Fatal(err)
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		log.Fatal(err)
	}
	if err := screen.Init(); err != nil {
		log.Fatal(err)
	}
	defer screen.Fini()

	v := &viewer{screen: screen, grid: grid}
	v.cursor = nav.Coord{Row: grid.Height / 2, Col: grid.Width / 2}
	v.setGoal(v.cursor)
	v.run()
}

// loadGrid steps a scenario-free simulation until its grid exists.
func loadGrid(battlefield string) (*nav.Grid, error) {
	s, err := sim.New(sim.Config{Battlefield: battlefield, Scenario: sim.NoScenario}, zap.NewNop())
	if err != nil {
		return nil, err
	}
	for i := 0; i < maxBootstrapTicks && s.Grid() == nil; i++ {
		s.Step()
	}
	if s.Grid() == nil {
		return nil, fmt.Errorf("fieldtui: grid not ready after %d ticks: %v", maxBootstrapTicks, s.Navigation().LastError)
	}
	return s.Grid(), nil
}

func (v *viewer) run() {
	for {
		v.draw()
		switch ev := v.screen.PollEvent().(type) {
		case *tcell.EventResize:
			v.screen.Sync()
		case *tcell.EventKey:
			if !v.handleKey(ev) {
				return
			}
		}
	}
}

func (v *viewer) handleKey(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return false
	case tcell.KeyUp:
		v.moveCursor(-1, 0)
	case tcell.KeyDown:
		v.moveCursor(1, 0)
	case tcell.KeyLeft:
		v.moveCursor(0, -1)
	case tcell.KeyRight:
		v.moveCursor(0, 1)
	case tcell.KeyEnter:
		v.setGoal(v.cursor)
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'q':
			return false
		case 'k':
			v.moveCursor(-1, 0)
		case 'j':
			v.moveCursor(1, 0)
		case 'h':
			v.moveCursor(0, -1)
		case 'l':
			v.moveCursor(0, 1)
		case 's':
			v.tracePath()
		case 'o':
			v.octile = !v.octile
			v.tracePath()
		case 'c':
			v.showCosts = !v.showCosts
		}
	}
	return true
}

func (v *viewer) moveCursor(dr, dc int) {
	next := nav.Coord{Row: v.cursor.Row + dr, Col: v.cursor.Col + dc}
	if v.grid.InBounds(next) {
		v.cursor = next
	}
}

func (v *viewer) setGoal(c nav.Coord) {
	field, err := nav.BuildFlowField(v.grid, c)
	if err != nil {
		v.setStatus(err.Error(), true)
		return
	}
	v.goal = c
	v.field = field
	v.path = nil
	reachable := 0
	for i := 0; i < v.grid.Len(); i++ {
		if field.Reachable(v.grid.CoordOf(i)) {
			reachable++
		}
	}
	v.setStatus(fmt.Sprintf("goal %v, %d of %d cells reach it", c, reachable, v.grid.Len()), false)
}

func (v *viewer) tracePath() {
	h, name := nav.Heuristic(nav.Manhattan), "manhattan"
	if v.octile {
		h, name = nav.Octile, "octile"
	}
	path, ok := nav.FindPathWith(v.grid, v.cursor, v.goal, h)
	if !ok {
		v.path = nil
		v.setStatus(fmt.Sprintf("no path from %v to %v", v.cursor, v.goal), true)
		return
	}
	v.path = path
	v.setStatus(fmt.Sprintf("%s path %v -> %v: %d steps", name, v.cursor, v.goal, len(path)-1), false)
}

func (v *viewer) setStatus(msg string, isErr bool) {
	v.status = msg
	v.statusErr = isErr
}

func (v *viewer) draw() {
	v.screen.Clear()
	w, h := v.screen.Size()

	onPath := make(map[nav.Coord]bool, len(v.path))
	for _, c := range v.path {
		onPath[c] = true
	}

	maxCost := 1
	if v.field != nil {
		for i := 0; i < v.grid.Len(); i++ {
			if cost, ok := v.field.Cost(v.grid.CoordOf(i)); ok && cost > maxCost {
				maxCost = cost
			}
		}
	}

	for row := 0; row < v.grid.Height && row < h-2; row++ {
		for col := 0; col < v.grid.Width && col < w; col++ {
			c := nav.Coord{Row: row, Col: col}
			r, style := v.cell(c, maxCost)
			if onPath[c] && c != v.goal {
				r, style = '*', stylePath
			}
			if c == v.cursor {
				style = styleCursor
			}
			v.screen.SetContent(col, row, r, nil, style)
		}
	}

	mode := "manhattan"
	if v.octile {
		mode = "octile"
	}
	help := fmt.Sprintf("cursor %v  heuristic %s  [enter] goal [s] path [o] heuristic [c] costs [q] quit", v.cursor, mode)
	v.drawText(0, h-2, help, styleStatus)
	statusStyle := styleStatus
	if v.statusErr {
		statusStyle = styleStatusEr
	}
	v.drawText(0, h-1, v.status, statusStyle)
	v.screen.Show()
}

func (v *viewer) cell(c nav.Coord, maxCost int) (rune, tcell.Style) {
	switch {
	case v.field != nil && c == v.goal:
		return 'G', styleGoal
	case !v.grid.Walkable(c):
		return '#', styleBlocked
	case v.field == nil || !v.field.Reachable(c):
		return 'x', styleNoRoute
	}
	cost, _ := v.field.Cost(c)
	style := styleFlow
	if cost*2 > maxCost {
		style = styleFar
	}
	if v.showCosts {
		return rune('0' + cost%10), style
	}
	return v.field.Direction(c).Glyph(), style
}

func (v *viewer) drawText(x, y int, text string, style tcell.Style) {
	for i, r := range []rune(text) {
		v.screen.SetContent(x+i, y, r, nil, style)
	}
}
