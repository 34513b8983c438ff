package nav

import (
	"fmt"
	"strings"

	"github.com/jakecoffman/cp"
)

// Unreached marks cells the integration pass never reached.
const Unreached = -1

// FlowField holds integration costs toward a single goal and the derived
// per-cell steering direction.
type FlowField struct {
	grid       *Grid
	goal       Coord
	costs      []int
	directions []Direction
	reachable  []bool
}

// BuildFlowField integrates breadth-first from goal with uniform step cost.
// The goal is seeded even when blocked; no other unwalkable cell is entered.
func BuildFlowField(g *Grid, goal Coord) (*FlowField, error) {
	if g == nil {
		return nil, ErrGridNotReady
	}
	if !g.InBounds(goal) {
		return nil, fmt.Errorf("%w: %v", ErrGoalOutOfBounds, goal)
	}

	n := g.Len()
	ff := &FlowField{
		grid:       g,
		goal:       goal,
		costs:      make([]int, n),
		directions: make([]Direction, n),
		reachable:  make([]bool, n),
	}
	for i := range ff.costs {
		ff.costs[i] = Unreached
	}

	goalIdx := g.Index(goal)
	ff.costs[goalIdx] = 0
	queue := make([]int, 0, n)
	queue = append(queue, goalIdx)
	for head := 0; head < len(queue); head++ {
		idx := queue[head]
		cur := g.CoordOf(idx)
		for _, d := range Neighbors {
			next := d.Step(cur)
			if !g.Walkable(next) {
				continue
			}
			nIdx := g.Index(next)
			if ff.costs[nIdx] != Unreached {
				continue
			}
			ff.costs[nIdx] = ff.costs[idx] + 1
			queue = append(queue, nIdx)
		}
	}

	for idx, cost := range ff.costs {
		if cost == Unreached {
			continue
		}
		ff.reachable[idx] = true
		if idx == goalIdx {
			continue
		}
		ff.directions[idx] = ff.bestDirection(g.CoordOf(idx), cost)
	}
	return ff, nil
}

// bestDirection picks the neighbour with the strictly lowest cost; the first
// match in Neighbors order wins ties.
func (ff *FlowField) bestDirection(c Coord, own int) Direction {
	best := DirNone
	bestCost := own
	for _, d := range Neighbors {
		next := d.Step(c)
		if !ff.grid.InBounds(next) {
			continue
		}
		cost := ff.costs[ff.grid.Index(next)]
		if cost == Unreached {
			continue
		}
		if cost < bestCost {
			best = d
			bestCost = cost
		}
	}
	return best
}

// Grid returns the grid the field was built over.
func (ff *FlowField) Grid() *Grid {
	return ff.grid
}

// Goal returns the goal cell.
func (ff *FlowField) Goal() Coord {
	return ff.goal
}

// GoalPosition is the world-space center of the goal cell.
func (ff *FlowField) GoalPosition() cp.Vector {
	return ff.grid.WorldFromCell(ff.goal)
}

// Reachable reports whether the BFS reached c from the goal.
func (ff *FlowField) Reachable(c Coord) bool {
	if ff == nil || !ff.grid.InBounds(c) {
		return false
	}
	return ff.reachable[ff.grid.Index(c)]
}

// Cost returns the integration cost at c. It reports false for unreached
// cells and after Retire.
func (ff *FlowField) Cost(c Coord) (int, bool) {
	if ff == nil || ff.costs == nil || !ff.grid.InBounds(c) {
		return 0, false
	}
	cost := ff.costs[ff.grid.Index(c)]
	if cost == Unreached {
		return 0, false
	}
	return cost, true
}

// Direction returns the step toward the goal at c, or DirNone for blocked,
// unreached and out-of-bounds cells and for the goal itself.
func (ff *FlowField) Direction(c Coord) Direction {
	if ff == nil || !ff.grid.InBounds(c) {
		return DirNone
	}
	return ff.directions[ff.grid.Index(c)]
}

// DirectionAt returns the unit flow vector for the cell containing p.
func (ff *FlowField) DirectionAt(p cp.Vector) cp.Vector {
	if ff == nil {
		return cp.Vector{}
	}
	c, ok := ff.grid.CellFromWorld(p)
	if !ok {
		return cp.Vector{}
	}
	return ff.Direction(c).Vector()
}

func (ff *FlowField) Directions() []Direction {
	return append([]Direction(nil), ff.directions...)
}

// Trace follows directions from c until the goal or maxSteps.
func (ff *FlowField) Trace(from Coord, maxSteps int) (Path, bool) {
	if !ff.Reachable(from) {
		return nil, false
	}
	path := Path{from}
	cur := from
	for step := 0; step < maxSteps; step++ {
		if cur == ff.goal {
			return path, true
		}
		d := ff.Direction(cur)
		if d == DirNone {
			return path, false
		}
		cur = d.Step(cur)
		path = append(path, cur)
	}
	return path, cur == ff.goal
}

// Retire drops the integration costs; directions remain usable.
func (ff *FlowField) Retire() {
	if ff == nil {
		return
	}
	ff.costs = nil
}

func (ff *FlowField) Retired() bool {
	return ff == nil || ff.costs == nil
}

// String renders direction glyphs per cell with 'G' for the goal and '#' for blocked cells.
func (ff *FlowField) String() string {
	if ff == nil {
		return ""
	}
	g := ff.grid
	var sb strings.Builder
	for row := 0; row < g.Height; row++ {
		for col := 0; col < g.Width; col++ {
			c := Coord{Row: row, Col: col}
			switch {
			case c == ff.goal:
				sb.WriteRune('G')
			case !g.Walkable(c):
				sb.WriteRune('#')
			case !ff.Reachable(c):
				sb.WriteRune(' ')
			default:
				sb.WriteRune(ff.Direction(c).Glyph())
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
