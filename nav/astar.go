package nav

import (
	"container/heap"
	"math"
)

// Path is a sequence of cells from start to goal inclusive.
type Path []Coord

// Heuristic estimates the remaining cost between two cells.
type Heuristic func(a, b Coord) float64

// Manhattan is the default heuristic. With diagonal moves costing 1 it can
// overestimate, so returned paths are valid but not always shortest.
func Manhattan(a, b Coord) float64 {
	return math.Abs(float64(a.Row-b.Row)) + math.Abs(float64(a.Col-b.Col))
}

// Octile is admissible for 8-connected moves of uniform cost.
func Octile(a, b Coord) float64 {
	return math.Max(math.Abs(float64(a.Row-b.Row)), math.Abs(float64(a.Col-b.Col)))
}

// FindPath runs A* over g with the Manhattan heuristic.
func FindPath(g *Grid, start, goal Coord) (Path, bool) {
	return FindPathWith(g, start, goal, Manhattan)
}

// FindPathWith is FindPath with a caller-supplied heuristic.
func FindPathWith(g *Grid, start, goal Coord, h Heuristic) (Path, bool) {
	if g == nil || !g.InBounds(start) || !g.InBounds(goal) {
		return nil, false
	}
	if start == goal {
		return Path{start}, true
	}
	// The goal may itself be blocked; only the cells leading to it must be walkable.
	if !g.Walkable(start) {
		return nil, false
	}
	if h == nil {
		h = Manhattan
	}

	n := g.Len()
	cameFrom := make([]int, n)
	for i := range cameFrom {
		cameFrom[i] = -1
	}
	gScore := make([]float64, n)
	for i := range gScore {
		gScore[i] = math.Inf(1)
	}

	startIdx := g.Index(start)
	goalIdx := g.Index(goal)
	gScore[startIdx] = 0

	open := &openSet{}
	heap.Init(open)
	var seq uint64
	heap.Push(open, &openItem{pos: start, g: 0, f: h(start, goal), seq: seq})

	for open.Len() > 0 {
		current := heap.Pop(open).(*openItem)
		cur := current.pos
		curIdx := g.Index(cur)
		// Entries superseded by a cheaper route are skipped rather than removed.
		if current.g > gScore[curIdx] {
			continue
		}
		if curIdx == goalIdx {
			return reconstructPath(g, cameFrom, startIdx, goalIdx), true
		}

		for _, d := range Neighbors {
			next := d.Step(cur)
			if next != goal && !g.Walkable(next) {
				continue
			}
			if !g.InBounds(next) {
				continue
			}
			idx := g.Index(next)
			tentative := gScore[curIdx] + 1
			if tentative < gScore[idx] {
				cameFrom[idx] = curIdx
				gScore[idx] = tentative
				seq++
				heap.Push(open, &openItem{pos: next, g: tentative, f: tentative + h(next, goal), seq: seq})
			}
		}
	}
	return nil, false
}

func reconstructPath(g *Grid, cameFrom []int, startIdx, goalIdx int) Path {
	path := make(Path, 0, 32)
	for cur := goalIdx; cur != -1; cur = cameFrom[cur] {
		path = append(path, g.CoordOf(cur))
		if cur == startIdx {
			break
		}
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

type openItem struct {
	pos   Coord
	f     float64
	g     float64
	seq   uint64
	index int
}

type openSet []*openItem

func (o openSet) Len() int { return len(o) }
func (o openSet) Less(i, j int) bool {
	if o[i].f != o[j].f {
		return o[i].f < o[j].f
	}
	return o[i].seq < o[j].seq
}
func (o openSet) Swap(i, j int) {
	o[i], o[j] = o[j], o[i]
	o[i].index = i
	o[j].index = j
}
func (o *openSet) Push(x any) {
	item := x.(*openItem)
	item.index = len(*o)
	*o = append(*o, item)
}
func (o *openSet) Pop() any {
	old := *o
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*o = old[:n-1]
	return item
}
