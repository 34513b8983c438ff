package nav

import (
	"errors"
	"math"
	"testing"

	"github.com/jakecoffman/cp"
)

func TestFlowFieldOpenGridDiagonal(t *testing.T) {
	g := openGrid(t, 10, 10)
	goal := Coord{Row: 5, Col: 5}
	ff, err := BuildFlowField(g, goal)
	if err != nil {
		t.Fatalf("BuildFlowField: %v", err)
	}
	if ff.Grid() != g || ff.Goal() != goal {
		t.Fatalf("field reports grid %p goal %v, want %p %v", ff.Grid(), ff.Goal(), g, goal)
	}
	if !ff.Reachable(Coord{Row: 9, Col: 9}) || ff.Reachable(Coord{Row: -1, Col: 0}) {
		t.Fatalf("unexpected reachability on an open grid")
	}
	if d := ff.Direction(Coord{Row: 10, Col: 0}); d != DirNone {
		t.Fatalf("out-of-bounds cell must have no direction, got %v", d)
	}

	cost, ok := ff.Cost(Coord{Row: 0, Col: 0})
	if !ok || cost != 5 {
		t.Fatalf("expected cost 5 at (0,0), got %d ok=%v", cost, ok)
	}
	path, ok := ff.Trace(Coord{Row: 0, Col: 0}, 100)
	if !ok {
		t.Fatalf("trace did not reach goal: %v", path)
	}
	if len(path)-1 != 5 {
		t.Fatalf("expected 5 steps, got %d (%v)", len(path)-1, path)
	}
	if d := ff.Direction(Coord{Row: 0, Col: 0}); d != DirDownRight {
		t.Fatalf("expected down-right at (0,0), got %v", d)
	}
	if d := ff.Direction(goal); d != DirNone {
		t.Fatalf("goal must have no direction, got %v", d)
	}
}

func TestFlowFieldTieBreakOrder(t *testing.T) {
	g := openGrid(t, 5, 5)
	ff, err := BuildFlowField(g, Coord{Row: 2, Col: 2})
	if err != nil {
		t.Fatalf("BuildFlowField: %v", err)
	}

	cases := []struct {
		name string
		at   Coord
		want Direction
	}{
		// Direct neighbours step straight onto the goal.
		{"above_goal", Coord{Row: 1, Col: 2}, DirDown},
		{"below_goal", Coord{Row: 3, Col: 2}, DirUp},
		{"left_of_goal", Coord{Row: 2, Col: 1}, DirRight},
		{"right_of_goal", Coord{Row: 2, Col: 3}, DirLeft},
		// (0,1) has cost-1 neighbours at (1,1) and (1,2): Down is listed before DownRight.
		{"cardinal_before_diagonal", Coord{Row: 0, Col: 1}, DirDown},
		// (0,0) reaches cost 1 only through (1,1).
		{"corner_diagonal", Coord{Row: 0, Col: 0}, DirDownRight},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := ff.Direction(c.at); got != c.want {
				t.Fatalf("direction at %v = %v, want %v", c.at, got, c.want)
			}
		})
	}
}

func TestFlowFieldUnwalkableNeverCosted(t *testing.T) {
	g := gridFromRows(t,
		"..........",
		"..####....",
		"..#..#....",
		"..####....",
		"..........",
		"######.###",
		"..........",
	)
	ff, err := BuildFlowField(g, Coord{Row: 0, Col: 0})
	if err != nil {
		t.Fatalf("BuildFlowField: %v", err)
	}
	for idx := 0; idx < g.Len(); idx++ {
		c := g.CoordOf(idx)
		if !g.Walkable(c) {
			if _, ok := ff.Cost(c); ok {
				t.Fatalf("blocked cell %v has a finite cost", c)
			}
			if ff.Direction(c) != DirNone {
				t.Fatalf("blocked cell %v has a direction", c)
			}
		}
	}
	// The pocket inside the box is walkable but sealed.
	for _, c := range []Coord{{Row: 2, Col: 3}, {Row: 2, Col: 4}} {
		if ff.Reachable(c) {
			t.Fatalf("sealed cell %v should be unreached", c)
		}
		if ff.Direction(c) != DirNone {
			t.Fatalf("sealed cell %v should have no direction", c)
		}
	}
	if !ff.Reachable(Coord{Row: 6, Col: 9}) {
		t.Fatalf("cell behind the gap should be reachable")
	}
}

func TestFlowFieldNoCycles(t *testing.T) {
	g := gridFromRows(t,
		"............",
		".##########.",
		".#........#.",
		".#.######.#.",
		".#.#....#.#.",
		".#.#.##.#.#.",
		".#...#..#...",
		".#####.####.",
		"............",
	)
	ff, err := BuildFlowField(g, Coord{Row: 4, Col: 5})
	if err != nil {
		t.Fatalf("BuildFlowField: %v", err)
	}
	for idx := 0; idx < g.Len(); idx++ {
		c := g.CoordOf(idx)
		if !ff.Reachable(c) {
			continue
		}
		path, ok := ff.Trace(c, g.Len())
		if !ok {
			t.Fatalf("trace from %v did not terminate at goal: %v", c, path)
		}
		cost, _ := ff.Cost(c)
		if len(path)-1 != cost {
			t.Fatalf("trace from %v took %d steps, cost is %d", c, len(path)-1, cost)
		}
	}
}

func TestFlowFieldRebuildIdempotent(t *testing.T) {
	g := gridFromRows(t,
		"......",
		".#..#.",
		".#..#.",
		"......",
	)
	a, err := BuildFlowField(g, Coord{Row: 2, Col: 2})
	if err != nil {
		t.Fatalf("BuildFlowField: %v", err)
	}
	b, err := BuildFlowField(g, Coord{Row: 2, Col: 2})
	if err != nil {
		t.Fatalf("BuildFlowField: %v", err)
	}
	da, db := a.Directions(), b.Directions()
	if len(da) != len(db) {
		t.Fatalf("direction lengths differ")
	}
	for i := range da {
		if da[i] != db[i] {
			t.Fatalf("direction %d differs: %v vs %v", i, da[i], db[i])
		}
		ca, oka := a.Cost(g.CoordOf(i))
		cb, okb := b.Cost(g.CoordOf(i))
		if ca != cb || oka != okb {
			t.Fatalf("cost %d differs", i)
		}
	}
}

func TestFlowFieldBlockedGoal(t *testing.T) {
	g := gridFromRows(t,
		"...",
		".#.",
		"...",
	)
	ff, err := BuildFlowField(g, Coord{Row: 1, Col: 1})
	if err != nil {
		t.Fatalf("BuildFlowField: %v", err)
	}
	if cost, ok := ff.Cost(Coord{Row: 1, Col: 1}); !ok || cost != 0 {
		t.Fatalf("blocked goal should still be seeded at 0, got %d ok=%v", cost, ok)
	}
	if d := ff.Direction(Coord{Row: 0, Col: 0}); d != DirDownRight {
		t.Fatalf("expected corner to point at goal, got %v", d)
	}
}

func TestFlowFieldGoalOutOfBounds(t *testing.T) {
	g := openGrid(t, 3, 3)
	if _, err := BuildFlowField(g, Coord{Row: 3, Col: 0}); !errors.Is(err, ErrGoalOutOfBounds) {
		t.Fatalf("expected ErrGoalOutOfBounds, got %v", err)
	}
	if _, err := BuildFlowField(nil, Coord{}); !errors.Is(err, ErrGridNotReady) {
		t.Fatalf("expected ErrGridNotReady for nil grid, got %v", err)
	}
}

func TestFlowFieldDirectionAt(t *testing.T) {
	g, err := NewGridFromMask(cp.Vector{X: 100, Y: 100}, 10, 3, 3, allWalkable(3, 3))
	if err != nil {
		t.Fatalf("NewGridFromMask: %v", err)
	}
	ff, err := BuildFlowField(g, Coord{Row: 2, Col: 2})
	if err != nil {
		t.Fatalf("BuildFlowField: %v", err)
	}
	v := ff.DirectionAt(cp.Vector{X: 105, Y: 105})
	if math.Abs(v.Length()-1) > 1e-9 || v.X <= 0 || v.Y <= 0 {
		t.Fatalf("expected unit down-right vector, got %v", v)
	}
	if v := ff.DirectionAt(cp.Vector{X: 125, Y: 125}); v.Length() != 0 {
		t.Fatalf("goal cell must yield zero vector, got %v", v)
	}
	if v := ff.DirectionAt(cp.Vector{X: 0, Y: 0}); v.Length() != 0 {
		t.Fatalf("outside grid must yield zero vector, got %v", v)
	}
	if v := ff.DirectionAt(cp.Vector{X: math.NaN(), Y: 0}); v.Length() != 0 {
		t.Fatalf("NaN position must yield zero vector, got %v", v)
	}
}

func TestFlowFieldRetire(t *testing.T) {
	g := openGrid(t, 4, 4)
	ff, err := BuildFlowField(g, Coord{})
	if err != nil {
		t.Fatalf("BuildFlowField: %v", err)
	}
	ff.Retire()
	if !ff.Retired() {
		t.Fatalf("expected retired field")
	}
	if _, ok := ff.Cost(Coord{Row: 3, Col: 3}); ok {
		t.Fatalf("costs should be discarded after Retire")
	}
	if ff.Direction(Coord{Row: 3, Col: 3}) != DirUpLeft {
		t.Fatalf("directions should survive Retire")
	}
}

func TestFlowFieldString(t *testing.T) {
	g := gridFromRows(t, "..#", "...")
	ff, err := BuildFlowField(g, Coord{Row: 0, Col: 0})
	if err != nil {
		t.Fatalf("BuildFlowField: %v", err)
	}
	want := "G←#\n↑↖←\n"
	if got := ff.String(); got != want {
		t.Fatalf("unexpected dump %q, want %q", got, want)
	}
}
