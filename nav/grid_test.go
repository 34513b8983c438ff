package nav

import (
	"errors"
	"math"
	"testing"

	"github.com/jakecoffman/cp"
)

// rectQuery reports overlap against a fixed set of world-space boxes.
type rectQuery struct {
	ready bool
	rects []cp.BB
	calls int
}

func (q *rectQuery) Ready() bool { return q.ready }

func (q *rectQuery) QueryOverlap(bb cp.BB) bool {
	q.calls++
	for _, r := range q.rects {
		if bb.L < r.R && bb.R > r.L && bb.B < r.T && bb.T > r.B {
			return true
		}
	}
	return false
}

func openGrid(t *testing.T, w, h int) *Grid {
	t.Helper()
	g, err := NewGridFromMask(cp.Vector{}, 1, w, h, allWalkable(w, h))
	if err != nil {
		t.Fatalf("NewGridFromMask: %v", err)
	}
	return g
}

func allWalkable(w, h int) []bool {
	mask := make([]bool, w*h)
	for i := range mask {
		mask[i] = true
	}
	return mask
}

// gridFromRows builds a unit grid from rows of '.' (walkable) and '#' (blocked).
func gridFromRows(t *testing.T, rows ...string) *Grid {
	t.Helper()
	h := len(rows)
	w := len(rows[0])
	mask := make([]bool, 0, w*h)
	for _, row := range rows {
		if len(row) != w {
			t.Fatalf("ragged row %q", row)
		}
		for _, ch := range row {
			mask = append(mask, ch != '#')
		}
	}
	g, err := NewGridFromMask(cp.Vector{}, 1, w, h, mask)
	if err != nil {
		t.Fatalf("NewGridFromMask: %v", err)
	}
	return g
}

func TestBuildGrid(t *testing.T) {
	bounds := cp.BB{L: 0, B: 0, R: 100, T: 60}

	t.Run("not_ready", func(t *testing.T) {
		q := &rectQuery{ready: false}
		g, err := BuildGrid(bounds, 10, q)
		if !errors.Is(err, ErrGridNotReady) {
			t.Fatalf("expected ErrGridNotReady, got %v", err)
		}
		if g != nil {
			t.Fatalf("expected no grid while obstacles are not ready")
		}
		if q.calls != 0 {
			t.Fatalf("expected no overlap queries, got %d", q.calls)
		}
	})

	t.Run("nil_query", func(t *testing.T) {
		if _, err := BuildGrid(bounds, 10, nil); !errors.Is(err, ErrGridNotReady) {
			t.Fatalf("expected ErrGridNotReady, got %v", err)
		}
	})

	t.Run("invalid_dimensions", func(t *testing.T) {
		cases := []struct {
			name     string
			bounds   cp.BB
			cellSize float64
		}{
			{"zero_cell", bounds, 0},
			{"negative_cell", bounds, -1},
			{"nan_cell", bounds, math.NaN()},
			{"empty_bounds", cp.BB{L: 5, B: 5, R: 5, T: 10}, 1},
			{"inverted_bounds", cp.BB{L: 10, B: 0, R: 0, T: 10}, 1},
		}
		for _, c := range cases {
			t.Run(c.name, func(t *testing.T) {
				if _, err := BuildGrid(c.bounds, c.cellSize, &rectQuery{ready: true}); !errors.Is(err, ErrInvalidGrid) {
					t.Fatalf("expected ErrInvalidGrid, got %v", err)
				}
			})
		}
	})

	t.Run("dimensions_and_walkability", func(t *testing.T) {
		q := &rectQuery{ready: true, rects: []cp.BB{{L: 20, B: 10, R: 30, T: 30}}}
		g, err := BuildGrid(bounds, 10, q)
		if err != nil {
			t.Fatalf("BuildGrid: %v", err)
		}
		if g.Width != 10 || g.Height != 6 {
			t.Fatalf("expected 10x6, got %dx%d", g.Width, g.Height)
		}
		if q.calls != 60 {
			t.Fatalf("expected one query per cell, got %d", q.calls)
		}
		blocked := map[Coord]bool{{Row: 1, Col: 2}: true, {Row: 2, Col: 2}: true}
		for row := 0; row < g.Height; row++ {
			for col := 0; col < g.Width; col++ {
				c := Coord{Row: row, Col: col}
				if g.Walkable(c) == blocked[c] {
					t.Fatalf("cell %v walkable=%v, want %v", c, g.Walkable(c), !blocked[c])
				}
			}
		}
	})

	t.Run("partial_last_cell", func(t *testing.T) {
		g, err := BuildGrid(cp.BB{L: 0, B: 0, R: 25, T: 10}, 10, &rectQuery{ready: true})
		if err != nil {
			t.Fatalf("BuildGrid: %v", err)
		}
		if g.Width != 3 || g.Height != 1 {
			t.Fatalf("expected ceil dimensions 3x1, got %dx%d", g.Width, g.Height)
		}
	})
}

func TestCellFromWorld(t *testing.T) {
	g, err := BuildGrid(cp.BB{L: -50, B: -50, R: 50, T: 50}, 10, &rectQuery{ready: true})
	if err != nil {
		t.Fatalf("BuildGrid: %v", err)
	}

	cases := []struct {
		name string
		p    cp.Vector
		want Coord
		ok   bool
	}{
		{"min_corner_inside", cp.Vector{X: -50, Y: -50}, Coord{Row: 0, Col: 0}, true},
		{"max_x_edge_outside", cp.Vector{X: 50, Y: 0}, Coord{}, false},
		{"max_y_edge_outside", cp.Vector{X: 0, Y: 50}, Coord{}, false},
		{"just_below_max", cp.Vector{X: 49.999, Y: 49.999}, Coord{Row: 9, Col: 9}, true},
		{"origin", cp.Vector{X: 0, Y: 0}, Coord{Row: 5, Col: 5}, true},
		{"cell_boundary_goes_up", cp.Vector{X: -40, Y: -30}, Coord{Row: 2, Col: 1}, true},
		{"left_of_bounds", cp.Vector{X: -50.001, Y: 0}, Coord{}, false},
		{"nan", cp.Vector{X: math.NaN(), Y: 0}, Coord{}, false},
		{"inf", cp.Vector{X: math.Inf(1), Y: 0}, Coord{}, false},
		{"neg_inf", cp.Vector{X: 0, Y: math.Inf(-1)}, Coord{}, false},
		{"far_away", cp.Vector{X: 1e300, Y: -1e300}, Coord{}, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, ok := g.CellFromWorld(c.p)
			if ok != c.ok {
				t.Fatalf("CellFromWorld(%v) ok=%v, want %v", c.p, ok, c.ok)
			}
			if ok && got != c.want {
				t.Fatalf("CellFromWorld(%v) = %v, want %v", c.p, got, c.want)
			}
		})
	}
}

func TestWorldFromCellRoundTrip(t *testing.T) {
	g, err := BuildGrid(cp.BB{L: 3, B: 7, R: 83, T: 47}, 8, &rectQuery{ready: true})
	if err != nil {
		t.Fatalf("BuildGrid: %v", err)
	}
	for row := 0; row < g.Height; row++ {
		for col := 0; col < g.Width; col++ {
			c := Coord{Row: row, Col: col}
			center := g.WorldFromCell(c)
			back, ok := g.CellFromWorld(center)
			if !ok || back != c {
				t.Fatalf("round trip %v -> %v -> %v ok=%v", c, center, back, ok)
			}
		}
	}
	if got := g.WorldFromCell(Coord{}); got.X != 7 || got.Y != 11 {
		t.Fatalf("expected first center (7,11), got %v", got)
	}
}

func TestNearestWalkable(t *testing.T) {
	g := gridFromRows(t,
		".....",
		".###.",
		".###.",
		".###.",
		".....",
	)
	c, ok := g.NearestWalkable(Coord{Row: 2, Col: 2}, 3)
	if !ok {
		t.Fatalf("expected a walkable cell")
	}
	if !g.Walkable(c) {
		t.Fatalf("NearestWalkable returned blocked cell %v", c)
	}
	if c.Row != 0 && c.Row != 4 && c.Col != 0 && c.Col != 4 {
		t.Fatalf("expected a border cell, got %v", c)
	}
	if _, ok := g.NearestWalkable(Coord{Row: 2, Col: 2}, 1); ok {
		t.Fatalf("expected no walkable cell within radius 1")
	}
}

func TestGridString(t *testing.T) {
	g := gridFromRows(t, ".#", "#.")
	if got := g.String(); got != ".#\n#.\n" {
		t.Fatalf("unexpected dump %q", got)
	}
}
