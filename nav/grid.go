package nav

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/jakecoffman/cp"
)

var (
	ErrGridNotReady    = errors.New("nav: obstacle data not ready")
	ErrInvalidGrid     = errors.New("nav: invalid grid dimensions")
	ErrGoalOutOfBounds = errors.New("nav: goal outside grid")
)

// footprintInset keeps obstacles that only touch a cell edge from blocking it.
const footprintInset = 1e-3

// ObstacleQuery answers whether any static obstacle overlaps a world-space box.
type ObstacleQuery interface {
	Ready() bool
	QueryOverlap(bb cp.BB) bool
}

// Coord addresses a grid cell. Row grows with world Y, Col with world X.
type Coord struct {
	Row int
	Col int
}

func (c Coord) String() string {
	return fmt.Sprintf("(%d,%d)", c.Row, c.Col)
}

// Cell is a snapshot of one grid square and its world-space center.
type Cell struct {
	Coord    Coord
	Position cp.Vector
	Walkable bool
}

// Grid is immutable once BuildGrid returns.
type Grid struct {
	Bounds   cp.BB
	CellSize float64
	Width    int
	Height   int

	walkable []bool
}

// BuildGrid samples q once per cell over bounds. A cell is walkable when no
// obstacle overlaps its box.
func BuildGrid(bounds cp.BB, cellSize float64, q ObstacleQuery) (*Grid, error) {
	if cellSize <= 0 || math.IsNaN(cellSize) || math.IsInf(cellSize, 0) {
		return nil, fmt.Errorf("%w: cell size %v", ErrInvalidGrid, cellSize)
	}
	spanX := bounds.R - bounds.L
	spanY := bounds.T - bounds.B
	if !(spanX > 0) || !(spanY > 0) || math.IsInf(spanX, 0) || math.IsInf(spanY, 0) {
		return nil, fmt.Errorf("%w: bounds %v", ErrInvalidGrid, bounds)
	}
	if q == nil || !q.Ready() {
		return nil, ErrGridNotReady
	}

	g := &Grid{
		Bounds:   bounds,
		CellSize: cellSize,
		Width:    int(math.Ceil(spanX / cellSize)),
		Height:   int(math.Ceil(spanY / cellSize)),
	}
	g.walkable = make([]bool, g.Width*g.Height)
	for row := 0; row < g.Height; row++ {
		for col := 0; col < g.Width; col++ {
			bb := g.CellBB(Coord{Row: row, Col: col})
			sample := cp.BB{
				L: bb.L + footprintInset,
				B: bb.B + footprintInset,
				R: bb.R - footprintInset,
				T: bb.T - footprintInset,
			}
			g.walkable[row*g.Width+col] = !q.QueryOverlap(sample)
		}
	}
	return g, nil
}

// NewGridFromMask builds a grid directly from a row-major walkability mask.
func NewGridFromMask(origin cp.Vector, cellSize float64, width, height int, walkable []bool) (*Grid, error) {
	if cellSize <= 0 || width <= 0 || height <= 0 || len(walkable) != width*height {
		return nil, ErrInvalidGrid
	}
	g := &Grid{
		Bounds: cp.BB{
			L: origin.X,
			B: origin.Y,
			R: origin.X + float64(width)*cellSize,
			T: origin.Y + float64(height)*cellSize,
		},
		CellSize: cellSize,
		Width:    width,
		Height:   height,
		walkable: append([]bool(nil), walkable...),
	}
	return g, nil
}

func (g *Grid) Len() int {
	if g == nil {
		return 0
	}
	return g.Width * g.Height
}

func (g *Grid) InBounds(c Coord) bool {
	return g != nil && c.Row >= 0 && c.Col >= 0 && c.Row < g.Height && c.Col < g.Width
}

func (g *Grid) Index(c Coord) int {
	return c.Row*g.Width + c.Col
}

func (g *Grid) CoordOf(index int) Coord {
	return Coord{Row: index / g.Width, Col: index % g.Width}
}

func (g *Grid) Walkable(c Coord) bool {
	if !g.InBounds(c) {
		return false
	}
	return g.walkable[g.Index(c)]
}

func (g *Grid) Cell(c Coord) (Cell, bool) {
	if !g.InBounds(c) {
		return Cell{}, false
	}
	return Cell{Coord: c, Position: g.WorldFromCell(c), Walkable: g.walkable[g.Index(c)]}, true
}

// CellFromWorld maps a world point to its cell. Bounds are half-open: a point
// on the minimum edge is inside, a point on the maximum edge is not.
func (g *Grid) CellFromWorld(p cp.Vector) (Coord, bool) {
	if g == nil || math.IsNaN(p.X) || math.IsNaN(p.Y) {
		return Coord{}, false
	}
	if p.X < g.Bounds.L || p.Y < g.Bounds.B || p.X >= g.Bounds.R || p.Y >= g.Bounds.T {
		return Coord{}, false
	}
	c := Coord{
		Row: int(math.Floor((p.Y - g.Bounds.B) / g.CellSize)),
		Col: int(math.Floor((p.X - g.Bounds.L) / g.CellSize)),
	}
	// Bounds that are not a multiple of the cell size leave a partial last cell.
	if !g.InBounds(c) {
		return Coord{}, false
	}
	return c, true
}

// WorldFromCell returns the world-space center of c.
func (g *Grid) WorldFromCell(c Coord) cp.Vector {
	half := g.CellSize * 0.5
	return cp.Vector{
		X: g.Bounds.L + float64(c.Col)*g.CellSize + half,
		Y: g.Bounds.B + float64(c.Row)*g.CellSize + half,
	}
}

func (g *Grid) CellBB(c Coord) cp.BB {
	l := g.Bounds.L + float64(c.Col)*g.CellSize
	b := g.Bounds.B + float64(c.Row)*g.CellSize
	return cp.BB{L: l, B: b, R: l + g.CellSize, T: b + g.CellSize}
}

// NearestWalkable searches square rings around c for the closest walkable cell.
func (g *Grid) NearestWalkable(c Coord, maxRadius int) (Coord, bool) {
	if g.Walkable(c) {
		return c, true
	}
	for r := 1; r <= maxRadius; r++ {
		best := Coord{}
		bestDist := math.Inf(1)
		found := false
		for row := c.Row - r; row <= c.Row+r; row++ {
			for col := c.Col - r; col <= c.Col+r; col++ {
				if row != c.Row-r && row != c.Row+r && col != c.Col-r && col != c.Col+r {
					continue
				}
				n := Coord{Row: row, Col: col}
				if !g.Walkable(n) {
					continue
				}
				dr := float64(row - c.Row)
				dc := float64(col - c.Col)
				if d := dr*dr + dc*dc; d < bestDist {
					best, bestDist, found = n, d, true
				}
			}
		}
		if found {
			return best, true
		}
	}
	return Coord{}, false
}

// String renders the grid with '.' for walkable and '#' for blocked cells, row 0 first.
func (g *Grid) String() string {
	if g == nil {
		return ""
	}
	var sb strings.Builder
	sb.Grow((g.Width + 1) * g.Height)
	for row := 0; row < g.Height; row++ {
		for col := 0; col < g.Width; col++ {
			if g.walkable[row*g.Width+col] {
				sb.WriteByte('.')
			} else {
				sb.WriteByte('#')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
