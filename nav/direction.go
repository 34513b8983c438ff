package nav

import (
	"math"

	"github.com/jakecoffman/cp"
)

type Direction uint8

const (
	DirNone Direction = iota
	DirUp
	DirDown
	DirLeft
	DirRight
	DirUpLeft
	DirUpRight
	DirDownLeft
	DirDownRight
)

// Neighbors is the fixed expansion and tie-break order shared by path search
// and flow field construction.
var Neighbors = [8]Direction{
	DirUp,
	DirDown,
	DirLeft,
	DirRight,
	DirUpLeft,
	DirUpRight,
	DirDownLeft,
	DirDownRight,
}

var directionDeltas = [...][2]int{
	DirNone:      {0, 0},
	DirUp:        {-1, 0},
	DirDown:      {1, 0},
	DirLeft:      {0, -1},
	DirRight:     {0, 1},
	DirUpLeft:    {-1, -1},
	DirUpRight:   {-1, 1},
	DirDownLeft:  {1, -1},
	DirDownRight: {1, 1},
}

var directionNames = [...]string{
	DirNone:      "none",
	DirUp:        "up",
	DirDown:      "down",
	DirLeft:      "left",
	DirRight:     "right",
	DirUpLeft:    "up-left",
	DirUpRight:   "up-right",
	DirDownLeft:  "down-left",
	DirDownRight: "down-right",
}

var directionGlyphs = [...]rune{
	DirNone:      '·',
	DirUp:        '↑',
	DirDown:      '↓',
	DirLeft:      '←',
	DirRight:     '→',
	DirUpLeft:    '↖',
	DirUpRight:   '↗',
	DirDownLeft:  '↙',
	DirDownRight: '↘',
}

func (d Direction) valid() bool {
	return int(d) < len(directionDeltas)
}

// Delta returns the (row, col) offset of one step in direction d.
func (d Direction) Delta() (int, int) {
	if !d.valid() {
		return 0, 0
	}
	delta := directionDeltas[d]
	return delta[0], delta[1]
}

func (d Direction) Step(c Coord) Coord {
	dr, dc := d.Delta()
	return Coord{Row: c.Row + dr, Col: c.Col + dc}
}

func (d Direction) Diagonal() bool {
	dr, dc := d.Delta()
	return dr != 0 && dc != 0
}

// Vector returns the unit world-plane vector for d, or the zero vector for DirNone.
func (d Direction) Vector() cp.Vector {
	dr, dc := d.Delta()
	if dr == 0 && dc == 0 {
		return cp.Vector{}
	}
	v := cp.Vector{X: float64(dc), Y: float64(dr)}
	if d.Diagonal() {
		return v.Mult(1 / math.Sqrt2)
	}
	return v
}

func (d Direction) Glyph() rune {
	if !d.valid() {
		return '?'
	}
	return directionGlyphs[d]
}

func (d Direction) String() string {
	if !d.valid() {
		return "invalid"
	}
	return directionNames[d]
}
