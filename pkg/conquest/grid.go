package conquest

import "fmt"

// FactionID names a conquest-playing party.
type FactionID string

// Neutral owns every territory no faction has claimed.
const Neutral FactionID = ""

// Coord identifies a territory by its grid column and row.
type Coord struct {
	Col int `json:"col"`
	Row int `json:"row"`
}

func (c Coord) String() string {
	return fmt.Sprintf("(%d,%d)", c.Col, c.Row)
}

// Territory is a single grid cell. The garrison is tracked by the Match,
// not by the territory itself.
type Territory struct {
	Coord       Coord     `json:"coord"`
	Owner       FactionID `json:"owner"`
	Improvement int       `json:"improvement"`
	Treasure    bool      `json:"treasure"`
}

// IsAdjacent reports whether a and b are orthogonal neighbours: exactly one
// axis differs, by exactly one cell. Diagonals and self-pairs are never adjacent.
func IsAdjacent(a, b Coord) bool {
	dc := abs(a.Col - b.Col)
	dr := abs(a.Row - b.Row)
	return (dc == 1 && dr == 0) || (dc == 0 && dr == 1)
}

// Distance returns the Manhattan distance between a and b in cells.
func Distance(a, b Coord) int {
	return abs(a.Col-b.Col) + abs(a.Row-b.Row)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// neighborOffsets is the fixed up, right, down, left enumeration order.
var neighborOffsets = [4]Coord{{0, -1}, {1, 0}, {0, 1}, {-1, 0}}

// Grid holds the territory cells of a match in row-major order.
type Grid struct {
	Cols     int
	Rows     int
	CellSize int
	cells    []Territory
}

// NewGrid returns a fully-covered grid of neutral territories.
func NewGrid(cols, rows, cellSize int) *Grid {
	g := &Grid{Cols: cols, Rows: rows, CellSize: cellSize, cells: make([]Territory, cols*rows)}
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			g.cells[r*cols+c].Coord = Coord{Col: c, Row: r}
		}
	}
	return g
}

// MaxCells bounds the territory count of a match.
const MaxCells = 1 << 18

// gridDimension counts the cells needed to cover extent pixels, including a
// partial trailing cell.
func gridDimension(extent, cellSize int) int {
	n := extent / cellSize
	if extent%cellSize != 0 {
		n++
	}
	return n
}

// Size returns the number of territories.
func (g *Grid) Size() int {
	return len(g.cells)
}

// InBounds reports whether c lies on the grid.
func (g *Grid) InBounds(c Coord) bool {
	return c.Col >= 0 && c.Col < g.Cols && c.Row >= 0 && c.Row < g.Rows
}

// At returns the territory at c, or nil when c is off the grid.
func (g *Grid) At(c Coord) *Territory {
	if !g.InBounds(c) {
		return nil
	}
	return &g.cells[c.Row*g.Cols+c.Col]
}

// CoordAt maps a pixel position to the territory containing it.
func (g *Grid) CoordAt(x, y int) (Coord, bool) {
	if x < 0 || y < 0 || g.CellSize <= 0 {
		return Coord{}, false
	}
	c := Coord{Col: x / g.CellSize, Row: y / g.CellSize}
	return c, g.InBounds(c)
}

// Neighbors returns the in-bounds orthogonal neighbours of c.
func (g *Grid) Neighbors(c Coord) []Coord {
	out := make([]Coord, 0, 4)
	for _, d := range neighborOffsets {
		n := Coord{Col: c.Col + d.Col, Row: c.Row + d.Row}
		if g.InBounds(n) {
			out = append(out, n)
		}
	}
	return out
}

// Territories returns a copy of every cell in row-major order.
func (g *Grid) Territories() []Territory {
	out := make([]Territory, len(g.cells))
	copy(out, g.cells)
	return out
}

// OwnedBy counts the territories owned by f.
func (g *Grid) OwnedBy(f FactionID) int {
	n := 0
	for i := range g.cells {
		if g.cells[i].Owner == f {
			n++
		}
	}
	return n
}

// ImprovementsOf sums the improvement levels of territories owned by f.
func (g *Grid) ImprovementsOf(f FactionID) int {
	n := 0
	for i := range g.cells {
		if g.cells[i].Owner == f {
			n += g.cells[i].Improvement
		}
	}
	return n
}

// filter returns the coordinates of every cell matching keep.
func (g *Grid) filter(keep func(*Territory) bool) []Coord {
	var out []Coord
	for i := range g.cells {
		if keep(&g.cells[i]) {
			out = append(out, g.cells[i].Coord)
		}
	}
	return out
}
