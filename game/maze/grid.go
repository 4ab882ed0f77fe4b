package maze

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Cell is the state of a single grid square
type Cell uint8

const (
	Wall Cell = iota
	Open
)

// Text characters used by Rows and FromRows
const (
	WallChar = '#'
	OpenChar = '.'
)

func (c Cell) String() string {
	if c == Open {
		return "open"
	}
	return "wall"
}

// Point is an x,y coordinate; x grows to the right, y grows downward
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Grid is a square matrix of cells indexed as Cells[y][x]
type Grid struct {
	Size  int
	Cells [][]Cell
}

type gridJSON struct {
	Size int      `json:"size"`
	Rows []string `json:"rows"`
}

// NewGrid returns a size x size grid with every cell set to Wall
func NewGrid(size int) *Grid {
	cells := make([][]Cell, size)
	for y := range cells {
		cells[y] = make([]Cell, size)
	}
	return &Grid{Size: size, Cells: cells}
}

// Entry returns the start cell
func (g *Grid) Entry() Point {
	return Point{X: 0, Y: 0}
}

// Exit returns the goal cell in the opposite corner
func (g *Grid) Exit() Point {
	return Point{X: g.Size - 1, Y: g.Size - 1}
}

// InBounds reports whether (x, y) lies on the grid
func (g *Grid) InBounds(x, y int) bool {
	return x >= 0 && x < g.Size && y >= 0 && y < g.Size
}

// IsOpen reports whether (x, y) is on the grid and open. Out of bounds counts as blocked.
func (g *Grid) IsOpen(x, y int) bool {
	return g.InBounds(x, y) && g.Cells[y][x] == Open
}

// At returns the cell at (x, y); out of bounds reads as Wall
func (g *Grid) At(x, y int) Cell {
	if !g.InBounds(x, y) {
		return Wall
	}
	return g.Cells[y][x]
}

func (g *Grid) set(x, y int, c Cell) {
	g.Cells[y][x] = c
}

// Clone returns a deep copy of the grid
func (g *Grid) Clone() *Grid {
	clone := NewGrid(g.Size)
	for y := range g.Cells {
		copy(clone.Cells[y], g.Cells[y])
	}
	return clone
}

// CountOpen returns the number of open cells
func (g *Grid) CountOpen() int {
	count := 0
	for _, row := range g.Cells {
		for _, cell := range row {
			if cell == Open {
				count++
			}
		}
	}
	return count
}

// Walls returns the wall flags row by row, true meaning wall
func (g *Grid) Walls() [][]bool {
	walls := make([][]bool, g.Size)
	for y, row := range g.Cells {
		walls[y] = make([]bool, g.Size)
		for x, cell := range row {
			walls[y][x] = cell == Wall
		}
	}
	return walls
}

// Rows renders the grid as one string per row using WallChar and OpenChar
func (g *Grid) Rows() []string {
	rows := make([]string, g.Size)
	var b strings.Builder
	for y, row := range g.Cells {
		b.Reset()
		for _, cell := range row {
			if cell == Open {
				b.WriteByte(OpenChar)
			} else {
				b.WriteByte(WallChar)
			}
		}
		rows[y] = b.String()
	}
	return rows
}

func (g *Grid) String() string {
	return strings.Join(g.Rows(), "\n")
}

// FromRows parses the output of Rows back into a grid
func FromRows(rows []string) (*Grid, error) {
	size := len(rows)
	if size == 0 {
		return nil, fmt.Errorf("grid: no rows")
	}

	grid := NewGrid(size)
	for y, row := range rows {
		if len(row) != size {
			return nil, fmt.Errorf("grid: row %d has %d cells, want %d", y, len(row), size)
		}
		for x := 0; x < size; x++ {
			switch row[x] {
			case OpenChar:
				grid.set(x, y, Open)
			case WallChar:
				grid.set(x, y, Wall)
			default:
				return nil, fmt.Errorf("grid: invalid character %q at row %d, col %d", row[x], y, x)
			}
		}
	}

	return grid, nil
}

// MarshalJSON encodes the grid as its size plus text rows
func (g *Grid) MarshalJSON() ([]byte, error) {
	return json.Marshal(gridJSON{Size: g.Size, Rows: g.Rows()})
}

// UnmarshalJSON decodes the format written by MarshalJSON
func (g *Grid) UnmarshalJSON(data []byte) error {
	var raw gridJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := FromRows(raw.Rows)
	if err != nil {
		return err
	}
	*g = *parsed
	return nil
}
