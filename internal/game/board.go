package game

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Color identifies the player owning a cell. NoColor marks an empty cell.
type Color int

const NoColor Color = -1

// Cell is one square of the board.
type Cell struct {
	Count    int
	Color    Color
	MaxCount int
}

// Empty reports whether nobody owns the cell.
func (c Cell) Empty() bool {
	return c.Count == 0 && c.Color == NoColor
}

type cellJSON struct {
	Count    int  `json:"count"`
	Color    *int `json:"color"`
	MaxCount int  `json:"max_count"`
}

func (c Cell) MarshalJSON() ([]byte, error) {
	out := cellJSON{Count: c.Count, MaxCount: c.MaxCount}
	if c.Color != NoColor {
		color := int(c.Color)
		out.Color = &color
	}
	return json.Marshal(out)
}

func (c *Cell) UnmarshalJSON(data []byte) error {
	var in cellJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	if in.Count < 0 {
		return fmt.Errorf("cell count %d is negative", in.Count)
	}
	c.Count = in.Count
	c.MaxCount = in.MaxCount
	c.Color = NoColor
	if in.Color != nil {
		c.Color = Color(*in.Color)
	}
	return nil
}

// Position addresses a cell by row and column.
type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Board is an immutable rectangular grid. Every mutation returns a new board
// and leaves the receiver untouched, so a board handed to a renderer never
// changes underneath it.
type Board struct {
	cells [][]Cell
}

// NewBoard builds an empty width x height board. A cell's capacity is 3,
// minus one on a left/right edge and minus one on a top/bottom edge, so a
// cell explodes exactly when its count reaches its number of neighbours.
func NewBoard(width, height int) (*Board, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid board size %dx%d", width, height)
	}

	cells := make([][]Cell, height)
	for row := range cells {
		cells[row] = make([]Cell, width)
		for col := range cells[row] {
			maxCount := 3
			if col == 0 || col == width-1 {
				maxCount--
			}
			if row == 0 || row == height-1 {
				maxCount--
			}
			cells[row][col] = Cell{Color: NoColor, MaxCount: maxCount}
		}
	}
	return &Board{cells: cells}, nil
}

// NewBoardFromCells validates the grid and takes a private copy of it.
func NewBoardFromCells(cells [][]Cell) (*Board, error) {
	if len(cells) == 0 || len(cells[0]) == 0 {
		return nil, fmt.Errorf("empty board")
	}
	width := len(cells[0])
	for row, r := range cells {
		if len(r) != width {
			return nil, fmt.Errorf("row %d has %d cells, want %d", row, len(r), width)
		}
	}
	b := &Board{cells: cells}
	return b.clone(), nil
}

// ParseBoard decodes a board sent by the server. The server serializes the
// grid to a JSON string before embedding it, so both a raw array and a
// string holding one are accepted.
func ParseBoard(data []byte) (*Board, error) {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var inner string
		if err := json.Unmarshal(data, &inner); err != nil {
			return nil, fmt.Errorf("decode board string: %w", err)
		}
		data = []byte(inner)
	}

	var cells [][]Cell
	if err := json.Unmarshal(data, &cells); err != nil {
		return nil, fmt.Errorf("decode board: %w", err)
	}
	return NewBoardFromCells(cells)
}

// Serialize renders the board the way the server stores it.
func (b *Board) Serialize() (string, error) {
	data, err := json.Marshal(b.cells)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (b *Board) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.cells)
}

func (b *Board) UnmarshalJSON(data []byte) error {
	parsed, err := ParseBoard(data)
	if err != nil {
		return err
	}
	b.cells = parsed.cells
	return nil
}

func (b *Board) Rows() int { return len(b.cells) }

func (b *Board) Cols() int {
	if len(b.cells) == 0 {
		return 0
	}
	return len(b.cells[0])
}

func (b *Board) InBounds(row, col int) bool {
	return row >= 0 && row < b.Rows() && col >= 0 && col < b.Cols()
}

// Cell returns a copy of the cell at row, col. It panics when out of bounds,
// like a slice index.
func (b *Board) Cell(row, col int) Cell {
	return b.cells[row][col]
}

// Cells returns a deep copy of the grid.
func (b *Board) Cells() [][]Cell {
	return b.clone().cells
}

// Neighbors lists the orthogonal in-bounds neighbours of a cell: four in the
// interior, three on an edge, two in a corner. There is no wraparound.
func (b *Board) Neighbors(row, col int) []Position {
	candidates := [4]Position{
		{Row: row + 1, Col: col},
		{Row: row - 1, Col: col},
		{Row: row, Col: col + 1},
		{Row: row, Col: col - 1},
	}
	out := make([]Position, 0, 4)
	for _, p := range candidates {
		if b.InBounds(p.Row, p.Col) {
			out = append(out, p)
		}
	}
	return out
}

// Apply returns a copy of the board with one action applied.
func (b *Board) Apply(a BoardAction) (*Board, error) {
	if !b.InBounds(a.Row, a.Col) {
		return nil, fmt.Errorf("action %s at (%d,%d) is outside the %dx%d board", a.Kind, a.Row, a.Col, b.Cols(), b.Rows())
	}

	next := b.clone()
	switch a.Kind {
	case Increment:
		cell := &next.cells[a.Row][a.Col]
		cell.Count++
		cell.Color = a.Color

	case Exploded:
		src := &next.cells[a.Row][a.Col]
		src.Count = 0
		src.Color = NoColor
		for _, p := range next.Neighbors(a.Row, a.Col) {
			n := &next.cells[p.Row][p.Col]
			n.Count++
			n.Color = a.Color
		}

	default:
		return nil, fmt.Errorf("unknown action kind %q", a.Kind)
	}
	return next, nil
}

// WithCell returns a copy of the board with one cell replaced.
func (b *Board) WithCell(row, col int, cell Cell) *Board {
	next := b.clone()
	next.cells[row][col] = cell
	return next
}

// Counts sums cell counts per owning colour.
func (b *Board) Counts() map[Color]int {
	out := make(map[Color]int)
	for _, row := range b.cells {
		for _, cell := range row {
			if cell.Color != NoColor {
				out[cell.Color] += cell.Count
			}
		}
	}
	return out
}

// Total sums every count on the board.
func (b *Board) Total() int {
	total := 0
	for _, row := range b.cells {
		for _, cell := range row {
			total += cell.Count
		}
	}
	return total
}

func (b *Board) clone() *Board {
	cells := make([][]Cell, len(b.cells))
	for i := range b.cells {
		cells[i] = make([]Cell, len(b.cells[i]))
		copy(cells[i], b.cells[i])
	}
	return &Board{cells: cells}
}
