package game

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBoard(t *testing.T) *Board {
	t.Helper()
	b, err := NewBoard(6, 9)
	require.NoError(t, err)
	return b
}

func TestNewBoardCapacities(t *testing.T) {
	b := newTestBoard(t)

	assert.Equal(t, 9, b.Rows())
	assert.Equal(t, 6, b.Cols())
	assert.Equal(t, 1, b.Cell(0, 0).MaxCount, "corner")
	assert.Equal(t, 1, b.Cell(8, 5).MaxCount, "corner")
	assert.Equal(t, 2, b.Cell(0, 3).MaxCount, "top edge")
	assert.Equal(t, 2, b.Cell(4, 0).MaxCount, "left edge")
	assert.Equal(t, 3, b.Cell(2, 3).MaxCount, "interior")

	for r := 0; r < b.Rows(); r++ {
		for c := 0; c < b.Cols(); c++ {
			cell := b.Cell(r, c)
			assert.True(t, cell.Empty())
			assert.Equal(t, len(b.Neighbors(r, c)), cell.MaxCount+1,
				"capacity at (%d,%d) should be one less than its neighbour count", r, c)
		}
	}
}

func TestNewBoardRejectsBadSize(t *testing.T) {
	_, err := NewBoard(0, 9)
	require.Error(t, err)
}

func TestNewBoardFromCellsRejectsRaggedRows(t *testing.T) {
	_, err := NewBoardFromCells([][]Cell{
		{{Color: NoColor, MaxCount: 1}, {Color: NoColor, MaxCount: 1}},
		{{Color: NoColor, MaxCount: 1}},
	})
	require.Error(t, err)
}

func TestIncrementScenario(t *testing.T) {
	b := newTestBoard(t)

	next, err := b.Apply(BoardAction{Row: 2, Col: 3, Kind: Increment, Color: 0})
	require.NoError(t, err)

	assert.Equal(t, Cell{Count: 1, Color: 0, MaxCount: 3}, next.Cell(2, 3))
	assert.True(t, b.Cell(2, 3).Empty(), "apply must not mutate the source board")
}

func TestExplodeScenarios(t *testing.T) {
	cases := []struct {
		name      string
		row, col  int
		neighbors []Position
	}{
		{
			name: "interior",
			row:  2, col: 3,
			neighbors: []Position{{3, 3}, {1, 3}, {2, 4}, {2, 2}},
		},
		{
			name: "edge",
			row:  0, col: 3,
			neighbors: []Position{{1, 3}, {0, 4}, {0, 2}},
		},
		{
			name: "corner",
			row:  8, col: 5,
			neighbors: []Position{{7, 5}, {8, 4}},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := newTestBoard(t)
			full := b.Cell(tc.row, tc.col)
			full.Count = full.MaxCount
			full.Color = 0
			b = b.WithCell(tc.row, tc.col, full)

			b, err := b.Apply(BoardAction{Row: tc.row, Col: tc.col, Kind: Increment, Color: 0})
			require.NoError(t, err)
			removed := b.Cell(tc.row, tc.col).Count
			before := b.Total()

			b, err = b.Apply(BoardAction{Row: tc.row, Col: tc.col, Kind: Exploded, Color: 0})
			require.NoError(t, err)

			assert.Equal(t, Cell{Count: 0, Color: NoColor, MaxCount: full.MaxCount}, b.Cell(tc.row, tc.col))
			assert.ElementsMatch(t, tc.neighbors, b.Neighbors(tc.row, tc.col))
			for _, p := range tc.neighbors {
				cell := b.Cell(p.Row, p.Col)
				assert.Equal(t, 1, cell.Count)
				assert.Equal(t, Color(0), cell.Color)
			}
			assert.Equal(t, len(tc.neighbors), removed, "units removed must equal units distributed")
			assert.Equal(t, before, b.Total())
		})
	}
}

func TestExplodeRecolorsCapturedNeighbor(t *testing.T) {
	b := newTestBoard(t)
	b = b.WithCell(2, 2, Cell{Count: 2, Color: 1, MaxCount: 3})

	b, err := b.Apply(BoardAction{Row: 2, Col: 3, Kind: Exploded, Color: 0})
	require.NoError(t, err)

	assert.Equal(t, Cell{Count: 3, Color: 0, MaxCount: 3}, b.Cell(2, 2))
}

func TestApplyRejectsOutOfBounds(t *testing.T) {
	b := newTestBoard(t)
	_, err := b.Apply(BoardAction{Row: 9, Col: 0, Kind: Increment})
	require.Error(t, err)
	_, err = b.Apply(BoardAction{Row: 0, Col: -1, Kind: Exploded})
	require.Error(t, err)
}

func TestParseBoardAcceptsStringAndArray(t *testing.T) {
	b := newTestBoard(t)
	b, err := b.Apply(BoardAction{Row: 1, Col: 1, Kind: Increment, Color: 2})
	require.NoError(t, err)

	serialized, err := b.Serialize()
	require.NoError(t, err)

	fromArray, err := ParseBoard([]byte(serialized))
	require.NoError(t, err)
	assert.Equal(t, b.Cells(), fromArray.Cells())

	quoted, err := json.Marshal(serialized)
	require.NoError(t, err)
	fromString, err := ParseBoard(quoted)
	require.NoError(t, err)
	assert.Equal(t, b.Cells(), fromString.Cells())
}

func TestCellJSONUsesNullForNoColor(t *testing.T) {
	data, err := json.Marshal(Cell{Count: 0, Color: NoColor, MaxCount: 2})
	require.NoError(t, err)
	assert.JSONEq(t, `{"count":0,"color":null,"max_count":2}`, string(data))

	var c Cell
	require.NoError(t, json.Unmarshal([]byte(`{"count":1,"color":0,"max_count":3}`), &c))
	assert.Equal(t, Cell{Count: 1, Color: 0, MaxCount: 3}, c)

	require.Error(t, json.Unmarshal([]byte(`{"count":-1,"color":null,"max_count":3}`), &c))
}

func TestBoardActionJSON(t *testing.T) {
	var a BoardAction
	require.NoError(t, json.Unmarshal([]byte(`{"row":2,"col":3,"action":"exploded","color":1}`), &a))
	assert.Equal(t, BoardAction{Row: 2, Col: 3, Kind: Exploded, Color: 1}, a)

	require.Error(t, json.Unmarshal([]byte(`{"row":2,"col":3,"action":"teleport","color":1}`), &a))
}
