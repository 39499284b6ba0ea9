package game

// Simulate plays one move on a copy of b and returns the actions a server
// would report along with the resulting board. The move increments
// (row, col); every cell pushed past its capacity then explodes in
// breadth-first order, stamping its neighbours with color.
//
// The client never trusts this result: it is used for advisory checks, the
// move advisor and tests. The authoritative refresh that ends every replay
// settles any difference.
func Simulate(b *Board, row, col int, color Color) ([]BoardAction, *Board, error) {
	if err := CheckPlacement(b, row, col, color); err != nil {
		return nil, nil, err
	}

	first := BoardAction{Row: row, Col: col, Kind: Increment, Color: color}
	board, err := b.Apply(first)
	if err != nil {
		return nil, nil, err
	}
	actions := []BoardAction{first}

	var queue []Position
	if overflowing(board, row, col) {
		queue = append(queue, Position{Row: row, Col: col})
	}

	// A board owned by one colour can cascade forever; stop well past any
	// legitimate chain.
	limit := board.Rows() * board.Cols() * 16
	for len(queue) > 0 && len(actions) < limit {
		p := queue[0]
		queue = queue[1:]
		if !overflowing(board, p.Row, p.Col) {
			continue
		}

		explode := BoardAction{Row: p.Row, Col: p.Col, Kind: Exploded, Color: color}
		board, err = board.Apply(explode)
		if err != nil {
			return nil, nil, err
		}
		actions = append(actions, explode)

		for _, n := range board.Neighbors(p.Row, p.Col) {
			if board.Cell(n.Row, n.Col).Count == board.Cell(n.Row, n.Col).MaxCount+1 {
				queue = append(queue, n)
			}
		}
	}
	return actions, board, nil
}

// CheckPlacement reports whether color may play (row, col): the cell must be
// on the board and either empty or already owned by color.
func CheckPlacement(b *Board, row, col int, color Color) error {
	if b == nil {
		return &IllegalMoveError{Reason: ReasonNoState}
	}
	if !b.InBounds(row, col) {
		return &IllegalMoveError{Reason: ReasonOutOfBounds}
	}
	cell := b.Cell(row, col)
	if cell.Count > 0 && cell.Color != NoColor && cell.Color != color {
		return &IllegalMoveError{Reason: ReasonOccupied}
	}
	return nil
}

func overflowing(b *Board, row, col int) bool {
	c := b.Cell(row, col)
	return c.Count > c.MaxCount
}
