// Package advisor suggests a move with a shallow alpha-beta search over the
// local chain-reaction engine.
package advisor

import (
	"errors"
	"math"

	"github.com/chainreaction/client/internal/game"
)

const (
	defaultDepth = 2
	winScore     = 1000000
	loseScore    = -1000000
)

// ErrNoMove is returned when the colour has no legal placement.
var ErrNoMove = errors.New("no legal move")

// Advisor picks a cell for a colour against one opponent colour.
type Advisor struct {
	MaxDepth int
}

func NewAdvisor() *Advisor {
	return &Advisor{MaxDepth: defaultDepth}
}

// Suggest returns the best placement for me against opponent.
func (a *Advisor) Suggest(board *game.Board, me, opponent game.Color) (game.Position, error) {
	moves := validMoves(board, me)
	if len(moves) == 0 {
		return game.Position{}, ErrNoMove
	}

	// First check for an immediate win
	if move, ok := checkWinningMove(board, me); ok {
		return move, nil
	}

	depth := a.MaxDepth
	if depth < 1 {
		depth = 1
	}

	bestScore := math.Inf(-1)
	bestMove := moves[0]
	alpha := math.Inf(-1)
	beta := math.Inf(1)

	for _, mv := range moves {
		_, next, err := game.Simulate(board, mv.Row, mv.Col, me)
		if err != nil {
			continue
		}
		score := minimax(next, depth-1, alpha, beta, false, me, opponent)
		if score > bestScore {
			bestScore = score
			bestMove = mv
		}
		alpha = math.Max(alpha, score)
	}
	return bestMove, nil
}

// minimax implements the minimax algorithm with alpha-beta pruning
func minimax(board *game.Board, depth int, alpha, beta float64, maximizing bool, me, opponent game.Color) float64 {
	counts := board.Counts()
	if counts[opponent] == 0 && counts[me] > 1 {
		return winScore
	}
	if counts[me] == 0 && counts[opponent] > 1 {
		return loseScore
	}
	if depth == 0 {
		return evaluatePosition(board, me, opponent)
	}

	if maximizing {
		moves := validMoves(board, me)
		if len(moves) == 0 {
			return evaluatePosition(board, me, opponent)
		}
		maxScore := math.Inf(-1)
		for _, mv := range moves {
			_, next, err := game.Simulate(board, mv.Row, mv.Col, me)
			if err != nil {
				continue
			}
			score := minimax(next, depth-1, alpha, beta, false, me, opponent)
			maxScore = math.Max(maxScore, score)
			alpha = math.Max(alpha, score)
			if beta <= alpha {
				break
			}
		}
		return maxScore
	}

	moves := validMoves(board, opponent)
	if len(moves) == 0 {
		return evaluatePosition(board, me, opponent)
	}
	minScore := math.Inf(1)
	for _, mv := range moves {
		_, next, err := game.Simulate(board, mv.Row, mv.Col, opponent)
		if err != nil {
			continue
		}
		score := minimax(next, depth-1, alpha, beta, true, me, opponent)
		minScore = math.Min(minScore, score)
		beta = math.Min(beta, score)
		if beta <= alpha {
			break
		}
	}
	return minScore
}

// evaluatePosition scores material, cells held and cells one unit from
// exploding, which threaten neighbours.
func evaluatePosition(board *game.Board, me, opponent game.Color) float64 {
	var score float64
	for r := 0; r < board.Rows(); r++ {
		for c := 0; c < board.Cols(); c++ {
			cell := board.Cell(r, c)
			if cell.Empty() {
				continue
			}
			weight := float64(cell.Count) + 2
			if cell.Count == cell.MaxCount {
				weight += 3
			}
			// Corners and edges are harder to capture.
			weight += float64(3-cell.MaxCount) * 0.5

			switch cell.Color {
			case me:
				score += weight
			case opponent:
				score -= weight
			}
		}
	}
	return score
}

// checkWinningMove finds a placement that leaves the opponent with nothing.
func checkWinningMove(board *game.Board, me game.Color) (game.Position, bool) {
	counts := board.Counts()
	opponentUnits := board.Total() - counts[me]
	if opponentUnits == 0 {
		return game.Position{}, false
	}
	for _, mv := range validMoves(board, me) {
		_, next, err := game.Simulate(board, mv.Row, mv.Col, me)
		if err != nil {
			continue
		}
		if next.Total() == next.Counts()[me] {
			return mv, true
		}
	}
	return game.Position{}, false
}

func validMoves(board *game.Board, color game.Color) []game.Position {
	var moves []game.Position
	for r := 0; r < board.Rows(); r++ {
		for c := 0; c < board.Cols(); c++ {
			if game.CheckPlacement(board, r, c, color) == nil {
				moves = append(moves, game.Position{Row: r, Col: c})
			}
		}
	}
	return moves
}
