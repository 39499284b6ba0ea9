package game

import "errors"

// ErrTerminal is returned for any mutation attempted after the game has
// finished.
var ErrTerminal = errors.New("game is finished")

// User-facing reasons for a rejected local move.
const (
	ReasonNotYourTurn = "It is not your turn."
	ReasonGameOver    = "The game is already over."
	ReasonOccupied    = "That cell belongs to another player."
	ReasonOutOfBounds = "That cell is not on the board."
	ReasonNoState     = "The board has not loaded yet."
	ReasonBusy        = "Wait for the board to finish updating."
	ReasonNoPending   = "Place a piece before confirming."
)

// IllegalMoveError is an advisory local rejection. It is shown to the user
// and never sent to the server.
type IllegalMoveError struct {
	Reason string
}

func (e *IllegalMoveError) Error() string {
	return "illegal move: " + e.Reason
}
