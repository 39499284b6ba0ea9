package game

// Phase is where a session sits in its replay lifecycle.
type Phase int

const (
	// PhaseAwaitingState waits for an authoritative get_game_state push.
	PhaseAwaitingState Phase = iota
	// PhaseReady holds a trusted board and accepts local edits.
	PhaseReady
	// PhaseAnimating is replaying server mutations step by step.
	PhaseAnimating
	// PhaseTerminal is absorbing: the game has a winner.
	PhaseTerminal
)

func (p Phase) String() string {
	switch p {
	case PhaseAwaitingState:
		return "awaiting_state"
	case PhaseReady:
		return "ready"
	case PhaseAnimating:
		return "animating"
	case PhaseTerminal:
		return "terminal"
	default:
		return "unknown"
	}
}

// GameSession is the per-player view of a game.
type GameSession struct {
	GameID        string  `json:"gameId"`
	GameCode      string  `json:"gameCode,omitempty"`
	PlayerID      string  `json:"playerId"`
	PlayerOrder   int     `json:"playerOrder"`
	TurnNumber    int     `json:"turnNumber"`
	NumPlayers    int     `json:"numPlayers"`
	IsPlayersTurn bool    `json:"isPlayersTurn"`
	Winner        *string `json:"winner,omitempty"`
}

// Color is the colour this player places with.
func (s GameSession) Color() Color {
	return Color(s.PlayerOrder)
}

// PendingPlacement is the single unconfirmed local move.
type PendingPlacement struct {
	Row   int  `json:"row"`
	Col   int  `json:"col"`
	Prior Cell `json:"priorCell"`
}

// Snapshot is a read-only copy of the model for renderers.
type Snapshot struct {
	Phase   string            `json:"phase"`
	Session GameSession       `json:"session"`
	Board   *Board            `json:"board,omitempty"`
	Pending *PendingPlacement `json:"pending,omitempty"`
}
