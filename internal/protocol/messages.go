package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/chainreaction/client/internal/game"
)

// Request payloads.

type CreateGamePayload struct {
	PlayerID    string `json:"player_id" jsonschema:"required"`
	BoardWidth  int    `json:"board_width" jsonschema:"required,minimum=1"`
	BoardHeight int    `json:"board_height" jsonschema:"required,minimum=1"`
}

type JoinGamePayload struct {
	GameCode string `json:"game_code" jsonschema:"required"`
	PlayerID string `json:"player_id" jsonschema:"required"`
}

type StartGamePayload struct {
	GameID string `json:"game_id" jsonschema:"required"`
}

type GameStatePayload struct {
	GameID   string `json:"game_id" jsonschema:"required"`
	PlayerID string `json:"player_id" jsonschema:"required"`
}

type IncrementCellPayload struct {
	GameID   string `json:"game_id" jsonschema:"required"`
	PlayerID string `json:"player_id" jsonschema:"required"`
	Row      int    `json:"row" jsonschema:"required,minimum=0"`
	Col      int    `json:"col" jsonschema:"required,minimum=0"`
}

type GetPlayerIDPayload struct {
	Name  string `json:"name" jsonschema:"required"`
	Email string `json:"email" jsonschema:"required"`
}

type NextStoryPayload struct {
	GameID   string `json:"game_id"`
	PlayerID string `json:"player_id"`
}

type SubmitStoryPiecePayload struct {
	GameID     string `json:"game_id"`
	PlayerID   string `json:"player_id"`
	StoryID    string `json:"story_id"`
	StoryPiece string `json:"story_piece"`
}

type UpdateStoryTitlePayload struct {
	GameID   string `json:"game_id"`
	PlayerID string `json:"player_id"`
	StoryID  string `json:"story_id"`
	NewTitle string `json:"new_title"`
}

type PlayerPayload struct {
	PlayerID string `json:"player_id"`
}

type RemovePlayerPayload struct {
	GameID   string `json:"game_id"`
	PlayerID string `json:"player_id"`
}

// Response and push payloads.

type CreateGameResponse struct {
	Message  string `json:"message"`
	GameID   string `json:"game_id"`
	GameCode string `json:"game_code"`
}

type JoinGameResponse struct {
	Message       string `json:"message"`
	GameID        string `json:"game_id"`
	GameCode      string `json:"game_code"`
	AlreadyJoined bool   `json:"already_joined"`
}

type PlayerIDResponse struct {
	Message  string `json:"message"`
	PlayerID string `json:"player_id"`
}

// GameStateResponse is the authoritative snapshot. State holds the board
// either inline or as the server's serialized string.
type GameStateResponse struct {
	GameID      string          `json:"game_id,omitempty"`
	State       json.RawMessage `json:"state" jsonschema:"required,description=Serialized board"`
	PlayersTurn bool            `json:"players_turn"`
	PlayerOrder int             `json:"player_order_num"`
	NumPlayers  int             `json:"num_players"`
	TurnCount   int             `json:"turn_count,omitempty"`
	Winner      *string         `json:"winner,omitempty"`
}

// Board parses the embedded board.
func (r GameStateResponse) Board() (*game.Board, error) {
	if len(r.State) == 0 {
		return nil, fmt.Errorf("game state has no board")
	}
	return game.ParseBoard(r.State)
}

// BoardActionsResponse carries the mutations of one move: either the
// ordered actions or, from servers that replay snapshots, the intermediate
// serialized boards.
type BoardActionsResponse struct {
	BoardActions       []game.BoardAction `json:"board_actions,omitempty"`
	IntermittentStates []string           `json:"intermittent_states,omitempty"`
	Turn               int                `json:"turn,omitempty"`
}

type GameStartedPush struct {
	PlayerID string `json:"player_id"`
}

type GameFinishedPush struct {
	Winner   string `json:"winner"`
	PlayerID string `json:"player_id,omitempty"`
}
