// Package protocol defines the JSON frames exchanged with the game server.
package protocol

import (
	"encoding/json"
	"fmt"
)

// Action identifies an outbound request.
type Action string

const (
	ActionCreateGame       Action = "create_game"
	ActionJoinGame         Action = "join_game"
	ActionStartGame        Action = "start_game"
	ActionNextStory        Action = "next_story"
	ActionSubmitStoryPiece Action = "submit_story_piece"
	ActionGetPlayerID      Action = "get_player_id"
	ActionUpdateStoryTitle Action = "update_story_title"
	ActionGetStoryHistory  Action = "get_story_history"
	ActionGetGameHistory   Action = "get_game_history"
	ActionRemovePlayer     Action = "remove_player"
	ActionGetGameState     Action = "get_game_state"
	ActionIncrementCell    Action = "increment_cell"
)

// Status is the top-level discriminant of an inbound frame.
type Status string

const (
	StatusSuccess      Status = "success"
	StatusError        Status = "error"
	StatusStoryReady   Status = "story_ready"
	StatusGameStarted  Status = "game_started"
	StatusGameFinished Status = "game_finished"
	StatusNewGameState Status = "new_game_state"
)

// Known reports whether the client handles frames with this status.
func (s Status) Known() bool {
	switch s {
	case StatusSuccess, StatusError, StatusStoryReady, StatusGameStarted, StatusGameFinished, StatusNewGameState:
		return true
	}
	return false
}

// ResponseType discriminates the data of a success frame.
type ResponseType string

const (
	ResponseGetGameState  ResponseType = "get_game_state"
	ResponseIncrementCell ResponseType = "increment_cell"
	ResponseCreateGame    ResponseType = "create_game"
	ResponseJoinGame      ResponseType = "join_game"
	ResponseStartGame     ResponseType = "start_game"
	ResponseGetPlayerID   ResponseType = "get_player_id"
	ResponseError         ResponseType = "error"
)

// Outbound is a client request frame.
type Outbound struct {
	Action  Action      `json:"action" jsonschema:"required,description=Server action identifier"`
	Payload interface{} `json:"payload" jsonschema:"required,description=Action specific arguments"`
}

// Inbound is a server frame. Error frames carry their details at the top
// level next to the status.
type Inbound struct {
	Status       Status          `json:"status" jsonschema:"required,description=Frame discriminant"`
	Data         json.RawMessage `json:"data,omitempty" jsonschema:"description=Status specific payload"`
	Code         int             `json:"code,omitempty" jsonschema:"description=Error status code"`
	Message      string          `json:"message,omitempty" jsonschema:"description=Error message for display"`
	Error        string          `json:"error,omitempty" jsonschema:"description=Error detail"`
	ResponseType ResponseType    `json:"response_type,omitempty"`
}

// Encode serializes an outbound frame.
func Encode(action Action, payload interface{}) ([]byte, error) {
	if payload == nil {
		payload = struct{}{}
	}
	data, err := json.Marshal(Outbound{Action: action, Payload: payload})
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", action, err)
	}
	return data, nil
}

// Decode parses an inbound frame. Frames that are not JSON objects or lack a
// status return a *MalformedFrameError.
func Decode(raw []byte) (Inbound, error) {
	var in Inbound
	if err := json.Unmarshal(raw, &in); err != nil {
		return Inbound{}, &MalformedFrameError{Raw: truncate(raw), Err: err}
	}
	if in.Status == "" {
		return Inbound{}, &MalformedFrameError{Raw: truncate(raw), Err: fmt.Errorf("missing status")}
	}
	return in, nil
}

// ResponseKind reads data.response_type of a success frame.
func (in Inbound) ResponseKind() (ResponseType, error) {
	var head struct {
		ResponseType ResponseType `json:"response_type"`
	}
	if err := in.DecodeData(&head); err != nil {
		return "", err
	}
	return head.ResponseType, nil
}

// DecodeData unmarshals the data payload into v.
func (in Inbound) DecodeData(v interface{}) error {
	if len(in.Data) == 0 {
		return fmt.Errorf("%s frame has no data", in.Status)
	}
	if err := json.Unmarshal(in.Data, v); err != nil {
		return fmt.Errorf("decode %s data: %w", in.Status, err)
	}
	return nil
}

// AsServerError converts an error frame into an error value.
func (in Inbound) AsServerError() *ServerError {
	return &ServerError{Code: in.Code, Message: in.Message, Detail: in.Error}
}

// MalformedFrameError is a frame the client could not parse. It is logged
// and dropped.
type MalformedFrameError struct {
	Raw string
	Err error
}

func (e *MalformedFrameError) Error() string {
	return fmt.Sprintf("malformed frame %q: %v", e.Raw, e.Err)
}

func (e *MalformedFrameError) Unwrap() error { return e.Err }

// ServerError is a game-logic rejection reported by the server. It is shown
// to the user as is and never retried.
type ServerError struct {
	Code    int
	Message string
	Detail  string
}

func (e *ServerError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server error %d", e.Code)
	}
	return fmt.Sprintf("server error %d: %s", e.Code, e.Message)
}

func truncate(raw []byte) string {
	const max = 256
	if len(raw) > max {
		return string(raw[:max]) + "..."
	}
	return string(raw)
}
