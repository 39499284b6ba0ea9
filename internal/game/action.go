package game

import (
	"encoding/json"
	"fmt"
)

// ActionKind is the type of one atomic board mutation.
type ActionKind string

const (
	Increment ActionKind = "increment"
	Exploded  ActionKind = "exploded"
)

// BoardAction is one atomic mutation reported by the server. A single move
// produces one Increment followed by any number of Exploded actions as the
// chain reaction cascades.
type BoardAction struct {
	Row   int        `json:"row"`
	Col   int        `json:"col"`
	Kind  ActionKind `json:"action"`
	Color Color      `json:"color"`
}

func (a *BoardAction) UnmarshalJSON(data []byte) error {
	type raw BoardAction
	var in raw
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	switch in.Kind {
	case Increment, Exploded:
	default:
		return fmt.Errorf("unknown board action %q", in.Kind)
	}
	*a = BoardAction(in)
	return nil
}

func (a BoardAction) String() string {
	return fmt.Sprintf("%s(%d,%d)#%d", a.Kind, a.Row, a.Col, a.Color)
}
