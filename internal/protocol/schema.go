package protocol

import (
	"github.com/invopop/jsonschema"
)

// Schemas reflects the frame and payload types into JSON schemas keyed by
// frame or action name.
func Schemas() map[string]*jsonschema.Schema {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		DoNotReference:             true,
	}

	types := map[string]interface{}{
		"outbound":                     &Outbound{},
		"inbound":                      &Inbound{},
		string(ActionCreateGame):       &CreateGamePayload{},
		string(ActionJoinGame):         &JoinGamePayload{},
		string(ActionStartGame):        &StartGamePayload{},
		string(ActionGetGameState):     &GameStatePayload{},
		string(ActionIncrementCell):    &IncrementCellPayload{},
		string(ActionGetPlayerID):      &GetPlayerIDPayload{},
		string(ActionNextStory):        &NextStoryPayload{},
		string(ActionSubmitStoryPiece): &SubmitStoryPiecePayload{},
		string(ActionUpdateStoryTitle): &UpdateStoryTitlePayload{},
		string(ActionGetStoryHistory):  &PlayerPayload{},
		string(ActionGetGameHistory):   &PlayerPayload{},
		string(ActionRemovePlayer):     &RemovePlayerPayload{},
		"game_state_response":          &GameStateResponse{},
		"board_actions_response":       &BoardActionsResponse{},
	}

	out := make(map[string]*jsonschema.Schema, len(types))
	for name, v := range types {
		s := reflector.Reflect(v)
		s.Title = name
		out[name] = s
	}
	return out
}
