package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemasCoverEveryAction(t *testing.T) {
	schemas := Schemas()
	for _, a := range []Action{
		ActionCreateGame, ActionJoinGame, ActionStartGame, ActionNextStory,
		ActionSubmitStoryPiece, ActionGetPlayerID, ActionUpdateStoryTitle,
		ActionGetStoryHistory, ActionGetGameHistory, ActionRemovePlayer,
		ActionGetGameState, ActionIncrementCell,
	} {
		assert.Contains(t, schemas, string(a))
	}
}

func TestIncrementCellSchema(t *testing.T) {
	data, err := json.Marshal(Schemas()[string(ActionIncrementCell)])
	require.NoError(t, err)

	var doc struct {
		Title      string                     `json:"title"`
		Required   []string                   `json:"required"`
		Properties map[string]json.RawMessage `json:"properties"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))

	assert.Equal(t, "increment_cell", doc.Title)
	assert.ElementsMatch(t, []string{"game_id", "player_id", "row", "col"}, doc.Required)
	assert.Contains(t, doc.Properties, "row")
}
