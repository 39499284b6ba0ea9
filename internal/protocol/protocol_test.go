package protocol

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chainreaction/client/internal/game"
)

func TestEncodeOutbound(t *testing.T) {
	data, err := Encode(ActionIncrementCell, IncrementCellPayload{GameID: "g", PlayerID: "p", Row: 2, Col: 3})
	require.NoError(t, err)
	assert.JSONEq(t, `{"action":"increment_cell","payload":{"game_id":"g","player_id":"p","row":2,"col":3}}`, string(data))

	data, err = Encode(ActionGetGameHistory, nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"action":"get_game_history","payload":{}}`, string(data))
}

func TestDecodeMalformed(t *testing.T) {
	cases := map[string]string{
		"not json":       `{"status":`,
		"missing status": `{"data":{}}`,
		"array":          `[1,2,3]`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Decode([]byte(raw))
			var malformed *MalformedFrameError
			require.True(t, errors.As(err, &malformed), "got %v", err)
			assert.Equal(t, raw, malformed.Raw)
		})
	}
}

func TestDecodeErrorFrame(t *testing.T) {
	in, err := Decode([]byte(`{"status":"error","code":409,"message":"Not your turn","error":"NotPlayersTurnError","response_type":"error"}`))
	require.NoError(t, err)

	assert.Equal(t, StatusError, in.Status)
	serr := in.AsServerError()
	assert.Equal(t, 409, serr.Code)
	assert.Equal(t, "server error 409: Not your turn", serr.Error())
}

func TestDecodeGameStateResponse(t *testing.T) {
	raw := `{"status":"success","data":{"response_type":"get_game_state","state":"[[{\"count\":1,\"color\":0,\"max_count\":1},{\"count\":0,\"color\":null,\"max_count\":1}]]","players_turn":true,"player_order_num":1,"num_players":2}}`

	in, err := Decode([]byte(raw))
	require.NoError(t, err)
	kind, err := in.ResponseKind()
	require.NoError(t, err)
	assert.Equal(t, ResponseGetGameState, kind)

	var resp GameStateResponse
	require.NoError(t, in.DecodeData(&resp))
	assert.True(t, resp.PlayersTurn)
	assert.Equal(t, 1, resp.PlayerOrder)

	b, err := resp.Board()
	require.NoError(t, err)
	assert.Equal(t, 2, b.Cols())
	assert.Equal(t, game.Cell{Count: 1, Color: 0, MaxCount: 1}, b.Cell(0, 0))
	assert.Equal(t, game.NoColor, b.Cell(0, 1).Color)
}

func TestDecodeBoardActions(t *testing.T) {
	raw := `{"status":"new_game_state","data":{"turn":4,"board_actions":[{"row":0,"col":0,"action":"increment","color":1},{"row":0,"col":0,"action":"exploded","color":1}]}}`

	in, err := Decode([]byte(raw))
	require.NoError(t, err)

	var resp BoardActionsResponse
	require.NoError(t, in.DecodeData(&resp))
	assert.Equal(t, 4, resp.Turn)
	assert.Equal(t, []game.BoardAction{
		{Row: 0, Col: 0, Kind: game.Increment, Color: 1},
		{Row: 0, Col: 0, Kind: game.Exploded, Color: 1},
	}, resp.BoardActions)
}

func TestStatusKnown(t *testing.T) {
	assert.True(t, StatusGameFinished.Known())
	assert.True(t, StatusNewGameState.Known())
	assert.False(t, Status("lobby_update").Known())
}
