package session

import (
	"errors"

	"github.com/chainreaction/client/internal/protocol"
)

// ErrNoGame is returned by game actions before a game was created or joined.
var ErrNoGame = errors.New("no active game")

// send runs one outbound action on the loop.
func (s *Session) send(action protocol.Action, build func() (interface{}, error)) error {
	var err error
	s.run.Call(func() {
		var payload interface{}
		if payload, err = build(); err != nil {
			return
		}
		err = s.conn.Send(action, payload)
	})
	return err
}

func (s *Session) gameID() (string, error) {
	id := s.model.Session().GameID
	if id == "" {
		return "", ErrNoGame
	}
	return id, nil
}

// CreateGame asks the server for a new width x height game.
func (s *Session) CreateGame(width, height int) error {
	return s.send(protocol.ActionCreateGame, func() (interface{}, error) {
		return protocol.CreateGamePayload{PlayerID: s.playerID, BoardWidth: width, BoardHeight: height}, nil
	})
}

// JoinGame joins by the short code shared by the creator.
func (s *Session) JoinGame(code string) error {
	return s.send(protocol.ActionJoinGame, func() (interface{}, error) {
		return protocol.JoinGamePayload{GameCode: code, PlayerID: s.playerID}, nil
	})
}

func (s *Session) StartGame() error {
	return s.send(protocol.ActionStartGame, func() (interface{}, error) {
		id, err := s.gameID()
		return protocol.StartGamePayload{GameID: id}, err
	})
}

// RequestState asks for an authoritative state of the active game.
func (s *Session) RequestState() error {
	var err error
	s.run.Call(func() { err = s.requestState() })
	return err
}

func (s *Session) GetPlayerID(name, email string) error {
	return s.send(protocol.ActionGetPlayerID, func() (interface{}, error) {
		return protocol.GetPlayerIDPayload{Name: name, Email: email}, nil
	})
}

func (s *Session) NextStory() error {
	return s.send(protocol.ActionNextStory, func() (interface{}, error) {
		id, err := s.gameID()
		return protocol.NextStoryPayload{GameID: id, PlayerID: s.playerID}, err
	})
}

func (s *Session) SubmitStoryPiece(storyID, piece string) error {
	return s.send(protocol.ActionSubmitStoryPiece, func() (interface{}, error) {
		id, err := s.gameID()
		return protocol.SubmitStoryPiecePayload{GameID: id, PlayerID: s.playerID, StoryID: storyID, StoryPiece: piece}, err
	})
}

func (s *Session) UpdateStoryTitle(storyID, title string) error {
	return s.send(protocol.ActionUpdateStoryTitle, func() (interface{}, error) {
		id, err := s.gameID()
		return protocol.UpdateStoryTitlePayload{GameID: id, PlayerID: s.playerID, StoryID: storyID, NewTitle: title}, err
	})
}

func (s *Session) GetStoryHistory() error {
	return s.send(protocol.ActionGetStoryHistory, func() (interface{}, error) {
		return protocol.PlayerPayload{PlayerID: s.playerID}, nil
	})
}

func (s *Session) GetGameHistory() error {
	return s.send(protocol.ActionGetGameHistory, func() (interface{}, error) {
		return protocol.PlayerPayload{PlayerID: s.playerID}, nil
	})
}

// RemovePlayer removes playerID from the active game.
func (s *Session) RemovePlayer(playerID string) error {
	return s.send(protocol.ActionRemovePlayer, func() (interface{}, error) {
		id, err := s.gameID()
		return protocol.RemovePlayerPayload{GameID: id, PlayerID: playerID}, err
	})
}
