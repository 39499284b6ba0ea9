package session

import (
	"encoding/json"
	"errors"

	"github.com/chainreaction/client/internal/config"
	"github.com/chainreaction/client/internal/events"
	"github.com/chainreaction/client/internal/game"
	"github.com/chainreaction/client/internal/protocol"
	"github.com/chainreaction/client/internal/sequencer"
)

// maxResyncs bounds state requests sent in reply to rejections before the
// next authoritative state.
const maxResyncs = 3

func (s *Session) registerHandlers() {
	s.bus.On(events.Connected, s.onConnected)
	s.bus.On(events.Disconnect, s.onDisconnect)
	s.bus.On(events.DisconnectGiveUp, s.onGiveUp)
	s.bus.On(events.Success, s.onSuccess)
	s.bus.On(events.Error, s.onServerError)
	s.bus.On(events.GameStarted, s.onGameStarted)
	s.bus.On(events.GameFinished, s.onGameFinished)
	s.bus.On(events.NewGameState, s.onNewGameState)
	s.bus.On(events.StoryReady, func(events.Event) {
		s.log.Debug("[SESSION] story ready")
	})
}

// onConnected resyncs an active game: anything replayed or pushed while we
// were away is superseded by a fresh authoritative state.
func (s *Session) onConnected(events.Event) {
	s.lastErr = nil
	s.rec.Record("connected", s.model.Session().GameID, nil)
	if s.model.Session().GameID == "" || s.model.Phase() == game.PhaseTerminal {
		return
	}
	s.seq.Reset()
	s.model.AwaitState()
	if err := s.requestState(); err != nil {
		s.log.Warn("[SESSION] resync failed", map[string]interface{}{"error": err.Error()})
	}
}

func (s *Session) onDisconnect(ev events.Event) {
	if ev.Err != nil {
		s.lastErr = ev.Err
	}
	s.rec.Record("disconnect", s.model.Session().GameID, map[string]interface{}{"error": errString(ev.Err)})
}

func (s *Session) onGiveUp(ev events.Event) {
	s.lastErr = ev.Err
	s.log.Error("[SESSION] connection lost, rejoin required", map[string]interface{}{"error": errString(ev.Err)})
	s.rec.Record("disconnect_give_up", s.model.Session().GameID, map[string]interface{}{"error": errString(ev.Err)})
}

func (s *Session) onServerError(ev events.Event) {
	var serr *protocol.ServerError
	if errors.As(ev.Err, &serr) {
		s.lastErr = serr
		s.log.Warn("[SESSION] server rejected request", map[string]interface{}{
			"code": serr.Code, "message": serr.Message,
		})
		s.rec.Record("server_error", s.model.Session().GameID, map[string]interface{}{
			"code": serr.Code, "message": serr.Message,
		})
	}
	s.recoverFromRejection()
}

// recoverFromRejection undoes a refused move and re-requests state when a
// refresh is outstanding, so a rejection never leaves the board stuck.
func (s *Session) recoverFromRejection() {
	rejectedMove := s.model.RejectSubmission()
	if rejectedMove {
		s.ownPending = false
		s.boardChanged()
	}
	waiting := s.seq.Busy() && s.model.Phase() == game.PhaseAwaitingState
	if !rejectedMove && !waiting {
		return
	}
	if s.resyncs >= maxResyncs {
		s.log.Error("[SESSION] server keeps rejecting state requests, waiting for reconnect", map[string]interface{}{
			"attempts": s.resyncs,
		})
		return
	}
	s.resyncs++
	if err := s.requestState(); err != nil {
		s.log.Warn("[SESSION] resync failed", map[string]interface{}{"error": err.Error()})
	}
}

func (s *Session) onGameStarted(events.Event) {
	s.rec.Record("game_started", s.model.Session().GameID, nil)
	if err := s.requestState(); err != nil {
		s.log.Warn("[SESSION] cannot load started game", map[string]interface{}{"error": err.Error()})
	}
}

// onGameFinished waits for queued replay so the final animation plays out
// before the game locks.
func (s *Session) onGameFinished(ev events.Event) {
	var push protocol.GameFinishedPush
	if err := ev.Frame.DecodeData(&push); err != nil {
		s.log.Warn("[SESSION] bad game_finished frame", map[string]interface{}{"error": err.Error()})
		return
	}
	s.seq.Then(func() {
		if err := s.model.Finish(push.Winner); err != nil {
			return
		}
		s.log.Info("[SESSION] game finished", map[string]interface{}{"winner": push.Winner})
		s.rec.Record("game_finished", s.model.Session().GameID, map[string]interface{}{"winner": push.Winner})
		s.boardChanged()
	})
}

func (s *Session) onNewGameState(ev events.Event) {
	var resp protocol.BoardActionsResponse
	if err := ev.Frame.DecodeData(&resp); err != nil {
		s.log.Warn("[SESSION] bad new_game_state frame", map[string]interface{}{"error": err.Error()})
		return
	}
	s.enqueue(resp)
}

func (s *Session) enqueue(resp protocol.BoardActionsResponse) {
	if s.duplicateOwnBatch(resp) {
		s.log.Debug("[SESSION] dropping second copy of own move")
		return
	}
	useSnapshots := len(resp.IntermittentStates) > 0 &&
		(len(resp.BoardActions) == 0 || s.opts.ReplayMode == config.ReplaySnapshot)
	if useSnapshots {
		if err := s.seq.EnqueueSnapshots(resp.Turn, resp.IntermittentStates); err != nil {
			s.log.Warn("[SESSION] bad intermediate states, refreshing", map[string]interface{}{"error": err.Error()})
			s.requestState()
		}
		return
	}
	s.seq.Enqueue(sequencer.Batch{Turn: resp.Turn, Actions: resp.BoardActions})
}

// duplicateOwnBatch reports whether resp repeats the batch of the player's
// own move. The mover gets the mutations both in the increment_cell reply
// and in the new_game_state broadcast; batches with a turn are deduplicated
// by the sequencer instead.
func (s *Session) duplicateOwnBatch(resp protocol.BoardActionsResponse) bool {
	if resp.Turn > 0 {
		s.ownPending, s.ownBatch = false, ""
		return false
	}
	key, err := json.Marshal(struct {
		A []game.BoardAction `json:"a"`
		S []string           `json:"s"`
	}{resp.BoardActions, resp.IntermittentStates})
	if err != nil {
		return false
	}

	switch {
	case s.ownBatch != "" && s.ownBatch == string(key):
		s.ownBatch = ""
		return true
	case s.ownPending:
		s.ownPending = false
		s.ownBatch = string(key)
	default:
		s.ownBatch = ""
	}
	return false
}

func (s *Session) onSuccess(ev events.Event) {
	kind, err := ev.Frame.ResponseKind()
	if err != nil {
		s.log.Warn("[SESSION] success frame without response type", map[string]interface{}{"error": err.Error()})
		return
	}

	switch kind {
	case protocol.ResponseGetGameState:
		s.onGameState(ev.Frame)

	case protocol.ResponseIncrementCell:
		var resp protocol.BoardActionsResponse
		if err := ev.Frame.DecodeData(&resp); err != nil {
			s.log.Warn("[SESSION] bad increment_cell response", map[string]interface{}{"error": err.Error()})
			return
		}
		s.enqueue(resp)

	case protocol.ResponseCreateGame:
		var resp protocol.CreateGameResponse
		if err := ev.Frame.DecodeData(&resp); err != nil {
			s.log.Warn("[SESSION] bad create_game response", map[string]interface{}{"error": err.Error()})
			return
		}
		s.model.SetIdentity(resp.GameID, resp.GameCode, s.playerID)
		s.log.Info("[SESSION] game created", map[string]interface{}{"game_id": resp.GameID, "code": resp.GameCode})

	case protocol.ResponseJoinGame:
		var resp protocol.JoinGameResponse
		if err := ev.Frame.DecodeData(&resp); err != nil {
			s.log.Warn("[SESSION] bad join_game response", map[string]interface{}{"error": err.Error()})
			return
		}
		s.model.SetIdentity(resp.GameID, resp.GameCode, s.playerID)
		s.log.Info("[SESSION] joined game", map[string]interface{}{"game_id": resp.GameID, "already_joined": resp.AlreadyJoined})
		if resp.AlreadyJoined {
			s.requestState()
		}

	case protocol.ResponseGetPlayerID:
		var resp protocol.PlayerIDResponse
		if err := ev.Frame.DecodeData(&resp); err == nil && resp.PlayerID != "" && s.playerID == "" {
			s.playerID = resp.PlayerID
		}

	default:
		s.log.Debug("[SESSION] unhandled response", map[string]interface{}{"response_type": kind})
	}
}

// onGameState applies an authoritative push. It wins over any animation or
// tentative move in progress.
func (s *Session) onGameState(frame protocol.Inbound) {
	var resp protocol.GameStateResponse
	if err := frame.DecodeData(&resp); err != nil {
		s.log.Warn("[SESSION] bad get_game_state response", map[string]interface{}{"error": err.Error()})
		return
	}
	board, err := resp.Board()
	if err != nil {
		s.log.Warn("[SESSION] bad board in game state", map[string]interface{}{"error": err.Error()})
		return
	}

	prev := s.model.Session()
	next := game.GameSession{
		GameID:        prev.GameID,
		GameCode:      prev.GameCode,
		PlayerID:      s.playerID,
		PlayerOrder:   resp.PlayerOrder,
		TurnNumber:    resp.TurnCount,
		NumPlayers:    resp.NumPlayers,
		IsPlayersTurn: resp.PlayersTurn,
		Winner:        resp.Winner,
	}
	if resp.GameID != "" {
		next.GameID = resp.GameID
	}

	if s.model.Phase() == game.PhaseAnimating {
		s.seq.Interrupt()
	}
	if err := s.model.ApplyAuthoritative(board, next); err != nil {
		s.log.Debug("[SESSION] state not applied", map[string]interface{}{"error": err.Error()})
		return
	}
	s.resyncs = 0
	s.boardChanged()
	s.seq.Resume()
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
