// Package session is the client core: one owned object that wires the
// connection manager, event bus, game model and replay sequencer together.
// Construct one per logical client with New and tear it down with Close.
package session

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/chainreaction/client/internal/config"
	"github.com/chainreaction/client/internal/events"
	"github.com/chainreaction/client/internal/game"
	"github.com/chainreaction/client/internal/logger"
	"github.com/chainreaction/client/internal/loop"
	"github.com/chainreaction/client/internal/protocol"
	"github.com/chainreaction/client/internal/sequencer"
	"github.com/chainreaction/client/internal/ws"
)

// Recorder receives client telemetry. Implementations must not block.
type Recorder interface {
	Record(kind, gameID string, data map[string]interface{})
}

type nopRecorder struct{}

func (nopRecorder) Record(string, string, map[string]interface{}) {}

// Options configures a Session.
type Options struct {
	// SessionID names the session in logs and telemetry. A random one is
	// generated when empty.
	SessionID        string
	Endpoint         string
	PlayerID         string
	Policy           ws.Policy
	ReplayMode       config.ReplayMode
	StepDelay        time.Duration
	SnapshotInterval time.Duration
	Dialer           ws.Dialer
	Logger           *logger.Logger
	Recorder         Recorder
}

// OptionsFromConfig maps the env configuration onto session options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Endpoint: cfg.Server.URL,
		PlayerID: cfg.Server.PlayerID,
		Policy: ws.Policy{
			Base:        cfg.Reconnect.Base,
			Cap:         cfg.Reconnect.Cap,
			MaxAttempts: cfg.Reconnect.MaxAttempts,
		},
		ReplayMode:       cfg.Replay.Mode,
		StepDelay:        cfg.Replay.StepDelay,
		SnapshotInterval: cfg.Replay.SnapshotInterval,
	}
}

// Session is the realtime client. Exported methods may be called from any
// goroutine except the loop itself; they run their work on the loop.
type Session struct {
	id   string
	run  loop.Runner
	opts Options
	log  *logger.Logger
	rec  Recorder

	bus   *events.Bus
	conn  *ws.Manager
	model *game.Model
	seq   *sequencer.Sequencer

	playerID string
	lastErr  error

	// resyncs counts state requests made to recover from rejections since
	// the last authoritative state.
	resyncs int
	// ownPending is set by a confirmed move until its first batch arrives;
	// ownBatch then holds that batch so the second copy the server sends
	// the mover is dropped.
	ownPending bool
	ownBatch   string
	closed     bool
}

func New(run loop.Runner, opts Options) *Session {
	if opts.Logger == nil {
		opts.Logger = logger.Default()
	}
	if opts.Recorder == nil {
		opts.Recorder = nopRecorder{}
	}
	if opts.ReplayMode == "" {
		opts.ReplayMode = config.ReplayDelta
	}

	if opts.SessionID == "" {
		opts.SessionID = uuid.New().String()
	}

	s := &Session{
		id:       opts.SessionID,
		run:      run,
		opts:     opts,
		rec:      opts.Recorder,
		bus:      events.NewBus(),
		model:    game.NewModel(),
		playerID: opts.PlayerID,
	}
	s.log = opts.Logger.With(map[string]interface{}{"session": s.id})
	s.conn = ws.NewManager(run, s.bus, ws.Options{
		Endpoint: opts.Endpoint,
		Policy:   opts.Policy,
		Dialer:   opts.Dialer,
		Logger:   s.log,
	})
	s.seq = sequencer.New(run, s.model, sequencer.Options{
		StepDelay:        opts.StepDelay,
		SnapshotInterval: opts.SnapshotInterval,
		Refresh:          s.requestState,
		OnStep:           s.boardChanged,
		Logger:           s.log,
	})
	s.registerHandlers()
	return s
}

func (s *Session) ID() string { return s.id }

// Start connects with the configured identity.
func (s *Session) Start() error {
	var err error
	s.run.Call(func() {
		if s.closed {
			err = errors.New("session closed")
			return
		}
		err = s.conn.Connect(s.playerID)
	})
	return err
}

// Reconnect starts a fresh connection cycle, for use after a give-up.
func (s *Session) Reconnect() error {
	return s.Start()
}

// Close disconnects and drops any replay in progress. The session cannot
// be started again.
func (s *Session) Close() {
	s.run.Call(func() {
		if s.closed {
			return
		}
		s.closed = true
		s.seq.Reset()
		s.conn.Disconnect()
		s.log.Info("[SESSION] closed")
	})
}

// Snapshot returns a copy of the game state. Boards are immutable so the
// copy is safe to keep.
func (s *Session) Snapshot() game.Snapshot {
	var snap game.Snapshot
	s.run.Call(func() { snap = s.model.Snapshot() })
	return snap
}

// Status is the connection status.
func (s *Session) Status() ws.Status {
	var st ws.Status
	s.run.Call(func() { st = s.conn.Status() })
	return st
}

// Info is a point-in-time summary for status displays.
type Info struct {
	SessionID string `json:"sessionId"`
	PlayerID  string `json:"playerId"`
	Status    string `json:"status"`
	Attempts  int    `json:"attempts"`
	GaveUp    bool   `json:"gaveUp"`
	Phase     string `json:"phase"`
	Replaying bool   `json:"replaying"`
	Queued    int    `json:"queued"`
	LastError string `json:"lastError,omitempty"`
}

func (s *Session) Info() Info {
	var info Info
	s.run.Call(func() {
		info = Info{
			SessionID: s.id,
			PlayerID:  s.playerID,
			Status:    s.conn.Status().String(),
			Attempts:  s.conn.Attempts(),
			GaveUp:    s.conn.GaveUp(),
			Phase:     s.model.Phase().String(),
			Replaying: s.seq.Busy(),
			Queued:    s.seq.Pending(),
		}
		if s.lastErr != nil {
			info.LastError = s.lastErr.Error()
		}
	})
	return info
}

// Subscribe observes events of the given name. fn runs on the loop with the
// model snapshot taken right after the event was handled. It must not call
// other Session methods. The returned func removes the observer.
func (s *Session) Subscribe(name events.Name, fn func(events.Event, game.Snapshot)) func() {
	var cancel func()
	s.run.Call(func() {
		cancel = s.bus.Subscribe(name, func(ev events.Event) {
			fn(ev, s.model.Snapshot())
		})
	})
	return func() { s.run.Call(cancel) }
}

// Place shows a tentative move with this player's colour.
func (s *Session) Place(row, col int) error {
	var err error
	s.run.Call(func() {
		err = s.model.TentativePlace(row, col, s.model.Session().Color())
		if err == nil {
			s.boardChanged()
		}
	})
	return err
}

// Confirm sends the tentative move to the server.
func (s *Session) Confirm() error {
	var err error
	s.run.Call(func() {
		pending, _ := s.model.Pending()
		err = s.model.ConfirmPlacement(s)
		if err == nil {
			s.ownPending = true
			s.rec.Record("move_confirmed", s.model.Session().GameID, map[string]interface{}{
				"row": pending.Row, "col": pending.Col,
			})
		}
	})
	return err
}

// Cancel withdraws the tentative move.
func (s *Session) Cancel() {
	s.run.Call(func() {
		if _, ok := s.model.Pending(); ok {
			s.model.CancelPlacement()
			s.boardChanged()
		}
	})
}

// SubmitIncrement sends increment_cell. The model calls it on the loop.
func (s *Session) SubmitIncrement(gameID, playerID string, row, col int) error {
	return s.conn.Send(protocol.ActionIncrementCell, protocol.IncrementCellPayload{
		GameID: gameID, PlayerID: playerID, Row: row, Col: col,
	})
}

// requestState asks for an authoritative get_game_state.
func (s *Session) requestState() error {
	gs := s.model.Session()
	if gs.GameID == "" {
		return errors.New("no active game")
	}
	return s.conn.Send(protocol.ActionGetGameState, protocol.GameStatePayload{
		GameID: gs.GameID, PlayerID: s.playerID,
	})
}

func (s *Session) boardChanged() {
	s.bus.Emit(events.Event{Name: events.BoardChanged})
}
