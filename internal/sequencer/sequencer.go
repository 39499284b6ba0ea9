// Package sequencer replays server-reported board mutations one at a time
// and ends every server response with an authoritative state refresh.
package sequencer

import (
	"fmt"
	"time"

	"github.com/chainreaction/client/internal/game"
	"github.com/chainreaction/client/internal/logger"
	"github.com/chainreaction/client/internal/loop"
)

// Batch is the ordered mutations of one server response. Turn is the turn
// the mutations produce; zero means unknown.
type Batch struct {
	Turn    int
	Actions []game.BoardAction
}

type itemKind int

const (
	kindActions itemKind = iota
	kindSnapshots
	kindBarrier
)

type item struct {
	kind      itemKind
	turn      int
	actions   []game.BoardAction
	snapshots []*game.Board
	barrier   func()
}

func (it *item) steps() int {
	if it.kind == kindSnapshots {
		return len(it.snapshots)
	}
	return len(it.actions)
}

// Options configures a Sequencer.
type Options struct {
	// StepDelay separates replayed actions. Zero replays without waiting.
	StepDelay time.Duration
	// SnapshotInterval separates replayed full boards.
	SnapshotInterval time.Duration
	// Refresh requests an authoritative get_game_state.
	Refresh func() error
	// OnStep runs after every visible change.
	OnStep func()
	Logger *logger.Logger
}

// Sequencer owns the replay queue. It must only be used from the loop.
type Sequencer struct {
	sched loop.Scheduler
	model *game.Model
	opts  Options
	log   *logger.Logger

	queue []*item
	cur   *item
	idx   int
	timer *loop.Timer

	// refreshing is set between issuing a refresh and the state arriving.
	refreshing bool
}

func New(sched loop.Scheduler, model *game.Model, opts Options) *Sequencer {
	if opts.Logger == nil {
		opts.Logger = logger.Default()
	}
	if opts.Refresh == nil {
		opts.Refresh = func() error { return nil }
	}
	if opts.OnStep == nil {
		opts.OnStep = func() {}
	}
	return &Sequencer{
		sched: sched,
		model: model,
		opts:  opts,
		log:   opts.Logger.With(map[string]interface{}{"component": "sequencer"}),
	}
}

// Enqueue appends the mutations of one server response.
func (s *Sequencer) Enqueue(b Batch) {
	if len(b.Actions) == 0 {
		return
	}
	actions := append([]game.BoardAction(nil), b.Actions...)
	s.queue = append(s.queue, &item{kind: kindActions, turn: b.Turn, actions: actions})
	s.pump()
}

// EnqueueSnapshots appends a response delivered as serialized intermediate
// boards. Every board must parse or none is queued.
func (s *Sequencer) EnqueueSnapshots(turn int, states []string) error {
	boards := make([]*game.Board, 0, len(states))
	for i, raw := range states {
		b, err := game.ParseBoard([]byte(raw))
		if err != nil {
			return fmt.Errorf("intermediate state %d: %w", i, err)
		}
		boards = append(boards, b)
	}
	if len(boards) == 0 {
		return nil
	}
	s.queue = append(s.queue, &item{kind: kindSnapshots, turn: turn, snapshots: boards})
	s.pump()
	return nil
}

// Then runs fn once everything queued before it has been replayed and
// refreshed.
func (s *Sequencer) Then(fn func()) {
	s.queue = append(s.queue, &item{kind: kindBarrier, barrier: fn})
	s.pump()
}

// Resume continues after an authoritative state has been applied.
func (s *Sequencer) Resume() {
	s.refreshing = false
	s.pump()
}

// Reset drops queued and in-progress replay.
func (s *Sequencer) Reset() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.queue = nil
	s.cur = nil
	s.idx = 0
	s.refreshing = false
}

// Interrupt abandons the replay in progress without touching the queue.
// Used when an authoritative state overtakes the animation.
func (s *Sequencer) Interrupt() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.cur = nil
	s.idx = 0
}

// Busy reports whether a response is replaying or waiting for its refresh.
func (s *Sequencer) Busy() bool {
	return s.cur != nil || s.refreshing
}

// Pending is the number of queued items not yet started.
func (s *Sequencer) Pending() int {
	return len(s.queue)
}

func (s *Sequencer) pump() {
	for s.cur == nil && len(s.queue) > 0 {
		head := s.queue[0]

		if head.kind == kindBarrier {
			if s.refreshing {
				return
			}
			s.queue = s.queue[1:]
			head.barrier()
			continue
		}

		switch s.model.Phase() {
		case game.PhaseTerminal:
			s.log.Debug("[SEQ] dropping replay after game end")
			s.queue = s.queue[1:]
			continue
		case game.PhaseReady:
		default:
			return
		}

		if head.turn > 0 && head.turn <= s.model.Session().TurnNumber {
			s.log.Debug("[SEQ] dropping replay already reflected in state", map[string]interface{}{
				"turn": head.turn, "current": s.model.Session().TurnNumber,
			})
			s.queue = s.queue[1:]
			continue
		}

		if err := s.model.BeginAnimation(); err != nil {
			s.log.Warn("[SEQ] cannot start replay", map[string]interface{}{"error": err.Error()})
			return
		}
		s.queue = s.queue[1:]
		s.cur = head
		s.idx = 0
		s.step()
	}
}

// step applies the current item's next mutation and schedules the one
// after it. Zero delays run inline.
func (s *Sequencer) step() {
	for s.cur != nil {
		if s.idx >= s.cur.steps() {
			s.finish()
			return
		}

		var err error
		delay := s.opts.StepDelay
		if s.cur.kind == kindSnapshots {
			err = s.model.ReplaceBoard(s.cur.snapshots[s.idx])
			delay = s.opts.SnapshotInterval
		} else {
			err = s.model.ApplyAction(s.cur.actions[s.idx])
		}
		s.idx++
		if err != nil {
			s.log.Warn("[SEQ] replay step failed, refreshing", map[string]interface{}{"error": err.Error()})
			s.finish()
			return
		}
		s.opts.OnStep()

		if delay > 0 {
			s.timer = s.sched.After(delay, func() {
				s.timer = nil
				s.step()
			})
			return
		}
	}
}

// finish ends one response with the authoritative refresh.
func (s *Sequencer) finish() {
	s.cur = nil
	s.idx = 0
	s.model.AwaitState()
	if s.model.Phase() != game.PhaseTerminal {
		s.refreshing = true
		if err := s.opts.Refresh(); err != nil {
			s.log.Warn("[SEQ] refresh failed", map[string]interface{}{"error": err.Error()})
		}
	}
	s.pump()
}
