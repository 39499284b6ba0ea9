package game

import (
	"fmt"
)

// MoveSubmitter sends a confirmed placement upstream.
type MoveSubmitter interface {
	SubmitIncrement(gameID, playerID string, row, col int) error
}

// Model is the canonical board and session state. It merges authoritative
// server pushes with at most one local tentative placement. It is not safe
// for concurrent use; the client touches it only from its event loop.
type Model struct {
	board   *Board
	session GameSession
	pending *PendingPlacement
	phase   Phase

	// submitted is a confirmed placement still shown on the board. Replay
	// takes it back off first, since the server's actions include it.
	submitted *PendingPlacement
}

func NewModel() *Model {
	return &Model{phase: PhaseAwaitingState}
}

func (m *Model) Phase() Phase { return m.phase }

// Board returns the current board, nil before the first authoritative state.
// Boards are immutable, so the caller may keep it.
func (m *Model) Board() *Board { return m.board }

func (m *Model) Session() GameSession { return m.session }

func (m *Model) Pending() (PendingPlacement, bool) {
	if m.pending == nil {
		return PendingPlacement{}, false
	}
	return *m.pending, true
}

func (m *Model) Snapshot() Snapshot {
	s := Snapshot{
		Phase:   m.phase.String(),
		Session: m.session,
		Board:   m.board,
	}
	if m.pending != nil {
		p := *m.pending
		s.Pending = &p
	}
	return s
}

// SetIdentity records the ids learned from create/join responses before the
// first authoritative state arrives.
func (m *Model) SetIdentity(gameID, gameCode, playerID string) {
	if gameID != "" {
		m.session.GameID = gameID
	}
	if gameCode != "" {
		m.session.GameCode = gameCode
	}
	if playerID != "" {
		m.session.PlayerID = playerID
	}
}

// ApplyAuthoritative replaces board and session wholesale from a trusted
// push. It always wins over local state: any tentative placement is dropped.
func (m *Model) ApplyAuthoritative(board *Board, session GameSession) error {
	if m.phase == PhaseTerminal {
		return ErrTerminal
	}
	if board == nil {
		return fmt.Errorf("authoritative state without a board")
	}
	if m.board != nil && (m.board.Rows() != board.Rows() || m.board.Cols() != board.Cols()) && m.session.GameID == session.GameID {
		return fmt.Errorf("board size changed from %dx%d to %dx%d mid-session",
			m.board.Cols(), m.board.Rows(), board.Cols(), board.Rows())
	}

	m.board = board
	m.session = session
	m.pending = nil
	m.submitted = nil
	m.phase = PhaseReady
	if session.Winner != nil {
		m.phase = PhaseTerminal
	}
	return nil
}

// TentativePlace shows an unconfirmed move locally. A rejected move returns
// an *IllegalMoveError and leaves the model unchanged. A new placement
// replaces the previous one, so at most one is ever outstanding.
func (m *Model) TentativePlace(row, col int, color Color) error {
	switch {
	case m.session.Winner != nil || m.phase == PhaseTerminal:
		return &IllegalMoveError{Reason: ReasonGameOver}
	case m.board == nil:
		return &IllegalMoveError{Reason: ReasonNoState}
	case !m.session.IsPlayersTurn:
		return &IllegalMoveError{Reason: ReasonNotYourTurn}
	case m.phase != PhaseReady || m.submitted != nil:
		return &IllegalMoveError{Reason: ReasonBusy}
	}

	board := m.board
	if m.pending != nil {
		board = withdraw(board, *m.pending)
	}
	if err := CheckPlacement(board, row, col, color); err != nil {
		return err
	}

	prior := board.Cell(row, col)
	placed := prior
	placed.Count++
	placed.Color = color

	m.board = board.WithCell(row, col, placed)
	m.pending = &PendingPlacement{Row: row, Col: col, Prior: prior}
	return nil
}

// withdraw takes the tentative unit back off the board.
func withdraw(b *Board, p PendingPlacement) *Board {
	cell := b.Cell(p.Row, p.Col)
	cell.Count--
	if cell.Count <= 0 {
		cell.Count = 0
		cell.Color = NoColor
	}
	return b.WithCell(p.Row, p.Col, cell)
}

// ConfirmPlacement submits the pending placement upstream and clears it. The
// board keeps the tentative unit until the server's own report replaces it.
// When the send fails the placement stays so it can be confirmed again.
func (m *Model) ConfirmPlacement(s MoveSubmitter) error {
	if m.phase == PhaseTerminal {
		return &IllegalMoveError{Reason: ReasonGameOver}
	}
	if m.pending == nil {
		return &IllegalMoveError{Reason: ReasonNoPending}
	}
	if !m.session.IsPlayersTurn {
		return &IllegalMoveError{Reason: ReasonNotYourTurn}
	}

	p := *m.pending
	if err := s.SubmitIncrement(m.session.GameID, m.session.PlayerID, p.Row, p.Col); err != nil {
		return fmt.Errorf("submit placement: %w", err)
	}
	m.submitted = &p
	m.pending = nil
	return nil
}

// RejectSubmission takes back a confirmed placement the server refused and
// reports whether there was one.
func (m *Model) RejectSubmission() bool {
	if m.submitted == nil {
		return false
	}
	if m.board != nil && m.phase != PhaseTerminal {
		m.board = withdraw(m.board, *m.submitted)
	}
	m.submitted = nil
	return true
}

// CancelPlacement withdraws the pending placement, if any.
func (m *Model) CancelPlacement() {
	if m.pending == nil || m.board == nil {
		return
	}
	m.board = withdraw(m.board, *m.pending)
	m.pending = nil
}

// BeginAnimation moves a ready model into replay.
func (m *Model) BeginAnimation() error {
	switch m.phase {
	case PhaseTerminal:
		return ErrTerminal
	case PhaseReady:
		if m.submitted != nil {
			m.board = withdraw(m.board, *m.submitted)
			m.submitted = nil
		}
		m.phase = PhaseAnimating
		return nil
	default:
		return fmt.Errorf("cannot animate from phase %s", m.phase)
	}
}

// ApplyAction applies one replayed mutation.
func (m *Model) ApplyAction(a BoardAction) error {
	if m.phase == PhaseTerminal {
		return ErrTerminal
	}
	if m.phase != PhaseAnimating {
		return fmt.Errorf("cannot apply %s in phase %s", a, m.phase)
	}
	next, err := m.board.Apply(a)
	if err != nil {
		return err
	}
	m.board = next
	return nil
}

// ReplaceBoard swaps in a full replayed board.
func (m *Model) ReplaceBoard(b *Board) error {
	if m.phase == PhaseTerminal {
		return ErrTerminal
	}
	if m.phase != PhaseAnimating {
		return fmt.Errorf("cannot replace board in phase %s", m.phase)
	}
	if b == nil || b.Rows() != m.board.Rows() || b.Cols() != m.board.Cols() {
		return fmt.Errorf("replayed board does not match the session's dimensions")
	}
	m.board = b
	return nil
}

// AwaitState marks the local state as stale until the next authoritative
// push. Replay ends here; so do reconnects.
func (m *Model) AwaitState() {
	if m.phase == PhaseTerminal {
		return
	}
	m.phase = PhaseAwaitingState
}

// Finish records the winner and makes the model terminal. The winner is set
// once; later calls return ErrTerminal.
func (m *Model) Finish(winner string) error {
	if m.session.Winner != nil || m.phase == PhaseTerminal {
		return ErrTerminal
	}
	w := winner
	m.session.Winner = &w
	m.session.IsPlayersTurn = false
	m.CancelPlacement()
	m.phase = PhaseTerminal
	return nil
}
