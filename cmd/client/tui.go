package main

import (
	"fmt"
	"sync"

	"github.com/nsf/termbox-go"

	"github.com/chainreaction/client/internal/events"
	"github.com/chainreaction/client/internal/game"
	"github.com/chainreaction/client/internal/logger"
)

var playerColors = []termbox.Attribute{
	termbox.ColorRed,
	termbox.ColorBlue,
	termbox.ColorGreen,
	termbox.ColorYellow,
	termbox.ColorMagenta,
	termbox.ColorCyan,
}

// terminal draws the board with termbox. Arrow keys move the cursor, space
// places, enter confirms, esc cancels, h hints and q quits.
type terminal struct {
	c   client
	log *logger.Logger

	row, col int
	message  string

	closeOnce sync.Once
}

func newTerminal(c client, log *logger.Logger) *terminal {
	return &terminal{c: c, log: log}
}

func (t *terminal) Run() error {
	if err := termbox.Init(); err != nil {
		return fmt.Errorf("init terminal: %w", err)
	}
	defer t.Close()

	// Redraw whenever the session reports something.
	wake := func(events.Event, game.Snapshot) { termbox.Interrupt() }
	for _, name := range []events.Name{
		events.BoardChanged, events.Connected, events.Disconnect, events.DisconnectGiveUp,
		events.Success, events.Error, events.GameStarted, events.GameFinished,
	} {
		defer t.c.Subscribe(name, wake)()
	}

	t.draw()
	for {
		ev := termbox.PollEvent()
		switch ev.Type {
		case termbox.EventError:
			return ev.Err
		case termbox.EventKey:
			if t.handleKey(ev) {
				return nil
			}
		}
		t.draw()
	}
}

func (t *terminal) Close() error {
	t.closeOnce.Do(func() {
		if termbox.IsInit {
			termbox.Close()
		}
	})
	return nil
}

func (t *terminal) handleKey(ev termbox.Event) bool {
	snap := t.c.Snapshot()
	rows, cols := 0, 0
	if snap.Board != nil {
		rows, cols = snap.Board.Rows(), snap.Board.Cols()
	}

	var err error
	switch {
	case ev.Key == termbox.KeyCtrlC || ev.Ch == 'q':
		return true
	case ev.Key == termbox.KeyArrowUp && t.row > 0:
		t.row--
	case ev.Key == termbox.KeyArrowDown && t.row < rows-1:
		t.row++
	case ev.Key == termbox.KeyArrowLeft && t.col > 0:
		t.col--
	case ev.Key == termbox.KeyArrowRight && t.col < cols-1:
		t.col++
	case ev.Key == termbox.KeySpace:
		err = t.c.Place(t.row, t.col)
	case ev.Key == termbox.KeyEnter:
		err = t.c.Confirm()
	case ev.Key == termbox.KeyEsc:
		t.c.Cancel()
	case ev.Ch == 'r':
		err = t.c.Reconnect()
	case ev.Ch == 'h':
		var pos game.Position
		if pos, err = suggest(snap); err == nil {
			t.row, t.col = pos.Row, pos.Col
		}
	}

	t.message = ""
	if err != nil {
		t.message = err.Error()
		t.log.Debug("Key rejected", map[string]interface{}{"error": err.Error()})
	}
	return false
}

func (t *terminal) draw() {
	_ = termbox.Clear(termbox.ColorDefault, termbox.ColorDefault)
	snap := t.c.Snapshot()
	info := t.c.Info()

	line := 0
	put := func(s string, fg termbox.Attribute) {
		for i, r := range s {
			termbox.SetCell(i, line, r, fg, termbox.ColorDefault)
		}
		line++
	}

	put(fmt.Sprintf("%s  phase=%s  turn=%d", info.Status, snap.Phase, snap.Session.TurnNumber), termbox.ColorDefault)
	if snap.Board != nil {
		for row := 0; row < snap.Board.Rows(); row++ {
			for col := 0; col < snap.Board.Cols(); col++ {
				cell := snap.Board.Cell(row, col)
				text := cellText(cell)
				fg := termbox.ColorDefault
				if !cell.Empty() {
					fg = playerColors[int(cell.Color)%len(playerColors)] | termbox.AttrBold
				}
				bg := termbox.ColorDefault
				if row == t.row && col == t.col {
					bg = termbox.ColorWhite
				}
				for i, r := range fmt.Sprintf("%3s", text) {
					termbox.SetCell(col*3+i, line, r, fg, bg)
				}
			}
			line++
		}
	}
	switch {
	case snap.Phase == game.PhaseTerminal.String():
		put("game finished: "+winnerText(snap), termbox.AttrBold)
	case snap.Session.IsPlayersTurn:
		put("your turn", termbox.ColorGreen)
	}
	if info.LastError != "" {
		put(info.LastError, termbox.ColorRed)
	}
	if t.message != "" {
		put(t.message, termbox.ColorYellow)
	}
	put("arrows move  space place  enter confirm  esc cancel  h hint  r reconnect  q quit", termbox.ColorDefault)
	_ = termbox.Flush()
}
