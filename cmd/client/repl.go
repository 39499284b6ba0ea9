package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/chainreaction/client/internal/advisor"
	"github.com/chainreaction/client/internal/events"
	"github.com/chainreaction/client/internal/game"
	"github.com/chainreaction/client/internal/session"
)

// client is what the command line drives. *session.Session implements it.
type client interface {
	CreateGame(width, height int) error
	JoinGame(code string) error
	StartGame() error
	RequestState() error
	Reconnect() error
	Place(row, col int) error
	Confirm() error
	Cancel()
	Snapshot() game.Snapshot
	Info() session.Info
	Subscribe(name events.Name, fn func(events.Event, game.Snapshot)) func()
}

const helpText = `commands:
  create W H      create a W x H game
  join CODE       join a game by code
  start           start the game
  place R C       show a tentative move
  confirm         send the tentative move
  cancel          withdraw the tentative move
  move R C        place and confirm
  hint            suggest a move
  board           print the board
  state           ask the server for a fresh state
  status          connection and replay status
  reconnect       reconnect after giving up
  quit            exit`

var errUsage = errors.New("bad arguments, type help")

// lockedWriter serializes output from the loop and the prompt.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Printf(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.w, format, args...)
}

func runREPL(c client, in io.Reader, w io.Writer) {
	out := &lockedWriter{w: w}
	defer watchEvents(c, out)()

	out.Printf("%s\n", helpText)
	sc := bufio.NewScanner(in)
	for {
		out.Printf("> ")
		if !sc.Scan() {
			return
		}
		quit, err := runCommand(c, sc.Text(), out)
		if err != nil {
			out.Printf("error: %v\n", err)
		}
		if quit {
			return
		}
	}
}

// watchEvents prints pushes as they arrive. The callbacks run on the loop
// and only use the snapshot they are handed.
func watchEvents(c client, out *lockedWriter) func() {
	var cancels []func()
	on := func(name events.Name, fn func(events.Event, game.Snapshot)) {
		cancels = append(cancels, c.Subscribe(name, fn))
	}

	on(events.Connected, func(events.Event, game.Snapshot) { out.Printf("\n* connected\n") })
	on(events.Disconnect, func(ev events.Event, _ game.Snapshot) { out.Printf("\n* disconnected: %v\n", ev.Err) })
	on(events.DisconnectGiveUp, func(ev events.Event, _ game.Snapshot) {
		out.Printf("\n* %v, type reconnect to try again\n", ev.Err)
	})
	on(events.Error, func(ev events.Event, _ game.Snapshot) { out.Printf("\n* %v\n", ev.Err) })
	on(events.GameStarted, func(events.Event, game.Snapshot) { out.Printf("\n* game started\n") })
	on(events.GameFinished, func(_ events.Event, snap game.Snapshot) {
		out.Printf("\n* game finished: %s\n", winnerText(snap))
	})
	on(events.Success, func(_ events.Event, snap game.Snapshot) {
		if snap.Session.GameCode != "" && snap.Board == nil {
			out.Printf("\n* game %s, code %s\n", snap.Session.GameID, snap.Session.GameCode)
		}
	})

	return func() {
		for _, cancel := range cancels {
			cancel()
		}
	}
}

func runCommand(c client, line string, out *lockedWriter) (bool, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false, nil
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	switch cmd {
	case "help", "?":
		out.Printf("%s\n", helpText)
	case "quit", "exit", "q":
		return true, nil
	case "create":
		w, h, err := twoInts(args)
		if err != nil {
			return false, err
		}
		return false, c.CreateGame(w, h)
	case "join":
		if len(args) != 1 {
			return false, errUsage
		}
		return false, c.JoinGame(args[0])
	case "start":
		return false, c.StartGame()
	case "state":
		return false, c.RequestState()
	case "reconnect":
		return false, c.Reconnect()
	case "place", "move":
		row, col, err := twoInts(args)
		if err != nil {
			return false, err
		}
		if err := c.Place(row, col); err != nil {
			return false, err
		}
		if cmd == "move" {
			if err := c.Confirm(); err != nil {
				c.Cancel()
				return false, err
			}
		}
		out.Printf("%s", renderBoard(c.Snapshot()))
	case "confirm":
		return false, c.Confirm()
	case "cancel":
		c.Cancel()
	case "board":
		out.Printf("%s", renderBoard(c.Snapshot()))
	case "status":
		info := c.Info()
		out.Printf("status=%s phase=%s attempts=%d replaying=%t queued=%d\n",
			info.Status, info.Phase, info.Attempts, info.Replaying, info.Queued)
		if info.LastError != "" {
			out.Printf("last error: %s\n", info.LastError)
		}
	case "hint":
		pos, err := suggest(c.Snapshot())
		if err != nil {
			return false, err
		}
		out.Printf("try %d %d\n", pos.Row, pos.Col)
	default:
		return false, fmt.Errorf("unknown command %q, type help", cmd)
	}
	return false, nil
}

func twoInts(args []string) (int, int, error) {
	if len(args) != 2 {
		return 0, 0, errUsage
	}
	a, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, 0, errUsage
	}
	b, err := strconv.Atoi(args[1])
	if err != nil {
		return 0, 0, errUsage
	}
	return a, b, nil
}

// suggest asks the advisor for a move against the next player in order.
func suggest(snap game.Snapshot) (game.Position, error) {
	if snap.Board == nil {
		return game.Position{}, errors.New("no board yet")
	}
	me := snap.Session.Color()
	opponent := me
	if n := snap.Session.NumPlayers; n > 1 {
		opponent = game.Color((int(me) + 1) % n)
	}
	return advisor.NewAdvisor().Suggest(snap.Board, me, opponent)
}

func winnerText(snap game.Snapshot) string {
	switch {
	case snap.Session.Winner == nil:
		return "no winner"
	case *snap.Session.Winner == snap.Session.PlayerID:
		return "you won"
	default:
		return *snap.Session.Winner + " won"
	}
}

// renderBoard draws one cell per column: "." for empty, otherwise the
// count followed by the owner's letter.
func renderBoard(snap game.Snapshot) string {
	if snap.Board == nil {
		return "(no board: " + snap.Phase + ")\n"
	}
	var sb strings.Builder
	sb.WriteString("   ")
	for col := 0; col < snap.Board.Cols(); col++ {
		fmt.Fprintf(&sb, "%3d", col)
	}
	sb.WriteByte('\n')
	for row := 0; row < snap.Board.Rows(); row++ {
		fmt.Fprintf(&sb, "%2d ", row)
		for col := 0; col < snap.Board.Cols(); col++ {
			fmt.Fprintf(&sb, "%3s", cellText(snap.Board.Cell(row, col)))
		}
		sb.WriteByte('\n')
	}
	turn := "waiting"
	if snap.Session.IsPlayersTurn {
		turn = "your turn"
	}
	fmt.Fprintf(&sb, "phase=%s turn=%d %s\n", snap.Phase, snap.Session.TurnNumber, turn)
	return sb.String()
}

func cellText(c game.Cell) string {
	if c.Empty() {
		return "."
	}
	return fmt.Sprintf("%d%c", c.Count, colorLetter(c.Color))
}

func colorLetter(c game.Color) rune {
	if c < 0 || c >= 26 {
		return '?'
	}
	return rune('A' + int(c))
}
