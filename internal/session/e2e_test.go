package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chainreaction/client/internal/events"
	"github.com/chainreaction/client/internal/game"
	"github.com/chainreaction/client/internal/logger"
	"github.com/chainreaction/client/internal/loop"
	"github.com/chainreaction/client/internal/ws"
)

func TestPlayAgainstServer(t *testing.T) {
	fs := newFakeServer(t)

	l := loop.New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go l.Run(ctx)

	s := New(l, Options{
		Endpoint:  fs.url(),
		PlayerID:  "p-1",
		Policy:    ws.Policy{Base: 10 * time.Millisecond, Cap: 50 * time.Millisecond, MaxAttempts: 5},
		StepDelay: time.Millisecond,
		Logger:    logger.NewNop(),
	})
	defer s.Close()

	connected := make(chan struct{}, 4)
	s.Subscribe(events.Connected, func(events.Event, game.Snapshot) {
		select {
		case connected <- struct{}{}:
		default:
		}
	})

	require.NoError(t, s.Start())
	select {
	case <-connected:
	case <-time.After(5 * time.Second):
		t.Fatal("never connected")
	}

	require.NoError(t, s.CreateGame(6, 9))
	require.Eventually(t, func() bool { return s.Snapshot().Session.GameID == "g-1" }, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, s.StartGame())
	require.Eventually(t, func() bool { return s.Snapshot().Phase == "ready" }, 5*time.Second, 10*time.Millisecond)

	// A corner holds one unit, so the second placement there explodes.
	for turn := 1; turn <= 2; turn++ {
		require.NoError(t, s.Place(0, 0))
		require.NoError(t, s.Confirm())
		want := turn
		require.Eventually(t, func() bool {
			snap := s.Snapshot()
			return snap.Phase == "ready" && snap.Session.TurnNumber == want
		}, 5*time.Second, 10*time.Millisecond)
	}

	board := s.Snapshot().Board
	assert.True(t, board.Cell(0, 0).Empty())
	assert.Equal(t, game.Cell{Count: 1, Color: 0, MaxCount: 2}, board.Cell(0, 1))
	assert.Equal(t, game.Cell{Count: 1, Color: 0, MaxCount: 2}, board.Cell(1, 0))

	// The server drops us; the session reconnects and resyncs.
	fs.drop()
	select {
	case <-connected:
	case <-time.After(5 * time.Second):
		t.Fatal("never reconnected")
	}
	require.Eventually(t, func() bool { return s.Snapshot().Phase == "ready" }, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, 2, fs.dialCount())
	assert.Equal(t, 2, s.Snapshot().Session.TurnNumber)

	fs.broadcast(map[string]interface{}{"status": "game_finished", "data": map[string]interface{}{"winner": "p-1"}})
	require.Eventually(t, func() bool { return s.Snapshot().Phase == "terminal" }, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, "p-1", *s.Snapshot().Session.Winner)
}
