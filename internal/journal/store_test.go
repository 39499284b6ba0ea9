package journal

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chainreaction/client/internal/analytics"
)

// openTestStore connects to JOURNAL_TEST_DSN or skips.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("JOURNAL_TEST_DSN")
	if dsn == "" {
		t.Skip("JOURNAL_TEST_DSN not set")
	}
	ctx := context.Background()
	s, err := Open(ctx, dsn)
	require.NoError(t, err)
	require.NoError(t, s.Migrate(ctx))
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStoreRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	session := uuid.New().String()

	ev := analytics.ClientEvent{
		ID:        uuid.New().String(),
		Type:      analytics.EventMoveConfirmed,
		Timestamp: time.Now().UTC().Truncate(time.Millisecond),
		SessionID: session,
		PlayerID:  "p1",
		GameID:    "g1",
		Data:      map[string]interface{}{"row": float64(2)},
	}
	require.NoError(t, s.SaveEvent(ctx, ev))
	require.NoError(t, s.SaveEvent(ctx, ev), "redelivery is ignored")

	got, err := s.RecentEvents(ctx, session, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, ev.ID, got[0].ID)
	assert.Equal(t, "g1", got[0].GameID)
	assert.Equal(t, float64(2), got[0].Data["row"])

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, stats.ByType[analytics.EventMoveConfirmed], 1)
	require.NotNil(t, stats.LastEventAt)
}

func TestStoreSaveFailed(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	before, err := s.Stats(ctx)
	require.NoError(t, err)

	require.NoError(t, s.SaveFailed(ctx, analytics.FailedEvent{
		Topic: "client-events", Partition: 0, Offset: 7, Message: "{", Error: "bad json",
	}))

	after, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, before.Failed+1, after.Failed)
}
