package utils

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chainreaction/client/internal/logger"
)

func TestCleanupRunsInReverseOrder(t *testing.T) {
	rm := NewResourceManager(logger.NewNop())
	var order []string
	for _, name := range []string{"loop", "session", "server"} {
		name := name
		rm.Add(name, func() error {
			order = append(order, name)
			return nil
		})
	}

	require.NoError(t, rm.Cleanup())
	assert.Equal(t, []string{"server", "session", "loop"}, order)

	require.NoError(t, rm.Cleanup())
	assert.Len(t, order, 3, "cleanups run once")
}

func TestCleanupJoinsErrors(t *testing.T) {
	rm := NewResourceManager(logger.NewNop())
	boom := errors.New("boom")
	ran := false
	rm.Add("first", func() error { ran = true; return nil })
	rm.Add("broken", func() error { return boom })

	err := rm.Cleanup()
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "broken")
	assert.True(t, ran, "a failure does not stop later cleanups")
}

func TestWaitForShutdownOnContext(t *testing.T) {
	rm := NewResourceManager(logger.NewNop())
	closed := false
	rm.Add("res", func() error { closed = true; return nil })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, rm.WaitForShutdown(ctx))
	assert.True(t, closed)
}
