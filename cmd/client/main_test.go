package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chainreaction/client/internal/logger"
	"github.com/chainreaction/client/internal/utils"
)

func TestLoopOutlivesLaterCleanups(t *testing.T) {
	rm := utils.NewResourceManager(logger.NewNop())
	lp := startLoop(rm)

	closed := false
	rm.Add("session", func() error {
		lp.Call(func() { closed = true })
		return nil
	})

	// Quitting the prompt cancels the shutdown context first.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, rm.WaitForShutdown(ctx))

	assert.True(t, closed, "session cleanup ran on a live loop")
}
