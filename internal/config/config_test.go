package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "ws://localhost:8000/ws/game", cfg.Server.URL)
	assert.Equal(t, time.Second, cfg.Reconnect.Base)
	assert.Equal(t, 30*time.Second, cfg.Reconnect.Cap)
	assert.Equal(t, 10, cfg.Reconnect.MaxAttempts)
	assert.Equal(t, ReplayDelta, cfg.Replay.Mode)
	assert.Equal(t, 500*time.Millisecond, cfg.Replay.SnapshotInterval)
	assert.Empty(t, cfg.Kafka.Brokers)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("SERVER_URL", "wss://game.example.com/ws/game")
	t.Setenv("PLAYER_ID", "p-1")
	t.Setenv("RECONNECT_MAX_ATTEMPTS", "3")
	t.Setenv("STEP_DELAY", "0s")
	t.Setenv("REPLAY_MODE", "snapshot")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "wss://game.example.com/ws/game", cfg.Server.URL)
	assert.Equal(t, "p-1", cfg.Server.PlayerID)
	assert.Equal(t, 3, cfg.Reconnect.MaxAttempts)
	assert.Equal(t, time.Duration(0), cfg.Replay.StepDelay)
	assert.Equal(t, ReplaySnapshot, cfg.Replay.Mode)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name string
		key  string
		val  string
	}{
		{name: "http scheme", key: "SERVER_URL", val: "http://localhost:8000"},
		{name: "unknown replay mode", key: "REPLAY_MODE", val: "rewind"},
		{name: "cap below base", key: "RECONNECT_CAP", val: "10ms"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.key, tc.val)
			_, err := LoadConfig()
			require.Error(t, err)
		})
	}
}

func TestDatabaseDSNPrefersURL(t *testing.T) {
	d := DatabaseConfig{URL: "postgres://u:p@h/db", Host: "ignored"}
	assert.Equal(t, "postgres://u:p@h/db", d.DSN())

	d = DatabaseConfig{Host: "db", Port: 5433, User: "u", Password: "p", DBName: "n"}
	assert.Equal(t, "host=db port=5433 user=u password=p dbname=n sslmode=disable", d.DSN())
}
