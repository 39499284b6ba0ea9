package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONLines(t *testing.T) {
	var buf bytes.Buffer
	l := NewLoggerTo(&buf).With(map[string]interface{}{"session": "s1"})

	l.Info("[WS] connected", map[string]interface{}{"attempt": 2})
	l.Debug("hidden")
	require.NoError(t, l.Sync())

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1, "debug is off by default")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "[WS] connected", entry["message"])
	assert.Equal(t, "s1", entry["session"])
	assert.Equal(t, map[string]interface{}{"attempt": float64(2)}, entry["data"])
	assert.NotEmpty(t, entry["timestamp"])
}
