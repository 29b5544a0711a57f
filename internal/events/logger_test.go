package events_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheMichaelB/minicloud/internal/events"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := events.NewTestLogger(events.WarnLevel, "text", &buf)

	logger.Debug("dropped")
	logger.Info("dropped")
	logger.Warn("kept warn")
	logger.Error("kept error")

	out := buf.String()
	assert.NotContains(t, out, "dropped")
	assert.Contains(t, out, "kept warn")
	assert.Contains(t, out, "kept error")
}

func TestTextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := events.NewTestLogger(events.DebugLevel, "text", &buf)

	logger.WithField("conn", "127.0.0.1:1234").Info("Client connected")

	out := buf.String()
	assert.Contains(t, out, "[INFO]")
	assert.Contains(t, out, "Client connected")
	assert.Contains(t, out, "conn=127.0.0.1:1234")
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := events.NewTestLogger(events.DebugLevel, "json", &buf)

	logger.WithFields(map[string]interface{}{
		"op":    "UPLOAD",
		"bytes": 4096,
	}).Info("Transfer complete")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))

	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "Transfer complete", entry["msg"])
	assert.Equal(t, "UPLOAD", entry["op"])
	assert.Equal(t, float64(4096), entry["bytes"])
	assert.NotEmpty(t, entry["time"])
}

func TestJSONEscaping(t *testing.T) {
	var buf bytes.Buffer
	logger := events.NewTestLogger(events.DebugLevel, "json", &buf)

	logger.Info(`line "one"` + "\nline two")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "line \"one\"\nline two", entry["msg"])
}

func TestWithFieldDoesNotMutateParent(t *testing.T) {
	var buf bytes.Buffer
	logger := events.NewTestLogger(events.DebugLevel, "text", &buf)

	child := logger.WithField("component", "server")
	child.Info("from child")
	logger.Info("from parent")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)
	assert.Contains(t, string(lines[0]), "component=server")
	assert.NotContains(t, string(lines[1]), "component=server")
}

func TestWithError(t *testing.T) {
	var buf bytes.Buffer
	logger := events.NewTestLogger(events.DebugLevel, "json", &buf)

	logger.WithError(errors.New("connection reset")).Warn("Read failed")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "connection reset", entry["error"])
	assert.Equal(t, "warn", entry["level"])
}
