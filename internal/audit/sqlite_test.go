package audit_test

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheMichaelB/minicloud/internal/audit"
	"github.com/TheMichaelB/minicloud/internal/events"
)

func TestSQLiteRecorder(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "audit.db")
	var buf bytes.Buffer
	logger := events.NewTestLogger(events.DebugLevel, "json", &buf)

	rec, err := audit.NewSQLite(dbPath, logger)
	require.NoError(t, err)
	defer rec.Close()

	now := time.Now().UTC().Truncate(time.Second)

	rec.Record(audit.Entry{
		Time:       now,
		RemoteAddr: "127.0.0.1:50000",
		Op:         "UPLOAD",
		Name:       "report.pdf",
		Bytes:      4096,
		Status:     "ok",
		Detail:     "SAVED",
		Duration:   17 * time.Millisecond,
	})
	rec.Record(audit.Entry{
		Time:       now.Add(time.Second),
		RemoteAddr: "127.0.0.1:50001",
		Op:         "DELETE",
		Name:       "missing.txt",
		Status:     "err",
		Detail:     "delete failed",
	})

	entries, err := rec.Recent(10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// Newest first.
	assert.Equal(t, "DELETE", entries[0].Op)
	assert.Equal(t, "err", entries[0].Status)
	assert.Equal(t, "delete failed", entries[0].Detail)

	assert.Equal(t, "UPLOAD", entries[1].Op)
	assert.Equal(t, "report.pdf", entries[1].Name)
	assert.Equal(t, int64(4096), entries[1].Bytes)
	assert.Equal(t, 17*time.Millisecond, entries[1].Duration)
	assert.Equal(t, now.Unix(), entries[1].Time.Unix())
}

func TestRecentLimit(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "audit.db")
	var buf bytes.Buffer
	logger := events.NewTestLogger(events.DebugLevel, "json", &buf)

	rec, err := audit.NewSQLite(dbPath, logger)
	require.NoError(t, err)
	defer rec.Close()

	for i := 0; i < 5; i++ {
		rec.Record(audit.Entry{Time: time.Now(), Op: "LIST", Status: "ok"})
	}

	entries, err := rec.Recent(3)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestNopRecorder(t *testing.T) {
	rec := audit.Nop()
	rec.Record(audit.Entry{Op: "LIST"})
	assert.NoError(t, rec.Close())
}
