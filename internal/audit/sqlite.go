package audit

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/TheMichaelB/minicloud/internal/events"
)

// SQLiteRecorder persists the operation journal in a SQLite database.
type SQLiteRecorder struct {
	db     *sql.DB
	logger *events.Logger
}

// NewSQLite opens (creating if needed) the journal database.
func NewSQLite(dbPath string, logger *events.Logger) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal=WAL&_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	r := &SQLiteRecorder{
		db:     db,
		logger: logger.WithField("component", "audit"),
	}

	if err := r.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize database: %w", err)
	}

	return r, nil
}

// initialize creates the schema.
func (r *SQLiteRecorder) initialize() error {
	schema := `
    CREATE TABLE IF NOT EXISTS operations (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        time TIMESTAMP NOT NULL,
        remote_addr TEXT NOT NULL,
        op TEXT NOT NULL,
        name TEXT NOT NULL DEFAULT '',
        bytes INTEGER NOT NULL DEFAULT 0,
        status TEXT NOT NULL,
        detail TEXT NOT NULL DEFAULT '',
        duration_ms INTEGER NOT NULL DEFAULT 0
    );

    CREATE INDEX IF NOT EXISTS idx_operations_time ON operations(time);
    CREATE INDEX IF NOT EXISTS idx_operations_op ON operations(op);
    `

	if _, err := r.db.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	return nil
}

// Record inserts one journal row. Failures are logged and dropped.
func (r *SQLiteRecorder) Record(e Entry) {
	_, err := r.db.Exec(`
        INSERT INTO operations (time, remote_addr, op, name, bytes, status, detail, duration_ms)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)
    `, e.Time.UTC(), e.RemoteAddr, e.Op, e.Name, e.Bytes, e.Status, e.Detail,
		e.Duration.Milliseconds())

	if err != nil {
		r.logger.WithError(err).Warn("Failed to record operation")
	}
}

// Recent returns the newest entries, newest first.
func (r *SQLiteRecorder) Recent(limit int) ([]Entry, error) {
	rows, err := r.db.Query(`
        SELECT time, remote_addr, op, name, bytes, status, detail, duration_ms
        FROM operations
        ORDER BY id DESC
        LIMIT ?
    `, limit)
	if err != nil {
		return nil, fmt.Errorf("query operations: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var durationMs int64
		if err := rows.Scan(&e.Time, &e.RemoteAddr, &e.Op, &e.Name, &e.Bytes,
			&e.Status, &e.Detail, &durationMs); err != nil {
			return nil, fmt.Errorf("scan operation row: %w", err)
		}
		e.Duration = time.Duration(durationMs) * time.Millisecond
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// Close closes the database.
func (r *SQLiteRecorder) Close() error {
	return r.db.Close()
}
