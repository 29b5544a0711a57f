// Package audit journals completed protocol operations. Recording is
// best-effort by contract: a journal failure is logged and dropped, never
// surfaced to the client or allowed to fail the operation it describes.
package audit

import (
	"time"
)

// Entry describes one completed operation.
type Entry struct {
	Time       time.Time
	RemoteAddr string
	Op         string // protocol verb
	Name       string // target filename(s), space-joined for RENAME
	Bytes      int64  // payload bytes moved, 0 when not applicable
	Status     string // "ok" or "err"
	Detail     string // wire status suffix or error message
	Duration   time.Duration
}

// Recorder accepts journal entries.
type Recorder interface {
	Record(e Entry)
	Close() error
}

type nopRecorder struct{}

func (nopRecorder) Record(Entry) {}
func (nopRecorder) Close() error { return nil }

// Nop returns a recorder that discards everything, used when the journal is
// disabled.
func Nop() Recorder {
	return nopRecorder{}
}
