// Package lockmgr serializes file access across connections with advisory
// whole-file locks keyed by filesystem entry identity. Locks only constrain
// operations that go through the manager, never external file accessors, and
// are scoped to exactly one operation; nothing is retained across requests,
// so single-file operations cannot deadlock.
package lockmgr

import (
	"sync"
)

// Mode selects shared or exclusive locking.
type Mode int

const (
	// Read is shared: any number of concurrent readers, no writer.
	Read Mode = iota
	// Write is exclusive: one holder, no concurrent readers or writers.
	Write
)

type entry struct {
	mu sync.RWMutex
	// refs counts holders plus waiters, guarded by Manager.mu. Entries are
	// dropped at zero so the registry only tracks files currently in play.
	refs int
}

// Manager is a registry of per-identity locks. The zero value is not usable;
// call New.
type Manager struct {
	mu      sync.Mutex
	entries map[ID]*entry
}

// New creates an empty lock manager.
func New() *Manager {
	return &Manager{
		entries: make(map[ID]*entry),
	}
}

// Acquire blocks the calling goroutine until the lock for id is obtainable
// in the requested mode, then returns the release function. The caller must
// invoke release on every exit path; calling it more than once is safe.
func (m *Manager) Acquire(id ID, mode Mode) (release func()) {
	m.mu.Lock()
	e, ok := m.entries[id]
	if !ok {
		e = &entry{}
		m.entries[id] = e
	}
	e.refs++
	m.mu.Unlock()

	if mode == Write {
		e.mu.Lock()
	} else {
		e.mu.RLock()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			if mode == Write {
				e.mu.Unlock()
			} else {
				e.mu.RUnlock()
			}

			m.mu.Lock()
			e.refs--
			if e.refs == 0 {
				delete(m.entries, id)
			}
			m.mu.Unlock()
		})
	}
}

// Locked reports how many identities currently have holders or waiters.
func (m *Manager) Locked() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
