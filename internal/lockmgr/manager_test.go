package lockmgr_test

import (
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheMichaelB/minicloud/internal/lockmgr"
)

func testID(t *testing.T) lockmgr.ID {
	t.Helper()
	path := filepath.Join(t.TempDir(), "f")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	info, err := os.Stat(path)
	require.NoError(t, err)
	return lockmgr.IDFor(info)
}

func TestWriteLockIsExclusive(t *testing.T) {
	m := lockmgr.New()
	id := testID(t)

	release := m.Acquire(id, lockmgr.Write)

	acquired := make(chan struct{})
	go func() {
		r := m.Acquire(id, lockmgr.Write)
		close(acquired)
		r()
	}()

	select {
	case <-acquired:
		t.Fatal("second writer acquired while first held the lock")
	case <-time.After(50 * time.Millisecond):
		// Expected: the second writer is blocked.
	}

	release()

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second writer never acquired after release")
	}
}

func TestReadLocksShare(t *testing.T) {
	m := lockmgr.New()
	id := testID(t)

	var wg sync.WaitGroup
	holding := make(chan struct{}, 2)

	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release := m.Acquire(id, lockmgr.Read)
			holding <- struct{}{}
			// Hold until both readers are in.
			for len(holding) < 2 {
				time.Sleep(time.Millisecond)
			}
			release()
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("concurrent readers did not share the lock")
	}
}

func TestWriterWaitsForReaders(t *testing.T) {
	m := lockmgr.New()
	id := testID(t)

	release := m.Acquire(id, lockmgr.Read)

	acquired := make(chan struct{})
	go func() {
		r := m.Acquire(id, lockmgr.Write)
		close(acquired)
		r()
	}()

	select {
	case <-acquired:
		t.Fatal("writer acquired while a reader held the lock")
	case <-time.After(50 * time.Millisecond):
	}

	release()

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("writer never acquired after the reader released")
	}
}

func TestRegistryShrinksToZero(t *testing.T) {
	m := lockmgr.New()
	id := testID(t)

	release := m.Acquire(id, lockmgr.Write)
	assert.Equal(t, 1, m.Locked())

	release()
	assert.Equal(t, 0, m.Locked())

	// Double release is harmless.
	release()
	assert.Equal(t, 0, m.Locked())
}

func TestDistinctFilesDoNotContend(t *testing.T) {
	m := lockmgr.New()
	id1 := testID(t)
	id2 := testID(t)
	require.NotEqual(t, id1, id2)

	r1 := m.Acquire(id1, lockmgr.Write)
	defer r1()

	done := make(chan struct{})
	go func() {
		r2 := m.Acquire(id2, lockmgr.Write)
		r2()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on a different file blocked")
	}
}

func TestIDStableAcrossRename(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("identity falls back to the entry name off unix")
	}

	dir := t.TempDir()
	oldPath := filepath.Join(dir, "before")
	require.NoError(t, os.WriteFile(oldPath, []byte("x"), 0o644))

	before, err := os.Stat(oldPath)
	require.NoError(t, err)

	newPath := filepath.Join(dir, "after")
	require.NoError(t, os.Rename(oldPath, newPath))

	after, err := os.Stat(newPath)
	require.NoError(t, err)

	if os.SameFile(before, after) {
		assert.Equal(t, lockmgr.IDFor(before), lockmgr.IDFor(after))
	}
}
