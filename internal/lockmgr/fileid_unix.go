//go:build unix

package lockmgr

import (
	"os"
	"syscall"
)

// ID is a filesystem entry identity: device plus inode, so a file keeps its
// lock key across renames and two names for the same entry share one lock.
type ID struct {
	dev uint64
	ino uint64
}

// IDFor derives the lock key from file metadata.
func IDFor(info os.FileInfo) ID {
	if st, ok := info.Sys().(*syscall.Stat_t); ok {
		return ID{dev: uint64(st.Dev), ino: st.Ino}
	}
	return ID{}
}
