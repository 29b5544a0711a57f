//go:build !unix

package lockmgr

import (
	"os"
)

// ID is a filesystem entry identity. Without a portable inode, the base name
// serves as the key; within a single flat storage root that maps one-to-one
// onto entries.
type ID struct {
	name string
}

// IDFor derives the lock key from file metadata.
func IDFor(info os.FileInfo) ID {
	return ID{name: info.Name()}
}
