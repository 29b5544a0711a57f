package storage

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/TheMichaelB/minicloud/internal/models"
)

// JoinName validates a client-supplied filename and joins it under root.
//
// This is a pure denylist, not canonicalization: a name containing '..', a
// forward slash, or a backslash is rejected outright, so any name that
// passes resolves to a direct child of root. The check runs before any
// filesystem call. Case collisions on case-insensitive filesystems are a
// known platform-dependent non-invariant and are not handled here.
func JoinName(root, name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("empty name: %w", models.ErrBadFilename)
	}
	if strings.Contains(name, "..") ||
		strings.ContainsRune(name, '/') ||
		strings.ContainsRune(name, '\\') {
		return "", fmt.Errorf("name %q: %w", name, models.ErrBadFilename)
	}
	return filepath.Join(root, name), nil
}
