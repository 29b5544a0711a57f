// Package storage owns the flat storage root: one directory whose regular
// files are the entire storage index. There is no catalog beside the
// filesystem; existence, size, and name come from live directory state.
package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/TheMichaelB/minicloud/internal/events"
	"github.com/TheMichaelB/minicloud/internal/models"
)

// Store implements filesystem operations on the storage root.
type Store struct {
	root   string
	logger *events.Logger
}

// New creates a store rooted at dir, creating the directory if absent.
func New(dir string, logger *events.Logger) (*Store, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve storage root: %w", err)
	}

	if err := os.MkdirAll(absPath, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}

	return &Store{
		root:   absPath,
		logger: logger.WithField("component", "storage"),
	}, nil
}

// Root returns the absolute storage root path.
func (s *Store) Root() string {
	return s.root
}

// Path validates name and returns its location under the root.
func (s *Store) Path(name string) (string, error) {
	return JoinName(s.root, name)
}

// OpenRead opens an existing entry for reading.
func (s *Store) OpenRead(name string) (*os.File, error) {
	path, err := s.Path(name)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", name, models.ErrNotFound)
		}
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	return f, nil
}

// OpenWrite opens name for writing, creating it if absent. It does NOT
// truncate: the caller truncates only after holding the exclusive lock, so a
// concurrent upload still writing cannot have its bytes clipped out from
// under it.
func (s *Store) OpenWrite(name string) (*os.File, error) {
	path, err := s.Path(name)
	if err != nil {
		return nil, err
	}

	s.logger.WithField("name", name).Debug("Opening file for write")

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", name, err)
	}
	return f, nil
}

// OpenLockable opens an existing entry read-write, the mode used purely to
// acquire a lock on it before rename or delete.
func (s *Store) OpenLockable(name string) (*os.File, error) {
	path, err := s.Path(name)
	if err != nil {
		return nil, err
	}

	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", name, models.ErrNotFound)
		}
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	return f, nil
}

// Rename moves old to new within the root.
func (s *Store) Rename(oldName, newName string) error {
	oldPath, err := s.Path(oldName)
	if err != nil {
		return err
	}
	newPath, err := s.Path(newName)
	if err != nil {
		return err
	}

	s.logger.WithFields(map[string]interface{}{
		"old": oldName,
		"new": newName,
	}).Debug("Renaming file")

	return os.Rename(oldPath, newPath)
}

// Remove deletes an entry. Removing a nonexistent name is an error; DELETE
// is not idempotent.
func (s *Store) Remove(name string) error {
	path, err := s.Path(name)
	if err != nil {
		return err
	}

	s.logger.WithField("name", name).Debug("Deleting file")

	return os.Remove(path)
}

// Stat returns info for an entry.
func (s *Store) Stat(name string) (os.FileInfo, error) {
	path, err := s.Path(name)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", name, models.ErrNotFound)
		}
		return nil, fmt.Errorf("stat %s: %w", name, err)
	}
	return info, nil
}

// List enumerates the regular files in the root, in directory enumeration
// order. Every call is a live scan; there is no cached index to invalidate.
func (s *Store) List() ([]models.FileEntry, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("read storage root: %w", err)
	}

	files := make([]models.FileEntry, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			// Raced with a concurrent delete; the next LIST will see the
			// settled state.
			continue
		}
		files = append(files, models.FileEntry{
			Name:    entry.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	return files, nil
}
