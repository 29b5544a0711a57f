package server

import (
	"errors"
	"fmt"

	"github.com/TheMichaelB/minicloud/internal/lockmgr"
	"github.com/TheMichaelB/minicloud/internal/models"
	"github.com/TheMichaelB/minicloud/internal/transfer"
)

// handleList streams the storage index: a count line, one FILE line per
// regular file in enumeration order, then the END sentinel.
func (s *session) handleList() opResult {
	files, err := s.srv.store.List()
	if err != nil {
		s.logger.WithError(err).Warn("Cannot open storage")
		return s.replyErr("cannot open storage")
	}

	if err := s.codec.Writef("OK %d", len(files)); err != nil {
		return opResult{status: "err", detail: "write failed", fatal: true}
	}
	for _, f := range files {
		if err := s.codec.Writef("FILE %s %d", f.Name, f.Size); err != nil {
			return opResult{status: "err", detail: "write failed", fatal: true}
		}
	}

	res := okResult(fmt.Sprintf("%d files", len(files)))
	return s.reply("END", res)
}

// handleUpload receives exactly cmd.Size bytes into a truncated file under
// an exclusive lock. A short transfer leaves the partial file on disk and
// tears the connection down: once the data plane breaks, control framing
// cannot be trusted again.
func (s *session) handleUpload(cmd models.Command) opResult {
	f, err := s.srv.store.OpenWrite(cmd.Name)
	if err != nil {
		if errors.Is(err, models.ErrBadFilename) {
			return s.replyErr("bad filename")
		}
		s.logger.WithError(err).Warn("Cannot open file for write")
		return s.replyErr("cannot open file for write")
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return s.replyErr("cannot open file for write")
	}

	release := s.srv.locks.Acquire(lockmgr.IDFor(info), lockmgr.Write)
	defer release()

	// Truncate only once the lock is held, so an overwrite cannot clip a
	// still-running upload of the same name.
	if err := f.Truncate(0); err != nil {
		return s.replyErr("cannot open file for write")
	}

	// Ready-to-receive signal; the client now sends exactly cmd.Size bytes.
	if err := s.codec.WriteLine("OK"); err != nil {
		return opResult{status: "err", detail: "write failed", fatal: true}
	}

	if err := transfer.RecvExact(f, s.codec.Reader(), cmd.Size, s.srv.chunkSize); err != nil {
		msg := "recv data failed"
		if errors.Is(err, transfer.ErrShortWrite) {
			msg = "write failed"
		}
		s.logger.WithError(err).Warn("Upload transfer failed")
		// Best-effort final ERR; the connection closes either way.
		res := s.replyErr(msg)
		res.fatal = true
		return res
	}

	if err := f.Sync(); err != nil {
		s.logger.WithError(err).Warn("Sync after upload failed")
		return s.replyErr("write failed")
	}

	res := okResult("SAVED")
	res.bytes = cmd.Size
	return s.reply("OK SAVED", res)
}

// handleDownload sends the announced size followed by exactly that many raw
// bytes, under a shared lock so concurrent readers coexist but no writer can
// truncate the file mid-send.
func (s *session) handleDownload(cmd models.Command) opResult {
	f, err := s.srv.store.OpenRead(cmd.Name)
	if err != nil {
		if errors.Is(err, models.ErrBadFilename) {
			return s.replyErr("bad filename")
		}
		return s.replyErr("not found")
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return s.replyErr("stat failed")
	}

	release := s.srv.locks.Acquire(lockmgr.IDFor(info), lockmgr.Read)
	defer release()

	if !info.Mode().IsRegular() {
		return s.replyErr("not a file")
	}

	size := info.Size()
	if err := s.codec.Writef("OK %d", size); err != nil {
		return opResult{status: "err", detail: "write failed", fatal: true}
	}

	if err := transfer.SendExact(s.codec.Writer(), f, size, s.srv.chunkSize); err != nil {
		// No ERR line is possible once raw bytes were promised.
		s.logger.WithError(err).Warn("Download transfer failed")
		return opResult{status: "err", detail: "send data failed", fatal: true}
	}

	res := okResult(fmt.Sprintf("%d", size))
	res.bytes = size
	return res
}

// handleRename locks the source exclusively and renames it. The destination
// name is deliberately not locked, preserving the original's weaker
// guarantee: a concurrent UPLOAD or RENAME targeting the same destination
// is a known, accepted race.
func (s *session) handleRename(cmd models.Command) opResult {
	// Validate the destination before touching anything.
	if _, err := s.srv.store.Path(cmd.NewName); err != nil {
		return s.replyErr("bad filename")
	}

	f, err := s.srv.store.OpenLockable(cmd.Name)
	if err != nil {
		if errors.Is(err, models.ErrBadFilename) {
			return s.replyErr("bad filename")
		}
		if errors.Is(err, models.ErrNotFound) {
			return s.replyErr("not found")
		}
		return s.replyErr("cannot lock")
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return s.replyErr("cannot lock")
	}

	release := s.srv.locks.Acquire(lockmgr.IDFor(info), lockmgr.Write)
	defer release()

	if err := s.srv.store.Rename(cmd.Name, cmd.NewName); err != nil {
		s.logger.WithError(err).Warn("Rename failed")
		return s.replyErr("rename failed")
	}

	return s.reply("OK RENAMED", okResult("RENAMED"))
}

// handleDelete removes a file. The lock is best-effort by design: if the
// entry cannot be opened for locking, deletion proceeds anyway. Deleting a
// nonexistent name fails; DELETE is not idempotent.
func (s *session) handleDelete(cmd models.Command) opResult {
	if _, err := s.srv.store.Path(cmd.Name); err != nil {
		return s.replyErr("bad filename")
	}

	var release func()
	if f, err := s.srv.store.OpenLockable(cmd.Name); err == nil {
		if info, err := f.Stat(); err == nil {
			release = s.srv.locks.Acquire(lockmgr.IDFor(info), lockmgr.Write)
		}
		defer f.Close()
	}
	if release != nil {
		defer release()
	}

	if err := s.srv.store.Remove(cmd.Name); err != nil {
		s.logger.WithError(err).Warn("Delete failed")
		return s.replyErr("delete failed")
	}

	return s.reply("OK DELETED", okResult("DELETED"))
}
