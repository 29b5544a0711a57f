package server

import (
	"errors"
	"io"
	"net"
	"time"

	"github.com/TheMichaelB/minicloud/internal/audit"
	"github.com/TheMichaelB/minicloud/internal/events"
	"github.com/TheMichaelB/minicloud/internal/models"
	"github.com/TheMichaelB/minicloud/internal/protocol"
)

// session owns one client connection: greeting, command loop, teardown.
// Commands execute strictly sequentially; the next line is not read until the
// previous response is fully sent.
type session struct {
	srv    *Server
	conn   net.Conn
	codec  *protocol.Codec
	logger *events.Logger
	remote string
}

// opResult is what one command execution reports back to the loop.
type opResult struct {
	status string // "ok" or "err"
	detail string // wire status suffix or error message
	bytes  int64  // payload bytes moved
	fatal  bool   // connection is no longer framing-consistent
}

func okResult(detail string) opResult {
	return opResult{status: "ok", detail: detail}
}

func errResult(detail string) opResult {
	return opResult{status: "err", detail: detail}
}

func newSession(srv *Server, conn net.Conn) *session {
	remote := conn.RemoteAddr().String()
	return &session{
		srv:    srv,
		conn:   conn,
		codec:  protocol.NewCodec(conn, srv.maxLine),
		logger: srv.logger.WithField("remote", remote),
		remote: remote,
	}
}

// run drives the GREETING -> READY -> ... -> CLOSED state machine.
func (s *session) run() {
	s.logger.Debug("Connection accepted")

	// GREETING: the welcome line goes out before any command is read.
	if err := s.codec.WriteLine("OK WELCOME"); err != nil {
		s.logger.WithError(err).Debug("Greeting failed")
		return
	}

	for {
		// READY: block on the next control line. End-of-stream or a read
		// error closes the session with no final message.
		line, err := s.codec.ReadLine()
		if err != nil {
			if errors.Is(err, io.EOF) {
				s.logger.Debug("Peer disconnected")
			} else {
				s.logger.WithError(err).Debug("Read failed, closing")
			}
			return
		}

		if line == "" {
			continue
		}

		if closed := s.execute(line); closed {
			return
		}
	}
}

// execute parses and dispatches one command line, records the outcome, and
// reports whether the session must close.
func (s *session) execute(line string) (closed bool) {
	start := time.Now()

	cmd, err := models.ParseCommand(line)
	if err != nil {
		msg := "unknown command"
		if errors.Is(err, models.ErrInvalidSize) {
			msg = "invalid size"
		}
		res := errResult(msg)
		if werr := s.codec.WriteLine("ERR " + msg); werr != nil {
			res.fatal = true
		}
		s.record(cmd, start, res)
		return res.fatal
	}

	if cmd.Verb == models.VerbQuit {
		// QUIT transitions to CLOSED regardless of whether the farewell
		// line made it out.
		_ = s.codec.WriteLine("OK BYE")
		s.record(cmd, start, okResult("BYE"))
		s.logger.Debug("Client quit")
		return true
	}

	var res opResult
	switch cmd.Verb {
	case models.VerbList:
		res = s.handleList()
	case models.VerbUpload:
		res = s.handleUpload(cmd)
	case models.VerbDownload:
		res = s.handleDownload(cmd)
	case models.VerbRename:
		res = s.handleRename(cmd)
	case models.VerbDelete:
		res = s.handleDelete(cmd)
	}

	s.record(cmd, start, res)

	if res.fatal {
		s.logger.WithField("op", string(cmd.Verb)).Debug("Transfer framing lost, closing")
	}
	return res.fatal
}

// record journals one completed command.
func (s *session) record(cmd models.Command, start time.Time, res opResult) {
	name := cmd.Name
	if cmd.Verb == models.VerbRename {
		name = cmd.Name + " " + cmd.NewName
	}

	op := string(cmd.Verb)
	if op == "" {
		op = "UNKNOWN"
	}

	s.srv.audit.Record(audit.Entry{
		Time:       start,
		RemoteAddr: s.remote,
		Op:         op,
		Name:       name,
		Bytes:      res.bytes,
		Status:     res.status,
		Detail:     res.detail,
		Duration:   time.Since(start),
	})
}

// reply sends a control line; a failed send means the connection is gone.
func (s *session) reply(line string, res opResult) opResult {
	if err := s.codec.WriteLine(line); err != nil {
		res.fatal = true
	}
	return res
}

// replyErr sends "ERR <msg>" and returns the matching result.
func (s *session) replyErr(msg string) opResult {
	return s.reply("ERR "+msg, errResult(msg))
}
