package models

import (
	"errors"
	"fmt"
)

// Sentinel errors for the protocol error taxonomy.
var (
	// Protocol errors: the command line itself is unusable.
	ErrUnknownCommand = errors.New("unknown command")

	// Validation errors: no filesystem side effect has happened.
	ErrInvalidSize = errors.New("invalid size")
	ErrBadFilename = errors.New("bad filename")

	// Resource errors: the operation aborted, the connection survives.
	ErrNotFound = errors.New("not found")
)

// ProtocolError is an ERR response received from the server, carrying the
// wire message verbatim.
type ProtocolError struct {
	Message string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("server error: %s", e.Message)
}

// UnexpectedResponseError reports a status line that fits neither the OK nor
// the ERR grammar for the command that was sent.
type UnexpectedResponseError struct {
	Command Verb
	Line    string
}

func (e *UnexpectedResponseError) Error() string {
	return fmt.Sprintf("%s: unexpected response %q", e.Command, e.Line)
}
