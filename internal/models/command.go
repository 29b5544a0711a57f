package models

import (
	"strconv"
	"strings"
	"time"
)

// Verb identifies a protocol command.
type Verb string

const (
	VerbList     Verb = "LIST"
	VerbUpload   Verb = "UPLOAD"
	VerbDownload Verb = "DOWNLOAD"
	VerbRename   Verb = "RENAME"
	VerbDelete   Verb = "DELETE"
	VerbQuit     Verb = "QUIT"
)

// Command is one parsed client request.
type Command struct {
	Verb    Verb
	Name    string // target filename (UPLOAD, DOWNLOAD, DELETE, RENAME source)
	NewName string // RENAME destination
	Size    int64  // UPLOAD payload length
}

// ParseCommand tokenizes one control line into a Command.
//
// The line is split on whitespace into a verb and positional arguments, then
// checked per-verb for arity and types. Anything that does not match a known
// verb's argument shape is an unknown command, not a malformed-argument
// error; the only finer diagnosis is a parseable negative UPLOAD size, which
// reports ErrInvalidSize.
func ParseCommand(line string) (Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Command{}, ErrUnknownCommand
	}

	verb := Verb(fields[0])
	args := fields[1:]

	switch verb {
	case VerbList, VerbQuit:
		if len(args) != 0 {
			return Command{}, ErrUnknownCommand
		}
		return Command{Verb: verb}, nil

	case VerbUpload:
		if len(args) != 2 {
			return Command{}, ErrUnknownCommand
		}
		size, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return Command{}, ErrUnknownCommand
		}
		if size < 0 {
			return Command{}, ErrInvalidSize
		}
		return Command{Verb: verb, Name: args[0], Size: size}, nil

	case VerbDownload, VerbDelete:
		if len(args) != 1 {
			return Command{}, ErrUnknownCommand
		}
		return Command{Verb: verb, Name: args[0]}, nil

	case VerbRename:
		if len(args) != 2 {
			return Command{}, ErrUnknownCommand
		}
		return Command{Verb: verb, Name: args[0], NewName: args[1]}, nil
	}

	return Command{}, ErrUnknownCommand
}

// FileEntry is one LIST result: a regular file in the storage root.
type FileEntry struct {
	Name    string
	Size    int64
	ModTime time.Time
}
