// Package protocol implements the newline-framed control codec for the
// minicloud wire protocol. Control lines are ASCII, terminated by '\n' with
// an optional '\r' tolerated on read. Binary payloads bypass the codec
// entirely: their length is negotiated on a control line and the raw bytes
// follow on the same stream.
package protocol

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

var (
	// ErrTruncatedLine reports a stream that ended mid-line: at least one
	// byte arrived but the terminating '\n' never did.
	ErrTruncatedLine = errors.New("truncated line")

	// ErrLineTooLong reports a control line exceeding the configured limit.
	ErrLineTooLong = errors.New("line too long")
)

// Codec frames control lines over a stream. It is not safe for concurrent
// use; each connection owns exactly one Codec.
type Codec struct {
	br      *bufio.Reader
	w       io.Writer
	maxLine int
}

// NewCodec wraps a stream. maxLine bounds a single control line in bytes,
// terminator included.
func NewCodec(rw io.ReadWriter, maxLine int) *Codec {
	return &Codec{
		br:      bufio.NewReader(rw),
		w:       rw,
		maxLine: maxLine,
	}
}

// ReadLine reads one control line, stripping the trailing '\n' and any '\r'
// before it. It returns io.EOF only for a clean shutdown (the peer closed
// before sending any byte of the next line); an end-of-stream after partial
// data is ErrTruncatedLine, since every control line must be terminated.
func (c *Codec) ReadLine() (string, error) {
	var sb strings.Builder
	for {
		b, err := c.br.ReadByte()
		if err != nil {
			if err == io.EOF {
				if sb.Len() == 0 {
					return "", io.EOF
				}
				return "", ErrTruncatedLine
			}
			return "", fmt.Errorf("read line: %w", err)
		}
		if b == '\n' {
			break
		}
		if sb.Len() >= c.maxLine {
			return "", ErrLineTooLong
		}
		sb.WriteByte(b)
	}

	line := sb.String()
	for strings.HasSuffix(line, "\r") {
		line = line[:len(line)-1]
	}
	return line, nil
}

// WriteLine writes s followed by '\n', blocking until the whole line is on
// the stream. Any write error is fatal to the connection; retry on
// interrupted syscalls happens inside the net package.
func (c *Codec) WriteLine(s string) error {
	if _, err := io.WriteString(c.w, s+"\n"); err != nil {
		return fmt.Errorf("write line: %w", err)
	}
	return nil
}

// Writef formats and writes one control line.
func (c *Codec) Writef(format string, args ...interface{}) error {
	return c.WriteLine(fmt.Sprintf(format, args...))
}

// Reader exposes the buffered read side for the data plane. Binary payloads
// must be read through it so bytes already buffered during line reading are
// not lost.
func (c *Codec) Reader() io.Reader {
	return c.br
}

// Writer exposes the raw write side for the data plane.
func (c *Codec) Writer() io.Writer {
	return c.w
}
