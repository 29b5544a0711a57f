package protocol_test

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheMichaelB/minicloud/internal/protocol"
)

type rwBuffer struct {
	in  *bytes.Reader
	out bytes.Buffer
}

func newRW(input string) *rwBuffer {
	return &rwBuffer{in: bytes.NewReader([]byte(input))}
}

func (b *rwBuffer) Read(p []byte) (int, error)  { return b.in.Read(p) }
func (b *rwBuffer) Write(p []byte) (int, error) { return b.out.Write(p) }

func TestReadLine(t *testing.T) {
	t.Run("plain line", func(t *testing.T) {
		c := protocol.NewCodec(newRW("LIST\n"), 4096)
		line, err := c.ReadLine()
		require.NoError(t, err)
		assert.Equal(t, "LIST", line)
	})

	t.Run("strips CRLF", func(t *testing.T) {
		c := protocol.NewCodec(newRW("UPLOAD a.txt 10\r\n"), 4096)
		line, err := c.ReadLine()
		require.NoError(t, err)
		assert.Equal(t, "UPLOAD a.txt 10", line)
	})

	t.Run("empty line", func(t *testing.T) {
		c := protocol.NewCodec(newRW("\nLIST\n"), 4096)
		line, err := c.ReadLine()
		require.NoError(t, err)
		assert.Equal(t, "", line)

		line, err = c.ReadLine()
		require.NoError(t, err)
		assert.Equal(t, "LIST", line)
	})

	t.Run("clean EOF before any byte", func(t *testing.T) {
		c := protocol.NewCodec(newRW(""), 4096)
		_, err := c.ReadLine()
		assert.ErrorIs(t, err, io.EOF)
	})

	t.Run("EOF mid-line is truncated", func(t *testing.T) {
		c := protocol.NewCodec(newRW("LIS"), 4096)
		_, err := c.ReadLine()
		assert.ErrorIs(t, err, protocol.ErrTruncatedLine)
	})

	t.Run("line too long", func(t *testing.T) {
		c := protocol.NewCodec(newRW(strings.Repeat("x", 100)+"\n"), 16)
		_, err := c.ReadLine()
		assert.ErrorIs(t, err, protocol.ErrLineTooLong)
	})
}

func TestWriteLine(t *testing.T) {
	rw := newRW("")
	c := protocol.NewCodec(rw, 4096)

	require.NoError(t, c.WriteLine("OK WELCOME"))
	require.NoError(t, c.Writef("OK %d", 42))

	assert.Equal(t, "OK WELCOME\nOK 42\n", rw.out.String())
}

func TestDataPlaneSharesBuffer(t *testing.T) {
	// Payload bytes directly after a control line must come through the
	// codec's buffered reader, not the raw stream.
	rw := newRW("UPLOAD a.bin 5\nhello")
	c := protocol.NewCodec(rw, 4096)

	line, err := c.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "UPLOAD a.bin 5", line)

	payload := make([]byte, 5)
	_, err = io.ReadFull(c.Reader(), payload)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(payload))
}
