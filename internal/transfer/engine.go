// Package transfer moves exact byte counts between a file and a stream in
// fixed-size chunks. Chunk size bounds memory use; it never affects how many
// bytes cross the wire.
package transfer

import (
	"errors"
	"fmt"
	"io"
)

var (
	// ErrShortRead reports a source that ended before yielding the full
	// declared length.
	ErrShortRead = errors.New("short read")

	// ErrShortWrite reports a destination that stopped accepting bytes
	// before the full declared length was delivered.
	ErrShortWrite = errors.New("short write")
)

// DefaultChunkSize matches the historical 64 KiB transfer buffer.
const DefaultChunkSize = 64 * 1024

// SendExact copies exactly length bytes from src to dst. The partial count
// written before a failure is not rolled back.
func SendExact(dst io.Writer, src io.Reader, length int64, chunk int) error {
	return copyExact(dst, src, length, chunk)
}

// RecvExact copies exactly length bytes from src to dst, failing with
// ErrShortRead if src closes early. Whatever was already written to dst
// stays; the engine does not roll back.
func RecvExact(dst io.Writer, src io.Reader, length int64, chunk int) error {
	return copyExact(dst, src, length, chunk)
}

func copyExact(dst io.Writer, src io.Reader, length int64, chunk int) error {
	if length < 0 {
		return fmt.Errorf("negative length %d", length)
	}
	if chunk <= 0 {
		chunk = DefaultChunkSize
	}

	buf := make([]byte, chunk)
	remaining := length
	for remaining > 0 {
		n := int64(chunk)
		if remaining < n {
			n = remaining
		}

		read, err := io.ReadFull(src, buf[:n])
		if err != nil {
			return fmt.Errorf("after %d of %d bytes: %w",
				length-remaining+int64(read), length, ErrShortRead)
		}

		written, err := dst.Write(buf[:read])
		if err != nil || written != read {
			return fmt.Errorf("after %d of %d bytes: %w",
				length-remaining+int64(written), length, ErrShortWrite)
		}

		remaining -= int64(read)
	}
	return nil
}
