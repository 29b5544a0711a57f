// Package client is a minimal protocol client: it speaks the wire protocol
// against a server and exposes one method per command. The interactive REPL
// and the server's own end-to-end tests both consume it.
package client

import (
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"

	"github.com/TheMichaelB/minicloud/internal/events"
	"github.com/TheMichaelB/minicloud/internal/models"
	"github.com/TheMichaelB/minicloud/internal/protocol"
	"github.com/TheMichaelB/minicloud/internal/transfer"
)

const maxLine = 4096

// Client is one protocol connection. Not safe for concurrent use; the
// protocol itself is strictly sequential per connection.
type Client struct {
	conn   net.Conn
	codec  *protocol.Codec
	logger *events.Logger
}

// Dial connects and consumes the server greeting.
func Dial(addr string, logger *events.Logger) (*Client, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}

	c := &Client{
		conn:   conn,
		codec:  protocol.NewCodec(conn, maxLine),
		logger: logger.WithField("component", "client"),
	}

	greeting, err := c.codec.ReadLine()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("read greeting: %w", err)
	}
	if !strings.HasPrefix(greeting, "OK") {
		conn.Close()
		return nil, &models.UnexpectedResponseError{Line: greeting}
	}

	c.logger.WithField("addr", addr).Debug("Connected")
	return c, nil
}

// List fetches the storage index.
func (c *Client) List() ([]models.FileEntry, error) {
	if err := c.codec.WriteLine("LIST"); err != nil {
		return nil, err
	}

	status, err := c.status(models.VerbList)
	if err != nil {
		return nil, err
	}
	count, err := strconv.Atoi(strings.TrimSpace(status))
	if err != nil {
		return nil, &models.UnexpectedResponseError{Command: models.VerbList, Line: "OK " + status}
	}

	files := make([]models.FileEntry, 0, count)
	for {
		line, err := c.codec.ReadLine()
		if err != nil {
			return nil, fmt.Errorf("read listing: %w", err)
		}
		if line == "END" {
			return files, nil
		}

		fields := strings.Fields(line)
		if len(fields) < 3 || fields[0] != "FILE" {
			return nil, &models.UnexpectedResponseError{Command: models.VerbList, Line: line}
		}
		size, err := strconv.ParseInt(fields[len(fields)-1], 10, 64)
		if err != nil {
			return nil, &models.UnexpectedResponseError{Command: models.VerbList, Line: line}
		}
		files = append(files, models.FileEntry{
			Name: strings.Join(fields[1:len(fields)-1], " "),
			Size: size,
		})
	}
}

// Upload streams exactly size bytes from r to the server under name.
func (c *Client) Upload(name string, r io.Reader, size int64) error {
	if err := c.codec.Writef("UPLOAD %s %d", name, size); err != nil {
		return err
	}

	// Ready-to-receive signal.
	if _, err := c.status(models.VerbUpload); err != nil {
		return err
	}

	if err := transfer.SendExact(c.codec.Writer(), r, size, transfer.DefaultChunkSize); err != nil {
		return fmt.Errorf("send payload: %w", err)
	}

	_, err := c.status(models.VerbUpload)
	return err
}

// Download writes the named file's bytes to w and returns the byte count.
func (c *Client) Download(name string, w io.Writer) (int64, error) {
	if err := c.codec.Writef("DOWNLOAD %s", name); err != nil {
		return 0, err
	}

	status, err := c.status(models.VerbDownload)
	if err != nil {
		return 0, err
	}
	size, err := strconv.ParseInt(strings.TrimSpace(status), 10, 64)
	if err != nil {
		return 0, &models.UnexpectedResponseError{Command: models.VerbDownload, Line: "OK " + status}
	}

	if err := transfer.RecvExact(w, c.codec.Reader(), size, transfer.DefaultChunkSize); err != nil {
		return 0, fmt.Errorf("receive payload: %w", err)
	}
	return size, nil
}

// Rename moves oldName to newName on the server.
func (c *Client) Rename(oldName, newName string) error {
	if err := c.codec.Writef("RENAME %s %s", oldName, newName); err != nil {
		return err
	}
	_, err := c.status(models.VerbRename)
	return err
}

// Delete removes the named file on the server.
func (c *Client) Delete(name string) error {
	if err := c.codec.Writef("DELETE %s", name); err != nil {
		return err
	}
	_, err := c.status(models.VerbDelete)
	return err
}

// Quit says goodbye; the server closes the connection afterwards.
func (c *Client) Quit() error {
	if err := c.codec.WriteLine("QUIT"); err != nil {
		return err
	}
	_, err := c.status(models.VerbQuit)
	return err
}

// Raw sends one verbatim control line and returns the first response line,
// for commands the client does not model (and for protocol tests).
func (c *Client) Raw(line string) (string, error) {
	if err := c.codec.WriteLine(line); err != nil {
		return "", err
	}
	return c.codec.ReadLine()
}

// Close tears the connection down.
func (c *Client) Close() error {
	return c.conn.Close()
}

// status reads one status line, returning the text after "OK " (empty for a
// bare "OK") or a ProtocolError for an ERR response.
func (c *Client) status(verb models.Verb) (string, error) {
	line, err := c.codec.ReadLine()
	if err != nil {
		return "", fmt.Errorf("read status: %w", err)
	}

	switch {
	case line == "OK":
		return "", nil
	case strings.HasPrefix(line, "OK "):
		return strings.TrimPrefix(line, "OK "), nil
	case strings.HasPrefix(line, "ERR "):
		return "", &models.ProtocolError{Message: strings.TrimPrefix(line, "ERR ")}
	default:
		return "", &models.UnexpectedResponseError{Command: verb, Line: line}
	}
}
