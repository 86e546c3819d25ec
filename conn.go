package main

import (
	"bytes"
	"log"
	"net"
	"strings"
	"time"

	"github.com/horgh/irc"
	"github.com/pkg/errors"
)

const (
	// readSize is how much we ask the kernel for at a time.
	readSize = 4096

	// maxInputBuffer is how much unframed input we hold before cutting the
	// client off.
	maxInputBuffer = 8192
)

// errInputBufferFull means the client sent too much without a line ending.
var errInputBufferFull = errors.New("input buffer full")

// Conn is a connection to a client.
type Conn struct {
	conn net.Conn

	// Bytes read but not yet framed. A partial frame stays here between
	// reads.
	buf []byte

	ioWait time.Duration
}

// NewConn initializes a Conn struct
func NewConn(conn net.Conn, ioWait time.Duration) *Conn {
	return &Conn{
		conn:   conn,
		ioWait: ioWait,
	}
}

// Close closes the underlying connection
func (c *Conn) Close() error {
	return c.conn.Close()
}

// RemoteAddr returns the remote network address.
func (c *Conn) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

// ReadLine reads one line from the connection. The line ending is
// stripped. The line may be blank.
//
// Input arrives in arbitrary segments; whatever follows the last line
// ending stays buffered for the next call. Holding more than
// maxInputBuffer bytes without seeing a line ending is an error
// (errInputBufferFull) and the buffer is discarded.
func (c *Conn) ReadLine() (string, error) {
	for {
		if i := bytes.IndexByte(c.buf, '\n'); i != -1 {
			line := string(c.buf[:i])
			c.buf = c.buf[i+1:]
			return strings.TrimSuffix(line, "\r"), nil
		}

		if len(c.buf) >= maxInputBuffer {
			c.buf = nil
			return "", errInputBufferFull
		}

		if err := c.conn.SetReadDeadline(time.Now().Add(c.ioWait)); err != nil {
			// Do not treat this as fatal. There can be something available to
			// read which we want to see.
			log.Printf("Error setting read deadline: %s", err)
		}

		buf := make([]byte, readSize)
		n, err := c.conn.Read(buf)
		if n > 0 {
			c.buf = append(c.buf, buf[:n]...)
			continue
		}
		if err != nil {
			return "", errors.Wrap(err, "error reading")
		}
	}
}

// WriteMessage encodes and writes the message to the connection.
func (c *Conn) WriteMessage(m irc.Message) error {
	buf, err := m.Encode()
	if err != nil && err != irc.ErrTruncated {
		return errors.Wrapf(err, "unable to encode message: %s", m)
	}

	return c.Write(buf)
}

// Write writes a string to the connection
func (c *Conn) Write(s string) error {
	if err := c.conn.SetWriteDeadline(time.Now().Add(c.ioWait)); err != nil {
		return errors.Wrap(err, "error setting write deadline")
	}

	n, err := c.conn.Write([]byte(s))
	if err != nil {
		return errors.Wrap(err, "error writing")
	}

	if n != len(s) {
		return errors.New("short write")
	}

	return nil
}
