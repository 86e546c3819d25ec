package main

import (
	"bytes"
	"net"
	"testing"
	"time"

	"github.com/horgh/irc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Framing must not care how the bytes were segmented. Feeding a stream one
// byte at a time produces the same frames as feeding it whole.
func TestReadLineSegmented(t *testing.T) {
	client, server := net.Pipe()
	defer func() {
		_ = client.Close()
		_ = server.Close()
	}()

	conn := NewConn(server, time.Minute)

	input := "PASS secret\r\nNICK alice\r\nUSER alice 0 * :Alice A\r\n"

	go func() {
		for i := 0; i < len(input); i++ {
			if _, err := client.Write([]byte{input[i]}); err != nil {
				return
			}
		}
	}()

	want := []string{"PASS secret", "NICK alice", "USER alice 0 * :Alice A"}
	for _, w := range want {
		line, err := conn.ReadLine()
		require.NoError(t, err)
		assert.Equal(t, w, line)
	}
}

func TestReadLineMultipleFramesPerSegment(t *testing.T) {
	client, server := net.Pipe()
	defer func() {
		_ = client.Close()
		_ = server.Close()
	}()

	conn := NewConn(server, time.Minute)

	go func() {
		_, _ = client.Write([]byte("\r\nPING x\r\nPONG y\r\npartial"))
	}()

	// Blank lines come through; the caller skips them.
	want := []string{"", "PING x", "PONG y"}
	for _, w := range want {
		line, err := conn.ReadLine()
		require.NoError(t, err)
		assert.Equal(t, w, line)
	}

	// The trailing partial frame stays buffered until its ending arrives.
	go func() {
		_, _ = client.Write([]byte(" frame\r\n"))
	}()

	line, err := conn.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "partial frame", line)
}

func TestReadLineBufferCap(t *testing.T) {
	client, server := net.Pipe()
	defer func() {
		_ = client.Close()
		_ = server.Close()
	}()

	conn := NewConn(server, time.Minute)

	go func() {
		_, _ = client.Write(bytes.Repeat([]byte("a"), 9000))
	}()

	_, err := conn.ReadLine()
	require.Error(t, err)
	assert.Equal(t, errInputBufferFull, err)
}

func TestWriteMessage(t *testing.T) {
	client, server := net.Pipe()
	defer func() {
		_ = client.Close()
		_ = server.Close()
	}()

	conn := NewConn(server, time.Minute)

	received := make(chan string, 1)
	go func() {
		buf := make([]byte, 512)
		n, err := client.Read(buf)
		if err != nil {
			received <- ""
			return
		}
		received <- string(buf[:n])
	}()

	require.NoError(t, conn.WriteMessage(irc.Message{
		Command: "464",
		Params:  []string{"Password incorrect"},
	}))

	assert.Equal(t, "464 :Password incorrect\r\n", <-received)
}
