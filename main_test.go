package main

import (
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/pkg/errors"
)

func TestErrorToQuitMessage(t *testing.T) {
	tests := []struct {
		Error  error
		Output string
	}{
		{
			nil,
			"I/O error",
		},
		{
			fmt.Errorf("blah"),
			"blah",
		},
		{
			fmt.Errorf(""),
			"I/O error",
		},
		{
			io.EOF,
			"Connection closed",
		},
		{
			errors.Wrap(io.EOF, "error reading"),
			"Connection closed",
		},
		{
			errInputBufferFull,
			"Client exceeded buffer size limit",
		},
		{
			fmt.Errorf("read tcp ip:port->ip:port: i/o timeout"),
			"Ping timeout: 120 seconds",
		},
		{
			fmt.Errorf("read tcp ip:port->ip:port: read: connection reset by peer"),
			"Connection reset by peer",
		},
	}

	s := &Server{
		Config: Config{
			DeadTime: 120 * time.Second,
		},
	}

	for _, test := range tests {
		output := s.errorToQuitMessage(test.Error)
		if output != test.Output {
			t.Errorf("errorToQuitMessage(%v) = %s, wanted %s", test.Error, output,
				test.Output)
		}
	}
}
