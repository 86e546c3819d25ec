package main

import (
	"strings"

	"github.com/horgh/irc"
)

// parseMessage parses one frame into a Message.
//
// The grammar here is more liberal than RFC 1459: runs of spaces between
// tokens collapse, and everything after " :" is a single trailing
// parameter taken verbatim. A prefix is accepted and discarded; we don't
// federate, so it tells us nothing we trust.
//
// ok is false when the frame is malformed and should be dropped.
func parseMessage(line string) (irc.Message, bool) {
	i := 0

	if strings.HasPrefix(line, ":") {
		sp := strings.IndexByte(line, ' ')
		if sp == -1 {
			// A prefix with nothing after it.
			return irc.Message{}, false
		}
		i = sp + 1
	}

	for i < len(line) && line[i] == ' ' {
		i++
	}

	start := i
	for i < len(line) && line[i] != ' ' {
		i++
	}

	if start == i {
		return irc.Message{}, false
	}

	m := irc.Message{Command: strings.ToUpper(line[start:i])}

	for i < len(line) {
		for i < len(line) && line[i] == ' ' {
			i++
		}
		if i == len(line) {
			break
		}

		if line[i] == ':' {
			m.Params = append(m.Params, line[i+1:])
			break
		}

		start := i
		for i < len(line) && line[i] != ' ' {
			i++
		}
		m.Params = append(m.Params, line[start:i])
	}

	return m, true
}
