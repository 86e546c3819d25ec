package main

import (
	"reflect"
	"testing"

	"github.com/horgh/irc"
)

func TestParseMessage(t *testing.T) {
	tests := []struct {
		input   string
		message irc.Message
		ok      bool
	}{
		{
			"PASS secret",
			irc.Message{Command: "PASS", Params: []string{"secret"}},
			true,
		},
		{
			"privmsg #a :hello there",
			irc.Message{Command: "PRIVMSG", Params: []string{"#a", "hello there"}},
			true,
		},
		{
			// A prefix is accepted and discarded.
			":irc.example.org PRIVMSG #a :hi",
			irc.Message{Command: "PRIVMSG", Params: []string{"#a", "hi"}},
			true,
		},
		{
			// A prefix with nothing after it is dropped.
			":prefixonly",
			irc.Message{},
			false,
		},
		{
			"NICK",
			irc.Message{Command: "NICK"},
			true,
		},
		{
			// Runs of spaces between tokens collapse.
			"JOIN     #lobby",
			irc.Message{Command: "JOIN", Params: []string{"#lobby"}},
			true,
		},
		{
			"USER  alice  0  *  :Alice A",
			irc.Message{Command: "USER",
				Params: []string{"alice", "0", "*", "Alice A"}},
			true,
		},
		{
			"   PING x",
			irc.Message{Command: "PING", Params: []string{"x"}},
			true,
		},
		{
			// Stray trailing spaces are tolerated.
			"PING x  ",
			irc.Message{Command: "PING", Params: []string{"x"}},
			true,
		},
		{
			// The trailing parameter may be empty.
			"TOPIC #a :",
			irc.Message{Command: "TOPIC", Params: []string{"#a", ""}},
			true,
		},
		{
			// The trailing parameter keeps its internal spaces verbatim.
			"TOPIC #a :multi word  topic",
			irc.Message{Command: "TOPIC",
				Params: []string{"#a", "multi word  topic"}},
			true,
		},
		{
			// A first parameter may be trailing too.
			"JOIN :#a",
			irc.Message{Command: "JOIN", Params: []string{"#a"}},
			true,
		},
		{
			"",
			irc.Message{},
			false,
		},
		{
			"    ",
			irc.Message{},
			false,
		},
	}

	for _, test := range tests {
		message, ok := parseMessage(test.input)
		if ok != test.ok {
			t.Errorf("parseMessage(%q) ok = %v, wanted %v", test.input, ok, test.ok)
			continue
		}
		if !reflect.DeepEqual(message, test.message) {
			t.Errorf("parseMessage(%q) = %s, wanted %s", test.input, message,
				test.message)
		}
	}
}
