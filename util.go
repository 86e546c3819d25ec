package main

import "strings"

// 50 from RFC
const maxChannelLength = 50

// canonicalizeNick converts the given nick to its canonical representation
// (which must be unique).
//
// Note: We don't check validity or strip whitespace.
func canonicalizeNick(n string) string {
	return strings.ToLower(n)
}

// isValidNick checks if a nickname is valid: non-blank, at most maxLen
// bytes, made of letters, digits, or []\`_^{|}.
func isValidNick(maxLen int, n string) bool {
	if len(n) == 0 || len(n) > maxLen {
		return false
	}

	for _, char := range n {
		if char >= 'a' && char <= 'z' {
			continue
		}

		if char >= 'A' && char <= 'Z' {
			continue
		}

		if char >= '0' && char <= '9' {
			continue
		}

		switch char {
		case '[', ']', '\\', '`', '_', '^', '{', '|', '}':
			continue
		}

		return false
	}

	return true
}

// isValidChannel checks a channel name. Only # channels exist here. The
// name is case sensitive.
func isValidChannel(name string) bool {
	if len(name) == 0 || len(name) > maxChannelLength {
		return false
	}

	if name[0] != '#' {
		return false
	}

	for _, char := range name[1:] {
		// Space and comma are structural in the protocol. Control characters
		// would corrupt framing.
		if char == ' ' || char == ',' || char == '\x00' || char == '\a' ||
			char == '\r' || char == '\n' {
			return false
		}
	}

	return true
}

func isNumericCommand(command string) bool {
	for _, c := range command {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
