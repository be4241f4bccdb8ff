// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"strings"
	"unicode"
)

// =============================================================================
// USAGE HINTS
// =============================================================================

// Hint describes the command being typed once its trigger is complete.
type Hint struct {
	Command CommandInfo

	// ArgIndex is the positional argument under the cursor; it may be past
	// the last declared argument.
	ArgIndex int
}

// Usage renders a one-line synopsis such as "/whois <user> [reason]".
// Required arguments use angle brackets and optional ones square brackets.
func Usage(prefix string, cmd CommandInfo) string {
	var b strings.Builder
	b.WriteString(prefix)
	b.WriteString(cmd.Name)
	for _, arg := range cmd.Args {
		b.WriteByte(' ')
		if arg.Required {
			b.WriteString("<" + arg.Name + ">")
		} else {
			b.WriteString("[" + arg.Name + "]")
		}
	}
	return b.String()
}

// HintFor returns a hint when input starts with the prefix followed by a
// known trigger and at least one space.
func (r *Registry) HintFor(input string) (Hint, bool) {
	prefix := r.Prefix()
	if !strings.HasPrefix(input, prefix) {
		return Hint{}, false
	}
	rest := strings.TrimPrefix(input, prefix)
	end := strings.IndexFunc(rest, unicode.IsSpace)
	if end <= 0 {
		// Still typing the trigger
		return Hint{}, false
	}

	cmd, ok := r.Get(rest[:end])
	if !ok {
		return Hint{}, false
	}

	args := splitArgs(rest[end:])
	idx := len(args)
	if idx > 0 && !endsWithSpace(rest) {
		idx--
	}
	return Hint{Command: cmd, ArgIndex: idx}, true
}

// splitArgs splits an argument string into tokens, respecting single and
// double quotes.
func splitArgs(input string) []string {
	var tokens []string
	var current strings.Builder
	var inSingle, inDouble bool

	for _, ch := range input {
		switch {
		case ch == '\'' && !inDouble:
			inSingle = !inSingle
		case ch == '"' && !inSingle:
			inDouble = !inDouble
		case unicode.IsSpace(ch) && !inSingle && !inDouble:
			if current.Len() > 0 {
				tokens = append(tokens, current.String())
				current.Reset()
			}
		default:
			current.WriteRune(ch)
		}
	}
	if current.Len() > 0 {
		tokens = append(tokens, current.String())
	}
	return tokens
}

func endsWithSpace(s string) bool {
	if s == "" {
		return false
	}
	return unicode.IsSpace(rune(s[len(s)-1]))
}
