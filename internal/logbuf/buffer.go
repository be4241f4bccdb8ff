// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package logbuf

import (
	"fmt"
	"time"
)

// =============================================================================
// ENTRY
// =============================================================================

// Kind classifies a log entry.
type Kind int

const (
	KindMessage Kind = iota
	KindInfo
	KindError
	KindStatus
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindMessage:
		return "message"
	case KindInfo:
		return "info"
	case KindError:
		return "error"
	case KindStatus:
		return "status"
	default:
		return "unknown"
	}
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, bool) {
	switch s {
	case "message":
		return KindMessage, true
	case "info":
		return KindInfo, true
	case "error":
		return KindError, true
	case "status":
		return KindStatus, true
	}
	return 0, false
}

// MarshalText encodes the kind by name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind name.
func (k *Kind) UnmarshalText(b []byte) error {
	parsed, ok := ParseKind(string(b))
	if !ok {
		return fmt.Errorf("unknown log entry kind %q", b)
	}
	*k = parsed
	return nil
}

// Entry is one line of session history. Entries are values and are never
// modified after they are appended.
type Entry struct {
	Kind     Kind
	Content  string
	Username string
	At       time.Time
}

// Text renders the entry as one line of plain text: messages as
// "[user]: content", other kinds behind a one-character marker.
func (e Entry) Text() string {
	switch e.Kind {
	case KindMessage:
		if e.Username == "" {
			return e.Content
		}
		return "[" + e.Username + "]: " + e.Content
	case KindError:
		return "! " + e.Content
	case KindStatus:
		return "= " + e.Content
	default:
		return "* " + e.Content
	}
}

// =============================================================================
// BUFFER
// =============================================================================

// Buffer is the ordered scrollback of one session. The zero value is an
// empty buffer ready to use. Buffer is not safe for concurrent mutation.
type Buffer struct {
	entries []Entry
}

// Append adds an entry to the end of the log.
func (b *Buffer) Append(e Entry) {
	b.entries = append(b.entries, e)
}

// EvictTail removes the n most recently appended entries, clamped to the
// current length, and returns how many were removed.
func (b *Buffer) EvictTail(n uint) int {
	removed := len(b.entries)
	if n < uint(removed) {
		removed = int(n)
	}
	keep := len(b.entries) - removed
	// Release evicted strings held by the backing array.
	clear(b.entries[keep:])
	b.entries = b.entries[:keep]
	return removed
}

// Len returns the number of entries.
func (b *Buffer) Len() int {
	return len(b.entries)
}

// Entries returns a copy of the log in display order.
func (b *Buffer) Entries() []Entry {
	out := make([]Entry, len(b.entries))
	copy(out, b.entries)
	return out
}

// Last returns the most recent entry.
func (b *Buffer) Last() (Entry, bool) {
	if len(b.entries) == 0 {
		return Entry{}, false
	}
	return b.entries[len(b.entries)-1], true
}

// =============================================================================
// RENDERING
// =============================================================================

// Line is an entry annotated for display.
type Line struct {
	Entry

	// System is true for every non-message entry; these render as
	// standalone notices.
	System bool

	// Continuation is true when the entry is a message from the same user
	// as the message right before it, so the username header is omitted.
	Continuation bool
}

// Render derives the display view of the log. Grouping is recomputed on
// every call.
func (b *Buffer) Render() []Line {
	lines := make([]Line, len(b.entries))
	for i, e := range b.entries {
		lines[i] = Line{Entry: e, System: e.Kind != KindMessage}
		if i == 0 || e.Kind != KindMessage {
			continue
		}
		prev := b.entries[i-1]
		lines[i].Continuation = prev.Kind == KindMessage && prev.Username == e.Username
	}
	return lines
}
