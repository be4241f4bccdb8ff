// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/ENGO150/WHY2-Desktop/internal/logbuf"
	"github.com/ENGO150/WHY2-Desktop/internal/prompt"
)

// =============================================================================
// PHASE
// =============================================================================

// Phase is where a connection stands.
type Phase int

const (
	Disconnected Phase = iota
	Connecting
	Authenticating
	ChatActive
	Terminated
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Authenticating:
		return "authenticating"
	case ChatActive:
		return "chat"
	case Terminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// canAdvance reports whether a session may move from one phase to another.
// Phases only move forward; Terminated is reachable from anywhere.
func canAdvance(from, to Phase) bool {
	switch to {
	case Terminated:
		return from != Terminated
	case ChatActive:
		return from == Authenticating || from == ChatActive
	default:
		return false
	}
}

// =============================================================================
// SESSION
// =============================================================================

// Session is the state of one connection: its phase, scrollback, open
// prompt and status label. A Session is created when a connection is
// accepted and discarded when it ends; it is never reused.
type Session struct {
	// ID uniquely identifies the session
	ID string

	// Address the session is connected to
	Address string

	// StartedAt is when the server accepted the connection
	StartedAt time.Time

	// Log is the scrollback
	Log logbuf.Buffer

	// Prompt holds the open modal prompt, if any
	Prompt prompt.Controller

	phase       Phase
	statusLabel string
	now         func() time.Time
}

func newSession(address string, now func() time.Time) *Session {
	return &Session{
		ID:        "sess_" + uuid.NewString(),
		Address:   address,
		StartedAt: now(),
		phase:     Authenticating,
		now:       now,
	}
}

// Phase returns the session phase.
func (s *Session) Phase() Phase {
	return s.phase
}

// StatusLabel returns the label last set by the server, or "".
func (s *Session) StatusLabel() string {
	return s.statusLabel
}

// =============================================================================
// SESSION STATUS
// =============================================================================

// Status is a snapshot for display.
type Status struct {
	SessionID   string
	Address     string
	Phase       Phase
	StatusLabel string
	StartTime   time.Time
	Duration    time.Duration
	Entries     int
	PromptOpen  bool
}

// GetStatus returns a snapshot of the session.
func (s *Session) GetStatus() Status {
	return Status{
		SessionID:   s.ID,
		Address:     s.Address,
		Phase:       s.phase,
		StatusLabel: s.statusLabel,
		StartTime:   s.StartedAt,
		Duration:    s.now().Sub(s.StartedAt),
		Entries:     s.Log.Len(),
		PromptOpen:  s.Prompt.IsOpen(),
	}
}

// FormatDuration returns a human-readable duration string.
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		secs := int(d.Seconds())
		return strconv.Itoa(secs) + "s"
	}
	if d < time.Hour {
		mins := int(d.Minutes())
		secs := int(d.Seconds()) % 60
		if secs == 0 {
			return strconv.Itoa(mins) + "m"
		}
		return strconv.Itoa(mins) + "m " + strconv.Itoa(secs) + "s"
	}
	hours := int(d.Hours())
	mins := int(d.Minutes()) % 60
	return strconv.Itoa(hours) + "h " + strconv.Itoa(mins) + "m"
}
