// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"strings"

	"github.com/ENGO150/WHY2-Desktop/internal/event"
	"github.com/ENGO150/WHY2-Desktop/internal/logbuf"
	"github.com/ENGO150/WHY2-Desktop/internal/prompt"
)

// disconnectMarker in an error event's content ends the session.
const disconnectMarker = "Disconnected"

// =============================================================================
// MUTATION
// =============================================================================

// PromptAction says what an event does to the open prompt.
type PromptAction int

const (
	PromptKeep PromptAction = iota
	PromptOpen
	PromptClose
)

// Mutation is the change one event makes to a session.
type Mutation struct {
	// Evict is how many tail log entries to remove
	Evict uint

	// Phase is the phase to move to when SetPhase is true
	Phase    Phase
	SetPhase bool

	// Prompt and PromptConfig describe the prompt change
	Prompt       PromptAction
	PromptConfig prompt.Config

	// StatusLabel replaces the status label when SetStatus is true
	StatusLabel string
	SetStatus   bool

	// Append is the log entry to add, if any
	Append *logbuf.Entry
}

// IsZero reports whether the mutation changes nothing.
func (m Mutation) IsZero() bool {
	return m.Evict == 0 && !m.SetPhase && m.Prompt == PromptKeep && !m.SetStatus && m.Append == nil
}

// =============================================================================
// DISPATCH
// =============================================================================

// Dispatch maps one event to the mutation it causes. Rules are checked in
// order and the first that matches decides the rest of the event:
//
//  1. A positive clear count evicts that many tail entries; a clear event
//     stops here.
//  2. ui_control chat_input=true activates chat and closes the prompt;
//     any other enabled ui_control opens a prompt; a disabled one closes it.
//  3. status with a label sets the status label.
//  4. error mentioning "Disconnected" terminates the session unlogged.
//  5. message, info and error events are appended to the log.
//
// Anything else is ignored.
func Dispatch(ev event.Event) Mutation {
	var m Mutation

	if n := ev.Retract(); n > 0 {
		m.Evict = n
	}
	if _, ok := ev.(event.Clear); ok {
		return m
	}

	switch ev := ev.(type) {
	case event.UIControl:
		switch {
		case ev.IsChatInput():
			m.Phase, m.SetPhase = ChatActive, true
			m.Prompt = PromptClose
		case ev.Enabled:
			m.Prompt = PromptOpen
			m.PromptConfig = prompt.Config{Label: ev.Target, Kind: promptKind(ev.InputType)}
		default:
			m.Prompt = PromptClose
		}
		return m

	case event.Status:
		if ev.Label != "" {
			m.StatusLabel, m.SetStatus = ev.Label, true
		}
		return m

	case event.Error:
		if strings.Contains(ev.Content, disconnectMarker) {
			m.Phase, m.SetPhase = Terminated, true
			return m
		}
		m.Append = &logbuf.Entry{Kind: logbuf.KindError, Content: ev.Content}

	case event.Message:
		m.Append = &logbuf.Entry{Kind: logbuf.KindMessage, Content: ev.Content, Username: ev.Username}

	case event.Info:
		m.Append = &logbuf.Entry{Kind: logbuf.KindInfo, Content: ev.Content}
	}

	return m
}

func promptKind(inputType string) prompt.Kind {
	if inputType == event.PasswordInput {
		return prompt.Secret
	}
	return prompt.Text
}

// Apply writes the mutation into s: eviction, prompt, phase, status label,
// then the new entry. A phase change that would move the session backwards
// is dropped. A terminated session is left untouched.
func (m Mutation) Apply(s *Session) {
	if s.phase == Terminated {
		return
	}

	if m.Evict > 0 {
		s.Log.EvictTail(m.Evict)
	}

	switch m.Prompt {
	case PromptOpen:
		s.Prompt.Open(m.PromptConfig)
	case PromptClose:
		s.Prompt.Close()
	}

	if m.SetPhase && canAdvance(s.phase, m.Phase) {
		s.phase = m.Phase
	}

	if m.SetStatus {
		s.statusLabel = m.StatusLabel
	}

	if m.Append != nil {
		entry := *m.Append
		entry.At = s.now()
		s.Log.Append(entry)
	}
}
