// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ENGO150/WHY2-Desktop/internal/backend"
	"github.com/ENGO150/WHY2-Desktop/internal/commands"
	"github.com/ENGO150/WHY2-Desktop/internal/event"
)

// =============================================================================
// MESSAGES
// =============================================================================

// ConnectMsg asks the model to connect to Address, as if it had been typed
// on the connect screen.
type ConnectMsg struct {
	Address string
}

// SettingsMsg applies display settings changed while running.
type SettingsMsg struct {
	Timestamps     bool
	MaxSuggestions int
}

// connectResultMsg reports a finished dial.
type connectResultMsg struct {
	attempt uint64
	err     error
}

// sessionEventMsg carries one event of a session's stream. closed is set
// when the stream ended.
type sessionEventMsg struct {
	sessionID string
	ev        event.Event
	closed    bool
}

// registryMsg carries the command list fetched for a session.
type registryMsg struct {
	sessionID string
	prefix    string
	cmds      []commands.CommandInfo
	err       error
}

// sendFailedMsg reports a line that could not be sent.
type sendFailedMsg struct {
	sessionID string
	err       error
}

// tickMsg refreshes the header clock.
type tickMsg time.Time

// copiedMsg reports a clipboard write.
type copiedMsg struct {
	lines int
	err   error
}

// =============================================================================
// COMMANDS
// =============================================================================

// dialCmd runs one connection attempt.
func dialCmd(ctx context.Context, cancel context.CancelFunc, be backend.Backend, address string, attempt uint64) tea.Cmd {
	return func() tea.Msg {
		defer cancel()
		return connectResultMsg{attempt: attempt, err: be.Connect(ctx, address)}
	}
}

// listenCmd waits for the next event of a session. One listen is
// outstanding per session, so events are handled strictly in order.
func listenCmd(sessionID string, events <-chan event.Event) tea.Cmd {
	if events == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-events
		return sessionEventMsg{sessionID: sessionID, ev: ev, closed: !ok}
	}
}

// fetchRegistryCmd requests a session's command list.
func fetchRegistryCmd(ctx context.Context, be backend.Backend, sessionID string) tea.Cmd {
	return func() tea.Msg {
		prefix, cmds, err := be.GetCommands(ctx)
		return registryMsg{sessionID: sessionID, prefix: prefix, cmds: cmds, err: err}
	}
}

// sendCmd sends one line. Only failures produce a message.
func sendCmd(ctx context.Context, be backend.Backend, sessionID, text string) tea.Cmd {
	return func() tea.Msg {
		if err := be.SendInput(ctx, text); err != nil {
			return sendFailedMsg{sessionID: sessionID, err: err}
		}
		return nil
	}
}

// tickCmd schedules the next header refresh.
func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// copyCmd writes text to the clipboard.
func copyCmd(write func(string) error, text string, lines int) tea.Cmd {
	return func() tea.Msg {
		return copiedMsg{lines: lines, err: write(text)}
	}
}
