// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"context"
	"sync"

	"github.com/ENGO150/WHY2-Desktop/internal/commands"
	"github.com/ENGO150/WHY2-Desktop/internal/event"
)

// =============================================================================
// MEMORY BACKEND
// =============================================================================

// Memory is an in-process Backend. Tests push events with Emit and inspect
// what was sent; the offline demo wires a scripted responder into it.
type Memory struct {
	// ConnectErr, SendErr and CommandsErr make the matching call fail.
	ConnectErr  error
	SendErr     error
	CommandsErr error

	// Prefix and Commands are returned by GetCommands.
	Prefix   string
	Commands []commands.CommandInfo

	// OnConnect runs after a successful Connect.
	OnConnect func(m *Memory, address string)

	// OnInput runs after each successful SendInput.
	OnInput func(m *Memory, text string)

	mu           sync.Mutex
	events       chan event.Event
	connected    bool
	subscribed   bool
	sent         []string
	addresses    []string
	subscribes   int
	unsubscribes int
	commandCalls int
}

// NewMemory creates an unconnected memory backend.
func NewMemory() *Memory {
	return &Memory{}
}

// Connect implements Backend.
func (m *Memory) Connect(ctx context.Context, address string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	m.addresses = append(m.addresses, address)
	if m.ConnectErr != nil {
		m.mu.Unlock()
		return m.ConnectErr
	}
	if m.connected {
		m.mu.Unlock()
		return ErrAlreadyConnected
	}
	m.connected = true
	m.subscribed = false
	m.events = make(chan event.Event, DefaultEventBuffer)
	onConnect := m.OnConnect
	m.mu.Unlock()

	if onConnect != nil {
		onConnect(m, address)
	}
	return nil
}

// SendInput implements Backend.
func (m *Memory) SendInput(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	if !m.connected {
		m.mu.Unlock()
		return ErrNotConnected
	}
	if m.SendErr != nil {
		m.mu.Unlock()
		return m.SendErr
	}
	m.sent = append(m.sent, text)
	onInput := m.OnInput
	m.mu.Unlock()

	if onInput != nil {
		onInput(m, text)
	}
	return nil
}

// GetCommands implements Backend.
func (m *Memory) GetCommands(ctx context.Context) (string, []commands.CommandInfo, error) {
	if err := ctx.Err(); err != nil {
		return "", nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.commandCalls++
	if !m.connected {
		return "", nil, ErrNotConnected
	}
	if m.CommandsErr != nil {
		return "", nil, m.CommandsErr
	}
	return m.Prefix, m.Commands, nil
}

// Subscribe implements Backend.
func (m *Memory) Subscribe() (Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.connected {
		return nil, ErrNotConnected
	}
	if m.subscribed {
		return nil, ErrAlreadySubscribed
	}
	m.subscribed = true
	m.subscribes++
	return &subscription{events: m.events, release: func() {
		m.mu.Lock()
		m.subscribed = false
		m.unsubscribes++
		m.mu.Unlock()
	}}, nil
}

// Close implements Backend. The event channel is closed.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.connected {
		return nil
	}
	m.connected = false
	close(m.events)
	return nil
}

// Emit queues an event for the subscriber. It is dropped when not connected.
func (m *Memory) Emit(ev event.Event) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.connected {
		return false
	}
	select {
	case m.events <- ev:
		return true
	default:
		return false
	}
}

// Hangup simulates the server closing the connection.
func (m *Memory) Hangup() {
	m.Emit(DisconnectedEvent())
}

// =============================================================================
// INSPECTION
// =============================================================================

// Sent returns every line passed to SendInput.
func (m *Memory) Sent() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.sent...)
}

// Addresses returns every address passed to Connect.
func (m *Memory) Addresses() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.addresses...)
}

// Connected reports whether the backend is connected.
func (m *Memory) Connected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

// SubscriptionCounts returns how many times the stream was subscribed and
// released.
func (m *Memory) SubscriptionCounts() (subscribes, unsubscribes int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.subscribes, m.unsubscribes
}

// CommandCalls returns how many times GetCommands was called.
func (m *Memory) CommandCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.commandCalls
}
