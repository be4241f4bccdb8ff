// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"context"
	"errors"

	"github.com/ENGO150/WHY2-Desktop/internal/commands"
	"github.com/ENGO150/WHY2-Desktop/internal/event"
)

// =============================================================================
// INTERFACES
// =============================================================================

// Backend is the transport to one why2 server.
type Backend interface {
	// Connect opens the connection. It blocks until the server accepts or
	// the attempt fails.
	Connect(ctx context.Context, address string) error

	// SendInput sends one line typed by the operator.
	SendInput(ctx context.Context, text string) error

	// GetCommands asks the server for its command prefix and list.
	GetCommands(ctx context.Context) (prefix string, cmds []commands.CommandInfo, err error)

	// Subscribe attaches the single consumer of the event stream.
	Subscribe() (Subscription, error)

	// Close drops the connection. Safe to call more than once.
	Close() error
}

// Subscription is an attached event stream consumer.
type Subscription interface {
	// Events delivers server events in arrival order. The channel is
	// closed when the connection ends.
	Events() <-chan event.Event

	// Unsubscribe detaches the consumer. Only the first call has effect.
	Unsubscribe()
}

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrNotConnected is returned by calls that need an open connection.
	ErrNotConnected = errors.New("backend: not connected")

	// ErrAlreadyConnected is returned by Connect on an open backend.
	ErrAlreadyConnected = errors.New("backend: already connected")

	// ErrAlreadySubscribed is returned when a second consumer tries to
	// attach to the same connection.
	ErrAlreadySubscribed = errors.New("backend: event stream already has a subscriber")
)

// DisconnectedEvent is emitted when the server closes the connection.
func DisconnectedEvent() event.Event {
	return event.Error{Content: "Disconnected."}
}
