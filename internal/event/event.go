// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package event

// =============================================================================
// KINDS
// =============================================================================

// Kind is the discriminator carried in the envelope's event_type field.
type Kind string

const (
	KindMessage   Kind = "message"
	KindInfo      Kind = "info"
	KindError     Kind = "error"
	KindStatus    Kind = "status"
	KindUIControl Kind = "ui_control"
	KindClear     Kind = "clear"
)

// ChatInputTarget is the ui_control content that toggles the chat input bar.
const ChatInputTarget = "chat_input"

// PasswordInput is the ui_control extra value requesting a masked prompt.
const PasswordInput = "password"

// =============================================================================
// EVENT INTERFACE
// =============================================================================

// Event is one notification from the server.
type Event interface {
	// Kind returns the wire discriminator.
	Kind() Kind
	// Retract returns how many of the most recent log entries the server
	// asks to remove before this event is handled. Zero means none.
	Retract() uint
}

// Header holds the fields every variant may carry.
type Header struct {
	ClearCount uint
}

// Retract implements Event.
func (h Header) Retract() uint { return h.ClearCount }

// =============================================================================
// VARIANTS
// =============================================================================

// Message is a chat line written by a user.
type Message struct {
	Header
	Content  string
	Username string
}

// Kind implements Event.
func (Message) Kind() Kind { return KindMessage }

// Info is a server notice.
type Info struct {
	Header
	Content string
}

// Kind implements Event.
func (Info) Kind() Kind { return KindInfo }

// Error is a server error notice. An Error whose content mentions
// "Disconnected" signals the end of the session.
type Error struct {
	Header
	Content string
}

// Kind implements Event.
func (Error) Kind() Kind { return KindError }

// Status carries connection status. Label is the short text shown in the
// header (the server name once connected); empty means no label update.
type Status struct {
	Header
	Content string
	Label   string
}

// Kind implements Event.
func (Status) Kind() Kind { return KindStatus }

// UIControl toggles an interactive element. Target names the element or,
// for prompts, holds the prompt label. InputType is "password" for masked
// prompts.
type UIControl struct {
	Header
	Target    string
	Enabled   bool
	InputType string
}

// Kind implements Event.
func (UIControl) Kind() Kind { return KindUIControl }

// IsChatInput reports whether the event enables the chat input bar.
func (u UIControl) IsChatInput() bool {
	return u.Target == ChatInputTarget && u.Enabled
}

// Clear only retracts log entries.
type Clear struct {
	Header
}

// Kind implements Event.
func (Clear) Kind() Kind { return KindClear }

// Unknown is any event whose kind this client does not recognize.
type Unknown struct {
	Header
	Name    Kind
	Content string
}

// Kind implements Event.
func (u Unknown) Kind() Kind { return u.Name }
