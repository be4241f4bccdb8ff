// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package event

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMissingKind is returned by Decode for an envelope without event_type.
var ErrMissingKind = errors.New("event: missing event_type")

// Envelope is the JSON shape of one server notification.
type Envelope struct {
	EventType  string `json:"event_type"`
	Content    string `json:"content"`
	Username   string `json:"username,omitempty"`
	Extra      string `json:"extra,omitempty"`
	StateBool  bool   `json:"state_bool,omitempty"`
	ClearCount uint   `json:"clear_count,omitempty"`
}

// Decode parses one JSON frame into an Event. Unrecognized kinds decode to
// Unknown rather than an error.
func Decode(data []byte) (Event, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	if env.EventType == "" {
		return nil, ErrMissingKind
	}
	return FromEnvelope(env), nil
}

// FromEnvelope converts a wire envelope into its variant.
func FromEnvelope(env Envelope) Event {
	h := Header{ClearCount: env.ClearCount}
	switch Kind(env.EventType) {
	case KindMessage:
		return Message{Header: h, Content: env.Content, Username: env.Username}
	case KindInfo:
		return Info{Header: h, Content: env.Content}
	case KindError:
		return Error{Header: h, Content: env.Content}
	case KindStatus:
		return Status{Header: h, Content: env.Content, Label: env.Extra}
	case KindUIControl:
		return UIControl{Header: h, Target: env.Content, Enabled: env.StateBool, InputType: env.Extra}
	case KindClear:
		return Clear{Header: h}
	default:
		return Unknown{Header: h, Name: Kind(env.EventType), Content: env.Content}
	}
}

// ToEnvelope converts an Event back into its wire form.
func ToEnvelope(ev Event) Envelope {
	env := Envelope{EventType: string(ev.Kind()), ClearCount: ev.Retract()}
	switch ev := ev.(type) {
	case Message:
		env.Content = ev.Content
		env.Username = ev.Username
	case Info:
		env.Content = ev.Content
	case Error:
		env.Content = ev.Content
	case Status:
		env.Content = ev.Content
		env.Extra = ev.Label
	case UIControl:
		env.Content = ev.Target
		env.StateBool = ev.Enabled
		env.Extra = ev.InputType
	case Unknown:
		env.Content = ev.Content
	}
	return env
}

// Encode marshals an Event as a single JSON frame without a trailing newline.
func Encode(ev Event) ([]byte, error) {
	return json.Marshal(ToEnvelope(ev))
}
