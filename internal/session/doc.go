// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session implements the client side of a why2 session.
//
// The controller walks a connection through its phases:
//
//	Disconnected -> Connecting -> Authenticating -> ChatActive
//
// Any phase can end in Terminated, at which point the session and its
// scrollback are discarded and the controller is Disconnected again. Each
// server event is turned into a Mutation by Dispatch and applied to the
// live Session.
//
// # Key Types
//
//   - Controller: Owns the session, its event subscription and commands
//   - Session: Phase, scrollback, open prompt and status label
//   - Mutation: The effect of one server event
//   - Transcript: What is recorded when a session ends
//
// # Usage
//
//	ctl := session.NewController(session.Options{Backend: be, Logger: logger})
//	if err := ctl.Connect(ctx, "chat.example"); err != nil {
//	    var connErr *session.ConnectionError
//	    errors.As(err, &connErr)
//	}
//	ctl.LoadRegistry(ctx)
//	for ev := range ctl.Events() {
//	    if ctl.HandleEvent(ev) {
//	        break // session ended
//	    }
//	}
package session
