// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package event defines the notifications pushed by a remote why2 server.
//
// Every notification arrives as one JSON envelope and is decoded into a
// tagged variant, one concrete type per kind, so routing code can switch
// on the type exhaustively instead of probing optional fields.
//
// # Key Types
//
//   - Event: Interface implemented by every variant
//   - Message, Info, Error, Status, UIControl, Clear: Known variants
//   - Unknown: Any kind this client does not understand
//   - Envelope: The wire representation
//
// # Usage
//
// Decode one line read from the server:
//
//	ev, err := event.Decode(line)
//	if err != nil {
//	    // malformed frame, drop it
//	}
//	switch ev := ev.(type) {
//	case event.Message:
//	    fmt.Println(ev.Username, ev.Content)
//	}
package event
