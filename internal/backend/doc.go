// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package backend provides the transports a session talks to.
//
// # Key Types
//
//   - Backend: Connect, send input, fetch commands, subscribe to events
//   - Subscription: The single consumer of a connection's event stream
//   - TCP: Newline-delimited JSON over TCP
//   - Memory: In-process backend for tests and the offline demo
//
// # Wire Format
//
// Every frame is one JSON object terminated by a newline. The server sends
// event envelopes ({"event_type": ..., "content": ..., ...}) and answers a
// command request with a "command_list" frame. The client sends
// {"op": "input", "text": ...} and {"op": "commands"}.
//
// # Usage
//
//	be := backend.NewTCP(backend.TCPConfig{DefaultPort: 8080})
//	if err := be.Connect(ctx, "chat.example"); err != nil {
//	    return err
//	}
//	sub, _ := be.Subscribe()
//	defer sub.Unsubscribe()
//	for ev := range sub.Events() {
//	    // dispatch ev
//	}
package backend
