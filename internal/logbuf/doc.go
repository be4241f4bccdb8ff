// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logbuf provides the scrollback log of a session.
//
// The buffer is append-only; the only way entries leave it is tail
// eviction, which removes the most recently appended entries when the
// server retracts them.
//
// # Key Types
//
//   - Buffer: Ordered store of log entries
//   - Entry: One immutable line of history
//   - Line: A rendered entry with its grouping flags
//
// # Usage
//
//	var buf logbuf.Buffer
//	buf.Append(logbuf.Entry{Kind: logbuf.KindMessage, Username: "alice", Content: "hi"})
//	buf.EvictTail(1)
//	for _, line := range buf.Render() {
//	    if !line.Continuation {
//	        // print username header
//	    }
//	}
package logbuf
