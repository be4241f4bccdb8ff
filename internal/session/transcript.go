// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"time"

	"github.com/ENGO150/WHY2-Desktop/internal/logbuf"
)

// EndReason records why a session ended.
type EndReason string

const (
	// EndDisconnected means the server ended the session.
	EndDisconnected EndReason = "disconnected"
	// EndLeft means the operator left.
	EndLeft EndReason = "left"
	// EndStreamClosed means the event stream closed without notice.
	EndStreamClosed EndReason = "stream_closed"
)

// Transcript is the record of a finished session.
type Transcript struct {
	SessionID   string
	Address     string
	StatusLabel string
	StartedAt   time.Time
	EndedAt     time.Time
	Reason      EndReason
	Entries     []logbuf.Entry
}

// Recorder persists transcripts of finished sessions.
type Recorder interface {
	Record(ctx context.Context, t Transcript) error
}
