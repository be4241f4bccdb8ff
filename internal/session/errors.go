// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"errors"
	"fmt"
)

var (
	// ErrSessionActive is returned when connecting while a connection
	// attempt or session is already in progress.
	ErrSessionActive = errors.New("session: already connected")

	// ErrNoSession is returned by calls that need a live session.
	ErrNoSession = errors.New("session: not connected")

	// ErrNotConnecting is returned by FinishConnect without BeginConnect.
	ErrNotConnecting = errors.New("session: no connection attempt in progress")

	// ErrEmptyAddress is returned when connecting to a blank address.
	ErrEmptyAddress = errors.New("session: address is empty")
)

// ConnectionError reports a failed connection attempt. No session exists
// after it.
type ConnectionError struct {
	Address string
	Err     error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connect to %s: %v", e.Address, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// sendErrorPrefix starts the log entry written when a line fails to send.
const sendErrorPrefix = "Error sending: "
