// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// errors.go - Error types and exit codes for why2 commands.
//
// Commands return errors and let main decide how to display them.
package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/ENGO150/WHY2-Desktop/internal/config"
	"github.com/ENGO150/WHY2-Desktop/internal/session"
	"github.com/ENGO150/WHY2-Desktop/internal/storage"
)

// =============================================================================
// EXIT CODES - Specific codes for different error categories
// =============================================================================

const (
	// ExitSuccess indicates successful execution
	ExitSuccess = 0
	// ExitGeneralError indicates a general/unknown error
	ExitGeneralError = 1
	// ExitUsageError indicates invalid command usage or arguments
	ExitUsageError = 2
	// ExitConfigError indicates configuration file or settings error
	ExitConfigError = 3
	// ExitNetworkError indicates network or connectivity error
	ExitNetworkError = 5
	// ExitNotFoundError indicates a resource was not found
	ExitNotFoundError = 7
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// UsageError wraps a command line mistake.
type UsageError struct {
	Err error
}

func (e *UsageError) Error() string {
	return e.Err.Error()
}

func (e *UsageError) Unwrap() error {
	return e.Err
}

// Usagef builds a UsageError.
func Usagef(format string, a ...interface{}) error {
	return &UsageError{Err: fmt.Errorf(format, a...)}
}

// ErrMissingArgument returns an error for a required argument that was not given.
func ErrMissingArgument(argName, usage string) error {
	return Usagef("missing required argument: %s\nUsage: %s", argName, usage)
}

// =============================================================================
// ERROR DISPLAY
// =============================================================================

// DisplayError writes an error in a consistent format.
func DisplayError(w io.Writer, err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(w, "%s %s\n", ErrorStyle.Render("[ERROR]"), err.Error())

	var usageErr *UsageError
	if errors.As(err, &usageErr) {
		fmt.Fprintln(w, DimStyle.Render("Run 'why2 help' for usage."))
	}
}

// GetExitCode determines the appropriate exit code for an error.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var usageErr *UsageError
	if errors.As(err, &usageErr) {
		return ExitUsageError
	}

	var validateErrs config.ValidateErrors
	if errors.As(err, &validateErrs) {
		return ExitConfigError
	}

	var connErr *session.ConnectionError
	if errors.As(err, &connErr) {
		return ExitNetworkError
	}

	if errors.Is(err, storage.ErrTranscriptNotFound) {
		return ExitNotFoundError
	}

	return ExitGeneralError
}
