// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// terminal.go - Terminal handling for line mode.
//
// Decides whether the full-screen interface and hidden secret input are
// available, how wide log lines may get, and which colors to use.
package cli

import (
	"os"
	"strings"

	"github.com/muesli/reflow/wordwrap"
	"github.com/muesli/reflow/wrap"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// =============================================================================
// TTY DETECTION
// =============================================================================

// IsTTY reports whether stdin is a terminal.
func IsTTY() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

func isStdoutTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// RequiresTTY returns a *TTYRequiredError when stdin is not a terminal.
func RequiresTTY(operation string) error {
	if !IsTTY() {
		return &TTYRequiredError{Operation: operation}
	}
	return nil
}

// TTYRequiredError is returned when an operation needs an interactive terminal.
type TTYRequiredError struct {
	Operation string
}

func (e *TTYRequiredError) Error() string {
	if e.Operation == "" {
		return "stdin is not a terminal"
	}
	return "stdin is not a terminal; " + e.Operation + " needs one (try --plain)"
}

// =============================================================================
// LINE WIDTH
// =============================================================================

const (
	// minLineWidth is the narrowest width lines are wrapped to
	minLineWidth = 40
)

// TerminalWidth returns stdout's width in columns, or 0 when stdout is
// not a terminal and lines should not be wrapped.
func TerminalWidth() int {
	if !isStdoutTTY() {
		return 0
	}
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 0
	}
	return max(width, minLineWidth)
}

// WrapLine wraps styled text to width columns. Rows after the first are
// indented by indent spaces so they sit under the message body. Words
// longer than a row are broken. A width of 0 disables wrapping.
func WrapLine(text string, width, indent int) string {
	if width <= 0 {
		return text
	}
	if indent >= width/2 {
		indent = 0
	}
	rows := strings.Split(wrap.String(wordwrap.String(text, width), width), "\n")
	if len(rows) == 1 || indent == 0 {
		return strings.Join(rows, "\n")
	}

	pad := strings.Repeat(" ", indent)
	out := []string{rows[0]}
	rest := strings.Join(rows[1:], " ")
	for _, row := range strings.Split(wrap.String(wordwrap.String(rest, width-indent), width-indent), "\n") {
		out = append(out, pad+row)
	}
	return strings.Join(out, "\n")
}

// =============================================================================
// COLOR
// =============================================================================

// colorProfile picks the lipgloss profile for command output. NO_COLOR
// and CLICOLOR_FORCE are honored through termenv; FORCE_COLOR forces
// detection even when stdout is redirected.
func colorProfile() termenv.Profile {
	if os.Getenv("FORCE_COLOR") != "" {
		return termenv.ColorProfile()
	}
	if !isStdoutTTY() {
		return termenv.Ascii
	}
	return termenv.EnvColorProfile()
}
