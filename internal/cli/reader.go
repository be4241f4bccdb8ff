// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/peterh/liner"
	"golang.org/x/term"

	"github.com/ENGO150/WHY2-Desktop/internal/config"
)

// ErrInterrupted is returned by a LineReader when the user presses Ctrl+C.
var ErrInterrupted = errors.New("interrupted")

// LineReader reads operator input for line mode. io.EOF means the input
// is finished (Ctrl+D).
type LineReader interface {
	// ReadLine reads one line with editing and history.
	ReadLine(prompt string) (string, error)
	// ReadSecret reads one line without echo and without history.
	ReadSecret(prompt string) (string, error)
	// AppendHistory remembers a line for history navigation.
	AppendHistory(line string)
	// SetCompleter installs the Tab completion function.
	SetCompleter(f func(line string) []string)
	// Close saves history and restores the terminal.
	Close() error
}

// =============================================================================
// TERMINAL READER
// =============================================================================

// TerminalReader reads from the terminal with peterh/liner, keeping input
// history in a file between runs. Secret input uses x/term without echo.
type TerminalReader struct {
	line        *liner.State
	historyFile string
	in          *os.File
	out         io.Writer
}

// NewTerminalReader creates a reader with history loaded from historyFile.
// An empty historyFile disables persisted history.
func NewTerminalReader(historyFile string) *TerminalReader {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)
	line.SetTabCompletionStyle(liner.TabPrints)

	r := &TerminalReader{
		line:        line,
		historyFile: historyFile,
		in:          os.Stdin,
		out:         os.Stdout,
	}
	r.loadHistory()
	return r
}

func (r *TerminalReader) loadHistory() {
	if r.historyFile == "" {
		return
	}
	if f, err := os.Open(r.historyFile); err == nil {
		r.line.ReadHistory(f)
		f.Close()
	}
}

// ReadLine reads a line of input with the given prompt.
func (r *TerminalReader) ReadLine(prompt string) (string, error) {
	input, err := r.line.Prompt(prompt)
	if errors.Is(err, liner.ErrPromptAborted) {
		return "", ErrInterrupted
	}
	return input, err
}

// ReadSecret reads a line without echoing it.
func (r *TerminalReader) ReadSecret(prompt string) (string, error) {
	fd := int(r.in.Fd())
	if !term.IsTerminal(fd) {
		// Piped input has no echo to hide.
		return r.ReadLine(prompt)
	}
	fmt.Fprint(r.out, prompt)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(r.out)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// AppendHistory adds a non-blank line to the history.
func (r *TerminalReader) AppendHistory(line string) {
	if strings.TrimSpace(line) != "" {
		r.line.AppendHistory(line)
	}
}

// SetCompleter installs the Tab completion function.
func (r *TerminalReader) SetCompleter(f func(line string) []string) {
	r.line.SetCompleter(liner.Completer(f))
}

// Close persists history with secure permissions and closes the liner.
func (r *TerminalReader) Close() error {
	r.saveHistory()
	return r.line.Close()
}

func (r *TerminalReader) saveHistory() {
	if r.historyFile == "" {
		return
	}
	if err := config.EnsureConfigDir(); err != nil {
		return
	}

	// Create file with secure permissions (0600 - owner read/write only)
	f, err := os.OpenFile(r.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return
	}
	defer f.Close()

	r.line.WriteHistory(f)
}
