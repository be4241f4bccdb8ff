// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// styles.go - Shared styling for why2 commands and line mode.
//
// Colors are disabled for non-TTY output and when NO_COLOR is set;
// FORCE_COLOR overrides detection.
package cli

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ENGO150/WHY2-Desktop/internal/logbuf"
)

func init() {
	lipgloss.SetColorProfile(colorProfile())
}

// =============================================================================
// SHARED STYLES
// =============================================================================

var (
	// TitleStyle is used for command titles and headers
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")) // Cyan

	// LabelStyle is used for field labels
	LabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")). // Light gray
			Width(20)

	// ValueStyle is used for regular values and text
	ValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")) // Off-white

	// SuccessStyle is used for success messages
	SuccessStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")). // Green
			Bold(true)

	// ErrorStyle is used for error messages and failures
	ErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")). // Red
			Bold(true)

	// WarningStyle is used for warnings and cautions
	WarningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // Yellow/Orange

	// DimStyle is used for secondary information and hints
	DimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("242")) // Dim gray

	// SeparatorStyle is used for visual separators
	SeparatorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // Dark gray

	// InfoStyle is used for informational messages
	InfoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("75")) // Blue

	// UsernameStyle is used for the sender of a chat message
	UsernameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("141")). // Purple
			Bold(true)

	// PromptStyle is used for the line mode prompt
	PromptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true)
)

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// RenderSeparator renders a horizontal separator line of the given width.
func RenderSeparator(width int) string {
	if width <= 0 {
		width = 70
	}
	return SeparatorStyle.Render(strings.Repeat("=", width))
}

// RenderLabel renders a label with consistent width.
func RenderLabel(label string) string {
	return LabelStyle.Render(label)
}

// RenderLine styles one rendered log line for line mode. Continuations
// drop the username and are indented under the previous message.
func RenderLine(line logbuf.Line) string {
	e := line.Entry
	switch e.Kind {
	case logbuf.KindMessage:
		if e.Username == "" {
			return ValueStyle.Render(e.Content)
		}
		if line.Continuation {
			indent := strings.Repeat(" ", len([]rune(e.Username))+4)
			return indent + ValueStyle.Render(e.Content)
		}
		return UsernameStyle.Render("["+e.Username+"]:") + " " + ValueStyle.Render(e.Content)
	case logbuf.KindError:
		return ErrorStyle.Render(e.Text())
	case logbuf.KindStatus:
		return SuccessStyle.Render(e.Text())
	default:
		return InfoStyle.Render(e.Text())
	}
}

// hangingIndent is how far wrapped rows of line are indented.
func hangingIndent(line logbuf.Line) int {
	e := line.Entry
	if e.Kind == logbuf.KindMessage {
		if e.Username == "" {
			return 0
		}
		return len([]rune(e.Username)) + 4
	}
	return 2
}
