// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ENGO150/WHY2-Desktop/internal/ui/styles"
	"github.com/ENGO150/WHY2-Desktop/internal/util"
)

// =============================================================================
// STATUS BAR COMPONENT
// =============================================================================

// Shortcut is one key hint.
type Shortcut struct {
	Key  string
	Desc string
}

// StatusBar is the bottom line: a transient notice on the left and key
// hints on the right.
type StatusBar struct {
	Notice    string
	Error     bool
	Shortcuts []Shortcut
	Width     int
	theme     *styles.Theme
}

// NewStatusBar creates a status bar.
func NewStatusBar(theme *styles.Theme) *StatusBar {
	return &StatusBar{Width: 80, theme: theme}
}

// SetNotice shows text on the left, styled as an error when isErr is set
// and as a success otherwise.
func (s *StatusBar) SetNotice(text string, isErr bool) {
	s.Notice = text
	s.Error = isErr
}

// ClearNotice removes the notice.
func (s *StatusBar) ClearNotice() {
	s.Notice = ""
	s.Error = false
}

// View renders the bar. Shortcuts are dropped from the right until the
// line fits.
func (s *StatusBar) View() string {
	inner := s.Width - 2
	if inner < 10 {
		inner = 10
	}

	left := ""
	if s.Notice != "" {
		notice := util.TruncateWidth(util.SingleLine(s.Notice), inner)
		if s.Error {
			left = s.theme.ErrorStyle.Render(notice)
		} else {
			left = s.theme.SuccessStyle.Render(notice)
		}
	}

	hints := s.Shortcuts
	var right string
	for len(hints) > 0 {
		right = s.renderShortcuts(hints)
		if lipgloss.Width(left)+lipgloss.Width(right)+2 <= inner {
			break
		}
		hints = hints[:len(hints)-1]
		right = ""
	}

	gap := inner - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}
	return s.theme.StatusBar.Width(s.Width).Render(left + strings.Repeat(" ", gap) + right)
}

func (s *StatusBar) renderShortcuts(hints []Shortcut) string {
	parts := make([]string, len(hints))
	for i, h := range hints {
		parts[i] = s.theme.ShortcutKey.Render(h.Key) + " " + s.theme.ShortcutDesc.Render(h.Desc)
	}
	return strings.Join(parts, s.theme.ShortcutDesc.Render("  "))
}
