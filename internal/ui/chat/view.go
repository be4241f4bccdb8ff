// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ENGO150/WHY2-Desktop/internal/session"
	"github.com/ENGO150/WHY2-Desktop/internal/ui/components"
	"github.com/ENGO150/WHY2-Desktop/internal/ui/styles"
	"github.com/ENGO150/WHY2-Desktop/internal/util"
)

// Fixed rows of the server view.
const (
	headerHeight = 1
	statusHeight = 1
	inputHeight  = 2 // border + input line
)

// =============================================================================
// LAYOUT
// =============================================================================

// layout sizes the viewport and inputs for the current terminal and
// footer contents.
func (m *Model) layout() {
	m.header.SetWidth(m.width)
	m.statusBar.Width = m.width
	m.popup.SetWidth(min(m.width-4, 70))
	m.promptBox.Width = min(m.width-4, 60)
	m.logView.Width = m.width - 1

	inputWidth := m.width - 6
	if inputWidth < 10 {
		inputWidth = 10
	}
	m.chatInput.Width = inputWidth
	m.promptInput.Width = min(inputWidth, 50)
	m.addrInput.Width = min(inputWidth, 40)

	body := m.height - headerHeight - statusHeight - m.footerHeight()
	if body < 1 {
		body = 1
	}
	m.viewport.Width = m.width
	m.viewport.Height = body
}

// footerHeight counts the rows below the log.
func (m *Model) footerHeight() int {
	s := m.ctrl.Session()
	if s == nil || s.Prompt.IsOpen() || s.Phase() != session.ChatActive {
		return inputHeight
	}
	h := inputHeight + m.popupHeight()
	if m.hintLine() != "" {
		h++
	}
	return h
}

// Narrow terminals get the one-line suggestion strip.
func (m *Model) narrow() bool {
	return m.theme.GetLayoutMode() == styles.LayoutNarrow
}

func (m *Model) popupHeight() int {
	if !m.narrow() {
		return m.popup.Height(m.ac)
	}
	if m.ac.Visible() {
		return 1
	}
	return 0
}

func (m *Model) popupView() string {
	if m.narrow() {
		return m.popup.ViewCompact(m.ac)
	}
	return m.popup.View(m.ac)
}

// hintLine is the usage hint under the input, or the character counter
// once the line passes three quarters of the limit.
func (m *Model) hintLine() string {
	if hint := components.RenderUsageHint(m.theme, m.ac.Registry(), m.chatInput.Value()); hint != "" {
		return hint
	}
	n, limit := len([]rune(m.chatInput.Value())), m.chatInput.CharLimit
	if limit <= 0 || n < limit*3/4 {
		return ""
	}
	count := strconv.Itoa(n) + "/" + strconv.Itoa(limit)
	style := m.theme.CharCount
	switch {
	case n >= limit:
		style = m.theme.CharCountDanger
	case n >= limit*9/10:
		style = m.theme.CharCountWarning
	}
	return style.Width(m.width - 2).Render(count)
}

// =============================================================================
// VIEW
// =============================================================================

// View renders the model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	switch m.ctrl.Phase() {
	case session.Disconnected, session.Connecting:
		return m.theme.App.Render(m.connectView())
	}
	return m.theme.App.Render(m.sessionView())
}

func (m Model) connectView() string {
	t := m.theme

	rows := []string{
		t.ConnectLogo.Render("WHY2"),
		t.HeaderPhase.Render("chat client"),
		"",
	}

	if m.ctrl.Phase() == session.Connecting {
		target := util.TruncateWidth(m.ctrl.PendingAddress(), 40)
		rows = append(rows,
			m.spinner.View()+" "+t.InfoStyle.Render("Connecting to "+target+"..."),
			"",
			t.ShortcutDesc.Render("Esc cancel"),
		)
	} else {
		rows = append(rows, t.PromptLabel.Render("Server address"), m.addrInput.View())
		if m.connectErr != "" {
			rows = append(rows, "", styles.RenderError(util.TruncateWidth(m.connectErr, 50)))
		}
		if m.endNote != "" {
			rows = append(rows, "", styles.RenderWarning(m.endNote))
		}
	}

	box := t.ConnectBox.Render(lipgloss.JoinVertical(lipgloss.Center, rows...))
	body := lipgloss.Place(m.width, max(m.height-statusHeight, 1), lipgloss.Center, lipgloss.Center, box)

	m.statusBar.Shortcuts = shortcuts(m.keys.ConnectHelp())
	return lipgloss.JoinVertical(lipgloss.Left, body, m.statusBar.View())
}

func (m Model) sessionView() string {
	s := m.ctrl.Session()
	t := m.theme

	var body string
	if cfg, open := s.Prompt.Current(); open {
		box := m.promptBox.View(cfg, m.promptInput.View())
		body = lipgloss.Place(m.width, m.viewport.Height, lipgloss.Center, lipgloss.Center, box)
	} else {
		body = m.viewport.View()
	}

	var footer []string
	switch {
	case s.Prompt.IsOpen():
		footer = append(footer, t.InputContainer.Width(m.width).Render(t.InputPlaceholder.Render("Answer the server prompt above")))
	case s.Phase() == session.ChatActive:
		if popup := m.popupView(); popup != "" {
			footer = append(footer, popup)
		}
		footer = append(footer, t.InputContainer.Width(m.width).Render(m.chatInput.View()))
		if hint := m.hintLine(); hint != "" {
			footer = append(footer, hint)
		}
	default:
		footer = append(footer, t.InputContainer.Width(m.width).Render(m.spinner.View()+" "+t.InputPlaceholder.Render(waitingText(s))))
	}

	m.statusBar.Shortcuts = shortcuts(m.keys.ShortHelp())
	parts := []string{m.header.View(), body}
	parts = append(parts, footer...)
	parts = append(parts, m.statusBar.View())
	return strings.Join(parts, "\n")
}

// waitingText describes a session that has no input open.
func waitingText(s *session.Session) string {
	if s.Phase() == session.Authenticating {
		return "Authenticating..."
	}
	return "Waiting for input..."
}
