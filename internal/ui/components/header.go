// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/ENGO150/WHY2-Desktop/internal/session"
	"github.com/ENGO150/WHY2-Desktop/internal/ui/styles"
	"github.com/ENGO150/WHY2-Desktop/internal/util"
)

// =============================================================================
// HEADER COMPONENT
// =============================================================================

// Header is the one-line title bar: brand, server label and phase.
type Header struct {
	Title   string // Brand text (default: "WHY2")
	Label   string // Server status label; empty until the server sets one
	Address string // Address of the live session
	Phase   session.Phase
	Uptime  string // Formatted session duration
	Width   int
	theme   *styles.Theme
}

// NewHeader creates a header with default values.
func NewHeader(theme *styles.Theme) *Header {
	return &Header{
		Title: "WHY2",
		Width: 80,
		theme: theme,
	}
}

// SetWidth updates the header width.
func (h *Header) SetWidth(width int) {
	h.Width = width
}

// SetStatus copies the display fields from a session snapshot.
func (h *Header) SetStatus(st session.Status) {
	h.Label = st.StatusLabel
	h.Address = st.Address
	h.Phase = st.Phase
	h.Uptime = session.FormatDuration(st.Duration)
}

// Reset clears session fields after a disconnect.
func (h *Header) Reset() {
	h.Label = ""
	h.Address = ""
	h.Phase = session.Disconnected
	h.Uptime = ""
}

// View renders the header.
func (h *Header) View() string {
	width := h.Width
	if width < 20 {
		width = 20
	}
	inner := width - 2

	left := h.theme.HeaderBrand.Render(h.Title)
	name := h.Label
	if name == "" {
		name = h.Address
	}
	if name != "" {
		left += "  " + h.theme.HeaderLabel.Render(util.TruncateWidth(util.SingleLine(name), inner/2))
	}

	right := h.phaseView()
	if h.Uptime != "" && h.Phase != session.Disconnected {
		right += h.theme.HeaderPhase.Render("  " + h.Uptime)
	}

	gap := inner - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		// Narrow terminal: drop the right side
		return h.theme.Header.Width(width).Render(left)
	}
	return h.theme.Header.Width(width).Render(left + spaces(gap) + right)
}

func (h *Header) phaseView() string {
	switch h.Phase {
	case session.ChatActive:
		return h.theme.HeaderOnline.Render(styles.StatusIndicators.Success + " " + h.Phase.String())
	case session.Disconnected:
		return h.theme.HeaderPhase.Render(h.Phase.String())
	default:
		return h.theme.WarningStyle.Render(styles.StatusIndicators.Pending + " " + h.Phase.String())
	}
}

func spaces(n int) string {
	return util.PadRight("", n)
}
