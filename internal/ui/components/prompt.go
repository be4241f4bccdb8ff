// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/ENGO150/WHY2-Desktop/internal/prompt"
	"github.com/ENGO150/WHY2-Desktop/internal/ui/styles"
	"github.com/ENGO150/WHY2-Desktop/internal/util"
)

// =============================================================================
// PROMPT BOX
// =============================================================================

// PromptBox renders a server prompt as a modal over the log.
type PromptBox struct {
	Width int
	// Error is shown under the input, e.g. after an empty submit
	Error string
	theme *styles.Theme
}

// NewPromptBox creates a prompt box.
func NewPromptBox(theme *styles.Theme) *PromptBox {
	return &PromptBox{Width: 60, theme: theme}
}

// View renders cfg around the already rendered input field.
func (p *PromptBox) View(cfg prompt.Config, input string) string {
	width := p.Width
	if width < 24 {
		width = 24
	}

	label := cfg.Label
	if label == "" {
		label = "Input requested"
	}
	rows := []string{
		p.theme.PromptLabel.Render(util.TruncateWidth(util.SingleLine(Sanitize(label)), width-6)),
		"",
		input,
	}
	if p.Error != "" {
		rows = append(rows, "", p.theme.ErrorStyle.Render(styles.StatusIndicators.Error+" "+p.Error))
	}

	hint := "Enter submit"
	if cfg.Kind == prompt.Secret {
		hint += " | input hidden"
	}
	rows = append(rows, "", p.theme.ShortcutDesc.Render(hint))

	return p.theme.PromptBox.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
