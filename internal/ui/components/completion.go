// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides the visual UI components for the WHY2 TUI.
package components

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/ENGO150/WHY2-Desktop/internal/commands"
	"github.com/ENGO150/WHY2-Desktop/internal/ui/styles"
	"github.com/ENGO150/WHY2-Desktop/internal/util"
)

// =============================================================================
// COMPLETION POPUP COMPONENT
// =============================================================================

// CompletionPopup draws the open suggestion set of an Autocomplete above
// the input bar. It holds no selection state of its own.
type CompletionPopup struct {
	maxVisible int
	width      int
	theme      *styles.Theme
}

// NewCompletionPopup creates a new completion popup.
func NewCompletionPopup(theme *styles.Theme) *CompletionPopup {
	return &CompletionPopup{
		maxVisible: 6,
		width:      50,
		theme:      theme,
	}
}

// SetWidth sets the popup width.
func (c *CompletionPopup) SetWidth(width int) {
	if width < 20 {
		width = 20
	}
	c.width = width
}

// SetMaxVisible sets the maximum number of visible suggestions.
func (c *CompletionPopup) SetMaxVisible(max int) {
	if max < 1 {
		max = 1
	}
	c.maxVisible = max
}

// Height returns how many terminal rows View occupies for ac.
func (c *CompletionPopup) Height(ac *commands.Autocomplete) int {
	n := len(ac.Suggestions())
	if n == 0 {
		return 0
	}
	if n > c.maxVisible {
		n = c.maxVisible + 1 // "more" line
	}
	return n + 2 // border
}

// View renders the suggestions of ac, or "" when none are open.
func (c *CompletionPopup) View(ac *commands.Autocomplete) string {
	suggestions := ac.Suggestions()
	if len(suggestions) == 0 {
		return ""
	}
	prefix := ac.Registry().Prefix()
	selected := ac.Selected()

	start, end := visibleRange(len(suggestions), selected, c.maxVisible)

	var items []string
	for i := start; i < end; i++ {
		items = append(items, c.renderItem(prefix, suggestions[i], ac.Input(), i == selected))
	}
	if hidden := len(suggestions) - (end - start); hidden > 0 {
		items = append(items, c.theme.CompletionDesc.Render("  ..."+strconv.Itoa(hidden)+" more"))
	}

	return c.theme.CompletionPopup.
		Width(c.width).
		MaxWidth(c.width + 2).
		Render(strings.Join(items, "\n"))
}

// visibleRange returns the window of at most max items that keeps the
// selected one in view.
func visibleRange(n, selected, max int) (start, end int) {
	if n <= max {
		return 0, n
	}
	start = selected - max/2
	if start < 0 {
		start = 0
	}
	end = start + max
	if end > n {
		end = n
		start = end - max
	}
	return start, end
}

func (c *CompletionPopup) renderItem(prefix string, cmd commands.CommandInfo, typed string, isSelected bool) string {
	usageWidth := c.width / 2
	usage := util.TruncateWidth(commands.Usage(prefix, cmd), usageWidth)
	desc := util.TruncateWidth(cmd.Description, c.width-usageWidth-4)

	indicator := "  "
	if isSelected {
		indicator = "> "
		return c.theme.CompletionSelected.Render(indicator + util.PadRight(usage, usageWidth) + " " + desc)
	}

	// Highlight the part already typed.
	match := len(typed)
	if match > len(usage) || !strings.EqualFold(usage[:match], typed) {
		match = 0
	}
	head := c.theme.CompletionMatch.Render(usage[:match])
	tail := c.theme.CompletionItem.Render(usage[match:])
	pad := strings.Repeat(" ", max(0, usageWidth-util.StringWidth(usage)))
	return indicator + head + tail + pad + " " + c.theme.CompletionDesc.Render(desc)
}

// ViewCompact renders a single-line hint such as "Tab: 3 commands".
func (c *CompletionPopup) ViewCompact(ac *commands.Autocomplete) string {
	suggestions := ac.Suggestions()
	switch len(suggestions) {
	case 0:
		return ""
	case 1:
		return c.theme.Hint.Render("Tab: complete " + ac.Registry().Completion(suggestions[0]))
	default:
		return c.theme.Hint.Render("Tab: " + strconv.Itoa(len(suggestions)) + " commands")
	}
}

// RenderUsageHint renders the synopsis of the command being typed, with
// the argument under the cursor highlighted. It returns "" when input does
// not name a known command.
func RenderUsageHint(theme *styles.Theme, reg *commands.Registry, input string) string {
	hint, ok := reg.HintFor(input)
	if !ok {
		return ""
	}
	parts := []string{theme.CompletionMatch.Render(reg.Prefix() + hint.Command.Name)}
	for i, arg := range hint.Command.Args {
		text := "[" + arg.Name + "]"
		if arg.Required {
			text = "<" + arg.Name + ">"
		}
		if i == hint.ArgIndex {
			parts = append(parts, theme.PromptLabel.Render(text))
		} else {
			parts = append(parts, theme.CompletionDesc.Render(text))
		}
	}
	line := strings.Join(parts, " ")
	if hint.Command.Description != "" {
		line += theme.CompletionDesc.Render("  " + hint.Command.Description)
	}
	return lipgloss.NewStyle().PaddingLeft(2).Render(line)
}
