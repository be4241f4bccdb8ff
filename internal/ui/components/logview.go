// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"unicode"

	"github.com/muesli/reflow/wordwrap"
	"github.com/muesli/reflow/wrap"

	"github.com/ENGO150/WHY2-Desktop/internal/logbuf"
	"github.com/ENGO150/WHY2-Desktop/internal/ui/styles"
	"github.com/ENGO150/WHY2-Desktop/internal/util"
)

// =============================================================================
// LOG VIEW
// =============================================================================

// LogView renders session scrollback for the viewport. Messages from the
// same user in a row share one username header; wrapped rows hang under
// the first row's text.
type LogView struct {
	Width      int
	Timestamps bool
	theme      *styles.Theme
}

// NewLogView creates a log renderer.
func NewLogView(theme *styles.Theme) *LogView {
	return &LogView{Width: 80, theme: theme}
}

// Render renders every line, one entry after another.
func (v *LogView) Render(lines []logbuf.Line) string {
	var b strings.Builder
	for i, line := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(v.RenderLine(line))
	}
	return b.String()
}

// RenderLine renders one entry, wrapped to the view width.
func (v *LogView) RenderLine(line logbuf.Line) string {
	var prefix, styledPrefix string

	if v.Timestamps {
		ts := line.At.Format("15:04") + " "
		prefix += ts
		styledPrefix += v.theme.Timestamp.Render(ts)
	}

	switch {
	case line.System:
		marker := styles.KindIndicator(line.Kind) + " "
		prefix += marker
		styledPrefix += v.theme.EntryStyle(line.Kind).Render(marker)
	case line.Username == "":
	case line.Continuation:
		pad := util.PadRight("", util.StringWidth(line.Username)+4)
		prefix += pad
		styledPrefix += pad
	default:
		name := "[" + line.Username + "]: "
		prefix += name
		styledPrefix += v.theme.Username.Render(name)
	}

	indent := util.StringWidth(prefix)
	bodyWidth := v.Width - indent
	if bodyWidth < 10 {
		bodyWidth = 10
	}

	style := v.theme.EntryStyle(line.Kind)
	rows := wrapText(Sanitize(line.Content), bodyWidth)
	hang := util.PadRight("", indent)
	for i, row := range rows {
		if i == 0 {
			rows[i] = styledPrefix + style.Render(row)
		} else {
			rows[i] = hang + style.Render(row)
		}
	}
	return strings.Join(rows, "\n")
}

// wrapText word-wraps s to width columns, breaking words that are longer
// than a whole row.
func wrapText(s string, width int) []string {
	if s == "" {
		return []string{""}
	}
	wrapped := wrap.String(wordwrap.String(s, width), width)
	return strings.Split(wrapped, "\n")
}

// Sanitize removes control characters from remote text so it cannot move
// the cursor or restyle the terminal. Newlines are kept; tabs become
// spaces.
func Sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\n':
			return r
		case r == '\t':
			return ' '
		case unicode.IsControl(r):
			return -1
		}
		return r
	}, s)
}
