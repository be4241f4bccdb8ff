// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"

	"github.com/ENGO150/WHY2-Desktop/internal/logbuf"
)

// =============================================================================
// THEME CREATION TESTS
// =============================================================================

func TestNewTheme(t *testing.T) {
	theme := NewTheme()
	if theme == nil {
		t.Fatal("NewTheme() returned nil")
	}
	if theme.App.Render("test") == "" {
		t.Error("NewTheme() should initialize App style")
	}
}

func TestNewThemeFor(t *testing.T) {
	tests := []struct {
		mode string
		want bool
	}{
		{ModeDark, true},
		{ModeLight, false},
	}

	for _, tc := range tests {
		theme := NewThemeFor(tc.mode)
		if theme.IsDark != tc.want {
			t.Errorf("NewThemeFor(%q).IsDark = %v, want %v", tc.mode, theme.IsDark, tc.want)
		}
		if lipgloss.HasDarkBackground() != tc.want {
			t.Errorf("NewThemeFor(%q) did not pin the lipgloss background", tc.mode)
		}
	}
}

func TestThemeInitStyles(t *testing.T) {
	theme := NewTheme()

	styles := []struct {
		name  string
		style lipgloss.Style
	}{
		{"Header", theme.Header},
		{"Username", theme.Username},
		{"InputContainer", theme.InputContainer},
		{"CompletionPopup", theme.CompletionPopup},
		{"PromptBox", theme.PromptBox},
		{"ConnectBox", theme.ConnectBox},
		{"StatusBar", theme.StatusBar},
		{"ErrorStyle", theme.ErrorStyle},
	}

	for _, s := range styles {
		if !strings.Contains(s.style.Render("test"), "test") {
			t.Errorf("%s style should render its content", s.name)
		}
	}
}

func TestThemeEntryStyle(t *testing.T) {
	theme := NewTheme()

	kinds := []logbuf.Kind{logbuf.KindMessage, logbuf.KindInfo, logbuf.KindError, logbuf.KindStatus}
	for _, k := range kinds {
		got := theme.EntryStyle(k).Render("body")
		if !strings.Contains(got, "body") {
			t.Errorf("EntryStyle(%v).Render() = %q, should contain body", k, got)
		}
	}
}

// =============================================================================
// THEME SIZE TESTS
// =============================================================================

func TestThemeSetSize(t *testing.T) {
	theme := NewTheme()

	tests := []struct {
		width  int
		height int
	}{
		{80, 24},
		{120, 40},
		{40, 10},
	}

	for _, tc := range tests {
		theme.SetSize(tc.width, tc.height)
		if theme.Width != tc.width {
			t.Errorf("SetSize(%d, %d) Width = %d, want %d", tc.width, tc.height, theme.Width, tc.width)
		}
		if theme.Height != tc.height {
			t.Errorf("SetSize(%d, %d) Height = %d, want %d", tc.width, tc.height, theme.Height, tc.height)
		}
	}
}

func TestThemeAppClipsToSize(t *testing.T) {
	theme := NewTheme()
	theme.SetSize(20, 3)

	out := theme.App.Render(strings.Repeat(strings.Repeat("x", 30)+"\n", 5))
	if h := lipgloss.Height(out); h > 3 {
		t.Errorf("App rendered %d rows, want at most 3", h)
	}
	if w := lipgloss.Width(out); w > 20 {
		t.Errorf("App rendered %d columns, want at most 20", w)
	}
}

func TestThemeGetLayoutMode(t *testing.T) {
	theme := NewTheme()

	tests := []struct {
		width int
		want  LayoutMode
	}{
		{40, LayoutNarrow},
		{59, LayoutNarrow},
		{60, LayoutWide},
		{99, LayoutWide},
		{100, LayoutWide},
		{200, LayoutWide},
	}

	for _, tc := range tests {
		theme.SetSize(tc.width, 24)
		if got := theme.GetLayoutMode(); got != tc.want {
			t.Errorf("GetLayoutMode() with width %d = %v, want %v", tc.width, got, tc.want)
		}
	}
}
