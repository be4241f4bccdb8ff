// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"
	"testing"

	"github.com/ENGO150/WHY2-Desktop/internal/logbuf"
)

// =============================================================================
// KIND MAPPING TESTS
// =============================================================================

func TestKindColor(t *testing.T) {
	tests := []struct {
		kind logbuf.Kind
		want string
	}{
		{logbuf.KindMessage, TextPrimary.Dark},
		{logbuf.KindInfo, TextSecondary.Dark},
		{logbuf.KindError, Rose.Dark},
		{logbuf.KindStatus, Amber.Dark},
	}

	for _, tc := range tests {
		if got := KindColor(tc.kind).Dark; got != tc.want {
			t.Errorf("KindColor(%v).Dark = %q, want %q", tc.kind, got, tc.want)
		}
	}
}

func TestKindIndicator(t *testing.T) {
	if got := KindIndicator(logbuf.KindMessage); got != "" {
		t.Errorf("KindIndicator(message) = %q, want empty", got)
	}

	seen := make(map[string]bool)
	for _, k := range []logbuf.Kind{logbuf.KindInfo, logbuf.KindError, logbuf.KindStatus} {
		ind := KindIndicator(k)
		if ind == "" {
			t.Errorf("KindIndicator(%v) should not be empty", k)
		}
		if seen[ind] {
			t.Errorf("duplicate indicator %q for %v", ind, k)
		}
		seen[ind] = true
	}
}

// =============================================================================
// RENDER FUNCTION TESTS
// =============================================================================

func TestRenderHelpers(t *testing.T) {
	tests := []struct {
		name      string
		render    func(string) string
		indicator string
	}{
		{"RenderError", RenderError, StatusIndicators.Error},
		{"RenderWarning", RenderWarning, StatusIndicators.Warning},
	}

	for _, tc := range tests {
		got := tc.render("connected")
		if !strings.Contains(got, "connected") {
			t.Errorf("%s() = %q, should contain the message", tc.name, got)
		}
		if !strings.Contains(got, tc.indicator) {
			t.Errorf("%s() = %q, should contain %q", tc.name, got, tc.indicator)
		}
	}
}
