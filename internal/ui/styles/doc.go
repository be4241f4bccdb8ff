// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the WHY2 TUI.

All colors use Lip Gloss AdaptiveColor for automatic light/dark terminal
detection. The ui.theme setting can pin the background instead.

# Color System (colors.go)

  - Purple - usernames and selections
  - Cyan - brand, server label, commands
  - Emerald - connected state
  - Amber - status notices and server prompts
  - Rose - server errors

Log entries map to colors through KindColor and to ASCII markers through
KindIndicator, so notices stay distinguishable without color.

# Theme System (theme.go)

	theme := styles.NewThemeFor(cfg.UI.Theme)
	line := theme.EntryStyle(entry.Kind).Render(entry.Content)
*/
package styles
