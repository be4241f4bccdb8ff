// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package components provides the styled building blocks of the WHY2 TUI.

Components hold layout state only. Session state stays in the session
controller and is passed in at render time.

# Components

  - Header (header.go) - brand, server label, phase and uptime
  - LogView (logview.go) - scrollback with username grouping and wrapping
  - CompletionPopup (completion.go) - command suggestions over the input bar
  - PromptBox (prompt.go) - modal for server prompts
  - StatusBar (statusbar.go) - transient notices and key hints

# Usage

	theme := styles.NewTheme()
	logView := components.NewLogView(theme)
	logView.Width = 80
	viewport.SetContent(logView.Render(sess.Log.Render()))
*/
package components
