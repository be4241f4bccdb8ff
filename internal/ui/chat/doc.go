// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat provides the Bubble Tea model of the WHY2 terminal client.

The model has two screens. Between sessions it shows the connect screen:
an address input, a spinner while dialing and the reason the last attempt
or session ended. During a session it shows the server view: header,
scrollback, the chat input bar and a modal for server prompts.

# Key Components

## Model (model.go)

The Update loop is the only code that touches the session controller.
Backend calls run as tea.Cmds and report back as messages:

  - dialCmd ends in connectResultMsg
  - listenCmd reads exactly one event, so dispatch stays in order
  - fetchRegistryCmd ends in registryMsg
  - sendCmd only reports failures

Every result carries the session ID it belongs to, and results for a
session that has ended are dropped.

## View Rendering (view.go)

Scrollback goes through components.LogView, which groups consecutive
messages from one user and wraps long lines. The suggestion popup sits
above the input bar and the viewport shrinks to make room.

## Key Bindings (keys.go)

	Enter   send, or accept the highlighted suggestion
	Tab     accept the highlighted (or first) suggestion
	Up/Down move through suggestions, or scroll the log
	Esc     dismiss suggestions
	C-d     leave the session
	C-y     copy the log to the clipboard
	C-t     toggle timestamps
	C-c     quit

# Usage

	m := chat.New(chat.Options{
		Controller:  ctrl,
		Address:     "chat.example.org",
		AutoConnect: true,
	})
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
*/
package chat
