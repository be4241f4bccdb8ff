// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package commands provides the server command registry and input
// autocomplete.
//
// A server advertises its commands once per session as a prefix (e.g. "/")
// and a list of commands, each with one or more triggers. The registry is
// never modified after that, and the chat input offers suggestions drawn
// from it while the operator types.
//
// # Key Types
//
//   - Registry: Immutable command list with prefix filtering
//   - CommandInfo: One advertised command and its triggers
//   - Autocomplete: Input buffer plus the open suggestion set
//   - Hint: Usage synopsis for the command being typed
//
// # Usage
//
// Filter suggestions:
//
//	reg := commands.NewRegistry("/", cmds)
//	reg.SuggestionsFor("/wh")
//	// Returns every command with a trigger starting with "wh"
//
// Drive the input bar:
//
//	ac := commands.NewAutocomplete(reg)
//	ac.SetInput("/wh")
//	ac.Select(0) // input is now "/who "
//	text, ok := ac.Submit()
package commands
