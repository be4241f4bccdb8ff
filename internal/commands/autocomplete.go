// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import "strings"

// =============================================================================
// AUTOCOMPLETE STATE
// =============================================================================

// Autocomplete holds the chat input buffer together with the suggestion
// set derived from it.
type Autocomplete struct {
	registry *Registry

	// Current input text
	input string

	// Open suggestions; nil when the popup is closed
	suggestions []CommandInfo

	// Highlighted suggestion (-1 for none)
	selected int
}

// NewAutocomplete creates autocomplete state over r. r may be nil.
func NewAutocomplete(r *Registry) *Autocomplete {
	return &Autocomplete{registry: r, selected: -1}
}

// SetRegistry swaps the registry, used once the session's command list
// arrives. Suggestions are recomputed for the current input.
func (a *Autocomplete) SetRegistry(r *Registry) {
	a.registry = r
	a.refresh()
}

// Registry returns the registry suggestions are drawn from.
func (a *Autocomplete) Registry() *Registry {
	return a.registry
}

// SetInput replaces the input text and recomputes suggestions. Setting the
// same text again is a no-op, so a dismissed popup stays closed until the
// text changes.
func (a *Autocomplete) SetInput(s string) {
	if s == a.input {
		return
	}
	a.input = s
	a.refresh()
}

func (a *Autocomplete) refresh() {
	a.suggestions = a.registry.SuggestionsFor(a.input)
	a.selected = -1
}

// Input returns the current input text.
func (a *Autocomplete) Input() string {
	return a.input
}

// Suggestions returns the open suggestion set.
func (a *Autocomplete) Suggestions() []CommandInfo {
	return a.suggestions
}

// Visible reports whether any suggestions are open.
func (a *Autocomplete) Visible() bool {
	return len(a.suggestions) > 0
}

// Selected returns the highlighted index, or -1.
func (a *Autocomplete) Selected() int {
	return a.selected
}

// Next highlights the next suggestion, wrapping around.
func (a *Autocomplete) Next() {
	if len(a.suggestions) == 0 {
		return
	}
	a.selected = (a.selected + 1) % len(a.suggestions)
}

// Prev highlights the previous suggestion, wrapping around.
func (a *Autocomplete) Prev() {
	if len(a.suggestions) == 0 {
		return
	}
	a.selected--
	if a.selected < 0 {
		a.selected = len(a.suggestions) - 1
	}
}

// Select accepts suggestion i: the input becomes prefix + lowercase name +
// space and the suggestion set closes. Nothing is submitted. It reports
// false if i is out of range.
func (a *Autocomplete) Select(i int) bool {
	if i < 0 || i >= len(a.suggestions) {
		return false
	}
	a.input = a.registry.Completion(a.suggestions[i])
	a.suggestions = nil
	a.selected = -1
	return true
}

// SelectHighlighted accepts the highlighted suggestion, or the first one
// when nothing is highlighted.
func (a *Autocomplete) SelectHighlighted() bool {
	if a.selected < 0 {
		return a.Select(0)
	}
	return a.Select(a.selected)
}

// Submit returns the raw input for sending and clears the input and the
// suggestion set. Input that is blank after trimming is left alone and
// ok is false.
func (a *Autocomplete) Submit() (text string, ok bool) {
	if strings.TrimSpace(a.input) == "" {
		return "", false
	}
	text = a.input
	a.input = ""
	a.suggestions = nil
	a.selected = -1
	return text, true
}

// Dismiss closes the suggestion set and keeps the input text.
func (a *Autocomplete) Dismiss() {
	a.suggestions = nil
	a.selected = -1
}
