// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// =============================================================================
// COMMAND DEFINITION
// =============================================================================

// Arg describes one positional argument of a server command.
type Arg struct {
	Name     string `json:"name"`
	Required bool   `json:"required"`
}

// CommandInfo describes a command the server accepts.
type CommandInfo struct {
	// Name is the canonical name, without the prefix (e.g., "whois")
	Name string `json:"name"`

	// Triggers are every accepted spelling, without the prefix
	Triggers []string `json:"triggers"`

	// Args in positional order
	Args []Arg `json:"args"`

	// Description is shown next to the suggestion
	Description string `json:"description"`
}

// =============================================================================
// COMMAND REGISTRY
// =============================================================================

// Registry is the set of commands a server advertised for one session.
// It is immutable once built and safe for concurrent reads. A nil
// *Registry behaves as an empty registry.
type Registry struct {
	prefix   string
	commands []CommandInfo
}

// NewRegistry builds a registry from a server's command list. The slice is
// copied.
func NewRegistry(prefix string, cmds []CommandInfo) *Registry {
	r := &Registry{
		prefix:   prefix,
		commands: make([]CommandInfo, len(cmds)),
	}
	for i, c := range cmds {
		c.Triggers = append([]string(nil), c.Triggers...)
		c.Args = append([]Arg(nil), c.Args...)
		if len(c.Triggers) == 0 && c.Name != "" {
			c.Triggers = []string{c.Name}
		}
		r.commands[i] = c
	}
	return r
}

// Empty returns a registry with no commands. Autocomplete is disabled for it.
func Empty() *Registry {
	return &Registry{}
}

// Prefix returns the string every command starts with (e.g., "/").
func (r *Registry) Prefix() string {
	if r == nil {
		return ""
	}
	return r.prefix
}

// Len returns the number of commands.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.commands)
}

// All returns the commands in the order the server listed them.
func (r *Registry) All() []CommandInfo {
	if r == nil {
		return nil
	}
	return append([]CommandInfo(nil), r.commands...)
}

// Get finds the command that has trigger t, compared case-insensitively.
// t must not include the prefix.
func (r *Registry) Get(t string) (CommandInfo, bool) {
	if r == nil {
		return CommandInfo{}, false
	}
	fold := cases.Fold()
	want := fold.String(t)
	for _, cmd := range r.commands {
		for _, trig := range cmd.Triggers {
			if fold.String(trig) == want {
				return cmd, true
			}
		}
	}
	return CommandInfo{}, false
}

// SuggestionsFor returns every command with a trigger that starts with the
// text typed after the prefix, compared case-insensitively. Input that does
// not start with the prefix yields nothing; an empty prefix starts every
// input, so all of it is matched against the triggers. Commands keep
// registry order.
func (r *Registry) SuggestionsFor(input string) []CommandInfo {
	if r == nil || len(r.commands) == 0 {
		return nil
	}
	if !strings.HasPrefix(input, r.prefix) {
		return nil
	}

	// Folding is stateful; one Caser per call keeps concurrent readers apart.
	fold := cases.Fold()
	partial := fold.String(strings.TrimPrefix(input, r.prefix))

	var out []CommandInfo
	for _, cmd := range r.commands {
		for _, trig := range cmd.Triggers {
			if strings.HasPrefix(fold.String(trig), partial) {
				out = append(out, cmd)
				break
			}
		}
	}
	return out
}

// Completion returns the input text that selecting cmd produces: the
// prefix, the lowercased name and a trailing space.
func (r *Registry) Completion(cmd CommandInfo) string {
	return r.Prefix() + cases.Lower(language.Und).String(cmd.Name) + " "
}
