// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"sync"
	"testing"
)

func testRegistry() *Registry {
	return NewRegistry("/", []CommandInfo{
		{Name: "WHO", Triggers: []string{"WHO"}, Description: "List users"},
		{Name: "WHOIS", Triggers: []string{"WHOIS"}, Args: []Arg{{Name: "user", Required: true}}, Description: "Show a user"},
		{Name: "help", Triggers: []string{"help", "h", "?"}, Description: "Show help"},
	})
}

func names(cmds []CommandInfo) []string {
	out := make([]string, len(cmds))
	for i, c := range cmds {
		out[i] = c.Name
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestRegistry_SuggestionsFor(t *testing.T) {
	reg := testRegistry()

	tests := []struct {
		input string
		want  []string
	}{
		{"/wh", []string{"WHO", "WHOIS"}},
		{"/whois", []string{"WHOIS"}},
		{"/WhO", []string{"WHO", "WHOIS"}},
		{"who", nil},
		{"/", []string{"WHO", "WHOIS", "help"}},
		{"/h", []string{"help"}},
		{"/?", []string{"help"}},
		{"/x", nil},
		{"", nil},
		{"/who ", nil},
	}

	for _, tt := range tests {
		got := names(reg.SuggestionsFor(tt.input))
		if !equalStrings(got, tt.want) {
			t.Errorf("SuggestionsFor(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestRegistry_EmptyDisablesSuggestions(t *testing.T) {
	var nilReg *Registry
	for _, reg := range []*Registry{nilReg, Empty(), NewRegistry("", []CommandInfo{{Name: "x"}})} {
		if got := reg.SuggestionsFor("/x"); len(got) != 0 {
			t.Errorf("SuggestionsFor on empty registry = %v, want none", got)
		}
		if reg.Len() > 1 {
			t.Errorf("Len() = %d", reg.Len())
		}
	}
}

func TestRegistry_EmptyPrefixMatchesAllInput(t *testing.T) {
	reg := NewRegistry("", []CommandInfo{
		{Name: "look", Triggers: []string{"look", "l"}},
		{Name: "go", Triggers: []string{"go"}},
	})

	tests := []struct {
		input string
		want  []string
	}{
		{"", []string{"look", "go"}},
		{"L", []string{"look"}},
		{"lo", []string{"look"}},
		{"g", []string{"go"}},
		{"/look", nil},
	}
	for _, tt := range tests {
		if got := names(reg.SuggestionsFor(tt.input)); !equalStrings(got, tt.want) {
			t.Errorf("SuggestionsFor(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
	if got := reg.Completion(reg.All()[0]); got != "look " {
		t.Errorf("Completion() = %q, want %q", got, "look ")
	}
	if h, ok := reg.HintFor("l north"); !ok || h.Command.Name != "look" {
		t.Errorf("HintFor(%q) = %v/%v, want look", "l north", h.Command.Name, ok)
	}
}

func TestRegistry_NameUsedAsTrigger(t *testing.T) {
	reg := NewRegistry("!", []CommandInfo{{Name: "look"}})
	if got := names(reg.SuggestionsFor("!lo")); !equalStrings(got, []string{"look"}) {
		t.Errorf("SuggestionsFor(\"!lo\") = %v, want [look]", got)
	}
}

func TestRegistry_IsImmutable(t *testing.T) {
	src := []CommandInfo{{Name: "who", Triggers: []string{"who"}}}
	reg := NewRegistry("/", src)

	src[0].Triggers[0] = "changed"
	all := reg.All()
	all[0].Name = "changed"

	cmd, ok := reg.Get("who")
	if !ok || cmd.Name != "who" {
		t.Errorf("Get(\"who\") = %+v, %v after caller mutation", cmd, ok)
	}
}

func TestRegistry_Get(t *testing.T) {
	reg := testRegistry()
	tests := []struct {
		trigger string
		want    string
		ok      bool
	}{
		{"whois", "WHOIS", true},
		{"H", "help", true},
		{"nope", "", false},
	}
	for _, tt := range tests {
		got, ok := reg.Get(tt.trigger)
		if ok != tt.ok || got.Name != tt.want {
			t.Errorf("Get(%q) = %q, %v, want %q, %v", tt.trigger, got.Name, ok, tt.want, tt.ok)
		}
	}
}

func TestRegistry_ConcurrentReads(t *testing.T) {
	reg := testRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if got := reg.SuggestionsFor("/wh"); len(got) != 2 {
				t.Errorf("SuggestionsFor(\"/wh\") returned %d commands", len(got))
			}
		}()
	}
	wg.Wait()
}

func TestUsage(t *testing.T) {
	cmd := CommandInfo{Name: "kick", Args: []Arg{{Name: "user", Required: true}, {Name: "reason"}}}
	if got, want := Usage("/", cmd), "/kick <user> [reason]"; got != want {
		t.Errorf("Usage() = %q, want %q", got, want)
	}
}

func TestRegistry_HintFor(t *testing.T) {
	reg := testRegistry()
	tests := []struct {
		input  string
		ok     bool
		name   string
		argIdx int
	}{
		{"/whois", false, "", 0},
		{"/whois ", true, "WHOIS", 0},
		{"/WHOIS al", true, "WHOIS", 0},
		{"/whois al ", true, "WHOIS", 1},
		{"/whois \"a b\" c", true, "WHOIS", 1},
		{"/nope x", false, "", 0},
		{"whois x", false, "", 0},
	}
	for _, tt := range tests {
		h, ok := reg.HintFor(tt.input)
		if ok != tt.ok {
			t.Errorf("HintFor(%q) ok = %v, want %v", tt.input, ok, tt.ok)
			continue
		}
		if ok && (h.Command.Name != tt.name || h.ArgIndex != tt.argIdx) {
			t.Errorf("HintFor(%q) = %s/%d, want %s/%d", tt.input, h.Command.Name, h.ArgIndex, tt.name, tt.argIdx)
		}
	}
}
