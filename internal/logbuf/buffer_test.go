// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package logbuf

import (
	"testing"
)

func msg(user, content string) Entry {
	return Entry{Kind: KindMessage, Username: user, Content: content}
}

func TestBuffer_EvictTail(t *testing.T) {
	tests := []struct {
		name        string
		prior       int
		evict       uint
		wantLen     int
		wantRemoved int
	}{
		{"empty buffer", 0, 3, 0, 0},
		{"evict none", 4, 0, 4, 0},
		{"evict some", 5, 2, 3, 2},
		{"evict exact", 3, 3, 0, 3},
		{"evict more than length", 2, 10, 0, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var b Buffer
			for i := 0; i < tt.prior; i++ {
				b.Append(msg("u", string(rune('a'+i))))
			}
			removed := b.EvictTail(tt.evict)
			if removed != tt.wantRemoved {
				t.Errorf("EvictTail(%d) removed %d, want %d", tt.evict, removed, tt.wantRemoved)
			}
			if b.Len() != tt.wantLen {
				t.Errorf("Len() after EvictTail(%d) = %d, want %d", tt.evict, b.Len(), tt.wantLen)
			}
		})
	}
}

func TestBuffer_EvictTailRemovesNewest(t *testing.T) {
	var b Buffer
	b.Append(msg("a", "first"))
	b.Append(msg("a", "second"))
	b.Append(msg("a", "third"))

	b.EvictTail(2)

	got := b.Entries()
	if len(got) != 1 || got[0].Content != "first" {
		t.Errorf("Entries() after EvictTail(2) = %+v, want only \"first\"", got)
	}

	b.Append(msg("b", "fourth"))
	last, ok := b.Last()
	if !ok || last.Content != "fourth" {
		t.Errorf("Last() = %+v, %v, want \"fourth\"", last, ok)
	}
}

func TestBuffer_EntriesIsCopy(t *testing.T) {
	var b Buffer
	b.Append(msg("a", "hello"))

	entries := b.Entries()
	entries[0].Content = "changed"

	if got := b.Entries()[0].Content; got != "hello" {
		t.Errorf("buffer entry mutated through copy: %q", got)
	}
}

func TestBuffer_RenderContinuation(t *testing.T) {
	tests := []struct {
		name    string
		entries []Entry
		want    []bool
	}{
		{
			name:    "same user then new user",
			entries: []Entry{msg("a", "1"), msg("a", "2"), msg("b", "3")},
			want:    []bool{false, true, false},
		},
		{
			name: "notice breaks the group",
			entries: []Entry{
				msg("a", "1"),
				{Kind: KindInfo, Content: "server restarting"},
				msg("a", "2"),
			},
			want: []bool{false, false, false},
		},
		{
			name:    "anonymous messages group",
			entries: []Entry{msg("", "1"), msg("", "2")},
			want:    []bool{false, true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var b Buffer
			for _, e := range tt.entries {
				b.Append(e)
			}
			lines := b.Render()
			if len(lines) != len(tt.want) {
				t.Fatalf("Render() returned %d lines, want %d", len(lines), len(tt.want))
			}
			for i, line := range lines {
				if line.Continuation != tt.want[i] {
					t.Errorf("line %d Continuation = %v, want %v", i, line.Continuation, tt.want[i])
				}
				if line.System != (line.Kind != KindMessage) {
					t.Errorf("line %d System = %v for kind %v", i, line.System, line.Kind)
				}
			}
		})
	}
}

func TestBuffer_RenderAfterEviction(t *testing.T) {
	var b Buffer
	b.Append(msg("a", "1"))
	b.Append(msg("b", "2"))
	b.EvictTail(1)
	b.Append(msg("a", "3"))

	lines := b.Render()
	if !lines[1].Continuation {
		t.Error("message after eviction should continue the remaining group")
	}
}

func TestParseKind(t *testing.T) {
	for _, k := range []Kind{KindMessage, KindInfo, KindError, KindStatus} {
		got, ok := ParseKind(k.String())
		if !ok || got != k {
			t.Errorf("ParseKind(%q) = %v, %v, want %v", k.String(), got, ok, k)
		}
	}
	if _, ok := ParseKind("bogus"); ok {
		t.Error("ParseKind(\"bogus\") should fail")
	}
}

func TestEntry_Text(t *testing.T) {
	tests := []struct {
		entry Entry
		want  string
	}{
		{msg("bob", "hi"), "[bob]: hi"},
		{msg("", "system says"), "system says"},
		{Entry{Kind: KindInfo, Content: "joined"}, "* joined"},
		{Entry{Kind: KindError, Content: "Disconnected."}, "! Disconnected."},
		{Entry{Kind: KindStatus, Content: "Lobby"}, "= Lobby"},
	}
	for _, tt := range tests {
		if got := tt.entry.Text(); got != tt.want {
			t.Errorf("Text(%+v) = %q, want %q", tt.entry, got, tt.want)
		}
	}
}

func TestKind_TextRoundTrip(t *testing.T) {
	var k Kind
	if err := k.UnmarshalText([]byte("error")); err != nil || k != KindError {
		t.Errorf("UnmarshalText(error) = %v, %v", k, err)
	}
	if err := k.UnmarshalText([]byte("nope")); err == nil {
		t.Error("UnmarshalText(nope) should fail")
	}
	b, _ := KindStatus.MarshalText()
	if string(b) != "status" {
		t.Errorf("MarshalText(KindStatus) = %q, want status", b)
	}
}
