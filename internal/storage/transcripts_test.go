// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ENGO150/WHY2-Desktop/internal/logbuf"
	"github.com/ENGO150/WHY2-Desktop/internal/session"
)

func openTestStore(t *testing.T) *TranscriptStore {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleTranscript(id string, started time.Time, lines ...string) session.Transcript {
	tr := session.Transcript{
		SessionID:   id,
		Address:     "chat.example.org:8080",
		StatusLabel: "Example Chat",
		StartedAt:   started,
		EndedAt:     started.Add(time.Minute),
		Reason:      session.EndLeft,
	}
	tr.Entries = append(tr.Entries, logbuf.Entry{
		Kind: logbuf.KindInfo, Content: "Successfully connected to chat.example.org.", At: started,
	})
	for i, l := range lines {
		tr.Entries = append(tr.Entries, logbuf.Entry{
			Kind: logbuf.KindMessage, Username: "alice", Content: l, At: started.Add(time.Duration(i+1) * time.Second),
		})
	}
	return tr
}

func TestOpen_EmptyPath(t *testing.T) {
	_, err := Open("")
	assert.Error(t, err)
}

func TestOpen_CreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "history.db")
	store, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, store.Close())
}

func TestTranscriptStore_RecordAndLoad(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	started := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	tr := sampleTranscript("sess_one", started, "hello", "world")
	require.NoError(t, store.Record(ctx, tr))

	got, err := store.Load(ctx, "sess_one")
	require.NoError(t, err)
	assert.Equal(t, tr.Address, got.Address)
	assert.Equal(t, tr.StatusLabel, got.StatusLabel)
	assert.Equal(t, session.EndLeft, got.Reason)
	assert.True(t, tr.StartedAt.Equal(got.StartedAt))
	require.Len(t, got.Entries, 3)
	assert.Equal(t, logbuf.KindInfo, got.Entries[0].Kind)
	assert.Equal(t, "alice", got.Entries[1].Username)
	assert.Equal(t, "world", got.Entries[2].Content)
	assert.True(t, tr.Entries[2].At.Equal(got.Entries[2].At))
}

func TestTranscriptStore_RecordReplaces(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	started := time.Now()

	require.NoError(t, store.Record(ctx, sampleTranscript("sess_x", started, "a", "b", "c")))
	require.NoError(t, store.Record(ctx, sampleTranscript("sess_x", started, "only")))

	got, err := store.Load(ctx, "sess_x")
	require.NoError(t, err)
	assert.Len(t, got.Entries, 2)
}

func TestTranscriptStore_RecordRequiresID(t *testing.T) {
	store := openTestStore(t)
	assert.Error(t, store.Record(context.Background(), session.Transcript{}))
}

func TestTranscriptStore_LoadNotFound(t *testing.T) {
	store := openTestStore(t)
	_, err := store.Load(context.Background(), "sess_missing")
	assert.True(t, errors.Is(err, ErrTranscriptNotFound))
}

func TestTranscriptStore_LoadByPrefix(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, store.Record(ctx, sampleTranscript("sess_abc1", now)))
	require.NoError(t, store.Record(ctx, sampleTranscript("sess_abc2", now)))
	require.NoError(t, store.Record(ctx, sampleTranscript("sess_def", now)))

	got, err := store.Load(ctx, "sess_d")
	require.NoError(t, err)
	assert.Equal(t, "sess_def", got.SessionID)

	_, err = store.Load(ctx, "sess_abc")
	assert.True(t, errors.Is(err, ErrAmbiguousID))

	got, err = store.Load(ctx, "sess_abc1")
	require.NoError(t, err)
	assert.Equal(t, "sess_abc1", got.SessionID)
}

func TestTranscriptStore_List(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"sess_a", "sess_b", "sess_c"} {
		require.NoError(t, store.Record(ctx, sampleTranscript(id, base.Add(time.Duration(i)*time.Hour), "first from "+id)))
	}

	all, err := store.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "sess_c", all[0].ID, "newest first")
	assert.Equal(t, 2, all[0].EntryCount)
	assert.Equal(t, "first from sess_c", all[0].Preview)

	limited, err := store.List(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestTranscriptStore_Search(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, store.Record(ctx, sampleTranscript("sess_1", now, "Deploy at NOON")))
	require.NoError(t, store.Record(ctx, sampleTranscript("sess_2", now.Add(time.Second), "lunch?")))

	results, err := store.Search(ctx, "noon")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "sess_1", results[0].ID)

	results, err = store.Search(ctx, "100%")
	require.NoError(t, err)
	assert.Empty(t, results, "LIKE wildcards are literal")

	results, err = store.Search(ctx, "  ")
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestTranscriptStore_Delete(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Record(ctx, sampleTranscript("sess_del", time.Now(), "bye")))
	require.NoError(t, store.Delete(ctx, "sess_del"))

	_, err := store.Load(ctx, "sess_del")
	assert.True(t, errors.Is(err, ErrTranscriptNotFound))
	assert.True(t, errors.Is(store.Delete(ctx, "sess_del"), ErrTranscriptNotFound))
}

func TestTranscriptStore_Prune(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	base := time.Now()

	for i := 0; i < 5; i++ {
		id := "sess_" + string(rune('a'+i))
		require.NoError(t, store.Record(ctx, sampleTranscript(id, base.Add(time.Duration(i)*time.Minute))))
	}

	n, err := store.Prune(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	left, err := store.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, left, 2)
	assert.Equal(t, "sess_e", left[0].ID)
}

func TestTranscriptStore_Closed(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	require.NoError(t, store.Close())
	require.NoError(t, store.Close())

	err = store.Record(context.Background(), sampleTranscript("sess_z", time.Now()))
	assert.True(t, errors.Is(err, ErrStoreClosed))
}

func TestFormatTranscriptList(t *testing.T) {
	assert.Equal(t, "No sessions found.", FormatTranscriptList(nil))

	out := FormatTranscriptList([]TranscriptMeta{{
		ID:          "sess_0123456789abcdef",
		StatusLabel: "Example Chat",
		StartedAt:   time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC),
		EntryCount:  12,
		Preview:     "hello",
	}})
	assert.Contains(t, out, "sess_012345678")
	assert.NotContains(t, out, "sess_0123456789a")
	assert.Contains(t, out, "2025-03-01 09:30")
	assert.Contains(t, out, "Example Chat")
	assert.Contains(t, out, "hello")
}

func TestFormatEntry(t *testing.T) {
	at := time.Date(2025, 1, 1, 8, 5, 9, 0, time.UTC)
	tests := []struct {
		entry logbuf.Entry
		want  string
	}{
		{logbuf.Entry{Kind: logbuf.KindMessage, Username: "bob", Content: "hi", At: at}, "[08:05:09] [bob]: hi"},
		{logbuf.Entry{Kind: logbuf.KindMessage, Content: "anon", At: at}, "[08:05:09] anon"},
		{logbuf.Entry{Kind: logbuf.KindInfo, Content: "joined", At: at}, "[08:05:09] * joined"},
		{logbuf.Entry{Kind: logbuf.KindError, Content: "Disconnected.", At: at}, "[08:05:09] ! Disconnected."},
		{logbuf.Entry{Kind: logbuf.KindStatus, Content: "Server", At: at}, "[08:05:09] = Server"},
	}
	for _, tt := range tests {
		if got := FormatEntry(tt.entry); got != tt.want {
			t.Errorf("FormatEntry(%v) = %q, want %q", tt.entry, got, tt.want)
		}
	}
}

func TestExport(t *testing.T) {
	tr := sampleTranscript("sess_exp", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), "line one")

	text := ExportText(&tr)
	assert.True(t, strings.HasPrefix(text, "Session sess_exp\n"))
	assert.Contains(t, text, "chat.example.org:8080 (Example Chat)")
	assert.Contains(t, text, "[alice]: line one")

	data, err := ExportJSON(&tr)
	require.NoError(t, err)
	var decoded session.Transcript
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, tr.SessionID, decoded.SessionID)
	assert.Equal(t, logbuf.KindMessage, decoded.Entries[1].Kind)
}
