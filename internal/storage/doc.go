// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides transcript persistence for why2.
//
// Finished sessions are written to a SQLite database so they can be listed,
// searched and replayed later with "why2 history".
//
// # Key Types
//
//   - TranscriptStore: SQLite-backed store, usable as a session.Recorder
//   - TranscriptMeta: Lightweight metadata for listing
//
// # Usage
//
// Open a store and hand it to the session controller:
//
//	store, err := storage.Open(path)
//	ctrl := session.NewController(session.Options{Backend: b, Recorder: store})
//
// List and load transcripts:
//
//	metas, err := store.List(ctx, 20)
//	t, err := store.Load(ctx, metas[0].ID)
//	fmt.Print(storage.ExportText(t))
//
// # Storage Location
//
// Transcripts are stored in ~/.why2/history.db unless history.database is set.
package storage
