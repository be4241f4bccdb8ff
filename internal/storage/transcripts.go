// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ENGO150/WHY2-Desktop/internal/logbuf"
	"github.com/ENGO150/WHY2-Desktop/internal/session"
	"github.com/ENGO150/WHY2-Desktop/internal/util"
)

// =============================================================================
// TRANSCRIPT METADATA
// =============================================================================

// TranscriptMeta contains metadata for listing transcripts.
type TranscriptMeta struct {
	ID          string            `json:"id"`
	Address     string            `json:"address"`
	StatusLabel string            `json:"status_label,omitempty"`
	StartedAt   time.Time         `json:"started_at"`
	EndedAt     time.Time         `json:"ended_at"`
	Reason      session.EndReason `json:"reason"`
	EntryCount  int               `json:"entry_count"`
	Preview     string            `json:"preview"` // First chat message truncated
}

// =============================================================================
// TRANSCRIPT STORE
// =============================================================================

// TranscriptStore persists session transcripts in SQLite.
// It satisfies session.Recorder.
type TranscriptStore struct {
	mu sync.Mutex
	db *sql.DB
}

var _ session.Recorder = (*TranscriptStore)(nil)

// Open opens or creates the transcript database at path.
func Open(path string) (*TranscriptStore, error) {
	if path == "" {
		return nil, errors.New("database path cannot be empty")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	if _, err := db.Exec(InitMetadata); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &TranscriptStore{db: db}, nil
}

// Close closes the database.
func (s *TranscriptStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Record stores a finished session. Recording the same session ID twice
// replaces the earlier transcript.
func (s *TranscriptStore) Record(ctx context.Context, t session.Transcript) error {
	if t.SessionID == "" {
		return errors.New("transcript has no session ID")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return ErrStoreClosed
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", t.SessionID); err != nil {
		return fmt.Errorf("failed to replace session: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO sessions (id, address, status_label, started_at, ended_at, reason)
		VALUES (?, ?, ?, ?, ?, ?)`,
		t.SessionID, t.Address, t.StatusLabel,
		t.StartedAt.UnixNano(), t.EndedAt.UnixNano(), string(t.Reason),
	); err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO entries (session_id, seq, kind, username, content, at)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare entry insert: %w", err)
	}
	defer stmt.Close()

	for i, e := range t.Entries {
		if _, err := stmt.ExecContext(ctx,
			t.SessionID, i, e.Kind.String(), e.Username, e.Content, e.At.UnixNano(),
		); err != nil {
			return fmt.Errorf("failed to insert entry %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transcript: %w", err)
	}
	return nil
}

// listQuery selects transcript metadata with the first chat message as preview.
const listQuery = `
SELECT s.id, s.address, s.status_label, s.started_at, s.ended_at, s.reason,
       (SELECT COUNT(*) FROM entries e WHERE e.session_id = s.id),
       COALESCE((SELECT e.content FROM entries e
                 WHERE e.session_id = s.id AND e.kind = 'message'
                 ORDER BY e.seq LIMIT 1), '')
FROM sessions s`

// List returns the most recent transcripts first. A limit of zero or less
// returns all of them.
func (s *TranscriptStore) List(ctx context.Context, limit int) ([]TranscriptMeta, error) {
	query := listQuery + " ORDER BY s.started_at DESC"
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	return s.queryMetas(ctx, query, args...)
}

// Search returns transcripts whose address, status label or any entry
// contains query (case-insensitive), most recent first.
func (s *TranscriptStore) Search(ctx context.Context, query string) ([]TranscriptMeta, error) {
	if strings.TrimSpace(query) == "" {
		return s.List(ctx, 0)
	}
	pattern := "%" + escapeLike(strings.ToLower(query)) + "%"
	return s.queryMetas(ctx, listQuery+`
		WHERE LOWER(s.address) LIKE ? ESCAPE '\'
		   OR LOWER(s.status_label) LIKE ? ESCAPE '\'
		   OR EXISTS (SELECT 1 FROM entries e
		              WHERE e.session_id = s.id AND LOWER(e.content) LIKE ? ESCAPE '\')
		ORDER BY s.started_at DESC`, pattern, pattern, pattern)
}

func (s *TranscriptStore) queryMetas(ctx context.Context, query string, args ...interface{}) ([]TranscriptMeta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil, ErrStoreClosed
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transcripts: %w", err)
	}
	defer rows.Close()

	var metas []TranscriptMeta
	for rows.Next() {
		var (
			m                  TranscriptMeta
			started, ended     int64
			reason, firstEntry string
		)
		if err := rows.Scan(&m.ID, &m.Address, &m.StatusLabel, &started, &ended, &reason, &m.EntryCount, &firstEntry); err != nil {
			return nil, fmt.Errorf("failed to scan transcript: %w", err)
		}
		m.StartedAt = time.Unix(0, started)
		m.EndedAt = time.Unix(0, ended)
		m.Reason = session.EndReason(reason)
		m.Preview = util.TruncateRunes(util.SingleLine(firstEntry), 80)
		metas = append(metas, m)
	}
	return metas, rows.Err()
}

// Load returns the full transcript with the given ID. A unique ID prefix
// is accepted as well.
func (s *TranscriptStore) Load(ctx context.Context, id string) (*session.Transcript, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil, ErrStoreClosed
	}

	fullID, err := s.resolveID(ctx, id)
	if err != nil {
		return nil, err
	}

	t := &session.Transcript{SessionID: fullID}
	var (
		started, ended int64
		reason         string
	)
	err = s.db.QueryRowContext(ctx,
		"SELECT address, status_label, started_at, ended_at, reason FROM sessions WHERE id = ?", fullID,
	).Scan(&t.Address, &t.StatusLabel, &started, &ended, &reason)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTranscriptNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load transcript: %w", err)
	}
	t.StartedAt = time.Unix(0, started)
	t.EndedAt = time.Unix(0, ended)
	t.Reason = session.EndReason(reason)

	rows, err := s.db.QueryContext(ctx,
		"SELECT kind, username, content, at FROM entries WHERE session_id = ? ORDER BY seq", fullID)
	if err != nil {
		return nil, fmt.Errorf("failed to load entries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			e    logbuf.Entry
			kind string
			at   int64
		)
		if err := rows.Scan(&kind, &e.Username, &e.Content, &at); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		k, ok := logbuf.ParseKind(kind)
		if !ok {
			return nil, fmt.Errorf("transcript %s has unknown entry kind %q", fullID, kind)
		}
		e.Kind = k
		e.At = time.Unix(0, at)
		t.Entries = append(t.Entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return t, nil
}

// resolveID expands an ID prefix. Callers hold s.mu.
func (s *TranscriptStore) resolveID(ctx context.Context, id string) (string, error) {
	if id == "" {
		return "", ErrTranscriptNotFound
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM sessions WHERE id LIKE ? ESCAPE '\'
		 ORDER BY id = ? DESC LIMIT 2`, escapeLike(id)+"%", id)
	if err != nil {
		return "", fmt.Errorf("failed to resolve transcript: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var got string
		if err := rows.Scan(&got); err != nil {
			return "", err
		}
		if got == id {
			return got, nil
		}
		ids = append(ids, got)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}
	switch len(ids) {
	case 0:
		return "", ErrTranscriptNotFound
	case 1:
		return ids[0], nil
	default:
		return "", ErrAmbiguousID
	}
}

// Delete removes a transcript.
func (s *TranscriptStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return ErrStoreClosed
	}

	res, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete transcript: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrTranscriptNotFound
	}
	return nil
}

// Prune keeps the newest keep transcripts and deletes the rest.
// Returns how many were deleted.
func (s *TranscriptStore) Prune(ctx context.Context, keep int) (int, error) {
	if keep < 0 {
		keep = 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return 0, ErrStoreClosed
	}

	res, err := s.db.ExecContext(ctx, `
		DELETE FROM sessions WHERE id NOT IN (
			SELECT id FROM sessions ORDER BY started_at DESC LIMIT ?
		)`, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to prune transcripts: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrTranscriptNotFound is returned when a transcript doesn't exist.
// Use errors.Is(err, ErrTranscriptNotFound) to check for this error.
var ErrTranscriptNotFound = &TranscriptError{Message: "transcript not found"}

// ErrAmbiguousID is returned when an ID prefix matches more than one transcript.
var ErrAmbiguousID = &TranscriptError{Message: "transcript ID prefix is ambiguous"}

// ErrStoreClosed is returned after Close.
var ErrStoreClosed = &TranscriptError{Message: "transcript store is closed"}

// TranscriptError represents a transcript-related error.
// It implements the error interface and can be compared using errors.Is.
type TranscriptError struct {
	Message string
}

// Error implements the error interface.
func (e *TranscriptError) Error() string {
	return e.Message
}

// Is implements errors.Is support for comparing transcript errors.
func (e *TranscriptError) Is(target error) bool {
	t, ok := target.(*TranscriptError)
	if !ok {
		return false
	}
	return e.Message == t.Message
}

// =============================================================================
// LIST FORMATTING
// =============================================================================

// FormatTranscriptList formats transcripts for display in a table.
func FormatTranscriptList(metas []TranscriptMeta) string {
	if len(metas) == 0 {
		return "No sessions found."
	}

	var sb strings.Builder
	sb.WriteString("Sessions:\n")
	sb.WriteString("-----------------------------------------------------------------------\n")
	sb.WriteString(util.PadRight("ID", 14) + " " + util.PadRight("Started", 17) + " " +
		util.PadRight("Server", 20) + " " + util.PadRight("Lines", 6) + " Preview\n")
	sb.WriteString("-----------------------------------------------------------------------\n")

	for _, m := range metas {
		idStr := m.ID
		if len(idStr) > 14 {
			idStr = idStr[:14]
		}
		server := m.StatusLabel
		if server == "" {
			server = m.Address
		}
		sb.WriteString(util.PadRight(idStr, 14) + " " +
			util.PadRight(m.StartedAt.Format("2006-01-02 15:04"), 17) + " " +
			util.PadRight(util.TruncateWidth(server, 20), 20) + " " +
			util.PadRight(strconv.Itoa(m.EntryCount), 6) + " " +
			util.TruncateWidth(m.Preview, 30) + "\n")
	}
	return sb.String()
}

// =============================================================================
// EXPORT
// =============================================================================

// ExportText renders a transcript as plain text, one log line per entry.
func ExportText(t *session.Transcript) string {
	var sb strings.Builder
	sb.WriteString("Session " + t.SessionID + "\n")
	sb.WriteString("Server: " + t.Address)
	if t.StatusLabel != "" {
		sb.WriteString(" (" + t.StatusLabel + ")")
	}
	sb.WriteString("\n")
	sb.WriteString("Started: " + t.StartedAt.Format(time.RFC3339) + "\n")
	sb.WriteString("Ended: " + t.EndedAt.Format(time.RFC3339) + " (" + string(t.Reason) + ")\n\n")

	for _, e := range t.Entries {
		sb.WriteString(FormatEntry(e))
		sb.WriteString("\n")
	}
	return sb.String()
}

// FormatEntry renders one log entry as a timestamped line.
func FormatEntry(e logbuf.Entry) string {
	return "[" + e.At.Format("15:04:05") + "] " + e.Text()
}

// ExportJSON exports a transcript as pretty-printed JSON.
func ExportJSON(t *session.Transcript) ([]byte, error) {
	return json.MarshalIndent(t, "", "  ")
}
