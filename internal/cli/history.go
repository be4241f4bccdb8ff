// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// history.go - Transcript history commands for why2.
//
// Command: history [subcommand]
// Aliases: hist
//
// Subcommands:
//
//	list (default)      List recent sessions (--limit N, --json)
//	show <id>           Print a session transcript (--json)
//	search <text>       Find sessions mentioning text
//	delete <id>         Delete a session transcript
//
// IDs may be shortened to any unique prefix.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/ENGO150/WHY2-Desktop/internal/session"
	"github.com/ENGO150/WHY2-Desktop/internal/storage"
)

// HistoryStore is the transcript storage used by the history command.
type HistoryStore interface {
	List(ctx context.Context, limit int) ([]storage.TranscriptMeta, error)
	Search(ctx context.Context, query string) ([]storage.TranscriptMeta, error)
	Load(ctx context.Context, id string) (*session.Transcript, error)
	Delete(ctx context.Context, id string) error
}

// HandleHistory handles the "history" command.
func HandleHistory(ctx context.Context, store HistoryStore, args Args, out io.Writer) error {
	switch args.Subcommand {
	case "", "list", "ls":
		metas, err := store.List(ctx, args.Limit)
		if err != nil {
			return err
		}
		return printMetas(metas, args.JSON, out)

	case "show":
		if len(args.Raw) < 1 {
			return ErrMissingArgument("id", "why2 history show <id>")
		}
		t, err := store.Load(ctx, args.Raw[0])
		if err != nil {
			return fmt.Errorf("session %s: %w", args.Raw[0], err)
		}
		if args.JSON {
			data, err := storage.ExportJSON(t)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(out, string(data))
			return err
		}
		_, err = io.WriteString(out, storage.ExportText(t))
		return err

	case "search", "find":
		if len(args.Raw) < 1 {
			return ErrMissingArgument("text", "why2 history search <text>")
		}
		metas, err := store.Search(ctx, strings.Join(args.Raw, " "))
		if err != nil {
			return err
		}
		return printMetas(metas, args.JSON, out)

	case "delete", "rm":
		if len(args.Raw) < 1 {
			return ErrMissingArgument("id", "why2 history delete <id>")
		}
		if err := store.Delete(ctx, args.Raw[0]); err != nil {
			return fmt.Errorf("session %s: %w", args.Raw[0], err)
		}
		fmt.Fprintf(out, "%s Deleted %s\n", SuccessStyle.Render("[OK]"), args.Raw[0])
		return nil

	default:
		return Usagef("unknown history subcommand: %s", args.Subcommand)
	}
}

func printMetas(metas []storage.TranscriptMeta, asJSON bool, out io.Writer) error {
	if asJSON {
		if metas == nil {
			metas = []storage.TranscriptMeta{}
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(metas)
	}
	_, err := io.WriteString(out, storage.FormatTranscriptList(metas))
	return err
}
