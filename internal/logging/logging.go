// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging sets up diagnostic logging for why2.
//
// The full-screen interface owns the terminal, so diagnostics go to a
// JSON log file instead of stderr. Packages take a *slog.Logger and fall
// back to slog.Default() when none is given.
package logging

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// ParseLevel converts a level name to a slog.Level. Names are
// case-insensitive; "warning" is accepted for "warn".
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", name)
}

// OpenFile creates a JSON logger appending to path at the given level.
// The returned close function flushes and closes the file.
func OpenFile(path string, level slog.Level) (*slog.Logger, func(), error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	handler := slog.NewJSONHandler(file, &slog.HandlerOptions{Level: level})
	return slog.New(handler), func() { file.Close() }, nil
}

// Setup opens the log file, installs it as the default logger and returns
// it. If the file cannot be opened, logging is discarded and the error is
// returned so the caller can report it.
func Setup(path, levelName string) (*slog.Logger, func(), error) {
	level, levelErr := ParseLevel(levelName)

	logger, closeFn, err := OpenFile(path, level)
	if err != nil {
		logger = Discard()
		closeFn = func() {}
	}
	slog.SetDefault(logger)

	if err != nil {
		return logger, closeFn, err
	}
	if levelErr != nil {
		logger.Warn("invalid log level, using info", "level", levelName)
	}
	return logger, closeFn, nil
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(discardHandler{})
}

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (h discardHandler) WithAttrs([]slog.Attr) slog.Handler      { return h }
func (h discardHandler) WithGroup(string) slog.Handler           { return h }
