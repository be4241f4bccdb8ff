// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides unified configuration loading and management for why2.
//
// Supports TOML, JSON and YAML configuration formats, with sensible defaults,
// environment variable overrides, and validation.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - ConnectionConfig: Default port, dial timeout and send rate limiting
//   - UIConfig: Theme, input limits and suggestion popup size
//   - HistoryConfig: Transcript storage and line-mode input history
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (WHY2_*)
//   - ~/.why2/config.toml
//   - ~/.why2/config.json
//   - Built-in defaults
//
// A file passed with --config is read with LoadFromPath, which also accepts
// .yaml and .yml files.
//
// # Usage
//
// Load configuration:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Access settings:
//
//	port := cfg.Connection.DefaultPort
//	theme, _ := cfg.Get("ui.theme")
//
// Follow edits to a file:
//
//	go config.Watch(ctx, path, func(cfg *config.Config, err error) { ... })
package config
