// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared across why2.
//
// # Key Functions
//
// String Utilities:
//   - TruncateRunes: UTF-8 safe string truncation with ellipsis
//   - TruncateWidth, StringWidth, PadRight: Terminal column aware layout
//   - SingleLine: Flatten remote text for one-line cells
//
// File Operations:
//   - AtomicWriteFile: Replace a file through a synced temp file and rename
//
// # Usage
//
//	// Fit a status label into the header
//	label := util.TruncateWidth(status, 24)
//
//	// Write files atomically to prevent data loss
//	err := util.AtomicWriteFile(path, data, 0600)
package util
