// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides command-line parsing and the non-TUI commands for why2.
//
// # Key Types
//
//   - Command: Enumeration of the available CLI commands
//   - Args: Parsed command-line arguments
//   - PlainClient: Line mode session loop driven by a LineReader
//   - TerminalReader: liner-based LineReader with persisted history
//
// # Usage
//
// Parse and dispatch:
//
//	cmd, args, err := cli.Parse(os.Args[1:])
//	switch cmd {
//	case cli.CmdPlain:
//	    client := cli.NewPlainClient(cli.PlainOptions{Controller: ctrl, Reader: reader, Out: os.Stdout})
//	    return client.Run(ctx, args.Address)
//	case cli.CmdHistory:
//	    return cli.HandleHistory(ctx, store, args, os.Stdout)
//	}
//
// # Commands Overview
//
//   - (default): full-screen client, optionally connecting to an address
//   - --plain: line mode client
//   - history: list, show, search and delete stored transcripts
//   - config: show and change configuration
//   - version: build information
package cli
