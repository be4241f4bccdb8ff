// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - CLI parsing and top-level commands for why2.
package cli

import (
	"errors"
	"fmt"
	"io"
	"runtime"
	"strings"

	"github.com/spf13/pflag"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Command represents the CLI command to execute.
type Command int

const (
	CmdTUI Command = iota
	CmdPlain
	CmdHistory
	CmdConfig
	CmdVersion
	CmdHelp
)

// String returns the command name as typed on the command line.
func (c Command) String() string {
	switch c {
	case CmdTUI:
		return "tui"
	case CmdPlain:
		return "plain"
	case CmdHistory:
		return "history"
	case CmdConfig:
		return "config"
	case CmdVersion:
		return "version"
	case CmdHelp:
		return "help"
	default:
		return "unknown"
	}
}

// Args holds parsed CLI arguments.
type Args struct {
	// Global flags
	Address    string // Server to connect to on start
	Plain      bool   // Line mode instead of the full-screen interface
	Demo       bool   // Use the built-in demo server
	ConfigPath string // Explicit config file
	LogLevel   string // Overrides logging.level
	NoHistory  bool   // Do not store transcripts
	JSON       bool   // Output in JSON format (history, config)
	Limit      int    // history list limit

	// Command-specific
	Subcommand string
	Raw        []string // Positional arguments after the subcommand
}

const usageText = `why2 - terminal client for line-oriented chat servers

Usage:
  why2 [flags] [address]           Open the chat client (connects to address)
  why2 --plain [address]           Line mode client, no full-screen UI
  why2 --demo                      Try the client against a built-in server
  why2 history [list|show|search|delete] [arg]
                                   Browse transcripts of past sessions
  why2 config [show|get|set|path|keys] [key] [value]
                                   Inspect or change configuration
  why2 version                     Show version information
  why2 help                        Show this help

Addresses without a port use connection.default_port (8080).

Flags:
`

// Parse parses the command line (without the program name).
func Parse(argv []string) (Command, Args, error) {
	var args Args

	flagSet := newFlagSet(&args, io.Discard)
	if err := flagSet.Parse(argv); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return CmdHelp, args, nil
		}
		return CmdHelp, args, &UsageError{Err: err}
	}
	if help, _ := flagSet.GetBool("help"); help {
		return CmdHelp, args, nil
	}
	if version, _ := flagSet.GetBool("version"); version {
		return CmdVersion, args, nil
	}

	positional := flagSet.Args()
	if len(positional) == 0 {
		return interactive(args), args, nil
	}

	switch strings.ToLower(positional[0]) {
	case "history", "hist":
		args.Subcommand, args.Raw = splitSubcommand(positional[1:], "list")
		return CmdHistory, args, nil
	case "config":
		args.Subcommand, args.Raw = splitSubcommand(positional[1:], "show")
		return CmdConfig, args, nil
	case "version":
		return CmdVersion, args, nil
	case "help":
		return CmdHelp, args, nil
	}

	if len(positional) > 1 {
		if suggestion := SuggestCommand(positional[0]); suggestion != "" {
			return CmdHelp, args, &UsageError{Err: fmt.Errorf("unknown command %q (did you mean %q?)", positional[0], suggestion)}
		}
		return CmdHelp, args, &UsageError{Err: fmt.Errorf("unexpected argument: %s", positional[1])}
	}

	args.Address = positional[0]
	return interactive(args), args, nil
}

func interactive(args Args) Command {
	if args.Plain {
		return CmdPlain
	}
	return CmdTUI
}

func splitSubcommand(rest []string, def string) (string, []string) {
	if len(rest) == 0 {
		return def, nil
	}
	return strings.ToLower(rest[0]), rest[1:]
}

func newFlagSet(args *Args, out io.Writer) *pflag.FlagSet {
	flagSet := pflag.NewFlagSet("why2", pflag.ContinueOnError)
	flagSet.SetOutput(out)
	flagSet.SetInterspersed(true)
	flagSet.BoolVarP(&args.Plain, "plain", "p", false, "line mode client without the full-screen interface")
	flagSet.BoolVar(&args.Demo, "demo", false, "connect to a built-in demo server")
	flagSet.StringVarP(&args.ConfigPath, "config", "c", "", "config file (.toml, .json, .yaml)")
	flagSet.StringVar(&args.LogLevel, "log-level", "", "log level: debug, info, warn, error")
	flagSet.BoolVar(&args.NoHistory, "no-history", false, "do not store session transcripts")
	flagSet.BoolVar(&args.JSON, "json", false, "JSON output for history and config")
	flagSet.IntVarP(&args.Limit, "limit", "n", 20, "number of transcripts to list")
	flagSet.BoolP("version", "V", false, "show version information")
	flagSet.BoolP("help", "h", false, "show help")
	return flagSet
}

// PrintUsage writes the help text.
func PrintUsage(w io.Writer) {
	var args Args
	flagSet := newFlagSet(&args, w)
	fmt.Fprint(w, usageText)
	fmt.Fprint(w, flagSet.FlagUsages())
}

// PrintVersion writes version information.
func PrintVersion(w io.Writer) {
	fmt.Fprintf(w, "why2 %s\n", Version)
	fmt.Fprintf(w, "  commit:  %s\n", GitCommit)
	fmt.Fprintf(w, "  built:   %s\n", BuildDate)
	fmt.Fprintf(w, "  go:      %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
