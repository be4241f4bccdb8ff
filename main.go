// why2 - a terminal client for line-oriented chat servers.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ENGO150/WHY2-Desktop/internal/backend"
	"github.com/ENGO150/WHY2-Desktop/internal/cli"
	"github.com/ENGO150/WHY2-Desktop/internal/config"
	"github.com/ENGO150/WHY2-Desktop/internal/logging"
	"github.com/ENGO150/WHY2-Desktop/internal/session"
	"github.com/ENGO150/WHY2-Desktop/internal/storage"
	"github.com/ENGO150/WHY2-Desktop/internal/ui/chat"
	"github.com/ENGO150/WHY2-Desktop/internal/ui/styles"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// demoAddress is shown for the built-in demo server.
const demoAddress = "demo.local"

func init() {
	cli.Version = Version
	cli.GitCommit = GitCommit
	cli.BuildDate = BuildDate
}

func main() {
	cmd, args, err := cli.Parse(os.Args[1:])
	if err == nil {
		err = run(cmd, args)
	}
	if err != nil {
		cli.DisplayError(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}

func run(cmd cli.Command, args cli.Args) error {
	switch cmd {
	case cli.CmdHelp:
		cli.PrintUsage(os.Stdout)
		return nil
	case cli.CmdVersion:
		cli.PrintVersion(os.Stdout)
		return nil
	case cli.CmdConfig:
		return cli.HandleConfig(args, os.Stdout)
	}

	cfg := loadConfig(args)

	logFile, err := cfg.LogFile()
	if err != nil {
		return err
	}
	level := cfg.Logging.Level
	if args.LogLevel != "" {
		level = args.LogLevel
	}
	logger, closeLog, err := logging.Setup(logFile, level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: logging disabled: %s\n", err)
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cmd == cli.CmdHistory {
		store, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer store.Close()
		return cli.HandleHistory(ctx, store, args, os.Stdout)
	}

	// Sessions
	var recorder session.Recorder
	if cfg.History.Enabled && !args.NoHistory {
		store, err := openStore(cfg)
		if err != nil {
			logger.Warn("transcript history disabled", "error", err)
		} else {
			defer store.Close()
			recorder = store
			if keep := cfg.History.MaxTranscripts; keep > 0 {
				if n, err := store.Prune(ctx, keep); err != nil {
					logger.Warn("transcript prune failed", "error", err)
				} else if n > 0 {
					logger.Info("pruned transcripts", "removed", n, "kept", keep)
				}
			}
		}
	}

	var be backend.Backend
	address := args.Address
	if args.Demo {
		be = backend.NewDemo()
		if address == "" {
			address = demoAddress
		}
	} else {
		be = backend.NewTCP(backend.TCPConfig{
			DefaultPort: cfg.Connection.DefaultPort,
			DialTimeout: cfg.Connection.DialTimeout(),
			EventBuffer: cfg.Connection.EventBuffer,
			SendRate:    cfg.Connection.SendRate,
			SendBurst:   cfg.Connection.SendBurst,
			Logger:      logger,
		})
	}

	ctrl := session.NewController(session.Options{
		Backend:  be,
		Logger:   logger,
		Recorder: recorder,
	})
	defer ctrl.Close()

	if cmd == cli.CmdPlain || (cmd == cli.CmdTUI && cfg.UI.Plain) {
		return runPlain(ctx, ctrl, cfg, address, logger)
	}
	if err := cli.RequiresTTY("the full-screen interface"); err != nil {
		return err
	}
	return runTUI(ctx, ctrl, cfg, args, address, logger)
}

// loadConfig loads the file named by --config, or the layered defaults
// through the global config. A broken file is reported and replaced by
// defaults.
func loadConfig(args cli.Args) *config.Config {
	if args.ConfigPath == "" {
		return config.Global()
	}
	cfg, err := config.LoadFromPath(args.ConfigPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %s (using defaults)\n", err)
	}
	if cfg == nil {
		cfg = config.Default()
	}
	config.SetGlobal(cfg)
	return cfg
}

func openStore(cfg *config.Config) (*storage.TranscriptStore, error) {
	path, err := cfg.HistoryDatabase()
	if err != nil {
		return nil, err
	}
	return storage.Open(path)
}

// watchConfig replaces the global config when its file changes and hands
// each good reload to apply. It returns when ctx is done. Line mode reads
// its settings once and does not watch.
func watchConfig(ctx context.Context, args cli.Args, logger *slog.Logger, apply func(*config.Config)) {
	path := args.ConfigPath
	if path == "" {
		p, err := config.ConfigPathTOML()
		if err != nil {
			return
		}
		path = p
	}
	err := config.Watch(ctx, path, func(cfg *config.Config, err error) {
		if err != nil {
			logger.Warn("config reload failed", "path", path, "error", err)
			return
		}
		config.SetGlobal(cfg)
		logger.Info("config reloaded", "path", path)
		apply(cfg)
	})
	if err != nil {
		logger.Debug("config watch unavailable", "path", path, "error", err)
	}
}

func runPlain(ctx context.Context, ctrl *session.Controller, cfg *config.Config, address string, logger *slog.Logger) error {
	historyFile, err := cfg.InputHistoryFile()
	if err != nil {
		logger.Warn("input history disabled", "error", err)
		historyFile = ""
	}
	reader := cli.NewTerminalReader(historyFile)
	defer reader.Close()

	client := cli.NewPlainClient(cli.PlainOptions{
		Controller:  ctrl,
		Reader:      reader,
		Out:         os.Stdout,
		DialTimeout: cfg.Connection.DialTimeout(),
		Timestamps:  cfg.UI.ShowTimestamps,
		Width:       cli.TerminalWidth(),
		RawTerminal: cli.IsTTY(),
		Logger:      logger,
	})
	return client.Run(ctx, address)
}

func runTUI(ctx context.Context, ctrl *session.Controller, cfg *config.Config, args cli.Args, address string, logger *slog.Logger) error {
	if address == "" {
		address = cfg.Connection.DefaultAddress
	}
	model := chat.New(chat.Options{
		Controller:     ctrl,
		Theme:          styles.NewThemeFor(cfg.UI.Theme),
		Address:        address,
		AutoConnect:    args.Address != "" || args.Demo,
		DialTimeout:    cfg.Connection.DialTimeout(),
		CharLimit:      cfg.UI.InputCharLimit,
		MaxSuggestions: cfg.UI.MaxSuggestions,
		Timestamps:     cfg.UI.ShowTimestamps,
		Context:        ctx,
		Logger:         logger,
	})

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	go watchConfig(ctx, args, logger, func(cfg *config.Config) {
		p.Send(chat.SettingsMsg{
			Timestamps:     cfg.UI.ShowTimestamps,
			MaxSuggestions: cfg.UI.MaxSuggestions,
		})
	})
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("interface error: %w", err)
	}
	return nil
}
