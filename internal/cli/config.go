// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config.go - Configuration command handler for why2.
//
// Command: config [subcommand]
//
// Subcommands:
//
//	show (default)      Show all settings
//	get <key>           Show one setting
//	set <key> <value>   Change a setting and save it
//	reset               Write the default configuration
//	path                Show the config file path
//	keys                List every settable key
//
// Examples:
//
//	why2 config set connection.default_port 9000
//	why2 config get ui.theme
//	why2 config show --json
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ENGO150/WHY2-Desktop/internal/config"
)

// HandleConfig handles the "config" command.
func HandleConfig(args Args, out io.Writer) error {
	switch args.Subcommand {
	case "", "show":
		return handleConfigShow(args, out)
	case "get":
		if len(args.Raw) < 1 {
			return ErrMissingArgument("key", "why2 config get <key>")
		}
		return handleConfigGet(args, args.Raw[0], out)
	case "set":
		if len(args.Raw) < 2 {
			return ErrMissingArgument("key and value", "why2 config set <key> <value>")
		}
		return handleConfigSet(args, args.Raw[0], strings.Join(args.Raw[1:], " "), out)
	case "reset":
		return handleConfigReset(args, out)
	case "path":
		return handleConfigPath(args, out)
	case "keys":
		for _, k := range config.GetAllKeys() {
			fmt.Fprintln(out, k)
		}
		return nil
	default:
		return Usagef("unknown config subcommand: %s", args.Subcommand)
	}
}

// configFile returns the file config commands read and write.
func configFile(args Args) (string, error) {
	if args.ConfigPath != "" {
		return args.ConfigPath, nil
	}
	return config.ConfigPathTOML()
}

// loadForCommand loads the file named by --config, or the default layered
// configuration.
func loadForCommand(args Args) (*config.Config, error) {
	if args.ConfigPath != "" {
		return config.LoadFromPath(args.ConfigPath)
	}
	return config.Load()
}

func handleConfigShow(args Args, out io.Writer) error {
	cfg, err := loadForCommand(args)
	if err != nil {
		if cfg == nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Warning: %s (using defaults)\n", err)
	}

	if args.JSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(cfg)
	}

	fmt.Fprintln(out, TitleStyle.Render("why2 Configuration"))
	fmt.Fprintln(out, RenderSeparator(41))

	section := ""
	for _, key := range config.GetAllKeys() {
		if i := strings.IndexByte(key, '.'); i > 0 && key[:i] != section {
			section = key[:i]
			fmt.Fprintln(out)
			fmt.Fprintln(out, TitleStyle.Render("["+section+"]"))
		}
		val, _ := cfg.Get(key)
		name := key
		if i := strings.IndexByte(key, '.'); i > 0 {
			name = key[i+1:]
		}
		fmt.Fprintf(out, "  %s%s\n", RenderLabel(name+":"), ValueStyle.Render(fmt.Sprint(val)))
	}

	path, _ := configFile(args)
	fmt.Fprintln(out)
	fmt.Fprintln(out, SeparatorStyle.Render(strings.Repeat("-", 41)))
	fmt.Fprintf(out, "Config file: %s\n", path)
	return nil
}

func handleConfigGet(args Args, key string, out io.Writer) error {
	cfg, err := loadForCommand(args)
	if cfg == nil {
		return err
	}
	val, err := cfg.Get(normalizeKey(key))
	if err != nil {
		return Usagef("%v", err)
	}
	fmt.Fprintln(out, val)
	return nil
}

func handleConfigSet(args Args, key, value string, out io.Writer) error {
	path, err := configFile(args)
	if err != nil {
		return err
	}

	cfg, err := readConfigFile(path)
	if err != nil {
		return err
	}

	key = normalizeKey(key)
	if err := cfg.Set(key, value); err != nil {
		return Usagef("%v", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration value: %w", err)
	}
	if err := writeConfigFile(cfg, path); err != nil {
		return err
	}

	fmt.Fprintf(out, "%s %s = %s\n", SuccessStyle.Render("[OK]"), key, value)
	return nil
}

func handleConfigReset(args Args, out io.Writer) error {
	path, err := configFile(args)
	if err != nil {
		return err
	}
	if err := writeConfigFile(config.Default(), path); err != nil {
		return err
	}
	fmt.Fprintf(out, "%s Configuration reset to defaults\n", SuccessStyle.Render("[OK]"))
	fmt.Fprintf(out, "Config file: %s\n", path)
	return nil
}

func handleConfigPath(args Args, out io.Writer) error {
	path, err := configFile(args)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, path)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Fprintln(os.Stderr, DimStyle.Render("(file does not exist - will be created on first save)"))
	}
	return nil
}

// readConfigFile loads exactly one file without environment overrides,
// so that saving it does not bake overrides in. A missing file yields the
// defaults.
func readConfigFile(path string) (*config.Config, error) {
	cfg := config.Default()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = config.LoadJSON(cfg, path)
	case ".yaml", ".yml":
		err = config.LoadYAML(cfg, path)
	default:
		err = config.LoadTOML(cfg, path)
	}
	if err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	return cfg, nil
}

func writeConfigFile(cfg *config.Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return config.SaveJSON(cfg, path)
	case ".yaml", ".yml":
		return Usagef("saving YAML config is not supported; use a .toml or .json file")
	default:
		return config.SaveTOML(cfg, path)
	}
}

// normalizeKey accepts "ui.theme", "UI.Theme" and "ui-theme" style keys.
func normalizeKey(key string) string {
	key = strings.ToLower(strings.TrimSpace(key))
	if !strings.Contains(key, ".") {
		if i := strings.IndexAny(key, "-"); i > 0 {
			key = key[:i] + "." + key[i+1:]
		}
	}
	return key
}
