// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/ENGO150/WHY2-Desktop/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete why2 configuration.
type Config struct {
	// General settings
	Version string `toml:"version" json:"version" yaml:"version"`

	// Connection configuration
	Connection ConnectionConfig `toml:"connection" json:"connection" yaml:"connection"`

	// UI configuration
	UI UIConfig `toml:"ui" json:"ui" yaml:"ui"`

	// Logging configuration
	Logging LoggingConfig `toml:"logging" json:"logging" yaml:"logging"`

	// History configuration
	History HistoryConfig `toml:"history" json:"history" yaml:"history"`
}

// ConnectionConfig contains server connection settings.
type ConnectionConfig struct {
	// DefaultAddress pre-fills the connect form
	DefaultAddress string `toml:"default_address" json:"default_address" yaml:"default_address"`
	// DefaultPort is used for addresses given without a port
	DefaultPort int `toml:"default_port" json:"default_port" yaml:"default_port"`
	// DialTimeoutSecs bounds a connection attempt
	DialTimeoutSecs int `toml:"dial_timeout_secs" json:"dial_timeout_secs" yaml:"dial_timeout_secs"`
	// EventBuffer is how many server events may queue before they are read
	EventBuffer int `toml:"event_buffer" json:"event_buffer" yaml:"event_buffer"`
	// SendRate limits lines sent per second (0 = unlimited)
	SendRate float64 `toml:"send_rate" json:"send_rate" yaml:"send_rate"`
	// SendBurst is how many lines may be sent at once
	SendBurst int `toml:"send_burst" json:"send_burst" yaml:"send_burst"`
}

// DialTimeout returns DialTimeoutSecs as a duration.
func (c ConnectionConfig) DialTimeout() time.Duration {
	return time.Duration(c.DialTimeoutSecs) * time.Second
}

// UIConfig contains UI configuration.
type UIConfig struct {
	// Theme is the UI theme: "dark", "light", "auto"
	Theme string `toml:"theme" json:"theme" yaml:"theme"`
	// InputCharLimit caps the length of one input line
	InputCharLimit int `toml:"input_char_limit" json:"input_char_limit" yaml:"input_char_limit"`
	// MaxSuggestions is how many command suggestions are shown at once
	MaxSuggestions int `toml:"max_suggestions" json:"max_suggestions" yaml:"max_suggestions"`
	// ShowTimestamps prefixes log lines with the time they arrived
	ShowTimestamps bool `toml:"show_timestamps" json:"show_timestamps" yaml:"show_timestamps"`
	// Plain uses the line-mode interface instead of the full-screen one
	Plain bool `toml:"plain" json:"plain" yaml:"plain"`
}

// LoggingConfig contains diagnostic logging configuration.
type LoggingConfig struct {
	// Level is "debug", "info", "warn" or "error"
	Level string `toml:"level" json:"level" yaml:"level"`
	// File is where logs are written; empty means ~/.why2/why2.log
	File string `toml:"file" json:"file" yaml:"file"`
}

// HistoryConfig controls what is kept between runs.
type HistoryConfig struct {
	// Enabled stores session transcripts
	Enabled bool `toml:"enabled" json:"enabled" yaml:"enabled"`
	// Database is the transcript database path; empty means ~/.why2/history.db
	Database string `toml:"database" json:"database" yaml:"database"`
	// InputHistory is the line-mode input history file; empty means ~/.why2/input_history
	InputHistory string `toml:"input_history" json:"input_history" yaml:"input_history"`
	// MaxTranscripts is how many transcripts are kept; 0 keeps all
	MaxTranscripts int `toml:"max_transcripts" json:"max_transcripts" yaml:"max_transcripts"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// CurrentVersion is the config schema version written by Save.
const CurrentVersion = "1"

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Version: CurrentVersion,
		Connection: ConnectionConfig{
			DefaultPort:     8080,
			DialTimeoutSecs: 5,
			EventBuffer:     256,
			SendRate:        0,
			SendBurst:       1,
		},
		UI: UIConfig{
			Theme:          "auto",
			InputCharLimit: 2048,
			MaxSuggestions: 6,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		History: HistoryConfig{
			Enabled:        true,
			MaxTranscripts: 500,
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// dirOverride replaces the config directory in tests.
var dirOverride string

// ConfigDir returns the why2 configuration directory path.
func ConfigDir() (string, error) {
	if dirOverride != "" {
		return dirOverride, nil
	}
	if dir := os.Getenv("WHY2_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".why2"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	return inConfigDir("config.toml")
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	return inConfigDir("config.json")
}

func inConfigDir(name string) (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0700)
}

// LogFile returns the resolved log file path.
func (c *Config) LogFile() (string, error) {
	if c.Logging.File != "" {
		return c.Logging.File, nil
	}
	return inConfigDir("why2.log")
}

// HistoryDatabase returns the resolved transcript database path.
func (c *Config) HistoryDatabase() (string, error) {
	if c.History.Database != "" {
		return c.History.Database, nil
	}
	return inConfigDir("history.db")
}

// InputHistoryFile returns the resolved line-mode history file path.
func (c *Config) InputHistoryFile() (string, error) {
	if c.History.InputHistory != "" {
		return c.History.InputHistory, nil
	}
	return inConfigDir("input_history")
}

// ensureSecurePermissions narrows a config file to 0600.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	mode := info.Mode().Perm()
	if mode != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}
	return nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config file(s).
// Tries TOML first, then JSON, and falls back to defaults.
// Environment overrides are applied last.
func Load() (*Config, error) {
	cfg := Default()
	var loadErr error

	candidates := []struct {
		path func() (string, error)
		load func(*Config, string) error
		name string
	}{
		{ConfigPathTOML, LoadTOML, "TOML"},
		{ConfigPathJSON, LoadJSON, "JSON"},
	}

	for _, c := range candidates {
		path, err := c.path()
		if err != nil {
			continue
		}
		if _, statErr := os.Stat(path); statErr != nil {
			continue
		}
		if err := c.load(cfg, path); err != nil {
			loadErr = fmt.Errorf("failed to load %s config: %w", c.name, err)
			cfg = Default()
			continue
		}
		return finish(cfg)
	}

	cfg, err := finish(cfg)
	if err != nil {
		return nil, err
	}
	// Return defaults (with any load error for informational purposes)
	return cfg, loadErr
}

// finish applies environment overrides, defaults and validation.
func finish(cfg *Config) (*Config, error) {
	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML loads configuration from a TOML file.
func LoadTOML(cfg *Config, path string) error {
	warnPermissions(path)
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

// LoadJSON loads configuration from a JSON file.
func LoadJSON(cfg *Config, path string) error {
	warnPermissions(path)
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return nil
}

// LoadYAML loads configuration from a YAML file.
func LoadYAML(cfg *Config, path string) error {
	warnPermissions(path)
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read YAML file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode YAML file: %w", err)
	}
	return nil
}

func warnPermissions(path string) {
	if err := ensureSecurePermissions(path); err != nil {
		// Permissions might not be fixable on all systems
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}
}

// LoadFromPath loads configuration from a specific file path with full
// validation. The format follows the file extension; anything unknown is
// read as TOML.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = LoadJSON(cfg, path)
	case ".yaml", ".yml":
		err = LoadYAML(cfg, path)
	default:
		err = LoadTOML(cfg, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}
	return finish(cfg)
}

// SetDefaults sets default values for any missing or zero-value fields.
func (c *Config) SetDefaults() {
	defaults := Default()

	if c.Version == "" {
		c.Version = defaults.Version
	}

	// Connection
	if c.Connection.DefaultPort == 0 {
		c.Connection.DefaultPort = defaults.Connection.DefaultPort
	}
	if c.Connection.DialTimeoutSecs == 0 {
		c.Connection.DialTimeoutSecs = defaults.Connection.DialTimeoutSecs
	}
	if c.Connection.EventBuffer == 0 {
		c.Connection.EventBuffer = defaults.Connection.EventBuffer
	}
	if c.Connection.SendBurst == 0 {
		c.Connection.SendBurst = defaults.Connection.SendBurst
	}

	// UI
	if c.UI.Theme == "" {
		c.UI.Theme = defaults.UI.Theme
	}
	if c.UI.InputCharLimit == 0 {
		c.UI.InputCharLimit = defaults.UI.InputCharLimit
	}
	if c.UI.MaxSuggestions == 0 {
		c.UI.MaxSuggestions = defaults.UI.MaxSuggestions
	}

	// Logging
	if c.Logging.Level == "" {
		c.Logging.Level = defaults.Logging.Level
	}
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	if err := EnsureConfigDir(); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return SaveTOML(cfg, path)
}

// SaveTOML writes the configuration to a TOML file with mode 0600.
func SaveTOML(cfg *Config, path string) error {
	var buf bytes.Buffer
	buf.WriteString("# why2 configuration file\n")
	buf.WriteString("# Generated by why2 - edit with care\n\n")

	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := util.AtomicWriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SaveJSON saves the configuration to a JSON file.
func SaveJSON(cfg *Config, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// ValidThemes lists the accepted ui.theme values.
var ValidThemes = []string{"auto", "dark", "light"}

// ValidLogLevels lists the accepted logging.level values.
var ValidLogLevels = []string{"debug", "info", "warn", "error"}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if c.Connection.DefaultPort < 1 || c.Connection.DefaultPort > 65535 {
		errs = append(errs, ValidationError{"connection.default_port", "must be between 1 and 65535"})
	}
	if c.Connection.DialTimeoutSecs < 1 || c.Connection.DialTimeoutSecs > 300 {
		errs = append(errs, ValidationError{"connection.dial_timeout_secs", "must be between 1 and 300"})
	}
	if c.Connection.EventBuffer < 1 {
		errs = append(errs, ValidationError{"connection.event_buffer", "must be positive"})
	}
	if c.Connection.SendRate < 0 {
		errs = append(errs, ValidationError{"connection.send_rate", "must not be negative"})
	}
	if c.Connection.SendBurst < 1 {
		errs = append(errs, ValidationError{"connection.send_burst", "must be positive"})
	}

	if !contains(ValidThemes, c.UI.Theme) {
		errs = append(errs, ValidationError{"ui.theme", "must be one of " + strings.Join(ValidThemes, ", ")})
	}
	if c.UI.InputCharLimit < 1 {
		errs = append(errs, ValidationError{"ui.input_char_limit", "must be positive"})
	}
	if c.UI.MaxSuggestions < 1 || c.UI.MaxSuggestions > 50 {
		errs = append(errs, ValidationError{"ui.max_suggestions", "must be between 1 and 50"})
	}

	if c.History.MaxTranscripts < 0 {
		errs = append(errs, ValidationError{"history.max_transcripts", "must not be negative"})
	}

	if !contains(ValidLogLevels, strings.ToLower(c.Logging.Level)) {
		errs = append(errs, ValidationError{"logging.level", "must be one of " + strings.Join(ValidLogLevels, ", ")})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - WHY2_ADDRESS: overrides connection.default_address
//   - WHY2_PORT: overrides connection.default_port
//   - WHY2_DIAL_TIMEOUT: overrides connection.dial_timeout_secs
//   - WHY2_THEME: overrides ui.theme
//   - WHY2_PLAIN: set to "1" or "true" for the line-mode interface
//   - WHY2_LOG_LEVEL: overrides logging.level
//   - WHY2_LOG_FILE: overrides logging.file
//   - WHY2_HISTORY: set to "0" or "false" to stop storing transcripts
func (c *Config) ApplyEnvOverrides() {
	if addr := os.Getenv("WHY2_ADDRESS"); addr != "" {
		c.Connection.DefaultAddress = addr
	}
	if port := os.Getenv("WHY2_PORT"); port != "" {
		if n, err := strconv.Atoi(port); err == nil {
			c.Connection.DefaultPort = n
		}
	}
	if secs := os.Getenv("WHY2_DIAL_TIMEOUT"); secs != "" {
		if n, err := strconv.Atoi(secs); err == nil {
			c.Connection.DialTimeoutSecs = n
		}
	}
	if theme := os.Getenv("WHY2_THEME"); theme != "" {
		c.UI.Theme = theme
	}
	if plain := os.Getenv("WHY2_PLAIN"); plain != "" {
		c.UI.Plain = parseBool(plain)
	}
	if level := os.Getenv("WHY2_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if file := os.Getenv("WHY2_LOG_FILE"); file != "" {
		c.Logging.File = file
	}
	if history := os.Getenv("WHY2_HISTORY"); history != "" {
		c.History.Enabled = parseBool(history)
	}
}

func parseBool(s string) bool {
	s = strings.ToLower(s)
	return s == "1" || s == "true" || s == "yes"
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a configuration value using dot notation (e.g., "ui.theme").
func (c *Config) Get(key string) (interface{}, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set sets a configuration value using dot notation (e.g., "ui.theme").
// String values are converted to the field's type.
func (c *Config) Set(key string, value interface{}) error {
	field, err := c.lookup(key)
	if err != nil {
		return err
	}
	if !field.CanSet() {
		return fmt.Errorf("cannot set field: %s", key)
	}
	return setFieldValue(field, value)
}

func (c *Config) lookup(key string) (reflect.Value, error) {
	if key == "" {
		return reflect.Value{}, errors.New("empty key")
	}
	parts := strings.Split(key, ".")

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		fieldName := normalizeFieldName(part)
		field := v.FieldByNameFunc(func(name string) bool {
			return strings.EqualFold(name, fieldName)
		})
		if !field.IsValid() {
			return reflect.Value{}, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}
		if i == len(parts)-1 {
			if field.Kind() == reflect.Struct {
				return reflect.Value{}, fmt.Errorf("field '%s' is a section", key)
			}
			return field, nil
		}
		if field.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("field '%s' is not a struct", strings.Join(parts[:i+1], "."))
		}
		v = field
	}
	return reflect.Value{}, fmt.Errorf("invalid key: %s", key)
}

// normalizeFieldName converts a snake_case or kebab-case name to its Go field equivalent.
func normalizeFieldName(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-'
	})

	var result strings.Builder
	for _, part := range parts {
		if len(part) > 0 {
			result.WriteString(strings.ToUpper(string(part[0])))
			result.WriteString(strings.ToLower(part[1:]))
		}
	}
	return result.String()
}

// setFieldValue sets a reflect.Value from an interface{} value with type conversion.
func setFieldValue(field reflect.Value, value interface{}) error {
	if strVal, ok := value.(string); ok {
		switch field.Kind() {
		case reflect.String:
			field.SetString(strVal)
			return nil
		case reflect.Int, reflect.Int64:
			intVal, err := strconv.ParseInt(strVal, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer value: %v", err)
			}
			field.SetInt(intVal)
			return nil
		case reflect.Float64:
			floatVal, err := strconv.ParseFloat(strVal, 64)
			if err != nil {
				return fmt.Errorf("invalid float value: %v", err)
			}
			field.SetFloat(floatVal)
			return nil
		case reflect.Bool:
			field.SetBool(parseBool(strVal))
			return nil
		}
	}

	val := reflect.ValueOf(value)
	if val.Type().AssignableTo(field.Type()) {
		field.Set(val)
		return nil
	}
	if val.Type().ConvertibleTo(field.Type()) {
		field.Set(val.Convert(field.Type()))
		return nil
	}
	return fmt.Errorf("cannot assign %T to %s", value, field.Type())
}

// GetAllKeys returns all configuration keys in dot notation.
func GetAllKeys() []string {
	return []string{
		"version",
		"connection.default_address",
		"connection.default_port",
		"connection.dial_timeout_secs",
		"connection.event_buffer",
		"connection.send_rate",
		"connection.send_burst",
		"ui.theme",
		"ui.input_char_limit",
		"ui.max_suggestions",
		"ui.show_timestamps",
		"ui.plain",
		"logging.level",
		"logging.file",
		"history.enabled",
		"history.database",
		"history.input_history",
		"history.max_transcripts",
	}
}

// Clone creates a copy of the configuration.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	clone := *c
	return &clone
}

// =============================================================================
// SINGLETON PATTERN (THREAD-SAFE)
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the global configuration instance.
// Loads configuration on first access. Thread-safe.
func Global() *Config {
	globalConfigOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
			if cfg == nil {
				cfg = Default()
			}
		}
		globalConfigMu.Lock()
		if globalConfig == nil {
			globalConfig = cfg
		}
		globalConfigMu.Unlock()
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// SetGlobal sets the global configuration instance. Thread-safe.
func SetGlobal(cfg *Config) {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting resets the global config state for testing.
// This should only be used in tests to reset state between test runs.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}
