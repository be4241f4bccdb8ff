// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points the config directory at a temp dir for one test.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	dirOverride = dir
	t.Cleanup(func() { dirOverride = "" })
	for _, k := range []string{
		"WHY2_ADDRESS", "WHY2_PORT", "WHY2_DIAL_TIMEOUT", "WHY2_THEME",
		"WHY2_PLAIN", "WHY2_LOG_LEVEL", "WHY2_LOG_FILE", "WHY2_HISTORY",
	} {
		t.Setenv(k, "")
	}
	return dir
}

// TestConfig_ConcurrentAccess tests that Global() and SetGlobal()
// can be safely called concurrently without race conditions.
// Run with: go test -race -v ./internal/config/
func TestConfig_ConcurrentAccess(t *testing.T) {
	isolate(t)
	ResetGlobalForTesting()

	var wg sync.WaitGroup

	// 50 writers using SetGlobal, 50 readers using Global
	for i := 0; i < 50; i++ {
		wg.Add(2)

		go func() {
			defer wg.Done()
			c := Default()
			c.Version = "test"
			c.UI.Theme = "dark"
			SetGlobal(c)
		}()

		go func() {
			defer wg.Done()
			if Global() == nil {
				t.Error("Global() returned nil")
			}
		}()
	}

	wg.Wait()
}

// TestConfig_ConcurrentMixedOperations tests a mix of all global operations
// happening concurrently.
func TestConfig_ConcurrentMixedOperations(t *testing.T) {
	isolate(t)
	ResetGlobalForTesting()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		switch i % 3 {
		case 0:
			go func() {
				defer wg.Done()
				if Global() == nil {
					t.Error("Global() returned nil")
				}
			}()
		case 1:
			go func() {
				defer wg.Done()
				c := Default()
				c.Version = "concurrent-test"
				SetGlobal(c)
			}()
		case 2:
			go func() {
				defer wg.Done()
				c := Global().Clone()
				c.UI.Theme = "dark"
				SetGlobal(c)
			}()
		}
	}

	wg.Wait()
}

// TestConfig_GlobalInitialization tests that Global() properly initializes
// the config on first access.
func TestConfig_GlobalInitialization(t *testing.T) {
	isolate(t)
	ResetGlobalForTesting()

	cfg := Global()
	require.NotNil(t, cfg)
	assert.Equal(t, CurrentVersion, cfg.Version)
	assert.Equal(t, 8080, cfg.Connection.DefaultPort)
}

func TestConfig_SetGlobalOverwrites(t *testing.T) {
	isolate(t)
	ResetGlobalForTesting()
	_ = Global()

	custom := Default()
	custom.Version = "custom-version"
	SetGlobal(custom)

	assert.Equal(t, "custom-version", Global().Version)
}

func TestConfig_Default(t *testing.T) {
	cfg := Default()
	require.NotNil(t, cfg)

	assert.Equal(t, 8080, cfg.Connection.DefaultPort)
	assert.Equal(t, 5*time.Second, cfg.Connection.DialTimeout())
	assert.Equal(t, "auto", cfg.UI.Theme)
	assert.True(t, cfg.History.Enabled)
	assert.Equal(t, 500, cfg.History.MaxTranscripts)
	assert.NoError(t, cfg.Validate())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		field   string
		wantErr bool
	}{
		{"defaults", func(*Config) {}, "", false},
		{"port zero", func(c *Config) { c.Connection.DefaultPort = 0 }, "connection.default_port", true},
		{"port too high", func(c *Config) { c.Connection.DefaultPort = 70000 }, "connection.default_port", true},
		{"timeout too long", func(c *Config) { c.Connection.DialTimeoutSecs = 301 }, "connection.dial_timeout_secs", true},
		{"negative rate", func(c *Config) { c.Connection.SendRate = -1 }, "connection.send_rate", true},
		{"bad theme", func(c *Config) { c.UI.Theme = "neon" }, "ui.theme", true},
		{"too many suggestions", func(c *Config) { c.UI.MaxSuggestions = 51 }, "ui.max_suggestions", true},
		{"negative history cap", func(c *Config) { c.History.MaxTranscripts = -1 }, "history.max_transcripts", true},
		{"unlimited history", func(c *Config) { c.History.MaxTranscripts = 0 }, "", false},
		{"bad level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level", true},
		{"upper case level", func(c *Config) { c.Logging.Level = "DEBUG" }, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr {
				return
			}
			var verrs ValidateErrors
			require.True(t, errors.As(err, &verrs))
			assert.Equal(t, tt.field, verrs[0].Field)
		})
	}
}

func TestConfig_SetDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.SetDefaults()
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, Default().Connection.EventBuffer, cfg.Connection.EventBuffer)
}

func TestConfig_GetSet(t *testing.T) {
	cfg := Default()

	val, err := cfg.Get("ui.theme")
	require.NoError(t, err)
	assert.Equal(t, "auto", val)

	require.NoError(t, cfg.Set("connection.default_port", "9000"))
	assert.Equal(t, 9000, cfg.Connection.DefaultPort)

	require.NoError(t, cfg.Set("connection.send_rate", "2.5"))
	assert.Equal(t, 2.5, cfg.Connection.SendRate)

	require.NoError(t, cfg.Set("ui.show_timestamps", "true"))
	assert.True(t, cfg.UI.ShowTimestamps)

	require.NoError(t, cfg.Set("history.enabled", false))
	assert.False(t, cfg.History.Enabled)

	_, err = cfg.Get("invalid.key")
	assert.Error(t, err)
	_, err = cfg.Get("connection")
	assert.Error(t, err, "sections are not values")
	assert.Error(t, cfg.Set("connection.default_port", "abc"))
}

func TestConfig_GetAllKeysResolve(t *testing.T) {
	cfg := Default()
	for _, key := range GetAllKeys() {
		_, err := cfg.Get(key)
		assert.NoError(t, err, key)
	}
}

func TestNormalizeFieldName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"default_port", "DefaultPort"},
		{"dial-timeout-secs", "DialTimeoutSecs"},
		{"theme", "Theme"},
	}
	for _, tt := range tests {
		if got := normalizeFieldName(tt.in); got != tt.want {
			t.Errorf("normalizeFieldName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestConfig_Clone(t *testing.T) {
	original := Default()
	original.Version = "original"

	clone := original.Clone()
	clone.Version = "cloned"

	assert.Equal(t, "original", original.Version)
	assert.Equal(t, "cloned", clone.Version)
	assert.Nil(t, (*Config)(nil).Clone())
}

func TestConfig_EnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("WHY2_PORT", "9001")
	t.Setenv("WHY2_THEME", "light")
	t.Setenv("WHY2_HISTORY", "false")
	t.Setenv("WHY2_PLAIN", "1")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9001, cfg.Connection.DefaultPort)
	assert.Equal(t, "light", cfg.UI.Theme)
	assert.False(t, cfg.History.Enabled)
	assert.True(t, cfg.UI.Plain)
}

func TestConfig_SaveAndLoad(t *testing.T) {
	dir := isolate(t)

	cfg := Default()
	cfg.Connection.DefaultAddress = "chat.example.org"
	cfg.UI.MaxSuggestions = 10
	require.NoError(t, Save(cfg))

	path := filepath.Join(dir, "config.toml")
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "chat.example.org", loaded.Connection.DefaultAddress)
	assert.Equal(t, 10, loaded.UI.MaxSuggestions)
}

func TestLoadFromPath_Formats(t *testing.T) {
	isolate(t)
	dir := t.TempDir()

	files := map[string]string{
		"c.toml": "[connection]\ndefault_port = 7000\n",
		"c.json": `{"connection": {"default_port": 7000}}`,
		"c.yaml": "connection:\n  default_port: 7000\n",
	}
	for name, body := range files {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, os.WriteFile(path, []byte(body), 0600))

			cfg, err := LoadFromPath(path)
			require.NoError(t, err)
			assert.Equal(t, 7000, cfg.Connection.DefaultPort)
			assert.Equal(t, "auto", cfg.UI.Theme, "unset fields keep defaults")
		})
	}
}

func TestLoadFromPath_Invalid(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "c.toml")
	require.NoError(t, os.WriteFile(path, []byte("[ui]\ntheme = \"neon\"\n"), 0600))

	_, err := LoadFromPath(path)
	assert.Error(t, err)
}

func TestLoad_BrokenFileFallsBackToDefaults(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte("not = [valid"), 0600))

	cfg, err := Load()
	assert.Error(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, 8080, cfg.Connection.DefaultPort)
}

func TestWatch_ReloadsOnWrite(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[ui]\ntheme = \"dark\"\n"), 0600))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan *Config, 4)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, func(cfg *Config, err error) {
			if err == nil {
				changes <- cfg
			}
		})
	}()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("[ui]\ntheme = \"light\"\n"), 0600))

	select {
	case cfg := <-changes:
		assert.Equal(t, "light", cfg.UI.Theme)
	case <-time.After(5 * time.Second):
		t.Fatal("no reload after write")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}
