// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
	if cfg.Console.SeparatorRune() != '|' {
		t.Errorf("SeparatorRune() = %q, want '|'", cfg.Console.SeparatorRune())
	}
	if !cfg.Console.DebugEnabled(true) || cfg.Console.DebugEnabled(false) {
		t.Error("DebugEnabled should follow the build default when unset")
	}
}

func TestLoadFromPath_MergesWithDefaults(t *testing.T) {
	path := writeConfig(t, `
[console]
separator = ";"
cheats = true
debug = false

[cache]
backend = "sqlite"
`)

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath() error = %v", err)
	}
	if cfg.Console.Separator != ";" || !cfg.Console.Cheats {
		t.Errorf("console section not applied: %+v", cfg.Console)
	}
	if cfg.Console.DebugEnabled(true) {
		t.Error("explicit debug = false should override the build default")
	}
	if cfg.Console.HelpCommand != "help" {
		t.Errorf("HelpCommand = %q, want default 'help'", cfg.Console.HelpCommand)
	}
	if cfg.Cache.Backend != BackendSQLite || !cfg.Cache.Enabled {
		t.Errorf("cache section = %+v", cfg.Cache)
	}
}

func TestLoadFromPath_Errors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"syntax", "[console\n", "failed to decode"},
		{"unknown key", "[console]\ncolour = true\n", "console.colour"},
		{"invalid backend", "[cache]\nbackend = \"redis\"\n", "cache.backend"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromPath(writeConfig(t, tt.body))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("LoadFromPath() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}

	_, err := LoadFromPath(filepath.Join(t.TempDir(), "missing.toml"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file error = %v, want os.ErrNotExist", err)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv(EnvConfigPath, filepath.Join(t.TempDir(), "none.toml"))
	t.Setenv("DEVCON_CHEATS", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !cfg.Console.Cheats {
		t.Error("DEVCON_CHEATS should apply on top of defaults")
	}
}

func TestValidate_JoinsErrors(t *testing.T) {
	tests := []struct {
		sep     string
		wantErr bool
	}{
		{"|", false},
		{";", false},
		{"→", false},
		{"", true},
		{"||", true},
		{" ", true},
		{`"`, true},
	}

	for _, tt := range tests {
		cfg := Default()
		cfg.Console.Separator = tt.sep
		err := cfg.Validate()
		if got := errors.Is(err, ErrInvalidSeparator); got != tt.wantErr {
			t.Errorf("separator %q: errors.Is(ErrInvalidSeparator) = %v, want %v", tt.sep, got, tt.wantErr)
		}
	}

	cfg := Default()
	cfg.Console.Separator = ""
	cfg.Log.Level = "loud"
	cfg.Cache.DebounceMS = -1
	err := cfg.Validate()

	var fields []string
	for _, e := range err.(interface{ Unwrap() []error }).Unwrap() {
		var ve *ValidationError
		if !errors.As(e, &ve) {
			t.Fatalf("unexpected error type %T", e)
		}
		fields = append(fields, ve.Field)
	}
	want := []string{"console.separator", "cache.debounce_ms", "log.level"}
	if !reflect.DeepEqual(fields, want) {
		t.Errorf("fields = %v, want %v", fields, want)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("DEVCON_CHEATS", "1")
	t.Setenv("DEVCON_EDITOR", "TRUE")
	t.Setenv("DEVCON_LOG_LEVEL", "debug")
	t.Setenv("DEVCON_CACHE_PATH", "/tmp/devcon.db")

	cfg := Default()
	cfg.ApplyEnvOverrides()

	if !cfg.Console.Cheats || !cfg.Console.Editor {
		t.Errorf("gates = %+v", cfg.Console)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q", cfg.Log.Level)
	}
	if p, _ := cfg.Cache.CachePath(); p != "/tmp/devcon.db" {
		t.Errorf("CachePath() = %q", p)
	}
}

func TestSaveTo_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	cfg := Default()
	cfg.Console.Separator = ";"
	debug := true
	cfg.Console.Debug = &debug
	cfg.REPL.Prompt = "dev> "

	if err := SaveTo(cfg, path); err != nil {
		t.Fatalf("SaveTo() error = %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("permissions = %o, want 600", perm)
	}

	loaded, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath() error = %v", err)
	}
	if !reflect.DeepEqual(cfg, loaded) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", loaded, cfg)
	}
}

func TestGetSet(t *testing.T) {
	cfg := Default()

	if err := cfg.Set("cache.backend", "sqlite"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := cfg.Set("console.suggestion_limit", "5"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := cfg.Set("console.debug", "true"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	tests := []struct {
		key  string
		want any
	}{
		{"cache.backend", "sqlite"},
		{"console.suggestion_limit", 5},
		{"console.debug", true},
		{"repl.color", true},
	}
	for _, tt := range tests {
		got, err := cfg.Get(tt.key)
		if err != nil {
			t.Errorf("Get(%q) error = %v", tt.key, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Get(%q) = %v, want %v", tt.key, got, tt.want)
		}
	}

	if err := cfg.Set("console.debug", ""); err != nil || cfg.Console.Debug != nil {
		t.Errorf("clearing console.debug: err=%v debug=%v", err, cfg.Console.Debug)
	}

	for _, key := range []string{"", "nope", "console", "console.nope", "cache.backend.x"} {
		if _, err := cfg.Get(key); err == nil {
			t.Errorf("Get(%q) should fail", key)
		}
	}
	if err := cfg.Set("cache.enabled", "maybe"); err == nil {
		t.Error("Set with invalid bool should fail")
	}
}

func TestKeys(t *testing.T) {
	keys := Keys()
	cfg := Default()
	for _, key := range keys {
		if _, err := cfg.Get(key); err != nil {
			t.Errorf("Get(%q) error = %v", key, err)
		}
	}
	if len(keys) != 18 {
		t.Errorf("len(Keys()) = %d, want 18: %v", len(keys), keys)
	}
}
