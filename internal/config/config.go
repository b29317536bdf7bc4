// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/devcon/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete devcon configuration.
type Config struct {
	Console ConsoleConfig `toml:"console"`
	Cache   CacheConfig   `toml:"cache"`
	Log     LogConfig     `toml:"log"`
	REPL    REPLConfig    `toml:"repl"`
}

// ConsoleConfig controls parsing and command gating.
type ConsoleConfig struct {
	// Separator splits one input line into several commands. Single rune.
	Separator string `toml:"separator"`
	Cheats    bool   `toml:"cheats"`
	// Debug overrides the build default when set.
	Debug           *bool  `toml:"debug,omitempty"`
	Editor          bool   `toml:"editor"`
	HelpCommand     string `toml:"help_command"`
	SuggestionLimit int    `toml:"suggestion_limit"`
}

// CacheConfig contains command cache configuration.
type CacheConfig struct {
	Enabled bool `toml:"enabled"`
	// Backend is "file" (JSON) or "sqlite".
	Backend         string `toml:"backend"`
	Path            string `toml:"path"`
	ExcludeBuiltins bool   `toml:"exclude_builtins"`
	Watch           bool   `toml:"watch"`
	DebounceMS      int    `toml:"debounce_ms"`
}

// LogConfig contains logging configuration.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
	// Path is a log file; empty logs to stderr.
	Path string `toml:"path"`
}

// REPLConfig contains interactive shell configuration.
type REPLConfig struct {
	Prompt      string `toml:"prompt"`
	HistoryFile string `toml:"history_file"`
	Color       bool   `toml:"color"`
}

// Cache backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Console: ConsoleConfig{
			Separator:       "|",
			HelpCommand:     "help",
			SuggestionLimit: 3,
		},
		Cache: CacheConfig{
			Enabled:    true,
			Backend:    BackendFile,
			DebounceMS: 100,
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
		REPL: REPLConfig{
			Prompt: "> ",
			Color:  true,
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// EnvConfigPath names the environment variable that overrides the config file location.
const EnvConfigPath = "DEVCON_CONFIG"

// ConfigDir returns the devcon configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".devcon"), nil
}

// ConfigPath returns the path of the config file, honouring DEVCON_CONFIG.
func ConfigPath() (string, error) {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// CachePath returns the cache location, defaulting to a backend-specific
// file in the config directory.
func (c *CacheConfig) CachePath() (string, error) {
	if c.Path != "" {
		return c.Path, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	if c.Backend == BackendSQLite {
		return filepath.Join(dir, "commands.db"), nil
	}
	return filepath.Join(dir, "commands.json"), nil
}

// HistoryPath returns the REPL history file, defaulting to ~/.devcon/history.
func (c *REPLConfig) HistoryPath() (string, error) {
	if c.HistoryFile != "" {
		return c.HistoryFile, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "history"), nil
}

// SeparatorRune returns the configured separator as a rune.
func (c *ConsoleConfig) SeparatorRune() rune {
	r, _ := utf8.DecodeRuneInString(c.Separator)
	return r
}

// DebugEnabled resolves the debug gate against the build default.
func (c *ConsoleConfig) DebugEnabled(buildDefault bool) bool {
	if c.Debug != nil {
		return *c.Debug
	}
	return buildDefault
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads the configuration from ConfigPath.
// A missing file yields the defaults. Environment overrides are applied last.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	cfg, err := LoadFromPath(path)
	if errors.Is(err, os.ErrNotExist) {
		cfg = Default()
		cfg.ApplyEnvOverrides()
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid config: %w", err)
		}
		return cfg, nil
	}
	return cfg, err
}

// LoadFromPath loads configuration from a specific file path with full validation.
// Keys absent from the file keep their default values.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("unknown config keys in %s: %s", path, strings.Join(keys, ", "))
	}

	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save writes the configuration to ConfigPath.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveTo(cfg, path)
}

// SaveTo writes the configuration as TOML with 0600 permissions.
// The write is atomic so a crash never leaves a truncated file.
func SaveTo(cfg *Config, path string) error {
	var buf bytes.Buffer
	buf.WriteString("# devcon configuration file\n")
	buf.WriteString("# Generated by devcon - edit with care\n\n")
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ErrInvalidSeparator is reported when console.separator is not a single
// printable, non-space rune other than a double quote.
var ErrInvalidSeparator = errors.New("invalid command separator")

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Validate validates the configuration. All problems are reported at once
// as joined *ValidationError values.
func (c *Config) Validate() error {
	var errs []error
	invalid := func(field, format string, args ...any) {
		errs = append(errs, &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	sep := c.Console.Separator
	r, size := utf8.DecodeRuneInString(sep)
	if size == 0 || size != len(sep) || r == utf8.RuneError || r == '"' || unicode.IsSpace(r) || !unicode.IsPrint(r) {
		errs = append(errs, &ValidationError{
			Field:   "console.separator",
			Message: fmt.Sprintf("'%s' must be a single printable character other than a space or quote", sep),
			Err:     ErrInvalidSeparator,
		})
	}
	if strings.TrimSpace(c.Console.HelpCommand) == "" || strings.ContainsFunc(c.Console.HelpCommand, unicode.IsSpace) {
		invalid("console.help_command", "'%s' must be a single word", c.Console.HelpCommand)
	}

	switch c.Cache.Backend {
	case BackendFile, BackendSQLite:
	default:
		invalid("cache.backend", "invalid backend '%s', must be one of: file, sqlite", c.Cache.Backend)
	}
	if c.Cache.DebounceMS < 0 {
		invalid("cache.debounce_ms", "must not be negative, got %d", c.Cache.DebounceMS)
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		invalid("log.level", "invalid level '%s', must be one of: debug, info, warn, error", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		invalid("log.format", "invalid format '%s', must be one of: text, json", c.Log.Format)
	}

	return errors.Join(errs...)
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - DEVCON_CHEATS: "1" or "true" enables cheat commands
//   - DEVCON_EDITOR: "1" or "true" enables editor-only commands
//   - DEVCON_LOG_LEVEL: overrides log.level
//   - DEVCON_CACHE_PATH: overrides cache.path
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("DEVCON_CHEATS"); v != "" {
		c.Console.Cheats = envBool(v)
	}
	if v := os.Getenv("DEVCON_EDITOR"); v != "" {
		c.Console.Editor = envBool(v)
	}
	if v := os.Getenv("DEVCON_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("DEVCON_CACHE_PATH"); v != "" {
		c.Cache.Path = v
	}
}

func envBool(v string) bool {
	return v == "1" || strings.EqualFold(v, "true")
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a configuration value using dot notation (e.g., "cache.backend").
func (c *Config) Get(key string) (any, error) {
	field, err := c.field(key)
	if err != nil {
		return nil, err
	}
	if field.Kind() == reflect.Pointer {
		if field.IsNil() {
			return nil, nil
		}
		return field.Elem().Interface(), nil
	}
	return field.Interface(), nil
}

// Set parses value and stores it under key. The result is not validated;
// callers run Validate before saving.
func (c *Config) Set(key, value string) error {
	field, err := c.field(key)
	if err != nil {
		return err
	}
	if field.Kind() == reflect.Pointer {
		if value == "" {
			field.Set(reflect.Zero(field.Type()))
			return nil
		}
		ptr := reflect.New(field.Type().Elem())
		if err := setFieldValue(ptr.Elem(), value); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		field.Set(ptr)
		return nil
	}
	if err := setFieldValue(field, value); err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	return nil
}

// field walks the struct tree following toml tag names.
func (c *Config) field(key string) (reflect.Value, error) {
	if key == "" {
		return reflect.Value{}, errors.New("empty key")
	}
	parts := strings.Split(key, ".")
	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		if v.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("field '%s' is not a section", strings.Join(parts[:i], "."))
		}
		idx := -1
		for j := 0; j < v.NumField(); j++ {
			if tagName(v.Type().Field(j)) == strings.ToLower(part) {
				idx = j
				break
			}
		}
		if idx < 0 {
			return reflect.Value{}, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}
		v = v.Field(idx)
	}
	if v.Kind() == reflect.Struct {
		return reflect.Value{}, fmt.Errorf("field '%s' is a section", key)
	}
	return v, nil
}

func tagName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("toml"), ",")
	return name
}

func setFieldValue(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int:
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid integer value: %w", err)
		}
		field.SetInt(int64(n))
	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean value: %w", err)
		}
		field.SetBool(b)
	default:
		return fmt.Errorf("unsupported field type %s", field.Type())
	}
	return nil
}

// Keys returns all configuration keys in dot notation, sorted.
func Keys() []string {
	var keys []string
	var walk func(prefix string, t reflect.Type)
	walk = func(prefix string, t reflect.Type) {
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			name := prefix + tagName(f)
			if f.Type.Kind() == reflect.Struct {
				walk(name+".", f.Type)
				continue
			}
			keys = append(keys, name)
		}
	}
	walk("", reflect.TypeFor[Config]())
	sort.Strings(keys)
	return keys
}
