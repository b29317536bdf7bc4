// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for devcon.
//
// Configuration is TOML with sensible defaults, environment variable
// overrides, and validation.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - ConsoleConfig: Separator, gates and help command
//   - CacheConfig: Command cache backend and live reload
//   - LogConfig: Log level, format and destination
//   - REPLConfig: Prompt, history and colour
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (DEVCON_*)
//   - $DEVCON_CONFIG or ~/.devcon/config.toml
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	sep := cfg.Console.SeparatorRune()
package config
