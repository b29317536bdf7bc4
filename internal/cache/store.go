// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cache persists the console's command table so later runs can
// register commands without a discovery pass.
//
// Two backends are provided: a JSON file written atomically and a SQLite
// database. A Watcher reloads the console when the cache changes on disk.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jeranaias/devcon/internal/config"
	"github.com/jeranaias/devcon/internal/console"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrNotFound is returned by Load when nothing has been saved yet.
	ErrNotFound = errors.New("command cache not found")

	// ErrUnknownBackend is returned by Open for an unrecognised backend name.
	ErrUnknownBackend = errors.New("unknown cache backend")

	// ErrUnsupportedVersion is returned when a cache was written by an
	// incompatible format version.
	ErrUnsupportedVersion = errors.New("unsupported cache version")
)

// FormatVersion is the version written into every cache.
const FormatVersion = 1

// =============================================================================
// STORE
// =============================================================================

// Store persists cache entries.
type Store interface {
	// Load returns the saved entries in registration order.
	Load(ctx context.Context) ([]console.CachedEntry, error)

	// Save replaces the saved entries.
	Save(ctx context.Context, entries []console.CachedEntry) error

	// Clear removes the saved entries. Clearing an empty cache is not an error.
	Clear(ctx context.Context) error

	// Path returns the file backing the store.
	Path() string

	Close() error
}

// Open creates the store selected by cfg.Backend.
func Open(cfg config.CacheConfig, logger *slog.Logger) (Store, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	path, err := cfg.CachePath()
	if err != nil {
		return nil, err
	}

	switch cfg.Backend {
	case config.BackendFile, "":
		return NewFileStore(path, logger), nil
	case config.BackendSQLite:
		return OpenSQLite(path, logger)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}
