// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/jeranaias/devcon/internal/console"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS metadata (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
) WITHOUT ROWID;

CREATE TABLE IF NOT EXISTS commands (
    position INTEGER PRIMARY KEY,
    command TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    flags TEXT NOT NULL DEFAULT 'None',
    owner_type TEXT NOT NULL,
    method TEXT NOT NULL,
    parameter_types TEXT NOT NULL DEFAULT '[]' -- JSON array of type ids
);

CREATE INDEX IF NOT EXISTS idx_commands_command ON commands(command);
`

// SQLiteStore keeps the cache in a SQLite database.
type SQLiteStore struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// OpenSQLite opens (creating if needed) the database at path.
func OpenSQLite(path string, logger *slog.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA temp_store=MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStore{db: db, path: path, logger: logger}, nil
}

// Load reads every row in position order. Rows whose flags no longer parse
// are skipped with a warning. A database that was never saved reports ErrNotFound.
func (s *SQLiteStore) Load(ctx context.Context) ([]console.CachedEntry, error) {
	var version string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM metadata WHERE key = 'version'").Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cache metadata: %w", err)
	}
	if v, err := strconv.Atoi(version); err != nil || v != FormatVersion {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedVersion, version)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT command, description, flags, owner_type, method, parameter_types
		FROM commands ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("failed to query commands: %w", err)
	}
	defer rows.Close()

	entries := []console.CachedEntry{}
	for rows.Next() {
		var (
			entry      console.CachedEntry
			flags      string
			paramsJSON string
		)
		if err := rows.Scan(&entry.Command, &entry.Description, &flags, &entry.OwnerType, &entry.Method, &paramsJSON); err != nil {
			return nil, fmt.Errorf("failed to scan command row: %w", err)
		}
		if entry.Flags, err = console.ParseFlags(flags); err != nil {
			s.logger.Warn("skipping cached command with unknown flags", "command", entry.Command, "flags", flags, "error", err)
			continue
		}
		if err := json.Unmarshal([]byte(paramsJSON), &entry.ParameterTypes); err != nil {
			s.logger.Warn("skipping cached command with unreadable parameter types", "command", entry.Command, "error", err)
			continue
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read commands: %w", err)
	}

	s.logger.Debug("command cache loaded", "path", s.path, "entries", len(entries))
	return entries, nil
}

// Save replaces all rows in a single transaction.
func (s *SQLiteStore) Save(ctx context.Context, entries []console.CachedEntry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM commands"); err != nil {
		return fmt.Errorf("failed to clear commands: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO commands (position, command, description, flags, owner_type, method, parameter_types)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, entry := range entries {
		types := entry.ParameterTypes
		if types == nil {
			types = []string{}
		}
		params, err := json.Marshal(types)
		if err != nil {
			return fmt.Errorf("failed to encode parameter types: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, i, entry.Command, entry.Description, entry.Flags.String(),
			entry.OwnerType, entry.Method, string(params)); err != nil {
			return fmt.Errorf("failed to insert command %q: %w", entry.Command, err)
		}
	}

	meta := map[string]string{
		"version":    strconv.Itoa(FormatVersion),
		"written_at": time.Now().UTC().Format(time.RFC3339),
	}
	for key, value := range meta {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO metadata (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
			key, value); err != nil {
			return fmt.Errorf("failed to write metadata: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit cache: %w", err)
	}
	s.logger.Debug("command cache saved", "path", s.path, "entries", len(entries))
	return nil
}

// Clear removes all rows and the metadata that marks the cache as saved.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM commands"); err != nil {
		return fmt.Errorf("failed to clear commands: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM metadata"); err != nil {
		return fmt.Errorf("failed to clear metadata: %w", err)
	}
	return tx.Commit()
}

func (s *SQLiteStore) Path() string { return s.path }

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
