// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jeranaias/devcon/internal/console"
	"github.com/jeranaias/devcon/internal/util"
)

// fileFormat is the on-disk JSON document.
type fileFormat struct {
	Version   int                   `json:"version"`
	WrittenAt time.Time             `json:"written_at"`
	Commands  []console.CachedEntry `json:"commands"`
}

// FileStore keeps the cache in a single JSON file.
type FileStore struct {
	path   string
	logger *slog.Logger
}

// NewFileStore returns a store backed by the JSON file at path.
func NewFileStore(path string, logger *slog.Logger) *FileStore {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &FileStore{path: path, logger: logger}
}

// Load reads the cache file. A missing file reports ErrNotFound.
func (s *FileStore) Load(ctx context.Context) ([]console.CachedEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cache: %w", err)
	}

	var doc fileFormat
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode cache %s: %w", s.path, err)
	}
	if doc.Version != FormatVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, doc.Version)
	}

	s.logger.Debug("command cache loaded", "path", s.path, "entries", len(doc.Commands), "written_at", doc.WrittenAt)
	return doc.Commands, nil
}

// Save writes the cache file atomically with 0600 permissions.
func (s *FileStore) Save(ctx context.Context, entries []console.CachedEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if entries == nil {
		entries = []console.CachedEntry{}
	}
	data, err := json.MarshalIndent(fileFormat{
		Version:   FormatVersion,
		WrittenAt: time.Now().UTC(),
		Commands:  entries,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode cache: %w", err)
	}
	if err := util.AtomicWriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write cache: %w", err)
	}

	s.logger.Debug("command cache saved", "path", s.path, "entries", len(entries))
	return nil
}

// Clear deletes the cache file.
func (s *FileStore) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove cache: %w", err)
	}
	return nil
}

func (s *FileStore) Path() string { return s.path }

func (s *FileStore) Close() error { return nil }
