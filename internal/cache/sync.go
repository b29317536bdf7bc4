// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cache

import (
	"context"
	"fmt"

	"github.com/jeranaias/devcon/internal/console"
)

// Restore loads the stored entries into c, replacing its command table.
// Entries that no longer resolve are dropped and reported in the returned
// error alongside the count of commands that were registered.
func Restore(ctx context.Context, store Store, c *console.Console, catalog *console.Catalog, opts console.LoadOptions) (int, error) {
	entries, err := store.Load(ctx)
	if err != nil {
		return 0, err
	}
	count, err := c.LoadCache(entries, catalog, opts)
	c.Logger().Info("command cache restored", "path", store.Path(), "registered", count, "stored", len(entries))
	return count, err
}

// Persist saves c's current command table to store.
func Persist(ctx context.Context, store Store, c *console.Console) error {
	entries := c.SaveCache()
	if err := store.Save(ctx, entries); err != nil {
		return fmt.Errorf("failed to persist %d commands: %w", len(entries), err)
	}
	return nil
}
