// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cache

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jeranaias/devcon/internal/config"
	"github.com/jeranaias/devcon/internal/console"
	"github.com/jeranaias/devcon/internal/convert"
)

func ping() string             { return "pong" }
func shout(text string) string { return text + "!" }

var testSource = console.SourceFunc(func() []console.Definition {
	return []console.Definition{
		{Name: "ping", Description: "Replies pong", Handler: ping},
		{Name: "shout", Handler: shout, Params: []console.Param{console.Arg("text")}, Flags: console.FlagCheat},
	}
})

func newConsole(t *testing.T) (*console.Console, *console.Recorder) {
	t.Helper()
	rec := &console.Recorder{}
	c := console.New(convert.NewRegistry(), console.Options{
		Sink:  rec,
		Gates: console.NewGates(true, true, false),
	})
	return c, rec
}

func savedEntries(t *testing.T) []console.CachedEntry {
	t.Helper()
	c, _ := newConsole(t)
	_, err := c.Discover(testSource)
	require.NoError(t, err)
	return c.SaveCache()
}

// storeCases runs fn against both backends.
func storeCases(t *testing.T, fn func(t *testing.T, store Store)) {
	t.Run("file", func(t *testing.T) {
		fn(t, NewFileStore(filepath.Join(t.TempDir(), "commands.json"), nil))
	})
	t.Run("sqlite", func(t *testing.T) {
		store, err := OpenSQLite(filepath.Join(t.TempDir(), "commands.db"), nil)
		require.NoError(t, err)
		t.Cleanup(func() { store.Close() })
		fn(t, store)
	})
}

func TestStore_RoundTrip(t *testing.T) {
	storeCases(t, func(t *testing.T, store Store) {
		ctx := context.Background()
		entries := savedEntries(t)

		require.NoError(t, store.Save(ctx, entries))
		loaded, err := store.Load(ctx)
		require.NoError(t, err)
		require.Equal(t, entries, loaded)

		// Saving again replaces rather than appends.
		require.NoError(t, store.Save(ctx, entries[:1]))
		loaded, err = store.Load(ctx)
		require.NoError(t, err)
		require.Len(t, loaded, 1)
	})
}

func TestStore_NotFoundAndClear(t *testing.T) {
	storeCases(t, func(t *testing.T, store Store) {
		ctx := context.Background()

		_, err := store.Load(ctx)
		require.ErrorIs(t, err, ErrNotFound)

		require.NoError(t, store.Save(ctx, nil))
		loaded, err := store.Load(ctx)
		require.NoError(t, err)
		require.Empty(t, loaded)

		require.NoError(t, store.Clear(ctx))
		require.NoError(t, store.Clear(ctx))
		_, err = store.Load(ctx)
		require.ErrorIs(t, err, ErrNotFound)
	})
}

func TestFileStore_Format(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "commands.json")
	store := NewFileStore(path, nil)
	require.NoError(t, store.Save(context.Background(), savedEntries(t)))

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0600), info.Mode().Perm())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), `"version": 1`)
	require.Contains(t, string(data), `"flags": "Cheat"`)

	require.NoError(t, os.WriteFile(path, []byte(`{"version": 9, "commands": []}`), 0600))
	_, err = store.Load(context.Background())
	require.ErrorIs(t, err, ErrUnsupportedVersion)

	// Unknown fields from newer writers are ignored.
	require.NoError(t, os.WriteFile(path, []byte(`{"version": 1, "extra": true, "commands": [{"command": "ping", "flags": "None", "method": "m", "since": 3}]}`), 0600))
	loaded, err := store.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, "ping", loaded[0].Command)
}

func TestSQLiteStore_SkipsUnparsableFlags(t *testing.T) {
	ctx := context.Background()
	store, err := OpenSQLite(filepath.Join(t.TempDir(), "commands.db"), nil)
	require.NoError(t, err)
	defer store.Close()

	require.NoError(t, store.Save(ctx, savedEntries(t)))
	_, err = store.db.ExecContext(ctx, "UPDATE commands SET flags = 'Sneaky' WHERE command = 'shout'")
	require.NoError(t, err)

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	require.Equal(t, "ping", loaded[0].Command)
}

func TestOpen_Backends(t *testing.T) {
	dir := t.TempDir()

	store, err := Open(config.CacheConfig{Backend: config.BackendFile, Path: filepath.Join(dir, "c.json")}, nil)
	require.NoError(t, err)
	require.IsType(t, &FileStore{}, store)

	store, err = Open(config.CacheConfig{Backend: config.BackendSQLite, Path: filepath.Join(dir, "c.db")}, nil)
	require.NoError(t, err)
	require.IsType(t, &SQLiteStore{}, store)
	require.Equal(t, filepath.Join(dir, "c.db"), store.Path())
	require.NoError(t, store.Close())

	_, err = Open(config.CacheConfig{Backend: "redis", Path: filepath.Join(dir, "x")}, nil)
	require.ErrorIs(t, err, ErrUnknownBackend)
}

func TestRestoreAndPersist(t *testing.T) {
	ctx := context.Background()
	store := NewFileStore(filepath.Join(t.TempDir(), "commands.json"), nil)

	src, _ := newConsole(t)
	_, err := src.Discover(testSource)
	require.NoError(t, err)
	require.NoError(t, Persist(ctx, store, src))

	dst, rec := newConsole(t)
	count, err := Restore(ctx, store, dst, console.NewCatalog(testSource), console.LoadOptions{})
	require.NoError(t, err)
	require.Equal(t, 2, count)

	require.NoError(t, dst.Execute("shout hey"))
	require.Equal(t, []string{"> shout hey", "hey!"}, rec.Texts())

	count, err = Restore(ctx, store, dst, console.NewCatalog(testSource), console.LoadOptions{
		Exclude: console.ExcludeFlags(console.FlagCheat),
	})
	require.NoError(t, err)
	require.Equal(t, 1, count)
	require.Equal(t, []string{"ping"}, dst.Registry().Table().Names())
}

func TestWatcher_ReloadsOnChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "commands.json")
	store := NewFileStore(path, nil)
	require.NoError(t, store.Save(context.Background(), nil))

	entries := savedEntries(t)
	var reloads atomic.Int32
	w, err := NewWatcher(path, 200*time.Millisecond, nil, func(context.Context) { reloads.Add(1) })
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	defer w.Close()

	// A burst of writes collapses into a single reload.
	for i := 0; i < 3; i++ {
		require.NoError(t, store.Save(context.Background(), entries))
	}
	require.Eventually(t, func() bool { return reloads.Load() == 1 }, 3*time.Second, 10*time.Millisecond)

	// Unrelated files in the same directory are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(filepath.Dir(path), "other.txt"), []byte("x"), 0600))
	time.Sleep(500 * time.Millisecond)
	require.Equal(t, int32(1), reloads.Load())
}

func TestWatcher_RequiresReload(t *testing.T) {
	_, err := NewWatcher("commands.json", 0, nil, nil)
	require.Error(t, err)
}
