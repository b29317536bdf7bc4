// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package console

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func pingHandler() string            { return "pong" }
func echoHandler(text string) string { return text }
func echoTwice(text string, n int) string {
	out := ""
	for i := 0; i < n; i++ {
		out += text
	}
	return out
}

var testSource = SourceFunc(func() []Definition {
	return []Definition{
		{Name: "ping", Description: "Replies pong", Handler: pingHandler},
		{Name: "echo", Handler: echoHandler, Params: []Param{Arg("text")}},
		{Name: "echo", Handler: echoTwice, Params: []Param{Arg("text"), Arg("times")}},
		{Name: "add", Handler: (*counter).Add, OnInstance: true, Flags: FlagCheat, Params: []Param{Opt("by", 1)}},
		{Name: "reset", Handler: (*counter).Reset, OnInstance: true, Flags: FlagHidden},
	}
})

// =============================================================================
// REGISTRY
// =============================================================================

func TestRegistry_Discover(t *testing.T) {
	reg := NewRegistry(nil)

	count, err := reg.Discover(testSource, nil)
	require.NoError(t, err)
	require.Equal(t, 5, count)

	table := reg.Table()
	require.Equal(t, []string{"add", "echo", "ping", "reset"}, table.Names())
	require.Equal(t, 4, table.Len())
	require.Len(t, table.Lookup("ECHO"), 2)
	require.Len(t, table.Descriptors(), 5)
}

func TestRegistry_DiscoverSkipsInvalid(t *testing.T) {
	reg := NewRegistry(nil)
	bad := SourceFunc(func() []Definition {
		return []Definition{
			{Name: "ok", Handler: pingHandler},
			{Name: "bad", Handler: "not a func"},
			{Name: "both", Handler: pingHandler, Flags: FlagDebugOnly | FlagEditorOnly},
		}
	})

	count, err := reg.Discover(bad)
	require.Error(t, err)
	require.ErrorIs(t, err, ErrInvalidHandler)
	require.ErrorIs(t, err, ErrConflictingFlags)
	require.Equal(t, 1, count)
	require.Equal(t, []string{"ok"}, reg.Table().Names())
}

func TestRegistry_DuplicateIsIdempotent(t *testing.T) {
	reg := NewRegistry(nil)
	def := Definition{Name: "ping", Handler: pingHandler}

	require.NoError(t, reg.Register(def))
	require.NoError(t, reg.Register(def))
	require.Len(t, reg.Lookup("ping"), 1)

	count, err := reg.Discover(SourceFunc(func() []Definition { return []Definition{def, def} }))
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestRegistry_SnapshotIsImmutable(t *testing.T) {
	reg := NewRegistry(nil)
	require.NoError(t, reg.Register(Definition{Name: "echo", Handler: echoHandler}))

	before := reg.Table()
	require.NoError(t, reg.Register(Definition{Name: "echo", Handler: echoTwice}))
	require.NoError(t, reg.Register(Definition{Name: "ping", Handler: pingHandler}))

	require.Len(t, before.Lookup("echo"), 1)
	require.Equal(t, []string{"echo"}, before.Names())
	require.Len(t, reg.Lookup("echo"), 2)
}

func TestRegistry_ConcurrentReadersAndWriters(t *testing.T) {
	reg := NewRegistry(nil)
	require.NoError(t, reg.Register(Definition{Name: "ping", Handler: pingHandler}))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = reg.Discover(testSource)
		}()
		go func() {
			defer wg.Done()
			for _, name := range reg.Table().Names() {
				_ = reg.Lookup(name)
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 4, reg.Table().Len())
}

// =============================================================================
// CACHE
// =============================================================================

func TestCache_RoundTrip(t *testing.T) {
	reg := NewRegistry(nil)
	_, err := reg.Discover(testSource)
	require.NoError(t, err)

	entries := reg.SaveCache()
	require.Len(t, entries, 5)

	data, err := json.Marshal(entries)
	require.NoError(t, err)
	var decoded []CachedEntry
	require.NoError(t, json.Unmarshal(data, &decoded))

	loaded := NewRegistry(nil)
	count, err := loaded.LoadCache(decoded, NewCatalog(testSource), LoadOptions{})
	require.NoError(t, err)
	require.Equal(t, 5, count)

	require.Equal(t, reg.Table().Names(), loaded.Table().Names())
	for _, name := range reg.Table().Names() {
		want := reg.Lookup(name)
		got := loaded.Lookup(name)
		require.Len(t, got, len(want))
		for i := range want {
			require.Equal(t, want[i].MethodID, got[i].MethodID)
			require.Equal(t, want[i].OwnerID, got[i].OwnerID)
			require.Equal(t, want[i].Flags, got[i].Flags)
			require.Equal(t, want[i].Description, got[i].Description)
			require.Equal(t, want[i].Signature(), got[i].Signature())
		}
	}
}

func TestCache_EntryJSON(t *testing.T) {
	reg := NewRegistry(nil)
	require.NoError(t, reg.Register(Definition{
		Name:       "add",
		Handler:    (*counter).Add,
		OnInstance: true,
		Flags:      FlagCheat | FlagHidden,
	}))

	data, err := json.Marshal(reg.SaveCache()[0])
	require.NoError(t, err)
	require.JSONEq(t, `{
		"command": "add",
		"flags": "Cheat|Hidden",
		"owner_type": "*github.com/jeranaias/devcon/internal/console.counter",
		"method": "github.com/jeranaias/devcon/internal/console.(*counter).Add",
		"parameter_types": ["int"]
	}`, string(data))
}

func TestCache_UnresolvedEntriesDropped(t *testing.T) {
	reg := NewRegistry(nil)
	_, err := reg.Discover(testSource)
	require.NoError(t, err)
	entries := reg.SaveCache()

	entries = append(entries,
		CachedEntry{
			Command:   "ghost",
			OwnerType: "github.com/jeranaias/devcon/internal/removed",
			Method:    "github.com/jeranaias/devcon/internal/removed.ghost",
		},
		CachedEntry{
			Command:        "ping",
			OwnerType:      "github.com/jeranaias/devcon/internal/console",
			Method:         "github.com/jeranaias/devcon/internal/console.pingHandler",
			ParameterTypes: []string{"string"},
		},
		CachedEntry{
			Command:        "add",
			OwnerType:      "*github.com/jeranaias/devcon/internal/console.gone",
			Method:         "github.com/jeranaias/devcon/internal/console.(*counter).Add",
			ParameterTypes: []string{"int"},
		},
	)

	loaded := NewRegistry(nil)
	count, err := loaded.LoadCache(entries, NewCatalog(testSource), LoadOptions{})
	require.Equal(t, 5, count)
	require.Error(t, err)
	require.True(t, IsKind(err, KindCacheEntryUnresolved))
	require.ErrorContains(t, err, "cache entry 'ghost' unresolved")
	require.ErrorContains(t, err, "parameter types changed")
	require.ErrorContains(t, err, "owner type")
	require.Empty(t, loaded.Lookup("ghost"))
	require.Len(t, loaded.Lookup("ping"), 1)
}

func TestCache_Exclusion(t *testing.T) {
	reg := NewRegistry(nil)
	_, err := reg.Discover(testSource)
	require.NoError(t, err)
	entries := reg.SaveCache()
	catalog := NewCatalog(testSource)

	loaded := NewRegistry(nil)
	count, err := loaded.LoadCache(entries, catalog, LoadOptions{Exclude: ExcludeFlags(FlagCheat | FlagHidden)})
	require.NoError(t, err)
	require.Equal(t, 3, count)
	require.Equal(t, []string{"echo", "ping"}, loaded.Table().Names())

	count, err = loaded.LoadCache(entries, catalog, LoadOptions{Exclude: ExcludePackage("github.com/jeranaias/devcon/internal/console")})
	require.NoError(t, err)
	require.Equal(t, 0, count)
	require.Equal(t, 0, loaded.Table().Len())

	count, err = loaded.LoadCache(entries, catalog, LoadOptions{Exclude: ExcludePackage("github.com/jeranaias/devcon/internal/cons")})
	require.NoError(t, err)
	require.Equal(t, 5, count)
}

func TestCache_LoadedCommandsDispatch(t *testing.T) {
	h := newHarness(t)
	_, err := h.console.Discover(testSource)
	require.NoError(t, err)
	entries := h.console.SaveCache()

	_, err = h.console.Discover()
	require.NoError(t, err)
	require.True(t, IsKind(h.console.Execute("ping"), KindUnknownCommand))

	_, err = h.console.LoadCache(entries, NewCatalog(testSource), LoadOptions{})
	require.NoError(t, err)
	h.sink.Reset()
	require.NoError(t, h.console.Execute("echo hi 3"))
	require.Equal(t, []string{"> echo hi 3", "hihihi"}, h.sink.Texts())
}

func TestCatalog_PrefersMatchingName(t *testing.T) {
	catalog := NewCatalog(SourceFunc(func() []Definition {
		return []Definition{
			{Name: "echo", Handler: echoHandler},
			{Name: "say", Handler: echoHandler, Description: "alias"},
		}
	}))
	require.Equal(t, 1, catalog.Len())

	def, ok := catalog.Lookup("github.com/jeranaias/devcon/internal/console.echoHandler", "SAY")
	require.True(t, ok)
	require.Equal(t, "alias", def.Description)

	_, ok = catalog.Lookup("missing", "say")
	require.False(t, ok)
}
