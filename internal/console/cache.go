// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package console

import (
	"errors"
	"reflect"
	"slices"
	"strings"

	"github.com/jeranaias/devcon/internal/convert"
)

// =============================================================================
// CACHE ENTRIES
// =============================================================================

// CachedEntry is the persisted form of one descriptor.
type CachedEntry struct {
	Command        string   `json:"command"`
	Description    string   `json:"description,omitempty"`
	Flags          Flags    `json:"flags"`
	OwnerType      string   `json:"owner_type"`
	Method         string   `json:"method"`
	ParameterTypes []string `json:"parameter_types"`
}

// CacheEntry projects d into its persisted form.
func (d *Descriptor) CacheEntry() CachedEntry {
	types := make([]string, len(d.Params))
	for i, p := range d.Params {
		types[i] = convert.TypeID(p.Type)
	}
	return CachedEntry{
		Command:        d.Name,
		Description:    d.Description,
		Flags:          d.Flags,
		OwnerType:      d.OwnerID,
		Method:         d.MethodID,
		ParameterTypes: types,
	}
}

// SaveCache projects the current table into cache entries.
func (r *Registry) SaveCache() []CachedEntry {
	descs := r.Table().Descriptors()
	entries := make([]CachedEntry, len(descs))
	for i, d := range descs {
		entries[i] = d.CacheEntry()
	}
	return entries
}

// =============================================================================
// CATALOG
// =============================================================================

// Catalog indexes the handlers linked into the running binary by method id,
// which is what lets cache entries be resolved without a discovery pass.
type Catalog struct {
	byMethod map[string][]Definition
}

// NewCatalog indexes the definitions of every source.
func NewCatalog(sources ...Source) *Catalog {
	c := &Catalog{byMethod: make(map[string][]Definition)}
	for _, src := range sources {
		if src == nil {
			continue
		}
		for _, def := range src.Commands() {
			c.Add(def)
		}
	}
	return c
}

// Add indexes a single definition.
func (c *Catalog) Add(def Definition) {
	fn := reflect.ValueOf(def.Handler)
	if fn.Kind() != reflect.Func || fn.IsNil() {
		return
	}
	id := funcName(fn)
	c.byMethod[id] = append(c.byMethod[id], def)
}

// Len returns the number of indexed methods.
func (c *Catalog) Len() int {
	return len(c.byMethod)
}

// Lookup finds the definition for method, preferring the one registered
// under command when a handler is shared by several names.
func (c *Catalog) Lookup(method, command string) (Definition, bool) {
	defs := c.byMethod[method]
	if len(defs) == 0 {
		return Definition{}, false
	}
	key := NormalizeName(command)
	for _, def := range defs {
		if NormalizeName(def.Name) == key {
			return def, true
		}
	}
	return defs[0], true
}

// =============================================================================
// LOADING
// =============================================================================

// LoadOptions controls which cache entries are loaded.
type LoadOptions struct {
	// Exclude skips matching entries.
	Exclude func(CachedEntry) bool
}

// ExcludePackage matches entries declared in the package with import path
// pkg, whether by a static handler or a method on one of its types.
func ExcludePackage(pkg string) func(CachedEntry) bool {
	return func(e CachedEntry) bool {
		owner := strings.TrimLeft(e.OwnerType, "*")
		return owner == pkg || strings.HasPrefix(owner, pkg+".")
	}
}

// ExcludeFlags matches entries carrying any flag in mask.
func ExcludeFlags(mask Flags) func(CachedEntry) bool {
	return func(e CachedEntry) bool {
		return e.Flags.Any(mask)
	}
}

// LoadCache rebuilds the table from cache entries and swaps it in. Entries
// that no longer resolve against catalog are skipped and reported as
// KindCacheEntryUnresolved errors. It returns the number of loaded overloads.
func (r *Registry) LoadCache(entries []CachedEntry, catalog *Catalog, opts LoadOptions) (int, error) {
	next := NewTable()
	var errs []error
	count := 0

	for _, entry := range entries {
		if opts.Exclude != nil && opts.Exclude(entry) {
			r.logger.Debug("cache entry excluded", "command", entry.Command, "owner", entry.OwnerType)
			continue
		}

		d, err := resolveEntry(entry, catalog)
		if err != nil {
			r.logger.Warn("skipping unresolved cache entry",
				"command", entry.Command, "method", entry.Method, "reason", err.Reason)
			errs = append(errs, err)
			continue
		}
		if !next.add(d) {
			continue
		}
		count++
	}

	r.Replace(next)
	r.logger.Info("commands loaded from cache", "commands", next.Len(), "overloads", count, "skipped", len(errs))
	return count, errors.Join(errs...)
}

func resolveEntry(entry CachedEntry, catalog *Catalog) (*Descriptor, *Error) {
	unresolved := func(reason string, cause error) *Error {
		return &Error{
			Kind:    KindCacheEntryUnresolved,
			Command: entry.Command,
			Type:    entry.OwnerType,
			Reason:  reason,
			Err:     cause,
		}
	}

	if catalog == nil {
		return nil, unresolved("no catalog", nil)
	}
	def, ok := catalog.Lookup(entry.Method, entry.Command)
	if !ok {
		return nil, unresolved("method "+entry.Method+" no longer exists", nil)
	}

	def.Name = entry.Command
	def.Description = entry.Description
	def.Flags = entry.Flags

	d, err := NewDescriptor(def)
	if err != nil {
		return nil, unresolved("invalid definition", err)
	}
	if d.OwnerID != entry.OwnerType {
		return nil, unresolved("owner type "+entry.OwnerType+" no longer exists", nil)
	}

	types := d.CacheEntry().ParameterTypes
	if !slices.Equal(types, entry.ParameterTypes) {
		return nil, unresolved("parameter types changed", nil)
	}
	return d, nil
}
