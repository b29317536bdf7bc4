// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package console

import (
	"errors"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// =============================================================================
// SOURCES
// =============================================================================

// Source provides command definitions for discovery.
type Source interface {
	Commands() []Definition
}

// SourceFunc adapts a function to a Source.
type SourceFunc func() []Definition

// Commands implements Source.
func (f SourceFunc) Commands() []Definition {
	return f()
}

// NormalizeName returns the lookup key for a command name.
func NormalizeName(name string) string {
	// Casers hold state and are not safe for concurrent use.
	return cases.Lower(language.Und).String(strings.TrimSpace(name))
}

// =============================================================================
// TABLE
// =============================================================================

// Table maps lowercase command names to their overloads in registration
// order. A published Table is never mutated.
type Table struct {
	overloads map[string][]*Descriptor
	names     []string
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{overloads: make(map[string][]*Descriptor)}
}

// Lookup returns the overloads registered under name.
func (t *Table) Lookup(name string) []*Descriptor {
	return t.overloads[NormalizeName(name)]
}

// Names returns every command name, sorted.
func (t *Table) Names() []string {
	return slices.Clone(t.names)
}

// VisibleNames returns the sorted names that have at least one overload
// without FlagHidden.
func (t *Table) VisibleNames() []string {
	var out []string
	for _, name := range t.names {
		for _, d := range t.overloads[name] {
			if !d.Flags.Has(FlagHidden) {
				out = append(out, name)
				break
			}
		}
	}
	return out
}

// Len returns the number of distinct command names.
func (t *Table) Len() int {
	return len(t.names)
}

// Descriptors returns every overload, grouped by sorted name.
func (t *Table) Descriptors() []*Descriptor {
	var out []*Descriptor
	for _, name := range t.names {
		out = append(out, t.overloads[name]...)
	}
	return out
}

// add appends d unless an identical overload is already present.
func (t *Table) add(d *Descriptor) bool {
	existing := t.overloads[d.Key]
	for _, e := range existing {
		if e.sameIdentity(d) {
			return false
		}
	}

	if len(existing) == 0 {
		i, _ := slices.BinarySearch(t.names, d.Key)
		t.names = slices.Insert(t.names, i, d.Key)
	}
	// Full slice expression so appends never write into a shared array.
	t.overloads[d.Key] = append(existing[:len(existing):len(existing)], d)
	return true
}

func (t *Table) clone() *Table {
	c := &Table{
		overloads: make(map[string][]*Descriptor, len(t.overloads)),
		names:     slices.Clone(t.names),
	}
	for k, v := range t.overloads {
		c.overloads[k] = v
	}
	return c
}

// =============================================================================
// REGISTRY
// =============================================================================

// Registry owns the current command table. Readers take a snapshot with
// Table; writers build a new table and publish it atomically.
type Registry struct {
	mu     sync.Mutex
	table  atomic.Pointer[Table]
	logger *slog.Logger
}

// NewRegistry creates a registry with an empty table.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	r := &Registry{logger: logger}
	r.table.Store(NewTable())
	return r
}

// Table returns the current snapshot.
func (r *Registry) Table() *Table {
	return r.table.Load()
}

// Lookup returns the overloads for name in the current snapshot.
func (r *Registry) Lookup(name string) []*Descriptor {
	return r.Table().Lookup(name)
}

// Register adds a single definition to the current table.
func (r *Registry) Register(def Definition) error {
	d, err := NewDescriptor(def)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	next := r.Table().clone()
	if !next.add(d) {
		r.logger.Debug("duplicate command skipped", "command", d.Name, "method", d.MethodID)
		return nil
	}
	r.table.Store(next)
	return nil
}

// Discover rebuilds the table from sources and swaps it in. Invalid
// definitions are skipped and returned as a joined error. It returns the
// number of registered overloads.
func (r *Registry) Discover(sources ...Source) (int, error) {
	next := NewTable()
	var errs []error
	count := 0

	for _, src := range sources {
		if src == nil {
			continue
		}
		for _, def := range src.Commands() {
			d, err := NewDescriptor(def)
			if err != nil {
				r.logger.Warn("invalid command definition", "command", def.Name, "error", err)
				errs = append(errs, err)
				continue
			}
			if !next.add(d) {
				r.logger.Debug("duplicate command skipped", "command", d.Name, "method", d.MethodID)
				continue
			}
			count++
		}
	}

	r.Replace(next)
	r.logger.Info("commands discovered", "commands", next.Len(), "overloads", count)
	return count, errors.Join(errs...)
}

// Replace publishes t as the current table.
func (r *Registry) Replace(t *Table) {
	if t == nil {
		t = NewTable()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.table.Store(t)
}
