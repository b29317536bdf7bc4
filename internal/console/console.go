// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package console

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/jeranaias/devcon/internal/convert"
)

// =============================================================================
// OPTIONS
// =============================================================================

// DefaultSeparator splits multi-command input.
const DefaultSeparator = '|'

// DefaultHelpCommand is the command whose first argument completes to
// command names.
const DefaultHelpCommand = "help"

// Options configures a Console.
type Options struct {
	// Sink receives all output. Defaults to Discard.
	Sink Sink

	// Resolver supplies receivers for method handlers.
	Resolver InstanceResolver

	// Gates defaults to DefaultGates.
	Gates *Gates

	// Separator defaults to DefaultSeparator.
	Separator rune

	// HelpCommand defaults to DefaultHelpCommand.
	HelpCommand string

	// SuggestionLimit caps "did you mean" names. Zero means 3; negative
	// disables suggestions.
	SuggestionLimit int

	Logger *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.Sink == nil {
		o.Sink = Discard
	}
	if o.Gates == nil {
		o.Gates = DefaultGates()
	}
	if o.Separator == 0 {
		o.Separator = DefaultSeparator
	}
	if o.HelpCommand == "" {
		o.HelpCommand = DefaultHelpCommand
	}
	if o.SuggestionLimit == 0 {
		o.SuggestionLimit = 3
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
	return o
}

// =============================================================================
// OBSERVERS
// =============================================================================

// Observer is notified when the host opens or closes the console.
type Observer interface {
	ConsoleToggled(open bool)
}

// ObserverFunc adapts a function to an Observer.
type ObserverFunc func(open bool)

// ConsoleToggled implements Observer.
func (f ObserverFunc) ConsoleToggled(open bool) {
	f(open)
}

// =============================================================================
// CONSOLE
// =============================================================================

// Console wires the registries, dispatcher and completer together. Build one
// per host and pass it down.
type Console struct {
	registry   *Registry
	converters *convert.Registry
	dispatcher *Dispatcher
	completer  *Completer
	opts       Options

	open      atomic.Bool
	mu        sync.Mutex
	observers []Observer
}

// New creates a console with an empty command table. converters may be nil.
func New(converters *convert.Registry, opts Options) *Console {
	opts = opts.withDefaults()
	if converters == nil {
		converters = convert.NewRegistry()
	}

	reg := NewRegistry(opts.Logger)
	return &Console{
		registry:   reg,
		converters: converters,
		dispatcher: NewDispatcher(reg, converters, opts),
		completer:  NewCompleter(reg, opts),
		opts:       opts,
	}
}

// Registry returns the command registry.
func (c *Console) Registry() *Registry { return c.registry }

// Converters returns the argument converter registry.
func (c *Console) Converters() *convert.Registry { return c.converters }

// Gates returns the runtime gates checked before flagged commands run.
func (c *Console) Gates() *Gates { return c.opts.Gates }

func (c *Console) Logger() *slog.Logger { return c.opts.Logger }

// Register adds one definition to the live table.
func (c *Console) Register(def Definition) error {
	return c.registry.Register(def)
}

// Discover rebuilds the table from sources.
func (c *Console) Discover(sources ...Source) (int, error) {
	return c.registry.Discover(sources...)
}

// SaveCache projects the current table into cache entries.
func (c *Console) SaveCache() []CachedEntry {
	return c.registry.SaveCache()
}

// LoadCache rebuilds the table from cache entries.
func (c *Console) LoadCache(entries []CachedEntry, catalog *Catalog, opts LoadOptions) (int, error) {
	return c.registry.LoadCache(entries, catalog, opts)
}

// Execute runs one command line.
func (c *Console) Execute(line string) error {
	return c.dispatcher.Execute(line)
}

// Submit runs separator-delimited input.
func (c *Console) Submit(input string) error {
	return c.dispatcher.Submit(input)
}

// Suggest returns completion candidates for the token under the cursor.
func (c *Console) Suggest(partial string) []string {
	return c.completer.Suggest(partial)
}

// Complete returns completion candidates as full lines.
func (c *Console) Complete(partial string) []string {
	return c.completer.Complete(partial)
}

// RegisterProvider installs a named suggestion provider.
func (c *Console) RegisterProvider(name string, fn any) error {
	return c.completer.RegisterProvider(name, fn)
}

// Help renders help for name, or the command listing when name is empty.
func (c *Console) Help(name string) string {
	return Help(c.registry.Table(), name)
}

// Observe registers o for open and close notifications.
func (c *Console) Observe(o Observer) {
	if o == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, o)
}

// SetOpen records the console's visibility and notifies observers when it
// changes.
func (c *Console) SetOpen(open bool) {
	if c.open.Swap(open) == open {
		return
	}

	c.mu.Lock()
	observers := append([]Observer(nil), c.observers...)
	c.mu.Unlock()

	for _, o := range observers {
		o.ConsoleToggled(open)
	}
}

// IsOpen reports the last state passed to SetOpen.
func (c *Console) IsOpen() bool {
	return c.open.Load()
}
