// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/jeranaias/devcon/internal/builtins"
	"github.com/jeranaias/devcon/internal/cache"
	"github.com/jeranaias/devcon/internal/config"
	"github.com/jeranaias/devcon/internal/console"
	"github.com/jeranaias/devcon/internal/convert"
	"github.com/jeranaias/devcon/internal/geom"
)

// AppOptions configures NewApp.
type AppOptions struct {
	Config  *config.Config
	Logger  *slog.Logger
	Out     io.Writer
	Version string
	// PrefsPath overrides ~/.devcon/prefs.json.
	PrefsPath string
	// NoCache skips the command cache for this run.
	NoCache bool
}

// App wires the console, its command sources and the command cache.
type App struct {
	Config  *config.Config
	Console *console.Console
	Shell   *Shell
	Host    *builtins.Host
	Sink    *StyledSink
	Logger  *slog.Logger

	store   cache.Store
	watcher *cache.Watcher
}

// NewApp builds the console described by opts.Config. Commands are not
// registered until Start.
func NewApp(opts AppOptions) (*App, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		dir, err := config.ConfigDir()
		if err != nil {
			return nil, err
		}
		prefsPath = filepath.Join(dir, "prefs.json")
	}
	host, err := builtins.NewHost(builtins.HostOptions{Version: opts.Version, PrefsPath: prefsPath})
	if err != nil {
		return nil, err
	}

	sink := NewStyledSink(out, ColorProfile(out, ColorsEnabled(out, cfg.REPL.Color)))

	conv := convert.NewRegistry()
	geom.RegisterConverters(conv)

	instances := console.NewInstances(host.Instances()...)
	c := console.New(conv, console.Options{
		Sink:            sink,
		Resolver:        instances,
		Gates:           console.NewGates(cfg.Console.Cheats, cfg.Console.DebugEnabled(console.DebugBuild), cfg.Console.Editor),
		Separator:       cfg.Console.SeparatorRune(),
		HelpCommand:     cfg.Console.HelpCommand,
		SuggestionLimit: cfg.Console.SuggestionLimit,
		Logger:          logger,
	})

	shell := NewShell(c, sink, cfg.Console.HelpCommand)
	instances.Add(shell)
	if err := host.RegisterProviders(c); err != nil {
		return nil, err
	}

	app := &App{
		Config:  cfg,
		Console: c,
		Shell:   shell,
		Host:    host,
		Sink:    sink,
		Logger:  logger,
	}

	if cfg.Cache.Enabled && !opts.NoCache {
		if app.store, err = cache.Open(cfg.Cache, logger); err != nil {
			return nil, err
		}
		host.Env.OnRebuild(app.Rebuild)
	}
	return app, nil
}

// Sources returns the command sources in registration order. The built-in
// corpus is left out when the config excludes it.
func (a *App) Sources() []console.Source {
	sources := []console.Source{a.Shell}
	if !a.Config.Cache.ExcludeBuiltins {
		sources = append(sources, builtins.Source)
	}
	return sources
}

func (a *App) loadOptions() console.LoadOptions {
	if a.Config.Cache.ExcludeBuiltins {
		return console.LoadOptions{Exclude: console.ExcludePackage(builtins.Package)}
	}
	return console.LoadOptions{}
}

// Store returns the command cache, or nil when caching is off.
func (a *App) Store() cache.Store {
	return a.store
}

// Start registers commands. With a cache it restores the saved table and
// falls back to a rebuild when nothing usable is stored; with Watch set it
// also reloads whenever the cache changes on disk.
func (a *App) Start(ctx context.Context) error {
	if a.store == nil {
		_, err := a.Console.Discover(a.Sources()...)
		return err
	}

	count, err := cache.Restore(ctx, a.store, a.Console, console.NewCatalog(a.Sources()...), a.loadOptions())
	switch {
	case count == 0:
		// Covers a missing, empty, outdated or unreadable cache.
		a.Logger.Info("rebuilding command cache", "reason", err)
		if _, err := a.Rebuild(ctx); err != nil {
			return err
		}
	case err != nil:
		// Stale entries were dropped; the rest of the table is usable.
		a.Logger.Warn("command cache partially restored", "registered", count, "error", err)
	}
	a.registerHost()

	if a.Config.Cache.Watch {
		debounce := time.Duration(a.Config.Cache.DebounceMS) * time.Millisecond
		w, err := cache.NewWatcher(a.store.Path(), debounce, a.Logger, a.reload)
		if err != nil {
			return err
		}
		if err := w.Start(ctx); err != nil {
			w.Close()
			return err
		}
		a.watcher = w
	}
	return nil
}

// Rebuild rediscovers every source and rewrites the cache.
func (a *App) Rebuild(ctx context.Context) (int, error) {
	count, err := a.Console.Discover(a.Sources()...)
	if err != nil {
		return count, fmt.Errorf("discover commands: %w", err)
	}
	if a.store != nil {
		if err := cache.Persist(ctx, a.store, a.Console); err != nil {
			return count, err
		}
	}
	return count, nil
}

// reload restores the cache after it changes on disk. A cache with nothing
// usable in it leaves the current commands in place.
func (a *App) reload(ctx context.Context) {
	current := a.Console.Registry().Table()
	count, err := cache.Restore(ctx, a.store, a.Console, console.NewCatalog(a.Sources()...), a.loadOptions())
	if count == 0 {
		a.Console.Registry().Replace(current)
		a.Logger.Warn("command cache reload kept current commands", "error", err)
		return
	}
	a.registerHost()
	if err != nil {
		a.Logger.Warn("command cache reload incomplete", "registered", count, "error", err)
		return
	}
	a.Sink.Notice("Command cache reloaded: %d commands", count)
}

// registerHost adds the shell commands back when a restored cache lacks them.
func (a *App) registerHost() {
	for _, def := range a.Shell.Commands() {
		if err := a.Console.Register(def); err != nil {
			a.Logger.Warn("host command not registered", "command", def.Name, "error", err)
		}
	}
}

// REPL returns a loop reading from in.
func (a *App) REPL(in io.Reader) *REPL {
	history, err := a.Config.REPL.HistoryPath()
	if err != nil {
		a.Logger.Warn("history disabled", "error", err)
	}
	return &REPL{
		Console:     a.Console,
		Shell:       a.Shell,
		Prompt:      a.Config.REPL.Prompt,
		HistoryPath: history,
		In:          in,
		Logger:      a.Logger,
	}
}

// Close stops the watcher and closes the cache.
func (a *App) Close() error {
	var errs []error
	if a.watcher != nil {
		errs = append(errs, a.watcher.Close())
	}
	if a.store != nil {
		errs = append(errs, a.store.Close())
	}
	return errors.Join(errs...)
}
