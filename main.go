// devcon - An in-process developer command console.
//
// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/jeranaias/devcon/internal/cache"
	"github.com/jeranaias/devcon/internal/cli"
	"github.com/jeranaias/devcon/internal/config"
	"github.com/jeranaias/devcon/internal/console"
	"github.com/jeranaias/devcon/internal/logging"
	"github.com/jeranaias/devcon/internal/util"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// exitError carries a process exit code without printing anything further;
// the console has already reported the failure.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

// run executes the CLI and returns the process exit code.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	root := buildRootCmd(stdin, stdout, stderr)
	// cobra falls back to os.Args when given nil.
	if args == nil {
		args = []string{}
	}
	root.SetArgs(args)

	err := root.Execute()
	if err == nil {
		return 0
	}
	var exit *exitError
	if errors.As(err, &exit) {
		return exit.code
	}
	fmt.Fprintf(stderr, "Error: %v\n", err)
	return 1
}

// =============================================================================
// ROOT COMMAND
// =============================================================================

// globals holds the persistent flags and I/O streams shared by every command.
type globals struct {
	configPath string
	cheats     bool
	editor     bool
	noCache    bool
	logLevel   string

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func buildRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	g := &globals{stdin: stdin, stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:   "devcon",
		Short: "devcon - an in-process developer command console",
		Long: `devcon runs developer commands typed as plain text.

Commands are overloaded by argument count and type, may be chained with a
separator ("gravity 2 | version"), and are gated by cheat, debug and editor
modes. Without a subcommand devcon starts an interactive console.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE:          g.runInteractive,
	}
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	flags := root.PersistentFlags()
	flags.StringVar(&g.configPath, "config", "", "config file (default $DEVCON_CONFIG or ~/.devcon/config.toml)")
	flags.BoolVar(&g.cheats, "cheats", false, "enable cheat commands")
	flags.BoolVar(&g.editor, "editor", false, "enable editor-only commands")
	flags.BoolVar(&g.noCache, "no-cache", false, "discover commands instead of using the command cache")
	flags.StringVar(&g.logLevel, "log-level", "", "log level: debug, info, warn, error")

	root.AddCommand(
		g.buildExecCmd(),
		g.buildCompleteCmd(),
		g.buildCommandsCmd(),
		g.buildCacheCmd(),
		g.buildConfigCmd(),
	)
	return root
}

// loadConfig reads the config file and applies command-line overrides.
func (g *globals) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if g.configPath != "" {
		cfg, err = config.LoadFromPath(g.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("cheats") {
		cfg.Console.Cheats = g.cheats
	}
	if flags.Changed("editor") {
		cfg.Console.Editor = g.editor
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = g.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// openApp builds the console. The returned cleanup closes the app and the log.
func (g *globals) openApp(cmd *cobra.Command, start bool) (*cli.App, func(), error) {
	cfg, err := g.loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	logger, logCloser, err := logging.New(cfg.Log)
	if err != nil {
		return nil, nil, err
	}

	app, err := cli.NewApp(cli.AppOptions{
		Config:  cfg,
		Logger:  logger,
		Out:     g.stdout,
		Version: Version,
		NoCache: g.noCache,
	})
	if err != nil {
		logCloser.Close()
		return nil, nil, err
	}
	cleanup := func() {
		if err := app.Close(); err != nil {
			logger.Warn("shutdown", "error", err)
		}
		logCloser.Close()
	}

	if start {
		if err := app.Start(cmd.Context()); err != nil {
			cleanup()
			return nil, nil, err
		}
	}
	return app, cleanup, nil
}

func (g *globals) runInteractive(cmd *cobra.Command, _ []string) error {
	app, cleanup, err := g.openApp(cmd, true)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	if cli.IsTTY() {
		app.Sink.Notice("devcon %s. Type '%s' for a list of commands.", Version, app.Config.Console.HelpCommand)
	}
	err = app.REPL(g.stdin).Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// =============================================================================
// ONE-SHOT COMMANDS
// =============================================================================

func (g *globals) buildExecCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "exec <command line>",
		Short: "Run one command line and exit",
		Long: `Run one command line and exit.

Arguments are joined with spaces, so quote the line to keep separators and
quoted arguments intact:

  devcon exec 'setpref name "Ada Lovelace" | getpref name'

The exit status is 2 when the input could not be matched to a command
overload and 1 for other failures.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, cleanup, err := g.openApp(cmd, true)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := app.Console.Submit(strings.Join(args, " ")); err != nil {
				return &exitError{code: console.ExitCode(err)}
			}
			return nil
		},
	}
}

func (g *globals) buildCompleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "complete <partial line>",
		Short: "Print completions for a partial command line",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, cleanup, err := g.openApp(cmd, true)
			if err != nil {
				return err
			}
			defer cleanup()

			for _, line := range app.Console.Complete(strings.Join(args, " ")) {
				fmt.Fprintln(g.stdout, line)
			}
			return nil
		},
	}
}

func (g *globals) buildCommandsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "commands [command]",
		Short: "List console commands or describe one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, cleanup, err := g.openApp(cmd, true)
			if err != nil {
				return err
			}
			defer cleanup()

			name := ""
			if len(args) == 1 {
				name = args[0]
			}
			fmt.Fprintln(g.stdout, app.Console.Help(name))
			return nil
		},
	}
}

// =============================================================================
// CACHE COMMANDS
// =============================================================================

var errCacheDisabled = errors.New("command cache is disabled (set cache.enabled = true)")

func (g *globals) buildCacheCmd() *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the command cache",
	}

	cacheCmd.AddCommand(
		&cobra.Command{
			Use:   "rebuild",
			Short: "Rediscover every command and rewrite the cache",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				app, cleanup, err := g.openApp(cmd, false)
				if err != nil {
					return err
				}
				defer cleanup()
				if app.Store() == nil {
					return errCacheDisabled
				}

				count, err := app.Rebuild(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(g.stdout, "Cached %d commands in %s\n", count, app.Store().Path())
				return nil
			},
		},
		&cobra.Command{
			Use:   "show",
			Short: "List the cached commands",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				store, done, err := g.openStore(cmd)
				if err != nil {
					return err
				}
				defer done()

				entries, err := store.Load(cmd.Context())
				if errors.Is(err, cache.ErrNotFound) {
					fmt.Fprintf(g.stdout, "No command cache at %s\n", store.Path())
					return nil
				}
				if err != nil {
					return err
				}
				writeEntries(g.stdout, entries)
				return nil
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Delete the cached commands",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				store, done, err := g.openStore(cmd)
				if err != nil {
					return err
				}
				defer done()

				if err := store.Clear(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintf(g.stdout, "Cleared %s\n", store.Path())
				return nil
			},
		},
	)
	return cacheCmd
}

// openStore opens the configured cache without starting a console.
func (g *globals) openStore(cmd *cobra.Command) (cache.Store, func(), error) {
	cfg, err := g.loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	if !cfg.Cache.Enabled {
		return nil, nil, errCacheDisabled
	}
	store, err := cache.Open(cfg.Cache, slog.New(slog.DiscardHandler))
	if err != nil {
		return nil, nil, err
	}
	return store, func() { store.Close() }, nil
}

const descriptionWidth = 36

func writeEntries(w io.Writer, entries []console.CachedEntry) {
	width := len("COMMAND")
	for _, e := range entries {
		width = max(width, util.Width(e.Command))
	}
	fmt.Fprintf(w, "%s  %-20s  %s  %s\n",
		util.PadRight("COMMAND", width), "FLAGS", util.PadRight("DESCRIPTION", descriptionWidth), "HANDLER")
	for _, e := range entries {
		fmt.Fprintf(w, "%s  %-20s  %s  %s(%s)\n",
			util.PadRight(e.Command, width), e.Flags,
			util.PadRight(util.Truncate(e.Description, descriptionWidth), descriptionWidth),
			e.Method, strings.Join(e.ParameterTypes, ", "))
	}
	fmt.Fprintf(w, "%d commands\n", len(entries))
}

// =============================================================================
// CONFIG COMMANDS
// =============================================================================

func (g *globals) buildConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change configuration",
	}

	configCmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the effective configuration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				cfg, err := g.loadConfig(cmd)
				if err != nil {
					return err
				}
				return toml.NewEncoder(g.stdout).Encode(cfg)
			},
		},
		&cobra.Command{
			Use:   "get <key>",
			Short: "Print one configuration value",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := g.loadConfig(cmd)
				if err != nil {
					return err
				}
				value, err := cfg.Get(args[0])
				if err != nil {
					return err
				}
				if value == nil {
					value = "(unset)"
				}
				fmt.Fprintln(g.stdout, value)
				return nil
			},
		},
		&cobra.Command{
			Use:   "set <key> <value>",
			Short: "Change one configuration value and save the file",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := g.loadConfig(cmd)
				if err != nil {
					return err
				}
				if err := cfg.Set(args[0], args[1]); err != nil {
					return err
				}
				if err := cfg.Validate(); err != nil {
					return err
				}
				path, err := g.resolveConfigPath()
				if err != nil {
					return err
				}
				if err := config.SaveTo(cfg, path); err != nil {
					return err
				}
				fmt.Fprintf(g.stdout, "Set %s = %s in %s\n", args[0], args[1], path)
				return nil
			},
		},
		&cobra.Command{
			Use:   "keys",
			Short: "List every configuration key",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				for _, key := range config.Keys() {
					fmt.Fprintln(g.stdout, key)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "path",
			Short: "Print the config file location",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				path, err := g.resolveConfigPath()
				if err != nil {
					return err
				}
				fmt.Fprintln(g.stdout, path)
				return nil
			},
		},
	)
	return configCmd
}

func (g *globals) resolveConfigPath() (string, error) {
	if g.configPath != "" {
		return g.configPath, nil
	}
	return config.ConfigPath()
}
