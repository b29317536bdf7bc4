// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli hosts the developer console in a terminal.
//
// It wires the console core to its command sources, the command cache and
// a styled output sink, and runs the interactive read-eval loop.
//
// # Key Types
//
//   - App: Composition root built from a config.Config
//   - Shell: Host commands (help, clear, quit, cheats) that are always present
//   - REPL: Line reader with history and tab completion on terminals
//   - StyledSink: lipgloss-coloured console.Sink
//
// # Usage
//
//	app, err := cli.NewApp(cli.AppOptions{Config: cfg, Logger: logger, Out: os.Stdout})
//	if err != nil {
//	    return err
//	}
//	defer app.Close()
//	if err := app.Start(ctx); err != nil {
//	    return err
//	}
//	return app.REPL(os.Stdin).Run(ctx)
package cli
