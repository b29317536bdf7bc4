// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/jeranaias/devcon/internal/console"
)

// REPL reads command lines and submits them to a console until the input
// ends, the user quits, or the context is cancelled.
type REPL struct {
	Console *console.Console
	Shell   *Shell
	// Prompt is shown before each line on a terminal.
	Prompt string
	// HistoryPath persists line history between sessions. Empty disables it.
	HistoryPath string
	In          io.Reader
	Logger      *slog.Logger
}

// Run starts the loop. A terminal gets line editing, history and tab
// completion; any other input is read line by line.
func (r *REPL) Run(ctx context.Context) error {
	if r.Logger == nil {
		r.Logger = slog.New(slog.DiscardHandler)
	}
	if r.In == nil {
		r.In = os.Stdin
	}

	r.Console.SetOpen(true)
	defer r.Console.SetOpen(false)

	if f, ok := r.In.(*os.File); ok && f == os.Stdin && IsTTY() {
		return r.runInteractive(ctx)
	}
	return r.runPlain(ctx)
}

// handle submits one line and reports whether the loop should continue.
func (r *REPL) handle(line string) bool {
	if err := r.Console.Submit(line); err != nil {
		r.Logger.Debug("command failed", "line", line, "error", err)
	}
	return !r.Shell.Done()
}

func (r *REPL) runPlain(ctx context.Context) error {
	scanner := bufio.NewScanner(r.In)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !r.handle(scanner.Text()) {
			return nil
		}
	}
	return scanner.Err()
}

func (r *REPL) runInteractive(ctx context.Context) error {
	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)
	line.SetTabCompletionStyle(liner.TabCircular)
	line.SetCompleter(r.Console.Complete)

	r.loadHistory(line)
	defer r.saveHistory(line)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		input, err := line.Prompt(r.Prompt)
		if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}

		if strings.TrimSpace(input) != "" {
			line.AppendHistory(input)
		}
		if !r.handle(input) {
			return nil
		}
	}
}

func (r *REPL) loadHistory(line *liner.State) {
	if r.HistoryPath == "" {
		return
	}
	f, err := os.Open(r.HistoryPath)
	if err != nil {
		return
	}
	defer f.Close()
	if _, err := line.ReadHistory(f); err != nil {
		r.Logger.Warn("could not read history", "path", r.HistoryPath, "error", err)
	}
}

// saveHistory writes history with 0600 permissions; it may hold pref values.
func (r *REPL) saveHistory(line *liner.State) {
	if r.HistoryPath == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(r.HistoryPath), 0700); err != nil {
		r.Logger.Warn("could not create history directory", "error", err)
		return
	}
	f, err := os.OpenFile(r.HistoryPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		r.Logger.Warn("could not write history", "path", r.HistoryPath, "error", err)
		return
	}
	defer f.Close()
	if _, err := line.WriteHistory(f); err != nil {
		r.Logger.Warn("could not write history", "path", r.HistoryPath, "error", err)
	}
}
