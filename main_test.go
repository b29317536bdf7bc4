// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"bytes"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// setupHome isolates config, cache, prefs and history under a temp HOME.
func setupHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("DEVCON_CONFIG", filepath.Join(home, ".devcon", "config.toml"))
	t.Setenv("DEVCON_CACHE_PATH", "")
	t.Setenv("DEVCON_CHEATS", "")
	t.Setenv("DEVCON_EDITOR", "")
	t.Setenv("DEVCON_LOG_LEVEL", "")
	t.Setenv("NO_COLOR", "1")
	return home
}

func runCLI(t *testing.T, stdin io.Reader, args ...string) (int, string, string) {
	t.Helper()
	if stdin == nil {
		stdin = strings.NewReader("")
	}
	var stdout, stderr bytes.Buffer
	code := run(args, stdin, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestExec(t *testing.T) {
	setupHome(t)

	tests := []struct {
		name     string
		args     []string
		wantCode int
		wantOut  string
	}{
		{"version", []string{"exec", "version"}, 0, "Application version: " + Version},
		{"joined args", []string{"exec", "echo", "hello"}, 0, "hello"},
		{"chained", []string{"exec", "echo a | echo b"}, 0, "> echo b"},
		{"unknown command", []string{"exec", "nope"}, 1, "Unknown command: 'nope'"},
		{"bad argument", []string{"exec", "resolution", "wide", "10"}, 2, "Could not execute 'resolution'"},
		{"gated", []string{"exec", "clearprefs"}, 1, "Cannot run 'clearprefs'"},
		{"cheats flag", []string{"--cheats", "exec", "clearprefs"}, 0, "All prefs cleared."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, out, _ := runCLI(t, nil, tt.args...)
			require.Equal(t, tt.wantCode, code, out)
			require.Contains(t, out, tt.wantOut)
		})
	}
}

func TestExec_RequiresLine(t *testing.T) {
	setupHome(t)

	code, _, stderr := runCLI(t, nil, "exec")
	require.Equal(t, 1, code)
	require.Contains(t, stderr, "requires at least 1 arg")
}

func TestInteractive_ReadsStdin(t *testing.T) {
	setupHome(t)

	code, out, _ := runCLI(t, strings.NewReader("echo first\nquit\necho never\n"))
	require.Equal(t, 0, code)
	require.Contains(t, out, "first")
	require.Contains(t, out, "Quitting...")
	require.NotContains(t, out, "never")
}

func TestComplete(t *testing.T) {
	setupHome(t)

	code, out, _ := runCLI(t, nil, "complete", "vers")
	require.Equal(t, 0, code)
	require.Contains(t, strings.Split(strings.TrimSpace(out), "\n"), "version")
}

func TestCommands(t *testing.T) {
	setupHome(t)

	code, out, _ := runCLI(t, nil, "commands")
	require.Equal(t, 0, code)
	require.Contains(t, out, "Available Commands:")
	require.Contains(t, out, "- gravity (2 overloads):")

	code, out, _ = runCLI(t, nil, "commands", "echo")
	require.Equal(t, 0, code)
	require.Contains(t, out, "Command: echo")
}

func TestCacheCommands(t *testing.T) {
	home := setupHome(t)

	code, out, _ := runCLI(t, nil, "cache", "show")
	require.Equal(t, 0, code)
	require.Contains(t, out, "No command cache")

	code, out, _ = runCLI(t, nil, "cache", "rebuild")
	require.Equal(t, 0, code)
	require.Contains(t, out, filepath.Join(home, ".devcon", "commands.json"))

	code, out, _ = runCLI(t, nil, "cache", "show")
	require.Equal(t, 0, code)
	require.Contains(t, out, "COMMAND")
	require.Contains(t, out, "teleport")

	code, out, _ = runCLI(t, nil, "cache", "clear")
	require.Equal(t, 0, code)
	require.Contains(t, out, "Cleared")

	code, out, _ = runCLI(t, nil, "cache", "show")
	require.Equal(t, 0, code)
	require.Contains(t, out, "No command cache")
}

func TestCacheCommands_Disabled(t *testing.T) {
	setupHome(t)

	code, _, _ := runCLI(t, nil, "config", "set", "cache.enabled", "false")
	require.Equal(t, 0, code)

	code, _, stderr := runCLI(t, nil, "cache", "rebuild")
	require.Equal(t, 1, code)
	require.Contains(t, stderr, "command cache is disabled")

	// The console still works without a cache.
	code, out, _ := runCLI(t, nil, "exec", "echo ok")
	require.Equal(t, 0, code)
	require.Contains(t, out, "ok")
}

func TestConfigCommands(t *testing.T) {
	home := setupHome(t)

	code, out, _ := runCLI(t, nil, "config", "path")
	require.Equal(t, 0, code)
	require.Equal(t, filepath.Join(home, ".devcon", "config.toml"), strings.TrimSpace(out))

	code, _, _ = runCLI(t, nil, "config", "set", "console.separator", ";")
	require.Equal(t, 0, code)

	code, out, _ = runCLI(t, nil, "config", "get", "console.separator")
	require.Equal(t, 0, code)
	require.Equal(t, ";", strings.TrimSpace(out))

	code, out, _ = runCLI(t, nil, "exec", "echo a ; echo b")
	require.Equal(t, 0, code)
	require.Contains(t, out, "> echo b")

	code, out, _ = runCLI(t, nil, "config", "get", "console.debug")
	require.Equal(t, 0, code)
	require.Equal(t, "(unset)", strings.TrimSpace(out))

	code, _, stderr := runCLI(t, nil, "config", "set", "log.level", "loud")
	require.Equal(t, 1, code)
	require.Contains(t, stderr, "log.level")

	code, out, _ = runCLI(t, nil, "config", "keys")
	require.Equal(t, 0, code)
	require.Contains(t, out, "repl.prompt")

	code, out, _ = runCLI(t, nil, "config", "show")
	require.Equal(t, 0, code)
	require.Contains(t, out, `separator = ";"`)
}

func TestInvalidFlagValue(t *testing.T) {
	setupHome(t)

	code, _, stderr := runCLI(t, nil, "--log-level", "loud", "exec", "version")
	require.Equal(t, 1, code)
	require.Contains(t, stderr, "invalid config")
}
