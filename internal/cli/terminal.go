// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// terminal.go - Terminal detection for the console shell.

package cli

import (
	"io"
	"os"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// =============================================================================
// TTY DETECTION
// =============================================================================

// IsTerminal reports whether f is a file attached to a terminal.
func IsTerminal(f any) bool {
	type fder interface{ Fd() uintptr }
	fd, ok := f.(fder)
	return ok && term.IsTerminal(int(fd.Fd()))
}

// IsTTY returns true if stdin is a terminal.
func IsTTY() bool {
	return IsTerminal(os.Stdin)
}

// =============================================================================
// COLOR OUTPUT CONTROL
// =============================================================================

// ColorsEnabled decides whether output to w is coloured.
// NO_COLOR (https://no-color.org/) wins over FORCE_COLOR, which wins over
// the configured preference and TTY detection.
func ColorsEnabled(w io.Writer, preferred bool) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if os.Getenv("FORCE_COLOR") != "" {
		return true
	}
	return preferred && IsTerminal(w)
}

// ColorProfile returns the termenv profile for w.
// Returns Ascii (no colors) when colors are disabled.
func ColorProfile(w io.Writer, enabled bool) termenv.Profile {
	if !enabled {
		return termenv.Ascii
	}
	return termenv.NewOutput(w).EnvColorProfile()
}
