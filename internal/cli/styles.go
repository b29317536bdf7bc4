// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// styles.go - Output styling for the console shell.

package cli

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Styles holds the lipgloss styles the shell renders with.
type Styles struct {
	// Prompt is the REPL prompt.
	Prompt lipgloss.Style
	// Echo is the "> command" line echoed before each command's output.
	Echo lipgloss.Style
	// Output is regular command output.
	Output lipgloss.Style
	// Error is failure output.
	Error lipgloss.Style
	// Dim is secondary information such as banners.
	Dim lipgloss.Style
}

// NewStyles builds styles bound to a renderer with the given profile.
func NewStyles(r *lipgloss.Renderer) Styles {
	return Styles{
		Prompt: r.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")), // Cyan
		Echo: r.NewStyle().
			Foreground(lipgloss.Color("242")), // Dim gray
		Output: r.NewStyle().
			Foreground(lipgloss.Color("252")), // Off-white
		Error: r.NewStyle().
			Foreground(lipgloss.Color("196")). // Red
			Bold(true),
		Dim: r.NewStyle().
			Foreground(lipgloss.Color("240")), // Dark gray
	}
}

// NewRenderer returns a lipgloss renderer for out using profile.
func NewRenderer(out io.Writer, profile termenv.Profile) *lipgloss.Renderer {
	r := lipgloss.NewRenderer(out)
	r.SetColorProfile(profile)
	return r
}
