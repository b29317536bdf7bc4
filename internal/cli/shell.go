// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"sync/atomic"

	"github.com/jeranaias/devcon/internal/console"
)

// Clearer clears the output surface.
type Clearer interface {
	Clear()
}

// Shell owns the host commands every session has: help, clear, quit and
// cheats. They are registered from this package so excluding the built-in
// corpus never removes them.
type Shell struct {
	console  *console.Console
	clearer  Clearer
	helpName string
	quit     atomic.Bool
}

// NewShell returns the host command set for c. clearer may be nil.
func NewShell(c *console.Console, clearer Clearer, helpName string) *Shell {
	if helpName == "" {
		helpName = console.DefaultHelpCommand
	}
	return &Shell{console: c, clearer: clearer, helpName: helpName}
}

// Help lists every visible command, or documents one command.
func (s *Shell) Help(command string) string {
	return s.console.Help(command)
}

// Clear clears the console output.
func (s *Shell) Clear() {
	if s.clearer != nil {
		s.clearer.Clear()
	}
}

// Quit ends the session after the current line.
func (s *Shell) Quit() string {
	s.quit.Store(true)
	return "Quitting..."
}

// Done reports whether quit has been requested.
func (s *Shell) Done() bool {
	return s.quit.Load()
}

// Cheats reports the cheat gate, or sets it when enabled is given.
func (s *Shell) Cheats(enabled *bool) string {
	gates := s.console.Gates()
	if enabled != nil {
		gates.SetCheats(*enabled)
	}
	if gates.CheatsEnabled() {
		return "Cheats are enabled."
	}
	return "Cheats are disabled."
}

// Commands implements console.Source.
func (s *Shell) Commands() []console.Definition {
	return []console.Definition{
		{
			Name:        s.helpName,
			Description: "Shows a list of commands or details for one command.",
			Handler:     (*Shell).Help,
			OnInstance:  true,
			Params:      []console.Param{console.Opt("command", "")},
		},
		{Name: "clear", Description: "Clears the console log.", Handler: (*Shell).Clear, OnInstance: true},
		{Name: "quit", Description: "Quits the console.", Handler: (*Shell).Quit, OnInstance: true},
		{
			Name:        "cheats",
			Description: "Shows or sets whether cheat commands may run.",
			Handler:     (*Shell).Cheats,
			OnInstance:  true,
			Params:      []console.Param{console.Opt("enabled", nil)},
		},
	}
}
