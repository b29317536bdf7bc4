// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package builtins

import (
	"fmt"
	"reflect"

	"github.com/jeranaias/devcon/internal/console"
)

// Package is the import path that owns every built-in handler.
var Package = reflect.TypeFor[World]().PkgPath()

// PrefKeysProvider is the completion provider listing stored pref keys.
const PrefKeysProvider = "prefKeys"

// Source yields the built-in command corpus.
var Source console.Source = console.SourceFunc(Commands)

// Commands returns the built-in command definitions.
func Commands() []console.Definition {
	prefKey := console.Arg("key").WithSuggest(PrefKeysProvider)

	return []console.Definition{
		// Application
		{Name: "version", Description: "Prints the application version.", Handler: (*Env).Version, OnInstance: true},
		{Name: "platform", Description: "Prints the current runtime platform.", Handler: platform},
		{Name: "uptime", Description: "Prints the time since startup.", Handler: (*Env).Uptime, OnInstance: true},
		{Name: "systeminfo", Description: "Prints runtime information.", Handler: systemInfo},
		{Name: "echo", Description: "Prints its argument.", Handler: echo, Params: []console.Param{console.Arg("text")}},
		{
			Name:        "rebuildcache",
			Description: "Rediscovers every command and rewrites the command cache.",
			Handler:     (*Env).RebuildCache,
			OnInstance:  true,
			Flags:       console.FlagEditorOnly,
		},

		// Time & physics
		{
			Name:        "timescale",
			Description: "Sets the global time scale.",
			Handler:     (*World).SetTimeScale,
			OnInstance:  true,
			Flags:       console.FlagCheat,
			Params:      []console.Param{console.Opt("scale", 1)},
		},
		{
			Name:        "gravity",
			Description: "Sets the global gravity scale.",
			Handler:     (*World).ScaleGravity,
			OnInstance:  true,
			Params:      []console.Param{console.Arg("scale")},
		},
		{
			Name:        "gravity",
			Description: "Sets the gravity vector.",
			Handler:     (*World).SetGravity,
			OnInstance:  true,
			Params:      []console.Param{console.Arg("vector")},
		},
		{
			Name:        "teleport",
			Description: "Moves the player to a position.",
			Handler:     (*World).Teleport,
			OnInstance:  true,
			Flags:       console.FlagCheat,
			Params:      []console.Param{console.Arg("position")},
		},

		// Graphics
		{
			Name:        "quality",
			Description: "Sets the graphics quality level by name or index.",
			Handler:     (*World).SetQuality,
			OnInstance:  true,
			Params:      []console.Param{console.Arg("level")},
		},
		{Name: "listquality", Description: "Lists available graphics quality levels.", Handler: (*World).ListQuality, OnInstance: true},
		{
			Name:        "fullscreen",
			Description: "Toggles fullscreen mode.",
			Handler:     (*World).SetFullscreen,
			OnInstance:  true,
			Params:      []console.Param{console.Arg("enabled")},
		},
		{
			Name:        "resolution",
			Description: "Sets the screen resolution.",
			Handler:     (*World).SetResolution,
			OnInstance:  true,
			Params:      []console.Param{console.Arg("width"), console.Arg("height"), console.Opt("fullscreen", true)},
		},
		{
			Name:        "tint",
			Description: "Sets the global colour tint.",
			Handler:     (*World).SetTint,
			OnInstance:  true,
			Params:      []console.Param{console.Arg("color")},
		},
		{
			Name:        "cursor",
			Description: "Moves the on-screen cursor.",
			Handler:     (*World).SetCursor,
			OnInstance:  true,
			Params:      []console.Param{console.Arg("position")},
		},
		{
			Name:        "screenshot",
			Description: "Takes a screenshot and saves it.",
			Handler:     (*World).Screenshot,
			OnInstance:  true,
			Params:      []console.Param{console.Opt("filename", "screenshot.png")},
		},
		{
			Name:        "dumpstate",
			Description: "Prints the full world state.",
			Handler:     (*World).DumpState,
			OnInstance:  true,
			Flags:       console.FlagDebugOnly | console.FlagHidden,
		},

		// Preferences
		{
			Name:        "setpref",
			Description: "Sets a preference.",
			Handler:     (*Prefs).Set,
			OnInstance:  true,
			Params:      []console.Param{prefKey, console.Arg("value")},
		},
		{Name: "getpref", Description: "Gets a preference.", Handler: (*Prefs).Get, OnInstance: true, Params: []console.Param{prefKey}},
		{Name: "delpref", Description: "Deletes a preference.", Handler: (*Prefs).Delete, OnInstance: true, Params: []console.Param{prefKey}},
		{Name: "clearprefs", Description: "Clears all preferences.", Handler: (*Prefs).Clear, OnInstance: true, Flags: console.FlagCheat},
	}
}

// =============================================================================
// HOST
// =============================================================================

// HostOptions configures NewHost.
type HostOptions struct {
	Version string
	// PrefsPath persists preferences; empty keeps them in memory.
	PrefsPath string
}

// Host owns the instances the built-in commands run against.
type Host struct {
	Env   *Env
	World *World
	Prefs *Prefs
}

// NewHost creates the built-in instances.
func NewHost(opts HostOptions) (*Host, error) {
	prefs, err := NewPrefs(opts.PrefsPath)
	if err != nil {
		return nil, err
	}
	version := opts.Version
	if version == "" {
		version = "dev"
	}
	return &Host{Env: NewEnv(version), World: NewWorld(), Prefs: prefs}, nil
}

// Instances returns the values handler owners resolve to.
func (h *Host) Instances() []any {
	return []any{h.Env, h.World, h.Prefs}
}

// RegisterProviders installs the completion providers the corpus refers to.
func (h *Host) RegisterProviders(c *console.Console) error {
	if err := c.RegisterProvider(PrefKeysProvider, h.Prefs.Keys); err != nil {
		return fmt.Errorf("register %s provider: %w", PrefKeysProvider, err)
	}
	return nil
}
