// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package console

import "sync/atomic"

// Gates holds the runtime switches that flagged commands are checked against.
// It is safe for concurrent use.
type Gates struct {
	cheats  atomic.Bool
	editor  atomic.Bool
	release atomic.Bool
}

// NewGates creates gates with the given state.
func NewGates(cheats, debug, editor bool) *Gates {
	g := &Gates{}
	g.SetCheats(cheats)
	g.SetDebug(debug)
	g.SetEditor(editor)
	return g
}

// DefaultGates creates gates for the current build with cheats and editor
// mode off.
func DefaultGates() *Gates {
	return NewGates(false, DebugBuild, false)
}

// CheatsEnabled reports whether Cheat commands may run.
func (g *Gates) CheatsEnabled() bool { return g.cheats.Load() }

// SetCheats toggles Cheat commands.
func (g *Gates) SetCheats(enabled bool) { g.cheats.Store(enabled) }

// Debug reports whether DebugOnly commands may run.
func (g *Gates) Debug() bool { return !g.release.Load() }

// SetDebug overrides the build default for DebugOnly commands.
func (g *Gates) SetDebug(debug bool) { g.release.Store(!debug) }

// Editor reports whether EditorOnly commands may run.
func (g *Gates) Editor() bool { return g.editor.Load() }

// SetEditor toggles editor mode.
func (g *Gates) SetEditor(editor bool) { g.editor.Store(editor) }

// check returns the reason f is blocked, or "" when it may run.
func (g *Gates) check(f Flags) string {
	switch {
	case f.Has(FlagCheat) && !g.CheatsEnabled():
		return "cheats are disabled"
	case f.Has(FlagDebugOnly) && !g.Debug():
		return "debug-only commands are not allowed in this build"
	case f.Has(FlagEditorOnly) && !g.Editor():
		return "editor-only commands are not allowed outside the editor"
	}
	return ""
}
