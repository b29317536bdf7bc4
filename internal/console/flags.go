// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package console

import (
	"errors"
	"fmt"
	"strings"
)

// Flags is a bitset of command attributes.
type Flags uint8

// FlagNone marks an ordinary command.
const FlagNone Flags = 0

const (
	// FlagDebugOnly commands only run in debug builds.
	FlagDebugOnly Flags = 1 << iota
	// FlagEditorOnly commands only run in editor mode.
	FlagEditorOnly
	// FlagCheat commands only run while cheats are enabled.
	FlagCheat
	// FlagExtension marks commands contributed by an extension package.
	FlagExtension
	// FlagHidden commands are omitted from the help listing.
	FlagHidden
)

// ErrConflictingFlags is returned for a command that is both debug-only and
// editor-only.
var ErrConflictingFlags = errors.New("DebugOnly and EditorOnly are mutually exclusive")

var flagNames = []struct {
	flag Flags
	name string
}{
	{FlagDebugOnly, "DebugOnly"},
	{FlagEditorOnly, "EditorOnly"},
	{FlagCheat, "Cheat"},
	{FlagExtension, "Extension"},
	{FlagHidden, "Hidden"},
}

// Has reports whether every bit of mask is set.
func (f Flags) Has(mask Flags) bool {
	return f&mask == mask
}

// Any reports whether at least one bit of mask is set.
func (f Flags) Any(mask Flags) bool {
	return f&mask != 0
}

// Validate checks the flag invariants.
func (f Flags) Validate() error {
	if f.Has(FlagDebugOnly | FlagEditorOnly) {
		return ErrConflictingFlags
	}
	return nil
}

// String renders the set as "Cheat|Hidden", or "None".
func (f Flags) String() string {
	if f == FlagNone {
		return "None"
	}

	var parts []string
	rest := f
	for _, fn := range flagNames {
		if f&fn.flag != 0 {
			parts = append(parts, fn.name)
			rest &^= fn.flag
		}
	}
	if rest != 0 {
		parts = append(parts, fmt.Sprintf("0x%x", uint8(rest)))
	}
	return strings.Join(parts, "|")
}

// ParseFlags parses the String form. Names are case-insensitive and may be
// separated by '|' or ','.
func ParseFlags(s string) (Flags, error) {
	var f Flags
	for _, part := range strings.FieldsFunc(s, func(r rune) bool { return r == '|' || r == ',' }) {
		part = strings.TrimSpace(part)
		if part == "" || strings.EqualFold(part, "None") {
			continue
		}
		if strings.EqualFold(part, "ProvidedByExtension") {
			f |= FlagExtension
			continue
		}

		found := false
		for _, fn := range flagNames {
			if strings.EqualFold(part, fn.name) {
				f |= fn.flag
				found = true
				break
			}
		}
		if !found {
			return FlagNone, fmt.Errorf("unknown command flag %q", part)
		}
	}
	return f, nil
}

// MarshalText implements encoding.TextMarshaler.
func (f Flags) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *Flags) UnmarshalText(text []byte) error {
	parsed, err := ParseFlags(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}
