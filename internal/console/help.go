// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package console

import (
	"fmt"
	"strings"

	"github.com/jeranaias/devcon/internal/util"
)

// Help renders the help text for one command, or a listing of every visible
// command when name is empty. Hidden commands are left out of the listing
// but can still be looked up by name.
func Help(table *Table, name string) string {
	if strings.TrimSpace(name) != "" {
		return commandHelp(table, name)
	}
	return listHelp(table)
}

func listHelp(table *Table) string {
	type row struct {
		usage, desc string
	}
	type group struct {
		name string
		rows []row
	}

	var (
		groups []group
		width  int
	)
	for _, key := range table.Names() {
		g := group{}
		for _, d := range table.Lookup(key) {
			if d.Flags.Has(FlagHidden) {
				continue
			}
			g.name = d.Name
			g.rows = append(g.rows, row{usage: d.Usage(), desc: d.Description})
			width = max(width, util.Width(d.Usage()))
		}
		if len(g.rows) > 0 {
			groups = append(groups, g)
		}
	}

	var b strings.Builder
	b.WriteString("Available Commands:\n")
	if len(groups) == 0 {
		b.WriteString("  (none)\n")
		return b.String()
	}

	for _, g := range groups {
		if len(g.rows) == 1 {
			writeRow(&b, "- ", g.rows[0].usage, g.rows[0].desc, width)
			continue
		}
		fmt.Fprintf(&b, "- %s (%d overloads):\n", g.name, len(g.rows))
		for _, r := range g.rows {
			writeRow(&b, "    ", r.usage, r.desc, width)
		}
	}
	return b.String()
}

func writeRow(b *strings.Builder, indent, usage, desc string, width int) {
	b.WriteString(indent)
	if desc == "" {
		b.WriteString(usage)
	} else {
		b.WriteString(util.PadRight(usage, width))
		b.WriteString("  ")
		b.WriteString(desc)
	}
	b.WriteString("\n")
}

func commandHelp(table *Table, name string) string {
	overloads := table.Lookup(name)
	if len(overloads) == 0 {
		return fmt.Sprintf("Unknown command: '%s'", strings.TrimSpace(name))
	}

	var b strings.Builder
	if len(overloads) == 1 {
		fmt.Fprintf(&b, "Command: %s\n", overloads[0].Name)
	} else {
		fmt.Fprintf(&b, "Command: %s (%d overloads)\n", overloads[0].Name, len(overloads))
	}

	for i, d := range overloads {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "  Usage:       %s\n", d.Usage())
		if d.Description != "" {
			fmt.Fprintf(&b, "  Description: %s\n", d.Description)
		}
		if d.Flags != FlagNone {
			fmt.Fprintf(&b, "  Flags:       %s\n", d.Flags)
		}
	}
	return b.String()
}
