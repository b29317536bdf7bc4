// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared by the console host.
//
// # Key Functions
//
// File Operations:
//   - AtomicWriteFile: crash-safe file writing with fsync
//
// Display Width:
//   - Width, PadRight, Truncate: column math for help and cache listings,
//     counting East Asian wide characters as two cells
//
// # Usage
//
//	// Write the command cache without ever leaving a torn file behind
//	err := util.AtomicWriteFile(path, data, 0600)
//
//	// Align a help column
//	line := util.PadRight(usage, width) + "  " + description
package util
