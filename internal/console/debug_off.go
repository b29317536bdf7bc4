// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

//go:build release

package console

// DebugBuild is the default of the debug gate.
const DebugBuild = false
