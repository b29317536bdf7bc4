// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package convert turns command-line tokens into typed Go values.
//
// A Registry maps a parameter type to a string conversion. It is seeded with
// the primitive conversions every console needs and is open to custom
// converters for compound types, so the set of accepted argument types grows
// without touching the overload resolver.
//
// # Resolution Order
//
//   - string parameters receive the token unchanged
//   - a converter registered for the exact type wins over everything else;
//     pointer parameters are treated as optional values and converted as
//     their element type
//   - time.Duration, enumerations (see Enumerable) and types implementing
//     encoding.TextUnmarshaler
//   - the numeric family, parsed with strconv (locale independent)
//   - bool, accepting "true" or "false" in any case
//   - empty interface parameters receive the raw token
//
// Every successful conversion reports a Match. Exact matches score higher
// than coerced ones, which is what lets the dispatcher prefer an int
// overload over a float64 overload for the token "3".
//
// # Usage
//
//	reg := convert.NewRegistry()
//	convert.RegisterFunc(reg, geom.ParseVector3)
//
//	v, match, err := reg.Convert("(1,2,3)", reflect.TypeFor[geom.Vector3]())
package convert
