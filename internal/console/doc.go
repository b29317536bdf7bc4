// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package console implements an in-process developer command console.
//
// Commands are ordinary Go funcs (or method expressions) declared through a
// Definition. Their parameter lists are reflected once into an immutable
// Descriptor; a line of text is then tokenized, matched against every
// overload registered under the typed name, converted argument by argument
// through a convert.Registry, and dispatched to the best scoring overload.
//
// # Components
//
//   - Tokenize: whitespace splitting with double-quoted spans
//   - Registry: the command table, published atomically and persisted as
//     CachedEntry records
//   - Dispatcher: overload resolution, capability gates and invocation
//   - Completer: suggestions for the token under the cursor
//   - Help: the command listing
//   - Console: a facade wiring them together
//
// # Overload Scoring
//
// Each argument contributes 2 for an exact conversion, 1 for a coerced one
// and 1 for a parameter left at its default. The highest total wins; an equal
// score never displaces an overload registered earlier.
//
// # Usage
//
//	c := console.New(conv, console.Options{Sink: sink})
//	c.Register(console.Definition{
//		Name:        "gravity",
//		Description: "Sets the gravity vector",
//		Handler:     (*World).SetGravity,
//		OnInstance:  true,
//		Params:      []console.Param{console.Arg("value")},
//	})
//	c.Submit("gravity (0,-9.81,0) | timescale 0.5")
package console
