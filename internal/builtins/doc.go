// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package builtins provides the stock command corpus: application info,
// a simulated world (time scale, gravity, player position, graphics
// settings), and a persistent preferences store.
//
// # Usage
//
//	host, err := builtins.NewHost(builtins.HostOptions{Version: "1.2.0"})
//	if err != nil {
//	    return err
//	}
//	con := console.New(conv, console.Options{Resolver: console.NewInstances(host.Instances()...)})
//	con.Discover(builtins.Source)
//	host.RegisterProviders(con)
//
// Every handler lives in this package, so the whole corpus can be left out
// of a cached table with console.ExcludePackage(builtins.Package).
package builtins
