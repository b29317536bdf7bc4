// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package builtins

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/jeranaias/devcon/internal/console"
)

// ErrNoRebuild is returned by RebuildCache when the host has no cache.
var ErrNoRebuild = errors.New("command cache is not enabled")

// Env describes the running application.
type Env struct {
	version string
	started time.Time
	now     func() time.Time
	rebuild func(context.Context) (int, error)
}

// NewEnv returns an Env whose uptime counts from now.
func NewEnv(version string) *Env {
	return &Env{version: version, started: time.Now(), now: time.Now}
}

// OnRebuild installs the function rebuildcache runs.
func (e *Env) OnRebuild(fn func(context.Context) (int, error)) {
	e.rebuild = fn
}

// Version reports the application version.
func (e *Env) Version() string {
	return "Application version: " + e.version
}

// Uptime reports the time since startup.
func (e *Env) Uptime() string {
	return fmt.Sprintf("Uptime: %.2f seconds", e.now().Sub(e.started).Seconds())
}

// RebuildCache rediscovers every command and rewrites the cache.
func (e *Env) RebuildCache() (string, error) {
	if e.rebuild == nil {
		return "", ErrNoRebuild
	}
	count, err := e.rebuild(context.Background())
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Command cache rebuilt: %d commands", count), nil
}

func platform() string {
	return fmt.Sprintf("Running on: %s/%s", runtime.GOOS, runtime.GOARCH)
}

func systemInfo(respond console.Response) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	respond(fmt.Sprintf("Go: %s", runtime.Version()), true)
	respond(fmt.Sprintf("OS: %s/%s", runtime.GOOS, runtime.GOARCH), true)
	respond(fmt.Sprintf("CPU: %d cores", runtime.NumCPU()), true)
	respond(fmt.Sprintf("Goroutines: %d", runtime.NumGoroutine()), true)
	respond(fmt.Sprintf("Heap: %d KB in use", mem.HeapInuse/1024), true)
}

func echo(text string) string {
	return text
}
