// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package builtins

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jeranaias/devcon/internal/console"
	"github.com/jeranaias/devcon/internal/convert"
	"github.com/jeranaias/devcon/internal/geom"
)

type fixture struct {
	host    *Host
	console *console.Console
	sink    *console.Recorder
	gates   *console.Gates
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	host, err := NewHost(HostOptions{Version: "1.2.3", PrefsPath: filepath.Join(t.TempDir(), "prefs.json")})
	require.NoError(t, err)

	conv := convert.NewRegistry()
	geom.RegisterConverters(conv)

	f := &fixture{host: host, sink: &console.Recorder{}, gates: console.NewGates(true, true, false)}
	f.console = console.New(conv, console.Options{
		Sink:     f.sink,
		Resolver: console.NewInstances(host.Instances()...),
		Gates:    f.gates,
	})
	count, err := f.console.Discover(Source)
	require.NoError(t, err)
	require.Equal(t, len(Commands()), count)
	require.NoError(t, host.RegisterProviders(f.console))
	return f
}

// run executes line and returns everything after the echo.
func (f *fixture) run(t *testing.T, line string) []string {
	t.Helper()
	f.sink.Reset()
	_ = f.console.Execute(line)
	texts := f.sink.Texts()
	require.NotEmpty(t, texts, line)
	return texts[1:]
}

func TestCommands_AllRegister(t *testing.T) {
	for _, def := range Commands() {
		_, err := console.NewDescriptor(def)
		require.NoError(t, err, def.Name)
	}
}

func TestPackage(t *testing.T) {
	require.Equal(t, "github.com/jeranaias/devcon/internal/builtins", Package)

	f := newFixture(t)
	for _, entry := range f.console.SaveCache() {
		require.True(t, console.ExcludePackage(Package)(entry), entry.Command)
	}
}

func TestApplicationCommands(t *testing.T) {
	f := newFixture(t)

	require.Equal(t, []string{"Application version: 1.2.3"}, f.run(t, "version"))
	require.True(t, strings.HasPrefix(f.run(t, "platform")[0], "Running on: "))
	require.Equal(t, []string{"hello world"}, f.run(t, `echo "hello world"`))
	require.Len(t, f.run(t, "systeminfo"), 5)

	f.host.Env.now = func() time.Time { return f.host.Env.started.Add(1500 * time.Millisecond) }
	require.Equal(t, []string{"Uptime: 1.50 seconds"}, f.run(t, "uptime"))
}

func TestWorldCommands(t *testing.T) {
	f := newFixture(t)
	world := f.host.World

	require.Equal(t, []string{"Global time scale set to 0.5."}, f.run(t, "timescale 0.5"))
	require.Equal(t, []string{"Global time scale set to 1."}, f.run(t, "timescale"))
	require.Contains(t, f.run(t, "timescale -1")[0], ErrNegativeScale.Error())
	for _, bad := range []string{"NaN", "+Inf", "-Inf"} {
		require.Contains(t, f.run(t, "timescale "+bad)[0], ErrNonFiniteScale.Error(), bad)
		require.Contains(t, f.run(t, "gravity "+bad)[0], ErrNonFiniteScale.Error(), bad)
	}
	require.Equal(t, 1.0, world.Snapshot().TimeScale)
	require.Equal(t, StandardGravity, world.Snapshot().Gravity)

	// Overloads resolve by argument shape.
	require.Equal(t, []string{"Global gravity scale set to 2. New gravity: (0, -19.62, 0)"}, f.run(t, "gravity 2"))
	require.Equal(t, []string{"Gravity set to (0, 0, -1)"}, f.run(t, "gravity (0,0,-1)"))
	require.Equal(t, geom.Vector3{Z: -1}, world.Snapshot().Gravity)

	f.run(t, "teleport (1,2,3)")
	f.run(t, "tint (0.5,0.5,0.5)")
	f.run(t, "cursor (10,20)")
	require.Equal(t, []string{"Graphics quality set to High"}, f.run(t, "quality high"))
	require.Equal(t, []string{"Graphics quality set to Ultra"}, f.run(t, "quality 3"))
	require.Equal(t, []string{"Available quality levels: Low, Medium, High, [Ultra]"}, f.run(t, "listquality"))
	require.Equal(t, []string{"Resolution set to 1280x720, fullscreen=true"}, f.run(t, "resolution 1280 720"))
	f.run(t, "fullscreen false")

	state := world.Snapshot()
	require.Equal(t, geom.Vector3{X: 1, Y: 2, Z: 3}, state.Player)
	require.Equal(t, geom.Color{R: 0.5, G: 0.5, B: 0.5, A: 1}, state.Tint)
	require.Equal(t, geom.Vector2{X: 10, Y: 20}, state.Cursor)
	require.Equal(t, Resolution{Width: 1280, Height: 720}, state.Resolution)

	require.Len(t, f.run(t, "dumpstate"), 7)
}

func TestWorldCommands_Gated(t *testing.T) {
	f := newFixture(t)
	f.gates.SetCheats(false)
	require.Equal(t, []string{"Cannot run 'teleport': cheats are disabled."}, f.run(t, "teleport (1,1,1)"))
	require.Equal(t, geom.Vector3{}, f.host.World.Snapshot().Player)

	require.Equal(t,
		[]string{"Cannot run 'rebuildcache': editor-only commands are not allowed outside the editor."},
		f.run(t, "rebuildcache"))
}

func TestScreenshot(t *testing.T) {
	f := newFixture(t)
	path := filepath.Join(t.TempDir(), "shot.txt")

	require.Equal(t, []string{"Screenshot saved: " + path}, f.run(t, "screenshot "+path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "quality:    Medium")
}

func TestRebuildCache(t *testing.T) {
	f := newFixture(t)
	f.gates.SetEditor(true)

	require.Contains(t, f.run(t, "rebuildcache")[0], ErrNoRebuild.Error())

	f.host.Env.OnRebuild(func(context.Context) (int, error) { return 42, nil })
	require.Equal(t, []string{"Command cache rebuilt: 42 commands"}, f.run(t, "rebuildcache"))
}

func TestPrefs(t *testing.T) {
	f := newFixture(t)

	require.Equal(t, []string{"Pref set: volume = 11"}, f.run(t, "setpref volume 11"))
	require.Equal(t, []string{"Pref set: name = Ada Lovelace"}, f.run(t, `setpref name "Ada Lovelace"`))
	require.Equal(t, []string{"Pref: volume = 11"}, f.run(t, "getpref volume"))
	require.Equal(t, []string{"name", "volume"}, f.console.Suggest("getpref "))
	require.Equal(t, []string{"volume"}, f.console.Suggest("delpref V"))

	require.Equal(t, []string{"Deleted pref: volume"}, f.run(t, "delpref volume"))
	require.Contains(t, f.run(t, "getpref volume")[0], "preference not found: volume")

	// Changes survive a reload from disk.
	reloaded, err := NewPrefs(f.host.Prefs.path)
	require.NoError(t, err)
	value, ok := reloaded.Value("name")
	require.True(t, ok)
	require.Equal(t, "Ada Lovelace", value)

	require.Equal(t, []string{"All prefs cleared."}, f.run(t, "clearprefs"))
	require.Empty(t, f.host.Prefs.Keys())
}

func TestNewPrefs_Errors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))
	_, err := NewPrefs(path)
	require.Error(t, err)

	p, err := NewPrefs("")
	require.NoError(t, err)
	_, err = p.Set("k", "v")
	require.NoError(t, err)
}

func TestQuality_String(t *testing.T) {
	require.Equal(t, "Low", QualityLow.String())
	require.Equal(t, "Quality(9)", Quality(9).String())
}
