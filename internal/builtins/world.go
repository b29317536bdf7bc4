// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package builtins

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/jeranaias/devcon/internal/console"
	"github.com/jeranaias/devcon/internal/geom"
	"github.com/jeranaias/devcon/internal/util"
)

// Quality is a graphics quality level.
type Quality int

const (
	QualityLow Quality = iota
	QualityMedium
	QualityHigh
	QualityUltra
)

var qualityNames = []string{"Low", "Medium", "High", "Ultra"}

// EnumNames lists the quality levels by value.
func (Quality) EnumNames() []string { return qualityNames }

func (q Quality) String() string {
	if q < 0 || int(q) >= len(qualityNames) {
		return fmt.Sprintf("Quality(%d)", int(q))
	}
	return qualityNames[q]
}

// StandardGravity is the gravity vector at scale 1.
var StandardGravity = geom.Vector3{Y: -9.81}

// Resolution is a display mode.
type Resolution struct {
	Width, Height int
	Fullscreen    bool
}

// World is the simulation state the built-in commands act on.
type World struct {
	mu         sync.Mutex
	timeScale  float64
	gravity    geom.Vector3
	player     geom.Vector3
	tint       geom.Color
	cursor     geom.Vector2
	quality    Quality
	resolution Resolution
}

// NewWorld returns a world at rest with standard gravity.
func NewWorld() *World {
	return &World{
		timeScale:  1,
		gravity:    StandardGravity,
		tint:       geom.Color{R: 1, G: 1, B: 1, A: 1},
		quality:    QualityMedium,
		resolution: Resolution{Width: 1920, Height: 1080, Fullscreen: true},
	}
}

var (
	// ErrNegativeScale is returned when a scale below zero is requested.
	ErrNegativeScale = errors.New("scale must not be negative")
	// ErrNonFiniteScale is returned for NaN and infinite scales.
	ErrNonFiniteScale = errors.New("scale must be a finite number")
)

func checkScale(scale float64) error {
	if math.IsNaN(scale) || math.IsInf(scale, 0) {
		return ErrNonFiniteScale
	}
	if scale < 0 {
		return ErrNegativeScale
	}
	return nil
}

// SetTimeScale sets the global time scale.
func (w *World) SetTimeScale(scale float64) (string, error) {
	if err := checkScale(scale); err != nil {
		return "", err
	}
	w.mu.Lock()
	w.timeScale = scale
	w.mu.Unlock()
	return fmt.Sprintf("Global time scale set to %g.", scale), nil
}

// ScaleGravity sets gravity to StandardGravity times scale. Negative
// scales invert gravity.
func (w *World) ScaleGravity(scale float64) (string, error) {
	if math.IsNaN(scale) || math.IsInf(scale, 0) {
		return "", ErrNonFiniteScale
	}
	w.mu.Lock()
	w.gravity = StandardGravity.Scale(scale)
	g := w.gravity
	w.mu.Unlock()
	return fmt.Sprintf("Global gravity scale set to %g. New gravity: %s", scale, g), nil
}

// SetGravity sets the gravity vector directly.
func (w *World) SetGravity(g geom.Vector3) string {
	w.mu.Lock()
	w.gravity = g
	w.mu.Unlock()
	return fmt.Sprintf("Gravity set to %s", g)
}

// Teleport moves the player.
func (w *World) Teleport(pos geom.Vector3) string {
	w.mu.Lock()
	w.player = pos
	w.mu.Unlock()
	return fmt.Sprintf("Player teleported to %s", pos)
}

// SetTint sets the global colour tint.
func (w *World) SetTint(c geom.Color) string {
	w.mu.Lock()
	w.tint = c
	w.mu.Unlock()
	return fmt.Sprintf("Tint set to %s", c)
}

// SetCursor moves the on-screen cursor.
func (w *World) SetCursor(pos geom.Vector2) string {
	w.mu.Lock()
	w.cursor = pos
	w.mu.Unlock()
	return fmt.Sprintf("Cursor moved to %s", pos)
}

// SetQuality sets the graphics quality level.
func (w *World) SetQuality(q Quality) string {
	w.mu.Lock()
	w.quality = q
	w.mu.Unlock()
	return fmt.Sprintf("Graphics quality set to %s", q)
}

// ListQuality names the available quality levels, marking the active one.
func (w *World) ListQuality() string {
	w.mu.Lock()
	current := w.quality
	w.mu.Unlock()

	names := make([]string, len(qualityNames))
	for i, name := range qualityNames {
		if Quality(i) == current {
			name = "[" + name + "]"
		}
		names[i] = name
	}
	return "Available quality levels: " + strings.Join(names, ", ")
}

// SetFullscreen toggles fullscreen mode.
func (w *World) SetFullscreen(enabled bool) string {
	w.mu.Lock()
	w.resolution.Fullscreen = enabled
	w.mu.Unlock()
	return fmt.Sprintf("Fullscreen set to %t", enabled)
}

// SetResolution changes the display mode.
func (w *World) SetResolution(width, height int, fullscreen bool) (string, error) {
	if width <= 0 || height <= 0 {
		return "", fmt.Errorf("invalid resolution %dx%d", width, height)
	}
	w.mu.Lock()
	w.resolution = Resolution{Width: width, Height: height, Fullscreen: fullscreen}
	w.mu.Unlock()
	return fmt.Sprintf("Resolution set to %dx%d, fullscreen=%t", width, height, fullscreen), nil
}

// State is a point-in-time copy of the world.
type State struct {
	TimeScale  float64
	Gravity    geom.Vector3
	Player     geom.Vector3
	Tint       geom.Color
	Cursor     geom.Vector2
	Quality    Quality
	Resolution Resolution
}

// Snapshot copies the current state.
func (w *World) Snapshot() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return State{
		TimeScale:  w.timeScale,
		Gravity:    w.gravity,
		Player:     w.player,
		Tint:       w.tint,
		Cursor:     w.cursor,
		Quality:    w.quality,
		Resolution: w.resolution,
	}
}

func (s State) lines() []string {
	return []string{
		fmt.Sprintf("time scale: %g", s.TimeScale),
		fmt.Sprintf("gravity:    %s", s.Gravity),
		fmt.Sprintf("player:     %s", s.Player),
		fmt.Sprintf("tint:       %s", s.Tint),
		fmt.Sprintf("cursor:     %s", s.Cursor),
		fmt.Sprintf("quality:    %s", s.Quality),
		fmt.Sprintf("resolution: %dx%d fullscreen=%t", s.Resolution.Width, s.Resolution.Height, s.Resolution.Fullscreen),
	}
}

// DumpState writes every state field as its own line.
func (w *World) DumpState(respond console.Response) {
	for _, line := range w.Snapshot().lines() {
		respond(line, true)
	}
}

// Screenshot writes the current state to filename. A headless host has no
// frame buffer, so the capture is textual.
func (w *World) Screenshot(filename string) (string, error) {
	data := strings.Join(w.Snapshot().lines(), "\n") + "\n"
	if err := util.AtomicWriteFileWithDir(filename, []byte(data), 0644, 0755); err != nil {
		return "", fmt.Errorf("screenshot: %w", err)
	}
	return "Screenshot saved: " + filename, nil
}
