// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package geom provides the compound value types commands commonly accept
// (vectors and colors) together with their console converters.
//
// All types parse from a parenthesised, comma separated list of numbers:
//
//	(1, 2.5, -3)
//	1,2.5,-3
//
// The parentheses are optional. Components are parsed with strconv and are
// therefore locale independent.
package geom

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jeranaias/devcon/internal/convert"
)

// ErrComponentCount is returned when a token has the wrong number of components.
var ErrComponentCount = errors.New("wrong number of components")

// Vector2 is a two component vector.
type Vector2 struct {
	X, Y float64
}

// Vector3 is a three component vector.
type Vector3 struct {
	X, Y, Z float64
}

// Color is an RGBA color with components in the 0..1 range.
type Color struct {
	R, G, B, A float64
}

func (v Vector2) String() string {
	return "(" + formatComponents(v.X, v.Y) + ")"
}

func (v Vector3) String() string {
	return "(" + formatComponents(v.X, v.Y, v.Z) + ")"
}

func (c Color) String() string {
	return "RGBA(" + formatComponents(c.R, c.G, c.B, c.A) + ")"
}

// Add returns the component-wise sum of v and o.
func (v Vector3) Add(o Vector3) Vector3 {
	return Vector3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

// Scale multiplies every component by s.
func (v Vector3) Scale(s float64) Vector3 {
	return Vector3{v.X * s, v.Y * s, v.Z * s}
}

// ParseVector2 parses "(x,y)".
func ParseVector2(token string) (Vector2, error) {
	c, err := parseComponents(token, 2, 2)
	if err != nil {
		return Vector2{}, err
	}
	return Vector2{c[0], c[1]}, nil
}

// ParseVector3 parses "(x,y,z)".
func ParseVector3(token string) (Vector3, error) {
	c, err := parseComponents(token, 3, 3)
	if err != nil {
		return Vector3{}, err
	}
	return Vector3{c[0], c[1], c[2]}, nil
}

// ParseColor parses "(r,g,b)" or "(r,g,b,a)". Alpha defaults to 1.
func ParseColor(token string) (Color, error) {
	c, err := parseComponents(token, 3, 4)
	if err != nil {
		return Color{}, err
	}
	col := Color{R: c[0], G: c[1], B: c[2], A: 1}
	if len(c) == 4 {
		col.A = c[3]
	}
	return col, nil
}

// RegisterConverters installs the converters for every type in this package.
func RegisterConverters(reg *convert.Registry) {
	convert.RegisterFunc(reg, ParseVector2)
	convert.RegisterFunc(reg, ParseVector3)
	convert.RegisterFunc(reg, ParseColor)
}

func parseComponents(token string, minCount, maxCount int) ([]float64, error) {
	token = strings.TrimSpace(token)
	token = strings.TrimPrefix(token, "(")
	token = strings.TrimSuffix(token, ")")

	parts := strings.Split(token, ",")
	if len(parts) < minCount || len(parts) > maxCount {
		if minCount == maxCount {
			return nil, fmt.Errorf("%w: expected %d, got %d", ErrComponentCount, minCount, len(parts))
		}
		return nil, fmt.Errorf("%w: expected %d to %d, got %d", ErrComponentCount, minCount, maxCount, len(parts))
	}

	out := make([]float64, len(parts))
	for i, part := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, fmt.Errorf("component %d: %w", i+1, convert.ErrInvalidSyntax)
		}
		out[i] = f
	}
	return out, nil
}

func formatComponents(values ...float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.FormatFloat(v, 'f', -1, 64)
	}
	return strings.Join(parts, ", ")
}
