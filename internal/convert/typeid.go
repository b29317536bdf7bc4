// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package convert

import "reflect"

// TypeID returns a stable, package-qualified identifier for t, e.g.
// "github.com/jeranaias/devcon/internal/geom.Vector3" or "*int". It is the
// form persisted in the command cache.
func TypeID(t reflect.Type) string {
	if t == nil {
		return ""
	}

	switch t.Kind() {
	case reflect.Pointer:
		return "*" + TypeID(t.Elem())
	case reflect.Slice:
		if t.Name() == "" {
			return "[]" + TypeID(t.Elem())
		}
	}

	if t.Name() != "" && t.PkgPath() != "" {
		return t.PkgPath() + "." + t.Name()
	}
	return t.String()
}

// TypeName returns the short display name of t, e.g. "geom.Vector3".
func TypeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}
