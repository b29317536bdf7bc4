// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package convert

import "reflect"

// Enumerable is implemented by integer types that behave as enumerations.
// EnumNames returns the member names indexed by value, so the member with
// value 0 is names[0].
//
//	type Quality int
//
//	const (
//		Low Quality = iota
//		Medium
//		High
//	)
//
//	func (Quality) EnumNames() []string { return []string{"Low", "Medium", "High"} }
type Enumerable interface {
	EnumNames() []string
}

var enumerableType = reflect.TypeFor[Enumerable]()

// EnumNames returns the member names of t when t is an enumeration.
func EnumNames(t reflect.Type) ([]string, bool) {
	if t == nil || !isInteger(t.Kind()) {
		return nil, false
	}

	switch {
	case t.Implements(enumerableType):
		return reflect.Zero(t).Interface().(Enumerable).EnumNames(), true
	case reflect.PointerTo(t).Implements(enumerableType):
		return reflect.New(t).Interface().(Enumerable).EnumNames(), true
	}
	return nil, false
}

// IsBool reports whether t, after unwrapping pointers, is a boolean.
func IsBool(t reflect.Type) bool {
	t = Indirect(t)
	return t != nil && t.Kind() == reflect.Bool
}

// Indirect unwraps pointer types down to their element type.
func Indirect(t reflect.Type) reflect.Type {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

func isInteger(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}
