// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package convert

import (
	"encoding"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"
)

// =============================================================================
// MATCH QUALITY
// =============================================================================

// Match describes how well a token fit the requested type.
type Match int

const (
	// NoMatch is returned alongside an error.
	NoMatch Match = iota
	// Coerced means the token was accepted after a widening or unwrapping step.
	Coerced
	// Exact means the token parsed directly as the requested type.
	Exact
)

// Score returns the overload score contributed by a conversion.
func (m Match) Score() int {
	switch m {
	case Exact:
		return 2
	case Coerced:
		return 1
	default:
		return 0
	}
}

func (m Match) String() string {
	switch m {
	case Exact:
		return "exact"
	case Coerced:
		return "coerced"
	default:
		return "none"
	}
}

// =============================================================================
// REGISTRY
// =============================================================================

// Func converts a single token. The returned value must be assignable or
// convertible to the type the Func was registered for.
type Func func(token string) (any, error)

// Registry holds custom converters keyed by the exact parameter type.
// It is safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	converters map[reflect.Type]Func
}

// NewRegistry creates an empty registry. The built-in conversions need no
// registration.
func NewRegistry() *Registry {
	return &Registry{
		converters: make(map[reflect.Type]Func),
	}
}

// Register installs fn as the converter for t, replacing any previous one.
func (r *Registry) Register(t reflect.Type, fn Func) {
	if t == nil || fn == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.converters[t] = fn
}

// RegisterFunc is the typed form of Register.
func RegisterFunc[T any](r *Registry, fn func(token string) (T, error)) {
	r.Register(reflect.TypeFor[T](), func(token string) (any, error) {
		return fn(token)
	})
}

// Has reports whether a custom converter is registered for t.
func (r *Registry) Has(t reflect.Type) bool {
	_, ok := r.lookup(t)
	return ok
}

func (r *Registry) lookup(t reflect.Type) (Func, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.converters[t]
	return fn, ok
}

// Convert parses token as a value of type t. Failures are always returned as
// *ConversionError carrying the token and the type name.
func (r *Registry) Convert(token string, t reflect.Type) (reflect.Value, Match, error) {
	if t == nil {
		return reflect.Value{}, NoMatch, &ConversionError{Token: token, Type: "<nil>", Err: ErrUnsupportedType}
	}

	v, m, err := r.convert(token, t)
	if err != nil {
		var convErr *ConversionError
		if errors.As(err, &convErr) {
			// Report the declared type, not the unwrapped element type.
			return reflect.Value{}, NoMatch, &ConversionError{Token: token, Type: TypeName(t), Err: convErr.Err}
		}
		return reflect.Value{}, NoMatch, &ConversionError{Token: token, Type: TypeName(t), Err: err}
	}
	return v, m, nil
}

func (r *Registry) convert(token string, t reflect.Type) (reflect.Value, Match, error) {
	if t == stringType {
		return reflect.ValueOf(token), Exact, nil
	}

	if fn, ok := r.lookup(t); ok {
		v, err := callConverter(fn, token, t)
		if err != nil {
			return reflect.Value{}, NoMatch, err
		}
		return v, Exact, nil
	}

	// Pointers are optional values: convert the element and wrap it.
	if t.Kind() == reflect.Pointer {
		elem, _, err := r.convert(token, t.Elem())
		if err != nil {
			return reflect.Value{}, NoMatch, err
		}
		ptr := reflect.New(t.Elem())
		ptr.Elem().Set(elem)
		return ptr, Coerced, nil
	}

	return convertBuiltin(token, t)
}

func callConverter(fn Func, token string, t reflect.Type) (reflect.Value, error) {
	out, err := fn(token)
	if err != nil {
		return reflect.Value{}, err
	}

	v := reflect.ValueOf(out)
	if !v.IsValid() {
		return reflect.Value{}, fmt.Errorf("converter for %s returned nil", TypeName(t))
	}
	if v.Type() == t {
		return v, nil
	}
	if v.Type().AssignableTo(t) {
		assigned := reflect.New(t).Elem()
		assigned.Set(v)
		return assigned, nil
	}
	if v.Type().ConvertibleTo(t) {
		return v.Convert(t), nil
	}
	return reflect.Value{}, fmt.Errorf("converter for %s returned %s", TypeName(t), TypeName(v.Type()))
}

// =============================================================================
// BUILT-IN CONVERSIONS
// =============================================================================

var (
	stringType          = reflect.TypeFor[string]()
	durationType        = reflect.TypeFor[time.Duration]()
	textUnmarshalerType = reflect.TypeFor[encoding.TextUnmarshaler]()
)

func convertBuiltin(token string, t reflect.Type) (reflect.Value, Match, error) {
	if t == durationType {
		d, err := time.ParseDuration(token)
		if err != nil {
			return reflect.Value{}, NoMatch, ErrInvalidSyntax
		}
		return reflect.ValueOf(d), Exact, nil
	}

	// Enumerations are integer kinded, so they must be tried before the
	// numeric family or "High" would be rejected as an invalid integer.
	if names, ok := EnumNames(t); ok {
		return convertEnum(token, t, names)
	}

	if reflect.PointerTo(t).Implements(textUnmarshalerType) {
		ptr := reflect.New(t)
		if err := ptr.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(token)); err != nil {
			return reflect.Value{}, NoMatch, err
		}
		return ptr.Elem(), Exact, nil
	}

	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(token, 10, t.Bits())
		if err != nil {
			return reflect.Value{}, NoMatch, numError(err)
		}
		v := reflect.New(t).Elem()
		v.SetInt(n)
		return v, Exact, nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(token, 10, t.Bits())
		if err != nil {
			return reflect.Value{}, NoMatch, numError(err)
		}
		v := reflect.New(t).Elem()
		v.SetUint(n)
		return v, Exact, nil

	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(token, t.Bits())
		if err != nil {
			return reflect.Value{}, NoMatch, numError(err)
		}
		v := reflect.New(t).Elem()
		v.SetFloat(f)
		if isIntegral(token) {
			return v, Coerced, nil
		}
		return v, Exact, nil

	case reflect.Bool:
		switch {
		case strings.EqualFold(token, "true"):
			return reflect.ValueOf(true).Convert(t), Exact, nil
		case strings.EqualFold(token, "false"):
			return reflect.ValueOf(false).Convert(t), Exact, nil
		}
		return reflect.Value{}, NoMatch, ErrNotBool

	case reflect.String:
		// Named string types, e.g. type SceneName string.
		v := reflect.New(t).Elem()
		v.SetString(token)
		return v, Exact, nil

	case reflect.Interface:
		if t.NumMethod() == 0 {
			v := reflect.New(t).Elem()
			v.Set(reflect.ValueOf(token))
			return v, Coerced, nil
		}
	}

	return reflect.Value{}, NoMatch, ErrUnsupportedType
}

func convertEnum(token string, t reflect.Type, names []string) (reflect.Value, Match, error) {
	for i, name := range names {
		if strings.EqualFold(name, token) {
			v := reflect.New(t).Elem()
			setInteger(v, i)
			return v, Exact, nil
		}
	}

	// Ordinals are accepted as long as they name a member.
	if n, err := strconv.Atoi(token); err == nil && n >= 0 && n < len(names) {
		v := reflect.New(t).Elem()
		setInteger(v, n)
		return v, Exact, nil
	}

	return reflect.Value{}, NoMatch, fmt.Errorf("%w (expected one of: %s)", ErrUnknownMember, strings.Join(names, ", "))
}

func setInteger(v reflect.Value, n int) {
	switch v.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		v.SetUint(uint64(n))
	default:
		v.SetInt(int64(n))
	}
}

// isIntegral reports whether a float token was written without a fractional
// part or exponent, i.e. an integer literal widened into a float parameter.
func isIntegral(token string) bool {
	return !strings.ContainsAny(token, ".eEnN")
}

// numError strips the strconv prefix so messages read
// "could not convert 'abc' to int: invalid syntax".
func numError(err error) error {
	var numErr *strconv.NumError
	if errors.As(err, &numErr) {
		switch {
		case errors.Is(numErr.Err, strconv.ErrRange):
			return ErrOutOfRange
		case errors.Is(numErr.Err, strconv.ErrSyntax):
			return ErrInvalidSyntax
		}
	}
	return err
}
