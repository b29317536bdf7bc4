// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package console

import (
	"errors"
	"fmt"
	"reflect"
	"runtime"
	"strings"
	"unicode"

	"github.com/jeranaias/devcon/internal/convert"
)

// =============================================================================
// DEFINITION
// =============================================================================

// Definition declares a command. It is the registration-time input from which
// an immutable Descriptor is built.
type Definition struct {
	// Name is the command name as typed by the user. Matching is
	// case-insensitive.
	Name string

	// Description is shown in help.
	Description string

	// Flags gate execution and visibility.
	Flags Flags

	// Handler is a func value or a method expression. Allowed results are
	// none, error, string, or (string, error). A returned string is written
	// to the sink as a success message.
	Handler any

	// OnInstance marks Handler as a method expression such as
	// (*Prefs).Set. Its first parameter is the receiver, resolved at
	// dispatch time through an InstanceResolver.
	OnInstance bool

	// Params names the user parameters in order and supplies defaults. When
	// shorter than the handler's parameter list the remaining parameters are
	// named arg1, arg2, ...
	Params []Param

	// Suggest names a completion provider used for every parameter that does
	// not name its own.
	Suggest string
}

// Param describes one user parameter of a Definition.
type Param struct {
	Name       string
	Default    any
	HasDefault bool
	Suggest    string
}

// Arg declares a required parameter.
func Arg(name string) Param {
	return Param{Name: name}
}

// Opt declares an optional parameter with a default value.
func Opt(name string, def any) Param {
	return Param{Name: name, Default: def, HasDefault: true}
}

// WithSuggest sets the completion provider for the parameter.
func (p Param) WithSuggest(provider string) Param {
	p.Suggest = provider
	return p
}

// =============================================================================
// DESCRIPTOR
// =============================================================================

// ParameterSpec is one parameter of a Descriptor.
type ParameterSpec struct {
	Name string

	// Type is the semantic type argument tokens are converted into.
	Type reflect.Type

	HasDefault bool

	// Default holds a value of Type when HasDefault is set.
	Default any

	// IsResponseSink marks the injected feedback parameter. It never
	// consumes a token.
	IsResponseSink bool

	Suggest string
}

func (p ParameterSpec) defaultValue() reflect.Value {
	if p.Default == nil {
		return reflect.Zero(p.Type)
	}
	return reflect.ValueOf(p.Default)
}

// Descriptor is an immutable, invocable command overload.
type Descriptor struct {
	Name        string
	Key         string
	Description string
	Flags       Flags
	Params      []ParameterSpec

	// Owner is the receiver type of a method handler, nil for static handlers.
	Owner reflect.Type

	// OwnerID identifies the declaring type (or package for static handlers).
	OwnerID string

	// MethodID identifies the handler function within the binary.
	MethodID string

	Suggest string

	fn reflect.Value
}

// Response is the feedback channel a handler receives when its first
// parameter (after any receiver) has this type.
type Response func(msg string, ok bool)

var (
	responseType = reflect.TypeFor[Response]()
	printType    = reflect.TypeFor[func(string)]()
	errorType    = reflect.TypeFor[error]()
	stringType   = reflect.TypeFor[string]()
)

// Definition errors.
var (
	ErrInvalidName    = errors.New("command name must be non-empty and contain no whitespace")
	ErrInvalidHandler = errors.New("invalid command handler")
	ErrInvalidDefault = errors.New("invalid default value")
)

// NewDescriptor validates def and builds its descriptor.
func NewDescriptor(def Definition) (*Descriptor, error) {
	name := strings.TrimSpace(def.Name)
	if name == "" || strings.IndexFunc(name, unicode.IsSpace) >= 0 || strings.ContainsRune(name, '"') {
		return nil, fmt.Errorf("%w: %q", ErrInvalidName, def.Name)
	}
	if err := def.Flags.Validate(); err != nil {
		return nil, fmt.Errorf("command %s: %w", name, err)
	}

	fn := reflect.ValueOf(def.Handler)
	if fn.Kind() != reflect.Func || fn.IsNil() {
		return nil, fmt.Errorf("command %s: %w: handler must be a func, got %T", name, ErrInvalidHandler, def.Handler)
	}
	ft := fn.Type()
	if ft.IsVariadic() {
		return nil, fmt.Errorf("command %s: %w: variadic handlers are not supported", name, ErrInvalidHandler)
	}
	if err := checkResults(ft); err != nil {
		return nil, fmt.Errorf("command %s: %w: %v", name, ErrInvalidHandler, err)
	}

	d := &Descriptor{
		Name:        name,
		Key:         NormalizeName(name),
		Description: def.Description,
		Flags:       def.Flags,
		Suggest:     def.Suggest,
		MethodID:    funcName(fn),
		fn:          fn,
	}

	in := 0
	if def.OnInstance {
		if ft.NumIn() == 0 {
			return nil, fmt.Errorf("command %s: %w: method handler has no receiver", name, ErrInvalidHandler)
		}
		d.Owner = ft.In(0)
		d.OwnerID = convert.TypeID(d.Owner)
		in = 1
	} else {
		d.OwnerID = funcPackage(d.MethodID)
	}

	if in < ft.NumIn() && isSinkType(ft.In(in)) {
		d.Params = append(d.Params, ParameterSpec{
			Name:           "response",
			Type:           ft.In(in),
			IsResponseSink: true,
		})
		in++
	}

	userCount := ft.NumIn() - in
	if len(def.Params) > userCount {
		return nil, fmt.Errorf("command %s: %w: %d parameter names for %d parameters",
			name, ErrInvalidHandler, len(def.Params), userCount)
	}

	for i := 0; i < userCount; i++ {
		spec := ParameterSpec{
			Name: fmt.Sprintf("arg%d", i+1),
			Type: ft.In(in + i),
		}
		if i < len(def.Params) {
			p := def.Params[i]
			if p.Name != "" {
				spec.Name = p.Name
			}
			spec.Suggest = p.Suggest
			if p.HasDefault {
				v, err := coerceDefault(p.Default, spec.Type)
				if err != nil {
					return nil, fmt.Errorf("command %s: parameter %s: %w", name, spec.Name, err)
				}
				spec.HasDefault = true
				spec.Default = v
			}
		}
		d.Params = append(d.Params, spec)
	}

	return d, nil
}

func isSinkType(t reflect.Type) bool {
	return t == responseType || t == printType
}

func checkResults(ft reflect.Type) error {
	switch ft.NumOut() {
	case 0:
		return nil
	case 1:
		if out := ft.Out(0); out == errorType || out == stringType {
			return nil
		}
	case 2:
		if ft.Out(0) == stringType && ft.Out(1) == errorType {
			return nil
		}
	}
	return fmt.Errorf("unsupported results %s", ft)
}

// coerceDefault converts a declared default to the parameter type. Numeric
// literals are widened (Opt("scale", 1) on a float64), but numbers are never
// turned into strings.
func coerceDefault(def any, t reflect.Type) (any, error) {
	if def == nil {
		switch t.Kind() {
		case reflect.Pointer, reflect.Interface, reflect.Slice, reflect.Map, reflect.Func:
			return nil, nil
		}
		return nil, fmt.Errorf("%w: nil for %s", ErrInvalidDefault, convert.TypeName(t))
	}

	v := reflect.ValueOf(def)
	switch {
	case v.Type() == t:
		return def, nil
	case v.Type().AssignableTo(t):
		out := reflect.New(t).Elem()
		out.Set(v)
		return out.Interface(), nil
	case t.Kind() == reflect.String && v.Kind() != reflect.String:
	case v.Type().ConvertibleTo(t):
		return v.Convert(t).Interface(), nil
	}
	return nil, fmt.Errorf("%w: %s is not assignable to %s",
		ErrInvalidDefault, convert.TypeName(v.Type()), convert.TypeName(t))
}

// funcName returns the linker name of a func value, e.g.
// "github.com/jeranaias/devcon/internal/builtins.(*Prefs).Set".
func funcName(fn reflect.Value) string {
	if f := runtime.FuncForPC(fn.Pointer()); f != nil {
		return f.Name()
	}
	return ""
}

// funcPackage extracts the import path from a linker name.
func funcPackage(name string) string {
	slash := strings.LastIndex(name, "/")
	dot := strings.Index(name[slash+1:], ".")
	if dot < 0 {
		return name
	}
	return name[:slash+1+dot]
}

// IsStatic reports whether the handler needs no target instance.
func (d *Descriptor) IsStatic() bool {
	return d.Owner == nil
}

// UserParams returns the parameters that consume tokens.
func (d *Descriptor) UserParams() []ParameterSpec {
	if len(d.Params) > 0 && d.Params[0].IsResponseSink {
		return d.Params[1:]
	}
	return d.Params
}

// hasSink reports whether the first parameter is the response sink.
func (d *Descriptor) hasSink() bool {
	return len(d.Params) > 0 && d.Params[0].IsResponseSink
}

// Signature renders the user parameters, e.g. "x float64, y float64".
func (d *Descriptor) Signature() string {
	params := d.UserParams()
	if len(params) == 0 {
		return "no arguments"
	}

	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = p.Name + " " + convert.TypeName(p.Type)
	}
	return strings.Join(parts, ", ")
}

// Usage renders the command with its arguments for help output, e.g.
// "screenshot <filename (string)=screenshot.png>".
func (d *Descriptor) Usage() string {
	var b strings.Builder
	b.WriteString(d.Name)
	for _, p := range d.UserParams() {
		b.WriteString(" <")
		b.WriteString(p.Name)
		b.WriteString(" (")
		b.WriteString(convert.TypeName(p.Type))
		b.WriteString(")")
		if p.HasDefault {
			b.WriteString("=")
			b.WriteString(formatDefault(p.Default))
		}
		b.WriteString(">")
	}
	return b.String()
}

func formatDefault(v any) string {
	switch v := v.(type) {
	case nil:
		return "nil"
	case string:
		if v == "" || strings.IndexFunc(v, unicode.IsSpace) >= 0 {
			return `"` + v + `"`
		}
		return v
	default:
		return fmt.Sprint(v)
	}
}

// sameIdentity reports whether two descriptors describe the same overload.
func (d *Descriptor) sameIdentity(o *Descriptor) bool {
	if d.Key != o.Key || d.MethodID != o.MethodID || d.OwnerID != o.OwnerID || len(d.Params) != len(o.Params) {
		return false
	}
	for i := range d.Params {
		if d.Params[i].Type != o.Params[i].Type {
			return false
		}
	}
	return true
}

// invoke calls the handler. Panics are recovered and returned as errors.
func (d *Descriptor) invoke(args []reflect.Value) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = fmt.Errorf("panic: %w", e)
			} else {
				err = fmt.Errorf("panic: %v", r)
			}
		}
	}()

	results := d.fn.Call(args)
	for _, res := range results {
		switch res.Type() {
		case stringType:
			out = res.String()
		case errorType:
			if !res.IsNil() {
				err = res.Interface().(error)
			}
		}
	}
	return out, err
}
