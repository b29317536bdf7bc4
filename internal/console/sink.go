// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package console

import (
	"reflect"
	"sync"
)

// =============================================================================
// RESPONSE SINK
// =============================================================================

// Sink receives every line the console produces. ok is false for
// diagnostics.
type Sink interface {
	Respond(msg string, ok bool)
}

// SinkFunc adapts a function to a Sink.
type SinkFunc func(msg string, ok bool)

// Respond implements Sink.
func (f SinkFunc) Respond(msg string, ok bool) {
	f(msg, ok)
}

// Echoer is implemented by sinks that render the echoed input line
// differently from command output. Sinks without it receive the echo
// through Respond as "> line".
type Echoer interface {
	Echo(line string)
}

// echo writes the input line to sink.
func echo(sink Sink, line string) {
	if e, ok := sink.(Echoer); ok {
		e.Echo(line)
		return
	}
	sink.Respond("> "+line, true)
}

// Discard is a Sink that drops everything.
var Discard Sink = SinkFunc(func(string, bool) {})

// Line is one recorded sink message.
type Line struct {
	Text string
	OK   bool
}

// Recorder is a Sink that keeps every message. It is safe for concurrent use.
type Recorder struct {
	mu    sync.Mutex
	lines []Line
}

// Respond implements Sink.
func (r *Recorder) Respond(msg string, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, Line{Text: msg, OK: ok})
}

// Lines returns a copy of the recorded messages.
func (r *Recorder) Lines() []Line {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Line(nil), r.lines...)
}

// Texts returns the recorded message texts.
func (r *Recorder) Texts() []string {
	lines := r.Lines()
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.Text
	}
	return out
}

// Reset drops every recorded message.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = nil
}

// =============================================================================
// INSTANCE RESOLUTION
// =============================================================================

// InstanceResolver finds the live receiver for a method handler.
type InstanceResolver interface {
	ResolveInstance(owner reflect.Type) (any, bool)
}

// InstanceResolverFunc adapts a function to an InstanceResolver.
type InstanceResolverFunc func(owner reflect.Type) (any, bool)

// ResolveInstance implements InstanceResolver.
func (f InstanceResolverFunc) ResolveInstance(owner reflect.Type) (any, bool) {
	return f(owner)
}

// Instances is an InstanceResolver keyed by the dynamic type of each added
// value. It is safe for concurrent use.
type Instances struct {
	mu sync.RWMutex
	m  map[reflect.Type]any
}

// NewInstances creates an empty instance set.
func NewInstances(values ...any) *Instances {
	i := &Instances{m: make(map[reflect.Type]any)}
	for _, v := range values {
		i.Add(v)
	}
	return i
}

// Add registers v as the live instance of its type, replacing any other.
func (i *Instances) Add(v any) {
	if v == nil {
		return
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	i.m[reflect.TypeOf(v)] = v
}

// Remove unregisters v if it is the current instance of its type.
func (i *Instances) Remove(v any) {
	if v == nil {
		return
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	t := reflect.TypeOf(v)
	if cur, ok := i.m[t]; ok && cur == v {
		delete(i.m, t)
	}
}

// ResolveInstance implements InstanceResolver.
func (i *Instances) ResolveInstance(owner reflect.Type) (any, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	v, ok := i.m[owner]
	return v, ok
}
