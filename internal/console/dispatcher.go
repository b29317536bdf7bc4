// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package console

import (
	"errors"
	"log/slog"
	"reflect"
	"strings"

	"github.com/google/uuid"

	"github.com/jeranaias/devcon/internal/convert"
)

// =============================================================================
// DISPATCHER
// =============================================================================

// Dispatcher resolves a line of input to one overload and invokes it.
// Every outcome, success or failure, is written to the sink.
type Dispatcher struct {
	registry   *Registry
	converters *convert.Registry
	opts       Options
}

// NewDispatcher creates a dispatcher over the given registries.
func NewDispatcher(reg *Registry, conv *convert.Registry, opts Options) *Dispatcher {
	return &Dispatcher{
		registry:   reg,
		converters: conv,
		opts:       opts.withDefaults(),
	}
}

// Execute runs a single command line. The returned error is the diagnosis
// already written to the sink, or nil on success.
func (d *Dispatcher) Execute(line string) error {
	return d.execute(line, d.opts.Logger)
}

// Submit splits input on the separator and executes each segment in order.
// Failures do not stop later segments; their errors are joined.
func (d *Dispatcher) Submit(input string) error {
	segments := SplitSegments(input, d.opts.Separator)
	if len(segments) == 0 {
		return nil
	}

	logger := d.opts.Logger.With("invocation", uuid.NewString())
	var errs []error
	for _, seg := range segments {
		if err := d.execute(seg, logger); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (d *Dispatcher) execute(line string, logger *slog.Logger) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}

	sink := d.opts.Sink
	echo(sink, line)

	if err := d.dispatch(line, sink, logger); err != nil {
		for _, msg := range err.render(d.opts.HelpCommand) {
			sink.Respond(msg, false)
		}
		logger.Debug("command failed", "line", line, "kind", err.Kind.String(), "error", err.Error())
		return err
	}
	return nil
}

func (d *Dispatcher) dispatch(line string, sink Sink, logger *slog.Logger) *Error {
	tokens := Tokenize(line)
	if len(tokens) == 0 {
		return nil
	}

	name := tokens[0]
	table := d.registry.Table()
	overloads := table.Lookup(name)
	if len(overloads) == 0 {
		return &Error{
			Kind:        KindUnknownCommand,
			Command:     name,
			Suggestions: similarNames(table.VisibleNames(), NormalizeName(name), d.opts.SuggestionLimit),
		}
	}

	best, err := d.resolve(name, overloads, tokens[1:], sink)
	if err != nil {
		return err
	}
	desc := best.desc
	args := best.args

	if !desc.IsStatic() {
		target, err := d.target(name, desc)
		if err != nil {
			return err
		}
		args = append([]reflect.Value{target}, args...)
	}

	if reason := d.opts.Gates.check(desc.Flags); reason != "" {
		return &Error{Kind: KindGatedByFlag, Command: name, Signature: desc.Signature(), Reason: reason}
	}

	logger.Debug("invoking command", "command", desc.Name, "method", desc.MethodID, "score", best.score)
	out, herr := desc.invoke(args)
	if herr != nil {
		logger.Warn("command handler failed", "command", desc.Name, "method", desc.MethodID, "error", herr)
		return &Error{Kind: KindHandlerThrew, Command: name, Signature: desc.Signature(), Err: herr}
	}
	if out != "" {
		sink.Respond(out, true)
	}
	return nil
}

func (d *Dispatcher) target(name string, desc *Descriptor) (reflect.Value, *Error) {
	missing := &Error{
		Kind:      KindMissingTargetInstance,
		Command:   name,
		Signature: desc.Signature(),
		Type:      convert.TypeName(desc.Owner),
	}
	if d.opts.Resolver == nil {
		return reflect.Value{}, missing
	}

	inst, ok := d.opts.Resolver.ResolveInstance(desc.Owner)
	if !ok || inst == nil {
		return reflect.Value{}, missing
	}
	v := reflect.ValueOf(inst)
	if !v.Type().AssignableTo(desc.Owner) {
		return reflect.Value{}, missing
	}
	return v, nil
}

// =============================================================================
// OVERLOAD RESOLUTION
// =============================================================================

type resolution struct {
	desc  *Descriptor
	args  []reflect.Value
	score int
}

// resolve scores every overload and returns the best. Only a strictly
// greater score replaces the current best, so ties go to the overload
// registered first.
func (d *Dispatcher) resolve(name string, overloads []*Descriptor, tokens []string, sink Sink) (*resolution, *Error) {
	var (
		best    *resolution
		reasons []*Error
	)

	for _, desc := range overloads {
		res, err := d.match(name, desc, tokens, sink)
		if err != nil {
			reasons = append(reasons, err)
			continue
		}
		if best == nil || res.score > best.score {
			best = res
		}
	}

	if best == nil {
		return nil, &Error{Kind: KindNoMatchingOverload, Command: name, Candidates: reasons}
	}
	return best, nil
}

// match converts tokens against one overload. It never invokes anything.
func (d *Dispatcher) match(name string, desc *Descriptor, tokens []string, sink Sink) (*resolution, *Error) {
	params := desc.Params
	offset := 0
	if desc.hasSink() {
		offset = 1
	}

	if len(tokens) > len(params)-offset {
		return nil, &Error{Kind: KindTooManyArguments, Command: name, Signature: desc.Signature()}
	}

	args := make([]reflect.Value, len(params))
	if offset == 1 {
		args[0] = sinkValue(params[0].Type, sink)
	}

	score := 0
	for i := offset; i < len(params); i++ {
		p := params[i]
		idx := i - offset

		switch {
		case idx < len(tokens):
			v, m, err := d.converters.Convert(tokens[idx], p.Type)
			if err != nil {
				return nil, &Error{
					Kind:      KindArgumentConversion,
					Command:   name,
					Signature: desc.Signature(),
					Param:     p.Name,
					Token:     tokens[idx],
					Type:      convert.TypeName(p.Type),
					Err:       err,
				}
			}
			args[i] = v
			score += m.Score()

		case p.HasDefault:
			args[i] = p.defaultValue()
			score++

		default:
			return nil, &Error{
				Kind:      KindMissingRequiredArgument,
				Command:   name,
				Signature: desc.Signature(),
				Param:     p.Name,
				Type:      convert.TypeName(p.Type),
			}
		}
	}

	return &resolution{desc: desc, args: args, score: score}, nil
}

func sinkValue(t reflect.Type, sink Sink) reflect.Value {
	if t == printType {
		return reflect.ValueOf(func(msg string) { sink.Respond(msg, true) })
	}
	return reflect.ValueOf(Response(sink.Respond))
}
