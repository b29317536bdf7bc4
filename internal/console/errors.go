// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package console

import (
	"fmt"
	"strings"
)

// ErrorKind classifies console errors.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindUnknownCommand
	KindTooManyArguments
	KindArgumentConversion
	KindMissingRequiredArgument
	KindNoMatchingOverload
	KindMissingTargetInstance
	KindGatedByFlag
	KindHandlerThrew
	KindCacheEntryUnresolved
)

var kindNames = map[ErrorKind]string{
	KindUnknown:                 "Unknown",
	KindUnknownCommand:          "UnknownCommand",
	KindTooManyArguments:        "TooManyArguments",
	KindArgumentConversion:      "ArgumentConversionError",
	KindMissingRequiredArgument: "MissingRequiredArgument",
	KindNoMatchingOverload:      "NoMatchingOverload",
	KindMissingTargetInstance:   "MissingTargetInstance",
	KindGatedByFlag:             "GatedByFlag",
	KindHandlerThrew:            "HandlerThrew",
	KindCacheEntryUnresolved:    "CacheEntryUnresolved",
}

func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// Error is a diagnosed console failure.
type Error struct {
	Kind ErrorKind

	// Command is the command name as typed.
	Command string

	// Signature identifies the overload the error refers to.
	Signature string

	// Param, Token and Type describe the offending argument.
	Param string
	Token string
	Type  string

	// Reason is a short human readable explanation.
	Reason string

	// Suggestions lists similar command names for KindUnknownCommand.
	Suggestions []string

	// Candidates holds the per-overload reasons for KindNoMatchingOverload.
	Candidates []*Error

	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var msg string
	switch e.Kind {
	case KindUnknownCommand:
		msg = fmt.Sprintf("unknown command '%s'", e.Command)
	case KindTooManyArguments:
		msg = fmt.Sprintf("[%s] too many arguments provided", e.Signature)
	case KindArgumentConversion:
		msg = fmt.Sprintf("[%s] error parsing arg '%s'", e.Signature, e.Param)
	case KindMissingRequiredArgument:
		msg = fmt.Sprintf("[%s] missing required argument '%s'", e.Signature, e.Param)
	case KindNoMatchingOverload:
		reasons := make([]string, len(e.Candidates))
		for i, c := range e.Candidates {
			reasons[i] = c.Error()
		}
		msg = fmt.Sprintf("could not execute '%s': %s", e.Command, strings.Join(reasons, "; "))
	case KindMissingTargetInstance:
		msg = fmt.Sprintf("could not find instance of '%s' for command '%s'", e.Type, e.Command)
	case KindGatedByFlag:
		msg = fmt.Sprintf("cannot run '%s': %s", e.Command, e.Reason)
	case KindHandlerThrew:
		msg = fmt.Sprintf("error while executing '%s'", e.Command)
	case KindCacheEntryUnresolved:
		msg = fmt.Sprintf("cache entry '%s' unresolved: %s", e.Command, e.Reason)
	default:
		msg = e.Reason
	}

	if e.Err != nil && e.Kind != KindNoMatchingOverload {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ExitCode maps the error to a process exit code: 2 for malformed input,
// 1 for everything else.
func (e *Error) ExitCode() int {
	switch e.Kind {
	case KindTooManyArguments, KindArgumentConversion, KindMissingRequiredArgument, KindNoMatchingOverload:
		return 2
	default:
		return 1
	}
}

// IsKind reports whether err, or any error it wraps or joins, is a console
// Error of the given kind. Overload candidates are searched too.
func IsKind(err error, kind ErrorKind) bool {
	switch e := err.(type) {
	case nil:
		return false
	case *Error:
		if e.Kind == kind {
			return true
		}
		for _, c := range e.Candidates {
			if IsKind(c, kind) {
				return true
			}
		}
		return IsKind(e.Err, kind)
	case interface{ Unwrap() []error }:
		for _, inner := range e.Unwrap() {
			if IsKind(inner, kind) {
				return true
			}
		}
	case interface{ Unwrap() error }:
		return IsKind(e.Unwrap(), kind)
	}
	return false
}

// ExitCode returns the exit code for err: 0 for nil, the highest code of any
// console error it contains, or 1.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	code := 0
	walkErrors(err, func(e *Error) {
		code = max(code, e.ExitCode())
	})
	if code == 0 {
		return 1
	}
	return code
}

func walkErrors(err error, fn func(*Error)) {
	switch e := err.(type) {
	case nil:
	case *Error:
		fn(e)
	case interface{ Unwrap() []error }:
		for _, inner := range e.Unwrap() {
			walkErrors(inner, fn)
		}
	case interface{ Unwrap() error }:
		walkErrors(e.Unwrap(), fn)
	}
}

// render produces the lines written to the sink for a diagnosis.
func (e *Error) render(helpCommand string) []string {
	switch e.Kind {
	case KindUnknownCommand:
		lines := []string{fmt.Sprintf("Unknown command: '%s'. Type '%s' for a list of commands.", e.Command, helpCommand)}
		if len(e.Suggestions) > 0 {
			lines = append(lines, "Did you mean: "+strings.Join(e.Suggestions, ", ")+"?")
		}
		return lines
	case KindNoMatchingOverload:
		lines := []string{fmt.Sprintf("Could not execute '%s'. Potential reasons:", e.Command)}
		for _, c := range e.Candidates {
			lines = append(lines, "- "+c.Error())
		}
		return lines
	case KindMissingTargetInstance:
		return []string{fmt.Sprintf("Could not find instance of '%s' for command '%s'.", e.Type, e.Command)}
	case KindGatedByFlag:
		return []string{fmt.Sprintf("Cannot run '%s': %s.", e.Command, e.Reason)}
	case KindHandlerThrew:
		return []string{fmt.Sprintf("Error while executing '%s': %v", e.Command, e.Err)}
	default:
		return []string{e.Error()}
	}
}
