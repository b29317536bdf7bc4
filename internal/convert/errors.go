// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package convert

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedType is returned when no conversion exists for a type.
	ErrUnsupportedType = errors.New("no converter for type")

	// ErrInvalidSyntax is returned when a token is not a valid literal.
	ErrInvalidSyntax = errors.New("invalid syntax")

	// ErrOutOfRange is returned when a numeric token overflows its type.
	ErrOutOfRange = errors.New("value out of range")

	// ErrNotBool is returned for boolean tokens other than true or false.
	ErrNotBool = errors.New("expected true or false")

	// ErrUnknownMember is returned when a token names no enumeration member.
	ErrUnknownMember = errors.New("unknown member")
)

// ConversionError reports a token that could not be converted.
type ConversionError struct {
	Token string
	Type  string
	Err   error
}

// Error implements the error interface.
func (e *ConversionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("could not convert '%s' to %s", e.Token, e.Type)
	}
	return fmt.Sprintf("could not convert '%s' to %s: %v", e.Token, e.Type, e.Err)
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}
