// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package console

import (
	"strings"
	"unicode"
)

// =============================================================================
// TOKENIZER
// =============================================================================

// token is a single scanned word together with the information completion
// needs to rebuild the line around it.
type token struct {
	// Text is the token with quotes removed.
	Text string

	// Quoted is true when any part of the token was inside double quotes.
	Quoted bool
}

// scanResult is the outcome of scanning one line.
type scanResult struct {
	Tokens []token

	// OpenQuote is true when the line ended inside a quoted span.
	OpenQuote bool

	// TrailingSpace is true when the line ended with unquoted whitespace,
	// meaning the cursor is at the start of a new token.
	TrailingSpace bool
}

// Tokenize splits a line into tokens on Unicode whitespace. A double-quoted
// span is kept together as one token with the quotes removed, and an empty
// pair of quotes yields an empty token. A quote left open runs to the end of
// the line. There are no escape sequences.
//
//	Tokenize(`say "hello world" 3`) // ["say", "hello world", "3"]
func Tokenize(line string) []string {
	res := scan(line)
	if len(res.Tokens) == 0 {
		return nil
	}

	out := make([]string, len(res.Tokens))
	for i, tok := range res.Tokens {
		out[i] = tok.Text
	}
	return out
}

func scan(line string) scanResult {
	var (
		res      scanResult
		current  strings.Builder
		inQuote  bool
		inToken  bool
		quoted   bool
		lastRune rune
	)

	flush := func() {
		if inToken {
			res.Tokens = append(res.Tokens, token{Text: current.String(), Quoted: quoted})
		}
		current.Reset()
		inToken = false
		quoted = false
	}

	for _, r := range line {
		lastRune = r
		switch {
		case r == '"':
			inQuote = !inQuote
			inToken = true
			quoted = true

		case unicode.IsSpace(r) && !inQuote:
			flush()

		default:
			current.WriteRune(r)
			inToken = true
		}
	}
	flush()

	res.OpenQuote = inQuote
	res.TrailingSpace = !inQuote && unicode.IsSpace(lastRune)
	return res
}

// SplitSegments splits multi-command input on sep. Empty and blank segments
// are dropped. The separator is not special inside quotes.
func SplitSegments(input string, sep rune) []string {
	var (
		segments []string
		current  strings.Builder
		inQuote  bool
	)

	flush := func() {
		if strings.TrimSpace(current.String()) != "" {
			segments = append(segments, current.String())
		}
		current.Reset()
	}

	for _, r := range input {
		switch {
		case r == '"':
			inQuote = !inQuote
			current.WriteRune(r)
		case r == sep && !inQuote:
			flush()
		default:
			current.WriteRune(r)
		}
	}
	flush()

	return segments
}

// lastSegment returns the text after the final unquoted separator together
// with everything before it (separator included).
func lastSegment(input string, sep rune) (prefix, segment string) {
	inQuote := false
	cut := -1
	for i, r := range input {
		switch {
		case r == '"':
			inQuote = !inQuote
		case r == sep && !inQuote:
			cut = i
		}
	}
	if cut < 0 {
		return "", input
	}
	end := cut + len(string(sep))
	return input[:end], input[end:]
}
