// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// StyledSink writes console responses to a terminal, colouring echoed
// commands and failures. It is safe for concurrent use.
type StyledSink struct {
	mu     sync.Mutex
	out    io.Writer
	styles Styles
	term   *termenv.Output
	tty    bool
}

// NewStyledSink returns a sink writing to out with the given colour profile.
func NewStyledSink(out io.Writer, profile termenv.Profile) *StyledSink {
	return &StyledSink{
		out:    out,
		styles: NewStyles(NewRenderer(out, profile)),
		term:   termenv.NewOutput(out, termenv.WithProfile(profile)),
		tty:    IsTerminal(out),
	}
}

// Styles returns the styles the sink renders with.
func (s *StyledSink) Styles() Styles {
	return s.styles
}

// Respond implements console.Sink.
func (s *StyledSink) Respond(msg string, ok bool) {
	style := s.styles.Output
	if !ok {
		style = s.styles.Error
	}
	s.write(style, msg)
}

// Echo implements console.Echoer.
func (s *StyledSink) Echo(line string) {
	s.write(s.styles.Echo, "> "+line)
}

// Notice writes a dimmed informational line.
func (s *StyledSink) Notice(format string, args ...any) {
	s.write(s.styles.Dim, fmt.Sprintf(format, args...))
}

// Lines are rendered one at a time so multi-line output is not padded.
func (s *StyledSink) write(style lipgloss.Style, msg string) {
	var b strings.Builder
	for _, line := range strings.Split(msg, "\n") {
		b.WriteString(style.Render(line))
		b.WriteByte('\n')
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	io.WriteString(s.out, b.String())
}

// Clear clears the terminal. Output that is not a terminal is left alone.
func (s *StyledSink) Clear() {
	if !s.tty {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.term.ClearScreen()
}
