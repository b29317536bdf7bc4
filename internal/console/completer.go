// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package console

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/cases"

	"github.com/jeranaias/devcon/internal/convert"
)

// =============================================================================
// COMPLETION PROVIDERS
// =============================================================================

// provider returns suggestions for the text being typed. filtered is false
// when the result still needs prefix filtering.
type provider func(prefix string) (values []string, filtered bool)

// ErrInvalidProvider is returned by RegisterProvider for unsupported funcs.
var ErrInvalidProvider = errors.New("suggestion provider must be func() []string or func(string) []string")

// =============================================================================
// COMPLETER
// =============================================================================

// Completer produces completion candidates for partially typed input. It
// reads the same table snapshot as the dispatcher and never invokes a
// handler.
type Completer struct {
	registry *Registry
	opts     Options

	mu        sync.RWMutex
	providers map[string]provider
}

// NewCompleter creates a completer over reg.
func NewCompleter(reg *Registry, opts Options) *Completer {
	return &Completer{
		registry:  reg,
		opts:      opts.withDefaults(),
		providers: make(map[string]provider),
	}
}

// RegisterProvider installs a named suggestion provider. fn is either
// func() []string, whose values are filtered by the typed prefix, or
// func(prefix string) []string, whose values are used as returned.
func (c *Completer) RegisterProvider(name string, fn any) error {
	var p provider
	switch fn := fn.(type) {
	case func() []string:
		p = func(string) ([]string, bool) { return fn(), false }
	case func(string) []string:
		p = func(prefix string) ([]string, bool) { return fn(prefix), true }
	default:
		return fmt.Errorf("%w: %s has type %T", ErrInvalidProvider, name, fn)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.providers[name] = p
	return nil
}

func (c *Completer) provider(name string) (provider, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.providers[name]
	return p, ok
}

// completionContext is the parsed state of a partial line.
type completionContext struct {
	// head is everything before the token being completed.
	head string

	// words are the completed tokens of the active segment.
	words []string

	// prefix is the unquoted text of the token being completed.
	prefix string
}

func (c *Completer) parse(partial string) (completionContext, bool) {
	before, segment := lastSegment(partial, c.opts.Separator)
	body := strings.TrimLeftFunc(segment, unicode.IsSpace)
	if body == "" {
		return completionContext{}, false
	}
	lead := segment[:len(segment)-len(body)]

	res := scan(body)
	words := make([]string, 0, len(res.Tokens))
	for _, tok := range res.Tokens {
		words = append(words, tok.Text)
	}

	var prefix string
	if !res.TrailingSpace && len(words) > 0 {
		prefix = words[len(words)-1]
		words = words[:len(words)-1]
	}

	head := before + lead
	if len(words) > 0 {
		quoted := make([]string, len(words))
		for i, w := range words {
			quoted[i] = quoteIfNeeded(w)
		}
		head += strings.Join(quoted, " ") + " "
	}

	return completionContext{head: head, words: words, prefix: prefix}, true
}

// Suggest returns the candidates for the token under the cursor, which is
// the last token of the last segment. Results are de-duplicated and sorted.
func (c *Completer) Suggest(partial string) []string {
	ctx, ok := c.parse(partial)
	if !ok {
		return nil
	}

	table := c.registry.Table()
	if len(ctx.words) == 0 || (len(ctx.words) == 1 && NormalizeName(ctx.words[0]) == NormalizeName(c.opts.HelpCommand)) {
		return filterPrefix(table.Names(), ctx.prefix)
	}

	argIndex := len(ctx.words) - 1
	seen := make(map[string]struct{})
	var out []string
	for _, desc := range table.Lookup(ctx.words[0]) {
		for _, s := range c.argSuggestions(desc, argIndex, ctx.prefix) {
			if _, dup := seen[s]; dup {
				continue
			}
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	slices.Sort(out)
	return out
}

// Complete returns Suggest's candidates as full replacement lines.
// Candidates containing whitespace are quoted.
func (c *Completer) Complete(partial string) []string {
	suggestions := c.Suggest(partial)
	if len(suggestions) == 0 {
		return nil
	}

	ctx, _ := c.parse(partial)
	lines := make([]string, len(suggestions))
	for i, s := range suggestions {
		lines[i] = ctx.head + quoteIfNeeded(s)
	}
	return lines
}

func (c *Completer) argSuggestions(desc *Descriptor, argIndex int, prefix string) []string {
	params := desc.UserParams()
	if argIndex >= len(params) {
		return nil
	}
	p := params[argIndex]

	name := p.Suggest
	if name == "" {
		name = desc.Suggest
	}
	if name != "" {
		if fn, ok := c.provider(name); ok {
			values, filtered := fn(prefix)
			if filtered {
				return values
			}
			return filterPrefix(values, prefix)
		}
		c.opts.Logger.Debug("suggestion provider not found", "provider", name, "command", desc.Name)
	}

	if convert.IsBool(p.Type) {
		return filterPrefix([]string{"true", "false"}, prefix)
	}
	if names, ok := convert.EnumNames(convert.Indirect(p.Type)); ok {
		return filterPrefix(names, prefix)
	}
	return nil
}

// filterPrefix keeps the values starting with prefix, ignoring case.
func filterPrefix(values []string, prefix string) []string {
	folder := cases.Fold()
	folded := folder.String(prefix)

	var out []string
	for _, v := range values {
		if strings.HasPrefix(folder.String(v), folded) {
			out = append(out, v)
		}
	}
	return out
}

func quoteIfNeeded(s string) string {
	if s == "" || strings.IndexFunc(s, unicode.IsSpace) >= 0 {
		return `"` + s + `"`
	}
	return s
}
