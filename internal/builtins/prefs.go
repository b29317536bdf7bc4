// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package builtins

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/jeranaias/devcon/internal/util"
)

// ErrPrefNotFound is returned when a preference key is not set.
var ErrPrefNotFound = errors.New("preference not found")

// Prefs is a string key/value store. When it has a path, every change is
// written back to that file.
type Prefs struct {
	mu     sync.RWMutex
	values map[string]string
	path   string
}

// NewPrefs loads preferences from path. An empty path keeps them in memory;
// a missing file starts empty.
func NewPrefs(path string) (*Prefs, error) {
	p := &Prefs{values: make(map[string]string), path: path}
	if path == "" {
		return p, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return p, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read preferences: %w", err)
	}
	if err := json.Unmarshal(data, &p.values); err != nil {
		return nil, fmt.Errorf("failed to decode preferences %s: %w", path, err)
	}
	if p.values == nil {
		p.values = make(map[string]string)
	}
	return p, nil
}

// saveLocked persists the map. Callers hold mu.
func (p *Prefs) saveLocked() error {
	if p.path == "" {
		return nil
	}
	data, err := json.MarshalIndent(p.values, "", "  ")
	if err != nil {
		return err
	}
	return util.AtomicWriteFile(p.path, data, 0600)
}

// Set stores value under key.
func (p *Prefs) Set(key, value string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.values[key] = value
	if err := p.saveLocked(); err != nil {
		return "", fmt.Errorf("failed to save preferences: %w", err)
	}
	return fmt.Sprintf("Pref set: %s = %s", key, value), nil
}

// Get reports the value stored under key.
func (p *Prefs) Get(key string) (string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	value, ok := p.values[key]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrPrefNotFound, key)
	}
	return fmt.Sprintf("Pref: %s = %s", key, value), nil
}

// Value returns the raw value stored under key.
func (p *Prefs) Value(key string) (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	value, ok := p.values[key]
	return value, ok
}

// Delete removes key.
func (p *Prefs) Delete(key string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.values[key]; !ok {
		return "", fmt.Errorf("%w: %s", ErrPrefNotFound, key)
	}
	delete(p.values, key)
	if err := p.saveLocked(); err != nil {
		return "", fmt.Errorf("failed to save preferences: %w", err)
	}
	return "Deleted pref: " + key, nil
}

// Clear removes every key.
func (p *Prefs) Clear() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	clear(p.values)
	if err := p.saveLocked(); err != nil {
		return "", fmt.Errorf("failed to save preferences: %w", err)
	}
	return "All prefs cleared.", nil
}

// Keys returns the stored keys, sorted. It backs pref-key completion.
func (p *Prefs) Keys() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	keys := make([]string, 0, len(p.values))
	for k := range p.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
