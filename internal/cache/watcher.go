// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is used when a Watcher is created with a zero debounce.
const DefaultDebounce = 100 * time.Millisecond

// Watcher calls a reload function when the cache file changes on disk.
//
// The parent directory is watched rather than the file itself, because
// atomic writes replace the file and editors rename over it. Bursts of
// events are coalesced: the reload runs once the file has been quiet for
// the debounce interval.
type Watcher struct {
	path     string
	debounce time.Duration
	reload   func(context.Context)
	logger   *slog.Logger
	watcher  *fsnotify.Watcher

	mu      sync.Mutex
	pending time.Time // zero when nothing is pending

	cancel context.CancelFunc
	done   chan struct{}
}

// NewWatcher creates a watcher for the cache at path.
func NewWatcher(path string, debounce time.Duration, logger *slog.Logger, reload func(context.Context)) (*Watcher, error) {
	if reload == nil {
		return nil, errors.New("reload function cannot be nil")
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve cache path: %w", err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	return &Watcher{
		path:     abs,
		debounce: debounce,
		reload:   reload,
		logger:   logger,
		watcher:  fw,
		done:     make(chan struct{}),
	}, nil
}

// Start begins watching. It returns once the directory is registered;
// events are processed until ctx is cancelled or Close is called.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(w.path), err)
	}

	ctx, w.cancel = context.WithCancel(ctx)
	go w.run(ctx)
	return nil
}

// relevant reports whether an event touches the cache file or its SQLite journal.
func (w *Watcher) relevant(name string) bool {
	name = filepath.Clean(name)
	return name == w.path || name == w.path+"-wal"
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.done)

	tick := w.debounce / 2
	if tick < 10*time.Millisecond {
		tick = 10 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.relevant(event.Name) || event.Op == fsnotify.Chmod {
				continue
			}
			w.mu.Lock()
			w.pending = time.Now()
			w.mu.Unlock()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("cache watcher error", "error", err)

		case now := <-ticker.C:
			w.mu.Lock()
			fire := !w.pending.IsZero() && now.Sub(w.pending) >= w.debounce
			if fire {
				w.pending = time.Time{}
			}
			w.mu.Unlock()

			if fire {
				w.logger.Debug("command cache changed, reloading", "path", w.path)
				w.safeReload(ctx)
			}
		}
	}
}

func (w *Watcher) safeReload(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("cache reload panicked", "panic", r)
		}
	}()
	w.reload(ctx)
}

// Close stops watching and waits for the event loop to exit.
func (w *Watcher) Close() error {
	if w.cancel != nil {
		w.cancel()
		<-w.done
	}
	return w.watcher.Close()
}
