// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ReloadHandler is called once per debounced batch of config changes.
type ReloadHandler func(changed []string)

// Watcher watches the configuration tree and triggers a handler after
// edits settle.
//
// # Description
//
// Watches the config directory and its questions/ subdirectory for
// changes to .yaml files. Changes are batched through a debounce window
// so that editors which write files in several steps (or operators
// saving all three files in quick succession) trigger one reload, not
// many.
//
// # Thread Safety
//
// Safe for concurrent use. The handler is called from a single
// goroutine.
type Watcher struct {
	dir      string
	watcher  *fsnotify.Watcher
	handler  ReloadHandler
	debounce time.Duration

	changes  chan string
	done     chan struct{}
	stopOnce sync.Once

	mu       sync.RWMutex
	watching bool
}

// WatcherOptions configures the Watcher.
type WatcherOptions struct {
	// DebounceWindow is how long to wait for more changes before
	// triggering. Default: 200ms
	DebounceWindow time.Duration

	// BufferSize is the size of the change buffer channel.
	// Default: 64
	BufferSize int
}

// DefaultWatcherOptions returns sensible defaults.
func DefaultWatcherOptions() WatcherOptions {
	return WatcherOptions{
		DebounceWindow: 200 * time.Millisecond,
		BufferSize:     64,
	}
}

// NewWatcher creates a watcher for the configuration tree rooted at dir.
//
// # Inputs
//
//   - dir: The config directory (the one containing scoring.yaml).
//   - handler: Called with the deduplicated changed paths after each
//     debounce window.
//   - opts: Optional configuration (nil uses defaults).
//
// # Outputs
//
//   - *Watcher: Ready to use; call Start to begin watching.
//   - error: Non-nil if the underlying fsnotify watcher could not be
//     created.
func NewWatcher(dir string, handler ReloadHandler, opts *WatcherOptions) (*Watcher, error) {
	if opts == nil {
		defaults := DefaultWatcherOptions()
		opts = &defaults
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		dir:      dir,
		watcher:  fsw,
		handler:  handler,
		debounce: opts.DebounceWindow,
		changes:  make(chan string, opts.BufferSize),
		done:     make(chan struct{}),
	}, nil
}

// Start begins watching. Both spawned goroutines exit when Stop is
// called or the context is canceled.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.watching {
		w.mu.Unlock()
		return nil
	}
	w.watching = true
	w.mu.Unlock()

	if err := w.watcher.Add(w.dir); err != nil {
		return err
	}
	// The questions subdirectory is optional; it may also appear later,
	// which the create handler in processEvents picks up.
	questionsDir := filepath.Join(w.dir, QuestionsDirName)
	_ = w.watcher.Add(questionsDir)

	go w.processEvents(ctx)
	go w.debounceLoop(ctx)

	return nil
}

// Stop stops the watcher. Safe to call more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		w.watcher.Close()

		w.mu.Lock()
		w.watching = false
		w.mu.Unlock()
	})
}

// IsWatching returns true if the watcher is currently active.
func (w *Watcher) IsWatching() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.watching
}

// relevant reports whether a changed path should trigger a reload.
// Only the YAML sources matter; editor temp files and lock files are
// ignored.
func (w *Watcher) relevant(path string) bool {
	return strings.HasSuffix(path, ".yaml")
}

func (w *Watcher) processEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			// A questions/ directory created after Start needs watching.
			if event.Has(fsnotify.Create) && filepath.Base(event.Name) == QuestionsDirName {
				_ = w.watcher.Add(event.Name)
				continue
			}

			if !w.relevant(event.Name) {
				continue
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}

			select {
			case w.changes <- event.Name:
			default:
				// Buffer full; the pending batch already guarantees a
				// reload, so dropping the path loses nothing.
			}

		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

// debounceLoop batches changed paths and calls the handler after the
// debounce window expires without further changes.
func (w *Watcher) debounceLoop(ctx context.Context) {
	var batch []string
	var timer *time.Timer
	var timerC <-chan time.Time

	flush := func() {
		if len(batch) > 0 {
			deduped := dedupePaths(batch)
			if w.handler != nil {
				w.handler(deduped)
			}
			batch = batch[:0]
		}
		if timer != nil {
			timer.Stop()
			timer = nil
			timerC = nil
		}
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			return
		case <-w.done:
			flush()
			return
		case path := <-w.changes:
			batch = append(batch, path)
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				// Drain a tick that fired between the Stop and the select
				// pickup, otherwise the stale tick flushes the batch before
				// the window has settled.
				if !timer.Stop() {
					select {
					case <-timerC:
					default:
					}
				}
				timer.Reset(w.debounce)
			}
		case <-timerC:
			flush()
		}
	}
}

// dedupePaths removes duplicates, keeping first-occurrence order.
func dedupePaths(paths []string) []string {
	seen := make(map[string]bool, len(paths))
	result := make([]string, 0, len(paths))
	for _, path := range paths {
		if seen[path] {
			continue
		}
		seen[path] = true
		result = append(result, path)
	}
	return result
}
