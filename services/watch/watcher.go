// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package watch re-checks files whenever they change on disk.
package watch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/AleutianAI/stylecheck/services/checker"
)

// DefaultDebounce is how long a file must be quiet before it is re-checked.
const DefaultDebounce = 150 * time.Millisecond

// ErrNoFiles is returned by New when no paths are given.
var ErrNoFiles = errors.New("no files to watch")

// Checker is the part of checker.Invoker the watcher needs.
type Checker interface {
	Check(ctx context.Context, lines []string) (*checker.Result, error)
}

// Report is the outcome of checking one file once.
type Report struct {
	// Path is the absolute path of the checked file.
	Path string

	// Result is nil when Err is set.
	Result *checker.Result

	// Err is a read or checker error.
	Err error
}

// Watcher checks a set of files and re-checks each one after it changes.
//
// # Description
//
// Watches the parent directories rather than the files themselves, so
// editors that save by writing a new file and renaming it over the old
// one are still seen. Bursts of events for the same file are debounced
// into one check.
//
// # Thread Safety
//
// Run should be called once. Close is safe to call from any goroutine.
type Watcher struct {
	checker  Checker
	onReport func(Report)
	debounce time.Duration
	files    map[string]struct{}
	dirs     []string
	watcher  *fsnotify.Watcher

	mu      sync.Mutex
	timers  map[string]*time.Timer
	pending chan string
}

// Option configures the Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period before a re-check.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// New creates a watcher for paths. onReport is called from the Run
// goroutine after every check, one file at a time.
//
// # Outputs
//
//   - *Watcher: Ready to Run.
//   - error: ErrNoFiles, a path that is not a regular file, or an
//     fsnotify setup failure.
func New(c Checker, paths []string, onReport func(Report), opts ...Option) (*Watcher, error) {
	if len(paths) == 0 {
		return nil, ErrNoFiles
	}

	w := &Watcher{
		checker:  c,
		onReport: onReport,
		debounce: DefaultDebounce,
		files:    make(map[string]struct{}, len(paths)),
		timers:   make(map[string]*time.Timer),
		pending:  make(chan string, len(paths)),
	}
	for _, opt := range opts {
		opt(w)
	}

	seenDirs := make(map[string]struct{})
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", p, err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return nil, err
		}
		if !info.Mode().IsRegular() {
			return nil, fmt.Errorf("%s: not a regular file", p)
		}
		w.files[abs] = struct{}{}

		dir := filepath.Dir(abs)
		if _, ok := seenDirs[dir]; !ok {
			seenDirs[dir] = struct{}{}
			w.dirs = append(w.dirs, dir)
		}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w.watcher = watcher
	return w, nil
}

// Run checks every file once, then re-checks files as they change.
// Blocks until ctx is cancelled or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) error {
	for _, dir := range w.dirs {
		if err := w.watcher.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}
	slog.Debug("Started watching files",
		"files", len(w.files),
		"dirs", len(w.dirs))

	for path := range w.files {
		w.check(ctx, path)
	}

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("File watcher error", "error", err)

		case path := <-w.pending:
			w.check(ctx, path)

		case <-ctx.Done():
			slog.Debug("File watcher stopping")
			w.stopTimers()
			return nil
		}
	}
}

// handleEvent schedules a debounced re-check for writes to watched files.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return
	}
	path := filepath.Clean(event.Name)
	if _, ok := w.files[path]; !ok {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.timers[path]; ok {
		t.Reset(w.debounce)
		return
	}
	w.timers[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.timers, path)
		w.mu.Unlock()

		select {
		case w.pending <- path:
		default:
			// Already queued.
		}
	})
}

// check reads path and reports the checker result.
func (w *Watcher) check(ctx context.Context, path string) {
	report := Report{Path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		// Mid-rename or deleted; the next Create event re-triggers.
		if os.IsNotExist(err) {
			slog.Debug("Watched file missing, skipping", "path", path)
			return
		}
		report.Err = err
	} else {
		report.Result, report.Err = w.checker.Check(ctx, checker.SplitLines(string(data)))
	}

	if report.Err != nil {
		slog.Warn("Check of watched file failed",
			"path", path,
			"error", report.Err)
	}
	if w.onReport != nil {
		w.onReport(report)
	}
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, t := range w.timers {
		t.Stop()
		delete(w.timers, path)
	}
}

// Close stops the watcher and releases resources. Safe to call multiple times.
func (w *Watcher) Close() error {
	w.stopTimers()
	return w.watcher.Close()
}
