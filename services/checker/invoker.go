// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package checker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// =============================================================================
// INVOKER
// =============================================================================

// Invoker runs the configured checker over buffers and caches the results.
//
// Description:
//
//	Owns the FIFO result cache and the temp-file lifecycle. Each cache miss
//	writes the buffer to a fresh temp file, runs the checker on it, and
//	removes the file before returning, whatever happened in between.
//
// Thread Safety: Safe for concurrent use.
type Invoker struct {
	config  Config
	command string
	runner  Runner
	cache   *FIFOCache[string, cachedResult]
	flight  singleflight.Group
	logger  *slog.Logger

	runsMu sync.Mutex
	runs   map[string]*sharedRun
}

// sharedRun is the context of one checker run and the callers waiting on
// it. The run is cancelled only when every waiter has gone.
type sharedRun struct {
	ctx     context.Context
	cancel  context.CancelFunc
	waiters int
}

// cachedResult is what the cache keeps for one buffer digest.
type cachedResult struct {
	diagnostics []Diagnostic
	status      Status
	exitCode    int
}

// Option configures the Invoker.
type Option func(*Invoker)

// WithRunner replaces the process runner. Used by tests and by callers
// that run the checker somewhere other than the local machine.
func WithRunner(runner Runner) Option {
	return func(i *Invoker) {
		i.runner = runner
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(i *Invoker) {
		i.logger = logger
	}
}

// NewInvoker creates an invoker for the given configuration.
//
// Description:
//
//	Validates the config and fills in defaults. When cfg.Shell is set the
//	runner is wrapped in a ShellRunner.
//
// Inputs:
//
//	cfg - Checker configuration. Copied; later changes have no effect.
//	opts - Optional configuration options.
//
// Outputs:
//
//	*Invoker - The configured invoker.
//	error - ErrInvalidInput if the config is unusable.
func NewInvoker(cfg Config, opts ...Option) (*Invoker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	cfg = cfg.Clone()
	if cfg.TempSuffix == "" {
		cfg.TempSuffix = DefaultTempSuffix
	}

	inv := &Invoker{
		config:  cfg,
		command: filepath.Base(cfg.Command[0]),
		runner:  &ExecRunner{},
		cache:   NewFIFOCache[string, cachedResult](cfg.CacheLimit),
		logger:  slog.Default(),
		runs:    make(map[string]*sharedRun),
	}

	for _, opt := range opts {
		opt(inv)
	}

	if cfg.Shell {
		inv.runner = &ShellRunner{Next: inv.runner}
	}

	return inv, nil
}

// Check runs the checker over the buffer lines.
//
// Description:
//
//	Joins lines into canonical text and looks up its digest in the cache.
//	On a miss the oldest entry is evicted once the cache holds more than
//	its limit, then the text is written to a temp file and the checker
//	runs on it. Concurrent calls for identical content share one checker
//	run. A caller whose ctx ends stops waiting without failing the others;
//	the run itself is killed once no caller is left.
//
// Inputs:
//
//	ctx - Context for cancellation. Cancelling stops this caller waiting;
//	      the checker is killed once no caller is waiting on it.
//	lines - Buffer lines without trailing newlines.
//
// Outputs:
//
//	*Result - Diagnostics plus how they were obtained.
//	error - Non-nil if the checker could not be run or, in strict mode,
//	        its output could not be parsed.
//
// Errors:
//
//	ErrInvalidInput - ctx is nil
//	ErrTempFile - the temp file could not be written
//	ErrCheckerFailed - the checker could not be started
//	ErrCheckerTimeout - the configured timeout elapsed
//	ErrMalformedOutput - strict mode and an output line had < 3 colons
//
// Exit codes other than 0 and 1 are not errors. They yield an empty
// StatusToolError result and a warning in the log.
//
// Thread Safety: Safe for concurrent use.
func (i *Invoker) Check(ctx context.Context, lines []string) (*Result, error) {
	if ctx == nil {
		return nil, fmt.Errorf("%w: ctx must not be nil", ErrInvalidInput)
	}

	ctx, span := startCheckSpan(ctx, i.command, len(lines))
	defer span.End()
	start := time.Now()

	text := BufferText(lines)
	digest := Digest(text)

	if cached, ok := i.cache.Get(digest); ok {
		recordCacheLookup(ctx, true)
		result := &Result{
			Diagnostics: slices.Clone(cached.diagnostics),
			Status:      cached.status,
			ExitCode:    cached.exitCode,
			Cached:      true,
			Digest:      digest,
			Duration:    time.Since(start),
		}
		setCheckSpanResult(span, result)
		recordCheckMetrics(ctx, i.command, result.Duration, result, true)
		return result, nil
	}
	recordCacheLookup(ctx, false)

	if evicted, ok := i.cache.EvictOverflow(); ok {
		i.noteEviction(ctx, evicted)
	}

	shared := i.joinRun(ctx, digest)
	ch := i.flight.DoChan(digest, func() (interface{}, error) {
		return i.run(shared.ctx, text, digest)
	})

	var res singleflight.Result
	select {
	case res = <-ch:
		i.leaveRun(digest, shared, false)
	case <-ctx.Done():
		if i.leaveRun(digest, shared, true) {
			// Last waiter: wait for the killed run to remove its temp file.
			<-ch
		}
		res = singleflight.Result{Err: ctx.Err()}
	}
	if res.Err != nil {
		span.RecordError(res.Err)
		recordCheckMetrics(ctx, i.command, time.Since(start), nil, false)
		return nil, res.Err
	}

	run := res.Val.(*Result)
	result := &Result{
		Diagnostics: slices.Clone(run.Diagnostics),
		Status:      run.Status,
		ExitCode:    run.ExitCode,
		Digest:      digest,
		Duration:    time.Since(start),
	}

	if res.Shared {
		i.logger.Debug("Shared checker run with concurrent caller",
			slog.String("digest", digest[:12]),
		)
	}

	setCheckSpanResult(span, result)
	recordCheckMetrics(ctx, i.command, result.Duration, result, true)

	i.logger.Debug("Check completed",
		slog.String("checker", i.command),
		slog.String("status", result.Status.String()),
		slog.Int("diagnostics", len(result.Diagnostics)),
		slog.Duration("duration", result.Duration),
	)

	return result, nil
}

// Diagnostics runs Check and returns only the diagnostics.
//
// Description:
//
//	This is the editor-facing entry point. Errors are logged and turned
//	into an empty list so a broken checker never breaks the editor.
//
// Thread Safety: Safe for concurrent use.
func (i *Invoker) Diagnostics(ctx context.Context, lines []string) []Diagnostic {
	result, err := i.Check(ctx, lines)
	if err != nil {
		i.logger.Warn("Style check failed",
			slog.String("checker", i.command),
			slog.String("error", err.Error()),
		)
		return []Diagnostic{}
	}
	return result.Diagnostics
}

// run performs one uncached checker invocation and stores its result.
func (i *Invoker) run(ctx context.Context, text, digest string) (*Result, error) {
	path, err := i.writeTemp(text)
	if err != nil {
		return nil, err
	}
	defer i.removeTemp(path)

	runCtx := ctx
	if i.config.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, i.config.Timeout)
		defer cancel()
	}

	out, err := i.runner.Run(runCtx, i.config.argv(path))
	if err != nil {
		return nil, i.runError(ctx, runCtx, err, out)
	}

	status := statusFromExitCode(out.ExitCode)
	diags := make([]Diagnostic, 0)

	switch status {
	case StatusViolations:
		diags, err = ParseOutput(out.Stdout, i.config.StrictParse)
		if err != nil {
			return nil, NewCheckerError(i.command, "parse", err)
		}
	case StatusToolError:
		i.logger.Warn("Checker exited with unexpected code",
			slog.String("checker", i.command),
			slog.Int("exit_code", out.ExitCode),
			slog.String("stderr", truncate(string(out.Stderr), maxStderrBytes)),
		)
	}

	if status != StatusToolError || i.config.CacheToolErrors {
		if evicted, ok := i.cache.Add(digest, cachedResult{
			diagnostics: diags,
			status:      status,
			exitCode:    out.ExitCode,
		}); ok {
			i.noteEviction(ctx, evicted)
		}
	}

	return &Result{
		Diagnostics: diags,
		Status:      status,
		ExitCode:    out.ExitCode,
	}, nil
}

// joinRun registers the caller as a waiter on the run for digest,
// creating its context when no run is pending. The run context keeps the
// values of ctx but not its cancellation.
func (i *Invoker) joinRun(ctx context.Context, digest string) *sharedRun {
	i.runsMu.Lock()
	defer i.runsMu.Unlock()

	r, ok := i.runs[digest]
	if !ok {
		runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		r = &sharedRun{ctx: runCtx, cancel: cancel}
		i.runs[digest] = r
	}
	r.waiters++
	return r
}

// leaveRun removes a waiter and reports whether it was the last one. The
// last waiter releases the run context. When it abandons the run, the
// flight is forgotten so later callers start a fresh run.
func (i *Invoker) leaveRun(digest string, r *sharedRun, abandoned bool) bool {
	i.runsMu.Lock()
	defer i.runsMu.Unlock()

	r.waiters--
	if r.waiters > 0 {
		return false
	}
	if i.runs[digest] == r {
		delete(i.runs, digest)
	}
	if abandoned {
		i.flight.Forget(digest)
	}
	r.cancel()
	return true
}

func (i *Invoker) noteEviction(ctx context.Context, digest string) {
	recordEviction(ctx)
	i.logger.Debug("Evicted oldest cached result",
		slog.String("digest", digest[:12]),
	)
}

// runError classifies a runner error.
func (i *Invoker) runError(ctx, runCtx context.Context, err error, out RunOutput) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return NewCheckerError(i.command, "run", ErrCheckerTimeout).
			WithStderr(string(out.Stderr))
	}
	if !errors.Is(err, ErrCheckerFailed) && !errors.Is(err, ErrInvalidInput) {
		err = fmt.Errorf("%w: %v", ErrCheckerFailed, err)
	}
	return NewCheckerError(i.command, "run", err).WithStderr(string(out.Stderr))
}

// writeTemp writes text to a new temp file and returns its path. The file
// is closed, and removed again if writing failed.
func (i *Invoker) writeTemp(text string) (string, error) {
	f, err := os.CreateTemp(i.config.TempDir, "stylecheck-*"+i.config.TempSuffix)
	if err != nil {
		return "", NewCheckerError(i.command, "tempfile", fmt.Errorf("%w: %v", ErrTempFile, err))
	}
	path := f.Name()

	if _, err := f.WriteString(text); err != nil {
		f.Close()
		i.removeTemp(path)
		return "", NewCheckerError(i.command, "tempfile", fmt.Errorf("%w: %v", ErrTempFile, err))
	}
	if err := f.Close(); err != nil {
		i.removeTemp(path)
		return "", NewCheckerError(i.command, "tempfile", fmt.Errorf("%w: %v", ErrTempFile, err))
	}
	return path, nil
}

func (i *Invoker) removeTemp(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		i.logger.Warn("Failed to remove checker temp file",
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
	}
}

// Stats returns a snapshot of the result cache statistics.
func (i *Invoker) Stats() CacheStats {
	return i.cache.Stats()
}

// Purge drops every cached result.
func (i *Invoker) Purge() {
	i.cache.Purge()
}

// Config returns a copy of the invoker's configuration.
func (i *Invoker) Config() Config {
	return i.config.Clone()
}

// Close releases the cache. The invoker must not be used afterwards.
func (i *Invoker) Close() error {
	i.cache.Purge()
	return nil
}
