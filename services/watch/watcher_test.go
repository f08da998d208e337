// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/stylecheck/services/checker"
)

// recordingChecker reports the buffer's first line as its only diagnostic.
type recordingChecker struct {
	mu   sync.Mutex
	seen [][]string
	err  error
}

func (r *recordingChecker) Check(_ context.Context, lines []string) (*checker.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, lines)
	if r.err != nil {
		return nil, r.err
	}
	first := ""
	if len(lines) > 0 {
		first = lines[0]
	}
	return &checker.Result{
		Diagnostics: []checker.Diagnostic{{Line: "1", Message: first}},
		Status:      checker.StatusViolations,
		ExitCode:    1,
	}, nil
}

func startWatcher(t *testing.T, c Checker, paths []string) <-chan Report {
	t.Helper()
	reports := make(chan Report, 16)

	w, err := New(c, paths, func(r Report) { reports <- r }, WithDebounce(20*time.Millisecond))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		assert.NoError(t, w.Run(ctx))
	}()
	t.Cleanup(func() {
		cancel()
		<-done
		w.Close()
	})
	return reports
}

func nextReport(t *testing.T, reports <-chan Report) Report {
	t.Helper()
	select {
	case r := <-reports:
		return r
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for report")
		return Report{}
	}
}

// waitForMessage drains reports until one carries want. A truncate
// followed by a write may surface as an intermediate empty-buffer report.
func waitForMessage(t *testing.T, reports <-chan Report, want string) Report {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case r := <-reports:
			if r.Err == nil && r.Result.Diagnostics[0].Message == want {
				return r
			}
		case <-deadline:
			t.Fatalf("timed out waiting for report with message %q", want)
			return Report{}
		}
	}
}

func TestWatcher_InitialCheckAndRecheck(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mod.py")
	require.NoError(t, os.WriteFile(path, []byte("import os\n"), 0o644))

	rc := &recordingChecker{}
	reports := startWatcher(t, rc, []string{path})

	first := nextReport(t, reports)
	require.NoError(t, first.Err)
	assert.Equal(t, path, first.Path)
	assert.Equal(t, "import os", first.Result.Diagnostics[0].Message)

	require.NoError(t, os.WriteFile(path, []byte("import sys\nx = 1\n"), 0o644))

	second := waitForMessage(t, reports, "import sys")
	assert.Equal(t, path, second.Path)

	rc.mu.Lock()
	defer rc.mu.Unlock()
	assert.Equal(t, []string{"import sys", "x = 1"}, rc.seen[len(rc.seen)-1])
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "watched.py")
	require.NoError(t, os.WriteFile(path, []byte("a = 1\n"), 0o644))

	reports := startWatcher(t, &recordingChecker{}, []string{path})
	nextReport(t, reports)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.py"), []byte("b = 2\n"), 0o644))

	select {
	case r := <-reports:
		t.Fatalf("unexpected report for %s", r.Path)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcher_DebouncesBursts(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "burst.py")
	require.NoError(t, os.WriteFile(path, []byte("v0\n"), 0o644))

	reports := startWatcher(t, &recordingChecker{}, []string{path})
	nextReport(t, reports)

	for _, content := range []string{"v1\n", "v2\n", "v3\n"} {
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}

	waitForMessage(t, reports, "v3")

	// Nothing further once the final content has been checked.
	select {
	case r := <-reports:
		t.Fatalf("unexpected extra report: %+v", r)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcher_ReportsCheckerError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.py")
	require.NoError(t, os.WriteFile(path, []byte("x\n"), 0o644))

	reports := startWatcher(t, &recordingChecker{err: checker.ErrCheckerFailed}, []string{path})

	r := nextReport(t, reports)
	assert.True(t, errors.Is(r.Err, checker.ErrCheckerFailed))
	assert.Nil(t, r.Result)
}

func TestNew_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := New(&recordingChecker{}, nil, nil)
	assert.True(t, errors.Is(err, ErrNoFiles))

	_, err = New(&recordingChecker{}, []string{filepath.Join(dir, "missing.py")}, nil)
	assert.Error(t, err)

	_, err = New(&recordingChecker{}, []string{dir}, nil)
	assert.Error(t, err, "directories are rejected")
}
