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
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"time"
)

// =============================================================================
// RUNNER
// =============================================================================

// RunOutput is what a finished checker process produced.
type RunOutput struct {
	// Stdout is the checker's standard output.
	Stdout []byte

	// Stderr is the checker's standard error. Only used for logging.
	Stderr []byte

	// ExitCode is the process exit code.
	ExitCode int
}

// Runner is the boundary between the invoker and the checker process.
//
// A non-zero exit code is not an error. Run returns an error only when the
// process could not be started or the context ended before it finished.
type Runner interface {
	Run(ctx context.Context, argv []string) (RunOutput, error)
}

// RunnerFunc adapts a function to the Runner interface.
type RunnerFunc func(ctx context.Context, argv []string) (RunOutput, error)

// Run calls f(ctx, argv).
func (f RunnerFunc) Run(ctx context.Context, argv []string) (RunOutput, error) {
	return f(ctx, argv)
}

// =============================================================================
// EXEC RUNNER
// =============================================================================

// ExecRunner runs the checker with os/exec, passing argv directly.
//
// Thread Safety: Safe for concurrent use.
type ExecRunner struct {
	// Dir is the working directory for the process. Empty means the
	// current directory.
	Dir string

	// WaitDelay bounds how long Run waits for output pipes to close after
	// the process is killed. Zero uses one second.
	WaitDelay time.Duration
}

// Run starts argv[0] with the remaining arguments and waits for it.
func (r *ExecRunner) Run(ctx context.Context, argv []string) (RunOutput, error) {
	if len(argv) == 0 {
		return RunOutput{}, errInvalid("empty argv")
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = r.Dir
	cmd.WaitDelay = r.WaitDelay
	if cmd.WaitDelay == 0 {
		cmd.WaitDelay = time.Second
	}

	var stdout bytes.Buffer
	stderr := &cappedBuffer{limit: stderrCaptureLimit}
	cmd.Stdout = &stdout
	cmd.Stderr = stderr

	err := cmd.Run()
	out := RunOutput{
		Stdout: stdout.Bytes(),
		Stderr: stderr.Bytes(),
	}

	if ctx.Err() != nil {
		return out, ctx.Err()
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			out.ExitCode = exitErr.ExitCode()
			return out, nil
		}
		return out, fmt.Errorf("%w: %v", ErrCheckerFailed, err)
	}

	return out, nil
}

// stderrCaptureLimit bounds how much checker stderr ExecRunner keeps.
const stderrCaptureLimit = 4 * maxStderrBytes

// cappedBuffer keeps the first limit bytes written to it and drops the
// rest. Writes never fail, so the child process is not blocked or killed
// by a full stderr.
type cappedBuffer struct {
	buf   bytes.Buffer
	limit int
}

func (c *cappedBuffer) Write(p []byte) (int, error) {
	if room := c.limit - c.buf.Len(); room > 0 {
		if len(p) > room {
			c.buf.Write(p[:room])
		} else {
			c.buf.Write(p)
		}
	}
	return len(p), nil
}

func (c *cappedBuffer) Bytes() []byte {
	return c.buf.Bytes()
}

// =============================================================================
// SHELL RUNNER
// =============================================================================

// ShellRunner joins argv with spaces and runs it through the platform shell.
//
// Description:
//
//	Reproduces the "<cmd> <args> <path>" command line of older editor
//	plugins for configured commands that rely on shell syntax (pipes,
//	environment expansion). Nothing is quoted, so any argument containing
//	spaces or shell metacharacters is split or interpreted by the shell.
//
// Thread Safety: Safe for concurrent use if Next is.
type ShellRunner struct {
	// Next runs the shell itself. Nil uses an ExecRunner.
	Next Runner
}

// Run executes argv as a single shell command line.
func (r *ShellRunner) Run(ctx context.Context, argv []string) (RunOutput, error) {
	if len(argv) == 0 {
		return RunOutput{}, errInvalid("empty argv")
	}
	next := r.Next
	if next == nil {
		next = &ExecRunner{}
	}
	return next.Run(ctx, shellArgv(strings.Join(argv, " ")))
}

func shellArgv(commandLine string) []string {
	if runtime.GOOS == "windows" {
		return []string{"cmd", "/C", commandLine}
	}
	return []string{"/bin/sh", "-c", commandLine}
}
