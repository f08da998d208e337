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
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Sentinel errors for checker operations.
var (
	// ErrInvalidInput indicates a nil context or unusable configuration.
	ErrInvalidInput = errors.New("invalid input")

	// ErrTempFile indicates the buffer could not be written to a temp file.
	ErrTempFile = errors.New("temp file failure")

	// ErrCheckerFailed indicates the checker process could not be started.
	ErrCheckerFailed = errors.New("checker failed to run")

	// ErrCheckerTimeout indicates the checker exceeded the configured timeout.
	ErrCheckerTimeout = errors.New("checker timed out")

	// ErrMalformedOutput indicates an output line without three colon delimiters.
	ErrMalformedOutput = errors.New("malformed checker output")
)

// CheckerError carries context about a failed checker invocation.
//
// Thread Safety: Immutable after creation.
type CheckerError struct {
	// Command is the checker executable.
	Command string

	// Op names the step that failed: "tempfile", "run", "parse".
	Op string

	// Err is the underlying error, usually one of the sentinels above.
	Err error

	// Stderr holds the checker's standard error, truncated.
	Stderr string
}

// NewCheckerError creates a CheckerError for the given command and step.
func NewCheckerError(command, op string, err error) *CheckerError {
	return &CheckerError{
		Command: command,
		Op:      op,
		Err:     err,
	}
}

// WithStderr attaches truncated checker stderr to the error.
func (e *CheckerError) WithStderr(stderr string) *CheckerError {
	e.Stderr = truncate(stderr, maxStderrBytes)
	return e
}

// Error implements the error interface.
func (e *CheckerError) Error() string {
	var b strings.Builder
	b.WriteString(e.Command)
	if e.Op != "" {
		b.WriteString(" ")
		b.WriteString(e.Op)
	}
	b.WriteString(": ")
	if e.Err != nil {
		b.WriteString(e.Err.Error())
	} else {
		b.WriteString("unknown error")
	}
	if e.Stderr != "" {
		b.WriteString(" (stderr: ")
		b.WriteString(e.Stderr)
		b.WriteString(")")
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *CheckerError) Unwrap() error {
	return e.Err
}

func errInvalid(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, msg)
}

// maxStderrBytes bounds how much checker stderr is kept for logs and errors.
const maxStderrBytes = 512

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
