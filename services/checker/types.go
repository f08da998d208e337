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
	"strconv"
	"time"
)

// =============================================================================
// DIAGNOSTIC
// =============================================================================

// Diagnostic is one style violation reported by the checker.
//
// Thread Safety: Immutable after creation.
type Diagnostic struct {
	// Line is the line number exactly as the checker printed it.
	Line string `json:"line"`

	// Message is everything after the third colon of the output line,
	// kept verbatim.
	Message string `json:"message"`
}

// LineNumber returns Line as an int, or 0 when it is not numeric.
func (d Diagnostic) LineNumber() int {
	n, err := strconv.Atoi(d.Line)
	if err != nil {
		return 0
	}
	return n
}

// =============================================================================
// STATUS
// =============================================================================

// Status classifies the outcome of a checker run.
type Status int

const (
	// StatusClean means the checker exited 0.
	StatusClean Status = iota

	// StatusViolations means the checker exited 1 and reported violations.
	StatusViolations

	// StatusToolError means the checker exited with any other code.
	StatusToolError
)

// String returns the string representation of the status.
func (s Status) String() string {
	switch s {
	case StatusClean:
		return "clean"
	case StatusViolations:
		return "violations"
	case StatusToolError:
		return "tool_error"
	default:
		return "unknown"
	}
}

// MarshalText encodes the status by name so it reads well in JSON.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// statusFromExitCode maps the checker exit code onto a Status.
func statusFromExitCode(code int) Status {
	switch code {
	case 0:
		return StatusClean
	case 1:
		return StatusViolations
	default:
		return StatusToolError
	}
}

// =============================================================================
// RESULT
// =============================================================================

// Result is the outcome of a single Check call.
//
// Thread Safety: Immutable after creation by the invoker. Diagnostics may be
// shared with the cache and must not be modified by callers.
type Result struct {
	// Diagnostics are the violations in checker output order.
	Diagnostics []Diagnostic `json:"diagnostics"`

	// Status classifies the checker exit code.
	Status Status `json:"status"`

	// ExitCode is the checker's exit code. Cache hits report the exit
	// code of the run that populated the entry.
	ExitCode int `json:"exit_code"`

	// Cached is true when the result came from the cache.
	Cached bool `json:"cached"`

	// Digest is the hex content digest used as cache key.
	Digest string `json:"digest"`

	// Duration is how long the call took.
	Duration time.Duration `json:"duration"`
}

// HasDiagnostics returns true if any violations were reported.
func (r *Result) HasDiagnostics() bool {
	return len(r.Diagnostics) > 0
}

// =============================================================================
// CONFIG
// =============================================================================

// Default configuration values.
const (
	// DefaultCacheLimit matches the editor plugin this tool replaces.
	DefaultCacheLimit = 10

	// DefaultTempSuffix makes checkers that sniff file extensions treat the
	// buffer as Python.
	DefaultTempSuffix = ".py"
)

// DefaultCommand is the checker used when none is configured.
var DefaultCommand = []string{"pycodestyle"}

// Config configures an Invoker.
//
// Thread Safety: Treat as immutable after passing to NewInvoker.
type Config struct {
	// Command is the checker executable followed by any fixed arguments,
	// e.g. []string{"python3", "-m", "pycodestyle"}.
	Command []string `yaml:"command" json:"command"`

	// Args are extra arguments placed between Command and the temp file.
	Args []string `yaml:"args,omitempty" json:"args,omitempty"`

	// CacheLimit bounds the FIFO cache. The cache evicts only after it
	// holds more than CacheLimit entries.
	CacheLimit int `yaml:"cache_limit" json:"cache_limit"`

	// Timeout bounds one checker run. Zero means no timeout.
	Timeout time.Duration `yaml:"timeout,omitempty" json:"timeout,omitempty"`

	// TempDir is where buffer temp files are created. Empty means os.TempDir.
	TempDir string `yaml:"temp_dir,omitempty" json:"temp_dir,omitempty"`

	// TempSuffix is appended to temp file names.
	TempSuffix string `yaml:"temp_suffix,omitempty" json:"temp_suffix,omitempty"`

	// StrictParse turns malformed output lines into errors instead of
	// skipping them.
	StrictParse bool `yaml:"strict_parse,omitempty" json:"strict_parse,omitempty"`

	// CacheToolErrors caches the empty result of a failed checker run so
	// identical content does not re-run the checker.
	CacheToolErrors bool `yaml:"cache_tool_errors,omitempty" json:"cache_tool_errors,omitempty"`

	// Shell runs the command line through "sh -c" by joining argv with
	// spaces, without quoting. Paths containing spaces break in this mode.
	Shell bool `yaml:"shell,omitempty" json:"shell,omitempty"`
}

// DefaultConfig returns a Config that runs pycodestyle with a cache of 10.
func DefaultConfig() Config {
	cmd := make([]string, len(DefaultCommand))
	copy(cmd, DefaultCommand)
	return Config{
		Command:    cmd,
		CacheLimit: DefaultCacheLimit,
		TempSuffix: DefaultTempSuffix,
	}
}

// Validate checks that the configuration can run a checker.
func (c *Config) Validate() error {
	if len(c.Command) == 0 || c.Command[0] == "" {
		return errInvalid("command must not be empty")
	}
	if c.CacheLimit < 0 {
		return errInvalid("cache_limit must not be negative")
	}
	if c.Timeout < 0 {
		return errInvalid("timeout must not be negative")
	}
	return nil
}

// Clone returns a deep copy of the config.
func (c *Config) Clone() Config {
	clone := *c
	clone.Command = append([]string(nil), c.Command...)
	clone.Args = append([]string(nil), c.Args...)
	return clone
}

// argv builds the checker argument vector for the given input file.
func (c *Config) argv(path string) []string {
	argv := make([]string, 0, len(c.Command)+len(c.Args)+1)
	argv = append(argv, c.Command...)
	argv = append(argv, c.Args...)
	argv = append(argv, path)
	return argv
}
