// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package checker runs an external style checker over editor buffers.
//
// The checker (pycodestyle, pep8, flake8 or anything that speaks the same
// output format) is treated as an opaque executable. For each buffer the
// Invoker:
//
//	lines → canonical text → digest → FIFO cache ─hit──────────────→ result
//	                                       │
//	                                      miss
//	                                       ↓
//	            temp file → checker process → exit code → parse → cache
//
// # Exit Code Contract
//
//	| Exit | Meaning                  | Result                      |
//	|------|--------------------------|-----------------------------|
//	| 0    | no violations            | StatusClean, empty          |
//	| 1    | violations on stdout     | StatusViolations, parsed    |
//	| >1   | checker failed           | StatusToolError, empty      |
//
// A tool failure is logged and reported through Result.Status; it is not
// returned as an error, so callers that only look at diagnostics cannot
// tell a crashed checker from a clean buffer.
//
// # Output Format
//
// Each non-blank stdout line is read as
//
//	<path>:<line>:<column>:<message>
//
// The first three colons are delimiters. Everything after the third colon
// is the message and may itself contain colons.
//
// # Cache
//
// Results are cached by the SHA-256 of the canonical buffer text. Eviction
// is strict FIFO and happens only once the cache holds more than the
// configured limit, so up to limit+1 entries may be resident.
//
// # Usage
//
//	inv, err := checker.NewInvoker(checker.Config{
//	    Command:    []string{"pycodestyle"},
//	    Args:       []string{"--max-line-length=100"},
//	    CacheLimit: 10,
//	})
//	if err != nil {
//	    return err
//	}
//
//	// Editor-facing: never fails, errors are logged.
//	diags := inv.Diagnostics(ctx, bufferLines)
//
//	// Full detail.
//	result, err := inv.Check(ctx, bufferLines)
//
// # Thread Safety
//
// Invoker and FIFOCache are safe for concurrent use. Concurrent checks of
// identical content share a single checker process.
package checker
