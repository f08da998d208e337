// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package server

import (
	"context"

	"github.com/AleutianAI/stylecheck/services/checker"
)

// Checker is the part of checker.Invoker the server needs.
type Checker interface {
	Check(ctx context.Context, lines []string) (*checker.Result, error)
	Stats() checker.CacheStats
}

// CheckRequest is the body of POST /v1/check.
type CheckRequest struct {
	// Lines are the buffer lines without trailing newlines. An empty
	// array is a valid (empty) buffer; a missing field is not.
	Lines []string `json:"lines" binding:"required"`
}

// CheckResponse is the response for POST /v1/check.
type CheckResponse struct {
	Diagnostics []checker.Diagnostic `json:"diagnostics"`
	Status      string               `json:"status"`
	ExitCode    int                  `json:"exit_code"`
	Cached      bool                 `json:"cached"`
	Digest      string               `json:"digest"`
	DurationMs  int64                `json:"duration_ms"`
}

// HealthResponse is the response for GET /v1/health.
type HealthResponse struct {
	// Status is always "healthy"; the process answering is the check.
	Status string `json:"status"`

	// Version is the server version.
	Version string `json:"version"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	// Error is the error message.
	Error string `json:"error"`

	// Code is a stable machine-readable error code.
	Code string `json:"code,omitempty"`
}
