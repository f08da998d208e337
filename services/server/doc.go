// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package server exposes a checker.Invoker over HTTP for editor plugins
// that prefer a long-running process to spawning the CLI per keystroke.
//
// # Endpoints
//
//	POST /v1/check   - check a buffer: {"lines": ["import os", ...]}
//	GET  /v1/stats   - result cache statistics
//	GET  /v1/health  - liveness
//	GET  /metrics    - Prometheus metrics (when a handler is configured)
//
// # Errors
//
// Failures are returned as ErrorResponse with a stable Code:
//
//	| Status | Code             | Cause                          |
//	|--------|------------------|--------------------------------|
//	| 400    | INVALID_REQUEST  | body is not a CheckRequest     |
//	| 413    | TOO_MANY_LINES   | buffer exceeds Config.MaxLines |
//	| 429    | RATE_LIMITED     | rate limiter rejected request  |
//	| 500    | CHECK_FAILED     | checker could not be run       |
//	| 502    | MALFORMED_OUTPUT | strict parse failure           |
//	| 504    | CHECK_TIMEOUT    | checker timeout elapsed        |
//
// A checker that exits with a code above 1 is not an HTTP error: the
// response is 200 with status "tool_error" and no diagnostics.
//
// Every response carries X-Request-ID, echoed from the request or
// generated.
package server
