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
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/stylecheck/services/checker"
	"github.com/AleutianAI/stylecheck/services/telemetry"
)

// Handlers holds the HTTP handlers for the check API.
type Handlers struct {
	checker  Checker
	version  string
	maxLines int
}

// NewHandlers creates handlers backed by c. maxLines <= 0 means no limit.
func NewHandlers(c Checker, version string, maxLines int) *Handlers {
	return &Handlers{
		checker:  c,
		version:  version,
		maxLines: maxLines,
	}
}

// HandleCheck handles POST /v1/check.
//
// Description:
//
//	Runs the checker over the posted buffer. A cached result is returned
//	without running the checker again.
//
// Request Body:
//
//	CheckRequest
//
// Response:
//
//	200 OK: CheckResponse
//	400 Bad Request: body missing or malformed
//	413 Request Entity Too Large: too many lines
//	500/502/504: see package documentation
func (h *Handlers) HandleCheck(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	ctx := c.Request.Context()
	logger := telemetry.LoggerWithRequest(ctx, nil, requestID).With("handler", "HandleCheck")

	var req CheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Invalid request body",
			Code:  "INVALID_REQUEST",
		})
		return
	}

	if h.maxLines > 0 && len(req.Lines) > h.maxLines {
		c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{
			Error: fmt.Sprintf("buffer has %d lines, limit is %d", len(req.Lines), h.maxLines),
			Code:  "TOO_MANY_LINES",
		})
		return
	}

	result, err := h.checker.Check(ctx, req.Lines)
	if err != nil {
		statusCode, errCode := classifyError(err)
		logger.Error("Check failed", "error", err, "code", errCode)
		c.JSON(statusCode, ErrorResponse{
			Error: err.Error(),
			Code:  errCode,
		})
		return
	}

	logger.Debug("Check completed",
		slog.String("status", result.Status.String()),
		slog.Int("diagnostics", len(result.Diagnostics)),
		slog.Bool("cached", result.Cached),
	)

	c.JSON(http.StatusOK, CheckResponse{
		Diagnostics: result.Diagnostics,
		Status:      result.Status.String(),
		ExitCode:    result.ExitCode,
		Cached:      result.Cached,
		Digest:      result.Digest,
		DurationMs:  result.Duration.Milliseconds(),
	})
}

// classifyError maps checker errors to an HTTP status and error code.
func classifyError(err error) (int, string) {
	switch {
	case errors.Is(err, checker.ErrCheckerTimeout):
		return http.StatusGatewayTimeout, "CHECK_TIMEOUT"
	case errors.Is(err, checker.ErrMalformedOutput):
		return http.StatusBadGateway, "MALFORMED_OUTPUT"
	case errors.Is(err, checker.ErrInvalidInput):
		return http.StatusBadRequest, "INVALID_REQUEST"
	default:
		return http.StatusInternalServerError, "CHECK_FAILED"
	}
}

// HandleStats handles GET /v1/stats.
//
// Response:
//
//	200 OK: checker.CacheStats
func (h *Handlers) HandleStats(c *gin.Context) {
	getOrCreateRequestID(c)
	c.JSON(http.StatusOK, h.checker.Stats())
}

// HandleHealth handles GET /v1/health.
func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:  "healthy",
		Version: h.version,
	})
}
