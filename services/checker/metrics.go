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
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Package-level tracer and meter for checker operations.
var (
	tracer = otel.Tracer("stylecheck.checker")
	meter  = otel.Meter("stylecheck.checker")
)

// Metrics for checker operations.
var (
	checkLatency     metric.Float64Histogram
	checkTotal       metric.Int64Counter
	cacheHits        metric.Int64Counter
	cacheMisses      metric.Int64Counter
	cacheEvictions   metric.Int64Counter
	diagnosticsFound metric.Int64Histogram

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		checkLatency, err = meter.Float64Histogram(
			"checker_check_duration_seconds",
			metric.WithDescription("Duration of checker invocations, cache hits included"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		checkTotal, err = meter.Int64Counter(
			"checker_checks_total",
			metric.WithDescription("Total number of check calls by status"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		cacheHits, err = meter.Int64Counter(
			"checker_cache_hits_total",
			metric.WithDescription("Total number of result cache hits"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		cacheMisses, err = meter.Int64Counter(
			"checker_cache_misses_total",
			metric.WithDescription("Total number of result cache misses"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		cacheEvictions, err = meter.Int64Counter(
			"checker_cache_evictions_total",
			metric.WithDescription("Total number of FIFO evictions"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		diagnosticsFound, err = meter.Int64Histogram(
			"checker_diagnostics_found",
			metric.WithDescription("Number of diagnostics per checker run"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// startCheckSpan creates a span for a check call.
func startCheckSpan(ctx context.Context, command string, lineCount int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Invoker.Check",
		trace.WithAttributes(
			attribute.String("checker.command", command),
			attribute.Int("checker.buffer_lines", lineCount),
		),
	)
}

// setCheckSpanResult sets the result attributes on a check span.
func setCheckSpanResult(span trace.Span, result *Result) {
	span.SetAttributes(
		attribute.String("checker.status", result.Status.String()),
		attribute.Int("checker.exit_code", result.ExitCode),
		attribute.Int("checker.diagnostics", len(result.Diagnostics)),
		attribute.Bool("checker.cached", result.Cached),
	)
}

// recordCacheLookup records a hit or miss.
func recordCacheLookup(ctx context.Context, hit bool) {
	if err := initMetrics(); err != nil {
		return
	}
	if hit {
		cacheHits.Add(ctx, 1)
	} else {
		cacheMisses.Add(ctx, 1)
	}
}

// recordEviction records one FIFO eviction.
func recordEviction(ctx context.Context) {
	if err := initMetrics(); err != nil {
		return
	}
	cacheEvictions.Add(ctx, 1)
}

// recordCheckMetrics records metrics for a finished check call.
func recordCheckMetrics(ctx context.Context, command string, duration time.Duration, result *Result, success bool) {
	if err := initMetrics(); err != nil {
		return
	}

	status := "error"
	if success && result != nil {
		status = result.Status.String()
	}
	attrs := metric.WithAttributes(
		attribute.String("command", command),
		attribute.String("status", status),
	)

	checkLatency.Record(ctx, duration.Seconds(), attrs)
	checkTotal.Add(ctx, 1, attrs)

	if success && result != nil && !result.Cached {
		diagnosticsFound.Record(ctx, int64(len(result.Diagnostics)), metric.WithAttributes(
			attribute.String("command", command),
		))
	}
}
