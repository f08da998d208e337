// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package telemetry wires OpenTelemetry for the stylecheck binaries.
//
// Packages instrument themselves with otel.Tracer and otel.Meter. This
// package only decides where that data goes:
//
//	| Signal  | Exporters                         | Default |
//	|---------|-----------------------------------|---------|
//	| traces  | otlp (gRPC), stdout, none         | none    |
//	| metrics | prometheus, stdout, none          | none    |
//
// The CLI runs one check and exits, so both default to none. The HTTP
// server turns Prometheus on and serves MetricsHandler at /metrics.
//
// # Usage
//
//	shutdown, err := telemetry.Init(ctx, cfg)
//	if err != nil {
//	    return fmt.Errorf("init telemetry: %w", err)
//	}
//	defer shutdown(context.Background())
//
// # Environment Variables
//
//   - OTEL_TRACES_EXPORTER: overrides the trace exporter default
//   - OTEL_METRICS_EXPORTER: overrides the metric exporter default
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OTLP endpoint (default: localhost:4317)
//   - STYLECHECK_ENV: deployment environment (default: development)
package telemetry
