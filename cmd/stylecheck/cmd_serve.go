// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/stylecheck/services/server"
	"github.com/AleutianAI/stylecheck/services/telemetry"
)

func newServeCmd(a *app) *cobra.Command {
	var (
		flags     checkerFlags
		addr      string
		rateLimit float64
		rateBurst int
		metrics   bool
		debug     bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the check API over HTTP for editor plugins",
		Long: `Serve POST /v1/check so an editor can send its buffer on every
save and get diagnostics back. One cache is shared by all clients.

Examples:
  stylecheck serve
  stylecheck serve --addr 127.0.0.1:9000 --metrics
  curl -s localhost:8765/v1/check -d '{"lines":["import os, sys"]}'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg.Server
			if cmd.Flags().Changed("addr") {
				cfg.Addr = addr
			}
			if cmd.Flags().Changed("rate-limit") {
				cfg.RateLimit = rateLimit
			}
			if cmd.Flags().Changed("rate-burst") {
				cfg.RateBurst = rateBurst
			}
			if cmd.Flags().Changed("debug") {
				cfg.Debug = debug
			}

			err := a.initTelemetry(cmd.Context(), func(t *telemetry.Config) {
				if metrics {
					t.MetricExporter = telemetry.ExporterPrometheus
				}
			})
			if err != nil {
				return err
			}

			inv, err := a.newInvoker(cmd, &flags)
			if err != nil {
				return err
			}
			defer inv.Close()

			srv := server.New(inv, cfg,
				server.WithVersion(version),
				server.WithMetricsHandler(telemetry.MetricsHandler()))

			slog.Info("Starting check server",
				"addr", cfg.Addr,
				"command", inv.Config().Command,
				"cache_limit", inv.Config().CacheLimit)
			return srv.Run(cmd.Context())
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides server.addr)")
	cmd.Flags().Float64Var(&rateLimit, "rate-limit", 0, "Requests per second, 0 disables limiting")
	cmd.Flags().IntVar(&rateBurst, "rate-burst", 0, "Rate limiter burst size")
	cmd.Flags().BoolVar(&metrics, "metrics", false, "Expose Prometheus metrics at /metrics")
	cmd.Flags().BoolVar(&debug, "debug", false, "Enable gin debug mode and request logging")
	return cmd
}
