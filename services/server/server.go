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
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"golang.org/x/time/rate"
)

// Config configures the HTTP server.
type Config struct {
	// Addr is the listen address. Default: "127.0.0.1:8765".
	Addr string `yaml:"addr" json:"addr"`

	// RateLimit is the sustained requests per second across all clients.
	// Zero or negative disables rate limiting.
	RateLimit float64 `yaml:"rate_limit" json:"rate_limit"`

	// RateBurst is the limiter bucket size. Default: 20.
	RateBurst int `yaml:"rate_burst" json:"rate_burst"`

	// MaxLines rejects larger buffers with 413. Zero means no limit.
	MaxLines int `yaml:"max_lines" json:"max_lines"`

	// ShutdownTimeout bounds graceful shutdown. Default: 5s.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" json:"shutdown_timeout"`

	// Debug enables gin debug mode and request logging.
	Debug bool `yaml:"debug" json:"debug"`
}

// DefaultConfig returns the server defaults.
func DefaultConfig() Config {
	return Config{
		Addr:            "127.0.0.1:8765",
		RateLimit:       50,
		RateBurst:       20,
		MaxLines:        100000,
		ShutdownTimeout: 5 * time.Second,
	}
}

// Server serves the check API.
type Server struct {
	config  Config
	router  *gin.Engine
	handler *Handlers
}

// Option configures the Server.
type Option func(*serverOptions)

type serverOptions struct {
	version        string
	metricsHandler http.Handler
}

// WithVersion sets the version reported by /v1/health.
func WithVersion(version string) Option {
	return func(o *serverOptions) {
		o.version = version
	}
}

// WithMetricsHandler mounts h at GET /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(o *serverOptions) {
		o.metricsHandler = h
	}
}

// New builds the router for c.
//
// Description:
//
//	Installs recovery, OpenTelemetry tracing, request IDs and, when
//	enabled, rate limiting, then registers the /v1 routes. /metrics sits
//	outside the rate limiter so scrapes are never rejected.
func New(c Checker, cfg Config, opts ...Option) *Server {
	options := serverOptions{version: "dev"}
	for _, opt := range opts {
		opt(&options)
	}
	if cfg.RateBurst <= 0 {
		cfg.RateBurst = DefaultConfig().RateBurst
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = DefaultConfig().ShutdownTimeout
	}

	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.Debug {
		router.Use(gin.Logger())
	}
	router.Use(otelgin.Middleware("stylecheck-server"))
	router.Use(requestIDMiddleware())

	if options.metricsHandler != nil {
		router.GET("/metrics", gin.WrapH(options.metricsHandler))
	}

	handlers := NewHandlers(c, options.version, cfg.MaxLines)
	v1 := router.Group("/v1")
	if cfg.RateLimit > 0 {
		v1.Use(rateLimitMiddleware(rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst)))
	}
	RegisterRoutes(v1, handlers)

	return &Server{
		config:  cfg,
		router:  router,
		handler: handlers,
	}
}

// Handler returns the server's http.Handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run listens on Config.Addr and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.config.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled, then shuts down gracefully.
//
// Outputs:
//
//	error - nil after a clean shutdown, otherwise the serve or shutdown error.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting stylecheck server", slog.String("address", ln.Addr().String()))
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down stylecheck server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
