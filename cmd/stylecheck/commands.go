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
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/AleutianAI/stylecheck/cmd/stylecheck/config"
	"github.com/AleutianAI/stylecheck/pkg/logging"
	"github.com/AleutianAI/stylecheck/services/telemetry"
)

// Exit codes shared by every command.
const (
	ExitClean       = 0
	ExitDiagnostics = 1
	ExitError       = 2
)

// skipConfigAnnotation marks commands that must run without a config file.
const skipConfigAnnotation = "stylecheck/skip-config"

// exitCodeError carries a non-zero exit code that is not a failure.
type exitCodeError struct {
	code int
}

func (e *exitCodeError) Error() string {
	return fmt.Sprintf("exit code %d", e.code)
}

// app holds what the commands share: streams, loaded config, and the
// resources opened for this run.
type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	configPath string
	logLevel   string
	jsonLogs   bool

	cfg       config.StylecheckConfig
	logger    *logging.Logger
	shutdowns []func(context.Context) error
}

func newApp(stdin io.Reader, stdout, stderr io.Writer) *app {
	return &app{stdin: stdin, stdout: stdout, stderr: stderr}
}

// execute runs the command line and returns the process exit code.
func execute(args []string, a *app) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer a.close()

	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetIn(a.stdin)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return ExitClean
	}

	var exitErr *exitCodeError
	if errors.As(err, &exitErr) {
		return exitErr.code
	}
	fmt.Fprintf(a.stderr, "Error: %v\n", err)
	return ExitError
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "stylecheck",
		Short: "Run a Python style checker over files and editor buffers",
		Long: `stylecheck runs pycodestyle (or any checker with the same
"path:line:column:message" output) and reports its diagnostics.

Results are cached by buffer content, so re-checking an unchanged
buffer does not run the checker again.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations[skipConfigAnnotation] == "true" {
				return nil
			}
			return a.setup()
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "",
		"Config file (default ~/.stylecheck/stylecheck.yaml)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "",
		"Override the configured log level: debug, info, warn, error")
	root.PersistentFlags().BoolVar(&a.jsonLogs, "json-logs", false,
		"Write logs to stderr as JSON")

	root.AddCommand(
		newCheckCmd(a),
		newWatchCmd(a),
		newServeCmd(a),
		newConfigCmd(a),
		newVersionCmd(a),
	)
	return root
}

// setup loads the config and installs the process logger.
func (a *app) setup() error {
	cfg, err := config.Load(a.configPath, a.stderr)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		if _, err := logging.ParseLevel(a.logLevel); err != nil {
			return err
		}
		cfg.Logging.Level = a.logLevel
	}
	if a.jsonLogs {
		cfg.Logging.JSON = true
	}
	a.cfg = cfg

	opts := cfg.LoggingOptions()
	opts.Output = a.stderr
	logger, err := logging.New(opts)
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	a.logger = logger
	logger.Install()
	return nil
}

// initTelemetry starts the configured exporters. mutate may adjust the
// config first, e.g. to force Prometheus for the server.
func (a *app) initTelemetry(ctx context.Context, mutate func(*telemetry.Config)) error {
	cfg := a.cfg.Telemetry
	cfg.ServiceVersion = version
	cfg.StdoutWriter = a.stderr
	if mutate != nil {
		mutate(&cfg)
	}

	shutdown, err := telemetry.Init(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	a.shutdowns = append(a.shutdowns, shutdown)
	return nil
}

// close flushes telemetry and closes the log file.
func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for _, shutdown := range a.shutdowns {
		if err := shutdown(ctx); err != nil {
			slog.Warn("Telemetry shutdown failed", "error", err)
		}
	}
	a.shutdowns = nil

	if a.logger != nil {
		_ = a.logger.Close()
	}
}

// stdinIsTerminal reports whether stdin is an interactive terminal.
func (a *app) stdinIsTerminal() bool {
	f, ok := a.stdin.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
