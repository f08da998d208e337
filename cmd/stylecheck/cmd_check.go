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
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/stylecheck/services/checker"
)

// errNoInput is returned when check has neither a file nor piped stdin.
var errNoInput = errors.New("no input: pass a file or pipe a buffer on stdin")

// checkerFlags are the checker overrides shared by check, watch, and serve.
type checkerFlags struct {
	command string
	args    []string
	strict  bool
	shell   bool
	timeout time.Duration
	tempDir string
}

func (f *checkerFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.command, "cmd", "",
		`Checker command line, e.g. "python3 -m pycodestyle"`)
	cmd.Flags().StringArrayVar(&f.args, "arg", nil,
		"Extra checker argument (repeatable)")
	cmd.Flags().BoolVar(&f.strict, "strict", false,
		"Fail on checker output lines that cannot be parsed")
	cmd.Flags().BoolVar(&f.shell, "shell", false,
		"Run the checker through sh -c")
	cmd.Flags().DurationVar(&f.timeout, "timeout", 0,
		"Kill the checker after this long (0 = no limit)")
	cmd.Flags().StringVar(&f.tempDir, "temp-dir", "",
		"Directory for buffer temp files")
}

// apply overlays flags the user actually set onto the configured checker.
func (f *checkerFlags) apply(cmd *cobra.Command, cfg checker.Config) checker.Config {
	cfg = cfg.Clone()
	flags := cmd.Flags()
	if flags.Changed("cmd") {
		cfg.Command = strings.Fields(f.command)
	}
	if flags.Changed("arg") {
		cfg.Args = append(cfg.Args, f.args...)
	}
	if flags.Changed("strict") {
		cfg.StrictParse = f.strict
	}
	if flags.Changed("shell") {
		cfg.Shell = f.shell
	}
	if flags.Changed("timeout") {
		cfg.Timeout = f.timeout
	}
	if flags.Changed("temp-dir") {
		cfg.TempDir = f.tempDir
	}
	return cfg
}

// newInvoker builds an invoker from config plus flag overrides.
func (a *app) newInvoker(cmd *cobra.Command, flags *checkerFlags) (*checker.Invoker, error) {
	cfg := flags.apply(cmd, a.cfg.Checker)
	return checker.NewInvoker(cfg, checker.WithLogger(slog.Default()))
}

func newCheckCmd(a *app) *cobra.Command {
	var (
		flags     checkerFlags
		jsonOut   bool
		stdinName string
	)

	cmd := &cobra.Command{
		Use:   "check [file]",
		Short: "Check one file or a buffer piped on stdin",
		Long: `Run the style checker over a file, or over a buffer piped on stdin
when no file (or "-") is given.

Examples:
  stylecheck check app.py
  cat app.py | stylecheck check --stdin-filename app.py
  stylecheck check --json --cmd "python3 -m pycodestyle" app.py
  stylecheck check --arg=--max-line-length=100 app.py

Exit Codes:
  0 - No diagnostics
  1 - Diagnostics found
  2 - Error (bad input, checker could not run, checker failed)`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}

			name, text, err := a.readInput(path, stdinName)
			if err != nil {
				return err
			}

			if err := a.initTelemetry(cmd.Context(), nil); err != nil {
				return err
			}
			inv, err := a.newInvoker(cmd, &flags)
			if err != nil {
				return err
			}
			defer inv.Close()

			result, err := inv.Check(cmd.Context(), checker.SplitLines(text))
			if err != nil {
				if jsonOut {
					_ = writeJSON(a.stdout, newCheckOutput(name, nil, err))
					return &exitCodeError{code: ExitError}
				}
				return err
			}
			return a.printCheckResult(name, result, jsonOut)
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the result as JSON")
	cmd.Flags().StringVar(&stdinName, "stdin-filename", "<stdin>",
		"Name to report for a buffer read from stdin")
	return cmd
}

// readInput returns the display name and text of the buffer to check.
func (a *app) readInput(path, stdinName string) (string, string, error) {
	if path != "" && path != "-" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", "", err
		}
		return path, string(data), nil
	}

	if a.stdinIsTerminal() {
		return "", "", errNoInput
	}
	data, err := io.ReadAll(a.stdin)
	if err != nil {
		return "", "", fmt.Errorf("read stdin: %w", err)
	}
	return stdinName, string(data), nil
}

func (a *app) printCheckResult(name string, result *checker.Result, jsonOut bool) error {
	code := exitCodeFor(result)

	if jsonOut {
		if err := writeJSON(a.stdout, newCheckOutput(name, result, nil)); err != nil {
			return err
		}
	} else {
		if err := writeText(a.stdout, name, result); err != nil {
			return err
		}
		if result.Status == checker.StatusToolError {
			fmt.Fprintf(a.stderr, "Error: checker exited with code %d\n", result.ExitCode)
		}
	}

	if code == ExitClean {
		return nil
	}
	return &exitCodeError{code: code}
}
