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
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/stylecheck/pkg/ux"
	"github.com/AleutianAI/stylecheck/services/checker"
	"github.com/AleutianAI/stylecheck/services/watch"
)

func newWatchCmd(a *app) *cobra.Command {
	var (
		flags    checkerFlags
		jsonOut  bool
		debounce time.Duration
	)

	cmd := &cobra.Command{
		Use:   "watch <file>...",
		Short: "Re-check files every time they are saved",
		Long: `Check each file once, then again whenever it changes on disk,
until interrupted.

Examples:
  stylecheck watch app.py models.py
  stylecheck watch --json --debounce 500ms src/*.py`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.initTelemetry(cmd.Context(), nil); err != nil {
				return err
			}
			inv, err := a.newInvoker(cmd, &flags)
			if err != nil {
				return err
			}
			defer inv.Close()

			w, err := watch.New(inv, args, func(r watch.Report) {
				a.printReport(r, jsonOut)
			}, watch.WithDebounce(debounce))
			if err != nil {
				return err
			}
			defer w.Close()

			return w.Run(cmd.Context())
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print one JSON object per check")
	cmd.Flags().DurationVar(&debounce, "debounce", watch.DefaultDebounce,
		"Quiet period after a change before re-checking")
	return cmd
}

func (a *app) printReport(r watch.Report, jsonOut bool) {
	if jsonOut {
		_ = writeJSON(a.stdout, newCheckOutput(r.Path, r.Result, r.Err))
		return
	}

	p := ux.NewPrinter(a.stdout)
	switch {
	case r.Err != nil:
		_ = p.Summary(r.Path, 0, true, r.Err.Error())
	case r.Result.Status == checker.StatusToolError:
		_ = p.Summary(r.Path, 0, true, fmt.Sprintf("checker exited with code %d", r.Result.ExitCode))
	default:
		_ = p.Summary(r.Path, len(r.Result.Diagnostics), false, "")
		_ = writeText(a.stdout, r.Path, r.Result)
	}
}
