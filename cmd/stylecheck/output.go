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
	"encoding/json"
	"io"

	"github.com/AleutianAI/stylecheck/pkg/ux"
	"github.com/AleutianAI/stylecheck/services/checker"
)

// checkOutput is the JSON shape printed by "check --json" and, one object
// per line, by "watch --json".
type checkOutput struct {
	Path        string               `json:"path"`
	Status      string               `json:"status"`
	ExitCode    int                  `json:"exit_code"`
	Cached      bool                 `json:"cached"`
	Diagnostics []checker.Diagnostic `json:"diagnostics"`
	Error       string               `json:"error,omitempty"`
}

func newCheckOutput(path string, result *checker.Result, err error) checkOutput {
	out := checkOutput{Path: path, Diagnostics: []checker.Diagnostic{}}
	if err != nil {
		out.Status = "error"
		out.Error = err.Error()
		return out
	}
	out.Status = result.Status.String()
	out.ExitCode = result.ExitCode
	out.Cached = result.Cached
	if result.Diagnostics != nil {
		out.Diagnostics = result.Diagnostics
	}
	return out
}

// writeJSON prints one compact JSON object followed by a newline.
func writeJSON(w io.Writer, out checkOutput) error {
	return json.NewEncoder(w).Encode(out)
}

// writeText prints diagnostics as "path:line: message", the format most
// editors and CI log scrapers already understand.
func writeText(w io.Writer, path string, result *checker.Result) error {
	p := ux.NewPrinter(w)
	for _, d := range result.Diagnostics {
		if err := p.Diagnostic(path, d.Line, d.Message); err != nil {
			return err
		}
	}
	return nil
}

// exitCodeFor maps a check result onto the process exit code.
func exitCodeFor(result *checker.Result) int {
	switch {
	case result.Status == checker.StatusToolError:
		return ExitError
	case result.HasDiagnostics():
		return ExitDiagnostics
	default:
		return ExitClean
	}
}
