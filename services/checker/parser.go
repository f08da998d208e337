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
	"fmt"
	"log/slog"
	"strings"
)

// ParseLine parses one "<path>:<line>:<column>:<message>" line.
//
// Description:
//
//	Splits on the first three colons. The path and column are dropped; the
//	message is everything after the third colon, verbatim.
//
// Inputs:
//
//	line - A single line of checker output, without the newline.
//
// Outputs:
//
//	Diagnostic - The parsed diagnostic.
//	error - ErrMalformedOutput if the line has fewer than three colons.
func ParseLine(line string) (Diagnostic, error) {
	parts := strings.SplitN(line, ":", 4)
	if len(parts) < 4 {
		return Diagnostic{}, fmt.Errorf("%w: %q", ErrMalformedOutput, line)
	}
	return Diagnostic{
		Line:    parts[1],
		Message: parts[3],
	}, nil
}

// ParseOutput parses checker stdout into diagnostics.
//
// Description:
//
//	Blank lines are ignored and a trailing "\r" is stripped from each line.
//	In strict mode the first malformed line aborts parsing. Otherwise
//	malformed lines are logged and skipped.
//
// Inputs:
//
//	output - Raw checker stdout.
//	strict - Whether malformed lines are fatal.
//
// Outputs:
//
//	[]Diagnostic - Diagnostics in output order. Never nil.
//	error - Non-nil only in strict mode.
func ParseOutput(output []byte, strict bool) ([]Diagnostic, error) {
	diags := make([]Diagnostic, 0)
	for _, raw := range strings.Split(string(output), "\n") {
		line := strings.TrimSuffix(raw, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		diag, err := ParseLine(line)
		if err != nil {
			if strict {
				return nil, err
			}
			slog.Warn("Skipping malformed checker output line",
				slog.String("line", truncate(line, 200)),
			)
			continue
		}
		diags = append(diags, diag)
	}
	return diags, nil
}
