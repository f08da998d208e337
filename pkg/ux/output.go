// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package ux provides terminal output styling for the stylecheck CLI.
package ux

import (
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/charmbracelet/lipgloss"
)

// Color palette.
var (
	ColorTealBright = lipgloss.Color("#2CD7C7") // Highlights, success
	ColorSlate      = lipgloss.Color("#2C4A54") // Muted text
	ColorWarning    = lipgloss.Color("#F4D03F")
	ColorError      = lipgloss.Color("#E74C3C")
)

// Icon is a status marker printed in front of summary lines.
type Icon string

const (
	IconSuccess Icon = "✓"
	IconWarning Icon = "⚠"
	IconError   Icon = "✗"
)

// Printer writes diagnostics in "path:line: message" form.
//
// Colors are only emitted when the writer is a terminal that supports
// them; output to pipes and files is plain text.
type Printer struct {
	w io.Writer

	location lipgloss.Style
	errCode  lipgloss.Style
	warnCode lipgloss.Style
	code     lipgloss.Style
	success  lipgloss.Style
	warning  lipgloss.Style
	failure  lipgloss.Style
}

// NewPrinter returns a Printer writing to w.
func NewPrinter(w io.Writer) *Printer {
	r := lipgloss.NewRenderer(w)
	return &Printer{
		w:        w,
		location: r.NewStyle().Foreground(ColorSlate),
		errCode:  r.NewStyle().Foreground(ColorError).Bold(true),
		warnCode: r.NewStyle().Foreground(ColorWarning),
		code:     r.NewStyle().Foreground(ColorTealBright),
		success:  r.NewStyle().Foreground(ColorTealBright),
		warning:  r.NewStyle().Foreground(ColorWarning),
		failure:  r.NewStyle().Foreground(ColorError),
	}
}

// Diagnostic writes one diagnostic line. message is printed verbatim
// except that its leading error code (E501, W291, ...) is colored.
func (p *Printer) Diagnostic(path, line, message string) error {
	_, err := fmt.Fprintf(p.w, "%s%s\n",
		p.location.Render(path+":"+line+":"),
		p.highlightCode(message))
	return err
}

// highlightCode styles the first word of message by its severity letter.
func (p *Printer) highlightCode(message string) string {
	trimmed := strings.TrimLeftFunc(message, unicode.IsSpace)
	lead := message[:len(message)-len(trimmed)]

	end := strings.IndexFunc(trimmed, unicode.IsSpace)
	if end <= 0 {
		return message
	}
	word, rest := trimmed[:end], trimmed[end:]

	style := p.code
	switch word[0] {
	case 'E', 'F':
		style = p.errCode
	case 'W':
		style = p.warnCode
	}
	return lead + style.Render(word) + rest
}

// Summary writes a one-line outcome for path. failed marks a checker
// that could not produce a verdict.
func (p *Printer) Summary(path string, count int, failed bool, detail string) error {
	var line string
	switch {
	case failed:
		line = fmt.Sprintf("%s %s: %s", p.failure.Render(string(IconError)), path, detail)
	case count == 0:
		line = fmt.Sprintf("%s %s: clean", p.success.Render(string(IconSuccess)), path)
	default:
		line = fmt.Sprintf("%s %s: %d diagnostic(s)", p.warning.Render(string(IconWarning)), path, count)
	}
	_, err := fmt.Fprintln(p.w, line)
	return err
}
