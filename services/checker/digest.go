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
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// BufferText joins buffer lines into the text handed to the checker.
//
// Lines are joined with "\n" and a trailing "\n" is always appended, so an
// empty buffer becomes "\n".
func BufferText(lines []string) string {
	return strings.Join(lines, "\n") + "\n"
}

// Digest returns the hex SHA-256 of text. Used as the cache key.
func Digest(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// SplitLines turns file or stdin content back into buffer lines. One
// trailing newline is dropped and carriage returns before "\n" are
// removed, so SplitLines(BufferText(lines)) == lines for lines without
// embedded newlines.
func SplitLines(text string) []string {
	if text == "" {
		return []string{}
	}
	text = strings.TrimSuffix(text, "\n")
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}
