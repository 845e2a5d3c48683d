// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package normalize cleans extracted text into the canonical form the
// parser and hasher consume. Normalize is pure and idempotent.
package normalize

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// excessBlankRun matches 3 or more consecutive blank lines (4+ newlines
// once per-line trailing whitespace has been stripped).
var excessBlankRun = regexp.MustCompile(`\n{4,}`)

// Normalize canonicalizes raw extracted text:
//
//   - Unicode NFC composition
//   - \r\n and \r become \n
//   - non-printable control characters dropped, except \n and \t
//   - trailing whitespace stripped per line
//   - runs of 3+ blank lines collapse to exactly one blank line
//   - the whole text trimmed of leading/trailing whitespace
//
// Intentional paragraph breaks (a single blank line) survive.
func Normalize(raw string) string {
	s := norm.NFC.String(raw)
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = stripControl(s)

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	s = strings.Join(lines, "\n")

	s = excessBlankRun.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// stripControl removes control characters except newline and tab.
func stripControl(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, s)
}
