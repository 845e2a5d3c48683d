// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package classify decides whether a PDF carries a machine-readable
// text layer or needs OCR, from a single look at its first page.
package classify

import (
	"unicode"

	"github.com/pdiddy/gaceta-engine/pkg/types"
)

// Kind is the outcome of content classification.
type Kind string

const (
	// Digital documents have a usable text layer.
	Digital Kind = "digital"

	// Scanned documents need per-page OCR.
	Scanned Kind = "scanned"
)

// Classify inspects the direct text extraction of a document's first
// page. Too little non-whitespace text, a low alphanumeric ratio, or a
// failed extraction all classify as scanned: the failure mode is doing
// more work, never silently losing text.
//
// This is a single-pass heuristic. Hybrid documents with a sparse first
// page but digital later pages will be OCR'd whole; that is the accepted
// trade-off, not a defect.
func Classify(firstPageText string, extractErr error, cfg types.ClassifierConfig) Kind {
	cfg = cfg.WithDefaults()

	if extractErr != nil {
		return Scanned
	}

	var nonSpace, alnum, total int
	for _, r := range firstPageText {
		total++
		if !unicode.IsSpace(r) {
			nonSpace++
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			alnum++
		}
	}

	if nonSpace < cfg.MinChars {
		return Scanned
	}
	if total > 0 && float64(alnum)/float64(total) < cfg.MinAlnumRatio {
		return Scanned
	}
	return Digital
}
