// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"errors"

	"github.com/pdiddy/gaceta-engine/internal/index"
	"github.com/pdiddy/gaceta-engine/internal/ocr"
	"github.com/pdiddy/gaceta-engine/internal/pdftool"
)

// ErrorKind buckets per-document failures for the run report.
type ErrorKind string

const (
	KindFetch      ErrorKind = "fetch_error"
	KindExtraction ErrorKind = "extraction_error"
	KindParse      ErrorKind = "parse_error"
	KindIndex      ErrorKind = "index_error"
	KindExport     ErrorKind = "export_error"
	KindTimeout    ErrorKind = "timeout"
	KindDependency ErrorKind = "dependency_unavailable"
	KindIndexFatal ErrorKind = "index_corrupt"
	KindUnknown    ErrorKind = "unknown"
)

// stage tags where in the document's processing the error surfaced.
type stage int

const (
	stageFetch stage = iota
	stageExtract
	stageParse
	stageIndex
	stageExport
)

// classifyError maps an error and the stage it came from to a report
// kind. Sentinels win over stage attribution: a missing OCR engine is
// a dependency problem wherever it surfaces.
func classifyError(err error, st stage) ErrorKind {
	switch {
	case errors.Is(err, ocr.ErrUnavailable), errors.Is(err, pdftool.ErrUnavailable):
		return KindDependency
	case errors.Is(err, index.ErrCorrupt):
		return KindIndexFatal
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	}

	switch st {
	case stageFetch:
		return KindFetch
	case stageExtract:
		return KindExtraction
	case stageParse:
		return KindParse
	case stageIndex:
		return KindIndex
	case stageExport:
		return KindExport
	}
	return KindUnknown
}
