// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package extract turns a PDF into plain text, choosing between the
// direct text layer and per-page OCR based on first-page classification.
package extract

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sync/semaphore"

	"github.com/pdiddy/gaceta-engine/internal/classify"
	"github.com/pdiddy/gaceta-engine/internal/ocr"
	"github.com/pdiddy/gaceta-engine/internal/pdftool"
	"github.com/pdiddy/gaceta-engine/pkg/types"
)

// pageSeparator joins per-page text in the concatenated document text.
const pageSeparator = "\n\n"

// Extractor extracts document text with automatic OCR fallback. The OCR
// engine is a bounded shared resource: page recognition goes through a
// semaphore sized from OCRConfig.Workers, independent of how many
// documents are in flight.
type Extractor struct {
	tools    pdftool.Toolchain
	engine   ocr.Engine
	cls      types.ClassifierConfig
	cfg      types.OCRConfig
	ocrSlots *semaphore.Weighted
}

// New creates an Extractor over the given PDF toolchain and OCR engine.
func New(tools pdftool.Toolchain, engine ocr.Engine, cls types.ClassifierConfig, cfg types.OCRConfig) *Extractor {
	cfg = cfg.WithDefaults()
	return &Extractor{
		tools:    tools,
		engine:   engine,
		cls:      cls.WithDefaults(),
		cfg:      cfg,
		ocrSlots: semaphore.NewWeighted(int64(cfg.Workers)),
	}
}

// Extract reads the PDF at pdfPath and returns its text. Digital
// documents use per-page direct extraction; scanned documents are
// rasterized and recognized page by page. Per-page failures are logged
// to w and skipped; only a document with no readable pages at all fails.
func (e *Extractor) Extract(ctx context.Context, pdfPath string, w io.Writer) (types.ExtractedDocument, error) {
	doc := types.ExtractedDocument{PDFPath: pdfPath}

	pages, err := e.tools.PageCount(ctx, pdfPath)
	if err != nil {
		return doc, fmt.Errorf("counting pages of %s: %w", pdfPath, err)
	}
	doc.PageCount = pages

	firstPage, firstErr := e.tools.PageText(ctx, pdfPath, 1)
	kind := classify.Classify(firstPage, firstErr, e.cls)

	if kind == classify.Digital {
		text, err := e.extractDigital(ctx, pdfPath, pages, firstPage, w)
		if err != nil {
			return doc, err
		}
		doc.Text = text
		return doc, nil
	}

	doc.IsScanned = true
	text, confidence, err := e.extractScanned(ctx, pdfPath, pages, w)
	if err != nil {
		return doc, err
	}
	doc.Text = text
	if confidence >= 0 {
		doc.Confidence = &confidence
	}
	return doc, nil
}

// extractDigital reads the text layer page by page. The already
// extracted first page is reused rather than re-read.
func (e *Extractor) extractDigital(ctx context.Context, pdfPath string, pages int, firstPage string, w io.Writer) (string, error) {
	texts := make([]string, 0, pages)
	texts = append(texts, strings.TrimRight(firstPage, "\n"))

	for page := 2; page <= pages; page++ {
		text, err := e.tools.PageText(ctx, pdfPath, page)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			fmt.Fprintf(w, "  warning: page %d extraction failed: %v\n", page, err)
			continue
		}
		texts = append(texts, strings.TrimRight(text, "\n"))
	}

	return strings.Join(texts, pageSeparator), nil
}

// extractScanned rasterizes and recognizes every page. The returned
// confidence is the mean of per-page confidences, ignoring pages that
// produced no signal; it is negative when no page produced one.
func (e *Extractor) extractScanned(ctx context.Context, pdfPath string, pages int, w io.Writer) (string, float64, error) {
	if err := e.engine.Available(); err != nil {
		return "", -1, err
	}

	workDir, err := os.MkdirTemp("", "gaceta-ocr-*")
	if err != nil {
		return "", -1, fmt.Errorf("creating OCR work directory: %w", err)
	}
	defer os.RemoveAll(workDir)

	var (
		texts     []string
		confSum   float64
		confCount int
	)

	for page := 1; page <= pages; page++ {
		res, err := e.recognizePage(ctx, pdfPath, page, workDir)
		if err != nil {
			if ctx.Err() != nil {
				return "", -1, ctx.Err()
			}
			fmt.Fprintf(w, "  warning: page %d OCR failed: %v\n", page, err)
			continue
		}
		texts = append(texts, res.Text)
		if res.Confidence >= 0 {
			confSum += res.Confidence
			confCount++
		}
	}

	if len(texts) == 0 {
		return "", -1, fmt.Errorf("OCR produced no readable pages for %s", pdfPath)
	}

	confidence := -1.0
	if confCount > 0 {
		confidence = confSum / float64(confCount)
	}
	return strings.Join(texts, pageSeparator), confidence, nil
}

// recognizePage renders one page and runs OCR on it under an engine slot.
func (e *Extractor) recognizePage(ctx context.Context, pdfPath string, page int, workDir string) (ocr.Result, error) {
	if err := e.ocrSlots.Acquire(ctx, 1); err != nil {
		return ocr.Result{}, err
	}
	defer e.ocrSlots.Release(1)

	prefix := filepath.Join(workDir, "page-"+strconv.Itoa(page))
	imgPath, err := e.tools.RenderPage(ctx, pdfPath, page, e.cfg.DPI, prefix)
	if err != nil {
		return ocr.Result{}, err
	}
	defer os.Remove(imgPath)

	return e.engine.Recognize(ctx, imgPath, e.cfg.Lang)
}
