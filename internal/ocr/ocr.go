// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ocr wraps the tesseract command-line engine. Recognition runs
// one subprocess per page image and reports a per-page confidence score
// alongside the recognized text.
package ocr

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

const binTesseract = "tesseract"

// ErrUnavailable reports that the OCR engine is not installed or
// misconfigured. Callers surface this immediately rather than treating
// it as a per-document failure.
var ErrUnavailable = errors.New("ocr engine unavailable: tesseract not found on PATH")

// Result holds the recognition output for one page image.
type Result struct {
	// Text is the recognized page text.
	Text string

	// Confidence is the mean word confidence (0-100). Negative when
	// the page produced no confidence signal.
	Confidence float64
}

// Engine recognizes text in rasterized page images.
type Engine interface {
	// Available reports whether the engine can run. Returns nil when ready.
	Available() error

	// Recognize runs OCR over the image with the given language model.
	Recognize(ctx context.Context, imagePath, lang string) (Result, error)
}

// executor abstracts command execution for testing.
type executor interface {
	LookPath(file string) (string, error)
	Output(ctx context.Context, name string, args ...string) ([]byte, error)
}

// osExecutor is the production executor backed by os/exec.
type osExecutor struct{}

func (o *osExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (o *osExecutor) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// tesseract implements Engine over the tesseract binary using TSV
// output, which carries both the token stream and word confidences in
// a single invocation.
type tesseract struct {
	exec executor
}

var defaultExec = &osExecutor{}

// New returns the production tesseract-backed engine.
func New() Engine {
	return &tesseract{exec: defaultExec}
}

func newWithExecutor(exec executor) *tesseract {
	return &tesseract{exec: exec}
}

func (t *tesseract) Available() error {
	if _, err := t.exec.LookPath(binTesseract); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (t *tesseract) Recognize(ctx context.Context, imagePath, lang string) (Result, error) {
	out, err := t.exec.Output(ctx, binTesseract, imagePath, "stdout", "-l", lang, "tsv")
	if err != nil {
		return Result{}, fmt.Errorf("running tesseract on %s: %w", imagePath, err)
	}
	return parseTSV(string(out)), nil
}

// parseTSV reconstructs text and mean word confidence from tesseract's
// TSV output. Word rows are level 5; rows with conf -1 are layout nodes
// and contribute line/paragraph breaks only.
func parseTSV(tsv string) Result {
	var (
		b         strings.Builder
		confSum   float64
		confCount int
		lastLine  = -1
		lastBlock = -1
	)

	for i, row := range strings.Split(tsv, "\n") {
		if i == 0 || strings.TrimSpace(row) == "" {
			continue // header or trailing blank
		}
		fields := strings.Split(row, "\t")
		if len(fields) < 12 {
			continue
		}

		level, _ := strconv.Atoi(fields[0])
		if level != 5 {
			continue
		}
		block, _ := strconv.Atoi(fields[2])
		line, _ := strconv.Atoi(fields[4])
		conf, confErr := strconv.ParseFloat(fields[10], 64)
		word := fields[11]

		if strings.TrimSpace(word) == "" {
			continue
		}

		if b.Len() > 0 {
			switch {
			case block != lastBlock:
				b.WriteString("\n\n")
			case line != lastLine:
				b.WriteString("\n")
			default:
				b.WriteString(" ")
			}
		}
		b.WriteString(word)
		lastBlock, lastLine = block, line

		if confErr == nil && conf >= 0 {
			confSum += conf
			confCount++
		}
	}

	res := Result{Text: b.String(), Confidence: -1}
	if confCount > 0 {
		res.Confidence = confSum / float64(confCount)
	}
	return res
}
