// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pdftool wraps the poppler command-line tools (pdfinfo,
// pdftotext, pdftoppm) behind a Toolchain interface so extraction can
// read page text and rasterize pages without binding to a PDF library.
package pdftool

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

const (
	binPdfinfo  = "pdfinfo"
	binPdftext  = "pdftotext"
	binPdftoppm = "pdftoppm"
)

// ErrUnavailable reports that the poppler tools are not installed.
var ErrUnavailable = errors.New("pdf toolchain unavailable: poppler tools not found on PATH")

// Toolchain provides page-level PDF operations.
type Toolchain interface {
	// Available reports whether the backing tools exist on PATH.
	// Returns nil when all are found.
	Available() error

	// PageCount returns the number of pages in the PDF.
	PageCount(ctx context.Context, pdfPath string) (int, error)

	// PageText extracts the text layer of a single 1-based page.
	PageText(ctx context.Context, pdfPath string, page int) (string, error)

	// RenderPage rasterizes a single 1-based page to a PNG at the given
	// DPI, writing destPrefix.png, and returns the image path.
	RenderPage(ctx context.Context, pdfPath string, page, dpi int, destPrefix string) (string, error)
}

// executor abstracts command execution for testing.
type executor interface {
	LookPath(file string) (string, error)
	Output(ctx context.Context, name string, args ...string) ([]byte, error)
	Run(ctx context.Context, name string, args ...string) error
}

// osExecutor is the production executor backed by os/exec.
type osExecutor struct{}

func (o *osExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (o *osExecutor) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

func (o *osExecutor) Run(ctx context.Context, name string, args ...string) error {
	return exec.CommandContext(ctx, name, args...).Run()
}

// poppler implements Toolchain over the poppler binaries.
type poppler struct {
	exec executor
}

var defaultExec = &osExecutor{}

// New returns the production poppler-backed toolchain.
func New() Toolchain {
	return &poppler{exec: defaultExec}
}

func newWithExecutor(exec executor) *poppler {
	return &poppler{exec: exec}
}

func (p *poppler) Available() error {
	for _, bin := range []string{binPdfinfo, binPdftext, binPdftoppm} {
		if _, err := p.exec.LookPath(bin); err != nil {
			return fmt.Errorf("%w: missing %s", ErrUnavailable, bin)
		}
	}
	return nil
}

func (p *poppler) PageCount(ctx context.Context, pdfPath string) (int, error) {
	out, err := p.exec.Output(ctx, binPdfinfo, pdfPath)
	if err != nil {
		return 0, fmt.Errorf("reading PDF info for %s: %w", pdfPath, err)
	}
	for _, line := range strings.Split(string(out), "\n") {
		if !strings.HasPrefix(line, "Pages:") {
			continue
		}
		n, convErr := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(line, "Pages:")))
		if convErr != nil {
			return 0, fmt.Errorf("parsing page count for %s: %w", pdfPath, convErr)
		}
		return n, nil
	}
	return 0, fmt.Errorf("no page count in pdfinfo output for %s", pdfPath)
}

func (p *poppler) PageText(ctx context.Context, pdfPath string, page int) (string, error) {
	pageArg := strconv.Itoa(page)
	out, err := p.exec.Output(ctx, binPdftext,
		"-f", pageArg, "-l", pageArg, "-layout", "-enc", "UTF-8", pdfPath, "-")
	if err != nil {
		return "", fmt.Errorf("extracting text from %s page %d: %w", pdfPath, page, err)
	}
	return string(out), nil
}

func (p *poppler) RenderPage(ctx context.Context, pdfPath string, page, dpi int, destPrefix string) (string, error) {
	pageArg := strconv.Itoa(page)
	err := p.exec.Run(ctx, binPdftoppm,
		"-png", "-r", strconv.Itoa(dpi), "-f", pageArg, "-l", pageArg,
		"-singlefile", pdfPath, destPrefix)
	if err != nil {
		return "", fmt.Errorf("rasterizing %s page %d: %w", pdfPath, page, err)
	}
	return destPrefix + ".png", nil
}
