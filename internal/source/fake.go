// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pdiddy/gaceta-engine/pkg/types"
)

// FakeDocument is one synthetic document served by a Fake listing.
type FakeDocument struct {
	URL   string
	Title string
	Text  string
}

// Fake is an in-memory Listing serving synthetic documents, used for
// demos and tests. It doubles as the extractor for its own candidates,
// so a run against a Fake never touches poppler or tesseract: wire the
// same value in as both the listing and the extraction stage.
type Fake struct {
	siteID string
	docs   []FakeDocument
	dir    string
}

// NewFake creates a Fake listing for siteID. Fetched documents are
// written under dir.
func NewFake(siteID, dir string, docs []FakeDocument) *Fake {
	return &Fake{siteID: siteID, docs: docs, dir: dir}
}

// SiteID names the site this listing serves.
func (f *Fake) SiteID() string { return f.siteID }

// List returns the synthetic candidates in declaration order.
func (f *Fake) List(_ context.Context) ([]Candidate, error) {
	candidates := make([]Candidate, len(f.docs))
	for i, d := range f.docs {
		candidates[i] = Candidate{
			SourceURL:   d.URL,
			RawTitle:    d.Title,
			ListingMeta: map[string]string{"fake_index": fmt.Sprint(i)},
		}
	}
	return candidates, nil
}

// Fetch materializes the candidate's text as a file under the fake's
// directory and returns its path.
func (f *Fake) Fetch(_ context.Context, c Candidate) (string, error) {
	doc, ok := f.find(c.SourceURL)
	if !ok {
		return "", fmt.Errorf("unknown fake candidate %q", c.SourceURL)
	}

	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return "", fmt.Errorf("creating fake fetch directory: %w", err)
	}
	path := filepath.Join(f.dir, fmt.Sprintf("fake-%s-%d.txt", f.siteID, f.index(c.SourceURL)))
	if err := os.WriteFile(path, []byte(doc.Text), 0o644); err != nil {
		return "", fmt.Errorf("writing fake document: %w", err)
	}
	return path, nil
}

// Extract satisfies the pipeline's extractor contract for fake
// candidates: the fetched file is read back as digital text.
func (f *Fake) Extract(_ context.Context, pdfPath string, _ io.Writer) (types.ExtractedDocument, error) {
	raw, err := os.ReadFile(pdfPath)
	if err != nil {
		return types.ExtractedDocument{}, fmt.Errorf("reading fake document: %w", err)
	}
	return types.ExtractedDocument{
		PDFPath:   pdfPath,
		Text:      string(raw),
		PageCount: 1,
	}, nil
}

func (f *Fake) find(url string) (FakeDocument, bool) {
	for _, d := range f.docs {
		if d.URL == url {
			return d, true
		}
	}
	return FakeDocument{}, false
}

func (f *Fake) index(url string) int {
	for i, d := range f.docs {
		if d.URL == url {
			return i
		}
	}
	return -1
}
