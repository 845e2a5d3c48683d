// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/gaceta-engine/internal/source"
	"github.com/pdiddy/gaceta-engine/pkg/types"
)

const leyText = `LEY N° 843
LEY DE 20 DE MAYO DE 1986
LEY DE REFORMA TRIBUTARIA

ARTÍCULO 1.- (OBJETO) Créase un impuesto al valor agregado.
ARTÍCULO 2.- Se considera venta toda transferencia onerosa.`

const decretoText = `DECRETO SUPREMO N° 21530
27 de febrero de 1987

ARTÍCULO 1.- Reglaméntase el impuesto al valor agregado.`

func testConfig(t *testing.T) types.PipelineConfig {
	t.Helper()
	base := t.TempDir()
	return types.PipelineConfig{
		Sites:     []types.SiteConfig{{ID: "demo", Concurrency: 1}},
		Index:     types.IndexConfig{Dir: filepath.Join(base, "index")},
		Catalog:   types.CatalogConfig{Dir: filepath.Join(base, "catalog")},
		ExportDir: filepath.Join(base, "export"),
	}
}

func demoFake(t *testing.T) *source.Fake {
	t.Helper()
	return source.NewFake("demo", t.TempDir(), []source.FakeDocument{
		{URL: "https://demo/ley-843.pdf", Title: "Ley 843", Text: leyText},
		{URL: "https://demo/ds-21530.pdf", Title: "DS 21530", Text: decretoText},
	})
}

// recordingCatalog captures Store calls.
type recordingCatalog struct {
	stored []string
}

func (r *recordingCatalog) Store(_ context.Context, rec types.OutputRecord, _ *types.NormativeUnit) (bool, error) {
	r.stored = append(r.stored, rec.IDDocumento)
	return true, nil
}

func TestRunFirstSightingEmitsEverything(t *testing.T) {
	cfg := testConfig(t)
	fake := demoFake(t)
	cat := &recordingCatalog{}
	p := New(cfg, fake, cat, nil)

	var out bytes.Buffer
	summaries := p.Run(context.Background(), []source.Listing{fake}, &out)
	require.Len(t, summaries, 1)

	s := summaries[0]
	assert.Equal(t, "demo", s.Site)
	assert.Equal(t, 2, s.Found)
	assert.Equal(t, 2, s.New)
	assert.Zero(t, s.Modified)
	assert.Zero(t, s.Unchanged)
	assert.False(t, s.HasFailures())

	// Identities derived from parsed headers, not URLs.
	leyExport := filepath.Join(cfg.ExportDir, "demo", "ley-843-1986-05-20.json")
	dsExport := filepath.Join(cfg.ExportDir, "demo", "decreto-supremo-21530-1987-02-27.json")
	assert.FileExists(t, leyExport)
	assert.FileExists(t, dsExport)

	assert.ElementsMatch(t, []string{"ley-843-1986-05-20", "decreto-supremo-21530-1987-02-27"}, cat.stored)

	// A run manifest sits next to the exports.
	matches, err := filepath.Glob(filepath.Join(cfg.ExportDir, "demo", "run-*.yaml"))
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestRunSecondSightingSkipsUnchanged(t *testing.T) {
	cfg := testConfig(t)
	fake := demoFake(t)

	var out bytes.Buffer
	p := New(cfg, fake, nil, nil)
	p.Run(context.Background(), []source.Listing{fake}, &out)

	// Remove first-run exports to prove unchanged documents are not re-emitted.
	require.NoError(t, os.RemoveAll(filepath.Join(cfg.ExportDir, "demo")))

	p = New(cfg, fake, nil, nil)
	summaries := p.Run(context.Background(), []source.Listing{fake}, &out)

	s := summaries[0]
	assert.Equal(t, 2, s.Found)
	assert.Zero(t, s.New)
	assert.Zero(t, s.Modified)
	assert.Equal(t, 2, s.Unchanged)

	assert.NoFileExists(t, filepath.Join(cfg.ExportDir, "demo", "ley-843-1986-05-20.json"))
}

func TestRunDetectsModification(t *testing.T) {
	cfg := testConfig(t)
	dir := t.TempDir()

	fake := source.NewFake("demo", dir, []source.FakeDocument{
		{URL: "https://demo/ley-843.pdf", Title: "Ley 843", Text: leyText},
	})
	var out bytes.Buffer
	New(cfg, fake, nil, nil).Run(context.Background(), []source.Listing{fake}, &out)

	// Same identity, retitled first line: the content hash shifts.
	changed := source.NewFake("demo", dir, []source.FakeDocument{
		{URL: "https://demo/ley-843.pdf", Title: "Ley 843",
			Text: "LEY DE REFORMA TRIBUTARIA (TEXTO ORDENADO)\n" + leyText},
	})
	summaries := New(cfg, changed, nil, nil).Run(context.Background(), []source.Listing{changed}, &out)

	s := summaries[0]
	assert.Zero(t, s.New)
	assert.Equal(t, 1, s.Modified)
	assert.Zero(t, s.Unchanged)
}

// failingListing wraps a Fake and fails fetches for one URL.
type failingListing struct {
	*source.Fake
	failURL string
}

func (f *failingListing) Fetch(ctx context.Context, c source.Candidate) (string, error) {
	if c.SourceURL == f.failURL {
		return "", errors.New("connection reset")
	}
	return f.Fake.Fetch(ctx, c)
}

func TestRunIsolatesDocumentFailures(t *testing.T) {
	cfg := testConfig(t)
	fake := demoFake(t)
	listing := &failingListing{Fake: fake, failURL: "https://demo/ds-21530.pdf"}

	var out bytes.Buffer
	p := New(cfg, fake, nil, nil)
	summaries := p.Run(context.Background(), []source.Listing{listing}, &out)

	s := summaries[0]
	assert.Equal(t, 2, s.Found)
	assert.Equal(t, 1, s.New)
	require.Len(t, s.Errors, 1)
	assert.Equal(t, KindFetch, s.Errors[0].Kind)
	assert.Contains(t, s.Errors[0].Message, "connection reset")

	// The healthy document still made it out.
	assert.FileExists(t, filepath.Join(cfg.ExportDir, "demo", "ley-843-1986-05-20.json"))
}

// extractorFunc adapts a function to the Extractor interface.
type extractorFunc func(ctx context.Context, pdfPath string, w io.Writer) (types.ExtractedDocument, error)

func (f extractorFunc) Extract(ctx context.Context, pdfPath string, w io.Writer) (types.ExtractedDocument, error) {
	return f(ctx, pdfPath, w)
}

func TestRunClassifiesExtractionErrors(t *testing.T) {
	cfg := testConfig(t)
	fake := demoFake(t)

	broken := extractorFunc(func(context.Context, string, io.Writer) (types.ExtractedDocument, error) {
		return types.ExtractedDocument{}, errors.New("no readable pages")
	})

	var out bytes.Buffer
	summaries := New(cfg, broken, nil, nil).Run(context.Background(), []source.Listing{fake}, &out)

	s := summaries[0]
	assert.Zero(t, s.Processed())
	require.Len(t, s.Errors, 2)
	for _, e := range s.Errors {
		assert.Equal(t, KindExtraction, e.Kind)
	}
}

func TestRunCorruptIndexAbortsOnlyThatSite(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, os.MkdirAll(cfg.Index.Dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Index.Dir, "demo.json"), []byte("{broken"), 0o644))

	fake := demoFake(t)
	healthy := source.NewFake("sano", t.TempDir(), []source.FakeDocument{
		{URL: "https://sano/ley-1.pdf", Title: "Ley 1", Text: "LEY N° 1\n1 de enero de 2020\nARTÍCULO 1.- Texto."},
	})

	var out bytes.Buffer
	p := New(cfg, fake, nil, nil)
	summaries := p.Run(context.Background(), []source.Listing{fake, healthy}, &out)
	require.Len(t, summaries, 2)

	assert.True(t, summaries[0].HasFailures())
	assert.Equal(t, KindIndexFatal, summaries[0].Errors[0].Kind)
	assert.Zero(t, summaries[0].Processed())

	assert.False(t, summaries[1].HasFailures())
	assert.Equal(t, 1, summaries[1].New)
}

func TestRunConcurrentWorkersShareProgressWriter(t *testing.T) {
	cfg := testConfig(t)
	cfg.Sites[0].Concurrency = 4

	var docs []source.FakeDocument
	for i := 1; i <= 8; i++ {
		docs = append(docs, source.FakeDocument{
			URL:   fmt.Sprintf("https://demo/ley-%d.pdf", i),
			Title: fmt.Sprintf("Ley %d", i),
			Text:  fmt.Sprintf("LEY N° %d\n1 de enero de 2020\nARTÍCULO 1.- Texto %d.", i, i),
		})
	}
	fake := source.NewFake("demo", t.TempDir(), docs)

	// Extractors log per-page warnings to the shared progress writer
	// from every worker; the run must serialize those writes.
	chatty := extractorFunc(func(ctx context.Context, pdfPath string, w io.Writer) (types.ExtractedDocument, error) {
		fmt.Fprintf(w, "  warning: page 2 extraction failed: %s\n", filepath.Base(pdfPath))
		return fake.Extract(ctx, pdfPath, w)
	})

	var out bytes.Buffer
	summaries := New(cfg, chatty, nil, nil).Run(context.Background(), []source.Listing{fake}, &out)

	s := summaries[0]
	assert.Equal(t, 8, s.New)
	assert.False(t, s.HasFailures())

	for i := range docs {
		line := fmt.Sprintf("page 2 extraction failed: fake-demo-%d.txt", i)
		assert.Equal(t, 1, strings.Count(out.String(), line), "warning for document %d", i)
	}
}

func TestRunDuplicateIdentityWithinRun(t *testing.T) {
	cfg := testConfig(t)
	dir := t.TempDir()

	// Two listings of the same norm under different URLs. With
	// sequential processing the second resolves against the index.
	fake := source.NewFake("demo", dir, []source.FakeDocument{
		{URL: "https://demo/ley-843.pdf", Title: "Ley 843", Text: leyText},
		{URL: "https://demo/mirror/ley-843.pdf", Title: "Ley 843 (espejo)", Text: leyText},
	})

	var out bytes.Buffer
	summaries := New(cfg, fake, nil, nil).Run(context.Background(), []source.Listing{fake}, &out)

	s := summaries[0]
	assert.Equal(t, 2, s.Found)
	assert.Equal(t, 1, s.New)
	// The mirror URL shifts the content hash, so the re-sighting counts
	// as modified rather than unchanged.
	assert.Equal(t, 1, s.Modified)
	assert.Zero(t, s.Skipped)
	assert.False(t, s.HasFailures())
}

// gateCatalog blocks its first Store call until released, keeping that
// document in flight for the duration of the test's choreography.
type gateCatalog struct {
	mu      sync.Mutex
	calls   int
	entered chan struct{}
	release chan struct{}
}

func (g *gateCatalog) Store(context.Context, types.OutputRecord, *types.NormativeUnit) (bool, error) {
	g.mu.Lock()
	g.calls++
	first := g.calls == 1
	g.mu.Unlock()

	if first {
		close(g.entered)
		select {
		case <-g.release:
		case <-time.After(5 * time.Second):
			return false, errors.New("release signal never arrived")
		}
	}
	return true, nil
}

// releasingWriter closes release once a skipped line has been written.
type releasingWriter struct {
	buf     bytes.Buffer
	release chan struct{}
	once    sync.Once
}

func (w *releasingWriter) Write(p []byte) (int, error) {
	n, err := w.buf.Write(p)
	if bytes.Contains(w.buf.Bytes(), []byte("skipped:")) {
		w.once.Do(func() { close(w.release) })
	}
	return n, err
}

func TestRunConcurrentDuplicateCountsAsSkipped(t *testing.T) {
	cfg := testConfig(t)
	cfg.Sites[0].Concurrency = 2
	dir := t.TempDir()

	// The same norm under two URLs, sighted while the first copy is
	// still mid-processing: the duplicate must be skipped, not counted
	// as unchanged.
	fake := source.NewFake("demo", dir, []source.FakeDocument{
		{URL: "https://demo/ley-843.pdf", Title: "Ley 843", Text: leyText},
		{URL: "https://demo/mirror/ley-843.pdf", Title: "Ley 843 (espejo)", Text: leyText},
	})

	gate := &gateCatalog{entered: make(chan struct{}), release: make(chan struct{})}
	out := &releasingWriter{release: gate.release}

	// The mirror waits until the original has reached the catalog, so
	// the original is guaranteed to be in flight when the mirror's
	// identity resolves.
	extractor := extractorFunc(func(ctx context.Context, pdfPath string, w io.Writer) (types.ExtractedDocument, error) {
		if strings.HasSuffix(pdfPath, "-1.txt") {
			select {
			case <-gate.entered:
			case <-time.After(5 * time.Second):
				return types.ExtractedDocument{}, errors.New("original never reached the catalog")
			}
		}
		return fake.Extract(ctx, pdfPath, w)
	})

	summaries := New(cfg, extractor, gate, nil).Run(context.Background(), []source.Listing{fake}, out)

	s := summaries[0]
	assert.Equal(t, 2, s.Found)
	assert.Equal(t, 1, s.New)
	assert.Zero(t, s.Modified)
	assert.Zero(t, s.Unchanged)
	assert.Equal(t, 1, s.Skipped)
	assert.False(t, s.HasFailures())
	assert.Contains(t, out.buf.String(), "skipped:   ley-843-1986-05-20 (duplicate in run)")
}
