// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline orchestrates a full ingestion run: listing, fetch,
// extraction, normalization, parsing, metadata classification, delta
// indexing, and emission, with per-document error isolation.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/gaceta-engine/internal/export"
	"github.com/pdiddy/gaceta-engine/internal/index"
	"github.com/pdiddy/gaceta-engine/internal/legalmeta"
	"github.com/pdiddy/gaceta-engine/internal/normalize"
	"github.com/pdiddy/gaceta-engine/internal/parse"
	"github.com/pdiddy/gaceta-engine/internal/source"
	"github.com/pdiddy/gaceta-engine/pkg/types"
)

// Extractor is the text-extraction stage contract. The production
// implementation is extract.Extractor; source.Fake satisfies it for
// demo runs.
type Extractor interface {
	Extract(ctx context.Context, pdfPath string, w io.Writer) (types.ExtractedDocument, error)
}

// Cataloger receives every emitted record; nil disables cataloging.
type Cataloger interface {
	Store(ctx context.Context, rec types.OutputRecord, tree *types.NormativeUnit) (bool, error)
}

// ErrorItem is one failed document in a run summary.
type ErrorItem struct {
	DocumentID string
	Kind       ErrorKind
	Message    string
}

// SiteSummary reports one site's run outcome. Skipped counts duplicate
// identity sightings dropped while the first was still in flight.
type SiteSummary struct {
	Site      string
	Found     int
	New       int
	Modified  int
	Unchanged int
	Skipped   int
	Errors    []ErrorItem
}

// Processed counts documents that completed the full pipeline.
func (s SiteSummary) Processed() int {
	return s.New + s.Modified + s.Unchanged
}

// HasFailures reports whether any document failed.
func (s SiteSummary) HasFailures() bool {
	return len(s.Errors) > 0
}

// Pipeline wires the stages together for one run.
type Pipeline struct {
	cfg       types.PipelineConfig
	extractor Extractor
	parser    *parse.Parser
	meta      *legalmeta.Classifier
	exporter  *export.Writer
	catalog   Cataloger
	logger    *slog.Logger
}

// New assembles a Pipeline. catalog may be nil.
func New(cfg types.PipelineConfig, extractor Extractor, catalog Cataloger, logger *slog.Logger) *Pipeline {
	cfg = cfg.WithDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		cfg:       cfg,
		extractor: extractor,
		parser:    parse.NewParser(cfg.Parser),
		meta:      legalmeta.New(cfg.Parser),
		exporter:  export.NewWriter(cfg.ExportDir),
		catalog:   catalog,
		logger:    logger,
	}
}

// syncWriter serializes writes to the shared progress writer. Site
// pools and document workers all log through the same writer; each
// Fprintf arrives as one Write call, so whole lines never interleave.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

// Run processes every listing's site. Sites run independently: a fatal
// error on one (a corrupt index, an unlistable source) is recorded in
// its summary and does not abort the others.
func (p *Pipeline) Run(ctx context.Context, listings []source.Listing, w io.Writer) []SiteSummary {
	out := &syncWriter{w: w}
	summaries := make([]SiteSummary, len(listings))

	var g errgroup.Group
	for i, listing := range listings {
		i, listing := i, listing
		g.Go(func() error {
			summaries[i] = p.runSite(ctx, listing, out)
			return nil
		})
	}
	g.Wait()

	fmt.Fprintf(out, "\nRun summary: %d sites\n", len(listings))
	for _, s := range summaries {
		fmt.Fprintf(out, "  %s: %d found, %d new, %d modified, %d unchanged, %d skipped, %d errors\n",
			s.Site, s.Found, s.New, s.Modified, s.Unchanged, s.Skipped, len(s.Errors))
	}
	return summaries
}

// runSite runs the pipeline for one site under its own worker pool.
func (p *Pipeline) runSite(ctx context.Context, listing source.Listing, w io.Writer) SiteSummary {
	started := time.Now().UTC()
	siteID := listing.SiteID()
	summary := SiteSummary{Site: siteID}

	fail := func(docID string, kind ErrorKind, err error) {
		summary.Errors = append(summary.Errors, ErrorItem{
			DocumentID: docID,
			Kind:       kind,
			Message:    err.Error(),
		})
	}

	idx, err := index.Open(p.cfg.Index.Dir, siteID)
	if err != nil {
		p.logger.Error("index unavailable, skipping site", "site", siteID, "error", err)
		fail("", classifyError(err, stageIndex), err)
		return summary
	}

	candidates, err := listing.List(ctx)
	if err != nil {
		p.logger.Error("listing failed, skipping site", "site", siteID, "error", err)
		fail("", KindFetch, err)
		return summary
	}
	summary.Found = len(candidates)
	fmt.Fprintf(w, "%s: %d candidates\n", siteID, len(candidates))

	concurrency := 4
	for _, site := range p.cfg.Sites {
		if site.ID == siteID && site.Concurrency > 0 {
			concurrency = site.Concurrency
		}
	}

	var (
		mu       sync.Mutex
		inFlight = map[string]bool{}
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for _, cand := range candidates {
		cand := cand
		g.Go(func() error {
			status, docID, err := p.processDocument(gctx, listing, idx, cand, w, &mu, inFlight)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				kind := classifyError(err, errStage(err))
				fmt.Fprintf(w, "failed:    %s (%s): %v\n", displayID(docID, cand), kind, err)
				p.logger.Warn("document failed", "site", siteID, "document", displayID(docID, cand), "kind", string(kind))
				summary.Errors = append(summary.Errors, ErrorItem{
					DocumentID: displayID(docID, cand),
					Kind:       kind,
					Message:    err.Error(),
				})
			case status == types.StatusNew:
				summary.New++
			case status == types.StatusModified:
				summary.Modified++
			case status == types.StatusUnchanged:
				summary.Unchanged++
			case status == "":
				summary.Skipped++
			}
			return nil
		})
	}
	g.Wait()

	sort.Slice(summary.Errors, func(i, j int) bool {
		return summary.Errors[i].DocumentID < summary.Errors[j].DocumentID
	})

	fmt.Fprintf(w, "\n%s summary: %d found, %d new, %d modified, %d unchanged, %d skipped, %d errors\n",
		siteID, summary.Found, summary.New, summary.Modified, summary.Unchanged, summary.Skipped, len(summary.Errors))

	if _, err := p.writeManifest(siteID, started, summary); err != nil {
		p.logger.Warn("manifest write failed", "site", siteID, "error", err)
	}
	return summary
}

// stageError carries the stage a processing error surfaced in.
type stageError struct {
	err error
	st  stage
}

func (e *stageError) Error() string { return e.err.Error() }
func (e *stageError) Unwrap() error { return e.err }

func atStage(err error, st stage) error {
	if err == nil {
		return nil
	}
	return &stageError{err: err, st: st}
}

func errStage(err error) stage {
	var se *stageError
	if errors.As(err, &se) {
		return se.st
	}
	return stageFetch
}

// processDocument runs one candidate through the full stage sequence.
// It returns the index status on success and the derived document ID
// once known.
func (p *Pipeline) processDocument(
	ctx context.Context,
	listing source.Listing,
	idx *index.Index,
	cand source.Candidate,
	w io.Writer,
	mu *sync.Mutex,
	inFlight map[string]bool,
) (types.IndexStatus, string, error) {
	// Fetch under the network timeout.
	fetchCtx, cancelFetch := context.WithTimeout(ctx, p.cfg.NetworkTimeout)
	pdfPath, err := listing.Fetch(fetchCtx, cand)
	cancelFetch()
	if err != nil {
		return "", "", atStage(err, stageFetch)
	}

	// Extraction (including any OCR) under its own ceiling.
	extractCtx, cancelExtract := context.WithTimeout(ctx, p.cfg.OCRTimeout)
	extracted, err := p.extractor.Extract(extractCtx, pdfPath, w)
	cancelExtract()
	if err != nil {
		return "", "", atStage(err, stageExtract)
	}

	text := normalize.Normalize(extracted.Text)
	tree := p.parser.Parse(text)
	hdr := p.parser.ParseHeader(text)
	md := p.meta.Classify(text, hdr, tree)
	if md.Title == "" {
		md.Title = cand.RawTitle
	}

	docID := index.DocumentID(hdr.NormType, hdr.NormNumber, hdr.Date, cand.SourceURL)

	// One worker per identity: a duplicate sighting within the run is
	// dropped, not processed twice. The empty status marks it skipped
	// rather than folding it into the unchanged count.
	mu.Lock()
	if inFlight[docID] {
		mu.Unlock()
		fmt.Fprintf(w, "skipped:   %s (duplicate in run)\n", docID)
		return "", docID, nil
	}
	inFlight[docID] = true
	mu.Unlock()
	defer func() {
		mu.Lock()
		delete(inFlight, docID)
		mu.Unlock()
	}()

	sourceRef := cand.SourceURL
	if sourceRef == "" {
		sourceRef = index.TextHash(text)
	}
	hash := index.ContentHash(md.Title, hdr.NormType, hdr.NormNumber, hdr.Date, sourceRef)

	status := idx.Resolve(docID, hash)
	entry := types.IndexEntry{
		Hash:       hash,
		Title:      md.Title,
		Date:       hdr.Date,
		LastSeenAt: time.Now().UTC(),
		Status:     status,
		SourceURL:  cand.SourceURL,
	}
	if err := idx.Upsert(docID, entry); err != nil {
		return "", docID, atStage(err, stageIndex)
	}

	if status == types.StatusUnchanged {
		fmt.Fprintf(w, "unchanged: %s\n", docID)
		return status, docID, nil
	}

	rec := p.buildRecord(listing.SiteID(), docID, text, hash, md, tree)
	if _, err := p.exporter.Write(rec); err != nil {
		return "", docID, atStage(err, stageExport)
	}
	if p.catalog != nil {
		if _, err := p.catalog.Store(ctx, rec, tree); err != nil {
			return "", docID, atStage(err, stageExport)
		}
	}

	fmt.Fprintf(w, "%-9s %s\n", string(status)+":", docID)
	return status, docID, nil
}

// buildRecord assembles the downstream output record for one document.
func (p *Pipeline) buildRecord(siteID, docID, text, hash string, md types.DocumentMetadata, tree *types.NormativeUnit) types.OutputRecord {
	articles := tree.Articles()
	records := make([]types.ArticleRecord, len(articles))
	for i, a := range articles {
		records[i] = types.ArticleRecord{
			Numero:    a.Number,
			Titulo:    a.Title,
			Contenido: a.Content,
		}
	}

	return types.OutputRecord{
		IDDocumento:   docID,
		Site:          siteID,
		TipoDocumento: md.NormType,
		NumeroNorma:   md.NormNumber,
		Fecha:         md.Date,
		Titulo:        md.Title,
		Sumilla:       p.meta.Sumilla(text),
		TextoCompleto: text,
		Articulos:     records,
		Metadata:      md,
		HashContenido: hash,
		FechaScraping: time.Now().UTC(),
	}
}

func (p *Pipeline) writeManifest(siteID string, started time.Time, s SiteSummary) (string, error) {
	m := export.Manifest{
		Site:       siteID,
		StartedAt:  started,
		FinishedAt: time.Now().UTC(),
		Found:      s.Found,
		New:        s.New,
		Modified:   s.Modified,
		Unchanged:  s.Unchanged,
		Skipped:    s.Skipped,
	}
	for _, e := range s.Errors {
		m.Errors = append(m.Errors, export.ManifestError{
			DocumentID: e.DocumentID,
			Kind:       string(e.Kind),
			Message:    e.Message,
		})
	}
	return p.exporter.WriteManifest(m)
}

// displayID prefers the derived identity, falling back to the listing
// reference for documents that failed before identity derivation.
func displayID(docID string, cand source.Candidate) string {
	if docID != "" {
		return docID
	}
	return cand.SourceURL
}
