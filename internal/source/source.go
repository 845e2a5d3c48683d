// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package source defines how candidate documents reach the pipeline.
// The pipeline only ever consumes listings and PDF bytes through the
// Listing interface; knowing how a site publishes them is the
// adapter's problem.
package source

import "context"

// Candidate is one document sighted in a site listing. SourceURL is
// the stable reference the identity derivation falls back to; for
// local adapters it is a file path.
type Candidate struct {
	SourceURL   string
	RawTitle    string
	ListingMeta map[string]string
}

// Listing enumerates a site's candidates and materializes their PDFs.
type Listing interface {
	// SiteID names the site this listing serves.
	SiteID() string

	// List returns the site's candidates in a deterministic order.
	List(ctx context.Context) ([]Candidate, error)

	// Fetch materializes the candidate's PDF on local disk and returns
	// its path. Adapters that already hold the file locally return it
	// directly.
	Fetch(ctx context.Context, c Candidate) (pdfPath string, err error)
}
