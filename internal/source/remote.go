// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/gaceta-engine/internal/httputil"
)

// manifestEntry is one candidate in a remote listing manifest. Site
// operators (or an upstream scraper, out of scope here) maintain the
// manifest; this adapter only consumes it.
type manifestEntry struct {
	URL   string            `yaml:"url"`
	Title string            `yaml:"title"`
	Meta  map[string]string `yaml:"meta"`
}

// Remote is a Listing over a YAML manifest of PDF URLs. Fetched files
// are cached under cacheDir keyed by URL, so re-runs skip downloads
// that already completed.
type Remote struct {
	siteID       string
	manifestPath string
	cacheDir     string
	client       *http.Client
}

// NewRemote creates a Remote listing for siteID from the manifest at
// manifestPath, caching downloads under cacheDir.
func NewRemote(siteID, manifestPath, cacheDir string, client *http.Client) *Remote {
	if client == nil {
		client = http.DefaultClient
	}
	return &Remote{
		siteID:       siteID,
		manifestPath: manifestPath,
		cacheDir:     cacheDir,
		client:       client,
	}
}

// SiteID names the site this listing serves.
func (r *Remote) SiteID() string { return r.siteID }

// List decodes the manifest in declaration order.
func (r *Remote) List(_ context.Context) ([]Candidate, error) {
	raw, err := os.ReadFile(r.manifestPath)
	if err != nil {
		return nil, fmt.Errorf("reading manifest %s: %w", r.manifestPath, err)
	}

	var entries []manifestEntry
	if err := yaml.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("decoding manifest %s: %w", r.manifestPath, err)
	}

	candidates := make([]Candidate, 0, len(entries))
	for _, e := range entries {
		if e.URL == "" {
			return nil, fmt.Errorf("manifest %s: entry without url", r.manifestPath)
		}
		candidates = append(candidates, Candidate{
			SourceURL:   e.URL,
			RawTitle:    e.Title,
			ListingMeta: e.Meta,
		})
	}
	return candidates, nil
}

// Fetch downloads the candidate's PDF into the cache, or reuses an
// earlier download of the same URL.
func (r *Remote) Fetch(ctx context.Context, c Candidate) (string, error) {
	sum := sha256.Sum256([]byte(c.SourceURL))
	dest := filepath.Join(r.cacheDir, r.siteID+"-"+hex.EncodeToString(sum[:8])+".pdf")

	if _, err := os.Stat(dest); err == nil {
		return dest, nil
	}

	if err := httputil.Download(ctx, r.client, c.SourceURL, dest); err != nil {
		return "", err
	}
	return dest, nil
}
