// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.yaml.in/yaml/v3"
)

// sidecar is the optional YAML file next to a dropped PDF
// ("ley-843.pdf" + "ley-843.yaml") carrying listing metadata the
// filesystem cannot express.
type sidecar struct {
	Title     string            `yaml:"title"`
	SourceURL string            `yaml:"source_url"`
	Meta      map[string]string `yaml:"meta"`
}

// Directory is a Listing over a local drop folder of PDFs, the adapter
// used when documents arrive out of band (bulk transfers, manual
// collection).
type Directory struct {
	siteID string
	dir    string
}

// NewDirectory creates a Directory listing for siteID over dir.
func NewDirectory(siteID, dir string) *Directory {
	return &Directory{siteID: siteID, dir: dir}
}

// SiteID names the site this listing serves.
func (d *Directory) SiteID() string { return d.siteID }

// List enumerates the folder's PDFs sorted by filename, so repeated
// runs see candidates in the same order. A missing sidecar is not an
// error; an unreadable one is.
func (d *Directory) List(_ context.Context) ([]Candidate, error) {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", d.dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	candidates := make([]Candidate, 0, len(names))
	for _, name := range names {
		path := filepath.Join(d.dir, name)
		c := Candidate{
			SourceURL: path,
			RawTitle:  strings.TrimSuffix(name, filepath.Ext(name)),
		}

		sc, err := readSidecar(strings.TrimSuffix(path, filepath.Ext(path)) + ".yaml")
		if err != nil {
			return nil, err
		}
		if sc != nil {
			if sc.Title != "" {
				c.RawTitle = sc.Title
			}
			if sc.SourceURL != "" {
				c.SourceURL = sc.SourceURL
			}
			c.ListingMeta = sc.Meta
		}

		if c.ListingMeta == nil {
			c.ListingMeta = map[string]string{}
		}
		c.ListingMeta["local_path"] = path
		candidates = append(candidates, c)
	}
	return candidates, nil
}

// Fetch returns the local path recorded at listing time.
func (d *Directory) Fetch(_ context.Context, c Candidate) (string, error) {
	path := c.ListingMeta["local_path"]
	if path == "" {
		return "", fmt.Errorf("candidate %q has no local path", c.SourceURL)
	}
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("candidate file %s: %w", path, err)
	}
	return path, nil
}

func readSidecar(path string) (*sidecar, error) {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading sidecar %s: %w", path, err)
	}

	var sc sidecar
	if err := yaml.Unmarshal(raw, &sc); err != nil {
		return nil, fmt.Errorf("decoding sidecar %s: %w", path, err)
	}
	return &sc, nil
}
