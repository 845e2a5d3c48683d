// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package export writes finished documents to the downstream contract:
// one JSON file per document plus a per-run YAML manifest.
package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/gaceta-engine/pkg/types"
)

// Writer emits output records under a base directory, one subdirectory
// per site.
type Writer struct {
	dir string
}

// NewWriter creates a Writer rooted at dir.
func NewWriter(dir string) *Writer {
	return &Writer{dir: dir}
}

// Write serializes one record to <dir>/<site>/<id_documento>.json. The
// write goes through a temp file and rename so consumers never observe
// a partial record.
func (w *Writer) Write(rec types.OutputRecord) (string, error) {
	siteDir := filepath.Join(w.dir, rec.Site)
	if err := os.MkdirAll(siteDir, 0o755); err != nil {
		return "", fmt.Errorf("creating export directory: %w", err)
	}

	raw, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding record %s: %w", rec.IDDocumento, err)
	}

	dest := filepath.Join(siteDir, rec.IDDocumento+".json")
	tmp, err := os.CreateTemp(siteDir, ".export-*.tmp")
	if err != nil {
		return "", fmt.Errorf("creating temp export file: %w", err)
	}
	tmpPath := tmp.Name()

	_, writeErr := tmp.Write(raw)
	closeErr := tmp.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("writing record %s: %w", rec.IDDocumento, writeErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("closing temp export file: %w", closeErr)
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("placing record %s: %w", rec.IDDocumento, err)
	}
	return dest, nil
}

// ManifestError itemizes one failed document in a run manifest.
type ManifestError struct {
	DocumentID string `yaml:"document_id"`
	Kind       string `yaml:"kind"`
	Message    string `yaml:"message"`
}

// Manifest is the durable per-run summary written next to the exports.
type Manifest struct {
	Site       string          `yaml:"site"`
	StartedAt  time.Time       `yaml:"started_at"`
	FinishedAt time.Time       `yaml:"finished_at"`
	Found      int             `yaml:"found"`
	New        int             `yaml:"new"`
	Modified   int             `yaml:"modified"`
	Unchanged  int             `yaml:"unchanged"`
	Skipped    int             `yaml:"skipped"`
	Errors     []ManifestError `yaml:"errors,omitempty"`
}

// WriteManifest writes the run manifest for a site, stamped with the
// run's start time so successive runs never overwrite each other.
func (w *Writer) WriteManifest(m Manifest) (string, error) {
	siteDir := filepath.Join(w.dir, m.Site)
	if err := os.MkdirAll(siteDir, 0o755); err != nil {
		return "", fmt.Errorf("creating export directory: %w", err)
	}

	raw, err := yaml.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("encoding manifest for %s: %w", m.Site, err)
	}

	name := fmt.Sprintf("run-%s.yaml", m.StartedAt.UTC().Format("20060102-150405"))
	dest := filepath.Join(siteDir, name)
	if err := os.WriteFile(dest, raw, 0o644); err != nil {
		return "", fmt.Errorf("writing manifest for %s: %w", m.Site, err)
	}
	return dest, nil
}
