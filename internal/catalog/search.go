// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"go.yaml.in/yaml/v3"
)

// QueryOptions narrows a catalog search.
type QueryOptions struct {
	// Site restricts results to one site; empty matches all.
	Site string

	// NormType restricts results to one instrument class; empty matches all.
	NormType string

	// Limit caps result count; 0 falls back to the store default.
	Limit int
}

// SearchResult is one matching normative unit with its document context.
type SearchResult struct {
	DocumentID string  `json:"document_id" yaml:"document_id"`
	Site       string  `json:"site" yaml:"site"`
	NormType   string  `json:"norm_type" yaml:"norm_type"`
	NormNumber string  `json:"norm_number" yaml:"norm_number"`
	Title      string  `json:"title" yaml:"title"`
	UnitType   string  `json:"unit_type" yaml:"unit_type"`
	UnitNumber string  `json:"unit_number" yaml:"unit_number"`
	Snippet    string  `json:"snippet" yaml:"snippet"`
	Score      float64 `json:"score" yaml:"score"`
}

// Search runs an FTS5 match over unit content ranked by bm25, joined
// back to document metadata.
func (s *Store) Search(ctx context.Context, query string, opts QueryOptions) ([]SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("empty search query")
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = s.maxResults
	}

	q := `SELECT d.id, d.site, d.norm_type, d.norm_number, d.title,
			u.unit_type, u.number,
			snippet(units_fts, 0, '[', ']', '…', 12),
			bm25(units_fts)
		FROM units_fts
		JOIN units u ON u.rowid = units_fts.rowid
		JOIN documents d ON d.id = u.document_id
		WHERE units_fts MATCH ?`
	args := []any{query}

	if opts.Site != "" {
		q += ` AND d.site = ?`
		args = append(args, opts.Site)
	}
	if opts.NormType != "" {
		q += ` AND d.norm_type = ?`
		args = append(args, opts.NormType)
	}
	q += ` ORDER BY bm25(units_fts) LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("searching catalog: %w", err)
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var r SearchResult
		if err := rows.Scan(&r.DocumentID, &r.Site, &r.NormType, &r.NormNumber,
			&r.Title, &r.UnitType, &r.UnitNumber, &r.Snippet, &r.Score); err != nil {
			return nil, fmt.Errorf("scanning search result: %w", err)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// DocumentSummary is one catalog document row for listings and export.
type DocumentSummary struct {
	ID         string   `json:"id" yaml:"id"`
	Site       string   `json:"site" yaml:"site"`
	NormType   string   `json:"norm_type" yaml:"norm_type"`
	NormNumber string   `json:"norm_number" yaml:"norm_number"`
	Date       string   `json:"date" yaml:"date"`
	Title      string   `json:"title" yaml:"title"`
	Sumilla    string   `json:"sumilla" yaml:"sumilla"`
	Validity   string   `json:"validity" yaml:"validity"`
	Rank       int      `json:"rank" yaml:"rank"`
	Areas      []string `json:"areas" yaml:"areas"`
	UnitCount  int      `json:"unit_count" yaml:"unit_count"`
}

// Documents lists the catalog's documents, optionally filtered by site,
// ordered by hierarchy rank then date.
func (s *Store) Documents(ctx context.Context, site string) ([]DocumentSummary, error) {
	q := `SELECT d.id, d.site, d.norm_type, d.norm_number, d.date, d.title,
			d.sumilla, d.validity, d.rank, d.areas,
			(SELECT count(*) FROM units u WHERE u.document_id = d.id)
		FROM documents d`
	var args []any
	if site != "" {
		q += ` WHERE d.site = ?`
		args = append(args, site)
	}
	q += ` ORDER BY d.rank, d.date, d.id`

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("listing catalog documents: %w", err)
	}
	defer rows.Close()

	var out []DocumentSummary
	for rows.Next() {
		var (
			d     DocumentSummary
			areas sql.NullString
		)
		if err := rows.Scan(&d.ID, &d.Site, &d.NormType, &d.NormNumber, &d.Date,
			&d.Title, &d.Sumilla, &d.Validity, &d.Rank, &areas, &d.UnitCount); err != nil {
			return nil, fmt.Errorf("scanning catalog document: %w", err)
		}
		if areas.Valid && areas.String != "" {
			if err := json.Unmarshal([]byte(areas.String), &d.Areas); err != nil {
				return nil, fmt.Errorf("decoding areas for %s: %w", d.ID, err)
			}
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// Export writes the document summaries for a site (or all sites when
// empty) to w in the requested format, "yaml" or "json".
func (s *Store) Export(ctx context.Context, w io.Writer, site, format string) error {
	docs, err := s.Documents(ctx, site)
	if err != nil {
		return err
	}

	switch format {
	case "yaml", "":
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(docs)
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(docs)
	default:
		return fmt.Errorf("unknown export format %q", format)
	}
}
