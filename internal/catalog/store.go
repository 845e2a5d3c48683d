// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package catalog persists emitted documents and their normative units
// in a SQLite database with an FTS5 index, the queryable archive
// downstream consumers search.
package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/gaceta-engine/pkg/types"
)

const dbFile = "catalog.db"

// Store manages the catalog SQLite database.
type Store struct {
	db         *sql.DB
	maxResults int
}

// NewStore opens or creates the catalog database at cfg.Dir/catalog.db,
// creating the schema if needed.
func NewStore(cfg types.CatalogConfig) (*Store, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating catalog directory: %w", err)
	}

	dbPath := filepath.Join(cfg.Dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening catalog database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	s := &Store{db: db, maxResults: maxResults}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating catalog schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			id TEXT PRIMARY KEY,
			site TEXT NOT NULL,
			norm_type TEXT,
			norm_number TEXT,
			date TEXT,
			title TEXT,
			sumilla TEXT,
			hash TEXT NOT NULL,
			validity TEXT,
			rank INTEGER,
			areas TEXT,
			scraped_at TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS units (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			document_id TEXT NOT NULL REFERENCES documents(id),
			unit_type TEXT NOT NULL,
			number TEXT,
			title TEXT,
			content TEXT NOT NULL,
			position INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_units_document_id ON units(document_id)`,
		`CREATE INDEX IF NOT EXISTS idx_documents_site ON documents(site)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table with triggers for sync.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='units_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE units_fts USING fts5(content, content=units, content_rowid=rowid)`,
			`CREATE TRIGGER units_ai AFTER INSERT ON units BEGIN
				INSERT INTO units_fts(rowid, content) VALUES (new.rowid, new.content);
			END`,
			`CREATE TRIGGER units_ad AFTER DELETE ON units BEGIN
				INSERT INTO units_fts(units_fts, rowid, content) VALUES('delete', old.rowid, old.content);
			END`,
			`CREATE TRIGGER units_au AFTER UPDATE ON units BEGIN
				INSERT INTO units_fts(units_fts, rowid, content) VALUES('delete', old.rowid, old.content);
				INSERT INTO units_fts(rowid, content) VALUES (new.rowid, new.content);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}

	return nil
}

// Store upserts one emitted document and its flattened units. A
// document whose stored hash matches rec.HashContenido is left alone;
// the stored return value reports whether anything was written.
func (s *Store) Store(ctx context.Context, rec types.OutputRecord, tree *types.NormativeUnit) (stored bool, err error) {
	var existing string
	err = s.db.QueryRowContext(ctx,
		`SELECT hash FROM documents WHERE id = ?`, rec.IDDocumento,
	).Scan(&existing)
	if err == nil && existing == rec.HashContenido {
		return false, nil
	}
	if err != nil && err != sql.ErrNoRows {
		return false, fmt.Errorf("checking catalog entry %s: %w", rec.IDDocumento, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	// Replace old units before re-inserting.
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM units WHERE document_id = ?`, rec.IDDocumento); err != nil {
		return false, fmt.Errorf("deleting old units: %w", err)
	}

	areasJSON, _ := json.Marshal(rec.Metadata.LegalAreas)
	_, err = tx.ExecContext(ctx,
		`INSERT INTO documents (id, site, norm_type, norm_number, date, title, sumilla, hash, validity, rank, areas, scraped_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			site=excluded.site, norm_type=excluded.norm_type,
			norm_number=excluded.norm_number, date=excluded.date,
			title=excluded.title, sumilla=excluded.sumilla,
			hash=excluded.hash, validity=excluded.validity,
			rank=excluded.rank, areas=excluded.areas,
			scraped_at=excluded.scraped_at`,
		rec.IDDocumento, rec.Site, rec.TipoDocumento, rec.NumeroNorma,
		rec.Fecha, rec.Titulo, rec.Sumilla, rec.HashContenido,
		string(rec.Metadata.ValidityStatus), rec.Metadata.HierarchyRank,
		string(areasJSON), rec.FechaScraping.UTC().Format("2006-01-02T15:04:05Z"),
	)
	if err != nil {
		return false, fmt.Errorf("upserting document %s: %w", rec.IDDocumento, err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO units (document_id, unit_type, number, title, content, position)
		 VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return false, fmt.Errorf("preparing unit insert: %w", err)
	}
	defer stmt.Close()

	position := 0
	var walkErr error
	tree.Walk(func(u *types.NormativeUnit) {
		if walkErr != nil || u.Content == "" {
			return
		}
		if _, err := stmt.ExecContext(ctx,
			rec.IDDocumento, string(u.Type), u.Number, u.Title, u.Content, position,
		); err != nil {
			walkErr = fmt.Errorf("inserting unit %d: %w", position, err)
			return
		}
		position++
	})
	if walkErr != nil {
		return false, walkErr
	}

	return true, tx.Commit()
}
