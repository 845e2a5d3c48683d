// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package index maintains the durable per-site delta index that decides
// whether a sighted document is new, modified, or unchanged since the
// last run.
package index

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pdiddy/gaceta-engine/pkg/types"
)

// ErrCorrupt reports an index file that exists but cannot be decoded.
// This is fatal for the owning site's run; other sites are unaffected.
var ErrCorrupt = errors.New("index file corrupt")

// siteFile is the on-disk JSON layout, one file per site. The layout is
// a downstream contract: it must remain valid JSON after every write.
type siteFile struct {
	Documents      map[string]types.IndexEntry `json:"documents"`
	LastUpdate     time.Time                   `json:"last_update"`
	TotalDocuments int                         `json:"total_documents"`
}

// Index is the delta index for one site. All mutation is serialized
// through a single mutex: upserts for distinct identities may arrive
// from any worker, and each upsert persists atomically before
// returning.
type Index struct {
	mu     sync.Mutex
	path   string
	siteID string
	data   siteFile
}

// Stats summarizes an index.
type Stats struct {
	SiteID         string    `json:"site_id"`
	TotalDocuments int       `json:"total_documents"`
	New            int       `json:"new"`
	Modified       int       `json:"modified"`
	Unchanged      int       `json:"unchanged"`
	LastUpdate     time.Time `json:"last_update"`
}

// Open loads the index for siteID from dir. A missing file yields an
// empty index, not an error; an unreadable one is ErrCorrupt.
func Open(dir, siteID string) (*Index, error) {
	idx := &Index{
		path:   filepath.Join(dir, siteID+".json"),
		siteID: siteID,
		data:   siteFile{Documents: map[string]types.IndexEntry{}},
	}

	raw, err := os.ReadFile(idx.path)
	if errors.Is(err, os.ErrNotExist) {
		return idx, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading index for site %s: %w", siteID, err)
	}
	if err := json.Unmarshal(raw, &idx.data); err != nil {
		return nil, fmt.Errorf("%w: site %s: %v", ErrCorrupt, siteID, err)
	}
	if idx.data.Documents == nil {
		idx.data.Documents = map[string]types.IndexEntry{}
	}
	return idx, nil
}

// Exists reports whether the identity has been sighted before.
func (x *Index) Exists(documentID string) bool {
	x.mu.Lock()
	defer x.mu.Unlock()
	_, ok := x.data.Documents[documentID]
	return ok
}

// GetHash returns the stored content hash for the identity, or empty
// when unseen.
func (x *Index) GetHash(documentID string) string {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.data.Documents[documentID].Hash
}

// HasChanged reports whether newHash differs from the stored hash. An
// unseen identity counts as changed.
func (x *Index) HasChanged(documentID, newHash string) bool {
	x.mu.Lock()
	defer x.mu.Unlock()
	entry, ok := x.data.Documents[documentID]
	return !ok || entry.Hash != newHash
}

// Resolve decides the index status for a sighting without mutating
// anything: new for unseen identities, modified on hash mismatch,
// unchanged otherwise.
func (x *Index) Resolve(documentID, newHash string) types.IndexStatus {
	x.mu.Lock()
	defer x.mu.Unlock()
	entry, ok := x.data.Documents[documentID]
	switch {
	case !ok:
		return types.StatusNew
	case entry.Hash != newHash:
		return types.StatusModified
	default:
		return types.StatusUnchanged
	}
}

// Upsert records a sighting and persists the whole index atomically.
// Entries are never removed here; pruning is an explicit operation.
func (x *Index) Upsert(documentID string, entry types.IndexEntry) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	x.data.Documents[documentID] = entry
	x.data.LastUpdate = time.Now().UTC()
	x.data.TotalDocuments = len(x.data.Documents)

	return x.persistLocked()
}

// Prune removes entries whose backing source no longer exists according
// to the caller's predicate, then persists. It returns the removed IDs.
func (x *Index) Prune(gone func(documentID string, entry types.IndexEntry) bool) ([]string, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	var removed []string
	for id, entry := range x.data.Documents {
		if gone(id, entry) {
			delete(x.data.Documents, id)
			removed = append(removed, id)
		}
	}
	if len(removed) == 0 {
		return nil, nil
	}

	x.data.LastUpdate = time.Now().UTC()
	x.data.TotalDocuments = len(x.data.Documents)
	return removed, x.persistLocked()
}

// Stats returns summary counts by last-sighting status.
func (x *Index) Stats() Stats {
	x.mu.Lock()
	defer x.mu.Unlock()

	s := Stats{
		SiteID:         x.siteID,
		TotalDocuments: len(x.data.Documents),
		LastUpdate:     x.data.LastUpdate,
	}
	for _, entry := range x.data.Documents {
		switch entry.Status {
		case types.StatusNew:
			s.New++
		case types.StatusModified:
			s.Modified++
		case types.StatusUnchanged:
			s.Unchanged++
		}
	}
	return s
}

// Entries returns a copy of the document map for read-only inspection.
func (x *Index) Entries() map[string]types.IndexEntry {
	x.mu.Lock()
	defer x.mu.Unlock()

	out := make(map[string]types.IndexEntry, len(x.data.Documents))
	for id, e := range x.data.Documents {
		out[id] = e
	}
	return out
}

// persistLocked writes the index to a temp file in the same directory
// and renames it over the target, so a crash mid-write never leaves a
// half-written index. Callers must hold x.mu.
func (x *Index) persistLocked() error {
	if err := os.MkdirAll(filepath.Dir(x.path), 0o755); err != nil {
		return fmt.Errorf("creating index directory: %w", err)
	}

	raw, err := json.MarshalIndent(x.data, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding index for site %s: %w", x.siteID, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(x.path), ".index-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp index file: %w", err)
	}
	tmpPath := tmp.Name()

	_, writeErr := tmp.Write(raw)
	closeErr := tmp.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing index for site %s: %w", x.siteID, writeErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp index file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, x.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replacing index for site %s: %w", x.siteID, err)
	}
	return nil
}
