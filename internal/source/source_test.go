// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestDirectoryList(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "zeta.pdf", "%PDF")
	writeFile(t, dir, "alpha.pdf", "%PDF")
	writeFile(t, dir, "notas.txt", "ignorado")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))

	d := NewDirectory("gaceta", dir)
	assert.Equal(t, "gaceta", d.SiteID())

	candidates, err := d.List(context.Background())
	require.NoError(t, err)
	require.Len(t, candidates, 2)

	// Deterministic filename order, non-PDFs and directories skipped.
	assert.Equal(t, "alpha", candidates[0].RawTitle)
	assert.Equal(t, "zeta", candidates[1].RawTitle)

	// Without a sidecar the local path doubles as the source reference.
	assert.Equal(t, filepath.Join(dir, "alpha.pdf"), candidates[0].SourceURL)
}

func TestDirectorySidecar(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "ley-843.pdf", "%PDF")
	writeFile(t, dir, "ley-843.yaml", `title: Ley de Reforma Tributaria
source_url: https://gaceta.example/ley-843.pdf
meta:
  gaceta: "1463"
`)

	d := NewDirectory("gaceta", dir)
	candidates, err := d.List(context.Background())
	require.NoError(t, err)
	require.Len(t, candidates, 1)

	c := candidates[0]
	assert.Equal(t, "Ley de Reforma Tributaria", c.RawTitle)
	assert.Equal(t, "https://gaceta.example/ley-843.pdf", c.SourceURL)
	assert.Equal(t, "1463", c.ListingMeta["gaceta"])

	// Fetch still resolves to the local file.
	path, err := d.Fetch(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "ley-843.pdf"), path)
}

func TestDirectoryBadSidecar(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "doc.pdf", "%PDF")
	writeFile(t, dir, "doc.yaml", "title: [unclosed")

	d := NewDirectory("gaceta", dir)
	_, err := d.List(context.Background())
	assert.Error(t, err)
}

func TestDirectoryFetchMissingFile(t *testing.T) {
	d := NewDirectory("gaceta", t.TempDir())
	_, err := d.Fetch(context.Background(), Candidate{
		SourceURL:   "https://x/doc.pdf",
		ListingMeta: map[string]string{"local_path": "/nonexistent/doc.pdf"},
	})
	assert.Error(t, err)
}

func TestFakeRoundTrip(t *testing.T) {
	dir := t.TempDir()
	f := NewFake("demo", dir, []FakeDocument{
		{URL: "https://demo/a.pdf", Title: "Documento A", Text: "LEY N° 1\nTexto A."},
		{URL: "https://demo/b.pdf", Title: "Documento B", Text: "LEY N° 2\nTexto B."},
	})

	candidates, err := f.List(context.Background())
	require.NoError(t, err)
	require.Len(t, candidates, 2)
	assert.Equal(t, "https://demo/a.pdf", candidates[0].SourceURL)

	path, err := f.Fetch(context.Background(), candidates[1])
	require.NoError(t, err)

	doc, err := f.Extract(context.Background(), path, nil)
	require.NoError(t, err)
	assert.Equal(t, "LEY N° 2\nTexto B.", doc.Text)
	assert.False(t, doc.IsScanned)
	assert.Nil(t, doc.Confidence)
}

// Listing the fake twice yields identical candidates, so identity
// derivation is stable across runs.
func TestFakeDeterministic(t *testing.T) {
	f := NewFake("demo", t.TempDir(), []FakeDocument{
		{URL: "https://demo/a.pdf", Title: "A", Text: "x"},
	})

	first, err := f.List(context.Background())
	require.NoError(t, err)
	second, err := f.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestFakeUnknownCandidate(t *testing.T) {
	f := NewFake("demo", t.TempDir(), nil)
	_, err := f.Fetch(context.Background(), Candidate{SourceURL: "https://demo/ghost.pdf"})
	assert.Error(t, err)
}
