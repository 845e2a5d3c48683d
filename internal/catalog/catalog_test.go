// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/gaceta-engine/pkg/types"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(types.CatalogConfig{Dir: t.TempDir(), MaxResults: 20})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func ley843Record() (types.OutputRecord, *types.NormativeUnit) {
	tree := &types.NormativeUnit{
		Type:    types.UnitDocument,
		Content: "LEY N° 843",
		Children: []*types.NormativeUnit{
			{
				Type: types.UnitChapter, Number: "I", Content: "OBJETO",
				Children: []*types.NormativeUnit{
					{Type: types.UnitArticle, Number: "1", Title: "OBJETO",
						Content: "Créase un impuesto sobre el valor agregado."},
					{Type: types.UnitArticle, Number: "2",
						Content: "Se considera venta toda transferencia onerosa."},
				},
			},
		},
	}
	rec := types.OutputRecord{
		IDDocumento:   "ley-843-1986-05-20",
		Site:          "gaceta",
		TipoDocumento: "Ley",
		NumeroNorma:   "843",
		Fecha:         "1986-05-20",
		Titulo:        "Ley de Reforma Tributaria",
		Sumilla:       "Créase el IVA.",
		HashContenido: "hash-v1",
		Metadata: types.DocumentMetadata{
			ValidityStatus: types.ValidityActive,
			HierarchyRank:  2,
			LegalAreas:     []string{"tributario"},
		},
		FechaScraping: time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC),
	}
	return rec, tree
}

func TestStoreAndSearch(t *testing.T) {
	s := testStore(t)
	rec, tree := ley843Record()

	stored, err := s.Store(context.Background(), rec, tree)
	require.NoError(t, err)
	assert.True(t, stored)

	results, err := s.Search(context.Background(), "impuesto", QueryOptions{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "ley-843-1986-05-20", results[0].DocumentID)
	assert.Equal(t, "article", results[0].UnitType)
	assert.Equal(t, "1", results[0].UnitNumber)
	assert.Contains(t, results[0].Snippet, "impuesto")
}

func TestStoreSkipsUnchanged(t *testing.T) {
	s := testStore(t)
	rec, tree := ley843Record()

	stored, err := s.Store(context.Background(), rec, tree)
	require.NoError(t, err)
	assert.True(t, stored)

	// Same hash: no write.
	stored, err = s.Store(context.Background(), rec, tree)
	require.NoError(t, err)
	assert.False(t, stored)

	// Changed hash: units replaced, not duplicated.
	rec.HashContenido = "hash-v2"
	stored, err = s.Store(context.Background(), rec, tree)
	require.NoError(t, err)
	assert.True(t, stored)

	docs, err := s.Documents(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, 4, docs[0].UnitCount) // root + chapter + 2 articles
}

func TestSearchFilters(t *testing.T) {
	s := testStore(t)
	rec, tree := ley843Record()
	_, err := s.Store(context.Background(), rec, tree)
	require.NoError(t, err)

	other := rec
	other.IDDocumento = "decreto-supremo-21530-1987-02-27"
	other.Site = "senado"
	other.TipoDocumento = "Decreto Supremo"
	otherTree := &types.NormativeUnit{
		Type: types.UnitDocument,
		Children: []*types.NormativeUnit{
			{Type: types.UnitArticle, Number: "1", Content: "Reglamenta el impuesto al valor agregado."},
		},
	}
	_, err = s.Store(context.Background(), other, otherTree)
	require.NoError(t, err)

	all, err := s.Search(context.Background(), "impuesto", QueryOptions{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	bySite, err := s.Search(context.Background(), "impuesto", QueryOptions{Site: "senado"})
	require.NoError(t, err)
	require.Len(t, bySite, 1)
	assert.Equal(t, "senado", bySite[0].Site)

	byType, err := s.Search(context.Background(), "impuesto", QueryOptions{NormType: "Ley"})
	require.NoError(t, err)
	for _, r := range byType {
		assert.Equal(t, "Ley", r.NormType)
	}

	limited, err := s.Search(context.Background(), "impuesto", QueryOptions{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestSearchEmptyQuery(t *testing.T) {
	s := testStore(t)
	_, err := s.Search(context.Background(), "   ", QueryOptions{})
	assert.Error(t, err)
}

func TestDocumentsOrderedByRank(t *testing.T) {
	s := testStore(t)

	rec, tree := ley843Record()
	_, err := s.Store(context.Background(), rec, tree)
	require.NoError(t, err)

	resol := rec
	resol.IDDocumento = "resolucion-ministerial-442-2019-03-15"
	resol.TipoDocumento = "Resolución Ministerial"
	resol.Metadata.HierarchyRank = 5
	_, err = s.Store(context.Background(), resol, tree)
	require.NoError(t, err)

	docs, err := s.Documents(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "ley-843-1986-05-20", docs[0].ID)
	assert.Equal(t, []string{"tributario"}, docs[0].Areas)
}

func TestExportFormats(t *testing.T) {
	s := testStore(t)
	rec, tree := ley843Record()
	_, err := s.Store(context.Background(), rec, tree)
	require.NoError(t, err)

	var yamlOut bytes.Buffer
	require.NoError(t, s.Export(context.Background(), &yamlOut, "", "yaml"))
	assert.Contains(t, yamlOut.String(), "ley-843-1986-05-20")

	var jsonOut bytes.Buffer
	require.NoError(t, s.Export(context.Background(), &jsonOut, "", "json"))
	assert.Contains(t, jsonOut.String(), "\"id\": \"ley-843-1986-05-20\"")

	assert.Error(t, s.Export(context.Background(), &bytes.Buffer{}, "", "xml"))
}
