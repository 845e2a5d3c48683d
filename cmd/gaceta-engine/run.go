// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/gaceta-engine/internal/catalog"
	"github.com/pdiddy/gaceta-engine/internal/extract"
	"github.com/pdiddy/gaceta-engine/internal/ocr"
	"github.com/pdiddy/gaceta-engine/internal/pdftool"
	"github.com/pdiddy/gaceta-engine/internal/pipeline"
	"github.com/pdiddy/gaceta-engine/internal/source"
	"github.com/pdiddy/gaceta-engine/pkg/types"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute the ingestion pipeline over the configured sites",
	Long: `Run processes every configured site: lists candidate PDFs, extracts
and normalizes their text, parses the legal structure, classifies
metadata, and emits JSON records for documents that are new or modified
since the last run. Unchanged documents are re-sighted in the index but
never re-emitted.

With --demo the pipeline runs against a built-in synthetic site instead
of the configured ones, touching neither poppler nor tesseract.`,
	RunE: runPipeline,
}

func runPipeline(cmd *cobra.Command, args []string) error {
	demo, _ := cmd.Flags().GetBool("demo")
	siteFilter, _ := cmd.Flags().GetString("site")
	noCatalog, _ := cmd.Flags().GetBool("no-catalog")

	cfg, err := loadPipelineConfig()
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	var cat pipeline.Cataloger
	if !noCatalog {
		store, err := catalog.NewStore(cfg.Catalog)
		if err != nil {
			return err
		}
		defer store.Close()
		cat = store
	}

	var (
		listings  []source.Listing
		extractor pipeline.Extractor
	)
	if demo {
		fake := demoSource(cfg)
		listings = []source.Listing{fake}
		extractor = fake
	} else {
		client := &http.Client{Timeout: cfg.Timeout}
		for _, site := range cfg.Sites {
			if siteFilter != "" && site.ID != siteFilter {
				continue
			}
			if site.Manifest != "" {
				listings = append(listings, source.NewRemote(site.ID, site.Manifest, site.CacheDir, client))
				continue
			}
			listings = append(listings, source.NewDirectory(site.ID, site.ListingDir))
		}
		if len(listings) == 0 {
			return fmt.Errorf("no sites to process: check configuration and --site filter")
		}
		extractor = extract.New(pdftool.New(), ocr.New(), cfg.Classifier, cfg.OCR)
	}

	p := pipeline.New(cfg, extractor, cat, logger)
	summaries := p.Run(context.Background(), listings, os.Stdout)

	failures := 0
	for _, s := range summaries {
		failures += len(s.Errors)
	}
	if failures > 0 {
		return fmt.Errorf("%d document(s) failed", failures)
	}
	return nil
}

// loadPipelineConfig materializes the pipeline configuration from viper
// with defaults applied.
func loadPipelineConfig() (types.PipelineConfig, error) {
	var cfg types.PipelineConfig
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding configuration: %w", err)
	}
	return cfg.WithDefaults(), nil
}

// demoSource builds the synthetic site used by --demo runs.
func demoSource(cfg types.PipelineConfig) *source.Fake {
	dir := filepath.Join(os.TempDir(), "gaceta-engine-demo")
	return source.NewFake("demo", dir, []source.FakeDocument{
		{
			URL:   "https://demo.example/ley-843.pdf",
			Title: "Ley de Reforma Tributaria",
			Text: `LEY N° 843
LEY DE 20 DE MAYO DE 1986
LEY DE REFORMA TRIBUTARIA

TÍTULO I
IMPUESTO AL VALOR AGREGADO

CAPÍTULO I
OBJETO, SUJETO, NACIMIENTO DEL HECHO IMPONIBLE

ARTÍCULO 1.- (OBJETO) Créase en todo el territorio nacional un impuesto
que se denominará Impuesto al Valor Agregado.

ARTÍCULO 2.- A los fines de esta Ley se considera venta toda
transferencia a título oneroso que importe la transmisión del dominio
de cosas muebles.`,
		},
		{
			URL:   "https://demo.example/ds-24051.pdf",
			Title: "Reglamento del Impuesto sobre las Utilidades",
			Text: `DECRETO SUPREMO N° 24051
29 de junio de 1995

CONSIDERANDO:
Que la Ley N° 843 establece el régimen tributario nacional.

POR TANTO:

ARTÍCULO 1.- (OBJETO) Reglaméntase el Impuesto sobre las Utilidades de
las Empresas. Esta norma modifica el Decreto Supremo N° 21530.`,
		},
	})
}

func init() {
	runCmd.Flags().Bool("demo", false, "run against a built-in synthetic site")
	runCmd.Flags().String("site", "", "process only the named site")
	runCmd.Flags().Bool("no-catalog", false, "skip catalog ingestion of emitted records")

	rootCmd.AddCommand(runCmd)
}
