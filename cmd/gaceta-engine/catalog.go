// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/gaceta-engine/internal/catalog"
	"github.com/pdiddy/gaceta-engine/internal/parse"
	"github.com/pdiddy/gaceta-engine/pkg/types"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Search and export the archived normative units",
	Long: `Catalog queries the SQLite archive the pipeline maintains alongside
its JSON exports. Search runs FTS5 full-text queries over article and
section content; export dumps the document summaries; ingest rebuilds
the archive from previously exported records.`,
}

var catalogSearchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Full-text search over stored normative units",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runCatalogSearch,
}

func runCatalogSearch(cmd *cobra.Command, args []string) error {
	cfg, err := loadPipelineConfig()
	if err != nil {
		return err
	}

	store, err := catalog.NewStore(cfg.Catalog)
	if err != nil {
		return err
	}
	defer store.Close()

	site, _ := cmd.Flags().GetString("site")
	normType, _ := cmd.Flags().GetString("type")
	limit, _ := cmd.Flags().GetInt("limit")

	results, err := store.Search(context.Background(), strings.Join(args, " "), catalog.QueryOptions{
		Site:     site,
		NormType: normType,
		Limit:    limit,
	})
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Println("No results found.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-4s  %-30s  %-10s  %-6s  %s\n",
		"Rank", "Document", "Unit", "Number", "Snippet")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 100))

	for i, r := range results {
		doc := r.DocumentID
		if len(doc) > 30 {
			doc = doc[:27] + "..."
		}
		snippet := strings.ReplaceAll(r.Snippet, "\n", " ")
		if len(snippet) > 44 {
			snippet = snippet[:41] + "..."
		}
		fmt.Fprintf(os.Stdout, "%-4d  %-30s  %-10s  %-6s  %s\n",
			i+1, doc, r.UnitType, r.UnitNumber, snippet)
	}

	fmt.Fprintf(os.Stdout, "\n%d results\n", len(results))
	return nil
}

var catalogExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export catalog document summaries to YAML or JSON",
	RunE:  runCatalogExport,
}

func runCatalogExport(cmd *cobra.Command, args []string) error {
	cfg, err := loadPipelineConfig()
	if err != nil {
		return err
	}

	store, err := catalog.NewStore(cfg.Catalog)
	if err != nil {
		return err
	}
	defer store.Close()

	site, _ := cmd.Flags().GetString("site")
	format, _ := cmd.Flags().GetString("format")
	return store.Export(context.Background(), os.Stdout, site, format)
}

var catalogIngestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Rebuild the catalog from previously exported records",
	Long: `Ingest reads the JSON records under the export directory and stores
them in the catalog, re-parsing each document's full text to recover
its unit tree. Records whose content hash already matches the catalog
are skipped, so re-running is cheap.`,
	RunE: runCatalogIngest,
}

func runCatalogIngest(cmd *cobra.Command, args []string) error {
	cfg, err := loadPipelineConfig()
	if err != nil {
		return err
	}

	store, err := catalog.NewStore(cfg.Catalog)
	if err != nil {
		return err
	}
	defer store.Close()

	site, _ := cmd.Flags().GetString("site")
	pattern := filepath.Join(cfg.ExportDir, "*", "*.json")
	if site != "" {
		pattern = filepath.Join(cfg.ExportDir, site, "*.json")
	}
	paths, err := filepath.Glob(pattern)
	if err != nil {
		return err
	}
	sort.Strings(paths)

	parser := parse.NewParser(cfg.Parser)
	stored, unchanged := 0, 0
	for _, path := range paths {
		raw, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		var rec types.OutputRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return fmt.Errorf("decoding %s: %w", path, err)
		}

		tree := parser.Parse(rec.TextoCompleto)
		ok, err := store.Store(context.Background(), rec, tree)
		if err != nil {
			return fmt.Errorf("storing %s: %w", rec.IDDocumento, err)
		}
		if ok {
			stored++
		} else {
			unchanged++
		}
	}

	fmt.Printf("%d record(s) stored, %d unchanged\n", stored, unchanged)
	return nil
}

func init() {
	catalogSearchCmd.Flags().String("site", "", "filter by site")
	catalogSearchCmd.Flags().String("type", "", "filter by norm type (e.g. \"Ley\", \"Decreto Supremo\")")
	catalogSearchCmd.Flags().Int("limit", 0, "maximum results (0 = use default)")
	catalogSearchCmd.Flags().Bool("json", false, "output results as JSON")

	catalogExportCmd.Flags().String("site", "", "filter by site")
	catalogExportCmd.Flags().String("format", "yaml", "export format: yaml or json")

	catalogIngestCmd.Flags().String("site", "", "ingest only the named site's records")

	catalogCmd.AddCommand(catalogSearchCmd)
	catalogCmd.AddCommand(catalogExportCmd)
	catalogCmd.AddCommand(catalogIngestCmd)
	rootCmd.AddCommand(catalogCmd)
}
