// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/gaceta-engine/internal/index"
	"github.com/pdiddy/gaceta-engine/pkg/types"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Inspect and maintain the per-site delta indexes",
}

var indexStatsCmd = &cobra.Command{
	Use:   "stats <site>",
	Short: "Print summary counts for a site's delta index",
	Args:  cobra.ExactArgs(1),
	RunE:  runIndexStats,
}

func runIndexStats(cmd *cobra.Command, args []string) error {
	cfg, err := loadPipelineConfig()
	if err != nil {
		return err
	}

	idx, err := index.Open(cfg.Index.Dir, args[0])
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	stats := idx.Stats()
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	}

	fmt.Printf("Site:        %s\n", stats.SiteID)
	fmt.Printf("Documents:   %d\n", stats.TotalDocuments)
	fmt.Printf("  new:       %d\n", stats.New)
	fmt.Printf("  modified:  %d\n", stats.Modified)
	fmt.Printf("  unchanged: %d\n", stats.Unchanged)
	if !stats.LastUpdate.IsZero() {
		fmt.Printf("Last update: %s\n", stats.LastUpdate.Format("2006-01-02 15:04:05 MST"))
	}
	return nil
}

var indexPruneCmd = &cobra.Command{
	Use:   "prune <site>",
	Short: "Remove index entries whose local source files no longer exist",
	Long: `Prune walks a site's index and drops entries whose source is a local
file path that no longer exists. Entries with remote URLs are never
pruned automatically; the index deliberately retains documents a site
stops listing. Use --dry-run to preview.`,
	Args: cobra.ExactArgs(1),
	RunE: runIndexPrune,
}

func runIndexPrune(cmd *cobra.Command, args []string) error {
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	cfg, err := loadPipelineConfig()
	if err != nil {
		return err
	}

	idx, err := index.Open(cfg.Index.Dir, args[0])
	if err != nil {
		return err
	}

	gone := func(_ string, entry types.IndexEntry) bool {
		if entry.SourceURL == "" {
			return false
		}
		if u, err := url.Parse(entry.SourceURL); err == nil && u.Scheme != "" {
			return false
		}
		_, statErr := os.Stat(entry.SourceURL)
		return os.IsNotExist(statErr)
	}

	if dryRun {
		count := 0
		for id, entry := range idx.Entries() {
			if gone(id, entry) {
				fmt.Printf("would prune: %s (%s)\n", id, entry.SourceURL)
				count++
			}
		}
		fmt.Printf("%d entr(ies) would be pruned\n", count)
		return nil
	}

	removed, err := idx.Prune(gone)
	if err != nil {
		return err
	}
	for _, id := range removed {
		fmt.Printf("pruned: %s\n", id)
	}
	fmt.Printf("%d entr(ies) pruned\n", len(removed))
	return nil
}

func init() {
	indexStatsCmd.Flags().Bool("json", false, "output stats as JSON")
	indexPruneCmd.Flags().Bool("dry-run", false, "list what would be pruned without writing")

	indexCmd.AddCommand(indexStatsCmd)
	indexCmd.AddCommand(indexPruneCmd)
	rootCmd.AddCommand(indexCmd)
}
