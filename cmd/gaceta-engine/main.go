// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the gaceta-engine CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the gaceta-engine CLI.
var rootCmd = &cobra.Command{
	Use:   "gaceta-engine",
	Short: "Incremental ingestion and structuring of Bolivian legal gazettes",
	Long: `gaceta-engine turns published legal PDFs into structured, queryable
records. Each run lists a site's candidate documents, extracts their text
(with OCR fallback for scanned gazettes), parses the legal structure,
classifies metadata, and emits only documents that are new or changed
since the last run.

Each stage of the lifecycle is a subcommand: run executes the pipeline,
index inspects and prunes the per-site delta indexes, and catalog
searches the archived normative units.`,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./gaceta-engine.yaml or ~/.config/gaceta-engine/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("gaceta-engine")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "gaceta-engine"))
		}
	}

	viper.SetEnvPrefix("GACETA_ENGINE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
