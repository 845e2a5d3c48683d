// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "gaceta-engine/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// ClassifierConfig holds thresholds for digital-vs-scanned detection.
// The defaults come straight from the production heuristic; they were
// never tuned against a labeled corpus.
type ClassifierConfig struct {
	// MinChars is the minimum count of non-whitespace characters the
	// first page must yield for a document to count as digital (default 100).
	MinChars int `json:"min_chars" yaml:"min_chars"`

	// MinAlnumRatio is the minimum ratio of alphanumeric to total
	// extracted characters for a digital classification (default 0.5).
	MinAlnumRatio float64 `json:"min_alnum_ratio" yaml:"min_alnum_ratio"`
}

// WithDefaults fills zero values with the documented defaults.
func (c ClassifierConfig) WithDefaults() ClassifierConfig {
	if c.MinChars <= 0 {
		c.MinChars = 100
	}
	if c.MinAlnumRatio <= 0 {
		c.MinAlnumRatio = 0.5
	}
	return c
}

// OCRConfig holds settings for the OCR engine.
type OCRConfig struct {
	// Lang is the OCR language model (default "spa").
	Lang string `json:"lang" yaml:"lang"`

	// DPI is the rasterization resolution for scanned pages (default 300).
	DPI int `json:"dpi" yaml:"dpi"`

	// Workers caps concurrent OCR invocations across the whole run.
	// OCR is far heavier than network fetches, so it is sized
	// independently of site concurrency (default 2).
	Workers int `json:"workers" yaml:"workers"`
}

// WithDefaults fills zero values with the documented defaults.
func (c OCRConfig) WithDefaults() OCRConfig {
	if c.Lang == "" {
		c.Lang = "spa"
	}
	if c.DPI <= 0 {
		c.DPI = 300
	}
	if c.Workers <= 0 {
		c.Workers = 2
	}
	return c
}

// ParserConfig holds settings for the structural parser.
type ParserConfig struct {
	// HeaderLines is how many leading lines header-metadata extraction
	// scans (default 50).
	HeaderLines int `json:"header_lines" yaml:"header_lines"`

	// SumillaMaxChars caps the auto-generated summary length (default 300).
	SumillaMaxChars int `json:"sumilla_max_chars" yaml:"sumilla_max_chars"`
}

// WithDefaults fills zero values with the documented defaults.
func (c ParserConfig) WithDefaults() ParserConfig {
	if c.HeaderLines <= 0 {
		c.HeaderLines = 50
	}
	if c.SumillaMaxChars <= 0 {
		c.SumillaMaxChars = 300
	}
	return c
}

// IndexConfig holds settings for the delta index store.
type IndexConfig struct {
	// Dir is the directory holding one JSON index file per site.
	Dir string `json:"dir" yaml:"dir"`
}

// CatalogConfig holds settings for the SQLite catalog store.
type CatalogConfig struct {
	// Dir is the directory holding the catalog database.
	Dir string `json:"dir" yaml:"dir"`

	// MaxResults is the default maximum number of search results (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// SiteConfig describes one publishing site processed by the pipeline.
type SiteConfig struct {
	// ID is the site identifier (index namespace).
	ID string `json:"id" yaml:"id"`

	// ListingDir is the local drop directory scanned by the directory
	// adapter for candidate PDFs and optional YAML sidecars.
	ListingDir string `json:"listing_dir" yaml:"listing_dir"`

	// Manifest is the path to a YAML manifest of remote PDF URLs. When
	// set, the site uses the remote adapter instead of ListingDir.
	Manifest string `json:"manifest" yaml:"manifest"`

	// CacheDir holds PDFs downloaded by the remote adapter
	// (default "data/cache/<site id>").
	CacheDir string `json:"cache_dir" yaml:"cache_dir"`

	// Concurrency bounds concurrent document processing within this
	// site (default 4). Sites themselves run in parallel.
	Concurrency int `json:"concurrency" yaml:"concurrency"`
}

// PipelineConfig groups settings for a full pipeline run.
type PipelineConfig struct {
	HTTPConfig `yaml:",inline"`

	// Sites lists the sites to process.
	Sites []SiteConfig `json:"sites" yaml:"sites"`

	// Classifier holds scanned-detection thresholds.
	Classifier ClassifierConfig `json:"classifier" yaml:"classifier"`

	// OCR holds OCR engine settings.
	OCR OCRConfig `json:"ocr" yaml:"ocr"`

	// Parser holds structural parser settings.
	Parser ParserConfig `json:"parser" yaml:"parser"`

	// Index holds delta index settings.
	Index IndexConfig `json:"index" yaml:"index"`

	// Catalog holds catalog store settings.
	Catalog CatalogConfig `json:"catalog" yaml:"catalog"`

	// ExportDir is the directory for emitted output records.
	ExportDir string `json:"export_dir" yaml:"export_dir"`

	// NetworkTimeout bounds the fetch portion of one document's
	// processing (default 60s).
	NetworkTimeout time.Duration `json:"network_timeout" yaml:"network_timeout"`

	// OCRTimeout bounds the OCR portion of one document's processing
	// (default 120s). The per-document ceiling is the sum of both.
	OCRTimeout time.Duration `json:"ocr_timeout" yaml:"ocr_timeout"`
}

// WithDefaults fills zero values with the documented defaults across
// all nested stage configs.
func (c PipelineConfig) WithDefaults() PipelineConfig {
	if c.Timeout == 0 {
		c.Timeout = 60 * time.Second
	}
	if c.UserAgent == "" {
		c.UserAgent = "gaceta-engine/0.1"
	}
	c.Classifier = c.Classifier.WithDefaults()
	c.OCR = c.OCR.WithDefaults()
	c.Parser = c.Parser.WithDefaults()
	if c.Index.Dir == "" {
		c.Index.Dir = "data/index"
	}
	if c.Catalog.Dir == "" {
		c.Catalog.Dir = "data/catalog"
	}
	if c.Catalog.MaxResults <= 0 {
		c.Catalog.MaxResults = 20
	}
	if c.ExportDir == "" {
		c.ExportDir = "data/export"
	}
	if c.NetworkTimeout == 0 {
		c.NetworkTimeout = 60 * time.Second
	}
	if c.OCRTimeout == 0 {
		c.OCRTimeout = 120 * time.Second
	}
	for i := range c.Sites {
		if c.Sites[i].Concurrency <= 0 {
			c.Sites[i].Concurrency = 4
		}
		if c.Sites[i].CacheDir == "" {
			c.Sites[i].CacheDir = "data/cache/" + c.Sites[i].ID
		}
	}
	return c
}
