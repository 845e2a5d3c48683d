// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// IndexStatus records how a document compared against the delta index
// on its most recent sighting.
type IndexStatus string

const (
	StatusNew       IndexStatus = "new"
	StatusModified  IndexStatus = "modified"
	StatusUnchanged IndexStatus = "unchanged"
)

// UnitType identifies a node kind in the parsed normative tree.
type UnitType string

const (
	UnitDocument  UnitType = "document"
	UnitChapter   UnitType = "chapter"
	UnitTitle     UnitType = "title"
	UnitSection   UnitType = "section"
	UnitArticle   UnitType = "article"
	UnitSubItem   UnitType = "sub_item"
	UnitParagraph UnitType = "paragraph"
)

// ValidityStatus is the force/validity state of a norm derived from
// lexical markers in its text.
type ValidityStatus string

const (
	ValidityActive   ValidityStatus = "active"
	ValidityAmended  ValidityStatus = "amended"
	ValidityRepealed ValidityStatus = "repealed"
)

// DocumentIdentity names one logical document within a site's index
// namespace. DocumentID is stable across runs for the same norm.
type DocumentIdentity struct {
	// SiteID identifies the publishing site (index namespace).
	SiteID string `json:"site_id" yaml:"site_id"`

	// DocumentID is derived from {norm type, number, publication date}
	// when known, otherwise from a hash of the source URL.
	DocumentID string `json:"document_id" yaml:"document_id"`
}

// IndexEntry is the persisted per-document record of the delta index.
type IndexEntry struct {
	// Hash is the content hash over the canonical field subset.
	Hash string `json:"hash" yaml:"hash"`

	// Title is the document title as last seen.
	Title string `json:"title" yaml:"title"`

	// Date is the publication date string as last seen.
	Date string `json:"date" yaml:"date"`

	// LastSeenAt is when the document was last sighted by a run.
	LastSeenAt time.Time `json:"last_seen_at" yaml:"last_seen_at"`

	// Status is the outcome of the last sighting: new, modified, or unchanged.
	Status IndexStatus `json:"status" yaml:"status"`

	// SourceURL is the document's source PDF URL.
	SourceURL string `json:"source_url" yaml:"source_url"`
}

// ExtractedDocument is the output of the text-extraction stage for one
// document. Confidence is populated only when OCR ran.
type ExtractedDocument struct {
	// PDFPath is the local filesystem path to the source PDF.
	PDFPath string `json:"pdf_path" yaml:"pdf_path"`

	// IsScanned reports whether the document required OCR.
	IsScanned bool `json:"is_scanned" yaml:"is_scanned"`

	// Text is the concatenated per-page text.
	Text string `json:"text" yaml:"text"`

	// Confidence is the mean per-page OCR confidence (0-100). Nil for
	// digitally extracted documents.
	Confidence *float64 `json:"confidence,omitempty" yaml:"confidence,omitempty"`

	// PageCount is the number of pages in the source PDF.
	PageCount int `json:"page_count" yaml:"page_count"`
}

// NormativeUnit is a node in the parsed legal structure tree. A parent's
// Content never duplicates the serialized content of its children, and
// Children preserves document order.
type NormativeUnit struct {
	// Type is the unit kind: document, chapter, title, section, article,
	// sub_item, or paragraph.
	Type UnitType `json:"unit_type" yaml:"unit_type"`

	// Number is the unit's own numeral as written (Arabic or Roman).
	// Empty for the document root.
	Number string `json:"number,omitempty" yaml:"number,omitempty"`

	// Title is the unit's heading title, when one was written
	// (e.g. the parenthesized title after an article marker).
	Title string `json:"title,omitempty" yaml:"title,omitempty"`

	// Content is the text belonging to this unit itself.
	Content string `json:"content" yaml:"content"`

	// Children are nested units in document order.
	Children []*NormativeUnit `json:"children,omitempty" yaml:"children,omitempty"`
}

// Walk visits the unit and all descendants depth-first in document order.
func (u *NormativeUnit) Walk(visit func(*NormativeUnit)) {
	if u == nil {
		return
	}
	visit(u)
	for _, c := range u.Children {
		c.Walk(visit)
	}
}

// Articles returns all article units in document order.
func (u *NormativeUnit) Articles() []*NormativeUnit {
	var out []*NormativeUnit
	u.Walk(func(n *NormativeUnit) {
		if n.Type == UnitArticle {
			out = append(out, n)
		}
	})
	return out
}

// TextStats summarizes the extracted text of a document.
type TextStats struct {
	CharCount    int `json:"char_count" yaml:"char_count"`
	WordCount    int `json:"word_count" yaml:"word_count"`
	ArticleCount int `json:"article_count" yaml:"article_count"`
}

// DocumentMetadata is the classified metadata for a parsed document.
type DocumentMetadata struct {
	// NormType is the legal instrument class (e.g. "Ley", "Decreto Supremo").
	NormType string `json:"norm_type" yaml:"norm_type"`

	// NormNumber is the instrument number as written (e.g. "843").
	NormNumber string `json:"norm_number" yaml:"norm_number"`

	// Date is the publication date string found in the header.
	Date string `json:"date" yaml:"date"`

	// Title is the document title.
	Title string `json:"title" yaml:"title"`

	// LegalAreas lists matched legal areas, or ["other"] when none matched.
	LegalAreas []string `json:"legal_areas" yaml:"legal_areas"`

	// HierarchyRank orders norm types by legal precedence (lower = higher
	// authority; unknown types rank 99).
	HierarchyRank int `json:"hierarchy_rank" yaml:"hierarchy_rank"`

	// ValidityStatus is active, amended, or repealed.
	ValidityStatus ValidityStatus `json:"validity_status" yaml:"validity_status"`

	// Modifies lists raw norm numbers referenced after a "modifica" verb.
	Modifies []string `json:"modifies,omitempty" yaml:"modifies,omitempty"`

	// Repeals lists raw norm numbers referenced after a "deroga" verb.
	Repeals []string `json:"repeals,omitempty" yaml:"repeals,omitempty"`

	// Stats summarizes the document text.
	Stats TextStats `json:"stats" yaml:"stats"`
}

// ArticleRecord is the flattened article representation carried by an
// OutputRecord for downstream writers.
type ArticleRecord struct {
	Numero    string `json:"numero"`
	Titulo    string `json:"titulo,omitempty"`
	Contenido string `json:"contenido"`
}

// OutputRecord is the stable contract handed to downstream exporters.
// Field names and nesting must not change without a version bump.
type OutputRecord struct {
	IDDocumento   string           `json:"id_documento"`
	Site          string           `json:"site"`
	TipoDocumento string           `json:"tipo_documento"`
	NumeroNorma   string           `json:"numero_norma"`
	Fecha         string           `json:"fecha"`
	Titulo        string           `json:"titulo"`
	Sumilla       string           `json:"sumilla"`
	TextoCompleto string           `json:"texto_completo"`
	Articulos     []ArticleRecord  `json:"articulos"`
	Metadata      DocumentMetadata `json:"metadata"`
	HashContenido string           `json:"hash_contenido"`
	FechaScraping time.Time        `json:"fecha_scraping"`
}
