// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package legalmeta derives classification metadata from parsed legal
// text: hierarchy rank, legal areas, force/validity status,
// modifies/repeals references, and an auto-generated summary.
package legalmeta

import (
	"regexp"
	"strings"

	"github.com/pdiddy/gaceta-engine/internal/parse"
	"github.com/pdiddy/gaceta-engine/pkg/types"
)

// unknownRank sorts unclassified norm types after every known one.
const unknownRank = 99

// hierarchyRanks orders norm types by legal precedence. Lower values
// carry higher authority.
var hierarchyRanks = map[string]int{
	"constitución política del estado":   1,
	"ley":                                2,
	"decreto ley":                        2,
	"decreto supremo":                    3,
	"resolución suprema":                 4,
	"resolución ministerial":             5,
	"resolución administrativa":          6,
	"resolución normativa de directorio": 6,
}

// areaVocabularies is the curated keyword bag per legal area. A
// document may match any number of areas; matching none yields "other".
var areaVocabularies = map[string][]string{
	"tributario": {
		"impuesto", "tributo", "tributari", "alícuota", "contribuyente",
		"gravamen", "arancel", "fiscal", "recaudación",
	},
	"penal": {
		"delito", "pena", "sanción penal", "penal", "criminal",
		"prisión", "reclusión",
	},
	"financiero": {
		"banco", "bancari", "financier", "crédito", "seguro",
		"valores", "bursátil", "entidad de intermediación",
	},
	"laboral": {
		"trabajador", "laboral", "empleador", "salario", "sindicat",
		"seguridad social", "aguinaldo",
	},
	"administrativo": {
		"administración pública", "servidor público", "procedimiento administrativo",
		"administrativ", "función pública",
	},
	"civil": {
		"contrato", "propiedad", "obligación civil", "sucesión",
		"registro civil", "matrimonio",
	},
	"constitucional": {
		"constitucional", "derechos fundamentales", "garantías",
		"tribunal constitucional",
	},
}

// Validity markers: a repeal marker anywhere beats an amendment marker.
var (
	repealMarker    = regexp.MustCompile(`(?i)\b(derogad|abrogad)`)
	amendmentMarker = regexp.MustCompile(`(?i)\bmodificad`)
)

// Cross-reference verbs followed by an instrument number. The captured
// number is returned raw; resolution to document identities is a
// downstream concern.
var (
	modifiesRef = regexp.MustCompile(
		`(?i)\bmodifica(?:n|ndo|r)?\s+(?:el|la|los|las)?\s*(?:Ley|Decreto\s+Supremo|Decreto\s+Ley|Resoluci[óo]n(?:\s+\w+)?)\s+(?:N[°º]|No\.?|Nro\.?)?\s*(\d+[\w\-/]*)`)
	repealsRef = regexp.MustCompile(
		`(?i)\b(?:deroga|abroga)(?:n|ndo|r)?\s+(?:el|la|los|las)?\s*(?:Ley|Decreto\s+Supremo|Decreto\s+Ley|Resoluci[óo]n(?:\s+\w+)?)\s+(?:N[°º]|No\.?|Nro\.?)?\s*(\d+[\w\-/]*)`)
)

// Classifier derives DocumentMetadata from text and header metadata.
type Classifier struct {
	cfg types.ParserConfig
}

// New creates a Classifier.
func New(cfg types.ParserConfig) *Classifier {
	return &Classifier{cfg: cfg.WithDefaults()}
}

// Classify runs all metadata derivations over the normalized text and
// the header extracted by the parser.
func (c *Classifier) Classify(text string, hdr parse.HeaderMetadata, tree *types.NormativeUnit) types.DocumentMetadata {
	md := types.DocumentMetadata{
		NormType:       hdr.NormType,
		NormNumber:     hdr.NormNumber,
		Date:           hdr.Date,
		Title:          hdr.Title,
		LegalAreas:     LegalAreas(text),
		HierarchyRank:  HierarchyRank(hdr.NormType),
		ValidityStatus: Validity(text),
		Modifies:       extractRefs(text, modifiesRef),
		Repeals:        extractRefs(text, repealsRef),
	}

	md.Stats = types.TextStats{
		CharCount: len([]rune(text)),
		WordCount: len(strings.Fields(text)),
	}
	if tree != nil {
		md.Stats.ArticleCount = len(tree.Articles())
	}
	return md
}

// HierarchyRank looks up the precedence rank for a norm type. Unknown
// types always rank last.
func HierarchyRank(normType string) int {
	if rank, ok := hierarchyRanks[strings.ToLower(strings.TrimSpace(normType))]; ok {
		return rank
	}
	return unknownRank
}

// LegalAreas matches the text against each area vocabulary and returns
// the matched areas sorted by vocabulary declaration; no match yields
// ["other"].
func LegalAreas(text string) []string {
	lower := strings.ToLower(text)

	var areas []string
	for _, area := range areaOrder {
		for _, kw := range areaVocabularies[area] {
			if strings.Contains(lower, kw) {
				areas = append(areas, area)
				break
			}
		}
	}
	if len(areas) == 0 {
		return []string{"other"}
	}
	return areas
}

// areaOrder fixes the output ordering of matched areas.
var areaOrder = []string{
	"tributario", "penal", "financiero", "laboral",
	"administrativo", "civil", "constitucional",
}

// Validity scans for explicit lexical force markers. Repeal markers
// take precedence over amendment markers when both appear.
func Validity(text string) types.ValidityStatus {
	if repealMarker.MatchString(text) {
		return types.ValidityRepealed
	}
	if amendmentMarker.MatchString(text) {
		return types.ValidityAmended
	}
	return types.ValidityActive
}

// extractRefs collects the instrument numbers captured by re, deduplicated
// in first-appearance order.
func extractRefs(text string, re *regexp.Regexp) []string {
	var (
		refs []string
		seen = map[string]bool{}
	)
	for _, m := range re.FindAllStringSubmatch(text, -1) {
		if n := m[1]; !seen[n] {
			seen[n] = true
			refs = append(refs, n)
		}
	}
	return refs
}

// Sumilla auto-generates a summary from the first one to three
// non-empty body lines, capped at maxChars with an ellipsis when cut.
func (c *Classifier) Sumilla(text string) string {
	var picked []string
	for _, line := range strings.Split(text, "\n") {
		if t := strings.TrimSpace(line); t != "" {
			picked = append(picked, t)
			if len(picked) == 3 {
				break
			}
		}
	}
	sum := strings.Join(picked, " ")

	max := c.cfg.SumillaMaxChars
	runes := []rune(sum)
	if len(runes) <= max {
		return sum
	}
	return strings.TrimSpace(string(runes[:max])) + "…"
}
