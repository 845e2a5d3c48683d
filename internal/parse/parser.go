// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package parse decomposes normalized legal text into a tree of
// normative units (document, chapter/title/section, article, sub-item,
// paragraph) and extracts document-header metadata.
package parse

import (
	"regexp"
	"strings"

	"github.com/pdiddy/gaceta-engine/pkg/types"
)

// Parser recognizes the structural grammar of Bolivian legal norms.
// Pattern sets are fixed at construction; site-specific variation is
// handled through configuration, not subclassing.
type Parser struct {
	cfg types.ParserConfig

	structuralPattern *regexp.Regexp
	articlePattern    *regexp.Regexp
	subItemPattern    *regexp.Regexp
	paragraphPattern  *regexp.Regexp

	headerPatterns []headerPattern
	datePatterns   []*regexp.Regexp
}

// structuralKinds maps a matched structural keyword (lowercased,
// accent-folded) to its unit type.
var structuralKinds = map[string]types.UnitType{
	"capitulo": types.UnitChapter,
	"titulo":   types.UnitTitle,
	"seccion":  types.UnitSection,
}

// NewParser creates a Parser with the standard pattern set.
func NewParser(cfg types.ParserConfig) *Parser {
	return &Parser{
		cfg: cfg.WithDefaults(),

		// Structural headings outrank article headings when both match.
		structuralPattern: regexp.MustCompile(
			`(?i)^\s*(CAP[ÍI]TULO|T[ÍI]TULO|SECCI[ÓO]N)\s+([IVXLCDM]+|\d+)\s*[.:\-]*\s*(.*)$`),

		// "ARTÍCULO 5.- (OBJETO) ..." / "Art. 5.- ..." — number, optional
		// parenthesized title, and same-line content.
		articlePattern: regexp.MustCompile(
			`(?i)^\s*(?:ART[ÍI]CULO|ART\.)\s+(\d+)\s*[°º]?\s*(?:\.\-|[.\-:])?\s*(?:\(([^)]*)\)\s*)?(.*)$`),

		// Roman numeral followed by a period at line start, inside an article.
		subItemPattern: regexp.MustCompile(
			`^\s*([IVXLCDM]+)\.\s*(.*)$`),

		paragraphPattern: regexp.MustCompile(
			`(?i)^\s*PAR[ÁA]GRAFO\s+([IVXLCDM]+)\s*[.:\-]*\s*(.*)$`),

		headerPatterns: defaultHeaderPatterns(),
		datePatterns:   defaultDatePatterns(),
	}
}

// Parse builds the normative tree for normalized text. The root is
// always a document unit. When the text contains no article headings
// at all, the root carries the entire text verbatim and has no
// children.
func (p *Parser) Parse(text string) *types.NormativeUnit {
	root := &types.NormativeUnit{Type: types.UnitDocument}

	if !p.hasArticles(text) {
		root.Content = text
		return root
	}

	lines := strings.Split(text, "\n")

	var (
		structural *types.NormativeUnit // open chapter/title/section
		article    *types.NormativeUnit // open article
		current    = root               // unit accumulating content lines
		content    []string
	)

	flush := func() {
		current.Content = strings.TrimSpace(strings.Join(content, "\n"))
		content = nil
	}

	// attach points the accumulator at a newly opened unit under parent.
	attach := func(parent, unit *types.NormativeUnit, rest string) {
		flush()
		parent.Children = append(parent.Children, unit)
		current = unit
		if rest != "" {
			content = append(content, rest)
		}
	}

	for _, line := range lines {
		if m := p.structuralPattern.FindStringSubmatch(line); m != nil {
			kind := structuralKinds[foldKeyword(m[1])]
			unit := &types.NormativeUnit{
				Type:   kind,
				Number: strings.ToUpper(m[2]),
				Title:  strings.TrimSpace(m[3]),
			}
			structural, article = unit, nil
			attach(root, unit, "")
			continue
		}

		if m := p.articlePattern.FindStringSubmatch(line); m != nil {
			unit := &types.NormativeUnit{
				Type:   types.UnitArticle,
				Number: m[1],
				Title:  strings.TrimSpace(m[2]),
			}
			parent := root
			if structural != nil {
				parent = structural
			}
			article = unit
			attach(parent, unit, strings.TrimSpace(m[3]))
			continue
		}

		if article != nil {
			if m := p.paragraphPattern.FindStringSubmatch(line); m != nil {
				unit := &types.NormativeUnit{
					Type:   types.UnitParagraph,
					Number: strings.ToUpper(m[1]),
				}
				attach(article, unit, strings.TrimSpace(m[2]))
				continue
			}
			if m := p.subItemPattern.FindStringSubmatch(line); m != nil {
				unit := &types.NormativeUnit{
					Type:   types.UnitSubItem,
					Number: strings.ToUpper(m[1]),
				}
				attach(article, unit, strings.TrimSpace(m[2]))
				continue
			}
		}

		content = append(content, line)
	}
	flush()

	return root
}

// hasArticles reports whether any line opens an article scope.
func (p *Parser) hasArticles(text string) bool {
	for _, line := range strings.Split(text, "\n") {
		if p.articlePattern.MatchString(line) {
			return true
		}
	}
	return false
}

// foldKeyword lowercases a structural keyword and strips the accented
// vowels that vary across source documents.
func foldKeyword(s string) string {
	s = strings.ToLower(s)
	r := strings.NewReplacer("á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u")
	return r.Replace(s)
}
