// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package parse

import (
	"fmt"
	"regexp"
	"strings"
)

// HeaderMetadata is what the header scan finds in a document's opening
// lines: the instrument's type and number, its date, its title line,
// and the considerations block when one exists.
type HeaderMetadata struct {
	NormType       string
	NormNumber     string
	Date           string
	Title          string
	Considerations string
}

// headerPattern associates a norm type with the regexp that recognizes
// its heading. The slice order is a priority list: the first pattern to
// match wins, so more specific instruments come before generic ones.
type headerPattern struct {
	normType string
	re       *regexp.Regexp
}

// numTail matches the "N° 843" style number suffix shared by most
// instrument headings.
const numTail = `\s+(?:N[°º]|No\.?|Nro\.?)?\s*(\d+[\w\-/]*)`

func defaultHeaderPatterns() []headerPattern {
	return []headerPattern{
		{"Constitución Política del Estado", regexp.MustCompile(
			`(?i)CONSTITUCI[ÓO]N\s+POL[ÍI]TICA\s+DEL\s+ESTADO`)},
		{"Decreto Supremo", regexp.MustCompile(
			`(?i)DECRETO\s+SUPREMO` + numTail)},
		{"Decreto Ley", regexp.MustCompile(
			`(?i)DECRETO\s+LEY` + numTail)},
		{"Resolución Suprema", regexp.MustCompile(
			`(?i)RESOLUCI[ÓO]N\s+SUPREMA` + numTail)},
		{"Resolución Ministerial", regexp.MustCompile(
			`(?i)RESOLUCI[ÓO]N\s+MINISTERIAL` + numTail)},
		{"Resolución Administrativa", regexp.MustCompile(
			`(?i)RESOLUCI[ÓO]N\s+ADMINISTRATIVA` + numTail)},
		{"Resolución Normativa de Directorio", regexp.MustCompile(
			`(?i)RESOLUCI[ÓO]N\s+NORMATIVA\s+DE\s+DIRECTORIO` + numTail)},
		// Generic "LEY N° 843" last: "DECRETO LEY" above must win first.
		{"Ley", regexp.MustCompile(`(?i)\bLEY` + numTail)},
	}
}

// spanishMonths maps long-form month names to their number.
var spanishMonths = map[string]int{
	"enero": 1, "febrero": 2, "marzo": 3, "abril": 4,
	"mayo": 5, "junio": 6, "julio": 7, "agosto": 8,
	"septiembre": 9, "setiembre": 9, "octubre": 10,
	"noviembre": 11, "diciembre": 12,
}

var longFormDate = regexp.MustCompile(
	`(?i)(\d{1,2})\s+de\s+(enero|febrero|marzo|abril|mayo|junio|julio|agosto|septiembre|setiembre|octubre|noviembre|diciembre)\s+de\s+(\d{4})`)

func defaultDatePatterns() []*regexp.Regexp {
	return []*regexp.Regexp{
		regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`),
		regexp.MustCompile(`\b(\d{1,2})[/.](\d{1,2})[/.](\d{4})\b`),
	}
}

var considerationsStart = regexp.MustCompile(`(?i)^\s*(?:VISTOS\s+Y\s+)?CONSIDERANDO`)
var considerationsEnd = regexp.MustCompile(`(?i)^\s*(?:POR\s+TANTO|DECRETA|RESUELVE|SE\s+RESUELVE|LA\s+ASAMBLEA)`)

// ParseHeader scans the first HeaderLines lines of the text for norm
// type, number, date, title, and the considerations block. The scan is
// independent of the structural tree walk; the first pattern to match
// wins per field.
func (p *Parser) ParseHeader(text string) HeaderMetadata {
	lines := strings.Split(text, "\n")
	if len(lines) > p.cfg.HeaderLines {
		lines = lines[:p.cfg.HeaderLines]
	}
	head := strings.Join(lines, "\n")

	var hdr HeaderMetadata

	for _, hp := range p.headerPatterns {
		m := hp.re.FindStringSubmatch(head)
		if m == nil {
			continue
		}
		hdr.NormType = hp.normType
		if len(m) > 1 {
			hdr.NormNumber = m[1]
		}
		break
	}

	hdr.Date = findDate(head, p.datePatterns)

	for _, line := range lines {
		if t := strings.TrimSpace(line); t != "" {
			hdr.Title = t
			break
		}
	}

	hdr.Considerations = considerationsBlock(lines)
	return hdr
}

// findDate tries the Spanish long form first, then numeric forms, and
// normalizes whatever matched to YYYY-MM-DD.
func findDate(head string, numeric []*regexp.Regexp) string {
	if m := longFormDate.FindStringSubmatch(head); m != nil {
		month := spanishMonths[strings.ToLower(m[2])]
		return fmt.Sprintf("%s-%02d-%s", m[3], month, pad2(m[1]))
	}
	for i, re := range numeric {
		m := re.FindStringSubmatch(head)
		if m == nil {
			continue
		}
		if i == 0 { // already ISO
			return fmt.Sprintf("%s-%s-%s", m[1], m[2], m[3])
		}
		return fmt.Sprintf("%s-%s-%s", m[3], pad2(m[2]), pad2(m[1]))
	}
	return ""
}

func pad2(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}

// considerationsBlock captures the lines from the first CONSIDERANDO
// marker up to the operative marker (POR TANTO / DECRETA / RESUELVE).
func considerationsBlock(lines []string) string {
	var (
		block     []string
		capturing bool
	)
	for _, line := range lines {
		if !capturing {
			if considerationsStart.MatchString(line) {
				capturing = true
				block = append(block, strings.TrimSpace(line))
			}
			continue
		}
		if considerationsEnd.MatchString(line) {
			break
		}
		block = append(block, strings.TrimSpace(line))
	}
	return strings.TrimSpace(strings.Join(block, "\n"))
}
