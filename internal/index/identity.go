// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package index

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// DocumentID derives the stable per-site document identifier. When the
// norm type, number, and publication date are all known the identifier
// is readable ("ley-843-1986-05-20"); otherwise it falls back to a
// hash of the source URL so the same URL always maps to the same
// identity across runs.
func DocumentID(normType, normNumber, date, sourceURL string) string {
	if normType != "" && normNumber != "" && date != "" {
		return fmt.Sprintf("%s-%s-%s", slug(normType), slug(normNumber), date)
	}
	sum := sha256.Sum256([]byte(sourceURL))
	return "url-" + hex.EncodeToString(sum[:8])
}

// ContentHash digests the canonical field subset used for change
// detection: title, norm type, number, date, and the source PDF URL or
// extracted-text hash. Field order is fixed; changing it would flag
// every indexed document as modified.
func ContentHash(title, normType, normNumber, date, sourceRef string) string {
	h := sha256.New()
	for _, field := range []string{title, normType, normNumber, date, sourceRef} {
		h.Write([]byte(field))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// TextHash digests extracted text for use as the sourceRef of
// ContentHash when no stable PDF URL exists.
func TextHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// slug lowercases and hyphenates an identifier component.
func slug(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	r := strings.NewReplacer(
		"á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u", "ñ", "n",
		" ", "-", "/", "-",
	)
	return r.Replace(s)
}
