// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package index

import (
	"strings"
	"testing"
)

func TestDocumentID(t *testing.T) {
	tests := []struct {
		name                            string
		normType, normNumber, date, url string
		want                            string
	}{
		{
			name:     "readable slug when fully identified",
			normType: "Ley", normNumber: "843", date: "1986-05-20",
			url:  "https://gaceta.example/ley-843.pdf",
			want: "ley-843-1986-05-20",
		},
		{
			name:     "accents folded in slug",
			normType: "Resolución Ministerial", normNumber: "442", date: "2019-03-15",
			want: "resolucion-ministerial-442-2019-03-15",
		},
		{
			name:     "slash in number hyphenated",
			normType: "Decreto Supremo", normNumber: "29894/A", date: "2009-02-07",
			want: "decreto-supremo-29894-a-2009-02-07",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DocumentID(tt.normType, tt.normNumber, tt.date, tt.url)
			if got != tt.want {
				t.Errorf("DocumentID() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDocumentIDURLFallback(t *testing.T) {
	// Missing date forces the URL fallback.
	a := DocumentID("Ley", "843", "", "https://gaceta.example/doc-1.pdf")
	b := DocumentID("Ley", "843", "", "https://gaceta.example/doc-1.pdf")
	c := DocumentID("Ley", "843", "", "https://gaceta.example/doc-2.pdf")

	if !strings.HasPrefix(a, "url-") {
		t.Errorf("fallback ID = %q, want url- prefix", a)
	}
	if a != b {
		t.Errorf("same URL produced different IDs: %q vs %q", a, b)
	}
	if a == c {
		t.Errorf("different URLs produced the same ID: %q", a)
	}
}

func TestContentHash(t *testing.T) {
	base := ContentHash("Ley de Reforma Tributaria", "Ley", "843", "1986-05-20", "https://x/ley-843.pdf")

	if again := ContentHash("Ley de Reforma Tributaria", "Ley", "843", "1986-05-20", "https://x/ley-843.pdf"); again != base {
		t.Error("identical fields produced different hashes")
	}
	if changed := ContentHash("Ley de Reforma Tributaria (texto ordenado)", "Ley", "843", "1986-05-20", "https://x/ley-843.pdf"); changed == base {
		t.Error("title change did not change the hash")
	}

	// Field boundaries matter: shifting a character across fields must
	// change the digest.
	x := ContentHash("ab", "c", "", "", "")
	y := ContentHash("a", "bc", "", "", "")
	if x == y {
		t.Error("field boundary shift produced identical hashes")
	}
}

func TestTextHash(t *testing.T) {
	if TextHash("hola") == TextHash("adios") {
		t.Error("different texts hashed identically")
	}
	if len(TextHash("hola")) != 64 {
		t.Errorf("TextHash length = %d, want 64 hex chars", len(TextHash("hola")))
	}
}
