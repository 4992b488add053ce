package core

import (
	"encoding/binary"
	"strings"

	"github.com/go-crypt/x/blake2b"
)

// ID is a content-derived identifier used as a cache key for embeddings and
// reduction results.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b
// hashing. Identical content always produces the identical ID, which makes
// concurrent duplicate cache writes harmless.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// NormalizeTerm folds a term for identity comparison: lowercased with interior
// whitespace collapsed to single spaces and surrounding whitespace removed.
func NormalizeTerm(term string) string {
	return strings.ToLower(strings.Join(strings.Fields(term), " "))
}

// NormalizeLabel folds a category label the same way terms are folded.
// Sibling labels must be unique under this normalization.
func NormalizeLabel(label string) string {
	return NormalizeTerm(label)
}

// DedupeTerms removes duplicate terms under NormalizeTerm, keeping the first
// occurrence, and drops terms that are empty after trimming.
func DedupeTerms(terms []string) []string {
	seen := make(map[string]bool, len(terms))
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		norm := NormalizeTerm(t)
		if norm == "" || seen[norm] {
			continue
		}
		seen[norm] = true
		out = append(out, t)
	}
	return out
}
