package lexicon

import "context"

// Sense identifies one meaning of a term in the ontology. Senses are
// read-only values looked up on demand; identity is the normalized Name.
type Sense struct {
	// Name is the human-readable concept name, e.g. "food" or "sea fish".
	Name string

	// LexicalCategory is the ontology's coarse domain tag for the sense,
	// e.g. "noun.food", "noun.animal", "noun.person".
	LexicalCategory string

	// Depth is the distance from the ontology root.
	Depth int

	// DescendantCount is the size of the sense's hyponym closure. Large
	// counts signal overly broad concepts.
	DescendantCount int

	// Gloss is the sense's definition, used as a category annotation.
	Gloss string
}

// IsZero reports whether the sense is the absent value.
func (s Sense) IsZero() bool {
	return s.Name == ""
}

// Oracle is the lexical ontology boundary. Implementations must be safe for
// concurrent readers.
//
// Lookup misses are not errors: Senses returns an empty slice, and the
// structural queries return ok=false. Errors are reserved for the oracle
// itself failing (unreachable service, corrupt data).
type Oracle interface {
	// Senses returns the candidate senses for a term, most common first.
	Senses(ctx context.Context, term string) ([]Sense, error)

	// LowestCommonAncestor returns the most specific shared ancestor of two
	// senses, or ok=false when the senses share no ancestor.
	LowestCommonAncestor(ctx context.Context, a, b Sense) (Sense, bool, error)

	// Hypernym returns the immediate parent sense, or ok=false at a root.
	Hypernym(ctx context.Context, s Sense) (Sense, bool, error)
}
