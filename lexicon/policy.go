package lexicon

import (
	"context"
	"sort"

	"github.com/poiesic/skelgen/core"
)

// CategoryPolicy decides which senses are acceptable as category labels. The
// zero value accepts everything; use DefaultCategoryPolicy for the standard
// rules.
type CategoryPolicy struct {
	// PreferredCategories is an ordered list of lexical categories. Senses
	// whose category appears earlier are preferred when choosing a term's
	// primary sense. Categories not listed rank after all listed ones, and
	// DemotedCategories rank last.
	PreferredCategories []string

	// DemotedCategories are lexical categories chosen only when nothing else
	// is available. Person senses of common nouns produce nonsensical labels.
	DemotedCategories []string

	// GenericNames is the normalized-name blacklist of concepts too broad to
	// label anything.
	GenericNames map[string]bool

	// MaxDescendants is the descendant-count ceiling above which a sense is
	// considered generic. Zero disables the ceiling.
	MaxDescendants int
}

// DefaultCategoryPolicy returns the standard naming policy: physical domains
// preferred, person senses demoted, the usual ontology top layer blacklisted.
func DefaultCategoryPolicy() CategoryPolicy {
	return CategoryPolicy{
		PreferredCategories: []string{
			"noun.food",
			"noun.animal",
			"noun.plant",
			"noun.artifact",
		},
		DemotedCategories: []string{"noun.person"},
		GenericNames: map[string]bool{
			"entity":          true,
			"physical entity": true,
			"abstraction":     true,
			"object":          true,
			"whole":           true,
			"matter":          true,
			"metric unit":     true,
			"unit":            true,
			"causal agent":    true,
			"variable":        true,
			"substance":       true,
			"group":           true,
			"communication":   true,
			"measure":         true,
			"attribute":       true,
			"state":           true,
			"event":           true,
			"act":             true,
			"relation":        true,
			"possession":      true,
			"phenomenon":      true,
		},
		MaxDescendants: 2000,
	}
}

// IsGeneric reports whether a sense is too broad to serve as a category
// label, either by name blacklist or by descendant-count ceiling.
func (p CategoryPolicy) IsGeneric(s Sense) bool {
	if p.GenericNames[core.NormalizeLabel(s.Name)] {
		return true
	}
	if p.MaxDescendants > 0 && s.DescendantCount > p.MaxDescendants {
		return true
	}
	return false
}

// PrimarySense resolves a term to its dominant sense under the policy's
// category preference order. ok is false when the oracle knows no sense for
// the term.
func (p CategoryPolicy) PrimarySense(ctx context.Context, oracle Oracle, term string) (Sense, bool, error) {
	senses, err := oracle.Senses(ctx, term)
	if err != nil {
		return Sense{}, false, err
	}
	if len(senses) == 0 {
		return Sense{}, false, nil
	}

	// Stable sort keeps the oracle's most-common-first order within a rank.
	ranked := append([]Sense(nil), senses...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return p.rank(ranked[i].LexicalCategory) < p.rank(ranked[j].LexicalCategory)
	})
	return ranked[0], true, nil
}

func (p CategoryPolicy) rank(category string) int {
	for i, c := range p.PreferredCategories {
		if c == category {
			return i
		}
	}
	for _, c := range p.DemotedCategories {
		if c == category {
			return len(p.PreferredCategories) + 1
		}
	}
	return len(p.PreferredCategories)
}
