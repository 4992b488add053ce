package lexicon

import (
	"context"

	"github.com/poiesic/skelgen/core"
)

// StaticOracle is an in-memory Oracle over a declared sense table with
// hypernym edges. Lookups never fail; missing entries report ok=false like
// any other lexical miss. Safe for concurrent readers once populated.
type StaticOracle struct {
	senses  map[string][]Sense // normalized term -> candidate senses, most common first
	byName  map[string]Sense   // normalized sense name -> sense
	parents map[string]string  // normalized child name -> normalized parent name
}

var _ Oracle = (*StaticOracle)(nil)

// NewStaticOracle creates an empty oracle.
func NewStaticOracle() *StaticOracle {
	return &StaticOracle{
		senses:  make(map[string][]Sense),
		byName:  make(map[string]Sense),
		parents: make(map[string]string),
	}
}

// AddSense registers a candidate sense for a term. Repeated calls append in
// most-common-first order.
func (o *StaticOracle) AddSense(term string, s Sense) {
	key := core.NormalizeTerm(term)
	o.senses[key] = append(o.senses[key], s)
	nameKey := core.NormalizeLabel(s.Name)
	if _, exists := o.byName[nameKey]; !exists {
		o.byName[nameKey] = s
	}
}

// AddHypernym declares parent as the immediate hypernym of the sense named
// child. Both senses must already be registered via AddSense for structural
// queries to resolve them.
func (o *StaticOracle) AddHypernym(child, parent string) {
	o.parents[core.NormalizeLabel(child)] = core.NormalizeLabel(parent)
}

// Senses returns the registered senses for term.
func (o *StaticOracle) Senses(_ context.Context, term string) ([]Sense, error) {
	found := o.senses[core.NormalizeTerm(term)]
	return append([]Sense(nil), found...), nil
}

// Hypernym returns the immediate parent of s, if declared.
func (o *StaticOracle) Hypernym(_ context.Context, s Sense) (Sense, bool, error) {
	parentName, ok := o.parents[core.NormalizeLabel(s.Name)]
	if !ok {
		return Sense{}, false, nil
	}
	parent, ok := o.byName[parentName]
	return parent, ok, nil
}

// LowestCommonAncestor walks both hypernym chains and returns the deepest
// shared sense. A sense is its own ancestor, so LCA(a, a) = a.
func (o *StaticOracle) LowestCommonAncestor(_ context.Context, a, b Sense) (Sense, bool, error) {
	seen := make(map[string]bool)
	for name := core.NormalizeLabel(a.Name); name != ""; name = o.parents[name] {
		if seen[name] {
			break // cycle in declared edges
		}
		seen[name] = true
	}

	visited := make(map[string]bool)
	for name := core.NormalizeLabel(b.Name); name != ""; name = o.parents[name] {
		if visited[name] {
			break
		}
		visited[name] = true
		if seen[name] {
			lca, ok := o.byName[name]
			return lca, ok, nil
		}
	}
	return Sense{}, false, nil
}
