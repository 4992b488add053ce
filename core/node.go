// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package core

import (
	"sort"
	"strings"
)

// NodeKind distinguishes the two shapes a taxonomy node can take.
type NodeKind int

const (
	// KindCategory is an ordered mapping from label to child node.
	KindCategory NodeKind = iota + 1
	// KindLeafSet is an ordered sequence of terms.
	KindLeafSet
)

// Child is one labeled entry of a Category. The Annotation is free text
// attached to the label (a gloss or instruction) and must survive every
// transformation applied to the tree.
type Child struct {
	Label      string
	Annotation string
	Node       *Node
}

// Node is one vertex of a taxonomy: either a Category with ordered, labeled
// children or a Leaf Set of terms. Transformations treat nodes as
// immutable-by-convention and return new trees; callers must not assume
// in-place mutation.
type Node struct {
	Kind     NodeKind
	Children []Child  // populated for KindCategory
	Terms    []string // populated for KindLeafSet
}

// NewCategory creates an empty category node.
func NewCategory() *Node {
	return &Node{Kind: KindCategory}
}

// NewLeafSet creates a leaf set holding the given terms. Empty terms are
// dropped; order is preserved.
func NewLeafSet(terms ...string) *Node {
	kept := make([]string, 0, len(terms))
	for _, t := range terms {
		if strings.TrimSpace(t) != "" {
			kept = append(kept, t)
		}
	}
	return &Node{Kind: KindLeafSet, Terms: kept}
}

// IsLeaf reports whether the node is a leaf set.
func (n *Node) IsLeaf() bool {
	return n != nil && n.Kind == KindLeafSet
}

// IsCategory reports whether the node is a category.
func (n *Node) IsCategory() bool {
	return n != nil && n.Kind == KindCategory
}

// Find returns the child whose label matches under NormalizeLabel.
func (n *Node) Find(label string) (*Child, bool) {
	if !n.IsCategory() {
		return nil, false
	}
	norm := NormalizeLabel(label)
	for i := range n.Children {
		if NormalizeLabel(n.Children[i].Label) == norm {
			return &n.Children[i], true
		}
	}
	return nil, false
}

// Put adds a child under label, merging into an existing child whose label
// collides under NormalizeLabel. Merging unions leaf terms, concatenates
// category children recursively, and keeps the first non-empty annotation.
// A kind mismatch keeps the incoming node, matching the last-one-wins rule
// of the document writer this structure feeds.
func (n *Node) Put(label, annotation string, child *Node) {
	if !n.IsCategory() || child == nil {
		return
	}
	existing, ok := n.Find(label)
	if !ok {
		n.Children = append(n.Children, Child{Label: label, Annotation: annotation, Node: child})
		return
	}
	if existing.Annotation == "" {
		existing.Annotation = annotation
	}
	switch {
	case existing.Node.IsLeaf() && child.IsLeaf():
		existing.Node = NewLeafSet(MergeTerms(existing.Node.Terms, child.Terms)...)
	case existing.Node.IsCategory() && child.IsCategory():
		for _, c := range child.Children {
			existing.Node.Put(c.Label, c.Annotation, c.Node)
		}
	default:
		existing.Node = child
	}
}

// Clone returns a deep copy of the tree rooted at n.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	out := &Node{Kind: n.Kind}
	if n.IsLeaf() {
		out.Terms = append([]string(nil), n.Terms...)
		return out
	}
	out.Children = make([]Child, len(n.Children))
	for i, c := range n.Children {
		out.Children[i] = Child{Label: c.Label, Annotation: c.Annotation, Node: c.Node.Clone()}
	}
	return out
}

// CollectTerms gathers every leaf term in the subtree in traversal order.
func (n *Node) CollectTerms() []string {
	if n == nil {
		return nil
	}
	if n.IsLeaf() {
		return append([]string(nil), n.Terms...)
	}
	var out []string
	for _, c := range n.Children {
		out = append(out, c.Node.CollectTerms()...)
	}
	return out
}

// MergeTerms unions term slices, deduplicating under NormalizeTerm and
// sorting case-insensitively for deterministic output.
func MergeTerms(groups ...[]string) []string {
	var all []string
	for _, g := range groups {
		all = append(all, g...)
	}
	merged := DedupeTerms(all)
	SortTerms(merged)
	return merged
}

// SortTerms orders terms case-insensitively in place, breaking ties with the
// raw string so the order is total.
func SortTerms(terms []string) {
	sort.Slice(terms, func(i, j int) bool {
		a, b := strings.ToLower(terms[i]), strings.ToLower(terms[j])
		if a == b {
			return terms[i] < terms[j]
		}
		return a < b
	})
}
