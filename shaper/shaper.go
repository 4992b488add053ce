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

package shaper

import (
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/poiesic/skelgen/core"
	"github.com/poiesic/skelgen/naming"
)

// Config selects which shaping passes run and how aggressive orphan merging
// is. Tautology pruning always runs; the remaining passes toggle.
type Config struct {
	// MinLeafSize is the smallest leaf set allowed to stand alone.
	MinLeafSize int

	// MergeOrphans folds undersized sibling leaf sets into a shared bucket.
	MergeOrphans bool

	// FlattenSingles collapses needless single-child nesting.
	FlattenSingles bool

	// NormalizeCasing renders category labels in title case and leaf terms
	// in lowercase.
	NormalizeCasing bool

	// PreserveRoots keeps a sole top-level category fully nested instead of
	// collapsing its spine.
	PreserveRoots bool
}

// DefaultConfig returns the standard shaping configuration.
func DefaultConfig() Config {
	return Config{
		MinLeafSize:     3,
		MergeOrphans:    true,
		FlattenSingles:  true,
		NormalizeCasing: true,
		PreserveRoots:   true,
	}
}

// BucketLabeler names the bucket synthesized for merged orphans, given the
// orphaned terms and the surrounding siblings' terms as contrasting context.
type BucketLabeler func(orphanTerms, contextTerms []string) string

// Shaper post-processes hierarchies: orphan merging, tautology pruning,
// single-child flattening and casing normalization, in that fixed order.
// Every pass returns a rebuilt tree and copies annotations forward; the input
// tree is never modified.
type Shaper struct {
	labeler BucketLabeler
	logger  *slog.Logger
}

// Option configures a Shaper.
type Option func(*Shaper)

// WithLabeler replaces the orphan bucket labeler. The default extracts a
// distinguishing keyword, producing labels like "Other (Spice)".
func WithLabeler(labeler BucketLabeler) Option {
	return func(s *Shaper) {
		s.labeler = labeler
	}
}

// WithLogger sets the shaper's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Shaper) {
		s.logger = logger
	}
}

// NewShaper creates a Shaper.
func NewShaper(opts ...Option) *Shaper {
	s := &Shaper{
		labeler: func(orphans, context []string) string {
			return naming.KeywordLabel(orphans, context, naming.DefaultKeywordThreshold)
		},
		logger: slog.Default().With("component", "constraint-shaper"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Shape runs the configured passes over root and returns the rebuilt tree.
// Shaping is a fixed point: shaping an already-shaped tree changes nothing.
func (s *Shaper) Shape(root *core.Node, cfg Config) *core.Node {
	out := root
	if cfg.MergeOrphans {
		out = s.MergeOrphans(out, cfg.MinLeafSize)
	}
	out = s.PruneTautologies(out)
	if cfg.FlattenSingles {
		out = s.FlattenSingles(out, cfg.PreserveRoots)
	}
	if cfg.NormalizeCasing {
		out = s.NormalizeCasing(out)
	}
	return out
}

// MergeOrphans rebuilds the tree with every undersized sibling leaf set
// folded into a synthesized bucket. Categories are never merged; they only
// keep their position. Existing buckets are left alone so the pass is a
// fixed point.
func (s *Shaper) MergeOrphans(node *core.Node, minSize int) *core.Node {
	if node.IsLeaf() {
		out := core.NewLeafSet(node.Terms...)
		core.SortTerms(out.Terms)
		return out
	}

	processed := core.NewCategory()
	for _, ch := range node.Children {
		processed.Put(ch.Label, ch.Annotation, s.MergeOrphans(ch.Node, minSize))
	}

	// A bucket needs siblings. A sole undersized leaf would only be
	// renamed, and renaming here would hide a same-named tautology from
	// the pruning pass that runs next.
	if len(processed.Children) < 2 {
		return processed
	}

	var smallLabels []string
	var orphanTerms []string
	var contextTerms []string
	for _, ch := range processed.Children {
		if isBucketLabel(ch.Label) {
			continue
		}
		if !ch.Node.IsLeaf() {
			continue
		}
		if len(ch.Node.Terms) < minSize {
			smallLabels = append(smallLabels, ch.Label)
			orphanTerms = append(orphanTerms, ch.Node.Terms...)
		} else {
			contextTerms = append(contextTerms, ch.Node.Terms...)
		}
	}
	if len(smallLabels) == 0 {
		return processed
	}

	bucketLabel := s.labeler(orphanTerms, contextTerms)
	if bucketLabel == "" {
		bucketLabel = "Other"
	}
	s.logger.Debug("merging orphan leaf sets", "count", len(smallLabels), "bucket", bucketLabel)

	small := make(map[string]bool, len(smallLabels))
	for _, label := range smallLabels {
		small[core.NormalizeLabel(label)] = true
	}

	out := core.NewCategory()
	for _, ch := range processed.Children {
		if small[core.NormalizeLabel(ch.Label)] {
			continue
		}
		out.Put(ch.Label, ch.Annotation, ch.Node)
	}
	bucket := core.NewLeafSet(orphanTerms...)
	core.SortTerms(bucket.Terms)
	out.Put(bucketLabel, "", bucket)
	return out
}

// isBucketLabel reports whether a label looks like a previously synthesized
// leftover bucket, which orphan merging must not touch again.
func isBucketLabel(label string) bool {
	norm := core.NormalizeLabel(label)
	return norm == "other" || strings.HasPrefix(norm, "other (")
}

// PruneTautologies removes categories whose sole child repeats their own
// name, promoting the grandchild content while keeping the parent label and
// annotation. When a promoted category still contains a sibling that shadows
// the parent name, that sibling is renamed "General {parent}" instead of
// nesting a same-named branch.
func (s *Shaper) PruneTautologies(node *core.Node) *core.Node {
	if node.IsLeaf() {
		return node.Clone()
	}

	out := core.NewCategory()
	for _, ch := range node.Children {
		child := s.PruneTautologies(ch.Node)
		annotation := ch.Annotation

		for child.IsCategory() && len(child.Children) == 1 &&
			core.NormalizeLabel(child.Children[0].Label) == core.NormalizeLabel(ch.Label) {
			inner := child.Children[0]
			if annotation == "" {
				annotation = inner.Annotation
			}
			child = inner.Node
		}

		if child.IsCategory() && len(child.Children) > 1 {
			child = renameShadowingChildren(child, ch.Label)
		}

		out.Put(ch.Label, annotation, child)
	}
	return out
}

// renameShadowingChildren renames any child whose label repeats parentLabel
// to "General {parentLabel}".
func renameShadowingChildren(node *core.Node, parentLabel string) *core.Node {
	shadowed := false
	for _, ch := range node.Children {
		if core.NormalizeLabel(ch.Label) == core.NormalizeLabel(parentLabel) {
			shadowed = true
			break
		}
	}
	if !shadowed {
		return node
	}

	out := core.NewCategory()
	for _, ch := range node.Children {
		label := ch.Label
		if core.NormalizeLabel(label) == core.NormalizeLabel(parentLabel) {
			label = fmt.Sprintf("General %s", parentLabel)
		}
		out.Put(label, ch.Annotation, ch.Node)
	}
	return out
}

// FlattenSingles collapses chains of single-child categories into their
// topmost label, hoisting the terminal content. With preserveRoots, a sole
// top-level category keeps its spine fully nested even when that leaves deep
// single-child chains in place.
func (s *Shaper) FlattenSingles(root *core.Node, preserveRoots bool) *core.Node {
	return flattenNode(root, preserveRoots)
}

func flattenNode(node *core.Node, protected bool) *core.Node {
	if node.IsLeaf() {
		return node.Clone()
	}

	sole := len(node.Children) == 1
	out := core.NewCategory()
	for _, ch := range node.Children {
		childProtected := protected && sole
		child := flattenNode(ch.Node, childProtected)
		annotation := ch.Annotation

		if !childProtected {
			for child.IsCategory() && len(child.Children) == 1 {
				inner := child.Children[0]
				if annotation == "" {
					annotation = inner.Annotation
				}
				child = inner.Node
			}
		}
		out.Put(ch.Label, annotation, child)
	}
	return out
}

var titleCaser = cases.Title(language.English)

// NormalizeCasing renders category labels in title case and leaf terms in
// lowercase, deduplicated and sorted. Labels that collide once case is folded
// are merged, leaf terms concatenated and category children combined.
func (s *Shaper) NormalizeCasing(node *core.Node) *core.Node {
	if node.IsLeaf() {
		lowered := make([]string, 0, len(node.Terms))
		for _, term := range node.Terms {
			lowered = append(lowered, strings.ToLower(term))
		}
		out := core.NewLeafSet(core.MergeTerms(lowered)...)
		return out
	}

	out := core.NewCategory()
	for _, ch := range node.Children {
		out.Put(titleCaser.String(ch.Label), ch.Annotation, s.NormalizeCasing(ch.Node))
	}
	return out
}
