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


package hierarchy

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/skelgen/cluster"
	"github.com/poiesic/skelgen/core"
	"github.com/poiesic/skelgen/lexicon"
	"github.com/poiesic/skelgen/naming"
	"github.com/poiesic/skelgen/shaper"
)

// DefaultChainDepth caps how many hypernym levels a term contributes to
// the tree it is filed under.
const DefaultChainDepth = 3

// TermListBuilder grows a taxonomy bottom-up from a flat term list. Each
// term is filed under the hypernym chain of its primary sense; terms the
// oracle cannot place are arranged by the cluster engine when one is
// attached, or bucketed otherwise.
type TermListBuilder struct {
	oracle     lexicon.Oracle
	catPolicy  lexicon.CategoryPolicy
	engine     *cluster.Engine
	shaper     *shaper.Shaper
	shapeCfg   shaper.Config
	chainDepth int
	logger     *slog.Logger
}

// TermOption configures a TermListBuilder.
type TermOption func(*TermListBuilder) error

// WithTermEngine attaches a cluster engine used to arrange terms the
// oracle has no sense for.
func WithTermEngine(engine *cluster.Engine) TermOption {
	return func(b *TermListBuilder) error {
		b.engine = engine
		return nil
	}
}

// WithCategoryPolicy overrides the sense-selection policy.
func WithCategoryPolicy(policy lexicon.CategoryPolicy) TermOption {
	return func(b *TermListBuilder) error {
		b.catPolicy = policy
		return nil
	}
}

// WithChainDepth caps the hypernym chain length. Depths below 1 keep the
// default.
func WithChainDepth(depth int) TermOption {
	return func(b *TermListBuilder) error {
		if depth >= 1 {
			b.chainDepth = depth
		}
		return nil
	}
}

// WithTermShapeConfig overrides the shaping configuration applied to the
// finished tree.
func WithTermShapeConfig(cfg shaper.Config) TermOption {
	return func(b *TermListBuilder) error {
		b.shapeCfg = cfg
		return nil
	}
}

// WithTermLogger sets a custom logger.
func WithTermLogger(logger *slog.Logger) TermOption {
	return func(b *TermListBuilder) error {
		if logger == nil {
			logger = slog.Default()
		}
		b.logger = logger
		return nil
	}
}

// NewTermListBuilder creates a builder over the given lexical oracle.
func NewTermListBuilder(oracle lexicon.Oracle, opts ...TermOption) (*TermListBuilder, error) {
	if oracle == nil {
		return nil, ErrOracleRequired
	}
	b := &TermListBuilder{
		oracle:     oracle,
		catPolicy:  lexicon.DefaultCategoryPolicy(),
		shaper:     shaper.NewShaper(),
		shapeCfg:   shaper.DefaultConfig(),
		chainDepth: DefaultChainDepth,
		logger:     slog.Default().With("component", "termlist-builder"),
	}
	for _, opt := range opts {
		if err := opt(b); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// Build files every term under its hypernym chain and returns the shaped
// taxonomy. A nil budget means no cap. Oracle failures abort the build;
// a term without any usable sense degrades to the unplaced pool.
func (b *TermListBuilder) Build(ctx context.Context, terms []string, budget *core.TraversalBudget) (*core.Node, error) {
	terms = core.MergeTerms(terms)
	if len(terms) == 0 {
		return nil, ErrNoTerms
	}
	if budget == nil {
		var err error
		budget, err = core.NewTraversalBudget(core.Unlimited)
		if err != nil {
			return nil, err
		}
	}

	b.logger.Info("building taxonomy from term list", "terms", len(terms), "budget", budget.Limit())

	root := core.NewCategory()
	var unplaced []string
	for _, term := range terms {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if budget.IsExhausted() {
			break
		}
		chain, err := b.chainFor(ctx, term)
		if err != nil {
			return nil, err
		}
		if len(chain) == 0 {
			unplaced = append(unplaced, term)
			continue
		}
		if budget.ConsumeUpTo(1) == 0 {
			break
		}
		b.file(root, chain, term)
	}

	if len(unplaced) > 0 && !budget.IsExhausted() {
		if err := b.placeRemainder(ctx, root, unplaced, budget); err != nil {
			return nil, err
		}
	}

	return b.shaper.Shape(root, b.shapeCfg), nil
}

// chainFor resolves a term's primary sense and walks its hypernyms,
// outermost first. The term's own sense never becomes a category; a term
// whose sense has no acceptable hypernym is unplaceable.
func (b *TermListBuilder) chainFor(ctx context.Context, term string) ([]lexicon.Sense, error) {
	primary, ok, err := b.catPolicy.PrimarySense(ctx, b.oracle, term)
	if err != nil {
		return nil, fmt.Errorf("lexical oracle: %w", err)
	}
	if !ok {
		return nil, nil
	}

	var chain []lexicon.Sense
	current := primary
	for len(chain) < b.chainDepth {
		parent, ok, err := b.oracle.Hypernym(ctx, current)
		if err != nil {
			return nil, fmt.Errorf("lexical oracle: %w", err)
		}
		if !ok || b.catPolicy.IsGeneric(parent) {
			break
		}
		chain = append(chain, parent)
		current = parent
	}
	if !strings.EqualFold(primary.Name, term) {
		// The primary sense itself is a hypernym of the term, keep it
		// as the innermost level.
		chain = append([]lexicon.Sense{primary}, chain...)
	}
	if len(chain) == 0 {
		return nil, nil
	}

	// Walked child-to-parent, filed parent-to-child.
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain, nil
}

// file inserts a term at the bottom of its chain, creating intermediate
// categories as needed. The innermost chain level is a leaf set that
// accumulates terms; outer levels are categories annotated with their
// sense gloss.
func (b *TermListBuilder) file(root *core.Node, chain []lexicon.Sense, term string) {
	node := root
	for _, sense := range chain[:len(chain)-1] {
		child, ok := node.Find(sense.Name)
		switch {
		case !ok:
			node.Put(sense.Name, sense.Gloss, core.NewCategory())
			child, _ = node.Find(sense.Name)
		case child.Node.IsLeaf():
			// A shallower chain already left a leaf here. Nest it so
			// no terms are lost; shaping sorts out the shadowed name.
			cat := core.NewCategory()
			cat.Put(sense.Name, "", child.Node)
			child.Node = cat
		}
		if child.Annotation == "" {
			child.Annotation = sense.Gloss
		}
		node = child.Node
	}
	last := chain[len(chain)-1]
	if child, ok := node.Find(last.Name); ok && child.Node.IsCategory() {
		if child.Annotation == "" {
			child.Annotation = last.Gloss
		}
		child.Node.Put(last.Name, "", core.NewLeafSet(term))
		return
	}
	node.Put(last.Name, last.Gloss, core.NewLeafSet(term))
}

// placeRemainder files the terms no sense could place: arranged into
// named groups when a cluster engine is attached, a single keyword
// bucket otherwise.
func (b *TermListBuilder) placeRemainder(ctx context.Context, root *core.Node, unplaced []string, budget *core.TraversalBudget) error {
	contextTerms := make([]string, 0, len(root.Children))
	for _, c := range root.Children {
		contextTerms = append(contextTerms, c.Label)
	}

	granted := budget.ConsumeUpTo(len(unplaced))
	if granted == 0 {
		return nil
	}
	unplaced = unplaced[:granted]

	if b.engine != nil && len(unplaced) >= b.engine.Params().MinGroupSize {
		arr, err := b.engine.Arrange(ctx, unplaced, contextTerms)
		if err != nil {
			return fmt.Errorf("cluster engine: %w", err)
		}
		for _, g := range arr.Groups {
			node := g.Sub
			if node == nil {
				node = core.NewLeafSet(g.Terms...)
			}
			root.Put(g.Label, g.Annotation, node)
		}
		unplaced = arr.Unclustered
	}
	if len(unplaced) == 0 {
		return nil
	}

	label := naming.KeywordLabel(unplaced, contextTerms, naming.DefaultKeywordThreshold)
	root.Put(label, "", core.NewLeafSet(unplaced...))
	return nil
}
