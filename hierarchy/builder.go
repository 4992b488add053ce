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
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/skelgen/cluster"
	"github.com/poiesic/skelgen/core"
	"github.com/poiesic/skelgen/lexicon"
	"github.com/poiesic/skelgen/naming"
	"github.com/poiesic/skelgen/shaper"
)

// GraphBuilder walks a parent/child Source graph and produces a shaped
// taxonomy. Insignificant subtrees are flattened into leaf sets,
// undersized leaf sets bubble up as orphans, and oversized leaf sets are
// re-grown into sub-categories by the cluster engine when one is attached.
type GraphBuilder struct {
	engine    *cluster.Engine
	shaper    *shaper.Shaper
	shapeCfg  shaper.Config
	oracle    lexicon.Oracle
	catPolicy lexicon.CategoryPolicy
	policy    SignificancePolicy
	labeler   shaper.BucketLabeler
	pool      *ants.Pool
	logger    *slog.Logger
}

// GraphOption configures a GraphBuilder.
type GraphOption func(*GraphBuilder) error

// WithEngine attaches a cluster engine used to re-grow oversized leaf sets
// into sub-categories. Without one, oversized leaf sets stay flat.
func WithEngine(engine *cluster.Engine) GraphOption {
	return func(b *GraphBuilder) error {
		b.engine = engine
		return nil
	}
}

// WithOracle attaches a lexical oracle used to annotate categories with
// sense glosses. Without one, categories carry no annotations.
func WithOracle(oracle lexicon.Oracle) GraphOption {
	return func(b *GraphBuilder) error {
		b.oracle = oracle
		return nil
	}
}

// WithSignificancePolicy overrides the default significance thresholds.
func WithSignificancePolicy(policy SignificancePolicy) GraphOption {
	return func(b *GraphBuilder) error {
		b.policy = policy
		return nil
	}
}

// WithShapeConfig overrides the shaping configuration applied to the
// finished tree.
func WithShapeConfig(cfg shaper.Config) GraphOption {
	return func(b *GraphBuilder) error {
		b.shapeCfg = cfg
		return nil
	}
}

// WithPoolSize enables sibling-level parallel traversal on a worker pool
// of the given size. Sizes below 1 disable the pool. The pool must be
// nonblocking: workers submit their own children's tasks, and a blocking
// Submit from inside a worker would deadlock once every worker is parked
// on a full pool. A refused submit runs the task inline instead.
func WithPoolSize(size int) GraphOption {
	return func(b *GraphBuilder) error {
		if b.pool != nil {
			b.pool.Release()
			b.pool = nil
		}
		if size < 1 {
			return nil
		}
		pool, err := ants.NewPool(size, ants.WithNonblocking(true))
		if err != nil {
			return err
		}
		b.pool = pool
		return nil
	}
}

// WithGraphLogger sets a custom logger.
func WithGraphLogger(logger *slog.Logger) GraphOption {
	return func(b *GraphBuilder) error {
		if logger == nil {
			logger = slog.Default()
		}
		b.logger = logger
		return nil
	}
}

// NewGraphBuilder creates a builder with default significance thresholds
// and shaping configuration.
func NewGraphBuilder(opts ...GraphOption) (*GraphBuilder, error) {
	b := &GraphBuilder{
		shaper:    shaper.NewShaper(),
		shapeCfg:  shaper.DefaultConfig(),
		catPolicy: lexicon.DefaultCategoryPolicy(),
		policy:    DefaultSignificancePolicy(),
		logger:    slog.Default().With("component", "hierarchy-builder"),
	}
	b.labeler = func(orphanTerms, contextTerms []string) string {
		return naming.KeywordLabel(orphanTerms, contextTerms, naming.DefaultKeywordThreshold)
	}
	for _, opt := range opts {
		if err := opt(b); err != nil {
			b.Release()
			return nil, err
		}
	}
	return b, nil
}

// Release frees the worker pool, if any. The builder should not be used
// after calling Release.
func (b *GraphBuilder) Release() {
	if b.pool != nil {
		b.pool.Release()
		b.pool = nil
	}
}

// Build walks the source graph and returns the shaped taxonomy. A nil
// budget means no cap. Budget exhaustion stops emission but the structure
// accepted so far is returned; collaborator failures abort the build.
func (b *GraphBuilder) Build(ctx context.Context, src Source, budget *core.TraversalBudget) (*core.Node, error) {
	if src == nil {
		return nil, ErrSourceRequired
	}
	roots := src.Roots()
	if len(roots) == 0 {
		return nil, ErrEmptySource
	}
	if budget == nil {
		var err error
		budget, err = core.NewTraversalBudget(core.Unlimited)
		if err != nil {
			return nil, err
		}
	}

	b.logger.Info("building taxonomy from graph source",
		"roots", len(roots),
		"budget", budget.Limit())

	counts := make(map[NodeID]int)
	for _, id := range roots {
		countDescendants(src, id, counts)
	}

	walk := &graphWalk{src: src, counts: counts, budget: budget}
	root := core.NewCategory()
	results, err := b.buildChildren(ctx, walk, roots, 0)
	if err != nil {
		return nil, err
	}
	orphans := b.assemble(root, results)
	if len(orphans) > 0 {
		// Orphans bubbled past the roots have nowhere left to go.
		b.putBucket(root, orphans, walk)
	}

	if budget.IsExhausted() {
		b.logger.Warn("traversal budget exhausted, returning partial taxonomy")
	}

	return b.shaper.Shape(root, b.shapeCfg), nil
}

// graphWalk carries the per-traversal state shared by every recursive
// call. The counts map is fully populated before the walk starts and is
// read-only from then on.
type graphWalk struct {
	src    Source
	counts map[NodeID]int
	budget *core.TraversalBudget
}

type childResult struct {
	name       string
	node       *core.Node
	annotation string
	orphans    []string
	err        error
}

// buildNode produces the subtree for one graph node. A nil node with
// orphan terms means the subtree was too small to stand alone and its
// terms should be absorbed by the parent. A nil node with no orphans
// means the subtree produced nothing.
func (b *GraphBuilder) buildNode(ctx context.Context, walk *graphWalk, id NodeID, depth int) childResult {
	name := walk.src.Name(id)
	if walk.budget.IsExhausted() {
		return childResult{name: name}
	}
	if err := ctx.Err(); err != nil {
		return childResult{name: name, err: err}
	}

	children := walk.src.Children(id)
	if len(children) == 0 {
		if b.shapeCfg.MergeOrphans {
			// A bare leaf never stands alone; it bubbles up for the
			// parent to absorb or bucket.
			return childResult{name: name, orphans: []string{name}}
		}
		if walk.budget.ConsumeUpTo(1) == 0 {
			return childResult{name: name}
		}
		annotation, err := b.gloss(ctx, name)
		if err != nil {
			return childResult{name: name, err: err}
		}
		return childResult{name: name, node: core.NewLeafSet(name), annotation: annotation}
	}
	if b.policy.ShouldPrune(depth == 0, depth, walk.counts[id], len(children)) {
		return b.flatten(ctx, walk, id, depth, true)
	}

	results, err := b.buildChildren(ctx, walk, children, depth+1)
	if err != nil {
		return childResult{name: name, err: err}
	}

	cat := core.NewCategory()
	orphans := b.assemble(cat, results)
	if len(cat.Children) == 0 {
		// Every child pruned or bubbled away; fall back to a flat view
		// of the whole subtree. Bubbled orphans are re-collected by the
		// flatten, so they are not forwarded too.
		return b.flatten(ctx, walk, id, depth, false)
	}
	if len(orphans) > 0 && b.shapeCfg.MergeOrphans {
		b.putBucket(cat, orphans, walk)
	}

	annotation, err := b.gloss(ctx, name)
	if err != nil {
		return childResult{name: name, err: err}
	}
	return childResult{name: name, node: cat, annotation: annotation}
}

// buildChildren builds each child subtree, on the worker pool when one is
// configured. Results always come back in input order; only the budget is
// touched concurrently and it locks internally. When the pool is saturated
// Submit refuses and the task runs on the submitting goroutine, which keeps
// nested subtrees progressing no matter how small the pool is.
func (b *GraphBuilder) buildChildren(ctx context.Context, walk *graphWalk, ids []NodeID, depth int) ([]childResult, error) {
	results := make([]childResult, len(ids))
	if b.pool == nil || len(ids) < 2 {
		for i, id := range ids {
			results[i] = b.buildNode(ctx, walk, id, depth)
			if results[i].err != nil {
				return nil, results[i].err
			}
		}
		return results, nil
	}

	var wg sync.WaitGroup
	for i, id := range ids {
		i, id := i, id
		wg.Add(1)
		task := func() {
			defer wg.Done()
			results[i] = b.buildNode(ctx, walk, id, depth)
		}
		if err := b.pool.Submit(task); err != nil {
			task()
		}
	}
	wg.Wait()

	for _, r := range results {
		if r.err != nil {
			return nil, r.err
		}
	}
	return results, nil
}

// assemble attaches finished child subtrees to parent in order and
// returns the orphan terms the children bubbled up. Assembly always runs
// on the goroutine that spawned the children.
func (b *GraphBuilder) assemble(parent *core.Node, results []childResult) []string {
	var orphans []string
	for _, r := range results {
		if r.node != nil {
			parent.Put(r.name, r.annotation, r.node)
		}
		orphans = append(orphans, r.orphans...)
	}
	return orphans
}

// flatten collapses a subtree into a single leaf set of its descendant
// leaf names, dropping leaves that repeat the subtree's own name. With
// the orphan gate on, undersized sets bubble up as orphans instead.
// Oversized sets are re-grown by the cluster engine.
func (b *GraphBuilder) flatten(ctx context.Context, walk *graphWalk, id NodeID, depth int, orphanGate bool) childResult {
	name := walk.src.Name(id)

	var leaves []string
	collectLeaves(walk.src, id, &leaves)
	kept := leaves[:0]
	for _, leaf := range leaves {
		if !strings.EqualFold(leaf, name) {
			kept = append(kept, leaf)
		}
	}
	terms := core.MergeTerms(kept)
	if len(terms) == 0 {
		return childResult{name: name}
	}

	if orphanGate && depth > 0 && b.shapeCfg.MergeOrphans && len(terms) < b.shapeCfg.MinLeafSize {
		return childResult{name: name, orphans: terms}
	}

	granted := walk.budget.ConsumeUpTo(len(terms))
	if granted == 0 {
		return childResult{name: name}
	}
	terms = terms[:granted]

	annotation, err := b.gloss(ctx, name)
	if err != nil {
		return childResult{name: name, err: err}
	}

	if b.engine != nil && len(terms) > b.engine.Params().MaxLeafSize {
		node, err := b.regrow(ctx, name, terms)
		if err != nil {
			return childResult{name: name, err: err}
		}
		return childResult{name: name, node: node, annotation: annotation}
	}

	return childResult{name: name, node: core.NewLeafSet(terms...), annotation: annotation}
}

// regrow turns an oversized flat leaf set back into sub-categories using
// the cluster engine. Unclustered leftovers stay under the node's own
// name so the shaper can fold or rename them later.
func (b *GraphBuilder) regrow(ctx context.Context, name string, terms []string) (*core.Node, error) {
	arr, err := b.engine.Arrange(ctx, terms, nil)
	if err != nil {
		return nil, fmt.Errorf("cluster engine: %w", err)
	}
	if len(arr.Groups) == 0 {
		return core.NewLeafSet(terms...), nil
	}
	b.logger.Debug("re-grew oversized leaf set",
		"name", name,
		"terms", len(terms),
		"groups", len(arr.Groups),
		"unclustered", len(arr.Unclustered))
	node := arr.Node()
	if len(arr.Unclustered) > 0 {
		node.Put(name, "", core.NewLeafSet(arr.Unclustered...))
	}
	return node, nil
}

// putBucket adds bubbled orphan terms to parent as one labeled bucket,
// using the sibling labels as naming context. Returns false when the
// budget refused every term.
func (b *GraphBuilder) putBucket(parent *core.Node, orphans []string, walk *graphWalk) bool {
	terms := core.MergeTerms(orphans)
	granted := walk.budget.ConsumeUpTo(len(terms))
	if granted == 0 {
		return false
	}
	terms = terms[:granted]

	contextTerms := make([]string, 0, len(parent.Children))
	for _, c := range parent.Children {
		contextTerms = append(contextTerms, c.Label)
	}
	label := b.labeler(terms, contextTerms)
	if label == "" {
		label = "Other"
	}
	parent.Put(label, "", core.NewLeafSet(terms...))
	return true
}

// gloss looks up the primary-sense gloss for a category name. Oracle
// misses are fine; oracle failures are not.
func (b *GraphBuilder) gloss(ctx context.Context, name string) (string, error) {
	if b.oracle == nil {
		return "", nil
	}
	primary, ok, err := b.catPolicy.PrimarySense(ctx, b.oracle, name)
	if err != nil {
		return "", fmt.Errorf("lexical oracle: %w", err)
	}
	if !ok {
		return "", nil
	}
	return primary.Gloss, nil
}

func countDescendants(src Source, id NodeID, memo map[NodeID]int) int {
	if n, ok := memo[id]; ok {
		return n
	}
	total := 0
	for _, c := range src.Children(id) {
		total += 1 + countDescendants(src, c, memo)
	}
	memo[id] = total
	return total
}

func collectLeaves(src Source, id NodeID, out *[]string) {
	children := src.Children(id)
	if len(children) == 0 {
		*out = append(*out, src.Name(id))
		return
	}
	for _, c := range children {
		collectLeaves(src, c, out)
	}
}
