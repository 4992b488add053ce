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

package cluster

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/poiesic/skelgen/ai"
	"github.com/poiesic/skelgen/core"
	"github.com/poiesic/skelgen/storage"
)

// Namer assigns a label and optional annotation to a term group. The medoid
// is the group member whose embedding sits closest to the group centroid;
// contextTerms are the other groups' members, used to bias against ambiguous
// names. An empty returned label means the namer abstained.
type Namer interface {
	NameGroup(ctx context.Context, terms []string, medoid string, excluded []string, contextTerms []string) (label string, annotation string, err error)
}

// Params tune semantic arrangement.
type Params struct {
	// MinGroupSize is the smallest group worth keeping. Inputs smaller than
	// twice this size skip clustering entirely.
	MinGroupSize int

	// QualityThreshold is the minimum cohesion (mean member-to-centroid
	// cosine similarity) for a group to survive.
	QualityThreshold float64

	// MaxLeafSize is the group size above which arrangement recurses to
	// subdivide the group into a nested sub-hierarchy.
	MaxLeafSize int

	// MaxRecursionDepth caps that subdivision.
	MaxRecursionDepth int

	// MinSamples is the density estimate's neighborhood size. Zero derives
	// it from the effective minimum group size.
	MinSamples int

	// Reduction configures the dimensionality reduction pass.
	Reduction ReductionParams
}

// DefaultParams returns the standard arrangement tuning.
func DefaultParams() Params {
	return Params{
		MinGroupSize:      5,
		QualityThreshold:  0.2,
		MaxLeafSize:       40,
		MaxRecursionDepth: 2,
		Reduction: ReductionParams{
			NNeighbors:  15,
			MinDist:     0.1,
			NComponents: 5,
			Seed:        42,
		},
	}
}

// Group is one named cluster produced by an arrangement pass.
type Group struct {
	Label      string
	Annotation string

	// Terms are the group members, sorted.
	Terms []string

	// Sub carries the nested subdivision of an oversized group. Nil when the
	// group stayed a flat leaf set.
	Sub *core.Node
}

// Arrangement is the result of arranging one flat term list.
type Arrangement struct {
	// Groups in presentation order: larger first, label breaking ties.
	Groups []Group

	// Unclustered holds the sorted remainder no dense group claimed.
	Unclustered []string
}

// Node renders the groups as a Category node. The unclustered remainder is
// deliberately left out; the caller decides where leftovers live.
func (a Arrangement) Node() *core.Node {
	root := core.NewCategory()
	for _, g := range a.Groups {
		child := g.Sub
		if child == nil {
			child = core.NewLeafSet(g.Terms...)
		}
		root.Put(g.Label, g.Annotation, child)
	}
	return root
}

// Engine arranges flat term lists into named semantic groups: embed, reduce,
// density-cluster, gate on size and cohesion, name, refine, recurse.
type Engine struct {
	embedder   ai.ModelEmbedder
	namer      Namer
	reductions storage.ReductionCache
	params     Params
	logger     *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine) error

// WithParams replaces the default arrangement tuning.
func WithParams(p Params) Option {
	return func(e *Engine) error {
		if p.MinGroupSize < 1 {
			return fmt.Errorf("%w: MinGroupSize %d", ErrInvalidThreshold, p.MinGroupSize)
		}
		if p.QualityThreshold < 0 || p.QualityThreshold > 1 {
			return fmt.Errorf("%w: QualityThreshold %v", ErrInvalidThreshold, p.QualityThreshold)
		}
		e.params = p
		return nil
	}
}

// WithReductionCache persists reduction results across runs keyed by content
// hash of the input vectors and parameters.
func WithReductionCache(cache storage.ReductionCache) Option {
	return func(e *Engine) error {
		e.reductions = cache
		return nil
	}
}

// WithLogger sets the engine's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) error {
		e.logger = logger
		return nil
	}
}

// NewEngine creates an arrangement engine. The namer may be nil, in which
// case groups get positional fallback labels.
func NewEngine(embedder ai.ModelEmbedder, namer Namer, opts ...Option) (*Engine, error) {
	if embedder == nil {
		return nil, ai.ErrEmbedderRequired
	}
	e := &Engine{
		embedder: embedder,
		namer:    namer,
		params:   DefaultParams(),
		logger:   slog.Default().With("component", "cluster-engine"),
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// Params returns the engine's effective tuning.
func (e *Engine) Params() Params {
	return e.params
}

// Arrange partitions terms into named semantic groups plus an unclustered
// remainder. contextTerms bias naming away from labels that belong to the
// surrounding structure. Output is byte-identical across runs for identical
// input and tuning.
//
// Degenerate input (too few terms, collapsed geometry) returns everything
// unclustered without error; only embedding provider failures propagate.
func (e *Engine) Arrange(ctx context.Context, terms []string, contextTerms []string) (Arrangement, error) {
	return e.arrange(ctx, terms, contextTerms, 0)
}

func (e *Engine) arrange(ctx context.Context, terms []string, contextTerms []string, depth int) (Arrangement, error) {
	unique := core.DedupeTerms(terms)
	sort.Slice(unique, func(i, j int) bool {
		return core.NormalizeTerm(unique[i]) < core.NormalizeTerm(unique[j])
	})

	if len(unique) < e.params.MinGroupSize*2 {
		e.logger.Debug("input below clustering floor", "terms", len(unique))
		return Arrangement{Unclustered: unique}, nil
	}

	normalized := make([]string, len(unique))
	for i, t := range unique {
		normalized[i] = core.NormalizeTerm(t)
	}
	vectors, err := e.embedder.EmbedTexts(ctx, normalized)
	if err != nil {
		return Arrangement{}, fmt.Errorf("embedding provider: %w", err)
	}

	// First pass at full strictness, then a relaxed pass over the remainder
	// to recover smaller coherent micro-clusters.
	clusters, leftover := e.clusterPass(ctx, unique, vectors, allIndices(len(unique)), e.params.MinGroupSize)

	relaxed := e.params.MinGroupSize / 2
	if relaxed >= 2 && len(leftover) >= relaxed*2 {
		more, rest := e.clusterPass(ctx, unique, vectors, leftover, relaxed)
		clusters = append(clusters, more...)
		leftover = rest
	}

	sortClusters(unique, clusters)

	arrangement := Arrangement{}
	usedLabels := make(map[string]bool)
	fallbackCounter := 1
	for _, members := range clusters {
		groupTerms := make([]string, len(members))
		groupVectors := make([][]float32, len(members))
		for i, idx := range members {
			groupTerms[i] = unique[idx]
			groupVectors[i] = vectors[idx]
		}
		core.SortTerms(groupTerms)

		medoid := ""
		if m := MedoidIndex(groupVectors); m >= 0 {
			// MedoidIndex works on the unsorted member order; map back.
			medoid = unique[members[m]]
		}

		label, annotation, err := e.nameGroup(ctx, groupTerms, medoid, contextLabels(usedLabels), otherTerms(unique, clusters, members))
		if err != nil {
			return Arrangement{}, err
		}
		if label == "" {
			label = fmt.Sprintf("Group %d", fallbackCounter)
			fallbackCounter++
		}
		label = uniqueLabel(label, usedLabels)
		usedLabels[core.NormalizeLabel(label)] = true

		group := Group{Label: label, Annotation: annotation, Terms: groupTerms}

		if e.params.MaxLeafSize > 0 && len(groupTerms) > e.params.MaxLeafSize && depth < e.params.MaxRecursionDepth {
			sub, err := e.arrange(ctx, groupTerms, contextTerms, depth+1)
			if err != nil {
				return Arrangement{}, err
			}
			if len(sub.Groups) > 0 {
				node := sub.Node()
				if len(sub.Unclustered) > 0 {
					node.Put("Other", "", core.NewLeafSet(sub.Unclustered...))
				}
				group.Sub = node
			}
		}

		arrangement.Groups = append(arrangement.Groups, group)
	}

	remainder := make([]string, len(leftover))
	for i, idx := range leftover {
		remainder[i] = unique[idx]
	}
	core.SortTerms(remainder)
	arrangement.Unclustered = remainder
	return arrangement, nil
}

// clusterPass reduces, density-clusters and quality-gates one subset of the
// term list. Returned clusters and leftovers are index sets into terms.
func (e *Engine) clusterPass(ctx context.Context, terms []string, vectors [][]float32, subset []int, minSize int) ([][]int, []int) {
	subVectors := make([][]float32, len(subset))
	for i, idx := range subset {
		subVectors[i] = vectors[idx]
	}

	reduced, ok := e.reduceCached(ctx, subVectors)
	if !ok {
		e.logger.Warn("reduction degenerate, leaving terms unclustered", "terms", len(subset))
		return nil, subset
	}

	minSamples := e.params.MinSamples
	if minSamples <= 0 {
		minSamples = minSize
	}
	labels := DensityCluster(reduced, minSize, minSamples)

	byLabel := make(map[int][]int)
	var leftover []int
	for i, label := range labels {
		if label == Noise {
			leftover = append(leftover, subset[i])
			continue
		}
		byLabel[label] = append(byLabel[label], subset[i])
	}

	var clusters [][]int
	labelOrder := make([]int, 0, len(byLabel))
	for label := range byLabel {
		labelOrder = append(labelOrder, label)
	}
	sort.Ints(labelOrder)

	for _, label := range labelOrder {
		members := byLabel[label]
		if len(members) < minSize {
			leftover = append(leftover, members...)
			continue
		}
		memberVectors := make([][]float32, len(members))
		for i, idx := range members {
			memberVectors[i] = vectors[idx]
		}
		if score := Cohesion(memberVectors); score < e.params.QualityThreshold {
			e.logger.Debug("dissolving low-cohesion group", "size", len(members), "cohesion", score)
			leftover = append(leftover, members...)
			continue
		}
		clusters = append(clusters, members)
	}
	sort.Ints(leftover)
	return clusters, leftover
}

// reduceCached runs the reduction, consulting the reduction cache when one is
// configured. Cache failures degrade to recomputation.
func (e *Engine) reduceCached(ctx context.Context, vectors [][]float32) ([][]float32, bool) {
	var key core.ID
	if e.reductions != nil {
		key = reductionKey(vectors, e.params.Reduction)
		cached, found, err := e.reductions.GetReduction(ctx, key)
		if err != nil {
			e.logger.Warn("reduction cache read failed", "err", err)
		} else if found {
			return cached, true
		}
	}

	reduced, ok := Reduce(vectors, e.params.Reduction)
	if !ok {
		return nil, false
	}

	if e.reductions != nil {
		if err := e.reductions.PutReduction(ctx, key, reduced); err != nil {
			e.logger.Warn("reduction cache write failed", "err", err)
		}
	}
	return reduced, true
}

func (e *Engine) nameGroup(ctx context.Context, terms []string, medoid string, excluded []string, contextTerms []string) (string, string, error) {
	if e.namer == nil {
		return "", "", nil
	}
	label, annotation, err := e.namer.NameGroup(ctx, terms, medoid, excluded, contextTerms)
	if err != nil {
		return "", "", fmt.Errorf("naming engine: %w", err)
	}
	return label, annotation, nil
}

// reductionKey hashes the input vector set together with the reduction
// parameters, so identical inputs under identical tuning share a cache entry.
func reductionKey(vectors [][]float32, params ReductionParams) core.ID {
	var sb strings.Builder
	sb.Write(storage.MarshalMatrix(vectors))
	fmt.Fprintf(&sb, "|%d|%g|%d|%d", params.NNeighbors, params.MinDist, params.NComponents, params.Seed)
	return core.IDFromContent(sb.String())
}

// sortClusters orders clusters by size descending, breaking ties by the
// normalized first member term.
func sortClusters(terms []string, clusters [][]int) {
	for _, members := range clusters {
		sort.Ints(members)
	}
	sort.Slice(clusters, func(a, b int) bool {
		if len(clusters[a]) != len(clusters[b]) {
			return len(clusters[a]) > len(clusters[b])
		}
		return core.NormalizeTerm(terms[clusters[a][0]]) < core.NormalizeTerm(terms[clusters[b][0]])
	})
}

// otherTerms collects the members of every cluster except the given one, used
// as contrasting context for naming.
func otherTerms(terms []string, clusters [][]int, current []int) []string {
	currentSet := make(map[int]bool, len(current))
	for _, idx := range current {
		currentSet[idx] = true
	}
	var out []string
	for _, members := range clusters {
		for _, idx := range members {
			if !currentSet[idx] {
				out = append(out, terms[idx])
			}
		}
	}
	core.SortTerms(out)
	return out
}

func contextLabels(used map[string]bool) []string {
	out := make([]string, 0, len(used))
	for label := range used {
		out = append(out, label)
	}
	sort.Strings(out)
	return out
}

// uniqueLabel appends a numeric suffix until the label no longer collides
// with an already-used one.
func uniqueLabel(label string, used map[string]bool) string {
	if !used[core.NormalizeLabel(label)] {
		return label
	}
	for counter := 2; ; counter++ {
		candidate := fmt.Sprintf("%s %d", label, counter)
		if !used[core.NormalizeLabel(candidate)] {
			return candidate
		}
	}
}

func allIndices(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}
