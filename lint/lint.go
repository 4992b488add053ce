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


// Package lint detects semantic outliers in taxonomy leaf sets. Each leaf
// list is embedded and every term scored by its distance from the list
// centroid; terms far from the rest of their list are reported per path
// and can be removed with Clean.
package lint

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/poiesic/skelgen/ai"
	"github.com/poiesic/skelgen/cluster"
	"github.com/poiesic/skelgen/core"
)

// DefaultThreshold is the outlier score above which a term is flagged.
const DefaultThreshold = 0.1

// minLintSize is the smallest list worth checking; below it a centroid
// says nothing.
const minLintSize = 3

// Outlier is one flagged term with its anomaly score, higher meaning
// farther from the list centroid.
type Outlier struct {
	Term  string
	Score float64
}

// Issue collects the outliers of one leaf list, addressed by its
// slash-joined label path.
type Issue struct {
	Path     string
	Outliers []Outlier
}

// Report is the result of linting one tree.
type Report struct {
	Model     string
	Threshold float64
	Issues    []Issue
}

// Linter scores leaf-list terms against their list centroid using an
// embedding model.
type Linter struct {
	embedder  ai.ModelEmbedder
	threshold float64
	logger    *slog.Logger
}

// Option configures a Linter.
type Option func(*Linter) error

// WithThreshold sets the outlier score threshold, in [0, 1].
func WithThreshold(threshold float64) Option {
	return func(l *Linter) error {
		if threshold < 0 || threshold > 1 {
			return ErrInvalidThreshold
		}
		l.threshold = threshold
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Linter) error {
		if logger == nil {
			logger = slog.Default()
		}
		l.logger = logger
		return nil
	}
}

// NewLinter creates a linter over the given embedder.
func NewLinter(embedder ai.ModelEmbedder, opts ...Option) (*Linter, error) {
	if embedder == nil {
		return nil, ai.ErrEmbedderRequired
	}
	l := &Linter{
		embedder:  embedder,
		threshold: DefaultThreshold,
		logger:    slog.Default().With("component", "linter"),
	}
	for _, opt := range opts {
		if err := opt(l); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// LintTree checks every leaf list of at least three terms and reports the
// outliers found, most anomalous first within each issue.
func (l *Linter) LintTree(ctx context.Context, root *core.Node) (Report, error) {
	report := Report{
		Model:     l.embedder.ModelID(),
		Threshold: l.threshold,
	}
	if err := l.lintNode(ctx, root, nil, &report); err != nil {
		return Report{}, err
	}
	l.logger.Info("lint finished", "issues", len(report.Issues))
	return report, nil
}

func (l *Linter) lintNode(ctx context.Context, node *core.Node, path []string, report *Report) error {
	if node == nil {
		return nil
	}
	if node.IsCategory() {
		for _, child := range node.Children {
			if err := l.lintNode(ctx, child.Node, append(path, child.Label), report); err != nil {
				return err
			}
		}
		return nil
	}

	outliers, err := l.scoreList(ctx, node.Terms)
	if err != nil {
		return err
	}
	if len(outliers) > 0 {
		report.Issues = append(report.Issues, Issue{
			Path:     strings.Join(path, "/"),
			Outliers: outliers,
		})
	}
	return nil
}

// scoreList embeds the terms and returns those whose centroid distance
// exceeds the threshold, sorted by descending score.
func (l *Linter) scoreList(ctx context.Context, terms []string) ([]Outlier, error) {
	if len(terms) < minLintSize {
		return nil, nil
	}

	vectors, err := l.embedder.EmbedTexts(ctx, terms)
	if err != nil {
		return nil, fmt.Errorf("embedding provider: %w", err)
	}
	for i := range vectors {
		vectors[i] = cluster.NormalizeVector(vectors[i])
	}
	centroid := cluster.Centroid(vectors)

	var outliers []Outlier
	for i, v := range vectors {
		score := 1 - cluster.CosineSimilarity(v, centroid)
		if score > l.threshold {
			outliers = append(outliers, Outlier{Term: terms[i], Score: score})
		}
	}
	sort.Slice(outliers, func(i, j int) bool {
		if outliers[i].Score == outliers[j].Score {
			return outliers[i].Term < outliers[j].Term
		}
		return outliers[i].Score > outliers[j].Score
	})
	return outliers, nil
}

// CleanList returns the terms with outliers removed, plus the removed
// terms. Lists too small to score come back unchanged.
func (l *Linter) CleanList(ctx context.Context, terms []string) ([]string, []string, error) {
	outliers, err := l.scoreList(ctx, terms)
	if err != nil {
		return nil, nil, err
	}
	if len(outliers) == 0 {
		return append([]string(nil), terms...), nil, nil
	}

	flagged := make(map[string]bool, len(outliers))
	removed := make([]string, 0, len(outliers))
	for _, o := range outliers {
		flagged[o.Term] = true
		removed = append(removed, o.Term)
	}
	kept := make([]string, 0, len(terms))
	for _, term := range terms {
		if !flagged[term] {
			kept = append(kept, term)
		}
	}
	return kept, removed, nil
}

// Clean returns a copy of the tree with every term flagged in the report
// removed from its list. Annotations and untouched lists are preserved.
func Clean(root *core.Node, report Report) *core.Node {
	flagged := make(map[string]map[string]bool, len(report.Issues))
	for _, issue := range report.Issues {
		terms := make(map[string]bool, len(issue.Outliers))
		for _, o := range issue.Outliers {
			terms[o.Term] = true
		}
		flagged[issue.Path] = terms
	}
	return cleanNode(root, nil, flagged)
}

func cleanNode(node *core.Node, path []string, flagged map[string]map[string]bool) *core.Node {
	if node == nil {
		return nil
	}
	if node.IsCategory() {
		out := core.NewCategory()
		for _, child := range node.Children {
			cleaned := cleanNode(child.Node, append(path, child.Label), flagged)
			out.Put(child.Label, child.Annotation, cleaned)
		}
		return out
	}

	terms := flagged[strings.Join(path, "/")]
	if len(terms) == 0 {
		return node.Clone()
	}
	kept := make([]string, 0, len(node.Terms))
	for _, term := range node.Terms {
		if !terms[term] {
			kept = append(kept, term)
		}
	}
	return core.NewLeafSet(kept...)
}
