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

package naming

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/skelgen/core"
	"github.com/poiesic/skelgen/lexicon"
)

// DefaultKeywordThreshold is the minimum corpus-relative score a keyword must
// reach before it is considered distinguishing.
const DefaultKeywordThreshold = 0.3

// Namer produces human-readable labels for term groups through an ordered
// fallback chain: ontology lowest-common-ancestor, medoid hypernym, then
// keyword extraction. It abstains (empty label) only when the ontology knows
// nothing about the group and no keyword is distinguishing.
type Namer struct {
	oracle           lexicon.Oracle
	policy           lexicon.CategoryPolicy
	keywordThreshold float64
	logger           *slog.Logger
}

// Option configures a Namer.
type Option func(*Namer) error

// WithPolicy replaces the default category policy.
func WithPolicy(policy lexicon.CategoryPolicy) Option {
	return func(n *Namer) error {
		n.policy = policy
		return nil
	}
}

// WithKeywordThreshold sets the minimum keyword relevance score.
func WithKeywordThreshold(threshold float64) Option {
	return func(n *Namer) error {
		if threshold < 0 || threshold > 1 {
			return fmt.Errorf("%w: keyword threshold %v", ErrInvalidThreshold, threshold)
		}
		n.keywordThreshold = threshold
		return nil
	}
}

// WithLogger sets the namer's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(n *Namer) error {
		n.logger = logger
		return nil
	}
}

// NewNamer creates a Namer backed by the given oracle.
func NewNamer(oracle lexicon.Oracle, opts ...Option) (*Namer, error) {
	if oracle == nil {
		return nil, ErrOracleRequired
	}
	n := &Namer{
		oracle:           oracle,
		policy:           lexicon.DefaultCategoryPolicy(),
		keywordThreshold: DefaultKeywordThreshold,
		logger:           slog.Default().With("component", "naming-engine"),
	}
	for _, opt := range opts {
		if err := opt(n); err != nil {
			return nil, err
		}
	}
	return n, nil
}

// NameGroup labels a term group. medoid is the group's most central member
// (may be empty when unknown); excluded lists labels already claimed by the
// surrounding structure; contextTerms are the contrasting corpus for keyword
// extraction. The returned annotation is the chosen sense's gloss when one
// exists. An empty label with nil error means the namer abstained.
//
// An empty terms slice is a precondition violation: ErrEmptyTermSet.
func (n *Namer) NameGroup(ctx context.Context, terms []string, medoid string, excluded []string, contextTerms []string) (string, string, error) {
	if len(terms) == 0 {
		return "", "", ErrEmptyTermSet
	}

	excludedSet := make(map[string]bool, len(excluded))
	for _, label := range excluded {
		excludedSet[core.NormalizeLabel(label)] = true
	}

	senses, err := n.groupSenses(ctx, terms)
	if err != nil {
		return "", "", err
	}

	if label, annotation, ok, err := n.lcaLabel(ctx, senses, excludedSet); err != nil {
		return "", "", err
	} else if ok {
		return stripRedundantCompound(label, terms), annotation, nil
	}

	if len(senses) > 0 {
		label, annotation, ok, err := n.medoidLabel(ctx, terms, medoid, excludedSet)
		if err != nil {
			return "", "", err
		}
		if ok {
			return stripRedundantCompound(label, terms), annotation, nil
		}
		// Lexical information exists but yielded nothing usable; the caller's
		// positional fallback takes over.
		return "", "", nil
	}

	keyword, ok := TopKeyword(terms, contextTerms, n.keywordThreshold)
	if !ok {
		n.logger.Debug("no distinguishing keyword", "terms", len(terms))
		return "", "", nil
	}
	return "Other (" + titleCaser.String(keyword) + ")", "", nil
}

// groupSenses resolves each term's primary sense, skipping lexical misses.
func (n *Namer) groupSenses(ctx context.Context, terms []string) ([]lexicon.Sense, error) {
	senses := make([]lexicon.Sense, 0, len(terms))
	for _, term := range terms {
		sense, ok, err := n.policy.PrimarySense(ctx, n.oracle, term)
		if err != nil {
			return nil, fmt.Errorf("lexical oracle: %w", err)
		}
		if ok {
			senses = append(senses, sense)
		}
	}
	return senses, nil
}

// lcaLabel derives a label from the lowest common ancestor of the group's
// senses. At least two resolved senses are required for an ancestor to mean
// anything.
func (n *Namer) lcaLabel(ctx context.Context, senses []lexicon.Sense, excluded map[string]bool) (string, string, bool, error) {
	if len(senses) < 2 {
		return "", "", false, nil
	}

	current := senses[0]
	for _, s := range senses[1:] {
		lca, ok, err := n.oracle.LowestCommonAncestor(ctx, current, s)
		if err != nil {
			return "", "", false, fmt.Errorf("lexical oracle: %w", err)
		}
		if !ok {
			return "", "", false, nil
		}
		current = lca
	}

	if n.policy.IsGeneric(current) || excluded[core.NormalizeLabel(current.Name)] {
		return "", "", false, nil
	}
	return current.Name, current.Gloss, true, nil
}

// medoidLabel derives a label from the medoid term's immediate hypernym,
// disambiguating with the medoid itself when the hypernym is generic or
// already claimed.
func (n *Namer) medoidLabel(ctx context.Context, terms []string, medoid string, excluded map[string]bool) (string, string, bool, error) {
	if medoid == "" {
		medoid = terms[0]
	}

	sense, ok, err := n.policy.PrimarySense(ctx, n.oracle, medoid)
	if err != nil {
		return "", "", false, fmt.Errorf("lexical oracle: %w", err)
	}
	if !ok {
		return "", "", false, nil
	}

	hypernym, ok, err := n.oracle.Hypernym(ctx, sense)
	if err != nil {
		return "", "", false, fmt.Errorf("lexical oracle: %w", err)
	}
	if !ok {
		return "", "", false, nil
	}

	if n.policy.IsGeneric(hypernym) || excluded[core.NormalizeLabel(hypernym.Name)] {
		return fmt.Sprintf("%s (%s)", hypernym.Name, medoid), hypernym.Gloss, true, nil
	}
	return hypernym.Name, hypernym.Gloss, true, nil
}

// stripRedundantCompound collapses labels like "Sauce (Sauce)" where the
// parenthesized part repeats the head under normalization. When the
// parenthesized part is a term from the group itself and the head is its
// leading or trailing word, as in "Sauce (Soy Sauce)", the repeated head is
// cut from the disambiguator instead.
func stripRedundantCompound(label string, terms []string) string {
	open := -1
	for i, r := range label {
		if r == '(' {
			open = i
			break
		}
	}
	if open <= 0 || label[len(label)-1] != ')' {
		return label
	}

	head := label[:open]
	inner := label[open+1 : len(label)-1]
	normHead := core.NormalizeLabel(head)
	normInner := core.NormalizeLabel(inner)
	if normHead == normInner {
		return trimmed(head)
	}

	for _, term := range terms {
		if core.NormalizeLabel(term) != normInner {
			continue
		}
		if rest, ok := strings.CutSuffix(normInner, " "+normHead); ok {
			return trimmed(head) + " (" + titleCaser.String(rest) + ")"
		}
		if rest, ok := strings.CutPrefix(normInner, normHead+" "); ok {
			return trimmed(head) + " (" + titleCaser.String(rest) + ")"
		}
		break
	}
	return label
}

func trimmed(s string) string {
	for len(s) > 0 && s[len(s)-1] == ' ' {
		s = s[:len(s)-1]
	}
	return s
}
