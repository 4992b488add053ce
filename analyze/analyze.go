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


// Package analyze computes structural statistics over a taxonomy and
// derives significance thresholds from them, so pruning can be tuned to
// the tree at hand instead of guessed.
package analyze

import (
	"github.com/poiesic/skelgen/core"
	"github.com/poiesic/skelgen/hierarchy"
)

// Stats summarizes the shape of a taxonomy.
type Stats struct {
	MaxDepth    int
	TotalNodes  int
	TotalLeaves int
	LeafLists   int

	branchingFactors []int
	leafSizes        []int
}

// AvgBranching returns the mean child count over all non-empty categories.
func (s Stats) AvgBranching() float64 {
	return mean(s.branchingFactors)
}

// AvgLeafSize returns the mean term count over all leaf sets.
func (s Stats) AvgLeafSize() float64 {
	return mean(s.leafSizes)
}

func mean(values []int) float64 {
	if len(values) == 0 {
		return 0
	}
	total := 0
	for _, v := range values {
		total += v
	}
	return float64(total) / float64(len(values))
}

// ComputeStats traverses the tree rooted at root. The root counts as
// depth zero.
func ComputeStats(root *core.Node) Stats {
	var stats Stats
	walk(root, 0, &stats)
	return stats
}

func walk(node *core.Node, depth int, stats *Stats) {
	if node == nil {
		return
	}
	stats.TotalNodes++
	if depth > stats.MaxDepth {
		stats.MaxDepth = depth
	}

	if node.IsLeaf() {
		stats.TotalLeaves += len(node.Terms)
		stats.LeafLists++
		stats.leafSizes = append(stats.leafSizes, len(node.Terms))
		return
	}
	if len(node.Children) > 0 {
		stats.branchingFactors = append(stats.branchingFactors, len(node.Children))
	}
	for _, child := range node.Children {
		walk(child.Node, depth+1, stats)
	}
}

// Suggestions are recommended pruning thresholds for a given tree shape.
type Suggestions struct {
	Policy      hierarchy.SignificancePolicy
	MinLeafSize int
}

// SuggestThresholds derives significance thresholds from tree statistics.
// Deep trees prune earlier, large trees flatten more aggressively, and
// densely branching trees support bigger leaf lists.
func SuggestThresholds(stats Stats) Suggestions {
	minDepth := stats.MaxDepth - 2
	if minDepth > 4 {
		minDepth = 4
	}
	if minDepth < 2 {
		minDepth = 2
	}

	minHyponyms := stats.TotalLeaves / 100
	if minHyponyms < 50 {
		minHyponyms = 50
	}

	minLeaf := int(stats.AvgBranching() / 5)
	if minLeaf < 3 {
		minLeaf = 3
	}

	return Suggestions{
		Policy: hierarchy.SignificancePolicy{
			MinDepth:    minDepth,
			MinHyponyms: minHyponyms,
		},
		MinLeafSize: minLeaf,
	}
}
