package cluster

import "sort"

// Noise is the label assigned to points not claimed by any dense region.
const Noise = -1

// DensityCluster partitions points into dense regions. Points are labeled
// 0..k-1 by cluster, or Noise. minClusterSize is the minimum number of
// mutually dense points required to form a region; minSamples controls how
// conservative the density estimate is (how many neighbors a point needs
// nearby to count as dense).
//
// The algorithm derives a density radius from the distribution of
// kth-neighbor distances, links dense points within that radius into
// connected components, then attaches the remaining points to an adjacent
// component where one exists. Deterministic: no randomness, index-ordered
// tie-breaks, and returned cluster labels are renumbered largest-first.
func DensityCluster(points [][]float32, minClusterSize, minSamples int) []int {
	n := len(points)
	labels := make([]int, n)
	for i := range labels {
		labels[i] = Noise
	}
	if minClusterSize < 2 {
		minClusterSize = 2
	}
	if minSamples <= 0 {
		minSamples = minClusterSize
	}
	if n < minClusterSize {
		return labels
	}
	if minSamples >= n {
		minSamples = n - 1
	}

	dist := make([][]float64, n)
	for i := range dist {
		dist[i] = make([]float64, n)
		for j := range dist[i] {
			dist[i][j] = EuclideanDistance(points[i], points[j])
		}
	}

	// Core distance: distance to the minSamples-th nearest neighbor.
	coreDist := make([]float64, n)
	for i := range points {
		sorted := append([]float64(nil), dist[i]...)
		sort.Float64s(sorted)
		coreDist[i] = sorted[minSamples] // sorted[0] is self
	}

	// Density radius: a point is dense if its neighborhood is at least as
	// tight as the typical one.
	eps := percentile(coreDist, 0.75)
	if eps == 0 {
		// Coincident points; claim everything as one region.
		eps = 1e-12
	}

	dense := make([]bool, n)
	for i := range points {
		dense[i] = coreDist[i] <= eps
	}

	// Union dense points within eps of each other.
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(x int) int {
		for parent[x] != x {
			parent[x] = parent[parent[x]]
			x = parent[x]
		}
		return x
	}
	union := func(a, b int) {
		ra, rb := find(a), find(b)
		if ra != rb {
			if rb < ra {
				ra, rb = rb, ra
			}
			parent[rb] = ra
		}
	}

	for i := 0; i < n; i++ {
		if !dense[i] {
			continue
		}
		for j := i + 1; j < n; j++ {
			if dense[j] && dist[i][j] <= eps {
				union(i, j)
			}
		}
	}

	// Attach non-dense points to the nearest dense point within eps.
	for i := 0; i < n; i++ {
		if dense[i] {
			continue
		}
		bestDist := eps
		best := -1
		for j := 0; j < n; j++ {
			if dense[j] && dist[i][j] <= bestDist {
				// Strict < keeps the lowest index on ties.
				if best == -1 || dist[i][j] < bestDist {
					best = j
					bestDist = dist[i][j]
				}
			}
		}
		if best != -1 {
			parent[i] = find(best)
		}
	}

	// Collect components, drop those under minClusterSize.
	components := make(map[int][]int)
	for i := 0; i < n; i++ {
		root := find(i)
		if !dense[root] && root == i && parent[i] == i {
			continue // unattached non-dense point stays noise
		}
		components[root] = append(components[root], i)
	}

	type comp struct {
		root    int
		members []int
	}
	kept := make([]comp, 0, len(components))
	for root, members := range components {
		if len(members) >= minClusterSize {
			kept = append(kept, comp{root, members})
		}
	}
	// Largest first, root index breaks ties.
	sort.Slice(kept, func(a, b int) bool {
		if len(kept[a].members) != len(kept[b].members) {
			return len(kept[a].members) > len(kept[b].members)
		}
		return kept[a].root < kept[b].root
	})

	for label, c := range kept {
		for _, i := range c.members {
			labels[i] = label
		}
	}
	return labels
}

// percentile returns the p-quantile (0..1) of values using nearest-rank.
func percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	idx := int(p * float64(len(sorted)-1))
	return sorted[idx]
}
