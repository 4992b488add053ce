package cluster

import (
	"math"
	"math/rand"
	"sort"
)

// ReductionParams tune the manifold reduction that precedes density
// clustering.
type ReductionParams struct {
	// NNeighbors is the neighborhood size used to smooth the projected
	// space, so locally close points stay close after reduction.
	NNeighbors int

	// MinDist controls how tightly a point is pulled toward its local
	// neighborhood. Smaller values pack neighborhoods denser.
	MinDist float64

	// NComponents is the output dimensionality.
	NComponents int

	// Seed fixes the random hyperplanes. Identical inputs and params always
	// produce identical output.
	Seed int64
}

// Reduce projects high-dimensional embeddings to a low-dimensional space and
// then contracts each point toward the centroid of its nearest neighbors.
// The projection uses seeded random unit hyperplanes; the contraction
// preserves local neighborhoods the way a nonlinear manifold reduction does.
//
// Returns ok=false on degenerate input (fewer than two points, mismatched or
// empty dimensions, all points identical). Callers treat that as the
// everything-unclustered soft path, never an error.
func Reduce(vectors [][]float32, params ReductionParams) ([][]float32, bool) {
	n := len(vectors)
	if n < 2 || len(vectors[0]) == 0 {
		return nil, false
	}
	dim := len(vectors[0])
	for _, v := range vectors {
		if len(v) != dim {
			return nil, false
		}
	}
	if allIdentical(vectors) {
		return nil, false
	}

	components := params.NComponents
	if components <= 0 {
		components = 5
	}
	if components > dim {
		components = dim
	}

	// Seeded Gaussian hyperplanes, normalized to unit length.
	rng := rand.New(rand.NewSource(params.Seed))
	planes := make([][]float32, components)
	for i := range planes {
		plane := make([]float32, dim)
		for j := range plane {
			plane[j] = float32(rng.NormFloat64())
		}
		planes[i] = NormalizeVector(plane)
	}

	projected := make([][]float32, n)
	for i, v := range vectors {
		unit := NormalizeVector(v)
		row := make([]float32, components)
		for j, plane := range planes {
			row[j] = Dot(unit, plane)
		}
		projected[i] = row
	}

	k := params.NNeighbors
	if k <= 0 {
		k = 15
	}
	if k >= n {
		k = n - 1
	}
	if k == 0 {
		return projected, true
	}

	// Pull each point toward its k-neighborhood centroid. MinDist bounds how
	// far a point may move from its own projection.
	pull := 1 - params.MinDist
	if pull < 0 {
		pull = 0
	}
	if pull > 1 {
		pull = 1
	}
	pull *= 0.5

	smoothed := make([][]float32, n)
	for i := range projected {
		neighbors := nearestNeighbors(projected, i, k)
		local := make([][]float32, 0, k+1)
		local = append(local, projected[i])
		for _, nb := range neighbors {
			local = append(local, projected[nb])
		}
		centroid := Centroid(local)

		row := make([]float32, components)
		for j := range row {
			row[j] = projected[i][j]*(1-float32(pull)) + centroid[j]*float32(pull)
		}
		smoothed[i] = row
	}

	return smoothed, true
}

// nearestNeighbors returns the indices of the k points closest to points[i],
// excluding i itself. Distance ties resolve to the lower index.
func nearestNeighbors(points [][]float32, i, k int) []int {
	type candidate struct {
		idx  int
		dist float64
	}
	candidates := make([]candidate, 0, len(points)-1)
	for j := range points {
		if j == i {
			continue
		}
		candidates = append(candidates, candidate{j, EuclideanDistance(points[i], points[j])})
	}
	sort.Slice(candidates, func(a, b int) bool {
		if candidates[a].dist != candidates[b].dist {
			return candidates[a].dist < candidates[b].dist
		}
		return candidates[a].idx < candidates[b].idx
	})
	if k > len(candidates) {
		k = len(candidates)
	}
	out := make([]int, k)
	for j := 0; j < k; j++ {
		out[j] = candidates[j].idx
	}
	return out
}

func allIdentical(vectors [][]float32) bool {
	first := vectors[0]
	for _, v := range vectors[1:] {
		for i := range v {
			if math.Abs(float64(v[i])-float64(first[i])) > 1e-9 {
				return false
			}
		}
	}
	return true
}
