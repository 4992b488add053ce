package cluster

import "math"

// NormalizeVector normalizes a vector to unit length.
// Returns a new vector. If the input is a zero vector, returns a zero vector.
func NormalizeVector(v []float32) []float32 {
	if len(v) == 0 {
		return v
	}

	var magnitude float32
	for _, val := range v {
		magnitude += val * val
	}
	magnitude = float32(math.Sqrt(float64(magnitude)))

	// Can't normalize zero vector
	if magnitude == 0 {
		result := make([]float32, len(v))
		return result
	}

	result := make([]float32, len(v))
	for i, val := range v {
		result[i] = val / magnitude
	}
	return result
}

// Dot computes the dot product of two float32 slices of equal length.
func Dot(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// CosineSimilarity computes the cosine of the angle between a and b.
// Zero vectors have similarity 0.
func CosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// EuclideanDistance computes the L2 distance between a and b.
func EuclideanDistance(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}

// Centroid computes the element-wise mean of the given vectors.
// Returns nil for an empty input.
func Centroid(vectors [][]float32) []float32 {
	if len(vectors) == 0 {
		return nil
	}
	dim := len(vectors[0])
	centroid := make([]float32, dim)
	for _, v := range vectors {
		for i := range v {
			centroid[i] += v[i]
		}
	}
	n := float32(len(vectors))
	for i := range centroid {
		centroid[i] /= n
	}
	return centroid
}

// MedoidIndex returns the index of the vector closest to the centroid of the
// set, by cosine similarity. Ties resolve to the lower index. Returns -1 for
// an empty input.
func MedoidIndex(vectors [][]float32) int {
	if len(vectors) == 0 {
		return -1
	}
	centroid := Centroid(vectors)

	best := -1
	bestSim := math.Inf(-1)
	for i, v := range vectors {
		sim := CosineSimilarity(v, centroid)
		if sim > bestSim {
			best = i
			bestSim = sim
		}
	}
	return best
}

// Cohesion scores a group's intra-cluster tightness as the mean cosine
// similarity of its members to their centroid. Returns 0 for empty input.
func Cohesion(vectors [][]float32) float64 {
	if len(vectors) == 0 {
		return 0
	}
	centroid := Centroid(vectors)
	var total float64
	for _, v := range vectors {
		total += CosineSimilarity(v, centroid)
	}
	return total / float64(len(vectors))
}
