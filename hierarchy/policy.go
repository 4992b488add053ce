package hierarchy

// SignificancePolicy decides whether a graph node deserves to stand as its
// own Category or should be flattened into its parent's leaf terms. A node
// is significant when it sits near the top of the graph or commands a large
// enough descendant closure.
type SignificancePolicy struct {
	// MinDepth is the depth at or above which a node is always significant.
	MinDepth int
	// MinHyponyms is the descendant count at or above which a deep node is
	// still significant.
	MinHyponyms int
}

// DefaultSignificancePolicy returns the thresholds tuned for broad lexical
// graphs.
func DefaultSignificancePolicy() SignificancePolicy {
	return SignificancePolicy{
		MinDepth:    6,
		MinHyponyms: 10,
	}
}

// Significant reports whether a node at the given depth with the given
// descendant count keeps its own Category.
func (p SignificancePolicy) Significant(depth, descendants int) bool {
	return depth <= p.MinDepth || descendants >= p.MinHyponyms
}

// ShouldPrune reports whether a node's subtree should be flattened into a
// leaf set instead of recursing. Roots are never pruned. Single-child
// chains are always pruned since they add depth without structure.
func (p SignificancePolicy) ShouldPrune(root bool, depth, descendants, childCount int) bool {
	if root {
		return false
	}
	if childCount <= 1 {
		return true
	}
	return !p.Significant(depth, descendants)
}
