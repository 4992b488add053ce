package ai

import "context"

// Embedder generates vector embeddings from short text labels for semantic
// grouping. Implementations must be thread-safe for concurrent use: sibling
// subtrees of one traversal may embed concurrently against a single loaded
// model.
type Embedder interface {
	// EmbedText generates a vector embedding for a single term.
	// Deterministic for a fixed (term, model) pair.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple terms in a batch.
	// Batch processing is more efficient than calling EmbedText repeatedly.
	// The returned slice contains embeddings in the same order as the input.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// ModelEmbedder is an Embedder that can report which model produced its
// vectors. The model identifier partitions cache entries.
type ModelEmbedder interface {
	Embedder

	// ModelID returns the identifier of the underlying embedding model.
	ModelID() string
}
