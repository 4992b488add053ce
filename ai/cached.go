package ai

import (
	"context"
	"log/slog"

	"github.com/poiesic/skelgen/storage"
)

// CachedEmbedder decorates a ModelEmbedder with a cache keyed by
// (normalized term, model identifier). Cache failures degrade to direct
// inference; they are logged, never surfaced.
type CachedEmbedder struct {
	inner  ModelEmbedder
	cache  storage.EmbeddingCache
	logger *slog.Logger
}

var _ ModelEmbedder = (*CachedEmbedder)(nil)

// NewCachedEmbedder wraps inner with cache. A nil cache returns inner's
// behavior unchanged.
func NewCachedEmbedder(inner ModelEmbedder, cache storage.EmbeddingCache) *CachedEmbedder {
	return &CachedEmbedder{
		inner:  inner,
		cache:  cache,
		logger: slog.Default().With("component", "cached-embedder"),
	}
}

// ModelID returns the identifier of the underlying embedding model.
func (e *CachedEmbedder) ModelID() string {
	return e.inner.ModelID()
}

// EmbedText returns the cached vector for text, falling back to inference and
// writing through on a miss.
func (e *CachedEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if e.cache != nil {
		vector, found, err := e.cache.GetEmbedding(ctx, text, e.ModelID())
		if err != nil {
			e.logger.Warn("embedding cache read failed", "err", err)
		} else if found {
			return vector, nil
		}
	}

	vector, err := e.inner.EmbedText(ctx, text)
	if err != nil {
		return nil, err
	}
	e.store(ctx, text, vector)
	return vector, nil
}

// EmbedTexts resolves each text against the cache and batches only the misses
// through the underlying embedder.
func (e *CachedEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	missIdx := make([]int, 0, len(texts))
	missTexts := make([]string, 0, len(texts))

	for i, text := range texts {
		if e.cache != nil {
			vector, found, err := e.cache.GetEmbedding(ctx, text, e.ModelID())
			if err != nil {
				e.logger.Warn("embedding cache read failed", "err", err)
			} else if found {
				out[i] = vector
				continue
			}
		}
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, text)
	}

	if len(missTexts) == 0 {
		return out, nil
	}

	vectors, err := e.inner.EmbedTexts(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	for j, i := range missIdx {
		out[i] = vectors[j]
		e.store(ctx, missTexts[j], vectors[j])
	}
	return out, nil
}

func (e *CachedEmbedder) store(ctx context.Context, text string, vector []float32) {
	if e.cache == nil {
		return
	}
	if err := e.cache.PutEmbedding(ctx, text, e.ModelID(), vector); err != nil {
		e.logger.Warn("embedding cache write failed", "err", err)
	}
}
