package ai_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/skelgen/ai"
	"github.com/poiesic/skelgen/ai/mock"
	"github.com/poiesic/skelgen/storage"
)

func TestCachedEmbedder_EmbedText(t *testing.T) {
	ctx := context.Background()
	inner := mock.NewMockEmbedder()
	cache := storage.NewMemoryStore()
	defer cache.Close()

	cached := ai.NewCachedEmbedder(inner, cache)

	first, err := cached.EmbedText(ctx, "salmon")
	require.NoError(t, err)
	require.NotEmpty(t, first)
	assert.Equal(t, 1, inner.CallCount())

	// Second call should be served from the cache.
	second, err := cached.EmbedText(ctx, "salmon")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, inner.CallCount())

	// Case and whitespace variants hit the same cache entry.
	third, err := cached.EmbedText(ctx, "  Salmon ")
	require.NoError(t, err)
	assert.Equal(t, first, third)
	assert.Equal(t, 1, inner.CallCount())
}

func TestCachedEmbedder_EmbedTexts_PartialMiss(t *testing.T) {
	ctx := context.Background()
	inner := mock.NewMockEmbedder()
	cache := storage.NewMemoryStore()
	defer cache.Close()

	cached := ai.NewCachedEmbedder(inner, cache)

	// Warm the cache with one of the three terms.
	trout, err := cached.EmbedText(ctx, "trout")
	require.NoError(t, err)

	inner.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		// Only uncached terms should reach the backend.
		assert.Equal(t, []string{"salmon", "herring"}, texts)
		return [][]float32{{1, 0}, {0, 1}}, nil
	}

	vectors, err := cached.EmbedTexts(ctx, []string{"salmon", "trout", "herring"})
	require.NoError(t, err)
	require.Len(t, vectors, 3)
	assert.Equal(t, []float32{1, 0}, vectors[0])
	assert.Equal(t, trout, vectors[1])
	assert.Equal(t, []float32{0, 1}, vectors[2])
}

func TestCachedEmbedder_ModelPartitioning(t *testing.T) {
	ctx := context.Background()
	cache := storage.NewMemoryStore()
	defer cache.Close()

	a := mock.NewMockEmbedder()
	a.Model = "model-a"
	b := mock.NewMockEmbedder()
	b.Model = "model-b"

	_, err := ai.NewCachedEmbedder(a, cache).EmbedText(ctx, "salmon")
	require.NoError(t, err)

	// A different model must not see model-a's cached vector.
	_, err = ai.NewCachedEmbedder(b, cache).EmbedText(ctx, "salmon")
	require.NoError(t, err)
	assert.Equal(t, 1, b.CallCount())
}

func TestCachedEmbedder_BackendError(t *testing.T) {
	ctx := context.Background()
	inner := mock.NewMockEmbedder()
	wantErr := errors.New("service unavailable")
	inner.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return nil, wantErr
	}

	cached := ai.NewCachedEmbedder(inner, storage.NewMemoryStore())

	_, err := cached.EmbedText(ctx, "salmon")
	assert.ErrorIs(t, err, wantErr)
}

func TestCachedEmbedder_NilCache(t *testing.T) {
	ctx := context.Background()
	inner := mock.NewMockEmbedder()
	cached := ai.NewCachedEmbedder(inner, nil)

	vec, err := cached.EmbedText(ctx, "salmon")
	require.NoError(t, err)
	assert.NotEmpty(t, vec)
	assert.Equal(t, "mock-embedder", cached.ModelID())
}
