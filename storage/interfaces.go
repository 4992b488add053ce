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


package storage

import (
	"context"

	"github.com/poiesic/skelgen/core"
)

// EmbeddingCache stores term embeddings keyed by (term, model identifier).
// Writes are idempotent upserts: the same key always maps to the same vector,
// so concurrent duplicate writes are harmless. A cache is an acceleration,
// never a correctness dependency; callers must behave identically against a
// cold or absent cache.
type EmbeddingCache interface {
	// GetEmbedding returns the cached vector for (term, modelID).
	// The second return value reports whether the entry was present.
	GetEmbedding(ctx context.Context, term, modelID string) ([]float32, bool, error)

	// PutEmbedding upserts the vector for (term, modelID).
	PutEmbedding(ctx context.Context, term, modelID string, vector []float32) error
}

// ReductionCache stores dimensionality-reduction results keyed by a content
// hash of the input vector set and the reduction parameters, so identical
// inputs under identical tuning are never recomputed.
type ReductionCache interface {
	// GetReduction returns the cached reduced matrix for key.
	GetReduction(ctx context.Context, key core.ID) ([][]float32, bool, error)

	// PutReduction upserts the reduced matrix for key.
	PutReduction(ctx context.Context, key core.ID, reduced [][]float32) error
}

// CacheStore combines both caches behind one lifecycle.
type CacheStore interface {
	EmbeddingCache
	ReductionCache

	// Close releases the underlying store.
	Close() error
}
