package storage

import (
	"context"
	"sync"

	"github.com/poiesic/skelgen/core"
)

// MemoryStore is an in-process CacheStore. It is the default backing for a
// single job; durable stores are layered in only as a cross-process
// acceleration.
type MemoryStore struct {
	mu         sync.RWMutex
	embeddings map[string][]float32
	reductions map[core.ID][][]float32
	closed     bool
}

var _ CacheStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory cache store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		embeddings: make(map[string][]float32),
		reductions: make(map[core.ID][][]float32),
	}
}

func embeddingKey(term, modelID string) string {
	return modelID + "|" + core.NormalizeTerm(term)
}

// GetEmbedding returns the cached vector for (term, modelID).
func (s *MemoryStore) GetEmbedding(_ context.Context, term, modelID string) ([]float32, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, false, ErrStoreClosed
	}
	v, ok := s.embeddings[embeddingKey(term, modelID)]
	if !ok {
		return nil, false, nil
	}
	return append([]float32(nil), v...), true, nil
}

// PutEmbedding upserts the vector for (term, modelID).
func (s *MemoryStore) PutEmbedding(_ context.Context, term, modelID string, vector []float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}
	s.embeddings[embeddingKey(term, modelID)] = append([]float32(nil), vector...)
	return nil
}

// GetReduction returns the cached reduced matrix for key.
func (s *MemoryStore) GetReduction(_ context.Context, key core.ID) ([][]float32, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, false, ErrStoreClosed
	}
	m, ok := s.reductions[key]
	if !ok {
		return nil, false, nil
	}
	out := make([][]float32, len(m))
	for i, row := range m {
		out[i] = append([]float32(nil), row...)
	}
	return out, true, nil
}

// PutReduction upserts the reduced matrix for key.
func (s *MemoryStore) PutReduction(_ context.Context, key core.ID, reduced [][]float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}
	cp := make([][]float32, len(reduced))
	for i, row := range reduced {
		cp[i] = append([]float32(nil), row...)
	}
	s.reductions[key] = cp
	return nil
}

// Close marks the store closed. Further operations fail with ErrStoreClosed.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
