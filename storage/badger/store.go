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


package badger

import (
	"context"
	"errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/skelgen/core"
	"github.com/poiesic/skelgen/storage"
)

// Store implements storage.CacheStore on top of a badger Backend. Entries are
// write-once by construction (keys are content hashes), so concurrent
// duplicate upserts never conflict.
type Store struct {
	backend *Backend
}

var _ storage.CacheStore = (*Store)(nil)

// NewStore creates a cache store over an open backend.
func NewStore(backend *Backend) *Store {
	return &Store{backend: backend}
}

// NewMemoryStore creates an in-memory badger-backed store for testing.
// Caller must close the returned store when done.
func NewMemoryStore() (*Store, error) {
	backend, err := OpenBackend("", true)
	if err != nil {
		return nil, err
	}
	return NewStore(backend), nil
}

// GetEmbedding returns the cached vector for (term, modelID).
func (s *Store) GetEmbedding(_ context.Context, term, modelID string) ([]float32, bool, error) {
	var vector []float32
	found := false

	err := s.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeEmbeddingKey(term, modelID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			v, err := storage.UnmarshalVector(val)
			if err != nil {
				return err
			}
			vector = v
			found = true
			return nil
		})
	}, false)
	if err != nil {
		return nil, false, err
	}
	return vector, found, nil
}

// PutEmbedding upserts the vector for (term, modelID).
func (s *Store) PutEmbedding(_ context.Context, term, modelID string, vector []float32) error {
	return s.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(makeEmbeddingKey(term, modelID), storage.MarshalVector(vector)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// GetReduction returns the cached reduced matrix for key.
func (s *Store) GetReduction(_ context.Context, key core.ID) ([][]float32, bool, error) {
	var matrix [][]float32
	found := false

	err := s.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeReductionKey(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			m, err := storage.UnmarshalMatrix(val)
			if err != nil {
				return err
			}
			matrix = m
			found = true
			return nil
		})
	}, false)
	if err != nil {
		return nil, false, err
	}
	return matrix, found, nil
}

// PutReduction upserts the reduced matrix for key.
func (s *Store) PutReduction(_ context.Context, key core.ID, reduced [][]float32) error {
	return s.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(makeReductionKey(key), storage.MarshalMatrix(reduced)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// Close closes the underlying backend.
func (s *Store) Close() error {
	return s.backend.Close()
}
