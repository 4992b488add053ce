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
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/skelgen/core"
)

// MUS serializers for cache values. The payloads are small enough that the
// serializers are written by hand against the mus-go primitives instead of
// generated.
var (
	vectorMUS = ord.NewSliceSer[float32](raw.Float32)
	matrixMUS = ord.NewSliceSer[[]float32](vectorMUS)
)

// MarshalID serializes a cache key to bytes.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, varint.Uint64.Size(uint64(id)))
	varint.Uint64.Marshal(uint64(id), buf)
	return buf
}

// UnmarshalID deserializes a cache key from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	v, _, err := varint.Uint64.Unmarshal(data)
	return core.ID(v), err
}

// MarshalVector serializes an embedding vector to bytes.
func MarshalVector(vector []float32) []byte {
	buf := make([]byte, vectorMUS.Size(vector))
	vectorMUS.Marshal(vector, buf)
	return buf
}

// UnmarshalVector deserializes an embedding vector from bytes.
func UnmarshalVector(data []byte) ([]float32, error) {
	vector, _, err := vectorMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return vector, nil
}

// MarshalMatrix serializes a reduced vector set to bytes.
func MarshalMatrix(matrix [][]float32) []byte {
	buf := make([]byte, matrixMUS.Size(matrix))
	matrixMUS.Marshal(matrix, buf)
	return buf
}

// UnmarshalMatrix deserializes a reduced vector set from bytes.
func UnmarshalMatrix(data []byte) ([][]float32, error) {
	matrix, _, err := matrixMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return matrix, nil
}
