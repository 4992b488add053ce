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

// Package ai provides abstractions for the embedding services used by
// Skelgen.
//
// The package defines the Embedder and ModelEmbedder interfaces that the
// clustering and lint engines depend on, a Config for OpenAI-compatible
// endpoints, and a CachedEmbedder decorator that avoids re-embedding terms
// already present in a storage.EmbeddingCache. Concrete implementations live
// in the openai and mock subpackages.
package ai
