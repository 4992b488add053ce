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

// Package cluster arranges flat term lists into named semantic groups.
//
// The pipeline embeds every term, reduces the embeddings to a low-dimensional
// space that preserves local neighborhoods, runs a density-based clustering
// pass over the reduced space, and gates the resulting groups on size and
// cohesion. Surviving groups are labeled through a Namer, a relaxed second
// pass recovers micro-clusters from the remainder, and oversized groups are
// recursively subdivided. The whole pipeline is deterministic for fixed
// inputs and tuning; degenerate inputs degrade to an all-unclustered result
// instead of failing.
package cluster
