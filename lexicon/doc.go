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

// Package lexicon defines the lexical ontology boundary used for category
// naming and significance decisions.
//
// An Oracle resolves terms to candidate Senses and answers structural queries
// (hypernym, lowest common ancestor). CategoryPolicy encodes which senses make
// good category labels: preferred lexical categories, a generic-name
// blacklist, and a descendant-count ceiling. StaticOracle is a deterministic
// in-memory implementation backed by a declared sense table, suitable for
// tests and offline runs.
package lexicon
