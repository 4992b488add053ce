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


// Package hierarchy orchestrates taxonomy construction. The GraphBuilder
// walks an existing parent/child graph top-down, flattening insignificant
// subtrees and bubbling undersized ones up as orphans; the TermListBuilder
// grows a tree bottom-up from a flat term list using lexical hypernym
// chains. Both respect a shared traversal budget and hand the finished
// tree to the constraint shaper.
package hierarchy
