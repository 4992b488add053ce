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


package core

import "errors"

// Domain validation errors
var (
	// ErrNegativeBudget indicates a traversal budget was constructed with a
	// negative cap.
	ErrNegativeBudget = errors.New("traversal budget cap cannot be negative")

	// ErrEmptyTerm indicates a term is empty after trimming.
	ErrEmptyTerm = errors.New("term cannot be empty")

	// ErrNodeKindMismatch indicates an operation expected a category but got a
	// leaf set, or the reverse.
	ErrNodeKindMismatch = errors.New("node kind mismatch")
)
