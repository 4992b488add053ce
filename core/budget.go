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

import "sync"

// Unlimited marks a traversal budget with no cap. It is a distinct value
// rather than an overloaded zero: a configured cap of exactly zero is
// normalized to Unlimited at construction time, because "stop immediately"
// produced confusing empty outputs.
const Unlimited = -1

// TraversalBudget caps the total number of leaf items emitted across one
// recursive graph walk. A single instance is shared by reference through
// every recursive call of a traversal; it is decremented per item emitted,
// never per item visited. Safe for concurrent use from sibling goroutines.
type TraversalBudget struct {
	mu        sync.Mutex
	limit     int
	remaining int
}

// NewTraversalBudget creates a budget with the given cap. A cap of zero or
// Unlimited yields an unlimited budget; any other negative cap is a
// programmer error and returns ErrNegativeBudget.
func NewTraversalBudget(limit int) (*TraversalBudget, error) {
	if limit < 0 && limit != Unlimited {
		return nil, ErrNegativeBudget
	}
	if limit == 0 {
		limit = Unlimited
	}
	return &TraversalBudget{limit: limit, remaining: limit}, nil
}

// Limit returns the normalized cap: a positive count or Unlimited.
func (b *TraversalBudget) Limit() int {
	return b.limit
}

// IsUnlimited reports whether the budget never refuses consumption.
func (b *TraversalBudget) IsUnlimited() bool {
	return b.limit == Unlimited
}

// Remaining returns the number of items that may still be emitted, or
// Unlimited.
func (b *TraversalBudget) Remaining() int {
	if b.IsUnlimited() {
		return Unlimited
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.remaining
}

// Consume requests permission to emit n items. If the budget covers n the
// call decrements and returns true; otherwise nothing is consumed and it
// returns false. Unlimited budgets always allow and never decrement.
// A refusal means the caller must stop adding further items, but structure
// already accepted remains valid: partial results are not an error.
func (b *TraversalBudget) Consume(n int) bool {
	if n <= 0 {
		return true
	}
	if b.IsUnlimited() {
		return true
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if n > b.remaining {
		return false
	}
	b.remaining -= n
	return true
}

// ConsumeUpTo consumes as many of n items as the budget allows, in one
// atomic step, and returns the number granted. Unlimited budgets always
// grant n. Callers emitting a partial leaf set use this instead of a
// Remaining/Consume pair, which would race between sibling goroutines.
func (b *TraversalBudget) ConsumeUpTo(n int) int {
	if n <= 0 {
		return 0
	}
	if b.IsUnlimited() {
		return n
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if n > b.remaining {
		n = b.remaining
	}
	b.remaining -= n
	return n
}

// IsExhausted reports whether a finite budget has been fully consumed.
func (b *TraversalBudget) IsExhausted() bool {
	if b.IsUnlimited() {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.remaining == 0
}
