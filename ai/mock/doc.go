// Package mock provides test doubles for the ai package interfaces.
//
// The mock embedder produces deterministic vectors derived from the input
// text, so tests get stable geometry without a running embedding service.
// Behavior can be overridden per test via injectable function fields.
package mock
