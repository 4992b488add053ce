// Package storage defines the cache interfaces shared by embedding and
// dimensionality-reduction consumers, a MUS-based wire format for cache
// values, and an in-memory implementation. The badger subpackage provides a
// durable store for sharing caches across processes.
package storage
