package storage

import "errors"

var (
	// ErrStoreClosed indicates an operation on a closed cache store.
	ErrStoreClosed = errors.New("cache store is closed")
)
