package ai

import "errors"

var (
	// ErrHostRequired indicates the embedding host was empty.
	ErrHostRequired = errors.New("embedding host is required")

	// ErrModelRequired indicates the embedding model name was empty.
	ErrModelRequired = errors.New("embedding model is required")

	// ErrEmbedderRequired indicates a nil embedder was supplied where one is
	// mandatory.
	ErrEmbedderRequired = errors.New("embedder is required")
)
