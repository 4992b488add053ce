package export

import "errors"

var (
	// ErrUnsupportedNode is returned when a tree contains a node no
	// document form exists for.
	ErrUnsupportedNode = errors.New("unsupported node")

	// ErrEmptyDocument is returned when a document holds no taxonomy.
	ErrEmptyDocument = errors.New("document is empty")
)
