package naming

import "errors"

var (
	// ErrEmptyTermSet indicates an empty group was passed in, which is a
	// programmer error rather than a recoverable lookup miss.
	ErrEmptyTermSet = errors.New("empty term set")

	// ErrOracleRequired indicates a nil lexical oracle was supplied.
	ErrOracleRequired = errors.New("lexical oracle is required")

	// ErrInvalidThreshold indicates a malformed relevance threshold.
	ErrInvalidThreshold = errors.New("invalid naming threshold")
)
