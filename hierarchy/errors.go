package hierarchy

import "errors"

var (
	// ErrSourceRequired is returned when Build is called with a nil source.
	ErrSourceRequired = errors.New("source is required")

	// ErrEmptySource is returned when a source yields no nodes at all.
	ErrEmptySource = errors.New("source contains no nodes")

	// ErrOracleRequired is returned when a TermListBuilder is constructed
	// without a lexical oracle.
	ErrOracleRequired = errors.New("lexical oracle is required")

	// ErrNoTerms is returned when a TermListBuilder is given an empty list.
	ErrNoTerms = errors.New("term list is empty")
)
