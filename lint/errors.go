package lint

import "errors"

// ErrInvalidThreshold is returned when the outlier threshold is outside
// [0, 1].
var ErrInvalidThreshold = errors.New("threshold must be between 0 and 1")
