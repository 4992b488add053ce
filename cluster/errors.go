package cluster

import "errors"

// ErrInvalidThreshold indicates a malformed size or quality threshold.
var ErrInvalidThreshold = errors.New("invalid clustering threshold")
