package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) and services decide what they mean for the visitor:
// - ErrNotFound: no entry exists for the key (e.g. no consent blob recorded yet)
// - ErrUnavailable: the backing store could not be reached
// - ErrDisposed: the owning instance was torn down
//
// For validation failures use pkg/domain-errors or validation results.
var (
	ErrNotFound    = errors.New("not found")
	ErrUnavailable = errors.New("unavailable")
	ErrDisposed    = errors.New("disposed")
)
