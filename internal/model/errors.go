package model

import (
	"errors"
	"fmt"
)

// ErrNotFound marks lookups for records or blobs that do not exist. It is
// distinct from ErrCacheIO so callers can tell "go compute it" apart from
// "the cache backend is unavailable".
var ErrNotFound = errors.New("not found")

// ErrCacheIO wraps store-layer failures on the persistence backend.
var ErrCacheIO = errors.New("cache i/o failure")

// ParamsError reports a FractalParams set rejected before any computation.
type ParamsError struct {
	Field  string
	Reason string
}

func (e *ParamsError) Error() string {
	return fmt.Sprintf("invalid params: %s: %s", e.Field, e.Reason)
}

// ComputeError reports a numeric failure inside the field evaluator. It is
// recorded on the task, never cached, and the fingerprint stays eligible
// for a fresh attempt.
type ComputeError struct {
	Fingerprint string
	Reason      string
}

func (e *ComputeError) Error() string {
	return fmt.Sprintf("computation failed for %s: %s", e.Fingerprint, e.Reason)
}

// IsInvalidParams reports whether err is a pre-computation rejection.
func IsInvalidParams(err error) bool {
	var pe *ParamsError
	return errors.As(err, &pe)
}
