package domain

import (
	"errors"
	"fmt"
)

// ErrNoCategories indicates the category mapping is empty or unseeded.
// Classification cannot proceed; the operator must seed reference data.
var ErrNoCategories = errors.New("category mapping is empty: seed categories before running classification")

// ErrUnknownEngine indicates the requested engine name matches no registered
// classification engine. The request itself is malformed.
var ErrUnknownEngine = errors.New("unknown classification engine")

// RunError wraps any unexpected failure during fetch, persistence, or
// aggregation. A failed run is fully invalid and must be re-run from
// scratch; no partial or resumable state exists.
type RunError struct {
	Stage string
	Err   error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("classification run failed during %s: %v", e.Stage, e.Err)
}

func (e *RunError) Unwrap() error { return e.Err }

// NewRunError wraps err with the pipeline stage it occurred in.
func NewRunError(stage string, err error) *RunError {
	return &RunError{Stage: stage, Err: err}
}
