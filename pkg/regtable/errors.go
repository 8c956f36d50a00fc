package regtable

import "fmt"

// InvalidRequestError reports a malformed table request. It is raised before
// any estimation is attempted.
type InvalidRequestError struct {
	Reason string
	Err    error
}

func (e *InvalidRequestError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid request: %s: %v", e.Reason, e.Err)
	}
	return "invalid request: " + e.Reason
}

func (e *InvalidRequestError) Unwrap() error { return e.Err }

// EstimationError wraps a failure from the estimation collaborator with the
// position of the model that failed. The remaining models are not estimated.
type EstimationError struct {
	// Index is the zero-based position of the failed model in the result
	// ordering (partitioned mode counts the full-sample model as 0).
	Index  int
	DepVar string
	Err    error
}

func (e *EstimationError) Error() string {
	return fmt.Sprintf("estimate model %d (%s): %v", e.Index+1, e.DepVar, e.Err)
}

func (e *EstimationError) Unwrap() error { return e.Err }
