package workflow

import "fmt"

const (
	ReasonNoResume   = "no resume"
	ReasonInProgress = "workflow in progress"
)

// ValidationError is returned before any network call when the parameters
// cannot produce a valid request.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// ConcurrencyError is returned synchronously when another workflow is running.
// The rejected call is neither queued nor does it cancel the running one.
type ConcurrencyError struct {
	State State
}

func (e *ConcurrencyError) Error() string {
	return fmt.Sprintf("%s (state: %s)", ReasonInProgress, e.State)
}
