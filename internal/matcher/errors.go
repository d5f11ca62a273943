package matcher

import (
	"fmt"
)

// TransportError is returned when the request never produced an HTTP response:
// connection failures, timeouts and cancelled contexts.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: transport: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// RemoteError is returned for any non-2xx response. Body keeps the raw response
// payload for diagnostics.
type RemoteError struct {
	Op         string
	StatusCode int
	Status     string
	Body       string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s: bad status: %s", e.Op, e.Status)
}

// DecodeError is returned when a successful response body is not what the
// operation expects.
type DecodeError struct {
	Op  string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: decode response: %v", e.Op, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
