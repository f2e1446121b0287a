package rtvi

import (
	"errors"
	"fmt"

	"github.com/pipecat-ai/rtvi-client-android/sdk/async"
)

var (
	ErrOperationCancelled            = errors.New("the operation was cancelled")
	ErrTimeout                       = async.ErrTimeout
	ErrPreviousConnectionStillActive = errors.New("the previous connection is still active")
	ErrHelperNotRegistered           = errors.New("this helper is not registered to a client")
	ErrTransportNotInitialized       = errors.New("transport not initialized")

	// ErrConnectionEnded fails a single-turn action whose stream closed without a response.
	ErrConnectionEnded = errors.New("connection ended before result received")
)

// HTTPErrorKind classifies HTTP failures.
type HTTPErrorKind int

const (
	HTTPBadStatusCode HTTPErrorKind = iota
	HTTPExceptionThrown
	HTTPMissingResponseBody
)

// HTTPError is a failed auth or single-turn request.
type HTTPError struct {
	Kind HTTPErrorKind
	URL  string
	Code int
	Body string
	Err  error
}

func (e *HTTPError) Error() string {
	switch e.Kind {
	case HTTPBadStatusCode:
		return fmt.Sprintf("server returned status code %d: response body '%s'", e.Code, e.Body)
	case HTTPExceptionThrown:
		return fmt.Sprintf("an exception was thrown (%v)", e.Err)
	default:
		return "the response had no body data"
	}
}

func (e *HTTPError) Unwrap() error { return e.Err }

// ErrorResponse is an error-response sent by the backend for a request.
type ErrorResponse struct {
	Message string
}

func (e *ErrorResponse) Error() string {
	return "received error response from backend: " + e.Message
}

// InvalidStateError reports an operation attempted in the wrong state.
type InvalidStateError struct {
	Expected TransportState
	Actual   TransportState
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("invalid state: expected %s, actual %s", e.Expected, e.Actual)
}
