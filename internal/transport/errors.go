package transport

import (
	"fmt"
	"net/http"
)

// Reasons for failures without an HTTP status.
const (
	ReasonUnreachable = "unreachable"
	ReasonTimeout     = "timeout"
	ReasonCanceled    = "canceled"
)

// Error is returned for non-2xx responses and for requests that got no response.
type Error struct {
	// StatusCode is the HTTP status, or 0 when no response was received.
	StatusCode int

	// ServerMessage is the "message" field of the response body, if any.
	ServerMessage string

	// Reason is set when StatusCode is 0.
	Reason string

	// Err is the underlying network error, if any.
	Err error
}

func (e *Error) Error() string {
	if e.StatusCode == 0 {
		if e.Err != nil {
			return fmt.Sprintf("%s: %v", e.Reason, e.Err)
		}
		return e.Reason
	}
	if e.ServerMessage != "" {
		return fmt.Sprintf("%d %s: %s", e.StatusCode, http.StatusText(e.StatusCode), e.ServerMessage)
	}
	return fmt.Sprintf("%d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Unreachable reports whether no response was received.
func (e *Error) Unreachable() bool {
	return e.StatusCode == 0
}

// NotFound reports a 404 response.
func (e *Error) NotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// Unauthorized reports a 401 or 403 response.
func (e *Error) Unauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}
