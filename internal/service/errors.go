package service

import (
	"errors"
	"strings"
)

var (
	// ErrNotFound is returned when a task does not exist remotely.
	ErrNotFound = errors.New("not found")

	// ErrMalformedResponse is returned when a response body matches no known task shape.
	ErrMalformedResponse = errors.New("task data is in unexpected format")

	// ErrNotLoggedIn is returned when no credentials are available for the backend.
	ErrNotLoggedIn = errors.New("not logged in")

	// ErrUnauthorized is returned when the backend rejects the credentials.
	ErrUnauthorized = errors.New("session expired or revoked")
)

// ValidationError reports required fields left empty before submission.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	switch len(e.Fields) {
	case 0:
		return "validation failed"
	case 1:
		return e.Fields[0] + " required"
	default:
		return strings.Join(e.Fields, ", ") + " required"
	}
}

// Require returns a *ValidationError naming every blank field, or nil.
// fields alternates name and value.
func Require(fields ...string) error {
	var missing []string
	for i := 0; i+1 < len(fields); i += 2 {
		if strings.TrimSpace(fields[i+1]) == "" {
			missing = append(missing, fields[i])
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return &ValidationError{Fields: missing}
}
