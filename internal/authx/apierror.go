package authx

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is a typed backend failure. It carries the HTTP status and the
// backend's message so the UI layer can distinguish the error taxonomy
// (incorrect vs. expired code, unauthorized, unavailable) without string
// matching on its side.
type APIError struct {
	Status  int    // HTTP status code
	Message string // backend-provided message, may be empty
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error: status %d", e.Status)
	}
	return fmt.Sprintf("api error: status %d: %s", e.Status, e.Message)
}

// Is maps well-known statuses onto the package sentinels, so
// errors.Is(err, ErrUnauthorized) works on a raw *APIError.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case ErrUnavailable:
		return e.Status >= 500
	}
	return false
}

// IsUnauthorized reports whether err represents a 401 from the backend or the
// ErrUnauthorized sentinel.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// StatusOf returns the HTTP status carried by err, or 0 if err is not an
// *APIError.
func StatusOf(err error) int {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae.Status
	}
	return 0
}
