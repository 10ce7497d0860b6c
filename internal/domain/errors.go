package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthenticated means no usable token; callers redirect to login and the user may retry.
	ErrUnauthenticated = errors.New("please log in again")
	ErrForbidden       = errors.New("access not allowed for your role")
	ErrNetwork         = errors.New("network error or server unavailable")
	ErrUnknownRole     = errors.New("unknown role")
)

// APIError is a non-2xx answer from the booking backend.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string { return e.Message }

// ValidationError is raised before any network call.
type ValidationError struct{ Message string }

func (e *ValidationError) Error() string { return e.Message }

func Invalid(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// StatusOf returns the backend status carried by err, or 0.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
