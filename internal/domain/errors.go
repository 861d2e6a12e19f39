package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrBadRequest signals a request rejected by the API as malformed.
	ErrBadRequest = errors.New("bad request")
	// ErrUnauthorized signals missing or wrong credentials.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden signals credentials lacking the required permission.
	ErrForbidden = errors.New("forbidden")
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrConflict signals a duplicate or conflicting resource.
	ErrConflict = errors.New("conflict")
	// ErrRateLimited signals a rate limit hit.
	ErrRateLimited = errors.New("rate limited")
	// ErrServer signals an API-side failure.
	ErrServer = errors.New("server error")
	// ErrNotConfigured signals a client built without credentials or base URL.
	ErrNotConfigured = errors.New("client not configured")
	// ErrInvalidID signals an empty or malformed resource identifier.
	ErrInvalidID = errors.New("invalid id")
	// ErrUnsupportedResult signals a result type the search endpoint cannot return.
	ErrUnsupportedResult = errors.New("result type not supported by endpoint")
)

// InvalidIDError wraps ErrInvalidID with the resource kind and the rejected value.
type InvalidIDError struct {
	Resource string
	ID       string
}

func (e *InvalidIDError) Error() string {
	return fmt.Sprintf("%s: %s %q", ErrInvalidID.Error(), e.Resource, e.ID)
}

func (e *InvalidIDError) Unwrap() error { return ErrInvalidID }

// NewInvalidID creates an invalid id error.
func NewInvalidID(resource, id string) error {
	return &InvalidIDError{Resource: resource, ID: id}
}
