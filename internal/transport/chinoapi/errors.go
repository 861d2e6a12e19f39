package chinoapi

import (
	"fmt"
	"net/http"

	"github.com/kailas-cloud/chino/internal/domain"
)

// APIError is a non-2xx answer from the Chino API.
type APIError struct {
	StatusCode int
	Result     string
	Message    string
	Method     string
	Endpoint   string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("chino api: %s %s: %d: %s", e.Method, e.Endpoint, e.StatusCode, msg)
}

// Unwrap maps the status code onto the domain sentinel errors.
func (e *APIError) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusBadRequest:
		return domain.ErrBadRequest
	case e.StatusCode == http.StatusUnauthorized:
		return domain.ErrUnauthorized
	case e.StatusCode == http.StatusForbidden:
		return domain.ErrForbidden
	case e.StatusCode == http.StatusNotFound:
		return domain.ErrNotFound
	case e.StatusCode == http.StatusConflict:
		return domain.ErrConflict
	case e.StatusCode == http.StatusTooManyRequests:
		return domain.ErrRateLimited
	case e.StatusCode >= 500:
		return domain.ErrServer
	default:
		return nil
	}
}

// Temporary reports whether the call may succeed when repeated.
func (e *APIError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}
