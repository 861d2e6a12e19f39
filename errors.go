package chino

import (
	"github.com/kailas-cloud/chino/internal/domain"
	"github.com/kailas-cloud/chino/internal/domain/search/filter"
	"github.com/kailas-cloud/chino/internal/transport/chinoapi"
)

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrBadRequest        = domain.ErrBadRequest
	ErrUnauthorized      = domain.ErrUnauthorized
	ErrForbidden         = domain.ErrForbidden
	ErrNotFound          = domain.ErrNotFound
	ErrConflict          = domain.ErrConflict
	ErrRateLimited       = domain.ErrRateLimited
	ErrServer            = domain.ErrServer
	ErrNotConfigured     = domain.ErrNotConfigured
	ErrInvalidID         = domain.ErrInvalidID
	ErrUnsupportedResult = domain.ErrUnsupportedResult

	ErrInvalidField    = filter.ErrInvalidField
	ErrUnknownOperator = filter.ErrUnknownOperator
	ErrBuilderState    = filter.ErrBuilderState
	ErrSerialization   = filter.ErrSerialization
)

// Error types carrying context. Use errors.As() to inspect them.
type (
	APIError             = chinoapi.APIError
	InvalidFieldError    = filter.InvalidFieldError
	UnknownOperatorError = filter.UnknownOperatorError
	BuilderStateError    = filter.BuilderStateError
	SerializationError   = filter.SerializationError
)
