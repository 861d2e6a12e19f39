package search

import (
	"context"

	"github.com/kailas-cloud/chino/internal/domain/search/mode"
	"github.com/kailas-cloud/chino/internal/domain/search/request"
	"github.com/kailas-cloud/chino/internal/domain/search/result"
)

// Executor sends a finished search request to the API.
type Executor interface {
	Search(
		ctx context.Context, endpoint mode.Endpoint, id string,
		req request.Request, offset, limit int,
	) (result.Page, error)
}
