package chino

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/chino/internal/domain/search/mode"
	"github.com/kailas-cloud/chino/internal/domain/search/query"
)

// SearchBuilder builds a search fluently:
//
//	Where(field).<operator>(value) { And|Or(field).<operator>(value) }
//
// A condition must follow every Where/And/Or, and a request uses either And
// or Or, not both. The first mistake is kept and returned by Build,
// Documents and Users; later calls are ignored. Sorting, result type and
// paging can be set at any point. A builder is single-use and not safe for
// concurrent use.
type SearchBuilder struct {
	svc  *SearchService
	q    *query.Builder
	page ListOptions
}

func newSearchBuilder(svc *SearchService) *SearchBuilder {
	return &SearchBuilder{svc: svc, q: query.New()}
}

// Where opens a condition on field.
func (b *SearchBuilder) Where(field string) *SearchBuilder { b.q.Where(field); return b }

// And opens a further condition on field; every condition must match.
func (b *SearchBuilder) And(field string) *SearchBuilder { b.q.And(field); return b }

// Or opens a further condition on field; any condition may match.
func (b *SearchBuilder) Or(field string) *SearchBuilder { b.q.Or(field); return b }

// Eq completes the condition with field == value.
func (b *SearchBuilder) Eq(value any) *SearchBuilder { b.q.Eq(value); return b }

// Ne completes the condition with field != value.
func (b *SearchBuilder) Ne(value any) *SearchBuilder { b.q.Ne(value); return b }

// Gt completes the condition with field > value.
func (b *SearchBuilder) Gt(value any) *SearchBuilder { b.q.Gt(value); return b }

// Gte completes the condition with field >= value.
func (b *SearchBuilder) Gte(value any) *SearchBuilder { b.q.Gte(value); return b }

// Lt completes the condition with field < value.
func (b *SearchBuilder) Lt(value any) *SearchBuilder { b.q.Lt(value); return b }

// Lte completes the condition with field <= value.
func (b *SearchBuilder) Lte(value any) *SearchBuilder { b.q.Lte(value); return b }

// In completes the condition with field in values (a slice).
func (b *SearchBuilder) In(values any) *SearchBuilder { b.q.In(values); return b }

// Nin completes the condition with field not in values (a slice).
func (b *SearchBuilder) Nin(values any) *SearchBuilder { b.q.Nin(values); return b }

// Wildcard completes the condition with a pattern match; * matches any run
// of characters.
func (b *SearchBuilder) Wildcard(pattern string) *SearchBuilder { b.q.Wildcard(pattern); return b }

// Condition completes the condition with an explicit operator.
func (b *SearchBuilder) Condition(op Operator, value any) *SearchBuilder {
	b.q.Condition(op, value)
	return b
}

// SortAscBy appends an ascending sort on field.
func (b *SearchBuilder) SortAscBy(field string) *SearchBuilder { b.q.SortAscBy(field); return b }

// SortDescBy appends a descending sort on field.
func (b *SearchBuilder) SortDescBy(field string) *SearchBuilder { b.q.SortDescBy(field); return b }

// ResultType sets what the search returns. Default: FULL_CONTENT.
func (b *SearchBuilder) ResultType(rt ResultType) *SearchBuilder { b.q.ResultType(rt); return b }

// Limit sets the page size.
func (b *SearchBuilder) Limit(n int) *SearchBuilder { b.page.Limit = n; return b }

// Offset sets how many results to skip.
func (b *SearchBuilder) Offset(n int) *SearchBuilder { b.page.Offset = n; return b }

// Err returns the first mistake recorded so far.
func (b *SearchBuilder) Err() error { return b.q.Err() }

// Build returns the request the builder describes.
func (b *SearchBuilder) Build() (SearchRequest, error) {
	req, err := b.q.Build()
	if err != nil {
		return SearchRequest{}, err
	}
	return SearchRequest{
		FilterType: req.FilterType(),
		ResultType: req.ResultType(),
		Filter:     req.Filters(),
		Sort:       req.Sorts(),
	}, nil
}

// JSON returns the request body that would be sent.
func (b *SearchBuilder) JSON() ([]byte, error) {
	req, err := b.q.Build()
	if err != nil {
		return nil, err
	}
	return req.Encode()
}

// Documents runs the search against the documents of a schema.
func (b *SearchBuilder) Documents(ctx context.Context, schemaID string) (SearchResult, error) {
	return b.send(ctx, mode.Documents, schemaID)
}

// Users runs the search against the users of a user schema.
func (b *SearchBuilder) Users(ctx context.Context, userSchemaID string) (SearchResult, error) {
	return b.send(ctx, mode.Users, userSchemaID)
}

func (b *SearchBuilder) send(ctx context.Context, endpoint mode.Endpoint, id string) (SearchResult, error) {
	req, err := b.q.Build()
	if err != nil {
		return SearchResult{}, fmt.Errorf("search.%s: %w", endpoint, err)
	}
	if b.svc == nil {
		return SearchResult{}, fmt.Errorf("search.%s: %w", endpoint, ErrNotConfigured)
	}
	return b.svc.run(ctx, endpoint, id, req, b.page)
}
