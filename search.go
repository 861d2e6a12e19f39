package chino

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/chino/internal/domain/search/filter"
	"github.com/kailas-cloud/chino/internal/domain/search/mode"
	"github.com/kailas-cloud/chino/internal/domain/search/request"
	"github.com/kailas-cloud/chino/internal/domain/search/result"
)

// FilterType combines the filter clauses of a search.
type FilterType = mode.FilterType

// Filter types.
const (
	FilterAnd = mode.And
	FilterOr  = mode.Or
)

// ResultType selects what a search returns.
type ResultType = mode.ResultType

// Result types. UsernameExists is only accepted by user searches.
const (
	FullContent    = mode.FullContent
	OnlyID         = mode.OnlyID
	Exists         = mode.Exists
	UsernameExists = mode.UsernameExists
)

// Operator is a filter comparison.
type Operator = filter.Operator

// Filter operators.
const (
	OpEq       = filter.Eq
	OpNe       = filter.Ne
	OpGt       = filter.Gt
	OpGte      = filter.Gte
	OpLt       = filter.Lt
	OpLte      = filter.Lte
	OpIn       = filter.In
	OpNin      = filter.Nin
	OpWildcard = filter.Wildcard
)

// FilterOption is one filter clause: {"field", "type", "value"}, where type
// is an operator token such as "eq" or "in".
type FilterOption = filter.Option

// SortOption is one sort clause. Earlier clauses take priority.
type SortOption = filter.Sort

// SortOrder is a sort direction.
type SortOrder = filter.Order

// Sort directions.
const (
	Asc  = filter.Asc
	Desc = filter.Desc
)

// SearchRequest describes a search as plain option lists. Empty FilterType
// and ResultType default to "and" and FULL_CONTENT.
type SearchRequest struct {
	FilterType FilterType
	ResultType ResultType
	Filter     []FilterOption
	Sort       []SortOption
}

func (r SearchRequest) build() (request.Request, error) {
	return request.New(r.FilterType, r.ResultType, r.Filter, r.Sort)
}

// MarshalJSON encodes the request body exactly as it is sent.
func (r SearchRequest) MarshalJSON() ([]byte, error) {
	req, err := r.build()
	if err != nil {
		return nil, err
	}
	return req.Encode()
}

// SearchResult is one page of search results. Which members are set
// depends on the result type: Documents or Users for FULL_CONTENT, IDs for
// ONLY_ID and Exists for EXISTS and USERNAME_EXISTS.
type SearchResult struct {
	ResultType ResultType
	Documents  []Document
	Users      []User
	IDs        []string
	Exists     bool
	Count      int
	TotalCount int
	Limit      int
	Offset     int
}

// HasMore reports whether further pages exist after this one.
func (r SearchResult) HasMore() bool {
	return r.Count > 0 && r.Offset+r.Count < r.TotalCount
}

// SearchService runs searches over the documents of a schema or the users of
// a user schema.
type SearchService struct{ c *Client }

// Where starts a fluent search with a condition on field.
func (s *SearchService) Where(field string) *SearchBuilder {
	return s.Query().Where(field)
}

// Query starts an empty fluent search. Without conditions it matches every
// document.
func (s *SearchService) Query() *SearchBuilder {
	return newSearchBuilder(s)
}

// Documents runs one page of req against the documents of a schema.
func (s *SearchService) Documents(
	ctx context.Context, schemaID string, req SearchRequest, page ListOptions,
) (SearchResult, error) {
	r, err := req.build()
	if err != nil {
		return SearchResult{}, fmt.Errorf("search.documents: %w", err)
	}
	return s.run(ctx, mode.Documents, schemaID, r, page)
}

// Users runs one page of req against the users of a user schema.
func (s *SearchService) Users(
	ctx context.Context, userSchemaID string, req SearchRequest, page ListOptions,
) (SearchResult, error) {
	r, err := req.build()
	if err != nil {
		return SearchResult{}, fmt.Errorf("search.users: %w", err)
	}
	return s.run(ctx, mode.Users, userSchemaID, r, page)
}

// AllDocuments runs req against a schema and collects every page.
func (s *SearchService) AllDocuments(ctx context.Context, schemaID string, req SearchRequest) (SearchResult, error) {
	r, err := req.build()
	if err != nil {
		return SearchResult{}, fmt.Errorf("search.documents: %w", err)
	}
	return s.all(ctx, mode.Documents, schemaID, r)
}

// AllUsers runs req against a user schema and collects every page.
func (s *SearchService) AllUsers(ctx context.Context, userSchemaID string, req SearchRequest) (SearchResult, error) {
	r, err := req.build()
	if err != nil {
		return SearchResult{}, fmt.Errorf("search.users: %w", err)
	}
	return s.all(ctx, mode.Users, userSchemaID, r)
}

func (s *SearchService) run(
	ctx context.Context, endpoint mode.Endpoint, id string, req request.Request, page ListOptions,
) (SearchResult, error) {
	start := time.Now()
	p, err := s.c.search.Search(ctx, endpoint, id, req, page.Offset, page.Limit)
	s.c.obs.observeSearch(endpoint, scopePage, req, start, err)
	if err != nil {
		return SearchResult{}, fmt.Errorf("search.%s: %w", endpoint, err)
	}
	return toSearchResult(endpoint, p), nil
}

func (s *SearchService) all(
	ctx context.Context, endpoint mode.Endpoint, id string, req request.Request,
) (SearchResult, error) {
	start := time.Now()
	p, err := s.c.search.All(ctx, endpoint, id, req)
	s.c.obs.observeSearch(endpoint, scopeAll, req, start, err)
	if err != nil {
		return SearchResult{}, fmt.Errorf("search.%s_all: %w", endpoint, err)
	}
	return toSearchResult(endpoint, p), nil
}

func toSearchResult(endpoint mode.Endpoint, p result.Page) SearchResult {
	out := SearchResult{
		ResultType: p.ResultType(),
		IDs:        p.IDs(),
		Exists:     p.Exists(),
		Count:      p.Count(),
		TotalCount: p.TotalCount(),
		Limit:      p.Limit(),
		Offset:     p.Offset(),
	}
	for _, it := range p.Items() {
		if endpoint == mode.Users {
			out.Users = append(out.Users, User{
				ID:           it.ID(),
				UserSchemaID: it.SchemaID(),
				Username:     it.Username(),
				Attributes:   it.Content(),
				IsActive:     it.Active(),
				InsertDate:   Time{Time: it.InsertedAt()},
				LastUpdate:   Time{Time: it.UpdatedAt()},
			})
			continue
		}
		out.Documents = append(out.Documents, Document{
			ID:         it.ID(),
			SchemaID:   it.SchemaID(),
			Content:    it.Content(),
			IsActive:   it.Active(),
			InsertDate: Time{Time: it.InsertedAt()},
			LastUpdate: Time{Time: it.UpdatedAt()},
		})
	}
	return out
}
