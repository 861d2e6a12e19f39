package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/kailas-cloud/chino/internal/domain"
	"github.com/kailas-cloud/chino/internal/domain/search/mode"
	"github.com/kailas-cloud/chino/internal/domain/search/request"
	"github.com/kailas-cloud/chino/internal/domain/search/result"
)

// Service validates search calls and pages through results.
type Service struct {
	exec            Executor
	defaultPageSize int
	maxPageSize     int
}

// New creates a search service.
func New(exec Executor) *Service {
	return &Service{
		exec:            exec,
		defaultPageSize: 100,
		maxPageSize:     100,
	}
}

// WithPagination configures page size limits.
func (s *Service) WithPagination(defaultPageSize, maxPageSize int) *Service {
	if defaultPageSize > 0 {
		s.defaultPageSize = defaultPageSize
	}
	if maxPageSize > 0 {
		s.maxPageSize = maxPageSize
	}
	return s
}

// Search runs one page of req against the documents of a schema or the users
// of a user schema.
func (s *Service) Search(
	ctx context.Context, endpoint mode.Endpoint, id string,
	req request.Request, offset, limit int,
) (result.Page, error) {
	if err := validate(endpoint, id, req); err != nil {
		return result.Page{}, err
	}
	if offset < 0 {
		return result.Page{}, fmt.Errorf("%w: negative offset %d", domain.ErrBadRequest, offset)
	}

	page, err := s.exec.Search(ctx, endpoint, id, req, offset, s.pageSize(limit))
	if err != nil {
		return result.Page{}, fmt.Errorf("search %s %s: %w", endpoint, id, err)
	}
	return page, nil
}

// Each calls fn for every page of results, starting at offset zero.
// Existence searches yield a single page.
func (s *Service) Each(
	ctx context.Context, endpoint mode.Endpoint, id string,
	req request.Request, fn func(result.Page) error,
) error {
	offset := 0
	for {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("search %s %s: %w", endpoint, id, err)
		}
		page, err := s.Search(ctx, endpoint, id, req, offset, s.maxPageSize)
		if err != nil {
			return err
		}
		if err := fn(page); err != nil {
			return err
		}
		if !page.HasMore() {
			return nil
		}
		offset += page.Count()
	}
}

// All collects every page into one.
func (s *Service) All(
	ctx context.Context, endpoint mode.Endpoint, id string, req request.Request,
) (result.Page, error) {
	rt := req.ResultType()
	var (
		items  []result.Item
		ids    []string
		total  int
		exists *result.Page
	)
	err := s.Each(ctx, endpoint, id, req, func(p result.Page) error {
		if rt == mode.Exists || rt == mode.UsernameExists {
			exists = &p
			return nil
		}
		total = p.TotalCount()
		if rt == mode.OnlyID {
			ids = append(ids, p.IDs()...)
		} else {
			items = append(items, p.Items()...)
		}
		return nil
	})
	if err != nil {
		return result.Page{}, err
	}
	if exists != nil {
		return *exists, nil
	}
	return result.NewPage(rt, total, max(len(items), len(ids)), 0, items, ids), nil
}

func (s *Service) pageSize(limit int) int {
	if limit <= 0 {
		return s.defaultPageSize
	}
	return min(limit, s.maxPageSize)
}

func validate(endpoint mode.Endpoint, id string, req request.Request) error {
	if !endpoint.IsValid() {
		return fmt.Errorf("%w: unknown search endpoint %q", domain.ErrBadRequest, endpoint)
	}
	if strings.TrimSpace(id) == "" {
		return domain.NewInvalidID(endpoint.SchemaKind(), id)
	}
	if !endpoint.Supports(req.ResultType()) {
		return fmt.Errorf("search %s: %w: %s", endpoint, domain.ErrUnsupportedResult, req.ResultType())
	}
	return nil
}
