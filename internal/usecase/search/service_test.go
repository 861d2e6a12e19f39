package search

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/kailas-cloud/chino/internal/domain"
	"github.com/kailas-cloud/chino/internal/domain/search/mode"
	"github.com/kailas-cloud/chino/internal/domain/search/request"
	"github.com/kailas-cloud/chino/internal/domain/search/result"
)

// --- Mocks ---

type mockExecutor struct {
	searchFn func(ctx context.Context, endpoint mode.Endpoint, id string, req request.Request, offset, limit int) (result.Page, error)
	calls    int
	limits   []int
}

func (m *mockExecutor) Search(
	ctx context.Context, endpoint mode.Endpoint, id string,
	req request.Request, offset, limit int,
) (result.Page, error) {
	m.calls++
	m.limits = append(m.limits, limit)
	return m.searchFn(ctx, endpoint, id, req, offset, limit)
}

// pagedExecutor serves ids id-0..id-(total-1) in pages.
func pagedExecutor(total int) *mockExecutor {
	return &mockExecutor{
		searchFn: func(_ context.Context, _ mode.Endpoint, _ string, req request.Request, offset, limit int) (result.Page, error) {
			var ids []string
			for i := offset; i < total && i < offset+limit; i++ {
				ids = append(ids, fmt.Sprintf("id-%d", i))
			}
			return result.NewPage(req.ResultType(), total, limit, offset, nil, ids), nil
		},
	}
}

func mustRequest(t *testing.T, rt mode.ResultType) request.Request {
	t.Helper()
	r, err := request.New(mode.And, rt, nil, nil)
	if err != nil {
		t.Fatalf("request.New: %v", err)
	}
	return r
}

// --- Tests ---

func TestSearch_Validation(t *testing.T) {
	exec := pagedExecutor(1)
	svc := New(exec)
	ctx := context.Background()

	tests := []struct {
		name     string
		endpoint mode.Endpoint
		id       string
		rt       mode.ResultType
		offset   int
		want     error
	}{
		{"unknown endpoint", "blobs", "s", mode.FullContent, 0, domain.ErrBadRequest},
		{"blank id", mode.Documents, "  ", mode.FullContent, 0, domain.ErrInvalidID},
		{"username exists on documents", mode.Documents, "s", mode.UsernameExists, 0, domain.ErrUnsupportedResult},
		{"negative offset", mode.Documents, "s", mode.FullContent, -1, domain.ErrBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Search(ctx, tt.endpoint, tt.id, mustRequest(t, tt.rt), tt.offset, 10)
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
	if exec.calls != 0 {
		t.Errorf("executor called %d times for invalid input", exec.calls)
	}
}

func TestSearch_PageSize(t *testing.T) {
	exec := pagedExecutor(500)
	svc := New(exec).WithPagination(20, 50)
	ctx := context.Background()
	req := mustRequest(t, mode.OnlyID)

	for _, limit := range []int{0, 10, 80} {
		if _, err := svc.Search(ctx, mode.Documents, "s", req, 0, limit); err != nil {
			t.Fatalf("Search(limit=%d): %v", limit, err)
		}
	}
	want := []int{20, 10, 50}
	for i, w := range want {
		if exec.limits[i] != w {
			t.Errorf("call %d limit = %d, want %d", i, exec.limits[i], w)
		}
	}
}

func TestSearch_UsernameExistsOnUsers(t *testing.T) {
	exec := &mockExecutor{
		searchFn: func(_ context.Context, _ mode.Endpoint, _ string, req request.Request, _, _ int) (result.Page, error) {
			return result.NewExistence(req.ResultType(), true), nil
		},
	}
	page, err := New(exec).Search(context.Background(), mode.Users, "us", mustRequest(t, mode.UsernameExists), 0, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !page.Exists() {
		t.Error("Exists() = false")
	}
}

func TestSearch_WrapsExecutorError(t *testing.T) {
	exec := &mockExecutor{
		searchFn: func(context.Context, mode.Endpoint, string, request.Request, int, int) (result.Page, error) {
			return result.Page{}, domain.ErrUnauthorized
		},
	}
	_, err := New(exec).Search(context.Background(), mode.Documents, "s", mustRequest(t, mode.FullContent), 0, 0)
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("error = %v", err)
	}
}

func TestAll_WalksPages(t *testing.T) {
	exec := pagedExecutor(250)
	svc := New(exec)

	page, err := svc.All(context.Background(), mode.Documents, "s", mustRequest(t, mode.OnlyID))
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if exec.calls != 3 {
		t.Errorf("executor calls = %d, want 3", exec.calls)
	}
	ids := page.IDs()
	if len(ids) != 250 || ids[0] != "id-0" || ids[249] != "id-249" {
		t.Errorf("ids = %d [%s..%s]", len(ids), ids[0], ids[len(ids)-1])
	}
	if page.TotalCount() != 250 {
		t.Errorf("TotalCount() = %d", page.TotalCount())
	}
}

func TestAll_ExistenceSinglePage(t *testing.T) {
	exec := &mockExecutor{
		searchFn: func(_ context.Context, _ mode.Endpoint, _ string, req request.Request, _, _ int) (result.Page, error) {
			return result.NewExistence(req.ResultType(), false), nil
		},
	}
	page, err := New(exec).All(context.Background(), mode.Documents, "s", mustRequest(t, mode.Exists))
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if exec.calls != 1 || page.Exists() {
		t.Errorf("calls = %d, exists = %v", exec.calls, page.Exists())
	}
}

func TestEach_StopsOnCallbackError(t *testing.T) {
	exec := pagedExecutor(300)
	stop := errors.New("stop")
	err := New(exec).Each(context.Background(), mode.Documents, "s", mustRequest(t, mode.OnlyID), func(result.Page) error {
		return stop
	})
	if !errors.Is(err, stop) {
		t.Errorf("error = %v", err)
	}
	if exec.calls != 1 {
		t.Errorf("calls = %d, want 1", exec.calls)
	}
}

func TestEach_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := New(pagedExecutor(10)).Each(ctx, mode.Documents, "s", mustRequest(t, mode.OnlyID), func(result.Page) error { return nil })
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v", err)
	}
}
