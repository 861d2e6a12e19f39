package chino

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/kailas-cloud/chino/internal/domain/search/mode"
	"github.com/kailas-cloud/chino/internal/domain/search/request"
	"github.com/kailas-cloud/chino/internal/domain/search/result"
)

func TestSearchRequest_MarshalJSON(t *testing.T) {
	req := SearchRequest{
		ResultType: OnlyID,
		Filter: []FilterOption{
			{Field: "age", Type: "gt", Value: 18},
			{Field: "city", Type: "eq", Value: `Rome "centro"`},
		},
		Sort: []SortOption{{Field: "age", Order: Desc}},
	}
	got, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded struct {
		ResultType string `json:"resultType"`
		FilterType string `json:"filterType"`
		Filter     []struct {
			Field string `json:"field"`
			Type  string `json:"type"`
			Value any    `json:"value"`
		} `json:"filter"`
		Sort []struct {
			Field string `json:"field"`
			Order string `json:"order"`
		} `json:"sort"`
	}
	if err := json.Unmarshal(got, &decoded); err != nil {
		t.Fatalf("body is not valid JSON: %v\n%s", err, got)
	}
	if decoded.FilterType != "and" || decoded.ResultType != "ONLY_ID" {
		t.Errorf("types = %s / %s", decoded.FilterType, decoded.ResultType)
	}
	if len(decoded.Filter) != 2 || decoded.Filter[1].Value != `Rome "centro"` {
		t.Errorf("filter = %+v", decoded.Filter)
	}
	if len(decoded.Sort) != 1 || decoded.Sort[0].Order != "desc" {
		t.Errorf("sort = %+v", decoded.Sort)
	}
}

func TestSearchRequest_MarshalJSON_UnknownOperator(t *testing.T) {
	req := SearchRequest{Filter: []FilterOption{{Field: "age", Type: "between", Value: 1}}}
	_, err := json.Marshal(req)
	if !errors.Is(err, ErrUnknownOperator) {
		t.Errorf("err = %v, want ErrUnknownOperator", err)
	}
}

func TestSearchBuilder_MatchesManualRequest(t *testing.T) {
	svc := &SearchService{}
	built, err := svc.Where("patient_id").Eq("abc").
		Or("visit_type").In([]string{"routine", "insurance"}).
		SortAscBy("date").
		JSON()
	if err != nil {
		t.Fatalf("builder: %v", err)
	}

	manual, err := json.Marshal(SearchRequest{
		FilterType: FilterOr,
		Filter: []FilterOption{
			{Field: "patient_id", Type: "eq", Value: "abc"},
			{Field: "visit_type", Type: "in", Value: []string{"routine", "insurance"}},
		},
		Sort: []SortOption{{Field: "date", Order: Asc}},
	})
	if err != nil {
		t.Fatalf("manual: %v", err)
	}
	if string(built) != string(manual) {
		t.Errorf("builder body differs:\n%s\n%s", built, manual)
	}
}

func TestSearchBuilder_Errors(t *testing.T) {
	svc := &SearchService{}
	tests := []struct {
		name   string
		build  func() *SearchBuilder
		target error
	}{
		{"operator without field", func() *SearchBuilder { return svc.Query().Eq(1) }, ErrBuilderState},
		{"incomplete condition", func() *SearchBuilder { return svc.Where("a") }, ErrBuilderState},
		{"mixed combinators", func() *SearchBuilder {
			return svc.Where("a").Eq(1).And("b").Eq(2).Or("c").Eq(3)
		}, ErrBuilderState},
		{"empty field", func() *SearchBuilder { return svc.Where(" ") }, ErrInvalidField},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.build().Build()
			if !errors.Is(err, tt.target) {
				t.Errorf("err = %v, want %v", err, tt.target)
			}
		})
	}
}

func TestSearchBuilder_Documents(t *testing.T) {
	inserted := time.Date(2017, 3, 14, 10, 58, 29, 0, time.UTC)
	search := &mockSearchUC{
		searchFn: func(
			_ context.Context, endpoint mode.Endpoint, id string, req request.Request, offset, limit int,
		) (result.Page, error) {
			if endpoint != mode.Documents || id != "s1" {
				t.Errorf("endpoint = %s %s", endpoint, id)
			}
			if offset != 10 || limit != 5 {
				t.Errorf("paging = %d/%d", offset, limit)
			}
			if req.FilterType() != mode.And || len(req.Filters()) != 2 {
				t.Errorf("req = %s", req.DebugString())
			}
			items := []result.Item{
				result.NewItem("d1", "s1", "", map[string]any{"age": 42.0}, true, inserted, inserted),
			}
			return result.NewPage(mode.FullContent, 11, 5, 10, items, nil), nil
		},
	}
	c := newMockClient(&mockAPI{}, search, nil)

	res, err := c.Search().Where("age").Gte(40).And("age").Lt(50).
		Offset(10).Limit(5).
		Documents(context.Background(), "s1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Documents) != 1 || res.Documents[0].ID != "d1" {
		t.Fatalf("documents = %+v", res.Documents)
	}
	if !res.Documents[0].InsertDate.Equal(inserted) {
		t.Errorf("InsertDate = %v", res.Documents[0].InsertDate)
	}
	if res.HasMore() {
		t.Error("last page reported more")
	}
}

func TestSearchBuilder_BuildErrorNotSent(t *testing.T) {
	search := &mockSearchUC{
		searchFn: func(context.Context, mode.Endpoint, string, request.Request, int, int) (result.Page, error) {
			t.Fatal("invalid search was sent")
			return result.Page{}, nil
		},
	}
	c := newMockClient(&mockAPI{}, search, nil)

	_, err := c.Search().Where("a").Users(context.Background(), "us1")
	var stateErr *BuilderStateError
	if !errors.As(err, &stateErr) {
		t.Fatalf("err = %v, want *BuilderStateError", err)
	}
}

func TestSearchService_Users(t *testing.T) {
	search := &mockSearchUC{
		searchFn: func(
			_ context.Context, endpoint mode.Endpoint, _ string, req request.Request, _, _ int,
		) (result.Page, error) {
			if endpoint != mode.Users || req.ResultType() != mode.UsernameExists {
				t.Errorf("endpoint = %s, result = %s", endpoint, req.ResultType())
			}
			return result.NewExistence(mode.UsernameExists, true), nil
		},
	}
	c := newMockClient(&mockAPI{}, search, nil)

	res, err := c.Search().Users(context.Background(), "us1", SearchRequest{
		ResultType: UsernameExists,
		Filter:     []FilterOption{{Field: "username", Type: "eq", Value: "alice"}},
	}, ListOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Exists {
		t.Error("Exists = false")
	}
}

func TestSearchService_AllUsers(t *testing.T) {
	search := &mockSearchUC{
		allFn: func(context.Context, mode.Endpoint, string, request.Request) (result.Page, error) {
			items := []result.Item{
				result.NewItem("u1", "us1", "alice", map[string]any{"age": 30.0}, true, time.Time{}, time.Time{}),
				result.NewItem("u2", "us1", "bob", nil, true, time.Time{}, time.Time{}),
			}
			return result.NewPage(mode.FullContent, 2, 2, 0, items, nil), nil
		},
	}
	c := newMockClient(&mockAPI{}, search, nil)

	res, err := c.Search().AllUsers(context.Background(), "us1", SearchRequest{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Users) != 2 || res.Users[0].Username != "alice" || res.Users[0].Attributes["age"] != 30.0 {
		t.Errorf("users = %+v", res.Users)
	}
	if len(res.Documents) != 0 {
		t.Errorf("documents = %+v", res.Documents)
	}
}
