package chino

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/kailas-cloud/chino/internal/transport/chinoapi"
)

// --- RepositoryService ---

func TestRepositoryService_Create(t *testing.T) {
	api := &mockAPI{
		doFn: func(_ context.Context, call chinoapi.Call) (any, error) {
			if call.Method != http.MethodPost || call.Endpoint != repositoriesEndpoint {
				t.Errorf("call = %s %s", call.Method, call.Endpoint)
			}
			body, ok := call.Body.(repositoryBody)
			if !ok || body.Description != "patients" {
				t.Errorf("body = %#v", call.Body)
			}
			return map[string]any{"repository": map[string]any{
				"repository_id": "r1", "description": "patients", "is_active": true,
				"insert_date": "2017-03-14T10:58:29.587",
			}}, nil
		},
	}
	c := newMockClient(api, nil, nil)

	repo, err := c.Repositories().Create(context.Background(), "patients")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.ID != "r1" || !repo.IsActive {
		t.Errorf("repo = %+v", repo)
	}
	if repo.InsertDate.Year() != 2017 {
		t.Errorf("InsertDate = %v", repo.InsertDate)
	}
}

func TestRepositoryService_List(t *testing.T) {
	api := &mockAPI{
		doFn: func(_ context.Context, call chinoapi.Call) (any, error) {
			if got := call.Query.Get("offset"); got != "2" {
				t.Errorf("offset = %q, want 2", got)
			}
			if got := call.Query.Get("limit"); got != "2" {
				t.Errorf("limit = %q, want 2", got)
			}
			return map[string]any{
				"count": 2, "total_count": 5, "limit": 2, "offset": 2,
				"repositories": []map[string]any{
					{"repository_id": "r3"}, {"repository_id": "r4"},
				},
			}, nil
		},
	}
	c := newMockClient(api, nil, nil)

	page, err := c.Repositories().List(context.Background(), ListOptions{Offset: 2, Limit: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(page.Items) != 2 || page.Items[1].ID != "r4" {
		t.Errorf("items = %+v", page.Items)
	}
	if page.TotalCount != 5 || !page.HasMore() {
		t.Errorf("page = %+v, want more pages", page)
	}
}

func TestRepositoryService_Delete_Force(t *testing.T) {
	api := &mockAPI{doFn: func(context.Context, chinoapi.Call) (any, error) { return nil, nil }}
	c := newMockClient(api, nil, nil)

	if err := c.Repositories().Delete(context.Background(), "r1", true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	call := api.calls[0]
	if call.Method != http.MethodDelete || call.Query.Get("force") != "true" {
		t.Errorf("call = %+v", call)
	}
	if len(call.Params) != 1 || call.Params[0] != "r1" {
		t.Errorf("params = %v", call.Params)
	}
}

func TestService_ErrorWrapsSentinel(t *testing.T) {
	api := &mockAPI{
		doFn: func(context.Context, chinoapi.Call) (any, error) {
			return nil, &chinoapi.APIError{StatusCode: http.StatusNotFound, Message: "missing"}
		},
	}
	c := newMockClient(api, nil, nil)

	_, err := c.Documents().Get(context.Background(), "d1")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusNotFound {
		t.Errorf("errors.As APIError failed: %v", err)
	}
	if !strings.Contains(err.Error(), "documents.get") {
		t.Errorf("error %q does not name the operation", err)
	}
}

func TestService_MissingDataMember(t *testing.T) {
	api := &mockAPI{
		doFn: func(context.Context, chinoapi.Call) (any, error) {
			return map[string]any{"schemas": []any{}}, nil
		},
	}
	c := newMockClient(api, nil, nil)

	if _, err := c.Schemas().Get(context.Background(), "s1"); err == nil {
		t.Fatal("expected error for missing schema member")
	}
}

// --- SchemaService ---

func TestSchemaService_Create(t *testing.T) {
	api := &mockAPI{
		doFn: func(_ context.Context, call chinoapi.Call) (any, error) {
			body := call.Body.(schemaBody)
			if len(body.Structure.Fields) != 2 {
				t.Errorf("fields = %+v", body.Structure.Fields)
			}
			if !body.Structure.Fields[0].Indexed || body.Structure.Fields[1].Indexed {
				t.Errorf("indexed flags = %+v", body.Structure.Fields)
			}
			return map[string]any{"schema": map[string]any{"schema_id": "s1"}}, nil
		},
	}
	c := newMockClient(api, nil, nil)

	s, err := c.Schemas().Create(context.Background(), "r1", "visits",
		WithIndexedField("patient_id", FieldString),
		WithField("notes", FieldText),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.ID != "s1" {
		t.Errorf("ID = %q", s.ID)
	}
	if api.calls[0].Params[0] != "r1" {
		t.Errorf("params = %v", api.calls[0].Params)
	}
}

func TestSchemaService_Create_Invalid(t *testing.T) {
	api := &mockAPI{doFn: func(context.Context, chinoapi.Call) (any, error) {
		t.Fatal("invalid schema must not be sent")
		return nil, nil
	}}
	c := newMockClient(api, nil, nil)

	tests := []struct {
		name string
		opts []SchemaOption
	}{
		{"no fields", nil},
		{"unknown type", []SchemaOption{WithField("a", "decimal")}},
		{"indexed text", []SchemaOption{WithIndexedField("a", FieldText)}},
		{"duplicate", []SchemaOption{WithField("a", FieldString), WithField("a", FieldInteger)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Schemas().Create(context.Background(), "r1", "x", tt.opts...)
			if !errors.Is(err, ErrBadRequest) {
				t.Errorf("err = %v, want ErrBadRequest", err)
			}
		})
	}
}

// --- DocumentService ---

func TestDocumentService_List_FullDocument(t *testing.T) {
	api := &mockAPI{
		doFn: func(_ context.Context, call chinoapi.Call) (any, error) {
			if call.Query.Get("full_document") != "true" {
				t.Errorf("query = %v", call.Query)
			}
			return map[string]any{
				"count": 1, "total_count": 1,
				"documents": []map[string]any{{"document_id": "d1", "content": map[string]any{"age": 41}}},
			}, nil
		},
	}
	c := newMockClient(api, nil, nil)

	page, err := c.Documents().List(context.Background(), "s1", ListOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.HasMore() {
		t.Error("single page reported more")
	}
	var v struct {
		Age int `json:"age"`
	}
	if err := page.Items[0].Decode(&v); err != nil || v.Age != 41 {
		t.Errorf("Decode = %+v, %v", v, err)
	}
}

func TestDocumentService_DeleteAll(t *testing.T) {
	docs := []string{"d1", "d2", "bad", "d4", "d5"}
	api := &mockAPI{}
	api.doFn = func(_ context.Context, call chinoapi.Call) (any, error) {
		switch call.Method {
		case http.MethodGet:
			offset := 0
			if s := call.Query.Get("offset"); s != "" {
				_, _ = fmt.Sscan(s, &offset)
			}
			var page []map[string]any
			for i := offset; i < len(docs) && len(page) < 2; i++ {
				page = append(page, map[string]any{"document_id": docs[i]})
			}
			return map[string]any{"total_count": len(docs), "documents": page}, nil
		case http.MethodDelete:
			id := call.Params[0]
			if call.Query.Get("force") != "true" {
				t.Errorf("delete %s without force", id)
			}
			if id == "bad" {
				return nil, &chinoapi.APIError{StatusCode: http.StatusForbidden}
			}
			for i, d := range docs {
				if d == id {
					docs = append(docs[:i], docs[i+1:]...)
					break
				}
			}
			return nil, nil
		}
		return nil, fmt.Errorf("unexpected %s", call.Method)
	}
	c := newMockClient(api, nil, nil)

	n, err := c.Documents().DeleteAll(context.Background(), "s1")
	if n != 4 {
		t.Errorf("deleted = %d, want 4", n)
	}
	if !errors.Is(err, ErrForbidden) {
		t.Errorf("err = %v, want ErrForbidden", err)
	}
	if len(docs) != 1 || docs[0] != "bad" {
		t.Errorf("remaining = %v", docs)
	}
}

// --- UserService ---

func TestUserService_Create_Validates(t *testing.T) {
	api := &mockAPI{doFn: func(context.Context, chinoapi.Call) (any, error) {
		return map[string]any{"user": map[string]any{"user_id": "u1", "username": "alice"}}, nil
	}}
	c := newMockClient(api, nil, nil)

	_, err := c.Users().Create(context.Background(), "us1", User{Username: "alice", Password: "short"})
	if !errors.Is(err, ErrBadRequest) {
		t.Fatalf("err = %v, want ErrBadRequest", err)
	}
	if len(api.calls) != 0 {
		t.Fatal("invalid user was sent")
	}

	u, err := c.Users().Create(context.Background(), "us1", User{
		Username: "alice", Password: "correct-horse", Attributes: map[string]any{"age": 30},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.ID != "u1" {
		t.Errorf("ID = %q", u.ID)
	}
	if body := api.calls[0].Body.(userBody); body.Attributes["age"] != 30 {
		t.Errorf("body = %+v", body)
	}
}

func TestGroupService_AddUser(t *testing.T) {
	api := &mockAPI{doFn: func(context.Context, chinoapi.Call) (any, error) { return nil, nil }}
	c := newMockClient(api, nil, nil)

	if err := c.Groups().AddUser(context.Background(), "g1", "u1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	call := api.calls[0]
	if call.Endpoint != groupUserEndpoint || call.Params[0] != "g1" || call.Params[1] != "u1" {
		t.Errorf("call = %+v", call)
	}
}

// --- PermissionService ---

func TestPermissionService_Endpoints(t *testing.T) {
	tests := []struct {
		name     string
		target   PermissionTarget
		endpoint string
		params   int
	}{
		{"on type", PermissionTarget{ResourceType: ResourceRepositories, SubjectType: SubjectUsers, SubjectID: "u1"},
			permsOnTypeEndpoint, 4},
		{"on resource", PermissionTarget{ResourceType: ResourceDocuments, ResourceID: "d1", SubjectType: SubjectGroups, SubjectID: "g1"},
			permsOnResourceEndpoint, 5},
		{"on children", PermissionTarget{ResourceType: ResourceSchemas, ResourceID: "s1", ChildType: ResourceDocuments, SubjectType: SubjectUsers, SubjectID: "u1"},
			permsOnChildrenEndpoint, 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &mockAPI{doFn: func(context.Context, chinoapi.Call) (any, error) { return nil, nil }}
			c := newMockClient(api, nil, nil)
			err := c.Permissions().Grant(context.Background(), tt.target, PermissionSet{Manage: []Permission{PermRead, PermUpdate}})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			call := api.calls[0]
			if call.Endpoint != tt.endpoint || len(call.Params) != tt.params || call.Params[0] != "grant" {
				t.Errorf("call = %s %v", call.Endpoint, call.Params)
			}
		})
	}
}

func TestPermissionService_InvalidLetter(t *testing.T) {
	api := &mockAPI{doFn: func(context.Context, chinoapi.Call) (any, error) { return nil, nil }}
	c := newMockClient(api, nil, nil)

	err := c.Permissions().Revoke(context.Background(),
		PermissionTarget{ResourceType: ResourceDocuments, SubjectType: SubjectUsers, SubjectID: "u1"},
		PermissionSet{Manage: []Permission{"X"}})
	if !errors.Is(err, ErrBadRequest) {
		t.Errorf("err = %v, want ErrBadRequest", err)
	}
}

// --- ConsentService ---

func validConsent() Consent {
	return Consent{
		UserID: "user-1",
		Details: ConsentDetails{
			PolicyURL: "https://example.com/privacy", PolicyVersion: "1", CollectionMode: CollectedOnline,
		},
		DataController: DataController{Company: "ACME", Contact: "Jane", Email: "dpo@acme.io"},
		Purposes:       []Purpose{{Authorized: true, Purpose: "care"}},
	}
}

func TestConsentService_Create(t *testing.T) {
	api := &mockAPI{doFn: func(context.Context, chinoapi.Call) (any, error) {
		return map[string]any{"consent_id": "c1"}, nil
	}}
	c := newMockClient(api, nil, nil)

	id, err := c.Consents().Create(context.Background(), validConsent())
	if err != nil || id != "c1" {
		t.Fatalf("Create = %q, %v", id, err)
	}

	bad := validConsent()
	bad.Purposes = nil
	if _, err := c.Consents().Create(context.Background(), bad); !errors.Is(err, ErrBadRequest) {
		t.Errorf("err = %v, want ErrBadRequest", err)
	}
}

func TestConsentService_History(t *testing.T) {
	versions := []string{"v1", "v2", "v3", "v4", "v5"}
	api := &mockAPI{doFn: func(_ context.Context, call chinoapi.Call) (any, error) {
		offset := 0
		if s := call.Query.Get("offset"); s != "" {
			_, _ = fmt.Sscan(s, &offset)
		}
		end := min(offset+2, len(versions))
		var page []map[string]any
		for _, v := range versions[offset:end] {
			page = append(page, map[string]any{"consent_id": "c1", "details": map[string]any{"policy_version": v}})
		}
		return map[string]any{"total_count": len(versions), "consents": page}, nil
	}}
	c := newMockClient(api, nil, nil)

	records, err := c.Consents().History(context.Background(), "c1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 5 {
		t.Fatalf("records = %d, want 5", len(records))
	}
	for i, r := range records {
		if r.Details.PolicyVersion != versions[i] {
			t.Errorf("record %d = %s, want %s", i, r.Details.PolicyVersion, versions[i])
		}
	}
	if len(api.calls) != 3 {
		t.Errorf("calls = %d, want 3", len(api.calls))
	}
}

// --- AuthService ---

func TestAuthService_LoginUser(t *testing.T) {
	tokens := &mockTokens{
		tokenFn: func(_ context.Context, form url.Values, clientID, _ string) (chinoapi.Token, error) {
			if form.Get("grant_type") != "password" || form.Get("username") != "alice" {
				t.Errorf("form = %v", form)
			}
			if clientID != "app" {
				t.Errorf("clientID = %q", clientID)
			}
			return chinoapi.Token{AccessToken: "tok", RefreshToken: "ref"}, nil
		},
	}
	c := newMockClient(&mockAPI{}, nil, tokens)

	tok, err := c.Auth().LoginUser(context.Background(), AppCredentials{ClientID: "app"}, "alice", "pw")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tok.AccessToken != "tok" {
		t.Errorf("token = %+v", tok)
	}

	if _, err := c.Auth().RefreshToken(context.Background(), AppCredentials{}, "ref"); !errors.Is(err, ErrBadRequest) {
		t.Errorf("missing client id: err = %v", err)
	}
}
