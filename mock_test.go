package chino

import (
	"context"
	"encoding/json"
	"net/url"

	"github.com/kailas-cloud/chino/internal/domain/search/mode"
	"github.com/kailas-cloud/chino/internal/domain/search/request"
	"github.com/kailas-cloud/chino/internal/domain/search/result"
	"github.com/kailas-cloud/chino/internal/transport/chinoapi"
	consentuc "github.com/kailas-cloud/chino/internal/usecase/consent"
	documentuc "github.com/kailas-cloud/chino/internal/usecase/document"
)

// --- apiCaller mock ---

// mockAPI answers calls with data that is JSON round-tripped into out,
// the way the real executor decodes the envelope data member.
type mockAPI struct {
	doFn  func(ctx context.Context, call chinoapi.Call) (any, error)
	calls []chinoapi.Call
}

func (m *mockAPI) Do(ctx context.Context, call chinoapi.Call, out any) error {
	m.calls = append(m.calls, call)
	data, err := m.doFn(ctx, call)
	if err != nil {
		return err
	}
	if out == nil || data == nil {
		return nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

// --- tokenIssuer mock ---

type mockTokens struct {
	tokenFn func(ctx context.Context, form url.Values, clientID, clientSecret string) (chinoapi.Token, error)
}

func (m *mockTokens) Token(
	ctx context.Context, form url.Values, clientID, clientSecret string,
) (chinoapi.Token, error) {
	return m.tokenFn(ctx, form, clientID, clientSecret)
}

// --- searchUseCase mock ---

type mockSearchUC struct {
	searchFn func(ctx context.Context, endpoint mode.Endpoint, id string, req request.Request, offset, limit int) (result.Page, error)
	allFn    func(ctx context.Context, endpoint mode.Endpoint, id string, req request.Request) (result.Page, error)
}

func (m *mockSearchUC) Search(
	ctx context.Context, endpoint mode.Endpoint, id string, req request.Request, offset, limit int,
) (result.Page, error) {
	return m.searchFn(ctx, endpoint, id, req, offset, limit)
}

func (m *mockSearchUC) All(
	ctx context.Context, endpoint mode.Endpoint, id string, req request.Request,
) (result.Page, error) {
	return m.allFn(ctx, endpoint, id, req)
}

// newMockClient wires a Client around mocks. The paging use cases run for
// real on top of api.
func newMockClient(api *mockAPI, search *mockSearchUC, tokens *mockTokens) *Client {
	c := &Client{api: api, search: search, tokens: tokens}
	c.docs = documentuc.New(documentStore{api: api}, nil).WithPageSize(2)
	c.history = consentuc.New(consentHistory{api: api}).WithPageSize(2)
	return c
}
