package chino

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/kailas-cloud/chino/internal/domain/search/mode"
	"github.com/kailas-cloud/chino/internal/domain/search/request"
	"github.com/kailas-cloud/chino/internal/domain/search/result"
	"github.com/kailas-cloud/chino/internal/metrics"
	"github.com/kailas-cloud/chino/internal/transport/chinoapi"
	consentuc "github.com/kailas-cloud/chino/internal/usecase/consent"
	documentuc "github.com/kailas-cloud/chino/internal/usecase/document"
	searchuc "github.com/kailas-cloud/chino/internal/usecase/search"
	"github.com/kailas-cloud/chino/internal/version"
)

// Internal interfaces for dependency injection (testability).

type apiCaller interface {
	Do(ctx context.Context, call chinoapi.Call, out any) error
}

type tokenIssuer interface {
	Token(ctx context.Context, form url.Values, clientID, clientSecret string) (chinoapi.Token, error)
}

type searchUseCase interface {
	Search(ctx context.Context, endpoint mode.Endpoint, id string, req request.Request, offset, limit int) (result.Page, error)
	All(ctx context.Context, endpoint mode.Endpoint, id string, req request.Request) (result.Page, error)
}

type deleteAllUseCase interface {
	DeleteAll(ctx context.Context, schemaID string) (int, error)
}

type historyUseCase interface {
	History(ctx context.Context, consentID string) ([]Consent, error)
}

// Client is the entry point to the Chino API.
type Client struct {
	raw     *chinoapi.Client
	api     apiCaller
	tokens  tokenIssuer
	search  searchUseCase
	docs    deleteAllUseCase
	history historyUseCase
	obs     *observer
	cfg     clientConfig
}

// New creates a Client. Without credentials only token endpoints and
// bearer-authenticated clients (see WithBearer) are usable.
func New(opts ...Option) (*Client, error) {
	var cfg clientConfig
	for _, o := range opts {
		o.apply(&cfg)
	}
	if cfg.pageSize <= 0 {
		cfg.pageSize = 100
	}
	if cfg.userAgent == "" {
		cfg.userAgent = version.UserAgent()
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, fmt.Errorf("init observer: %w", err)
	}
	var httpMetrics *metrics.HTTPClient
	if cfg.metricsReg != nil {
		httpMetrics, err = metrics.NewHTTPClient(cfg.metricsReg)
		if err != nil {
			return nil, fmt.Errorf("init metrics: %w", err)
		}
	}

	apiCfg := chinoapi.Config{
		BaseURL:      cfg.baseURL,
		CustomerID:   cfg.customerID,
		CustomerKey:  cfg.customerKey,
		BearerToken:  cfg.bearerToken,
		UserAgent:    cfg.userAgent,
		Timeout:      cfg.timeout,
		HTTPClient:   cfg.httpClient,
		MaxRetries:   chinoapi.DefaultMaxRetries,
		RetryInitial: cfg.retryInitial,
		RetryMax:     cfg.retryMax,
	}
	if cfg.retrySet {
		apiCfg.MaxRetries = cfg.maxRetries
	}
	raw, err := chinoapi.New(apiCfg, cfg.logger, httpMetrics)
	if err != nil {
		return nil, err
	}
	return wire(raw, cfg, obs), nil
}

func wire(raw *chinoapi.Client, cfg clientConfig, obs *observer) *Client {
	c := &Client{raw: raw, api: raw, tokens: raw, obs: obs, cfg: cfg}
	c.search = searchuc.New(raw).WithPagination(cfg.pageSize, max(cfg.pageSize, 100))
	c.docs = documentuc.New(documentStore{api: raw}, cfg.logger).WithPageSize(cfg.pageSize)
	c.history = consentuc.New(consentHistory{api: raw}).WithPageSize(cfg.pageSize)
	return c
}

// WithBearer returns a client that acts as the user owning token.
// The receiver is unchanged.
func (c *Client) WithBearer(token string) *Client {
	cfg := c.cfg
	cfg.bearerToken = token
	return wire(c.raw.WithAuth(chinoapi.BearerAuth(token)), cfg, c.obs)
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string { return c.raw.BaseURL() }

// Repositories manages repositories.
func (c *Client) Repositories() *RepositoryService { return &RepositoryService{c: c} }

// Schemas manages document schemas.
func (c *Client) Schemas() *SchemaService { return &SchemaService{c: c} }

// Documents manages documents.
func (c *Client) Documents() *DocumentService { return &DocumentService{c: c} }

// UserSchemas manages user schemas.
func (c *Client) UserSchemas() *UserSchemaService { return &UserSchemaService{c: c} }

// Users manages application users.
func (c *Client) Users() *UserService { return &UserService{c: c} }

// Groups manages user groups.
func (c *Client) Groups() *GroupService { return &GroupService{c: c} }

// Collections manages document collections.
func (c *Client) Collections() *CollectionService { return &CollectionService{c: c} }

// Permissions grants and revokes access rights.
func (c *Client) Permissions() *PermissionService { return &PermissionService{c: c} }

// Consents manages consent records.
func (c *Client) Consents() *ConsentService { return &ConsentService{c: c} }

// Auth issues user tokens.
func (c *Client) Auth() *AuthService { return &AuthService{c: c} }

// Search runs searches over documents and users.
func (c *Client) Search() *SearchService { return &SearchService{c: c} }

// call runs an API call with observation.
func (c *Client) call(ctx context.Context, op string, call chinoapi.Call, out any) error {
	start := time.Now()
	err := c.api.Do(ctx, call, out)
	c.obs.observe(op, start, err)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// doOne runs call and decodes data[key] into a T.
func doOne[T any](ctx context.Context, c *Client, op, key string, call chinoapi.Call) (T, error) {
	var zero T
	var data map[string]json.RawMessage
	if err := c.call(ctx, op, call, &data); err != nil {
		return zero, err
	}
	var v T
	if err := keyed(data, key, &v); err != nil {
		return zero, fmt.Errorf("%s: %w", op, err)
	}
	return v, nil
}

// doList runs a list call and decodes data[key] into a page of T.
func doList[T any](
	ctx context.Context, c *Client, op, key string, call chinoapi.Call, opts ListOptions,
) (Page[T], error) {
	call.Query = withPaging(call.Query, opts)
	var raw json.RawMessage
	if err := c.call(ctx, op, call, &raw); err != nil {
		return Page[T]{}, err
	}
	if len(raw) == 0 {
		return Page[T]{}, nil
	}
	var meta listMeta
	var data map[string]json.RawMessage
	if err := json.Unmarshal(raw, &meta); err != nil {
		return Page[T]{}, fmt.Errorf("%s: %w", op, err)
	}
	if err := json.Unmarshal(raw, &data); err != nil {
		return Page[T]{}, fmt.Errorf("%s: %w", op, err)
	}
	var items []T
	if err := keyed(data, key, &items); err != nil {
		return Page[T]{}, fmt.Errorf("%s: %w", op, err)
	}
	return Page[T]{
		Items:      items,
		Count:      meta.Count,
		TotalCount: meta.TotalCount,
		Limit:      meta.Limit,
		Offset:     meta.Offset,
	}, nil
}

func withPaging(q url.Values, opts ListOptions) url.Values {
	if opts.Offset <= 0 && opts.Limit <= 0 {
		return q
	}
	if q == nil {
		q = url.Values{}
	}
	if opts.Offset > 0 {
		q.Set("offset", strconv.Itoa(opts.Offset))
	}
	if opts.Limit > 0 {
		q.Set("limit", strconv.Itoa(opts.Limit))
	}
	return q
}

func get(endpoint string, params ...string) chinoapi.Call {
	return chinoapi.Call{Method: http.MethodGet, Endpoint: endpoint, Params: params}
}

func post(body any, endpoint string, params ...string) chinoapi.Call {
	return chinoapi.Call{Method: http.MethodPost, Endpoint: endpoint, Params: params, Body: body}
}

func put(body any, endpoint string, params ...string) chinoapi.Call {
	return chinoapi.Call{Method: http.MethodPut, Endpoint: endpoint, Params: params, Body: body}
}

func del(endpoint string, params ...string) chinoapi.Call {
	return chinoapi.Call{Method: http.MethodDelete, Endpoint: endpoint, Params: params}
}

// forced adds force=true, which deletes instead of deactivating.
func forced(call chinoapi.Call) chinoapi.Call {
	call.Query = url.Values{"force": {"true"}}
	return call
}
