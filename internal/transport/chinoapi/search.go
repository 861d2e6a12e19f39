package chinoapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/kailas-cloud/chino/internal/domain"
	"github.com/kailas-cloud/chino/internal/domain/search/mode"
	"github.com/kailas-cloud/chino/internal/domain/search/request"
	"github.com/kailas-cloud/chino/internal/domain/search/result"
)

// Search endpoint templates.
const (
	SearchDocumentsEndpoint = "/search/documents/{schema_id}"
	SearchUsersEndpoint     = "/search/users/{user_schema_id}"
)

// Hit is a search hit as returned on the wire.
type Hit struct {
	DocumentID   string         `json:"document_id,omitempty"`
	UserID       string         `json:"user_id,omitempty"`
	SchemaID     string         `json:"schema_id,omitempty"`
	RepositoryID string         `json:"repository_id,omitempty"`
	Username     string         `json:"username,omitempty"`
	Content      map[string]any `json:"content,omitempty"`
	Attributes   map[string]any `json:"attributes,omitempty"`
	IsActive     bool           `json:"is_active"`
	InsertDate   domain.Time    `json:"insert_date"`
	LastUpdate   domain.Time    `json:"last_update"`
}

// SearchPage is the data member of a search response.
type SearchPage struct {
	Count      int      `json:"count"`
	TotalCount int      `json:"total_count"`
	Limit      int      `json:"limit"`
	Offset     int      `json:"offset"`
	Documents  []Hit    `json:"documents,omitempty"`
	Users      []Hit    `json:"users,omitempty"`
	IDs        []string `json:"IDs,omitempty"`
	Exists     *bool    `json:"exists,omitempty"`
}

// SearchEndpoint returns the path template for endpoint.
func SearchEndpoint(endpoint mode.Endpoint) (string, error) {
	switch endpoint {
	case mode.Documents:
		return SearchDocumentsEndpoint, nil
	case mode.Users:
		return SearchUsersEndpoint, nil
	default:
		return "", fmt.Errorf("unknown search endpoint %q", endpoint)
	}
}

// Search posts req to the documents or users search endpoint of schema id.
// limit <= 0 leaves paging to the server defaults.
func (c *Client) Search(
	ctx context.Context, endpoint mode.Endpoint, id string,
	req request.Request, offset, limit int,
) (result.Page, error) {
	tmpl, err := SearchEndpoint(endpoint)
	if err != nil {
		return result.Page{}, err
	}
	body, err := req.Encode()
	if err != nil {
		return result.Page{}, fmt.Errorf("search %s: %w", endpoint, err)
	}

	q := url.Values{}
	if offset > 0 {
		q.Set("offset", strconv.Itoa(offset))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	var page SearchPage
	err = c.Do(ctx, Call{
		Method:     http.MethodPost,
		Endpoint:   tmpl,
		Params:     []string{id},
		Query:      q,
		Body:       body,
		Idempotent: true,
	}, &page)
	if err != nil {
		return result.Page{}, fmt.Errorf("search %s: %w", endpoint, err)
	}
	return page.ToResult(req.ResultType()), nil
}

// ToResult converts the wire page into a result.Page.
func (p SearchPage) ToResult(rt mode.ResultType) result.Page {
	if rt == mode.Exists || rt == mode.UsernameExists {
		return result.NewExistence(rt, p.Exists != nil && *p.Exists)
	}

	hits := p.Documents
	if len(p.Users) > 0 {
		hits = p.Users
	}
	ids := p.IDs
	var items []result.Item
	for _, h := range hits {
		if rt == mode.OnlyID {
			ids = append(ids, h.ID())
			continue
		}
		items = append(items, h.ToItem())
	}
	return result.NewPage(rt, p.TotalCount, p.Limit, p.Offset, items, ids)
}

// ID returns the document or user id.
func (h Hit) ID() string {
	if h.DocumentID != "" {
		return h.DocumentID
	}
	return h.UserID
}

// ToItem converts the wire hit into a result.Item.
func (h Hit) ToItem() result.Item {
	content := h.Content
	if h.UserID != "" && h.DocumentID == "" {
		content = h.Attributes
	}
	return result.NewItem(
		h.ID(), h.SchemaID, h.Username, content,
		h.IsActive, h.InsertDate.Time, h.LastUpdate.Time,
	)
}
