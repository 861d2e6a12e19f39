package chino

import (
	"context"
	"fmt"
	"net/url"
	"time"
)

// Document endpoints.
const (
	schemaDocumentsEndpoint = "/schemas/{schema_id}/documents"
	documentEndpoint        = "/documents/{document_id}"
)

// DocumentService manages documents.
type DocumentService struct{ c *Client }

type documentBody struct {
	Content    map[string]any `json:"content"`
	Consistent bool           `json:"consistent,omitempty"`
}

// Create stores a new document in a schema.
func (s *DocumentService) Create(ctx context.Context, schemaID string, content map[string]any) (Document, error) {
	return doOne[Document](ctx, s.c, "documents.create", "document",
		post(documentBody{Content: content}, schemaDocumentsEndpoint, schemaID))
}

// Get returns a document with its content.
func (s *DocumentService) Get(ctx context.Context, id string) (Document, error) {
	return doOne[Document](ctx, s.c, "documents.get", "document", get(documentEndpoint, id))
}

// List returns one page of the documents of a schema, with content.
func (s *DocumentService) List(ctx context.Context, schemaID string, opts ListOptions) (Page[Document], error) {
	call := get(schemaDocumentsEndpoint, schemaID)
	call.Query = url.Values{"full_document": {"true"}}
	return doList[Document](ctx, s.c, "documents.list", "documents", call, opts)
}

// Update replaces the content of a document.
func (s *DocumentService) Update(ctx context.Context, id string, content map[string]any) (Document, error) {
	return doOne[Document](ctx, s.c, "documents.update", "document",
		put(documentBody{Content: content}, documentEndpoint, id))
}

// Delete removes a document. Without force it is only deactivated.
func (s *DocumentService) Delete(ctx context.Context, id string, force bool) error {
	call := del(documentEndpoint, id)
	if force {
		call = forced(call)
	}
	return s.c.call(ctx, "documents.delete", call, nil)
}

// DeleteAll deletes every document of a schema and returns how many were
// deleted. Documents that fail to delete are skipped; their errors are
// returned together once the walk finishes.
func (s *DocumentService) DeleteAll(ctx context.Context, schemaID string) (int, error) {
	start := time.Now()
	n, err := s.c.docs.DeleteAll(ctx, schemaID)
	s.c.obs.observe("documents.delete_all", start, err)
	return n, err
}

// documentStore adapts the API to the document use case.
type documentStore struct {
	api apiCaller
}

func (s documentStore) ListIDs(ctx context.Context, schemaID string, offset, limit int) ([]string, int, error) {
	call := get(schemaDocumentsEndpoint, schemaID)
	call.Query = withPaging(nil, ListOptions{Offset: offset, Limit: limit})
	var page struct {
		TotalCount int `json:"total_count"`
		Documents  []struct {
			ID string `json:"document_id"`
		} `json:"documents"`
	}
	if err := s.api.Do(ctx, call, &page); err != nil {
		return nil, 0, fmt.Errorf("list documents: %w", err)
	}
	ids := make([]string, 0, len(page.Documents))
	for _, d := range page.Documents {
		ids = append(ids, d.ID)
	}
	return ids, page.TotalCount, nil
}

func (s documentStore) Delete(ctx context.Context, documentID string) error {
	return s.api.Do(ctx, forced(del(documentEndpoint, documentID)), nil)
}
