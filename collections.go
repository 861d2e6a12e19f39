package chino

import "context"

// Collection endpoints.
const (
	collectionsEndpoint         = "/collections"
	collectionEndpoint          = "/collections/{collection_id}"
	collectionDocumentsEndpoint = "/collections/{collection_id}/documents"
	collectionDocumentEndpoint  = "/collections/{collection_id}/documents/{document_id}"
)

// CollectionService manages document collections.
type CollectionService struct{ c *Client }

type collectionBody struct {
	Name string `json:"name"`
}

// Create creates a collection.
func (s *CollectionService) Create(ctx context.Context, name string) (Collection, error) {
	return doOne[Collection](ctx, s.c, "collections.create", "collection",
		post(collectionBody{Name: name}, collectionsEndpoint))
}

// Get returns a collection.
func (s *CollectionService) Get(ctx context.Context, id string) (Collection, error) {
	return doOne[Collection](ctx, s.c, "collections.get", "collection",
		get(collectionEndpoint, id))
}

// List returns one page of collections.
func (s *CollectionService) List(ctx context.Context, opts ListOptions) (Page[Collection], error) {
	return doList[Collection](ctx, s.c, "collections.list", "collections",
		get(collectionsEndpoint), opts)
}

// Update renames a collection.
func (s *CollectionService) Update(ctx context.Context, id, name string) (Collection, error) {
	return doOne[Collection](ctx, s.c, "collections.update", "collection",
		put(collectionBody{Name: name}, collectionEndpoint, id))
}

// Delete removes a collection. The documents in it are kept.
func (s *CollectionService) Delete(ctx context.Context, id string, force bool) error {
	call := del(collectionEndpoint, id)
	if force {
		call = forced(call)
	}
	return s.c.call(ctx, "collections.delete", call, nil)
}

// AddDocument adds a document to a collection.
func (s *CollectionService) AddDocument(ctx context.Context, collectionID, documentID string) error {
	return s.c.call(ctx, "collections.add_document",
		post(nil, collectionDocumentEndpoint, collectionID, documentID), nil)
}

// RemoveDocument removes a document from a collection.
func (s *CollectionService) RemoveDocument(ctx context.Context, collectionID, documentID string) error {
	return s.c.call(ctx, "collections.remove_document",
		del(collectionDocumentEndpoint, collectionID, documentID), nil)
}

// ListDocuments returns one page of the documents in a collection.
func (s *CollectionService) ListDocuments(
	ctx context.Context, collectionID string, opts ListOptions,
) (Page[Document], error) {
	return doList[Document](ctx, s.c, "collections.list_documents", "documents",
		get(collectionDocumentsEndpoint, collectionID), opts)
}
