package chino

import (
	"context"
	"fmt"
)

// TypedDocuments is a schema-first view of the documents of one schema.
// The structure is inferred from T's chino struct tags at construction time.
type TypedDocuments[T any] struct {
	schemaID string
	client   *Client
	meta     *schemaMeta
}

// NewTypedDocuments creates a typed handle for the documents of a schema.
// T must be a struct with chino tags. Tags are parsed once and cached.
func NewTypedDocuments[T any](client *Client, schemaID string) (*TypedDocuments[T], error) {
	meta, err := parseSchema[T]()
	if err != nil {
		return nil, fmt.Errorf("typed documents %q: %w", schemaID, err)
	}
	return &TypedDocuments[T]{schemaID: schemaID, client: client, meta: meta}, nil
}

// CreateSchema creates a schema for T in a repository and returns a typed
// handle bound to it.
func CreateSchema[T any](
	ctx context.Context, client *Client, repositoryID, description string,
) (*TypedDocuments[T], error) {
	meta, err := parseSchema[T]()
	if err != nil {
		return nil, fmt.Errorf("create schema: %w", err)
	}
	opts := make([]SchemaOption, 0, len(meta.fields))
	for _, f := range meta.fields {
		if f.Indexed {
			opts = append(opts, WithIndexedField(f.Name, f.Type))
		} else {
			opts = append(opts, WithField(f.Name, f.Type))
		}
	}
	schema, err := client.Schemas().Create(ctx, repositoryID, description, opts...)
	if err != nil {
		return nil, err
	}
	return &TypedDocuments[T]{schemaID: schema.ID, client: client, meta: meta}, nil
}

// SchemaID returns the schema the handle is bound to.
func (d *TypedDocuments[T]) SchemaID() string { return d.schemaID }

// Fields returns the schema fields derived from T.
func (d *TypedDocuments[T]) Fields() []SchemaField {
	return append([]SchemaField{}, d.meta.fields...)
}

// Create stores item as a new document and returns its id.
func (d *TypedDocuments[T]) Create(ctx context.Context, item T) (string, error) {
	_, content := d.meta.toContent(item)
	doc, err := d.client.Documents().Create(ctx, d.schemaID, content)
	if err != nil {
		return "", err
	}
	return doc.ID, nil
}

// Get retrieves a typed item by id.
func (d *TypedDocuments[T]) Get(ctx context.Context, id string) (T, error) {
	var zero T
	doc, err := d.client.Documents().Get(ctx, id)
	if err != nil {
		return zero, err
	}
	return d.decode(doc)
}

// Update replaces the content of the document named by the item's id field.
func (d *TypedDocuments[T]) Update(ctx context.Context, item T) error {
	id, content := d.meta.toContent(item)
	if d.meta.idIdx == -1 {
		return fmt.Errorf("update: %w: %T has no id field", ErrInvalidID, item)
	}
	_, err := d.client.Documents().Update(ctx, id, content)
	return err
}

// Delete removes a document by id.
func (d *TypedDocuments[T]) Delete(ctx context.Context, id string) error {
	return d.client.Documents().Delete(ctx, id, true)
}

// List returns one page of typed items.
func (d *TypedDocuments[T]) List(ctx context.Context, opts ListOptions) (Page[T], error) {
	page, err := d.client.Documents().List(ctx, d.schemaID, opts)
	if err != nil {
		return Page[T]{}, err
	}
	items := make([]T, 0, len(page.Items))
	for _, doc := range page.Items {
		item, err := d.decode(doc)
		if err != nil {
			return Page[T]{}, err
		}
		items = append(items, item)
	}
	return Page[T]{
		Items:      items,
		Count:      page.Count,
		TotalCount: page.TotalCount,
		Limit:      page.Limit,
		Offset:     page.Offset,
	}, nil
}

// Search runs a full-content search and decodes every hit.
func (d *TypedDocuments[T]) Search(ctx context.Context, b *SearchBuilder) ([]T, error) {
	res, err := b.ResultType(FullContent).Documents(ctx, d.schemaID)
	if err != nil {
		return nil, err
	}
	items := make([]T, 0, len(res.Documents))
	for _, doc := range res.Documents {
		item, err := d.decode(doc)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func (d *TypedDocuments[T]) decode(doc Document) (T, error) {
	var zero T
	v, err := d.meta.fromDocument(doc)
	if err != nil {
		return zero, fmt.Errorf("decode document %s: %w", doc.ID, err)
	}
	item, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("decode document %s: type assertion failed", doc.ID)
	}
	return item, nil
}
