package document

import "context"

// Store lists and deletes the documents of a schema.
type Store interface {
	ListIDs(ctx context.Context, schemaID string, offset, limit int) (ids []string, total int, err error)
	Delete(ctx context.Context, documentID string) error
}
