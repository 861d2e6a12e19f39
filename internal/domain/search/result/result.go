// Package result holds the typed outcome of a search call.
package result

import (
	"maps"
	"slices"
	"time"

	"github.com/kailas-cloud/chino/internal/domain/search/mode"
)

// Item is a single search hit: a document or a user.
type Item struct {
	id         string
	schemaID   string
	username   string
	content    map[string]any
	active     bool
	insertedAt time.Time
	updatedAt  time.Time
}

// NewItem creates a search hit. Content is copied.
func NewItem(
	id, schemaID, username string, content map[string]any,
	active bool, insertedAt, updatedAt time.Time,
) Item {
	return Item{
		id: id, schemaID: schemaID, username: username,
		content: maps.Clone(content), active: active,
		insertedAt: insertedAt, updatedAt: updatedAt,
	}
}

// ID returns the document or user identifier.
func (i Item) ID() string { return i.id }

// SchemaID returns the schema (or user schema) the hit belongs to.
func (i Item) SchemaID() string { return i.schemaID }

// Username returns the username of a user hit; empty for documents.
func (i Item) Username() string { return i.username }

// Content returns document content or user attributes.
func (i Item) Content() map[string]any { return maps.Clone(i.content) }

// Active reports whether the resource is active.
func (i Item) Active() bool { return i.active }

// InsertedAt returns the creation time.
func (i Item) InsertedAt() time.Time { return i.insertedAt }

// UpdatedAt returns the last update time.
func (i Item) UpdatedAt() time.Time { return i.updatedAt }

// Page is one page of search results. Which parts are filled depends on the
// result type: items for FULL_CONTENT, ids for ONLY_ID, the existence flag
// for EXISTS and USERNAME_EXISTS.
type Page struct {
	resultType mode.ResultType
	total      int
	limit      int
	offset     int
	items      []Item
	ids        []string
	exists     bool
}

// NewPage creates a page of content or id results.
func NewPage(rt mode.ResultType, total, limit, offset int, items []Item, ids []string) Page {
	return Page{
		resultType: rt,
		total:      total,
		limit:      limit,
		offset:     offset,
		items:      slices.Clone(items),
		ids:        slices.Clone(ids),
	}
}

// NewExistence creates the answer of an EXISTS or USERNAME_EXISTS search.
func NewExistence(rt mode.ResultType, exists bool) Page {
	return Page{resultType: rt, exists: exists}
}

// ResultType returns the result shape the page was requested with.
func (p Page) ResultType() mode.ResultType { return p.resultType }

// Count returns the number of hits on this page.
func (p Page) Count() int { return max(len(p.items), len(p.ids)) }

// TotalCount returns the number of hits across all pages.
func (p Page) TotalCount() int { return p.total }

// Limit returns the page size used by the server.
func (p Page) Limit() int { return p.limit }

// Offset returns the position of the first hit.
func (p Page) Offset() int { return p.offset }

// Items returns the hits of a FULL_CONTENT page.
func (p Page) Items() []Item { return slices.Clone(p.items) }

// IDs returns hit identifiers. For FULL_CONTENT pages they are taken from the items.
func (p Page) IDs() []string {
	if len(p.ids) > 0 || len(p.items) == 0 {
		return slices.Clone(p.ids)
	}
	ids := make([]string, len(p.items))
	for i, it := range p.items {
		ids[i] = it.id
	}
	return ids
}

// Exists returns the answer of an existence search.
func (p Page) Exists() bool { return p.exists }

// HasMore reports whether hits remain after this page.
func (p Page) HasMore() bool {
	return p.offset+p.Count() < p.total && p.Count() > 0
}
