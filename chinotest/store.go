package chinotest

import (
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/kailas-cloud/chino/internal/domain"
	domconsent "github.com/kailas-cloud/chino/internal/domain/consent"
)

// meta holds the bookkeeping fields every resource carries.
type meta struct {
	IsActive   bool        `json:"is_active"`
	InsertDate domain.Time `json:"insert_date"`
	LastUpdate domain.Time `json:"last_update"`
}

func newMeta() meta {
	now := domain.Time{Time: time.Now().UTC()}
	return meta{IsActive: true, InsertDate: now, LastUpdate: now}
}

func (m *meta) touch() { m.LastUpdate = domain.Time{Time: time.Now().UTC()} }

type field struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Indexed bool   `json:"indexed,omitempty"`
}

type structure struct {
	Fields []field `json:"fields"`
}

// indexed returns the names of the searchable fields.
func (s structure) indexed() map[string]string {
	out := make(map[string]string)
	for _, f := range s.Fields {
		if f.Indexed {
			out[f.Name] = f.Type
		}
	}
	return out
}

func (s structure) lookup(name string) (field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return field{}, false
}

type repository struct {
	ID          string `json:"repository_id"`
	Description string `json:"description"`
	meta
}

type schema struct {
	ID           string    `json:"schema_id"`
	RepositoryID string    `json:"repository_id"`
	Description  string    `json:"description"`
	Structure    structure `json:"structure"`
	meta
}

type document struct {
	ID           string         `json:"document_id"`
	SchemaID     string         `json:"schema_id"`
	RepositoryID string         `json:"repository_id"`
	Content      map[string]any `json:"content"`
	meta
}

type userSchema struct {
	ID          string    `json:"user_schema_id"`
	Description string    `json:"description"`
	Structure   structure `json:"structure"`
	Groups      []string  `json:"groups"`
	meta
}

type user struct {
	ID         string         `json:"user_id"`
	SchemaID   string         `json:"schema_id"`
	Username   string         `json:"username"`
	Password   string         `json:"-"`
	Attributes map[string]any `json:"attributes"`
	Groups     []string       `json:"groups"`
	meta
}

type group struct {
	ID         string         `json:"group_id"`
	Name       string         `json:"group_name"`
	Attributes map[string]any `json:"attributes,omitempty"`
	meta
}

type collection struct {
	ID        string   `json:"collection_id"`
	Name      string   `json:"name"`
	Documents []string `json:"-"`
	meta
}

// Grant is a permission change received by the server.
type Grant struct {
	Action       string
	ResourceType string
	ResourceID   string
	ChildType    string
	SubjectType  string
	SubjectID    string
	Manage       []string
	Authorize    []string
}

// table keeps rows in insertion order.
type table[T any] struct {
	ids  []string
	rows map[string]T
}

func newTable[T any]() *table[T] {
	return &table[T]{rows: make(map[string]T)}
}

func (t *table[T]) put(id string, v T) {
	if _, ok := t.rows[id]; !ok {
		t.ids = append(t.ids, id)
	}
	t.rows[id] = v
}

func (t *table[T]) get(id string) (T, bool) {
	v, ok := t.rows[id]
	return v, ok
}

func (t *table[T]) remove(id string) {
	if _, ok := t.rows[id]; !ok {
		return
	}
	delete(t.rows, id)
	t.ids = slices.DeleteFunc(t.ids, func(s string) bool { return s == id })
}

func (t *table[T]) list(keep func(T) bool) []T {
	out := make([]T, 0, len(t.ids))
	for _, id := range t.ids {
		v := t.rows[id]
		if keep == nil || keep(v) {
			out = append(out, v)
		}
	}
	return out
}

// store is the in-memory state. Callers hold Server.mu.
type store struct {
	repositories *table[repository]
	schemas      *table[schema]
	documents    *table[document]
	userSchemas  *table[userSchema]
	users        *table[user]
	groups       *table[group]
	collections  *table[collection]
	consents     *table[domconsent.Consent]
	history      map[string][]domconsent.Consent
	grants       []Grant
}

func newStore() *store {
	return &store{
		repositories: newTable[repository](),
		schemas:      newTable[schema](),
		documents:    newTable[document](),
		userSchemas:  newTable[userSchema](),
		users:        newTable[user](),
		groups:       newTable[group](),
		collections:  newTable[collection](),
		consents:     newTable[domconsent.Consent](),
		history:      make(map[string][]domconsent.Consent),
	}
}

func notFound(kind, id string) error {
	return fmt.Errorf("%s %s: %w", kind, id, domain.ErrNotFound)
}

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), domain.ErrBadRequest)
}

var fieldTypes = []string{
	"integer", "float", "string", "text", "boolean", "date", "time", "datetime",
	"base64", "json", "blob", "array[integer]", "array[float]", "array[string]",
}

func validateStructure(s structure) error {
	if len(s.Fields) == 0 {
		return badRequest("structure has no fields")
	}
	seen := make(map[string]struct{}, len(s.Fields))
	for _, f := range s.Fields {
		if f.Name == "" {
			return badRequest("field name is empty")
		}
		if _, dup := seen[f.Name]; dup {
			return badRequest("duplicate field %q", f.Name)
		}
		seen[f.Name] = struct{}{}
		if !slices.Contains(fieldTypes, f.Type) {
			return badRequest("field %q: unknown type %q", f.Name, f.Type)
		}
		if f.Indexed && slices.Contains([]string{"text", "base64", "json", "blob"}, f.Type) {
			return badRequest("field %q: type %s cannot be indexed", f.Name, f.Type)
		}
	}
	return nil
}

// validateContent checks content against the structure.
func validateContent(s structure, content map[string]any) error {
	for name, v := range content {
		f, ok := s.lookup(name)
		if !ok {
			return badRequest("field %q is not in the schema", name)
		}
		if v == nil {
			continue
		}
		if !typeMatches(f.Type, v) {
			return badRequest("field %q: value %v is not of type %s", name, v, f.Type)
		}
	}
	return nil
}

func typeMatches(typ string, v any) bool {
	switch typ {
	case "integer":
		f, ok := v.(float64)
		return ok && f == math.Trunc(f)
	case "float":
		_, ok := v.(float64)
		return ok
	case "boolean":
		_, ok := v.(bool)
		return ok
	case "json":
		return true
	case "array[integer]", "array[float]", "array[string]":
		arr, ok := v.([]any)
		if !ok {
			return false
		}
		elem := typ[len("array[") : len(typ)-1]
		for _, e := range arr {
			if !typeMatches(elem, e) {
				return false
			}
		}
		return true
	default:
		_, ok := v.(string)
		return ok
	}
}

func conflict(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), domain.ErrConflict)
}
