package chino

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/mitchellh/mapstructure"

	"github.com/kailas-cloud/chino/internal/domain"
	domconsent "github.com/kailas-cloud/chino/internal/domain/consent"
	"github.com/kailas-cloud/chino/internal/transport/chinoapi"
)

// Time is a server timestamp. Chino omits the zone; values are UTC.
type Time = domain.Time

// ListOptions selects one page of a list call. Zero values use server defaults.
type ListOptions struct {
	Offset int
	Limit  int
}

// Page is one page of a list call.
type Page[T any] struct {
	Items      []T
	Count      int
	TotalCount int
	Limit      int
	Offset     int
}

// HasMore reports whether further pages exist after this one.
func (p Page[T]) HasMore() bool {
	return len(p.Items) > 0 && p.Offset+len(p.Items) < p.TotalCount
}

// IsID reports whether s looks like a Chino resource id.
func IsID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

// Repository groups schemas.
type Repository struct {
	ID          string `json:"repository_id,omitempty"`
	Description string `json:"description"`
	IsActive    bool   `json:"is_active"`
	InsertDate  Time   `json:"insert_date"`
	LastUpdate  Time   `json:"last_update"`
}

// FieldType is the type of a schema field.
type FieldType string

// Field types supported by schemas and user schemas.
const (
	FieldInteger      FieldType = "integer"
	FieldFloat        FieldType = "float"
	FieldString       FieldType = "string"
	FieldText         FieldType = "text"
	FieldBoolean      FieldType = "boolean"
	FieldDate         FieldType = "date"
	FieldTime         FieldType = "time"
	FieldDatetime     FieldType = "datetime"
	FieldBase64       FieldType = "base64"
	FieldJSON         FieldType = "json"
	FieldBlob         FieldType = "blob"
	FieldIntegerArray FieldType = "array[integer]"
	FieldFloatArray   FieldType = "array[float]"
	FieldStringArray  FieldType = "array[string]"
)

var fieldTypes = []any{
	FieldInteger, FieldFloat, FieldString, FieldText, FieldBoolean,
	FieldDate, FieldTime, FieldDatetime, FieldBase64, FieldJSON, FieldBlob,
	FieldIntegerArray, FieldFloatArray, FieldStringArray,
}

// Indexable reports whether fields of this type can be indexed for search.
func (t FieldType) Indexable() bool {
	switch t {
	case FieldText, FieldBase64, FieldJSON, FieldBlob:
		return false
	default:
		return true
	}
}

// SchemaField is one field of a schema structure.
type SchemaField struct {
	Name    string    `json:"name"`
	Type    FieldType `json:"type"`
	Indexed bool      `json:"indexed,omitempty"`
}

// Validate checks the field name and type.
func (f SchemaField) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.Name, validation.Required, validation.Length(1, 255)),
		validation.Field(&f.Type, validation.Required, validation.In(fieldTypes...)),
		validation.Field(&f.Indexed, validation.When(f.Indexed && !f.Type.Indexable(),
			validation.By(notIndexable))),
	)
}

func notIndexable(any) error {
	return validation.NewError("validation_not_indexable", "field type cannot be indexed")
}

// Structure is the field list of a schema or user schema.
type Structure struct {
	Fields []SchemaField `json:"fields"`
}

// Validate checks the field list.
func (s Structure) Validate() error {
	if err := validation.ValidateStruct(&s,
		validation.Field(&s.Fields, validation.Required),
	); err != nil {
		return err
	}
	seen := make(map[string]struct{}, len(s.Fields))
	for _, f := range s.Fields {
		if _, dup := seen[f.Name]; dup {
			return fmt.Errorf("fields: duplicate field %q", f.Name)
		}
		seen[f.Name] = struct{}{}
	}
	return nil
}

// Schema describes the documents stored under it.
type Schema struct {
	ID           string    `json:"schema_id,omitempty"`
	RepositoryID string    `json:"repository_id,omitempty"`
	Description  string    `json:"description"`
	Structure    Structure `json:"structure"`
	IsActive     bool      `json:"is_active"`
	InsertDate   Time      `json:"insert_date"`
	LastUpdate   Time      `json:"last_update"`
}

// Document is an encrypted record conforming to a schema.
type Document struct {
	ID           string         `json:"document_id,omitempty"`
	SchemaID     string         `json:"schema_id,omitempty"`
	RepositoryID string         `json:"repository_id,omitempty"`
	Content      map[string]any `json:"content,omitempty"`
	IsActive     bool           `json:"is_active"`
	InsertDate   Time           `json:"insert_date"`
	LastUpdate   Time           `json:"last_update"`
}

// Decode copies the document content into out, a pointer to a struct whose
// json tags name the schema fields.
func (d Document) Decode(out any) error {
	return decodeContent(d.Content, "json", out)
}

// UserSchema describes the attributes of the users stored under it.
type UserSchema struct {
	ID          string    `json:"user_schema_id,omitempty"`
	Description string    `json:"description"`
	Structure   Structure `json:"structure"`
	Groups      []string  `json:"groups,omitempty"`
	IsActive    bool      `json:"is_active"`
	InsertDate  Time      `json:"insert_date"`
	LastUpdate  Time      `json:"last_update"`
}

// User is an application user.
type User struct {
	ID           string         `json:"user_id,omitempty"`
	UserSchemaID string         `json:"schema_id,omitempty"`
	Username     string         `json:"username"`
	Password     string         `json:"password,omitempty"`
	Attributes   map[string]any `json:"attributes,omitempty"`
	Groups       []string       `json:"groups,omitempty"`
	IsActive     bool           `json:"is_active"`
	InsertDate   Time           `json:"insert_date"`
	LastUpdate   Time           `json:"last_update"`
}

// Validate checks the user before it is created.
func (u User) Validate() error {
	return validation.ValidateStruct(&u,
		validation.Field(&u.Username, validation.Required, validation.Length(1, 255)),
		validation.Field(&u.Password, validation.Required, validation.Length(8, 0)),
	)
}

// Decode copies the user attributes into out.
func (u User) Decode(out any) error {
	return decodeContent(u.Attributes, "json", out)
}

// Group is a named set of users.
type Group struct {
	ID         string         `json:"group_id,omitempty"`
	Name       string         `json:"group_name"`
	Attributes map[string]any `json:"attributes,omitempty"`
	IsActive   bool           `json:"is_active"`
	InsertDate Time           `json:"insert_date"`
	LastUpdate Time           `json:"last_update"`
}

// Collection is a named set of documents.
type Collection struct {
	ID         string `json:"collection_id,omitempty"`
	Name       string `json:"name"`
	IsActive   bool   `json:"is_active"`
	InsertDate Time   `json:"insert_date"`
	LastUpdate Time   `json:"last_update"`
}

// Consent types.
type (
	Consent        = domconsent.Consent
	ConsentDetails = domconsent.Details
	DataController = domconsent.DataController
	Purpose        = domconsent.Purpose
	CollectionMode = domconsent.CollectionMode
)

// Consent collection modes.
const (
	CollectedOnline  = domconsent.Online
	CollectedOffline = domconsent.Offline
)

// Token is a user access token pair.
type Token = chinoapi.Token

// decodeContent maps decoded JSON content onto a struct using tag names.
// Strings are parsed into time.Time fields and numbers are converted weakly.
func decodeContent(content map[string]any, tag string, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          tag,
		WeaklyTypedInput: true,
		Result:           out,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			timeHook,
			mapstructure.StringToTimeDurationHookFunc(),
		),
	})
	if err != nil {
		return fmt.Errorf("decode content: %w", err)
	}
	if err := dec.Decode(content); err != nil {
		return fmt.Errorf("decode content: %w", err)
	}
	return nil
}

// timeHook parses Chino date, time and datetime strings.
func timeHook(from, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String || to != reflect.TypeOf(time.Time{}) {
		return data, nil
	}
	s := data.(string)
	if s == "" {
		return time.Time{}, nil
	}
	var t domain.Time
	if err := json.Unmarshal([]byte(`"`+s+`"`), &t); err != nil {
		if tt, terr := time.Parse("15:04:05", s); terr == nil {
			return tt, nil
		}
		return nil, err
	}
	return t.Time, nil
}

// listMeta is the paging part of a list response.
type listMeta struct {
	Count      int `json:"count"`
	TotalCount int `json:"total_count"`
	Limit      int `json:"limit"`
	Offset     int `json:"offset"`
}

// keyed decodes data[key] into out.
func keyed(data map[string]json.RawMessage, key string, out any) error {
	raw, ok := data[key]
	if !ok {
		keys := make([]string, 0, len(data))
		for k := range data {
			keys = append(keys, k)
		}
		return fmt.Errorf("response has no %q member (got %s)", key, strings.Join(keys, ", "))
	}
	return json.Unmarshal(raw, out)
}
