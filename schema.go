package chino

import (
	"fmt"
	"reflect"
	"strings"
	"time"
)

const tagKey = "chino"

var timeType = reflect.TypeOf(time.Time{})

// schemaMeta holds parsed struct tag metadata, cached per TypedDocuments.
type schemaMeta struct {
	typ   reflect.Type
	idIdx int // -1 if not present

	// Schema fields for schema creation.
	fields []SchemaField

	// Mapping from struct field index to content field.
	mappings []fieldMapping
}

type fieldMapping struct {
	structIdx int
	name      string
	fieldType FieldType
}

// parseSchema reflects on T and extracts chino struct tag metadata.
//
// Tags have the form `chino:"name[,type][,indexed]"`; the type is inferred
// from the Go type when omitted. `chino:",id"` marks the document id field.
func parseSchema[T any]() (*schemaMeta, error) {
	var zero T
	t := reflect.TypeOf(zero)
	if t == nil || t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("chino: type %v is not a struct", t)
	}

	meta := &schemaMeta{typ: t, idIdx: -1}
	seen := make(map[string]string)

	for i := range t.NumField() {
		f := t.Field(i)
		tag := f.Tag.Get(tagKey)
		if tag == "" || tag == "-" {
			continue
		}
		name, err := applyTag(meta, i, f, tag)
		if err != nil {
			return nil, err
		}
		if name == "" {
			continue
		}
		if prev, dup := seen[name]; dup {
			return nil, fmt.Errorf("chino: fields %s and %s both map to %q", prev, f.Name, name)
		}
		seen[name] = f.Name
	}
	if len(meta.fields) == 0 {
		return nil, fmt.Errorf("chino: no content fields tagged in %s", t)
	}
	return meta, nil
}

// applyTag processes a single struct field's chino tag and returns the
// content field name it maps to ("" for the id field).
func applyTag(meta *schemaMeta, idx int, f reflect.StructField, tag string) (string, error) {
	parts := strings.Split(tag, ",")
	name := parts[0]

	var (
		ft      FieldType
		indexed bool
	)
	for _, mod := range parts[1:] {
		switch mod {
		case "":
		case "id":
			if meta.idIdx != -1 {
				return "", fmt.Errorf("chino: duplicate id tag on field %s", f.Name)
			}
			if f.Type.Kind() != reflect.String {
				return "", fmt.Errorf("chino: id field %s must be a string", f.Name)
			}
			meta.idIdx = idx
			return "", nil
		case "indexed":
			indexed = true
		default:
			ft = FieldType(mod)
		}
	}
	if name == "" {
		return "", fmt.Errorf("chino: field %s has no name in tag", f.Name)
	}
	if ft == "" {
		var err error
		if ft, err = inferFieldType(f.Type); err != nil {
			return "", fmt.Errorf("chino: field %s: %w", f.Name, err)
		}
	}
	sf := SchemaField{Name: name, Type: ft, Indexed: indexed}
	if err := sf.Validate(); err != nil {
		return "", fmt.Errorf("chino: field %s: %w", f.Name, err)
	}
	meta.fields = append(meta.fields, sf)
	meta.mappings = append(meta.mappings, fieldMapping{structIdx: idx, name: name, fieldType: ft})
	return name, nil
}

func inferFieldType(t reflect.Type) (FieldType, error) {
	if t == timeType {
		return FieldDatetime, nil
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return FieldInteger, nil
	case reflect.Float32, reflect.Float64:
		return FieldFloat, nil
	case reflect.String:
		return FieldString, nil
	case reflect.Bool:
		return FieldBoolean, nil
	case reflect.Map, reflect.Struct:
		return FieldJSON, nil
	case reflect.Slice, reflect.Array:
		elem, err := inferFieldType(t.Elem())
		if err != nil {
			return "", err
		}
		switch elem {
		case FieldInteger:
			return FieldIntegerArray, nil
		case FieldFloat:
			return FieldFloatArray, nil
		case FieldString:
			return FieldStringArray, nil
		}
	}
	return "", fmt.Errorf("cannot infer field type for %s", t)
}

// toContent converts a typed struct to document content.
func (m *schemaMeta) toContent(item any) (id string, content map[string]any) {
	v := reflect.ValueOf(item)
	if v.Kind() == reflect.Pointer {
		v = v.Elem()
	}
	if m.idIdx != -1 {
		id = v.Field(m.idIdx).String()
	}
	content = make(map[string]any, len(m.mappings))
	for _, fm := range m.mappings {
		content[fm.name] = contentValue(v.Field(fm.structIdx), fm.fieldType)
	}
	return id, content
}

func contentValue(v reflect.Value, ft FieldType) any {
	if v.Type() != timeType {
		return v.Interface()
	}
	t := v.Interface().(time.Time).UTC()
	switch ft {
	case FieldDate:
		return t.Format("2006-01-02")
	case FieldTime:
		return t.Format("15:04:05.000")
	default:
		return t.Format("2006-01-02T15:04:05.000")
	}
}

// fromDocument converts a Document back to a typed struct.
func (m *schemaMeta) fromDocument(doc Document) (any, error) {
	v := reflect.New(m.typ)
	if err := decodeContent(doc.Content, tagKey, v.Interface()); err != nil {
		return nil, err
	}
	if m.idIdx != -1 {
		v.Elem().Field(m.idIdx).SetString(doc.ID)
	}
	return v.Elem().Interface(), nil
}
