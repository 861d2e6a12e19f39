package filter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// Kind is the value variant carried by a leaf.
type Kind int

// Value kinds.
const (
	KindString Kind = iota + 1
	// KindNull is the null string value; it serializes as JSON null.
	KindNull
	KindInteger
	KindFloat
	KindBoolean
	KindArray
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNull:
		return "null"
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindBoolean:
		return "boolean"
	case KindArray:
		return "array"
	default:
		return "invalid"
	}
}

// Value is a typed leaf value: a tagged variant over the supported kinds.
type Value struct {
	kind Kind
	str  string
	num  int64
	flt  float64
	bln  bool
	arr  []any
}

// String creates a string value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// NullString creates the null string value.
func NullString() Value { return Value{kind: KindNull} }

// Int creates an integer value.
func Int(i int64) Value { return Value{kind: KindInteger, num: i} }

// Float creates a floating point value.
func Float(f float64) Value { return Value{kind: KindFloat, flt: f} }

// Bool creates a boolean value.
func Bool(b bool) Value { return Value{kind: KindBoolean, bln: b} }

// Array creates an array value. Elements are copied.
func Array(elems ...any) Value {
	arr := make([]any, len(elems))
	copy(arr, elems)
	return Value{kind: KindArray, arr: arr}
}

// ValueOf maps a Go value onto a Value.
// Slices of any element type become arrays; maps, structs and other
// composite values are rejected.
func ValueOf(v any) (Value, error) {
	switch t := v.(type) {
	case nil:
		return NullString(), nil
	case Value:
		return t, nil
	case string:
		return String(t), nil
	case *string:
		if t == nil {
			return NullString(), nil
		}
		return String(*t), nil
	case bool:
		return Bool(t), nil
	case int:
		return Int(int64(t)), nil
	case int8:
		return Int(int64(t)), nil
	case int16:
		return Int(int64(t)), nil
	case int32:
		return Int(int64(t)), nil
	case int64:
		return Int(t), nil
	case uint:
		return uintValue(uint64(t), v)
	case uint8:
		return Int(int64(t)), nil
	case uint16:
		return Int(int64(t)), nil
	case uint32:
		return Int(int64(t)), nil
	case uint64:
		return uintValue(t, v)
	case float32:
		return Float(widen(t)), nil
	case float64:
		return Float(t), nil
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return Int(i), nil
		}
		f, err := t.Float64()
		if err != nil {
			return Value{}, &SerializationError{Value: v, Reason: "malformed number"}
		}
		return Float(f), nil
	case []any:
		return Array(t...), nil
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		elems := make([]any, rv.Len())
		for i := range elems {
			elems[i] = rv.Index(i).Interface()
		}
		return Value{kind: KindArray, arr: elems}, nil
	}
	return Value{}, &SerializationError{Value: v, Reason: "unsupported value kind " + rv.Kind().String()}
}

// widen converts f keeping its shortest float32 decimal form, so
// float32(0.1) stays 0.1 rather than 0.10000000149011612.
func widen(f float32) float64 {
	w, err := strconv.ParseFloat(strconv.FormatFloat(float64(f), 'g', -1, 32), 64)
	if err != nil {
		return float64(f)
	}
	return w
}

func uintValue(u uint64, orig any) (Value, error) {
	if u > math.MaxInt64 {
		return Value{}, &SerializationError{Value: orig, Reason: "integer overflows int64"}
	}
	return Int(int64(u)), nil
}

// Kind returns the value variant.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is the null string value.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Any returns the plain Go value: string, nil, int64, float64, bool or []any.
func (v Value) Any() any {
	switch v.kind {
	case KindString:
		return v.str
	case KindInteger:
		return v.num
	case KindFloat:
		return v.flt
	case KindBoolean:
		return v.bln
	case KindArray:
		arr := make([]any, len(v.arr))
		copy(arr, v.arr)
		return arr
	default:
		return nil
	}
}

// JSON encodes the value as a JSON literal.
func (v Value) JSON() (string, error) {
	switch v.kind {
	case KindString:
		return quote(v.str), nil
	case KindNull:
		return "null", nil
	case KindInteger:
		return strconv.FormatInt(v.num, 10), nil
	case KindFloat:
		return formatFloat(v.flt)
	case KindBoolean:
		return strconv.FormatBool(v.bln), nil
	case KindArray:
		return encodeArray(v.arr)
	default:
		return "", &SerializationError{Value: v, Reason: "value has no kind"}
	}
}

func (v Value) debugString() string {
	if s, err := v.JSON(); err == nil {
		return s
	}
	return fmt.Sprint(v.Any())
}

// encodeArray joins element encodings. Nested slices and Values recurse;
// elements of unsupported kinds are sent as their fmt form, quoted.
func encodeArray(elems []any) (string, error) {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, e := range elems {
		if i > 0 {
			sb.WriteByte(',')
		}
		s, err := encodeElement(e)
		if err != nil {
			return "", err
		}
		sb.WriteString(s)
	}
	sb.WriteByte(']')
	return sb.String(), nil
}

func encodeElement(e any) (string, error) {
	switch t := e.(type) {
	case uint:
		return strconv.FormatUint(uint64(t), 10), nil
	case uint64:
		return strconv.FormatUint(t, 10), nil
	}
	v, err := ValueOf(e)
	if err != nil {
		return quote(fmt.Sprint(e)), nil
	}
	return v.JSON()
}

// formatFloat matches encoding/json number formatting.
func formatFloat(f float64) (string, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", &SerializationError{Value: f, Reason: "not representable in JSON"}
	}
	b, err := json.Marshal(f)
	if err != nil {
		return "", &SerializationError{Value: f, Reason: err.Error()}
	}
	return string(b), nil
}

// quote JSON-encodes s without HTML escaping.
func quote(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s) // strings always encode
	return strings.TrimSuffix(buf.String(), "\n")
}
