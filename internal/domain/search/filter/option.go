package filter

import (
	"fmt"
	"strings"
)

// Option is the string-typed form of a filter clause.
// It encodes to the same {"field","type","value"} object as a Leaf.
type Option struct {
	Field string `json:"field"`
	Type  string `json:"type"`
	Value any    `json:"value"`
}

// MarshalJSON encodes the value through Value, the same encoder a Leaf uses.
func (o Option) MarshalJSON() ([]byte, error) {
	v, err := ValueOf(o.Value)
	if err != nil {
		return nil, fmt.Errorf("filter %q: %w", o.Field, err)
	}
	val, err := v.JSON()
	if err != nil {
		return nil, fmt.Errorf("filter %q: %w", o.Field, err)
	}
	return []byte(`{"field":` + quote(o.Field) + `,"type":` + quote(o.Type) + `,"value":` + val + `}`), nil
}

// NewOption validates the field and operator token and creates an Option.
func NewOption(field, token string, value any) (Option, error) {
	o := Option{Field: field, Type: token, Value: value}
	if _, err := o.Leaf(); err != nil {
		return Option{}, err
	}
	return o, nil
}

// Leaf converts the option into a typed Leaf.
func (o Option) Leaf() (Leaf, error) {
	op, err := ParseOperator(o.Type)
	if err != nil {
		return Leaf{}, fmt.Errorf("filter %q: %w", o.Field, err)
	}
	v, err := ValueOf(o.Value)
	if err != nil {
		return Leaf{}, fmt.Errorf("filter %q: %w", o.Field, err)
	}
	return NewLeaf(o.Field, op, v)
}

// Order is a sort direction.
type Order string

// Sort directions.
const (
	Asc  Order = "asc"
	Desc Order = "desc"
)

// ParseOrder maps a wire token onto an Order.
func ParseOrder(s string) (Order, error) {
	switch Order(s) {
	case Asc, Desc:
		return Order(s), nil
	default:
		return "", fmt.Errorf("invalid sort order %q (want asc or desc)", s)
	}
}

// Sort is a single sort clause. Position in the request decides key priority.
type Sort struct {
	Field string `json:"field"`
	Order Order  `json:"order"`
}

// NewSort validates and creates a Sort.
func NewSort(field string, order Order) (Sort, error) {
	if strings.TrimSpace(field) == "" {
		return Sort{}, &InvalidFieldError{Field: field}
	}
	if _, err := ParseOrder(string(order)); err != nil {
		return Sort{}, err
	}
	return Sort{Field: field, Order: order}, nil
}
