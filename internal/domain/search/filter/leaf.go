package filter

import (
	"fmt"
	"strings"
)

const indentUnit = "\t"

// Leaf is a single filter condition: field, operator and typed value.
//
// The operator is not checked against the value kind (In on a plain integer
// is accepted); the server is the enforcement point for that pairing.
type Leaf struct {
	field string
	op    Operator
	value Value
}

// NewLeaf validates and creates a Leaf.
func NewLeaf(field string, op Operator, value Value) (Leaf, error) {
	if strings.TrimSpace(field) == "" {
		return Leaf{}, &InvalidFieldError{Field: field}
	}
	if !op.IsValid() {
		return Leaf{}, &UnknownOperatorError{Token: op.String()}
	}
	if value.kind == 0 {
		return Leaf{}, &SerializationError{Value: value, Reason: "value has no kind"}
	}
	return Leaf{field: field, op: op, value: value}, nil
}

// Field returns the filtered field name.
func (l Leaf) Field() string { return l.field }

// Operator returns the comparison operator.
func (l Leaf) Operator() Operator { return l.op }

// Value returns the typed value.
func (l Leaf) Value() Value { return l.value }

// Serialize renders the leaf as a JSON object whose members sit at indent tab
// levels and whose closing brace sits one level lower.
func (l Leaf) Serialize(indent int) (string, error) {
	if indent < 0 {
		indent = 0
	}
	val, err := l.value.JSON()
	if err != nil {
		return "", fmt.Errorf("leaf %q: %w", l.field, err)
	}
	inner := strings.Repeat(indentUnit, indent)
	outer := strings.Repeat(indentUnit, max(indent-1, 0))

	var sb strings.Builder
	sb.WriteString("{\n")
	sb.WriteString(inner + `"field": ` + quote(l.field) + ",\n")
	sb.WriteString(inner + `"type": ` + quote(l.op.Token()) + ",\n")
	sb.WriteString(inner + `"value": ` + val + "\n")
	sb.WriteString(outer + "}")
	return sb.String(), nil
}

// DebugString renders the leaf as {field op value}.
func (l Leaf) DebugString() string {
	if l.field == "" {
		return "ERROR! leaf has no field"
	}
	if !l.op.IsValid() {
		return "ERROR! leaf has no operator"
	}
	return "{" + l.field + " " + l.op.Token() + " " + l.value.debugString() + "}"
}

// Option converts the leaf into its string-typed form.
func (l Leaf) Option() Option {
	return Option{Field: l.field, Type: l.op.Token(), Value: l.value.Any()}
}
