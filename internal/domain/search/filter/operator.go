package filter

// Operator is a comparison or membership operator of a filter clause.
type Operator int

// Supported operators. The zero value is not a valid operator.
const (
	Eq Operator = iota + 1
	Ne
	Gt
	Gte
	Lt
	Lte
	In
	Nin
	// Wildcard matches string values against a pattern with * and ? placeholders.
	Wildcard
)

var operatorTokens = map[Operator]string{
	Eq:       "eq",
	Ne:       "ne",
	Gt:       "gt",
	Gte:      "gte",
	Lt:       "lt",
	Lte:      "lte",
	In:       "in",
	Nin:      "nin",
	Wildcard: "wildcard",
}

var tokenOperators = func() map[string]Operator {
	m := make(map[string]Operator, len(operatorTokens))
	for op, tok := range operatorTokens {
		m[tok] = op
	}
	return m
}()

// Operators returns the closed operator set in declaration order.
func Operators() []Operator {
	return []Operator{Eq, Ne, Gt, Gte, Lt, Lte, In, Nin, Wildcard}
}

// ParseOperator maps a wire token onto its Operator. Matching is case-sensitive.
func ParseOperator(token string) (Operator, error) {
	op, ok := tokenOperators[token]
	if !ok {
		return 0, &UnknownOperatorError{Token: token}
	}
	return op, nil
}

// Token returns the wire token, or "" for an invalid operator.
func (o Operator) Token() string { return operatorTokens[o] }

// IsValid reports whether o belongs to the closed operator set.
func (o Operator) IsValid() bool {
	_, ok := operatorTokens[o]
	return ok
}

func (o Operator) String() string {
	if tok, ok := operatorTokens[o]; ok {
		return tok
	}
	return "unknown"
}

// MarshalText encodes the operator as its wire token.
func (o Operator) MarshalText() ([]byte, error) {
	if !o.IsValid() {
		return nil, &UnknownOperatorError{Token: o.String()}
	}
	return []byte(o.Token()), nil
}

// UnmarshalText decodes a wire token, rejecting anything outside the closed set.
func (o *Operator) UnmarshalText(text []byte) error {
	op, err := ParseOperator(string(text))
	if err != nil {
		return err
	}
	*o = op
	return nil
}
