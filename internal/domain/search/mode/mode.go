// Package mode holds the closed vocabularies of the search protocol.
package mode

import "fmt"

// FilterType is the boolean combinator applied across all filter clauses.
type FilterType string

// Filter type constants.
const (
	And FilterType = "and"
	Or  FilterType = "or"
)

// IsValid checks if the filter type is one of the supported values.
func (f FilterType) IsValid() bool {
	return f == And || f == Or
}

// ParseFilterType maps a wire token onto a FilterType.
func ParseFilterType(s string) (FilterType, error) {
	if f := FilterType(s); f.IsValid() {
		return f, nil
	}
	return "", fmt.Errorf("invalid filter type %q", s)
}

// ResultType is the shape of data the server returns for a search.
type ResultType string

// Result type constants.
const (
	FullContent ResultType = "FULL_CONTENT"
	OnlyID      ResultType = "ONLY_ID"
	Exists      ResultType = "EXISTS"
	// UsernameExists is only meaningful for user searches.
	UsernameExists ResultType = "USERNAME_EXISTS"
)

// IsValid checks if the result type is one of the supported values.
func (r ResultType) IsValid() bool {
	switch r {
	case FullContent, OnlyID, Exists, UsernameExists:
		return true
	default:
		return false
	}
}

// ParseResultType maps a wire token onto a ResultType. Matching is case-sensitive.
func ParseResultType(s string) (ResultType, error) {
	if r := ResultType(s); r.IsValid() {
		return r, nil
	}
	return "", fmt.Errorf("invalid result type %q", s)
}

// Endpoint selects the search endpoint family.
type Endpoint string

// Search endpoints.
const (
	Documents Endpoint = "documents"
	Users     Endpoint = "users"
)

// IsValid checks if the endpoint is one of the supported values.
func (e Endpoint) IsValid() bool {
	return e == Documents || e == Users
}

// Supports reports whether the endpoint accepts the result type.
func (e Endpoint) Supports(r ResultType) bool {
	if r == UsernameExists {
		return e == Users
	}
	return r.IsValid()
}

// SchemaKind names the schema the endpoint searches in.
func (e Endpoint) SchemaKind() string {
	if e == Users {
		return "user_schema"
	}
	return "schema"
}
