package request

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kailas-cloud/chino/internal/domain/search/filter"
	"github.com/kailas-cloud/chino/internal/domain/search/mode"
)

// Defaults applied by New for empty tokens.
const (
	DefaultFilterType = mode.And
	DefaultResultType = mode.FullContent
)

// Request is a validated search request body.
type Request struct {
	filterType mode.FilterType
	resultType mode.ResultType
	filters    []filter.Option
	sorts      []filter.Sort
}

// New validates and creates a Request.
// An empty filter list is legal. Filter order is kept for output; sort order
// decides key priority.
func New(
	filterType mode.FilterType,
	resultType mode.ResultType,
	filters []filter.Option,
	sorts []filter.Sort,
) (Request, error) {
	if filterType == "" {
		filterType = DefaultFilterType
	}
	if !filterType.IsValid() {
		return Request{}, fmt.Errorf("invalid filter type: %q", filterType)
	}
	if resultType == "" {
		resultType = DefaultResultType
	}
	if !resultType.IsValid() {
		return Request{}, fmt.Errorf("invalid result type: %q", resultType)
	}
	for i, o := range filters {
		if _, err := o.Leaf(); err != nil {
			return Request{}, fmt.Errorf("filter[%d]: %w", i, err)
		}
	}
	for i, s := range sorts {
		if _, err := filter.NewSort(s.Field, s.Order); err != nil {
			return Request{}, fmt.Errorf("sort[%d]: %w", i, err)
		}
	}

	return Request{
		filterType: filterType,
		resultType: resultType,
		filters:    append([]filter.Option{}, filters...),
		sorts:      append([]filter.Sort{}, sorts...),
	}, nil
}

// FilterType returns the boolean combinator.
func (r Request) FilterType() mode.FilterType { return r.filterType }

// ResultType returns the requested result shape.
func (r Request) ResultType() mode.ResultType { return r.resultType }

// Filters returns a copy of the filter clauses.
func (r Request) Filters() []filter.Option { return append([]filter.Option{}, r.filters...) }

// Sorts returns a copy of the sort clauses.
func (r Request) Sorts() []filter.Sort { return append([]filter.Sort{}, r.sorts...) }

// Tree returns the filter clauses as a node tree under the request combinator.
func (r Request) Tree() filter.Group {
	nodes := make([]filter.Node, 0, len(r.filters))
	for _, o := range r.filters {
		// validated in New
		leaf, _ := o.Leaf()
		nodes = append(nodes, leaf)
	}
	return filter.NewGroup(string(r.filterType), nodes...)
}

// DebugString renders the filter tree compactly.
func (r Request) DebugString() string { return r.Tree().DebugString() }

type wireRequest struct {
	FilterType mode.FilterType `json:"filterType"`
	ResultType mode.ResultType `json:"resultType"`
	Sort       []filter.Sort   `json:"sort"`
	Filter     []filter.Option `json:"filter"`
}

// Encode renders the wire body with keys in filterType, resultType, sort,
// filter order. HTML characters are not escaped.
func (r Request) Encode() ([]byte, error) {
	w := wireRequest{
		FilterType: r.filterType,
		ResultType: r.resultType,
		Sort:       r.sorts,
		Filter:     r.filters,
	}
	if w.FilterType == "" {
		w.FilterType = DefaultFilterType
	}
	if w.ResultType == "" {
		w.ResultType = DefaultResultType
	}
	if w.Sort == nil {
		w.Sort = []filter.Sort{}
	}
	if w.Filter == nil {
		w.Filter = []filter.Option{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(w); err != nil {
		return nil, &filter.SerializationError{Value: r.filters, Reason: err.Error()}
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// MarshalJSON implements json.Marshaler.
func (r Request) MarshalJSON() ([]byte, error) { return r.Encode() }

// Indented renders the wire body indented with tabs.
func (r Request) Indented() (string, error) {
	b, err := r.Encode()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, b, "", "\t"); err != nil {
		return "", fmt.Errorf("indent: %w", err)
	}
	return buf.String(), nil
}

// Decode parses a wire body. Tokens outside the closed vocabularies are rejected.
func Decode(data []byte) (Request, error) {
	var w struct {
		FilterType string `json:"filterType"`
		ResultType string `json:"resultType"`
		Sort       []struct {
			Field string `json:"field"`
			Order string `json:"order"`
		} `json:"sort"`
		Filter []filter.Option `json:"filter"`
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&w); err != nil {
		return Request{}, fmt.Errorf("decode search request: %w", err)
	}

	var (
		ft  mode.FilterType
		rt  mode.ResultType
		err error
	)
	if w.FilterType != "" {
		if ft, err = mode.ParseFilterType(w.FilterType); err != nil {
			return Request{}, err
		}
	}
	if w.ResultType != "" {
		if rt, err = mode.ParseResultType(w.ResultType); err != nil {
			return Request{}, err
		}
	}

	sorts := make([]filter.Sort, len(w.Sort))
	for i, s := range w.Sort {
		order, err := filter.ParseOrder(strings.TrimSpace(s.Order))
		if err != nil {
			return Request{}, fmt.Errorf("sort[%d]: %w", i, err)
		}
		sorts[i] = filter.Sort{Field: s.Field, Order: order}
	}

	filters := make([]filter.Option, len(w.Filter))
	for i, o := range w.Filter {
		o.Value = normalizeNumbers(o.Value)
		filters[i] = o
	}

	return New(ft, rt, filters, sorts)
}

// normalizeNumbers turns json.Number into int64 when integral, float64 otherwise.
func normalizeNumbers(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = normalizeNumbers(e)
		}
		return out
	default:
		return v
	}
}
