// Package query implements the fluent search builder as an explicit state machine.
package query

import (
	"strings"

	"github.com/kailas-cloud/chino/internal/domain/search/filter"
	"github.com/kailas-cloud/chino/internal/domain/search/mode"
	"github.com/kailas-cloud/chino/internal/domain/search/request"
)

// State is the builder position in the where/operator/combinator sequence.
type State int

// Builder states.
const (
	// Empty: no clause started yet.
	Empty State = iota
	// HasField: a field was named and awaits its operator.
	HasField
	// HasCondition: the last clause is complete.
	HasCondition
)

func (s State) String() string {
	switch s {
	case Empty:
		return "EMPTY"
	case HasField:
		return "HAS_FIELD"
	case HasCondition:
		return "HAS_CONDITION"
	default:
		return "UNKNOWN"
	}
}

type event int

const (
	eventWhere event = iota
	eventOperator
	eventConjunction
	eventBuild
)

// next is the transition function. It returns the reason a transition is illegal.
func next(s State, ev event) (State, string) {
	switch s {
	case Empty:
		switch ev {
		case eventWhere:
			return HasField, ""
		case eventOperator:
			return s, "no field named; call Where first"
		case eventConjunction:
			return s, "no completed clause to combine with"
		case eventBuild:
			return s, ""
		}
	case HasField:
		switch ev {
		case eventOperator:
			return HasCondition, ""
		case eventWhere, eventConjunction:
			return s, "previous field has no operator"
		case eventBuild:
			return s, "last clause is incomplete"
		}
	case HasCondition:
		switch ev {
		case eventWhere, eventConjunction:
			return HasField, ""
		case eventOperator:
			return s, "no field named; call And, Or or Where first"
		case eventBuild:
			return s, ""
		}
	}
	return s, "unknown state"
}

// Builder accumulates filter and sort clauses into a request.Request.
// The first error is kept; later calls are ignored and Build reports it.
// A Builder is single-use and not safe for concurrent use.
type Builder struct {
	state      State
	pending    string
	filterType mode.FilterType
	resultType mode.ResultType
	filters    []filter.Option
	sorts      []filter.Sort
	err        error
}

// New creates an empty Builder.
func New() *Builder {
	return &Builder{}
}

// State returns the current builder state.
func (b *Builder) State() State { return b.state }

// Err returns the first error recorded by the builder.
func (b *Builder) Err() error { return b.err }

func (b *Builder) transition(call string, ev event) bool {
	if b.err != nil {
		return false
	}
	s, reason := next(b.state, ev)
	if reason != "" {
		b.err = &filter.BuilderStateError{Call: call, State: b.state.String(), Reason: reason}
		return false
	}
	b.state = s
	return true
}

func (b *Builder) open(call, field string, ev event) *Builder {
	if b.err != nil {
		return b
	}
	if strings.TrimSpace(field) == "" {
		b.err = &filter.InvalidFieldError{Field: field}
		return b
	}
	if b.transition(call, ev) {
		b.pending = field
	}
	return b
}

// Where names the field of a new clause.
func (b *Builder) Where(field string) *Builder {
	return b.open("Where", field, eventWhere)
}

// And locks the request filter type to "and" and names the next field.
func (b *Builder) And(field string) *Builder {
	return b.combine("And", mode.And, field)
}

// Or locks the request filter type to "or" and names the next field.
func (b *Builder) Or(field string) *Builder {
	return b.combine("Or", mode.Or, field)
}

func (b *Builder) combine(call string, ft mode.FilterType, field string) *Builder {
	if b.err != nil {
		return b
	}
	if b.filterType != "" && b.filterType != ft {
		b.err = &filter.BuilderStateError{
			Call:   call,
			State:  b.state.String(),
			Reason: "filter type already set to " + string(b.filterType) + "; one combinator per request",
		}
		return b
	}
	b.open(call, field, eventConjunction)
	if b.err == nil {
		b.filterType = ft
	}
	return b
}

// Condition completes the pending clause with op and value.
func (b *Builder) Condition(op filter.Operator, value any) *Builder {
	if b.err != nil {
		return b
	}
	call := op.String()
	if !op.IsValid() {
		b.err = &filter.UnknownOperatorError{Token: call}
		return b
	}
	if _, err := filter.ValueOf(value); err != nil {
		b.err = err
		return b
	}
	if !b.transition(call, eventOperator) {
		return b
	}
	b.filters = append(b.filters, filter.Option{Field: b.pending, Type: op.Token(), Value: value})
	b.pending = ""
	return b
}

// Eq completes the pending clause with an equality test.
func (b *Builder) Eq(value any) *Builder { return b.Condition(filter.Eq, value) }

// Ne completes the pending clause with an inequality test.
func (b *Builder) Ne(value any) *Builder { return b.Condition(filter.Ne, value) }

// Gt completes the pending clause with a greater-than test.
func (b *Builder) Gt(value any) *Builder { return b.Condition(filter.Gt, value) }

// Gte completes the pending clause with a greater-or-equal test.
func (b *Builder) Gte(value any) *Builder { return b.Condition(filter.Gte, value) }

// Lt completes the pending clause with a lower-than test.
func (b *Builder) Lt(value any) *Builder { return b.Condition(filter.Lt, value) }

// Lte completes the pending clause with a lower-or-equal test.
func (b *Builder) Lte(value any) *Builder { return b.Condition(filter.Lte, value) }

// In completes the pending clause with a membership test.
func (b *Builder) In(values any) *Builder { return b.Condition(filter.In, values) }

// Nin completes the pending clause with a non-membership test.
func (b *Builder) Nin(values any) *Builder { return b.Condition(filter.Nin, values) }

// Wildcard completes the pending clause with a pattern match.
func (b *Builder) Wildcard(pattern string) *Builder { return b.Condition(filter.Wildcard, pattern) }

// SortAscBy appends an ascending sort clause.
func (b *Builder) SortAscBy(field string) *Builder { return b.sort(field, filter.Asc) }

// SortDescBy appends a descending sort clause.
func (b *Builder) SortDescBy(field string) *Builder { return b.sort(field, filter.Desc) }

func (b *Builder) sort(field string, order filter.Order) *Builder {
	if b.err != nil {
		return b
	}
	s, err := filter.NewSort(field, order)
	if err != nil {
		b.err = err
		return b
	}
	b.sorts = append(b.sorts, s)
	return b
}

// ResultType sets the requested result shape.
func (b *Builder) ResultType(rt mode.ResultType) *Builder {
	if b.err != nil {
		return b
	}
	if !rt.IsValid() {
		b.err = &filter.BuilderStateError{
			Call:   "ResultType",
			State:  b.state.String(),
			Reason: "invalid result type " + string(rt),
		}
		return b
	}
	b.resultType = rt
	return b
}

// Build validates the accumulated clauses and creates the request.
// Without an And/Or call the filter type is "and".
func (b *Builder) Build() (request.Request, error) {
	if b.err != nil {
		return request.Request{}, b.err
	}
	if _, reason := next(b.state, eventBuild); reason != "" {
		return request.Request{}, &filter.BuilderStateError{Call: "Build", State: b.state.String(), Reason: reason}
	}
	ft := b.filterType
	if ft == "" {
		ft = request.DefaultFilterType
	}
	return request.New(ft, b.resultType, b.filters, b.sorts)
}
