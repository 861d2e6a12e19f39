package filter

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidField signals a missing or blank field name.
	ErrInvalidField = errors.New("invalid field")
	// ErrUnknownOperator signals an operator token outside the closed set.
	ErrUnknownOperator = errors.New("unknown operator")
	// ErrBuilderState signals a builder call made in the wrong state.
	ErrBuilderState = errors.New("illegal builder state")
	// ErrSerialization signals a value that cannot be encoded as JSON.
	ErrSerialization = errors.New("serialization failed")
)

// InvalidFieldError wraps ErrInvalidField with the rejected field name.
type InvalidFieldError struct {
	Field string
}

func (e *InvalidFieldError) Error() string {
	return fmt.Sprintf("%s: %q", ErrInvalidField.Error(), e.Field)
}

func (e *InvalidFieldError) Unwrap() error { return ErrInvalidField }

// UnknownOperatorError wraps ErrUnknownOperator with the rejected token.
type UnknownOperatorError struct {
	Token string
}

func (e *UnknownOperatorError) Error() string {
	return fmt.Sprintf("%s: %q", ErrUnknownOperator.Error(), e.Token)
}

func (e *UnknownOperatorError) Unwrap() error { return ErrUnknownOperator }

// BuilderStateError wraps ErrBuilderState with the call and the state it was made in.
type BuilderStateError struct {
	Call   string
	State  string
	Reason string
}

func (e *BuilderStateError) Error() string {
	return fmt.Sprintf("%s: %s in state %s: %s", ErrBuilderState.Error(), e.Call, e.State, e.Reason)
}

func (e *BuilderStateError) Unwrap() error { return ErrBuilderState }

// SerializationError wraps ErrSerialization with the offending value.
type SerializationError struct {
	Value  any
	Reason string
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("%s: %v (%T): %s", ErrSerialization.Error(), e.Value, e.Value, e.Reason)
}

func (e *SerializationError) Unwrap() error { return ErrSerialization }
