package types

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for filter translation.
var (
	// ErrMalformedRule indicates a leaf rule lacks operator, id, field or type,
	// or names an unknown operator. The walker skips such rules.
	ErrMalformedRule = errors.New("malformed rule")

	// ErrInvalidPayload indicates the filter payload is not a JSON object.
	ErrInvalidPayload = errors.New("invalid filter payload")

	// ErrPayloadTooLarge indicates the filter payload exceeds MaxPayloadSize.
	ErrPayloadTooLarge = errors.New("filter payload exceeds maximum size")

	// ErrInvalidCondition indicates a group condition other than AND/OR.
	ErrInvalidCondition = errors.New("condition can only be one of: 'and', 'or'")

	// ErrFieldNotAllowed indicates a field outside the configured allow-list.
	ErrFieldNotAllowed = errors.New("field does not exist in fields list")

	// ErrExpectedArray indicates an IN/BETWEEN operator received a non-array value.
	ErrExpectedArray = errors.New("value should be an array")

	// ErrUnexpectedArray indicates a scalar operator received a multi-element array.
	ErrUnexpectedArray = errors.New("value should not be an array")

	// ErrInvalidValue indicates a JSON object where a scalar value is required.
	ErrInvalidValue = errors.New("value should be a scalar")

	// ErrRangeArity indicates a BETWEEN operator received other than two values.
	ErrRangeArity = errors.New("range value should be an array with only two items")

	// ErrInvalidDate indicates a date value could not be parsed.
	ErrInvalidDate = errors.New("invalid date value")

	// ErrOperatorNotApplicable indicates an operator used with a type it does not apply to.
	ErrOperatorNotApplicable = errors.New("operator not applicable to field type")

	// ErrTooDeep indicates groups nested beyond MaxGroupDepth.
	ErrTooDeep = errors.New("filter groups nested too deeply")

	// ErrFilterNotFound indicates a saved filter does not exist.
	ErrFilterNotFound = errors.New("filter not found")

	// ErrInvalidField indicates a field name that is not a plain identifier
	// and is not mapped to a raw expression.
	ErrInvalidField = errors.New("field is not a valid column name")

	// ErrInvalidTable indicates a table name that is not a plain identifier.
	ErrInvalidTable = errors.New("invalid table name")
)

// RuleError attaches rule context to a translation failure.
// Unwraps to one of the sentinel errors above.
type RuleError struct {
	Err       error
	RuleID    string
	Field     string
	Operator  string
	Condition string
	Value     any
}

func (e *RuleError) Error() string {
	var parts []string
	if e.Field != "" {
		parts = append(parts, fmt.Sprintf("field (%s)", e.Field))
	}
	if e.Operator != "" {
		parts = append(parts, fmt.Sprintf("operator (%s)", e.Operator))
	}
	if e.Condition != "" {
		parts = append(parts, fmt.Sprintf("condition (%s)", e.Condition))
	}
	if len(parts) == 0 {
		return e.Err.Error()
	}
	return strings.Join(parts, " ") + ": " + e.Err.Error()
}

func (e *RuleError) Unwrap() error {
	return e.Err
}

// IsRecoverable reports whether err only invalidates a single rule.
func IsRecoverable(err error) bool {
	return errors.Is(err, ErrMalformedRule)
}
