// internal/rules/coercion.go
package rules

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/solatis/qbfilter/internal/types"
)

/*
 * Value coercion for normalized predicates.
 *
 * Turns the raw JSON value of a leaf rule into the shape its operator needs:
 *
 *   1. Shape: array operators (IN, NOT IN, BETWEEN, NOT BETWEEN) take an
 *      array. A comma-separated string is split, any other non-empty scalar
 *      becomes a one-element array, nil and "" fail with ErrExpectedArray.
 *      Scalar operators flatten a one-element array and fail with
 *      ErrUnexpectedArray on anything longer. Every resulting value or
 *      element must be a scalar: nested arrays fail with ErrUnexpectedArray,
 *      objects with ErrInvalidValue.
 *   2. Dates: type tags "date" and "datetime" convert every element through
 *      the DateParser. Failures wrap ErrInvalidDate.
 *   3. Affixes: LIKE-style operators wrap scalar values with their % affixes.
 *      Array values are never affixed.
 */

// listDelimiter separates values in a string given to an array operator.
const listDelimiter = ","

// datetimeLayout renders timestamps that are affixed for pattern matching.
const datetimeLayout = "2006-01-02 15:04:05"

// DateParser turns a string into a calendar timestamp.
type DateParser interface {
	Parse(value string) (time.Time, error)
}

// DateParserFunc adapts a function to DateParser.
type DateParserFunc func(value string) (time.Time, error)

// Parse implements DateParser.
func (f DateParserFunc) Parse(value string) (time.Time, error) {
	return f(value)
}

// NewDateParser returns a DateParser accepting the layouts understood by
// dateparse, interpreting zone-less values in loc (UTC when nil).
func NewDateParser(loc *time.Location) DateParser {
	if loc == nil {
		loc = time.UTC
	}
	return DateParserFunc(func(value string) (time.Time, error) {
		return dateparse.ParseIn(strings.TrimSpace(value), loc)
	})
}

// isDateType reports whether values of the type tag are converted to timestamps.
func isDateType(typeTag string) bool {
	return typeTag == "date" || typeTag == "datetime"
}

// CoerceValue applies shape, date and affix coercion for spec to value.
// Operators that accept no value must be handled by the caller.
func CoerceValue(spec OperatorSpec, typeTag string, value any, dates DateParser) (any, error) {
	requireArray := spec.Symbol.RequiresArray()

	value, err := enforceShape(requireArray, value)
	if err != nil {
		return nil, err
	}

	if isDateType(typeTag) {
		value, err = coerceDates(value, dates)
		if err != nil {
			return nil, err
		}
	}

	if requireArray {
		return value, nil
	}
	return applyAffixes(spec, value), nil
}

// enforceShape returns value as []any when requireArray, otherwise as a scalar.
func enforceShape(requireArray bool, value any) (any, error) {
	if requireArray {
		arr, err := toArray(value)
		if err != nil {
			return nil, err
		}
		for _, v := range arr {
			if err := checkScalar(v); err != nil {
				return nil, err
			}
		}
		return arr, nil
	}

	if arr, ok := value.([]any); ok {
		if len(arr) != 1 {
			return nil, types.ErrUnexpectedArray
		}
		value = arr[0]
	}
	if err := checkScalar(value); err != nil {
		return nil, err
	}
	return value, nil
}

// checkScalar rejects JSON arrays and objects.
func checkScalar(value any) error {
	switch value.(type) {
	case []any:
		return types.ErrUnexpectedArray
	case map[string]any:
		return types.ErrInvalidValue
	default:
		return nil
	}
}

// toArray splits delimited strings and wraps single scalars.
func toArray(value any) ([]any, error) {
	switch v := value.(type) {
	case []any:
		return v, nil
	case nil:
		return nil, types.ErrExpectedArray
	case map[string]any:
		return nil, types.ErrExpectedArray
	case string:
		if v == "" {
			return nil, types.ErrExpectedArray
		}
		if !strings.Contains(v, listDelimiter) {
			return []any{v}, nil
		}
		parts := strings.Split(v, listDelimiter)
		out := make([]any, len(parts))
		for i, p := range parts {
			out[i] = p
		}
		return out, nil
	default:
		return []any{v}, nil
	}
}

// coerceDates converts a scalar or each element of an array to time.Time.
func coerceDates(value any, dates DateParser) (any, error) {
	arr, ok := value.([]any)
	if !ok {
		return parseDate(value, dates)
	}

	out := make([]any, len(arr))
	for i, v := range arr {
		t, err := parseDate(v, dates)
		if err != nil {
			return nil, err
		}
		out[i] = t
	}
	return out, nil
}

// parseDate converts one value; timestamps pass through unchanged.
func parseDate(value any, dates DateParser) (any, error) {
	switch v := value.(type) {
	case time.Time:
		return v, nil
	case nil:
		return nil, fmt.Errorf("%w: missing value", types.ErrInvalidDate)
	}

	raw := scalarString(value)
	t, err := dates.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", types.ErrInvalidDate, raw, err)
	}
	return t, nil
}

// applyAffixes wraps a scalar with the operator's prefix and suffix.
// Values are left untouched when the operator has no affixes.
func applyAffixes(spec OperatorSpec, value any) any {
	if spec.Prefix == "" && spec.Suffix == "" {
		return value
	}
	return spec.Prefix + scalarString(value) + spec.Suffix
}

// scalarString renders a scalar the way it is concatenated into patterns.
func scalarString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case int64:
		return strconv.FormatInt(v, 10)
	case int:
		return strconv.Itoa(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case time.Time:
		return v.Format(datetimeLayout)
	default:
		return fmt.Sprintf("%v", v)
	}
}
