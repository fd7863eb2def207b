// internal/rules/target.go
package rules

import (
	"fmt"
	"strings"

	"github.com/solatis/qbfilter/internal/types"
)

// Conjunction is the boolean connective joining a predicate or nested
// scope to the ones emitted before it.
type Conjunction int

const (
	And Conjunction = iota
	Or
)

// String returns the lower-case connective.
func (c Conjunction) String() string {
	if c == Or {
		return "or"
	}
	return "and"
}

// ParseConjunction accepts "and" or "or" in any case, surrounding space ignored.
func ParseConjunction(s string) (Conjunction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "and":
		return And, nil
	case "or":
		return Or, nil
	default:
		return And, fmt.Errorf("%w: got %q", types.ErrInvalidCondition, s)
	}
}

// Target is the query under construction. Implementations append each call
// to the current scope, joined to the previous clause by conj.
type Target interface {
	Where(field string, sym Symbol, value any, conj Conjunction)
	WhereIn(field string, values []any, conj Conjunction)
	WhereNotIn(field string, values []any, conj Conjunction)
	WhereBetween(field string, low, high any, conj Conjunction)
	WhereNotBetween(field string, low, high any, conj Conjunction)
	WhereNull(field string, conj Conjunction)
	WhereNotNull(field string, conj Conjunction)
	// WhereNested opens a parenthesised scope, populated by build.
	WhereNested(build func(Target) error, conj Conjunction) error
}

// Discard is a Target that drops every predicate. Used to validate filters.
var Discard Target = discard{}

type discard struct{}

func (discard) Where(string, Symbol, any, Conjunction) {}
func (discard) WhereIn(string, []any, Conjunction) {}
func (discard) WhereNotIn(string, []any, Conjunction) {}
func (discard) WhereBetween(string, any, any, Conjunction) {}
func (discard) WhereNotBetween(string, any, any, Conjunction) {}
func (discard) WhereNull(string, Conjunction) {}
func (discard) WhereNotNull(string, Conjunction) {}

func (d discard) WhereNested(build func(Target) error, _ Conjunction) error {
	return build(d)
}
