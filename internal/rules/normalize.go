// internal/rules/normalize.go
package rules

import (
	"github.com/solatis/qbfilter/internal/types"
)

/*
 * Rule normalization.
 *
 * Converts one leaf rule into a Predicate ready for emission:
 *
 *   1. Structural check: operator, id, field and type present, operator in
 *      the catalog. Failure returns ErrMalformedRule, which the walker
 *      treats as "skip this rule".
 *   2. Allow-list check on the logical field name (ErrFieldNotAllowed).
 *      Fields without a raw expression must be plain identifiers
 *      (ErrInvalidField) since targets write them into the query verbatim.
 *   3. Optional operator/type applicability (ErrOperatorNotApplicable).
 *   4. Operators without a value get "" (empty checks) or nil (null checks).
 *   5. Value coercion: shape, dates, affixes (see coercion.go).
 *   6. Range operators must end up with exactly two values (ErrRangeArity).
 *
 * All failures other than step 1 abort the translation.
 */

// Predicate is a normalized rule, ready to be applied to a Target.
type Predicate struct {
	Field       string // logical field, or the raw expression when substituted
	Raw         bool   // Field is a raw expression
	Symbol      Symbol
	Value       any // scalar, []any for array operators, nil for null checks
	Conjunction Conjunction
}

// Normalize validates leaf and coerces its value. conj is the connective
// of the group the rule belongs to.
func (e *Engine) Normalize(leaf *types.Leaf, conj Conjunction) (Predicate, error) {
	spec, err := checkRuleCorrect(leaf)
	if err != nil {
		return Predicate{}, err
	}

	if !e.fields.allows(leaf.Field) {
		return Predicate{}, ruleError(types.ErrFieldNotAllowed, leaf)
	}
	if leaf.Expr == "" && !types.IsIdentifier(leaf.Field) {
		return Predicate{}, ruleError(types.ErrInvalidField, leaf)
	}

	if e.enforceTypes && !spec.AppliesToClass(ClassOf(leaf.Type)) {
		return Predicate{}, ruleError(types.ErrOperatorNotApplicable, leaf)
	}

	pred := Predicate{
		Field:       leaf.Column(),
		Raw:         leaf.Expr != "",
		Symbol:      spec.Symbol,
		Conjunction: conj,
	}

	if !spec.AcceptsValue {
		pred.Value = spec.EmptyValue
		return pred, nil
	}

	value, err := CoerceValue(spec, leaf.Type, leaf.Value, e.dates)
	if err != nil {
		return Predicate{}, ruleError(err, leaf)
	}

	if spec.Symbol.IsRange() {
		if arr, _ := value.([]any); len(arr) != 2 {
			return Predicate{}, ruleError(types.ErrRangeArity, leaf)
		}
	}

	pred.Value = value
	return pred, nil
}

// checkRuleCorrect verifies required attributes and resolves the operator.
func checkRuleCorrect(leaf *types.Leaf) (OperatorSpec, error) {
	if !leaf.HasOperator || !leaf.HasID || !leaf.HasField || !leaf.HasType {
		return OperatorSpec{}, ruleError(types.ErrMalformedRule, leaf)
	}
	spec, ok := Lookup(leaf.Operator)
	if !ok {
		return OperatorSpec{}, ruleError(types.ErrMalformedRule, leaf)
	}
	return spec, nil
}

func ruleError(err error, leaf *types.Leaf) *types.RuleError {
	return &types.RuleError{
		Err:      err,
		RuleID:   leaf.ID,
		Field:    leaf.Field,
		Operator: leaf.Operator,
		Value:    leaf.Value,
	}
}
