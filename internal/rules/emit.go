// internal/rules/emit.go
package rules

import (
	"errors"

	"github.com/solatis/qbfilter/internal/types"
)

/*
 * Tree walk and emission.
 *
 * Walks a decoded filter tree in document order and applies each rule to
 * the Target:
 *
 *   1. Empty root rules: nothing is emitted, the target is left untouched.
 *   2. Raw-field substitution is applied to a copy of the whole tree.
 *   3. Leaves are normalized and emitted with the conjunction of the group
 *      that contains them. Malformed leaves (ErrMalformedRule) are skipped.
 *   4. Nested groups open a Target.WhereNested scope joined by the parent's
 *      conjunction; their own condition combines their children. The
 *      group's condition is validated when the scope is opened.
 *
 * Top-level conditions are only validated with WithStrictCondition. Without
 * it a missing or unknown top-level condition combines with AND.
 */

// Emit decodes payload and applies the filter to target.
func (e *Engine) Emit(payload []byte, target Target) error {
	root, err := types.Decode(payload)
	if err != nil {
		return err
	}
	return e.EmitTree(root, target)
}

// EmitTree applies an already decoded filter to target.
func (e *Engine) EmitTree(root *types.Group, target Target) error {
	if root == nil || len(root.Rules) == 0 {
		return nil
	}

	conj, err := e.topConjunction(root.Condition)
	if err != nil {
		return err
	}

	root = ApplyRawFields(root, e.fields.raw)
	return e.walk(root.Rules, target, conj, 1)
}

// Validate translates payload without producing any query.
func (e *Engine) Validate(payload []byte) error {
	return e.Emit(payload, Discard)
}

// topConjunction resolves the root condition according to the strictness policy.
func (e *Engine) topConjunction(condition string) (Conjunction, error) {
	conj, err := ParseConjunction(condition)
	if err == nil {
		return conj, nil
	}
	if e.strictCondition {
		return And, &types.RuleError{Err: err, Condition: condition}
	}

	e.logger.Debug().
		Str("condition", condition).
		Msg("unrecognised top-level condition, combining with AND")
	return And, nil
}

// walk emits nodes in order into target, joined by conj.
func (e *Engine) walk(nodes []types.Node, target Target, conj Conjunction, depth int) error {
	for _, n := range nodes {
		switch node := n.(type) {
		case *types.Leaf:
			if err := e.emitLeaf(node, target, conj); err != nil {
				return err
			}
		case *types.Group:
			if err := e.emitGroup(node, target, conj, depth); err != nil {
				return err
			}
		}
	}
	return nil
}

// emitLeaf normalizes and applies a single rule, skipping malformed rules.
func (e *Engine) emitLeaf(leaf *types.Leaf, target Target, conj Conjunction) error {
	pred, err := e.Normalize(leaf, conj)
	if err != nil {
		if types.IsRecoverable(err) {
			e.logger.Debug().
				Str("rule_id", leaf.ID).
				Str("field", leaf.Field).
				Str("operator", leaf.Operator).
				Msg("skipping malformed rule")
			return nil
		}
		return err
	}
	return Apply(target, pred)
}

// emitGroup opens a nested scope for g joined to its siblings by connector.
func (e *Engine) emitGroup(g *types.Group, target Target, connector Conjunction, depth int) error {
	if len(g.Rules) == 0 {
		return nil
	}
	if depth >= types.MaxGroupDepth {
		return types.ErrTooDeep
	}

	own, err := ParseConjunction(g.Condition)
	if err != nil {
		return &types.RuleError{Err: err, Condition: g.Condition}
	}

	return target.WhereNested(func(nested Target) error {
		return e.walk(g.Rules, nested, own, depth+1)
	}, connector)
}

// Apply dispatches a predicate to the matching Target method. Fields of
// non-raw predicates must be identifiers.
func Apply(target Target, p Predicate) error {
	if !p.Raw && !types.IsIdentifier(p.Field) {
		return &types.RuleError{Err: types.ErrInvalidField, Field: p.Field}
	}

	switch p.Symbol {
	case SymIn, SymNotIn:
		values, ok := p.Value.([]any)
		if !ok {
			return &types.RuleError{Err: types.ErrExpectedArray, Field: p.Field}
		}
		if p.Symbol == SymNotIn {
			target.WhereNotIn(p.Field, values, p.Conjunction)
		} else {
			target.WhereIn(p.Field, values, p.Conjunction)
		}
	case SymBetween, SymNotBetween:
		values, _ := p.Value.([]any)
		if len(values) != 2 {
			return &types.RuleError{Err: types.ErrRangeArity, Field: p.Field}
		}
		if p.Symbol == SymNotBetween {
			target.WhereNotBetween(p.Field, values[0], values[1], p.Conjunction)
		} else {
			target.WhereBetween(p.Field, values[0], values[1], p.Conjunction)
		}
	case SymNull:
		target.WhereNull(p.Field, p.Conjunction)
	case SymNotNull:
		target.WhereNotNull(p.Field, p.Conjunction)
	case SymUnspecified:
		return errors.New("predicate has no operator")
	default:
		target.Where(p.Field, p.Symbol, p.Value, p.Conjunction)
	}
	return nil
}
