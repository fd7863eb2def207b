// internal/types/rules.go
package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

/*
 * Filter tree model.
 *
 * A query-builder document is a root group {condition, rules}. Each entry of
 * rules is either a leaf rule {id, field, type, operator, value} or a nested
 * group. A node is a group iff it carries a non-empty rules array; the
 * classification happens once in Decode and is carried by the Node variants.
 *
 * Key types:
 *   - Node: sum type, implemented by *Leaf and *Group only
 *   - Leaf: one field/operator/value rule, with presence flags for the
 *     required attributes (a present JSON null counts as absent)
 *   - Group: condition plus ordered children
 *
 * Values decode losslessly: integral JSON numbers become int64, others
 * float64. Arrays become []any.
 */

// Node is a rule tree node: *Leaf or *Group.
type Node interface {
	isNode()
}

// Leaf is a single filter rule.
type Leaf struct {
	ID       string
	Field    string
	Type     string
	Operator string
	Value    any

	HasID       bool
	HasField    bool
	HasType     bool
	HasOperator bool

	// Expr is the raw expression substituted for Field, empty when none.
	Expr string
}

// Group is a boolean container of rules combined by Condition.
type Group struct {
	Condition string
	Rules     []Node
}

func (*Leaf) isNode()  {}
func (*Group) isNode() {}

// Column returns the expression emitted for the rule: the raw expression
// when one was substituted, otherwise the field name.
func (l *Leaf) Column() string {
	if l.Expr != "" {
		return l.Expr
	}
	return l.Field
}

// Decode parses a query-builder JSON document into its root group.
// Returns ErrInvalidPayload for malformed JSON or a non-object root,
// ErrPayloadTooLarge beyond MaxPayloadSize and ErrTooDeep beyond MaxGroupDepth.
// A root without a rules array decodes to an empty group.
func Decode(payload []byte) (*Group, error) {
	if len(payload) > MaxPayloadSize {
		return nil, ErrPayloadTooLarge
	}

	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: JSON parsing threw an error: %v", ErrInvalidPayload, err)
	}
	if dec.More() {
		return nil, fmt.Errorf("%w: trailing data after JSON document", ErrInvalidPayload)
	}

	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: the query is not a JSON object", ErrInvalidPayload)
	}

	root := &Group{Condition: stringAttr(obj["condition"])}
	rules, ok := obj["rules"].([]any)
	if !ok {
		return root, nil
	}

	children, err := decodeRules(rules, 1)
	if err != nil {
		return nil, err
	}
	root.Rules = children
	return root, nil
}

// decodeRules converts the elements of a rules array into nodes.
func decodeRules(rules []any, depth int) ([]Node, error) {
	if depth > MaxGroupDepth {
		return nil, ErrTooDeep
	}

	nodes := make([]Node, 0, len(rules))
	for _, r := range rules {
		obj, ok := r.(map[string]any)
		if !ok {
			// Non-object entries carry no attributes and are skipped as malformed
			nodes = append(nodes, &Leaf{})
			continue
		}

		if children, ok := obj["rules"].([]any); ok && len(children) > 0 {
			nested, err := decodeRules(children, depth+1)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, &Group{
				Condition: stringAttr(obj["condition"]),
				Rules:     nested,
			})
			continue
		}

		nodes = append(nodes, decodeLeaf(obj))
	}
	return nodes, nil
}

// decodeLeaf extracts rule attributes, recording which were present.
func decodeLeaf(obj map[string]any) *Leaf {
	leaf := &Leaf{Value: normalizeValue(obj["value"])}
	leaf.ID, leaf.HasID = scalarAttr(obj["id"])
	leaf.Field, leaf.HasField = scalarAttr(obj["field"])
	leaf.Type, leaf.HasType = scalarAttr(obj["type"])
	leaf.Operator, leaf.HasOperator = scalarAttr(obj["operator"])
	return leaf
}

// scalarAttr renders a JSON scalar as string. Null, objects and arrays
// report absent.
func scalarAttr(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case json.Number:
		return t.String(), true
	case bool:
		return strconv.FormatBool(t), true
	default:
		return "", false
	}
}

func stringAttr(v any) string {
	s, _ := scalarAttr(v)
	return s
}

// normalizeValue converts json.Number to int64/float64, recursively for arrays.
func normalizeValue(v any) any {
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
			out[i] = normalizeValue(e)
		}
		return out
	default:
		return v
	}
}
