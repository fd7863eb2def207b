// internal/rules/fields.go
package rules

import "github.com/solatis/qbfilter/internal/types"

/*
 * Field policy: allow-list and raw-field substitution.
 *
 * The allow-list is checked against the logical field name sent by the UI.
 * Raw-field substitution rewrites a logical name to a raw expression (for
 * example a computed column) and is applied to the whole tree before the
 * walk. The substitution never mutates the decoded tree: ApplyRawFields
 * returns a copy that shares only unchanged leaves.
 */

// fieldPolicy is the immutable field configuration of an Engine.
type fieldPolicy struct {
	allowed map[string]struct{}
	order   []string
	raw     map[string]string
}

func newFieldPolicy(allowed []string, raw map[string]string) fieldPolicy {
	p := fieldPolicy{
		allowed: make(map[string]struct{}, len(allowed)),
		order:   append([]string(nil), allowed...),
		raw:     make(map[string]string, len(raw)),
	}
	for _, f := range allowed {
		p.allowed[f] = struct{}{}
	}
	for k, v := range raw {
		p.raw[k] = v
	}
	return p
}

// allows reports whether field passes the allow-list. An empty list allows all.
func (p fieldPolicy) allows(field string) bool {
	if len(p.allowed) == 0 {
		return true
	}
	_, ok := p.allowed[field]
	return ok
}

// ApplyRawFields returns a copy of root where every leaf whose field is a
// key of raw carries the mapped expression in Expr. root is not modified.
func ApplyRawFields(root *types.Group, raw map[string]string) *types.Group {
	if root == nil || len(raw) == 0 {
		return root
	}
	return &types.Group{
		Condition: root.Condition,
		Rules:     substituteRules(root.Rules, raw),
	}
}

func substituteRules(nodes []types.Node, raw map[string]string) []types.Node {
	out := make([]types.Node, len(nodes))
	for i, n := range nodes {
		switch node := n.(type) {
		case *types.Group:
			out[i] = &types.Group{
				Condition: node.Condition,
				Rules:     substituteRules(node.Rules, raw),
			}
		case *types.Leaf:
			expr, ok := raw[node.Field]
			if !ok || !node.HasField {
				out[i] = node
				continue
			}
			leaf := *node
			leaf.Expr = expr
			out[i] = &leaf
		default:
			out[i] = n
		}
	}
	return out
}
