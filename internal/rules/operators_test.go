// internal/rules/operators_test.go
package rules

import (
	"errors"
	"testing"

	"github.com/solatis/qbfilter/internal/types"
)

func TestLookup_Catalog(t *testing.T) {
	tests := []struct {
		name         string
		acceptsValue bool
		symbol       Symbol
		prefix       string
		suffix       string
	}{
		{"equal", true, SymEq, "", ""},
		{"not_equal", true, SymNeq, "", ""},
		{"in", true, SymIn, "", ""},
		{"not_in", true, SymNotIn, "", ""},
		{"less", true, SymLt, "", ""},
		{"less_or_equal", true, SymLte, "", ""},
		{"greater", true, SymGt, "", ""},
		{"greater_or_equal", true, SymGte, "", ""},
		{"between", true, SymBetween, "", ""},
		{"not_between", true, SymNotBetween, "", ""},
		{"begins_with", true, SymLike, "", "%"},
		{"not_begins_with", true, SymNotLike, "", "%"},
		{"contains", true, SymLike, "%", "%"},
		{"not_contains", true, SymNotLike, "%", "%"},
		{"ends_with", true, SymLike, "%", ""},
		{"not_ends_with", true, SymNotLike, "%", ""},
		{"is_empty", false, SymEq, "", ""},
		{"is_not_empty", false, SymNeq, "", ""},
		{"is_null", false, SymNull, "", ""},
		{"is_not_null", false, SymNotNull, "", ""},
	}

	if got := len(OperatorNames()); got != len(tests) {
		t.Errorf("len(OperatorNames()) = %d, want %d", got, len(tests))
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec, ok := Lookup(tt.name)
			if !ok {
				t.Fatalf("Lookup(%q) not found", tt.name)
			}
			if spec.Name != tt.name {
				t.Errorf("Name = %q, want %q", spec.Name, tt.name)
			}
			if spec.AcceptsValue != tt.acceptsValue {
				t.Errorf("AcceptsValue = %v, want %v", spec.AcceptsValue, tt.acceptsValue)
			}
			if spec.Symbol != tt.symbol {
				t.Errorf("Symbol = %v, want %v", spec.Symbol, tt.symbol)
			}
			if spec.Prefix != tt.prefix || spec.Suffix != tt.suffix {
				t.Errorf("affixes = %q/%q, want %q/%q", spec.Prefix, spec.Suffix, tt.prefix, tt.suffix)
			}
			if spec.Symbol.RequiresArray() && (spec.Prefix != "" || spec.Suffix != "") {
				t.Errorf("array operator %q carries affixes", tt.name)
			}
		})
	}
}

func TestLookup_Unknown(t *testing.T) {
	for _, name := range []string{"", "EQUAL", "like", "regex"} {
		if _, ok := Lookup(name); ok {
			t.Errorf("Lookup(%q) found, want not found", name)
		}
	}
}

func TestOperatorNames_Sorted(t *testing.T) {
	names := OperatorNames()
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Errorf("OperatorNames() not sorted at %d: %q >= %q", i, names[i-1], names[i])
		}
	}
}

func TestSymbol_Classification(t *testing.T) {
	tests := []struct {
		sym       Symbol
		str       string
		array     bool
		rangeOp   bool
		nullCheck bool
	}{
		{SymEq, "=", false, false, false},
		{SymNeq, "!=", false, false, false},
		{SymLte, "<=", false, false, false},
		{SymNotLike, "NOT LIKE", false, false, false},
		{SymIn, "IN", true, false, false},
		{SymNotIn, "NOT IN", true, false, false},
		{SymBetween, "BETWEEN", true, true, false},
		{SymNotBetween, "NOT BETWEEN", true, true, false},
		{SymNull, "NULL", false, false, true},
		{SymNotNull, "NOT NULL", false, false, true},
		{Symbol(99), "", false, false, false},
	}

	for _, tt := range tests {
		if got := tt.sym.String(); got != tt.str {
			t.Errorf("Symbol(%d).String() = %q, want %q", tt.sym, got, tt.str)
		}
		if got := tt.sym.RequiresArray(); got != tt.array {
			t.Errorf("%v.RequiresArray() = %v, want %v", tt.sym, got, tt.array)
		}
		if got := tt.sym.IsRange(); got != tt.rangeOp {
			t.Errorf("%v.IsRange() = %v, want %v", tt.sym, got, tt.rangeOp)
		}
		if got := tt.sym.IsNullCheck(); got != tt.nullCheck {
			t.Errorf("%v.IsNullCheck() = %v, want %v", tt.sym, got, tt.nullCheck)
		}
	}
}

func TestOperatorSpec_AppliesToClass(t *testing.T) {
	tests := []struct {
		operator string
		typeTag  string
		want     bool
	}{
		{"contains", "string", true},
		{"contains", "integer", false},
		{"less", "double", true},
		{"less", "string", false},
		{"between", "datetime", true},
		{"equal", "boolean", true},
		{"in", "boolean", false},
		{"is_null", "boolean", true},
		{"equal", "made_up", false},
	}

	for _, tt := range tests {
		spec := mustLookup(t, tt.operator)
		if got := spec.AppliesToClass(ClassOf(tt.typeTag)); got != tt.want {
			t.Errorf("%s.AppliesToClass(%s) = %v, want %v", tt.operator, tt.typeTag, got, tt.want)
		}
	}
}

func TestTypeClass_String(t *testing.T) {
	for tag, want := range map[string]string{
		"integer": "number",
		"double":  "number",
		"time":    "datetime",
		"string":  "string",
		"boolean": "boolean",
		"made_up": "unknown",
	} {
		if got := ClassOf(tag).String(); got != want {
			t.Errorf("ClassOf(%q).String() = %q, want %q", tag, got, want)
		}
	}
}

func TestParseConjunction(t *testing.T) {
	tests := []struct {
		input   string
		want    Conjunction
		wantErr bool
	}{
		{"AND", And, false},
		{"and", And, false},
		{" Or ", Or, false},
		{"OR", Or, false},
		{"", And, true},
		{"XOR", And, true},
		{"&&", And, true},
	}

	for _, tt := range tests {
		got, err := ParseConjunction(tt.input)
		if tt.wantErr {
			if !errors.Is(err, types.ErrInvalidCondition) {
				t.Errorf("ParseConjunction(%q) error = %v, want ErrInvalidCondition", tt.input, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseConjunction(%q) = %v, %v, want %v", tt.input, got, err, tt.want)
		}
	}

	if And.String() != "and" || Or.String() != "or" {
		t.Errorf("Conjunction.String() = %q/%q, want and/or", And.String(), Or.String())
	}
}

func TestApplyRawFields_CopyOnWrite(t *testing.T) {
	inner := leaf("total", "number", "greater", int64(5))
	untouched := leaf("name", "string", "equal", "x")
	root := &types.Group{Condition: "AND", Rules: []types.Node{
		untouched,
		&types.Group{Condition: "OR", Rules: []types.Node{inner}},
	}}

	out := ApplyRawFields(root, map[string]string{"total": "price * qty"})

	if out == root {
		t.Fatal("ApplyRawFields() returned the input tree")
	}
	if out.Rules[0] != untouched {
		t.Errorf("unchanged leaf was copied")
	}
	copied := out.Rules[1].(*types.Group).Rules[0].(*types.Leaf)
	if copied.Expr != "price * qty" || copied.Column() != "price * qty" {
		t.Errorf("Expr = %q, want substituted expression", copied.Expr)
	}
	if inner.Expr != "" {
		t.Errorf("input leaf mutated: Expr = %q", inner.Expr)
	}

	if got := ApplyRawFields(root, nil); got != root {
		t.Errorf("ApplyRawFields(nil) copied the tree")
	}
}

func TestDiscard(t *testing.T) {
	calls := 0
	err := Discard.WhereNested(func(nested Target) error {
		calls++
		nested.Where("a", SymEq, 1, And)
		return nested.WhereNested(func(Target) error {
			calls++
			return types.ErrTooDeep
		}, Or)
	}, And)

	if calls != 2 {
		t.Errorf("build calls = %d, want 2", calls)
	}
	if !errors.Is(err, types.ErrTooDeep) {
		t.Errorf("WhereNested() error = %v, want build error", err)
	}
}
