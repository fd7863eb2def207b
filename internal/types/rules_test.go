// internal/types/rules_test.go
package types

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestDecode_Tree(t *testing.T) {
	root, err := Decode([]byte(`{
		"condition": "OR",
		"rules": [
			{"id": "age", "field": "age", "type": "integer", "operator": "greater", "value": 21},
			{"condition": "AND", "rules": [
				{"id": "score", "field": "score", "type": "double", "operator": "between", "value": [1.5, 3]},
				{"id": "name", "field": "name", "type": "string", "operator": "is_null", "value": null}
			]},
			{"condition": "AND", "rules": []}
		]
	}`))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	if root.Condition != "OR" {
		t.Errorf("Condition = %q, want OR", root.Condition)
	}
	if len(root.Rules) != 3 {
		t.Fatalf("len(Rules) = %d, want 3", len(root.Rules))
	}

	age, ok := root.Rules[0].(*Leaf)
	if !ok {
		t.Fatalf("Rules[0] = %T, want *Leaf", root.Rules[0])
	}
	if age.Field != "age" || age.Operator != "greater" || age.Value != int64(21) {
		t.Errorf("Rules[0] = %+v", age)
	}

	group, ok := root.Rules[1].(*Group)
	if !ok {
		t.Fatalf("Rules[1] = %T, want *Group", root.Rules[1])
	}
	if group.Condition != "AND" || len(group.Rules) != 2 {
		t.Errorf("Rules[1] = %+v", group)
	}
	score := group.Rules[0].(*Leaf)
	if !reflect.DeepEqual(score.Value, []any{1.5, int64(3)}) {
		t.Errorf("score value = %#v, want [1.5 3]", score.Value)
	}
	name := group.Rules[1].(*Leaf)
	if name.Value != nil || !name.HasType {
		t.Errorf("name = %+v, want nil value with type", name)
	}

	// A group with an empty rules array is not a group
	if _, ok := root.Rules[2].(*Leaf); !ok {
		t.Errorf("Rules[2] = %T, want *Leaf", root.Rules[2])
	}
}

func TestDecode_Presence(t *testing.T) {
	root, err := Decode([]byte(`{"rules": [
		{"id": null, "field": "a", "type": "string", "operator": "equal"},
		{"id": 7, "field": "b", "type": ["x"], "operator": "equal"},
		{"id": true, "field": "c", "type": "string", "operator": {"x": 1}},
		42
	]}`))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	tests := []struct {
		id, field, typ, op bool
		idValue            string
	}{
		{false, true, true, true, ""},
		{true, true, false, true, "7"},
		{true, true, true, false, "true"},
		{false, false, false, false, ""},
	}

	for i, tt := range tests {
		l := root.Rules[i].(*Leaf)
		got := []bool{l.HasID, l.HasField, l.HasType, l.HasOperator}
		want := []bool{tt.id, tt.field, tt.typ, tt.op}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("Rules[%d] presence = %v, want %v", i, got, want)
		}
		if l.ID != tt.idValue {
			t.Errorf("Rules[%d].ID = %q, want %q", i, l.ID, tt.idValue)
		}
	}
}

func TestDecode_EmptyAndMissingRules(t *testing.T) {
	for _, p := range []string{`{}`, `{"condition":"AND"}`, `{"rules":null}`, `{"rules":{"a":1}}`} {
		root, err := Decode([]byte(p))
		if err != nil {
			t.Errorf("Decode(%s) error = %v", p, err)
			continue
		}
		if len(root.Rules) != 0 {
			t.Errorf("Decode(%s) rules = %d, want 0", p, len(root.Rules))
		}
	}
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		wantErr error
	}{
		{"empty", ``, ErrInvalidPayload},
		{"not json", `{"rules":`, ErrInvalidPayload},
		{"array root", `[]`, ErrInvalidPayload},
		{"null root", `null`, ErrInvalidPayload},
		{"trailing document", `{} {}`, ErrInvalidPayload},
		{"too large", `{"x":"` + strings.Repeat("a", MaxPayloadSize) + `"}`, ErrPayloadTooLarge},
		{"too deep", strings.Repeat(`{"rules":[`, MaxGroupDepth+2) + `{"id":"a"}` + strings.Repeat(`]}`, MaxGroupDepth+2), ErrTooDeep},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.payload))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Decode() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestLeaf_Column(t *testing.T) {
	l := &Leaf{Field: "name"}
	if l.Column() != "name" {
		t.Errorf("Column() = %q, want name", l.Column())
	}
	l.Expr = "LOWER(name)"
	if l.Column() != "LOWER(name)" {
		t.Errorf("Column() = %q, want LOWER(name)", l.Column())
	}
}

func TestRuleError(t *testing.T) {
	tests := []struct {
		err  *RuleError
		want string
	}{
		{&RuleError{Err: ErrFieldNotAllowed}, "field does not exist in fields list"},
		{&RuleError{Err: ErrFieldNotAllowed, Field: "ssn"}, "field (ssn): field does not exist in fields list"},
		{&RuleError{Err: ErrInvalidCondition, Condition: "XOR"}, "condition (XOR): condition can only be one of: 'and', 'or'"},
		{&RuleError{Err: ErrRangeArity, Field: "age", Operator: "between"}, "field (age) operator (between): range value should be an array with only two items"},
	}

	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
		if !errors.Is(tt.err, tt.err.Err) {
			t.Errorf("errors.Is(%v, %v) = false", tt.err, tt.err.Err)
		}
	}

	if IsRecoverable(&RuleError{Err: ErrFieldNotAllowed}) {
		t.Error("IsRecoverable(ErrFieldNotAllowed) = true, want false")
	}
	if !IsRecoverable(&RuleError{Err: ErrMalformedRule}) {
		t.Error("IsRecoverable(ErrMalformedRule) = false, want true")
	}
}

func TestFilterID(t *testing.T) {
	id := NewFilterID()

	parsed, err := ParseFilterID(string(id))
	if err != nil || parsed != id {
		t.Fatalf("ParseFilterID(%q) = %q, %v", id, parsed, err)
	}
	if FilterIDTime(id).IsZero() {
		t.Errorf("FilterIDTime(%q) is zero", id)
	}

	if _, err := ParseFilterID("not-a-uuid"); err == nil {
		t.Error("ParseFilterID(invalid) error = nil")
	}
	if !FilterIDTime("garbage").IsZero() {
		t.Error("FilterIDTime(invalid) not zero")
	}
}

func TestIsIdentifier(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"users", true},
		{"_tmp1", true},
		{"crm.users", true},
		{"", false},
		{"1users", false},
		{"users;", false},
		{"a.b.c", false},
		{"age) OR (1=1", false},
		{"full name", false},
		{"\"users\"", false},
	}

	for _, tt := range tests {
		if got := IsIdentifier(tt.in); got != tt.want {
			t.Errorf("IsIdentifier(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
