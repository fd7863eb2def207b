// internal/rules/operators.go
package rules

import "sort"

/*
 * Operator catalog.
 *
 * Static table of the query-builder operators accepted by the engine. Each
 * entry declares whether the operator takes a value, which type classes it
 * applies to, the predicate symbol emitted onto the target and the wildcard
 * affixes wrapped around scalar values.
 *
 * Symbols:
 *   - Comparison: = != < <= > >=
 *   - Pattern: LIKE / NOT LIKE (affixes supply the % wildcards)
 *   - Set: IN / NOT IN (array value)
 *   - Range: BETWEEN / NOT BETWEEN (array of exactly two values)
 *   - Null check: NULL / NOT NULL (no value)
 *
 * Null checks are detected by symbol, not by operator name. The table is
 * built once at package init and never mutated.
 */

// Symbol is the predicate operator emitted onto a query target.
type Symbol int

const (
	SymUnspecified Symbol = iota
	SymEq
	SymNeq
	SymLt
	SymLte
	SymGt
	SymGte
	SymLike
	SymNotLike
	SymIn
	SymNotIn
	SymBetween
	SymNotBetween
	SymNull
	SymNotNull
)

var symbolNames = [...]string{
	SymUnspecified: "",
	SymEq:          "=",
	SymNeq:         "!=",
	SymLt:          "<",
	SymLte:         "<=",
	SymGt:          ">",
	SymGte:         ">=",
	SymLike:        "LIKE",
	SymNotLike:     "NOT LIKE",
	SymIn:          "IN",
	SymNotIn:       "NOT IN",
	SymBetween:     "BETWEEN",
	SymNotBetween:  "NOT BETWEEN",
	SymNull:        "NULL",
	SymNotNull:     "NOT NULL",
}

// String returns the SQL-style spelling of the symbol.
func (s Symbol) String() string {
	if s < 0 || int(s) >= len(symbolNames) {
		return ""
	}
	return symbolNames[s]
}

// RequiresArray reports whether the symbol takes an array value (set membership or range).
func (s Symbol) RequiresArray() bool {
	switch s {
	case SymIn, SymNotIn, SymBetween, SymNotBetween:
		return true
	default:
		return false
	}
}

// IsRange reports whether the symbol is BETWEEN or NOT BETWEEN.
func (s Symbol) IsRange() bool {
	return s == SymBetween || s == SymNotBetween
}

// IsNullCheck reports whether the symbol is NULL or NOT NULL.
func (s Symbol) IsNullCheck() bool {
	return s == SymNull || s == SymNotNull
}

// TypeClass groups query-builder type tags for operator applicability.
type TypeClass int

const (
	ClassUnknown TypeClass = iota
	ClassString
	ClassNumber
	ClassDatetime
	ClassBoolean
)

// typeClasses maps query-builder type tags onto classes.
var typeClasses = map[string]TypeClass{
	"string":   ClassString,
	"number":   ClassNumber,
	"integer":  ClassNumber,
	"double":   ClassNumber,
	"date":     ClassDatetime,
	"time":     ClassDatetime,
	"datetime": ClassDatetime,
	"boolean":  ClassBoolean,
}

// String returns the class name used in operator listings.
func (c TypeClass) String() string {
	switch c {
	case ClassString:
		return "string"
	case ClassNumber:
		return "number"
	case ClassDatetime:
		return "datetime"
	case ClassBoolean:
		return "boolean"
	default:
		return "unknown"
	}
}

// ClassOf returns the class of a type tag, ClassUnknown when unrecognised.
func ClassOf(typeTag string) TypeClass {
	return typeClasses[typeTag]
}

// OperatorSpec describes one catalog operator.
type OperatorSpec struct {
	Name         string
	AcceptsValue bool
	AppliesTo    []TypeClass
	Symbol       Symbol
	Prefix       string // prepended to scalar values
	Suffix       string // appended to scalar values
	// EmptyValue is the forced value for operators that accept none:
	// "" for empty checks, nil for null checks.
	EmptyValue any
}

// AppliesToClass reports whether the operator may be used with the class.
func (o OperatorSpec) AppliesToClass(c TypeClass) bool {
	for _, a := range o.AppliesTo {
		if a == c {
			return true
		}
	}
	return false
}

var (
	allClasses  = []TypeClass{ClassString, ClassNumber, ClassDatetime}
	eqClasses   = []TypeClass{ClassString, ClassNumber, ClassDatetime, ClassBoolean}
	ordClasses  = []TypeClass{ClassNumber, ClassDatetime}
	textClasses = []TypeClass{ClassString}
)

// catalog is the operator table keyed by query-builder operator name.
var catalog = map[string]OperatorSpec{
	"equal":            {AcceptsValue: true, AppliesTo: eqClasses, Symbol: SymEq},
	"not_equal":        {AcceptsValue: true, AppliesTo: eqClasses, Symbol: SymNeq},
	"in":               {AcceptsValue: true, AppliesTo: allClasses, Symbol: SymIn},
	"not_in":           {AcceptsValue: true, AppliesTo: allClasses, Symbol: SymNotIn},
	"less":             {AcceptsValue: true, AppliesTo: ordClasses, Symbol: SymLt},
	"less_or_equal":    {AcceptsValue: true, AppliesTo: ordClasses, Symbol: SymLte},
	"greater":          {AcceptsValue: true, AppliesTo: ordClasses, Symbol: SymGt},
	"greater_or_equal": {AcceptsValue: true, AppliesTo: ordClasses, Symbol: SymGte},
	"between":          {AcceptsValue: true, AppliesTo: ordClasses, Symbol: SymBetween},
	"not_between":      {AcceptsValue: true, AppliesTo: ordClasses, Symbol: SymNotBetween},
	"begins_with":      {AcceptsValue: true, AppliesTo: textClasses, Symbol: SymLike, Suffix: "%"},
	"not_begins_with":  {AcceptsValue: true, AppliesTo: textClasses, Symbol: SymNotLike, Suffix: "%"},
	"contains":         {AcceptsValue: true, AppliesTo: textClasses, Symbol: SymLike, Prefix: "%", Suffix: "%"},
	"not_contains":     {AcceptsValue: true, AppliesTo: textClasses, Symbol: SymNotLike, Prefix: "%", Suffix: "%"},
	"ends_with":        {AcceptsValue: true, AppliesTo: textClasses, Symbol: SymLike, Prefix: "%"},
	"not_ends_with":    {AcceptsValue: true, AppliesTo: textClasses, Symbol: SymNotLike, Prefix: "%"},
	"is_empty":         {AcceptsValue: false, AppliesTo: textClasses, Symbol: SymEq, EmptyValue: ""},
	"is_not_empty":     {AcceptsValue: false, AppliesTo: textClasses, Symbol: SymNeq, EmptyValue: ""},
	"is_null":          {AcceptsValue: false, AppliesTo: eqClasses, Symbol: SymNull},
	"is_not_null":      {AcceptsValue: false, AppliesTo: eqClasses, Symbol: SymNotNull},
}

func init() {
	for name, spec := range catalog {
		spec.Name = name
		catalog[name] = spec
	}
}

// Lookup returns the catalog entry for an operator name.
func Lookup(name string) (OperatorSpec, bool) {
	spec, ok := catalog[name]
	return spec, ok
}

// OperatorNames returns the catalog operator names in sorted order.
func OperatorNames() []string {
	names := make([]string, 0, len(catalog))
	for name := range catalog {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
