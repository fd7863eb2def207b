// internal/target/sqltarget/builder.go
package sqltarget

import (
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/solatis/qbfilter/internal/rules"
)

/*
 * SQL query target on top of squirrel.
 *
 * Builder records predicates in emission order, each with the conjunction
 * joining it to the previous clause. ToSql renders them left to right:
 *
 *   a = ? AND b > ? OR (c IS NULL AND d IN (?,?))
 *
 * The conjunction of the first clause in a scope is ignored. Nested scopes
 * are parenthesised and dropped entirely when empty. Predicates map onto
 * squirrel expressions:
 *
 *   =, !=             sq.Eq, sq.NotEq
 *   <, <=, >, >=      sq.Lt, sq.LtOrEq, sq.Gt, sq.GtOrEq
 *   LIKE, NOT LIKE    sq.Like, sq.NotLike
 *   IN, NOT IN        sq.Eq, sq.NotEq with a slice
 *   BETWEEN           field BETWEEN ? AND ?
 *   NULL, NOT NULL    sq.Eq, sq.NotEq with nil
 *
 * Placeholders are rendered as "?"; the statement builder that receives the
 * clause applies its own placeholder format.
 */

type clause struct {
	conj rules.Conjunction
	pred sq.Sqlizer
}

// Builder is a rules.Target producing a squirrel WHERE expression.
// Not safe for concurrent use.
type Builder struct {
	clauses []clause
	err     error
}

var (
	_ rules.Target = (*Builder)(nil)
	_ sq.Sqlizer   = (*Builder)(nil)
)

// New creates an empty Builder.
func New() *Builder {
	return &Builder{}
}

// Empty reports whether no clause has been recorded.
func (b *Builder) Empty() bool {
	return len(b.clauses) == 0
}

func (b *Builder) add(conj rules.Conjunction, pred sq.Sqlizer) {
	b.clauses = append(b.clauses, clause{conj: conj, pred: pred})
}

// Where records a comparison or pattern predicate.
func (b *Builder) Where(field string, sym rules.Symbol, value any, conj rules.Conjunction) {
	var pred sq.Sqlizer
	switch sym {
	case rules.SymEq:
		pred = sq.Eq{field: value}
	case rules.SymNeq:
		pred = sq.NotEq{field: value}
	case rules.SymLt:
		pred = sq.Lt{field: value}
	case rules.SymLte:
		pred = sq.LtOrEq{field: value}
	case rules.SymGt:
		pred = sq.Gt{field: value}
	case rules.SymGte:
		pred = sq.GtOrEq{field: value}
	case rules.SymLike:
		pred = sq.Like{field: value}
	case rules.SymNotLike:
		pred = sq.NotLike{field: value}
	default:
		if b.err == nil {
			b.err = fmt.Errorf("sqltarget: unsupported symbol %q for Where", sym)
		}
		return
	}
	b.add(conj, pred)
}

// WhereIn records field IN (values).
func (b *Builder) WhereIn(field string, values []any, conj rules.Conjunction) {
	b.add(conj, sq.Eq{field: values})
}

// WhereNotIn records field NOT IN (values).
func (b *Builder) WhereNotIn(field string, values []any, conj rules.Conjunction) {
	b.add(conj, sq.NotEq{field: values})
}

// WhereBetween records field BETWEEN low AND high.
func (b *Builder) WhereBetween(field string, low, high any, conj rules.Conjunction) {
	b.add(conj, sq.Expr(field+" BETWEEN ? AND ?", low, high))
}

// WhereNotBetween records field NOT BETWEEN low AND high.
func (b *Builder) WhereNotBetween(field string, low, high any, conj rules.Conjunction) {
	b.add(conj, sq.Expr(field+" NOT BETWEEN ? AND ?", low, high))
}

// WhereNull records field IS NULL.
func (b *Builder) WhereNull(field string, conj rules.Conjunction) {
	b.add(conj, sq.Eq{field: nil})
}

// WhereNotNull records field IS NOT NULL.
func (b *Builder) WhereNotNull(field string, conj rules.Conjunction) {
	b.add(conj, sq.NotEq{field: nil})
}

// WhereNested records a parenthesised group built by build. Nothing is
// recorded when build emits no clause or fails.
func (b *Builder) WhereNested(build func(rules.Target) error, conj rules.Conjunction) error {
	inner := New()
	if err := build(inner); err != nil {
		return err
	}
	if inner.err != nil {
		return inner.err
	}
	if inner.Empty() {
		return nil
	}
	b.add(conj, group{inner})
	return nil
}

// ToSql renders the recorded clauses. An empty Builder renders "".
func (b *Builder) ToSql() (string, []any, error) {
	if b.err != nil {
		return "", nil, b.err
	}

	var (
		sql  strings.Builder
		args []any
	)
	for i, c := range b.clauses {
		part, partArgs, err := c.pred.ToSql()
		if err != nil {
			return "", nil, err
		}
		if i > 0 {
			sql.WriteString(" ")
			sql.WriteString(strings.ToUpper(c.conj.String()))
			sql.WriteString(" ")
		}
		sql.WriteString(part)
		args = append(args, partArgs...)
	}
	return sql.String(), args, nil
}

// Apply adds the recorded clauses to sb as a single WHERE part. sb is
// returned unchanged when the Builder is empty.
func (b *Builder) Apply(sb sq.SelectBuilder) sq.SelectBuilder {
	if b.Empty() && b.err == nil {
		return sb
	}
	if len(b.clauses) == 1 {
		return sb.Where(b)
	}
	return sb.Where(group{b})
}

// group parenthesises a Builder.
type group struct {
	b *Builder
}

func (g group) ToSql() (string, []any, error) {
	sql, args, err := g.b.ToSql()
	if err != nil {
		return "", nil, err
	}
	return "(" + sql + ")", args, nil
}
