// internal/target/sqltarget/select.go
package sqltarget

import (
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/solatis/qbfilter/internal/rules"
)

// placeholders maps configuration names to squirrel placeholder formats.
var placeholders = map[string]sq.PlaceholderFormat{
	"question": sq.Question,
	"dollar":   sq.Dollar,
	"colon":    sq.Colon,
	"at":       sq.AtP,
}

// Placeholder resolves a placeholder format by name: question, dollar,
// colon or at.
func Placeholder(name string) (sq.PlaceholderFormat, error) {
	p, ok := placeholders[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("sqltarget: unknown placeholder format %q", name)
	}
	return p, nil
}

// Select translates payload with engine and applies it to a
// "SELECT * FROM table" statement using format placeholders.
func Select(engine *rules.Engine, format sq.PlaceholderFormat, table string, payload []byte) (sq.SelectBuilder, error) {
	b := New()
	if err := engine.Emit(payload, b); err != nil {
		return sq.SelectBuilder{}, err
	}
	sb := sq.StatementBuilder.PlaceholderFormat(format).Select("*").From(table)
	return b.Apply(sb), nil
}

// ToSQL is Select followed by ToSql.
func ToSQL(engine *rules.Engine, format sq.PlaceholderFormat, table string, payload []byte) (string, []any, error) {
	sb, err := Select(engine, format, table, payload)
	if err != nil {
		return "", nil, err
	}
	return sb.ToSql()
}
