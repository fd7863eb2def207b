package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/qustavo/dotsql"
)

//go:embed queries/*.sql
var queriesFS embed.FS

// Queries runs the named statements of queries/*.sql. Statements are
// rebound to the driver's placeholder format once, at load time.
type Queries struct {
	db         *sqlx.DB
	statements map[string]string
}

// LoadQueries parses the embedded query files for db.
func LoadQueries(db *sqlx.DB) (*Queries, error) {
	files, err := fs.Glob(queriesFS, "queries/*.sql")
	if err != nil {
		return nil, fmt.Errorf("failed to list query files: %w", err)
	}

	var source strings.Builder
	for _, name := range files {
		content, err := queriesFS.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		source.Write(content)
		source.WriteByte('\n')
	}

	dot, err := dotsql.LoadFromString(source.String())
	if err != nil {
		return nil, fmt.Errorf("failed to parse queries: %w", err)
	}

	statements := make(map[string]string)
	for name := range dot.QueryMap() {
		query, err := dot.Raw(name)
		if err != nil {
			return nil, fmt.Errorf("failed to read query %s: %w", name, err)
		}
		statements[name] = db.Rebind(query)
	}
	return &Queries{db: db, statements: statements}, nil
}

func (q *Queries) statement(name string) (string, error) {
	query, ok := q.statements[name]
	if !ok {
		return "", fmt.Errorf("unknown query %q", name)
	}
	return query, nil
}

// Exec runs a named statement that returns no rows.
func (q *Queries) Exec(ctx context.Context, name string, args ...any) (sql.Result, error) {
	query, err := q.statement(name)
	if err != nil {
		return nil, err
	}
	return q.db.ExecContext(ctx, query, args...)
}

// Get scans the single row of a named query into dest.
func (q *Queries) Get(ctx context.Context, name string, dest any, args ...any) error {
	query, err := q.statement(name)
	if err != nil {
		return err
	}
	return q.db.GetContext(ctx, dest, query, args...)
}

// Select scans every row of a named query into the slice dest.
func (q *Queries) Select(ctx context.Context, name string, dest any, args ...any) error {
	query, err := q.statement(name)
	if err != nil {
		return err
	}
	return q.db.SelectContext(ctx, dest, query, args...)
}
