package postgres

import (
	"context"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// statementBuilder produces queries with $1-style placeholders.
var statementBuilder = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// pgExecutor abstracts over a pool and a transaction so repositories
// can run inside either.
type pgExecutor interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}
