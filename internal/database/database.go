// Package database provides connection management and a small adapter layer
// so the repository can run the same goqu-built queries against PostgreSQL
// (pgx) or SQLite (sqlx over modernc.org/sqlite).
package database

import (
	"context"
	"errors"

	"github.com/doug-martin/goqu/v9"
)

// ErrNoRows is returned by Row.Scan when the query matched nothing,
// regardless of the underlying driver.
var ErrNoRows = errors.New("no rows in result set")

// Querier runs statements either on the pool or inside a transaction.
type Querier interface {
	Exec(ctx context.Context, query string, args ...any) (int64, error)
	Query(ctx context.Context, query string, args ...any) (Rows, error)
	QueryRow(ctx context.Context, query string, args ...any) Row
}

// Rows is a forward-only result cursor.
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close()
}

// Row is a single-row result.
type Row interface {
	Scan(dest ...any) error
}

// DB is a connection handle bound to one SQL dialect.
type DB interface {
	Querier

	// WithTx runs fn inside a transaction, committing when fn returns nil
	// and rolling back otherwise.
	WithTx(ctx context.Context, fn func(q Querier) error) error

	// Dialect returns the goqu dialect queries must be built with.
	Dialect() goqu.DialectWrapper

	// SupportsRowLocks reports whether SELECT … FOR UPDATE/SHARE is available.
	SupportsRowLocks() bool

	// IsUniqueViolation reports whether err came from a unique constraint.
	IsUniqueViolation(err error) bool

	Ping(ctx context.Context) error
	Close()
}
