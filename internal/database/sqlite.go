package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3" // dialect registration
	"github.com/jmoiron/sqlx"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// MemoryPath opens a private in-memory SQLite database.
const MemoryPath = ":memory:"

// SQLite implements DB for modernc.org/sqlite through sqlx.
type SQLite struct {
	db *sqlx.DB
}

// OpenSQLite opens the database at path. Transactions start IMMEDIATE so a
// writer holds the database lock from its first read, which serializes
// check-then-insert sequences across connections.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}

	params := "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_txlock=immediate"
	dsn := MemoryPath + "?" + params
	if path != MemoryPath {
		dsn = filepath.Clean(path) + "?" + params + "&_pragma=journal_mode(WAL)"
	}

	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if path == MemoryPath {
		// Every new connection to :memory: would see an empty database.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	return sqlxQuerier{s.db}.Exec(ctx, query, args...)
}

func (s *SQLite) Query(ctx context.Context, query string, args ...any) (Rows, error) {
	return sqlxQuerier{s.db}.Query(ctx, query, args...)
}

func (s *SQLite) QueryRow(ctx context.Context, query string, args ...any) Row {
	return sqlxQuerier{s.db}.QueryRow(ctx, query, args...)
}

// WithTx begins a transaction and always resolves it.
func (s *SQLite) WithTx(ctx context.Context, fn func(q Querier) error) (err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(sqlxQuerier{tx}); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (s *SQLite) Dialect() goqu.DialectWrapper { return goqu.Dialect("sqlite3") }

func (s *SQLite) SupportsRowLocks() bool { return false }

func (s *SQLite) IsUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	code := sqliteErr.Code()
	return code == sqlite3lib.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY
}

func (s *SQLite) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *SQLite) Close() { _ = s.db.Close() }

// sqlxConn is the subset shared by *sqlx.DB and *sqlx.Tx.
type sqlxConn interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryxContext(ctx context.Context, query string, args ...any) (*sqlx.Rows, error)
	QueryRowxContext(ctx context.Context, query string, args ...any) *sqlx.Row
}

type sqlxQuerier struct {
	conn sqlxConn
}

func (q sqlxQuerier) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := q.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (q sqlxQuerier) Query(ctx context.Context, query string, args ...any) (Rows, error) {
	rows, err := q.conn.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return sqlxRows{rows: rows}, nil
}

func (q sqlxQuerier) QueryRow(ctx context.Context, query string, args ...any) Row {
	return sqlxRow{row: q.conn.QueryRowxContext(ctx, query, args...)}
}

type sqlxRows struct {
	rows *sqlx.Rows
}

func (r sqlxRows) Next() bool             { return r.rows.Next() }
func (r sqlxRows) Scan(dest ...any) error { return r.rows.Scan(dest...) }
func (r sqlxRows) Err() error             { return r.rows.Err() }
func (r sqlxRows) Close()                 { _ = r.rows.Close() }

type sqlxRow struct {
	row *sqlx.Row
}

func (r sqlxRow) Scan(dest ...any) error {
	err := r.row.Scan(dest...)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNoRows
	}
	return err
}
