package database

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/doug-martin/goqu/v9"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationFS embed.FS

const migrationTable = "schema_migrations"

// Migrate applies every embedded migration for db's dialect at most once,
// in file name order, each inside its own transaction.
func Migrate(ctx context.Context, db DB) error {
	dir := "migrations/postgres"
	if !db.SupportsRowLocks() {
		dir = "migrations/sqlite"
	}

	entries, err := fs.ReadDir(migrationFS, dir)
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}
	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)

	if _, err := db.Exec(ctx, `CREATE TABLE IF NOT EXISTS `+migrationTable+` (
    name       TEXT PRIMARY KEY,
    applied_at BIGINT NOT NULL
)`); err != nil {
		return fmt.Errorf("ensure migration table: %w", err)
	}

	dialect := db.Dialect()
	for _, name := range files {
		content, err := fs.ReadFile(migrationFS, path.Join(dir, name))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}

		err = db.WithTx(ctx, func(q Querier) error {
			query, args, err := dialect.From(migrationTable).Prepared(true).
				Select(goqu.COUNT("*")).
				Where(goqu.C("name").Eq(name)).
				ToSQL()
			if err != nil {
				return err
			}
			var applied int
			if err := q.QueryRow(ctx, query, args...).Scan(&applied); err != nil {
				return err
			}
			if applied > 0 {
				return nil
			}

			if _, err := q.Exec(ctx, string(content)); err != nil {
				return err
			}

			query, args, err = dialect.Insert(migrationTable).Prepared(true).
				Rows(goqu.Record{"name": name, "applied_at": time.Now().UTC().UnixMilli()}).
				ToSQL()
			if err != nil {
				return err
			}
			_, err = q.Exec(ctx, query, args...)
			return err
		})
		if err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
	}
	return nil
}
