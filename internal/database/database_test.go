package database

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openMemory(t *testing.T) *SQLite {
	t.Helper()
	db, err := OpenSQLite(context.Background(), MemoryPath)
	require.NoError(t, err, "opening sqlite in test setup")
	t.Cleanup(db.Close)
	return db
}

func Test_Migrate_IsIdempotent(t *testing.T) {
	ctx := context.Background()
	db := openMemory(t)

	require.NoError(t, Migrate(ctx, db))
	require.NoError(t, Migrate(ctx, db))

	var applied int
	require.NoError(t, db.QueryRow(ctx, `SELECT COUNT(*) FROM schema_migrations`).Scan(&applied))
	assert.Equal(t, 3, applied)
}

func Test_Migrate_SchedulesHaveNoFieldColumn(t *testing.T) {
	ctx := context.Background()
	db := openMemory(t)
	require.NoError(t, Migrate(ctx, db))

	rows, err := db.Query(ctx, `SELECT name FROM pragma_table_info('schedules')`)
	require.NoError(t, err)
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		cols = append(cols, name)
	}
	require.NoError(t, rows.Err())

	assert.ElementsMatch(t, []string{"id", "user_id", "booking_id", "created_at", "updated_at"}, cols)
}

func Test_SQLite_QueryRow_NoRows(t *testing.T) {
	ctx := context.Background()
	db := openMemory(t)
	require.NoError(t, Migrate(ctx, db))

	var id string
	err := db.QueryRow(ctx, `SELECT id FROM venues WHERE id = ?`, "missing").Scan(&id)

	assert.ErrorIs(t, err, ErrNoRows)
}

func Test_SQLite_WithTx_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	db := openMemory(t)
	require.NoError(t, Migrate(ctx, db))
	boom := errors.New("boom")

	err := db.WithTx(ctx, func(q Querier) error {
		if _, err := q.Exec(ctx, `INSERT INTO venues (id, name, address) VALUES (?, ?, ?)`, "v1", "Arena", "Jl. Merdeka 1"); err != nil {
			return err
		}
		return boom
	})

	assert.ErrorIs(t, err, boom)
	var n int
	require.NoError(t, db.QueryRow(ctx, `SELECT COUNT(*) FROM venues`).Scan(&n))
	assert.Equal(t, 0, n)
}

func Test_SQLite_IsUniqueViolation(t *testing.T) {
	ctx := context.Background()
	db := openMemory(t)
	require.NoError(t, Migrate(ctx, db))

	_, err := db.Exec(ctx, `INSERT INTO venues (id, name, address) VALUES (?, ?, ?)`, "v1", "Arena", "addr")
	require.NoError(t, err)
	_, err = db.Exec(ctx, `INSERT INTO venues (id, name, address) VALUES (?, ?, ?)`, "v1", "Arena", "addr")

	require.Error(t, err)
	assert.True(t, db.IsUniqueViolation(err))
	assert.False(t, db.IsUniqueViolation(errors.New("other")))
}

func Test_OpenSQLite_RequiresPath(t *testing.T) {
	_, err := OpenSQLite(context.Background(), " ")

	assert.Error(t, err)
}
