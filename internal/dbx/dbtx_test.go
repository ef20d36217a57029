package dbx

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", "file:dbx_tests?mode=memory&cache=shared")
	require.NoError(t, err)
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	t.Cleanup(func() { _ = db.Close() })
	_, err = db.Exec(`DROP TABLE IF EXISTS t; CREATE TABLE t (id INTEGER PRIMARY KEY, v TEXT, n REAL);`)
	require.NoError(t, err)
	return db
}

func countRows(t *testing.T, db *sql.DB) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM t`).Scan(&n))
	return n
}

func TestWithTx_CommitsOnSuccess(t *testing.T) {
	db := setupDB(t)

	err := WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO t(v) VALUES ('ok')`)
		return err
	})
	require.NoError(t, err)
	require.Equal(t, 1, countRows(t, db), "must commit on success")
}

func TestWithTx_RollbackOnFnError(t *testing.T) {
	db := setupDB(t)

	err := WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		_, e := tx.ExecContext(ctx, `INSERT INTO t(v) VALUES ('fail')`)
		require.NoError(t, e)
		return errors.New("boom")
	})
	require.EqualError(t, err, "boom")
	require.Equal(t, 0, countRows(t, db), "must rollback when fn returns error")
}

func TestWithTx_RollbackOnPanic(t *testing.T) {
	db := setupDB(t)

	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("expected panic to propagate")
		}
		require.Equal(t, 0, countRows(t, db), "must rollback on panic")
	}()

	_ = WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		_, e := tx.ExecContext(ctx, `INSERT INTO t(v) VALUES ('panic')`)
		require.NoError(t, e)
		panic("kaput")
	})
}

func TestWithTx_BeginError(t *testing.T) {
	db := setupDB(t)
	require.NoError(t, db.Close())

	err := WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		return nil
	})
	require.Error(t, err)
	assert.Regexp(t, `^begin tx: `, err.Error())
}

func TestReadStrings(t *testing.T) {
	db := setupDB(t)
	_, err := db.Exec(`INSERT INTO t(id, v, n) VALUES (1, 'a', 1.5), (2, NULL, NULL)`)
	require.NoError(t, err)

	rows, err := db.Query(`SELECT id, v, n FROM t ORDER BY id`)
	require.NoError(t, err)

	cols, vals, err := ReadStrings(rows)
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "v", "n"}, cols)
	assert.Equal(t, [][]string{{"1", "a", "1.5"}, {"2", "", ""}}, vals)
}

func TestFormatValue(t *testing.T) {
	ts := time.Date(2024, 5, 6, 7, 8, 9, 0, time.FixedZone("X", 3600))
	assert.Equal(t, "2024-05-06T06:08:09Z", FormatValue(ts))
	assert.Equal(t, "true", FormatValue(true))
	assert.Equal(t, "raw", FormatValue([]byte("raw")))
	assert.Equal(t, "", FormatValue(nil))
	assert.Equal(t, "42", FormatValue(int64(42)))
	assert.Equal(t, "[1 2]", FormatValue([]int{1, 2}))
}

func TestTime_Scan(t *testing.T) {
	want := time.Date(2024, 1, 2, 3, 4, 5, 600, time.UTC)

	var v Time
	require.NoError(t, v.Scan(want))
	assert.True(t, v.Valid)
	assert.True(t, want.Equal(v.Time))

	require.NoError(t, v.Scan("2024-01-02T03:04:05.0000006Z"))
	assert.True(t, want.Equal(v.Time))

	require.NoError(t, v.Scan([]byte("2024-01-02 03:04:05")))
	assert.True(t, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC).Equal(v.Time))

	require.NoError(t, v.Scan(nil))
	assert.False(t, v.Valid)

	assert.Error(t, v.Scan("yesterday"))
	assert.Error(t, v.Scan(12))
}
