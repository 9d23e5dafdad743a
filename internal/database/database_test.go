package database

import (
	"context"
	"testing"

	"github.com/freekieb7/go-newsgate/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseURL(t *testing.T) {
	tests := []struct {
		url    string
		driver Driver
		dsn    string
	}{
		{"postgres://u:p@localhost:5432/news", DriverPostgres, "postgres://u:p@localhost:5432/news"},
		{"postgresql://localhost/news", DriverPostgres, "postgresql://localhost/news"},
		{"sqlite::memory:", DriverSQLite, ":memory:"},
		{"sqlite://data/news.db", DriverSQLite, "data/news.db"},
		{"sqlite:news.db", DriverSQLite, "news.db"},
		{"file:news.db?cache=shared", DriverSQLite, "file:news.db?cache=shared"},
		{"./news.db", DriverSQLite, "./news.db"},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			driver, dsn, err := ParseURL(tt.url)
			require.NoError(t, err)
			assert.Equal(t, tt.driver, driver)
			assert.Equal(t, tt.dsn, dsn)
		})
	}

	for _, bad := range []string{"", "mysql://localhost/news"} {
		_, _, err := ParseURL(bad)
		assert.Error(t, err, bad)
	}
}

func TestOpenSQLite_Memory(t *testing.T) {
	ctx := context.Background()
	db, err := OpenSQLite(ctx, ":memory:", config.Database{MaxOpenConns: 10})
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.Ping(ctx))

	_, err = db.ExecContext(ctx, `CREATE TABLE t (v INTEGER)`)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `INSERT INTO t VALUES (1)`)
	require.NoError(t, err)

	var v int
	require.NoError(t, db.QueryRowContext(ctx, `SELECT v FROM t`).Scan(&v))
	assert.Equal(t, 1, v)
}
