package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDriver(t *testing.T) {
	assert.Equal(t, DriverSQLite, ParseDriver("sqlite3"))
	assert.Equal(t, DriverSQLite, ParseDriver(" SQLite "))
	assert.Equal(t, DriverPostgres, ParseDriver("postgresql"))
	assert.Equal(t, Driver("mysql"), ParseDriver("mysql"))
}

func TestOpen_SQLiteMemory(t *testing.T) {
	ctx := context.Background()
	conn, err := Open(ctx, DriverSQLite, "file:connect_test?mode=memory&cache=shared")
	require.NoError(t, err)
	defer conn.Close()

	var n int
	require.NoError(t, conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM projects`).Scan(&n))
	assert.Equal(t, 0, n)

	// Schema creation is idempotent.
	require.NoError(t, ensureSchema(ctx, conn, DriverSQLite))
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), Driver("mysql"), "")
	assert.Error(t, err)
}
