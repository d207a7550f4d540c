package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseURI(t *testing.T) {
	cases := []struct {
		uri  string
		kind Kind
		dsn  string
	}{
		{"mongodb://localhost:27017", KindMongo, "mongodb://localhost:27017"},
		{"mongodb+srv://user:pw@cluster.example.net/?retryWrites=true", KindMongo, "mongodb+srv://user:pw@cluster.example.net/?retryWrites=true"},
		{"sqlite://entrylog.db", KindSQLite, "entrylog.db"},
		{"sqlite://:memory:", KindSQLite, ":memory:"},
		{"file:entrylog.db?cache=shared", KindSQLite, "file:entrylog.db?cache=shared"},
	}

	for _, c := range cases {
		kind, dsn, err := ParseURI(c.uri)
		require.NoError(t, err, c.uri)
		assert.Equal(t, c.kind, kind, c.uri)
		assert.Equal(t, c.dsn, dsn, c.uri)
	}

	for _, bad := range []string{"", "postgres://localhost/db", "sqlite://"} {
		_, _, err := ParseURI(bad)
		assert.ErrorIs(t, err, ErrUnsupportedURI, bad)
	}
}

func TestInitializeSQLiteIsIdempotent(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "entries.db")

	db, err := InitializeSQLite(ctx, dbPath)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	// Reopening must not re-apply recorded migrations
	db, err = InitializeSQLite(ctx, dbPath)
	require.NoError(t, err)
	defer db.Close()

	var applied int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM migrations").Scan(&applied))
	assert.Equal(t, 1, applied)

	var tables int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'items'`).Scan(&tables))
	assert.Equal(t, 1, tables)
}

func TestOpenSQLiteConn(t *testing.T) {
	ctx := context.Background()
	conn, err := Open(ctx, "sqlite://"+filepath.Join(t.TempDir(), "entries.db"), "")
	require.NoError(t, err)
	defer conn.Close(ctx)

	assert.Equal(t, KindSQLite, conn.Kind)
	require.NoError(t, conn.Ping(ctx))
	require.NoError(t, conn.Migrate(ctx))

	// The type column rejects values outside the enum
	_, err = conn.SQL.Exec(`INSERT INTO items (id, date, type_of_enter, document) VALUES ('a', 1, 'visitor', '{}')`)
	assert.Error(t, err)
}

func TestLoadMigrationsOrdered(t *testing.T) {
	migrations, err := loadMigrations(migrationFiles)
	require.NoError(t, err)
	require.NotEmpty(t, migrations)
	assert.Equal(t, "001_create_items", migrations[0].Version)
	for i := 1; i < len(migrations); i++ {
		assert.Less(t, migrations[i-1].Version, migrations[i].Version)
	}
}

func TestWithConnParams(t *testing.T) {
	assert.Equal(t, "entries.db?_txlock=immediate&_busy_timeout=5000", withConnParams("entries.db"))
	assert.Equal(t, "file:entries.db?cache=shared&_txlock=immediate&_busy_timeout=5000", withConnParams("file:entries.db?cache=shared"))
	assert.Equal(t, "entries.db?_txlock=deferred&_busy_timeout=5000", withConnParams("entries.db?_txlock=deferred"))
}
