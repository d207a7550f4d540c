package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// OpenSQLite opens a SQLite database holding the entry documents
func OpenSQLite(dataSourceName string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", withConnParams(dataSourceName))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Every pooled connection to ":memory:" would see its own empty database
	if isMemoryDSN(dataSourceName) {
		db.SetMaxOpenConns(1)
	}

	return db, nil
}

// prepareSQLite checks the connection
func prepareSQLite(ctx context.Context, db *sql.DB) error {
	// Test the connection
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

// InitializeSQLite opens the database connection and runs migrations
func InitializeSQLite(ctx context.Context, dataSourceName string) (*sql.DB, error) {
	db, err := OpenSQLite(dataSourceName)
	if err != nil {
		return nil, err
	}

	if err := prepareSQLite(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	if err := RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}

func isMemoryDSN(dsn string) bool {
	return dsn == ":memory:" || strings.HasPrefix(dsn, "file::memory:") || strings.Contains(dsn, "mode=memory")
}

// withConnParams adds the driver settings every pooled connection needs.
// Transactions take the write lock on BEGIN so a read-then-write update
// waits on busy_timeout instead of failing with SQLITE_BUSY on upgrade.
func withConnParams(dsn string) string {
	params := []string{"_txlock=immediate", "_busy_timeout=5000"}

	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	for _, p := range params {
		key := p[:strings.IndexByte(p, '=')+1]
		if strings.Contains(dsn, key) {
			continue
		}
		dsn += sep + p
		sep = "&"
	}
	return dsn
}
