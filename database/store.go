// Package database opens the document store that holds entry records.
//
// The backend is chosen from the connection string: mongodb:// and
// mongodb+srv:// select MongoDB, sqlite:// and file: select SQLite.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
)

// Kind identifies a store backend
type Kind string

const (
	KindSQLite Kind = "sqlite"
	KindMongo  Kind = "mongodb"
)

// ErrUnsupportedURI is returned for connection strings no backend understands
var ErrUnsupportedURI = errors.New("unsupported store uri")

// Conn is an open store handle shared by all requests
type Conn struct {
	Kind  Kind
	SQL   *sql.DB
	Mongo *mongo.Database

	client *mongo.Client
}

// ParseURI returns the backend for uri and the data source name its driver expects
func ParseURI(uri string) (Kind, string, error) {
	switch {
	case strings.HasPrefix(uri, "mongodb://"), strings.HasPrefix(uri, "mongodb+srv://"):
		return KindMongo, uri, nil
	case strings.HasPrefix(uri, "sqlite://"):
		dsn := strings.TrimPrefix(uri, "sqlite://")
		if dsn == "" {
			return "", "", fmt.Errorf("%w: missing sqlite path in %q", ErrUnsupportedURI, uri)
		}
		return KindSQLite, dsn, nil
	case strings.HasPrefix(uri, "file:"):
		return KindSQLite, uri, nil
	default:
		return "", "", fmt.Errorf("%w: %q", ErrUnsupportedURI, uri)
	}
}

// Open creates the store handle for uri without requiring the store to be reachable.
// dbName selects the MongoDB database and is ignored for SQLite.
func Open(ctx context.Context, uri, dbName string) (*Conn, error) {
	kind, dsn, err := ParseURI(uri)
	if err != nil {
		return nil, err
	}

	switch kind {
	case KindMongo:
		client, err := OpenMongo(ctx, dsn)
		if err != nil {
			return nil, err
		}
		return &Conn{Kind: kind, Mongo: client.Database(dbName), client: client}, nil
	default:
		db, err := OpenSQLite(dsn)
		if err != nil {
			return nil, err
		}
		return &Conn{Kind: kind, SQL: db}, nil
	}
}

// Ping checks that the store is reachable
func (c *Conn) Ping(ctx context.Context) error {
	if c.Kind == KindMongo {
		return pingMongo(ctx, c.client)
	}
	return prepareSQLite(ctx, c.SQL)
}

// Migrate brings the store schema up to date
func (c *Conn) Migrate(ctx context.Context) error {
	if c.Kind == KindMongo {
		return EnsureMongoIndexes(ctx, c.Mongo)
	}
	return RunMigrations(ctx, c.SQL)
}

// Close releases the store handle
func (c *Conn) Close(ctx context.Context) error {
	if c.Kind == KindMongo {
		return c.client.Disconnect(ctx)
	}
	if c.SQL != nil {
		return c.SQL.Close()
	}
	return nil
}
