package repositories

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/blogem/entrylog/database"
	"github.com/blogem/entrylog/models"
)

var (
	// ErrNotFound is returned when no entry has the requested identifier
	ErrNotFound = errors.New("entry not found")
	// ErrInvalidID is returned when an identifier is not a valid object id
	ErrInvalidID = errors.New("invalid entry id")
)

// EntryRepository defines entry log store operations
type EntryRepository interface {
	Create(ctx context.Context, entry *models.Entry) error
	List(ctx context.Context, offset int64, limit int) ([]models.Entry, error)
	Count(ctx context.Context) (int64, error)
	Update(ctx context.Context, id string, patch map[string]json.RawMessage) (*models.Entry, error)
	Delete(ctx context.Context, id string) error
}

// Repositories struct holds all repository interfaces
type Repositories struct {
	Entries EntryRepository
}

// NewRepositories creates the repositories backed by conn
func NewRepositories(conn *database.Conn) *Repositories {
	var entries EntryRepository
	switch conn.Kind {
	case database.KindMongo:
		entries = NewMongoEntryRepository(conn.Mongo)
	default:
		entries = NewSQLiteEntryRepository(conn.SQL)
	}

	return &Repositories{
		Entries: entries,
	}
}
