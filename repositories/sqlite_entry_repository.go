package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/blogem/entrylog/models"
)

// sqliteEntryRepository stores each entry as a JSON document with
// the sort key and type copied into their own columns
type sqliteEntryRepository struct {
	db *sql.DB
}

// NewSQLiteEntryRepository creates a new SQLite-backed entry repository
func NewSQLiteEntryRepository(db *sql.DB) EntryRepository {
	return &sqliteEntryRepository{db: db}
}

// Create inserts a new entry
func (r *sqliteEntryRepository) Create(ctx context.Context, entry *models.Entry) error {
	if err := entry.Validate(); err != nil {
		return err
	}

	document, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode entry: %w", err)
	}

	query := `INSERT INTO items (id, date, type_of_enter, document) VALUES (?, ?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, query, entry.ID, entry.Date, string(entry.TypeOfEnter), string(document)); err != nil {
		return fmt.Errorf("failed to create entry: %w", err)
	}

	return nil
}

// List returns a window of entries, most recent first
func (r *sqliteEntryRepository) List(ctx context.Context, offset int64, limit int) ([]models.Entry, error) {
	query := `
		SELECT document
		FROM items
		ORDER BY date DESC, id DESC
		LIMIT ? OFFSET ?
	`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	entries := []models.Entry{}
	for rows.Next() {
		var document string
		if err := rows.Scan(&document); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}

		var entry models.Entry
		if err := json.Unmarshal([]byte(document), &entry); err != nil {
			return nil, fmt.Errorf("failed to decode entry: %w", err)
		}
		entries = append(entries, entry)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating entries: %w", err)
	}

	return entries, nil
}

// Count returns the total number of entries
func (r *sqliteEntryRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM items`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count entries: %w", err)
	}
	return count, nil
}

// Update overwrites the fields in patch and returns the updated entry
func (r *sqliteEntryRepository) Update(ctx context.Context, id string, patch map[string]json.RawMessage) (*models.Entry, error) {
	if !models.IsValidEntryID(id) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidID, id)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var document string
	err = tx.QueryRowContext(ctx, `SELECT document FROM items WHERE id = ?`, id).Scan(&document)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get entry: %w", err)
	}

	var entry models.Entry
	if err := json.Unmarshal([]byte(document), &entry); err != nil {
		return nil, fmt.Errorf("failed to decode entry: %w", err)
	}

	if err := entry.ApplyPatch(patch); err != nil {
		return nil, err
	}

	updated, err := json.Marshal(entry)
	if err != nil {
		return nil, fmt.Errorf("failed to encode entry: %w", err)
	}

	query := `UPDATE items SET date = ?, type_of_enter = ?, document = ? WHERE id = ?`
	if _, err := tx.ExecContext(ctx, query, entry.Date, string(entry.TypeOfEnter), string(updated), id); err != nil {
		return nil, fmt.Errorf("failed to update entry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit entry update: %w", err)
	}

	return &entry, nil
}

// Delete deletes an entry by ID
func (r *sqliteEntryRepository) Delete(ctx context.Context, id string) error {
	if !models.IsValidEntryID(id) {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}

	result, err := r.db.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	return nil
}
