package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/blogem/entrylog/models"
	"github.com/blogem/entrylog/repositories"
)

// EntryService interface defines entry log operations
type EntryService interface {
	CreateEntry(ctx context.Context, form *models.EntryForm) (*models.Entry, error)
	ListEntries(ctx context.Context, req models.PageRequest) (*models.EntryPage, error)
	UpdateEntry(ctx context.Context, id string, patch map[string]json.RawMessage) (*models.Entry, error)
	DeleteEntry(ctx context.Context, id string) error
}

// entryService implements EntryService interface
type entryService struct {
	entryRepo repositories.EntryRepository
	now       func() time.Time
}

// NewEntryService creates a new entry service
func NewEntryService(entryRepo repositories.EntryRepository) EntryService {
	return &entryService{
		entryRepo: entryRepo,
		now:       time.Now,
	}
}

// CreateEntry validates the form and stores a new entry dated now
func (s *entryService) CreateEntry(ctx context.Context, form *models.EntryForm) (*models.Entry, error) {
	if errors := form.Validate(); len(errors) > 0 {
		return nil, fmt.Errorf("%w: %s", models.ErrInvalidEntry, strings.Join(errors, ", "))
	}

	entry := form.ToEntry(s.now())
	if err := s.entryRepo.Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to create entry: %w", err)
	}

	return entry, nil
}

// ListEntries returns one page of entries, most recent first, with pagination metadata
func (s *entryService) ListEntries(ctx context.Context, req models.PageRequest) (*models.EntryPage, error) {
	total, err := s.entryRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count entries: %w", err)
	}

	items, err := s.entryRepo.List(ctx, req.Offset(), req.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	if items == nil {
		items = []models.Entry{}
	}

	return &models.EntryPage{
		Metadata: models.NewPaginationMetadata(total, req),
		Items:    items,
	}, nil
}

// UpdateEntry overwrites the fields present in patch
func (s *entryService) UpdateEntry(ctx context.Context, id string, patch map[string]json.RawMessage) (*models.Entry, error) {
	entry, err := s.entryRepo.Update(ctx, id, patch)
	if err != nil {
		return nil, fmt.Errorf("failed to update entry: %w", err)
	}
	return entry, nil
}

// DeleteEntry permanently deletes an entry
func (s *entryService) DeleteEntry(ctx context.Context, id string) error {
	if err := s.entryRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}
	return nil
}
