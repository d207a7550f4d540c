package client

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/blogem/entrylog/logging"
	"github.com/blogem/entrylog/models"
)

// DefaultReportWindow is how long a name stays suppressed after a report
const DefaultReportWindow = 60 * time.Second

// EntryCreator stores new entries. *Client implements it.
type EntryCreator interface {
	Create(ctx context.Context, form *models.EntryForm) (*models.Entry, error)
}

// ImageUploader stores a snapshot and returns the URL it can be fetched from
type ImageUploader interface {
	Upload(ctx context.Context, data []byte, contentType string) (string, error)
}

// Sighting is a person recognised at the entrance
type Sighting struct {
	Name        string
	TypeOfEnter models.EntryType
	Image       []byte
	ContentType string
}

// Reporter turns sightings into entries, skipping names that were already
// reported within the window
type Reporter struct {
	entries  EntryCreator
	uploader ImageUploader
	window   time.Duration
	log      logging.Logger
	now      func() time.Time

	mu       sync.Mutex
	lastSent map[string]time.Time
}

// ReporterOption configures a Reporter
type ReporterOption func(*Reporter)

// WithUploader uploads sighting images before the entry is posted
func WithUploader(u ImageUploader) ReporterOption {
	return func(r *Reporter) {
		r.uploader = u
	}
}

// WithWindow sets the duplicate suppression window
func WithWindow(d time.Duration) ReporterOption {
	return func(r *Reporter) {
		r.window = d
	}
}

// WithLogger sets the reporter's logger
func WithLogger(log logging.Logger) ReporterOption {
	return func(r *Reporter) {
		r.log = log
	}
}

// NewReporter creates a reporter posting through entries
func NewReporter(entries EntryCreator, opts ...ReporterOption) *Reporter {
	r := &Reporter{
		entries:  entries,
		window:   DefaultReportWindow,
		log:      logging.Nop(),
		now:      time.Now,
		lastSent: make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Report posts s unless the same name was sent less than the window ago.
// sent is false when the sighting was suppressed.
func (r *Reporter) Report(ctx context.Context, s Sighting) (entry *models.Entry, sent bool, err error) {
	if !s.TypeOfEnter.IsValid() {
		return nil, false, fmt.Errorf("%w: unknown type %q", models.ErrInvalidEntry, s.TypeOfEnter)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if last, ok := r.lastSent[s.Name]; ok && r.now().Sub(last) < r.window {
		r.log.Debug(ctx, "suppressing repeated sighting", "name", s.Name, "last", last)
		return nil, false, nil
	}

	form := &models.EntryForm{
		Name:        s.Name,
		TypeOfEnter: s.TypeOfEnter,
		Tags:        []string{},
	}

	if len(s.Image) > 0 && r.uploader != nil {
		url, err := r.uploader.Upload(ctx, s.Image, s.ContentType)
		if err != nil {
			return nil, false, fmt.Errorf("failed to upload snapshot: %w", err)
		}
		form.ImageURL = url
	}

	entry, err = r.entries.Create(ctx, form)
	if err != nil {
		return nil, false, fmt.Errorf("failed to report sighting: %w", err)
	}

	r.lastSent[s.Name] = r.now()
	r.log.Info(ctx, "sighting reported", "name", s.Name, "type", s.TypeOfEnter, "id", entry.ID)
	return entry, true, nil
}
