package client

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blogem/entrylog/config"
	"github.com/blogem/entrylog/models"
)

type fakeCreator struct {
	mu    sync.Mutex
	forms []models.EntryForm
	err   error
}

func (f *fakeCreator) Create(ctx context.Context, form *models.EntryForm) (*models.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.forms = append(f.forms, *form)
	entry := form.ToEntry(time.Now())
	return entry, nil
}

func (f *fakeCreator) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.forms)
}

type fakeUploader struct {
	calls int
	url   string
	err   error
}

func (f *fakeUploader) Upload(ctx context.Context, data []byte, contentType string) (string, error) {
	f.calls++
	return f.url, f.err
}

// fakeClock is advanced by hand
type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestReporter(entries EntryCreator, opts ...ReporterOption) (*Reporter, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 3, 9, 18, 30, 0, 0, time.UTC)}
	r := NewReporter(entries, opts...)
	r.now = clock.Now
	return r, clock
}

func TestReporter_SuppressesRepeatsWithinWindow(t *testing.T) {
	creator := &fakeCreator{}
	r, clock := newTestReporter(creator)
	ctx := context.Background()
	dana := Sighting{Name: "Dana", TypeOfEnter: models.EntryTypeResident}

	entry, sent, err := r.Report(ctx, dana)
	require.NoError(t, err)
	assert.True(t, sent)
	assert.Equal(t, "Dana", entry.Name)

	clock.Advance(30 * time.Second)
	entry, sent, err = r.Report(ctx, dana)
	require.NoError(t, err)
	assert.False(t, sent)
	assert.Nil(t, entry)

	// Other names are not affected
	_, sent, err = r.Report(ctx, Sighting{Name: "Sam", TypeOfEnter: models.EntryTypeGuest})
	require.NoError(t, err)
	assert.True(t, sent)

	clock.Advance(30 * time.Second)
	_, sent, err = r.Report(ctx, dana)
	require.NoError(t, err)
	assert.True(t, sent)

	assert.Equal(t, 3, creator.count())
	assert.Equal(t, []string{}, creator.forms[0].Tags)
}

func TestReporter_FailedSendDoesNotStartWindow(t *testing.T) {
	creator := &fakeCreator{err: errors.New("connection refused")}
	r, _ := newTestReporter(creator)
	ctx := context.Background()
	s := Sighting{Name: "Dana", TypeOfEnter: models.EntryTypeResident}

	_, sent, err := r.Report(ctx, s)
	require.Error(t, err)
	assert.False(t, sent)

	creator.err = nil
	_, sent, err = r.Report(ctx, s)
	require.NoError(t, err)
	assert.True(t, sent)
}

func TestReporter_UploadsImage(t *testing.T) {
	creator := &fakeCreator{}
	uploader := &fakeUploader{url: "https://cdn.example.com/snapshots/a.jpg"}
	r, _ := newTestReporter(creator, WithUploader(uploader))

	entry, sent, err := r.Report(context.Background(), Sighting{
		Name:        "Courier",
		TypeOfEnter: models.EntryTypeDelivery,
		Image:       []byte{0xff, 0xd8, 0xff},
		ContentType: "image/jpeg",
	})
	require.NoError(t, err)
	assert.True(t, sent)
	assert.Equal(t, 1, uploader.calls)
	assert.Equal(t, "https://cdn.example.com/snapshots/a.jpg", entry.ImageURL)
}

func TestReporter_UploadFailureAbortsReport(t *testing.T) {
	creator := &fakeCreator{}
	uploader := &fakeUploader{err: errors.New("access denied")}
	r, _ := newTestReporter(creator, WithUploader(uploader))

	_, sent, err := r.Report(context.Background(), Sighting{
		Name:        "Courier",
		TypeOfEnter: models.EntryTypeDelivery,
		Image:       []byte("img"),
	})
	require.Error(t, err)
	assert.False(t, sent)
	assert.Equal(t, 0, creator.count())
}

func TestReporter_SkipsUploadWithoutImage(t *testing.T) {
	creator := &fakeCreator{}
	uploader := &fakeUploader{url: "unused"}
	r, _ := newTestReporter(creator, WithUploader(uploader))

	entry, _, err := r.Report(context.Background(), Sighting{Name: "Sam", TypeOfEnter: models.EntryTypeGuest})
	require.NoError(t, err)
	assert.Equal(t, 0, uploader.calls)
	assert.Empty(t, entry.ImageURL)
}

func TestReporter_RejectsUnknownType(t *testing.T) {
	creator := &fakeCreator{}
	r, _ := newTestReporter(creator)

	_, sent, err := r.Report(context.Background(), Sighting{Name: "Sam", TypeOfEnter: "visitor"})
	require.ErrorIs(t, err, models.ErrInvalidEntry)
	assert.False(t, sent)
	assert.Equal(t, 0, creator.count())
}

func TestReporter_ConcurrentReportsSendOnce(t *testing.T) {
	creator := &fakeCreator{}
	r := NewReporter(creator, WithWindow(time.Hour))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Report(context.Background(), Sighting{Name: "Dana", TypeOfEnter: models.EntryTypeResident})
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, creator.count())
}

type fakePutter struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakePutter) PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = in
	f.body, _ = io.ReadAll(in.Body)
	if f.err != nil {
		return nil, f.err
	}
	return &s3.PutObjectOutput{}, nil
}

func TestS3Uploader_Upload(t *testing.T) {
	u, err := NewS3Uploader(context.Background(), config.S3Config{
		Bucket:    "snapshots-bucket",
		Region:    "us-east-1",
		Endpoint:  "http://minio:9000/",
		AccessKey: "minio",
		SecretKey: "minio123",
	})
	require.NoError(t, err)

	putter := &fakePutter{}
	u.client = putter
	u.now = func() time.Time { return time.Date(2024, 3, 9, 18, 30, 0, 0, time.UTC) }

	url, err := u.Upload(context.Background(), []byte("jpeg-bytes"), "image/jpeg")
	require.NoError(t, err)

	key := *putter.input.Key
	assert.True(t, strings.HasPrefix(key, "snapshots/2024/3/9/"), key)
	assert.True(t, strings.HasSuffix(key, ".jpg"), key)
	assert.Equal(t, "snapshots-bucket", *putter.input.Bucket)
	assert.Equal(t, "image/jpeg", *putter.input.ContentType)
	assert.True(t, bytes.Equal([]byte("jpeg-bytes"), putter.body))
	assert.Equal(t, "http://minio:9000/snapshots-bucket/"+key, url)
}

func TestS3Uploader_PublicURLAndErrors(t *testing.T) {
	u, err := NewS3Uploader(context.Background(), config.S3Config{
		Bucket:    "b",
		Region:    "eu-west-1",
		AccessKey: "k",
		SecretKey: "s",
		PublicURL: "https://cdn.example.com/",
	})
	require.NoError(t, err)

	putter := &fakePutter{}
	u.client = putter
	url, err := u.Upload(context.Background(), []byte("png"), "image/png; charset=binary")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/"+*putter.input.Key, url)
	assert.True(t, strings.HasSuffix(url, ".png"))

	putter.err = errors.New("access denied")
	_, err = u.Upload(context.Background(), []byte("png"), "image/png")
	require.Error(t, err)

	_, err = NewS3Uploader(context.Background(), config.S3Config{})
	require.Error(t, err)
}
