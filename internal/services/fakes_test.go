package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/alexedwards/argon2id"
	"github.com/stretchr/testify/require"

	"github.com/joshua-takyi/studenthub/internal/helpers"
	"github.com/joshua-takyi/studenthub/internal/models"
	"github.com/joshua-takyi/studenthub/internal/models/memstore"
)

var errBoom = errors.New("boom")

func init() {
	helpers.Argon2Params = &argon2id.Params{Memory: 8 * 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newStore() *memstore.Store {
	return memstore.New().
		WithSerial(models.AppUserTable, "user_id").
		WithSerial(models.UniversityTable, "university_id")
}

func ptr[T any](v T) *T {
	return &v
}

type sentMail struct {
	to, subject, text string
}

type mailRecorder struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (m *mailRecorder) Send(ctx context.Context, toEmail, subject, text, html string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{to: toEmail, subject: subject, text: text})
	return nil
}

// tokenAfter pulls the token that follows marker out of the last email.
func (m *mailRecorder) tokenAfter(t *testing.T, marker string) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.sent)
	text := m.sent[len(m.sent)-1].text
	i := strings.Index(text, marker)
	require.GreaterOrEqual(t, i, 0, "no %q link in %q", marker, text)
	return strings.Fields(text[i+len(marker):])[0]
}

type published struct {
	channel, event string
	payload        any
}

type publisherRecorder struct {
	mu     sync.Mutex
	events []published
	err    error
}

func (p *publisherRecorder) Publish(ctx context.Context, channel, event string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, published{channel: channel, event: event, payload: payload})
	return nil
}

func (p *publisherRecorder) Close() error { return nil }

// insertFailer fails inserts into one table and passes everything else through.
type insertFailer struct {
	models.Store
	table string
}

func (f insertFailer) Insert(ctx context.Context, table string, rows any, dest any) error {
	if table == f.table {
		return errBoom
	}
	return f.Store.Insert(ctx, table, rows, dest)
}

type fakeLodgingWriter struct {
	store   *memstore.Store
	created []string
	err     error
}

func (w *fakeLodgingWriter) CreateLodging(ctx context.Context, l *models.Lodging, urls []string) (int64, error) {
	if w.err != nil {
		return 0, w.err
	}
	var rows []models.Lodging
	if err := w.store.Insert(ctx, models.LodgingTable, l, &rows); err != nil {
		return 0, err
	}
	w.created = append(w.created, urls...)
	return rows[0].ID, nil
}

func (w *fakeLodgingWriter) DeleteLodging(ctx context.Context, id int64) ([]string, error) {
	if w.err != nil {
		return nil, w.err
	}
	n, err := w.store.Delete(ctx, models.LodgingTable, models.Eq("id", id))
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, models.ErrNotFound
	}
	return []string{"https://x.supabase.co/storage/v1/object/public/lodgment_images/a.jpg"}, nil
}

type fakeRemover struct {
	bucket string
	urls   []string
	err    error
}

func (r *fakeRemover) RemoveImages(ctx context.Context, bucket string, urls []string) error {
	r.bucket, r.urls = bucket, urls
	return r.err
}

type fakeViews struct {
	mu     sync.Mutex
	views  []models.LodgingView
	err    error
	stats  *models.LodgingViewStats
	owners *models.OwnerViewStats
}

func (v *fakeViews) TrackLodgingView(ctx context.Context, view *models.LodgingView) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.err != nil {
		return v.err
	}
	v.views = append(v.views, *view)
	return nil
}

func (v *fakeViews) GetLodgingViewStats(ctx context.Context, id int64) (*models.LodgingViewStats, error) {
	return v.stats, v.err
}

func (v *fakeViews) GetOwnerViewStats(ctx context.Context, ownerID int64) (*models.OwnerViewStats, error) {
	return v.owners, v.err
}

func (v *fakeViews) EnsureIndexes(ctx context.Context) error { return nil }

func requireKind(t *testing.T, err error, kind Kind, msg string) {
	t.Helper()
	require.Error(t, err)
	var se *Error
	require.ErrorAs(t, err, &se)
	require.Equal(t, kind, se.Kind, "error: %v", err)
	if msg != "" {
		require.Equal(t, msg, se.Message)
	}
}
