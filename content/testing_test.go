package content

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/labstack/gommon/log"
	"github.com/stretchr/testify/require"
)

// stepClock returns a clock that advances one minute per call.
func stepClock(start time.Time) func() time.Time {
	now := start
	return func() time.Time {
		now = now.Add(time.Minute)
		return now
	}
}

func newTestRepository(t *testing.T) *GormRepository {
	t.Helper()
	db, err := OpenDatabase("sqlite:"+filepath.Join(t.TempDir(), "posts.db"), nil)
	require.NoError(t, err)
	repo := NewGormRepository(db)
	t.Cleanup(func() { repo.Close() })
	require.NoError(t, repo.EnsureSchema(context.Background()))
	return repo
}

func newTestService(t *testing.T, opts ...Option) (*Service, *GormRepository) {
	t.Helper()
	repo := newTestRepository(t)
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	opts = append([]Option{WithClock(stepClock(base))}, opts...)
	return NewService(repo, NewSnapshot(DemoPosts(base)), opts...), repo
}

func bufferLogger() (*log.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	l := log.New("test")
	l.SetOutput(&buf)
	l.SetLevel(log.DEBUG)
	return l, &buf
}

// brokenRepository fails every call with err.
type brokenRepository struct{ err error }

func (b brokenRepository) List(context.Context, ListOptions) ([]Post, error) { return nil, b.err }
func (b brokenRepository) GetBySlug(context.Context, string, bool) (Post, error) {
	return Post{}, b.err
}
func (b brokenRepository) ListTags(context.Context) ([]Tag, error)         { return nil, b.err }
func (b brokenRepository) SlugExists(context.Context, string) (bool, error) { return false, b.err }
func (b brokenRepository) UpsertTag(context.Context, string, string) (Tag, error) {
	return Tag{}, b.err
}
func (b brokenRepository) Create(context.Context, *Post) error       { return b.err }
func (b brokenRepository) Update(context.Context, *Post, bool) error { return b.err }
func (b brokenRepository) Delete(context.Context, string) error      { return b.err }

var errConnRefused = errors.New("dial tcp 127.0.0.1:5432: connect: connection refused")

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }
