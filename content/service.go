package content

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/labstack/gommon/log"

	"github.com/eringen/mdxpress/slug"
)

// Mode is the store operating mode, fixed when the Service is built.
type Mode string

const (
	// ModeDemo serves the fixed snapshot and rejects writes.
	ModeDemo Mode = "demo"
	// ModePersistent reads and writes the database.
	ModePersistent Mode = "persistent"
)

// Logger is the subset of the echo logger the service writes to.
type Logger interface {
	Infoj(j log.JSON)
	Warnj(j log.JSON)
	Errorj(j log.JSON)
}

// Service is the content store. Reads go to the database first and fall
// back to the snapshot when the database fails; writes require a database.
type Service struct {
	primary    Repository
	fallback   Reader
	logger     Logger
	now        func() time.Time
	onFallback func(op string, err error)
}

// Option customizes a Service.
type Option func(*Service)

// WithLogger sets the structured event logger.
func WithLogger(l Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock replaces the clock used for publishedAt and record timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithFallbackHook registers a callback invoked whenever a read is served
// from the fallback snapshot after a database error.
func WithFallbackHook(fn func(op string, err error)) Option {
	return func(s *Service) {
		s.onFallback = fn
	}
}

// NewService builds a store. A nil primary selects demo mode.
func NewService(primary Repository, fallback Reader, opts ...Option) *Service {
	discard := log.New("content")
	discard.SetOutput(io.Discard)
	s := &Service{
		primary:  primary,
		fallback: fallback,
		logger:   discard,
		now:      utcNow,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.fallback == nil {
		s.fallback = NewSnapshot(nil)
	}
	return s
}

// Mode reports whether the store is backed by a database.
func (s *Service) Mode() Mode {
	if s.primary == nil {
		return ModeDemo
	}
	return ModePersistent
}

// List returns posts in feed order, published only unless IncludeDrafts.
func (s *Service) List(ctx context.Context, opts ListOptions) ([]Post, error) {
	if s.primary == nil {
		return s.fallback.List(ctx, opts)
	}
	posts, err := s.primary.List(ctx, opts)
	if err != nil {
		s.recordFallback("list", err, log.JSON{"tag": opts.Tag, "include_drafts": opts.IncludeDrafts})
		return s.fallback.List(ctx, opts)
	}
	return posts, nil
}

// GetBySlug returns one post or ErrNotFound.
func (s *Service) GetBySlug(ctx context.Context, postSlug string, includeDrafts bool) (Post, error) {
	if s.primary == nil {
		return s.fallback.GetBySlug(ctx, postSlug, includeDrafts)
	}
	p, err := s.primary.GetBySlug(ctx, postSlug, includeDrafts)
	if err == nil || errors.Is(err, ErrNotFound) {
		return p, err
	}
	s.recordFallback("get", err, log.JSON{"slug": postSlug})
	return s.fallback.GetBySlug(ctx, postSlug, includeDrafts)
}

// ListTags returns all known tags ordered by slug.
func (s *Service) ListTags(ctx context.Context) ([]Tag, error) {
	if s.primary == nil {
		return s.fallback.ListTags(ctx)
	}
	tags, err := s.primary.ListTags(ctx)
	if err != nil {
		s.recordFallback("tags", err, nil)
		return s.fallback.ListTags(ctx)
	}
	return tags, nil
}

// Create validates the payload, upserts its tags and stores a new post.
func (s *Service) Create(ctx context.Context, p CreatePayload) (Post, error) {
	if err := p.Validate(); err != nil {
		return Post{}, err
	}
	if s.primary == nil {
		return Post{}, &ConfigError{Setting: DatabaseURLSetting, Op: "create"}
	}

	postSlug := deriveSlug(p.Slug, p.Title)
	if postSlug == "" {
		return Post{}, &ValidationError{Fields: map[string]string{"slug": "cannot derive a slug from the title"}}
	}
	taken, err := s.primary.SlugExists(ctx, postSlug)
	if err != nil {
		return Post{}, s.writeFailed("create", err)
	}
	if taken {
		return Post{}, ErrSlugTaken
	}

	tags, err := s.resolveTags(ctx, p.Tags)
	if err != nil {
		return Post{}, s.writeFailed("create", err)
	}

	now := s.now()
	post := Post{
		Title:     p.Title,
		Slug:      postSlug,
		Excerpt:   BuildExcerpt(p.Content, p.Excerpt),
		Content:   p.Content,
		Published: p.Published,
		Tags:      tags,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if p.Published {
		post.PublishedAt = &now
	}
	if err := s.primary.Create(ctx, &post); err != nil {
		return Post{}, s.writeFailed("create", err)
	}
	return s.reload(ctx, "create", post.Slug)
}

// Update applies a partial payload to the post stored under postSlug and
// returns ErrNotFound when there is none. Omitted tags are kept; a supplied
// tag list, even an empty one, replaces the stored set.
func (s *Service) Update(ctx context.Context, postSlug string, p UpdatePayload) (Post, error) {
	if err := p.Validate(); err != nil {
		return Post{}, err
	}
	if s.primary == nil {
		return Post{}, &ConfigError{Setting: DatabaseURLSetting, Op: "update"}
	}

	existing, err := s.primary.GetBySlug(ctx, postSlug, true)
	if errors.Is(err, ErrNotFound) {
		return Post{}, ErrNotFound
	}
	if err != nil {
		return Post{}, s.writeFailed("update", err)
	}

	next := existing.clone()
	if p.Title != nil {
		next.Title = *p.Title
	}
	if p.Content != nil {
		next.Content = *p.Content
	}
	// A slug that normalizes to nothing counts as not supplied.
	if p.Slug != nil {
		if normalized := slug.Normalize(*p.Slug); normalized != "" {
			next.Slug = normalized
		}
	}
	if p.Excerpt != nil || p.Content != nil {
		next.Excerpt = BuildExcerpt(next.Content, p.Excerpt)
	}
	if p.Published != nil {
		next.Published = *p.Published
	}

	now := s.now()
	switch {
	case !next.Published:
		next.PublishedAt = nil
	case !existing.Published || existing.PublishedAt == nil:
		next.PublishedAt = &now
	}
	next.UpdatedAt = now

	if next.Slug != existing.Slug {
		taken, err := s.primary.SlugExists(ctx, next.Slug)
		if err != nil {
			return Post{}, s.writeFailed("update", err)
		}
		if taken {
			return Post{}, ErrSlugTaken
		}
	}

	replaceTags := p.Tags != nil
	if replaceTags {
		if next.Tags, err = s.resolveTags(ctx, p.Tags); err != nil {
			return Post{}, s.writeFailed("update", err)
		}
	}
	if err := s.primary.Update(ctx, &next, replaceTags); err != nil {
		return Post{}, s.writeFailed("update", err)
	}
	return s.reload(ctx, "update", next.Slug)
}

// Delete removes the post stored under postSlug.
func (s *Service) Delete(ctx context.Context, postSlug string) error {
	if s.primary == nil {
		return &ConfigError{Setting: DatabaseURLSetting, Op: "delete"}
	}
	if err := s.primary.Delete(ctx, postSlug); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return s.writeFailed("delete", err)
	}
	return nil
}

// resolveTags upserts each non-blank name by slug in order. Names sharing a
// slug collapse into one tag that keeps the last name written.
func (s *Service) resolveTags(ctx context.Context, names []string) ([]Tag, error) {
	tags := []Tag{}
	index := map[string]int{}
	for _, raw := range names {
		name := strings.TrimSpace(raw)
		tagSlug := slug.Normalize(name)
		if tagSlug == "" {
			continue
		}
		tag, err := s.primary.UpsertTag(ctx, name, tagSlug)
		if err != nil {
			return nil, err
		}
		if i, ok := index[tagSlug]; ok {
			tags[i] = tag
			continue
		}
		index[tagSlug] = len(tags)
		tags = append(tags, tag)
	}
	return tags, nil
}

func (s *Service) reload(ctx context.Context, op, postSlug string) (Post, error) {
	p, err := s.primary.GetBySlug(ctx, postSlug, true)
	if err != nil {
		return Post{}, s.writeFailed(op, err)
	}
	return p, nil
}

func (s *Service) recordFallback(op string, err error, fields log.JSON) {
	event := log.JSON{
		"event": "content.read_fallback",
		"op":    op,
		"error": err.Error(),
	}
	for k, v := range fields {
		event[k] = v
	}
	s.logger.Warnj(event)
	if s.onFallback != nil {
		s.onFallback(op, err)
	}
}

func (s *Service) writeFailed(op string, err error) error {
	s.logger.Errorj(log.JSON{
		"event": "content.write_failed",
		"op":    op,
		"error": err.Error(),
	})
	return &BackendError{Op: op, Err: err}
}

// deriveSlug normalizes the explicit slug, falling back to the title when
// the explicit one is absent or normalizes to nothing.
func deriveSlug(explicit *string, title string) string {
	if explicit != nil {
		if s := slug.Normalize(*explicit); s != "" {
			return s
		}
	}
	return slug.Normalize(title)
}

// Save creates the post named by the payload's slug, or updates it in place
// when a post with that slug already exists. The bool reports whether a new
// post was created. Seeding and file import both go through here.
func (s *Service) Save(ctx context.Context, p CreatePayload) (Post, bool, error) {
	if s.primary == nil {
		return Post{}, false, &ConfigError{Setting: DatabaseURLSetting, Op: "save"}
	}
	postSlug := deriveSlug(p.Slug, p.Title)
	_, err := s.primary.GetBySlug(ctx, postSlug, true)
	switch {
	case errors.Is(err, ErrNotFound):
		post, err := s.Create(ctx, p)
		return post, err == nil, err
	case err != nil:
		return Post{}, false, s.writeFailed("save", err)
	}
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	post, err := s.Update(ctx, postSlug, UpdatePayload{
		Title:     &p.Title,
		Excerpt:   p.Excerpt,
		Content:   &p.Content,
		Tags:      tags,
		Published: &p.Published,
	})
	return post, false, err
}

// Seed saves every post of the demo dataset as published.
func (s *Service) Seed(ctx context.Context, posts []Post) (created, updated int, err error) {
	for _, demo := range posts {
		names := make([]string, 0, len(demo.Tags))
		for _, t := range demo.Tags {
			names = append(names, t.Name)
		}
		postSlug, excerpt := demo.Slug, demo.Excerpt
		_, isNew, err := s.Save(ctx, CreatePayload{
			Title:     demo.Title,
			Slug:      &postSlug,
			Excerpt:   &excerpt,
			Content:   demo.Content,
			Tags:      names,
			Published: true,
		})
		if err != nil {
			return created, updated, err
		}
		if isNew {
			created++
		} else {
			updated++
		}
	}
	s.logger.Infoj(log.JSON{"event": "content.seeded", "created": created, "updated": updated})
	return created, updated, nil
}
