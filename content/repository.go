package content

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/eringen/mdxpress/slug"
)

// Reader is the read side shared by the database and the demo snapshot.
type Reader interface {
	List(ctx context.Context, opts ListOptions) ([]Post, error)
	GetBySlug(ctx context.Context, postSlug string, includeDrafts bool) (Post, error)
	ListTags(ctx context.Context) ([]Tag, error)
}

// Repository is a writable post store.
type Repository interface {
	Reader
	SlugExists(ctx context.Context, postSlug string) (bool, error)
	UpsertTag(ctx context.Context, name, tagSlug string) (Tag, error)
	Create(ctx context.Context, p *Post) error
	Update(ctx context.Context, p *Post, replaceTags bool) error
	Delete(ctx context.Context, postSlug string) error
}

// GormRepository persists posts and tags through gorm. Tag upserts and post
// writes are separate statements; a failure in between can leave an orphan
// tag, which is harmless.
type GormRepository struct {
	db *gorm.DB

	schemaMu sync.Mutex
	migrated atomic.Bool
}

// NewGormRepository wraps an open gorm handle.
func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

// EnsureSchema creates the posts, tags and post_tags tables if missing.
// Once it has succeeded later calls return immediately; until then every
// repository call retries it first.
func (r *GormRepository) EnsureSchema(ctx context.Context) error {
	if r.migrated.Load() {
		return nil
	}
	r.schemaMu.Lock()
	defer r.schemaMu.Unlock()
	if r.migrated.Load() {
		return nil
	}
	if err := r.db.WithContext(ctx).AutoMigrate(&Tag{}, &Post{}); err != nil {
		return err
	}
	r.migrated.Store(true)
	return nil
}

// Ping checks that the database answers.
func (r *GormRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the underlying connection pool.
func (r *GormRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func tagsBySlug(db *gorm.DB) *gorm.DB {
	return db.Order("slug")
}

// List returns posts in feed order: published first by publishedAt desc,
// then createdAt desc.
func (r *GormRepository) List(ctx context.Context, opts ListOptions) ([]Post, error) {
	if err := r.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	q := r.db.WithContext(ctx).Model(&Post{}).Preload("Tags", tagsBySlug)
	if !opts.IncludeDrafts {
		q = q.Where("published = ?", true)
	}
	if opts.Tag != "" {
		q = q.Where(`EXISTS (SELECT 1 FROM post_tags JOIN tags ON tags.id = post_tags.tag_id
			WHERE post_tags.post_id = posts.id AND tags.slug = ?)`, slug.Normalize(opts.Tag))
	}
	var posts []Post
	err := q.Order("published_at IS NULL").
		Order("published_at DESC").
		Order("created_at DESC").
		Find(&posts).Error
	if err != nil {
		return nil, err
	}
	for i := range posts {
		normalizeLoaded(&posts[i])
	}
	return posts, nil
}

// GetBySlug loads one post with its tags.
func (r *GormRepository) GetBySlug(ctx context.Context, postSlug string, includeDrafts bool) (Post, error) {
	if err := r.EnsureSchema(ctx); err != nil {
		return Post{}, err
	}
	q := r.db.WithContext(ctx).Preload("Tags", tagsBySlug).Where("slug = ?", postSlug)
	if !includeDrafts {
		q = q.Where("published = ?", true)
	}
	var p Post
	if err := q.First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Post{}, ErrNotFound
		}
		return Post{}, err
	}
	normalizeLoaded(&p)
	return p, nil
}

// ListTags returns every stored tag, including ones no post references.
func (r *GormRepository) ListTags(ctx context.Context) ([]Tag, error) {
	if err := r.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	tags := []Tag{}
	if err := r.db.WithContext(ctx).Order("slug").Find(&tags).Error; err != nil {
		return nil, err
	}
	return tags, nil
}

// SlugExists reports whether any post, draft or not, uses postSlug.
func (r *GormRepository) SlugExists(ctx context.Context, postSlug string) (bool, error) {
	if err := r.EnsureSchema(ctx); err != nil {
		return false, err
	}
	var n int64
	if err := r.db.WithContext(ctx).Model(&Post{}).Where("slug = ?", postSlug).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// UpsertTag creates the tag for tagSlug or overwrites its name.
func (r *GormRepository) UpsertTag(ctx context.Context, name, tagSlug string) (Tag, error) {
	if err := r.EnsureSchema(ctx); err != nil {
		return Tag{}, err
	}
	db := r.db.WithContext(ctx)
	tag := Tag{Name: name, Slug: tagSlug}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "slug"}},
		DoUpdates: clause.AssignmentColumns([]string{"name"}),
	}).Create(&tag).Error
	if err != nil {
		return Tag{}, err
	}
	// On conflict the generated id was discarded; read the stored row back.
	var stored Tag
	if err := db.Where("slug = ?", tagSlug).First(&stored).Error; err != nil {
		return Tag{}, err
	}
	return stored, nil
}

// Create inserts p and links its already-stored tags.
func (r *GormRepository) Create(ctx context.Context, p *Post) error {
	if err := r.EnsureSchema(ctx); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Omit("Tags.*").Create(p).Error
}

// Update overwrites every column of the post identified by p.ID. When
// replaceTags is set the tag links are replaced by p.Tags.
func (r *GormRepository) Update(ctx context.Context, p *Post, replaceTags bool) error {
	if err := r.EnsureSchema(ctx); err != nil {
		return err
	}
	db := r.db.WithContext(ctx)
	err := db.Model(&Post{}).Where("id = ?", p.ID).Updates(map[string]any{
		"title":        p.Title,
		"slug":         p.Slug,
		"excerpt":      p.Excerpt,
		"content":      p.Content,
		"published":    p.Published,
		"published_at": p.PublishedAt,
		"updated_at":   p.UpdatedAt,
	}).Error
	if err != nil || !replaceTags {
		return err
	}
	assoc := db.Model(&Post{ID: p.ID}).Omit("Tags.*").Association("Tags")
	if len(p.Tags) == 0 {
		return assoc.Clear()
	}
	return assoc.Replace(p.Tags)
}

// Delete removes the post and its tag links. Tags themselves are kept.
func (r *GormRepository) Delete(ctx context.Context, postSlug string) error {
	if err := r.EnsureSchema(ctx); err != nil {
		return err
	}
	db := r.db.WithContext(ctx)
	var p Post
	if err := db.Where("slug = ?", postSlug).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	return db.Select("Tags").Delete(&p).Error
}

func normalizeLoaded(p *Post) {
	if p.Tags == nil {
		p.Tags = []Tag{}
	}
	p.CreatedAt = p.CreatedAt.UTC()
	p.UpdatedAt = p.UpdatedAt.UTC()
	if p.PublishedAt != nil {
		at := p.PublishedAt.UTC()
		p.PublishedAt = &at
	}
}

var _ Repository = (*GormRepository)(nil)
var _ Reader = (*Snapshot)(nil)

// utcNow is the default clock.
func utcNow() time.Time { return time.Now().UTC() }
