// Package content stores blog posts and their tags. A Service fronts a
// relational Repository and falls back to a read-only demo Snapshot when
// no database is configured or a read against the database fails.
package content

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Post is a single MDX article.
type Post struct {
	ID          string     `gorm:"primaryKey;size:36" json:"id"`
	Title       string     `gorm:"not null" json:"title"`
	Slug        string     `gorm:"uniqueIndex;not null" json:"slug"`
	Excerpt     string     `json:"excerpt"`
	Content     string     `gorm:"type:text;not null" json:"content"`
	Published   bool       `gorm:"not null" json:"published"`
	PublishedAt *time.Time `gorm:"index" json:"publishedAt"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	Tags        []Tag      `gorm:"many2many:post_tags;" json:"tags"`
}

// Tag labels posts. Its identity is the slug; the name is whatever display
// string was last written for that slug.
type Tag struct {
	ID   string `gorm:"primaryKey;size:36" json:"id"`
	Name string `gorm:"not null" json:"name"`
	Slug string `gorm:"uniqueIndex;not null" json:"slug"`
}

// BeforeCreate assigns an opaque id to new posts.
func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// BeforeCreate assigns an opaque id to new tags.
func (t *Tag) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

// HasTag reports whether the post carries a tag with the given slug.
func (p Post) HasTag(tagSlug string) bool {
	for _, t := range p.Tags {
		if t.Slug == tagSlug {
			return true
		}
	}
	return false
}

// ListOptions filters List results.
type ListOptions struct {
	Tag           string
	IncludeDrafts bool
}

// clone returns a deep copy so callers never share tag slices or timestamps
// with the snapshot they were read from.
func (p Post) clone() Post {
	out := p
	if p.PublishedAt != nil {
		at := *p.PublishedAt
		out.PublishedAt = &at
	}
	out.Tags = append([]Tag{}, p.Tags...)
	return out
}

// sortFeed orders posts by publishedAt descending with drafts last, breaking
// ties by createdAt descending.
func sortFeed(posts []Post) {
	sort.SliceStable(posts, func(i, j int) bool {
		a, b := posts[i], posts[j]
		switch {
		case a.PublishedAt == nil && b.PublishedAt != nil:
			return false
		case a.PublishedAt != nil && b.PublishedAt == nil:
			return true
		case a.PublishedAt != nil && b.PublishedAt != nil && !a.PublishedAt.Equal(*b.PublishedAt):
			return a.PublishedAt.After(*b.PublishedAt)
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
}
