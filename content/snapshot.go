package content

import (
	"context"
	"sort"

	"github.com/eringen/mdxpress/slug"
)

// Snapshot is an immutable in-memory post set. It serves demo mode and is
// the fallback tier when the database cannot answer a read.
type Snapshot struct {
	posts []Post
}

// NewSnapshot copies posts into a read-only snapshot.
func NewSnapshot(posts []Post) *Snapshot {
	cp := make([]Post, len(posts))
	for i, p := range posts {
		cp[i] = p.clone()
	}
	sortFeed(cp)
	return &Snapshot{posts: cp}
}

// List returns matching posts in feed order.
func (s *Snapshot) List(_ context.Context, opts ListOptions) ([]Post, error) {
	tagSlug := slug.Normalize(opts.Tag)
	out := []Post{}
	for _, p := range s.posts {
		if !opts.IncludeDrafts && !p.Published {
			continue
		}
		if opts.Tag != "" && !p.HasTag(tagSlug) {
			continue
		}
		out = append(out, p.clone())
	}
	return out, nil
}

// GetBySlug returns the post with the given slug.
func (s *Snapshot) GetBySlug(_ context.Context, postSlug string, includeDrafts bool) (Post, error) {
	for _, p := range s.posts {
		if p.Slug == postSlug && (includeDrafts || p.Published) {
			return p.clone(), nil
		}
	}
	return Post{}, ErrNotFound
}

// ListTags returns the distinct tags of the snapshot ordered by slug.
func (s *Snapshot) ListTags(context.Context) ([]Tag, error) {
	seen := map[string]Tag{}
	for _, p := range s.posts {
		for _, t := range p.Tags {
			if _, ok := seen[t.Slug]; !ok {
				seen[t.Slug] = t
			}
		}
	}
	tags := make([]Tag, 0, len(seen))
	for _, t := range seen {
		tags = append(tags, t)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i].Slug < tags[j].Slug })
	return tags, nil
}
