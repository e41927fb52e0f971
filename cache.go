package mdxpress

import (
	"context"
	"sync"
	"time"

	"github.com/eringen/mdxpress/content"
	"github.com/eringen/mdxpress/mdx"
)

// DocumentCache keeps compiled post documents keyed by slug. An entry is
// served only while the post's UpdatedAt still matches and the entry is
// younger than the TTL. Failed renders are never cached.
type DocumentCache struct {
	mu       sync.RWMutex
	entries  map[string]cachedDocument
	ttl      time.Duration
	renderer *mdx.Renderer
	now      func() time.Time
}

type cachedDocument struct {
	doc       mdx.Document
	updatedAt time.Time
	fetched   time.Time
}

// NewDocumentCache creates a DocumentCache compiling through r.
func NewDocumentCache(r *mdx.Renderer, ttl time.Duration) *DocumentCache {
	return &DocumentCache{
		entries:  make(map[string]cachedDocument),
		ttl:      ttl,
		renderer: r,
		now:      time.Now,
	}
}

func (c *DocumentCache) lookup(p content.Post) (mdx.Document, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[p.Slug]
	if !ok || !e.updatedAt.Equal(p.UpdatedAt) || c.now().Sub(e.fetched) >= c.ttl {
		return mdx.Document{}, false
	}
	return e.doc, true
}

// Render returns the compiled document for p, compiling on a miss.
func (c *DocumentCache) Render(ctx context.Context, p content.Post) (mdx.Document, error) {
	if doc, ok := c.lookup(p); ok {
		return doc, nil
	}
	doc, err := c.renderer.Render(ctx, p.Content)
	if err != nil {
		return mdx.Document{}, err
	}
	c.mu.Lock()
	c.entries[p.Slug] = cachedDocument{doc: doc, updatedAt: p.UpdatedAt, fetched: c.now()}
	c.mu.Unlock()
	return doc, nil
}

// Invalidate drops the entry for slug so the next read recompiles.
func (c *DocumentCache) Invalidate(slug string) {
	c.mu.Lock()
	delete(c.entries, slug)
	c.mu.Unlock()
}

// Len reports the number of cached documents.
func (c *DocumentCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
