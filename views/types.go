package views

import (
	"github.com/eringen/mdxpress/content"
	"github.com/eringen/mdxpress/mdx"
)

// Site holds site-wide settings passed to every page so nothing is hardcoded.
type Site struct {
	Name        string
	URL         string
	Description string
	Mode        content.Mode
}

// PageMeta carries per-page OpenGraph and SEO metadata into the <head>.
type PageMeta struct {
	Title       string
	Description string
	URL         string // canonical + og:url
	OGType      string // "website" or "article"
}

// FeedPage lists published posts, optionally filtered by tag.
type FeedPage struct {
	Site      Site
	Posts     []content.Post
	Tags      []content.Tag
	ActiveTag string
	CanWrite  bool
}

// PostPage shows one post rendered through the MDX pipeline.
type PostPage struct {
	Site     Site
	Post     content.Post
	Body     mdx.Document
	Related  []content.Post
	CanWrite bool
}

// EditorPage is the post form with live preview. Post is nil for a new post.
type EditorPage struct {
	Site        Site
	Post        *content.Post
	Tags        []content.Tag
	CSRFToken   string
	Placeholder string
}

// LoginPage is the editor password form.
type LoginPage struct {
	Site      Site
	CSRFToken string
	Enabled   bool
	Failed    bool
}
