package views

import (
	"strconv"

	"github.com/a-h/templ"

	"github.com/eringen/mdxpress/content"
)

// Feed lists published posts with the tag filter.
func Feed(p FeedPage) templ.Component {
	meta := PageMeta{URL: buildURL(p.Site.URL)}
	if p.ActiveTag != "" {
		meta.Title = "#" + p.ActiveTag
	}
	return page(p.Site, meta, WebsiteJsonLD(p.Site), func(w *writer) {
		w.raw(`<section class="feed">` + "\n")
		if p.CanWrite {
			w.raw(`<p class="feed-actions"><a class="button" href="/editor/">New post</a></p>` + "\n")
		}
		w.component(TagPills(p.Tags, p.ActiveTag))
		if p.ActiveTag != "" {
			w.raw(`<p class="feed-filter">Tagged <strong>`)
			w.text(p.ActiveTag)
			w.raw(`</strong> <a href="/">Clear</a></p>` + "\n")
		}
		if len(p.Posts) == 0 {
			w.raw(`<p class="feed-empty">No posts yet.</p>` + "\n")
		}
		for _, post := range p.Posts {
			postCard(w, post)
		}
		w.raw("</section>\n")
	})
}

func postCard(w *writer, post content.Post) {
	w.raw(`<article class="post-card"><h2><a`)
	w.attr("href", PostURL(post.Slug))
	w.raw(">")
	w.text(post.Title)
	w.raw("</a></h2>\n<p class=\"post-date\">")
	w.text(FormatDate(post.PublishedAt))
	w.raw("</p>\n")
	if post.Excerpt != "" {
		w.raw(`<p class="post-excerpt">`)
		w.text(post.Excerpt)
		w.raw("</p>\n")
	}
	w.component(TagPills(post.Tags, ""))
	w.raw("</article>\n")
}

// Post renders one article with its table of contents.
func Post(p PostPage) templ.Component {
	meta := PageMeta{
		Title:       p.Post.Title,
		Description: p.Post.Excerpt,
		URL:         buildURL(p.Site.URL, "posts", p.Post.Slug),
		OGType:      "article",
	}
	return page(p.Site, meta, BlogPostingJsonLD(p.Site, p.Post), func(w *writer) {
		w.raw(`<article class="post">` + "\n<h1>")
		w.text(p.Post.Title)
		w.raw("</h1>\n<p class=\"post-date\">")
		w.text(FormatDate(p.Post.PublishedAt))
		w.raw("</p>\n")
		w.component(TagPills(p.Post.Tags, ""))
		if p.CanWrite {
			w.raw(`<p class="post-actions"><a`)
			w.attr("href", "/editor/"+p.Post.Slug+"/")
			w.raw(">Edit</a></p>\n")
		}
		if len(p.Body.TOC) > 0 {
			w.raw(`<nav class="toc" aria-label="Table of contents"><ol>`)
			for _, h := range p.Body.TOC {
				w.raw(`<li class="toc-level-` + strconv.Itoa(h.Level) + `"><a`)
				w.attr("href", "#"+h.ID)
				w.raw(">")
				w.text(h.Text)
				w.raw("</a></li>")
			}
			w.raw("</ol></nav>\n")
		}
		w.raw(`<div class="mdx-body">` + "\n")
		w.component(p.Body.Component())
		w.raw("</div>\n</article>\n")
		if len(p.Related) > 0 {
			w.raw(`<aside class="related"><h2>Related posts</h2><ul>`)
			for _, r := range p.Related {
				w.raw("<li><a")
				w.attr("href", PostURL(r.Slug))
				w.raw(">")
				w.text(r.Title)
				w.raw("</a></li>")
			}
			w.raw("</ul></aside>\n")
		}
	})
}

// Editor is the post form bound to the live preview script.
func Editor(p EditorPage) templ.Component {
	var post content.Post
	title := "New post"
	if p.Post != nil {
		post = *p.Post
		title = "Edit " + post.Title
	}
	return page(p.Site, PageMeta{Title: title}, "", func(w *writer) {
		w.raw(`<section class="editor"><h1>`)
		w.text(title)
		w.raw("</h1>\n<form id=\"post-form\" class=\"editor-form\" novalidate")
		w.attr("data-slug", post.Slug)
		w.attr("data-csrf", p.CSRFToken)
		w.raw(">\n")

		w.raw(`<label>Title <input name="title" required minlength="3"`)
		w.attr("value", post.Title)
		w.raw("></label>\n")
		w.raw(`<label>Slug <input name="slug"`)
		w.attr("value", post.Slug)
		if post.Slug != "" {
			w.attr("data-touched", "true")
		}
		w.raw("></label>\n")
		w.raw(`<label>Excerpt <input name="excerpt"`)
		w.attr("value", post.Excerpt)
		w.raw("></label>\n")
		w.raw(`<label>Tags <input name="tags" list="known-tags" placeholder="go, mdx"`)
		w.attr("value", JoinTags(post.Tags))
		w.raw("></label>\n<datalist id=\"known-tags\">")
		for _, t := range p.Tags {
			w.raw("<option")
			w.attr("value", t.Name)
			w.raw(">")
		}
		w.raw("</datalist>\n")
		w.raw(`<label>Content <textarea name="content" rows="24" spellcheck="false">`)
		w.text(post.Content)
		w.raw("</textarea></label>\n")
		w.raw(`<label class="checkbox"><input type="checkbox" name="published"`)
		if post.Published {
			w.raw(" checked")
		}
		w.raw("> Published</label>\n")
		w.raw(`<p class="form-errors" id="form-errors" role="alert" hidden></p>` + "\n")
		w.raw(`<button type="submit">Save</button>` + "\n")
		w.raw("</form>\n")

		w.raw(`<div class="preview" aria-live="polite"><p class="preview-error" id="preview-error" role="alert" hidden></p><div class="mdx-body" id="preview"`)
		w.attr("data-placeholder", p.Placeholder)
		w.raw("><p class=\"preview-placeholder\">")
		w.text(p.Placeholder)
		w.raw("</p></div></div>\n</section>\n")
		w.raw(`<script src="/public/editor.js" defer></script>` + "\n")
	})
}

// Login is the editor password form.
func Login(p LoginPage) templ.Component {
	return page(p.Site, PageMeta{Title: "Editor login"}, "", func(w *writer) {
		w.raw(`<section class="login"><h1>Editor login</h1>` + "\n")
		if !p.Enabled {
			w.raw(`<p>Editor login is disabled. Set EDITOR_PASSWORD to enable it.</p>` + "\n</section>\n")
			return
		}
		if p.Failed {
			w.raw(`<p class="form-errors" role="alert">Wrong password.</p>` + "\n")
		}
		w.raw(`<form method="post" action="/admin/login/"><input type="hidden" name="_csrf"`)
		w.attr("value", p.CSRFToken)
		w.raw(">\n<label>Password <input type=\"password\" name=\"password\" autocomplete=\"current-password\" required></label>\n")
		w.raw("<button type=\"submit\">Log in</button>\n</form>\n</section>\n")
	})
}

// NotFound is the 404 page.
func NotFound() templ.Component {
	return page(Site{Name: "Not found"}, PageMeta{}, "", func(w *writer) {
		w.raw(`<section class="error-page"><h1>Page not found</h1><p><a href="/">Back to the feed</a></p></section>` + "\n")
	})
}

// ServerError is the 500 page.
func ServerError() templ.Component {
	return page(Site{Name: "Error"}, PageMeta{}, "", func(w *writer) {
		w.raw(`<section class="error-page"><h1>Something went wrong</h1><p>The page could not be rendered. <a href="/">Back to the feed</a></p></section>` + "\n")
	})
}
