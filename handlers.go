package mdxpress

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/eringen/mdxpress/content"
	"github.com/eringen/mdxpress/preview"
	"github.com/eringen/mdxpress/slug"
	"github.com/eringen/mdxpress/views"
)

func (a *App) siteMeta() views.Site {
	return views.Site{
		Name:        a.Config.Name,
		URL:         a.Config.URL,
		Description: a.Config.Description,
		Mode:        a.Content.Mode(),
	}
}

func (a *App) handleHome(c echo.Context) error {
	ctx := c.Request().Context()
	tag := slug.Normalize(c.QueryParam("tag"))
	posts, err := a.Content.List(ctx, content.ListOptions{Tag: tag})
	if err != nil {
		return err
	}
	tags, err := a.Content.ListTags(ctx)
	if err != nil {
		return err
	}
	return Render(c, a.Views.Feed(views.FeedPage{
		Site:      a.siteMeta(),
		Posts:     posts,
		Tags:      tags,
		ActiveTag: tag,
		CanWrite:  a.canWrite(c),
	}))
}

func (a *App) handlePost(c echo.Context) error {
	ctx := c.Request().Context()
	post, err := a.Content.GetBySlug(ctx, c.Param("slug"), false)
	if errors.Is(err, content.ErrNotFound) {
		return RenderStatus(c, http.StatusNotFound, a.Views.NotFound())
	}
	if err != nil {
		return err
	}

	doc, err := a.Documents.Render(ctx, post)
	if err != nil {
		a.metrics.renderFailed("server")
		c.Logger().Errorj(map[string]any{
			"event": "mdx.render_failed",
			"slug":  post.Slug,
			"error": err.Error(),
		})
		return RenderStatus(c, http.StatusInternalServerError, a.Views.ServerError())
	}

	posts, err := a.Content.List(ctx, content.ListOptions{})
	if err != nil {
		return err
	}
	return Render(c, a.Views.Post(views.PostPage{
		Site:     a.siteMeta(),
		Post:     post,
		Body:     doc,
		Related:  views.FilterRelatedPosts(post, posts),
		CanWrite: a.canWrite(c),
	}))
}

func (a *App) handleEditor(c echo.Context) error {
	if !a.canWrite(c) {
		return c.Redirect(http.StatusSeeOther, "/admin/login/")
	}
	ctx := c.Request().Context()
	page := views.EditorPage{
		Site:        a.siteMeta(),
		CSRFToken:   CsrfToken(c),
		Placeholder: preview.Placeholder,
	}
	if s := c.Param("slug"); s != "" {
		post, err := a.Content.GetBySlug(ctx, s, true)
		if errors.Is(err, content.ErrNotFound) {
			return RenderStatus(c, http.StatusNotFound, a.Views.NotFound())
		}
		if err != nil {
			return err
		}
		page.Post = &post
	}
	tags, err := a.Content.ListTags(ctx)
	if err != nil {
		return err
	}
	page.Tags = tags
	return Render(c, a.Views.Editor(page))
}

func (a *App) handleSitemap(c echo.Context) error {
	posts, err := a.Content.List(c.Request().Context(), content.ListOptions{})
	if err != nil {
		return err
	}
	return a.renderSitemap(c, posts)
}

func (a *App) handleFeed(c echo.Context) error {
	posts, err := a.Content.List(c.Request().Context(), content.ListOptions{})
	if err != nil {
		return err
	}
	return a.renderRSS(c, posts)
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	if isAPI(c) {
		a.apiErrorHandler(err, c)
		return
	}
	var he *echo.HTTPError
	ok := errors.As(err, &he)
	if ok && he.Code == http.StatusNotFound {
		_ = RenderStatus(c, http.StatusNotFound, a.Views.NotFound())
		return
	}
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	if code >= 500 {
		c.Logger().Errorj(map[string]any{"event": "http.server_error", "path": c.Request().URL.Path, "error": err.Error()})
		_ = RenderStatus(c, code, a.Views.ServerError())
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}
