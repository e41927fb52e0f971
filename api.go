package mdxpress

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"

	"github.com/eringen/mdxpress/content"
	"github.com/eringen/mdxpress/preview"
)

// apiError is the JSON error body. Details maps field paths to messages.
type apiError struct {
	Error   string            `json:"error"`
	Details map[string]string `json:"details,omitempty"`
}

// postResponse wraps a single post.
type postResponse struct {
	Post content.Post `json:"post"`
}

func isAPI(c echo.Context) bool {
	return strings.HasPrefix(c.Request().URL.Path, "/api/")
}

// apiErrorHandler maps store and transport errors onto JSON responses.
func (a *App) apiErrorHandler(err error, c echo.Context) {
	var (
		status = http.StatusInternalServerError
		body   = apiError{Error: "Internal server error."}
		ve     *content.ValidationError
		ce     *content.ConfigError
		he     *echo.HTTPError
	)
	switch {
	case errors.As(err, &ve):
		status, body = http.StatusBadRequest, apiError{Error: "Invalid post payload.", Details: ve.Fields}
	case errors.Is(err, content.ErrNotFound):
		status, body = http.StatusNotFound, apiError{Error: "Post not found."}
	case errors.Is(err, content.ErrSlugTaken):
		status, body = http.StatusConflict, apiError{Error: "A post with this slug already exists."}
	case errors.As(err, &ce):
		body = apiError{Error: ce.Error()}
	case errors.As(err, &he):
		status = he.Code
		body = apiError{Error: http.StatusText(he.Code)}
		if msg, ok := he.Message.(string); ok {
			body.Error = msg
		}
	case errors.Is(err, content.ErrBackend):
		// Logged by the store with full detail.
	default:
		c.Logger().Errorj(map[string]any{"event": "api.error", "path": c.Request().URL.Path, "error": err.Error()})
	}
	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(status)
		return
	}
	_ = c.JSON(status, body)
}

func (a *App) requireWriter(c echo.Context) error {
	if !a.canWrite(c) {
		return echo.NewHTTPError(http.StatusUnauthorized, "Log in as an editor to change posts.")
	}
	return nil
}

func (a *App) handleHealth(c echo.Context) error {
	out := map[string]any{"status": "ok", "mode": a.Content.Mode()}
	if p, ok := a.repo.(interface{ Ping(context.Context) error }); ok {
		if err := p.Ping(c.Request().Context()); err != nil {
			out["status"] = "degraded"
			out["database"] = "unreachable"
			return c.JSON(http.StatusServiceUnavailable, out)
		}
		out["database"] = "ok"
	}
	return c.JSON(http.StatusOK, out)
}

func (a *App) handleListPosts(c echo.Context) error {
	opts := content.ListOptions{
		Tag:           c.QueryParam("tag"),
		IncludeDrafts: a.wantsDrafts(c),
	}
	posts, err := a.Content.List(c.Request().Context(), opts)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"posts": posts})
}

// wantsDrafts honors includeDrafts only for callers who can edit.
func (a *App) wantsDrafts(c echo.Context) bool {
	include, _ := strconv.ParseBool(c.QueryParam("includeDrafts"))
	return include && a.canWrite(c)
}

func (a *App) handleGetPost(c echo.Context) error {
	post, err := a.Content.GetBySlug(c.Request().Context(), c.Param("slug"), a.wantsDrafts(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, postResponse{Post: post})
}

func (a *App) handleCreatePost(c echo.Context) error {
	if err := a.requireWriter(c); err != nil {
		return err
	}
	var payload content.CreatePayload
	if err := c.Bind(&payload); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Request body must be a JSON post.")
	}
	post, err := a.Content.Create(c.Request().Context(), payload)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, postResponse{Post: post})
}

func (a *App) handleUpdatePost(c echo.Context) error {
	if err := a.requireWriter(c); err != nil {
		return err
	}
	var payload content.UpdatePayload
	if err := (&echo.DefaultBinder{}).BindBody(c, &payload); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Request body must be a JSON post.")
	}
	post, err := a.Content.Update(c.Request().Context(), c.Param("slug"), payload)
	if err != nil {
		return err
	}
	a.Documents.Invalidate(c.Param("slug"))
	return c.JSON(http.StatusOK, postResponse{Post: post})
}

func (a *App) handleDeletePost(c echo.Context) error {
	if err := a.requireWriter(c); err != nil {
		return err
	}
	if err := a.Content.Delete(c.Request().Context(), c.Param("slug")); err != nil {
		return err
	}
	a.Documents.Invalidate(c.Param("slug"))
	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}

func (a *App) handleListTags(c echo.Context) error {
	tags, err := a.Content.ListTags(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"tags": tags})
}

type previewRequest struct {
	Source string `json:"source"`
	Seq    uint64 `json:"seq"`
}

type previewResponse struct {
	preview.View
	ClientSeq uint64 `json:"clientSeq"`
	Stale     bool   `json:"stale"`
}

const previewSessionKey = "preview_id"

// previewSessionID returns the caller's preview id, minting one on first use.
func previewSessionID(c echo.Context) (string, error) {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return "", err
	}
	if id, ok := sess.Values[previewSessionKey].(string); ok && id != "" {
		return id, nil
	}
	id := uuid.NewString()
	sess.Values[previewSessionKey] = id
	if err := sess.Save(c.Request(), c.Response()); err != nil {
		return "", err
	}
	return id, nil
}

func (a *App) handlePreview(c echo.Context) error {
	var req previewRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Request body must be {\"source\", \"seq\"}.")
	}
	id, err := previewSessionID(c)
	if err != nil {
		return err
	}

	s := a.Previews.Session(id)
	ticket, err := s.Update(req.Source)
	if errors.Is(err, preview.ErrClosed) {
		// Evicted between lookup and update; the hub hands out a fresh one.
		s = a.Previews.Session(id)
		ticket, err = s.Update(req.Source)
	}
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), a.Config.CompileTimeout+time.Second)
	defer cancel()
	view, err := s.Await(ctx, ticket)
	if err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Preview did not finish in time.")
	}

	stale := ticket.Stale(view)
	if !stale {
		a.metrics.previewServed(string(view.State))
		if view.State == preview.StateFailed {
			a.metrics.renderFailed("preview")
		}
	}
	return c.JSON(http.StatusOK, previewResponse{View: view, ClientSeq: req.Seq, Stale: stale})
}
