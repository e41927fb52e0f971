// Package mdxpress is an MDX blog built with Go, Echo, goldmark and templ.
// It serves a post feed, server-rendered MDX posts, a JSON posts API and an
// editor with live preview. Without a database it serves a read-only demo.
//
// Views are plain templ components supplied through ViewFuncs, so sites can
// replace any page while mdxpress keeps the handler logic, middleware and
// storage.
package mdxpress

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/a-h/templ"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/eringen/mdxpress/content"
	"github.com/eringen/mdxpress/mdx"
	"github.com/eringen/mdxpress/preview"
	"github.com/eringen/mdxpress/views"
)

// ViewFuncs holds the templ components rendered for each page.
type ViewFuncs struct {
	Feed        func(page views.FeedPage) templ.Component
	Post        func(page views.PostPage) templ.Component
	Editor      func(page views.EditorPage) templ.Component
	Login       func(page views.LoginPage) templ.Component
	NotFound    func() templ.Component
	ServerError func() templ.Component
}

// DefaultViews returns the built-in pages.
func DefaultViews() ViewFuncs {
	return ViewFuncs{
		Feed:        views.Feed,
		Post:        views.Post,
		Editor:      views.Editor,
		Login:       views.Login,
		NotFound:    views.NotFound,
		ServerError: views.ServerError,
	}
}

// App is the central mdxpress application. It wires together the content
// store, renderers, handlers, middleware and views.
type App struct {
	Config    SiteConfig
	Echo      *echo.Echo
	Content   *content.Service
	Renderer  *mdx.Renderer
	Documents *DocumentCache
	Previews  *preview.Hub
	Auth      Authenticator
	Views     ViewFuncs
	Registry  *prometheus.Registry

	repo         content.Repository
	db           *content.GormRepository
	loginLimiter *LoginLimiter
	metrics      *metrics
	customRoutes []func(*App)
	staticDir    string
	now          func() time.Time
}

// New creates an App with the given configuration and views. Zero-valued
// view funcs fall back to DefaultViews.
func New(cfg SiteConfig, v ViewFuncs, opts ...Option) *App {
	cfg.setDefaults()

	a := &App{
		Config:    cfg,
		Echo:      echo.New(),
		Views:     withDefaultViews(v),
		Auth:      SessionAuth{},
		staticDir: "public",
		now:       func() time.Time { return time.Now().UTC() },
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

func withDefaultViews(v ViewFuncs) ViewFuncs {
	d := DefaultViews()
	if v.Feed == nil {
		v.Feed = d.Feed
	}
	if v.Post == nil {
		v.Post = d.Post
	}
	if v.Editor == nil {
		v.Editor = d.Editor
	}
	if v.Login == nil {
		v.Login = d.Login
	}
	if v.NotFound == nil {
		v.NotFound = d.NotFound
	}
	if v.ServerError == nil {
		v.ServerError = d.ServerError
	}
	return v
}

// Init opens the content store and registers middleware and routes. The
// store mode is decided here, once.
func (a *App) Init(ctx context.Context) error {
	if a.Config.SessionSecret == "" {
		return fmt.Errorf("mdxpress: SessionSecret is required")
	}

	a.Echo.HideBanner = true
	a.Echo.Logger.SetLevel(parseLogLevel(a.Config.LogLevel))

	if a.Registry == nil {
		a.Registry = prometheus.NewRegistry()
	}
	a.metrics = newMetrics(a.Registry)

	if a.repo == nil && a.Config.DatabaseURL != "" {
		db, err := content.OpenDatabase(a.Config.DatabaseURL, a.Echo.Logger)
		if err != nil {
			return fmt.Errorf("mdxpress: open database: %w", err)
		}
		a.db = content.NewGormRepository(db)
		// An unreachable database still selects persistent mode: reads fall
		// back to the snapshot and the schema is retried on the next call.
		if err := a.db.EnsureSchema(ctx); err != nil {
			a.Echo.Logger.Warnj(map[string]any{
				"event":    "content.schema_pending",
				"database": content.RedactDSN(a.Config.DatabaseURL),
				"error":    err.Error(),
			})
		}
		a.repo = a.db
	}

	a.Content = content.NewService(a.repo, content.NewSnapshot(content.DemoPosts(a.now())),
		content.WithLogger(a.Echo.Logger),
		content.WithClock(a.now),
		content.WithFallbackHook(a.metrics.readFallback),
	)
	a.metrics.setMode(a.Content.Mode())
	a.Echo.Logger.Infoj(map[string]any{
		"event":    "content.mode",
		"mode":     string(a.Content.Mode()),
		"database": content.RedactDSN(a.Config.DatabaseURL),
	})

	a.Renderer = mdx.New()
	a.Documents = NewDocumentCache(a.Renderer, 10*time.Minute)
	a.Previews = preview.NewHub(a.Renderer,
		preview.WithIdleTimeout(a.Config.PreviewIdleTimeout),
		preview.WithCompileTimeout(a.Config.CompileTimeout),
	)
	a.loginLimiter = NewLoginLimiter(5, time.Minute)

	a.setupMiddleware()
	a.setupRoutes()

	for _, fn := range a.customRoutes {
		fn(a)
	}
	return nil
}

// Start initializes the app and starts the server.
func (a *App) Start() error {
	if err := a.Init(context.Background()); err != nil {
		return err
	}
	if err := a.Echo.Start(a.Config.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (a *App) setupRoutes() {
	e := a.Echo

	// Embedded editor script and MDX stylesheet, served ahead of the user's static dir.
	embeddedFS, _ := fs.Sub(EmbeddedAssets, "embedded")
	embeddedHandler := http.FileServer(http.FS(embeddedFS))
	e.GET("/public/editor.js", echo.WrapHandler(http.StripPrefix("/public/", embeddedHandler)))
	e.GET("/public/mdx.css", echo.WrapHandler(http.StripPrefix("/public/", embeddedHandler)))

	e.Static("/public", a.staticDir)
	e.Static("/uploads", a.Config.UploadDir)

	// Public pages
	e.GET("/", a.handleHome)
	e.GET("/posts/:slug/", a.handlePost)
	e.GET("/feed.xml", a.handleFeed)
	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: a.Registry}))

	// Editor
	e.GET("/editor/", a.handleEditor)
	e.GET("/editor/:slug/", a.handleEditor)
	e.GET("/admin/login/", a.handleLoginPage)
	e.POST("/admin/login/", a.handleLogin)
	e.POST("/admin/logout/", handleLogout)

	// JSON API
	api := e.Group("/api")
	api.GET("/health", a.handleHealth)
	api.GET("/posts", a.handleListPosts)
	api.POST("/posts", a.handleCreatePost, requireJSON)
	api.GET("/posts/:slug", a.handleGetPost)
	api.PUT("/posts/:slug", a.handleUpdatePost, requireJSON)
	api.DELETE("/posts/:slug", a.handleDeletePost)
	api.GET("/tags", a.handleListTags)
	api.POST("/preview", a.handlePreview, requireJSON)
	api.POST("/uploads", a.handleUpload)
}

// Close cleans up resources. Call this when the app is shutting down.
func (a *App) Close() error {
	if a.Previews != nil {
		a.Previews.Close()
	}
	if a.loginLimiter != nil {
		a.loginLimiter.Stop()
	}
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}

// EnvOr returns the value of the environment variable key, or fallback if empty.
func EnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// MustEnv returns the value of the environment variable key, or fatally exits if empty.
func MustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		log.Fatalf("mdxpress: required environment variable %s is not set", key)
	}
	return v
}

// EnvBool reports whether key is set to a true value such as "1" or "true".
func EnvBool(key string) bool {
	switch strings.ToLower(os.Getenv(key)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
