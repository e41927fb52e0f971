package mdxpress

import (
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/eringen/mdxpress/content"
)

// SiteConfig holds all configuration for an mdxpress site.
type SiteConfig struct {
	Name        string // Site name (default "MDX Press")
	URL         string // Canonical URL (default "http://localhost:3000")
	Description string // Site description for RSS and meta tags

	Addr        string // Listen address (default ":3000")
	DatabaseURL string // postgres://, postgresql://, sqlite: or file:. Empty runs the read-only demo store.

	SessionSecret  string // Required: session encryption secret
	EditorPassword string // Enables editor login when set
	RequireAuth    bool   // Writes, uploads and drafts require a logged-in editor
	CookieSecure   bool   // Set true for HTTPS

	LogLevel  string // debug, info, warn, error or off (default "info")
	UploadDir string // Image upload directory (default "public/uploads")

	PreviewIdleTimeout time.Duration // Idle preview sessions are dropped after this (default 30min)
	CompileTimeout     time.Duration // Upper bound for one preview compile (default 5s)
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "MDX Press"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.UploadDir == "" {
		c.UploadDir = filepath.Join("public", "uploads")
	}
	if c.PreviewIdleTimeout == 0 {
		c.PreviewIdleTimeout = 30 * time.Minute
	}
	if c.CompileTimeout == 0 {
		c.CompileTimeout = 5 * time.Second
	}
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback receives the App after the built-in routes are registered.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithStaticDir sets the directory for user-owned static assets (default "public").
func WithStaticDir(dir string) Option {
	return func(a *App) {
		a.staticDir = dir
	}
}

// WithAuthenticator replaces the cookie-session authenticator.
func WithAuthenticator(auth Authenticator) Option {
	return func(a *App) {
		a.Auth = auth
	}
}

// WithRepository makes the store persistent over repo instead of opening
// Config.DatabaseURL.
func WithRepository(repo content.Repository) Option {
	return func(a *App) {
		a.repo = repo
	}
}

// WithRegistry collects metrics into reg instead of a fresh registry.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(a *App) {
		a.Registry = reg
	}
}

// WithClock replaces the clock used for demo data and stored timestamps.
func WithClock(now func() time.Time) Option {
	return func(a *App) {
		a.now = now
	}
}
