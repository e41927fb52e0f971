package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/gommon/log"

	"github.com/eringen/mdxpress"
	"github.com/eringen/mdxpress/content"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe()
	case "seed":
		err = runSeed()
	case "import":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "Usage: mdxpress import <dir>")
			os.Exit(1)
		}
		err = runImport(os.Args[2])
	case "version":
		fmt.Printf("mdxpress %s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`mdxpress - An MDX blog built with Go, Echo, goldmark and templ

Usage:
  mdxpress <command> [arguments]

Commands:
  serve         Start the web server
  seed          Upsert the demo posts into DATABASE_URL
  import <dir>  Create or update posts from .mdx/.md files with front matter
  version       Print the mdxpress version
  help          Show this help message

Environment:
  DATABASE_URL      postgres://..., sqlite:<path> or file:<path>; unset runs the read-only demo
  SESSION_SECRET    required by serve
  EDITOR_PASSWORD   enables editor login
  REQUIRE_AUTH      writes need a logged-in editor
  SITE_NAME, SITE_URL, SITE_DESCRIPTION, ADDR, COOKIE_SECURE, LOG_LEVEL, UPLOAD_DIR`)
}

func configFromEnv() mdxpress.SiteConfig {
	return mdxpress.SiteConfig{
		Name:           os.Getenv("SITE_NAME"),
		URL:            os.Getenv("SITE_URL"),
		Description:    mdxpress.EnvOr("SITE_DESCRIPTION", "Posts written in MDX."),
		Addr:           os.Getenv("ADDR"),
		DatabaseURL:    os.Getenv(content.DatabaseURLSetting),
		SessionSecret:  os.Getenv("SESSION_SECRET"),
		EditorPassword: os.Getenv("EDITOR_PASSWORD"),
		RequireAuth:    mdxpress.EnvBool("REQUIRE_AUTH"),
		CookieSecure:   mdxpress.EnvBool("COOKIE_SECURE"),
		LogLevel:       os.Getenv("LOG_LEVEL"),
		UploadDir:      os.Getenv("UPLOAD_DIR"),
	}
}

func runServe() error {
	cfg := configFromEnv()
	cfg.SessionSecret = mdxpress.MustEnv("SESSION_SECRET")

	app := mdxpress.New(cfg, mdxpress.ViewFuncs{})
	defer app.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() { errc <- app.Start() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.Echo.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// openService builds a content service over DATABASE_URL. Without one the
// service runs in demo mode and rejects writes.
func openService(ctx context.Context) (*content.Service, func(), error) {
	logger := log.New("mdxpress")
	logger.SetLevel(log.INFO)

	dsn := os.Getenv(content.DatabaseURLSetting)
	if dsn == "" {
		return content.NewService(nil, nil, content.WithLogger(logger)), func() {}, nil
	}
	db, err := content.OpenDatabase(dsn, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	repo := content.NewGormRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		repo.Close()
		return nil, nil, fmt.Errorf("ensure schema: %w", err)
	}
	return content.NewService(repo, nil, content.WithLogger(logger)), func() { repo.Close() }, nil
}

func runSeed() error {
	ctx := context.Background()
	svc, closeFn, err := openService(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	created, updated, err := svc.Seed(ctx, content.DemoPosts(time.Now().UTC()))
	if err != nil {
		var ce *content.ConfigError
		if errors.As(err, &ce) {
			return fmt.Errorf("%s is not set; nothing to seed", content.DatabaseURLSetting)
		}
		return err
	}
	fmt.Printf("Seeded %d posts (%d created, %d updated)\n", created+updated, created, updated)
	return nil
}

func runImport(dir string) error {
	ctx := context.Background()
	svc, closeFn, err := openService(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	stats, err := importDir(ctx, svc, dir, os.Stdout)
	fmt.Printf("Imported %d files (%d created, %d updated, %d failed)\n",
		stats.Created+stats.Updated+stats.Failed, stats.Created, stats.Updated, stats.Failed)
	return err
}
