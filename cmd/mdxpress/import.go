package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/adrg/frontmatter"

	"github.com/eringen/mdxpress"
	"github.com/eringen/mdxpress/content"
	"github.com/eringen/mdxpress/slug"
)

// postMatter is the YAML front matter of an imported post.
type postMatter struct {
	Title   string  `yaml:"title"`
	Slug    string  `yaml:"slug"`
	Excerpt string  `yaml:"excerpt"`
	Tags    tagList `yaml:"tags"`
	Draft   bool    `yaml:"draft"`
}

// tagList accepts either a YAML sequence or a comma separated string.
type tagList []string

func (t *tagList) UnmarshalYAML(unmarshal func(any) error) error {
	var list []string
	if err := unmarshal(&list); err == nil {
		*t = list
		return nil
	}
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	*t = mdxpress.SplitTags(s)
	return nil
}

type importStats struct {
	Created int
	Updated int
	Failed  int
}

// parsePost turns one source file into a save payload. The slug falls back
// to the file name and the title to the slug.
func parsePost(name string, src []byte) (content.CreatePayload, error) {
	var meta postMatter
	body, err := frontmatter.Parse(bytes.NewReader(src), &meta)
	if err != nil {
		return content.CreatePayload{}, fmt.Errorf("parse front matter: %w", err)
	}

	postSlug := strings.TrimSpace(meta.Slug)
	if postSlug == "" {
		postSlug = slug.Normalize(strings.TrimSuffix(filepath.Base(name), filepath.Ext(name)))
	}
	title := strings.TrimSpace(meta.Title)
	if title == "" {
		title = postSlug
	}
	p := content.CreatePayload{
		Title:     title,
		Slug:      &postSlug,
		Content:   strings.TrimSpace(string(body)),
		Tags:      mdxpress.FilterEmpty(meta.Tags),
		Published: !meta.Draft,
	}
	if ex := strings.TrimSpace(meta.Excerpt); ex != "" {
		p.Excerpt = &ex
	}
	return p, nil
}

// importDir saves every .mdx and .md file under dir. A bad file is reported
// and skipped; the returned error joins all failures.
func importDir(ctx context.Context, svc *content.Service, dir string, out io.Writer) (importStats, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".mdx", ".md":
			if !d.IsDir() {
				files = append(files, path)
			}
		}
		return nil
	})
	if err != nil {
		return importStats{}, fmt.Errorf("read %s: %w", dir, err)
	}
	sort.Strings(files)

	var stats importStats
	var errs []error
	for _, path := range files {
		post, created, err := importFile(ctx, svc, path)
		if err != nil {
			var ce *content.ConfigError
			if errors.As(err, &ce) {
				return stats, err
			}
			stats.Failed++
			errs = append(errs, fmt.Errorf("%s: %w", path, err))
			fmt.Fprintf(out, "failed   %s: %v\n", path, err)
			continue
		}
		if created {
			stats.Created++
			fmt.Fprintf(out, "created  %s -> /posts/%s/\n", path, post.Slug)
		} else {
			stats.Updated++
			fmt.Fprintf(out, "updated  %s -> /posts/%s/\n", path, post.Slug)
		}
	}
	return stats, errors.Join(errs...)
}

func importFile(ctx context.Context, svc *content.Service, path string) (content.Post, bool, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return content.Post{}, false, err
	}
	payload, err := parsePost(path, src)
	if err != nil {
		return content.Post{}, false, err
	}
	return svc.Save(ctx, payload)
}
