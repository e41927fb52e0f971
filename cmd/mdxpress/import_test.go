package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/mdxpress/content"
)

func newImportService(t *testing.T) *content.Service {
	t.Helper()
	db, err := content.OpenDatabase("sqlite:"+filepath.Join(t.TempDir(), "import.db"), nil)
	require.NoError(t, err)
	repo := content.NewGormRepository(db)
	t.Cleanup(func() { repo.Close() })
	require.NoError(t, repo.EnsureSchema(context.Background()))
	return content.NewService(repo, nil)
}

func writeFile(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

func TestParsePost(t *testing.T) {
	src := []byte("---\ntitle: Hello MDX\ntags: go, mdx, \nexcerpt: Short\n---\n\n# Hi\n")
	p, err := parsePost("posts/Hello World.mdx", src)
	require.NoError(t, err)

	assert.Equal(t, "Hello MDX", p.Title)
	require.NotNil(t, p.Slug)
	assert.Equal(t, "hello-world", *p.Slug)
	assert.Equal(t, []string{"go", "mdx"}, p.Tags)
	require.NotNil(t, p.Excerpt)
	assert.Equal(t, "Short", *p.Excerpt)
	assert.Equal(t, "# Hi", p.Content)
	assert.True(t, p.Published)
}

func TestParsePostTagSequenceAndDraft(t *testing.T) {
	src := []byte("---\ntitle: Draft\nslug: custom\ntags:\n  - One\n  - Two\ndraft: true\n---\nbody\n")
	p, err := parsePost("x.md", src)
	require.NoError(t, err)

	assert.Equal(t, "custom", *p.Slug)
	assert.Equal(t, []string{"One", "Two"}, p.Tags)
	assert.False(t, p.Published)
	assert.Nil(t, p.Excerpt)
}

func TestImportDirCreatesThenUpdates(t *testing.T) {
	ctx := context.Background()
	svc := newImportService(t)
	dir := t.TempDir()
	writeFile(t, dir, "first.mdx", "---\ntitle: First post\ntags: [go]\n---\nHello\n")
	writeFile(t, dir, "second.md", "---\ntitle: Second post\ndraft: true\n---\nWorld\n")
	writeFile(t, dir, "notes.txt", "ignored")

	var out bytes.Buffer
	stats, err := importDir(ctx, svc, dir, &out)
	require.NoError(t, err)
	assert.Equal(t, importStats{Created: 2}, stats)
	assert.Contains(t, out.String(), "/posts/first/")

	post, err := svc.GetBySlug(ctx, "second", true)
	require.NoError(t, err)
	assert.False(t, post.Published)
	assert.Nil(t, post.PublishedAt)

	writeFile(t, dir, "first.mdx", "---\ntitle: First post, revised\n---\nHello again\n")
	stats, err = importDir(ctx, svc, dir, &out)
	require.NoError(t, err)
	assert.Equal(t, importStats{Updated: 2}, stats)

	post, err = svc.GetBySlug(ctx, "first", false)
	require.NoError(t, err)
	assert.Equal(t, "First post, revised", post.Title)
	assert.Empty(t, post.Tags)
}

func TestImportDirSkipsInvalidFiles(t *testing.T) {
	ctx := context.Background()
	svc := newImportService(t)
	dir := t.TempDir()
	writeFile(t, dir, "empty.mdx", "---\ntitle: No body\n---\n")
	writeFile(t, dir, "good.mdx", "---\ntitle: Good post\n---\nText\n")

	var out bytes.Buffer
	stats, err := importDir(ctx, svc, dir, &out)
	require.Error(t, err)
	assert.True(t, content.IsValidation(err))
	assert.Equal(t, importStats{Created: 1, Failed: 1}, stats)
	assert.Contains(t, out.String(), "failed   "+filepath.Join(dir, "empty.mdx"))
}

func TestImportDirInDemoMode(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.mdx", "---\ntitle: Alpha\n---\nText\n")

	_, err := importDir(context.Background(), content.NewService(nil, nil), dir, &bytes.Buffer{})
	assert.ErrorIs(t, err, content.ErrConfiguration)
}
