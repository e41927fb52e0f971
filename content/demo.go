package content

import "time"

// DemoPosts returns the fixed dataset served in demo mode and used by the
// seed command. Publication times are spaced a day apart ending at now.
func DemoPosts(now time.Time) []Post {
	at := func(daysAgo int) *time.Time {
		t := now.Add(-time.Duration(daysAgo) * 24 * time.Hour).UTC()
		return &t
	}
	posts := []Post{
		{
			ID:      "00000000-0000-4000-8000-000000000001",
			Title:   "Server-rendered MDX with goldmark",
			Slug:    "server-rendered-mdx-goldmark",
			Excerpt: "A fixed render pipeline for MDX: GFM extensions, heading ids and autolinked headings, compiled on every request.",
			Content: "# Server-rendered MDX\n\n" +
				"Every post is compiled while the page is generated. The pipeline is fixed and runs in order:\n\n" +
				"- GitHub-flavored markdown: tables, task lists, strikethrough and autolinks.\n" +
				"- Heading ids so every section can be linked.\n" +
				"- An anchor inside each heading pointing at its own id.\n\n" +
				"## Failure is loud\n\n" +
				"A post that does not compile aborts its own page. Nothing half-rendered reaches a reader.\n\n" +
				"### Rendering a post\n\n" +
				"```go\n" +
				"doc, err := renderer.Render(ctx, post.Content)\n" +
				"if err != nil {\n" +
				"\treturn err\n" +
				"}\n" +
				"```\n",
			Published:   true,
			PublishedAt: at(0),
			Tags: []Tag{
				{ID: "00000000-0000-4000-9000-000000000001", Name: "MDX", Slug: "mdx"},
				{ID: "00000000-0000-4000-9000-000000000002", Name: "Go", Slug: "go"},
				{ID: "00000000-0000-4000-9000-000000000003", Name: "Performance", Slug: "performance"},
			},
		},
		{
			ID:      "00000000-0000-4000-8000-000000000002",
			Title:   "MDX as the single source of documentation",
			Slug:    "mdx-single-source-docs",
			Excerpt: "MDX keeps prose and components together. Guides, changelogs and demos ship through the same channel.",
			Content: "# MDX without friction\n\n" +
				"Mix markdown with components to document products or write interactive tutorials.\n\n" +
				"- Tables, task lists and footnote-style references come from GFM.\n" +
				"- Components such as <TagPill label=\"beta\" /> highlight state inline.\n" +
				"- Content is versioned next to the code.\n\n" +
				"## Component block\n\n" +
				"<Callout type=\"note\">\n" +
				"Keep examples reproducible and the technical density high.\n" +
				"</Callout>\n",
			Published:   true,
			PublishedAt: at(1),
			Tags: []Tag{
				{ID: "00000000-0000-4000-9000-000000000001", Name: "MDX", Slug: "mdx"},
				{ID: "00000000-0000-4000-9000-000000000005", Name: "Docs", Slug: "docs"},
				{ID: "00000000-0000-4000-9000-000000000006", Name: "DX", Slug: "dx"},
			},
		},
		{
			ID:      "00000000-0000-4000-8000-000000000003",
			Title:   "gorm and PostgreSQL ready for production",
			Slug:    "gorm-postgresql-production",
			Excerpt: "A minimal setup for consistent schemas, safe migrations and reproducible seeds.",
			Content: "# gorm in earnest\n\n" +
				"Define the models, migrate the schema and seed environments idempotently.\n\n" +
				"## Key steps\n\n" +
				"1. Point `DATABASE_URL` at your cluster.\n" +
				"2. Run `mdxpress seed` once per environment.\n" +
				"3. Watch the connection pool under load.\n\n" +
				"### Listing posts\n\n" +
				"```go\n" +
				"db.Where(\"published = ?\", true).\n" +
				"\tPreload(\"Tags\").\n" +
				"\tOrder(\"published_at DESC\").\n" +
				"\tFind(&posts)\n" +
				"```\n",
			Published:   true,
			PublishedAt: at(2),
			Tags: []Tag{
				{ID: "00000000-0000-4000-9000-000000000007", Name: "gorm", Slug: "gorm"},
				{ID: "00000000-0000-4000-9000-000000000008", Name: "PostgreSQL", Slug: "postgresql"},
				{ID: "00000000-0000-4000-9000-000000000009", Name: "Data", Slug: "data"},
			},
		},
		{
			ID:      "00000000-0000-4000-8000-000000000004",
			Title:   "Testing Go web handlers",
			Slug:    "testing-go-web-handlers",
			Excerpt: "Balancing fast unit tests with end-to-end checks of the HTTP surface using httptest.",
			Content: "# A testing strategy\n\n" +
				"Use table tests for pure logic and httptest for the routes that matter.\n\n" +
				"## A practical pyramid\n\n" +
				"- Units: slugs, validators and excerpts.\n" +
				"- Integration: the store against a throwaway SQLite file.\n" +
				"- End to end: the JSON API through echo.\n\n" +
				"### A unit test\n\n" +
				"```go\n" +
				"if got := slug.Normalize(\"¡Hola Mundo!\"); got != \"hola-mundo\" {\n" +
				"\tt.Fatalf(\"got %q\", got)\n" +
				"}\n" +
				"```\n",
			Published:   true,
			PublishedAt: at(3),
			Tags: []Tag{
				{ID: "00000000-0000-4000-9000-000000000010", Name: "Testing", Slug: "testing"},
				{ID: "00000000-0000-4000-9000-000000000002", Name: "Go", Slug: "go"},
			},
		},
	}
	for i := range posts {
		posts[i].CreatedAt = *posts[i].PublishedAt
		posts[i].UpdatedAt = *posts[i].PublishedAt
	}
	return posts
}
