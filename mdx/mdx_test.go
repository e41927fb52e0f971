package mdx

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/yuin/goldmark/util"

	"github.com/eringen/mdxpress/content"
)

func render(t *testing.T, src string) Document {
	t.Helper()
	doc, err := New().Render(context.Background(), src)
	if err != nil {
		t.Fatalf("Render(%q) failed: %v", src, err)
	}
	return doc
}

func renderErr(t *testing.T, src string) *RenderError {
	t.Helper()
	_, err := New().Render(context.Background(), src)
	if err == nil {
		t.Fatalf("Render(%q) should fail", src)
	}
	var re *RenderError
	if !errors.As(err, &re) {
		t.Fatalf("Render(%q) error %T is not a *RenderError", src, err)
	}
	if !errors.Is(err, ErrRender) {
		t.Errorf("Render(%q) error should match ErrRender", src)
	}
	return re
}

func TestStagesAreFixed(t *testing.T) {
	want := []string{"gfm", "components", "heading-ids", "autolink-headings", "element-classes"}
	if got := New().Stages(); !reflect.DeepEqual(got, want) {
		t.Errorf("Stages() = %v, want %v", got, want)
	}
}

func TestRenderHeadingIDsAndAnchors(t *testing.T) {
	doc := render(t, "# Hello World\n\n## Hello World\n\n### Ça va?\n")
	wants := []string{
		`<h1 id="hello-world"><a aria-hidden="true" tabindex="-1" href="#hello-world"><span class="icon icon-link"></span></a>Hello World</h1>`,
		`<h2 id="hello-world-1">`,
		`<h3 id="ça-va">`,
	}
	for _, want := range wants {
		if !strings.Contains(doc.HTML, want) {
			t.Errorf("missing %q in:\n%s", want, doc.HTML)
		}
	}
}

func TestRenderTOC(t *testing.T) {
	doc := render(t, "# Intro\n\ntext\n\n## Setup `go`\n\n## Intro\n")
	want := []Heading{
		{Level: 1, ID: "intro", Text: "Intro"},
		{Level: 2, ID: "setup-go", Text: "Setup go"},
		{Level: 2, ID: "intro-1", Text: "Intro"},
	}
	if !reflect.DeepEqual(doc.TOC, want) {
		t.Errorf("TOC = %+v, want %+v", doc.TOC, want)
	}
}

func TestHeadingSlug(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Hello World", "hello-world"},
		{"What's new?", "whats-new"},
		{"snake_case and-dash", "snake_case-and-dash"},
		{"  two  spaces", "--two--spaces"},
		{"Überblick 2024", "überblick-2024"},
		{"!!!", ""},
	}
	for _, tt := range tests {
		if got := headingSlug(tt.input); got != tt.expected {
			t.Errorf("headingSlug(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestSluggerDeduplicates(t *testing.T) {
	s := newSlugger()
	got := []string{s.slug("A"), s.slug("A"), s.slug("a-1"), s.slug("A")}
	want := []string{"a", "a-1", "a-1-1", "a-2"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("slugs = %v, want %v", got, want)
	}
}

func TestRenderGFM(t *testing.T) {
	src := "| a | b |\n|---|---|\n| 1 | 2 |\n\n~~gone~~\n\n- [x] done\n\nvisit https://go.dev now\n"
	doc := render(t, src)
	for _, want := range []string{"<table>", "<del>gone</del>", `type="checkbox"`, `href="https://go.dev"`} {
		if !strings.Contains(doc.HTML, want) {
			t.Errorf("missing %q in:\n%s", want, doc.HTML)
		}
	}
}

func TestRenderElementClasses(t *testing.T) {
	src := "[go](https://go.dev) and `code`\n\n> quoted\n\n```go\nfmt.Println(\"<hi>\")\n```\n"
	doc := render(t, src)
	wants := []string{
		`class="mdx-link"`,
		`<code class="mdx-code">code</code>`,
		`<blockquote class="mdx-quote">`,
		`<pre class="mdx-pre"><code class="mdx-code language-go">fmt.Println(&quot;&lt;hi&gt;&quot;)`,
	}
	for _, want := range wants {
		if !strings.Contains(doc.HTML, want) {
			t.Errorf("missing %q in:\n%s", want, doc.HTML)
		}
	}
}

func TestRenderOmitsRawHTML(t *testing.T) {
	doc := render(t, "<div onclick=\"x()\">hi</div>\n\ntext <b>bold</b>\n")
	if strings.Contains(doc.HTML, "<div") || strings.Contains(doc.HTML, "<b>") {
		t.Errorf("raw HTML leaked into output:\n%s", doc.HTML)
	}
}

func TestRenderInlineComponent(t *testing.T) {
	doc := render(t, "Status: <TagPill label=\"beta\" /> for now.\n")
	want := `<p>Status: <span class="tag-pill">beta</span> for now.</p>`
	if !strings.Contains(doc.HTML, want) {
		t.Errorf("missing %q in:\n%s", want, doc.HTML)
	}
}

func TestRenderComponentEscapesProps(t *testing.T) {
	doc := render(t, "<TagPill label='say \"hi\" & bye' />\n")
	want := `<span class="tag-pill">say &quot;hi&quot; &amp; bye</span>`
	if !strings.Contains(doc.HTML, want) {
		t.Errorf("missing %q in:\n%s", want, doc.HTML)
	}
}

func TestRenderBlockComponent(t *testing.T) {
	src := "<Callout type=\"warning\">\nBe **careful**.\n\n## Inside\n</Callout>\n\nAfter.\n"
	doc := render(t, src)
	wants := []string{
		`<aside class="callout callout-warning" role="note">`,
		`<p>Be <strong>careful</strong>.</p>`,
		`<h2 id="inside">`,
		"</aside>",
		"<p>After.</p>",
	}
	last := -1
	for _, want := range wants {
		i := strings.Index(doc.HTML, want)
		if i < 0 {
			t.Fatalf("missing %q in:\n%s", want, doc.HTML)
		}
		if i < last {
			t.Errorf("%q out of order in:\n%s", want, doc.HTML)
		}
		last = i
	}
}

func TestRenderNestedBlockComponents(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		wants []string
	}{
		{
			name: "same name",
			src:  "<Callout>\n<Callout type=\"warn\">\ninner\n</Callout>\nouter\n</Callout>\n\nAfter.\n",
			wants: []string{
				`<aside class="callout callout-note" role="note">`,
				`<aside class="callout callout-warn" role="note">`,
				"<p>inner</p>",
				"</aside>",
				"<p>outer</p>",
				"</aside>",
				"<p>After.</p>",
			},
		},
		{
			name: "three levels",
			src:  "<Callout type=\"a\">\n<Callout type=\"b\">\n<Callout type=\"c\">\ndeep\n</Callout>\n</Callout>\n</Callout>\n",
			wants: []string{
				"callout-a", "callout-b", "callout-c", "<p>deep</p>",
				"</aside>", "</aside>", "</aside>",
			},
		},
		{
			name: "closing tag inside code",
			src:  "<Callout>\n```mdx\n</Callout>\n```\n</Callout>\n",
			wants: []string{
				`<aside class="callout callout-note" role="note">`,
				"&lt;/Callout&gt;",
				"</code></pre>",
				"</aside>",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := render(t, tt.src)
			rest := doc.HTML
			for _, want := range tt.wants {
				i := strings.Index(rest, want)
				if i < 0 {
					t.Fatalf("missing %q in order in:\n%s", want, doc.HTML)
				}
				rest = rest[i+len(want):]
			}
			if strings.Contains(rest, "</aside>") {
				t.Errorf("unexpected extra </aside> in:\n%s", doc.HTML)
			}
		})
	}
}

func TestRenderNestedUnclosedBlockFails(t *testing.T) {
	re := renderErr(t, "<Callout>\n<Callout>\ninner\n</Callout>\n")
	if !strings.Contains(re.Msg, "never closed") {
		t.Errorf("Msg = %q", re.Msg)
	}
}

func TestRenderCalloutDefaultsToNote(t *testing.T) {
	doc := render(t, "<Callout>\nplain\n</Callout>\n")
	if !strings.Contains(doc.HTML, `class="callout callout-note"`) {
		t.Errorf("default callout type missing:\n%s", doc.HTML)
	}
}

func TestRenderCustomComponent(t *testing.T) {
	r := New(WithComponent("Badge", Component{
		Render: func(w util.BufWriter, p Props, entering bool) {
			if entering {
				_, _ = w.WriteString("<b class=\"badge\">" + p["count"] + "</b>")
			}
		},
	}))
	doc, err := r.Render(context.Background(), "Inbox <Badge count={3} />\n")
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !strings.Contains(doc.HTML, `<b class="badge">3</b>`) {
		t.Errorf("custom component missing:\n%s", doc.HTML)
	}
	if got := r.Components(); !reflect.DeepEqual(got, []string{"Badge", "Callout", "TagPill"}) {
		t.Errorf("Components() = %v", got)
	}
}

func TestRenderErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		line int
		msg  string
	}{
		{"unknown block component", "intro\n\n<Chart />\n", 3, "unknown component <Chart>"},
		{"unknown inline component", "see <Chart data={1} /> here\n", 1, "unknown component <Chart>"},
		{"unclosed block", "# Title\n\n<Callout>\nnever closed\n", 3, "never closed"},
		{"stray closing tag", "text\n\n</Callout>\n", 3, "no matching opening tag"},
		{"unquoted prop", "<TagPill label=beta />\n", 1, "quoted"},
		{"missing required prop", "<TagPill />\n", 1, `requires the "label" prop`},
		{"duplicate prop", "<TagPill label=\"a\" label=\"b\" />\n", 1, "duplicate attribute"},
		{"expression prop", "<TagPill label={user.name} />\n", 1, "literal expressions"},
		{"inline block component", "a <Callout>b</Callout>\n", 1, "self-closing"},
		{"void component with children", "<TagPill label=\"x\">\ntext\n</TagPill>\n", 1, "does not take children"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			re := renderErr(t, tt.src)
			if re.Line != tt.line {
				t.Errorf("Line = %d, want %d (%v)", re.Line, tt.line, re)
			}
			if !strings.Contains(re.Msg, tt.msg) {
				t.Errorf("Msg = %q, want it to contain %q", re.Msg, tt.msg)
			}
		})
	}
}

func TestComponentsInsideCodeAreLiteral(t *testing.T) {
	doc := render(t, "`<Chart />`\n\n```mdx\n<Callout>\n```\n")
	if !strings.Contains(doc.HTML, "&lt;Chart /&gt;") || !strings.Contains(doc.HTML, "&lt;Callout&gt;") {
		t.Errorf("code content should be escaped literally:\n%s", doc.HTML)
	}
}

func TestParseProps(t *testing.T) {
	tests := []struct {
		input    string
		expected Props
	}{
		{``, Props{}},
		{`label="beta"`, Props{"label": "beta"}},
		{`a='x' b={"y"} c={2.5} open`, Props{"a": "x", "b": "y", "c": "2.5", "open": "true"}},
		{`data-id = "7"`, Props{"data-id": "7"}},
	}
	for _, tt := range tests {
		got, err := parseProps(tt.input)
		if err != nil {
			t.Errorf("parseProps(%q) failed: %v", tt.input, err)
			continue
		}
		if !reflect.DeepEqual(got, tt.expected) {
			t.Errorf("parseProps(%q) = %v, want %v", tt.input, got, tt.expected)
		}
	}
}

func TestRenderIsDeterministic(t *testing.T) {
	src := "# A\n\n## A\n\n<Callout type=\"tip\">\nx <TagPill label=\"y\" />\n</Callout>\n"
	r := New()
	first, err := r.Render(context.Background(), src)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		again, err := r.Render(context.Background(), src)
		if err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("render %d differs:\n%s\nvs\n%s", i, first.HTML, again.HTML)
		}
	}
}

func TestRenderHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New().Render(ctx, "# hi"); !errors.Is(err, context.Canceled) {
		t.Errorf("Render with cancelled context = %v, want context.Canceled", err)
	}
}

func TestDemoPostsRender(t *testing.T) {
	r := New()
	for _, p := range content.DemoPosts(time.Now()) {
		doc, err := r.Render(context.Background(), p.Content)
		if err != nil {
			t.Errorf("demo post %s failed to render: %v", p.Slug, err)
			continue
		}
		if len(doc.TOC) == 0 {
			t.Errorf("demo post %s has no headings", p.Slug)
		}
	}
}

func TestDocumentComponent(t *testing.T) {
	doc := render(t, "# Title\n")
	var b strings.Builder
	if err := doc.Component().Render(context.Background(), &b); err != nil {
		t.Fatal(err)
	}
	if b.String() != doc.HTML {
		t.Errorf("Component output = %q, want %q", b.String(), doc.HTML)
	}
}
