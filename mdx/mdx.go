// Package mdx renders MDX post bodies to HTML with goldmark. The pipeline is
// fixed when the Renderer is built: GitHub-flavored markdown, heading ids,
// heading anchors, element classes and a closed set of components.
package mdx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/a-h/templ"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// ErrRender is matched by every *RenderError.
var ErrRender = errors.New("mdx: render failed")

// RenderError reports MDX that could not be compiled. Line is 1-based and
// zero when the failure has no source position.
type RenderError struct {
	Line int
	Msg  string
}

func (e *RenderError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("mdx: line %d: %s", e.Line, e.Msg)
	}
	return "mdx: " + e.Msg
}

func (e *RenderError) Is(target error) bool { return target == ErrRender }

// Heading is one table-of-contents entry.
type Heading struct {
	Level int    `json:"level"`
	ID    string `json:"id"`
	Text  string `json:"text"`
}

// Document is a compiled post body.
type Document struct {
	HTML string
	TOC  []Heading
}

// Component returns the document as a templ component.
func (d Document) Component() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, d.HTML)
		return err
	})
}

// Stage names, in the order they run.
const (
	StageGFM        = "gfm"
	StageComponents = "components"
	StageHeadingIDs = "heading-ids"
	StageAutolink   = "autolink-headings"
	StageClasses    = "element-classes"
)

// Renderer compiles MDX source. It is safe for concurrent use.
type Renderer struct {
	md         goldmark.Markdown
	components map[string]Component
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithComponent registers or replaces a component by its tag name.
func WithComponent(name string, c Component) Option {
	return func(r *Renderer) {
		r.components[name] = c
	}
}

// New builds a renderer with the default components plus any options.
func New(opts ...Option) *Renderer {
	r := &Renderer{components: DefaultComponents()}
	for _, opt := range opts {
		opt(r)
	}
	r.md = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(
			parser.WithBlockParsers(util.Prioritized(&componentBlockParser{components: r.components}, 850)),
			parser.WithInlineParsers(util.Prioritized(&componentInlineParser{components: r.components}, 350)),
			parser.WithASTTransformers(
				util.Prioritized(strayTagTransformer{}, 100),
				util.Prioritized(headingIDTransformer{}, 200),
				util.Prioritized(autolinkTransformer{}, 300),
				util.Prioritized(classTransformer{}, 400),
			),
		),
		goldmark.WithRendererOptions(
			renderer.WithNodeRenderers(util.Prioritized(&nodeRenderer{components: r.components}, 100)),
		),
	)
	return r
}

// Stages lists the pipeline stages in execution order.
func (r *Renderer) Stages() []string {
	return []string{StageGFM, StageComponents, StageHeadingIDs, StageAutolink, StageClasses}
}

// Components lists the registered component names, sorted.
func (r *Renderer) Components() []string {
	names := make([]string, 0, len(r.components))
	for name := range r.components {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Render compiles src. The same source always yields the same Document.
// Any malformed component aborts the whole render with a *RenderError.
func (r *Renderer) Render(ctx context.Context, src string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	source := []byte(src)
	pc := parser.NewContext()
	root := r.md.Parser().Parse(text.NewReader(source), parser.WithContext(pc))
	if err := firstError(pc, source); err != nil {
		return Document{}, err
	}
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	var buf bytes.Buffer
	if err := r.md.Renderer().Render(&buf, source, root); err != nil {
		return Document{}, &RenderError{Msg: err.Error()}
	}
	return Document{HTML: buf.String(), TOC: collectTOC(root, source)}, nil
}

func collectTOC(root ast.Node, source []byte) []Heading {
	toc := []Heading{}
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		h, ok := n.(*ast.Heading)
		if !ok || !entering {
			return ast.WalkContinue, nil
		}
		id, _ := h.AttributeString("id")
		idBytes, _ := id.([]byte)
		toc = append(toc, Heading{Level: h.Level, ID: string(idBytes), Text: plainText(h, source)})
		return ast.WalkSkipChildren, nil
	})
	return toc
}

// plainText concatenates the literal text under n.
func plainText(n ast.Node, source []byte) string {
	var buf bytes.Buffer
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			buf.Write(t.Segment.Value(source))
			if t.SoftLineBreak() || t.HardLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.String:
			buf.Write(t.Value)
		case *headingAnchor:
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return buf.String()
}

var errorsKey = parser.NewContextKey()

type sourceError struct {
	offset int
	msg    string
}

// addError records a compile error at a byte offset of the source.
func addError(pc parser.Context, offset int, format string, args ...any) {
	errs, _ := pc.Get(errorsKey).([]sourceError)
	pc.Set(errorsKey, append(errs, sourceError{offset: offset, msg: fmt.Sprintf(format, args...)}))
}

func firstError(pc parser.Context, source []byte) error {
	errs, _ := pc.Get(errorsKey).([]sourceError)
	if len(errs) == 0 {
		return nil
	}
	first := errs[0]
	for _, e := range errs[1:] {
		if e.offset < first.offset {
			first = e
		}
	}
	return &RenderError{Line: lineOf(source, first.offset), Msg: first.msg}
}

func lineOf(source []byte, offset int) int {
	if offset > len(source) {
		offset = len(source)
	}
	return bytes.Count(source[:offset], []byte{'\n'}) + 1
}
