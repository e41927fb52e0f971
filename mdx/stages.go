package mdx

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// Classes applied by the element-classes stage.
const (
	LinkClass       = "mdx-link"
	BlockquoteClass = "mdx-quote"
	CodeClass       = "mdx-code"
	PreClass        = "mdx-pre"
)

// strayTagTransformer rejects component-looking tags that no parser claimed,
// such as a closing tag without an opening one.
type strayTagTransformer struct{}

func (strayTagTransformer) Transform(doc *ast.Document, reader text.Reader, pc parser.Context) {
	source := reader.Source()
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		var seg text.Segment
		switch t := n.(type) {
		case *ast.HTMLBlock:
			if t.Lines().Len() == 0 {
				return ast.WalkContinue, nil
			}
			seg = t.Lines().At(0)
		case *ast.RawHTML:
			if t.Segments.Len() == 0 {
				return ast.WalkContinue, nil
			}
			seg = t.Segments.At(0)
		default:
			return ast.WalkContinue, nil
		}
		raw := strings.TrimSpace(string(seg.Value(source)))
		if componentLike.MatchString(raw) {
			if strings.HasPrefix(raw, "</") {
				addError(pc, seg.Start, "closing tag %s has no matching opening tag", firstTag([]byte(raw)))
			} else {
				addError(pc, seg.Start, "malformed component tag %s", firstTag([]byte(raw)))
			}
		}
		return ast.WalkContinue, nil
	})
}

// headingIDTransformer gives every heading a GitHub-style id, suffixing
// repeats with -1, -2 and so on.
type headingIDTransformer struct{}

func (headingIDTransformer) Transform(doc *ast.Document, reader text.Reader, pc parser.Context) {
	slugger := newSlugger()
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		h, ok := n.(*ast.Heading)
		if !ok || !entering {
			return ast.WalkContinue, nil
		}
		h.SetAttributeString("id", []byte(slugger.slug(plainText(h, reader.Source()))))
		return ast.WalkSkipChildren, nil
	})
}

type slugger struct {
	occurrences map[string]int
}

func newSlugger() *slugger {
	return &slugger{occurrences: map[string]int{}}
}

func (s *slugger) slug(value string) string {
	base := headingSlug(value)
	result := base
	for {
		if _, taken := s.occurrences[result]; !taken {
			break
		}
		s.occurrences[base]++
		result = base + "-" + strconv.Itoa(s.occurrences[base])
	}
	s.occurrences[result] = 0
	return result
}

// headingSlug lowercases value, turns spaces into hyphens and drops
// punctuation and symbols. Letters of any script are kept.
func headingSlug(value string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(value) {
		switch {
		case r == ' ':
			b.WriteByte('-')
		case r == '-', r == '_':
			b.WriteRune(r)
		case unicode.IsLetter(r), unicode.IsNumber(r), unicode.IsMark(r):
			b.WriteRune(r)
		}
	}
	return b.String()
}

var kindHeadingAnchor = ast.NewNodeKind("HeadingAnchor")

// headingAnchor is the self link prepended to each heading.
type headingAnchor struct {
	ast.BaseInline
	id []byte
}

func (n *headingAnchor) Kind() ast.NodeKind { return kindHeadingAnchor }

func (n *headingAnchor) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{"ID": string(n.id)}, nil)
}

type autolinkTransformer struct{}

func (autolinkTransformer) Transform(doc *ast.Document, reader text.Reader, pc parser.Context) {
	var headings []*ast.Heading
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if h, ok := n.(*ast.Heading); ok && entering {
			headings = append(headings, h)
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	for _, h := range headings {
		id, ok := h.AttributeString("id")
		if !ok {
			continue
		}
		anchor := &headingAnchor{id: id.([]byte)}
		if first := h.FirstChild(); first != nil {
			h.InsertBefore(h, first, anchor)
		} else {
			h.AppendChild(h, anchor)
		}
	}
}

// classTransformer styles links, blockquotes and inline code. Code blocks
// get their classes from nodeRenderer.
type classTransformer struct{}

func (classTransformer) Transform(doc *ast.Document, reader text.Reader, pc parser.Context) {
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n.Kind() {
		case ast.KindLink, ast.KindAutoLink:
			n.SetAttributeString("class", []byte(LinkClass))
		case ast.KindBlockquote:
			n.SetAttributeString("class", []byte(BlockquoteClass))
		case ast.KindCodeSpan:
			n.SetAttributeString("class", []byte(CodeClass))
		}
		return ast.WalkContinue, nil
	})
}
