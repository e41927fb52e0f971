package mdx

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"github.com/eringen/mdxpress/slug"
)

// Props are the attributes of a component tag. Expression values such as
// {3} or {true} are stored as their literal text.
type Props map[string]string

// Component renders one MDX element. Void components only appear
// self-closing; Block components wrap markdown children.
type Component struct {
	Block    bool
	Required []string
	Render   func(w util.BufWriter, props Props, entering bool)
}

// DefaultComponents returns the built-in components: TagPill and Callout.
func DefaultComponents() map[string]Component {
	return map[string]Component{
		"TagPill": {
			Required: []string{"label"},
			Render: func(w util.BufWriter, p Props, entering bool) {
				if !entering {
					return
				}
				_, _ = w.WriteString(`<span class="tag-pill">`)
				_, _ = w.Write(util.EscapeHTML([]byte(p["label"])))
				_, _ = w.WriteString(`</span>`)
			},
		},
		"Callout": {
			Block: true,
			Render: func(w util.BufWriter, p Props, entering bool) {
				if !entering {
					_, _ = w.WriteString("</aside>\n")
					return
				}
				kind := slug.Normalize(p["type"])
				if kind == "" {
					kind = "note"
				}
				_, _ = w.WriteString(`<aside class="callout callout-` + kind + `" role="note">` + "\n")
			},
		},
	}
}

var (
	kindComponentBlock  = ast.NewNodeKind("ComponentBlock")
	kindComponentInline = ast.NewNodeKind("ComponentInline")
)

type componentBlock struct {
	ast.BaseBlock
	name        string
	props       Props
	selfClosing bool
	closed      bool
	offset      int
	// depth counts open descendants with the same name; their closing tags
	// belong to them, not to n.
	depth int
}

func (n *componentBlock) Kind() ast.NodeKind { return kindComponentBlock }

func (n *componentBlock) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{"Name": n.name}, nil)
}

type componentInline struct {
	ast.BaseInline
	name  string
	props Props
}

func (n *componentInline) Kind() ast.NodeKind { return kindComponentInline }

func (n *componentInline) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{"Name": n.name}, nil)
}

var (
	blockOpenTag  = regexp.MustCompile(`^<([A-Z][A-Za-z0-9]*)(\s[^<>]*?)?\s*(/?)>\s*$`)
	inlineVoidTag = regexp.MustCompile(`^<([A-Z][A-Za-z0-9]*)(\s[^<>]*?)?\s*/>`)
	componentLike = regexp.MustCompile(`^</?[A-Z]`)
)

// componentBlockParser claims lines that consist of a single component tag.
type componentBlockParser struct {
	components map[string]Component
}

func (b *componentBlockParser) Trigger() []byte { return []byte{'<'} }

func (b *componentBlockParser) Open(parent ast.Node, reader text.Reader, pc parser.Context) (ast.Node, parser.State) {
	pos := pc.BlockOffset()
	if pos < 0 {
		return nil, parser.NoChildren
	}
	line, segment := reader.PeekLine()
	m := blockOpenTag.FindSubmatch(line[pos:])
	if m == nil {
		return nil, parser.NoChildren
	}
	offset := segment.Start + pos
	node := &componentBlock{
		name:        string(m[1]),
		selfClosing: len(m[3]) > 0,
		offset:      offset,
	}
	node.props = checkComponent(pc, b.components, node.name, string(m[2]), offset)
	if c, ok := b.components[node.name]; ok && !c.Block && !node.selfClosing {
		addError(pc, offset, "<%s> does not take children; write <%s ... />", node.name, node.name)
	}
	advanceLine(reader, line, segment)
	if node.selfClosing {
		return node, parser.NoChildren
	}
	return node, parser.HasChildren
}

func (b *componentBlockParser) Continue(node ast.Node, reader text.Reader, pc parser.Context) parser.State {
	n := node.(*componentBlock)
	if n.selfClosing {
		return parser.Close
	}
	if insideCode(n, pc) {
		return parser.Continue | parser.HasChildren
	}
	line, segment := reader.PeekLine()
	trimmed := util.TrimRightSpace(util.TrimLeftSpace(line))
	if string(trimmed) == "</"+n.name+">" {
		if n.depth > 0 {
			n.depth--
			return parser.Continue | parser.HasChildren
		}
		n.closed = true
		advanceLine(reader, line, segment)
		return parser.Close
	}
	if m := blockOpenTag.FindSubmatch(trimmed); m != nil && string(m[1]) == n.name && len(m[3]) == 0 {
		n.depth++
	}
	return parser.Continue | parser.HasChildren
}

// insideCode reports whether a code block is open below n, in which case
// the current line is literal text.
func insideCode(n ast.Node, pc parser.Context) bool {
	below := false
	for _, b := range pc.OpenedBlocks() {
		if b.Node == n {
			below = true
			continue
		}
		if !below {
			continue
		}
		switch b.Node.(type) {
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			return true
		}
	}
	return false
}

func (b *componentBlockParser) Close(node ast.Node, reader text.Reader, pc parser.Context) {
	n := node.(*componentBlock)
	if !n.selfClosing && !n.closed {
		addError(pc, n.offset, "<%s> is never closed; expected </%s>", n.name, n.name)
	}
}

// advanceLine consumes the rest of the line except its newline.
func advanceLine(reader text.Reader, line []byte, segment text.Segment) {
	newline := 0
	if n := len(line); n > 0 && line[n-1] == '\n' {
		newline = 1
	}
	reader.Advance(segment.Stop - segment.Start - newline + segment.Padding)
}

func (b *componentBlockParser) CanInterruptParagraph() bool { return true }

func (b *componentBlockParser) CanAcceptIndentedLine() bool { return false }

// componentInlineParser handles self-closing components inside a line.
type componentInlineParser struct {
	components map[string]Component
}

func (p *componentInlineParser) Trigger() []byte { return []byte{'<'} }

func (p *componentInlineParser) Parse(parent ast.Node, block text.Reader, pc parser.Context) ast.Node {
	line, segment := block.PeekLine()
	if !componentLike.Match(line) {
		return nil
	}
	if line[1] == '/' {
		addError(pc, segment.Start, "closing tag %s has no matching opening tag", firstTag(line))
		return nil
	}
	m := inlineVoidTag.FindSubmatch(line)
	if m == nil {
		addError(pc, segment.Start, "component tags inside a line must be self-closing: %s", firstTag(line))
		return nil
	}
	name := string(m[1])
	node := &componentInline{name: name}
	node.props = checkComponent(pc, p.components, name, string(m[2]), segment.Start)
	if c, ok := p.components[name]; ok && c.Block {
		addError(pc, segment.Start, "<%s> wraps content and must open and close on lines of its own", name)
	}
	block.Advance(len(m[0]))
	return node
}

// checkComponent resolves a tag against the registry and parses its props,
// recording any problem at offset.
func checkComponent(pc parser.Context, components map[string]Component, name, attrs string, offset int) Props {
	props, err := parseProps(attrs)
	if err != nil {
		addError(pc, offset, "<%s>: %v", name, err)
		return Props{}
	}
	c, ok := components[name]
	if !ok {
		addError(pc, offset, "unknown component <%s>", name)
		return props
	}
	for _, key := range c.Required {
		if _, ok := props[key]; !ok {
			addError(pc, offset, "<%s> requires the %q prop", name, key)
		}
	}
	return props
}

func firstTag(line []byte) string {
	if i := strings.IndexByte(string(line), '>'); i >= 0 {
		return string(line[:i+1])
	}
	return strings.TrimSpace(string(line))
}

var (
	propName    = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_-]*`)
	exprLiteral = regexp.MustCompile(`^(-?[0-9]+(\.[0-9]+)?|true|false|null)$`)
)

// parseProps reads name="v", name='v', name={literal} and bare name pairs.
func parseProps(s string) (Props, error) {
	props := Props{}
	s = strings.TrimSpace(s)
	for s != "" {
		name := propName.FindString(s)
		if name == "" {
			return nil, fmt.Errorf("malformed attribute near %q", s)
		}
		if _, dup := props[name]; dup {
			return nil, fmt.Errorf("duplicate attribute %q", name)
		}
		s = strings.TrimLeft(s[len(name):], " \t")
		if !strings.HasPrefix(s, "=") {
			props[name] = "true"
			s = strings.TrimLeft(s, " \t")
			continue
		}
		s = strings.TrimLeft(s[1:], " \t")
		value, rest, err := propValue(s)
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", name, err)
		}
		props[name] = value
		if rest != "" && rest[0] != ' ' && rest[0] != '\t' {
			return nil, fmt.Errorf("malformed attribute near %q", rest)
		}
		s = strings.TrimLeft(rest, " \t")
	}
	return props, nil
}

func propValue(s string) (value, rest string, err error) {
	if s == "" {
		return "", "", fmt.Errorf("missing value")
	}
	switch s[0] {
	case '"', '\'':
		end := strings.IndexByte(s[1:], s[0])
		if end < 0 {
			return "", "", fmt.Errorf("unterminated string")
		}
		return s[1 : end+1], s[end+2:], nil
	case '{':
		end := strings.IndexByte(s, '}')
		if end < 0 {
			return "", "", fmt.Errorf("unterminated expression")
		}
		expr := strings.TrimSpace(s[1:end])
		if len(expr) >= 2 && (expr[0] == '"' || expr[0] == '\'') && expr[len(expr)-1] == expr[0] {
			if expr[0] == '"' {
				if v, err := strconv.Unquote(expr); err == nil {
					return v, s[end+1:], nil
				}
			}
			return expr[1 : len(expr)-1], s[end+1:], nil
		}
		if !exprLiteral.MatchString(expr) {
			return "", "", fmt.Errorf("only literal expressions are supported, got {%s}", expr)
		}
		return expr, s[end+1:], nil
	}
	return "", "", fmt.Errorf("value must be quoted or a {literal}")
}
