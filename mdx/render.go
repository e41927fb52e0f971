package mdx

import (
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/util"
)

// nodeRenderer writes components, heading anchors and code blocks.
type nodeRenderer struct {
	components map[string]Component
}

func (r *nodeRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(kindComponentBlock, r.renderComponentBlock)
	reg.Register(kindComponentInline, r.renderComponentInline)
	reg.Register(kindHeadingAnchor, r.renderHeadingAnchor)
	reg.Register(ast.KindFencedCodeBlock, r.renderCodeBlock)
	reg.Register(ast.KindCodeBlock, r.renderCodeBlock)
}

func (r *nodeRenderer) renderComponentBlock(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	n := node.(*componentBlock)
	if c, ok := r.components[n.name]; ok {
		c.Render(w, n.props, entering)
		if entering && n.selfClosing {
			c.Render(w, n.props, false)
			_ = w.WriteByte('\n')
		}
	}
	return ast.WalkContinue, nil
}

func (r *nodeRenderer) renderComponentInline(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	n := node.(*componentInline)
	if c, ok := r.components[n.name]; ok {
		c.Render(w, n.props, entering)
	}
	return ast.WalkContinue, nil
}

func (r *nodeRenderer) renderHeadingAnchor(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*headingAnchor)
	_, _ = w.WriteString(`<a aria-hidden="true" tabindex="-1" href="#`)
	_, _ = w.Write(util.EscapeHTML(util.URLEscape(n.id, false)))
	_, _ = w.WriteString(`"><span class="icon icon-link"></span></a>`)
	return ast.WalkContinue, nil
}

func (r *nodeRenderer) renderCodeBlock(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		_, _ = w.WriteString("</code></pre>\n")
		return ast.WalkContinue, nil
	}
	_, _ = w.WriteString(`<pre class="` + PreClass + `"><code class="` + CodeClass)
	if fenced, ok := node.(*ast.FencedCodeBlock); ok {
		if lang := fenced.Language(source); lang != nil {
			_, _ = w.WriteString(" language-")
			_, _ = w.Write(util.EscapeHTML(lang))
		}
	}
	_, _ = w.WriteString(`">`)
	lines := node.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		_, _ = w.Write(util.EscapeHTML(line.Value(source)))
	}
	return ast.WalkContinue, nil
}
