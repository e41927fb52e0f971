package views

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// writer accumulates HTML and keeps the first write error.
type writer struct {
	ctx context.Context
	w   io.Writer
	err error
}

func (w *writer) raw(s string) {
	if w.err == nil {
		_, w.err = io.WriteString(w.w, s)
	}
}

func (w *writer) text(s string) {
	w.raw(templ.EscapeString(s))
}

func (w *writer) attr(name, value string) {
	w.raw(" " + name + `="` + templ.EscapeString(value) + `"`)
}

func (w *writer) component(c templ.Component) {
	if w.err == nil {
		w.err = c.Render(w.ctx, w.w)
	}
}

// page renders body inside Layout.
func page(site Site, meta PageMeta, jsonLD string, body func(w *writer)) templ.Component {
	children := templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		w := &writer{ctx: ctx, w: out}
		body(w)
		return w.err
	})
	return templ.ComponentFunc(func(ctx context.Context, out io.Writer) error {
		return Layout(site, meta, jsonLD).Render(templ.WithChildren(ctx, children), out)
	})
}

func pageTitle(site Site, meta PageMeta) string {
	if meta.Title == "" {
		return site.Name
	}
	return meta.Title + " | " + site.Name
}

func pageDescription(site Site, meta PageMeta) string {
	if meta.Description == "" {
		return site.Description
	}
	return meta.Description
}

func pageType(meta PageMeta) string {
	if meta.OGType == "" {
		return "website"
	}
	return meta.OGType
}

// jsonLDScript embeds a JSON-LD document produced by the helpers in this
// package; its content is not escaped.
func jsonLDScript(jsonLD string) templ.Component {
	return templ.Raw(`<script type="application/ld+json">` + jsonLD + `</script>`)
}
