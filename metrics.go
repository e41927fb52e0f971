package mdxpress

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/eringen/mdxpress/content"
)

type metrics struct {
	readFallbacks  *prometheus.CounterVec
	renderFailures *prometheus.CounterVec
	previews       *prometheus.CounterVec
	mode           *prometheus.GaugeVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	f := promauto.With(reg)
	return &metrics{
		readFallbacks: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mdxpress",
			Subsystem: "content",
			Name:      "read_fallbacks_total",
			Help:      "Reads served from the demo snapshot after a database failure.",
		}, []string{"op"}),
		renderFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mdxpress",
			Subsystem: "mdx",
			Name:      "render_failures_total",
			Help:      "MDX documents that failed to compile.",
		}, []string{"path"}),
		previews: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mdxpress",
			Subsystem: "preview",
			Name:      "results_total",
			Help:      "Preview requests by resulting state.",
		}, []string{"state"}),
		mode: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "mdxpress",
			Subsystem: "content",
			Name:      "mode",
			Help:      "Content store mode; 1 for the active mode.",
		}, []string{"mode"}),
	}
}

func (m *metrics) readFallback(op string, _ error) {
	m.readFallbacks.WithLabelValues(op).Inc()
}

func (m *metrics) renderFailed(path string) {
	m.renderFailures.WithLabelValues(path).Inc()
}

func (m *metrics) previewServed(state string) {
	m.previews.WithLabelValues(state).Inc()
}

func (m *metrics) setMode(mode content.Mode) {
	for _, known := range []content.Mode{content.ModeDemo, content.ModePersistent} {
		v := 0.0
		if known == mode {
			v = 1
		}
		m.mode.WithLabelValues(string(known)).Set(v)
	}
}
