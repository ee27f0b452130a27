package out

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"pomoguard/internal/modules/guard/domain"
	guardout "pomoguard/internal/modules/guard/port/out"
)

type PrometheusMetrics struct {
	decisions *prometheus.CounterVec
	redirects prometheus.Counter
	contexts  prometheus.Gauge
}

func NewPrometheusMetrics(reg prometheus.Registerer) guardout.Metrics {
	factory := promauto.With(reg)
	return &PrometheusMetrics{
		decisions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pomoguard_guard_decisions_total",
			Help: "Navigation decisions by result",
		}, []string{"result"}),
		redirects: factory.NewCounter(prometheus.CounterOpts{
			Name: "pomoguard_guard_redirects_total",
			Help: "Redirects published to browsing contexts",
		}),
		contexts: factory.NewGauge(prometheus.GaugeOpts{
			Name: "pomoguard_guard_contexts",
			Help: "Browsing contexts tracked by the watcher",
		}),
	}
}

func (m *PrometheusMetrics) Decided(d domain.Decision) {
	result := "allowed"
	switch {
	case d.BlockPage:
		result = "block_page"
	case d.Blocked:
		result = "blocked"
	}
	m.decisions.WithLabelValues(result).Inc()
}

func (m *PrometheusMetrics) Redirected() {
	m.redirects.Inc()
}

func (m *PrometheusMetrics) Contexts(n int) {
	m.contexts.Set(float64(n))
}
