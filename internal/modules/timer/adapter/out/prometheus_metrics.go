package out

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	timerout "pomoguard/internal/modules/timer/port/out"
)

type PrometheusMetrics struct {
	commands    *prometheus.CounterVec
	phases      *prometheus.CounterVec
	storeErrors *prometheus.CounterVec
	dropped     prometheus.Counter
	timeLeft    *prometheus.GaugeVec
	subscribers prometheus.Gauge
}

func NewPrometheusMetrics(reg prometheus.Registerer) timerout.Metrics {
	factory := promauto.With(reg)
	return &PrometheusMetrics{
		commands: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pomoguard_commands_total",
			Help: "Commands handled by the session engine",
		}, []string{"action"}),
		phases: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pomoguard_phases_completed_total",
			Help: "Completed timer phases",
		}, []string{"phase"}),
		storeErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "pomoguard_store_errors_total",
			Help: "Persistent store operations that failed",
		}, []string{"op"}),
		dropped: factory.NewCounter(prometheus.CounterOpts{
			Name: "pomoguard_broadcast_dropped_total",
			Help: "State updates skipped for slow subscribers",
		}),
		timeLeft: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "pomoguard_time_left_seconds",
			Help: "Seconds left in the current phase",
		}, []string{"phase"}),
		subscribers: factory.NewGauge(prometheus.GaugeOpts{
			Name: "pomoguard_subscribers",
			Help: "Live state update subscribers",
		}),
	}
}

func (m *PrometheusMetrics) CommandHandled(action string) {
	m.commands.WithLabelValues(action).Inc()
}

func (m *PrometheusMetrics) PhaseCompleted(phase string) {
	m.phases.WithLabelValues(phase).Inc()
}

func (m *PrometheusMetrics) StoreFailed(op string) {
	m.storeErrors.WithLabelValues(op).Inc()
}

func (m *PrometheusMetrics) BroadcastDropped(n int) {
	m.dropped.Add(float64(n))
}

// TimeLeft keeps only the active phase's gauge non-zero.
func (m *PrometheusMetrics) TimeLeft(phase string, seconds int) {
	m.timeLeft.Reset()
	m.timeLeft.WithLabelValues(phase).Set(float64(seconds))
}

func (m *PrometheusMetrics) Subscribers(n int) {
	m.subscribers.Set(float64(n))
}
