package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// LifecycleMetrics counts billing request transitions as they commit.
type LifecycleMetrics struct {
	transitions *prometheus.CounterVec
	rejections  *prometheus.CounterVec
	revenue     prometheus.Counter
}

// NewLifecycleMetrics registers the lifecycle metrics on the provided registerer.
func NewLifecycleMetrics(reg prometheus.Registerer) *LifecycleMetrics {
	if reg == nil {
		return &LifecycleMetrics{}
	}
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "billing_request_transitions_total",
		Help: "Committed billing request status transitions.",
	}, []string{"from", "to"})
	rejections := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "billing_request_rejections_total",
		Help: "Rejected transition attempts by error code.",
	}, []string{"code"})
	revenue := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "billing_revenue_usd_total",
		Help: "Cumulative calculated totals of completed requests.",
	})
	reg.MustRegister(transitions, rejections, revenue)
	return &LifecycleMetrics{
		transitions: transitions,
		rejections:  rejections,
		revenue:     revenue,
	}
}

// ObserveTransition records one committed transition.
func (m *LifecycleMetrics) ObserveTransition(from, to string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(from), normalizeLabel(to)).Inc()
}

// IncRejection records one rejected transition attempt.
func (m *LifecycleMetrics) IncRejection(code string) {
	if m == nil || m.rejections == nil {
		return
	}
	m.rejections.WithLabelValues(normalizeLabel(code)).Inc()
}

// AddRevenue accumulates the calculated total of a completed request.
func (m *LifecycleMetrics) AddRevenue(usd float64) {
	if m == nil || m.revenue == nil {
		return
	}
	m.revenue.Add(usd)
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
