package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// WatchdogMetrics records metadata for the scheduled stale-request sweeps.
type WatchdogMetrics struct {
	duration *prometheus.HistogramVec
	success  *prometheus.CounterVec
	failure  *prometheus.CounterVec
	stale    *prometheus.GaugeVec
}

// NewWatchdogMetrics registers the watchdog metrics on the provided registerer.
func NewWatchdogMetrics(reg prometheus.Registerer) *WatchdogMetrics {
	if reg == nil {
		return &WatchdogMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "job_duration_seconds",
		Help:    "Duration of scheduled jobs in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"job"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "job_success",
		Help: "Successful scheduled job executions.",
	}, []string{"job"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "job_failure",
		Help: "Failed scheduled job executions.",
	}, []string{"job"})
	stale := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "billing_requests_stale",
		Help: "Requests dwelling past the stale threshold, by status.",
	}, []string{"status"})
	reg.MustRegister(duration, success, failure, stale)
	return &WatchdogMetrics{
		duration: duration,
		success:  success,
		failure:  failure,
		stale:    stale,
	}
}

// ObserveDuration records the duration for the named job.
func (w *WatchdogMetrics) ObserveDuration(job string, duration time.Duration) {
	if w == nil || w.duration == nil {
		return
	}
	w.duration.WithLabelValues(normalizeLabel(job)).Observe(duration.Seconds())
}

// IncSuccess increments the success counter for the named job.
func (w *WatchdogMetrics) IncSuccess(job string) {
	if w == nil || w.success == nil {
		return
	}
	w.success.WithLabelValues(normalizeLabel(job)).Inc()
}

// IncFailure increments the failure counter for the named job.
func (w *WatchdogMetrics) IncFailure(job string) {
	if w == nil || w.failure == nil {
		return
	}
	w.failure.WithLabelValues(normalizeLabel(job)).Inc()
}

// SetStale records how many requests dwell past the threshold in a status.
func (w *WatchdogMetrics) SetStale(status string, count int) {
	if w == nil || w.stale == nil {
		return
	}
	w.stale.WithLabelValues(normalizeLabel(status)).Set(float64(count))
}
