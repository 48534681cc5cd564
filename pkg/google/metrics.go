package google

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeDispatched = "dispatched"
	outcomeEmpty      = "empty"
	outcomeMalformed  = "malformed"
	outcomeFailed     = "failed"
)

type Metrics struct {
	requests        *prometheus.CounterVec
	completions     *prometheus.CounterVec
	unroutable      prometheus.Counter
	pending         prometheus.Gauge
	freshSyncs      *prometheus.CounterVec
	freshSyncTiming prometheus.Histogram
}

// NewMetrics registers the sync metrics on reg. A nil reg creates unregistered
// collectors.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "calsync",
			Name:      "requests_submitted_total",
			Help:      "Requests submitted to the calendar API by intent.",
		}, []string{"intent"}),
		completions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "calsync",
			Name:      "completions_total",
			Help:      "Handled request completions by intent and outcome.",
		}, []string{"intent", "outcome"}),
		unroutable: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "calsync",
			Name:      "completions_unroutable_total",
			Help:      "Completions without a pending request.",
		}),
		pending: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "calsync",
			Name:      "pending_requests",
			Help:      "Requests submitted and not yet completed.",
		}),
		freshSyncs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "calsync",
			Name:      "fresh_syncs_total",
			Help:      "Finished fresh syncs by result.",
		}, []string{"result"}),
		freshSyncTiming: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "calsync",
			Name:      "fresh_sync_duration_seconds",
			Help:      "Time from fresh sync start until its last event fetch completed.",
			Buckets:   prometheus.ExponentialBuckets(0.25, 2, 10),
		}),
	}
}

func (m *Metrics) submitted(intent Intent, pending int) {
	m.requests.WithLabelValues(intent.Kind.String()).Inc()
	m.pending.Set(float64(pending))
}

func (m *Metrics) completed(intent Intent, outcome string, pending int) {
	m.completions.WithLabelValues(intent.Kind.String(), outcome).Inc()
	m.pending.Set(float64(pending))
}

func (m *Metrics) freshSyncFinished(listFailed bool, seconds float64) {
	result := "ok"
	if listFailed {
		result = "list_failed"
	}
	m.freshSyncs.WithLabelValues(result).Inc()
	m.freshSyncTiming.Observe(seconds)
}
