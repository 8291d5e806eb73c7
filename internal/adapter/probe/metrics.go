package probe

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "reqfail"

// Metrics are the probe's prometheus collectors.
type Metrics struct {
	// Requests counts probe outcomes: ok, status or failure.
	Requests *prometheus.CounterVec
	// Failures counts failed probes by failure category and kind.
	Failures *prometheus.CounterVec
	// Duration observes how long each probe took.
	Duration *prometheus.HistogramVec
	// Bound reports how many failure identities are bound.
	Bound prometheus.Gauge
}

// NewMetrics registers the probe collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "probe_requests_total",
			Help:      "Probe requests by target and outcome",
		}, []string{"target", "outcome"}),
		Failures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "probe_failures_total",
			Help:      "Failed probes by target, failure category and kind",
		}, []string{"target", "category", "kind"}),
		Duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "probe_duration_seconds",
			Help:      "Probe duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"target"}),
		Bound: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "bound_identities",
			Help:      "Failure identities currently bound to a category",
		}),
	}
}
