package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SharingMetrics tracks share request outcomes and grant materialization.
type SharingMetrics struct {
	requests       *prometheus.CounterVec
	grants         *prometheus.CounterVec
	acceptDuration prometheus.Histogram
}

// NewSharingMetrics registers the share engine metrics on the provided registerer.
func NewSharingMetrics(reg prometheus.Registerer) *SharingMetrics {
	if reg == nil {
		return &SharingMetrics{}
	}
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "share_requests_total",
		Help: "Share request operations by outcome.",
	}, []string{"outcome"})
	grants := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "share_grants_materialized_total",
		Help: "Durable grants written during acceptance, by item type.",
	}, []string{"item_type"})
	acceptDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "share_accept_duration_seconds",
		Help:    "Duration of acceptance transactions in seconds.",
		Buckets: prometheus.DefBuckets,
	})
	reg.MustRegister(requests, grants, acceptDuration)
	return &SharingMetrics{
		requests:       requests,
		grants:         grants,
		acceptDuration: acceptDuration,
	}
}

// IncRequest increments the counter for a request outcome (created, accepted,
// rejected, canceled, auto_shared).
func (m *SharingMetrics) IncRequest(outcome string) {
	if m == nil || m.requests == nil {
		return
	}
	m.requests.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// AddGrants records materialized grants for an item type.
func (m *SharingMetrics) AddGrants(itemType string, n int) {
	if m == nil || m.grants == nil || n <= 0 {
		return
	}
	m.grants.WithLabelValues(normalizeLabel(itemType)).Add(float64(n))
}

// ObserveAccept records how long an acceptance transaction took.
func (m *SharingMetrics) ObserveAccept(duration time.Duration) {
	if m == nil || m.acceptDuration == nil {
		return
	}
	m.acceptDuration.Observe(duration.Seconds())
}
