// Package metrics holds the Prometheus collectors of the flow endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "tripflow"

// Metrics groups the collectors registered for one server instance.
type Metrics struct {
	Requests           *prometheus.CounterVec
	RequestDuration    *prometheus.HistogramVec
	Transitions        *prometheus.CounterVec
	RateLimited        prometheus.Counter
	SignatureFailures  prometheus.Counter
	DecryptionFailures prometheus.Counter
	SinkFailures       *prometheus.CounterVec
	Events             *prometheus.CounterVec
}

// New registers the collectors with reg. Passing a fresh registry keeps
// tests independent of the global default one.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		Requests: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "flow_requests_total",
				Help:      "Total number of flow requests by action and HTTP status",
			},
			[]string{"action", "status"},
		),
		RequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "flow_request_duration_seconds",
				Help:      "Flow request latency in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"action"},
		),
		Transitions: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "flow_transitions_total",
				Help:      "Total number of screen transitions by source and target screen",
			},
			[]string{"from", "to"},
		),
		RateLimited: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "flow_rate_limited_total",
				Help:      "Total number of requests rejected by the rate limiter",
			},
		),
		SignatureFailures: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "flow_signature_failures_total",
				Help:      "Total number of requests with a missing or invalid signature",
			},
		),
		DecryptionFailures: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "flow_decryption_failures_total",
				Help:      "Total number of request envelopes that could not be decrypted",
			},
		),
		SinkFailures: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "event_sink_failures_total",
				Help:      "Total number of events a sink failed to record",
			},
			[]string{"sink"},
		),
		Events: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "flow_events_total",
				Help:      "Total number of flow events by type",
			},
			[]string{"type"},
		),
	}
}
