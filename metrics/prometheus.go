package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics to track
var (
	ConnectionOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grownet_connection_operations_total",
			Help: "Connection engine operations by operation and outcome",
		},
		[]string{"operation", "outcome"}, // e.g. send/created, send/matched, accept/not_found
	)
	RaceRetries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "grownet_connection_race_retries_total",
			Help: "Times a connection write lost a race and was retried as a read",
		},
	)
	SideEffectFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grownet_side_effect_failures_total",
			Help: "Best-effort side effects that failed and were swallowed",
		},
		[]string{"kind"}, // notification, push, email
	)
	OpenSockets = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "grownet_realtime_open_sockets",
			Help: "Number of websocket clients connected to this instance",
		},
	)
)

// InitMetrics registers the collectors with the default registry.
func InitMetrics() {
	prometheus.MustRegister(ConnectionOutcomes, RaceRetries, SideEffectFailures, OpenSockets)
}
