package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	transportRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_transport_requests_total",
			Help: "Total number of processor POST exchanges",
		},
		[]string{"host", "status"},
	)

	transportRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gateway_transport_request_duration_seconds",
			Help:    "Duration of processor POST exchanges in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"host"},
	)

	transportRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gateway_transport_requests_in_flight",
			Help: "Number of processor POST exchanges currently in flight",
		},
	)
)

// TransportStarted marks an exchange in flight and returns a func that records its end.
// status is an HTTP status code string, "network_error" or "circuit_open".
func TransportStarted(host string) func(status string, seconds float64) {
	transportRequestsInFlight.Inc()
	return func(status string, seconds float64) {
		transportRequestsInFlight.Dec()
		transportRequestsTotal.WithLabelValues(host, status).Inc()
		transportRequestDuration.WithLabelValues(host).Observe(seconds)
	}
}
