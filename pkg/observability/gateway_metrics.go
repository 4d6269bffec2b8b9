package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Operation outcomes
const (
	OutcomeApproved = "approved"
	OutcomeDeclined = "declined"
)

var (
	gatewayOperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_operations_total",
		Help: "Total number of gateway operations",
	}, []string{
		"processor", // psigate, epx
		"operation", // purchase, authorize, capture, void, credit
		"outcome",   // approved, declined, or an error kind (network, parse, merchant, validation)
		"test",      // true when the sandbox endpoint was used
	})

	gatewayAmountMinorUnits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_amount_minor_units_total",
		Help: "Total amount in minor units (cents) submitted per outcome",
	}, []string{
		"processor",
		"operation",
		"outcome",
		"currency",
	})

	gatewayOperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name: "gateway_operation_duration_seconds",
		Help: "Time to complete a gateway operation (build, exchange, parse)",
		// 100ms to 30s, typical processor latency
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{
		"processor",
		"operation",
	})

	redirectURLsBuilt = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_redirect_urls_total",
		Help: "Total hosted-checkout redirect URLs built",
	}, []string{
		"processor",
		"status", // built, invalid, callback, callback_invalid
	})
)

// RecordGatewayOperation records one completed gateway operation
func RecordGatewayOperation(
	processor, operation, outcome string,
	test bool,
	amountMinorUnits int64,
	currency string,
	duration float64,
) {
	testLabel := "false"
	if test {
		testLabel = "true"
	}

	gatewayOperationsTotal.WithLabelValues(processor, operation, outcome, testLabel).Inc()

	if amountMinorUnits > 0 {
		gatewayAmountMinorUnits.WithLabelValues(processor, operation, outcome, currency).Add(float64(amountMinorUnits))
	}

	gatewayOperationDuration.WithLabelValues(processor, operation).Observe(duration)
}

// RecordRedirectURL records a hosted-checkout URL build
func RecordRedirectURL(processor, status string) {
	redirectURLsBuilt.WithLabelValues(processor, status).Inc()
}
