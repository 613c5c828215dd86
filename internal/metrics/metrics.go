package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	contributionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "smartsave_contributions_total",
		Help: "Count of contribution attempts by outcome",
	}, []string{"status"})

	cyclesClosedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "smartsave_cycles_closed_total",
		Help: "Count of cycles closed after all members contributed",
	})

	payoutsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "smartsave_payouts_total",
		Help: "Count of payout disbursement attempts by outcome",
	}, []string{"result"})

	gatewayRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "smartsave_gateway_request_duration_seconds",
		Help:    "Duration of payment gateway calls",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "result"})
)

// ObserveContribution records a contribution attempt outcome.
func ObserveContribution(status string) {
	contributionsTotal.WithLabelValues(status).Inc()
}

// ObserveCycleClosed records a completed cycle closure.
func ObserveCycleClosed() {
	cyclesClosedTotal.Inc()
}

// ObservePayout records a payout disbursement attempt outcome.
func ObservePayout(result string) {
	payoutsTotal.WithLabelValues(result).Inc()
}

// ObserveGatewayRequest records the latency of one gateway call.
func ObserveGatewayRequest(operation, result string, duration time.Duration) {
	gatewayRequestDuration.WithLabelValues(operation, result).Observe(duration.Seconds())
}
