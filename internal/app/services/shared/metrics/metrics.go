package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "maternity_payment"

var (
	GatewayRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gateway_requests_total",
			Help:      "Paynow calls by operation and result",
		},
		[]string{"operation", "result"},
	)

	GatewayRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "gateway_request_duration_seconds",
			Help:      "Latency of Paynow calls",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 15},
		},
		[]string{"operation"},
	)

	WorkflowsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "workflows_total",
			Help:      "Settled payment workflows by purpose and terminal state",
		},
		[]string{"purpose", "state"},
	)

	WorkflowDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "workflow_duration_seconds",
			Help:      "Time from start to settlement",
			Buckets:   []float64{5, 10, 20, 30, 45, 60, 90, 120, 150, 180},
		},
		[]string{"state"},
	)

	ReconciliationFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconciliation_failures_total",
			Help:      "Confirmed payments whose local bookkeeping stopped at a stage",
		},
		[]string{"stage"},
	)

	SweptIntentsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "swept_intents_total",
			Help:      "Stale journal entries marked timed out by the sweeper",
		},
	)
)

func init() {
	prometheus.MustRegister(
		GatewayRequestsTotal,
		GatewayRequestDuration,
		WorkflowsTotal,
		WorkflowDuration,
		ReconciliationFailuresTotal,
		SweptIntentsTotal,
	)
}

func ObserveGatewayRequest(operation, result string, seconds float64) {
	GatewayRequestsTotal.WithLabelValues(operation, result).Inc()
	GatewayRequestDuration.WithLabelValues(operation).Observe(seconds)
}

func ObserveWorkflow(purpose, state string, seconds float64) {
	WorkflowsTotal.WithLabelValues(purpose, state).Inc()
	WorkflowDuration.WithLabelValues(state).Observe(seconds)
}

func IncReconciliationFailure(stage string) {
	ReconciliationFailuresTotal.WithLabelValues(stage).Inc()
}

func AddSweptIntents(n int) {
	SweptIntentsTotal.Add(float64(n))
}
