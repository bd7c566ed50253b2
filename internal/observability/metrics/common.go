package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CircuitBreakerState is 1 while the named breaker rejects calls.
	CircuitBreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "circuit_breaker_open",
		Help:      "Whether the named circuit breaker is open (1) or closed (0).",
	}, []string{"name"})

	CircuitBreakerFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "circuit_breaker_failures_total",
		Help:      "Infrastructure failures counted by the named circuit breaker.",
	}, []string{"name"})

	DomainErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "domain_errors_total",
		Help:      "Domain errors returned to clients by category, code and HTTP status.",
	}, []string{"category", "code", "status"})

	HTTPErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_errors_total",
		Help:      "Error responses by HTTP status, route and method.",
	}, []string{"status", "path", "method"})
)
