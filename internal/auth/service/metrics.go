package service

import "github.com/routeledger/backend/internal/observability/metrics"

func recordLogin(outcome string) {
	metrics.LoginAttemptsTotal.WithLabelValues(outcome).Inc()
}

func recordRotation(outcome string) {
	metrics.RefreshRotationsTotal.WithLabelValues(outcome).Inc()
}

func incrementRefreshTokensIssued() {
	metrics.RefreshTokensIssued.Inc()
}

func addRefreshTokensRevoked(reason string, n int64) {
	if n > 0 {
		metrics.RefreshTokensRevoked.WithLabelValues(reason).Add(float64(n))
	}
}
