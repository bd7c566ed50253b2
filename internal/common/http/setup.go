package http

import (
	"net/http"

	"github.com/routeledger/backend/internal/common/constants"
	"github.com/routeledger/backend/internal/common/httpmetrics"
	"github.com/routeledger/backend/internal/common/logger"
)

func BuildBaseHandler(log *logger.Logger, handler http.Handler) http.Handler {
	metrics := httpmetrics.New()
	recovery := RecoveryMiddleware(log)
	maxRequestSize := MaxRequestSizeMiddleware(constants.DefaultMaxRequestSize)

	return SecurityHeadersMiddleware(TraceIDMiddleware(recovery(maxRequestSize(metrics.Wrap(handler)))))
}
