package http

import (
	"net/http"
	"strconv"

	commonerrors "github.com/routeledger/backend/internal/common/errors"
	"github.com/routeledger/backend/internal/common/httpmetrics"
	"github.com/routeledger/backend/internal/common/logger"
	"github.com/routeledger/backend/internal/observability/metrics"
)

// StatusForCategory maps an error category to the HTTP status written at
// the transport boundary.
func StatusForCategory(category commonerrors.ErrorCategory) int {
	switch category {
	case commonerrors.CategoryValidation:
		return http.StatusBadRequest
	case commonerrors.CategoryAuthentication:
		return http.StatusUnauthorized
	case commonerrors.CategoryForbidden:
		return http.StatusForbidden
	case commonerrors.CategoryNotFound:
		return http.StatusNotFound
	case commonerrors.CategoryConflict:
		return http.StatusConflict
	case commonerrors.CategoryUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

type ErrorHandler struct {
	log *logger.Logger
}

func NewErrorHandler(log *logger.Logger) *ErrorHandler {
	return &ErrorHandler{log: log}
}

func (h *ErrorHandler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}

	if domainErr, ok := commonerrors.AsDomainError(err); ok && domainErr.Category() != commonerrors.CategoryInternal {
		h.handleDomainError(w, r, domainErr)
		return
	}

	ctx := r.Context()
	traceID := TraceIDFromContext(ctx)

	h.log.WithFields(ctx, logger.Fields{
		"error":  err.Error(),
		"path":   r.URL.Path,
		"action": "unhandled_error",
	}).Errorf("unhandled error: %v", err)

	metrics.HTTPErrorsTotal.WithLabelValues(
		strconv.Itoa(http.StatusInternalServerError),
		httpmetrics.NormalizePath(r.URL.Path),
		r.Method,
	).Inc()

	WriteErrorEnvelope(w, http.StatusInternalServerError, CodeInternal, "internal server error", nil, traceID)
}

func (h *ErrorHandler) handleDomainError(w http.ResponseWriter, r *http.Request, domainErr commonerrors.DomainError) {
	ctx := r.Context()
	traceID := TraceIDFromContext(ctx)
	status := StatusForCategory(domainErr.Category())

	if h.log.ShouldLog(logger.DEBUG) {
		h.log.WithFields(ctx, logger.Fields{
			"error_code": domainErr.Code(),
			"category":   string(domainErr.Category()),
			"status":     status,
			"action":     "domain_error",
		}).Debugf("domain error: %s", domainErr.Error())
	}

	metrics.DomainErrorsTotal.WithLabelValues(
		string(domainErr.Category()),
		domainErr.Code(),
		strconv.Itoa(status),
	).Inc()

	metrics.HTTPErrorsTotal.WithLabelValues(
		strconv.Itoa(status),
		httpmetrics.NormalizePath(r.URL.Path),
		r.Method,
	).Inc()

	WriteErrorEnvelope(w, status, domainErr.Code(), domainErr.Message(), domainErr.Details(), traceID)
}
