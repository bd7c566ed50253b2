package service

import (
	"errors"

	commonerrors "github.com/routeledger/backend/internal/common/errors"
)

// storageError converts a failed store call into the error returned to
// callers: an open breaker becomes ErrServiceUnavailable, anything that is
// not already a domain error becomes an INTERNAL one carrying the cause.
func storageError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, commonerrors.ErrCircuitOpen) {
		return ErrServiceUnavailable.WithCause(err)
	}
	if commonerrors.IsDomainError(err) {
		return err
	}
	return newInternalError("STORAGE_FAILURE", "storage operation failed", err)
}

func newInternalError(code, message string, cause error) commonerrors.DomainError {
	err := commonerrors.NewDomainError(code, commonerrors.CategoryInternal, message)
	if cause != nil {
		err = err.WithCause(cause)
	}
	return err
}
