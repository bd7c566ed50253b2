package commonerrors

import (
	"errors"
	"fmt"
)

type ErrorCategory string

const (
	CategoryValidation     ErrorCategory = "VALIDATION"
	CategoryAuthentication ErrorCategory = "AUTHENTICATION"
	CategoryForbidden      ErrorCategory = "FORBIDDEN"
	CategoryNotFound       ErrorCategory = "NOT_FOUND"
	CategoryConflict       ErrorCategory = "CONFLICT"
	CategoryUnavailable    ErrorCategory = "UNAVAILABLE"
	CategoryInternal       ErrorCategory = "INTERNAL"
)

// DomainError is the only error shape allowed to cross the service boundary.
// Transport status codes are derived from Category by the boundary layer.
type DomainError interface {
	error
	Code() string
	Category() ErrorCategory
	Message() string
	Details() map[string]any
	Unwrap() error
	WithCause(cause error) DomainError
	WithDetails(details map[string]any) DomainError
}

type domainError struct {
	code     string
	category ErrorCategory
	message  string
	details  map[string]any
	cause    error
}

func (e *domainError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

func (e *domainError) Code() string {
	return e.code
}

func (e *domainError) Category() ErrorCategory {
	return e.category
}

func (e *domainError) Message() string {
	return e.message
}

func (e *domainError) Details() map[string]any {
	return e.details
}

func (e *domainError) Unwrap() error {
	return e.cause
}

// Is matches on code so that a copy produced by WithCause still satisfies
// errors.Is against the sentinel it was derived from.
func (e *domainError) Is(target error) bool {
	t, ok := target.(*domainError)
	if !ok {
		return false
	}
	return e.code == t.code
}

func (e *domainError) WithCause(cause error) DomainError {
	return &domainError{
		code:     e.code,
		category: e.category,
		message:  e.message,
		details:  e.details,
		cause:    cause,
	}
}

func (e *domainError) WithDetails(details map[string]any) DomainError {
	return &domainError{
		code:     e.code,
		category: e.category,
		message:  e.message,
		details:  details,
		cause:    e.cause,
	}
}

func NewDomainError(code string, category ErrorCategory, message string) DomainError {
	return &domainError{
		code:     code,
		category: category,
		message:  message,
	}
}

func IsDomainError(err error) bool {
	var de DomainError
	return errors.As(err, &de)
}

func AsDomainError(err error) (DomainError, bool) {
	var de DomainError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

func IsCategory(err error, category ErrorCategory) bool {
	de, ok := AsDomainError(err)
	return ok && de.Category() == category
}
