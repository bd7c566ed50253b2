package service

import (
	"github.com/routeledger/backend/internal/auth/token"
	commonerrors "github.com/routeledger/backend/internal/common/errors"
)

var (
	ErrInvalidCredentials = commonerrors.NewDomainError(
		"INVALID_CREDENTIALS",
		commonerrors.CategoryAuthentication,
		"invalid credentials",
	)

	ErrInvalidRefreshToken = commonerrors.NewDomainError(
		"INVALID_REFRESH_TOKEN",
		commonerrors.CategoryAuthentication,
		"invalid refresh token",
	)

	ErrAccountDisabled = commonerrors.NewDomainError(
		"ACCOUNT_DISABLED",
		commonerrors.CategoryAuthentication,
		"account is disabled",
	)

	ErrServiceUnavailable = commonerrors.NewDomainError(
		"SERVICE_UNAVAILABLE",
		commonerrors.CategoryUnavailable,
		"service temporarily unavailable",
	)

	ErrUserNotFound = commonerrors.ErrUserNotFound

	ErrInvalidAccessToken = token.ErrInvalidAccessToken
)
