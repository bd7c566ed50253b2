package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/routeledger/backend/internal/auth/service"
	"github.com/routeledger/backend/internal/auth/service/dto"
	"github.com/routeledger/backend/internal/auth/token"
	commonerrors "github.com/routeledger/backend/internal/common/errors"
	commonhttp "github.com/routeledger/backend/internal/common/http"
	"github.com/routeledger/backend/internal/common/logger"
	userdomain "github.com/routeledger/backend/internal/user/domain"
)

var ErrInsufficientRole = commonerrors.NewDomainError(
	"INSUFFICIENT_ROLE",
	commonerrors.CategoryForbidden,
	"elevated role required",
)

type IdentityResolver interface {
	ResolveIdentity(ctx context.Context, accessToken string) (dto.SafeUser, token.Claims, error)
}

type contextKey string

const (
	userKey   contextKey = "auth_user"
	claimsKey contextKey = "auth_claims"
)

func UserFromContext(ctx context.Context) (dto.SafeUser, bool) {
	user, ok := ctx.Value(userKey).(dto.SafeUser)
	return user, ok
}

func ClaimsFromContext(ctx context.Context) (token.Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(token.Claims)
	return claims, ok
}

// RequireAuth resolves the bearer credential and stores the live user and
// its claims in the request context. A subject that no longer exists is
// reported as unauthenticated.
func RequireAuth(resolver IdentityResolver, log *logger.Logger, sources ...TokenSource) func(http.Handler) http.Handler {
	if len(sources) == 0 {
		sources = []TokenSource{BearerHeader}
	}
	errorHandler := commonhttp.NewErrorHandler(log)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := ExtractToken(r, sources...)
			if raw == "" {
				log.WithFields(r.Context(), logger.Fields{
					"path":      r.URL.Path,
					"client_ip": commonhttp.GetClientIP(r),
					"action":    "auth_missing_token",
				}).Debug("request without bearer token")
				errorHandler.HandleError(w, r, ErrMissingAccessToken)
				return
			}

			user, claims, err := resolver.ResolveIdentity(r.Context(), raw)
			if err != nil {
				if errors.Is(err, service.ErrUserNotFound) {
					err = service.ErrInvalidAccessToken
				}
				errorHandler.HandleError(w, r, err)
				return
			}

			ctx := context.WithValue(r.Context(), userKey, user)
			ctx = context.WithValue(ctx, claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireElevated must run behind RequireAuth. The role is taken from the
// live user record rather than the token claim.
func RequireElevated(log *logger.Logger) func(http.Handler) http.Handler {
	errorHandler := commonhttp.NewErrorHandler(log)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok {
				errorHandler.HandleError(w, r, ErrMissingAccessToken)
				return
			}
			if !userdomain.Role(user.Role).IsElevated() {
				log.WithFields(r.Context(), logger.Fields{
					"user_id": user.ID,
					"path":    r.URL.Path,
					"action":  "auth_forbidden",
				}).Warn("elevated role required")
				errorHandler.HandleError(w, r, ErrInsufficientRole)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
