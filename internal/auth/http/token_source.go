package http

import (
	"net/http"
	"strings"

	"github.com/routeledger/backend/internal/common/constants"
	commonerrors "github.com/routeledger/backend/internal/common/errors"
)

var ErrMissingAccessToken = commonerrors.NewDomainError(
	"MISSING_ACCESS_TOKEN",
	commonerrors.CategoryAuthentication,
	"missing or malformed bearer token",
)

// TokenSource pulls a credential out of a request. An empty result means the
// source has nothing to offer and the next one is tried.
type TokenSource func(r *http.Request) string

// ExtractToken returns the first non-empty value produced by sources.
func ExtractToken(r *http.Request, sources ...TokenSource) string {
	for _, source := range sources {
		if v := source(r); v != "" {
			return v
		}
	}
	return ""
}

// BearerHeader reads "Authorization: Bearer <token>". The scheme is matched
// case-insensitively; any other scheme yields nothing.
func BearerHeader(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, ok := strings.Cut(raw, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func RefreshCookie(r *http.Request) string {
	cookie, err := r.Cookie(constants.RefreshTokenCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// Value wraps an already decoded field, such as a body property, as a source.
func Value(v string) TokenSource {
	return func(*http.Request) string {
		return strings.TrimSpace(v)
	}
}
