package http

import (
	"net/http"
	"time"

	"github.com/routeledger/backend/internal/common/constants"
)

type CookieConfig struct {
	Domain string
	Secure bool
	TTL    time.Duration
}

func (c CookieConfig) refreshCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     constants.RefreshTokenCookieName,
		Value:    value,
		Path:     "/",
		Domain:   c.Domain,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func (c CookieConfig) setRefreshCookie(w http.ResponseWriter, token string) {
	if token == "" {
		return
	}
	http.SetCookie(w, c.refreshCookie(token, int(c.TTL/time.Second)))
}

func (c CookieConfig) clearRefreshCookie(w http.ResponseWriter) {
	cookie := c.refreshCookie("", -1)
	cookie.Expires = time.Unix(0, 0)
	http.SetCookie(w, cookie)
}
