package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/routeledger/backend/internal/auth/service"
	"github.com/routeledger/backend/internal/auth/service/dto"
	"github.com/routeledger/backend/internal/auth/token"
	commonhttp "github.com/routeledger/backend/internal/common/http"
	"github.com/routeledger/backend/internal/common/logger"
	userdomain "github.com/routeledger/backend/internal/user/domain"
)

var (
	testUser = dto.SafeUser{ID: "u-1", Username: "admin", Role: "ADMIN", Email: "admin@example.com", IsActive: true}
	testExp  = time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
)

func testSession(refresh string) service.Session {
	return service.Session{
		User:                  testUser,
		AccessToken:           "access-" + refresh,
		AccessTokenExpiresIn:  "15m",
		RefreshToken:          refresh,
		RefreshTokenExpiresAt: testExp,
	}
}

func newTestHandler(svc *mockSessionService) http.Handler {
	return NewHandler(svc, Options{
		Cookie: CookieConfig{Domain: "example.com", Secure: true, TTL: 7 * 24 * time.Hour},
	}, logger.Discard())
}

func do(h http.Handler, method, path, body string, mutate ...func(*http.Request)) *httptest.ResponseRecorder {
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, path, nil)
	} else {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	}
	for _, m := range mutate {
		m(r)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func refreshCookieFrom(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == "refreshToken" {
			return c
		}
	}
	t.Fatalf("refreshToken cookie not set")
	return nil
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) commonhttp.ErrorEnvelope {
	t.Helper()
	var env commonhttp.ErrorEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func TestLogin_Success(t *testing.T) {
	var gotIdentifier, gotPassword string
	svc := &mockSessionService{
		loginFunc: func(_ context.Context, identifier, password string) (service.Session, error) {
			gotIdentifier, gotPassword = identifier, password
			return testSession("r1"), nil
		},
	}

	w := do(newTestHandler(svc), http.MethodPost, "/api/auth/login", `{"identifier":"admin","password":"ChangeMe123!"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "admin", gotIdentifier)
	assert.Equal(t, "ChangeMe123!", gotPassword)

	var resp sessionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "access-r1", resp.AccessToken)
	assert.Equal(t, "15m", resp.AccessTokenExpiresIn)
	assert.Equal(t, "ADMIN", resp.User.Role)
	assert.True(t, testExp.Equal(resp.RefreshTokenExpiresAt))
	assert.NotContains(t, w.Body.String(), `"refreshToken"`)

	cookie := refreshCookieFrom(t, w)
	assert.Equal(t, "r1", cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.True(t, cookie.Secure)
	assert.Equal(t, "/", cookie.Path)
	assert.Equal(t, "example.com", cookie.Domain)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
	assert.Equal(t, 7*24*60*60, cookie.MaxAge)
}

func TestLogin_IdentifierAliases(t *testing.T) {
	for _, body := range []string{
		`{"username":"admin","password":"ChangeMe123!"}`,
		`{"email":"admin","password":"ChangeMe123!"}`,
		`{"identifier":"  ","username":"admin","password":"ChangeMe123!"}`,
	} {
		var got string
		svc := &mockSessionService{
			loginFunc: func(_ context.Context, identifier, _ string) (service.Session, error) {
				got = identifier
				return testSession("r"), nil
			},
		}
		w := do(newTestHandler(svc), http.MethodPost, "/api/auth/login", body)
		assert.Equal(t, http.StatusOK, w.Code, body)
		assert.Equal(t, "admin", got, body)
	}
}

func TestLogin_ValidationRejectedBeforeService(t *testing.T) {
	called := false
	svc := &mockSessionService{
		loginFunc: func(context.Context, string, string) (service.Session, error) {
			called = true
			return service.Session{}, nil
		},
	}
	h := newTestHandler(svc)

	w := do(h, http.MethodPost, "/api/auth/login", `{"password":"ChangeMe123!"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	env := decodeEnvelope(t, w)
	assert.Equal(t, commonhttp.CodeValidationFailed, env.Code)
	assert.Equal(t, "required", env.Details["identifier"])

	w = do(h, http.MethodPost, "/api/auth/login", `{"identifier":"admin","password":"123"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "min", decodeEnvelope(t, w).Details["password"])

	w = do(h, http.MethodPost, "/api/auth/login", `{not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, commonhttp.CodeInvalidJSON, decodeEnvelope(t, w).Code)

	assert.False(t, called)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	w := do(newTestHandler(&mockSessionService{}), http.MethodPost, "/api/auth/login", `{"identifier":"admin","password":"wrong-password"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "INVALID_CREDENTIALS", decodeEnvelope(t, w).Code)
	assert.Empty(t, w.Result().Cookies())
}

func TestLogin_MethodNotAllowed(t *testing.T) {
	w := do(newTestHandler(&mockSessionService{}), http.MethodGet, "/api/auth/login", "")
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestRefresh_CookieTakesPrecedence(t *testing.T) {
	var got string
	svc := &mockSessionService{
		refreshFunc: func(_ context.Context, presented string) (service.Session, error) {
			got = presented
			return testSession("r2"), nil
		},
	}

	w := do(newTestHandler(svc), http.MethodPost, "/api/auth/refresh", `{"refreshToken":"from-body"}`, func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: "refreshToken", Value: "from-cookie"})
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "from-cookie", got)
	assert.Equal(t, "r2", refreshCookieFrom(t, w).Value)
}

func TestRefresh_BodyFallback(t *testing.T) {
	var got string
	svc := &mockSessionService{
		refreshFunc: func(_ context.Context, presented string) (service.Session, error) {
			got = presented
			return testSession("r3"), nil
		},
	}

	w := do(newTestHandler(svc), http.MethodPost, "/api/auth/refresh", `{"refreshToken":"from-body"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "from-body", got)
}

func TestRefresh_MissingTokenIsValidationError(t *testing.T) {
	w := do(newTestHandler(&mockSessionService{}), http.MethodPost, "/api/auth/refresh", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "required", decodeEnvelope(t, w).Details["refreshToken"])
}

func TestRefresh_Rejected(t *testing.T) {
	w := do(newTestHandler(&mockSessionService{}), http.MethodPost, "/api/auth/refresh", `{"refreshToken":"stale"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "INVALID_REFRESH_TOKEN", decodeEnvelope(t, w).Code)
}

func TestRefresh_StorageFailureIsGenericInternal(t *testing.T) {
	svc := &mockSessionService{
		refreshFunc: func(context.Context, string) (service.Session, error) {
			return service.Session{}, errors.New("pq: relation refresh_tokens does not exist")
		},
	}

	w := do(newTestHandler(svc), http.MethodPost, "/api/auth/refresh", `{"refreshToken":"x"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	env := decodeEnvelope(t, w)
	assert.Equal(t, commonhttp.CodeInternal, env.Code)
	assert.NotContains(t, w.Body.String(), "relation")
}

func TestRefresh_Unavailable(t *testing.T) {
	svc := &mockSessionService{
		refreshFunc: func(context.Context, string) (service.Session, error) {
			return service.Session{}, service.ErrServiceUnavailable
		},
	}

	w := do(newTestHandler(svc), http.MethodPost, "/api/auth/refresh", `{"refreshToken":"x"}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestLogout_ClearsCookie(t *testing.T) {
	var got string
	svc := &mockSessionService{
		logoutFunc: func(_ context.Context, presented string) error {
			got = presented
			return nil
		},
	}

	w := do(newTestHandler(svc), http.MethodPost, "/api/auth/logout", "", func(r *http.Request) {
		r.AddCookie(&http.Cookie{Name: "refreshToken", Value: "current"})
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "current", got)
	assert.JSONEq(t, `{"success":true}`, w.Body.String())

	cookie := refreshCookieFrom(t, w)
	assert.Empty(t, cookie.Value)
	assert.Equal(t, -1, cookie.MaxAge)
}

func TestLogout_WithoutTokenSkipsService(t *testing.T) {
	called := false
	svc := &mockSessionService{
		logoutFunc: func(context.Context, string) error {
			called = true
			return nil
		},
	}

	w := do(newTestHandler(svc), http.MethodPost, "/api/auth/logout", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.False(t, called)
}

func TestLogout_PropagatesStorageFailure(t *testing.T) {
	svc := &mockSessionService{
		logoutFunc: func(context.Context, string) error {
			return errors.New("timeout")
		},
	}

	w := do(newTestHandler(svc), http.MethodPost, "/api/auth/logout", `{"refreshToken":"x"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func authenticated(claims token.Claims) *mockSessionService {
	return &mockSessionService{
		resolveIdentityFunc: func(_ context.Context, accessToken string) (dto.SafeUser, token.Claims, error) {
			if accessToken != "good" {
				return dto.SafeUser{}, token.Claims{}, service.ErrInvalidAccessToken
			}
			return testUser, claims, nil
		},
	}
}

func bearer(v string) func(*http.Request) {
	return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+v) }
}

func TestMe(t *testing.T) {
	iat := time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC)
	svc := authenticated(token.Claims{
		UserID:    "u-1",
		Role:      userdomain.RoleAdmin,
		ID:        "jti-1",
		IssuedAt:  iat,
		ExpiresAt: iat.Add(15 * time.Minute),
	})

	w := do(newTestHandler(svc), http.MethodGet, "/api/auth/me", "", bearer("good"))
	require.Equal(t, http.StatusOK, w.Code)

	var resp meResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "admin", resp.User.Username)
	assert.Equal(t, "u-1", resp.Token.Sub)
	assert.Equal(t, "ADMIN", resp.Token.Role)
	assert.Equal(t, iat.Unix(), resp.Token.Iat)
	assert.Equal(t, iat.Add(15*time.Minute).Unix(), resp.Token.Exp)
}

func TestMe_Unauthenticated(t *testing.T) {
	h := newTestHandler(authenticated(token.Claims{}))

	w := do(h, http.MethodGet, "/api/auth/me", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "MISSING_ACCESS_TOKEN", decodeEnvelope(t, w).Code)

	w = do(h, http.MethodGet, "/api/auth/me", "", func(r *http.Request) {
		r.Header.Set("Authorization", "Token good")
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(h, http.MethodGet, "/api/auth/me", "", bearer("forged"))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "INVALID_ACCESS_TOKEN", decodeEnvelope(t, w).Code)
}

func TestLogoutAll(t *testing.T) {
	svc := authenticated(token.Claims{UserID: "u-1", Role: userdomain.RoleAdmin})
	var got string
	svc.logoutAllFunc = func(_ context.Context, userID string) (int64, error) {
		got = userID
		return 3, nil
	}

	w := do(newTestHandler(svc), http.MethodPost, "/api/auth/logout-all", "", bearer("good"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u-1", got)
	assert.JSONEq(t, `{"success":true,"revoked":3}`, w.Body.String())
	assert.Equal(t, -1, refreshCookieFrom(t, w).MaxAge)
}

func TestHealthAndMetricsAreMounted(t *testing.T) {
	h := newTestHandler(&mockSessionService{})

	w := do(h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(h, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
}
