package http

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/routeledger/backend/internal/auth/service"
	"github.com/routeledger/backend/internal/auth/service/dto"
	"github.com/routeledger/backend/internal/auth/token"
	commonhttp "github.com/routeledger/backend/internal/common/http"
	"github.com/routeledger/backend/internal/common/logger"
)

// SessionService is the part of the session manager the HTTP boundary uses.
type SessionService interface {
	IdentityResolver
	Login(ctx context.Context, identifier, password string) (service.Session, error)
	Refresh(ctx context.Context, presented string) (service.Session, error)
	Logout(ctx context.Context, presented string) error
	LogoutAll(ctx context.Context, userID string) (int64, error)
}

type Options struct {
	Cookie         CookieConfig
	RequestTimeout time.Duration
	DB             commonhttp.Pinger
}

type loginRequest struct {
	Identifier string `json:"identifier"`
	Username   string `json:"username"`
	Email      string `json:"email"`
	Password   string `json:"password"`
}

type loginInput struct {
	Identifier string `json:"identifier" validate:"required,max=255"`
	Password   string `json:"password" validate:"required,min=6,max=256"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type refreshInput struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

type sessionResponse struct {
	Success               bool         `json:"success"`
	User                  dto.SafeUser `json:"user"`
	AccessToken           string       `json:"accessToken"`
	AccessTokenExpiresIn  string       `json:"accessTokenExpiresIn"`
	RefreshTokenExpiresAt time.Time    `json:"refreshTokenExpiresAt"`
}

type tokenPayload struct {
	Sub  string `json:"sub"`
	Role string `json:"role"`
	JTI  string `json:"jti,omitempty"`
	Iat  int64  `json:"iat"`
	Exp  int64  `json:"exp"`
}

type meResponse struct {
	Success bool         `json:"success"`
	User    dto.SafeUser `json:"user"`
	Token   tokenPayload `json:"token"`
}

type successResponse struct {
	Success bool `json:"success"`
}

type logoutAllResponse struct {
	Success bool  `json:"success"`
	Revoked int64 `json:"revoked"`
}

type Handler struct {
	auth         SessionService
	cookie       CookieConfig
	errorHandler *commonhttp.ErrorHandler
	log          *logger.Logger
}

func NewHandler(auth SessionService, opts Options, log *logger.Logger) http.Handler {
	h := &Handler{
		auth:         auth,
		cookie:       opts.Cookie,
		errorHandler: commonhttp.NewErrorHandler(log),
		log:          log,
	}

	post := func(fn http.HandlerFunc) http.HandlerFunc {
		return commonhttp.RequireMethod(http.MethodPost)(commonhttp.WithTimeout(opts.RequestTimeout)(fn))
	}
	get := func(fn http.HandlerFunc) http.HandlerFunc {
		return commonhttp.RequireMethod(http.MethodGet)(commonhttp.WithTimeout(opts.RequestTimeout)(fn))
	}
	requireAuth := RequireAuth(auth, log, BearerHeader)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", commonhttp.HealthHandler(log, opts.DB))
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/api/auth/login", post(h.login))
	mux.HandleFunc("/api/auth/refresh", post(h.refresh))
	mux.HandleFunc("/api/auth/logout", post(h.logout))
	mux.Handle("/api/auth/logout-all", requireAuth(post(h.logoutAll)))
	mux.Handle("/api/auth/me", requireAuth(get(h.me)))
	return mux
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := commonhttp.DecodeAndValidate(r, &req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	input := loginInput{
		Identifier: ExtractToken(r, Value(req.Identifier), Value(req.Username), Value(req.Email)),
		Password:   req.Password,
	}
	if err := commonhttp.ValidateStruct(input); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	session, err := h.auth.Login(r.Context(), input.Identifier, input.Password)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.writeSession(w, session)
}

func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	presented, err := h.presentedRefreshToken(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	input := refreshInput{RefreshToken: presented}
	if err := commonhttp.ValidateStruct(input); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	session, err := h.auth.Refresh(r.Context(), input.RefreshToken)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.writeSession(w, session)
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	presented, err := h.presentedRefreshToken(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	if presented != "" {
		if err := h.auth.Logout(r.Context(), presented); err != nil {
			h.errorHandler.HandleError(w, r, err)
			return
		}
	}

	h.cookie.clearRefreshCookie(w)
	commonhttp.WriteJSON(w, http.StatusOK, successResponse{Success: true})
}

func (h *Handler) logoutAll(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		h.errorHandler.HandleError(w, r, ErrMissingAccessToken)
		return
	}

	revoked, err := h.auth.LogoutAll(r.Context(), user.ID)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.cookie.clearRefreshCookie(w)
	commonhttp.WriteJSON(w, http.StatusOK, logoutAllResponse{Success: true, Revoked: revoked})
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	user, okUser := UserFromContext(r.Context())
	claims, okClaims := ClaimsFromContext(r.Context())
	if !okUser || !okClaims {
		h.errorHandler.HandleError(w, r, ErrMissingAccessToken)
		return
	}

	commonhttp.WriteJSON(w, http.StatusOK, meResponse{
		Success: true,
		User:    user,
		Token:   newTokenPayload(claims),
	})
}

// presentedRefreshToken prefers the cookie and falls back to the
// refreshToken body field.
func (h *Handler) presentedRefreshToken(r *http.Request) (string, error) {
	var req refreshRequest
	if err := commonhttp.DecodeAndValidate(r, &req); err != nil {
		return "", err
	}
	return ExtractToken(r, RefreshCookie, Value(req.RefreshToken)), nil
}

func (h *Handler) writeSession(w http.ResponseWriter, session service.Session) {
	h.cookie.setRefreshCookie(w, session.RefreshToken)
	commonhttp.WriteJSON(w, http.StatusOK, sessionResponse{
		Success:               true,
		User:                  session.User,
		AccessToken:           session.AccessToken,
		AccessTokenExpiresIn:  session.AccessTokenExpiresIn,
		RefreshTokenExpiresAt: session.RefreshTokenExpiresAt,
	})
}

func newTokenPayload(claims token.Claims) tokenPayload {
	return tokenPayload{
		Sub:  claims.UserID,
		Role: string(claims.Role),
		JTI:  claims.ID,
		Iat:  claims.IssuedAt.Unix(),
		Exp:  claims.ExpiresAt.Unix(),
	}
}
