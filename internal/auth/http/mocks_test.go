package http

import (
	"context"

	"github.com/routeledger/backend/internal/auth/service"
	"github.com/routeledger/backend/internal/auth/service/dto"
	"github.com/routeledger/backend/internal/auth/token"
)

type mockSessionService struct {
	loginFunc           func(ctx context.Context, identifier, password string) (service.Session, error)
	refreshFunc         func(ctx context.Context, presented string) (service.Session, error)
	logoutFunc          func(ctx context.Context, presented string) error
	logoutAllFunc       func(ctx context.Context, userID string) (int64, error)
	resolveIdentityFunc func(ctx context.Context, accessToken string) (dto.SafeUser, token.Claims, error)
}

func (m *mockSessionService) Login(ctx context.Context, identifier, password string) (service.Session, error) {
	if m.loginFunc != nil {
		return m.loginFunc(ctx, identifier, password)
	}
	return service.Session{}, service.ErrInvalidCredentials
}

func (m *mockSessionService) Refresh(ctx context.Context, presented string) (service.Session, error) {
	if m.refreshFunc != nil {
		return m.refreshFunc(ctx, presented)
	}
	return service.Session{}, service.ErrInvalidRefreshToken
}

func (m *mockSessionService) Logout(ctx context.Context, presented string) error {
	if m.logoutFunc != nil {
		return m.logoutFunc(ctx, presented)
	}
	return nil
}

func (m *mockSessionService) LogoutAll(ctx context.Context, userID string) (int64, error) {
	if m.logoutAllFunc != nil {
		return m.logoutAllFunc(ctx, userID)
	}
	return 0, nil
}

func (m *mockSessionService) ResolveIdentity(ctx context.Context, accessToken string) (dto.SafeUser, token.Claims, error) {
	if m.resolveIdentityFunc != nil {
		return m.resolveIdentityFunc(ctx, accessToken)
	}
	return dto.SafeUser{}, token.Claims{}, service.ErrInvalidAccessToken
}
