package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	authdomain "github.com/routeledger/backend/internal/auth/domain"
	authrepo "github.com/routeledger/backend/internal/auth/repository"
	"github.com/routeledger/backend/internal/auth/service/dto"
	"github.com/routeledger/backend/internal/auth/service/mapper"
	"github.com/routeledger/backend/internal/auth/token"
	"github.com/routeledger/backend/internal/common/clock"
	commoncrypto "github.com/routeledger/backend/internal/common/crypto"
	"github.com/routeledger/backend/internal/common/logger"
	"github.com/routeledger/backend/internal/common/resilience"
	userdomain "github.com/routeledger/backend/internal/user/domain"
	userrepo "github.com/routeledger/backend/internal/user/repository"
)

type AccessTokenCodec interface {
	Issue(userID string, role userdomain.Role) (string, time.Time, error)
	Verify(tokenString string) (token.Claims, error)
}

type Config struct {
	// AccessTokenExpiresIn is echoed to clients verbatim, e.g. "15m".
	AccessTokenExpiresIn string
	RefreshTokenTTL      time.Duration
}

// Session is the result of a successful login or rotation. RefreshToken is
// the only copy of the plaintext token.
type Session struct {
	User                  dto.SafeUser
	AccessToken           string
	AccessTokenExpiresAt  time.Time
	AccessTokenExpiresIn  string
	RefreshToken          string
	RefreshTokenExpiresAt time.Time
}

type AuthService struct {
	users            userrepo.Repository
	refreshTokens    authrepo.RefreshTokenRepository
	codec            AccessTokenCodec
	hasher           commoncrypto.PasswordHasher
	idGenerator      commoncrypto.IDGenerator
	dbCircuitBreaker resilience.CircuitBreakerInterface
	clock            clock.Clock
	cfg              Config
	log              *logger.Logger

	dummyHashOnce sync.Once
	dummyHash     string
}

func NewAuthService(
	users userrepo.Repository,
	refreshTokens authrepo.RefreshTokenRepository,
	codec AccessTokenCodec,
	hasher commoncrypto.PasswordHasher,
	idGenerator commoncrypto.IDGenerator,
	dbCircuitBreaker resilience.CircuitBreakerInterface,
	cfg Config,
	clock clock.Clock,
	log *logger.Logger,
) *AuthService {
	return &AuthService{
		users:            users,
		refreshTokens:    refreshTokens,
		codec:            codec,
		hasher:           hasher,
		idGenerator:      idGenerator,
		dbCircuitBreaker: dbCircuitBreaker,
		clock:            clock,
		cfg:              cfg,
		log:              log,
	}
}

func (s *AuthService) Login(ctx context.Context, identifier, password string) (Session, error) {
	identifier = strings.TrimSpace(identifier)

	s.log.WithFields(ctx, logger.Fields{
		"identifier": identifier,
		"action":     "login_attempt",
	}).Info("login attempt")

	if identifier == "" || password == "" {
		recordLogin("invalid_credentials")
		return Session{}, ErrInvalidCredentials
	}

	var user userdomain.User
	err := s.dbCircuitBreaker.Call(ctx, func(ctx context.Context) error {
		var err error
		user, err = s.users.FindByIdentifier(ctx, identifier)
		return err
	})
	if err != nil {
		if errors.Is(err, userrepo.ErrUserNotFound) {
			s.hasher.Verify(password, s.dummyPasswordHash())
			s.log.WithFields(ctx, logger.Fields{
				"identifier": identifier,
				"action":     "login_user_not_found",
			}).Warn("login failed: invalid credentials")
			recordLogin("invalid_credentials")
			return Session{}, ErrInvalidCredentials
		}
		s.log.WithFields(ctx, logger.Fields{
			"identifier": identifier,
			"action":     "login_fetch_failed",
		}).Errorf("login failed: %v", err)
		recordLogin("error")
		return Session{}, storageError(err)
	}

	passwordOK := s.hasher.Verify(password, user.PasswordHash)

	if !user.IsActive {
		s.log.WithFields(ctx, logger.Fields{
			"user_id": string(user.ID),
			"action":  "login_account_disabled",
		}).Warn("login failed: invalid credentials")
		recordLogin("invalid_credentials")
		return Session{}, ErrInvalidCredentials
	}

	if !passwordOK {
		s.log.WithFields(ctx, logger.Fields{
			"user_id": string(user.ID),
			"action":  "login_invalid_password",
		}).Warn("login failed: invalid credentials")
		recordLogin("invalid_credentials")
		return Session{}, ErrInvalidCredentials
	}

	session, err := s.startSession(ctx, user)
	if err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"user_id": string(user.ID),
			"action":  "login_token_issue_failed",
		}).Errorf("login failed: token issue error: %v", err)
		recordLogin("error")
		return Session{}, err
	}

	s.log.WithFields(ctx, logger.Fields{
		"user_id": string(user.ID),
		"action":  "login_success",
	}).Info("login success")
	recordLogin("success")

	return session, nil
}

// Refresh exchanges a refresh token for a new session. The presented record
// is revoked and its successor inserted in one transaction; of several
// concurrent presentations of the same token at most one succeeds.
func (s *AuthService) Refresh(ctx context.Context, presented string) (Session, error) {
	s.log.WithFields(ctx, logger.Fields{
		"action": "refresh_token_attempt",
	}).Info("refresh token attempt")

	if presented == "" {
		recordRotation("rejected")
		return Session{}, ErrInvalidRefreshToken
	}

	hash := HashRefreshToken(presented)
	now := s.clock.Now()

	var session Session
	var userID string
	err := s.dbCircuitBreaker.Call(ctx, func(ctx context.Context) error {
		return s.refreshTokens.TxManager().WithTx(ctx, func(ctx context.Context, tx authrepo.RefreshTokenTx) error {
			stored, err := tx.FindByTokenHash(ctx, hash)
			if err != nil {
				if errors.Is(err, authrepo.ErrRefreshTokenNotFound) {
					return s.rejectRefresh(ctx, "", "refresh_token_not_found")
				}
				return err
			}
			userID = stored.UserID

			if stored.IsRevoked() {
				return s.rejectRefresh(ctx, stored.UserID, "refresh_token_replayed")
			}
			if stored.IsExpired(now) {
				return s.rejectRefresh(ctx, stored.UserID, "refresh_token_expired")
			}

			user, err := s.users.FindByID(ctx, userdomain.ID(stored.UserID))
			if err != nil {
				if errors.Is(err, userrepo.ErrUserNotFound) {
					return s.rejectRefresh(ctx, stored.UserID, "refresh_token_owner_missing")
				}
				return err
			}
			if !user.IsActive {
				return s.rejectRefresh(ctx, stored.UserID, "refresh_token_owner_disabled")
			}

			n, err := tx.RevokeByTokenHash(ctx, hash, now)
			if err != nil {
				return err
			}
			if n != 1 {
				return s.rejectRefresh(ctx, stored.UserID, "refresh_token_lost_race")
			}

			session, err = s.buildSession(ctx, user, now, tx.Create)
			return err
		})
	})
	if err != nil {
		if errors.Is(err, ErrInvalidRefreshToken) {
			recordRotation("rejected")
			return Session{}, ErrInvalidRefreshToken
		}
		s.log.WithFields(ctx, logger.Fields{
			"user_id": userID,
			"action":  "refresh_token_failed",
		}).Errorf("refresh token failed: %v", err)
		recordRotation("error")
		return Session{}, storageError(err)
	}

	addRefreshTokensRevoked("rotated", 1)
	recordRotation("success")
	s.log.WithFields(ctx, logger.Fields{
		"user_id": userID,
		"action":  "refresh_token_success",
	}).Info("refresh token success")

	return session, nil
}

func (s *AuthService) rejectRefresh(ctx context.Context, userID, action string) error {
	fields := logger.Fields{"action": action}
	if userID != "" {
		fields["user_id"] = userID
	}
	s.log.WithFields(ctx, fields).Warn("refresh token rejected")
	return ErrInvalidRefreshToken
}

// Logout revokes the presented refresh token. Unknown, already revoked and
// empty tokens are not errors.
func (s *AuthService) Logout(ctx context.Context, presented string) error {
	if presented == "" {
		return nil
	}

	hash := HashRefreshToken(presented)
	var revoked int64
	err := s.dbCircuitBreaker.Call(ctx, func(ctx context.Context) error {
		var err error
		revoked, err = s.refreshTokens.RevokeByTokenHash(ctx, hash, s.clock.Now())
		return err
	})
	if err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"action": "logout_failed",
		}).Errorf("logout failed: %v", err)
		return storageError(err)
	}

	addRefreshTokensRevoked("logout", revoked)
	s.log.WithFields(ctx, logger.Fields{
		"revoked": revoked,
		"action":  "logout_success",
	}).Info("logout")

	return nil
}

// LogoutAll revokes every active refresh token of the user and returns how
// many were revoked.
func (s *AuthService) LogoutAll(ctx context.Context, userID string) (int64, error) {
	var revoked int64
	err := s.dbCircuitBreaker.Call(ctx, func(ctx context.Context) error {
		var err error
		revoked, err = s.refreshTokens.RevokeAllByUserID(ctx, userID, s.clock.Now())
		return err
	})
	if err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"user_id": userID,
			"action":  "logout_all_failed",
		}).Errorf("logout all failed: %v", err)
		return 0, storageError(err)
	}

	addRefreshTokensRevoked("logout_all", revoked)
	s.log.WithFields(ctx, logger.Fields{
		"user_id": userID,
		"revoked": revoked,
		"action":  "logout_all_success",
	}).Info("all sessions revoked")

	return revoked, nil
}

// ResolveIdentity verifies an access token and loads its subject. A missing
// subject yields ErrUserNotFound; boundaries present it as unauthenticated.
func (s *AuthService) ResolveIdentity(ctx context.Context, accessToken string) (dto.SafeUser, token.Claims, error) {
	claims, err := s.codec.Verify(accessToken)
	if err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"action": "resolve_identity_invalid_token",
		}).Debugf("access token rejected: %v", err)
		return dto.SafeUser{}, token.Claims{}, ErrInvalidAccessToken
	}

	var user userdomain.User
	err = s.dbCircuitBreaker.Call(ctx, func(ctx context.Context) error {
		var err error
		user, err = s.users.FindByID(ctx, userdomain.ID(claims.UserID))
		return err
	})
	if err != nil {
		if errors.Is(err, userrepo.ErrUserNotFound) {
			s.log.WithFields(ctx, logger.Fields{
				"user_id": claims.UserID,
				"action":  "resolve_identity_user_not_found",
			}).Warn("access token subject not found")
			return dto.SafeUser{}, token.Claims{}, ErrUserNotFound
		}
		s.log.WithFields(ctx, logger.Fields{
			"user_id": claims.UserID,
			"action":  "resolve_identity_failed",
		}).Errorf("resolve identity failed: %v", err)
		return dto.SafeUser{}, token.Claims{}, storageError(err)
	}

	if !user.IsActive {
		s.log.WithFields(ctx, logger.Fields{
			"user_id": claims.UserID,
			"action":  "resolve_identity_account_disabled",
		}).Warn("access token subject is disabled")
		return dto.SafeUser{}, token.Claims{}, ErrAccountDisabled
	}

	return mapper.UserToSafeUser(user), claims, nil
}

func (s *AuthService) startSession(ctx context.Context, user userdomain.User) (Session, error) {
	var session Session
	err := s.dbCircuitBreaker.Call(ctx, func(ctx context.Context) error {
		var err error
		session, err = s.buildSession(ctx, user, s.clock.Now(), s.refreshTokens.Create)
		return err
	})
	if err != nil {
		return Session{}, storageError(err)
	}
	return session, nil
}

// buildSession signs an access token and persists a fresh refresh token
// through create.
func (s *AuthService) buildSession(
	ctx context.Context,
	user userdomain.User,
	now time.Time,
	create func(context.Context, authdomain.RefreshToken) error,
) (Session, error) {
	accessToken, accessExpiresAt, err := s.codec.Issue(string(user.ID), user.Role)
	if err != nil {
		return Session{}, newInternalError("TOKEN_ISSUE_FAILED", "failed to issue access token", err)
	}

	rawToken, err := GenerateRefreshToken()
	if err != nil {
		return Session{}, newInternalError("TOKEN_ISSUE_FAILED", "failed to generate refresh token", err)
	}

	id, err := s.idGenerator.NewID()
	if err != nil {
		return Session{}, newInternalError("TOKEN_ISSUE_FAILED", "failed to generate refresh token id", err)
	}

	record := authdomain.RefreshToken{
		ID:        id,
		UserID:    string(user.ID),
		TokenHash: HashRefreshToken(rawToken),
		ExpiresAt: now.Add(s.cfg.RefreshTokenTTL),
		CreatedAt: now,
	}
	if err := create(ctx, record); err != nil {
		return Session{}, fmt.Errorf("failed to persist refresh token: %w", err)
	}
	incrementRefreshTokensIssued()

	return Session{
		User:                  mapper.UserToSafeUser(user),
		AccessToken:           accessToken,
		AccessTokenExpiresAt:  accessExpiresAt,
		AccessTokenExpiresIn:  s.cfg.AccessTokenExpiresIn,
		RefreshToken:          rawToken,
		RefreshTokenExpiresAt: record.ExpiresAt,
	}, nil
}

// dummyPasswordHash is verified against when no user matches so that an
// unknown identifier costs the same as a wrong password.
func (s *AuthService) dummyPasswordHash() string {
	s.dummyHashOnce.Do(func() {
		hash, err := s.hasher.Hash("routeledger-dummy-password")
		if err != nil {
			s.log.Warnf("failed to prepare dummy password hash: %v", err)
			return
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}
