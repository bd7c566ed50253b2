package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/routeledger/backend/internal/common/clock"
	"github.com/routeledger/backend/internal/common/constants"
	commoncrypto "github.com/routeledger/backend/internal/common/crypto"
	commonerrors "github.com/routeledger/backend/internal/common/errors"
	"github.com/routeledger/backend/internal/observability/metrics"
	userdomain "github.com/routeledger/backend/internal/user/domain"
)

var ErrInvalidAccessToken = commonerrors.NewDomainError(
	"INVALID_ACCESS_TOKEN",
	commonerrors.CategoryAuthentication,
	"invalid or expired access token",
)

// Claims is the verified content of an access token.
type Claims struct {
	UserID    string
	Role      userdomain.Role
	ID        string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type accessClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Codec issues and verifies HS256 access tokens. It never touches storage.
type Codec struct {
	secret      []byte
	ttl         time.Duration
	idGenerator commoncrypto.IDGenerator
	clock       clock.Clock
	parser      *jwt.Parser
}

func NewCodec(secret string, ttl time.Duration, idGenerator commoncrypto.IDGenerator, c clock.Clock) (*Codec, error) {
	if len(secret) < constants.JWTSecretMinLength {
		return nil, commonerrors.ErrInvalidJWTSecret
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("access token ttl must be positive, got %s", ttl)
	}
	if c == nil {
		c = clock.NewRealClock()
	}
	return &Codec{
		secret:      []byte(secret),
		ttl:         ttl,
		idGenerator: idGenerator,
		clock:       c,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
			jwt.WithTimeFunc(c.Now),
		),
	}, nil
}

// Issue signs an access token for the user and returns it together with its
// expiry. The expiry is truncated to whole seconds as encoded in the token.
func (c *Codec) Issue(userID string, role userdomain.Role) (string, time.Time, error) {
	if userID == "" || role == "" {
		return "", time.Time{}, errors.New("access token requires subject and role")
	}

	jti, err := c.idGenerator.NewID()
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to generate token id: %w", err)
	}

	now := c.clock.Now().Truncate(time.Second)
	expiresAt := now.Add(c.ttl)
	claims := accessClaims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign access token: %w", err)
	}

	metrics.AccessTokensIssued.Inc()
	return signed, expiresAt, nil
}

// Verify checks signature, algorithm and expiry and returns the claims. Every
// failure is reported as ErrInvalidAccessToken.
func (c *Codec) Verify(tokenString string) (Claims, error) {
	metrics.JWTValidationsTotal.Inc()

	var claims accessClaims
	parsed, err := c.parser.ParseWithClaims(tokenString, &claims, func(*jwt.Token) (any, error) {
		return c.secret, nil
	})
	if err != nil || !parsed.Valid {
		metrics.JWTValidationsFailed.Inc()
		if err == nil {
			err = errors.New("token is not valid")
		}
		return Claims{}, ErrInvalidAccessToken.WithCause(err)
	}

	if claims.Subject == "" || claims.Role == "" {
		metrics.JWTValidationsFailed.Inc()
		return Claims{}, ErrInvalidAccessToken.WithCause(errors.New("missing sub or role claim"))
	}

	out := Claims{
		UserID:    claims.Subject,
		Role:      userdomain.Role(claims.Role),
		ID:        claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	return out, nil
}
