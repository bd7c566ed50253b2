package constants

import "time"

const (
	IdentifierMaxLength = 255
	PasswordMinLength   = 6
	PasswordMaxLength   = 256
	JWTSecretMinLength  = 16

	// RefreshTokenSize is the number of random bytes behind an opaque refresh
	// token; hex encoding doubles it on the wire.
	RefreshTokenSize = 48

	PasswordHashCost = 12

	RefreshTokenCookieName = "refreshToken"

	DefaultMaxRequestSize = 1 << 20

	DBPoolMaxConns        = 25
	DBPoolMinConns        = 5
	DBPoolConnMaxLifetime = time.Hour
	DBPoolConnMaxIdleTime = 30 * time.Minute
	DBPoolHealthCheck     = 1 * time.Minute
	DBPoolConnectTimeout  = 5 * time.Second
	DBPoolMaxAttempts     = 10
	DBPoolRetryDelay      = 1 * time.Second
	DBPoolMetricsInterval = 30 * time.Second
	DBQueryTimeout        = 30 * time.Second

	ServerReadHeaderTimeout = 10 * time.Second
	ServerReadTimeout       = 30 * time.Second
	ServerWriteTimeout      = 30 * time.Second
	ServerIdleTimeout       = 120 * time.Second

	ShutdownTimeout = 30 * time.Second
	DrainTimeout    = 10 * time.Second

	DefaultAuthHTTPPort = "8081"

	DefaultCircuitBreakerThreshold = 500
	DefaultCircuitBreakerTimeout   = 15 * time.Second
	DefaultCircuitBreakerReset     = 10 * time.Second

	DefaultAuthRequestTimeout       = 5 * time.Second
	DefaultAccessTokenExpiresIn     = "15m"
	DefaultRefreshTokenTTLDays      = 7
	DefaultRefreshTokenCleanupEvery = 1 * time.Hour
	DefaultRefreshTokenRetention    = 30 * 24 * time.Hour

	DefaultSeedAdminUsername = "admin"
	DefaultSeedAdminEmail    = "admin@example.com"
	DefaultSeedAdminFullName = "Administrator"
	DefaultSeedAdminPassword = "ChangeMe123!"

	LoggerMaxSize    = 100
	LoggerMaxBackups = 3
	LoggerMaxAge     = 28
)

type TraceIDKeyType string

const TraceIDKey TraceIDKeyType = "trace_id"
