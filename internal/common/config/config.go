package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/routeledger/backend/internal/common/constants"
	commonerrors "github.com/routeledger/backend/internal/common/errors"
)

const (
	EnvDevelopment = "development"
	EnvTest        = "test"
	EnvProduction  = "production"
)

type CircuitBreakerConfig struct {
	Threshold int
	Timeout   time.Duration
	Reset     time.Duration
}

type AuthConfig struct {
	AppEnv               string
	HTTPPort             string
	DatabaseURL          string
	JWTAccessSecret      string
	AccessTokenExpiresIn string
	AccessTokenTTL       time.Duration
	RefreshTokenTTLDays  int
	CookieDomain         string
	CookieSecure         bool
	RequestTimeout       time.Duration
	CircuitBreaker       CircuitBreakerConfig
	CleanupInterval      time.Duration
	RefreshRetention     time.Duration
	LogDir               string
	LogLevel             string
}

// SeedConfig describes the administrator account created by the seed
// command.
type SeedConfig struct {
	DatabaseURL   string
	AdminUsername string
	AdminEmail    string
	AdminFullName string
	AdminPassword string
	LogDir        string
	LogLevel      string
}

func (c AuthConfig) RefreshTokenTTL() time.Duration {
	return time.Duration(c.RefreshTokenTTLDays) * 24 * time.Hour
}

func (c AuthConfig) IsProduction() bool {
	return c.AppEnv == EnvProduction
}

// LoadDotEnv loads variables from the given files (".env" when none are
// given) without overriding values already present in the environment.
// Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

func LoadAuthConfig() (AuthConfig, error) {
	appEnv := strings.ToLower(getEnv("APP_ENV", EnvDevelopment))
	switch appEnv {
	case EnvDevelopment, EnvTest, EnvProduction:
	default:
		return AuthConfig{}, invalid("APP_ENV", appEnv)
	}

	jwtSecret, err := mustEnv("JWT_ACCESS_SECRET")
	if err != nil {
		return AuthConfig{}, err
	}
	if err := validateJWTSecret(jwtSecret); err != nil {
		return AuthConfig{}, err
	}

	databaseURL, err := mustEnv("DATABASE_URL")
	if err != nil {
		return AuthConfig{}, err
	}

	expiresIn := getEnv("JWT_ACCESS_EXPIRES_IN", constants.DefaultAccessTokenExpiresIn)
	accessTTL, err := ParseTTL(expiresIn)
	if err != nil {
		return AuthConfig{}, invalid("JWT_ACCESS_EXPIRES_IN", expiresIn)
	}

	ttlDays, err := getIntEnv("REFRESH_TOKEN_TTL_DAYS", constants.DefaultRefreshTokenTTLDays)
	if err != nil {
		return AuthConfig{}, err
	}
	if ttlDays <= 0 {
		return AuthConfig{}, invalid("REFRESH_TOKEN_TTL_DAYS", strconv.Itoa(ttlDays))
	}

	cookieSecure, err := getBoolEnv("COOKIE_SECURE", appEnv == EnvProduction)
	if err != nil {
		return AuthConfig{}, err
	}

	cfg := AuthConfig{
		AppEnv:               appEnv,
		HTTPPort:             getEnv("AUTH_HTTP_PORT", constants.DefaultAuthHTTPPort),
		DatabaseURL:          databaseURL,
		JWTAccessSecret:      jwtSecret,
		AccessTokenExpiresIn: expiresIn,
		AccessTokenTTL:       accessTTL,
		RefreshTokenTTLDays:  ttlDays,
		CookieDomain:         getEnv("COOKIE_DOMAIN", ""),
		CookieSecure:         cookieSecure,
		LogDir:               getEnv("LOG_DIR", ""),
		LogLevel:             getEnv("LOG_LEVEL", "INFO"),
	}

	durations := []struct {
		key      string
		fallback time.Duration
		dst      *time.Duration
	}{
		{"AUTH_REQUEST_TIMEOUT", constants.DefaultAuthRequestTimeout, &cfg.RequestTimeout},
		{"CIRCUIT_BREAKER_TIMEOUT", constants.DefaultCircuitBreakerTimeout, &cfg.CircuitBreaker.Timeout},
		{"CIRCUIT_BREAKER_RESET", constants.DefaultCircuitBreakerReset, &cfg.CircuitBreaker.Reset},
		{"REFRESH_TOKEN_CLEANUP_INTERVAL", constants.DefaultRefreshTokenCleanupEvery, &cfg.CleanupInterval},
		{"REFRESH_TOKEN_RETENTION", constants.DefaultRefreshTokenRetention, &cfg.RefreshRetention},
	}
	for _, d := range durations {
		v, err := getDurationEnv(d.key, d.fallback)
		if err != nil {
			return AuthConfig{}, err
		}
		if v < 0 {
			return AuthConfig{}, invalid(d.key, v.String())
		}
		*d.dst = v
	}

	cfg.CircuitBreaker.Threshold, err = getIntEnv("CIRCUIT_BREAKER_THRESHOLD", constants.DefaultCircuitBreakerThreshold)
	if err != nil {
		return AuthConfig{}, err
	}
	if cfg.CircuitBreaker.Threshold <= 0 {
		return AuthConfig{}, invalid("CIRCUIT_BREAKER_THRESHOLD", strconv.Itoa(cfg.CircuitBreaker.Threshold))
	}

	return cfg, nil
}

func LoadSeedConfig() (SeedConfig, error) {
	databaseURL, err := mustEnv("DATABASE_URL")
	if err != nil {
		return SeedConfig{}, err
	}

	cfg := SeedConfig{
		DatabaseURL:   databaseURL,
		AdminUsername: getEnv("SEED_ADMIN_USERNAME", constants.DefaultSeedAdminUsername),
		AdminEmail:    getEnv("SEED_ADMIN_EMAIL", constants.DefaultSeedAdminEmail),
		AdminFullName: getEnv("SEED_ADMIN_FULL_NAME", constants.DefaultSeedAdminFullName),
		AdminPassword: getEnv("SEED_ADMIN_PASSWORD", constants.DefaultSeedAdminPassword),
		LogDir:        getEnv("LOG_DIR", ""),
		LogLevel:      getEnv("LOG_LEVEL", "INFO"),
	}
	if len(cfg.AdminPassword) < constants.PasswordMinLength {
		return SeedConfig{}, invalid("SEED_ADMIN_PASSWORD", "<redacted>")
	}
	return cfg, nil
}

// ParseTTL parses a Go duration string and additionally accepts a whole
// number of days with a "d" suffix, e.g. "7d".
func ParseTTL(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil || n <= 0 {
			return 0, fmt.Errorf("invalid day duration %q", s)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration must be positive: %q", s)
	}
	return d, nil
}

func validateJWTSecret(secret string) error {
	if len(secret) < constants.JWTSecretMinLength {
		return commonerrors.ErrInvalidJWTSecret.WithDetails(map[string]any{"length": len(secret)})
	}
	return nil
}

func invalid(key, value string) error {
	return commonerrors.ErrInvalidConfig.WithDetails(map[string]any{"key": key, "value": value})
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func mustEnv(key string) (string, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return "", commonerrors.ErrMissingRequiredEnv.WithDetails(map[string]any{"key": key})
	}
	return v, nil
}

func getDurationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, invalid(key, v)
	}
	return d, nil
}

func getIntEnv(key string, fallback int) (int, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, invalid(key, v)
	}
	return i, nil
}

func getBoolEnv(key string, fallback bool) (bool, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, invalid(key, v)
	}
	return b, nil
}
