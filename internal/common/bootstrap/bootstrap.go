package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/jackc/pgx/v4/pgxpool"

	authcleanup "github.com/routeledger/backend/internal/auth/cleanup"
	authhttp "github.com/routeledger/backend/internal/auth/http"
	authrepo "github.com/routeledger/backend/internal/auth/repository"
	"github.com/routeledger/backend/internal/auth/service"
	"github.com/routeledger/backend/internal/auth/token"
	"github.com/routeledger/backend/internal/common/clock"
	"github.com/routeledger/backend/internal/common/config"
	"github.com/routeledger/backend/internal/common/constants"
	commoncrypto "github.com/routeledger/backend/internal/common/crypto"
	"github.com/routeledger/backend/internal/common/db"
	commonhttp "github.com/routeledger/backend/internal/common/http"
	"github.com/routeledger/backend/internal/common/logger"
	"github.com/routeledger/backend/internal/common/resilience"
	userrepo "github.com/routeledger/backend/internal/user/repository"
)

type App struct {
	Log      *logger.Logger
	Pool     *pgxpool.Pool
	UserRepo userrepo.Repository
}

type AuthApp struct {
	App
	Config           config.AuthConfig
	RefreshTokenRepo authrepo.RefreshTokenRepository
	AuthService      *service.AuthService
	Cleaner          *authcleanup.Cleaner
	Handler          http.Handler
}

type SeedApp struct {
	App
	Config config.SeedConfig
	Hasher commoncrypto.PasswordHasher
}

func NewAuthApp(ctx context.Context) (*AuthApp, error) {
	log, err := newLogger("auth")
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	cfg, err := config.LoadAuthConfig()
	if err != nil {
		log.Errorf("failed to load config: %v", err)
		_ = log.Close()
		return nil, err
	}
	log.SetLevel(cfg.LogLevel)

	app, err := initializeApp(ctx, log, cfg.DatabaseURL)
	if err != nil {
		_ = log.Close()
		return nil, err
	}

	realClock := clock.NewRealClock()
	idGenerator := commoncrypto.NewUUIDGenerator()

	codec, err := token.NewCodec(cfg.JWTAccessSecret, cfg.AccessTokenTTL, idGenerator, realClock)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to initialize access token codec: %w", err)
	}

	breaker := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		Threshold:  int32(cfg.CircuitBreaker.Threshold),
		Timeout:    cfg.CircuitBreaker.Timeout,
		ResetAfter: cfg.CircuitBreaker.Reset,
		Name:       "auth_db",
		Clock:      realClock,
		Logger:     log,
	})

	refreshTokenRepo := authrepo.NewPgRefreshTokenRepository(app.Pool)
	authService := service.NewAuthService(
		app.UserRepo,
		refreshTokenRepo,
		codec,
		commoncrypto.NewBcryptHasher(),
		idGenerator,
		breaker,
		service.Config{
			AccessTokenExpiresIn: cfg.AccessTokenExpiresIn,
			RefreshTokenTTL:      cfg.RefreshTokenTTL(),
		},
		realClock,
		log,
	)

	cleaner := authcleanup.NewCleaner(refreshTokenRepo, authcleanup.Config{
		Interval:  cfg.CleanupInterval,
		Retention: cfg.RefreshRetention,
	}, realClock, log)

	handler := authhttp.NewHandler(authService, authhttp.Options{
		Cookie: authhttp.CookieConfig{
			Domain: cfg.CookieDomain,
			Secure: cfg.CookieSecure,
			TTL:    cfg.RefreshTokenTTL(),
		},
		RequestTimeout: cfg.RequestTimeout,
		DB:             app.Pool,
	}, log)

	return &AuthApp{
		App:              *app,
		Config:           cfg,
		RefreshTokenRepo: refreshTokenRepo,
		AuthService:      authService,
		Cleaner:          cleaner,
		Handler:          commonhttp.BuildBaseHandler(log, handler),
	}, nil
}

func NewSeedApp(ctx context.Context) (*SeedApp, error) {
	log, err := newLogger("seed")
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	cfg, err := config.LoadSeedConfig()
	if err != nil {
		log.Errorf("failed to load config: %v", err)
		_ = log.Close()
		return nil, err
	}
	log.SetLevel(cfg.LogLevel)

	app, err := initializeApp(ctx, log, cfg.DatabaseURL)
	if err != nil {
		_ = log.Close()
		return nil, err
	}

	return &SeedApp{
		App:    *app,
		Config: cfg,
		Hasher: commoncrypto.NewBcryptHasher(),
	}, nil
}

func (a *App) Close() {
	if a.Pool != nil {
		a.Pool.Close()
	}
	if a.Log != nil {
		_ = a.Log.Close()
	}
}

func initializeApp(ctx context.Context, log *logger.Logger, databaseURL string) (*App, error) {
	if err := migrate(ctx, log, databaseURL); err != nil {
		log.Errorf("failed to apply migrations: %v", err)
		return nil, err
	}

	pool, err := db.NewPool(ctx, log, databaseURL)
	if err != nil {
		log.Errorf("failed to initialize database pool: %v", err)
		return nil, err
	}

	db.StartPoolMetrics(ctx, pool, constants.DBPoolMetricsInterval)

	return &App{
		Log:      log,
		Pool:     pool,
		UserRepo: userrepo.NewPgRepository(pool),
	}, nil
}

// newLogger and migrate are swapped in tests.
var (
	newLogger = func(serviceName string) (*logger.Logger, error) {
		return logger.New(os.Getenv("LOG_DIR"), serviceName, os.Getenv("LOG_LEVEL"))
	}
	migrate = db.Migrate
)
