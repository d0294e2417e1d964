package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/James-CPE/API-NCD/internal/config"
	"github.com/James-CPE/API-NCD/internal/domain/person"
	"github.com/James-CPE/API-NCD/internal/domain/report"
	"github.com/James-CPE/API-NCD/internal/domain/user"
	"github.com/James-CPE/API-NCD/internal/domain/visit"
	"github.com/James-CPE/API-NCD/internal/platform/auth"
	"github.com/James-CPE/API-NCD/internal/platform/db"
	"github.com/James-CPE/API-NCD/internal/platform/middleware"
	"github.com/James-CPE/API-NCD/pkg/response"
)

const WelcomeMessage = "Welcome to NCD API"

type routeRegistrar interface {
	RegisterRoutes(g *echo.Group)
}

// newEcho builds the server with the global middleware chain and the
// infrastructure routes, then lets each registrar add its routes at the root.
func newEcho(cfg *config.Config, logger zerolog.Logger, issuer *auth.TokenIssuer, registrars ...routeRegistrar) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = middleware.ErrorHandler(logger)
	e.IPExtractor = ipExtractor(cfg)

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderAuthorization, echo.HeaderContentType, auth.APIKeyHeader, middleware.RequestIDHeader},
	}))
	e.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	e.Use(middleware.BodyLimit(cfg.BodyLimit))
	e.Use(middleware.RequestTimeout(cfg.RequestTimeout, report.ExportPath))
	e.Use(middleware.Sanitize(logger))
	e.Use(auth.APIKeyGate(cfg.APIKey))
	e.Use(auth.PrincipalMiddleware(auth.PrincipalConfig{Issuer: issuer, Skipper: auth.AuthSkipper}))
	e.Use(middleware.Audit(logger))

	e.GET("/", func(c echo.Context) error {
		return response.Message(c, WelcomeMessage)
	})
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "1.0.0",
		})
	})

	root := e.Group("")
	for _, r := range registrars {
		r.RegisterRoutes(root)
	}
	return e
}

// ipExtractor decides what c.RealIP() reports. Without TRUSTED_PROXIES the
// peer address is used and forwarding headers are ignored. With it, the
// X-Forwarded-For chain is walked only through the listed ranges.
func ipExtractor(cfg *config.Config) echo.IPExtractor {
	ranges, err := cfg.TrustedProxyRanges()
	if err != nil || len(ranges) == 0 {
		return echo.ExtractIPDirect()
	}
	opts := []echo.TrustOption{
		echo.TrustLoopback(false),
		echo.TrustLinkLocal(false),
		echo.TrustPrivateNet(false),
	}
	for _, r := range ranges {
		opts = append(opts, echo.TrustIPRange(r))
	}
	return echo.ExtractIPFromXFFHeader(opts...)
}

// loginStore picks the shared Redis counter when REDIS_URL is set and falls
// back to process memory otherwise.
func loginStore(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (middleware.WindowStore, func()) {
	if cfg.RedisURL != "" {
		client, err := middleware.NewRedisClient(ctx, cfg.RedisURL)
		if err == nil {
			logger.Info().Msg("login rate limiter using redis")
			return middleware.NewRedisWindowStore(client), func() { _ = client.Close() }
		}
		logger.Warn().Err(err).Msg("redis unavailable, login rate limiter falls back to memory")
	}
	store := middleware.NewMemoryWindowStore()
	sweepCtx, cancel := context.WithCancel(ctx)
	store.StartSweeper(sweepCtx, cfg.LoginRateWindow)
	return store, cancel
}

func runServer() error {
	// Logger
	logger := newLogger(os.Getenv("ENV"))

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}
	logger = newLogger(cfg.Env)

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, db.PoolOptions{
		MaxConns:        cfg.DBMaxConns,
		MinConns:        cfg.DBMinConns,
		ApplicationName: "ncd-server",
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	issuer := auth.NewTokenIssuer(cfg.SigningKey(), cfg.JWTTTL)

	store, closeStore := loginStore(ctx, cfg, logger)
	defer closeStore()
	limiter := middleware.RateLimit(middleware.RateLimitConfig{
		Limit:   cfg.LoginRateLimit,
		Window:  cfg.LoginRateWindow,
		Store:   store,
		Prefix:  "login",
		Message: middleware.LoginRateLimitMessage,
		Logger:  logger,
	})

	// Domains
	personRepo := person.NewRepoPG(pool)
	personSvc := person.NewService(personRepo)
	visitSvc := visit.NewService(visit.NewRepoPG(pool), personRepo, db.NewTxRunner(pool))
	userSvc := user.NewService(user.NewRepoPG(pool), issuer,
		user.WithLegacyPasswords(cfg.AllowLegacyPasswords),
		user.WithLogger(logger))
	reportSvc := report.NewService(report.NewRepoPG(pool))

	e := newEcho(cfg, logger, issuer,
		user.NewHandler(userSvc, limiter),
		person.NewHandler(personSvc),
		visit.NewHandler(visitSvc),
		report.NewHandler(reportSvc),
	)

	// DB health check endpoint
	e.GET("/health/db", db.HealthHandler(pool))

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
