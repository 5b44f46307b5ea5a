package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dukerupert/lavka/internal"
	"github.com/dukerupert/lavka/internal/cart"
	"github.com/dukerupert/lavka/internal/catalog"
	"github.com/dukerupert/lavka/internal/cookie"
	"github.com/dukerupert/lavka/internal/email"
	"github.com/dukerupert/lavka/internal/handler"
	"github.com/dukerupert/lavka/internal/handler/storefront"
	"github.com/dukerupert/lavka/internal/middleware"
	"github.com/dukerupert/lavka/internal/postgres"
	"github.com/dukerupert/lavka/internal/pricing"
	"github.com/dukerupert/lavka/internal/router"
	"github.com/dukerupert/lavka/internal/routes"
	"github.com/dukerupert/lavka/internal/service"
	"github.com/dukerupert/lavka/internal/telemetry"
)

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)
	slog.SetDefault(logger)

	// Initialize Sentry
	flushSentry, err := telemetry.InitSentry(telemetry.SentryConfig{
		DSN:              cfg.Sentry.DSN,
		Enabled:          cfg.Sentry.Enabled,
		Environment:      cfg.Sentry.Environment,
		Release:          cfg.Sentry.Release,
		SampleRate:       cfg.Sentry.SampleRate,
		TracesSampleRate: cfg.Sentry.TracesSampleRate,
		Debug:            cfg.Sentry.Debug,
	}, logger)
	if err != nil {
		return fmt.Errorf("sentry initialization failed: %w", err)
	}
	defer flushSentry()

	// Initialize Prometheus metrics
	telemetry.InitBusinessMetrics("lavka")
	metrics := middleware.NewMetrics("lavka", prometheus.DefaultRegisterer)

	// Initialize database/sql connection for migrations
	logger.Info("Connecting to database...")
	sqlDB, err := sql.Open("pgx", cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer sqlDB.Close()

	if err := sqlDB.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	logger.Info("Database connection established")

	logger.Info("Running database migrations...")
	if err := internal.RunMigrations(sqlDB); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	logger.Info("Database migrations completed successfully")

	// Initialize pgx connection pool for application
	pool, err := pgxpool.New(ctx, cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}
	defer pool.Close()

	store := postgres.NewStore(pool)

	// Load catalog
	catalogStore, err := loadCatalog(cfg.CatalogPath)
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}
	logger.Info("Catalog loaded", "items", catalogStore.Len(), "path", cfg.CatalogPath)

	engine := catalog.NewEngine(cfg.Flags, cfg.PageSize)
	calc := pricing.NewCalculator(cfg.Pricing)

	// Initialize notifications
	sender := newSender(cfg.Email, logger)
	notifier, err := email.NewService(sender, email.Config{
		FromAddress:     cfg.Email.From,
		FromName:        cfg.Email.FromName,
		OperatorAddress: cfg.Email.OperatorEmail,
		StoreName:       cfg.Email.FromName,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize email service: %w", err)
	}
	logger.Info("Email sender initialized", "provider", cfg.Email.Provider)

	submissions := service.NewSubmissions(catalogStore, store, notifier, calc, service.Options{
		NotifyTimeout: cfg.Email.NotifyTimeout,
		Logger:        logger,
	})

	sessions := cart.NewSessions(cfg.Cart.IdleTTL)
	defer sessions.Stop()

	cookies := cookie.NewConfig(cfg.Cart.CookieDomain, cfg.Cart.CookieSecure, cfg.Cart.IdleTTL)

	// ==========================================================================
	// Initialize middleware
	// ==========================================================================

	securityConfig := middleware.DefaultSecurityHeadersConfig()
	if cfg.Env == "dev" {
		securityConfig.HSTSMaxAge = 0 // Disable HSTS in development
	}

	defaultRateLimiter := middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig())
	defer defaultRateLimiter.Stop()
	submissionRateLimiter := middleware.NewRateLimiter(middleware.SubmissionRateLimiterConfig())
	defer submissionRateLimiter.Stop()

	// ==========================================================================
	// Create router and register routes
	// ==========================================================================

	r := router.New(
		middleware.Recovery,
		middleware.RequestID,
		middleware.WithClientIP(),
		middleware.WithRequestLogger(logger),
		middleware.AccessLog,
		metrics.Middleware,
		middleware.MaxBodySize(),
		defaultRateLimiter.Middleware,
	)

	routes.RegisterOpsRoutes(r, routes.OpsDeps{
		Health: func(w http.ResponseWriter, req *http.Request) {
			if err := pool.Ping(req.Context()); err != nil {
				handler.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
			handler.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
		},
		Metrics: metrics.Handler(),
	})

	routes.RegisterStorefrontRoutes(r, routes.StorefrontDeps{
		CatalogHandler:    storefront.NewCatalogHandler(catalogStore, engine),
		CartHandler:       storefront.NewCartHandler(sessions, catalogStore, calc, cookies),
		SubmissionHandler: storefront.NewSubmissionHandler(submissions, sessions),
		SubmissionLimit:   submissionRateLimiter.Middleware,
	})

	var h http.Handler = r
	h = router.CORS(cfg.CORSOrigins)(h)
	h = middleware.SecurityHeaders(securityConfig)(h)
	h = telemetry.SentryMiddleware()(h)

	// ==========================================================================
	// Start server
	// ==========================================================================

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting storefront server", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
		logger.Info("Shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	logger.Info("Server stopped")

	return nil
}

func loadCatalog(path string) (*catalog.Store, error) {
	if path == "" {
		return catalog.Default()
	}
	return catalog.LoadFile(path)
}

// newSender picks the email transport. Config validation has already
// rejected postmark without a token.
func newSender(cfg internal.EmailConfig, logger *slog.Logger) email.Sender {
	switch cfg.Provider {
	case email.ProviderSMTP:
		return email.NewSMTPSender(email.SMTPConfig{
			Host:     cfg.Host,
			Port:     int(cfg.Port),
			Username: cfg.Username,
			Password: cfg.Password,
			From:     cfg.From,
			FromName: cfg.FromName,
		}, logger)
	case email.ProviderPostmark:
		return email.NewPostmarkSender(cfg.PostmarkToken, cfg.From)
	default:
		return email.NewLogSender(logger)
	}
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
