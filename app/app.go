package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	sentryslog "github.com/getsentry/sentry-go/slog"
	"github.com/lmittmann/tint"

	"github.com/onecrateapp/onecrate/internal/backendapi"
	"github.com/onecrateapp/onecrate/internal/cache"
	"github.com/onecrateapp/onecrate/internal/catalog"
	"github.com/onecrateapp/onecrate/internal/checkout"
	"github.com/onecrateapp/onecrate/internal/config"
	"github.com/onecrateapp/onecrate/internal/handlers"
	"github.com/onecrateapp/onecrate/internal/logging"
	"github.com/onecrateapp/onecrate/internal/observability"
	"github.com/onecrateapp/onecrate/internal/pricing"
	"github.com/onecrateapp/onecrate/internal/session"
	"github.com/onecrateapp/onecrate/internal/subscription"
)

type App struct {
	Config         *config.Config
	Logger         *slog.Logger
	CacheProvider  cache.Provider
	SessionManager *session.Manager
	Handlers       *handlers.Handlers
}

func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	if cfg.SentryDSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			EnableTracing:    true,
			TracesSampleRate: 1.0,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize sentry: %w", err)
		}
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)

	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	logger.Info("catalog loaded",
		"store", cat.StoreName(),
		"products", len(cat.Products()),
		"kits", len(cat.Kits()),
	)

	pricer := pricing.NewPricer(cfg.PlatformFee, cfg.ThresholdStep)
	builder := subscription.NewBuilder(pricer)

	cacheProvider, err := cache.NewProvider(cache.Config{
		Provider:              cfg.CacheProvider,
		RedisConnectionString: cfg.RedisConnectionString,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cache provider: %w", err)
	}

	sessionStore, err := session.NewStore(startupCtx, session.Config{
		Provider:              cfg.SessionStoreProvider,
		RedisConnectionString: cfg.RedisConnectionString,
	})
	if err != nil {
		closeCacheProvider(logger, cacheProvider)
		return nil, fmt.Errorf("failed to initialize session store: %w", err)
	}
	sessionManager := session.NewManager(sessionStore, handlers.SecureCookiesFromConfig(cfg))

	httpClient := observability.NewHTTPClient(cfg.BackendTimeout, cfg.BackendBaseURL)
	backend := backendapi.NewClient(cfg.BackendBaseURL, httpClient, logger.With("component", "backend_client"))

	attemptStore := checkout.NewAttemptStore(cacheProvider, cfg.CheckoutAttemptTTL)
	orchestrator := checkout.NewOrchestrator(
		backend,
		attemptStore,
		cfg.StoreName,
		cfg.GatewayThemeColor,
		logger.With("component", "checkout"),
	)

	h, err := handlers.New(handlers.Dependencies{
		Config:         cfg,
		Catalog:        cat,
		Pricer:         pricer,
		Builder:        builder,
		Orchestrator:   orchestrator,
		Backend:        backend,
		CacheProvider:  cacheProvider,
		SessionManager: sessionManager,
		Logger:         logger,
	})
	if err != nil {
		closeSessionManager(logger, sessionManager)
		closeCacheProvider(logger, cacheProvider)
		return nil, fmt.Errorf("failed to initialize handlers: %w", err)
	}

	return &App{
		Config:         cfg,
		Logger:         logger,
		CacheProvider:  cacheProvider,
		SessionManager: sessionManager,
		Handlers:       h,
	}, nil
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.SessionManager != nil {
		closeSessionManager(a.Logger, a.SessionManager)
	}
	if a.CacheProvider != nil {
		closeCacheProvider(a.Logger, a.CacheProvider)
	}
	sentry.Flush(2 * time.Second)
}

// newLogger builds the process logger. With a Sentry DSN configured the
// console handler is fanned out with a Sentry handler so error records
// become Sentry events; sentry.Init must have run first.
func newLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var console slog.Handler
	format := strings.ToLower(strings.TrimSpace(cfg.LogFormat))
	switch format {
	case "json":
		console = slog.NewJSONHandler(os.Stdout, opts)
	default:
		console = tint.NewHandler(os.Stdout, &tint.Options{
			Level: cfg.LogLevel,
		})
	}

	if cfg.SentryDSN == "" {
		return slog.New(console)
	}
	sentryHandler := sentryslog.Option{
		EventLevel: []slog.Level{slog.LevelError},
	}.NewSentryHandler(context.Background())
	return slog.New(logging.MultiHandler(console, sentryHandler))
}

func closeSessionManager(logger *slog.Logger, manager *session.Manager) {
	if manager == nil {
		return
	}
	if err := manager.Close(); err != nil && logger != nil {
		logger.Warn("failed to close session manager", "error", err)
	}
}

func closeCacheProvider(logger *slog.Logger, provider cache.Provider) {
	if provider == nil {
		return
	}
	if err := provider.Close(); err != nil && logger != nil {
		logger.Warn("failed to close cache provider", "error", err)
	}
}
