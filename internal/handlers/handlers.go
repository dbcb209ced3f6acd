package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/onecrateapp/onecrate/internal/backendapi"
	"github.com/onecrateapp/onecrate/internal/cache"
	"github.com/onecrateapp/onecrate/internal/catalog"
	"github.com/onecrateapp/onecrate/internal/checkout"
	"github.com/onecrateapp/onecrate/internal/config"
	"github.com/onecrateapp/onecrate/internal/logging"
	"github.com/onecrateapp/onecrate/internal/pricing"
	"github.com/onecrateapp/onecrate/internal/session"
	"github.com/onecrateapp/onecrate/internal/subscription"
)

const maxRequestBodyBytes = 1 << 20 // 1 MB

// Handlers provides the HTTP surface of the storefront.
type Handlers struct {
	config         *config.Config
	catalog        *catalog.Catalog
	pricer         *pricing.Pricer
	builder        *subscription.Builder
	orchestrator   *checkout.Orchestrator
	backend        *backendapi.Client
	cacheProvider  cache.Provider
	sessionManager *session.Manager
	logger         *slog.Logger
}

type Dependencies struct {
	Config         *config.Config
	Catalog        *catalog.Catalog
	Pricer         *pricing.Pricer
	Builder        *subscription.Builder
	Orchestrator   *checkout.Orchestrator
	Backend        *backendapi.Client
	CacheProvider  cache.Provider
	SessionManager *session.Manager
	Logger         *slog.Logger
}

func New(deps Dependencies) (*Handlers, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if deps.Config == nil {
		return nil, fmt.Errorf("handlers dependencies: config is required")
	}
	if deps.Catalog == nil {
		return nil, fmt.Errorf("handlers dependencies: catalog is required")
	}
	if deps.Pricer == nil {
		return nil, fmt.Errorf("handlers dependencies: pricer is required")
	}
	if deps.Builder == nil {
		return nil, fmt.Errorf("handlers dependencies: builder is required")
	}
	if deps.Orchestrator == nil {
		return nil, fmt.Errorf("handlers dependencies: orchestrator is required")
	}
	if deps.Backend == nil {
		return nil, fmt.Errorf("handlers dependencies: backend is required")
	}
	if deps.CacheProvider == nil {
		return nil, fmt.Errorf("handlers dependencies: cacheProvider is required")
	}
	if deps.SessionManager == nil {
		return nil, fmt.Errorf("handlers dependencies: sessionManager is required")
	}

	return &Handlers{
		config:         deps.Config,
		catalog:        deps.Catalog,
		pricer:         deps.Pricer,
		builder:        deps.Builder,
		orchestrator:   deps.Orchestrator,
		backend:        deps.Backend,
		cacheProvider:  deps.CacheProvider,
		sessionManager: deps.SessionManager,
		logger:         logger.With("component", "handlers"),
	}, nil
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.loggerFromContext(ctx)

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]string{
		"status": "healthy",
	}); err != nil {
		logger.Error("failed to encode health response", "error", err)
	}
}

// SessionMiddleware adds session data to the request context
func (h *Handlers) SessionMiddleware(next http.Handler) http.Handler {
	return h.sessionManager.Middleware(next)
}

func (h *Handlers) loggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx, h.logger)
}

func SecureCookiesFromConfig(cfg *config.Config) bool {
	if cfg == nil {
		return false
	}
	return cfg.Port == "443" || cfg.Port == "8443"
}
