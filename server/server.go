package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/onecrateapp/onecrate/internal/config"
	"github.com/onecrateapp/onecrate/internal/handlers"
)

type Server struct {
	cfg        *config.Config
	logger     *slog.Logger
	handlers   *handlers.Handlers
	httpServer *http.Server
}

func New(cfg *config.Config, logger *slog.Logger, h *handlers.Handlers) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if h == nil {
		return nil, fmt.Errorf("handlers are required")
	}

	s := &Server{
		cfg:      cfg,
		logger:   logger,
		handlers: h,
	}

	router := s.buildRouter()
	s.httpServer = &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	return s, nil
}

func (s *Server) Run() error {
	s.logger.Info("server starting", "port", s.cfg.Port)

	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Close(ctx context.Context) error {
	if s == nil || s.httpServer == nil {
		return nil
	}

	s.logger.Info("server shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return err
	}
	s.logger.Info("server stopped")
	return nil
}

func (s *Server) buildRouter() *mux.Router {
	h := s.handlers

	r := mux.NewRouter()
	r.Use(h.RequestLogger)
	r.Use(h.SecurityHeaders)
	r.Use(h.SessionMiddleware)
	r.Use(h.MetricsContext)

	r.HandleFunc("/health", h.Health).Methods("GET").Name("health")

	r.HandleFunc("/catalog/products", h.ListProducts).Methods("GET").Name("catalog.products")
	r.HandleFunc("/catalog/kits", h.ListKits).Methods("GET").Name("catalog.kits")

	// Cart routes are cookie-authenticated and need CSRF protection.
	cartRouter := r.PathPrefix("/cart").Subrouter()
	cartRouter.Use(h.RequireSameOrigin)
	cartRouter.HandleFunc("", h.GetCart).Methods("GET").Name("cart.get")
	cartRouter.HandleFunc("", h.ClearCart).Methods("DELETE").Name("cart.clear")
	cartRouter.HandleFunc("/items", h.AddCartItem).Methods("POST").Name("cart.items.add")
	cartRouter.HandleFunc("/items/{productID}", h.RemoveCartItem).Methods("DELETE").Name("cart.items.remove")

	r.HandleFunc("/checkout", h.StartCheckout).Methods("POST").Name("checkout.start")
	r.HandleFunc("/checkout/{attemptID}", h.GetCheckout).Methods("GET").Name("checkout.get")
	r.HandleFunc("/checkout/{attemptID}/result", h.GatewayResult).Methods("POST").Name("checkout.result")
	r.HandleFunc("/checkout/{attemptID}/failure", h.GatewayFailure).Methods("POST").Name("checkout.failure")
	r.HandleFunc("/checkout/{attemptID}/cancel", h.CancelCheckout).Methods("POST").Name("checkout.cancel")

	r.HandleFunc("/profile", h.GetProfile).Methods("GET").Name("profile.get")
	r.HandleFunc("/profile", h.UpdateProfile).Methods("PUT").Name("profile.update")
	r.HandleFunc("/profile/summary", h.ProfileSummary).Methods("GET").Name("profile.summary")
	r.HandleFunc("/subscriptions", h.ListSubscriptions).Methods("GET").Name("subscriptions.list")

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"not found"}`))
	})

	return r
}
