package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/cors"

	"github.com/rickgao/market-sync/internal/api"
	"github.com/rickgao/market-sync/internal/metrics"
	"github.com/rickgao/market-sync/internal/model"
	"github.com/rickgao/market-sync/internal/order"
	"github.com/rickgao/market-sync/internal/poller"
	"github.com/rickgao/market-sync/internal/router"
)

// SyncStatus exposes the sync loop's state. Satisfied by *poller.Poller.
type SyncStatus interface {
	Loading() bool
	InFlight() bool
	LastError() error
	Stats() poller.Stats
}

// Backend is the part of the engine API the gateway calls directly.
// Satisfied by *api.Client.
type Backend interface {
	Health(ctx context.Context) (*api.HealthStatus, error)
	GetOrder(ctx context.Context, orderID string) (*model.Order, error)
}

// Config holds gateway configuration.
type Config struct {
	Addr           string
	AllowedOrigins []string
	HealthTimeout  time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Addr:           ":8090",
		AllowedOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		HealthTimeout:  2 * time.Second,
	}
}

// Deps are the components the gateway serves. Registry may be nil, in which
// case /metrics is not mounted.
type Deps struct {
	Router    *router.Router
	Sync      SyncStatus
	Backend   Backend
	Form      *order.Form
	Submitter *order.Submitter
	Registry  *prometheus.Registry
}

// Server handles REST and websocket connections.
type Server struct {
	cfg      Config
	deps     Deps
	logger   *slog.Logger
	router   *mux.Router
	upgrader websocket.Upgrader
	http     *http.Server
}

// New creates a Server.
func New(cfg Config, deps Deps, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	def := DefaultConfig()
	if cfg.Addr == "" {
		cfg.Addr = def.Addr
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = def.AllowedOrigins
	}
	if cfg.HealthTimeout <= 0 {
		cfg.HealthTimeout = def.HealthTimeout
	}

	s := &Server{
		cfg:    cfg,
		deps:   deps,
		logger: logger.With("component", "gateway"),
		router: mux.NewRouter(),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	s.setupRoutes()

	s.http = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) setupRoutes() {
	v1 := s.router.PathPrefix("/api/v1").Subrouter()
	v1.HandleFunc("/state", s.handleGetState).Methods(http.MethodGet)
	v1.HandleFunc("/form", s.handleGetForm).Methods(http.MethodGet)
	v1.HandleFunc("/orders", s.handleSubmitOrder).Methods(http.MethodPost)
	v1.HandleFunc("/orders/{id}", s.handleGetOrder).Methods(http.MethodGet)

	s.router.HandleFunc("/ws", s.handleWebSocket)
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	if s.deps.Registry != nil {
		s.router.Handle("/metrics", metrics.Handler(s.deps.Registry)).Methods(http.MethodGet)
	}
}

// Handler returns the routes wrapped in CORS handling.
func (s *Server) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: s.cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	})
	return c.Handler(s.router)
}

// ListenAndServe serves until Shutdown is called.
func (s *Server) ListenAndServe() error {
	s.logger.Info("gateway listening", "addr", s.cfg.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve gateway: %w", err)
	}
	return nil
}

// Shutdown stops accepting requests and waits for active ones. Websocket
// streams end when the router is closed.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.http.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown gateway: %w", err)
	}
	return nil
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	return slices.Contains(s.cfg.AllowedOrigins, "*") || slices.Contains(s.cfg.AllowedOrigins, origin)
}
