package server

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/lacquerai/greeter/web"
)

// Config holds the server configuration
type Config struct {
	Host            string
	Port            int
	StaticDir       string
	Concurrency     int
	EnableMetrics   bool
	EnableCORS      bool
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// DefaultConfig returns a default server configuration
func DefaultConfig() *Config {
	return &Config{
		Host:            "localhost",
		Port:            9000,
		Concurrency:     10,
		EnableMetrics:   true,
		EnableCORS:      true,
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    15 * time.Second,
		IdleTimeout:     60 * time.Second,
		ShutdownTimeout: 5 * time.Second,
	}
}

// Server serves static files and the registered /api services
type Server struct {
	config   *Config
	registry *Registry
	metrics  *Metrics
	gatherer prometheus.Gatherer
	static   fs.FS
	slots    chan struct{}
	upgrader websocket.Upgrader

	mu     sync.RWMutex
	server *http.Server
	addr   string
}

// New creates a new server. Services are added through Registry before Start.
func New(config *Config) (*Server, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Concurrency <= 0 {
		return nil, fmt.Errorf("concurrency must be positive, got %d", config.Concurrency)
	}

	static := web.Public()
	if config.StaticDir != "" {
		root, err := filepath.Abs(config.StaticDir)
		if err != nil {
			return nil, fmt.Errorf("invalid static root %s: %w", config.StaticDir, err)
		}
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("invalid static root %s: %w", config.StaticDir, err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("invalid static root %s: not a directory", config.StaticDir)
		}
		static = os.DirFS(root)
	}

	promRegistry := prometheus.NewRegistry()
	promRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	server := &Server{
		config:   config,
		registry: NewRegistry(),
		metrics:  NewMetrics(promRegistry),
		gatherer: promRegistry,
		static:   static,
		slots:    make(chan struct{}, config.Concurrency),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return config.EnableCORS // Allow all origins if CORS enabled
			},
		},
	}

	return server, nil
}

// Registry returns the service registry
func (s *Server) Registry() *Registry {
	return s.registry
}

// Handler builds the router serving every endpoint
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()

	if s.config.EnableCORS {
		router.Use(s.corsMiddleware)
		router.Methods(http.MethodOptions).HandlerFunc(s.handleOptions)
	}
	router.Use(s.loggingMiddleware)
	router.Use(s.metricsMiddleware)
	router.Use(s.limitMiddleware)

	if s.config.EnableMetrics {
		router.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}
	router.HandleFunc("/health", s.healthCheck).Methods(http.MethodGet)

	router.HandleFunc("/ws/{service:.+}", s.streamService).Methods(http.MethodGet)

	router.HandleFunc("/api", s.invokeService).Methods(http.MethodGet, http.MethodHead)
	router.PathPrefix("/api/").HandlerFunc(s.invokeService).Methods(http.MethodGet, http.MethodHead)

	router.PathPrefix("/").HandlerFunc(s.serveStatic).Methods(http.MethodGet, http.MethodHead)

	return router
}

// Start starts the HTTP server in the background
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("could not listen on %s: %w", addr, err)
	}
	httpServer := &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	s.mu.Lock()
	s.addr = listener.Addr().String()
	s.server = httpServer
	s.mu.Unlock()

	log.Info().
		Str("addr", listener.Addr().String()).
		Int("services", s.registry.Count()).
		Strs("paths", s.registry.List()).
		Int("concurrency", s.config.Concurrency).
		Bool("metrics", s.config.EnableMetrics).
		Msg("Services loaded, starting server")

	go func() {
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Server stopped unexpectedly")
		}
	}()

	return nil
}

// Stop stops the HTTP server gracefully
func (s *Server) Stop(ctx context.Context) error {
	s.mu.RLock()
	httpServer := s.server
	s.mu.RUnlock()

	if httpServer == nil {
		return nil
	}

	log.Info().Msg("Shutting down server...")
	return httpServer.Shutdown(ctx)
}

// StartWithGracefulShutdown starts the server and blocks until SIGINT/SIGTERM
// or ctx is done, then shuts down within the configured timeout.
func (s *Server) StartWithGracefulShutdown(ctx context.Context) error {
	if err := s.Start(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	log.Info().Msg("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()

	if err := s.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	log.Info().Msg("Server shutdown complete")
	return nil
}

// GetAddr returns the listening address, or the configured one before Start
func (s *Server) GetAddr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.addr != "" {
		return s.addr
	}
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}

// GetServiceCount returns the number of registered services
func (s *Server) GetServiceCount() int {
	return s.registry.Count()
}
