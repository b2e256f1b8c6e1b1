// Package server exposes the loaded sessions over an HTTP API for the
// viewer front end.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/agent-breadcrumbs/breadcrumbs/pkg/loader"
	"github.com/agent-breadcrumbs/breadcrumbs/pkg/logging"
)

// DefaultAddr is used when no address is configured.
const DefaultAddr = "127.0.0.1:7428"

// Store is the narrow loader contract required by the HTTP API.
type Store interface {
	Current() *loader.State
	Load(ctx context.Context) (*loader.State, error)
}

// Server provides an HTTP API over the last published load.
type Server struct {
	addr      string
	store     Store
	logger    *slog.Logger
	server    *http.Server
	listener  net.Listener
	ctx       context.Context
	cancel    context.CancelFunc
	startTime time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logging.Component(logger, "server")
	}
}

// NewServer creates a new HTTP API server.
func NewServer(addr string, store Store, opts ...Option) *Server {
	if addr == "" {
		addr = DefaultAddr
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		addr:      addr,
		store:     store,
		logger:    logging.Component(nil, "server"),
		ctx:       ctx,
		cancel:    cancel,
		startTime: time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed API.
func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), s.logRequests)

	api := r.Group("/api")
	api.GET("/health", s.handleHealth)
	api.GET("/sessions", s.handleSessions)
	api.GET("/sessions/:id", s.handleSession)
	api.GET("/session", s.handleSession)
	api.GET("/traces", s.handleTraces)
	api.GET("/stats", s.handleStats)
	api.GET("/export", s.handleExport)
	api.POST("/reload", s.handleReload)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

// Start begins serving HTTP requests.
func (s *Server) Start() error {
	gin.SetMode(gin.ReleaseMode)

	s.server = &http.Server{
		Handler:           s.Handler(),
		BaseContext:       func(_ net.Listener) context.Context { return s.ctx },
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.listener = listener
	s.startTime = time.Now()

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("serve failed", slog.String("error", err.Error()))
		}
	}()

	s.logger.Info("listening", slog.String("addr", listener.Addr().String()))
	return nil
}

// Addr returns the listening address once started.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.addr
	}
	return s.listener.Addr().String()
}

// Run starts the server and stops it when ctx is done.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	return s.Stop()
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop() error {
	s.cancel()
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

func (s *Server) logRequests(c *gin.Context) {
	start := time.Now()
	c.Next()
	s.logger.Debug("request",
		slog.String("method", c.Request.Method),
		slog.String("path", c.FullPath()),
		slog.Int("status", c.Writer.Status()),
		slog.Duration("duration", time.Since(start)),
	)
}
