// Package server exposes the question answering engine over HTTP.
package server

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"chatqa/internal/domain"
	"chatqa/internal/metrics"
	"chatqa/internal/qa"
)

// Server serves GET /ask, GET /health and, when enabled, the metrics endpoint.
type Server struct {
	addr         string
	readTimeout  time.Duration
	writeTimeout time.Duration
	metricsPath  string
	source       domain.MessageSource
	engine       *qa.Engine
	metrics      *metrics.Metrics
	limiters     *limiterPool
	logger       *slog.Logger
	server       *http.Server
}

// Config holds the listener settings and collaborators of a Server.
type Config struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	RateLimit    float64 // requests per second per client; 0 disables limiting
	RateBurst    int
	MetricsPath  string // empty disables the endpoint
	Source       domain.MessageSource
	Engine       *qa.Engine
	Metrics      *metrics.Metrics
	Logger       *slog.Logger
}

// New creates a Server, filling in defaults for unset fields.
func New(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Engine == nil {
		cfg.Engine = qa.NewEngine(cfg.Logger)
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = 30 * time.Second
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 60 * time.Second
	}
	s := &Server{
		addr:         cfg.Addr,
		readTimeout:  cfg.ReadTimeout,
		writeTimeout: cfg.WriteTimeout,
		metricsPath:  cfg.MetricsPath,
		source:       cfg.Source,
		engine:       cfg.Engine,
		metrics:      cfg.Metrics,
		logger:       cfg.Logger,
	}
	if cfg.RateLimit > 0 {
		s.limiters = newLimiterPool(cfg.RateLimit, cfg.RateBurst)
	}
	return s
}

// Handler returns the routed handler with request ID and access log
// middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /ask", s.rateLimit(http.HandlerFunc(s.handleAsk)))
	mux.HandleFunc("GET /health", s.handleHealth)
	if s.metricsPath != "" && s.metrics != nil {
		mux.Handle("GET "+s.metricsPath, s.metrics.Handler())
	}
	return s.requestID(s.accessLog(mux))
}

// Start listens on the configured address until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is Start on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       s.readTimeout,
		WriteTimeout:      s.writeTimeout,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	s.logger.Info("HTTP server started", "addr", ln.Addr().String(), "source", sourceName(s.source))

	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
		case <-done:
			return
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("shutdown incomplete", "error", err)
		}
	}()
	defer close(done)

	if err := s.server.Serve(ln); err != http.ErrServerClosed {
		return err
	}
	s.logger.Info("HTTP server stopped")
	return nil
}

func (s *Server) Stop() error {
	if s.server != nil {
		return s.server.Close()
	}
	return nil
}

func sourceName(src domain.MessageSource) string {
	if src == nil {
		return ""
	}
	return src.Name()
}
