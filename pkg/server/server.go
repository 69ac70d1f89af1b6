package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"patternlab/relay/pkg/admission"
	"patternlab/relay/pkg/config"
	"patternlab/relay/pkg/providers"
	"patternlab/relay/pkg/proxy/handlers"
	"patternlab/relay/pkg/proxy/middleware"
	"patternlab/relay/pkg/telemetry/metrics"
)

// Deps carries everything the server wires together. Gate and Provider are
// required for normal operation; the rest are optional.
type Deps struct {
	// Config is the full relay configuration.
	Config *config.Config

	// Gate admits or denies requests to the chat endpoint.
	Gate admission.Gate

	// Controller, when the gate is a window controller, provides
	// Retry-After and X-RateLimit-* headers on denials.
	Controller *admission.Controller

	// Provider is the upstream completion provider.
	Provider providers.Provider

	// Metrics, when set, records HTTP, admission, and upstream metrics
	// and serves the /metrics endpoint.
	Metrics *metrics.Collector

	// OnDecision, when set, receives every admission decision. Used to
	// feed the audit recorder.
	OnDecision func(r *http.Request, key string, decision admission.Decision)
}

// Server is the relay's HTTP server.
type Server struct {
	deps       Deps
	httpServer *http.Server
	logger     *slog.Logger

	mu           sync.Mutex
	running      bool
	shutdownOnce sync.Once
	shutdownChan chan struct{}
}

// NewServer creates a server from its dependencies.
func NewServer(deps Deps) *Server {
	return &Server{
		deps:         deps,
		logger:       slog.Default().With("component", "server"),
		shutdownChan: make(chan struct{}),
	}
}

// Handler builds the full route and middleware stack. Exposed for tests.
func (s *Server) Handler() http.Handler {
	return s.setupRoutes()
}

// Start starts the HTTP server and blocks until the context is cancelled, a
// shutdown signal arrives, or the listener fails.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}
	s.running = true
	s.mu.Unlock()

	srvCfg := s.deps.Config.Server

	s.httpServer = &http.Server{
		Addr:           srvCfg.ListenAddress,
		Handler:        s.setupRoutes(),
		ReadTimeout:    srvCfg.ReadTimeout,
		WriteTimeout:   srvCfg.WriteTimeout,
		IdleTimeout:    srvCfg.IdleTimeout,
		MaxHeaderBytes: srvCfg.MaxHeaderBytes,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("starting relay server", "address", srvCfg.ListenAddress)

		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case <-ctx.Done():
		s.logger.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case sig := <-sigChan:
		s.logger.Info("received shutdown signal", "signal", sig.String())
		return s.Shutdown(context.Background())
	case err := <-errChan:
		return err
	case <-s.shutdownChan:
		return s.Shutdown(context.Background())
	}
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		running := s.running
		s.mu.Unlock()
		if !running {
			return
		}

		timeout := s.deps.Config.Server.ShutdownTimeout
		s.logger.Info("initiating graceful shutdown", "timeout", timeout.String())

		shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		if s.httpServer != nil {
			if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
				s.logger.Error("error during server shutdown", "error", err)
				shutdownErr = fmt.Errorf("server shutdown error: %w", err)
			}
		}

		s.mu.Lock()
		s.running = false
		s.mu.Unlock()

		s.logger.Info("relay server stopped")
	})

	return shutdownErr
}

func (s *Server) setupRoutes() http.Handler {
	cfg := s.deps.Config

	var chatOpts []handlers.ChatHandlerOption
	if s.deps.Metrics != nil {
		chatOpts = append(chatOpts, handlers.WithUpstreamResultHook(s.deps.Metrics.RecordProviderRequest))
	}
	chatHandler := handlers.NewChatHandler(s.deps.Provider, chatOpts...)

	// The chat endpoint alone sits behind the admission gate. Probes and
	// metrics must stay reachable when clients are being throttled.
	admitted := middleware.Admission(middleware.AdmissionConfig{
		Gate:       s.deps.Gate,
		Controller: s.deps.Controller,
		OnDecision: s.decisionHook(),
	})(chatHandler)

	mux := http.NewServeMux()
	mux.Handle("/v1/chat", admitted)
	mux.Handle("/health", handlers.NewHealthHandler())
	mux.Handle("/ready", handlers.NewReadyHandler(s.deps.Provider))

	if s.deps.Metrics != nil && metricsEnabled(cfg) {
		mux.Handle("/metrics", s.deps.Metrics.Handler())
	}

	var handler http.Handler = mux

	handler = middleware.Timeout(cfg.Server.RequestTimeout)(handler)

	handler = middleware.SecurityHeaders(middleware.SecurityConfig{
		EnableHSTS:        cfg.Server.Security.EnableHSTS,
		HSTSMaxAgeSeconds: cfg.Server.Security.HSTSMaxAgeSeconds,
	})(handler)

	handler = middleware.CORS(&middleware.CORSConfig{
		Enabled:        cfg.Server.CORS.Enabled == nil || *cfg.Server.CORS.Enabled,
		AllowedOrigins: cfg.Server.CORS.AllowedOrigins,
		AllowedMethods: cfg.Server.CORS.AllowedMethods,
		AllowedHeaders: cfg.Server.CORS.AllowedHeaders,
		ExposedHeaders: []string{"X-Request-ID", "Retry-After"},
		MaxAge:         cfg.Server.CORS.MaxAge,
	})(handler)

	if s.deps.Metrics != nil {
		handler = s.metricsMiddleware(handler)
	}

	handler = middleware.RequestID(handler)
	handler = middleware.Logging(handler)
	handler = middleware.Recovery(handler)

	return handler
}

// decisionHook fans a decision out to metrics and the configured OnDecision
// callback.
func (s *Server) decisionHook() func(r *http.Request, key string, decision admission.Decision) {
	metricsC := s.deps.Metrics
	controller := s.deps.Controller
	next := s.deps.OnDecision

	if metricsC == nil && next == nil {
		return nil
	}

	return func(r *http.Request, key string, decision admission.Decision) {
		if metricsC != nil {
			scope := "global"
			if controller != nil {
				scope = string(controller.Config().Scope)
				if win := controller.Window(key); win != nil {
					metricsC.RecordWindowOccupancy(win.Len(), controller.Config().MaxRequests)
				}
				metricsC.SetActiveWindows(len(controller.Keys()))
			}
			metricsC.RecordDecision(decision.String(), scope)
		}
		if next != nil {
			next(r, key, decision)
		}
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func (s *Server) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		s.deps.Metrics.RecordHTTPRequest(r.Method, r.URL.Path, rec.status, time.Since(start))
	})
}

func metricsEnabled(cfg *config.Config) bool {
	return cfg.Telemetry.MetricsEnabled == nil || *cfg.Telemetry.MetricsEnabled
}
