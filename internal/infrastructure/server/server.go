package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apihttp "github.com/GriffinCanCode/Playground/backend/internal/api/http"
	"github.com/GriffinCanCode/Playground/backend/internal/api/middleware"
	"github.com/GriffinCanCode/Playground/backend/internal/api/ws"
	"github.com/GriffinCanCode/Playground/backend/internal/domain/challenge"
	"github.com/GriffinCanCode/Playground/backend/internal/domain/session"
	"github.com/GriffinCanCode/Playground/backend/internal/infrastructure/config"
	"github.com/GriffinCanCode/Playground/backend/internal/infrastructure/logging"
	"github.com/GriffinCanCode/Playground/backend/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/Playground/backend/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/Playground/backend/internal/preview"
	"github.com/GriffinCanCode/Playground/backend/internal/preview/sandbox"
)

// Server wraps the HTTP server and dependencies
type Server struct {
	router   *gin.Engine
	sessions *session.Manager
	catalog  *challenge.Catalog
	remote   *challenge.RemoteSource
	probe    *preview.Probe
	tracer   *tracing.Tracer
	logger   *logging.Logger
	config   *config.Config
	metrics  *monitoring.Metrics
}

// NewServer creates a new server instance. ctx bounds catalog loading.
func NewServer(ctx context.Context, cfg *config.Config) (*Server, error) {
	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
		File:        cfg.Logging.File,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	logger.Info("Initializing Playground Server",
		zap.String("port", cfg.Server.Port),
		zap.Duration("quiet_interval", cfg.Preview.QuietInterval),
		zap.Bool("probe", cfg.Preview.ProbeEnabled),
	)

	// Initialize metrics first (needed by other components)
	metrics := monitoring.NewMetrics()
	tracer := tracing.New("playground", logger.Logger)

	var remote *challenge.RemoteSource
	if cfg.Challenges.URL != "" {
		remote = challenge.NewRemoteSource(challenge.RemoteConfig{URL: cfg.Challenges.URL, RetryMax: 2})
	}
	catalog := challenge.Load(ctx, challenge.LoadOptions{
		Dir:    cfg.Challenges.Dir,
		Remote: remote,
		Logger: logger.Logger,
	})

	var probe *preview.Probe
	if cfg.Preview.ProbeEnabled {
		sandboxCfg := sandbox.DefaultConfig()
		sandboxCfg.Timeout = cfg.Preview.ProbeTimeout
		sandboxCfg.MaxLength = cfg.Preview.ProbeMaxLength
		probe, err = preview.NewProbe(preview.ProbeConfig{
			Sandbox:    sandboxCfg,
			PoolSize:   cfg.Preview.ProbePoolSize,
			MaxBytes:   cfg.Preview.ProbeMaxBytes,
			MaxScripts: cfg.Preview.ProbeMaxScripts,
			Logger:     logger.Logger,
			Metrics:    metrics,
		})
		if err != nil {
			// the preview works without the probe
			logger.Warn("Headless probe disabled", zap.Error(err))
			probe = nil
		}
	}

	sessions := session.NewManager(catalog, session.Config{
		Max:           cfg.Session.Max,
		IdleTimeout:   cfg.Session.IdleTimeout,
		ReapEvery:     cfg.Session.ReapEvery,
		QuietInterval: cfg.Preview.QuietInterval,
		Logger:        logger.Logger,
		Metrics:       metrics,
		Probe:         probe,
	})

	// Create router
	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// Add middleware
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(tracing.HTTPMiddleware(tracer))
	router.Use(monitoring.Middleware(metrics))
	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowOrigins = cfg.Server.AllowOrigins
	router.Use(middleware.CORS(corsCfg))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		rateCfg := middleware.DefaultRateLimitConfig()
		rateCfg.RequestsPerSecond = cfg.RateLimit.RequestsPerSecond
		rateCfg.Burst = cfg.RateLimit.Burst
		router.Use(middleware.RateLimit(rateCfg))
	}

	handlers := apihttp.NewHandlers(apihttp.Deps{
		Sessions: sessions,
		Metrics:  metrics,
		Probe:    probe,
		Remote:   remote,
		Logger:   logger.Logger,
	})
	wsHandler := ws.NewHandler(sessions, ws.Config{
		AllowOrigins: cfg.Server.AllowOrigins,
		MaxMessage:   cfg.Preview.MaxMessage,
		Logger:       logger.Logger,
		Metrics:      metrics,
	})

	// Register routes
	router.GET("/sessions/stream", wsHandler.HandleConnection)
	handlers.Register(router)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	logger.Info("Server initialized successfully")

	return &Server{
		router:   router,
		sessions: sessions,
		catalog:  catalog,
		remote:   remote,
		probe:    probe,
		tracer:   tracer,
		logger:   logger,
		config:   cfg,
		metrics:  metrics,
	}, nil
}

// Handler returns the routed HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Sessions returns the session manager
func (s *Server) Sessions() *session.Manager {
	return s.sessions
}

// Run serves HTTP, reaps idle sessions and refreshes the remote challenge
// index until ctx is done, then shuts down gracefully within the
// configured wait.
func (s *Server) Run(ctx context.Context) error {
	addr := net.JoinHostPort(s.config.Server.Host, s.config.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	bgCtx, stopBackground := context.WithCancel(ctx)
	defer stopBackground()
	go s.sessions.Run(bgCtx)
	go s.catalog.Watch(bgCtx, challenge.WatchOptions{
		Remote: s.remote,
		Every:  s.config.Challenges.Refresh,
		Logger: s.logger.Logger,
	})

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting HTTP server", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down HTTP server", zap.Duration("wait", s.config.Server.ShutdownWait))
	// hijacked WebSocket connections are not tracked by Shutdown
	closed := s.sessions.CloseAll(session.ReasonShutdown)
	s.logger.Info("Closed live sessions", zap.Int("count", closed))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownWait)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}

// Close releases the probe, the tracer and the logger
func (s *Server) Close() error {
	s.logger.Info("Shutting down server...")

	var errs []error
	if s.probe != nil {
		if err := s.probe.Close(); err != nil {
			s.logger.Error("Failed to close probe", zap.Error(err))
			errs = append(errs, fmt.Errorf("failed to close probe: %w", err))
		}
	}
	s.tracer.Close()
	if err := s.logger.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
