package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/artpar/sponsors/internal/core/seed"
	"github.com/artpar/sponsors/internal/shell/api"
	apimiddleware "github.com/artpar/sponsors/internal/shell/api/middleware"
	"github.com/artpar/sponsors/internal/shell/probe"
	"github.com/artpar/sponsors/internal/shell/sponsors"
	"github.com/artpar/sponsors/internal/shell/store"
)

// =============================================================================
// Exit Codes
// =============================================================================

const (
	ExitSuccess         = 0
	ExitConfigError     = 1
	ExitDatabaseError   = 2
	ExitHTTPServerError = 3
	ExitSeedError       = 4
)

// =============================================================================
// Server
// =============================================================================

// Server represents the sponsors application server.
type Server struct {
	config     *Config
	httpServer *http.Server
	store      store.Store
	service    *sponsors.Service
	limiter    *apimiddleware.RateLimiter
	logger     *slog.Logger
}

// NewServer creates a new server with the given config.
func NewServer(ctx context.Context, cfg *Config, logger *slog.Logger) (*Server, error) {
	if cfg.Database.Driver == store.DriverSQLite && cfg.Database.DSN != ":memory:" {
		if dir := filepath.Dir(cfg.Database.DSN); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, &ServerError{
					Op:       "NewServer",
					Err:      fmt.Errorf("creating data directory: %w", err),
					ExitCode: ExitDatabaseError,
				}
			}
		}
	}

	// Connect to storage backend
	s, err := store.Open(ctx, store.Config{
		Driver: cfg.Database.Driver,
		DSN:    cfg.Database.DSN,
		Redis: store.RedisConfig{
			Addr:      cfg.Redis.Addr,
			Password:  cfg.Redis.Password,
			DB:        cfg.Redis.DB,
			KeyPrefix: cfg.Redis.KeyPrefix,
		},
	})
	if err != nil {
		return nil, &ServerError{
			Op:       "NewServer",
			Err:      err,
			ExitCode: ExitDatabaseError,
		}
	}

	prober := probe.NewHTTPProber(probe.Config{
		Timeout:   cfg.Probe.Timeout,
		UserAgent: cfg.Probe.UserAgent,
	}, logger)

	svc := sponsors.NewService(s, prober, logger)

	var limiter *apimiddleware.RateLimiter
	if cfg.RateLimit.Enabled {
		limiter = apimiddleware.NewRateLimiter(apimiddleware.RateLimitConfig{
			RPS:    cfg.RateLimit.RPS,
			Burst:  cfg.RateLimit.Burst,
			Logger: logger,
		})
		logger.Info("rate limiting enabled",
			"rps", cfg.RateLimit.RPS,
			"burst", cfg.RateLimit.Burst,
		)
	}

	handler := api.SetupAPI(api.APIConfig{
		Service:     svc,
		Pinger:      s,
		Logger:      logger,
		Version:     Version,
		RateLimiter: limiter,
	})

	// Create HTTP server
	httpServer := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return &Server{
		config:     cfg,
		httpServer: httpServer,
		store:      s,
		service:    svc,
		limiter:    limiter,
		logger:     logger,
	}, nil
}

// Seed loads the configured seed file, if any, through the create workflow.
func (s *Server) Seed(ctx context.Context) (sponsors.SeedReport, error) {
	path := s.config.Seed.File
	if path == "" {
		return sponsors.SeedReport{}, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return sponsors.SeedReport{}, &ServerError{Op: "Seed", Err: err, ExitCode: ExitSeedError}
	}

	entries, err := seed.Parse(content)
	if err != nil {
		return sponsors.SeedReport{}, &ServerError{Op: "Seed", Err: err, ExitCode: ExitSeedError}
	}

	s.logger.Info("seeding sponsors", "file", path, "entries", len(entries))
	report, err := s.service.Seed(ctx, entries)
	if err != nil {
		return report, &ServerError{Op: "Seed", Err: err, ExitCode: ExitSeedError}
	}
	return report, nil
}

// Start starts the server and blocks until shutdown.
func (s *Server) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Setup signal handling
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	if _, err := s.Seed(ctx); err != nil {
		s.closeStore()
		return err
	}

	if s.limiter != nil {
		s.limiter.StartJanitor(ctx)
	}

	// Start HTTP server in goroutine
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server",
			"address", s.config.Server.Address())
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for shutdown signal or error
	select {
	case sig := <-sigCh:
		s.logger.Info("received shutdown signal", "signal", sig)
	case err := <-errCh:
		s.closeStore()
		return &ServerError{
			Op:       "Start",
			Err:      err,
			ExitCode: ExitHTTPServerError,
		}
	case <-ctx.Done():
		s.logger.Info("context cancelled")
	}

	return s.Shutdown(context.Background())
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("initiating graceful shutdown")

	// Create shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(ctx, s.config.Server.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
	}

	s.closeStore()

	s.logger.Info("shutdown complete")
	return nil
}

func (s *Server) closeStore() {
	if err := s.store.Close(); err != nil {
		s.logger.Error("store close error", "error", err)
	}
}

// =============================================================================
// Server Error
// =============================================================================

// ServerError represents an error during server operation.
type ServerError struct {
	Op       string
	Err      error
	ExitCode int
}

func (e *ServerError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *ServerError) Unwrap() error {
	return e.Err
}
