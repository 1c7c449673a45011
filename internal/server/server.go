package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/edupulse/edupulse/internal/app/services"
	"github.com/edupulse/edupulse/internal/bootstrap"
	"github.com/edupulse/edupulse/internal/config"
	"github.com/edupulse/edupulse/internal/db"
)

// Server holds the state for the HTTP server and the reconciliation loop.
type Server struct {
	config   *config.Config
	router   *gin.Engine
	database *db.PostgresDB
	logger   zerolog.Logger
	http     *http.Server

	reconciliation *services.ReconciliationService
	stopReconcile  context.CancelFunc
	reconcileDone  chan struct{}
}

// NewServer creates and initializes a new server instance by calling bootstrap functions.
func NewServer() (*Server, error) {
	cfg, lgr, err := bootstrap.LoadConfigAndSetupLogger()
	if err != nil {
		return nil, fmt.Errorf("failed to load config or setup logger: %w", err)
	}

	database, err := bootstrap.SetupDatabase(cfg, lgr)
	if err != nil {
		return nil, fmt.Errorf("failed to setup database: %w", err)
	}

	deps, err := bootstrap.BuildDependencies(cfg, database, lgr)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to setup dependencies: %w", err)
	}

	router := bootstrap.SetupRouter(cfg, deps, lgr)

	s := &Server{
		config:         cfg,
		router:         router,
		database:       database,
		logger:         lgr,
		reconciliation: deps.Services.ReconciliationService,
	}

	return s, nil
}

// Run starts the HTTP server and the reconciliation loop, then blocks until
// shutdown.
func (s *Server) Run() error {
	s.logger.Info().Str("port", s.config.Server.Port).Msg("Starting server...")

	s.http = &http.Server{
		Addr:         ":" + s.config.Server.Port,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	s.startReconciliationLoop()

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info().Str("addr", s.http.Addr).Msg("HTTP server listening")
		serverErrors <- s.http.ListenAndServe()
	}()

	osSignals := make(chan os.Signal, 1)
	signal.Notify(osSignals, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("error starting server: %w", err)
		}
	case sig := <-osSignals:
		s.logger.Info().Str("signal", sig.String()).Msg("Received OS signal, initiating shutdown...")
	}

	return s.Shutdown(context.Background())
}

// startReconciliationLoop runs a full pass at startup and then on every
// configured interval until shutdown.
func (s *Server) startReconciliationLoop() {
	interval := s.config.ReconcileInterval()
	if interval <= 0 {
		s.logger.Info().Msg("Scheduled reconciliation disabled, relying on the HTTP trigger")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.stopReconcile = cancel
	s.reconcileDone = make(chan struct{})

	s.logger.Info().Dur("interval", interval).Msg("Starting reconciliation loop")

	go func() {
		defer close(s.reconcileDone)

		s.runReconciliationPass(ctx)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.runReconciliationPass(ctx)
			}
		}
	}()
}

func (s *Server) runReconciliationPass(ctx context.Context) {
	report, err := s.reconciliation.RunPass(ctx, false)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		s.logger.Error().Err(err).Msg("Scheduled reconciliation pass failed")
		return
	}
	s.logger.Info().
		Int("examined", report.Examined).
		Int("changed", report.Changed).
		Int("conflicts", report.Conflicts).
		Msg("Scheduled reconciliation pass finished")
}

// Shutdown gracefully stops the server and closes resources.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	shutdownError := false

	if s.stopReconcile != nil {
		s.logger.Info().Msg("Stopping reconciliation loop...")
		s.stopReconcile()
		select {
		case <-s.reconcileDone:
			s.logger.Info().Msg("Reconciliation loop stopped.")
		case <-ctx.Done():
			s.logger.Warn().Msg("Timed out waiting for reconciliation loop to stop")
			shutdownError = true
		}
	}

	if s.http != nil {
		s.logger.Info().Msg("Shutting down HTTP server...")
		if err := s.http.Shutdown(ctx); err != nil {
			s.logger.Error().Err(err).Msg("HTTP server shutdown error")
			shutdownError = true
		} else {
			s.logger.Info().Msg("HTTP server gracefully stopped.")
		}
	}

	if s.database != nil {
		s.logger.Info().Msg("Closing database connection pool...")
		s.database.Close()
		s.logger.Info().Msg("Database connection pool closed.")
	}

	s.logger.Info().Msg("Server shutdown process complete.")
	if shutdownError {
		return errors.New("server shutdown completed with errors")
	}
	return nil
}
