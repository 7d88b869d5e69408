// Package server owns the HTTP process: it wires the domain services,
// registers the API routes and runs the listener until the context ends.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/hashicorp/go-hclog"
	"gorm.io/gorm"

	"github.com/docworks-io/docvault/internal/auth"
	"github.com/docworks-io/docvault/internal/config"
	"github.com/docworks-io/docvault/internal/notify"
	"github.com/docworks-io/docvault/internal/service"
)

// Server carries everything the API handlers need.
type Server struct {
	// Config is the loaded server configuration.
	Config *config.Config

	// DB is the database handle shared by all services.
	DB *gorm.DB

	// Services is the wired domain service registry.
	Services *service.Services

	// Verifier resolves bearer tokens into identities.
	Verifier *auth.Verifier

	// Logger is the process logger.
	Logger hclog.Logger
}

// New wires a Server over an open database handle.
func New(cfg *config.Config, db *gorm.DB, log hclog.Logger) *Server {
	notifier := notify.NewNotifier(cfg.Notifications, log)
	return &Server{
		Config:   cfg,
		DB:       db,
		Services: service.New(db, log, service.WithNotifier(notifier)),
		Verifier: auth.NewVerifier(cfg.Auth.JWTSecret),
		Logger:   log,
	}
}

// Run serves the API until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, handler http.Handler) error {
	srv := &http.Server{
		Addr:              s.Config.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.Logger.Info("server listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
