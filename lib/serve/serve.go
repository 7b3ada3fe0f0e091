// Copyright 2026 Formidable Labs
// SPDX-License-Identifier: MIT

// Package serve runs the local preview server for a built site. It
// serves the build output directory, so a nested base path resolves
// exactly as it will in production.
package serve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"path"
	"syscall"
	"time"
)

// DefaultPort is the preview server port when none is configured.
const DefaultPort = 5000

// defaultGracePeriod bounds graceful shutdown before open connections
// are dropped.
const defaultGracePeriod = 5 * time.Second

// Config holds configuration for creating a Server.
type Config struct {
	// Dir is the directory to serve (the build output directory).
	Dir string

	// BasePath is the nested site path, used for the logged address.
	BasePath string

	// Port to listen on. Port 0 picks a free port.
	Port int

	// GracePeriod bounds graceful shutdown after an interrupt.
	// Defaults to 5 seconds.
	GracePeriod time.Duration

	// OnReady, if set, is called with the listen address once the
	// server is accepting connections.
	OnReady func(addr string)

	// Logger is used for structured logging. Defaults to slog.Default().
	Logger *slog.Logger
}

// Server is the local preview server.
type Server struct {
	config Config
	logger *slog.Logger
}

// New creates a Server from the given configuration.
func New(config Config) *Server {
	if config.GracePeriod <= 0 {
		config.GracePeriod = defaultGracePeriod
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{config: config, logger: logger}
}

// Run serves until the context is canceled or an interrupt or
// terminate signal arrives, then shuts down gracefully. Connections
// still open after the grace period are dropped.
func (s *Server) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", fmt.Sprintf("localhost:%d", s.config.Port))
	if err != nil {
		return fmt.Errorf("listening on port %d: %w", s.config.Port, err)
	}

	httpServer := &http.Server{Handler: http.FileServer(http.Dir(s.config.Dir))}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	address := "http://" + listener.Addr().String() + "/" + path.Join(s.config.BasePath, "")
	s.logger.Info("serving build", "dir", s.config.Dir, "address", address)
	if s.config.OnReady != nil {
		s.config.OnReady(listener.Addr().String())
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- httpServer.Serve(listener)
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("preview server: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("graceful shutdown", "grace", s.config.GracePeriod)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.GracePeriod)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		// Grace period expired with connections still open; drop them.
		s.logger.Warn("forced shutdown", "error", err)
		httpServer.Close()
	}

	if err := <-serveErr; !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("preview server: %w", err)
	}
	return nil
}
