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

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	loggeradapter "walletsync/internal/adapters/logger"
)

// Server serves the synced wallet view over a local HTTP API.
type Server struct {
	echo   *echo.Echo
	logger *loggeradapter.Logger
}

// Config holds server configuration
type Config struct {
	Host         string
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

func NewServer(cfg Config, handler *HandlerAdapter, logger *loggeradapter.Logger) *Server {
	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	registerRoutes(e, handler)

	addr := fmt.Sprintf("%s:%s", cfg.Host, cfg.Port)
	if addr == ":" {
		addr = ":8080"
	}

	e.Server.Addr = addr
	e.Server.ReadTimeout = cfg.ReadTimeout
	e.Server.WriteTimeout = cfg.WriteTimeout
	e.Server.IdleTimeout = cfg.IdleTimeout

	return &Server{echo: e, logger: logger}
}

// Run starts the server and blocks until it fails or an interrupt/TERM
// signal triggers a graceful shutdown.
func (s *Server) Run() error {
	errChan := make(chan error, 1)

	go func() {
		s.logger.Info("starting HTTP server", zap.String("address", s.echo.Server.Addr))
		if err := s.echo.Start(s.echo.Server.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("server failed to start: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		s.logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
		return s.Shutdown(context.Background())
	}
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
