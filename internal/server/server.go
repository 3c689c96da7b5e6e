// Package server exposes capability reports over HTTP and serves the
// browser dashboard.
package server

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"aicaps/internal/capabilities"
	"aicaps/internal/config"
	"aicaps/internal/logging"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// Collector produces a fresh capabilities report per call
type Collector interface {
	Collect(ctx context.Context) (capabilities.Report, error)
}

// Server is the HTTP boundary
type Server struct {
	echo      *echo.Echo
	collector Collector
	cfg       config.ServerConfig
	version   string
	index     *template.Template
	logger    *logging.Logger
}

// New creates a server with routes and middleware installed
func New(collector Collector, cfg config.ServerConfig, version string, logger *logging.Logger) (*Server, error) {
	index, err := template.ParseFS(webFS, "web/templates/index.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse dashboard template: %w", err)
	}

	s := &Server{
		echo:      echo.New(),
		collector: collector,
		cfg:       cfg,
		version:   version,
		index:     index,
		logger:    logger,
	}
	s.setupRoutes()
	return s, nil
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) setupRoutes() {
	s.echo.HideBanner = true
	s.echo.HidePort = true

	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	s.echo.Use(s.requestLogger())

	s.echo.GET("/", s.dashboard)
	s.echo.GET("/health", s.health)
	s.echo.GET("/api/capabilities", s.getCapabilities)
	s.echo.StaticFS("/static", echo.MustSubFS(webFS, "web/static"))
}

func (s *Server) requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogMethod:    true,
		LogURI:       true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			payload := map[string]interface{}{
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency_ms": v.Latency.Milliseconds(),
				"request_id": v.RequestID,
			}
			if v.Error != nil {
				payload["error"] = v.Error.Error()
				s.logger.Warn("http.request", "Request failed", payload)
				return nil
			}
			s.logger.Debug("http.request", "Request served", payload)
			return nil
		},
	})
}

// Start serves on the configured address until ctx is cancelled, then shuts
// down gracefully within the configured timeout.
func (s *Server) Start(ctx context.Context) error {
	s.echo.Server.ReadTimeout = time.Duration(s.cfg.ReadTimeoutSeconds) * time.Second
	s.echo.Server.WriteTimeout = time.Duration(s.cfg.WriteTimeoutSeconds) * time.Second

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server.start", "Starting HTTP server", map[string]interface{}{
			"listen":  s.cfg.Listen,
			"version": s.version,
		})
		if err := s.echo.Start(s.cfg.Listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		return s.Shutdown()
	}
}

// Shutdown stops accepting requests and waits for in-flight ones
func (s *Server) Shutdown() error {
	s.logger.Info("server.shutdown", "Shutting down server", nil)

	timeout := time.Duration(s.cfg.ShutdownTimeoutSeconds) * time.Second
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.echo.Shutdown(ctx); err != nil {
		s.logger.Error("server.shutdown.failed", "Server shutdown failed", map[string]interface{}{
			"error": err.Error(),
		})
		return err
	}

	s.logger.Info("server.stopped", "Server gracefully stopped", nil)
	return nil
}
