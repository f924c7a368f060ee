// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes the search pipeline over HTTP: synchronous search,
// async task submission and polling, cache and metrics administration, and
// the search history.
package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/pdiddy/answer-engine/pkg/types"
)

const gracefulShutdownTimeout = 10 * time.Second

// Server wraps the echo instance with lifecycle management.
type Server struct {
	echo *echo.Echo
	cfg  types.ServerConfig
	log  zerolog.Logger
}

// New builds the HTTP server and binds all routes.
func New(cfg types.ServerConfig, h *Handler, log zerolog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(requestLogger(log))
	if len(cfg.CORSOrigins) > 0 {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: cfg.CORSOrigins,
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		}))
	}

	h.Bind(e)

	return &Server{echo: e, cfg: cfg, log: log}
}

// Start serves until an interrupt or termination signal arrives, then shuts
// down gracefully.
func (s *Server) Start() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	port := s.cfg.Port
	if port == "" {
		port = "8080"
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("port", port).Msg("http server listening")
		if err := s.echo.Start(":" + port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info().Msg("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()
	return s.echo.Shutdown(shutdownCtx)
}

// requestLogger logs one line per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			log.Info().
				Str("method", c.Request().Method).
				Str("path", c.Request().URL.Path).
				Int("status", c.Response().Status).
				Dur("elapsed", time.Since(start)).
				Err(err).
				Msg("request")
			return err
		}
	}
}
