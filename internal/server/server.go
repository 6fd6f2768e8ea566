// Package server exposes the claim lifecycle and the aether pipeline
// over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nocap-ai/nocap/internal/aether"
	"github.com/nocap-ai/nocap/internal/gateway"
	"github.com/nocap-ai/nocap/internal/lifecycle"
	"github.com/nocap-ai/nocap/internal/model"
)

// Deps holds the collaborators the HTTP surface exposes
type Deps struct {
	Gateway *gateway.Gateway
	Engine  *lifecycle.Engine
	Aether  *aether.Pipeline
	Logger  *zap.Logger

	// MaxUploadBytes caps multipart upload size
	MaxUploadBytes int64
}

// Server is the HTTP front end
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
	shutdownTO time.Duration
}

// New builds the server with routes and middleware wired
func New(cfg *model.ServerConfig, deps Deps) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(deps.Logger))

	SetupRoutes(router, deps)

	return &Server{
		httpServer: &http.Server{
			Addr:         cfg.Addr,
			Handler:      router,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
		logger:     deps.Logger,
		shutdownTO: cfg.ShutdownTimeout,
	}
}

// Run serves until the context is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTO)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	s.logger.Info("http server stopped")
	return nil
}

// requestLogger logs each request with latency and status
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}
