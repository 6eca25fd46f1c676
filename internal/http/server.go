// Package http provides the gateway HTTP servers and shared middleware.
package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"

	gatewayHTTP "github.com/allisson/gitgate/internal/gateway/http"
	"github.com/allisson/gitgate/internal/metrics"
)

// ServerConfig holds the API server settings.
type ServerConfig struct {
	Host             string
	Port             int
	MetricsEnabled   bool
	MetricsNamespace string
	CORSEnabled      bool
	CORSAllowOrigins string
	IPRateLimit      IPRateLimitConfig
}

// Server is the gateway API server.
type Server struct {
	server *http.Server
	logger *slog.Logger
}

// NewServer creates the API server with the full middleware chain and the
// release delivery routes.
func NewServer(
	cfg ServerConfig,
	releaseHandler *gatewayHTTP.ReleaseHandler,
	metricsProvider *metrics.Provider,
	logger *slog.Logger,
) *Server {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestid.New())
	router.Use(CustomLoggerMiddleware(logger))

	if cfg.MetricsEnabled && metricsProvider != nil {
		router.Use(metrics.HTTPMetricsMiddleware(metricsProvider.MeterProvider(), cfg.MetricsNamespace))
	}

	if corsMiddleware := createCORSMiddleware(cfg.CORSEnabled, cfg.CORSAllowOrigins, logger); corsMiddleware != nil {
		router.Use(corsMiddleware)
	}

	if cfg.IPRateLimit.Enabled {
		router.Use(IPRateLimitMiddleware(cfg.IPRateLimit.RequestsPerSec, cfg.IPRateLimit.Burst, logger))
	}

	router.GET("/health", healthHandler)
	router.GET("/releases/:owner/:repo", releaseHandler.ListReleasesHandler)
	router.GET("/release/:owner/:repo/:version/:asset", releaseHandler.DownloadAssetHandler)

	return &Server{
		server: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}
}

// GetHandler returns the http.Handler for testing purposes.
func (s *Server) GetHandler() http.Handler {
	return s.server.Handler
}

// Start starts the API server.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("starting http server", slog.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.server.Shutdown(ctx)
}

// healthHandler reports gateway liveness.
func healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
