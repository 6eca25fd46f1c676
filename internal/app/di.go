// Package app provides dependency injection container for assembling application components.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	auditRepository "github.com/allisson/gitgate/internal/audit/repository"
	auditService "github.com/allisson/gitgate/internal/audit/service"
	auditUseCase "github.com/allisson/gitgate/internal/audit/usecase"
	authDomain "github.com/allisson/gitgate/internal/auth/domain"
	authService "github.com/allisson/gitgate/internal/auth/service"
	"github.com/allisson/gitgate/internal/cache"
	"github.com/allisson/gitgate/internal/config"
	gatewayHTTP "github.com/allisson/gitgate/internal/gateway/http"
	gatewayUseCase "github.com/allisson/gitgate/internal/gateway/usecase"
	gatewayServer "github.com/allisson/gitgate/internal/http"
	"github.com/allisson/gitgate/internal/metrics"
	"github.com/allisson/gitgate/internal/ratelimit"
	"github.com/allisson/gitgate/internal/release"
	"github.com/allisson/gitgate/internal/signing"
)

// Container holds all application dependencies and provides methods to access them.
// It follows the lazy initialization pattern - components are created on first access.
type Container struct {
	// Configuration
	config *config.Config

	// Infrastructure
	logger          *slog.Logger
	metricsProvider *metrics.Provider
	businessMetrics metrics.BusinessMetrics
	cacheStore      *cache.Store
	assetSigner     *signing.Signer
	auditFileRepo   *auditRepository.FileRepository

	// Collaborators
	authenticator  authService.Authenticator
	authMethod     authDomain.AuthMethod
	limiter        *ratelimit.Limiter
	releaseSource  release.Source
	auditLogger    auditUseCase.Logger
	gatewayUseCase gatewayUseCase.GatewayUseCase

	// Servers
	httpServer    *gatewayServer.Server
	metricsServer *gatewayServer.MetricsServer

	// Initialization flags and mutex for thread-safety
	loggerInit          sync.Once
	metricsProviderInit sync.Once
	businessMetricsInit sync.Once
	cacheStoreInit      sync.Once
	assetSignerInit     sync.Once
	authenticatorInit   sync.Once
	limiterInit         sync.Once
	releaseSourceInit   sync.Once
	auditLoggerInit     sync.Once
	gatewayUseCaseInit  sync.Once
	httpServerInit      sync.Once
	metricsServerInit   sync.Once
	initErrors          map[string]error
}

// NewContainer creates a new dependency injection container with the provided configuration.
func NewContainer(cfg *config.Config) *Container {
	return &Container{
		config:     cfg,
		initErrors: make(map[string]error),
	}
}

// Config returns the application configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the configured logger instance.
// It creates a new logger on first access based on the log level in configuration.
func (c *Container) Logger() *slog.Logger {
	c.loggerInit.Do(func() {
		c.logger = c.initLogger()
	})
	return c.logger
}

// MetricsProvider returns the Prometheus-backed metrics provider, or nil
// when metrics are disabled.
func (c *Container) MetricsProvider() (*metrics.Provider, error) {
	c.metricsProviderInit.Do(func() {
		if !c.config.MetricsEnabled {
			return
		}
		provider, err := metrics.NewProvider(c.config.MetricsNamespace)
		if err != nil {
			c.initErrors["metricsProvider"] = err
			return
		}
		c.metricsProvider = provider
	})
	if storedErr, exists := c.initErrors["metricsProvider"]; exists {
		return nil, storedErr
	}
	return c.metricsProvider, nil
}

// BusinessMetrics returns the business metrics recorder. A no-op recorder
// is used when metrics are disabled.
func (c *Container) BusinessMetrics() (metrics.BusinessMetrics, error) {
	c.businessMetricsInit.Do(func() {
		provider, err := c.MetricsProvider()
		if err != nil {
			c.initErrors["businessMetrics"] = err
			return
		}
		if provider == nil {
			c.businessMetrics = metrics.NewNoOpBusinessMetrics()
			return
		}
		businessMetrics, err := metrics.NewBusinessMetrics(provider.MeterProvider(), c.config.MetricsNamespace)
		if err != nil {
			c.initErrors["businessMetrics"] = err
			return
		}
		c.businessMetrics = businessMetrics
	})
	if storedErr, exists := c.initErrors["businessMetrics"]; exists {
		return nil, storedErr
	}
	return c.businessMetrics, nil
}

// CacheStore returns the durable response cache.
func (c *Container) CacheStore() (*cache.Store, error) {
	c.cacheStoreInit.Do(func() {
		store, err := cache.NewStore(c.config.CacheDir, c.config.CacheTTL, c.Logger())
		if err != nil {
			c.initErrors["cacheStore"] = fmt.Errorf("failed to open cache store: %w", err)
			return
		}
		c.cacheStore = store
	})
	if storedErr, exists := c.initErrors["cacheStore"]; exists {
		return nil, storedErr
	}
	return c.cacheStore, nil
}

// AssetSigner returns the RSA asset signer, or nil when signing is
// disabled or the key failed to load. A load failure is logged and
// downgrades the gateway to unsigned responses rather than failing startup.
func (c *Container) AssetSigner() *signing.Signer {
	c.assetSignerInit.Do(func() {
		if c.config.SigningKeyPath == "" {
			return
		}
		signer, err := signing.NewSigner(c.config.SigningKeyPath)
		if err != nil {
			c.Logger().Warn("failed to load signing key, responses will be unsigned",
				slog.String("path", c.config.SigningKeyPath),
				slog.Any("error", err),
			)
			return
		}
		c.assetSigner = signer
	})
	return c.assetSigner
}

// AuthMethod returns the configured device verification method.
func (c *Container) AuthMethod() (authDomain.AuthMethod, error) {
	return authDomain.ParseAuthMethod(c.config.AuthMethod)
}

// Authenticator returns the device authenticator with all strategies wired.
func (c *Container) Authenticator() (authService.Authenticator, error) {
	c.authenticatorInit.Do(func() {
		method, err := c.AuthMethod()
		if err != nil {
			c.initErrors["authenticator"] = err
			return
		}
		c.authMethod = method

		logger := c.Logger()
		jamf := authService.NewJamfStrategy(authService.JamfConfig{
			APIURL:    c.config.JamfAPIURL,
			APIKey:    c.config.JamfAPIKey,
			APISecret: c.config.JamfAPISecret,
		}, nil, logger)
		tailscale := authService.NewTailscaleStrategy(authService.TailscaleConfig{
			APIKey:       c.config.TailscaleAPIKey,
			DirectoryURL: c.config.TailscaleDirectoryURL,
		}, nil, logger)
		mtls := authService.NewMTLSStrategy(authService.MTLSConfig{
			CACertPath: c.config.MTLSCACertPath,
		}, logger)
		if method == authDomain.MethodMTLS {
			logger.Warn("mtls strategy extracts the certificate subject without chain verification, " +
				"ensure the listener verifies client certificates at the transport layer")
		}

		c.authenticator = authService.NewAuthenticator(jamf, tailscale, mtls)
	})
	if storedErr, exists := c.initErrors["authenticator"]; exists {
		return nil, storedErr
	}
	return c.authenticator, nil
}

// RateLimiter returns the per-device fixed window limiter.
func (c *Container) RateLimiter() *ratelimit.Limiter {
	c.limiterInit.Do(func() {
		c.limiter = ratelimit.NewLimiter(c.config.RateLimitRequests, c.config.RateLimitWindow)
	})
	return c.limiter
}

// ReleaseSource returns the upstream release source.
func (c *Container) ReleaseSource() release.Source {
	c.releaseSourceInit.Do(func() {
		c.releaseSource = release.NewGitHubSource(release.GitHubConfig{
			Token:   c.config.GitHubToken,
			BaseURL: c.config.GitHubBaseURL,
		}, nil, c.Logger())
	})
	return c.releaseSource
}

// AuditLogger returns the audit trail logger. Records go to the JSONL file
// when configured, otherwise to the structured logger.
func (c *Container) AuditLogger() (auditUseCase.Logger, error) {
	c.auditLoggerInit.Do(func() {
		logger := c.Logger()

		var repo auditUseCase.Repository
		if c.config.AuditLogPath != "" {
			fileRepo, err := auditRepository.NewFileRepository(c.config.AuditLogPath)
			if err != nil {
				c.initErrors["auditLogger"] = fmt.Errorf("failed to open audit log: %w", err)
				return
			}
			c.auditFileRepo = fileRepo
			repo = fileRepo
		} else {
			repo = auditRepository.NewLogRepository(logger)
		}

		c.auditLogger = auditUseCase.NewLogger(
			repo,
			auditService.NewSigner(),
			[]byte(c.config.AuditSigningKey),
			logger,
		)
	})
	if storedErr, exists := c.initErrors["auditLogger"]; exists {
		return nil, storedErr
	}
	return c.auditLogger, nil
}

// GatewayUseCase returns the release delivery pipeline, instrumented with
// business metrics.
func (c *Container) GatewayUseCase() (gatewayUseCase.GatewayUseCase, error) {
	c.gatewayUseCaseInit.Do(func() {
		store, err := c.CacheStore()
		if err != nil {
			c.initErrors["gatewayUseCase"] = err
			return
		}

		businessMetrics, err := c.BusinessMetrics()
		if err != nil {
			c.initErrors["gatewayUseCase"] = err
			return
		}

		var assetSigner gatewayUseCase.AssetSigner
		if signer := c.AssetSigner(); signer != nil {
			assetSigner = signer
		}

		useCase := gatewayUseCase.NewGatewayUseCase(store, c.ReleaseSource(), assetSigner, c.Logger())
		c.gatewayUseCase = gatewayUseCase.NewGatewayUseCaseWithMetrics(useCase, businessMetrics)
	})
	if storedErr, exists := c.initErrors["gatewayUseCase"]; exists {
		return nil, storedErr
	}
	return c.gatewayUseCase, nil
}

// HTTPServer returns the API server instance.
func (c *Container) HTTPServer() (*gatewayServer.Server, error) {
	c.httpServerInit.Do(func() {
		useCase, err := c.GatewayUseCase()
		if err != nil {
			c.initErrors["httpServer"] = fmt.Errorf("failed to get gateway use case for http server: %w", err)
			return
		}

		authenticator, err := c.Authenticator()
		if err != nil {
			c.initErrors["httpServer"] = fmt.Errorf("failed to get authenticator for http server: %w", err)
			return
		}

		auditLogger, err := c.AuditLogger()
		if err != nil {
			c.initErrors["httpServer"] = fmt.Errorf("failed to get audit logger for http server: %w", err)
			return
		}

		metricsProvider, err := c.MetricsProvider()
		if err != nil {
			c.initErrors["httpServer"] = fmt.Errorf("failed to get metrics provider for http server: %w", err)
			return
		}

		handler := gatewayHTTP.NewReleaseHandler(
			useCase,
			authenticator,
			c.authMethod,
			c.RateLimiter(),
			auditLogger,
			c.Logger(),
		)

		c.httpServer = gatewayServer.NewServer(gatewayServer.ServerConfig{
			Host:             c.config.ServerHost,
			Port:             c.config.ServerPort,
			MetricsEnabled:   c.config.MetricsEnabled,
			MetricsNamespace: c.config.MetricsNamespace,
			CORSEnabled:      c.config.CORSEnabled,
			CORSAllowOrigins: c.config.CORSAllowOrigins,
			IPRateLimit: gatewayServer.IPRateLimitConfig{
				Enabled:        c.config.RateLimitIPEnabled,
				RequestsPerSec: c.config.RateLimitIPRequestsPerSec,
				Burst:          c.config.RateLimitIPBurst,
			},
		}, handler, metricsProvider, c.Logger())
	})
	if storedErr, exists := c.initErrors["httpServer"]; exists {
		return nil, storedErr
	}
	return c.httpServer, nil
}

// MetricsServer returns the metrics server, or nil when metrics are disabled.
func (c *Container) MetricsServer() (*gatewayServer.MetricsServer, error) {
	c.metricsServerInit.Do(func() {
		provider, err := c.MetricsProvider()
		if err != nil {
			c.initErrors["metricsServer"] = err
			return
		}
		if provider == nil {
			return
		}
		c.metricsServer = gatewayServer.NewMetricsServer(
			c.config.ServerHost,
			c.config.MetricsPort,
			c.Logger(),
			provider,
		)
	})
	if storedErr, exists := c.initErrors["metricsServer"]; exists {
		return nil, storedErr
	}
	return c.metricsServer, nil
}

// Shutdown releases container resources: the audit file, the cache store,
// and the metrics provider.
func (c *Container) Shutdown(ctx context.Context) error {
	var errs []error

	if c.auditFileRepo != nil {
		if err := c.auditFileRepo.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close audit log: %w", err))
		}
	}

	if c.cacheStore != nil {
		if err := c.cacheStore.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close cache store: %w", err))
		}
	}

	if c.metricsProvider != nil {
		if err := c.metricsProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to shutdown metrics provider: %w", err))
		}
	}

	return errors.Join(errs...)
}

// initLogger creates the application logger from the configured level.
func (c *Container) initLogger() *slog.Logger {
	var logLevel slog.Level
	switch c.config.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})

	return slog.New(handler)
}
